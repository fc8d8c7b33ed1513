package harness

import (
	"context"
	"strconv"

	"github.com/23skdu/tracearena/internal/metrics"
	"github.com/rs/zerolog"
)

// Case is one conformance test.
type Case struct {
	ID      string
	Summary string
	Expect  Expectation
	Body    func(t *T)
}

// Result pairs a case with its verdict.
type Result struct {
	Case    Case
	Verdict Verdict
	Matched bool
	Reason  string
}

// Run executes c and matches its verdict against the expectation.
func Run(c Case, logger *zerolog.Logger) Result {
	v := Trampoline(c.Body)
	ok, reason := c.Expect.Match(v)

	metrics.HarnessVerdictsTotal.WithLabelValues(string(v.Outcome), strconv.FormatBool(ok)).Inc()
	metrics.HarnessCaseDuration.Observe(v.Duration.Seconds())

	var ev *zerolog.Event
	if ok {
		ev = logger.Info()
	} else {
		ev = logger.Error().Str("reason", reason)
	}
	ev = ev.Str("case", c.ID).
		Str("summary", c.Summary).
		Str("run_id", v.RunID).
		Str("outcome", string(v.Outcome)).
		Dur("duration", v.Duration).
		Bool("matched", ok)
	if v.Outcome == OutcomeAssert {
		ev = ev.Str("type", string(v.Type)).
			Str("file", v.File).
			Int("line", v.Line).
			Str("cond", v.Cond)
	}
	if v.Outcome == OutcomeFail {
		ev = ev.Str("message", v.Message)
	}
	ev.Msg("case finished")

	return Result{Case: c, Verdict: v, Matched: ok, Reason: reason}
}

// RunAll runs cases in order until ctx is cancelled. It returns the results
// gathered so far and ctx.Err() when cancelled.
func RunAll(ctx context.Context, cases []Case, logger *zerolog.Logger) ([]Result, error) {
	results := make([]Result, 0, len(cases))
	for _, c := range cases {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		results = append(results, Run(c, logger))
	}
	return results, nil
}

// Failed returns the results whose verdict did not match.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Matched {
			out = append(out, r)
		}
	}
	return out
}
