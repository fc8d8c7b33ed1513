package harness

import (
	"fmt"
	"path"
	"time"

	"github.com/23skdu/tracearena/internal/errors"
)

// Outcome classifies how a case body ended.
type Outcome string

const (
	// OutcomePass means the body returned normally.
	OutcomePass Outcome = "pass"
	// OutcomeAssert means a checked assertion fired.
	OutcomeAssert Outcome = "assert"
	// OutcomeFail means the body gave up through Die/Cdie or panicked.
	OutcomeFail Outcome = "fail"
)

// Verdict is the structured result of running one case body.
type Verdict struct {
	RunID    string
	Outcome  Outcome
	Type     errors.ErrorType
	File     string
	Line     int
	Cond     string
	Message  string
	Duration time.Duration
	// Log holds lines recorded with T.Logf.
	Log []string
}

func (v Verdict) String() string {
	switch v.Outcome {
	case OutcomeAssert:
		return fmt.Sprintf("assert %s:%d %s (%s)", v.File, v.Line, v.Cond, v.Type)
	case OutcomeFail:
		return "fail: " + v.Message
	default:
		return string(v.Outcome)
	}
}

// Expectation states what a case is expected to produce.
type Expectation struct {
	// Assert requires a checked assertion. When false the body must pass.
	Assert bool
	// AssertType, when set, must equal the assertion's error type.
	AssertType errors.ErrorType
	// AssertFile, when set, is a path.Match pattern for the file name.
	AssertFile string
	// AssertCond, when set, must equal the predicate text exactly.
	AssertCond string
}

// Match reports whether v satisfies e, with a reason when it does not.
func (e Expectation) Match(v Verdict) (bool, string) {
	if !e.Assert {
		if v.Outcome != OutcomePass {
			return false, fmt.Sprintf("expected pass, got %s", v)
		}
		return true, ""
	}

	if v.Outcome != OutcomeAssert {
		return false, fmt.Sprintf("expected assertion, got %s", v)
	}
	if e.AssertType != "" && e.AssertType != v.Type {
		return false, fmt.Sprintf("assertion type %s, want %s", v.Type, e.AssertType)
	}
	if e.AssertFile != "" {
		ok, err := path.Match(e.AssertFile, v.File)
		if err != nil {
			return false, fmt.Sprintf("bad file pattern %q: %v", e.AssertFile, err)
		}
		if !ok {
			return false, fmt.Sprintf("assertion in %s, want %s", v.File, e.AssertFile)
		}
	}
	if e.AssertCond != "" && e.AssertCond != v.Cond {
		return false, fmt.Sprintf("assertion cond %q, want %q", v.Cond, e.AssertCond)
	}
	return true, ""
}
