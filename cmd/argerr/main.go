// Command argerr runs the arena thread-registration conformance suite and
// reports a verdict per case.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/23skdu/tracearena/internal/conformance"
	"github.com/23skdu/tracearena/internal/harness"
	"github.com/23skdu/tracearena/internal/logging"
	"github.com/23skdu/tracearena/internal/memory"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Exit codes
const (
	exitOK       = 0
	exitMismatch = 1
	exitUsage    = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout io.Writer) int {
	fs := flag.NewFlagSet("argerr", flag.ContinueOnError)
	fs.SetOutput(stdout)
	envFile := fs.String("env", ".env", "Optional dotenv file with TRACEARENA_* settings")
	caseID := fs.String("case", "", "Run only the case with this ID")
	list := fs.Bool("list", false, "List cases and exit")
	stress := fs.Int("stress", -1, "Threads in the concurrent registration case (overrides TRACEARENA_STRESS)")
	metricsAddr := fs.String("metrics", "", "Serve Prometheus metrics on this address while running")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	cfg, err := LoadConfig(*envFile)
	if err != nil {
		fmt.Fprintf(stdout, "argerr: config: %v\n", err)
		return exitUsage
	}
	if *caseID != "" {
		cfg.Case = *caseID
	}
	if *stress >= 0 {
		cfg.Stress = *stress
	}
	if *metricsAddr != "" {
		cfg.MetricsAddr = *metricsAddr
	}
	if err := ValidateConfig(&cfg); err != nil {
		fmt.Fprintf(stdout, "argerr: config: %v\n", err)
		return exitUsage
	}

	logCfg := logging.DefaultConfig()
	logCfg.Format = cfg.LogFormat
	logCfg.Level = cfg.LogLevel
	logCfg.Output = stdout
	logCfg.Component = "argerr"
	logger, err := logging.NewLogger(logCfg)
	if err != nil {
		fmt.Fprintf(stdout, "argerr: logger: %v\n", err)
		return exitUsage
	}
	assertLogger := logger.With().Str("source", "assert").Logger()
	memory.SetAssertionLogger(&assertLogger)
	defer memory.SetAssertionLogger(nil)

	cases := selectCases(cfg)
	if *list {
		for _, c := range cases {
			fmt.Fprintf(stdout, "%-32s %s\n", c.ID, c.Summary)
		}
		return exitOK
	}
	if cfg.Case != "" {
		c, ok := conformance.Lookup(cases, cfg.Case)
		if !ok {
			logger.Error().Str("case", cfg.Case).Msg("unknown case")
			return exitUsage
		}
		cases = []harness.Case{c}
	}

	if cfg.MetricsAddr != "" {
		shutdown, err := serveMetrics(cfg.MetricsAddr, &logger)
		if err != nil {
			logger.Error().Err(err).Str("address", cfg.MetricsAddr).Msg("failed to start metrics server")
			return exitUsage
		}
		defer shutdown()
	}

	logger.Info().
		Str("class", string(cfg.Class)).
		Int64("size_limit", cfg.SizeLimit).
		Int("cases", len(cases)).
		Msg("running conformance suite")

	results, err := harness.RunAll(ctx, cases, &logger)
	if err != nil {
		logger.Warn().Err(err).Int("completed", len(results)).Msg("suite interrupted")
		return exitMismatch
	}

	failed := harness.Failed(results)
	logger.Info().
		Int("passed", len(results)-len(failed)).
		Int("failed", len(failed)).
		Int64("reserved_bytes", memory.TotalReserved()).
		Msg("suite finished")
	if len(failed) > 0 {
		return exitMismatch
	}
	return exitOK
}

// selectCases builds the suite for cfg. A positive Stress replaces the
// default size of the concurrent registration case.
func selectCases(cfg Config) []harness.Case {
	cases := conformance.Cases(cfg.Config)
	if cfg.Stress > 0 {
		for i, c := range cases {
			if c.ID == "thread-reg-concurrent" {
				cases[i] = conformance.ConcurrentRegistration(cfg.Config, cfg.Stress)
			}
		}
	}
	return cases
}

// serveMetrics starts a Prometheus endpoint and returns a function that
// stops it.
func serveMetrics(addr string, logger *zerolog.Logger) (func(), error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	done := make(chan struct{})
	go func() {
		defer close(done)
		logger.Info().Str("address", lis.Addr().String()).Msg("serving metrics")
		if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics server failed")
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
		<-done
	}, nil
}
