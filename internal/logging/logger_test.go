package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry), line)
		out = append(out, entry)
	}
	return out
}

func TestNewLoggerFormats(t *testing.T) {
	for _, format := range []string{"json", "console", "text", ""} {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			logger, err := NewLogger(Config{Format: format, Level: "info", Output: &buf})
			require.NoError(t, err)

			logger.Info().Uint32("arena", 3).Msg("arena created")
			assert.Contains(t, buf.String(), "arena created")
		})
	}
}

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		level   string
		wantErr bool
	}{
		{"debug", false},
		{"info", false},
		{"", false},
		{"WARNING", false},
		{"error", false},
		{"verbose", true},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			_, err := NewLogger(Config{Format: "json", Level: tt.level})
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(Config{Format: "json", Level: "warn", Output: &buf})
	require.NoError(t, err)

	logger.Debug().Msg("thread registered")
	logger.Info().Msg("arena created")
	logger.Warn().Msg("arena destroy refused")
	logger.Error().Msg("assertion failed")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "arena destroy refused", entries[0]["message"])
	assert.Equal(t, "assertion failed", entries[1]["message"])
}

func TestAssertionRecordShape(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(Config{Format: "json", Level: "info", Output: &buf, Component: "argerr"})
	require.NoError(t, err)

	child := logger.With().Str("source", "assert").Logger()
	child.Error().
		Str("type", "invalid_argument").
		Str("file", "register.go").
		Int("line", 42).
		Str("cond", "slot != nil").
		Msg("assertion failed")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, "argerr", e["component"])
	assert.Equal(t, "assert", e["source"])
	assert.Equal(t, "error", e["level"])
	assert.Equal(t, "register.go", e["file"])
	assert.Equal(t, float64(42), e["line"])
	assert.Equal(t, "slot != nil", e["cond"])
	assert.Contains(t, e, "time")
}

func TestLoggingMetrics(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(Config{Format: "json", Level: "info", Output: &buf})
	require.NoError(t, err)

	infoBefore := testutil.ToFloat64(LogEntriesTotal.WithLabelValues("info"))
	errorsBefore := testutil.ToFloat64(LogErrorsTotal)

	logger.Info().Msg("one")
	logger.Info().Msg("two")
	logger.Error().Msg("three")
	logger.Debug().Msg("filtered")

	assert.Equal(t, infoBefore+2, testutil.ToFloat64(LogEntriesTotal.WithLabelValues("info")))
	assert.Equal(t, errorsBefore+1, testutil.ToFloat64(LogErrorsTotal))
}

func TestDiscardLogger(t *testing.T) {
	before := testutil.ToFloat64(LogErrorsTotal)
	logger := DiscardLogger()
	logger.Error().Msg("dropped")
	assert.Equal(t, before, testutil.ToFloat64(LogErrorsTotal))
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "info", cfg.Level)
}
