package logging

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug": zerolog.DebugLevel,
		"info":  zerolog.InfoLevel,
		"warn":  zerolog.WarnLevel,
		"error": zerolog.ErrorLevel,
		"":      zerolog.WarnLevel,
		"loud":  zerolog.WarnLevel,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestConsoleLoggerWritesToGivenWriter(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(LogConfig{Level: "info", Console: true}, &buf)
	LogNetting(WithLedger(logger, "a.csv"), "APPLIED", 2, 1, 100, 10000)
	out := buf.String()
	if !strings.Contains(out, "Charges netted") || !strings.Contains(out, "a.csv") {
		t.Errorf("log output = %q", out)
	}
}

func TestFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "test.log")
	logger := newLogger(LogConfig{Level: "debug", File: true, FilePath: path, MaxSize: 1}, nil)
	LogRecordSkipped(WithOperation(logger, "report"), 7, "Symbol", "X", "malformed symbol")
	// the rotating writer creates the directory eagerly
	if _, err := filepath.Glob(filepath.Join(filepath.Dir(path), "*")); err != nil {
		t.Fatal(err)
	}
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	ctx := WithLogger(context.Background(), logger)
	ctxLogger := FromContext(ctx)
	ctxLogger.Warn().Msg("hello")
	if !strings.Contains(buf.String(), "hello") {
		t.Error("logger from context should write to the original writer")
	}

	// missing logger yields a no-op logger
	nopLogger := FromContext(context.Background())
	nopLogger.Warn().Msg("dropped")
}
