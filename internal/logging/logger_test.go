package logging

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
)

type recordingLogger struct {
	lines []string
}

func (l *recordingLogger) record(level, format string, args ...any) {
	l.lines = append(l.lines, level+" "+fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Debug(format string, args ...any) { l.record("debug", format, args...) }
func (l *recordingLogger) Info(format string, args ...any)  { l.record("info", format, args...) }
func (l *recordingLogger) Warn(format string, args ...any)  { l.record("warn", format, args...) }
func (l *recordingLogger) Error(format string, args ...any) { l.record("error", format, args...) }

func TestRedactLineRedactsAPIKeyAssignment(t *testing.T) {
	got := redactLine("apiKey=sk-test12345678901234567890")
	want := "apiKey=[REDACTED]"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestRedactLineRedactsBearerToken(t *testing.T) {
	got := redactLine("Authorization: Bearer abc123.def-ghi_jkl")
	want := "Authorization: Bearer [REDACTED]"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestRedactLineRedactsStandaloneSecrets(t *testing.T) {
	got := redactLine("retrying with ghp_abcdefghijklmnop1234")
	want := "retrying with [REDACTED]"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestRedactLineRedactsSensitiveKeyVariants(t *testing.T) {
	cases := []struct {
		line   string
		secret string
	}{
		{"api_key=abc123secret", "abc123secret"},
		{"API-KEY: abc123secret", "abc123secret"},
		{"builder_token=tok_123", "tok_123"},
		{"builderToken=tok_456", "tok_456"},
		{"token: deadbeef", "deadbeef"},
		{"secret=hunter2", "hunter2"},
		{"password=pa55w0rd!", "pa55w0rd!"},
	}
	for _, tc := range cases {
		got := redactLine(tc.line)
		if strings.Contains(got, tc.secret) {
			t.Errorf("redactLine(%q) leaked the secret: %q", tc.line, got)
		}
		if !strings.Contains(got, redactedPlaceholder) {
			t.Errorf("redactLine(%q) = %q, expected a %s placeholder", tc.line, got, redactedPlaceholder)
		}
	}
}

func TestRedactLineKeepsOrdinaryLines(t *testing.T) {
	line := "resolved default model anthropic/claude-sonnet-4 for organization org-12"
	if got := redactLine(line); got != line {
		t.Fatalf("expected %q, got %q", line, got)
	}
}

func TestRedactLineKeepsShortPrefixedValues(t *testing.T) {
	line := "probe sk-abc123 responded"
	if got := redactLine(line); got != line {
		t.Fatalf("expected %q, got %q", line, got)
	}
}

func TestMultiFansOutToAllLoggers(t *testing.T) {
	first := &recordingLogger{}
	second := &recordingLogger{}

	logger := Multi(first, second)
	logger.Debug("d %d", 1)
	logger.Info("i")
	logger.Warn("w")
	logger.Error("e")

	want := []string{"debug d 1", "info i", "warn w", "error e"}
	for _, rec := range []*recordingLogger{first, second} {
		if len(rec.lines) != len(want) {
			t.Fatalf("expected %d lines, got %d: %v", len(want), len(rec.lines), rec.lines)
		}
		for i := range want {
			if rec.lines[i] != want[i] {
				t.Fatalf("line %d: expected %q, got %q", i, want[i], rec.lines[i])
			}
		}
	}
}

func TestMultiDropsNilLoggersAndFlattens(t *testing.T) {
	first := &recordingLogger{}
	second := &recordingLogger{}
	third := &recordingLogger{}

	if got := Multi(nil, first); got != Logger(first) {
		t.Fatalf("expected the single survivor unwrapped, got %T", got)
	}

	outer := Multi(Multi(first, second), nil, third)
	ml, ok := outer.(*multiLogger)
	if !ok {
		t.Fatalf("expected *multiLogger, got %T", outer)
	}
	if len(ml.loggers) != 3 {
		t.Fatalf("expected 3 flattened loggers, got %d", len(ml.loggers))
	}

	outer.Info("hello")
	for i, rec := range []*recordingLogger{first, second, third} {
		if len(rec.lines) != 1 {
			t.Fatalf("logger %d: expected 1 line, got %d", i, len(rec.lines))
		}
	}
}

func TestMultiWithoutLoggersIsNop(t *testing.T) {
	if got := Multi(); got != Nop() {
		t.Fatalf("expected the no-op logger, got %T", got)
	}
	var typedNil *recordingLogger
	if got := Multi(nil, typedNil); got != Nop() {
		t.Fatalf("expected the no-op logger, got %T", got)
	}
}

func TestIsNilDetectsTypedNil(t *testing.T) {
	var typedNil *recordingLogger
	if !IsNil(nil) {
		t.Fatal("expected IsNil(nil) to be true")
	}
	if !IsNil(typedNil) {
		t.Fatal("expected IsNil to see through a typed nil pointer")
	}
	if IsNil(Nop()) {
		t.Fatal("expected the no-op logger to count as non-nil")
	}
	if IsNil(&recordingLogger{}) {
		t.Fatal("expected a live logger to count as non-nil")
	}
}

func TestOrNopReplacesTypedNil(t *testing.T) {
	var typedNil *recordingLogger
	logger := OrNop(typedNil)
	logger.Debug("must not panic")
	if logger != Nop() {
		t.Fatalf("expected the no-op logger, got %T", logger)
	}

	live := &recordingLogger{}
	if got := OrNop(live); got != Logger(live) {
		t.Fatalf("expected the original logger back, got %T", got)
	}
}

func TestWriterLoggerHonorsLevelAndRedacts(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf, LevelInfo)

	logger.Debug("suppressed")
	logger.Info("token=%s", "hunter2-secret")
	logger.Warn("plain note")

	got := buf.String()
	want := "INFO token=[REDACTED]\nWARN plain note\n"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
