package zlog

import (
	"bytes"
	"log"
	"strings"
	"testing"
)

func TestFallbackLoggerRoutesLevels(t *testing.T) {
	var buf bytes.Buffer
	f := newFallback("test-service")
	f.logger = log.New(&buf, "", 0)

	f.Warn("heads up", "key", "value")

	out := buf.String()
	if !strings.Contains(out, "WARN:") || !strings.Contains(out, "heads up") {
		t.Fatalf("fallback output = %q, want WARN: heads up", out)
	}
	if !strings.Contains(out, "test-service") {
		t.Fatalf("fallback output = %q, want service field", out)
	}
}

func TestFallbackLoggerWithCarriesFields(t *testing.T) {
	var buf bytes.Buffer
	f := newFallback("test-service")
	f.logger = log.New(&buf, "", 0)

	scoped := f.With("request_id", "abc123")
	scoped.Info("handled")

	if !strings.Contains(buf.String(), "abc123") {
		t.Fatalf("With fields not carried into output: %q", buf.String())
	}
}

func TestNewBuildsAWorkingLogger(t *testing.T) {
	l := New(Config{ServiceName: "notifyd-test", Format: "json"})
	defer l.Sync()

	// Must not panic across every level, including after With.
	l.Debug("debug msg")
	l.Info("info msg")
	l.Warn("warn msg", "n", 1)
	l.With("component", "test").Error("error msg")
}

func TestDiscardDropsEverything(t *testing.T) {
	d := NewDiscard()
	d.Debug("x")
	d.Info("x")
	d.Warn("x")
	d.Error("x")
	if err := d.With("k", "v").Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}
}
