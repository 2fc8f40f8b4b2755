package zlog

import (
	"log"
	"os"
)

// fallbackLogger is used when zap fails to build (e.g. an invalid output
// path from misconfiguration); it never panics and keeps the service able
// to log at all.
type fallbackLogger struct {
	base   []any
	logger *log.Logger
}

func newFallback(service string) *fallbackLogger {
	return &fallbackLogger{
		base:   []any{"service", service},
		logger: log.New(os.Stderr, "", log.LstdFlags),
	}
}

func (f *fallbackLogger) print(level, msg string, kv []any) {
	f.logger.Println(level+":", msg, append(append([]any{}, f.base...), kv...))
}

func (f *fallbackLogger) Debug(msg string, kv ...any) { f.print("DEBUG", msg, kv) }
func (f *fallbackLogger) Info(msg string, kv ...any)  { f.print("INFO", msg, kv) }
func (f *fallbackLogger) Warn(msg string, kv ...any)  { f.print("WARN", msg, kv) }
func (f *fallbackLogger) Error(msg string, kv ...any) { f.print("ERROR", msg, kv) }
func (f *fallbackLogger) Sync() error                 { return nil }

func (f *fallbackLogger) With(kv ...any) Logger {
	return &fallbackLogger{base: append(append([]any{}, f.base...), kv...), logger: f.logger}
}

// discard drops every record. Useful in tests.
type discard struct{}

func (discard) Debug(string, ...any) {}
func (discard) Info(string, ...any)  {}
func (discard) Warn(string, ...any)  {}
func (discard) Error(string, ...any) {}
func (discard) Sync() error          { return nil }
func (discard) With(...any) Logger   { return discard{} }

// NewDiscard returns a Logger that drops all output.
func NewDiscard() Logger { return discard{} }
