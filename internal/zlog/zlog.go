// Package zlog is a minimal structured logging facade over Uber's zap,
// providing the small Logger interface notifyd threads explicitly through
// its components instead of relying on a package-level global or a value
// stashed in context.
package zlog

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the facade every notifyd component depends on. It is
// implemented by the zap-backed logger below, by the stdlib fallback, and
// by the no-op logger NewDiscard returns.
type Logger interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)
	With(kv ...any) Logger
	Sync() error
}

// Config selects the encoding and level for New.
type Config struct {
	ServiceName string
	Debug       bool
	Format      string // "json" or "console"
}

// DebugFromEnv reports whether NOTIFYD_DEBUG requests development-mode
// logging, for environments that set it ahead of loading the rest of
// config.
func DebugFromEnv() bool {
	v := os.Getenv("NOTIFYD_DEBUG")
	return v == "1" || strings.EqualFold(v, "true")
}

// New builds a zap-backed Logger from cfg. If zap construction fails it
// falls back to a stdlib-backed logger that never panics, so a logging
// misconfiguration never prevents the rest of notifyd from starting.
func New(cfg Config) Logger {
	var base zap.Config
	if cfg.Debug || DebugFromEnv() {
		base = zap.NewDevelopmentConfig()
		base.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		base = zap.NewProductionConfig()
		base.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	if cfg.Format != "" {
		base.Encoding = cfg.Format
	}
	base.EncoderConfig.TimeKey = "timestamp"
	base.EncoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
	base.InitialFields = map[string]any{"service": cfg.ServiceName}

	l, err := base.Build(zap.AddCaller())
	if err != nil {
		return newFallback(cfg.ServiceName)
	}
	return &zapLogger{l: l}
}

type zapLogger struct{ l *zap.Logger }

func toFields(kv []any) []zap.Field {
	fields := make([]zap.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		fields = append(fields, zap.Any(key, kv[i+1]))
	}
	return fields
}

func (z *zapLogger) Debug(msg string, kv ...any) { z.l.Debug(msg, toFields(kv)...) }
func (z *zapLogger) Info(msg string, kv ...any)  { z.l.Info(msg, toFields(kv)...) }
func (z *zapLogger) Warn(msg string, kv ...any)  { z.l.Warn(msg, toFields(kv)...) }
func (z *zapLogger) Error(msg string, kv ...any) { z.l.Error(msg, toFields(kv)...) }
func (z *zapLogger) Sync() error                 { return z.l.Sync() }

func (z *zapLogger) With(kv ...any) Logger {
	return &zapLogger{l: z.l.With(toFields(kv)...)}
}
