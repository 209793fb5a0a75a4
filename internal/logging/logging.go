// Package logging provides the structured logger used across agentlens.
//
// The shape mirrors alex's internal/logging package: a small Logger
// interface, a component-scoped constructor, a context carrier, and a
// nil-safe "OrNop" helper so callers never have to nil-check a logger
// before using it.
package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
)

// Logger is the structured logging surface used throughout agentlens.
// Format strings use fmt-style verbs, matching alex's call sites
// (logger.Warn("config reload failed: %v", err)).
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
	With(component string) Logger
}

type slogLogger struct {
	base *slog.Logger
}

// New builds a Logger backed by log/slog writing JSON to stderr at level,
// suitable for the process-wide root logger.
func New(level slog.Level) Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return &slogLogger{base: slog.New(handler)}
}

// NewComponentLogger returns a root logger scoped to component, writing to
// stderr at Info level. Matches alex's logging.NewComponentLogger(name)
// call sites used across services.
func NewComponentLogger(component string) Logger {
	return New(slog.LevelInfo).With(component)
}

func (l *slogLogger) Debug(format string, args ...any) { l.base.Debug(sprintf(format, args...)) }
func (l *slogLogger) Info(format string, args ...any)  { l.base.Info(sprintf(format, args...)) }
func (l *slogLogger) Warn(format string, args ...any)  { l.base.Warn(sprintf(format, args...)) }
func (l *slogLogger) Error(format string, args ...any) { l.base.Error(sprintf(format, args...)) }

func (l *slogLogger) With(component string) Logger {
	return &slogLogger{base: l.base.With("component", component)}
}

// nopLogger discards everything. Returned by OrNop(nil).
type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
func (n nopLogger) With(string) Logger { return n }

// OrNop returns l, or a no-op Logger when l is nil. Every constructor in
// agentlens that accepts an optional Logger funnels it through OrNop so
// internal code can call logger.Warn(...) unconditionally.
func OrNop(l Logger) Logger {
	if l == nil {
		return nopLogger{}
	}
	return l
}

type ctxKey struct{}

// WithContext attaches l to ctx so deeper call stacks can recover it via
// FromContext without threading a Logger parameter through every call.
func WithContext(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the Logger attached to ctx, or fallback (passed
// through OrNop) when none is present. Matches alex's
// logging.FromContext(ctx, svc.logger) call-site pattern.
func FromContext(ctx context.Context, fallback Logger) Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(Logger); ok && l != nil {
			return l
		}
	}
	return OrNop(fallback)
}

func sprintf(format string, args ...any) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
