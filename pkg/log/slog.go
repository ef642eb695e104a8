package log

import (
	"context"
	"log/slog"
)

// slogLogger adapts *slog.Logger to Logger.
type slogLogger struct {
	logger *slog.Logger
}

// NewLogger wraps l as a Logger. A nil l uses slog.Default at call time.
func NewLogger(l *slog.Logger) Logger {
	return &slogLogger{logger: l}
}

// GetLogger returns a Logger backed by the process-wide slog default,
// which SetupLogger configures.
func GetLogger() Logger {
	return &slogLogger{}
}

func (s *slogLogger) base() *slog.Logger {
	if s.logger == nil {
		return slog.Default()
	}
	return s.logger
}

func (s *slogLogger) Debug(msg string, fields ...any) {
	s.base().Debug(msg, fields...)
}

func (s *slogLogger) Info(msg string, fields ...any) {
	s.base().Info(msg, fields...)
}

func (s *slogLogger) Warn(msg string, fields ...any) {
	s.base().Warn(msg, fields...)
}

func (s *slogLogger) Error(msg string, fields ...any) {
	if len(fields) > 0 {
		if err, ok := fields[0].(error); ok {
			fields = append([]any{ErrAttr(err)}, fields[1:]...)
		}
	}
	s.base().Error(msg, fields...)
}

func (s *slogLogger) With(fields ...any) Logger {
	return &slogLogger{logger: s.base().With(fields...)}
}

func (s *slogLogger) Enabled(ctx context.Context, level Level) bool {
	return s.base().Enabled(ctx, slog.Level(level))
}

type nopLogger struct{}

// Nop returns a Logger that discards everything.
func Nop() Logger { return nopLogger{} }

func (nopLogger) Debug(string, ...any)                {}
func (nopLogger) Info(string, ...any)                 {}
func (nopLogger) Warn(string, ...any)                 {}
func (nopLogger) Error(string, ...any)                {}
func (n nopLogger) With(...any) Logger                { return n }
func (nopLogger) Enabled(context.Context, Level) bool { return false }
