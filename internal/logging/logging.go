// Package logging provides the Logger interface shared by every core
// package and a zap-backed default implementation.
package logging

import (
	"go.uber.org/zap"
)

// Logger is the minimal logging surface core packages depend on. It is
// deliberately small so components never import zap (or any other
// logging package) directly — only internal/logging does.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
	// With returns a derived Logger that tags every line with category.
	With(category string) Logger
}

type zapLogger struct {
	s *zap.SugaredLogger
}

// NewZapLogger builds a production zap logger and wraps it as a Logger.
func NewZapLogger() (Logger, error) {
	z, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return &zapLogger{s: z.Sugar()}, nil
}

// NewDevelopmentLogger builds a console-friendly zap logger, useful for
// cmd/opennettyd when run interactively.
func NewDevelopmentLogger() (Logger, error) {
	z, err := zap.NewDevelopment()
	if err != nil {
		return nil, err
	}
	return &zapLogger{s: z.Sugar()}, nil
}

func (l *zapLogger) Debug(format string, args ...any) { l.s.Debugf(format, args...) }
func (l *zapLogger) Info(format string, args ...any)  { l.s.Infof(format, args...) }
func (l *zapLogger) Warn(format string, args ...any)  { l.s.Warnf(format, args...) }
func (l *zapLogger) Error(format string, args ...any) { l.s.Errorf(format, args...) }

func (l *zapLogger) With(category string) Logger {
	return &zapLogger{s: l.s.With("component", category)}
}

// Nop is a Logger that discards everything; used as the zero-value
// default and in tests.
type Nop struct{}

func (Nop) Debug(string, ...any)   {}
func (Nop) Info(string, ...any)    {}
func (Nop) Warn(string, ...any)    {}
func (Nop) Error(string, ...any)   {}
func (n Nop) With(string) Logger   { return n }
