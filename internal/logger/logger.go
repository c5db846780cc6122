// Package logger implements an interface behind which a third-party,
// levelled logger can sit, keeping zap out of every signature in the
// program. jan's logging needs are simple: DEBUG-level lines gated by
// -v/--verbose.
package logger

import "go.uber.org/zap"

// Logger is the interface behind which a debug logger can sit.
type Logger interface {
	// Sync flushes buffered log lines.
	Sync() error
	// Debug outputs a debug-level log line; no trailing newline needed.
	Debug(format string, args ...any)
}

// ZapLogger is a Logger backed by zap's sugared logger.
type ZapLogger struct {
	inner *zap.SugaredLogger
}

// New builds a ZapLogger. verbose raises the level to Debug; quiet raises
// it to Warn so routine progress lines are suppressed.
func New(verbose, quiet bool) (*ZapLogger, error) {
	level := zap.InfoLevel
	switch {
	case quiet:
		level = zap.WarnLevel
	case verbose:
		level = zap.DebugLevel
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.DisableCaller = true
	built, err := cfg.Build(zap.IncreaseLevel(level))
	if err != nil {
		return nil, err
	}
	return &ZapLogger{inner: built.Sugar()}, nil
}

// Sync flushes the logs.
func (z *ZapLogger) Sync() error {
	return z.inner.Sync()
}

// Debug outputs a debug-level log line.
func (z *ZapLogger) Debug(format string, args ...any) {
	z.inner.Debugf(format, args...)
}

// NoOp is a Logger that discards everything, used as the default when a
// caller (library usage of the internal packages, tests) doesn't want to
// wire up zap.
type NoOp struct{}

func (NoOp) Sync() error                      { return nil }
func (NoOp) Debug(format string, args ...any) {}
