package logging

import (
	"context"

	"go.uber.org/zap"
)

// NewZap returns a Logger backed by a zap.Logger. Passing nil uses
// zap.L(), the global logger. Arguments are interpreted as alternating
// key/value pairs, as with zap's SugaredLogger.
func NewZap(logger *zap.Logger) Logger {
	if logger == nil {
		logger = zap.L()
	}
	return &zapLogger{logger: logger.Sugar()}
}

type zapLogger struct {
	logger *zap.SugaredLogger
}

func (l *zapLogger) Debug(_ context.Context, msg string, args ...any) {
	l.logger.Debugw(msg, args...)
}

func (l *zapLogger) Info(_ context.Context, msg string, args ...any) {
	l.logger.Infow(msg, args...)
}

func (l *zapLogger) Warn(_ context.Context, msg string, args ...any) {
	l.logger.Warnw(msg, args...)
}

func (l *zapLogger) Error(_ context.Context, msg string, args ...any) {
	l.logger.Errorw(msg, args...)
}

func (l *zapLogger) With(args ...any) Logger {
	return &zapLogger{logger: l.logger.With(args...)}
}
