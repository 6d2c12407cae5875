// Package logging provides a minimal logging facade for the magic package.
//
// The Logger interface wraps a subset of log/slog with context-aware
// methods:
//
//	type Logger interface {
//	    Debug(ctx context.Context, msg string, args ...any)
//	    Info(ctx context.Context, msg string, args ...any)
//	    Warn(ctx context.Context, msg string, args ...any)
//	    Error(ctx context.Context, msg string, args ...any)
//	    With(args ...any) Logger
//	}
//
// # Implementations
//
// New binds to a *slog.Logger (slog.Default() when nil):
//
//	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})
//	logger := logging.New(slog.New(handler))
//
// NewZap binds to a *zap.Logger for applications that already log with zap:
//
//	z, _ := zap.NewProduction()
//	logger := logging.NewZap(z)
//
// Discard drops everything.
//
// # Usage with sessions
//
//	s, err := magic.Open(magic.WithLogger(logger))
//
// Sessions log database loads and flag changes at Debug, and failures
// that are swallowed because DoNotStopOnError is set at Warn.
package logging
