package editorbuild

import (
	"context"

	"github.com/rs/zerolog"
)

type logKey struct{}

var nopLogger = zerolog.Nop()

func log(ctx context.Context) *zerolog.Logger {
	logger := ctx.Value(logKey{})
	if logger == nil {
		return &nopLogger
	}

	return logger.(*zerolog.Logger)
}

// WithLogger attaches the given logger to the context
func WithLogger(ctx context.Context, logger *zerolog.Logger) context.Context {
	return context.WithValue(ctx, logKey{}, logger)
}

// Logger returns the logger attached to ctx or a no-op logger. It's meant for callers outside
// this package that log next to a build, like the CLI reporting which config file it loaded.
func Logger(ctx context.Context) *zerolog.Logger {
	return log(ctx)
}
