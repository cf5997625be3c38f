package log

import (
	"context"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// WithTestEffectHandler registers a log handler printing every level to stdout.
func WithTestEffectHandler(
	ctx context.Context,
) (context.Context, func() context.Context) {
	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.Lock(os.Stdout),
		zap.DebugLevel,
	)
	return WithZapEffectHandler(
		ctx,
		1,
		zap.New(consoleCore),
	)
}

// WithObservedEffectHandler registers a log handler that records entries at or above level
// in memory. The entries are complete once the returned teardown has been called.
func WithObservedEffectHandler(
	ctx context.Context,
	level zapcore.Level,
) (context.Context, *observer.ObservedLogs, func() context.Context) {
	core, logs := observer.New(level)
	ctx, teardown := WithZapEffectHandler(ctx, 16, zap.New(core))
	return ctx, logs, teardown
}
