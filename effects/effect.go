package effects

import (
	"context"

	"github.com/on-the-ground/effect_ive_sheet/effects/internal/handlers"
	"github.com/on-the-ground/effect_ive_sheet/effects/internal/helper"
	effectmodel "github.com/on-the-ground/effect_ive_sheet/effects/internal/model"
	sharedHelper "github.com/on-the-ground/effect_ive_sheet/shared/helper"
	"go.uber.org/zap"
)

// ErrNoEffectHandler is returned (or panicked with) when a context carries no handler for an effect.
var ErrNoEffectHandler = effectmodel.ErrNoEffectHandler

// ErrHandlerClosed is resumed to performers whose handler has already been torn down.
var ErrHandlerClosed = handlers.ErrHandlerClosed

// ResumableResult is what a resumable handler sends back to its performer.
type ResumableResult[R any] = handlers.ResumableResult[R]

// EffectScopeConfig sizes a handler's workers and their buffers.
type EffectScopeConfig = effectmodel.EffectScopeConfig

// NewEffectScopeConfig replaces non-positive sizes with 1.
func NewEffectScopeConfig(bufferSize, numWorkers int) EffectScopeConfig {
	return effectmodel.NewEffectScopeConfig(bufferSize, numWorkers)
}

// WithResumablePartitionableEffectHandler registers a resumable effect handler for a given effect enum.
//
// Payloads are routed by PartitionKey() across config.NumWorkers workers, so effects sharing a
// key are handled in the order they were performed.
//
// Usage:
//
//	ctx, teardown := WithResumablePartitionableEffectHandler(ctx, config, MyEffectEnum, handleFn)
//	defer teardown()
func WithResumablePartitionableEffectHandler[P effectmodel.Partitionable, R any](
	ctx context.Context,
	config effectmodel.EffectScopeConfig,
	enum effectmodel.EffectEnum,
	handleFn func(context.Context, P) (R, error),
	teardown ...func(),
) (context.Context, func() context.Context) {
	handler := handlers.NewPartitionableResumableHandler(ctx, config, handleFn, normalizeTeardown(teardown))
	return register(ctx, enum, handler.EffectId, "resumable", handler, handler.Close)
}

// WithResumableEffectHandler registers a resumable effect handler served by a single worker.
//
// Every payload is handled to completion before the next one starts, which makes the handler
// the single writer of whatever state handleFn closes over.
func WithResumableEffectHandler[P any, R any](
	ctx context.Context,
	bufferSize int,
	enum effectmodel.EffectEnum,
	handleFn func(context.Context, P) (R, error),
	teardown ...func(),
) (context.Context, func() context.Context) {
	handler := handlers.NewResumableHandler(ctx, max(bufferSize, 1), handleFn, normalizeTeardown(teardown))
	return register(ctx, enum, handler.EffectId, "resumable", handler, handler.Close)
}

// PerformResumableEffect sends a payload to the resumable effect handler registered under enum.
//
// The returned channel yields at most one result and is then closed.
// Panics if no handler of the matching type is registered.
func PerformResumableEffect[P any, R any](
	ctx context.Context,
	enum effectmodel.EffectEnum,
	payload P,
) <-chan handlers.ResumableResult[R] {
	handler := sharedHelper.MustGetTypedValue[handlers.ResumableHandler[P, R]](
		func() (any, error) {
			return helper.GetHandler(ctx, enum)
		},
	)
	return handler.PerformEffect(ctx, payload)
}

// AwaitResumableEffect performs payload and blocks for its result or the end of ctx.
func AwaitResumableEffect[P any, R any](
	ctx context.Context,
	enum effectmodel.EffectEnum,
	payload P,
) (R, error) {
	var zero R
	select {
	case res, ok := <-PerformResumableEffect[P, R](ctx, enum, payload):
		if ok {
			return res.Value, res.Err
		}
	case <-ctx.Done():
	}
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	return zero, ErrHandlerClosed
}

// WithFireAndForgetEffectHandler registers a fire-and-forget effect handler for a given effect enum.
//
// Suitable for one-shot effects like logging or spawning background work.
// With config.NumWorkers above 1, payloads implementing Partitionable keep per-key order.
func WithFireAndForgetEffectHandler[P any](
	ctx context.Context,
	config effectmodel.EffectScopeConfig,
	enum effectmodel.EffectEnum,
	handleFn func(context.Context, P),
	teardown ...func(),
) (context.Context, func() context.Context) {
	handler := handlers.NewFireAndForgetHandler(ctx, config, handleFn, normalizeTeardown(teardown))
	return register(ctx, enum, handler.EffectId, "fire/forget", handler, handler.Close)
}

// FireAndForgetEffect hands payload to the handler registered under enum.
//
// Panics if no handler of the matching type is registered.
func FireAndForgetEffect[P any](
	ctx context.Context,
	enum effectmodel.EffectEnum,
	payload P,
) {
	handler := sharedHelper.MustGetTypedValue[handlers.FireAndForgetHandler[P]](
		func() (any, error) {
			return helper.GetHandler(ctx, enum)
		},
	)
	handler.FireAndForgetEffect(ctx, payload)
}

// HasHandler reports whether ctx carries a handler for enum.
func HasHandler(ctx context.Context, enum effectmodel.EffectEnum) bool {
	_, err := helper.GetHandler(ctx, enum)
	return err == nil
}

func register(
	ctx context.Context,
	enum effectmodel.EffectEnum,
	effectId, kind string,
	handler any,
	closeFn func(),
) (context.Context, func() context.Context) {
	ctxWith := context.WithValue(ctx, enum, handler)
	zap.L().Sugar().Debugf("created %s effect handler: effectId: %v, enum: %v", kind, effectId, enum)

	return ctxWith, func() context.Context {
		closeFn()
		zap.L().Sugar().Debugf("closed %s effect handler: effectId: %v, enum: %v", kind, effectId, enum)
		return ctx
	}
}

// normalizeTeardown flattens optional teardown functions into a single callable.
//
// Accepts either 0 or 1 teardown functions. Panics if more than one is passed.
func normalizeTeardown(teardown []func()) func() {
	switch len(teardown) {
	case 1:
		return teardown[0]
	case 0:
		return func() {}
	default:
		panic("normalizeTeardown: only one or zero teardown functions allowed")
	}
}
