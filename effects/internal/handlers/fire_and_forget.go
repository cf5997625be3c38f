package handlers

import (
	"context"
	"errors"

	effectmodel "github.com/on-the-ground/effect_ive_sheet/effects/internal/model"
	"go.uber.org/zap"
)

// NewFireAndForgetHandler starts config.NumWorkers workers. With more than one worker,
// payloads implementing effectmodel.Partitionable keep their order per partition key.
func NewFireAndForgetHandler[T any](
	ctx context.Context,
	config effectmodel.EffectScopeConfig,
	handleFn func(context.Context, T),
	teardown func(),
) FireAndForgetHandler[T] {
	return FireAndForgetHandler[T]{
		effectScope: newEffectScope(
			ctx,
			func(ctx context.Context) WorkerDispatcher[fireAndForgetMessage[T]] {
				handle := func(ctx context.Context, msg fireAndForgetMessage[T]) {
					handleFn(ctx, msg.payload)
				}
				if config.NumWorkers <= 1 {
					return NewSingleQueue(ctx, config.BufferSize, handle)
				}
				return NewPartitionedQueue(ctx, config.NumWorkers, config.BufferSize, handle)
			},
			teardown,
		),
	}
}

type FireAndForgetHandler[T any] struct {
	*effectScope[fireAndForgetMessage[T]]
}

// FireAndForgetEffect queues payload. It blocks only while the worker's buffer is full.
// Nothing is queued once ctx has ended or the handler is closed.
func (ffh FireAndForgetHandler[T]) FireAndForgetEffect(ctx context.Context, payload T) {
	err := ffh.dispatcher.Dispatch(ctx, fireAndForgetMessage[T]{payload: payload})
	if errors.Is(err, ErrHandlerClosed) {
		zap.L().Warn("effect fired at a closed handler",
			zap.String("effectId", ffh.EffectId),
			zap.Any("payload", payload),
		)
	}
}

type fireAndForgetMessage[T any] struct {
	payload T
}

func (m fireAndForgetMessage[T]) PartitionKey() string {
	if p, ok := any(m.payload).(effectmodel.Partitionable); ok {
		return p.PartitionKey()
	}
	return ""
}
