package handlers

import (
	"context"
	"errors"

	effectmodel "github.com/on-the-ground/effect_ive_sheet/effects/internal/model"
	"go.uber.org/zap"
)

// NewResumableHandler starts a handler with a single worker: payloads are handled one at a
// time in the order they were performed.
func NewResumableHandler[P any, R any](
	ctx context.Context,
	bufferSize int,
	handleFn func(context.Context, P) (R, error),
	teardown func(),
) ResumableHandler[P, R] {
	return ResumableHandler[P, R]{
		effectScope: newEffectScope(
			ctx,
			func(ctx context.Context) WorkerDispatcher[ResumableEffectMessage[P, R]] {
				return NewSingleQueue(ctx, bufferSize, resume(handleFn))
			},
			teardown,
		),
	}
}

// NewPartitionableResumableHandler starts config.NumWorkers workers and routes every payload
// by its partition key.
func NewPartitionableResumableHandler[P effectmodel.Partitionable, R any](
	ctx context.Context,
	config effectmodel.EffectScopeConfig,
	handleFn func(context.Context, P) (R, error),
	teardown func(),
) ResumableHandler[P, R] {
	return ResumableHandler[P, R]{
		effectScope: newEffectScope(
			ctx,
			func(ctx context.Context) WorkerDispatcher[ResumableEffectMessage[P, R]] {
				return NewPartitionedQueue(ctx, config.NumWorkers, config.BufferSize, resume(handleFn))
			},
			teardown,
		),
	}
}

func resume[P any, R any](
	handleFn func(context.Context, P) (R, error),
) func(context.Context, ResumableEffectMessage[P, R]) {
	return func(ctx context.Context, msg ResumableEffectMessage[P, R]) {
		// ResumeCh has room for exactly this one result
		msg.ResumeCh <- ResumableResultFrom(handleFn(ctx, msg.Payload))
		close(msg.ResumeCh)
	}
}

type ResumableHandler[P any, R any] struct {
	*effectScope[ResumableEffectMessage[P, R]]
}

// PerformEffect queues payload and returns the channel its result will be resumed on.
// The channel is closed without a value when ctx ends before the payload is queued, and
// resumes ErrHandlerClosed when the handler is already closed.
func (rh ResumableHandler[P, R]) PerformEffect(ctx context.Context, payload P) <-chan ResumableResult[R] {
	// buffered so the worker never blocks on a performer that gave up
	ch := make(chan ResumableResult[R], 1)
	msg := ResumableEffectMessage[P, R]{
		Payload:  payload,
		ResumeCh: ch,
	}
	err := rh.dispatcher.Dispatch(ctx, msg)
	switch {
	case err == nil:
	case errors.Is(err, ErrHandlerClosed):
		zap.L().Warn("effect performed on a closed handler",
			zap.String("effectId", rh.EffectId),
			zap.Any("payload", payload),
		)
		ch <- ResumableResult[R]{Err: err}
		close(ch)
	default:
		close(ch)
	}
	return ch
}

// ResumableResult represents the result of handled effects.
type ResumableResult[T any] struct {
	Value T
	Err   error
}

func ResumableResultFrom[R any](res R, err error) ResumableResult[R] {
	return ResumableResult[R]{Value: res, Err: err}
}

var _ effectmodel.Partitionable = ResumableEffectMessage[any, any]{}

type ResumableEffectMessage[P any, R any] struct {
	Payload  P
	ResumeCh chan ResumableResult[R]
}

func (rem ResumableEffectMessage[P, R]) PartitionKey() string {
	if p, ok := any(rem.Payload).(effectmodel.Partitionable); ok {
		return p.PartitionKey()
	}
	return ""
}
