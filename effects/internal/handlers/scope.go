package handlers

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// effectScope owns the workers of one handler.
//
// A scope is not safe for concurrent Close calls. It is meant to be closed once, by the
// goroutine that registered the handler, through the teardown function returned on
// registration.
type effectScope[T any] struct {
	EffectId   string
	dispatcher WorkerDispatcher[T]
	closeFn    func()
	closed     bool
}

// Close stops the workers, waits for the message in flight, then runs the teardown.
func (es *effectScope[T]) Close() {
	if es.closed {
		return
	}
	es.closeFn()
	es.closed = true
	zap.L().Debug("effect scope closed", zap.String("effectId", es.EffectId))
}

// newEffectScope starts workers via start under a cancellable child of ctx.
func newEffectScope[T any](
	ctx context.Context,
	start func(ctx context.Context) WorkerDispatcher[T],
	teardown func(),
) *effectScope[T] {
	ctx, cancelFn := context.WithCancel(ctx)
	dispatcher := start(ctx)
	return &effectScope[T]{
		EffectId:   uuid.New().String(),
		dispatcher: dispatcher,
		closeFn: func() {
			cancelFn()
			dispatcher.Wait()
			teardown()
		},
		closed: false,
	}
}
