package stream

import (
	"context"
	"sync"

	"github.com/on-the-ground/effect_ive_sheet/effects/concurrency"
)

// WithEffectHandler registers the concurrency handler stream stages run under.
// Its teardown waits for every stage to finish.
func WithEffectHandler(ctx context.Context, bufferSize int) (context.Context, func() context.Context) {
	return concurrency.WithEffectHandler(ctx, bufferSize)
}

// Effect starts every stage in its own supervised goroutine.
func Effect(ctx context.Context, payloads ...Payload) {
	fns := make([]func(context.Context), 0, len(payloads))
	for _, p := range payloads {
		fns = append(fns, p.run)
	}
	concurrency.Effect(ctx, fns...)
}

func mapFn[T any, R any](ctx context.Context, source <-chan T, sink chan<- R, f func(T) R) {
	for {
		v, ok := receive(ctx, source)
		if !ok {
			return
		}
		select {
		case sink <- f(v):
		case <-ctx.Done():
			return
		}
	}
}

func pipe[T any](ctx context.Context, source <-chan T, sink chan<- T) {
	mapFn(ctx, source, sink, func(v T) T {
		return v
	})
}

func filter[T any](ctx context.Context, source <-chan T, sink chan<- T, predicate func(T) bool) {
	for {
		v, ok := receive(ctx, source)
		if !ok {
			return
		}
		if !predicate(v) {
			continue
		}
		select {
		case sink <- v:
		case <-ctx.Done():
			return
		}
	}
}

// receive reports false once source is drained or ctx ends, whichever comes first.
func receive[T any](ctx context.Context, source <-chan T) (T, bool) {
	select {
	case v, ok := <-source:
		return v, ok
	case <-ctx.Done():
		var zero T
		return zero, false
	}
}

func merge[T any](ctx context.Context, sources []<-chan T, sink chan<- T) {
	var wg sync.WaitGroup
	for _, source := range sources {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pipe(ctx, source, sink)
		}()
	}
	wg.Wait()
	close(sink)
}
