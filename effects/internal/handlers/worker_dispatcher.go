package handlers

import (
	"context"
	"errors"
	"sync"

	effectmodel "github.com/on-the-ground/effect_ive_sheet/effects/internal/model"
)

// ErrHandlerClosed is returned for messages dispatched after the handler was shut down.
var ErrHandlerClosed = errors.New("effect handler closed")

// WorkerDispatcher queues messages on the worker responsible for them.
// Once the dispatcher's context is cancelled it refuses new messages, and each worker handles
// whatever was already buffered before exiting.
type WorkerDispatcher[T any] interface {
	// Dispatch blocks while the worker's buffer is full. It returns ctx.Err() when ctx ends
	// first and ErrHandlerClosed once the dispatcher is shut down.
	Dispatch(ctx context.Context, msg T) error
	// Wait blocks until every worker has exited.
	Wait()
}

// workers is a fixed pool of goroutines, each draining its own channel in order.
type workers[T any] struct {
	effectChs []chan T
	pick      func(msg T, numChs int) int
	// mu is held shared by every send in flight. Shutdown takes it exclusively between
	// closing done and closing drain, so no send lands after a worker started draining.
	mu     sync.RWMutex
	done   chan struct{}
	drain  chan struct{}
	exited sync.WaitGroup
}

func (w *workers[T]) Dispatch(ctx context.Context, msg T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	select {
	case <-w.done:
		return ErrHandlerClosed
	default:
	}

	select {
	case w.effectChs[w.pick(msg, len(w.effectChs))] <- msg:
		return nil
	case <-w.done:
		return ErrHandlerClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *workers[T]) Wait() {
	w.exited.Wait()
}

func (w *workers[T]) shutdown(ctx context.Context) {
	<-ctx.Done()
	close(w.done)
	w.mu.Lock()
	close(w.drain)
	w.mu.Unlock()
}

func startWorkers[T any](
	ctx context.Context,
	numWorkers, bufferSize int,
	pick func(msg T, numChs int) int,
	handleFn func(context.Context, T),
) *workers[T] {
	w := &workers[T]{
		effectChs: make([]chan T, numWorkers),
		pick:      pick,
		done:      make(chan struct{}),
		drain:     make(chan struct{}),
	}
	ready := sync.WaitGroup{}
	for i := range w.effectChs {
		ch := make(chan T, bufferSize)
		w.effectChs[i] = ch
		ready.Add(1)
		w.exited.Add(1)
		go func() {
			defer w.exited.Done()
			ready.Done()
			for {
				select {
				case msg := <-ch:
					handleFn(ctx, msg)
				case <-w.drain:
					for {
						select {
						case msg := <-ch:
							handleFn(ctx, msg)
						default:
							return
						}
					}
				}
			}
		}()
	}
	ready.Wait()
	go w.shutdown(ctx)
	return w
}

// NewSingleQueue starts one worker; messages are handled strictly in arrival order.
func NewSingleQueue[T any](
	ctx context.Context,
	bufferSize int,
	handleFn func(context.Context, T),
) WorkerDispatcher[T] {
	return startWorkers(ctx, 1, bufferSize, func(T, int) int { return 0 }, handleFn)
}

// NewPartitionedQueue starts numWorkers workers. Messages sharing a partition key always
// reach the same worker, so their relative order is preserved.
func NewPartitionedQueue[T effectmodel.Partitionable](
	ctx context.Context,
	numWorkers, bufferSize int,
	handleFn func(context.Context, T),
) WorkerDispatcher[T] {
	return startWorkers(ctx, numWorkers, bufferSize, getIndexByHash[T], handleFn)
}
