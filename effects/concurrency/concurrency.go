package concurrency

import (
	"context"
	"sync"

	"github.com/on-the-ground/effect_ive_sheet/effects"
	effectmodel "github.com/on-the-ground/effect_ive_sheet/effects/internal/model"
	"github.com/on-the-ground/effect_ive_sheet/effects/log"
)

// WithEffectHandler installs a fire-and-forget concurrency effect handler.
//
// Effect(ctx, fns...) then spawns each function in its own goroutine under a supervisor:
//   - Cancelling ctx cancels every child.
//   - The returned teardown blocks until every child has returned.
//   - A panicking child is logged and does not take the others down.
func WithEffectHandler(
	ctx context.Context,
	bufferSize int,
) (context.Context, func() context.Context) {
	sv := &supervisor{
		logCtx: ctx,
		doneCh: make(chan struct{}),
	}
	sv.watchParentCancel(ctx)

	return effects.WithFireAndForgetEffectHandler(
		ctx,
		effectmodel.NewEffectScopeConfig(bufferSize, 1),
		effectmodel.EffectConcurrency,
		sv.spawnConcurrentChildren,
		func() {
			sv.waitChildren(ctx)
			close(sv.doneCh)
		},
	)
}

// Effect spawns fns under the concurrency handler registered in ctx.
func Effect(ctx context.Context, fns ...func(context.Context)) {
	effects.FireAndForgetEffect[Payload](ctx, effectmodel.EffectConcurrency, fns)
}

type Payload []func(context.Context)

func (cp Payload) PartitionKey() string {
	return "unpartitioned"
}

// supervisor tracks the children spawned by one concurrency handler.
type supervisor struct {
	// logCtx outlives the handler's worker context, so panics are still reported during teardown.
	logCtx context.Context
	wg     sync.WaitGroup

	mu              sync.Mutex
	childrenCancels []context.CancelFunc
	cancelled       bool

	doneCh chan struct{}
}

// watchParentCancel cancels every child once the parent context ends.
func (s *supervisor) watchParentCancel(parentContext context.Context) {
	ready := make(chan struct{})
	go func() {
		close(ready)
		select {
		case <-parentContext.Done():
			log.Effect(parentContext, log.LogDebug, "context cancelled, cancelling child routines", nil)
			s.cancelAll()
		case <-s.doneCh:
		}
	}()
	<-ready
}

func (s *supervisor) cancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelled = true
	for _, cancelFn := range s.childrenCancels {
		cancelFn()
	}
	s.childrenCancels = nil
}

// newChildContext returns a context for one child, already cancelled if the parent has ended.
func (s *supervisor) newChildContext() context.Context {
	childCtx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelled {
		cancel()
	} else {
		s.childrenCancels = append(s.childrenCancels, cancel)
	}
	return childCtx
}

// spawnConcurrentChildren starts each function in its own goroutine with its own context.
func (s *supervisor) spawnConcurrentChildren(
	_ context.Context,
	functions Payload,
) {
	ready := sync.WaitGroup{}

	for _, fn := range functions {
		childCtx := s.newChildContext()
		s.wg.Add(1)
		ready.Add(1)
		go func(f func(context.Context), ctx context.Context) {
			defer s.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.Effect(s.logCtx, log.LogError, "panic in child routine", map[string]interface{}{
						"error": r,
					})
				}
			}()
			ready.Done()
			f(ctx)
		}(fn, childCtx)
	}

	// all children started before the next payload is taken
	ready.Wait()
}

// waitChildren blocks until all child goroutines complete.
func (s *supervisor) waitChildren(ctx context.Context) {
	log.Effect(ctx, log.LogDebug, "waiting for all routines to finish", nil)
	s.wg.Wait()
	s.mu.Lock()
	for _, cancelFn := range s.childrenCancels {
		cancelFn()
	}
	s.childrenCancels = nil
	s.mu.Unlock()
	log.Effect(ctx, log.LogDebug, "all routines finished", nil)
}
