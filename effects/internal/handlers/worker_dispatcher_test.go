package handlers_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/on-the-ground/effect_ive_sheet/effects/internal/handlers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dummyMessage is partitioned by group.
type dummyMessage struct {
	id    int
	group string
}

func (d dummyMessage) PartitionKey() string {
	return d.group
}

// gate holds every handled message until it is opened.
type gate struct {
	entered chan int
	open    chan struct{}
}

func newGate() *gate {
	return &gate{entered: make(chan int, 16), open: make(chan struct{})}
}

func (g *gate) handle(_ context.Context, msg int) {
	g.entered <- msg
	<-g.open
}

func TestSingleQueue_HandlesInArrivalOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu      sync.Mutex
		handled []int
		wg      sync.WaitGroup
	)
	wg.Add(4)
	dispatcher := handlers.NewSingleQueue(ctx, 4, func(_ context.Context, msg int) {
		defer wg.Done()
		mu.Lock()
		handled = append(handled, msg)
		mu.Unlock()
	})

	for i := 1; i <= 4; i++ {
		require.NoError(t, dispatcher.Dispatch(ctx, i))
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1, 2, 3, 4}, handled)
}

func TestPartitionedQueue_KeepsOrderPerKey(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu   sync.Mutex
		seen = map[string][]int{}
		wg   sync.WaitGroup
	)
	wg.Add(10)
	dispatcher := handlers.NewPartitionedQueue(ctx, 3, 4, func(_ context.Context, msg dummyMessage) {
		defer wg.Done()
		mu.Lock()
		seen[msg.group] = append(seen[msg.group], msg.id)
		mu.Unlock()
	})

	for i := 0; i < 5; i++ {
		require.NoError(t, dispatcher.Dispatch(ctx, dummyMessage{id: i, group: "a"}))
		require.NoError(t, dispatcher.Dispatch(ctx, dummyMessage{id: i, group: "b"}))
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{0, 1, 2, 3, 4}, seen["a"])
	assert.Equal(t, []int{0, 1, 2, 3, 4}, seen["b"])
}

func TestWorkerDispatcher_DispatchBlocksWhileBufferIsFull(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g := newGate()
	dispatcher := handlers.NewSingleQueue(ctx, 1, g.handle)

	require.NoError(t, dispatcher.Dispatch(ctx, 1))
	<-g.entered
	require.NoError(t, dispatcher.Dispatch(ctx, 2)) // fills the buffer

	dispatched := make(chan error, 1)
	go func() { dispatched <- dispatcher.Dispatch(ctx, 3) }()

	select {
	case <-dispatched:
		t.Fatal("dispatch returned while the buffer was full")
	case <-time.After(100 * time.Millisecond):
	}

	close(g.open)
	select {
	case err := <-dispatched:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("dispatch never unblocked")
	}
}

func TestWorkerDispatcher_DispatchGivesUpWhenCallerContextEnds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g := newGate()
	defer close(g.open)
	dispatcher := handlers.NewSingleQueue(ctx, 1, g.handle)

	require.NoError(t, dispatcher.Dispatch(ctx, 1))
	<-g.entered
	require.NoError(t, dispatcher.Dispatch(ctx, 2))

	tctx, tcancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer tcancel()
	assert.ErrorIs(t, dispatcher.Dispatch(tctx, 3), context.DeadlineExceeded)

	done, dcancel := context.WithCancel(ctx)
	dcancel()
	assert.ErrorIs(t, dispatcher.Dispatch(done, 4), context.Canceled)
}

func TestWorkerDispatcher_CancelHandlesBufferedMessages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	g := newGate()
	dispatcher := handlers.NewSingleQueue(ctx, 3, g.handle)

	require.NoError(t, dispatcher.Dispatch(context.Background(), 1))
	<-g.entered
	for i := 2; i <= 4; i++ {
		require.NoError(t, dispatcher.Dispatch(context.Background(), i))
	}

	cancel()
	close(g.open)
	dispatcher.Wait()

	close(g.entered)
	var rest []int
	for msg := range g.entered {
		rest = append(rest, msg)
	}
	assert.Equal(t, []int{2, 3, 4}, rest)
}

func TestWorkerDispatcher_DispatchAfterShutdownReturnsClosed(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var handled atomic.Int32
	dispatcher := handlers.NewSingleQueue(ctx, 4, func(context.Context, int) {
		handled.Add(1)
	})
	cancel()
	dispatcher.Wait()

	assert.NotPanics(t, func() {
		for i := 0; i < 10; i++ {
			assert.ErrorIs(t, dispatcher.Dispatch(context.Background(), i), handlers.ErrHandlerClosed)
		}
	})
	assert.Zero(t, handled.Load())
}

func TestWorkerDispatcher_ShutdownUnderConcurrentDispatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var handled atomic.Int32
	dispatcher := handlers.NewPartitionedQueue(ctx, 2, 2, func(context.Context, dummyMessage) {
		handled.Add(1)
	})

	var (
		accepted atomic.Int32
		refused  atomic.Int32
		wg       sync.WaitGroup
	)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				err := dispatcher.Dispatch(context.Background(), dummyMessage{id: i, group: string(rune('a' + g))})
				if err == nil {
					accepted.Add(1)
					continue
				}
				assert.ErrorIs(t, err, handlers.ErrHandlerClosed)
				refused.Add(1)
			}
		}()
	}

	time.Sleep(time.Millisecond)
	cancel()
	wg.Wait()
	dispatcher.Wait()

	assert.Equal(t, int32(8*50), accepted.Load()+refused.Load())
	// every accepted message was handled before the workers exited
	assert.Equal(t, accepted.Load(), handled.Load())
}

func TestWorkerDispatcher_WaitBlocksUntilWorkersExit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	dispatcher := handlers.NewPartitionedQueue(ctx, 3, 1, func(context.Context, dummyMessage) {})

	waited := make(chan struct{})
	go func() {
		dispatcher.Wait()
		close(waited)
	}()

	select {
	case <-waited:
		t.Fatal("Wait returned before cancel")
	case <-time.After(100 * time.Millisecond):
	}

	cancel()

	select {
	case <-waited:
	case <-time.After(time.Second):
		t.Fatal("Wait never returned after cancel")
	}
}
