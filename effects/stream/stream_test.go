package stream_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/on-the-ground/effect_ive_sheet/effects/log"
	"github.com/on-the-ground/effect_ive_sheet/effects/stream"
	"github.com/stretchr/testify/assert"
)

func collect[T any](t *testing.T, ch <-chan T) []T {
	t.Helper()
	var out []T
	timeout := time.After(time.Second)
	for {
		select {
		case v, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, v)
		case <-timeout:
			t.Fatal("timed out waiting for the stream to close")
			return out
		}
	}
}

func TestStreamEffect_MapFilter(t *testing.T) {
	ctx, endOfLogHandler := log.WithTestEffectHandler(context.Background())
	defer endOfLogHandler()

	ctx, end := stream.WithEffectHandler(ctx, 10)
	defer end()

	source := make(chan int)
	mapSink := make(chan string)
	filterSink := make(chan string)

	stream.Effect(ctx,
		stream.Map[int, string]{
			Source: source,
			Sink:   mapSink,
			MapFn:  func(v int) string { return fmt.Sprintf("v=%d", v) },
		},
		stream.Filter[string]{
			Source:    mapSink,
			Sink:      filterSink,
			Predicate: func(v string) bool { return strings.HasSuffix(v, "2") || strings.HasSuffix(v, "4") },
		},
	)

	go func() {
		defer close(source)
		for i := 1; i <= 5; i++ {
			source <- i
		}
	}()

	assert.Equal(t, []string{"v=2", "v=4"}, collect(t, filterSink))
}

func TestStreamEffect_MergeClosesSinkOnce(t *testing.T) {
	ctx, end := stream.WithEffectHandler(context.Background(), 10)
	defer end()

	source1 := make(chan int)
	source2 := make(chan int)
	sink := make(chan int)

	stream.Effect(ctx, stream.Merge[int]{
		Sources: []<-chan int{source1, source2},
		Sink:    sink,
	})

	go func() {
		source1 <- 1
		close(source1)
	}()
	go func() {
		source2 <- 2
		source2 <- 3
		close(source2)
	}()

	assert.ElementsMatch(t, []int{1, 2, 3}, collect(t, sink))
}

func TestStreamEffect_MergeWithoutSources(t *testing.T) {
	ctx, end := stream.WithEffectHandler(context.Background(), 10)
	defer end()

	sink := make(chan int)
	stream.Effect(ctx, stream.Merge[int]{Sink: sink})

	assert.Empty(t, collect(t, sink))
}

func TestStreamEffect_CancelClosesSinks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ctx, end := stream.WithEffectHandler(ctx, 10)
	defer end()

	source := make(chan int, 1)
	sink := make(chan int)
	stream.Effect(ctx, stream.Map[int, int]{
		Source: source,
		Sink:   sink,
		MapFn:  func(v int) int { return v },
	})

	// nobody reads sink, so the stage is parked on its send until cancel
	source <- 1
	time.Sleep(20 * time.Millisecond)
	cancel()

	assert.LessOrEqual(t, len(collect(t, sink)), 1)
	close(source)
}

func TestStreamEffect_CancelEndsStagesOnIdleSources(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ctx, end := stream.WithEffectHandler(ctx, 10)
	defer end()

	// nothing is ever written to these sources and they are never closed
	filterSource := make(chan int)
	mergeSource := make(chan int)
	filterSink := make(chan int)
	mergeSink := make(chan int)
	stream.Effect(ctx,
		stream.Filter[int]{
			Source:    filterSource,
			Sink:      filterSink,
			Predicate: func(int) bool { return true },
		},
		stream.Merge[int]{
			Sources: []<-chan int{mergeSource},
			Sink:    mergeSink,
		},
	)

	time.Sleep(20 * time.Millisecond)
	cancel()

	assert.Empty(t, collect(t, filterSink))
	assert.Empty(t, collect(t, mergeSink))
}
