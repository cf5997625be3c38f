package stream

import (
	"context"
)

// Payload is one stage of a channel pipeline. Every stage closes its sink once its
// source is drained or its context ends.
type Payload interface {
	run(ctx context.Context)
}

// Map forwards MapFn(v) for every v read from Source.
type Map[T any, R any] struct {
	Source <-chan T
	Sink   chan<- R
	MapFn  func(T) R
}

func (m Map[T, R]) run(ctx context.Context) {
	defer close(m.Sink)
	mapFn(ctx, m.Source, m.Sink, m.MapFn)
}

// Filter forwards the values of Source that satisfy Predicate.
type Filter[T any] struct {
	Source    <-chan T
	Sink      chan<- T
	Predicate func(T) bool
}

func (f Filter[T]) run(ctx context.Context) {
	defer close(f.Sink)
	filter(ctx, f.Source, f.Sink, f.Predicate)
}

// Merge forwards every source into one sink. The sink is closed once all sources are drained.
type Merge[T any] struct {
	Sources []<-chan T
	Sink    chan<- T
}

func (m Merge[T]) run(ctx context.Context) {
	merge(ctx, m.Sources, m.Sink)
}
