package sheet

import (
	"context"

	"github.com/on-the-ground/effect_ive_sheet/effects/stream"
)

// FilterFeed forwards from source only the changes of the named expressions.
// It runs as a stream stage, so ctx must carry a concurrency handler. The returned channel
// is closed once source is.
func FilterFeed(ctx context.Context, source <-chan Change, bufferSize int, names ...string) <-chan Change {
	wanted := make(map[string]struct{}, len(names))
	for _, name := range names {
		wanted[name] = struct{}{}
	}
	sink := make(chan Change, bufferSize)
	stream.Effect(ctx, stream.Filter[Change]{
		Source: source,
		Sink:   sink,
		Predicate: func(c Change) bool {
			_, ok := wanted[c.Expression]
			return ok
		},
	})
	return sink
}

// MergeFeeds forwards the changes of several sheets into one channel, closed once every
// source is.
func MergeFeeds(ctx context.Context, bufferSize int, sources ...<-chan Change) <-chan Change {
	sink := make(chan Change, bufferSize)
	stream.Effect(ctx, stream.Merge[Change]{
		Sources: sources,
		Sink:    sink,
	})
	return sink
}
