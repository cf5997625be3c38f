package sheet

import (
	"context"

	"github.com/on-the-ground/effect_ive_sheet/effects/binding"
	"github.com/on-the-ground/effect_ive_sheet/effects/configkeys"
	"go.uber.org/multierr"
)

// Config sizes a sheet handler. Non-positive sizes fall back to the defaults.
type Config struct {
	// BufferSize is the number of operations queued before performers block.
	BufferSize int

	// FeedSize is the capacity of the change feed. Changes that do not fit are dropped.
	FeedSize int

	// QueryCacheSize is the number of query results kept between two writes.
	QueryCacheSize int

	// Indexed wraps every expression in a dependency index so writes visit matching leaves only.
	Indexed bool
}

const (
	defaultBufferSize     = 16
	defaultFeedSize       = 64
	defaultQueryCacheSize = 256
)

func DefaultConfig() Config {
	return Config{
		BufferSize:     defaultBufferSize,
		FeedSize:       defaultFeedSize,
		QueryCacheSize: defaultQueryCacheSize,
	}
}

func (c Config) normalize() Config {
	if c.BufferSize <= 0 {
		c.BufferSize = defaultBufferSize
	}
	if c.FeedSize <= 0 {
		c.FeedSize = defaultFeedSize
	}
	if c.QueryCacheSize <= 0 {
		c.QueryCacheSize = defaultQueryCacheSize
	}
	return c
}

// ConfigFromBinding reads the sheet configuration from the binding effect.
// Unbound keys keep their default; a bound value of the wrong type is an error.
func ConfigFromBinding(ctx context.Context) (Config, error) {
	def := DefaultConfig()
	bufferSize, errBuffer := binding.GetOrDefault(ctx, configkeys.ConfigEffectSheetHandlerBufferSize, def.BufferSize)
	feedSize, errFeed := binding.GetOrDefault(ctx, configkeys.ConfigEffectSheetHandlerFeedSize, def.FeedSize)
	cacheSize, errCache := binding.GetOrDefault(ctx, configkeys.ConfigEffectSheetHandlerQueryCacheSize, def.QueryCacheSize)
	indexed, errIndexed := binding.GetOrDefault(ctx, configkeys.ConfigEffectSheetHandlerIndexed, def.Indexed)
	if err := multierr.Combine(errBuffer, errFeed, errCache, errIndexed); err != nil {
		return def, err
	}
	return Config{
		BufferSize:     bufferSize,
		FeedSize:       feedSize,
		QueryCacheSize: cacheSize,
		Indexed:        indexed,
	}.normalize(), nil
}
