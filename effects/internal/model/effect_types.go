package effectmodel

import "errors"

// EffectEnum is the context key a handler is registered under.
type EffectEnum string

const (
	EffectLog         EffectEnum = "effect_ive_sheet_effect_enum_log"
	EffectConcurrency EffectEnum = "effect_ive_sheet_effect_enum_concurrency"
	EffectBinding     EffectEnum = "effect_ive_sheet_effect_enum_binding"
	EffectSheet       EffectEnum = "effect_ive_sheet_effect_enum_sheet"
)

var ErrNoEffectHandler = errors.New("no effect handler registered for this effect")

type EffectScopeConfig struct {
	BufferSize int // default: 1
	NumWorkers int // default: 1
}

// NewEffectScopeConfig replaces non-positive sizes with 1.
func NewEffectScopeConfig(bufferSize int, numWorkers int) EffectScopeConfig {
	return EffectScopeConfig{
		BufferSize: max(bufferSize, 1),
		NumWorkers: max(numWorkers, 1),
	}
}

// Partitionable payloads are routed to a worker by the hash of their partition key.
type Partitionable interface {
	PartitionKey() string
}
