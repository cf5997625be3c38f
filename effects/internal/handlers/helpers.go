package handlers

import (
	effectmodel "github.com/on-the-ground/effect_ive_sheet/effects/internal/model"

	"github.com/cespare/xxhash/v2"
)

func getIndexByHash[T effectmodel.Partitionable](payload T, numChs int) int {
	switch numChs {
	case 0:
		panic("number of channels cannot be 0")
	case 1:
		return 0
	default:
		// reduce in uint64 so that large hashes never turn into negative indices
		return int(xxhash.Sum64String(payload.PartitionKey()) % uint64(numChs))
	}
}
