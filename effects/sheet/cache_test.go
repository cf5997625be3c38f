package sheet

import (
	"context"
	"testing"

	"github.com/on-the-ground/effect_ive_sheet/expr"
	"github.com/on-the-ground/effect_ive_sheet/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryCache_RetainsResultsUpToQueryCacheSize(t *testing.T) {
	config := DefaultConfig()
	tables := table.NewTableSet(table.NewTable("t1", [][]int{{1, 2}}))
	sh, err := newSheetHandler(context.Background(), config, tables, nil)
	require.NoError(t, err)
	defer sh.cache.Close()

	const queries = 50
	require.Less(t, queries, config.QueryCacheSize)

	keys := make([]string, 0, queries)
	for i := 0; i < queries; i++ {
		q := expr.Sum{expr.Number(i), expr.Reference{Table: "t1", X: 1, Y: 0}}
		got, err := sh.query(q)
		require.NoError(t, err)
		assert.Equal(t, i+2, got)
		keys = append(keys, q.String())
	}
	sh.cache.Wait()

	retained := 0
	for i, key := range keys {
		if v, ok := sh.cache.Get(key); ok {
			assert.Equal(t, i+2, v)
			retained++
		}
	}
	assert.Equal(t, queries, retained)
}
