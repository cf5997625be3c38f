package expr_test

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/on-the-ground/effect_ive_sheet/expr"
	"github.com/on-the-ground/effect_ive_sheet/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// randomTableSet builds numTables ragged tables named t0, t1, ... filled with small values.
func randomTableSet(rng *rand.Rand, numTables int) table.TableSet {
	ts := table.NewTableSet()
	for i := 0; i < numTables; i++ {
		rows := make([][]int, 1+rng.Intn(4))
		for y := range rows {
			rows[y] = make([]int, 1+rng.Intn(5))
			for x := range rows[y] {
				rows[y][x] = rng.Intn(201) - 100
			}
		}
		ts.Add(table.NewTable(fmt.Sprintf("t%d", i), rows))
	}
	return ts
}

// randomCell picks an existing cell of ts.
func randomCell(rng *rand.Rand, ts table.TableSet) (string, int, int) {
	name := fmt.Sprintf("t%d", rng.Intn(len(ts)))
	rows := ts[name].Data
	y := rng.Intn(len(rows))
	return name, rng.Intn(len(rows[y])), y
}

// randomExpression builds a tree whose references all resolve in ts.
func randomExpression(rng *rand.Rand, ts table.TableSet, depth int) expr.Expression {
	switch n := rng.Intn(10); {
	case depth == 0 || n < 2:
		return expr.Number(rng.Intn(21) - 10)
	case n < 6:
		name, x, y := randomCell(rng, ts)
		return expr.Reference{Table: name, X: x, Y: y}
	default:
		args := make(expr.Sum, rng.Intn(5))
		for i := range args {
			args[i] = randomExpression(rng, ts, depth-1)
		}
		return args
	}
}

// referencesCell reports whether any reference of e reads (name, x, y).
func referencesCell(e expr.Expression, name string, x, y int) bool {
	switch e := e.(type) {
	case expr.Reference:
		return e.Table == name && e.X == x && e.Y == y
	case expr.Sum:
		for _, arg := range e {
			if referencesCell(arg, name, x, y) {
				return true
			}
		}
	}
	return false
}

// requireConsistent checks every node of p against a fresh evaluation of the matching node of e.
func requireConsistent(t *testing.T, ts table.TableSet, e expr.Expression, p expr.PersistentExpression) {
	t.Helper()
	want, err := e.Eval(ts)
	require.NoError(t, err)
	require.Equal(t, want, p.State(), "stale state at %s", p)

	if sum, ok := e.(expr.Sum); ok {
		psum, ok := p.(*expr.PersistentSum)
		require.True(t, ok, "shape mismatch at %s", p)
		require.Len(t, psum.Args, len(sum))
		for i := range sum {
			requireConsistent(t, ts, sum[i], psum.Args[i])
		}
	}
}

// setAndApply mutates ts the way a caller does, then feeds the matching event to target.
func setAndApply(ts table.TableSet, target expr.Incremental, name string, x, y, value int) bool {
	if tb, ok := ts[name]; ok {
		tb.Set(x, y, value)
	}
	return target.Apply(expr.SetValue{Table: name, X: x, Y: y, Value: value})
}

func assertFreshInitAgrees(t *testing.T, ts table.TableSet, e expr.Expression, got int) {
	t.Helper()
	fresh := expr.Persist(e)
	require.NoError(t, fresh.Init(ts))
	assert.Equal(t, fresh.State(), got)
}
