package expr

import (
	"fmt"

	"github.com/on-the-ground/effect_ive_sheet/table"
	"go.uber.org/multierr"
)

// Walk visits e and its descendants depth first, left to right.
// Children of a node are skipped when fn returns false for it.
func Walk(e PersistentExpression, fn func(PersistentExpression) bool) {
	walkPaths(e, nil, func(node PersistentExpression, _ []int) bool {
		return fn(node)
	})
}

// walkPaths is Walk with the child index path from the root to each visited node.
// The path slice is reused between calls; copy it to retain it.
func walkPaths(e PersistentExpression, path []int, fn func(PersistentExpression, []int) bool) {
	if !fn(e, path) {
		return
	}
	switch e := e.(type) {
	case *PersistentNumber, *PersistentReference:
	case *PersistentSum:
		for i, arg := range e.Args {
			walkPaths(arg, append(path, i), fn)
		}
	default:
		panic(fmt.Sprintf("exhaustive match fallback, expression type: %T", e))
	}
}

// References returns every reference leaf of e from left to right.
func References(e PersistentExpression) []*PersistentReference {
	var refs []*PersistentReference
	Walk(e, func(node PersistentExpression) bool {
		if ref, ok := node.(*PersistentReference); ok {
			refs = append(refs, ref)
		}
		return true
	})
	return refs
}

// Validate checks that every reference of e resolves in ts without touching any state.
// All unresolved references are reported in one combined error.
func Validate(ts table.TableSet, e PersistentExpression) (err error) {
	for _, ref := range References(e) {
		if _, lookupErr := ts.Lookup(ref.Table, ref.X, ref.Y); lookupErr != nil {
			err = multierr.Append(err, fmt.Errorf("unresolved reference %s: %w", ref, lookupErr))
		}
	}
	return err
}
