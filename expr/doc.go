// Package expr provides formulas over named integer tables and an incremental
// evaluator for them.
//
// # Two kinds of trees
//
// Expression is the stateless formula: a Number literal, a Reference to one
// cell of one table, or a Sum of sub-expressions. Eval walks the whole tree
// every time it is called.
//
// PersistentExpression has the same shape, but every node caches the value of
// its subtree. Init computes the caches from a TableSet once; afterwards Apply
// consumes one TableEvent at a time and repairs only the caches the event
// touches:
//
//   - a Reference whose (table, x, y) equals the event's takes the event value,
//   - a Sum adds the delta of every child that reported a change,
//   - a Number never changes.
//
// After Init and after every Apply, State() of every node equals what Eval
// would return for the equivalent Expression against the current tables.
//
// # Events
//
// The caller mutates the TableSet and then applies the matching event. The
// tree trusts the event value and never re-reads the table.
//
//	ts["t1"].Set(1, 0, 3)
//	changed := root.Apply(expr.SetValue{Table: "t1", X: 1, Y: 0, Value: 3})
//
// # Indexed trees
//
// Apply visits every node of the tree. Indexed keeps a reverse index from a
// cell to the Reference leaves depending on it and only walks those paths.
//
// Trees are not safe for concurrent use. See effects/sheet for a handler that
// serialises access to a TableSet and its expressions.
package expr
