package table

import (
	"errors"
	"fmt"
)

// Table is a named two dimensional grid of integers.
// Rows may have different lengths; (x, y) addresses column x of row y.
type Table struct {
	Name string
	Data [][]int
}

func NewTable(name string, data [][]int) *Table {
	return &Table{Name: name, Data: data}
}

// Get returns the cell at (x, y).
// The second result is false when y is not a row of the table or x is not a column of that row.
func (t *Table) Get(x, y int) (int, bool) {
	if y < 0 || y >= len(t.Data) {
		return 0, false
	}
	row := t.Data[y]
	if x < 0 || x >= len(row) {
		return 0, false
	}
	return row[x], true
}

// Set writes the cell at (x, y). Writes outside the grid are ignored.
func (t *Table) Set(x, y, value int) {
	if y < 0 || y >= len(t.Data) {
		return
	}
	row := t.Data[y]
	if x < 0 || x >= len(row) {
		return
	}
	row[x] = value
}

var (
	// ErrNoSuchTable is returned by strict lookups when the table name is unknown.
	ErrNoSuchTable = errors.New("table not found")
	// ErrNoSuchCell is returned by strict lookups when the coordinates fall outside the table.
	ErrNoSuchCell = errors.New("cell not found")
)

// TableSet maps table names to tables. It is the universe an expression evaluates against.
type TableSet map[string]*Table

func NewTableSet(tables ...*Table) TableSet {
	ts := make(TableSet, len(tables))
	for _, t := range tables {
		ts.Add(t)
	}
	return ts
}

// Add registers t under its own name, replacing any table with the same name.
func (ts TableSet) Add(t *Table) {
	ts[t.Name] = t
}

// Lookup is the strict counterpart of Table.Get: a missing table or cell is an error.
func (ts TableSet) Lookup(name string, x, y int) (int, error) {
	t, ok := ts[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrNoSuchTable, name)
	}
	v, ok := t.Get(x, y)
	if !ok {
		return 0, fmt.Errorf("%w: %s(%d, %d)", ErrNoSuchCell, name, x, y)
	}
	return v, nil
}
