package expr

import (
	"fmt"
	"slices"

	memdb "github.com/hashicorp/go-memdb"
	"github.com/on-the-ground/effect_ive_sheet/table"
	"go.uber.org/multierr"
)

const (
	dependencyTable = "dependency"
	idIndex         = "id"
	cellIndex       = "cell"
)

var dependencySchema = &memdb.DBSchema{
	Tables: map[string]*memdb.TableSchema{
		dependencyTable: {
			Name: dependencyTable,
			Indexes: map[string]*memdb.IndexSchema{
				idIndex: {
					Name:    idIndex,
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "ID"},
				},
				cellIndex: {
					Name: cellIndex,
					Indexer: &memdb.CompoundIndex{
						Indexes: []memdb.Indexer{
							&memdb.StringFieldIndex{Field: "Table"},
							&memdb.IntFieldIndex{Field: "X"},
							&memdb.IntFieldIndex{Field: "Y"},
						},
					},
				},
			},
		},
	},
}

// dependency records that the reference leaf at Path reads cell (X, Y) of Table.
type dependency struct {
	ID    string
	Table string
	X, Y  int
	Path  []int
}

// Indexed maintains a persistent expression through a reverse index from cells to the
// reference leaves that read them. Apply only walks the root-to-leaf paths of matching
// leaves, so subtrees unrelated to an event are never visited.
//
// The index reflects the tree shape at the last Init; call Init again after editing the tree.
type Indexed struct {
	root PersistentExpression
	db   *memdb.MemDB
}

// NewIndexed indexes root. The tree still has to be initialised with Init.
func NewIndexed(root PersistentExpression) (*Indexed, error) {
	ix := &Indexed{root: root}
	if err := ix.reindex(); err != nil {
		return nil, err
	}
	return ix, nil
}

func (ix *Indexed) Root() PersistentExpression { return ix.root }
func (ix *Indexed) State() int                 { return ix.root.State() }
func (ix *Indexed) String() string             { return ix.root.String() }

// Init initialises the whole tree and rebuilds the index.
func (ix *Indexed) Init(ts table.TableSet) error {
	return multierr.Append(ix.root.Init(ts), ix.reindex())
}

// Apply has the same effect and result as applying ev to the root directly.
func (ix *Indexed) Apply(ev TableEvent) bool {
	switch ev := ev.(type) {
	case SetValue:
		modified := false
		for _, dep := range ix.lookup(ev.Table, ev.X, ev.Y) {
			if ix.applyAlong(dep.Path, ev) {
				modified = true
			}
		}
		return modified
	default:
		panic(fmt.Sprintf("exhaustive match fallback, event type: %T", ev))
	}
}

// Dependents returns how many reference leaves read cell (x, y) of the named table.
func (ix *Indexed) Dependents(name string, x, y int) int {
	return len(ix.lookup(name, x, y))
}

// applyAlong applies ev to the leaf at path and adds its delta to every sum above it.
func (ix *Indexed) applyAlong(path []int, ev TableEvent) bool {
	ancestors := make([]*PersistentSum, 0, len(path))
	node := ix.root
	for _, i := range path {
		sum, ok := node.(*PersistentSum)
		if !ok || i >= len(sum.Args) {
			panic(fmt.Sprintf("stale dependency index: path %v does not exist in %s", path, ix.root))
		}
		ancestors = append(ancestors, sum)
		node = sum.Args[i]
	}

	before := node.State()
	if !node.Apply(ev) {
		return false
	}
	delta := node.State() - before
	for _, sum := range ancestors {
		sum.state += delta
	}
	return true
}

func (ix *Indexed) lookup(name string, x, y int) []*dependency {
	txn := ix.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(dependencyTable, cellIndex, name, x, y)
	if err != nil {
		panic(fmt.Errorf("dependency lookup %s: %w", formatReference(name, x, y), err))
	}

	var deps []*dependency
	for raw := it.Next(); raw != nil; raw = it.Next() {
		deps = append(deps, raw.(*dependency))
	}
	return deps
}

func (ix *Indexed) reindex() error {
	db, err := memdb.NewMemDB(dependencySchema)
	if err != nil {
		return fmt.Errorf("failed to create dependency index: %w", err)
	}

	txn := db.Txn(true)
	defer txn.Abort()

	walkPaths(ix.root, nil, func(node PersistentExpression, path []int) bool {
		ref, ok := node.(*PersistentReference)
		if !ok {
			return true
		}
		dep := &dependency{
			ID:    fmt.Sprint(path),
			Table: ref.Table,
			X:     ref.X,
			Y:     ref.Y,
			Path:  slices.Clone(path),
		}
		err = multierr.Append(err, txn.Insert(dependencyTable, dep))
		return true
	})
	if err != nil {
		return fmt.Errorf("failed to index references: %w", err)
	}

	txn.Commit()
	ix.db = db
	return nil
}
