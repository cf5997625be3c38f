package expr

import (
	"fmt"
	"strconv"

	"github.com/on-the-ground/effect_ive_sheet/table"
	"go.uber.org/multierr"
)

var (
	_ PersistentExpression = (*PersistentNumber)(nil)
	_ PersistentExpression = (*PersistentReference)(nil)
	_ PersistentExpression = (*PersistentSum)(nil)
	_ Incremental          = (*Indexed)(nil)
)

// Incremental is a value kept up to date by table events.
type Incremental interface {
	// State returns the cached value without recomputing it.
	State() int
	// Init computes the cached value from ts. It must run before the first Apply.
	Init(ts table.TableSet) error
	// Apply repairs the cached value after ev and reports whether it was affected.
	Apply(ev TableEvent) bool
}

// PersistentExpression is an expression tree whose nodes cache their values.
// Only PersistentNumber, PersistentReference and PersistentSum implement it.
// A tree exclusively owns its children; nodes must not be shared between trees.
type PersistentExpression interface {
	Incremental
	fmt.Stringer
	persistent()
}

// PersistentNumber is a literal. Its state is its value and never changes.
type PersistentNumber struct {
	Value int
}

func NewNumber(v int) *PersistentNumber { return &PersistentNumber{Value: v} }

func (n *PersistentNumber) State() int                { return n.Value }
func (n *PersistentNumber) Init(table.TableSet) error { return nil }
func (n *PersistentNumber) Apply(ev TableEvent) bool  { return false }
func (n *PersistentNumber) String() string            { return strconv.Itoa(n.Value) }
func (n *PersistentNumber) persistent()               {}

// PersistentReference caches the value of cell (X, Y) of Table.
type PersistentReference struct {
	Table string
	X, Y  int
	state int
}

func NewReference(name string, x, y int) *PersistentReference {
	return &PersistentReference{Table: name, X: x, Y: y}
}

func (r *PersistentReference) State() int { return r.state }

// Init loads the referenced cell. A missing table or cell is an error and leaves the state untouched.
func (r *PersistentReference) Init(ts table.TableSet) error {
	v, err := ts.Lookup(r.Table, r.X, r.Y)
	if err != nil {
		return fmt.Errorf("failed to init reference %s: %w", r, err)
	}
	r.state = v
	return nil
}

// Apply takes the event value when the event addresses exactly this cell.
func (r *PersistentReference) Apply(ev TableEvent) bool {
	switch ev := ev.(type) {
	case SetValue:
		if !ev.matches(r.Table, r.X, r.Y) {
			return false
		}
		r.state = ev.Value
		return true
	default:
		panic(fmt.Sprintf("exhaustive match fallback, event type: %T", ev))
	}
}

func (r *PersistentReference) String() string { return formatReference(r.Table, r.X, r.Y) }
func (r *PersistentReference) persistent()    {}

// PersistentSum caches the sum of its arguments.
type PersistentSum struct {
	Args  []PersistentExpression
	state int
}

func NewSum(args ...PersistentExpression) *PersistentSum {
	return &PersistentSum{Args: args}
}

func (s *PersistentSum) State() int { return s.state }

// Init initialises every argument, then folds their states.
// Failures of all arguments are reported together; the state is undefined after a failure.
func (s *PersistentSum) Init(ts table.TableSet) (err error) {
	acc := 0
	for _, arg := range s.Args {
		err = multierr.Append(err, arg.Init(ts))
		acc += arg.State()
	}
	s.state = acc
	return err
}

// Apply forwards ev to every argument and adds the delta of each argument that changed.
// Arguments unrelated to ev are still visited.
func (s *PersistentSum) Apply(ev TableEvent) bool {
	modified := false
	for _, arg := range s.Args {
		before := arg.State()
		if !arg.Apply(ev) {
			continue
		}
		s.state += arg.State() - before
		modified = true
	}
	return modified
}

func (s *PersistentSum) String() string {
	args := make([]string, len(s.Args))
	for i, arg := range s.Args {
		args[i] = arg.String()
	}
	return formatSum(args)
}

func (s *PersistentSum) persistent() {}

// Persist builds the persistent mirror of e. The returned tree must be initialised before use.
func Persist(e Expression) PersistentExpression {
	switch e := e.(type) {
	case Number:
		return NewNumber(int(e))
	case Reference:
		return NewReference(e.Table, e.X, e.Y)
	case Sum:
		args := make([]PersistentExpression, len(e))
		for i, arg := range e {
			args[i] = Persist(arg)
		}
		return NewSum(args...)
	default:
		panic(fmt.Sprintf("exhaustive match fallback, expression type: %T", e))
	}
}
