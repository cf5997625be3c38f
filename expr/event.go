package expr

import "fmt"

var _ TableEvent = SetValue{}

// TableEvent describes one atomic mutation of a TableSet.
// It is a sealed interface: every node kind must define its reaction to every event kind.
type TableEvent interface {
	// PartitionKey routes the event by table name when it travels through an effect handler.
	PartitionKey() string
	tableEvent()
}

// SetValue reports that cell (X, Y) of Table has been set to Value.
type SetValue struct {
	Table string
	X, Y  int
	Value int
}

func (e SetValue) PartitionKey() string { return e.Table }
func (SetValue) tableEvent()            {}

func (e SetValue) String() string {
	return fmt.Sprintf("set %s(%d, %d) = %d", e.Table, e.X, e.Y, e.Value)
}

// matches reports whether the event addresses exactly the given cell.
func (e SetValue) matches(table string, x, y int) bool {
	return e.Table == table && e.X == x && e.Y == y
}
