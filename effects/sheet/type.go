package sheet

import (
	"errors"
	"fmt"
	"time"

	"github.com/on-the-ground/effect_ive_sheet/expr"
	"github.com/rickb777/date/v2/timespan"
)

// ErrNoSuchExpression is returned when a sheet holds no expression under the requested name.
var ErrNoSuchExpression = errors.New("no such expression")

// Payload is a sealed interface for sheet operations.
type Payload interface {
	PartitionKey() string
	payload()
}

var (
	_ Payload = SetCell{}
	_ Payload = LoadState{}
	_ Payload = LoadCell{}
	_ Payload = Query{}
	_ Payload = Source{}
)

// SetCell writes Value to one cell and propagates the change to every expression.
type SetCell struct {
	Table string
	X, Y  int
	Value int
}

func (p SetCell) PartitionKey() string { return p.Table }
func (SetCell) payload()               {}

// LoadState reads the current value of a named expression.
type LoadState struct {
	Name string
}

func (p LoadState) PartitionKey() string { return p.Name }
func (LoadState) payload()               {}

// LoadCell reads one cell.
type LoadCell struct {
	Table string
	X, Y  int
}

func (p LoadCell) PartitionKey() string { return p.Table }
func (LoadCell) payload()               {}

// Query evaluates an ad-hoc expression against the sheet's tables.
type Query struct {
	Expression expr.Expression
}

func (p Query) PartitionKey() string {
	if p.Expression == nil {
		return ""
	}
	return p.Expression.String()
}
func (Query) payload() {}

// Source asks for the sheet's change feed.
type Source struct{}

func (Source) PartitionKey() string { return "" }
func (Source) payload()             {}

// TimeSpan brackets the moment a change was applied.
type TimeSpan = timespan.TimeSpan

const epsilon = time.Millisecond

func now() TimeSpan {
	t := time.Now()
	return timespan.BetweenTimes(t.Add(-epsilon), t.Add(epsilon))
}

// Change reports that the root of a named expression changed while applying Event.
// Old and New may be equal: writing a cell's current value still counts as a change.
type Change struct {
	Expression string
	Old, New   int
	Event      expr.SetValue
	TimeSpan
}

func (c Change) Delta() int { return c.New - c.Old }

func (c Change) String() string {
	return fmt.Sprintf("%s: %d -> %d (%s)", c.Expression, c.Old, c.New, c.Event)
}
