package expr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/on-the-ground/effect_ive_sheet/table"
)

var (
	_ Expression = Number(0)
	_ Expression = Reference{}
	_ Expression = Sum{}
)

// Expression is a stateless formula evaluated from scratch on every call.
// Only Number, Reference and Sum implement it.
type Expression interface {
	Eval(ts table.TableSet) (int, error)
	fmt.Stringer
	expression()
}

// Number is an integer literal.
type Number int

func (n Number) Eval(table.TableSet) (int, error) { return int(n), nil }
func (n Number) String() string                   { return strconv.Itoa(int(n)) }
func (Number) expression()                        {}

// Reference points at cell (X, Y) of the table named Table.
type Reference struct {
	Table string
	X, Y  int
}

// Eval fails when the table or the cell does not exist.
func (r Reference) Eval(ts table.TableSet) (int, error) {
	v, err := ts.Lookup(r.Table, r.X, r.Y)
	if err != nil {
		return 0, fmt.Errorf("failed to evaluate reference %s: %w", r, err)
	}
	return v, nil
}

func (r Reference) String() string { return formatReference(r.Table, r.X, r.Y) }
func (Reference) expression()      {}

// Sum adds its arguments left to right, starting from zero.
type Sum []Expression

func (s Sum) Eval(ts table.TableSet) (int, error) {
	acc := 0
	for _, arg := range s {
		v, err := arg.Eval(ts)
		if err != nil {
			return 0, err
		}
		acc += v
	}
	return acc, nil
}

func (s Sum) String() string {
	args := make([]string, len(s))
	for i, arg := range s {
		args[i] = arg.String()
	}
	return formatSum(args)
}

func (Sum) expression() {}

// MustEval is the panic-on-failure variant of Eval.
// Use it where every reference is known to resolve.
func MustEval(e Expression, ts table.TableSet) int {
	v, err := e.Eval(ts)
	if err != nil {
		panic(err)
	}
	return v
}

func formatReference(name string, x, y int) string {
	return fmt.Sprintf("%s(%d, %d)", name, x, y)
}

func formatSum(args []string) string {
	return "sum(" + strings.Join(args, ", ") + ")"
}
