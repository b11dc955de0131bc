package solver

import "fmt"

// Var is a dense, zero-based variable index. Variables are allocated by
// NewVar in the order they are first mentioned; the solver never reuses
// an index and never compacts the variable table.
type Var int32

// Lit is a signed literal packed as 2*var + phase, with phase 0 meaning
// the positive occurrence of the variable and phase 1 the negated one.
// The encoding is what makes watch lists and other literal-keyed tables
// plain slices instead of maps.
type Lit int32

// MkLit builds the literal for v, negated if neg is true.
func MkLit(v Var, neg bool) Lit {
	if neg {
		return Lit(2*int32(v) + 1)
	}
	return Lit(2 * int32(v))
}

// Var returns the variable l is built on.
func (l Lit) Var() Var { return Var(int32(l) / 2) }

// IsPositive reports whether l is the positive occurrence of its variable.
func (l Lit) IsPositive() bool { return int32(l)%2 == 0 }

// Not returns the negation of l.
func (l Lit) Not() Lit { return Lit(int32(l) ^ 1) }

func (l Lit) String() string {
	if l.IsPositive() {
		return fmt.Sprintf("x%d", l.Var())
	}
	return fmt.Sprintf("-x%d", l.Var())
}

// lbool is a three-valued truth value: unassigned, true or false.
type lbool int8

const (
	lUndef lbool = 0
	lTrue  lbool = 1
	lFalse lbool = -1
)

// litValue reduces an assignment value (as stored per-variable) to the
// truth value of the given literal under that assignment.
func litValue(v lbool, l Lit) lbool {
	if v == lUndef {
		return lUndef
	}
	if l.IsPositive() {
		return v
	}
	if v == lTrue {
		return lFalse
	}
	return lTrue
}
