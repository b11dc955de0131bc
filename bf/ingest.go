package bf

import (
	"errors"
	"fmt"

	"github.com/crillab/gophersat-backbone/solver"
)

// ErrInvariantViolated is returned when the NNF of a Formula has a shape
// Install's one-level Tseitin encoding does not handle: a conjunction
// under a disjunction with an operand that is not a literal, as in
// Or(And(Or(a, b), c), d).
var ErrInvariantViolated = errors.New("bf: invariant violated: unexpected formula shape")

// Vars is the name table standing between a Formula's named variables and
// an engine's dense integer ones. One Vars must be paired with exactly one
// *solver.Solver: it is the sole creator of that solver's variables, so its
// own bookkeeping stays in lockstep with the engine's.
type Vars struct {
	engine *solver.Solver
	index  map[string]solver.Var
	names  []string // names[v] is the name of variable v, "" for a dummy
}

// NewVars returns a name table backed by engine. engine should be freshly
// created: Vars assumes variable indices start at its own Checkpoint() == 0.
func NewVars(engine *solver.Solver) *Vars {
	return &Vars{engine: engine, index: make(map[string]solver.Var)}
}

// Lookup returns the engine variable for name, if name has been installed.
func (vs *Vars) Lookup(name string) (solver.Var, bool) {
	v, ok := vs.index[name]
	return v, ok
}

// Variable returns the engine variable for name, allocating one in the
// paired engine if this is the first time name is mentioned. Exported
// for front ends that ingest clauses by integer index (e.g. a DIMACS
// reader) rather than through a Formula and Install.
func (vs *Vars) Variable(name string) solver.Var {
	return vs.variable(name)
}

// Name returns the name associated with v, if v was created for a named
// (non-dummy) variable.
func (vs *Vars) Name(v solver.Var) (string, bool) {
	if int(v) < 0 || int(v) >= len(vs.names) {
		return "", false
	}
	name := vs.names[v]
	return name, name != ""
}

// variable returns the engine variable for name, allocating one if this is
// the first time name is mentioned.
func (vs *Vars) variable(name string) solver.Var {
	if v, ok := vs.index[name]; ok {
		return v
	}
	v := vs.engine.NewVar(false, true)
	vs.index[name] = v
	vs.names = append(vs.names, name)
	return v
}

// dummy allocates a fresh, unnamed engine variable, used by Install when
// Tseitin-encoding an "and" nested under an "or".
func (vs *Vars) dummy() solver.Var {
	v := vs.engine.NewVar(false, true)
	vs.names = append(vs.names, "")
	return v
}

func (vs *Vars) litValue(l lit) solver.Lit {
	return solver.MkLit(vs.variable(l.v.name), l.signed)
}

// Checkpoint returns the current size of the name table, for later Rollback.
func (vs *Vars) Checkpoint() int { return len(vs.names) }

// Rollback discards every name allocated since the matching Checkpoint. It
// must be called alongside the paired engine's LoadState, restoring both
// checkpoints to the same moment in time.
func (vs *Vars) Rollback(n int) {
	for i := n; i < len(vs.names); i++ {
		if vs.names[i] != "" {
			delete(vs.index, vs.names[i])
		}
	}
	vs.names = vs.names[:n]
}

// Install converts f to NNF and installs its CNF form into vs's engine as
// a sequence of AddClause calls, allocating engine variables for any name
// not seen before. It accepts a literal, a conjunction, a constant, or a
// disjunction whose operands are literals or conjunctions of literals.
// Any other shape, such as a disjunction containing a conjunction that
// itself contains a disjunction, is reported as ErrInvariantViolated
// rather than panicking.
func Install(vs *Vars, f Formula) error {
	return install(vs, f.nnf())
}

func install(vs *Vars, f Formula) error {
	switch f := f.(type) {
	case lit:
		vs.engine.AddClause([]solver.Lit{vs.litValue(f)})
		return nil
	case and:
		for _, sub := range f {
			if err := install(vs, sub); err != nil {
				return err
			}
		}
		return nil
	case or:
		lits, err := orLits(vs, f)
		if err != nil {
			return err
		}
		vs.engine.AddClause(lits)
		return nil
	case trueConst:
		return nil
	case falseConst:
		vs.engine.AddClause(nil)
		return nil
	default:
		return fmt.Errorf("bf: install: %w", ErrInvariantViolated)
	}
}

// orLits flattens a disjunction's direct subformulas into a single clause,
// Tseitin-encoding any subformula that is itself a conjunction so the
// result stays a plain disjunction of literals.
func orLits(vs *Vars, o or) ([]solver.Lit, error) {
	lits := make([]solver.Lit, 0, len(o))
	for _, sub := range o {
		switch sub := sub.(type) {
		case lit:
			lits = append(lits, vs.litValue(sub))
		case and:
			d := vs.dummy()
			dl := solver.MkLit(d, false)
			lits = append(lits, dl)
			for _, sub2 := range sub {
				l, ok := sub2.(lit)
				if !ok {
					return nil, fmt.Errorf("bf: install: %w", ErrInvariantViolated)
				}
				vs.engine.AddClause([]solver.Lit{vs.litValue(l), dl.Not()})
			}
		default:
			return nil, fmt.Errorf("bf: install: %w", ErrInvariantViolated)
		}
	}
	return lits, nil
}

// Solve is a convenience one-shot entry point: it builds a fresh engine
// and name table, installs f, solves with no assumptions and no decision
// budget, and reports a model over f's named variables if one exists.
func Solve(f Formula) (sat bool, model map[string]bool, err error) {
	engine := solver.New()
	vs := NewVars(engine)
	if err := Install(vs, f); err != nil {
		return false, nil, err
	}
	if engine.Solve(nil, 0) != solver.Sat {
		return false, nil, nil
	}
	model = make(map[string]bool)
	for name, v := range vs.index {
		model[name] = engine.Model(v)
	}
	return true, model, nil
}
