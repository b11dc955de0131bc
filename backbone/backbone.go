// Package backbone implements the Janota-Lynce-Marques-Silva incremental
// backbone extraction algorithm on top of an incremental CDCL engine
// (package solver) and its clause-ingestion layer (package bf).
package backbone

import (
	"errors"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/crillab/gophersat-backbone/bf"
	"github.com/crillab/gophersat-backbone/solver"
)

// ErrUnsatisfiable is returned by Compute when the formula, together with
// its restrictions, has no model. It is not a fatal error: the engine is
// rolled back and reusable, exactly as for any other Compute call.
var ErrUnsatisfiable = errors.New("backbone: formula is unsatisfiable")

// Backbone is the partition of a relevant variable set into the
// variables true in every model (Positive), false in every model
// (Negative), and those that vary across models (Optional). A relevant
// name never installed in the engine's variable table is treated as
// unconstrained and reported as Optional (see DESIGN.md).
type Backbone struct {
	Positive []string
	Negative []string
	Optional []string
}

type candidate struct {
	name string
	lit  solver.Lit
}

// forcedLit returns the literal that records variable v being forced to
// val: the positive literal if val is true, the negative one otherwise.
// Every commit to a Backbone set — whether from the level-0 shortcuts or
// from a confirmed main-loop candidate — goes through this function, so
// the sign convention is defined in exactly one place. This is also
// where the source's initial-level-0 sign bug would have been
// introduced; see DESIGN.md for the discrepancy this avoids.
func forcedLit(val bool, v solver.Var) solver.Lit {
	return solver.MkLit(v, !val)
}

// Compute runs the backbone extraction algorithm: it checkpoints engine,
// installs each restriction's CNF clauses through vars, performs an
// initial SAT call, and if satisfiable iteratively confirms or discards
// candidate literals derived from relevant until none remain. The engine
// and vars are always rolled back to their pre-call state before
// returning, except when an invariant violation is detected, in which
// case engine state may already be inconsistent and rollback is skipped
// (matching the "do not attempt rollback" error-handling rule).
func Compute(log *logrus.Logger, engine *solver.Solver, vars *bf.Vars, restrictions []bf.Formula, relevant []string, cfg Config) (Backbone, error) {
	if log == nil {
		log = logrus.New()
		log.SetLevel(logrus.PanicLevel)
	}

	engineCP := engine.SaveState()
	varsCP := vars.Checkpoint()

	for _, r := range restrictions {
		if err := bf.Install(vars, r); err != nil {
			return Backbone{}, fmt.Errorf("backbone: installing restriction: %w", err)
		}
	}

	if engine.Solve(nil, 0) == solver.Unsat {
		engine.LoadState(engineCP)
		vars.Rollback(varsCP)
		return Backbone{}, ErrUnsatisfiable
	}

	stack, result, unknown := buildCandidates(log, engine, vars, relevant, cfg)
	if len(unknown) > 0 {
		log.WithField("vars", unknown).Warn("relevant variable never installed, reporting as optional")
	}

	for len(stack) > 0 {
		n := len(stack) - 1
		c := stack[n]
		stack = stack[:n]

		st := engine.Solve([]solver.Lit{c.lit.Not()}, 0)
		switch st {
		case solver.Unsat:
			commit(&result, c.name, c.lit)
			engine.AddClause([]solver.Lit{c.lit})
			log.WithFields(logrus.Fields{"var": c.name, "positive": c.lit.IsPositive()}).Debug("backbone literal confirmed")
		case solver.Sat, solver.Indet:
			// Indet (budget exceeded) is treated identically to Sat:
			// the candidate is kept rather than confirmed, the
			// conservative-but-possibly-incomplete choice spec'd for
			// this engine (Compute always solves with an unlimited
			// budget internally, so Indet cannot actually occur here;
			// the branch exists so the choice is explicit rather than
			// silently relying on that fact).
			stack = refineUpperBound(engine, stack, cfg, &result)
		}
	}

	finalize(&result, relevant)

	engine.LoadState(engineCP)
	vars.Rollback(varsCP)
	return result, nil
}

// buildCandidates derives the initial candidate stack from the model of
// the first SAT call, per spec.md §4.3 step 5. Relevant variables fixed
// at level 0 are committed directly when the corresponding flag is on,
// since they need no confirmation call; variables never installed are
// returned in unknown rather than silently vanishing, so callers that
// want to log or reject them can.
func buildCandidates(log *logrus.Logger, engine *solver.Solver, vars *bf.Vars, relevant []string, cfg Config) (stack []candidate, committed Backbone, unknown []string) {
	seen := make(map[string]bool, len(relevant))
	for _, name := range relevant {
		if seen[name] {
			continue
		}
		seen[name] = true

		v, ok := vars.Lookup(name)
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		val, ok := engine.Value(v)
		if !ok {
			// Every variable is assigned in a model returned by a
			// successful Solve call; this would indicate the engine
			// itself is broken, not a legitimate formula shape.
			log.WithField("var", name).Error("relevant variable unassigned in a SAT model")
			continue
		}
		l := forcedLit(val, v)

		if cfg.InitialLBCheckForUPZeroLiterals && engine.Level(v) == 0 {
			commit(&committed, name, forcedLit(val, v))
			continue
		}
		if cfg.InitialUBCheckForRotatableLiterals && rotatable(engine, l) {
			continue
		}
		stack = append(stack, candidate{name: name, lit: l})
	}
	return stack, committed, unknown
}

// refineUpperBound sweeps the remaining candidate stack after a
// non-confirming SAT call and drops (or commits) every candidate an
// enabled heuristic fires on, per spec.md §4.3's refine_upper_bound.
func refineUpperBound(engine *solver.Solver, stack []candidate, cfg Config, committed *Backbone) []candidate {
	kept := stack[:0]
	for _, c := range stack {
		v := c.lit.Var()

		if cfg.CheckForUPZeroLiterals && engine.Level(v) == 0 {
			val, _ := engine.Value(v)
			commit(committed, c.name, forcedLit(val, v))
			continue
		}
		if cfg.CheckForComplementModelLiterals {
			if val, ok := engine.Value(v); ok && val != c.lit.IsPositive() {
				continue // model witnesses both polarities: not a backbone literal
			}
		}
		if cfg.CheckForRotatableLiterals && rotatable(engine, c.lit) {
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

// rotatable reports whether l is rotatable in the engine's current
// assignment: its variable was neither fixed at level 0 nor
// unit-propagated, and flipping it would falsify no clause in which l
// is a watched literal (spec.md §4.3).
//
// Per watch.go's convention (watchClause registers c under
// lits[i].Not()'s list), the clauses in which l is a watched literal
// are the ones returned by engine.Watches(l.Not()). Level-0 literals are
// excluded explicitly: a unit clause is not stored as a Clause and gives
// its literal no reason, yet that literal is entailed.
func rotatable(engine *solver.Solver, l solver.Lit) bool {
	if engine.Level(l.Var()) == 0 || engine.Reason(l.Var()) != nil {
		return false
	}
	for _, w := range engine.Watches(l.Not()) {
		if clauseUnitUnder(engine, w.Clause, l) {
			return false
		}
	}
	return true
}

// clauseUnitUnder reports whether c, a clause in which l is a watched
// literal, is unit under l: true iff every literal of c other than l
// itself is currently false, so that flipping l would falsify c.
func clauseUnitUnder(engine *solver.Solver, c *solver.Clause, l solver.Lit) bool {
	for i := 0; i < c.Len(); i++ {
		lit := c.Get(i)
		if lit == l {
			continue
		}
		if !litFalse(engine, lit) {
			return false
		}
	}
	return true
}

func litFalse(engine *solver.Solver, l solver.Lit) bool {
	val, ok := engine.Value(l.Var())
	return ok && val != l.IsPositive()
}

func commit(b *Backbone, name string, l solver.Lit) {
	if l.IsPositive() {
		b.Positive = append(b.Positive, name)
	} else {
		b.Negative = append(b.Negative, name)
	}
}

// finalize sorts the positive and negative sets and derives optional as
// relevant minus their union, including any name never installed in the
// engine's variable table (see the Backbone doc comment).
func finalize(b *Backbone, relevant []string) {
	sort.Strings(b.Positive)
	sort.Strings(b.Negative)

	in := make(map[string]bool, len(b.Positive)+len(b.Negative))
	for _, n := range b.Positive {
		in[n] = true
	}
	for _, n := range b.Negative {
		in[n] = true
	}
	seen := make(map[string]bool, len(relevant))
	for _, name := range relevant {
		if seen[name] || in[name] {
			continue
		}
		seen[name] = true
		b.Optional = append(b.Optional, name)
	}
	sort.Strings(b.Optional)
}
