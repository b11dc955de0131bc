// Package solver implements an incremental CDCL SAT engine: literal and
// clause representation, watch lists, unit propagation, conflict-driven
// clause learning, VSIDS variable selection, restarts, and the
// checkpoint/restore discipline the backbone driver needs to add and
// roll back temporary clauses around a permanent clause base.
package solver

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
)

// Stats are statistics about the resolution of the problem, provided
// for information purposes only.
type Stats struct {
	NbRestarts    int
	NbConflicts   int
	NbDecisions   int
	NbUnitLearned int // how many unit clauses were learned
	NbLearned     int // how many clauses were learned in total
	NbDeleted     int // how many learned clauses were deleted
}

const (
	varDecayDefault    = 0.95
	clauseDecayDefault = 0.999
	restartBase        = 100 // conflicts before the first restart
	restartInc         = 1.5 // geometric growth of the restart interval
)

// Solver is the mutable CDCL state machine. All of its fields are
// private; the backbone driver (package backbone) only ever touches it
// through the exported methods below, never through subclassing or
// direct field access.
type Solver struct {
	log *logrus.Logger

	nbVars int
	status Status

	assign   []lbool
	level    []int // decision level of each var; -1 if unassigned
	reason   []*Clause
	activity []float64
	polarity []bool // saved phase, used to re-decide a var the same way next time

	trail    []Lit
	trailLim []int // trail index where each decision level above 0 begins

	wl watches

	clauses []*Clause // permanent multi-literal clauses from AddClause, plus learned unit clauses
	learned []*Clause

	varInc      float64
	varDecay    float64
	clauseInc   float64
	clauseDecay float64
	queue       *varQueue

	lastModel []lbool

	Stats Stats

	maxDecisions       int // 0 means unlimited
	decisionsThisSolve int

	nextRestart int // conflict count at which the next restart fires
	restartGap  float64

	assumptions  []Lit // literals pushed for the current Solve call
	assumpIdx    int   // how many of them have been processed
	assumpLevels int   // decision levels actually consumed by assumptions so far
}

// New returns an empty solver with no variables and no clauses.
func New() *Solver {
	s := &Solver{
		varInc:      1.0,
		varDecay:    varDecayDefault,
		clauseInc:   1.0,
		clauseDecay: clauseDecayDefault,
		restartGap:  restartBase,
		nextRestart: restartBase,
		log:         nopLogger,
	}
	s.queue = newVarQueue(s.activity)
	return s
}

// NewVar allocates a new variable with the given saved polarity
// (true meaning its preferred value is "true") and returns its index.
// decide=false keeps the variable out of the VSIDS queue when it is
// allocated; cancelUntil and LoadState put every variable they unassign
// back into the queue, so it can still be picked as a free decision
// after a backtrack. The backbone driver in this repository always
// passes true.
func (s *Solver) NewVar(polarity bool, decide bool) Var {
	v := Var(s.nbVars)
	s.nbVars++
	s.assign = append(s.assign, lUndef)
	s.level = append(s.level, -1)
	s.reason = append(s.reason, nil)
	s.activity = append(s.activity, 0)
	s.polarity = append(s.polarity, polarity)
	s.queue.activity = s.activity
	s.wl.grow(s.nbVars)
	if decide {
		s.queue.insert(v)
	}
	return v
}

// NbVars returns the number of variables currently known to the engine.
func (s *Solver) NbVars() int { return s.nbVars }

// Value reports the current assignment of v: true, false or "unknown"
// (the zero value, reported through ok=false).
func (s *Solver) Value(v Var) (value bool, ok bool) {
	switch s.assign[v] {
	case lTrue:
		return true, true
	case lFalse:
		return false, true
	default:
		return false, false
	}
}

// Level returns the decision level at which v was assigned, or -1 if it
// is currently unassigned. Level 0 means the assignment is a permanent
// consequence of the clause base alone (a UP-zero literal).
func (s *Solver) Level(v Var) int { return s.level[v] }

// Reason returns the clause that propagated v's current assignment, or
// nil if v is unassigned, was assigned by decision (including as an
// assumption), or was fixed at level 0 by a unit clause (one passed to
// AddClause or one learned by conflict analysis).
func (s *Solver) Reason(v Var) *Clause { return s.reason[v] }

// Model returns the value assigned to v in the model found by the most
// recent successful Solve call. It panics if no model is available,
// the same contract the teacher's Model() method has.
func (s *Solver) Model(v Var) bool {
	if s.lastModel == nil {
		panic("solver: Model called without a prior SAT result")
	}
	return s.lastModel[v] == lTrue
}

func (s *Solver) decisionLevel() int { return len(s.trailLim) }

func (s *Solver) valueOfLit(l Lit) lbool { return litValue(s.assign[l.Var()], l) }

// AddClause installs lits as a permanent clause. Literals are sorted
// and deduplicated; a clause containing a literal and its negation
// (a tautology) is dropped silently, exactly as it contributes nothing.
// If after simplification the clause is empty, the engine is marked
// UNSAT. If it is unit, the literal is assigned at level 0 and
// propagated immediately. AddClause reports false iff the clause base
// becomes (or already was) unsatisfiable at the root.
func (s *Solver) AddClause(lits []Lit) bool {
	if s.status == Unsat {
		return false
	}
	s.cancelUntil(0)

	cl := append([]Lit(nil), lits...)
	sort.Slice(cl, func(i, j int) bool { return cl[i] < cl[j] })
	out := cl[:0]
	var prev Lit = -1
	for _, l := range cl {
		if l == prev {
			continue // duplicate literal
		}
		if s.valueOfLit(l) == lTrue {
			return true // clause satisfied at root, nothing to add
		}
		if s.valueOfLit(l) == lFalse {
			prev = l
			continue // falsified at root, drop it
		}
		if len(out) > 0 && out[len(out)-1] == l.Not() {
			return true // tautology: v and -v both present
		}
		out = append(out, l)
		prev = l
	}

	switch len(out) {
	case 0:
		s.status = Unsat
		return false
	case 1:
		s.uncheckedEnqueue(out[0], nil)
		if confl := s.propagate(); confl != nil {
			s.status = Unsat
			return false
		}
		return true
	default:
		c := NewClause(out, false)
		s.clauses = append(s.clauses, c)
		s.wl.watchClause(c)
		return true
	}
}

// Solve runs CDCL search under the given assumption literals, returning
// Sat, Unsat or Indet. Indet is returned iff budget is positive and
// search exhausted it before resolving; budget <= 0 means unlimited.
// Each assumption is pushed as a decision at an increasing level above
// the permanent level 0, in order; if propagating one of them conflicts
// (directly or after learning), Solve returns Unsat without mutating
// the permanent clause base beyond whatever sound clauses conflict
// analysis legitimately learned along the way.
func (s *Solver) Solve(assumptions []Lit, budget int) Status {
	if s.status == Unsat {
		return Unsat
	}
	s.cancelUntil(0)
	s.status = Indet
	s.maxDecisions = budget
	s.decisionsThisSolve = 0
	s.assumptions = assumptions
	s.assumpIdx = 0
	s.assumpLevels = 0
	return s.search()
}

// search drives CDCL to completion, interleaving the remaining
// assumption literals (pushed first, one per decision level) with free
// VSIDS decisions once every assumption has been accounted for. It
// returns Indet if the decision budget is hit first.
func (s *Solver) search() Status {
	for {
		confl := s.propagate()
		if confl != nil {
			if !s.handleConflict(confl) {
				return Unsat // permanent: the clause base alone is unsatisfiable
			}
			if s.decisionLevel() < s.assumpLevels {
				// Backjumped below the last assumption level: some
				// assumptions are no longer active. Start over from the
				// root and push them again from the first one; the lFalse
				// case below reports Unsat if the learned clauses now
				// refute one of them.
				s.cancelUntil(0)
				s.assumpIdx = 0
				s.assumpLevels = 0
			}
			continue
		}

		allPushed := s.assumpIdx == len(s.assumptions)
		if allPushed && s.decisionLevel() == s.assumpLevels &&
			len(s.learned) > 0 && s.Stats.NbConflicts >= s.nextRestart {
			s.Stats.NbRestarts++
			s.logRestart()
			s.debugState("restart")
			s.nextRestart = s.Stats.NbConflicts + int(s.restartGap)
			s.restartGap *= restartInc
			s.reduceLearned()
		}

		var lit Lit
		if !allPushed {
			a := s.assumptions[s.assumpIdx]
			s.assumpIdx++
			switch s.valueOfLit(a) {
			case lTrue:
				continue // already entailed; consumes no decision level
			case lFalse:
				s.cancelUntil(0)
				s.status = Indet
				return Unsat
			default:
				lit = a
				s.assumpLevels++
			}
		} else {
			lit = s.pickBranchLit()
			if lit == -1 {
				s.lastModel = append([]lbool(nil), s.assign...)
				s.status = Sat
				return Sat
			}
			if s.maxDecisions > 0 && s.decisionsThisSolve >= s.maxDecisions {
				s.status = Indet
				return Indet
			}
			s.decisionsThisSolve++
			s.Stats.NbDecisions++
		}
		s.newDecisionLevel()
		s.uncheckedEnqueue(lit, nil)
	}
}

// handleConflict analyzes confl, learns and installs the resulting
// clause, and backjumps to its assertion level. It returns false iff
// the conflict could not be resolved above level 0, meaning the
// permanent clause base itself is unsatisfiable; in that case s.status
// is set to Unsat and the caller must not continue searching.
func (s *Solver) handleConflict(confl *Clause) bool {
	s.Stats.NbConflicts++
	if s.decisionLevel() == 0 {
		// Every literal in confl is already false at the root: the
		// permanent clause base is unsatisfiable on its own, with no
		// decision or assumption involved.
		s.status = Unsat
		return false
	}
	learnt, backLevel := s.analyze(confl)
	s.cancelUntil(backLevel)
	if len(learnt) == 1 {
		s.Stats.NbUnitLearned++
		s.clauses = append(s.clauses, NewClause(learnt, true))
		s.uncheckedEnqueue(learnt[0], nil)
	} else {
		c := NewClause(learnt, true)
		c.lbd = s.computeLBD(learnt)
		s.clauseBumpActivity(c)
		s.learned = append(s.learned, c)
		s.wl.watchClause(c)
		s.uncheckedEnqueue(learnt[0], c)
	}
	s.Stats.NbLearned++
	s.varDecayActivity()
	s.clauseDecayActivity()
	return true
}

// analyze performs 1-UIP conflict analysis starting from confl, the
// clause every one of whose literals is currently false. It returns
// the learnt clause (with the asserting/UIP literal first) and the
// level to backtrack to before asserting it. The caller must only
// invoke analyze when the current decision level is above 0: at least
// one literal of confl is then guaranteed to sit at that level, so the
// backward trail walk is guaranteed to terminate.
func (s *Solver) analyze(confl *Clause) (learnt []Lit, backLevel int) {
	seen := make([]bool, s.nbVars)
	counter := 0
	var p Lit = -1
	outLearnt := []Lit{-1} // slot 0 reserved for the UIP literal
	idx := len(s.trail) - 1
	curLevel := s.decisionLevel()

	for {
		for j := 0; j < confl.Len(); j++ {
			if p != -1 && j == 0 {
				continue // skip the literal we're resolving away
			}
			q := confl.Get(j)
			v := q.Var()
			if seen[v] || s.level[v] <= 0 {
				continue
			}
			s.varBumpActivity(v)
			seen[v] = true
			if s.level[v] >= curLevel {
				counter++
			} else {
				outLearnt = append(outLearnt, q)
			}
		}
		for !seen[s.trail[idx].Var()] {
			idx--
		}
		p = s.trail[idx]
		v := p.Var()
		confl = s.reason[v]
		seen[v] = false
		counter--
		idx--
		if counter <= 0 {
			break
		}
	}
	outLearnt[0] = p.Not()

	if len(outLearnt) == 1 {
		return outLearnt, 0
	}
	maxAt, maxLevel := 1, s.level[outLearnt[1].Var()]
	for i := 2; i < len(outLearnt); i++ {
		if lv := s.level[outLearnt[i].Var()]; lv > maxLevel {
			maxLevel, maxAt = lv, i
		}
	}
	outLearnt[1], outLearnt[maxAt] = outLearnt[maxAt], outLearnt[1]
	return outLearnt, maxLevel
}

// pickBranchLit chooses the next unassigned variable by VSIDS activity
// and returns its literal oriented by saved polarity, or -1 if every
// variable known to the queue is already bound.
func (s *Solver) pickBranchLit() Lit {
	var v Var = -1
	for v == -1 {
		cand := s.queue.removeMax()
		if cand == -1 {
			return -1
		}
		if s.assign[cand] == lUndef {
			v = cand
		}
	}
	return MkLit(v, !s.polarity[v])
}

func (s *Solver) newDecisionLevel() {
	s.trailLim = append(s.trailLim, len(s.trail))
}

// cancelUntil undoes every assignment made at a decision level above
// lvl, restoring each variable to unassigned, reinserting it into the
// VSIDS queue, and truncating the trail and trailLim accordingly.
func (s *Solver) cancelUntil(lvl int) {
	if s.decisionLevel() <= lvl {
		return
	}
	start := s.trailLim[lvl]
	for i := len(s.trail) - 1; i >= start; i-- {
		l := s.trail[i]
		v := l.Var()
		s.polarity[v] = l.IsPositive()
		s.assign[v] = lUndef
		s.level[v] = -1
		s.reason[v] = nil
		s.queue.insert(v)
	}
	s.trail = s.trail[:start]
	s.trailLim = s.trailLim[:lvl]
}

func (s *Solver) uncheckedEnqueue(l Lit, reason *Clause) {
	v := l.Var()
	if l.IsPositive() {
		s.assign[v] = lTrue
	} else {
		s.assign[v] = lFalse
	}
	s.level[v] = s.decisionLevel()
	s.reason[v] = reason
	s.trail = append(s.trail, l)
}

// propagate runs unit propagation to a fixed point, returning the
// first clause found false (a conflict), or nil if propagation saturates.
func (s *Solver) propagate() *Clause {
	qhead := 0
	for {
		start := qhead
		for ; qhead < len(s.trail); qhead++ {
			p := s.trail[qhead]
			if confl := s.propagateLit(p); confl != nil {
				return confl
			}
		}
		if start == qhead {
			return nil
		}
	}
}

// propagateLit fixes up every clause watching p.Not() now that p has
// become true (so p.Not() has just become false).
func (s *Solver) propagateLit(p Lit) *Clause {
	ws := s.wl.lists[p]
	j := 0
	for i := 0; i < len(ws); i++ {
		w := ws[i]
		if s.valueOfLit(w.blocker) == lTrue {
			ws[j] = w
			j++
			continue
		}
		c := w.clause
		// Ensure p.Not() is lits[1] so lits[0] is the "other" watch.
		if c.lits[0] == p.Not() {
			c.swap(0, 1)
		}
		first := c.lits[0]
		if first != w.blocker && s.valueOfLit(first) == lTrue {
			ws[j] = watcher{clause: c, blocker: first}
			j++
			continue
		}
		moved := false
		for k := 2; k < c.Len(); k++ {
			if s.valueOfLit(c.lits[k]) != lFalse {
				c.swap(1, k)
				s.wl.add(c.lits[1].Not(), c, first)
				moved = true
				break
			}
		}
		if moved {
			continue
		}
		ws[j] = watcher{clause: c, blocker: first}
		j++
		if s.valueOfLit(first) == lFalse {
			s.wl.lists[p] = append(ws[:j], ws[i+1:]...)
			return c
		}
		s.uncheckedEnqueue(first, c)
	}
	s.wl.lists[p] = ws[:j]
	return nil
}

func (s *Solver) varDecayActivity() { s.varInc /= s.varDecay }

func (s *Solver) varBumpActivity(v Var) {
	s.activity[v] += s.varInc
	if s.activity[v] > 1e100 {
		for i := range s.activity {
			s.activity[i] *= 1e-100
		}
		s.varInc *= 1e-100
	}
	s.queue.bump(v)
}

// computeLBD returns the literal-block distance of lits: the number of
// distinct decision levels its literals are assigned at. A low LBD means
// the clause ties together variables decided close together in the
// search, the property reduceLearned favors when picking what to keep.
func (s *Solver) computeLBD(lits []Lit) int {
	seen := make(map[int]bool, len(lits))
	for _, l := range lits {
		seen[s.level[l.Var()]] = true
	}
	return len(seen)
}

func (s *Solver) clauseDecayActivity() { s.clauseInc /= s.clauseDecay }

func (s *Solver) clauseBumpActivity(c *Clause) {
	c.activity += s.clauseInc
	if c.activity > 1e30 {
		for _, c2 := range s.learned {
			c2.activity *= 1e-30
		}
		s.clauseInc *= 1e-30
	}
}

// reduceLearned deletes up to half of the learned database. Clauses are
// ranked binary clauses first, then by increasing LBD, then by
// decreasing activity; it keeps the better-ranked half, every binary
// clause, and every clause currently used as a reason
// (locked, in the terminology of §3): those can't be removed without
// invalidating the trail.
func (s *Solver) reduceLearned() {
	sort.Slice(s.learned, func(i, j int) bool {
		li, lj := s.learned[i], s.learned[j]
		if li.Len() != 2 && lj.Len() == 2 {
			return false
		}
		if li.Len() == 2 && lj.Len() != 2 {
			return true
		}
		if li.lbd != lj.lbd {
			return li.lbd < lj.lbd
		}
		return li.activity > lj.activity
	})
	limit := len(s.learned) / 2
	kept := s.learned[:0]
	for i, c := range s.learned {
		if i < limit || c.Len() == 2 || s.locked(c) {
			kept = append(kept, c)
			continue
		}
		s.wl.unwatchClause(c)
		s.Stats.NbDeleted++
	}
	s.learned = kept
}

// locked reports whether c is currently the reason for the assignment
// of its first literal's variable, matching spec.md §3's definition.
func (s *Solver) locked(c *Clause) bool {
	return s.reason[c.lits[0].Var()] == c
}

func (s *Solver) rebuildQueue() {
	vars := make([]Var, 0, s.nbVars)
	for v := 0; v < s.nbVars; v++ {
		if s.assign[v] == lUndef {
			vars = append(vars, Var(v))
		}
	}
	s.queue.rebuild(vars)
}

func (s *Solver) String() string {
	return fmt.Sprintf("solver(vars=%d, clauses=%d, learned=%d, status=%s)",
		s.nbVars, len(s.clauses), len(s.learned), s.status)
}
