package solver

// watcher is one entry in a literal's watch list: the clause watching
// that literal, plus a blocker literal that, when already satisfied,
// lets propagation skip inspecting the clause entirely.
type watcher struct {
	clause  *Clause
	blocker Lit
}

// watches holds, for every literal, the clauses currently watching it.
// A clause with watched literals w0, w1 is registered under
// watches[w0.Not()] and watches[w1.Not()]: when a literal l becomes
// true, every clause registered under watches[l] has had its watched
// literal l.Not() just falsified and must be re-examined.
type watches struct {
	lists [][]watcher
}

func (w *watches) grow(nbVars int) {
	for len(w.lists) < 2*nbVars {
		w.lists = append(w.lists, nil)
	}
}

func (w *watches) add(onFalse Lit, c *Clause, blocker Lit) {
	w.lists[onFalse] = append(w.lists[onFalse], watcher{clause: c, blocker: blocker})
}

// remove drops the first watcher entry pointing at c from onFalse's list.
func (w *watches) remove(onFalse Lit, c *Clause) {
	ws := w.lists[onFalse]
	for i, entry := range ws {
		if entry.clause == c {
			ws[i] = ws[len(ws)-1]
			w.lists[onFalse] = ws[:len(ws)-1]
			return
		}
	}
}

// watchClause registers a freshly added or reattached clause under the
// watch lists of its first two literals.
func (w *watches) watchClause(c *Clause) {
	w.add(c.lits[0].Not(), c, c.lits[1])
	if len(c.lits) > 1 {
		w.add(c.lits[1].Not(), c, c.lits[0])
	}
}

func (w *watches) unwatchClause(c *Clause) {
	w.remove(c.lits[0].Not(), c)
	if len(c.lits) > 1 {
		w.remove(c.lits[1].Not(), c)
	}
}

// Watch is one (clause, blocker) pair as seen from outside the package,
// per the data model's watch-list description in §3.
type Watch struct {
	Clause  *Clause
	Blocker Lit
}

// Watches returns the watcher list for lit, exposed for introspection
// per the engine's §4.1 contract. Callers must not mutate the result.
func (s *Solver) Watches(lit Lit) []Watch {
	ws := s.wl.lists[lit]
	out := make([]Watch, len(ws))
	for i, w := range ws {
		out[i] = Watch{Clause: w.clause, Blocker: w.blocker}
	}
	return out
}
