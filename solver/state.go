package solver

// State is an engine checkpoint: the sizes of the permanent clause base,
// the learned-clause database, the variable table and the root trail,
// which a restore truncates back to. Name-table size is not part of it;
// that belongs to the bf ingestion layer, which keeps its own checkpoint
// alongside this one (see bf.Vars.Checkpoint).
type State struct {
	nbOrigClauses int
	nbLearned     int
	nbVars        int
	rootTrailLen  int
}

// SaveState captures a checkpoint of the engine's current size. The
// returned value can later be passed to LoadState to roll the engine
// back to exactly this point, discarding every clause, variable and
// trail assignment added since.
func (s *Solver) SaveState() State {
	return State{
		nbOrigClauses: len(s.clauses),
		nbLearned:     len(s.learned),
		nbVars:        s.nbVars,
		rootTrailLen:  len(s.trail),
	}
}

// LoadState restores the engine to a previously saved checkpoint.
// It unconditionally undoes every assignment above level 0, then
// truncates the permanent clause base, the learned-clause database,
// the variable table and the root trail back to the sizes recorded
// in st. Learned clauses are truncated too: a clause learned by
// resolving against a temporarily-installed clause can be logically
// dependent on it, so leaving such a clause watched after its
// premise is gone would make the engine unsound.
//
// LoadState never fails: by the time a caller holds a State, the
// engine can only have grown since, so truncation is always valid.
func (s *Solver) LoadState(st State) {
	s.cancelUntil(0)
	for i := st.nbOrigClauses; i < len(s.clauses); i++ {
		s.wl.unwatchClause(s.clauses[i])
	}
	s.clauses = s.clauses[:st.nbOrigClauses]

	for i := st.nbLearned; i < len(s.learned); i++ {
		s.wl.unwatchClause(s.learned[i])
	}
	s.learned = s.learned[:st.nbLearned]

	for i := len(s.trail) - 1; i >= st.rootTrailLen; i-- {
		v := s.trail[i].Var()
		s.assign[v] = lUndef
		s.level[v] = -1
		s.reason[v] = nil
	}
	s.trail = s.trail[:st.rootTrailLen]

	if st.nbVars < s.nbVars {
		s.truncateVars(st.nbVars)
	}
	s.status = Indet
	s.rebuildQueue()
}

// truncateVars drops every variable allocated after index n, including
// their activity, polarity and watch-list entries. Only reachable via
// LoadState, so all such variables are guaranteed unassigned and free
// of clause references left behind (a checkpoint window never keeps a
// clause alive that mentions a variable allocated within it, because
// LoadState always removes the clauses first).
func (s *Solver) truncateVars(n int) {
	s.nbVars = n
	s.assign = s.assign[:n]
	s.level = s.level[:n]
	s.reason = s.reason[:n]
	s.activity = s.activity[:n]
	s.polarity = s.polarity[:n]
	s.wl.lists = s.wl.lists[:2*n]
}
