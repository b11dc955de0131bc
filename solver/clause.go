package solver

// Clause is a sized sequence of literals. The first two literals are
// always the ones currently watched (see watch.go); conflict analysis
// and clause deletion rely on that invariant being kept by the solver,
// never by Clause itself.
type Clause struct {
	lits     []Lit
	learnt   bool
	activity float64
	lbd      int // literal-block distance, used by the reduction policy
}

// NewClause builds a clause from the given literals. The slice is kept
// as-is (not copied); callers must not mutate it afterwards.
func NewClause(lits []Lit, learnt bool) *Clause {
	return &Clause{lits: lits, learnt: learnt}
}

// Len returns the number of literals in c.
func (c *Clause) Len() int { return len(c.lits) }

// Get returns the i-th literal of c.
func (c *Clause) Get(i int) Lit { return c.lits[i] }

// Lits returns the backing literal slice. Callers may read it but must
// not mutate it outside of the solver's own watch-fixing code.
func (c *Clause) Lits() []Lit { return c.lits }

// Learnt reports whether c was derived by conflict analysis rather than
// being part of the original (or a backbone-installed) clause base.
func (c *Clause) Learnt() bool { return c.learnt }

func (c *Clause) swap(i, j int) { c.lits[i], c.lits[j] = c.lits[j], c.lits[i] }
