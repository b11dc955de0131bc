package backbone_test

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/crillab/gophersat-backbone/backbone"
	"github.com/crillab/gophersat-backbone/bf"
	"github.com/crillab/gophersat-backbone/solver"
)

func silentLog() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func newEngine() (*solver.Solver, *bf.Vars) {
	e := solver.New()
	e.SetLogger(silentLog())
	return e, bf.NewVars(e)
}

// scenario mirrors the end-to-end table from the testable-properties
// section: a formula, the relevant set, and the expected three-way
// partition (or unsat=true when the formula has no model).
type scenario struct {
	name      string
	formula   func() bf.Formula
	relevant  []string
	unsat     bool
	positive  []string
	negative  []string
	optional  []string
}

func v(name string) bf.Formula { return bf.Var(name) }
func n(f bf.Formula) bf.Formula { return bf.Not(f) }

var scenarios = []scenario{
	{
		name:     "1: true",
		formula:  func() bf.Formula { return bf.True },
		relevant: nil,
	},
	{
		name:     "2: false",
		formula:  func() bf.Formula { return bf.False },
		relevant: []string{"A", "B"},
		unsat:    true,
	},
	{
		name:     "3: A and (A->B) and not B",
		formula:  func() bf.Formula { return bf.And(v("A"), bf.Implies(v("A"), v("B")), n(v("B"))) },
		relevant: []string{"A", "B"},
		unsat:    true,
	},
	{
		name:     "4: A",
		formula:  func() bf.Formula { return v("A") },
		relevant: []string{"A"},
		positive: []string{"A"},
	},
	{
		name:     "5: A and B",
		formula:  func() bf.Formula { return bf.And(v("A"), v("B")) },
		relevant: []string{"A", "B"},
		positive: []string{"A", "B"},
	},
	{
		name:     "6: A or B or C",
		formula:  func() bf.Formula { return bf.Or(v("A"), v("B"), v("C")) },
		relevant: []string{"A", "B", "C"},
		optional: []string{"A", "B", "C"},
	},
	{
		name:     "7: A and B and (B or C)",
		formula:  func() bf.Formula { return bf.And(v("A"), v("B"), bf.Or(v("B"), v("C"))) },
		relevant: []string{"A", "B", "C"},
		positive: []string{"A", "B"},
		optional: []string{"C"},
	},
	{
		name:     "8: A and B and (not B or C)",
		formula:  func() bf.Formula { return bf.And(v("A"), v("B"), bf.Or(n(v("B")), v("C"))) },
		relevant: []string{"A", "B", "C"},
		positive: []string{"A", "B", "C"},
	},
	{
		name: "9",
		formula: func() bf.Formula {
			return bf.And(v("A"), v("B"), bf.Or(n(v("B")), v("C")), bf.Or(v("B"), v("D")), bf.Implies(v("A"), v("F")))
		},
		relevant: []string{"A", "B", "C", "D", "F"},
		positive: []string{"A", "B", "C", "F"},
		optional: []string{"D"},
	},
	{
		name: "10",
		formula: func() bf.Formula {
			return bf.And(n(v("A")), n(v("B")), bf.Or(n(v("B")), v("C")), bf.Or(v("B"), v("D")), bf.Implies(v("A"), v("F")))
		},
		relevant: []string{"A", "B", "C", "D", "F"},
		positive: []string{"D"},
		negative: []string{"A", "B"},
		optional: []string{"C", "F"},
	},
	{
		name: "11",
		formula: func() bf.Formula {
			return bf.And(v("X"), v("Y"), bf.Or(n(v("B")), v("C")), bf.Or(v("B"), v("D")), bf.Implies(v("A"), v("F")))
		},
		relevant: []string{"A", "B", "C", "D", "F", "X", "Y"},
		positive: []string{"X", "Y"},
		optional: []string{"A", "B", "C", "D", "F"},
	},
}

func normalize(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	out := append([]string(nil), ss...)
	sort.Strings(out)
	return out
}

func runScenario(t *testing.T, sc scenario, cfg backbone.Config) {
	t.Helper()
	engine, vs := newEngine()
	require.NoError(t, bf.Install(vs, sc.formula()))

	result, err := backbone.Compute(silentLog(), engine, vs, nil, sc.relevant, cfg)
	if sc.unsat {
		require.ErrorIs(t, err, backbone.ErrUnsatisfiable)
		return
	}
	require.NoError(t, err)

	if diff := cmp.Diff(normalize(sc.positive), normalize(result.Positive)); diff != "" {
		t.Errorf("positive mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(normalize(sc.negative), normalize(result.Negative)); diff != "" {
		t.Errorf("negative mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(normalize(sc.optional), normalize(result.Optional)); diff != "" {
		t.Errorf("optional mismatch (-want +got):\n%s", diff)
	}
}

func TestScenarios(t *testing.T) {
	for _, sc := range scenarios {
		sc := sc
		t.Run(sc.name, func(t *testing.T) {
			runScenario(t, sc, backbone.DefaultConfig())
		})
	}
}

// TestConfigIndependence exercises scenarios 7-11 under every subset of
// the five heuristic flags: the returned backbone must not depend on
// which are enabled (spec's config-independence property).
func TestConfigIndependence(t *testing.T) {
	for _, sc := range scenarios[6:] {
		sc := sc
		t.Run(sc.name, func(t *testing.T) {
			for mask := 0; mask < 32; mask++ {
				cfg := backbone.Config{
					InitialUBCheckForRotatableLiterals: mask&1 != 0,
					InitialLBCheckForUPZeroLiterals:    mask&2 != 0,
					CheckForUPZeroLiterals:             mask&4 != 0,
					CheckForComplementModelLiterals:    mask&8 != 0,
					CheckForRotatableLiterals:          mask&16 != 0,
				}
				runScenario(t, sc, cfg)
			}
		})
	}
}

func TestEmptyRelevantSetReturnsAllEmpty(t *testing.T) {
	engine, vs := newEngine()
	require.NoError(t, bf.Install(vs, bf.And(v("A"), v("B"))))

	result, err := backbone.Compute(silentLog(), engine, vs, nil, nil, backbone.DefaultConfig())
	require.NoError(t, err)
	require.Empty(t, result.Positive)
	require.Empty(t, result.Negative)
	require.Empty(t, result.Optional)
}

// TestRelevantVariableAbsentFromFormula documents the Open Question
// decision: a relevant variable the engine never installed a clause
// mentioning is unconstrained, so it is reported as optional rather
// than rejected or silently vanishing from every set.
func TestRelevantVariableAbsentFromFormula(t *testing.T) {
	engine, vs := newEngine()
	require.NoError(t, bf.Install(vs, v("A")))

	result, err := backbone.Compute(silentLog(), engine, vs, nil, []string{"A", "ghost"}, backbone.DefaultConfig())
	require.NoError(t, err)
	require.Equal(t, []string{"A"}, result.Positive)
	require.Equal(t, []string{"ghost"}, result.Optional)
}

// TestInitialLevelZeroSignIsNotInverted targets Open Question #1: a
// relevant variable already fixed at level 0 by unit propagation before
// the main loop must be committed with its own truth value, not its
// complement. Scenario 5 (A and B, both unit clauses) puts both A and B
// at level 0 immediately after the initial SAT call, so it already
// exercises this path; this test pins it down explicitly and also
// checks the level-0 shortcut disabled still agrees (config independence
// for exactly this literal).
func TestInitialLevelZeroSignIsNotInverted(t *testing.T) {
	for _, enabled := range []bool{true, false} {
		engine, vs := newEngine()
		require.NoError(t, bf.Install(vs, bf.And(v("A"), n(v("B")))))

		cfg := backbone.DefaultConfig()
		cfg.InitialLBCheckForUPZeroLiterals = enabled

		result, err := backbone.Compute(silentLog(), engine, vs, nil, []string{"A", "B"}, cfg)
		require.NoError(t, err)
		require.Equal(t, []string{"A"}, result.Positive, "enabled=%v", enabled)
		require.Equal(t, []string{"B"}, result.Negative, "enabled=%v", enabled)
	}
}

func TestRollbackIsolation(t *testing.T) {
	engine, vs := newEngine()
	require.NoError(t, bf.Install(vs, bf.And(v("A"), bf.Or(v("B"), v("C")))))
	nbVarsBefore := engine.NbVars()

	_, err := backbone.Compute(silentLog(), engine, vs, nil, []string{"A", "B", "C"}, backbone.DefaultConfig())
	require.NoError(t, err)
	require.Equal(t, nbVarsBefore, engine.NbVars())

	// The engine must still behave exactly as before the call.
	require.Equal(t, solver.Sat, engine.Solve(nil, 0))
}

func TestIdempotence(t *testing.T) {
	engine, vs := newEngine()
	require.NoError(t, bf.Install(vs, bf.And(v("A"), bf.Or(v("B"), v("C")))))

	r1, err := backbone.Compute(silentLog(), engine, vs, nil, []string{"A", "B", "C"}, backbone.DefaultConfig())
	require.NoError(t, err)
	r2, err := backbone.Compute(silentLog(), engine, vs, nil, []string{"A", "B", "C"}, backbone.DefaultConfig())
	require.NoError(t, err)
	require.Equal(t, r1, r2)
}

// TestAgainstBruteForce cross-validates small random instances against a
// brute-force model enumerator, independent of both the engine and gini.
func TestAgainstBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 15; trial++ {
		nbVars := 2 + rng.Intn(6) // keep well under the 15-variable brute-force ceiling
		names := make([]string, nbVars)
		for i := range names {
			names[i] = string(rune('A' + i))
		}
		clauses := randomClausesOverNames(rng, names, nbVars*2)

		want := bruteForceBackbone(names, clauses)

		engine, vs := newEngine()
		f := formulaFromClauses(clauses)
		require.NoError(t, bf.Install(vs, f))
		result, err := backbone.Compute(silentLog(), engine, vs, nil, names, backbone.DefaultConfig())

		if want == nil {
			require.ErrorIs(t, err, backbone.ErrUnsatisfiable)
			continue
		}
		require.NoError(t, err)
		require.Equal(t, normalize(want.Positive), normalize(result.Positive))
		require.Equal(t, normalize(want.Negative), normalize(result.Negative))
		require.Equal(t, normalize(want.Optional), normalize(result.Optional))
	}
}

func randomClausesOverNames(rng *rand.Rand, names []string, nbClauses int) [][]bf.Formula {
	clauses := make([][]bf.Formula, nbClauses)
	for i := range clauses {
		width := 1 + rng.Intn(2)
		lits := make([]bf.Formula, width)
		for j := range lits {
			name := names[rng.Intn(len(names))]
			f := v(name)
			if rng.Intn(2) == 0 {
				f = n(f)
			}
			lits[j] = f
		}
		clauses[i] = lits
	}
	return clauses
}

func formulaFromClauses(clauses [][]bf.Formula) bf.Formula {
	conjuncts := make([]bf.Formula, len(clauses))
	for i, lits := range clauses {
		conjuncts[i] = bf.Or(lits...)
	}
	return bf.And(conjuncts...)
}

// bruteForceBackbone enumerates every assignment of names (stdlib only,
// ≤ 15 variables) and returns the resulting Backbone, or nil if no
// assignment satisfies every clause.
func bruteForceBackbone(names []string, clauses [][]bf.Formula) *backbone.Backbone {
	nbVars := len(names)
	trueInEvery := make(map[string]bool, nbVars)
	falseInEvery := make(map[string]bool, nbVars)
	for _, name := range names {
		trueInEvery[name] = true
		falseInEvery[name] = true
	}
	sat := false
	for mask := 0; mask < (1 << nbVars); mask++ {
		assignment := make(map[string]bool, nbVars)
		for i, name := range names {
			assignment[name] = mask&(1<<i) != 0
		}
		if !satisfiesAll(assignment, clauses) {
			continue
		}
		sat = true
		for name, val := range assignment {
			if !val {
				trueInEvery[name] = false
			}
			if val {
				falseInEvery[name] = false
			}
		}
	}
	if !sat {
		return nil
	}
	var b backbone.Backbone
	for _, name := range names {
		switch {
		case trueInEvery[name]:
			b.Positive = append(b.Positive, name)
		case falseInEvery[name]:
			b.Negative = append(b.Negative, name)
		default:
			b.Optional = append(b.Optional, name)
		}
	}
	return &b
}

func satisfiesAll(assignment map[string]bool, clauses [][]bf.Formula) bool {
	for _, lits := range clauses {
		ok := false
		for _, lit := range lits {
			if evalLit(assignment, lit) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

// evalLit evaluates a literal built only from Var/Not over assignment;
// it is deliberately narrow, matching the shape randomClausesOverNames
// produces, not a general Formula evaluator.
func evalLit(assignment map[string]bool, f bf.Formula) bool {
	str := f.String()
	if len(str) > 4 && str[:4] == "not(" {
		return !assignment[str[4:len(str)-1]]
	}
	return assignment[str]
}
