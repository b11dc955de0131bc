package bf

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/crillab/gophersat-backbone/solver"
)

func TestSolveSatWithModel(t *testing.T) {
	f := And(Or(Var("a"), Var("b")), Not(Var("a")))
	sat, model, err := Solve(f)
	require.NoError(t, err)
	require.True(t, sat)
	require.False(t, model["a"])
	require.True(t, model["b"])
}

func TestSolveUnsat(t *testing.T) {
	f := And(Var("a"), Not(Var("a")))
	sat, _, err := Solve(f)
	require.NoError(t, err)
	require.False(t, sat)
}

func TestInstallSharesVarsAcrossCalls(t *testing.T) {
	engine := solver.New()
	vs := NewVars(engine)
	require.NoError(t, Install(vs, Implies(Var("a"), Var("b"))))
	require.NoError(t, Install(vs, Var("a")))
	require.Equal(t, engine.Solve(nil, 0), solver.Sat)
	av, ok := vs.Lookup("a")
	require.True(t, ok)
	require.True(t, engine.Model(av))
	bv, ok := vs.Lookup("b")
	require.True(t, ok)
	require.True(t, engine.Model(bv))
}

func TestInstallUniqueExactlyOne(t *testing.T) {
	engine := solver.New()
	vs := NewVars(engine)
	require.NoError(t, Install(vs, Unique("a", "b", "c")))
	require.Equal(t, solver.Sat, engine.Solve(nil, 0))
	count := 0
	for _, name := range []string{"a", "b", "c"} {
		v, ok := vs.Lookup(name)
		require.True(t, ok)
		if engine.Model(v) {
			count++
		}
	}
	require.Equal(t, 1, count)
}

func TestCheckpointRollbackRemovesNames(t *testing.T) {
	engine := solver.New()
	vs := NewVars(engine)
	require.NoError(t, Install(vs, Var("a")))
	cp := vs.Checkpoint()
	saved := engine.SaveState()

	require.NoError(t, Install(vs, Var("b")))
	_, ok := vs.Lookup("b")
	require.True(t, ok)

	engine.LoadState(saved)
	vs.Rollback(cp)
	_, ok = vs.Lookup("b")
	require.False(t, ok)
	_, ok = vs.Lookup("a")
	require.True(t, ok)
}

func TestDimacsWritesClauseCount(t *testing.T) {
	var buf bytes.Buffer
	f := And(Or(Var("a"), Var("b")), Not(Var("a")))
	require.NoError(t, Dimacs(f, &buf))
	out := buf.String()
	require.Contains(t, out, "p cnf 2 2\n")
	require.Contains(t, out, "c a=")
	require.Contains(t, out, "c b=")
}

func TestInstallFlattensOrInsideOr(t *testing.T) {
	// Implies(and(a, b), c) is or(not(and(a, b)), c); nnf() turns
	// not(and(a, b)) into or(not a, not b) and flattens it into the outer
	// "or", so Install sees a single three-literal clause and succeeds.
	f := Implies(And(Var("a"), Var("b")), Var("c"))
	engine := solver.New()
	vs := NewVars(engine)
	require.NoError(t, Install(vs, f))
}
