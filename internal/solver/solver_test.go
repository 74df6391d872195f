package solver

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hybrid-dispatch/internal/lp"
)

func TestSimplexOptimal(t *testing.T) {
	// min x + 2y  s.t.  x + y >= 4, x <= 3
	b := lp.NewBuilder()
	x := b.AddVar("x", 0, 3)
	y := b.AddVar("y", 0, math.Inf(1))
	b.Add("demand", "", lp.Sum(x, y), lp.GreaterEq, lp.Const(4))
	obj := lp.NewExpr(x, 1)
	obj.AddTerm(y, 2)
	b.AddObjective(obj)
	m := b.Build()

	sol, err := NewSimplex().Solve(context.Background(), m)
	require.NoError(t, err)
	require.Equal(t, StatusOptimal, sol.Status, "%v", sol.Err)
	assert.InDelta(t, 5, sol.Objective, 1e-7)
	assert.InDelta(t, 3, sol.Value(x), 1e-7)
	assert.InDelta(t, 1, sol.Value(y), 1e-7)
	assert.Empty(t, m.Check(sol.Values, 1e-7))
}

func TestSimplexEqualityAndLowerBounds(t *testing.T) {
	// min 3a + b  s.t.  a + b == 10, a >= 2 (bound), b <= 5 (row)
	b := lp.NewBuilder()
	av := b.AddVar("a", 2, math.Inf(1))
	bv := b.AddVar("b", 0, math.Inf(1))
	b.Add("balance", "", lp.Sum(av, bv), lp.Equal, lp.Const(10))
	b.Add("cap", "", lp.NewExpr(bv, 1), lp.LessEq, lp.Const(5))
	obj := lp.NewExpr(av, 3)
	obj.AddTerm(bv, 1)
	b.AddObjective(obj)

	sol, err := NewSimplex().Solve(context.Background(), b.Build())
	require.NoError(t, err)
	require.Equal(t, StatusOptimal, sol.Status, "%v", sol.Err)
	assert.InDelta(t, 5, sol.Value(av), 1e-7)
	assert.InDelta(t, 5, sol.Value(bv), 1e-7)
	assert.InDelta(t, 20, sol.Objective, 1e-7)
}

func TestSimplexSeries(t *testing.T) {
	b := lp.NewBuilder()
	s := b.AddSeries("p", []string{"t0", "t1"}, 0, math.Inf(1))
	b.Add("need", "t0", lp.NewExpr(s.At(0), 1), lp.GreaterEq, lp.Const(1))
	b.Add("need", "t1", lp.NewExpr(s.At(1), 1), lp.GreaterEq, lp.Const(2))
	b.AddObjective(s.Sum())

	sol, err := NewSimplex().Solve(context.Background(), b.Build())
	require.NoError(t, err)
	require.Equal(t, StatusOptimal, sol.Status, "%v", sol.Err)
	got := sol.Series(s)
	require.Len(t, got, 2)
	assert.InDelta(t, 1, got[0], 1e-7)
	assert.InDelta(t, 2, got[1], 1e-7)
	assert.Nil(t, sol.Series(lp.Series{}))
}

func TestSimplexInfeasible(t *testing.T) {
	b := lp.NewBuilder()
	x := b.AddVar("x", 0, 3)
	b.Add("too_much", "", lp.NewExpr(x, 1), lp.GreaterEq, lp.Const(5))
	b.AddObjective(lp.NewExpr(x, 1))

	sol, err := NewSimplex().Solve(context.Background(), b.Build())
	require.NoError(t, err)
	assert.Equal(t, StatusInfeasible, sol.Status)
	assert.True(t, errors.Is(sol.Err, ErrInfeasible))
	assert.Nil(t, sol.Values)
}

func TestSimplexConstantRowInfeasible(t *testing.T) {
	b := lp.NewBuilder()
	x := b.AddVar("x", 0, math.Inf(1))
	b.Add("impossible", "", lp.Expr{}, lp.GreaterEq, lp.Const(1))
	b.AddObjective(lp.NewExpr(x, 1))

	sol, err := NewSimplex().Solve(context.Background(), b.Build())
	require.NoError(t, err)
	assert.Equal(t, StatusInfeasible, sol.Status)
	assert.Contains(t, sol.Err.Error(), "impossible")
}

func TestSimplexUnusedVariableFixedAtLower(t *testing.T) {
	b := lp.NewBuilder()
	x := b.AddVar("x", 0, math.Inf(1))
	idle := b.AddVar("idle", 1.5, math.Inf(1))
	b.Add("need", "", lp.NewExpr(x, 1), lp.GreaterEq, lp.Const(2))
	obj := lp.NewExpr(x, 1)
	obj.AddTerm(idle, 1)
	b.AddObjective(obj)

	sol, err := NewSimplex().Solve(context.Background(), b.Build())
	require.NoError(t, err)
	require.Equal(t, StatusOptimal, sol.Status, "%v", sol.Err)
	assert.Equal(t, 1.5, sol.Value(idle))
	assert.InDelta(t, 3.5, sol.Objective, 1e-7)
}

func TestSimplexUnboundedColumn(t *testing.T) {
	b := lp.NewBuilder()
	x := b.AddVar("x", 0, math.Inf(1))
	b.AddObjective(lp.NewExpr(x, -1))

	sol, err := NewSimplex().Solve(context.Background(), b.Build())
	require.NoError(t, err)
	assert.Equal(t, StatusOther, sol.Status)
	assert.Error(t, sol.Err)
}

func TestSimplexCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := lp.NewBuilder()
	b.AddVar("x", 0, 1)
	_, err := NewSimplex().Solve(ctx, b.Build())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSimplexRedundantEqualityRows(t *testing.T) {
	// x + y == 2 appears twice and 2x - 2y == 0 follows from x - y == 0.
	b := lp.NewBuilder()
	x := b.AddVar("x", 0, math.Inf(1))
	y := b.AddVar("y", 0, math.Inf(1))
	b.Add("total", "a", lp.Sum(x, y), lp.Equal, lp.Const(2))
	b.Add("total", "b", lp.Sum(x, y), lp.Equal, lp.Const(2))
	diff := lp.NewExpr(x, 1)
	diff.AddTerm(y, -1)
	b.Add("even", "a", diff, lp.Equal, lp.Const(0))
	diff2 := lp.NewExpr(x, 2)
	diff2.AddTerm(y, -2)
	b.Add("even", "b", diff2, lp.Equal, lp.Const(0))
	obj := lp.NewExpr(x, 1)
	obj.AddTerm(y, 2)
	b.AddObjective(obj)
	m := b.Build()

	sol, err := NewSimplex().Solve(context.Background(), m)
	require.NoError(t, err)
	require.Equal(t, StatusOptimal, sol.Status, "%v", sol.Err)
	assert.InDelta(t, 1, sol.Value(x), 1e-7)
	assert.InDelta(t, 1, sol.Value(y), 1e-7)
	assert.InDelta(t, 3, sol.Objective, 1e-7)
	assert.Empty(t, m.Check(sol.Values, 1e-7))
}

func TestSimplexDegenerateChain(t *testing.T) {
	// A storage-like chain: s[t] = s[t-1] + in[t] - out[t], s[-1] = 0,
	// with every in/out/s starting at zero and out forced at the end.
	const n = 12
	b := lp.NewBuilder()
	labels := make([]string, n)
	for i := range labels {
		labels[i] = string(rune('a' + i))
	}
	in := b.AddSeries("in", labels, 0, 5)
	out := b.AddSeries("out", labels, 0, 5)
	soc := b.AddSeries("soc", labels, 0, 8)
	for i := 0; i < n; i++ {
		e := lp.NewExpr(soc.At(i), 1)
		if i > 0 {
			e.AddTerm(soc.At(i-1), -1)
		}
		e.AddTerm(in.At(i), -0.95)
		e.AddTerm(out.At(i), 1/0.95)
		b.Add("balance", labels[i], e, lp.Equal, lp.Const(0))
	}
	b.Add("final", "", lp.NewExpr(out.At(n-1), 1), lp.GreaterEq, lp.Const(3))
	b.Add("final", "dup", lp.NewExpr(out.At(n-1), 1), lp.GreaterEq, lp.Const(3))
	b.AddObjective(in.Sum())
	m := b.Build()

	sol, err := NewSimplex().Solve(context.Background(), m)
	require.NoError(t, err)
	require.Equal(t, StatusOptimal, sol.Status, "%v", sol.Err)
	assert.InDelta(t, 3/(0.95*0.95), sol.Objective, 1e-6)
	assert.Empty(t, m.Check(sol.Values, 1e-6))
}

func TestSimplexRefusesOversizedModel(t *testing.T) {
	b := lp.NewBuilder()
	x := b.AddVar("x", 0, 3)
	y := b.AddVar("y", 0, math.Inf(1))
	b.Add("demand", "", lp.Sum(x, y), lp.GreaterEq, lp.Const(4))
	b.AddObjective(lp.Sum(x, y))

	sol, err := (&Simplex{MaxCells: 10}).Solve(context.Background(), b.Build())
	require.NoError(t, err)
	assert.Equal(t, StatusOther, sol.Status)
	assert.ErrorIs(t, sol.Err, ErrTooLarge)
	assert.Contains(t, sol.Err.Error(), "2 rows")
	assert.Nil(t, sol.Values)
}

func TestSimplexIterationLimit(t *testing.T) {
	b := lp.NewBuilder()
	x := b.AddVar("x", 0, 3)
	y := b.AddVar("y", 0, math.Inf(1))
	b.Add("demand", "", lp.Sum(x, y), lp.GreaterEq, lp.Const(4))
	obj := lp.NewExpr(x, 1)
	obj.AddTerm(y, 2)
	b.AddObjective(obj)

	sol, err := (&Simplex{MaxIterations: 1}).Solve(context.Background(), b.Build())
	require.NoError(t, err)
	assert.Equal(t, StatusOther, sol.Status)
	assert.ErrorIs(t, sol.Err, ErrIterationLimit)
}
