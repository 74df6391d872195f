// Package solver solves an assembled lp.Model with a two-phase dense simplex
// kept in a gonum matrix and maps the outcome onto optimal/infeasible/other.
package solver

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"hybrid-dispatch/internal/lp"
)

// Status is the solver outcome for one model.
type Status string

const (
	StatusOptimal    Status = "optimal"
	StatusInfeasible Status = "infeasible"
	StatusOther      Status = "other"
)

var (
	// ErrInfeasible marks a combination the solver proved infeasible.
	ErrInfeasible = errors.New("model is infeasible")
	// ErrTooLarge is returned for models whose dense tableau exceeds
	// Simplex.MaxCells.
	ErrTooLarge = errors.New("model too large for the dense simplex")
	// ErrIterationLimit means a phase ran out of pivots.
	ErrIterationLimit = errors.New("simplex iteration limit reached")
	// ErrUnbounded means the objective decreases without limit.
	ErrUnbounded = errors.New("model is unbounded")
)

// Solution is the solver's answer. Values is indexed by lp.Var and is only
// populated when Status is optimal.
type Solution struct {
	Status    Status
	Objective float64
	Values    []float64
	// Err carries the underlying reason for non-optimal statuses.
	Err error
}

// Value returns the solved value of v.
func (s *Solution) Value(v lp.Var) float64 {
	return s.Values[v]
}

// Series returns the solved values of a variable family.
func (s *Solution) Series(ser lp.Series) []float64 {
	if !ser.Valid() {
		return nil
	}
	out := make([]float64, ser.Len())
	for t := range out {
		out[t] = s.Values[ser.At(t)]
	}
	return out
}

// Solver is the adapter contract used by the dispatch runner.
type Solver interface {
	Solve(ctx context.Context, m *lp.Model) (*Solution, error)
}

// Defaults for Simplex fields left at zero.
const (
	DefaultTolerance = 1e-9
	// DefaultMaxCells keeps the tableau around 200 MB. A one-year hourly
	// horizon needs tens of GB and is refused.
	DefaultMaxCells = 25_000_000
)

// blandAfter is the run of degenerate pivots after which the entering rule
// switches from steepest reduced cost to Bland's rule.
const blandAfter = 50

// Simplex is a two-phase tableau simplex. Phase one starts from a slack or
// artificial basis per row, so rank-deficient or duplicated rows never leave
// it without a starting basis; artificials left at zero afterwards are
// pivoted out or mark redundant rows. It suits horizons of days to weeks.
type Simplex struct {
	Tolerance float64

	// MaxCells bounds rows x columns of the tableau.
	MaxCells int

	// MaxIterations bounds pivots per phase; zero derives it from the size.
	MaxIterations int
}

func NewSimplex() *Simplex {
	return &Simplex{Tolerance: DefaultTolerance, MaxCells: DefaultMaxCells}
}

// Solve returns a Solution for every solver outcome; the error is reserved
// for a done context or a model that cannot be put in standard form.
func (s *Simplex) Solve(ctx context.Context, m *lp.Model) (*Solution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sf, err := toStandardForm(m)
	if err != nil {
		return nil, err
	}
	if sf.infeasible != nil {
		return &Solution{Status: StatusInfeasible, Err: fmt.Errorf("%w: %v", ErrInfeasible, sf.infeasible)}, nil
	}
	if sf.unbounded != nil {
		return &Solution{Status: StatusOther, Err: fmt.Errorf("%w: %v", ErrUnbounded, sf.unbounded)}, nil
	}

	maxCells := s.MaxCells
	if maxCells <= 0 {
		maxCells = DefaultMaxCells
	}
	if cells := len(sf.rows) * (sf.ncols + 1); cells > maxCells {
		return &Solution{Status: StatusOther, Err: fmt.Errorf("%w: %d rows x %d columns exceeds %d cells",
			ErrTooLarge, len(sf.rows), sf.ncols+1, maxCells)}, nil
	}

	y := make([]float64, sf.nstruct)
	if len(sf.rows) > 0 {
		tol := s.Tolerance
		if tol <= 0 {
			tol = DefaultTolerance
		}
		limit := s.MaxIterations
		if limit <= 0 {
			limit = 20*(len(sf.rows)+sf.ncols) + 1000
		}
		tb := newTableau(sf, tol)
		switch err := tb.solve(ctx, limit); {
		case err == nil:
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil, err
		case errors.Is(err, ErrInfeasible):
			return &Solution{Status: StatusInfeasible, Err: err}, nil
		default:
			return &Solution{Status: StatusOther, Err: err}, nil
		}
		y = tb.primal(sf.nstruct)
	}

	values := sf.recover(y)
	return &Solution{
		Status:    StatusOptimal,
		Objective: m.ObjectiveValue(values),
		Values:    values,
	}, nil
}

// standardForm is min c'y s.t. rows, y >= 0, with x = lower + y for the
// columns in use. Every row has a non-negative right-hand side.
type standardForm struct {
	c    []float64
	rows []row

	nstruct    int // structural columns
	ncols      int // structural + slack + artificial
	artificial int // first artificial column

	lower  []float64
	column []int // model var -> structural column, -1 when fixed at lower

	infeasible error
	unbounded  error
}

func (sf *standardForm) recover(y []float64) []float64 {
	x := make([]float64, len(sf.column))
	for j, col := range sf.column {
		x[j] = sf.lower[j]
		if col >= 0 {
			x[j] += y[col]
		}
	}
	return x
}

type entry struct {
	col  int
	coef float64
}

type row struct {
	terms []entry
	sense lp.Sense
	rhs   float64
}

type bound struct {
	terms []lp.Term
	sense lp.Sense
	rhs   float64
}

func toStandardForm(m *lp.Model) (*standardForm, error) {
	nv := m.NumVars()
	sf := &standardForm{
		lower:  make([]float64, nv),
		column: make([]int, nv),
	}
	var raw []bound
	used := make([]bool, nv)

	for j := 0; j < nv; j++ {
		info := m.Var(lp.Var(j))
		if math.IsInf(info.Lower, -1) || math.IsNaN(info.Lower) {
			return nil, fmt.Errorf("variable %s has no finite lower bound", info.Name)
		}
		sf.lower[j] = info.Lower
		if !math.IsInf(info.Upper, 1) {
			if info.Upper < info.Lower {
				sf.infeasible = fmt.Errorf("variable %s has upper bound below lower bound", info.Name)
				return sf, nil
			}
			raw = append(raw, bound{
				terms: []lp.Term{{Var: lp.Var(j), Coef: 1}},
				sense: lp.LessEq,
				rhs:   info.Upper - info.Lower,
			})
			used[j] = true
		}
	}

	for _, c := range m.Constraints() {
		rhs := c.RHS
		for _, t := range c.Terms {
			rhs -= t.Coef * sf.lower[t.Var]
			used[t.Var] = true
		}
		if len(c.Terms) == 0 {
			if !trivialHolds(c.Sense, rhs) {
				sf.infeasible = fmt.Errorf("constraint %s has no variables and cannot hold", c.Name())
				return sf, nil
			}
			continue
		}
		raw = append(raw, bound{terms: c.Terms, sense: c.Sense, rhs: rhs})
	}

	objTerms, _ := m.Objective()
	objCoef := make([]float64, nv)
	for _, t := range objTerms {
		objCoef[t.Var] += t.Coef
	}

	for j := 0; j < nv; j++ {
		if !used[j] {
			if objCoef[j] < 0 {
				sf.unbounded = fmt.Errorf("variable %s is unconstrained with negative cost", m.Var(lp.Var(j)).Name)
				return sf, nil
			}
			sf.column[j] = -1
			continue
		}
		sf.column[j] = sf.nstruct
		sf.nstruct++
	}
	sf.c = make([]float64, sf.nstruct)
	for j := 0; j < nv; j++ {
		if col := sf.column[j]; col >= 0 {
			sf.c[col] = objCoef[j]
		}
	}

	nslack, nart := 0, 0
	sf.rows = make([]row, len(raw))
	for i, r := range raw {
		sign := 1.0
		sense := r.sense
		if r.rhs < 0 {
			sign = -1
			switch sense {
			case lp.LessEq:
				sense = lp.GreaterEq
			case lp.GreaterEq:
				sense = lp.LessEq
			}
		}
		terms := make([]entry, len(r.terms))
		for k, t := range r.terms {
			terms[k] = entry{col: sf.column[t.Var], coef: sign * t.Coef}
		}
		sf.rows[i] = row{terms: terms, sense: sense, rhs: sign * r.rhs}
		switch sense {
		case lp.LessEq:
			nslack++
		case lp.GreaterEq:
			nslack++
			nart++
		default:
			nart++
		}
	}
	sf.artificial = sf.nstruct + nslack
	sf.ncols = sf.artificial + nart
	return sf, nil
}

func trivialHolds(sense lp.Sense, rhs float64) bool {
	const eps = 1e-9
	switch sense {
	case lp.LessEq:
		return 0 <= rhs+eps
	case lp.GreaterEq:
		return 0 >= rhs-eps
	default:
		return math.Abs(rhs) <= eps
	}
}

// tableau holds B^-1 [A | b] row by row; column n is the right-hand side.
type tableau struct {
	m, n int
	t    *mat.Dense

	obj     []float64 // reduced costs; obj[n] is minus the objective
	basis   []int
	isBasic []bool
	cost    []float64

	artificial int // columns at or above never enter the basis
	tol        float64
	scale      float64 // largest right-hand side, at least 1
}

func newTableau(sf *standardForm, tol float64) *tableau {
	m, n := len(sf.rows), sf.ncols
	tb := &tableau{
		m:          m,
		n:          n,
		t:          mat.NewDense(m, n+1, nil),
		obj:        make([]float64, n+1),
		basis:      make([]int, m),
		isBasic:    make([]bool, n),
		cost:       sf.c,
		artificial: sf.artificial,
		tol:        tol,
		scale:      1,
	}
	slack, art := sf.nstruct, sf.artificial
	for i, r := range sf.rows {
		raw := tb.t.RawRowView(i)
		for _, e := range r.terms {
			raw[e.col] += e.coef
		}
		raw[n] = r.rhs
		tb.scale = math.Max(tb.scale, r.rhs)
		switch r.sense {
		case lp.LessEq:
			raw[slack] = 1
			tb.basis[i] = slack
			slack++
		case lp.GreaterEq:
			raw[slack] = -1
			slack++
			raw[art] = 1
			tb.basis[i] = art
			art++
		default:
			raw[art] = 1
			tb.basis[i] = art
			art++
		}
		tb.isBasic[tb.basis[i]] = true
	}
	return tb
}

func (tb *tableau) solve(ctx context.Context, limit int) error {
	if tb.artificial < tb.n {
		tb.price(func(j int) float64 {
			if j >= tb.artificial {
				return 1
			}
			return 0
		})
		if err := tb.iterate(ctx, limit, tb.tol); err != nil {
			return fmt.Errorf("phase one: %w", err)
		}
		if infeasibility := -tb.obj[tb.n]; infeasibility > 1e-7*tb.scale {
			return fmt.Errorf("%w: residual %.3g after phase one", ErrInfeasible, infeasibility)
		}
		tb.expelArtificials()
	}

	costScale := 1.0
	for _, c := range tb.cost {
		costScale = math.Max(costScale, math.Abs(c))
	}
	tb.price(func(j int) float64 {
		if j < len(tb.cost) {
			return tb.cost[j]
		}
		return 0
	})
	return tb.iterate(ctx, limit, tb.tol*costScale)
}

// price rebuilds the reduced-cost row for column costs c.
func (tb *tableau) price(c func(j int) float64) {
	for j := 0; j < tb.n; j++ {
		tb.obj[j] = c(j)
	}
	tb.obj[tb.n] = 0
	for i, b := range tb.basis {
		cb := c(b)
		if cb == 0 {
			continue
		}
		raw := tb.t.RawRowView(i)
		for j, v := range raw {
			if v != 0 {
				tb.obj[j] -= cb * v
			}
		}
	}
}

func (tb *tableau) iterate(ctx context.Context, limit int, optTol float64) error {
	degenerate := 0
	for it := 0; ; it++ {
		if it%64 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if it >= limit {
			return ErrIterationLimit
		}
		bland := degenerate > blandAfter
		col := tb.entering(optTol, bland)
		if col < 0 {
			return nil
		}
		r := tb.leaving(col, bland)
		if r < 0 {
			return ErrUnbounded
		}
		if tb.t.At(r, tb.n) <= tb.tol*tb.scale {
			degenerate++
		} else {
			degenerate = 0
		}
		tb.pivot(r, col)
	}
}

func (tb *tableau) entering(optTol float64, bland bool) int {
	best, bestCost := -1, -optTol
	for j := 0; j < tb.artificial; j++ {
		if tb.isBasic[j] || tb.obj[j] >= bestCost {
			continue
		}
		if bland {
			return j
		}
		best, bestCost = j, tb.obj[j]
	}
	return best
}

// leaving runs the ratio test; among ties it prefers the larger pivot, or
// the lowest basic column under Bland's rule.
func (tb *tableau) leaving(col int, bland bool) int {
	best, bestRatio, bestPivot := -1, math.Inf(1), 0.0
	for i := 0; i < tb.m; i++ {
		a := tb.t.At(i, col)
		if a <= tb.tol {
			continue
		}
		ratio := math.Max(tb.t.At(i, tb.n), 0) / a
		eps := 1e-12 * math.Max(1, bestRatio)
		switch {
		case best < 0 || ratio < bestRatio-eps:
		case ratio <= bestRatio+eps:
			if bland && tb.basis[i] > tb.basis[best] {
				continue
			}
			if !bland && a <= bestPivot {
				continue
			}
		default:
			continue
		}
		best, bestRatio, bestPivot = i, ratio, a
	}
	return best
}

func (tb *tableau) pivot(r, col int) {
	prow := tb.t.RawRowView(r)
	p := prow[col]
	var nz []int
	for j := range prow {
		if prow[j] == 0 {
			continue
		}
		prow[j] /= p
		nz = append(nz, j)
	}
	prow[col] = 1

	eliminate := func(raw []float64) {
		f := raw[col]
		if f == 0 {
			return
		}
		for _, j := range nz {
			v := raw[j] - f*prow[j]
			if math.Abs(v) < 1e-13 {
				v = 0
			}
			raw[j] = v
		}
		raw[col] = 0
	}
	for i := 0; i < tb.m; i++ {
		if i != r {
			eliminate(tb.t.RawRowView(i))
		}
	}
	eliminate(tb.obj)

	tb.isBasic[tb.basis[r]] = false
	tb.basis[r] = col
	tb.isBasic[col] = true
}

// expelArtificials swaps zero-valued basic artificials for structural or
// slack columns. A row with nothing to swap in is a linear combination of
// the others; its residue is cleared so it never takes part in a pivot.
func (tb *tableau) expelArtificials() {
	for i, b := range tb.basis {
		if b < tb.artificial {
			continue
		}
		raw := tb.t.RawRowView(i)
		best, bestAbs := -1, 1e-7
		for j := 0; j < tb.artificial; j++ {
			if tb.isBasic[j] {
				continue
			}
			if a := math.Abs(raw[j]); a > bestAbs {
				best, bestAbs = j, a
			}
		}
		if best < 0 {
			for j := 0; j < tb.artificial; j++ {
				raw[j] = 0
			}
			raw[tb.n] = 0
			continue
		}
		raw[tb.n] = 0
		tb.pivot(i, best)
	}
}

// primal reads the structural columns off the basis.
func (tb *tableau) primal(nstruct int) []float64 {
	y := make([]float64, nstruct)
	for i, b := range tb.basis {
		if b < nstruct {
			y[b] = math.Max(tb.t.At(i, tb.n), 0)
		}
	}
	return y
}
