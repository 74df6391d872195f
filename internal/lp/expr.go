// Package lp holds a small linear-program representation: typed variable
// handles, linear expressions, named constraints and an objective, assembled
// by a Builder into an immutable Model that a solver adapter can consume.
package lp

import "sort"

// Var is a handle to one decision variable (a column of the program).
type Var int

// Term is coef * Var.
type Term struct {
	Var  Var
	Coef float64
}

// Expr is a linear expression sum(terms) + constant.
// The zero value is the empty expression.
type Expr struct {
	terms    []Term
	constant float64
}

// NewExpr returns coef*v.
func NewExpr(v Var, coef float64) Expr {
	return Expr{terms: []Term{{Var: v, Coef: coef}}}
}

// Const returns an expression holding only a constant.
func Const(c float64) Expr {
	return Expr{constant: c}
}

// Sum returns the unit-coefficient sum of vars.
func Sum(vars ...Var) Expr {
	e := Expr{terms: make([]Term, 0, len(vars))}
	for _, v := range vars {
		e.terms = append(e.terms, Term{Var: v, Coef: 1})
	}
	return e
}

// AddTerm adds coef*v in place.
func (e *Expr) AddTerm(v Var, coef float64) *Expr {
	e.terms = append(e.terms, Term{Var: v, Coef: coef})
	return e
}

// AddConst adds c in place.
func (e *Expr) AddConst(c float64) *Expr {
	e.constant += c
	return e
}

// AddExpr adds scale*o in place.
func (e *Expr) AddExpr(o Expr, scale float64) *Expr {
	for _, t := range o.terms {
		e.terms = append(e.terms, Term{Var: t.Var, Coef: scale * t.Coef})
	}
	e.constant += scale * o.constant
	return e
}

// Scaled returns a copy of e multiplied by s.
func (e Expr) Scaled(s float64) Expr {
	out := Expr{}
	out.AddExpr(e, s)
	return out
}

// Constant returns the constant part.
func (e Expr) Constant() float64 { return e.constant }

// Terms returns the merged terms sorted by variable, dropping zero coefficients.
func (e Expr) Terms() []Term {
	if len(e.terms) == 0 {
		return nil
	}
	acc := make(map[Var]float64, len(e.terms))
	for _, t := range e.terms {
		acc[t.Var] += t.Coef
	}
	out := make([]Term, 0, len(acc))
	for v, c := range acc {
		if c != 0 {
			out = append(out, Term{Var: v, Coef: c})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Var < out[j].Var })
	return out
}

// Coef returns the merged coefficient of v.
func (e Expr) Coef(v Var) float64 {
	c := 0.0
	for _, t := range e.terms {
		if t.Var == v {
			c += t.Coef
		}
	}
	return c
}

// Eval evaluates e against values indexed by Var.
func (e Expr) Eval(values []float64) float64 {
	s := e.constant
	for _, t := range e.terms {
		s += t.Coef * values[t.Var]
	}
	return s
}

// Series is a family of variables indexed by snapshot.
type Series struct {
	Family string
	vars   []Var
}

// At returns the variable for snapshot t.
func (s Series) At(t int) Var { return s.vars[t] }

// Len is the number of snapshots covered.
func (s Series) Len() int { return len(s.vars) }

// Valid reports whether the series was declared.
func (s Series) Valid() bool { return s.Family != "" }

// Sum returns the sum over all snapshots.
func (s Series) Sum() Expr { return Sum(s.vars...) }

// SumOver returns the sum over the given snapshot indices.
func (s Series) SumOver(idx []int) Expr {
	e := Expr{terms: make([]Term, 0, len(idx))}
	for _, t := range idx {
		e.terms = append(e.terms, Term{Var: s.vars[t], Coef: 1})
	}
	return e
}
