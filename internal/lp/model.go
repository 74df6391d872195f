package lp

import (
	"fmt"
	"math"
)

// Sense is the relation of a constraint row.
type Sense int

const (
	LessEq Sense = iota
	GreaterEq
	Equal
)

func (s Sense) String() string {
	switch s {
	case LessEq:
		return "<="
	case GreaterEq:
		return ">="
	case Equal:
		return "=="
	default:
		return fmt.Sprintf("Sense(%d)", int(s))
	}
}

// VarInfo describes one declared variable.
type VarInfo struct {
	Name  string
	Lower float64
	Upper float64 // math.Inf(1) when unbounded
}

// Constraint is one normalized row: sum(Terms) Sense RHS.
// Group is the constraint family name; Key distinguishes rows of a family
// (usually the snapshot label) and is empty for scalar constraints.
type Constraint struct {
	Group string
	Key   string
	Terms []Term
	Sense Sense
	RHS   float64
}

// Name is unique within a model; adding a constraint with an existing name
// replaces the earlier row.
func (c Constraint) Name() string {
	if c.Key == "" {
		return c.Group
	}
	return c.Group + "[" + c.Key + "]"
}

// Builder accumulates variables, constraints and the objective for one
// model instance. It is not safe for concurrent use.
type Builder struct {
	vars      []VarInfo
	cons      []Constraint
	byName    map[string]int
	groups    []string
	seenGroup map[string]bool
	objective Expr
}

func NewBuilder() *Builder {
	return &Builder{
		byName:    map[string]int{},
		seenGroup: map[string]bool{},
	}
}

// AddVar declares a single variable.
func (b *Builder) AddVar(name string, lower, upper float64) Var {
	b.vars = append(b.vars, VarInfo{Name: name, Lower: lower, Upper: upper})
	return Var(len(b.vars) - 1)
}

// AddSeries declares one non-negative variable per snapshot label.
func (b *Builder) AddSeries(family string, labels []string, lower, upper float64) Series {
	s := Series{Family: family, vars: make([]Var, len(labels))}
	for i, l := range labels {
		s.vars[i] = b.AddVar(family+"["+l+"]", lower, upper)
	}
	return s
}

// Add registers lhs sense rhs under group/key. Constants on either side are
// folded into the right-hand side.
func (b *Builder) Add(group, key string, lhs Expr, sense Sense, rhs Expr) {
	row := Expr{}
	row.AddExpr(lhs, 1)
	row.AddExpr(rhs, -1)
	c := Constraint{
		Group: group,
		Key:   key,
		Terms: row.Terms(),
		Sense: sense,
		RHS:   -row.Constant(),
	}
	if !b.seenGroup[group] {
		b.seenGroup[group] = true
		b.groups = append(b.groups, group)
	}
	if i, ok := b.byName[c.Name()]; ok {
		b.cons[i] = c
		return
	}
	b.byName[c.Name()] = len(b.cons)
	b.cons = append(b.cons, c)
}

// AddObjective adds e to the minimization objective.
func (b *Builder) AddObjective(e Expr) {
	b.objective.AddExpr(e, 1)
}

// NumVars reports how many variables have been declared so far.
func (b *Builder) NumVars() int { return len(b.vars) }

// Build snapshots the builder into an immutable Model.
func (b *Builder) Build() *Model {
	m := &Model{
		vars:      append([]VarInfo(nil), b.vars...),
		cons:      make([]Constraint, len(b.cons)),
		groups:    append([]string(nil), b.groups...),
		objective: b.objective.Terms(),
		objConst:  b.objective.Constant(),
		byName:    make(map[string]int, len(b.byName)),
	}
	for i, c := range b.cons {
		c.Terms = append([]Term(nil), c.Terms...)
		m.cons[i] = c
	}
	for k, v := range b.byName {
		m.byName[k] = v
	}
	return m
}

// Model is an assembled linear program: minimize objective subject to the
// constraints and variable bounds.
type Model struct {
	vars      []VarInfo
	cons      []Constraint
	groups    []string
	objective []Term
	objConst  float64
	byName    map[string]int
}

func (m *Model) NumVars() int        { return len(m.vars) }
func (m *Model) NumConstraints() int { return len(m.cons) }

func (m *Model) Var(v Var) VarInfo { return m.vars[v] }

// Constraints returns every row in insertion order.
func (m *Model) Constraints() []Constraint {
	return append([]Constraint(nil), m.cons...)
}

// Constraint looks a row up by its full name.
func (m *Model) Constraint(name string) (Constraint, bool) {
	i, ok := m.byName[name]
	if !ok {
		return Constraint{}, false
	}
	return m.cons[i], true
}

// Groups returns constraint family names in the order they were first added.
func (m *Model) Groups() []string {
	return append([]string(nil), m.groups...)
}

// Group returns the rows of one family.
func (m *Model) Group(name string) []Constraint {
	var out []Constraint
	for _, c := range m.cons {
		if c.Group == name {
			out = append(out, c)
		}
	}
	return out
}

// HasGroup reports whether any row of the family exists.
func (m *Model) HasGroup(name string) bool {
	for _, g := range m.groups {
		if g == name {
			return true
		}
	}
	return false
}

// Objective returns the merged objective terms and constant.
func (m *Model) Objective() ([]Term, float64) {
	return append([]Term(nil), m.objective...), m.objConst
}

// ObjectiveValue evaluates the objective at values.
func (m *Model) ObjectiveValue(values []float64) float64 {
	s := m.objConst
	for _, t := range m.objective {
		s += t.Coef * values[t.Var]
	}
	return s
}

// Violation describes a row or bound not satisfied by a point.
type Violation struct {
	Name   string
	Amount float64
}

// Check returns every constraint or variable bound violated by more than tol.
func (m *Model) Check(values []float64, tol float64) []Violation {
	var out []Violation
	for i, v := range m.vars {
		x := values[i]
		if x < v.Lower-tol {
			out = append(out, Violation{Name: v.Name + ".lower", Amount: v.Lower - x})
		}
		if !math.IsInf(v.Upper, 1) && x > v.Upper+tol {
			out = append(out, Violation{Name: v.Name + ".upper", Amount: x - v.Upper})
		}
	}
	for _, c := range m.cons {
		lhs := 0.0
		for _, t := range c.Terms {
			lhs += t.Coef * values[t.Var]
		}
		var gap float64
		switch c.Sense {
		case LessEq:
			gap = lhs - c.RHS
		case GreaterEq:
			gap = c.RHS - lhs
		case Equal:
			gap = math.Abs(lhs - c.RHS)
		}
		if gap > tol {
			out = append(out, Violation{Name: c.Name(), Amount: gap})
		}
	}
	return out
}
