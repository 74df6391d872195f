package formulation

import (
	"math"

	"hybrid-dispatch/internal/lp"
	"hybrid-dispatch/internal/model"
	"hybrid-dispatch/internal/network"
)

// Variable family names declared by this layer.
const (
	FamilyFinalCurtailmentCost = "final_curtailment_cost"
)

// CurtailmentFamily names the curtailment family of tech, e.g. "Solar_curtailment".
func CurtailmentFamily(tech model.Technology) string {
	return string(tech) + "_curtailment"
}

// Registry holds the handles declared on top of the network: one curtailment
// series per present technology and the per-snapshot curtailment cost.
type Registry struct {
	Curtailment map[model.Technology]lp.Series
	FinalCost   lp.Series
}

// CurtailmentOf returns the curtailment series of tech and whether it exists.
func (r *Registry) CurtailmentOf(tech model.Technology) (lp.Series, bool) {
	s, ok := r.Curtailment[tech]
	return s, ok
}

// DeclareVariables declares curtailment only for technologies present in the
// network, plus the always-present final curtailment cost.
func DeclareVariables(b *lp.Builder, n *network.Network) *Registry {
	inf := math.Inf(1)
	reg := &Registry{Curtailment: map[model.Technology]lp.Series{}}
	for _, tech := range model.Technologies {
		if _, ok := n.Generator(tech); !ok {
			continue
		}
		reg.Curtailment[tech] = b.AddSeries(CurtailmentFamily(tech), n.Labels, 0, inf)
	}
	reg.FinalCost = b.AddSeries(FamilyFinalCurtailmentCost, n.Labels, 0, inf)
	return reg
}

// AssembleObjective adds the curtailment cost sum to the objective. Capital
// and marginal terms of generation and storage are added by the network.
func AssembleObjective(b *lp.Builder, reg *Registry) {
	b.AddObjective(reg.FinalCost.Sum())
}
