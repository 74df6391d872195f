// Package network registers the physical system of one run on an lp.Builder:
// a single bus, renewable generators with extendable nameplate, an
// unmet-demand fallback generator and an optional storage unit. It declares
// the base decision-variable families, the bus energy balance, storage
// state-of-charge dynamics and the capital and marginal cost objective terms.
package network

import (
	"math"

	"hybrid-dispatch/internal/lp"
	"hybrid-dispatch/internal/model"
)

const (
	BusName         = "ElectricityBus"
	UnmetDemandName = "Unmet_Demand"
	BatteryName     = "Battery"
)

// SnapshotLabelLayout formats snapshot keys in variable and constraint names.
const SnapshotLabelLayout = "2006-01-02T15:04"

// Generator holds the variable handles of one renewable generator.
type Generator struct {
	Tech      model.Technology
	Profile   *model.TechnologyProfile
	Nameplate lp.Var    // Generator-p_nom
	Dispatch  lp.Series // Generator-p
}

// Potential is nameplate x per-unit availability at snapshot t.
func (g Generator) Potential(t int) lp.Expr {
	return lp.NewExpr(g.Nameplate, g.Profile.PerUnit[t])
}

// TotalPotential sums Potential over all snapshots.
func (g Generator) TotalPotential() lp.Expr {
	total := 0.0
	for _, pu := range g.Profile.PerUnit {
		total += pu
	}
	return lp.NewExpr(g.Nameplate, total)
}

// Storage holds the variable handles of the battery.
type Storage struct {
	Spec      *model.StorageSpec
	Nameplate lp.Var    // StorageUnit-p_nom
	SOC       lp.Series // StorageUnit-state_of_charge
	Store     lp.Series // StorageUnit-p_store
	Dispatch  lp.Series // StorageUnit-p_dispatch
}

// Network is the registered system. Handles are only valid for the builder
// that produced them.
type Network struct {
	Params     *model.ParameterSet
	Labels     []string
	Generators map[model.Technology]Generator
	Unmet      lp.Series
	Storage    *Storage
}

// Generator returns the handles for tech and whether it is present.
func (n *Network) Generator(tech model.Technology) (Generator, bool) {
	g, ok := n.Generators[tech]
	return g, ok
}

// Labels formats the snapshot index for use in names.
func Labels(p *model.ParameterSet) []string {
	out := make([]string, len(p.Snapshots))
	for i, ts := range p.Snapshots {
		out[i] = ts.Format(SnapshotLabelLayout)
	}
	return out
}

// Register declares the network on b. p must already be validated.
func Register(b *lp.Builder, p *model.ParameterSet) *Network {
	inf := math.Inf(1)
	n := &Network{
		Params:     p,
		Labels:     Labels(p),
		Generators: map[model.Technology]Generator{},
	}

	for _, tech := range p.PresentTechnologies() {
		prof := p.Profile(tech)
		g := Generator{
			Tech:      tech,
			Profile:   prof,
			Nameplate: b.AddVar("Generator-p_nom["+string(tech)+"]", 0, prof.MaxCapacityMW),
			Dispatch:  b.AddSeries("Generator-p["+string(tech)+"]", n.Labels, 0, inf),
		}
		for t, label := range n.Labels {
			b.Add("generator_availability_"+string(tech), label,
				lp.NewExpr(g.Dispatch.At(t), 1), lp.LessEq, g.Potential(t))
		}
		b.AddObjective(lp.NewExpr(g.Nameplate, prof.CapitalCost))
		b.AddObjective(g.Dispatch.Sum().Scaled(prof.MarginalCost))
		n.Generators[tech] = g
	}

	n.Unmet = b.AddSeries("Generator-p["+UnmetDemandName+"]", n.Labels, 0, p.MaxDemand())
	b.AddObjective(n.Unmet.Sum().Scaled(p.UnmetDemandCost))

	if spec := p.Storage; spec != nil {
		n.Storage = registerStorage(b, spec, n.Labels)
	}

	for t, label := range n.Labels {
		supply := n.Unmet.SumOver([]int{t})
		for _, tech := range model.Technologies {
			if g, ok := n.Generators[tech]; ok {
				supply.AddTerm(g.Dispatch.At(t), 1)
			}
		}
		if s := n.Storage; s != nil {
			supply.AddTerm(s.Dispatch.At(t), 1)
			supply.AddTerm(s.Store.At(t), -1)
		}
		b.Add("bus_energy_balance", label, supply, lp.Equal, lp.Const(p.Demand[t]))
	}
	return n
}

func registerStorage(b *lp.Builder, spec *model.StorageSpec, labels []string) *Storage {
	inf := math.Inf(1)
	s := &Storage{
		Spec:      spec,
		Nameplate: b.AddVar("StorageUnit-p_nom["+BatteryName+"]", 0, inf),
		SOC:       b.AddSeries("StorageUnit-state_of_charge["+BatteryName+"]", labels, 0, inf),
		Store:     b.AddSeries("StorageUnit-p_store["+BatteryName+"]", labels, 0, inf),
		Dispatch:  b.AddSeries("StorageUnit-p_dispatch["+BatteryName+"]", labels, 0, inf),
	}
	maxHours := spec.MaxHours
	if maxHours == 0 {
		maxHours = model.DefaultMaxHours
	}
	for t, label := range labels {
		b.Add("storage_store_limit", label, lp.NewExpr(s.Store.At(t), 1), lp.LessEq, lp.NewExpr(s.Nameplate, 1))
		b.Add("storage_dispatch_limit", label, lp.NewExpr(s.Dispatch.At(t), 1), lp.LessEq, lp.NewExpr(s.Nameplate, 1))
		b.Add("storage_soc_limit", label, lp.NewExpr(s.SOC.At(t), 1), lp.LessEq, lp.NewExpr(s.Nameplate, maxHours))

		// soc[t] = soc[t-1] + eta_s*store[t] - dispatch[t]/eta_d, soc[-1] = 0
		balance := lp.NewExpr(s.SOC.At(t), 1)
		if t > 0 {
			balance.AddTerm(s.SOC.At(t-1), -1)
		}
		balance.AddTerm(s.Store.At(t), -spec.StoreEfficiency)
		balance.AddTerm(s.Dispatch.At(t), 1/spec.DispatchEfficiency)
		b.Add("storage_soc_balance", label, balance, lp.Equal, lp.Expr{})
	}
	b.AddObjective(lp.NewExpr(s.Nameplate, spec.CapitalCost))
	b.AddObjective(s.Dispatch.Sum().Scaled(spec.MarginalCost))
	return s
}
