package model

import "time"

// Technology identifies a renewable generator family.
// Keep these values stable; they are used in variable and constraint names.
type Technology string

const (
	Solar Technology = "Solar"
	Wind  Technology = "Wind"
)

// Technologies lists every renewable family in formulation order.
var Technologies = []Technology{Solar, Wind}

// TechnologyProfile is the per-unit availability of one generator instance.
// Units:
// - PerUnit: fraction of nameplate available per snapshot, 0..1
// - MaxCapacityMW: MW, upper bound of the extendable nameplate
// - CapitalCost: $/MW of nameplate
// - MarginalCost: $/MWh dispatched (also prices curtailed energy)
type TechnologyProfile struct {
	Name          string
	PerUnit       []float64
	MaxCapacityMW float64
	CapitalCost   float64
	MarginalCost  float64
}

// Present reports whether the profile carries any data.
func (p *TechnologyProfile) Present() bool {
	return p != nil && len(p.PerUnit) > 0
}

// StorageSpec describes the single battery of a run.
// Units:
// - CapitalCost: $/MW of storage nameplate
// - MarginalCost: $/MWh discharged
// - Efficiencies: 0..1
// - DoD: fraction of capacity that may be discharged, 0..1 (exclusive)
// - MaxEnergyCapacity: optional multiplier on storage nameplate bounding SOC
// - MaxHours: SOC bound applied by the network (nameplate x MaxHours)
type StorageSpec struct {
	Name               string
	CapitalCost        float64
	MarginalCost       float64
	StoreEfficiency    float64
	DispatchEfficiency float64
	DoD                float64
	MaxEnergyCapacity  *float64
	MaxHours           float64
}

// DefaultMaxHours is applied when a StorageSpec leaves MaxHours unset.
const DefaultMaxHours = 1.0

// DefaultUnmetDemandCost is the fallback generator's $/MWh penalty.
const DefaultUnmetDemandCost = 10000.0

// ParameterSet is the normalized input to one optimization run.
// It is owned by the caller and treated as read-only by the formulation.
type ParameterSet struct {
	Snapshots []time.Time
	Demand    []float64

	Solar   *TechnologyProfile
	Wind    *TechnologyProfile
	Storage *StorageSpec

	SellCurtailmentFraction float64
	CurtailmentSellPrice    float64
	AnnualCurtailmentLimit  *float64

	PeakTarget *float64
	PeakHours  PeakHours

	UnmetDemandCost float64
}

// Profile returns the profile for tech, or nil when absent.
func (p *ParameterSet) Profile(tech Technology) *TechnologyProfile {
	switch tech {
	case Solar:
		if p.Solar.Present() {
			return p.Solar
		}
	case Wind:
		if p.Wind.Present() {
			return p.Wind
		}
	}
	return nil
}

// PresentTechnologies returns the technologies with non-empty profiles, in
// formulation order.
func (p *ParameterSet) PresentTechnologies() []Technology {
	out := make([]Technology, 0, len(Technologies))
	for _, tech := range Technologies {
		if p.Profile(tech) != nil {
			out = append(out, tech)
		}
	}
	return out
}

// HasStorage reports whether a battery takes part in the run.
func (p *ParameterSet) HasStorage() bool {
	return p.Storage != nil
}

// PeakMask marks snapshots whose hour-of-day is a peak hour.
func (p *ParameterSet) PeakMask() []bool {
	mask := make([]bool, len(p.Snapshots))
	for i, ts := range p.Snapshots {
		mask[i] = p.PeakHours.Contains(ts.Hour())
	}
	return mask
}

// PeakDemand sums demand over peak snapshots.
func (p *ParameterSet) PeakDemand() float64 {
	total := 0.0
	for i, peak := range p.PeakMask() {
		if peak {
			total += p.Demand[i]
		}
	}
	return total
}

// MaxDemand is the largest demand value, used to size the unmet-demand fallback.
func (p *ParameterSet) MaxDemand() float64 {
	m := 0.0
	for _, d := range p.Demand {
		if d > m {
			m = d
		}
	}
	return m
}

// ApplyDefaults fills zero-valued optional scalars.
func (p *ParameterSet) ApplyDefaults() {
	if p.UnmetDemandCost == 0 {
		p.UnmetDemandCost = DefaultUnmetDemandCost
	}
	if p.Storage != nil && p.Storage.MaxHours == 0 {
		p.Storage.MaxHours = DefaultMaxHours
	}
}

// Float returns a pointer to v; handy for optional fields.
func Float(v float64) *float64 {
	return &v
}
