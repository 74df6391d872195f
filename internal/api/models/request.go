package models

import "time"

// OptimizeRequest carries inline series for one batch run. Snapshots may be
// omitted in favour of Start, which expands to hourly snapshots.
type OptimizeRequest struct {
	Name      string      `json:"name,omitempty"`
	Snapshots []time.Time `json:"snapshots,omitempty"`
	Start     *time.Time  `json:"start,omitempty"`
	Demand    []float64   `json:"demand" binding:"required"`

	PeakHours  string   `json:"peak_hours,omitempty"` // e.g. "18-22" or "6,7,19"
	PeakTarget *float64 `json:"peak_target,omitempty"`

	SellCurtailmentFraction *float64 `json:"sell_curtailment_fraction,omitempty"` // default: 0.5
	CurtailmentSellPrice    *float64 `json:"curtailment_sell_price,omitempty"`    // default: 3000
	AnnualCurtailmentLimit  *float64 `json:"annual_curtailment_limit,omitempty"`
	UnmetDemandCost         float64  `json:"unmet_demand_cost,omitempty"`

	TwoStage      bool           `json:"two_stage,omitempty"`
	Options       OptionsRequest `json:"options,omitempty"`
	IPPs          []IPPRequest   `json:"ipps" binding:"required,min=1,dive"`
	IncludeLedger bool           `json:"include_ledger,omitempty"`
}

type OptionsRequest struct {
	StrictDoD      bool     `json:"strict_dod,omitempty"`
	PPACapacityMW  *float64 `json:"ppa_capacity_mw,omitempty"`
	ConnectivityMW *float64 `json:"connectivity_mw,omitempty"`
	SOCCycleLower  float64  `json:"soc_cycle_lower,omitempty"`
	SOCCycleUpper  float64  `json:"soc_cycle_upper,omitempty"`
}

type IPPRequest struct {
	Name   string           `json:"name" binding:"required"`
	OACost *float64         `json:"oa_cost,omitempty"` // default: 1000
	Solar  []ProjectRequest `json:"solar,omitempty"`
	Wind   []ProjectRequest `json:"wind,omitempty"`
	ESS    []ESSRequest     `json:"ess,omitempty"`
}

type ProjectRequest struct {
	Name          string    `json:"name" binding:"required"`
	PerUnit       []float64 `json:"per_unit" binding:"required"`
	MaxCapacityMW float64   `json:"max_capacity_mw"`
	CapitalCost   float64   `json:"capital_cost"`
	MarginalCost  float64   `json:"marginal_cost"`
}

// ESSRequest describes a storage system inline, or by Preset (an ID from
// GET /api/v1/ess) with explicit fields overriding the preset.
type ESSRequest struct {
	Preset             string   `json:"preset,omitempty"`
	Name               string   `json:"name,omitempty"`
	CapitalCost        float64  `json:"capital_cost,omitempty"`
	MarginalCost       float64  `json:"marginal_cost,omitempty"`
	StoreEfficiency    float64  `json:"store_efficiency,omitempty"`
	DispatchEfficiency float64  `json:"dispatch_efficiency,omitempty"`
	DoD                float64  `json:"dod,omitempty"`
	MaxEnergyCapacity  *float64 `json:"max_energy_capacity,omitempty"`
	MaxHours           float64  `json:"max_hours,omitempty"`
}

// SizingRequest runs the daily sizing stage on its own.
type SizingRequest struct {
	Snapshots          []time.Time `json:"snapshots,omitempty"`
	Start              *time.Time  `json:"start,omitempty"`
	Demand             []float64   `json:"demand" binding:"required"`
	SolarPerUnit       []float64   `json:"solar_per_unit" binding:"required"`
	SolarCapacityMW    float64     `json:"solar_capacity_mw"`
	PeakHours          string      `json:"peak_hours,omitempty"`
	PeakTarget         float64     `json:"peak_target,omitempty"`
	DispatchEfficiency float64     `json:"dispatch_efficiency" binding:"required"`
	DoD                float64     `json:"dod,omitempty"`
}
