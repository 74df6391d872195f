package models

import "time"

// OptimizeResponse is the ranked result of a batch run.
type OptimizeResponse struct {
	ID       string               `json:"id"`
	Status   string               `json:"status"` // "ok", "all_infeasible"
	Started  time.Time            `json:"started"`
	Finished time.Time            `json:"finished"`
	Ranked   []CombinationResult  `json:"ranked"`
	Failed   []CombinationFailure `json:"failed,omitempty"`
}

// CombinationResult is one feasible combination.
type CombinationResult struct {
	Rank     int           `json:"rank"`
	Name     string        `json:"name"`
	IPP      string        `json:"ipp"`
	Solar    string        `json:"solar"`
	Wind     string        `json:"wind"`
	ESS      string        `json:"ess"`
	Mix      string        `json:"mix"`
	Features []string      `json:"features"`
	Summary  Summary       `json:"summary"`
	Ledger   []LedgerRow   `json:"ledger,omitempty"`
	Daily    []DailySizing `json:"daily_sizing,omitempty"`
}

type CombinationFailure struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// Summary mirrors dispatch.Summary. CostPerUnit is null when nothing was served.
type Summary struct {
	Objective           float64  `json:"objective"`
	SolarCapacityMW     float64  `json:"solar_capacity_mw"`
	WindCapacityMW      float64  `json:"wind_capacity_mw"`
	StorageCapacityMW   float64  `json:"storage_capacity_mw"`
	DemandMWh           float64  `json:"demand_mwh"`
	ServedMWh           float64  `json:"served_mwh"`
	UnmetMWh            float64  `json:"unmet_mwh"`
	PotentialMWh        float64  `json:"potential_mwh"`
	CurtailedMWh        float64  `json:"curtailed_mwh"`
	CurtailmentCost     float64  `json:"curtailment_cost"`
	PeakDemandMWh       float64  `json:"peak_demand_mwh"`
	PeakUnmetMWh        float64  `json:"peak_unmet_mwh"`
	PeakServiceRatio    float64  `json:"peak_service_ratio"`
	BatteryChargeMWh    float64  `json:"battery_charge_mwh"`
	BatteryDischargeMWh float64  `json:"battery_discharge_mwh"`
	OACost              float64  `json:"oa_cost"`
	CostPerUnit         *float64 `json:"cost_per_unit"`
}

// LedgerRow represents one snapshot of solved dispatch
type LedgerRow struct {
	Index              int       `json:"index"`
	Snapshot           time.Time `json:"snapshot"`
	Peak               bool      `json:"peak"`
	DemandMW           float64   `json:"demand_mw"`
	SolarMW            float64   `json:"solar_mw"`
	WindMW             float64   `json:"wind_mw"`
	UnmetMW            float64   `json:"unmet_mw"`
	SolarCurtailmentMW float64   `json:"solar_curtailment_mw"`
	WindCurtailmentMW  float64   `json:"wind_curtailment_mw"`
	CurtailmentCost    float64   `json:"curtailment_cost"`
	Action             string    `json:"action"` // "CHARGING", "DISCHARGING", "IDLE"
	StoreMW            float64   `json:"store_mw"`
	DispatchMW         float64   `json:"dispatch_mw"`
	SOCMWh             float64   `json:"soc_mwh"`
}

// DailySizing is one row of the stage-one table.
type DailySizing struct {
	Date                 string  `json:"date"`
	DemandMWh            float64 `json:"demand_mwh"`
	SolarMWh             float64 `json:"solar_generation_mwh"`
	PeakDemandMWh        float64 `json:"peak_demand_mwh"`
	PeakSolarMWh         float64 `json:"peak_solar_mwh"`
	RequiredDischargeMWh float64 `json:"required_discharge_mwh"`
	RequiredChargeMWh    float64 `json:"required_charge_mwh"`
	RequiredCapacityMWh  float64 `json:"required_capacity_mwh"`
}

type SizingResponse struct {
	Days                   []DailySizing `json:"days"`
	TotalRequiredDischarge float64       `json:"total_required_discharge_mwh"`
	MaxRequiredCapacity    float64       `json:"max_required_capacity_mwh"`
}

// StorageInfo represents one ESS preset file
type StorageInfo struct {
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	File  string       `json:"file"`
	Specs StorageSpecs `json:"specs"`
}

type StorageSpecs struct {
	StoreEfficiency    float64  `json:"store_efficiency"`
	DispatchEfficiency float64  `json:"dispatch_efficiency"`
	DoD                float64  `json:"dod"`
	MaxHours           float64  `json:"max_hours"`
	MaxEnergyCapacity  *float64 `json:"max_energy_capacity,omitempty"`
	CapitalCost        float64  `json:"capital_cost"`
}

// FeatureInfo describes one optional constraint family
type FeatureInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Requires    []string `json:"requires"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
