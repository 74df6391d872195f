package dispatch

import (
	"time"

	"hybrid-dispatch/internal/model"
)

// LedgerRow is one snapshot of solved dispatch.
// This is the primary artifact for "what happened" in a run.
type LedgerRow struct {
	Index    int
	Snapshot time.Time
	Peak     bool

	DemandMW float64

	SolarMW float64
	WindMW  float64
	UnmetMW float64

	SolarCurtailmentMW float64
	WindCurtailmentMW  float64
	CurtailmentCost    float64

	Action     model.Action
	StoreMW    float64
	DispatchMW float64
	SOCMWh     float64
}

// Summary aggregates one solved combination for reporting and ranking.
type Summary struct {
	Objective float64

	SolarCapacityMW   float64
	WindCapacityMW    float64
	StorageCapacityMW float64

	DemandMWh    float64
	ServedMWh    float64
	UnmetMWh     float64
	PotentialMWh float64
	CurtailedMWh float64

	CurtailmentCost float64

	PeakDemandMWh    float64
	PeakUnmetMWh     float64
	PeakServiceRatio float64

	BatteryChargeMWh    float64
	BatteryDischargeMWh float64

	OACost      float64
	CostPerUnit float64
}
