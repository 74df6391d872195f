// Package sizing estimates daily battery requirements ahead of the hourly
// dispatch solve.
//
// The estimate is closed-form, not an LP relaxation: for every calendar day
// the battery must discharge whatever part of the peak-hour service target
// solar cannot cover during those same hours, grossed up by the dispatch
// efficiency for charge and by the usable depth of discharge for capacity.
package sizing

import (
	"errors"
	"fmt"
	"math"
	"time"

	"hybrid-dispatch/internal/model"
)

// DayLayout is the calendar-day key format.
const DayLayout = "2006-01-02"

// DayKey returns the calendar day of ts in its own location.
func DayKey(ts time.Time) string {
	return ts.Format(DayLayout)
}

// Input is the data the estimator reads. Energies are MWh per snapshot.
type Input struct {
	Snapshots []time.Time
	Demand    []float64

	// SolarPerUnit may be empty, in which case solar contributes nothing.
	SolarPerUnit    []float64
	SolarCapacityMW float64

	PeakHours          model.PeakHours
	PeakTarget         float64
	DispatchEfficiency float64
	DoD                float64
}

// DailyRequirement is the stage-one output for one calendar day.
// All requirement fields are >= 0.
type DailyRequirement struct {
	Date string
	Day  time.Time

	DemandMWh     float64
	SolarMWh      float64
	PeakDemandMWh float64
	PeakSolarMWh  float64

	RequiredDischargeMWh float64
	RequiredChargeMWh    float64
	RequiredCapacityMWh  float64
}

// Result holds requirements for every day of the horizon, in order.
type Result struct {
	Days []DailyRequirement
}

// Day looks a requirement up by its date key.
func (r *Result) Day(date string) (DailyRequirement, bool) {
	if r == nil {
		return DailyRequirement{}, false
	}
	for _, d := range r.Days {
		if d.Date == date {
			return d, true
		}
	}
	return DailyRequirement{}, false
}

// TotalRequiredDischargeMWh sums required discharge over all days.
func (r *Result) TotalRequiredDischargeMWh() float64 {
	total := 0.0
	for _, d := range r.Days {
		total += d.RequiredDischargeMWh
	}
	return total
}

// MaxRequiredCapacityMWh is the largest daily capacity requirement.
func (r *Result) MaxRequiredCapacityMWh() float64 {
	m := 0.0
	for _, d := range r.Days {
		m = math.Max(m, d.RequiredCapacityMWh)
	}
	return m
}

// Estimate runs the daily sizing stage. It has no hidden state: identical
// input yields identical output.
func Estimate(in Input) (*Result, error) {
	n := len(in.Snapshots)
	if n == 0 {
		return nil, errors.New("no snapshots")
	}
	if len(in.Demand) != n {
		return nil, fmt.Errorf("demand length %d does not match %d snapshots", len(in.Demand), n)
	}
	if len(in.SolarPerUnit) != 0 && len(in.SolarPerUnit) != n {
		return nil, fmt.Errorf("solar profile length %d does not match %d snapshots", len(in.SolarPerUnit), n)
	}
	if in.DispatchEfficiency <= 0 || in.DispatchEfficiency > 1 {
		return nil, fmt.Errorf("dispatch efficiency must be in (0, 1], got %g", in.DispatchEfficiency)
	}
	if in.DoD < 0 || in.DoD >= 1 {
		return nil, fmt.Errorf("DoD must be in [0, 1), got %g", in.DoD)
	}

	var days []DailyRequirement
	for i, ts := range in.Snapshots {
		key := DayKey(ts)
		if len(days) == 0 || days[len(days)-1].Date != key {
			days = append(days, DailyRequirement{
				Date: key,
				Day:  time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, ts.Location()),
			})
		}
		d := &days[len(days)-1]

		solar := 0.0
		if len(in.SolarPerUnit) != 0 {
			solar = in.SolarPerUnit[i] * in.SolarCapacityMW
		}
		d.DemandMWh += in.Demand[i]
		d.SolarMWh += solar
		if in.PeakHours.Contains(ts.Hour()) {
			d.PeakDemandMWh += in.Demand[i]
			d.PeakSolarMWh += solar
		}
	}

	for i := range days {
		d := &days[i]
		d.RequiredDischargeMWh = math.Max(0, in.PeakTarget*d.PeakDemandMWh-d.PeakSolarMWh)
		d.RequiredChargeMWh = d.RequiredDischargeMWh / in.DispatchEfficiency
		d.RequiredCapacityMWh = d.RequiredChargeMWh / (1 - in.DoD)
	}
	return &Result{Days: days}, nil
}

// InputFromParams derives estimator input from a validated parameter set.
// A missing peak target estimates zero requirements.
func InputFromParams(p *model.ParameterSet) (Input, error) {
	if p.Storage == nil {
		return Input{}, errors.New("daily sizing needs a storage unit")
	}
	in := Input{
		Snapshots:          p.Snapshots,
		Demand:             p.Demand,
		PeakHours:          p.PeakHours,
		DispatchEfficiency: p.Storage.DispatchEfficiency,
		DoD:                p.Storage.DoD,
	}
	if p.PeakTarget != nil {
		in.PeakTarget = *p.PeakTarget
	}
	if solar := p.Profile(model.Solar); solar != nil {
		in.SolarPerUnit = solar.PerUnit
		in.SolarCapacityMW = solar.MaxCapacityMW
	}
	return in, nil
}
