package model

import (
	"errors"
	"fmt"
	"math"
)

// ErrNoRenewables is returned when neither solar nor wind is present.
var ErrNoRenewables = errors.New("at least one of solar or wind must be present")

// FieldError names the input field that failed validation.
type FieldError struct {
	Field  string
	Reason string
	Err    error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error { return e.Err }

func fieldErr(field, format string, args ...any) *FieldError {
	return &FieldError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// finite rejects NaN and both infinities, which slip through ordered
// comparisons.
func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// unitInterval reports whether x is a finite value in [0, 1].
func unitInterval(x float64) bool {
	return finite(x) && x >= 0 && x <= 1
}

// Validate checks the parameter set before any variable is declared.
// Partial peak configuration (target without hours or hours without target)
// is not an error; the peak features are simply disabled downstream.
func (p *ParameterSet) Validate() error {
	if p == nil {
		return errors.New("parameter set is nil")
	}
	n := len(p.Snapshots)
	if n == 0 {
		return fieldErr("snapshots", "at least one snapshot is required")
	}
	for i := 1; i < n; i++ {
		if !p.Snapshots[i].After(p.Snapshots[i-1]) {
			return fieldErr("snapshots", "index %d (%s) is not after %s", i,
				p.Snapshots[i].Format("2006-01-02T15:04"), p.Snapshots[i-1].Format("2006-01-02T15:04"))
		}
	}
	if len(p.Demand) != n {
		return fieldErr("demand", "length %d does not match %d snapshots", len(p.Demand), n)
	}
	for i, d := range p.Demand {
		if !finite(d) || d < 0 {
			return fieldErr("demand", "value %g at index %d must be finite and >= 0", d, i)
		}
	}

	present := 0
	for _, tech := range Technologies {
		prof := p.Profile(tech)
		if prof == nil {
			continue
		}
		present++
		if err := validateProfile(string(tech), prof, n); err != nil {
			return err
		}
	}
	if present == 0 {
		return &FieldError{Field: "profiles", Reason: ErrNoRenewables.Error(), Err: ErrNoRenewables}
	}

	if s := p.Storage; s != nil {
		if err := s.Validate(); err != nil {
			return err
		}
	}

	if !unitInterval(p.SellCurtailmentFraction) {
		return fieldErr("sell_curtailment_fraction", "must be in [0, 1], got %g", p.SellCurtailmentFraction)
	}
	if !finite(p.CurtailmentSellPrice) || p.CurtailmentSellPrice < 0 {
		return fieldErr("curtailment_sell_price", "must be finite and >= 0, got %g", p.CurtailmentSellPrice)
	}
	if l := p.AnnualCurtailmentLimit; l != nil && !unitInterval(*l) {
		return fieldErr("annual_curtailment_limit", "must be in [0, 1], got %g", *l)
	}
	if t := p.PeakTarget; t != nil && !unitInterval(*t) {
		return fieldErr("peak_target", "must be in [0, 1], got %g", *t)
	}
	for _, h := range p.PeakHours {
		if h < 0 || h > 23 {
			return fieldErr("peak_hours", "hour %d outside [0, 23]", h)
		}
	}
	if !finite(p.UnmetDemandCost) || p.UnmetDemandCost < 0 {
		return fieldErr("unmet_demand_cost", "must be finite and >= 0, got %g", p.UnmetDemandCost)
	}
	return nil
}

func validateProfile(field string, prof *TechnologyProfile, n int) error {
	if len(prof.PerUnit) != n {
		return fieldErr(field+".profile", "length %d does not match %d snapshots", len(prof.PerUnit), n)
	}
	for i, v := range prof.PerUnit {
		if !unitInterval(v) {
			return fieldErr(field+".profile", "value %g at index %d outside [0, 1]", v, i)
		}
	}
	if !finite(prof.MaxCapacityMW) || prof.MaxCapacityMW <= 0 {
		return fieldErr(field+".max_capacity", "must be finite and > 0, got %g", prof.MaxCapacityMW)
	}
	if !finite(prof.CapitalCost) || prof.CapitalCost < 0 {
		return fieldErr(field+".capital_cost", "must be finite and >= 0, got %g", prof.CapitalCost)
	}
	if !finite(prof.MarginalCost) || prof.MarginalCost < 0 {
		return fieldErr(field+".marginal_cost", "must be finite and >= 0, got %g", prof.MarginalCost)
	}
	return nil
}

// Validate checks the storage physics bounds.
func (s *StorageSpec) Validate() error {
	if !unitInterval(s.StoreEfficiency) || s.StoreEfficiency == 0 {
		return fieldErr("storage.store_efficiency", "must be in (0, 1], got %g", s.StoreEfficiency)
	}
	if !unitInterval(s.DispatchEfficiency) || s.DispatchEfficiency == 0 {
		return fieldErr("storage.dispatch_efficiency", "must be in (0, 1], got %g", s.DispatchEfficiency)
	}
	if !unitInterval(s.DoD) || s.DoD == 1 {
		return fieldErr("storage.dod", "must be in [0, 1), got %g", s.DoD)
	}
	if s.MaxEnergyCapacity != nil && (!finite(*s.MaxEnergyCapacity) || *s.MaxEnergyCapacity < 0) {
		return fieldErr("storage.max_energy_capacity", "must be finite and >= 0, got %g", *s.MaxEnergyCapacity)
	}
	if !finite(s.MaxHours) || s.MaxHours < 0 {
		return fieldErr("storage.max_hours", "must be finite and >= 0, got %g", s.MaxHours)
	}
	if !finite(s.CapitalCost) || !finite(s.MarginalCost) || s.CapitalCost < 0 || s.MarginalCost < 0 {
		return fieldErr("storage.cost", "capital and marginal cost must be finite and >= 0")
	}
	return nil
}
