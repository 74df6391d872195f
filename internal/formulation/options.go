package formulation

import (
	"sort"

	"hybrid-dispatch/internal/model"
	"hybrid-dispatch/internal/sizing"
)

// Default bounds for daily state-of-charge cycling: end-of-day SOC must stay
// within [lower, upper] x start-of-day SOC.
const (
	DefaultSOCCycleLower = 0.9
	DefaultSOCCycleUpper = 1.1
)

// Options enumerates the optional formulation features. Every feature is
// disabled unless its inputs are complete:
//
//   - peak demand service (peak_hour_demand_constraint) needs both
//     ParameterSet.PeakTarget and ParameterSet.PeakHours; either one alone
//     disables it without error.
//   - peak storage rules (battery_discharge_meets_peak_demand,
//     solar_to_ess_first, ess_discharge_only_when_solar_less_than_demand,
//     ppa_capacity_limit, connectivity_limit, curtailment_calculation) need
//     storage plus the peak demand inputs above.
//   - battery_energy_capacity_cap needs storage with MaxEnergyCapacity set.
//   - annual_curtailment_upper_limit needs AnnualCurtailmentLimit.
//   - soc_dod_constraint needs storage and StrictDoD; it is off by default
//     because strict enforcement makes many instances infeasible.
//   - daily_* constraints need storage and a Daily sizing result.
type Options struct {
	StrictDoD bool

	// PPACapacityMW and ConnectivityMW bound solar dispatch under the peak
	// storage rules. Both default to the solar max capacity.
	PPACapacityMW  *float64
	ConnectivityMW *float64

	// Daily is the stage-one result; nil runs single-stage.
	Daily *sizing.Result

	SOCCycleLower float64
	SOCCycleUpper float64
}

func (o Options) withDefaults() Options {
	if o.SOCCycleLower == 0 {
		o.SOCCycleLower = DefaultSOCCycleLower
	}
	if o.SOCCycleUpper == 0 {
		o.SOCCycleUpper = DefaultSOCCycleUpper
	}
	return o
}

// Feature names one optional constraint family switch.
type Feature string

const (
	FeaturePeakDemand           Feature = "peak_demand"
	FeaturePeakStorageRules     Feature = "peak_storage_rules"
	FeatureBatteryEnergyCap     Feature = "battery_energy_cap"
	FeatureAnnualCurtailmentCap Feature = "annual_curtailment_cap"
	FeatureChargeFromRenewables Feature = "charge_from_renewables"
	FeatureStrictDoD            Feature = "strict_dod"
	FeatureDailyDischarge       Feature = "daily_discharge"
	FeatureDailySOCCycle        Feature = "daily_soc_cycle"
)

// FeatureSet is the set of enabled features.
type FeatureSet map[Feature]bool

func (s FeatureSet) Enabled(f Feature) bool { return s[f] }

// List returns the enabled features sorted by name.
func (s FeatureSet) List() []Feature {
	out := make([]Feature, 0, len(s))
	for f, on := range s {
		if on {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// EnabledFeatures resolves which optional features apply to p under o.
func EnabledFeatures(p *model.ParameterSet, o Options) FeatureSet {
	fs := FeatureSet{}
	peak := p.PeakTarget != nil && !p.PeakHours.Empty()
	storage := p.HasStorage()

	fs[FeaturePeakDemand] = peak
	fs[FeatureAnnualCurtailmentCap] = p.AnnualCurtailmentLimit != nil
	if storage {
		fs[FeatureChargeFromRenewables] = true
		fs[FeaturePeakStorageRules] = peak
		fs[FeatureBatteryEnergyCap] = p.Storage.MaxEnergyCapacity != nil
		fs[FeatureStrictDoD] = o.StrictDoD
		fs[FeatureDailyDischarge] = o.Daily != nil
		fs[FeatureDailySOCCycle] = o.Daily != nil
	}
	for f, on := range fs {
		if !on {
			delete(fs, f)
		}
	}
	return fs
}
