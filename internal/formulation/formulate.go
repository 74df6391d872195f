// Package formulation builds the constraint set and curtailment objective
// of the hourly dispatch program on top of a registered network.
package formulation

import (
	"errors"
	"fmt"

	"hybrid-dispatch/internal/lp"
	"hybrid-dispatch/internal/model"
	"hybrid-dispatch/internal/network"
	"hybrid-dispatch/internal/sizing"
)

// Constraint group names.
const (
	GroupPeakHourDemand         = "peak_hour_demand_constraint"
	GroupSOCDoD                 = "soc_dod_constraint"
	GroupBatteryEnergyCap       = "battery_energy_capacity_cap"
	GroupFinalCurtailmentCost   = "final_curtailment_cost_calculation"
	GroupAnnualCurtailmentLimit = "annual_curtailment_upper_limit"
	GroupChargeFromRealGen      = "battery_charge_from_real_gen_only"
	GroupStoreNonNegative       = "battery_store_nonnegative"
	GroupDischargeMeetsPeak     = "battery_discharge_meets_peak_demand"
	GroupSolarToESSFirst        = "solar_to_ess_first"
	GroupDischargeWhenSolarLow  = "ess_discharge_only_when_solar_less_than_demand"
	GroupPPACapacityLimit       = "ppa_capacity_limit"
	GroupConnectivityLimit      = "connectivity_limit"
	GroupCurtailmentOverride    = "curtailment_calculation"

	// Daily groups carry the date as a suffix, e.g.
	// daily_discharge_constraint_2022-01-01.
	GroupDailyDischargePrefix = "daily_discharge_constraint_"
	GroupDailySOCCyclePrefix  = "daily_soc_cycle_constraint_"
)

// CurtailmentGroup names the curtailment equality of tech.
func CurtailmentGroup(tech model.Technology) string {
	return string(tech) + "_curtailment_calculation"
}

type formulator struct {
	b        *lp.Builder
	net      *network.Network
	reg      *Registry
	p        *model.ParameterSet
	opts     Options
	mix      Mix
	features FeatureSet
	sink     Sink

	peakIdx []int
	rows    int
}

// Formulate adds every constraint group to b in a fixed order. The network
// and registry must have been declared on the same builder.
func Formulate(b *lp.Builder, n *network.Network, reg *Registry, opts Options, sink Sink) (Mix, error) {
	if n == nil || reg == nil {
		return 0, errors.New("network and registry are required")
	}
	if sink == nil {
		sink = NopSink{}
	}
	mix, err := ResolveMix(n.Params)
	if err != nil {
		return 0, err
	}
	opts = opts.withDefaults()
	f := &formulator{
		b:        b,
		net:      n,
		reg:      reg,
		p:        n.Params,
		opts:     opts,
		mix:      mix,
		features: EnabledFeatures(n.Params, opts),
		sink:     sink,
	}
	for i, peak := range n.Params.PeakMask() {
		if peak {
			f.peakIdx = append(f.peakIdx, i)
		}
	}

	for _, tech := range mix.Technologies() {
		tech := tech
		f.group(CurtailmentGroup(tech), "", func() { f.curtailmentEquality(tech) })
	}
	f.group(GroupPeakHourDemand, f.peakReason(FeaturePeakDemand), f.peakHourDemand)
	f.group(GroupSOCDoD, f.reason(FeatureStrictDoD, "strict DoD disabled"), f.strictDoD)
	f.group(GroupBatteryEnergyCap, f.reason(FeatureBatteryEnergyCap, "no storage max energy capacity"), f.batteryEnergyCap)

	switch mix {
	case MixBoth:
		f.formulateSolarWind()
	case MixSolarOnly:
		f.formulateSolarOnly()
	case MixWindOnly:
		f.formulateWindOnly()
	}

	f.group(GroupChargeFromRealGen, f.reason(FeatureChargeFromRenewables, "no storage"), f.chargeFromRealGen)
	f.group(GroupStoreNonNegative, f.reason(FeatureChargeFromRenewables, "no storage"), f.storeNonNegative)

	peakStorage := f.peakReason(FeaturePeakStorageRules)
	f.group(GroupDischargeMeetsPeak, peakStorage, f.dischargeMeetsPeak)
	f.group(GroupSolarToESSFirst, peakStorage, f.solarToESSFirst)
	f.group(GroupDischargeWhenSolarLow, peakStorage, f.dischargeWhenSolarLow)
	solarCap := peakStorage
	if solarCap == "" && !mix.Has(model.Solar) {
		solarCap = "no solar"
	}
	f.group(GroupPPACapacityLimit, solarCap, func() { f.solarDispatchLimit(GroupPPACapacityLimit, f.ppaCapacity()) })
	f.group(GroupConnectivityLimit, solarCap, func() { f.solarDispatchLimit(GroupConnectivityLimit, f.connectivity()) })
	f.group(GroupCurtailmentOverride, solarCap, f.curtailmentOverride)

	f.group(GroupDailyDischargePrefix+"*", f.reason(FeatureDailyDischarge, "single-stage run"), f.dailyDischarge)
	f.group(GroupDailySOCCyclePrefix+"*", f.reason(FeatureDailySOCCycle, "single-stage run"), f.dailySOCCycle)
	return mix, nil
}

// group runs build unless skip carries a reason, and reports either way.
func (f *formulator) group(name, skip string, build func()) {
	if skip != "" {
		f.sink.Record(Record{Group: name, Mix: f.mix, Skipped: true, Reason: skip})
		return
	}
	f.rows = 0
	build()
	f.sink.Record(Record{Group: name, Rows: f.rows, Mix: f.mix})
}

func (f *formulator) add(group, key string, lhs lp.Expr, sense lp.Sense, rhs lp.Expr) {
	f.b.Add(group, key, lhs, sense, rhs)
	f.rows++
}

func (f *formulator) reason(feat Feature, why string) string {
	if f.features.Enabled(feat) {
		return ""
	}
	return why
}

func (f *formulator) peakReason(feat Feature) string {
	if f.features.Enabled(feat) {
		if len(f.peakIdx) == 0 {
			return "no snapshot falls in peak hours"
		}
		return ""
	}
	switch {
	case feat == FeaturePeakStorageRules && !f.p.HasStorage():
		return "no storage"
	case f.p.PeakTarget == nil && f.p.PeakHours.Empty():
		return "peak target and peak hours not set"
	case f.p.PeakTarget == nil:
		return "peak hours given without peak target"
	default:
		return "peak target given without peak hours"
	}
}

// curtailment[t] == nameplate*pu[t] - dispatch[t]
func (f *formulator) curtailmentEquality(tech model.Technology) {
	g, _ := f.net.Generator(tech)
	curt := f.reg.Curtailment[tech]
	for t, label := range f.net.Labels {
		rhs := g.Potential(t)
		rhs.AddTerm(g.Dispatch.At(t), -1)
		f.add(CurtailmentGroup(tech), label, lp.NewExpr(curt.At(t), 1), lp.Equal, rhs)
	}
}

// sum of unmet demand over peak snapshots <= (1 - target) * peak demand
func (f *formulator) peakHourDemand() {
	target := *f.p.PeakTarget
	limit := (1 - target) * f.p.PeakDemand()
	f.add(GroupPeakHourDemand, "", f.net.Unmet.SumOver(f.peakIdx), lp.LessEq, lp.Const(limit))
}

// soc[t] >= (1 - DoD) * nameplate for every snapshot but the first.
func (f *formulator) strictDoD() {
	s := f.net.Storage
	for t := 1; t < len(f.net.Labels); t++ {
		f.add(GroupSOCDoD, f.net.Labels[t], lp.NewExpr(s.SOC.At(t), 1), lp.GreaterEq,
			lp.NewExpr(s.Nameplate, 1-s.Spec.DoD))
	}
}

// soc[t] <= nameplate * max energy capacity
func (f *formulator) batteryEnergyCap() {
	s := f.net.Storage
	maxEnergy := *s.Spec.MaxEnergyCapacity
	for t, label := range f.net.Labels {
		f.add(GroupBatteryEnergyCap, label, lp.NewExpr(s.SOC.At(t), 1), lp.LessEq, lp.NewExpr(s.Nameplate, maxEnergy))
	}
}

func (f *formulator) formulateSolarWind() {
	f.group(GroupFinalCurtailmentCost, "", func() { f.finalCurtailmentCost(model.Solar, model.Wind) })
	f.group(GroupAnnualCurtailmentLimit, f.annualReason(), func() { f.annualCurtailmentLimit(model.Solar, model.Wind) })
}

func (f *formulator) formulateSolarOnly() {
	f.group(GroupFinalCurtailmentCost, "", func() { f.finalCurtailmentCost(model.Solar) })
	f.group(GroupAnnualCurtailmentLimit, f.annualReason(), func() { f.annualCurtailmentLimit(model.Solar) })
}

func (f *formulator) formulateWindOnly() {
	f.group(GroupFinalCurtailmentCost, "", func() { f.finalCurtailmentCost(model.Wind) })
	f.group(GroupAnnualCurtailmentLimit, f.annualReason(), func() { f.annualCurtailmentLimit(model.Wind) })
}

func (f *formulator) annualReason() string {
	return f.reason(FeatureAnnualCurtailmentCap, "no annual curtailment limit")
}

// cost[t] == sum(curt[tech][t] * mc[tech]) - sell_fraction * sum(curt[tech][t]) * sell_price
func (f *formulator) finalCurtailmentCost(techs ...model.Technology) {
	rebate := f.p.SellCurtailmentFraction * f.p.CurtailmentSellPrice
	for t, label := range f.net.Labels {
		rhs := lp.Expr{}
		for _, tech := range techs {
			g, _ := f.net.Generator(tech)
			rhs.AddTerm(f.reg.Curtailment[tech].At(t), g.Profile.MarginalCost-rebate)
		}
		f.add(GroupFinalCurtailmentCost, label, lp.NewExpr(f.reg.FinalCost.At(t), 1), lp.Equal, rhs)
	}
}

// sum over snapshots and techs of curtailment <= limit * sum of potential generation
func (f *formulator) annualCurtailmentLimit(techs ...model.Technology) {
	limit := *f.p.AnnualCurtailmentLimit
	lhs := lp.Expr{}
	rhs := lp.Expr{}
	for _, tech := range techs {
		g, _ := f.net.Generator(tech)
		lhs.AddExpr(f.reg.Curtailment[tech].Sum(), 1)
		rhs.AddExpr(g.TotalPotential(), limit)
	}
	f.add(GroupAnnualCurtailmentLimit, "", lhs, lp.LessEq, rhs)
}

// renewableDispatch is the combined dispatched renewable generation at t.
func (f *formulator) renewableDispatch(t int) lp.Expr {
	e := lp.Expr{}
	for _, tech := range f.mix.Technologies() {
		g, _ := f.net.Generator(tech)
		e.AddTerm(g.Dispatch.At(t), 1)
	}
	return e
}

// solarDispatch is solar dispatch at t, or the empty expression without solar.
func (f *formulator) solarDispatch(t int) lp.Expr {
	g, ok := f.net.Generator(model.Solar)
	if !ok {
		return lp.Expr{}
	}
	return lp.NewExpr(g.Dispatch.At(t), 1)
}

func (f *formulator) chargeFromRealGen() {
	s := f.net.Storage
	for t, label := range f.net.Labels {
		f.add(GroupChargeFromRealGen, label, lp.NewExpr(s.Store.At(t), 1), lp.LessEq, f.renewableDispatch(t))
	}
}

func (f *formulator) storeNonNegative() {
	s := f.net.Storage
	for t, label := range f.net.Labels {
		f.add(GroupStoreNonNegative, label, lp.NewExpr(s.Store.At(t), 1), lp.GreaterEq, lp.Expr{})
	}
}

// sum of peak-hour discharge >= target * peak demand
func (f *formulator) dischargeMeetsPeak() {
	target := *f.p.PeakTarget
	f.add(GroupDischargeMeetsPeak, "", f.net.Storage.Dispatch.SumOver(f.peakIdx), lp.GreaterEq,
		lp.Const(target*f.p.PeakDemand()))
}

// Storage charges from solar before solar serves demand or is curtailed.
func (f *formulator) solarToESSFirst() {
	s := f.net.Storage
	for t, label := range f.net.Labels {
		f.add(GroupSolarToESSFirst, label, lp.NewExpr(s.Store.At(t), 1), lp.LessEq, f.solarDispatch(t))
	}
}

// discharge[t] <= demand[t] - solar[t]
func (f *formulator) dischargeWhenSolarLow() {
	s := f.net.Storage
	for t, label := range f.net.Labels {
		rhs := lp.Const(f.p.Demand[t])
		rhs.AddExpr(f.solarDispatch(t), -1)
		f.add(GroupDischargeWhenSolarLow, label, lp.NewExpr(s.Dispatch.At(t), 1), lp.LessEq, rhs)
	}
}

func (f *formulator) ppaCapacity() float64 {
	if f.opts.PPACapacityMW != nil {
		return *f.opts.PPACapacityMW
	}
	return f.p.Solar.MaxCapacityMW
}

func (f *formulator) connectivity() float64 {
	if f.opts.ConnectivityMW != nil {
		return *f.opts.ConnectivityMW
	}
	return f.p.Solar.MaxCapacityMW
}

// ppa_capacity_limit and connectivity_limit are kept as separate families
// even though both default to the same bound.
func (f *formulator) solarDispatchLimit(group string, limitMW float64) {
	for t, label := range f.net.Labels {
		f.add(group, label, f.solarDispatch(t), lp.LessEq, lp.Const(limitMW))
	}
}

// solar curtailment[t] >= solar dispatch[t] - PPA capacity, in addition to
// the curtailment equality.
func (f *formulator) curtailmentOverride() {
	curt := f.reg.Curtailment[model.Solar]
	ppa := f.ppaCapacity()
	for t, label := range f.net.Labels {
		rhs := f.solarDispatch(t)
		rhs.AddConst(-ppa)
		f.add(GroupCurtailmentOverride, label, lp.NewExpr(curt.At(t), 1), lp.GreaterEq, rhs)
	}
}

// dayIndex maps each date key to its snapshot indices, in snapshot order.
func (f *formulator) dayIndex() ([]string, map[string][]int) {
	var order []string
	idx := map[string][]int{}
	for t, ts := range f.p.Snapshots {
		key := sizing.DayKey(ts)
		if _, ok := idx[key]; !ok {
			order = append(order, key)
		}
		idx[key] = append(idx[key], t)
	}
	return order, idx
}

// sum of discharge over the day >= required discharge; zero requirements are skipped.
func (f *formulator) dailyDischarge() {
	s := f.net.Storage
	order, idx := f.dayIndex()
	for _, day := range order {
		req, ok := f.opts.Daily.Day(day)
		if !ok || req.RequiredDischargeMWh <= 0 {
			continue
		}
		f.add(GroupDailyDischargePrefix+day, "", s.Dispatch.SumOver(idx[day]), lp.GreaterEq,
			lp.Const(req.RequiredDischargeMWh))
	}
}

// End-of-day SOC within [lower, upper] x start-of-day SOC for days with more
// than one snapshot.
func (f *formulator) dailySOCCycle() {
	s := f.net.Storage
	order, idx := f.dayIndex()
	for _, day := range order {
		snaps := idx[day]
		if len(snaps) < 2 {
			continue
		}
		first, last := snaps[0], snaps[len(snaps)-1]
		end := lp.NewExpr(s.SOC.At(last), 1)
		f.add(GroupDailySOCCyclePrefix+day, "lower", end, lp.GreaterEq, lp.NewExpr(s.SOC.At(first), f.opts.SOCCycleLower))
		f.add(GroupDailySOCCyclePrefix+day, "upper", end, lp.LessEq, lp.NewExpr(s.SOC.At(first), f.opts.SOCCycleUpper))
	}
}

// Instance is an assembled model with the handles needed to read a solution.
type Instance struct {
	Model    *lp.Model
	Network  *network.Network
	Registry *Registry
	Mix      Mix
	Features FeatureSet
}

// Build validates p and assembles a fresh model: network registration,
// curtailment variables, constraint groups and objective. Each call owns its
// own builder, so instances are never shared between combinations.
func Build(p *model.ParameterSet, opts Options, sink Sink) (*Instance, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}
	p = withDefaults(p)
	b := lp.NewBuilder()
	n := network.Register(b, p)
	reg := DeclareVariables(b, n)
	mix, err := Formulate(b, n, reg, opts, sink)
	if err != nil {
		return nil, err
	}
	AssembleObjective(b, reg)
	return &Instance{
		Model:    b.Build(),
		Network:  n,
		Registry: reg,
		Mix:      mix,
		Features: EnabledFeatures(p, opts),
	}, nil
}

// withDefaults returns a defaulted copy so the caller's set stays untouched.
func withDefaults(p *model.ParameterSet) *model.ParameterSet {
	cp := *p
	if p.Storage != nil {
		st := *p.Storage
		cp.Storage = &st
	}
	cp.ApplyDefaults()
	return &cp
}
