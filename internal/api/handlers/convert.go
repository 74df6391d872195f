package handlers

import (
	"errors"
	"fmt"
	"math"
	"time"

	"hybrid-dispatch/internal/api/models"
	"hybrid-dispatch/internal/batch"
	"hybrid-dispatch/internal/config"
	"hybrid-dispatch/internal/data"
	"hybrid-dispatch/internal/dispatch"
	"hybrid-dispatch/internal/formulation"
	"hybrid-dispatch/internal/model"
	"hybrid-dispatch/internal/sizing"
)

func snapshots(ts []time.Time, start *time.Time, n int) ([]time.Time, error) {
	if len(ts) > 0 {
		return ts, nil
	}
	if start == nil {
		return nil, errors.New("either snapshots or start is required")
	}
	return data.HourlySnapshots(*start, n), nil
}

// toPlan converts a request into a batch plan. presets resolves ESS presets.
func toPlan(req *models.OptimizeRequest, presets func(string) (config.ESSConfig, error)) (batch.Plan, error) {
	ts, err := snapshots(req.Snapshots, req.Start, len(req.Demand))
	if err != nil {
		return batch.Plan{}, err
	}
	peak, err := model.ParsePeakHours(req.PeakHours)
	if err != nil {
		return batch.Plan{}, fmt.Errorf("peak_hours: %w", err)
	}
	base := model.ParameterSet{
		Snapshots:               ts,
		Demand:                  req.Demand,
		SellCurtailmentFraction: orDefault(req.SellCurtailmentFraction, config.DefaultSellCurtailmentFraction),
		CurtailmentSellPrice:    orDefault(req.CurtailmentSellPrice, config.DefaultCurtailmentSellPrice),
		AnnualCurtailmentLimit:  req.AnnualCurtailmentLimit,
		PeakTarget:              req.PeakTarget,
		PeakHours:               peak,
		UnmetDemandCost:         req.UnmetDemandCost,
	}
	plan := batch.Plan{
		Base: base,
		Options: formulation.Options{
			StrictDoD:      req.Options.StrictDoD,
			PPACapacityMW:  req.Options.PPACapacityMW,
			ConnectivityMW: req.Options.ConnectivityMW,
			SOCCycleLower:  req.Options.SOCCycleLower,
			SOCCycleUpper:  req.Options.SOCCycleUpper,
		},
		TwoStage: req.TwoStage,
	}
	for _, ir := range req.IPPs {
		ipp := batch.IPP{Name: ir.Name, OACost: orDefault(ir.OACost, config.DefaultOACost)}
		for _, p := range ir.Solar {
			ipp.Solar = append(ipp.Solar, toProfile(p))
		}
		for _, p := range ir.Wind {
			ipp.Wind = append(ipp.Wind, toProfile(p))
		}
		for j, e := range ir.ESS {
			spec, err := toStorage(e, presets)
			if err != nil {
				return batch.Plan{}, fmt.Errorf("ipps %s ess[%d]: %w", ir.Name, j, err)
			}
			ipp.ESS = append(ipp.ESS, spec)
		}
		plan.IPPs = append(plan.IPPs, ipp)
	}
	return plan, nil
}

func toProfile(p models.ProjectRequest) model.TechnologyProfile {
	return model.TechnologyProfile{
		Name:          p.Name,
		PerUnit:       p.PerUnit,
		MaxCapacityMW: p.MaxCapacityMW,
		CapitalCost:   p.CapitalCost,
		MarginalCost:  p.MarginalCost,
	}
}

func toStorage(e models.ESSRequest, presets func(string) (config.ESSConfig, error)) (model.StorageSpec, error) {
	override := config.ESSConfig{
		Name:               e.Name,
		CapitalCost:        e.CapitalCost,
		MarginalCost:       e.MarginalCost,
		StoreEfficiency:    e.StoreEfficiency,
		DispatchEfficiency: e.DispatchEfficiency,
		DoD:                e.DoD,
		MaxEnergyCapacity:  e.MaxEnergyCapacity,
		MaxHours:           e.MaxHours,
	}
	merged := override
	if e.Preset != "" {
		if presets == nil {
			return model.StorageSpec{}, errors.New("presets are not available")
		}
		base, err := presets(e.Preset)
		if err != nil {
			return model.StorageSpec{}, err
		}
		merged = config.MergeStorage(base, override)
	}
	if merged.MaxHours == 0 {
		merged.MaxHours = model.DefaultMaxHours
	}
	return merged.ToModel(), nil
}

func orDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func toResponse(r *batch.Report, includeLedger bool) *models.OptimizeResponse {
	resp := &models.OptimizeResponse{
		ID:       r.ID,
		Status:   "ok",
		Started:  r.Started,
		Finished: r.Finished,
		Ranked:   []models.CombinationResult{},
	}
	if len(r.Ranked) == 0 {
		resp.Status = "all_infeasible"
	}
	for i, o := range r.Ranked {
		c := o.Combination
		cr := models.CombinationResult{
			Rank:    i + 1,
			Name:    c.Name(),
			IPP:     c.IPP,
			Solar:   c.Solar,
			Wind:    c.Wind,
			ESS:     c.ESS,
			Mix:     o.Result.Mix.String(),
			Summary: toSummary(o.Result.Summary),
			Daily:   toDaily(o.Result.Daily),
		}
		for _, f := range o.Result.Features {
			cr.Features = append(cr.Features, string(f))
		}
		if includeLedger {
			cr.Ledger = toLedger(o.Result.Ledger)
		}
		resp.Ranked = append(resp.Ranked, cr)
	}
	for _, o := range r.Failed {
		resp.Failed = append(resp.Failed, models.CombinationFailure{
			Name:   o.Combination.Name(),
			Reason: o.Failure(),
		})
	}
	return resp
}

func toSummary(s dispatch.Summary) models.Summary {
	out := models.Summary{
		Objective:           s.Objective,
		SolarCapacityMW:     s.SolarCapacityMW,
		WindCapacityMW:      s.WindCapacityMW,
		StorageCapacityMW:   s.StorageCapacityMW,
		DemandMWh:           s.DemandMWh,
		ServedMWh:           s.ServedMWh,
		UnmetMWh:            s.UnmetMWh,
		PotentialMWh:        s.PotentialMWh,
		CurtailedMWh:        s.CurtailedMWh,
		CurtailmentCost:     s.CurtailmentCost,
		PeakDemandMWh:       s.PeakDemandMWh,
		PeakUnmetMWh:        s.PeakUnmetMWh,
		PeakServiceRatio:    s.PeakServiceRatio,
		BatteryChargeMWh:    s.BatteryChargeMWh,
		BatteryDischargeMWh: s.BatteryDischargeMWh,
		OACost:              s.OACost,
	}
	if !math.IsInf(s.CostPerUnit, 0) && !math.IsNaN(s.CostPerUnit) {
		out.CostPerUnit = model.Float(s.CostPerUnit)
	}
	return out
}

func toLedger(rows []dispatch.LedgerRow) []models.LedgerRow {
	out := make([]models.LedgerRow, len(rows))
	for i, r := range rows {
		out[i] = models.LedgerRow{
			Index:              r.Index,
			Snapshot:           r.Snapshot,
			Peak:               r.Peak,
			DemandMW:           r.DemandMW,
			SolarMW:            r.SolarMW,
			WindMW:             r.WindMW,
			UnmetMW:            r.UnmetMW,
			SolarCurtailmentMW: r.SolarCurtailmentMW,
			WindCurtailmentMW:  r.WindCurtailmentMW,
			CurtailmentCost:    r.CurtailmentCost,
			Action:             string(r.Action),
			StoreMW:            r.StoreMW,
			DispatchMW:         r.DispatchMW,
			SOCMWh:             r.SOCMWh,
		}
	}
	return out
}

func toDaily(r *sizing.Result) []models.DailySizing {
	if r == nil {
		return nil
	}
	out := make([]models.DailySizing, len(r.Days))
	for i, d := range r.Days {
		out[i] = models.DailySizing{
			Date:                 d.Date,
			DemandMWh:            d.DemandMWh,
			SolarMWh:             d.SolarMWh,
			PeakDemandMWh:        d.PeakDemandMWh,
			PeakSolarMWh:         d.PeakSolarMWh,
			RequiredDischargeMWh: d.RequiredDischargeMWh,
			RequiredChargeMWh:    d.RequiredChargeMWh,
			RequiredCapacityMWh:  d.RequiredCapacityMWh,
		}
	}
	return out
}
