package config

import (
	"fmt"

	"hybrid-dispatch/internal/batch"
	"hybrid-dispatch/internal/data"
	"hybrid-dispatch/internal/formulation"
	"hybrid-dispatch/internal/model"
)

// Plan loads the referenced series and assembles the batch plan.
func (c *Config) Plan() (batch.Plan, error) {
	demand, err := data.LoadSeries(c.Resolve(c.Demand.File), c.Demand.TimeColumn, c.Demand.Column)
	if err != nil {
		return batch.Plan{}, fmt.Errorf("demand: %w", err)
	}
	if len(demand.Timestamps) != len(demand.Values) {
		return batch.Plan{}, fmt.Errorf("demand: %d timestamps for %d values", len(demand.Timestamps), len(demand.Values))
	}
	peak, err := model.ParsePeakHours(c.PeakHours)
	if err != nil {
		return batch.Plan{}, fmt.Errorf("peak_hours: %w", err)
	}

	years := c.TenureYears
	if years < 1 {
		years = 1
	}
	plan := batch.Plan{
		Base: model.ParameterSet{
			Snapshots:               data.ExpandSnapshots(demand.Timestamps, years),
			Demand:                  data.Repeat(demand.Values, years),
			SellCurtailmentFraction: c.SellCurtailmentFraction,
			CurtailmentSellPrice:    c.CurtailmentSellPrice,
			AnnualCurtailmentLimit:  c.AnnualCurtailmentLimit,
			PeakTarget:              c.PeakTarget,
			PeakHours:               peak,
			UnmetDemandCost:         c.UnmetDemandCost,
		},
		Options: formulation.Options{
			StrictDoD:      c.Options.StrictDoD,
			PPACapacityMW:  c.Options.PPACapacityMW,
			ConnectivityMW: c.Options.ConnectivityMW,
			SOCCycleLower:  c.Options.SOCCycleLower,
			SOCCycleUpper:  c.Options.SOCCycleUpper,
		},
		TwoStage: c.TwoStage,
	}

	// Projects sharing a file and column load once.
	loaded := map[SeriesSource][]float64{}
	load := func(src SeriesSource) ([]float64, error) {
		if v, ok := loaded[src]; ok {
			return v, nil
		}
		s, err := data.LoadSeries(c.Resolve(src.File), "", src.Column)
		if err != nil {
			return nil, err
		}
		loaded[src] = s.Values
		return s.Values, nil
	}

	for _, ic := range c.IPPs {
		ipp := batch.IPP{Name: ic.Name}
		if ic.OACost != nil {
			ipp.OACost = *ic.OACost
		}
		for _, fam := range []struct {
			projects []ProjectConfig
			dst      *[]model.TechnologyProfile
		}{{ic.Solar, &ipp.Solar}, {ic.Wind, &ipp.Wind}} {
			for _, pc := range fam.projects {
				raw, err := load(pc.Profile)
				if err != nil {
					return batch.Plan{}, fmt.Errorf("%s/%s: %w", ic.Name, pc.Name, err)
				}
				perUnit, err := data.ExpandTenure(raw, years, pc.Degradation)
				if err != nil {
					return batch.Plan{}, fmt.Errorf("%s/%s: %w", ic.Name, pc.Name, err)
				}
				*fam.dst = append(*fam.dst, model.TechnologyProfile{
					Name:          pc.Name,
					PerUnit:       perUnit,
					MaxCapacityMW: pc.MaxCapacityMW,
					CapitalCost:   pc.CapitalCost,
					MarginalCost:  pc.MarginalCost,
				})
			}
		}
		for _, e := range ic.ESS {
			ipp.ESS = append(ipp.ESS, e.ToModel())
		}
		plan.IPPs = append(plan.IPPs, ipp)
	}
	return plan, nil
}
