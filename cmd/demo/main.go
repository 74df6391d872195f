package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"golang.org/x/exp/slog"

	"hybrid-dispatch/internal/config"
	"hybrid-dispatch/internal/data"
	"hybrid-dispatch/internal/dispatch"
	"hybrid-dispatch/internal/model"
	"hybrid-dispatch/internal/solver"
)

// Demo:
// - Build a synthetic 24h solar + battery scenario
// - Run it through sizing, formulation and the simplex solver
// - Print the hourly dispatch to show how the pieces fit together
func main() {
	essPath := flag.String("ess", "", "Path to an ESS preset YAML (optional)")
	twoStage := flag.Bool("two-stage", true, "Run the daily sizing stage first")
	peak := flag.String("peak-hours", "18-21", "Peak hours, e.g. 18-21 or 7,8,19")
	target := flag.Float64("peak-target", 0.9, "Share of peak demand that must be served")
	outCSV := flag.String("out", "", "Optional path to write ledger CSV (e.g. results/dispatch.csv)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	peakHours, err := model.ParsePeakHours(*peak)
	if err != nil {
		panic(err)
	}

	// Defaults (can be overridden via --ess).
	ess := config.ESSConfig{
		Name:               "demo-ess",
		CapitalCost:        40000,
		MarginalCost:       2,
		StoreEfficiency:    0.95,
		DispatchEfficiency: 0.95,
		DoD:                0.1,
		MaxHours:           4,
	}
	if *essPath != "" {
		loaded, err := config.LoadESSFile(*essPath)
		if err != nil {
			panic(err)
		}
		ess = config.MergeStorage(ess, loaded)
	}
	storage := ess.ToModel()

	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	snapshots := data.HourlySnapshots(start, 24)
	demand := make([]float64, 24)
	solar := make([]float64, 24)
	for h := range demand {
		demand[h] = 30
		if h >= 6 && h <= 18 {
			solar[h] = math.Sin(math.Pi * float64(h-6) / 12)
		}
	}

	params := &model.ParameterSet{
		Snapshots: snapshots,
		Demand:    demand,
		Solar: &model.TechnologyProfile{
			Name:          "demo-solar",
			PerUnit:       solar,
			MaxCapacityMW: 200,
			CapitalCost:   50000,
			MarginalCost:  5,
		},
		Storage:                 &storage,
		SellCurtailmentFraction: config.DefaultSellCurtailmentFraction,
		CurtailmentSellPrice:    1,
		PeakTarget:              model.Float(*target),
		PeakHours:               peakHours,
	}

	engine := dispatch.New(solver.NewSimplex())
	engine.Logger = logger
	result, err := engine.Run(context.Background(), dispatch.Request{
		Name:     "demo",
		Params:   params,
		TwoStage: *twoStage,
		OACost:   config.DefaultOACost,
	})
	if err != nil {
		panic(err)
	}

	fmt.Printf("Mix=%s  status=%s  features=%v\n", result.Mix, result.Status, result.Features)
	if !result.Optimal() {
		fmt.Printf("Not solved: %s\n", result.Reason)
		os.Exit(1)
	}
	s := result.Summary
	fmt.Printf("Solar=%.2f MW  ESS=%.2f MW\n\n", s.SolarCapacityMW, s.StorageCapacityMW)

	for _, r := range result.Ledger {
		marker := " "
		if r.Peak {
			marker = "*"
		}
		fmt.Printf(
			"%s%s demand=%6.2f  solar=%6.2f  curt=%6.2f  unmet=%6.2f  action=%-11s  store=%6.2f  dispatch=%6.2f  soc=%7.2f\n",
			r.Snapshot.Format("2006-01-02 15:04"),
			marker,
			r.DemandMW,
			r.SolarMW,
			r.SolarCurtailmentMW,
			r.UnmetMW,
			string(r.Action),
			r.StoreMW,
			r.DispatchMW,
			r.SOCMWh,
		)
	}

	if *outCSV != "" {
		if err := dispatch.WriteLedgerCSV(*outCSV, result.Ledger); err != nil {
			panic(err)
		}
		fmt.Printf("\nWrote CSV: %s\n", *outCSV)
	}

	fmt.Printf("\nDone. Served=%.2f MWh  Unmet=%.2f MWh  Peak service=%.1f%%  Cost/unit=%.2f\n",
		s.ServedMWh, s.UnmetMWh, 100*s.PeakServiceRatio, s.CostPerUnit)
}
