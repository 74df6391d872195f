package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"golang.org/x/exp/slog"

	"hybrid-dispatch/internal/batch"
	"hybrid-dispatch/internal/config"
	"hybrid-dispatch/internal/dispatch"
	"hybrid-dispatch/internal/formulation"
	"hybrid-dispatch/internal/sizing"
	"hybrid-dispatch/internal/solver"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "optimize":
		cmdOptimize(os.Args[2:])
	case "size":
		cmdSize(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("usage:")
	fmt.Println("  cli optimize --config examples/config.yaml --out results/ [--parallel 4] [--timeout 2m]")
	fmt.Println("  cli size --config examples/config.yaml --out results/sizing.csv")
	fmt.Println("")
	fmt.Println("notes:")
	fmt.Println("  - optimize evaluates every IPP x solar x wind x ESS combination and ranks by cost per unit served")
	fmt.Println("  - optimize writes summary.csv plus a dispatch ledger (action=CHARGING/IDLE/DISCHARGING) per combination")
	fmt.Println("  - size runs only the daily sizing stage for the first solar project and ESS")
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

func cmdOptimize(args []string) {
	fs := flag.NewFlagSet("optimize", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to YAML config")
	outDir := fs.String("out", "results", "Output directory for CSV artifacts")
	parallel := fs.Int("parallel", 1, "Combinations evaluated concurrently")
	timeout := fs.Duration("timeout", 0, "Per-combination solve timeout (0=none)")
	verbose := fs.Bool("v", false, "Log every constraint group")
	_ = fs.Parse(args)

	if *cfgPath == "" {
		fmt.Println("--config is required")
		os.Exit(2)
	}
	logger := newLogger(*verbose)

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fatal(logger, "load config", err)
	}
	plan, err := cfg.Plan()
	if err != nil {
		fatal(logger, "load series", err)
	}

	engine := dispatch.New(solver.NewSimplex())
	engine.Logger = logger
	engine.Sink = formulation.NewSlogSink(logger)
	engine.Artifacts = dispatch.CSVArtifacts{Dir: filepath.Join(*outDir, "sizing")}
	engine.Timeout = *timeout

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runner := &batch.Runner{Engine: engine, Logger: logger, Parallel: *parallel}
	start := time.Now()
	report, err := runner.Run(ctx, plan)
	if err != nil && !errors.Is(err, batch.ErrAllInfeasible) {
		fatal(logger, "optimize", err)
	}

	if werr := batch.WriteTable(os.Stdout, report); werr != nil {
		fatal(logger, "write table", werr)
	}
	if errors.Is(err, batch.ErrAllInfeasible) {
		fmt.Printf("\n%s\n", batch.ErrAllInfeasible)
		os.Exit(1)
	}

	summaryPath := filepath.Join(*outDir, "summary.csv")
	if err := batch.WriteSummaryCSV(summaryPath, report); err != nil {
		fatal(logger, "write summary", err)
	}
	if err := batch.WriteLedgers(filepath.Join(*outDir, "dispatch"), report); err != nil {
		fatal(logger, "write ledgers", err)
	}

	best, _ := report.Best()
	fmt.Printf("\nRun %s: %d ranked, %d failed in %s\n", report.ID, len(report.Ranked), len(report.Failed), time.Since(start).Round(time.Millisecond))
	fmt.Printf("Best: %s cost/unit=%.2f\n", best.Combination.Name(), best.Result.Summary.CostPerUnit)
	fmt.Printf("Wrote %s\n", summaryPath)
}

func cmdSize(args []string) {
	fs := flag.NewFlagSet("size", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to YAML config")
	outPath := fs.String("out", "results/sizing.csv", "Output CSV path")
	_ = fs.Parse(args)

	if *cfgPath == "" {
		fmt.Println("--config is required")
		os.Exit(2)
	}
	logger := newLogger(false)

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fatal(logger, "load config", err)
	}
	plan, err := cfg.Plan()
	if err != nil {
		fatal(logger, "load series", err)
	}

	var combo *batch.Combination
	for _, c := range batch.Combinations(plan) {
		if c.Params.Solar != nil && c.Params.Storage != nil {
			c := c
			combo = &c
			break
		}
	}
	if combo == nil {
		fmt.Println("size needs at least one solar project and one ESS")
		os.Exit(2)
	}

	in, err := sizing.InputFromParams(combo.Params)
	if err != nil {
		fatal(logger, "sizing input", err)
	}
	res, err := sizing.Estimate(in)
	if err != nil {
		fatal(logger, "sizing", err)
	}
	if err := sizing.WriteCSV(*outPath, res); err != nil {
		fatal(logger, "write csv", err)
	}

	fmt.Printf("Sized %s over %d days\n", combo.Name(), len(res.Days))
	fmt.Printf("Total required discharge=%.2f MWh, max required capacity=%.2f MWh\n",
		res.TotalRequiredDischargeMWh(), res.MaxRequiredCapacityMWh())
	fmt.Printf("Wrote %s\n", *outPath)
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}
