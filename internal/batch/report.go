package batch

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"hybrid-dispatch/internal/dispatch"
)

// WriteTable prints the ranked combinations followed by the failures.
func WriteTable(out io.Writer, r *Report) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "rank\tcombination\tmix\tsolar_mw\twind_mw\tess_mw\tserved_mwh\tunmet_mwh\tcurtailed_mwh\tpeak_service\tcost_per_unit")
	for i, o := range r.Ranked {
		s := o.Result.Summary
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.3f\t%.2f\n",
			i+1, o.Combination.Name(), o.Result.Mix,
			s.SolarCapacityMW, s.WindCapacityMW, s.StorageCapacityMW,
			s.ServedMWh, s.UnmetMWh, s.CurtailedMWh, s.PeakServiceRatio, s.CostPerUnit)
	}
	for _, o := range r.Failed {
		fmt.Fprintf(tw, "-\t%s\t\t\t\t\t\t\t\t\t%s\n", o.Combination.Name(), o.Failure())
	}
	return tw.Flush()
}

// WriteSummaryCSV writes one row per ranked combination.
func WriteSummaryCSV(path string, r *Report) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{
		"rank", "ipp", "solar", "wind", "ess", "mix",
		"objective", "solar_capacity_mw", "wind_capacity_mw", "storage_capacity_mw",
		"demand_mwh", "served_mwh", "unmet_mwh", "curtailed_mwh", "curtailment_cost",
		"peak_service_ratio", "oa_cost", "cost_per_unit",
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for i, o := range r.Ranked {
		if err := w.Write(summaryRow(i+1, o)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func summaryRow(rank int, o Outcome) []string {
	c := o.Combination
	s := o.Result.Summary
	f := func(x float64) string { return strconv.FormatFloat(x, 'f', 4, 64) }
	return []string{
		strconv.Itoa(rank), c.IPP, c.Solar, c.Wind, c.ESS, o.Result.Mix.String(),
		f(s.Objective), f(s.SolarCapacityMW), f(s.WindCapacityMW), f(s.StorageCapacityMW),
		f(s.DemandMWh), f(s.ServedMWh), f(s.UnmetMWh), f(s.CurtailedMWh), f(s.CurtailmentCost),
		f(s.PeakServiceRatio), f(s.OACost), f(s.CostPerUnit),
	}
}

// WriteLedgers writes <dir>/<combination>_dispatch.csv for every ranked
// combination.
func WriteLedgers(dir string, r *Report) error {
	for _, o := range r.Ranked {
		path := filepath.Join(dir, dispatch.FileSafe(o.Combination.Name())+"_dispatch.csv")
		if err := dispatch.WriteLedgerCSV(path, o.Result.Ledger); err != nil {
			return fmt.Errorf("%s: %w", o.Combination.Name(), err)
		}
	}
	return nil
}
