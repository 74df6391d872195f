package dispatch

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// WriteLedgerCSV writes the per-snapshot dispatch ledger to path.
func WriteLedgerCSV(path string, ledger []LedgerRow) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"index",
		"snapshot",
		"peak",
		"demand_mw",
		"solar_mw",
		"wind_mw",
		"unmet_mw",
		"solar_curtailment_mw",
		"wind_curtailment_mw",
		"curtailment_cost",
		"action",
		"store_mw",
		"dispatch_mw",
		"soc_mwh",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range ledger {
		row := []string{
			strconv.Itoa(r.Index),
			fmtTime(r.Snapshot),
			strconv.FormatBool(r.Peak),
			fmtFloat(r.DemandMW),
			fmtFloat(r.SolarMW),
			fmtFloat(r.WindMW),
			fmtFloat(r.UnmetMW),
			fmtFloat(r.SolarCurtailmentMW),
			fmtFloat(r.WindCurtailmentMW),
			fmtFloat(r.CurtailmentCost),
			string(r.Action),
			fmtFloat(r.StoreMW),
			fmtFloat(r.DispatchMW),
			fmtFloat(r.SOCMWh),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
