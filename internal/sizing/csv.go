package sizing

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
)

// WriteCSV writes the daily requirement table to path, creating parent
// directories as needed.
func WriteCSV(path string, r *Result) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return Write(f, r)
}

// Write encodes the daily requirement table as CSV.
func Write(out io.Writer, r *Result) error {
	w := csv.NewWriter(out)
	defer w.Flush()

	header := []string{
		"date",
		"demand_mwh",
		"solar_generation_mwh",
		"peak_demand_mwh",
		"peak_solar_mwh",
		"required_discharge_mwh",
		"required_charge_mwh",
		"required_capacity_mwh",
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, d := range r.Days {
		row := []string{
			d.Date,
			fmtFloat(d.DemandMWh),
			fmtFloat(d.SolarMWh),
			fmtFloat(d.PeakDemandMWh),
			fmtFloat(d.PeakSolarMWh),
			fmtFloat(d.RequiredDischargeMWh),
			fmtFloat(d.RequiredChargeMWh),
			fmtFloat(d.RequiredCapacityMWh),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
