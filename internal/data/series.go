// Package data loads the time series that feed a run: demand and per-unit
// renewable profiles, from CSV files or inline JSON.
package data

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Series is a timestamped column of values.
type Series struct {
	Timestamps []time.Time `json:"timestamps"`
	Values     []float64   `json:"values"`
}

func (s *Series) Len() int { return len(s.Values) }

// Validate checks that timestamps and values line up.
func (s *Series) Validate() error {
	if s == nil || len(s.Values) == 0 {
		return fmt.Errorf("series is empty")
	}
	if len(s.Timestamps) != 0 && len(s.Timestamps) != len(s.Values) {
		return fmt.Errorf("series has %d timestamps but %d values", len(s.Timestamps), len(s.Values))
	}
	return nil
}

// LoadSeries picks the reader by extension: ".json" files hold a whole
// series document and ignore the column names, anything else is read as CSV.
func LoadSeries(path, timeColumn, valueColumn string) (*Series, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return LoadSeriesJSON(path)
	}
	return LoadCSVSeries(path, timeColumn, valueColumn)
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"01/02/2006 15:04",
	"02-01-2006 15:04",
}

// ParseTimestamp accepts the layouts commonly found in hourly exports.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// HourlySnapshots returns n hourly timestamps starting at start.
func HourlySnapshots(start time.Time, n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = start.Add(time.Duration(i) * time.Hour)
	}
	return out
}
