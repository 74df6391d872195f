package data

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// ReadCSVSeries reads one value column, and optionally a timestamp column,
// from a CSV with a header row. An empty timeColumn skips timestamps.
func ReadCSVSeries(r io.Reader, timeColumn, valueColumn string) (*Series, error) {
	types := map[string]series.Type{valueColumn: series.Float}
	if timeColumn != "" {
		types[timeColumn] = series.String
	}
	df := dataframe.ReadCSV(r, dataframe.HasHeader(true), dataframe.WithTypes(types))
	if df.Err != nil {
		return nil, fmt.Errorf("read csv: %w", df.Err)
	}
	if !hasColumn(df, valueColumn) {
		return nil, fmt.Errorf("column %q not found (have %v)", valueColumn, df.Names())
	}

	out := &Series{Values: df.Col(valueColumn).Float()}
	for i, v := range out.Values {
		if math.IsNaN(v) {
			return nil, fmt.Errorf("column %q row %d: not a number", valueColumn, i+1)
		}
	}
	if timeColumn == "" {
		return out, nil
	}
	if !hasColumn(df, timeColumn) {
		return nil, fmt.Errorf("column %q not found (have %v)", timeColumn, df.Names())
	}
	for i, rec := range df.Col(timeColumn).Records() {
		ts, err := ParseTimestamp(rec)
		if err != nil {
			return nil, fmt.Errorf("column %q row %d: %w", timeColumn, i+1, err)
		}
		out.Timestamps = append(out.Timestamps, ts)
	}
	return out, nil
}

// LoadCSVSeries opens path and reads it with ReadCSVSeries.
func LoadCSVSeries(path, timeColumn, valueColumn string) (*Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	s, err := ReadCSVSeries(f, timeColumn, valueColumn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func hasColumn(df dataframe.DataFrame, name string) bool {
	for _, n := range df.Names() {
		if n == name {
			return true
		}
	}
	return false
}
