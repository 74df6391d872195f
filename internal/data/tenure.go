package data

import (
	"fmt"
	"math"
	"time"
)

// ExpandTenure repeats a one-year profile over years, scaling year k
// (zero-based) by (1 - degradation)^k.
func ExpandTenure(profile []float64, years int, degradation float64) ([]float64, error) {
	if years < 1 {
		return nil, fmt.Errorf("tenure must be at least one year, got %d", years)
	}
	if degradation < 0 || degradation >= 1 {
		return nil, fmt.Errorf("degradation must be in [0, 1), got %g", degradation)
	}
	out := make([]float64, 0, len(profile)*years)
	for k := 0; k < years; k++ {
		f := math.Pow(1-degradation, float64(k))
		for _, v := range profile {
			out = append(out, v*f)
		}
	}
	return out, nil
}

// ExpandSnapshots repeats timestamps year by year. Copy k is shifted as a
// whole by the calendar distance from the first timestamp to the same date k
// years later, keeping its internal spacing; when a leap day would make the
// copy overlap its predecessor, it starts one step after the predecessor's
// last timestamp instead. The result is strictly increasing whenever ts is.
func ExpandSnapshots(ts []time.Time, years int) []time.Time {
	if years < 1 {
		years = 1
	}
	out := make([]time.Time, 0, len(ts)*years)
	if len(ts) == 0 {
		return out
	}
	step := time.Hour
	if len(ts) > 1 && ts[1].After(ts[0]) {
		step = ts[1].Sub(ts[0])
	}
	base := ts[0]
	for k := 0; k < years; k++ {
		offset := base.AddDate(k, 0, 0).Sub(base)
		if k > 0 {
			prev := out[len(out)-1]
			if !base.Add(offset).After(prev) {
				offset = prev.Add(step).Sub(base)
			}
		}
		for _, t := range ts {
			out = append(out, t.Add(offset))
		}
	}
	return out
}

// Repeat tiles values years times without degradation (demand).
func Repeat(values []float64, years int) []float64 {
	out, _ := ExpandTenure(values, years, 0)
	return out
}
