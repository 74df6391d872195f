package data

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const demandCSV = `timestamp,demand_mw,note
2022-01-01 00:00,10.5,a
2022-01-01 01:00,11,b
2022-01-01 02:00,12.25,c
`

func TestReadCSVSeries(t *testing.T) {
	s, err := ReadCSVSeries(strings.NewReader(demandCSV), "timestamp", "demand_mw")
	require.NoError(t, err)
	assert.Equal(t, []float64{10.5, 11, 12.25}, s.Values)
	require.Len(t, s.Timestamps, 3)
	assert.Equal(t, time.Date(2022, 1, 1, 2, 0, 0, 0, time.UTC), s.Timestamps[2])
	assert.NoError(t, s.Validate())
	assert.Equal(t, 3, s.Len())
}

func TestReadCSVSeriesWithoutTimestamps(t *testing.T) {
	s, err := ReadCSVSeries(strings.NewReader(demandCSV), "", "demand_mw")
	require.NoError(t, err)
	assert.Len(t, s.Values, 3)
	assert.Empty(t, s.Timestamps)
}

func TestReadCSVSeriesErrors(t *testing.T) {
	_, err := ReadCSVSeries(strings.NewReader(demandCSV), "timestamp", "load")
	assert.ErrorContains(t, err, `column "load" not found`)

	_, err = ReadCSVSeries(strings.NewReader(demandCSV), "time", "demand_mw")
	assert.ErrorContains(t, err, `column "time" not found`)

	bad := "timestamp,demand_mw\n2022-01-01 00:00,abc\n"
	_, err = ReadCSVSeries(strings.NewReader(bad), "timestamp", "demand_mw")
	assert.ErrorContains(t, err, "not a number")

	badTime := "timestamp,demand_mw\nyesterday,1\n"
	_, err = ReadCSVSeries(strings.NewReader(badTime), "timestamp", "demand_mw")
	assert.ErrorContains(t, err, "unrecognized timestamp")
}

func TestLoadCSVSeries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demand.csv")
	require.NoError(t, os.WriteFile(path, []byte(demandCSV), 0o644))

	s, err := LoadCSVSeries(path, "timestamp", "demand_mw")
	require.NoError(t, err)
	assert.Len(t, s.Values, 3)

	_, err = LoadCSVSeries(filepath.Join(t.TempDir(), "missing.csv"), "", "x")
	assert.Error(t, err)
}

func TestLoadSeriesJSON(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.json")
	require.NoError(t, os.WriteFile(good, []byte(`{"timestamps":["2022-01-01T00:00:00Z","2022-01-01T01:00:00Z"],"values":[1,2]}`), 0o644))
	s, err := LoadSeriesJSON(good)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, s.Values)

	mismatched := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(mismatched, []byte(`{"timestamps":["2022-01-01T00:00:00Z"],"values":[1,2]}`), 0o644))
	_, err = LoadSeriesJSON(mismatched)
	assert.ErrorContains(t, err, "1 timestamps but 2 values")

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(`{}`), 0o644))
	_, err = LoadSeriesJSON(empty)
	assert.ErrorContains(t, err, "empty")
}

func TestLoadSeriesByExtension(t *testing.T) {
	dir := t.TempDir()
	js := filepath.Join(dir, "demand.JSON")
	require.NoError(t, os.WriteFile(js, []byte(`{"values":[3,4]}`), 0o644))
	s, err := LoadSeries(js, "timestamp", "ignored")
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 4}, s.Values)
	assert.Empty(t, s.Timestamps)

	csvPath := filepath.Join(dir, "demand.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("timestamp,demand_mw\n2022-01-01 00:00,7\n"), 0o644))
	s, err = LoadSeries(csvPath, "timestamp", "demand_mw")
	require.NoError(t, err)
	assert.Equal(t, []float64{7}, s.Values)
	require.Len(t, s.Timestamps, 1)
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2022, 3, 4, 5, 0, 0, 0, time.UTC)
	for _, in := range []string{
		"2022-03-04T05:00:00Z",
		"2022-03-04T05:00:00",
		"2022-03-04T05:00",
		"2022-03-04 05:00:00",
		" 2022-03-04 05:00 ",
		"03/04/2022 05:00",
	} {
		got, err := ParseTimestamp(in)
		require.NoError(t, err, in)
		assert.True(t, want.Equal(got), in)
	}
	_, err := ParseTimestamp("")
	assert.Error(t, err)
}

func TestHourlySnapshots(t *testing.T) {
	start := time.Date(2022, 1, 1, 22, 0, 0, 0, time.UTC)
	ts := HourlySnapshots(start, 3)
	require.Len(t, ts, 3)
	assert.Equal(t, time.Date(2022, 1, 2, 0, 0, 0, 0, time.UTC), ts[2])
}

func TestExpandTenure(t *testing.T) {
	out, err := ExpandTenure([]float64{1, 0.5}, 3, 0.1)
	require.NoError(t, err)
	require.Len(t, out, 6)
	assert.InDeltaSlice(t, []float64{1, 0.5, 0.9, 0.45, 0.81, 0.405}, out, 1e-12)

	_, err = ExpandTenure([]float64{1}, 0, 0)
	assert.Error(t, err)
	_, err = ExpandTenure([]float64{1}, 1, 1)
	assert.Error(t, err)

	assert.Equal(t, []float64{2, 3, 2, 3}, Repeat([]float64{2, 3}, 2))
}

func TestExpandSnapshots(t *testing.T) {
	ts := []time.Time{
		time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2022, 1, 1, 1, 0, 0, 0, time.UTC),
	}
	out := ExpandSnapshots(ts, 2)
	require.Len(t, out, 4)
	assert.Equal(t, time.Date(2023, 1, 1, 1, 0, 0, 0, time.UTC), out[3])
	assert.Len(t, ExpandSnapshots(ts, 0), 2)
	assert.Empty(t, ExpandSnapshots(nil, 3))
}

func assertIncreasing(t *testing.T, ts []time.Time) {
	t.Helper()
	for i := 1; i < len(ts); i++ {
		if !ts[i].After(ts[i-1]) {
			t.Fatalf("non-increasing at %d: %s then %s", i,
				ts[i-1].Format("2006-01-02 15:04"), ts[i].Format("2006-01-02 15:04"))
		}
	}
}

func hourlyFrom(start time.Time, n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = start.Add(time.Duration(i) * time.Hour)
	}
	return out
}

func TestExpandSnapshotsAcrossLeapDay(t *testing.T) {
	// 2024-02-28 00:00 through 2024-03-01 23:00.
	ts := hourlyFrom(time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC), 72)
	out := ExpandSnapshots(ts, 2)
	require.Len(t, out, 144)
	assertIncreasing(t, out)
	assert.Equal(t, time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC), out[72])
	assert.Equal(t, time.Hour, out[73].Sub(out[72]))
}

func TestExpandSnapshotsFullLeapYear(t *testing.T) {
	ts := hourlyFrom(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 366*24)
	out := ExpandSnapshots(ts, 3)
	require.Len(t, out, 3*366*24)
	assertIncreasing(t, out)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), out[366*24])
}

func TestCacheExpiry(t *testing.T) {
	c := NewCache[string](time.Minute, 0)
	defer c.Close()
	now := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("a", "first")
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "first", v)

	_, ok = c.Get("missing")
	assert.False(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())

	c.Set("b", "second")
	c.Sweep()
	assert.Equal(t, 1, c.Len())
	_, ok = c.Get("b")
	assert.True(t, ok)
}

func TestCacheNilAndClose(t *testing.T) {
	var c *Cache[int]
	c.Set("x", 1)
	_, ok := c.Get("x")
	assert.False(t, ok)

	live := NewCache[int](time.Minute, time.Millisecond)
	live.Close()
	live.Close()
}
