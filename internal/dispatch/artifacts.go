package dispatch

import (
	"path/filepath"
	"strings"

	"hybrid-dispatch/internal/sizing"
)

// ArtifactSink receives the stage-one table of each two-stage run.
type ArtifactSink interface {
	WriteDaily(name string, daily *sizing.Result) error
}

// NopArtifacts discards artifacts.
type NopArtifacts struct{}

func (NopArtifacts) WriteDaily(string, *sizing.Result) error { return nil }

// CSVArtifacts writes <Dir>/<name>_daily_sizing.csv per combination.
type CSVArtifacts struct {
	Dir string
}

func (a CSVArtifacts) WriteDaily(name string, daily *sizing.Result) error {
	return sizing.WriteCSV(filepath.Join(a.Dir, FileSafe(name)+"_daily_sizing.csv"), daily)
}

// FileSafe turns a combination name into a file name fragment.
func FileSafe(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}
