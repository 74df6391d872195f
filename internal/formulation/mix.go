package formulation

import (
	"fmt"

	"hybrid-dispatch/internal/model"
)

// Mix is the technology branch taken for a run, resolved once from which
// renewable profiles are present.
type Mix int

const (
	MixSolarOnly Mix = iota + 1
	MixWindOnly
	MixBoth
)

func (m Mix) String() string {
	switch m {
	case MixSolarOnly:
		return "solar_only"
	case MixWindOnly:
		return "wind_only"
	case MixBoth:
		return "solar_wind"
	default:
		return fmt.Sprintf("Mix(%d)", int(m))
	}
}

// Technologies lists the technologies of the branch in formulation order.
func (m Mix) Technologies() []model.Technology {
	switch m {
	case MixSolarOnly:
		return []model.Technology{model.Solar}
	case MixWindOnly:
		return []model.Technology{model.Wind}
	case MixBoth:
		return []model.Technology{model.Solar, model.Wind}
	default:
		return nil
	}
}

// Has reports whether tech belongs to the branch.
func (m Mix) Has(tech model.Technology) bool {
	for _, t := range m.Technologies() {
		if t == tech {
			return true
		}
	}
	return false
}

// ResolveMix picks the branch for p. A set with neither technology is invalid.
func ResolveMix(p *model.ParameterSet) (Mix, error) {
	solar := p.Profile(model.Solar) != nil
	wind := p.Profile(model.Wind) != nil
	switch {
	case solar && wind:
		return MixBoth, nil
	case solar:
		return MixSolarOnly, nil
	case wind:
		return MixWindOnly, nil
	default:
		return 0, model.ErrNoRenewables
	}
}
