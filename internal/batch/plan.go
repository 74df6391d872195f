// Package batch evaluates every IPP x solar x wind x ESS combination of a
// plan and ranks the feasible ones by cost per unit served.
package batch

import (
	"fmt"
	"strings"

	"hybrid-dispatch/internal/formulation"
	"hybrid-dispatch/internal/model"
)

// None labels an absent technology choice in a combination.
const None = "none"

// IPP groups the projects offered by one independent power producer.
type IPP struct {
	Name   string
	OACost float64

	Solar []model.TechnologyProfile
	Wind  []model.TechnologyProfile
	ESS   []model.StorageSpec
}

// Plan is the batch input. Base carries the shared series and scalars;
// its Solar, Wind and Storage fields are ignored and filled per combination.
type Plan struct {
	Base     model.ParameterSet
	IPPs     []IPP
	Options  formulation.Options
	TwoStage bool
}

// Combination is one point of the Cartesian product.
type Combination struct {
	IPP    string
	Solar  string
	Wind   string
	ESS    string
	OACost float64

	Params *model.ParameterSet
}

// Name joins the four choices, e.g. "ipp-a/solar-1/none/ess-2".
func (c Combination) Name() string {
	return strings.Join([]string{c.IPP, c.Solar, c.Wind, c.ESS}, "/")
}

// Combinations expands the plan. A technology family with no projects
// contributes a single "none" choice; combinations without any renewable
// are skipped. Order is IPP, then solar, wind and ESS in declaration order.
func Combinations(plan Plan) []Combination {
	var out []Combination
	for _, ipp := range plan.IPPs {
		solars := profileChoices(ipp.Solar)
		winds := profileChoices(ipp.Wind)
		esss := storageChoices(ipp.ESS)
		for _, s := range solars {
			for _, w := range winds {
				if s == nil && w == nil {
					continue
				}
				for _, e := range esss {
					p := plan.Base
					p.Solar, p.Wind, p.Storage = s, w, e
					out = append(out, Combination{
						IPP:    ipp.Name,
						Solar:  profileName(s),
						Wind:   profileName(w),
						ESS:    storageName(e),
						OACost: ipp.OACost,
						Params: &p,
					})
				}
			}
		}
	}
	return out
}

func profileChoices(ps []model.TechnologyProfile) []*model.TechnologyProfile {
	if len(ps) == 0 {
		return []*model.TechnologyProfile{nil}
	}
	out := make([]*model.TechnologyProfile, len(ps))
	for i := range ps {
		cp := ps[i]
		out[i] = &cp
	}
	return out
}

func storageChoices(ss []model.StorageSpec) []*model.StorageSpec {
	if len(ss) == 0 {
		return []*model.StorageSpec{nil}
	}
	out := make([]*model.StorageSpec, len(ss))
	for i := range ss {
		cp := ss[i]
		out[i] = &cp
	}
	return out
}

func profileName(p *model.TechnologyProfile) string {
	if p == nil {
		return None
	}
	if p.Name == "" {
		return "unnamed"
	}
	return p.Name
}

func storageName(s *model.StorageSpec) string {
	if s == nil {
		return None
	}
	if s.Name == "" {
		return "unnamed"
	}
	return s.Name
}

// Validate checks the plan shape; per-combination data is validated when
// each combination runs.
func (p Plan) Validate() error {
	seen := map[string]bool{}
	for i, ipp := range p.IPPs {
		if ipp.Name == "" {
			return fmt.Errorf("ipps[%d]: name is required", i)
		}
		if seen[ipp.Name] {
			return fmt.Errorf("ipps[%d]: duplicate name %q", i, ipp.Name)
		}
		seen[ipp.Name] = true
		if ipp.OACost < 0 {
			return fmt.Errorf("ipps[%d] %s: oa_cost must be >= 0", i, ipp.Name)
		}
	}
	return nil
}
