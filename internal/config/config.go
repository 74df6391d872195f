package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"hybrid-dispatch/internal/model"
)

// Config is the on-disk configuration shape (YAML).
type Config struct {
	Name string `yaml:"name"`

	Demand SeriesSource `yaml:"demand"`

	// TenureYears repeats one-year demand and profiles over the contract
	// tenure; each project's Degradation scales later years.
	TenureYears int `yaml:"tenure_years"`

	PeakHours  string   `yaml:"peak_hours"`
	PeakTarget *float64 `yaml:"peak_target"`

	SellCurtailmentFraction float64  `yaml:"sell_curtailment_fraction"`
	CurtailmentSellPrice    float64  `yaml:"curtailment_sell_price"`
	AnnualCurtailmentLimit  *float64 `yaml:"annual_curtailment_limit"`
	UnmetDemandCost         float64  `yaml:"unmet_demand_cost"`

	TwoStage bool          `yaml:"two_stage"`
	Options  OptionsConfig `yaml:"options"`

	IPPs []IPPConfig `yaml:"ipps"`

	dir string
}

// SeriesSource points at one column of a CSV file.
type SeriesSource struct {
	File       string `yaml:"file"`
	TimeColumn string `yaml:"time_column"`
	Column     string `yaml:"column"`
}

type OptionsConfig struct {
	StrictDoD      bool     `yaml:"strict_dod"`
	PPACapacityMW  *float64 `yaml:"ppa_capacity_mw"`
	ConnectivityMW *float64 `yaml:"connectivity_mw"`
	SOCCycleLower  float64  `yaml:"soc_cycle_lower"`
	SOCCycleUpper  float64  `yaml:"soc_cycle_upper"`
}

type IPPConfig struct {
	Name   string          `yaml:"name"`
	OACost *float64        `yaml:"oa_cost"`
	Solar  []ProjectConfig `yaml:"solar"`
	Wind   []ProjectConfig `yaml:"wind"`
	ESS    []ESSConfig     `yaml:"ess"`
}

type ProjectConfig struct {
	Name          string       `yaml:"name"`
	Profile       SeriesSource `yaml:"profile"`
	MaxCapacityMW float64      `yaml:"max_capacity_mw"`
	CapitalCost   float64      `yaml:"capital_cost"`
	MarginalCost  float64      `yaml:"marginal_cost"`
	Degradation   float64      `yaml:"degradation"`
}

// ESSConfig describes one storage system. ESSFile loads a base spec from a
// separate YAML; explicit fields here override it.
type ESSConfig struct {
	ESSFile            string   `yaml:"ess_file"`
	Name               string   `yaml:"name"`
	CapitalCost        float64  `yaml:"capital_cost"`
	MarginalCost       float64  `yaml:"marginal_cost"`
	StoreEfficiency    float64  `yaml:"store_efficiency"`
	DispatchEfficiency float64  `yaml:"dispatch_efficiency"`
	DoD                float64  `yaml:"dod"`
	MaxEnergyCapacity  *float64 `yaml:"max_energy_capacity"`
	MaxHours           float64  `yaml:"max_hours"`
}

// Defaults applied by Load when a field is left out.
const (
	DefaultOACost                  = 1000.0
	DefaultCurtailmentSellPrice    = 3000.0
	DefaultSellCurtailmentFraction = 0.5
	DefaultTimeColumn              = "timestamp"
	DefaultDemandColumn            = "demand_mw"
	DefaultProfileColumn           = "per_unit"
)

func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads and merges config, but does not validate it.
// Useful for debugging/printing partial configs.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	c.dir = filepath.Dir(path)

	for i := range c.IPPs {
		for j, ess := range c.IPPs[i].ESS {
			if ess.ESSFile == "" {
				continue
			}
			loaded, err := LoadESSFile(c.Resolve(ess.ESSFile))
			if err != nil {
				return nil, fmt.Errorf("ipps[%d].ess[%d]: %w", i, j, err)
			}
			c.IPPs[i].ESS[j] = MergeStorage(loaded, ess)
		}
	}
	return &c, nil
}

// Resolve interprets relative paths against the config file directory,
// falling back to the path as given (relative to cwd) if that doesn't exist.
func (c *Config) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || c.dir == "" {
		return path
	}
	cand := filepath.Join(c.dir, path)
	if _, err := os.Stat(cand); err == nil {
		return cand
	}
	return path
}

// ApplyDefaults fills the commercial defaults used when a field is omitted.
func (c *Config) ApplyDefaults() {
	if c.TenureYears == 0 {
		c.TenureYears = 1
	}
	if c.SellCurtailmentFraction == 0 {
		c.SellCurtailmentFraction = DefaultSellCurtailmentFraction
	}
	if c.CurtailmentSellPrice == 0 {
		c.CurtailmentSellPrice = DefaultCurtailmentSellPrice
	}
	if c.UnmetDemandCost == 0 {
		c.UnmetDemandCost = model.DefaultUnmetDemandCost
	}
	if c.Demand.TimeColumn == "" {
		c.Demand.TimeColumn = DefaultTimeColumn
	}
	if c.Demand.Column == "" {
		c.Demand.Column = DefaultDemandColumn
	}
	for i := range c.IPPs {
		ipp := &c.IPPs[i]
		if ipp.OACost == nil {
			ipp.OACost = model.Float(DefaultOACost)
		}
		for _, projects := range [][]ProjectConfig{ipp.Solar, ipp.Wind} {
			for j := range projects {
				if projects[j].Profile.Column == "" {
					projects[j].Profile.Column = DefaultProfileColumn
				}
			}
		}
		for j := range ipp.ESS {
			if ipp.ESS[j].MaxHours == 0 {
				ipp.ESS[j].MaxHours = model.DefaultMaxHours
			}
		}
	}
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Demand.File == "" {
		return errors.New("demand.file is required")
	}
	if c.TenureYears < 1 {
		return fmt.Errorf("tenure_years must be >= 1, got %d", c.TenureYears)
	}
	if c.PeakHours != "" {
		if _, err := model.ParsePeakHours(c.PeakHours); err != nil {
			return fmt.Errorf("peak_hours: %w", err)
		}
	}
	if len(c.IPPs) == 0 {
		return errors.New("at least one ipp is required")
	}
	for i, ipp := range c.IPPs {
		if ipp.Name == "" {
			return fmt.Errorf("ipps[%d].name is required", i)
		}
		for j, p := range append(append([]ProjectConfig{}, ipp.Solar...), ipp.Wind...) {
			if p.Profile.File == "" {
				return fmt.Errorf("ipps[%d] %s: project %d (%s) needs profile.file", i, ipp.Name, j, p.Name)
			}
			if p.Degradation < 0 || p.Degradation >= 1 {
				return fmt.Errorf("ipps[%d] %s: project %s degradation must be in [0, 1)", i, ipp.Name, p.Name)
			}
		}
		for j, e := range ipp.ESS {
			spec := e.ToModel()
			if err := spec.Validate(); err != nil {
				return fmt.Errorf("ipps[%d].ess[%d] invalid: %w", i, j, err)
			}
		}
	}
	return nil
}

func (e ESSConfig) ToModel() model.StorageSpec {
	return model.StorageSpec{
		Name:               e.Name,
		CapitalCost:        e.CapitalCost,
		MarginalCost:       e.MarginalCost,
		StoreEfficiency:    e.StoreEfficiency,
		DispatchEfficiency: e.DispatchEfficiency,
		DoD:                e.DoD,
		MaxEnergyCapacity:  e.MaxEnergyCapacity,
		MaxHours:           e.MaxHours,
	}
}

type essFileWrapper struct {
	ESS ESSConfig `yaml:"ess"`
}

// LoadESSFile reads a YAML document of the form "ess: {...}".
func LoadESSFile(path string) (ESSConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return ESSConfig{}, err
	}
	var w essFileWrapper
	if err := yaml.Unmarshal(raw, &w); err != nil {
		return ESSConfig{}, fmt.Errorf("%s: %w", path, err)
	}
	return w.ESS, nil
}

// MergeStorage overlays non-zero fields from override onto base.
func MergeStorage(base, override ESSConfig) ESSConfig {
	out := base
	out.ESSFile = override.ESSFile
	if override.Name != "" {
		out.Name = override.Name
	}
	if override.CapitalCost != 0 {
		out.CapitalCost = override.CapitalCost
	}
	if override.MarginalCost != 0 {
		out.MarginalCost = override.MarginalCost
	}
	if override.StoreEfficiency != 0 {
		out.StoreEfficiency = override.StoreEfficiency
	}
	if override.DispatchEfficiency != 0 {
		out.DispatchEfficiency = override.DispatchEfficiency
	}
	// DoD of 0 is valid but indistinguishable from unset here.
	if override.DoD != 0 {
		out.DoD = override.DoD
	}
	if override.MaxEnergyCapacity != nil {
		out.MaxEnergyCapacity = override.MaxEnergyCapacity
	}
	if override.MaxHours != 0 {
		out.MaxHours = override.MaxHours
	}
	return out
}
