package network

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hybrid-dispatch/internal/lp"
	"hybrid-dispatch/internal/model"
)

func params() *model.ParameterSet {
	start := time.Date(2022, 1, 1, 10, 0, 0, 0, time.UTC)
	return &model.ParameterSet{
		Snapshots: []time.Time{start, start.Add(time.Hour)},
		Demand:    []float64{10, 12},
		Solar: &model.TechnologyProfile{
			PerUnit:       []float64{0.5, 0.8},
			MaxCapacityMW: 50,
			CapitalCost:   100,
			MarginalCost:  2,
		},
		Storage: &model.StorageSpec{
			CapitalCost:        300,
			MarginalCost:       1,
			StoreEfficiency:    0.9,
			DispatchEfficiency: 0.8,
			MaxHours:           4,
		},
		UnmetDemandCost: 1000,
	}
}

func TestRegisterDeclaresFamilies(t *testing.T) {
	b := lp.NewBuilder()
	n := Register(b, params())
	m := b.Build()

	assert.Equal(t, []string{"2022-01-01T10:00", "2022-01-01T11:00"}, n.Labels)
	g, ok := n.Generator(model.Solar)
	require.True(t, ok)
	_, ok = n.Generator(model.Wind)
	assert.False(t, ok)

	assert.Equal(t, "Generator-p_nom[Solar]", m.Var(g.Nameplate).Name)
	assert.Equal(t, 50.0, m.Var(g.Nameplate).Upper)
	assert.Equal(t, "Generator-p[Unmet_Demand][2022-01-01T11:00]", m.Var(n.Unmet.At(1)).Name)
	assert.Equal(t, 12.0, m.Var(n.Unmet.At(0)).Upper)

	require.NotNil(t, n.Storage)
	assert.Equal(t, "StorageUnit-state_of_charge[Battery][2022-01-01T10:00]", m.Var(n.Storage.SOC.At(0)).Name)

	assert.Equal(t, []string{
		"generator_availability_Solar",
		"storage_store_limit",
		"storage_dispatch_limit",
		"storage_soc_limit",
		"storage_soc_balance",
		"bus_energy_balance",
	}, m.Groups())
}

func TestRegisterBusBalance(t *testing.T) {
	b := lp.NewBuilder()
	n := Register(b, params())
	m := b.Build()

	c, ok := m.Constraint("bus_energy_balance[2022-01-01T11:00]")
	require.True(t, ok)
	assert.Equal(t, lp.Equal, c.Sense)
	assert.Equal(t, 12.0, c.RHS)

	coef := map[lp.Var]float64{}
	for _, term := range c.Terms {
		coef[term.Var] = term.Coef
	}
	g, _ := n.Generator(model.Solar)
	assert.Equal(t, 1.0, coef[g.Dispatch.At(1)])
	assert.Equal(t, 1.0, coef[n.Unmet.At(1)])
	assert.Equal(t, 1.0, coef[n.Storage.Dispatch.At(1)])
	assert.Equal(t, -1.0, coef[n.Storage.Store.At(1)])
}

func TestRegisterSOCDynamics(t *testing.T) {
	b := lp.NewBuilder()
	n := Register(b, params())
	m := b.Build()
	s := n.Storage

	first, ok := m.Constraint("storage_soc_balance[2022-01-01T10:00]")
	require.True(t, ok)
	assert.Len(t, first.Terms, 3, "first snapshot starts from an empty battery")

	second, _ := m.Constraint("storage_soc_balance[2022-01-01T11:00]")
	coef := map[lp.Var]float64{}
	for _, term := range second.Terms {
		coef[term.Var] = term.Coef
	}
	assert.Equal(t, 1.0, coef[s.SOC.At(1)])
	assert.Equal(t, -1.0, coef[s.SOC.At(0)])
	assert.InDelta(t, -0.9, coef[s.Store.At(1)], 1e-12)
	assert.InDelta(t, 1.25, coef[s.Dispatch.At(1)], 1e-12)

	lim, _ := m.Constraint("storage_soc_limit[2022-01-01T10:00]")
	for _, term := range lim.Terms {
		if term.Var == s.Nameplate {
			assert.Equal(t, -4.0, term.Coef)
		}
	}
}

func TestRegisterObjective(t *testing.T) {
	b := lp.NewBuilder()
	n := Register(b, params())
	m := b.Build()

	terms, _ := m.Objective()
	coef := map[lp.Var]float64{}
	for _, term := range terms {
		coef[term.Var] = term.Coef
	}
	g, _ := n.Generator(model.Solar)
	assert.Equal(t, 100.0, coef[g.Nameplate])
	assert.Equal(t, 2.0, coef[g.Dispatch.At(0)])
	assert.Equal(t, 1000.0, coef[n.Unmet.At(1)])
	assert.Equal(t, 300.0, coef[n.Storage.Nameplate])
	assert.Equal(t, 1.0, coef[n.Storage.Dispatch.At(0)])
}

func TestRegisterWithoutStorage(t *testing.T) {
	p := params()
	p.Storage = nil
	b := lp.NewBuilder()
	n := Register(b, p)
	m := b.Build()

	assert.Nil(t, n.Storage)
	assert.False(t, m.HasGroup("storage_soc_balance"))
	c, _ := m.Constraint("bus_energy_balance[2022-01-01T10:00]")
	assert.Len(t, c.Terms, 2)
}

func TestGeneratorPotential(t *testing.T) {
	b := lp.NewBuilder()
	n := Register(b, params())
	g, _ := n.Generator(model.Solar)

	assert.Equal(t, 0.8, g.Potential(1).Coef(g.Nameplate))
	assert.InDelta(t, 1.3, g.TotalPotential().Coef(g.Nameplate), 1e-12)
}
