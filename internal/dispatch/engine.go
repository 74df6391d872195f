// Package dispatch runs one technology-mix combination end to end: optional
// daily sizing, model assembly, solve and extraction of the solved dispatch.
package dispatch

import (
	"context"
	"fmt"
	"math"
	"time"

	"golang.org/x/exp/slog"

	"hybrid-dispatch/internal/formulation"
	"hybrid-dispatch/internal/model"
	"hybrid-dispatch/internal/sizing"
	"hybrid-dispatch/internal/solver"
)

// Request describes one combination to evaluate.
type Request struct {
	Name    string
	Params  *model.ParameterSet
	Options formulation.Options

	// TwoStage runs the daily sizing stage first and couples its output
	// into the hourly model. It has no effect without storage.
	TwoStage bool

	// OACost is the open-access charge per MWh served, added when ranking.
	OACost float64
}

// Result is the outcome of one combination. Ledger and Summary are only
// filled when Status is optimal.
type Result struct {
	Name     string
	Status   solver.Status
	Reason   string
	Mix      formulation.Mix
	Features []formulation.Feature

	Summary Summary
	Ledger  []LedgerRow
	Daily   *sizing.Result

	Diagnostics []formulation.Record
}

// Optimal reports whether the combination solved to optimality.
func (r *Result) Optimal() bool { return r.Status == solver.StatusOptimal }

// Engine wires the stages together. The zero value is not usable; use New.
type Engine struct {
	Solver    solver.Solver
	Artifacts ArtifactSink
	Sink      formulation.Sink
	Logger    *slog.Logger

	// Timeout bounds each solve; zero means no limit beyond the caller's context.
	Timeout time.Duration
}

func New(s solver.Solver) *Engine {
	return &Engine{
		Solver:    s,
		Artifacts: NopArtifacts{},
		Sink:      formulation.NopSink{},
		Logger:    slog.Default(),
	}
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

// Run evaluates one combination. Invalid input returns an error before any
// variable is declared; solver failures come back as a Result with a
// non-optimal Status.
func (e *Engine) Run(ctx context.Context, req Request) (*Result, error) {
	if req.Params == nil {
		return nil, fmt.Errorf("%s: parameter set is nil", req.Name)
	}
	if err := req.Params.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", req.Name, err)
	}
	logger := e.logger().With("combination", req.Name)

	opts := req.Options
	res := &Result{Name: req.Name}
	if req.TwoStage {
		daily, err := e.sizeDaily(req, logger)
		if err != nil {
			return nil, fmt.Errorf("%s: daily sizing: %w", req.Name, err)
		}
		if daily != nil {
			opts.Daily = daily
			res.Daily = daily
			logger.Debug("daily sizing done", "days", len(daily.Days),
				"max_required_capacity_mwh", daily.MaxRequiredCapacityMWh())
		}
	}

	recorder := &formulation.Recorder{}
	var sink formulation.Sink = recorder
	if e.Sink != nil {
		sink = formulation.Tee(e.Sink, recorder)
	}
	inst, err := formulation.Build(req.Params, opts, sink)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", req.Name, err)
	}
	res.Mix = inst.Mix
	res.Features = inst.Features.List()
	res.Diagnostics = recorder.Records
	logger.Debug("model assembled", "mix", inst.Mix.String(),
		"vars", inst.Model.NumVars(), "constraints", inst.Model.NumConstraints())

	solveCtx := ctx
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		solveCtx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}
	sol, err := e.Solver.Solve(solveCtx, inst.Model)
	if err != nil {
		return nil, fmt.Errorf("%s: solve: %w", req.Name, err)
	}
	res.Status = sol.Status
	if sol.Status != solver.StatusOptimal {
		if sol.Err != nil {
			res.Reason = sol.Err.Error()
		}
		logger.Info("combination not solved", "status", string(sol.Status), "reason", res.Reason)
		return res, nil
	}

	res.Ledger, res.Summary = extract(inst, sol, req.Params, req.OACost)
	logger.Info("combination solved", "objective", sol.Objective, "cost_per_unit", res.Summary.CostPerUnit)
	return res, nil
}

// sizeDaily is the two-stage coupler's first half: estimate, then persist
// the table for audit before it constrains the hourly model.
func (e *Engine) sizeDaily(req Request, logger *slog.Logger) (*sizing.Result, error) {
	if !req.Params.HasStorage() {
		logger.Info("two-stage requested without storage; running single-stage")
		return nil, nil
	}
	in, err := sizing.InputFromParams(req.Params)
	if err != nil {
		return nil, err
	}
	daily, err := sizing.Estimate(in)
	if err != nil {
		return nil, err
	}
	if e.Artifacts != nil {
		if err := e.Artifacts.WriteDaily(req.Name, daily); err != nil {
			return nil, fmt.Errorf("write daily artifact: %w", err)
		}
	}
	return daily, nil
}

func extract(inst *formulation.Instance, sol *solver.Solution, p *model.ParameterSet, oaCost float64) ([]LedgerRow, Summary) {
	n := inst.Network
	reg := inst.Registry
	peak := p.PeakMask()

	var sum Summary
	sum.Objective = sol.Objective
	sum.OACost = oaCost

	series := func(tech model.Technology) (dispatch, curt []float64) {
		if g, ok := n.Generator(tech); ok {
			dispatch = sol.Series(g.Dispatch)
			switch tech {
			case model.Solar:
				sum.SolarCapacityMW = sol.Value(g.Nameplate)
			case model.Wind:
				sum.WindCapacityMW = sol.Value(g.Nameplate)
			}
			for t := range dispatch {
				sum.PotentialMWh += sol.Value(g.Nameplate) * g.Profile.PerUnit[t]
			}
		}
		if c, ok := reg.CurtailmentOf(tech); ok {
			curt = sol.Series(c)
		}
		return dispatch, curt
	}
	solar, solarCurt := series(model.Solar)
	wind, windCurt := series(model.Wind)
	unmet := sol.Series(n.Unmet)
	cost := sol.Series(reg.FinalCost)

	var store, disp, soc []float64
	if s := n.Storage; s != nil {
		store = sol.Series(s.Store)
		disp = sol.Series(s.Dispatch)
		soc = sol.Series(s.SOC)
		sum.StorageCapacityMW = sol.Value(s.Nameplate)
	}

	at := func(xs []float64, t int) float64 {
		if xs == nil {
			return 0
		}
		return xs[t]
	}

	ledger := make([]LedgerRow, len(p.Snapshots))
	for t, ts := range p.Snapshots {
		row := LedgerRow{
			Index:              t,
			Snapshot:           ts,
			Peak:               peak[t],
			DemandMW:           p.Demand[t],
			SolarMW:            at(solar, t),
			WindMW:             at(wind, t),
			UnmetMW:            at(unmet, t),
			SolarCurtailmentMW: at(solarCurt, t),
			WindCurtailmentMW:  at(windCurt, t),
			CurtailmentCost:    at(cost, t),
			StoreMW:            at(store, t),
			DispatchMW:         at(disp, t),
			SOCMWh:             at(soc, t),
		}
		row.Action = model.ActionFromFlows(row.StoreMW, row.DispatchMW)
		ledger[t] = row

		sum.DemandMWh += row.DemandMW
		sum.UnmetMWh += row.UnmetMW
		sum.CurtailedMWh += row.SolarCurtailmentMW + row.WindCurtailmentMW
		sum.CurtailmentCost += row.CurtailmentCost
		sum.BatteryChargeMWh += row.StoreMW
		sum.BatteryDischargeMWh += row.DispatchMW
		if row.Peak {
			sum.PeakDemandMWh += row.DemandMW
			sum.PeakUnmetMWh += row.UnmetMW
		}
	}
	sum.ServedMWh = sum.DemandMWh - sum.UnmetMWh
	if sum.PeakDemandMWh > 0 {
		sum.PeakServiceRatio = 1 - sum.PeakUnmetMWh/sum.PeakDemandMWh
	}
	sum.CostPerUnit = CostPerUnit(sum.Objective, sum.ServedMWh, oaCost)
	return ledger, sum
}

// CostPerUnit is (objective + OA cost x served) / served; +Inf when nothing
// is served.
func CostPerUnit(objective, servedMWh, oaCost float64) float64 {
	if servedMWh <= 0 {
		return math.Inf(1)
	}
	return (objective + oaCost*servedMWh) / servedMWh
}
