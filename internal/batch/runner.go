package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"
	"golang.org/x/sync/errgroup"

	"hybrid-dispatch/internal/dispatch"
)

var (
	// ErrNoCombinations means the plan produced nothing to evaluate.
	ErrNoCombinations = errors.New("no technology combinations configured")
	// ErrAllInfeasible means every combination failed to solve.
	ErrAllInfeasible = errors.New("the demand cannot be met by the IPPs")
)

// Report is the ranked outcome of a batch run.
type Report struct {
	ID       string
	Started  time.Time
	Finished time.Time

	Ranked []Outcome
	Failed []Outcome
}

// Best returns the cheapest feasible combination.
func (r *Report) Best() (Outcome, bool) {
	if r == nil || len(r.Ranked) == 0 {
		return Outcome{}, false
	}
	return r.Ranked[0], true
}

// Runner evaluates plans with a dispatch engine.
type Runner struct {
	Engine *dispatch.Engine
	Logger *slog.Logger

	// Parallel bounds concurrent combinations; values below 2 run sequentially.
	Parallel int
}

// Run evaluates every combination of plan. Per-combination failures are
// recorded in the report; the returned error is ErrNoCombinations,
// ErrAllInfeasible (with the report still returned) or a context error.
func (r *Runner) Run(ctx context.Context, plan Plan) (*Report, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	combos := Combinations(plan)
	if len(combos) == 0 {
		return nil, ErrNoCombinations
	}
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	report := &Report{ID: uuid.NewString(), Started: time.Now()}
	logger = logger.With("run_id", report.ID)
	logger.Info("batch started", "combinations", len(combos), "parallel", r.Parallel)

	outcomes := make([]Outcome, len(combos))
	evaluate := func(ctx context.Context, i int) error {
		c := combos[i]
		res, err := r.Engine.Run(ctx, dispatch.Request{
			Name:     c.Name(),
			Params:   c.Params,
			Options:  plan.Options,
			TwoStage: plan.TwoStage,
			OACost:   c.OACost,
		})
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		outcomes[i] = Outcome{Combination: c, Result: res, Err: err}
		if err != nil {
			logger.Warn("combination failed", "combination", c.Name(), "error", err)
		}
		return nil
	}

	if r.Parallel < 2 {
		for i := range combos {
			if err := evaluate(ctx, i); err != nil {
				return nil, err
			}
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.Parallel)
		for i := range combos {
			i := i
			g.Go(func() error { return evaluate(gctx, i) })
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	report.Ranked, report.Failed = Rank(outcomes)
	report.Finished = time.Now()
	logger.Info("batch finished", "ranked", len(report.Ranked), "failed", len(report.Failed),
		"elapsed", report.Finished.Sub(report.Started).String())
	if len(report.Ranked) == 0 {
		return report, fmt.Errorf("%d combinations evaluated: %w", len(combos), ErrAllInfeasible)
	}
	return report, nil
}
