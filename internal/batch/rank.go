package batch

import (
	"sort"

	"hybrid-dispatch/internal/dispatch"
)

// Outcome is the result of one combination. Err is set when the run could
// not produce a Result (invalid input, cancelled solve).
type Outcome struct {
	Combination Combination
	Result      *dispatch.Result
	Err         error
}

// Feasible reports whether the combination solved to optimality.
func (o Outcome) Feasible() bool {
	return o.Err == nil && o.Result != nil && o.Result.Optimal()
}

// Failure explains why a combination was not ranked.
func (o Outcome) Failure() string {
	switch {
	case o.Err != nil:
		return o.Err.Error()
	case o.Result == nil:
		return "no result"
	case o.Result.Reason != "":
		return string(o.Result.Status) + ": " + o.Result.Reason
	default:
		return string(o.Result.Status)
	}
}

// Rank splits outcomes into feasible ones sorted ascending by cost per unit
// served (ties keep plan order) and the rest in plan order.
func Rank(outcomes []Outcome) (ranked, failed []Outcome) {
	for _, o := range outcomes {
		if o.Feasible() {
			ranked = append(ranked, o)
		} else {
			failed = append(failed, o)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Result.Summary.CostPerUnit < ranked[j].Result.Summary.CostPerUnit
	})
	return ranked, failed
}
