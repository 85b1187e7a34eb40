// Package optimize ranks candidate plans by Pareto dominance and assigns
// scheduling priority along the critical path.
package optimize

import (
	"fmt"
	"sort"
)

// CandidatePath scores one plan under consideration. Candidates are
// optimizer-internal working state, never persisted as a record of truth.
type CandidatePath struct {
	PlanID       string
	ProxySuccess float64 // higher is better
	Cost         float64 // lower is better
	MaxRisk      float64 // lower is better
	Latency      float64 // lower is better
}

// Discard records why a candidate left the frontier. Every discarded
// candidate gets a non-empty reason.
type Discard struct {
	Candidate CandidatePath
	Reason    string
}

// FrontierResult is the surviving Pareto-optimal set plus the audit trail of
// everything pruned on the way.
type FrontierResult struct {
	Frontier  []CandidatePath
	Discarded []Discard
}

// dominates reports whether a is no worse than b on all four objectives and
// strictly better on at least one.
func dominates(a, b CandidatePath) bool {
	noWorse := a.Cost <= b.Cost && a.MaxRisk <= b.MaxRisk && a.Latency <= b.Latency && a.ProxySuccess >= b.ProxySuccess
	better := a.Cost < b.Cost || a.MaxRisk < b.MaxRisk || a.Latency < b.Latency || a.ProxySuccess > b.ProxySuccess
	return noWorse && better
}

// ParetoFrontier prunes dominated candidates and truncates any surplus
// beyond cap by ascending cost. The result preserves the input's relative
// order among survivors, so the computation is deterministic.
func ParetoFrontier(candidates []CandidatePath, cap int) FrontierResult {
	var res FrontierResult

	for i, c := range candidates {
		dominated := false
		for j, other := range candidates {
			if i == j {
				continue
			}
			if dominates(other, c) {
				res.Discarded = append(res.Discarded, Discard{
					Candidate: c,
					Reason:    fmt.Sprintf("dominated by %s", other.PlanID),
				})
				dominated = true
				break
			}
		}
		if !dominated {
			res.Frontier = append(res.Frontier, c)
		}
	}

	if cap > 0 && len(res.Frontier) > cap {
		byCost := append([]CandidatePath(nil), res.Frontier...)
		sort.SliceStable(byCost, func(i, j int) bool { return byCost[i].Cost < byCost[j].Cost })
		keep := make(map[string]bool, cap)
		for _, c := range byCost[:cap] {
			keep[c.PlanID] = true
		}
		var kept []CandidatePath
		for _, c := range res.Frontier {
			if keep[c.PlanID] {
				kept = append(kept, c)
				continue
			}
			res.Discarded = append(res.Discarded, Discard{
				Candidate: c,
				Reason:    fmt.Sprintf("frontier cap %d: truncated by ascending cost", cap),
			})
		}
		res.Frontier = kept
	}
	return res
}
