package optimize

import "github.com/msageha/conductor/internal/model"

// Priority bonuses. Critical-path nodes (at or above the cost threshold,
// required or not) are boosted hardest; merely required nodes get a smaller
// boost; everything else is discounted proportionally to its own cost so
// cheap optional work still schedules ahead of expensive optional work.
const (
	criticalPathBonus = 1.5
	requiredBonus     = 1.2
	basePriority      = 1.0
)

// NodePriority is one node's computed scheduling weight.
type NodePriority struct {
	NodeID   string
	Priority float64
	Critical bool
}

// AssignPriorities computes scheduling priority for every node. Priorities
// only bias ordering; they never change what is executable.
func AssignPriorities(nodes []model.Node, costThreshold float64) []NodePriority {
	maxCost := 0.0
	for _, n := range nodes {
		if n.CostEstimate > maxCost {
			maxCost = n.CostEstimate
		}
	}

	out := make([]NodePriority, 0, len(nodes))
	for _, n := range nodes {
		p := NodePriority{NodeID: n.ID, Priority: basePriority}
		switch {
		case n.CostEstimate >= costThreshold:
			p.Priority *= criticalPathBonus
			p.Critical = true
		case n.Required:
			p.Priority *= requiredBonus
		default:
			if maxCost > 0 {
				p.Priority *= 1.0 - 0.5*(n.CostEstimate/maxCost)
			}
		}
		out = append(out, p)
	}
	return out
}

// Stage names of the fixed budget phases.
var Stages = []string{"requirements", "build", "verify", "govern"}

// SplitBudget divides the total run budget across the fixed phases by the
// configured weights. Weights are taken as given, without checking that
// they sum to 1.0, and stages without a weight get zero.
func SplitBudget(total float64, weights map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(Stages))
	for _, stage := range Stages {
		out[stage] = total * weights[stage]
	}
	return out
}
