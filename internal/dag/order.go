package dag

import (
	"sort"

	"github.com/msageha/conductor/internal/model"
)

// ExecutableOrder returns the ids of nodes that can be dispatched, in
// topological order. Terminal nodes count as resolved and release their
// dependents; running nodes still block theirs. A pending node whose
// condition evaluates false against the given signals is dropped from the
// result but still counts as resolved for its dependents; a gated-out node
// must never strand downstream work.
//
// Ties are broken by the stored reorder preference, then insertion order.
// The method does not mutate the graph: for a fixed signal map and an
// unmutated graph it is idempotent.
func (g *Graph) ExecutableOrder(signals model.Signals) []string {
	resolved := make(map[string]bool)
	blocked := make(map[string]bool) // running nodes: neither resolved nor schedulable
	var open []string
	for id, n := range g.nodes {
		switch {
		case model.IsNodeTerminal(n.Status):
			resolved[id] = true
		case n.Status == model.NodeStatusRunning:
			blocked[id] = true
		default:
			open = append(open, id)
		}
	}

	inDegree := make(map[string]int, len(open))
	forward := make(map[string][]string)
	for _, id := range open {
		inDegree[id] = 0
	}
	for e := range g.edges {
		if resolved[e.From] {
			continue
		}
		if _, isOpen := inDegree[e.To]; !isOpen {
			continue
		}
		inDegree[e.To]++
		forward[e.From] = append(forward[e.From], e.To)
	}

	less := func(a, b string) bool {
		ra, oka := g.reorder[a]
		rb, okb := g.reorder[b]
		if oka && okb && ra != rb {
			return ra < rb
		}
		if oka != okb {
			return oka // preferenced nodes ahead of unpreferenced
		}
		return g.insertion[a] < g.insertion[b]
	}

	var queue []string
	for _, id := range open {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}
	sort.Slice(queue, func(i, j int) bool { return less(queue[i], queue[j]) })

	var order []string
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		n := g.nodes[id]
		if n.Condition == nil || n.Condition.Evaluate(signals) {
			order = append(order, id)
		}
		// Either way the node counts as resolved for its dependents.
		for _, dependent := range forward[id] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
		sort.Slice(queue, func(i, j int) bool { return less(queue[i], queue[j]) })
	}
	return order
}
