package dag

import (
	"fmt"
	"sort"

	"github.com/msageha/conductor/internal/model"
)

// InjectNode inserts a node directly after the anchor: every edge leaving the
// anchor is transplanted onto the new node, so downstream dependents keep
// their exact in-degree. An unknown anchor is a recoverable no-op since
// racing replans may reference just-removed nodes.
func (g *Graph) InjectNode(n model.Node, afterID, reason string) error {
	if _, ok := g.nodes[afterID]; !ok {
		return nil
	}
	if _, exists := g.nodes[n.ID]; exists {
		return fmt.Errorf("node %q already exists", n.ID)
	}

	before := g.ContentHash()
	if n.Status == "" {
		n.Status = model.NodeStatusPending
	}
	n.Injected = true
	g.insert(&n)

	var transplanted []string
	for e := range g.edges {
		if e.From == afterID && e.To != n.ID {
			delete(g.edges, e)
			g.edges[model.Edge{From: n.ID, To: e.To}] = true
			transplanted = append(transplanted, e.To)
		}
	}
	sort.Strings(transplanted)
	g.edges[model.Edge{From: afterID, To: n.ID}] = true

	g.record(model.MutationInject, reason, before, true, map[string]any{
		"node_id":      n.ID,
		"after":        afterID,
		"transplanted": transplanted,
	})
	return nil
}

// RemoveNode deletes a node, bridging every (incoming, outgoing) edge pair
// directly so dependents are never stranded. Unknown ids are recoverable
// no-ops.
func (g *Graph) RemoveNode(id, reason string) error {
	if _, ok := g.nodes[id]; !ok {
		return nil
	}

	before := g.ContentHash()
	var incoming, outgoing []string
	for e := range g.edges {
		if e.To == id {
			incoming = append(incoming, e.From)
		}
		if e.From == id {
			outgoing = append(outgoing, e.To)
		}
	}
	for e := range g.edges {
		if e.From == id || e.To == id {
			delete(g.edges, e)
		}
	}
	for _, p := range incoming {
		for _, q := range outgoing {
			if p != q {
				g.edges[model.Edge{From: p, To: q}] = true
			}
		}
	}
	delete(g.nodes, id)
	delete(g.insertion, id)
	delete(g.reorder, id)

	sort.Strings(incoming)
	sort.Strings(outgoing)
	g.record(model.MutationRemove, reason, before, false, map[string]any{
		"node_id":  id,
		"bridged":  len(incoming) * len(outgoing),
		"incoming": incoming,
		"outgoing": outgoing,
	})
	return nil
}

// SkipNode marks a node skipped without touching its edges: it drops out of
// the executable order but stays in the audit graph. Unknown ids and nodes
// already terminal are recoverable no-ops.
func (g *Graph) SkipNode(id, reason string) error {
	n, ok := g.nodes[id]
	if !ok {
		return nil
	}
	if err := model.ValidateNodeTransition(n.Status, model.NodeStatusSkipped); err != nil {
		return nil
	}

	before := g.ContentHash()
	n.Status = model.NodeStatusSkipped
	n.SkipReason = reason
	g.record(model.MutationSkip, reason, before, false, map[string]any{
		"node_id": id,
	})
	return nil
}

// MergeNodes collapses the given nodes into merged: every edge between a
// member and the outside world is redirected onto merged, members become
// status=merged. Ids not present are silently dropped from the set. A merge
// whose redirected edges would close a cycle fails with *GraphError and
// changes nothing.
func (g *Graph) MergeNodes(ids []string, merged model.Node, reason string) error {
	members := make(map[string]bool)
	for _, id := range ids {
		if n, ok := g.nodes[id]; ok && !model.IsNodeTerminal(n.Status) {
			members[id] = true
		}
	}
	if len(members) == 0 {
		return nil
	}
	if _, exists := g.nodes[merged.ID]; exists {
		return fmt.Errorf("node %q already exists", merged.ID)
	}

	// Build the post-merge edge set first and check it before committing.
	next := make(map[model.Edge]bool, len(g.edges))
	for e := range g.edges {
		from, to := e.From, e.To
		if members[from] {
			from = merged.ID
		}
		if members[to] {
			to = merged.ID
		}
		if from == to {
			continue // edges internal to the merged set collapse away
		}
		next[model.Edge{From: from, To: to}] = true
	}

	ids2 := append(g.nodeIDs(), merged.ID)
	deps := make(map[string][]string)
	for e := range next {
		deps[e.To] = append(deps[e.To], e.From)
	}
	if _, cycle := toposort(ids2, deps); cycle != nil {
		return &GraphError{Op: "merge_nodes", Cycle: cycle}
	}

	before := g.ContentHash()
	if merged.Status == "" {
		merged.Status = model.NodeStatusPending
	}
	g.insert(&merged)
	g.edges = next
	memberIDs := make([]string, 0, len(members))
	for id := range members {
		n := g.nodes[id]
		n.Status = model.NodeStatusMerged
		n.MergedInto = merged.ID
		memberIDs = append(memberIDs, id)
	}
	sort.Strings(memberIDs)

	g.record(model.MutationMerge, reason, before, false, map[string]any{
		"node_id": merged.ID,
		"sources": memberIDs,
	})
	return nil
}

// ReorderNodes stores a soft tie-break preference for the executable order.
// Edges are untouched, so a reorder can never introduce a cycle. Unknown ids
// are ignored.
func (g *Graph) ReorderNodes(ids []string, reason string) error {
	before := g.ContentHash()
	applied := make([]string, 0, len(ids))
	for rank, id := range ids {
		if _, ok := g.nodes[id]; !ok {
			continue
		}
		g.reorder[id] = rank
		applied = append(applied, id)
	}
	if len(applied) == 0 {
		return nil
	}
	g.record(model.MutationReorder, reason, before, true, map[string]any{
		"order": applied,
	})
	return nil
}

// SetStatus advances a node's execution status. Transitions are validated
// against the monotonic lifecycle; terminal states never reopen.
func (g *Graph) SetStatus(id string, to model.NodeStatus) error {
	n, ok := g.nodes[id]
	if !ok {
		return fmt.Errorf("unknown node %q", id)
	}
	if err := model.ValidateNodeTransition(n.Status, to); err != nil {
		return err
	}
	n.Status = to
	return nil
}
