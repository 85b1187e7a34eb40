package dag

import (
	"fmt"
	"time"

	"github.com/msageha/conductor/internal/model"
)

// TakeSnapshot captures an immutable copy of the node/edge set and returns
// the snapshot id. Snapshots accumulate for the run's lifetime.
func (g *Graph) TakeSnapshot() string {
	snap := model.Snapshot{
		ID:      model.NewID(model.IDTypeSnapshot),
		TakenAt: time.Now().UTC().Format(time.RFC3339Nano),
		Hash:    g.ContentHash(),
		Nodes:   g.Nodes(),
		Edges:   g.Edges(),
	}
	g.snapshots[snap.ID] = snap
	g.snapOrder = append(g.snapOrder, snap.ID)
	return snap.ID
}

// Snapshots returns all snapshots in the order they were taken.
func (g *Graph) Snapshots() []model.Snapshot {
	out := make([]model.Snapshot, 0, len(g.snapOrder))
	for _, id := range g.snapOrder {
		out = append(out, g.snapshots[id])
	}
	return out
}

// RollbackToSnapshot restores the node/edge set from a stored snapshot.
// The restored state reproduces the snapshot's content hash exactly,
// regardless of how many mutations happened in between. The rollback itself
// is logged as a new, non-reversible mutation; the mutation log and snapshot
// store are append-only and survive the rollback.
func (g *Graph) RollbackToSnapshot(id string) error {
	snap, ok := g.snapshots[id]
	if !ok {
		return fmt.Errorf("unknown snapshot %q", id)
	}

	before := g.ContentHash()
	g.nodes = make(map[string]*model.Node, len(snap.Nodes))
	g.insertion = make(map[string]int, len(snap.Nodes))
	g.reorder = make(map[string]int)
	g.nextSeq = 0
	for _, n := range snap.Nodes {
		node := n
		node.DependsOn = append([]string(nil), n.DependsOn...)
		if n.Condition != nil {
			cond := *n.Condition
			node.Condition = &cond
		}
		g.insert(&node)
	}
	g.edges = make(map[model.Edge]bool, len(snap.Edges))
	for _, e := range snap.Edges {
		g.edges[e] = true
	}

	g.record(model.MutationRollback, fmt.Sprintf("rollback to snapshot %s", id), before, false, map[string]any{
		"snapshot_id":   id,
		"snapshot_hash": snap.Hash,
	})
	return nil
}
