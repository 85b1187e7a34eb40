// Package dag owns a run's node/edge state and every structural edit made to
// it. Each edit is appended to a hashed, append-only mutation log so the
// graph's evolution can be replayed and verified after the run.
package dag

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/gowebpki/jcs"

	"github.com/msageha/conductor/internal/model"
)

// Graph is one run's dependency graph. A graph is exclusively owned by its
// run and driven from a single goroutine; it does no internal locking.
type Graph struct {
	nodes     map[string]*model.Node
	edges     map[model.Edge]bool
	insertion map[string]int // node id → insertion sequence, order tie-break
	nextSeq   int
	reorder   map[string]int // node id → soft preference rank
	mutations []model.MutationRecord
	snapshots map[string]model.Snapshot
	snapOrder []string
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes:     make(map[string]*model.Node),
		edges:     make(map[model.Edge]bool),
		insertion: make(map[string]int),
		reorder:   make(map[string]int),
		snapshots: make(map[string]model.Snapshot),
	}
}

// Node returns a copy of the node with the given id.
func (g *Graph) Node(id string) (model.Node, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return model.Node{}, false
	}
	return *n, true
}

// Nodes returns copies of all nodes in insertion order.
func (g *Graph) Nodes() []model.Node {
	ids := g.nodeIDs()
	out := make([]model.Node, 0, len(ids))
	for _, id := range ids {
		out = append(out, *g.nodes[id])
	}
	return out
}

// Edges returns the edge set sorted by (from, to).
func (g *Graph) Edges() []model.Edge {
	out := make([]model.Edge, 0, len(g.edges))
	for e := range g.edges {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].To < out[j].To
	})
	return out
}

// Mutations returns the mutation log, oldest first.
func (g *Graph) Mutations() []model.MutationRecord {
	return append([]model.MutationRecord(nil), g.mutations...)
}

// nodeIDs returns all node ids in insertion order.
func (g *Graph) nodeIDs() []string {
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return g.insertion[ids[i]] < g.insertion[ids[j]]
	})
	return ids
}

// nodeContent is the structural projection of a node that ContentHash
// covers. Execution status and its provenance are excluded: status advances
// happen between logged mutations and must not break the hash chain.
type nodeContent struct {
	ID              string           `json:"id"`
	Step            string           `json:"step"`
	DependsOn       []string         `json:"depends_on,omitempty"`
	Required        bool             `json:"required"`
	CostEstimate    float64          `json:"cost_estimate"`
	LatencyEstimate float64          `json:"latency_estimate_sec"`
	RiskTier        model.RiskTier   `json:"risk_tier"`
	Condition       *model.Condition `json:"condition,omitempty"`
	Injected        bool             `json:"injected,omitempty"`
}

type graphContent struct {
	Nodes []nodeContent `json:"nodes"`
	Edges []model.Edge  `json:"edges"`
}

// ContentHash returns the canonical SHA-256 hash of the current structural
// node/edge set. Canonicalization goes through JCS so the hash is stable
// across field ordering and encoder details.
func (g *Graph) ContentHash() string {
	all := g.Nodes()
	nodes := make([]nodeContent, 0, len(all))
	for _, n := range all {
		nodes = append(nodes, nodeContent{
			ID:              n.ID,
			Step:            n.Step,
			DependsOn:       n.DependsOn,
			Required:        n.Required,
			CostEstimate:    n.CostEstimate,
			LatencyEstimate: n.LatencyEstimate,
			RiskTier:        n.RiskTier,
			Condition:       n.Condition,
			Injected:        n.Injected,
		})
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	raw, err := json.Marshal(graphContent{Nodes: nodes, Edges: g.Edges()})
	if err != nil {
		// model structs marshal without error; keep the signature honest anyway
		return "sha256:" + hex.EncodeToString([]byte(err.Error()))[:16]
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		canonical = raw
	}
	sum := sha256.Sum256(canonical)
	return "sha256:" + hex.EncodeToString(sum[:])
}

// record appends a mutation to the log. The post-hash is computed before the
// method returns, so the log forms a hash chain in wall-clock order.
func (g *Graph) record(mt model.MutationType, trigger string, beforeHash string, reversible bool, detail map[string]any) {
	g.mutations = append(g.mutations, model.MutationRecord{
		ID:         model.NewID(model.IDTypeMutation),
		Type:       mt,
		Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
		Trigger:    trigger,
		Detail:     detail,
		BeforeHash: beforeHash,
		AfterHash:  g.ContentHash(),
		Reversible: reversible,
	})
}

// AddNode inserts a new node. The node's declared dependencies become edges
// for every dependency already present; later AddEdge calls may wire the
// rest. A duplicate id is an error.
func (g *Graph) AddNode(n model.Node, reason string) error {
	if _, exists := g.nodes[n.ID]; exists {
		return fmt.Errorf("node %q already exists", n.ID)
	}
	before := g.ContentHash()
	if n.Status == "" {
		n.Status = model.NodeStatusPending
	}
	g.insert(&n)
	for _, dep := range n.DependsOn {
		if _, ok := g.nodes[dep]; ok && dep != n.ID {
			g.edges[model.Edge{From: dep, To: n.ID}] = true
		}
	}
	g.record(model.MutationAdd, reason, before, true, map[string]any{
		"node_id": n.ID,
		"step":    n.Step,
	})
	return nil
}

// AddEdge wires a dependency between two existing nodes. Unknown endpoints
// are recoverable no-ops. An edge that would close a cycle fails with
// *GraphError and leaves the graph untouched.
func (g *Graph) AddEdge(from, to string, reason string) error {
	if _, ok := g.nodes[from]; !ok {
		return nil
	}
	if _, ok := g.nodes[to]; !ok {
		return nil
	}
	e := model.Edge{From: from, To: to}
	if g.edges[e] {
		return nil
	}
	before := g.ContentHash()
	g.edges[e] = true
	if cycle := g.findCycle(); cycle != nil {
		delete(g.edges, e)
		return &GraphError{Op: "add_edge", Cycle: cycle}
	}
	g.record(model.MutationWire, reason, before, true, map[string]any{
		"from": from,
		"to":   to,
	})
	return nil
}

func (g *Graph) insert(n *model.Node) {
	g.nodes[n.ID] = n
	g.insertion[n.ID] = g.nextSeq
	g.nextSeq++
}

// findCycle returns a cycle path if the current edge set is cyclic.
func (g *Graph) findCycle() []string {
	ids := g.nodeIDs()
	deps := make(map[string][]string)
	for e := range g.edges {
		deps[e.To] = append(deps[e.To], e.From)
	}
	_, cycle := toposort(ids, deps)
	return cycle
}
