package dag

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/msageha/conductor/internal/model"
)

// mutOp is one randomly generated edit, structural or status.
type mutOp struct {
	kind  int // 0=add 1=edge 2=inject 3=remove 4=skip 5=merge 6=reorder 7=status
	a, b  int // node indices, interpreted mod current universe
	fresh int // suffix for new node ids
}

var statusSteps = []model.NodeStatus{
	model.NodeStatusReady,
	model.NodeStatusRunning,
	model.NodeStatusCompleted,
	model.NodeStatusFailed,
}

func applyOp(g *Graph, op mutOp, seq *int) {
	ids := make([]string, 0, len(g.nodes))
	for _, n := range g.Nodes() {
		ids = append(ids, n.ID)
	}
	pick := func(i int) string {
		if len(ids) == 0 {
			return "ghost"
		}
		return ids[abs(i)%len(ids)]
	}
	*seq++
	freshID := fmt.Sprintf("gen%d_%d", op.fresh, *seq)

	switch op.kind % 8 {
	case 0:
		_ = g.AddNode(model.Node{ID: freshID, Step: "s"}, "prop")
	case 1:
		_ = g.AddEdge(pick(op.a), pick(op.b), "prop")
	case 2:
		_ = g.InjectNode(model.Node{ID: freshID, Step: "s"}, pick(op.a), "prop")
	case 3:
		_ = g.RemoveNode(pick(op.a), "prop")
	case 4:
		_ = g.SkipNode(pick(op.a), "prop")
	case 5:
		_ = g.MergeNodes([]string{pick(op.a), pick(op.b)}, model.Node{ID: freshID, Step: "s"}, "prop")
	case 6:
		_ = g.ReorderNodes([]string{pick(op.b), pick(op.a)}, "prop")
	case 7:
		// Status advances interleave with structural edits in real runs.
		_ = g.SetStatus(pick(op.a), statusSteps[abs(op.b)%len(statusSteps)])
	}
}

func abs(i int) int {
	if i < 0 {
		return -i
	}
	return i
}

func genOp() gopter.Gen {
	return gopter.CombineGens(
		gen.IntRange(0, 7),
		gen.IntRange(0, 31),
		gen.IntRange(0, 31),
		gen.IntRange(0, 9),
	).Map(func(vs []interface{}) mutOp {
		return mutOp{
			kind:  vs[0].(int),
			a:     vs[1].(int),
			b:     vs[2].(int),
			fresh: vs[3].(int),
		}
	})
}

func TestPropertyGraphStaysAcyclic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("acyclic after every mutation sequence", prop.ForAll(
		func(ops []mutOp) bool {
			g := New()
			for _, id := range []string{"seed1", "seed2", "seed3"} {
				if err := g.AddNode(model.Node{ID: id, Step: "s"}, "seed"); err != nil {
					return false
				}
			}
			_ = g.AddEdge("seed1", "seed2", "seed")

			seq := 0
			for _, op := range ops {
				applyOp(g, op, &seq)
				if g.findCycle() != nil {
					return false
				}
			}
			return true
		},
		gen.SliceOf(genOp()),
	))

	properties.Property("hash chain never breaks", prop.ForAll(
		func(ops []mutOp) bool {
			g := New()
			for _, id := range []string{"seed1", "seed2"} {
				if err := g.AddNode(model.Node{ID: id, Step: "s"}, "seed"); err != nil {
					return false
				}
			}
			seq := 0
			for _, op := range ops {
				applyOp(g, op, &seq)
			}
			muts := g.Mutations()
			for i := 1; i < len(muts); i++ {
				if muts[i-1].AfterHash != muts[i].BeforeHash {
					return false
				}
			}
			return true
		},
		gen.SliceOf(genOp()),
	))

	properties.TestingRun(t)
}
