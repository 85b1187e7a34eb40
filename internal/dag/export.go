package dag

import "github.com/msageha/conductor/internal/model"

// EvolutionLog is the per-run DAG evolution artifact: the graph's final
// state, its content hash, the full mutation history, accumulated snapshots,
// and per-type mutation counts. It is written for audit and external tooling
// and never read back by the core at runtime.
type EvolutionLog struct {
	SchemaVersion  int                    `yaml:"schema_version"`
	FileType       string                 `yaml:"file_type"`
	RunID          string                 `yaml:"run_id"`
	FinalHash      string                 `yaml:"final_hash"`
	Nodes          []model.Node           `yaml:"nodes"`
	Edges          []model.Edge           `yaml:"edges"`
	Mutations      []model.MutationRecord `yaml:"mutations"`
	Snapshots      []model.Snapshot       `yaml:"snapshots"`
	MutationCounts map[string]int         `yaml:"mutation_counts"`
}

// Evolution exports the graph's audit artifact for the given run.
func (g *Graph) Evolution(runID string) EvolutionLog {
	counts := make(map[string]int)
	for _, m := range g.mutations {
		counts[string(m.Type)]++
	}
	return EvolutionLog{
		SchemaVersion:  1,
		FileType:       "dag_evolution",
		RunID:          runID,
		FinalHash:      g.ContentHash(),
		Nodes:          g.Nodes(),
		Edges:          g.Edges(),
		Mutations:      g.Mutations(),
		Snapshots:      g.Snapshots(),
		MutationCounts: counts,
	}
}
