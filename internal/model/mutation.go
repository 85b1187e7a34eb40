package model

type MutationType string

const (
	MutationAdd      MutationType = "add"
	MutationWire     MutationType = "wire"
	MutationInject   MutationType = "inject"
	MutationRemove   MutationType = "remove"
	MutationSkip     MutationType = "skip"
	MutationMerge    MutationType = "merge"
	MutationReorder  MutationType = "reorder"
	MutationRollback MutationType = "rollback"
)

// MutationRecord is one atomic, hashed, logged structural edit to the graph.
// Records are append-only: never edited or reordered after creation.
type MutationRecord struct {
	ID         string         `yaml:"id"`
	Type       MutationType   `yaml:"type"`
	Timestamp  string         `yaml:"timestamp"`
	Trigger    string         `yaml:"trigger"`
	Detail     map[string]any `yaml:"detail,omitempty"`
	BeforeHash string         `yaml:"before_hash"`
	AfterHash  string         `yaml:"after_hash"`
	Reversible bool           `yaml:"reversible"`
}

// Snapshot is an immutable serialized copy of the graph's node/edge set.
// Restoring a snapshot reproduces its hash exactly.
type Snapshot struct {
	ID      string `yaml:"id"`
	TakenAt string `yaml:"taken_at"`
	Hash    string `yaml:"hash"`
	Nodes   []Node `yaml:"nodes"`
	Edges   []Edge `yaml:"edges"`
}
