package orchestrator

import (
	"fmt"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/msageha/conductor/internal/dag"
	"github.com/msageha/conductor/internal/model"
	"github.com/msageha/conductor/internal/yamlio"
)

// ExecutedStep is one dispatched node as recorded in the delivery manifest.
type ExecutedStep struct {
	NodeID   string             `yaml:"node_id"`
	Step     string             `yaml:"step"`
	Decision string             `yaml:"decision"`
	Status   model.ReportStatus `yaml:"status"`
}

type traceFile struct {
	SchemaVersion int           `yaml:"schema_version"`
	FileType      string        `yaml:"file_type"`
	RunID         string        `yaml:"run_id"`
	Events        []TraceEvent  `yaml:"events"`
	FinalContext  model.Signals `yaml:"final_context,omitempty"`
}

type manifestFile struct {
	SchemaVersion int             `yaml:"schema_version"`
	FileType      string          `yaml:"file_type"`
	RunID         string          `yaml:"run_id"`
	Status        model.RunStatus `yaml:"status"`
	FailureReason string          `yaml:"failure_reason,omitempty"`
	Steps         []ExecutedStep  `yaml:"steps"`
	FinishedAt    string          `yaml:"finished_at"`
}

// flushArtifacts writes the three run artifacts concurrently. Each file
// goes through the atomic write path; a failure on any aborts the others'
// error reporting but every write is attempted.
func flushArtifacts(runDir string, evolution dag.EvolutionLog, trace traceFile, manifest manifestFile) error {
	var eg errgroup.Group

	eg.Go(func() error {
		path := filepath.Join(runDir, "dag_evolution.yaml")
		if err := yamlio.AtomicWrite(path, evolution); err != nil {
			return fmt.Errorf("write dag evolution: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		path := filepath.Join(runDir, "execution_trace.yaml")
		if err := yamlio.AtomicWrite(path, trace); err != nil {
			return fmt.Errorf("write execution trace: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		path := filepath.Join(runDir, "delivery_manifest.yaml")
		if err := yamlio.AtomicWrite(path, manifest); err != nil {
			return fmt.Errorf("write delivery manifest: %w", err)
		}
		return nil
	})

	return eg.Wait()
}
