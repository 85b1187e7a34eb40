package model

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeGoal(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "goal.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write goal: %v", err)
	}
	return path
}

func TestLoadGoal(t *testing.T) {
	path := writeGoal(t, `schema_version: 1
file_type: goal
name: ship-report
nodes:
  - id: gather
    step: data_collection
    required: true
    cost_estimate: 2
  - id: write
    step: build
    depends_on: [gather]
    required: true
    cost_estimate: 5
`)

	g, err := LoadGoal(path)
	if err != nil {
		t.Fatalf("LoadGoal failed: %v", err)
	}
	if g.Name != "ship-report" {
		t.Errorf("name: got %q", g.Name)
	}
	if len(g.Nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(g.Nodes))
	}
	if g.Nodes[1].DependsOn[0] != "gather" {
		t.Errorf("depends_on: got %v", g.Nodes[1].DependsOn)
	}
}

func TestLoadGoalValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "wrong file type",
			content: "schema_version: 1\nfile_type: cost_ledger\nnodes:\n  - id: a\n    step: build\n",
			wantErr: "file_type",
		},
		{
			name:    "no nodes",
			content: "schema_version: 1\nfile_type: goal\nnodes: []\n",
			wantErr: "no nodes",
		},
		{
			name:    "duplicate id",
			content: "schema_version: 1\nfile_type: goal\nnodes:\n  - id: a\n    step: build\n  - id: a\n    step: build\n",
			wantErr: "duplicate node id",
		},
		{
			name:    "missing step",
			content: "schema_version: 1\nfile_type: goal\nnodes:\n  - id: a\n",
			wantErr: "no step capability",
		},
		{
			name:    "unknown dependency",
			content: "schema_version: 1\nfile_type: goal\nnodes:\n  - id: a\n    step: build\n    depends_on: [ghost]\n",
			wantErr: "unknown node",
		},
		{
			name:    "self dependency",
			content: "schema_version: 1\nfile_type: goal\nnodes:\n  - id: a\n    step: build\n    depends_on: [a]\n",
			wantErr: "depends on itself",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeGoal(t, tt.content)
			_, err := LoadGoal(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadGoalMissingFile(t *testing.T) {
	_, err := LoadGoal(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}
