package model

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Goal is a user-supplied decomposition of one delivery into nodes. It is
// the file-based alternative to the built-in plan catalogue.
type Goal struct {
	SchemaVersion int        `yaml:"schema_version"`
	FileType      string     `yaml:"file_type"`
	Name          string     `yaml:"name"`
	Nodes         []PlanNode `yaml:"nodes"`
}

// LoadGoal reads and validates a goal file. Dependency cycles are not
// checked here; they surface as graph errors when the goal is expanded.
func LoadGoal(path string) (Goal, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Goal{}, fmt.Errorf("read goal file: %w", err)
	}

	var g Goal
	if err := yaml.Unmarshal(content, &g); err != nil {
		return Goal{}, fmt.Errorf("parse goal file: %w", err)
	}
	if err := g.validate(); err != nil {
		return Goal{}, fmt.Errorf("goal file %s: %w", path, err)
	}
	return g, nil
}

func (g Goal) validate() error {
	if g.FileType != "goal" {
		return fmt.Errorf("file_type must be %q, got %q", "goal", g.FileType)
	}
	if len(g.Nodes) == 0 {
		return fmt.Errorf("goal has no nodes")
	}

	seen := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.ID == "" {
			return fmt.Errorf("node with empty id")
		}
		if n.Step == "" {
			return fmt.Errorf("node %q has no step capability", n.ID)
		}
		if seen[n.ID] {
			return fmt.Errorf("duplicate node id %q", n.ID)
		}
		seen[n.ID] = true
	}
	for _, n := range g.Nodes {
		for _, dep := range n.DependsOn {
			if !seen[dep] {
				return fmt.Errorf("node %q depends on unknown node %q", n.ID, dep)
			}
			if dep == n.ID {
				return fmt.Errorf("node %q depends on itself", n.ID)
			}
		}
	}
	return nil
}
