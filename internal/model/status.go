package model

import "fmt"

type NodeStatus string

const (
	NodeStatusPending   NodeStatus = "pending"
	NodeStatusReady     NodeStatus = "ready"
	NodeStatusRunning   NodeStatus = "running"
	NodeStatusCompleted NodeStatus = "completed"
	NodeStatusFailed    NodeStatus = "failed"
	NodeStatusSkipped   NodeStatus = "skipped"
	NodeStatusMerged    NodeStatus = "merged"
)

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

var terminalNodeStatuses = map[NodeStatus]bool{
	NodeStatusCompleted: true,
	NodeStatusFailed:    true,
	NodeStatusSkipped:   true,
	NodeStatusMerged:    true,
}

// Node status transitions: pending → ready → running → terminal.
// skipped/merged may be entered before the node ever runs.
var validNodeTransitions = map[NodeStatus]map[NodeStatus]bool{
	NodeStatusPending: {
		NodeStatusReady:   true,
		NodeStatusSkipped: true,
		NodeStatusMerged:  true,
	},
	NodeStatusReady: {
		NodeStatusRunning: true,
		NodeStatusSkipped: true,
		NodeStatusMerged:  true,
	},
	NodeStatusRunning: {
		NodeStatusCompleted: true,
		NodeStatusFailed:    true,
		NodeStatusSkipped:   true,
	},
}

func IsNodeTerminal(s NodeStatus) bool {
	return terminalNodeStatuses[s]
}

func ValidateNodeTransition(from, to NodeStatus) error {
	if IsNodeTerminal(from) {
		return fmt.Errorf("cannot transition from terminal status %q", from)
	}
	allowed, ok := validNodeTransitions[from]
	if !ok {
		return fmt.Errorf("unknown node status %q", from)
	}
	if !allowed[to] {
		return fmt.Errorf("invalid node transition: %q → %q", from, to)
	}
	return nil
}
