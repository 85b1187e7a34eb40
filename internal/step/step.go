// Package step defines the contract between the control core and the
// pluggable execution units it schedules. Step implementations own the
// domain work; the core only sees their normalized results.
package step

import (
	"context"

	"github.com/msageha/conductor/internal/model"
)

// Result is what a step hands back to the orchestrator.
type Result struct {
	// Decision is the step's verdict, e.g. "continue", "approve",
	// "terminate". The report normalizer interprets it.
	Decision string
	// Reason is a human-readable justification, carried into the trace.
	Reason string
	// StateUpdate is merged into the run's signal map after the step.
	StateUpdate model.Signals
	// Call is optional metadata about a nested remote call, read
	// opportunistically by report normalization.
	Call *CallMeta
}

// CallMeta describes a nested remote call a step made while executing.
type CallMeta struct {
	Used           bool
	Fallback       bool // the step fell back to a deterministic path
	Provider       string
	Model          string
	ConfidenceHint string // "", "low", "medium", "high"
}

// Step is one pluggable unit of governance-relevant work.
type Step interface {
	// Execute performs the step's work against the accumulated signal map.
	Execute(ctx context.Context, runID string, signals model.Signals) (Result, error)
	// GoverningQuestion documents what the step answers. It never affects
	// control flow.
	GoverningQuestion() string
}

// Func adapts a plain function into a Step.
type Func struct {
	Question string
	Fn       func(ctx context.Context, runID string, signals model.Signals) (Result, error)
}

func (f Func) Execute(ctx context.Context, runID string, signals model.Signals) (Result, error) {
	return f.Fn(ctx, runID, signals)
}

func (f Func) GoverningQuestion() string {
	return f.Question
}
