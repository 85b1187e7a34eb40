package orchestrator

import (
	"sync"
	"time"
)

// Event kinds recorded in the execution trace.
const (
	EventTransition    = "transition"
	EventDispatch      = "dispatch"
	EventGovernance    = "governance"
	EventPlanSelection = "plan_selection"
	EventFrontier      = "frontier"
	EventNote          = "note"
	EventFinal         = "final"
)

type TraceEvent struct {
	Seq    int            `yaml:"seq"`
	At     string         `yaml:"at"`
	Kind   string         `yaml:"kind"`
	Node   string         `yaml:"node,omitempty"`
	Detail map[string]any `yaml:"detail,omitempty"`
}

// Trace is the append-only in-memory event log for one run. Appends are
// safe for concurrent use so watcher notes can land between dispatches.
type Trace struct {
	mu     sync.Mutex
	events []TraceEvent
	sink   func(TraceEvent)
}

func NewTrace() *Trace {
	return &Trace{}
}

// SetSink forwards every appended event to fn, for durable side channels
// like the audit log. Must be set before the run starts.
func (t *Trace) SetSink(fn func(TraceEvent)) {
	t.mu.Lock()
	t.sink = fn
	t.mu.Unlock()
}

func (t *Trace) Append(kind, node string, detail map[string]any) {
	t.mu.Lock()
	e := TraceEvent{
		Seq:    len(t.events) + 1,
		At:     time.Now().UTC().Format(time.RFC3339Nano),
		Kind:   kind,
		Node:   node,
		Detail: detail,
	}
	t.events = append(t.events, e)
	sink := t.sink
	t.mu.Unlock()

	if sink != nil {
		sink(e)
	}
}

func (t *Trace) Events() []TraceEvent {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]TraceEvent, len(t.events))
	copy(out, t.events)
	return out
}
