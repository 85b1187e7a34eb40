package step

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps capability names to step implementations. It replaces
// string-keyed dynamic dispatch with one narrow interface boundary.
type Registry struct {
	mu    sync.RWMutex
	steps map[string]Step
}

func NewRegistry() *Registry {
	return &Registry{steps: make(map[string]Step)}
}

// Register binds a capability name to a step. Re-registering a name is an
// error: capabilities are wired once at startup.
func (r *Registry) Register(capability string, s Step) error {
	if capability == "" {
		return fmt.Errorf("capability name must not be empty")
	}
	if s == nil {
		return fmt.Errorf("step for capability %q must not be nil", capability)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.steps[capability]; exists {
		return fmt.Errorf("capability %q already registered", capability)
	}
	r.steps[capability] = s
	return nil
}

// Resolve looks up the step bound to a capability.
func (r *Registry) Resolve(capability string) (Step, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.steps[capability]
	return s, ok
}

// Capabilities lists registered capability names, sorted.
func (r *Registry) Capabilities() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.steps))
	for name := range r.steps {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
