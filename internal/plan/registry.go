// Package plan holds the fixed catalogue of execution strategies and the
// deterministic selector that picks one per governance checkpoint.
package plan

import (
	"fmt"
	"sort"

	"github.com/Masterminds/semver/v3"

	"github.com/msageha/conductor/internal/model"
)

// Canonical plan names. The catalogue is fixed: selection chooses among
// these, it never synthesizes new plans.
const (
	PlanFull     = "full"
	PlanDegraded = "degraded"
	PlanMinimal  = "minimal"
	PlanPaused   = "paused" // empty sentinel
)

// Registry is the immutable, process-wide plan catalogue. It is built once
// at startup and only read afterwards, so lookups take no lock.
type Registry struct {
	plans    map[string]model.Plan
	versions map[string]*semver.Version
}

func NewRegistry() *Registry {
	return &Registry{
		plans:    make(map[string]model.Plan),
		versions: make(map[string]*semver.Version),
	}
}

// Register adds a plan to the catalogue. The version must parse as semver
// and the name must be new: the catalogue is append-only and versioned, a
// re-registration is a wiring bug.
func (r *Registry) Register(p model.Plan) error {
	if p.Name == "" {
		return fmt.Errorf("plan name must not be empty")
	}
	v, err := semver.NewVersion(p.Version)
	if err != nil {
		return fmt.Errorf("plan %q has invalid version %q: %w", p.Name, p.Version, err)
	}
	if _, exists := r.plans[p.Name]; exists {
		return fmt.Errorf("plan %q already registered", p.Name)
	}
	r.plans[p.Name] = p
	r.versions[p.Name] = v
	return nil
}

// Get returns the plan registered under name.
func (r *Registry) Get(name string) (model.Plan, bool) {
	p, ok := r.plans[name]
	return p, ok
}

// Names lists registered plan names sorted by descending version, then name,
// so listings lead with the newest strategies.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.plans))
	for name := range r.plans {
		out = append(out, name)
	}
	sort.Slice(out, func(i, j int) bool {
		vi, vj := r.versions[out[i]], r.versions[out[j]]
		if !vi.Equal(vj) {
			return vi.GreaterThan(vj)
		}
		return out[i] < out[j]
	})
	return out
}
