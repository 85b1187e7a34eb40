package plan

import (
	"fmt"

	"github.com/msageha/conductor/internal/model"
	"github.com/msageha/conductor/internal/optimize"
)

// Selection is one selector outcome. Reasoning names the exact cascade
// branch that fired, so a trace reader can replay the choice.
type Selection struct {
	Plan      model.Plan
	Reasoning string
}

// Selector deterministically picks a plan from the governance mode, the
// remaining budget, and the previous checkpoint's failure feedback. Only
// plans on the catalogue's Pareto frontier are eligible: a cascade choice
// pruned by the optimizer is replaced by the cheapest survivor, with the
// substitution recorded in the reasoning.
type Selector struct {
	registry    *Registry
	budgetFloor float64
	frontier    optimize.FrontierResult
	eligible    map[string]bool
}

func NewSelector(registry *Registry, budgetFloor float64, frontierCap int) *Selector {
	s := &Selector{registry: registry, budgetFloor: budgetFloor}
	s.frontier = optimize.ParetoFrontier(candidates(registry), frontierCap)
	s.eligible = make(map[string]bool, len(s.frontier.Frontier))
	for _, c := range s.frontier.Frontier {
		s.eligible[c.PlanID] = true
	}
	return s
}

// Frontier returns the optimizer's verdict over the catalogue: the
// surviving candidates and the recorded reason for every pruned one.
func (s *Selector) Frontier() optimize.FrontierResult {
	return s.frontier
}

// candidates scores every real plan in the registry on the four optimizer
// objectives. The paused sentinel never competes. Node coverage stands in
// for proxy success: a plan that runs more checks is likelier to deliver an
// approved result.
func candidates(registry *Registry) []optimize.CandidatePath {
	var out []optimize.CandidatePath
	for _, name := range registry.Names() {
		p, _ := registry.Get(name)
		if len(p.Nodes) == 0 {
			continue
		}
		c := optimize.CandidatePath{PlanID: p.Name, ProxySuccess: float64(len(p.Nodes))}
		for _, pn := range p.Nodes {
			c.Cost += pn.CostEstimate
			c.Latency += pn.LatencyEstimate
			if r := float64(pn.RiskTier.Rank()); r > c.MaxRisk {
				c.MaxRisk = r
			}
		}
		out = append(out, c)
	}
	return out
}

// Select runs the selection cascade; the first matching branch wins.
// Identical inputs always return the same plan and reasoning.
func (s *Selector) Select(mode model.GovernanceMode, budgetRemaining float64, lastFailureCause string) (Selection, error) {
	switch {
	case mode == model.ModePaused:
		return s.pick(PlanPaused, "mode is paused: empty sentinel plan")
	case mode == model.ModeMinimal:
		return s.pick(PlanMinimal, "mode is minimal: minimal plan")
	case mode == model.ModeDegraded:
		return s.pick(PlanDegraded, "mode is degraded: degraded plan")
	case budgetRemaining < s.budgetFloor:
		return s.pick(PlanDegraded, fmt.Sprintf("budget remaining %.2f below floor %.2f: degraded plan", budgetRemaining, s.budgetFloor))
	case lastFailureCause == "data":
		return s.pick(PlanDegraded, "last failure cause was data: degraded plan with self-gated data node")
	case lastFailureCause == "execution":
		return s.pick(PlanMinimal, "last failure cause was execution: minimal plan")
	case lastFailureCause == "cost":
		return s.pick(PlanDegraded, "last failure cause was cost: degraded plan")
	default:
		return s.pick(PlanFull, "no restrictions: full plan")
	}
}

func (s *Selector) pick(name, reasoning string) (Selection, error) {
	p, ok := s.registry.Get(name)
	if !ok {
		return Selection{}, fmt.Errorf("plan %q not in registry", name)
	}
	if name == PlanPaused || s.eligible[name] {
		return Selection{Plan: p, Reasoning: reasoning}, nil
	}

	sub, ok := s.cheapestSurvivor()
	if !ok {
		return Selection{}, fmt.Errorf("plan %q pruned from the frontier and no survivor remains", name)
	}
	p, _ = s.registry.Get(sub)
	return Selection{
		Plan:      p,
		Reasoning: fmt.Sprintf("%s; %s pruned from the frontier, cheapest survivor %s stands in", reasoning, name, sub),
	}, nil
}

func (s *Selector) cheapestSurvivor() (string, bool) {
	if len(s.frontier.Frontier) == 0 {
		return "", false
	}
	best := s.frontier.Frontier[0]
	for _, c := range s.frontier.Frontier[1:] {
		if c.Cost < best.Cost {
			best = c
		}
	}
	return best.PlanID, true
}
