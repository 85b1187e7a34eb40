// Package model defines the data structures for Conductor's graph state,
// step reports, governance decisions, plans, and configuration.
package model

type RiskTier string

const (
	RiskLow      RiskTier = "low"
	RiskMedium   RiskTier = "medium"
	RiskHigh     RiskTier = "high"
	RiskCritical RiskTier = "critical"
)

var riskRank = map[RiskTier]int{
	RiskLow:      0,
	RiskMedium:   1,
	RiskHigh:     2,
	RiskCritical: 3,
}

// Rank orders risk tiers low → critical. Unknown tiers rank as low.
func (r RiskTier) Rank() int {
	return riskRank[r]
}

// AtLeast reports whether r is at or above the given tier.
func (r RiskTier) AtLeast(other RiskTier) bool {
	return r.Rank() >= other.Rank()
}

// Node is one unit of governance-relevant work in a run's graph.
type Node struct {
	ID              string     `yaml:"id"`
	Step            string     `yaml:"step"`
	DependsOn       []string   `yaml:"depends_on,omitempty"`
	Required        bool       `yaml:"required"`
	CostEstimate    float64    `yaml:"cost_estimate"`
	LatencyEstimate float64    `yaml:"latency_estimate_sec"`
	RiskTier        RiskTier   `yaml:"risk_tier"`
	Status          NodeStatus `yaml:"status"`
	Condition       *Condition `yaml:"condition,omitempty"`

	// Mutation provenance.
	Injected   bool   `yaml:"injected,omitempty"`
	SkipReason string `yaml:"skip_reason,omitempty"`
	MergedInto string `yaml:"merged_into,omitempty"`
}

// Edge is a directed dependency: To cannot start before From resolves.
// Edges have set semantics; duplicates are collapsed.
type Edge struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}
