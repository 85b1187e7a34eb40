package model

type GovernanceMode string

const (
	ModeNormal   GovernanceMode = "normal"
	ModeMinimal  GovernanceMode = "minimal"
	ModeDegraded GovernanceMode = "degraded"
	ModePaused   GovernanceMode = "paused"
)

var modeRank = map[GovernanceMode]int{
	ModeNormal:   0,
	ModeMinimal:  1,
	ModeDegraded: 2,
	ModePaused:   3,
}

// Rank orders modes by restrictiveness: normal < minimal < degraded < paused.
func (m GovernanceMode) Rank() int {
	return modeRank[m]
}

// DecisionMetrics is the metrics snapshot a decision was computed from.
type DecisionMetrics struct {
	TotalCost          float64 `yaml:"total_cost"`
	BudgetLimit        float64 `yaml:"budget_limit"`
	FallbackCount      int     `yaml:"fallback_count"`
	ReportCount        int     `yaml:"report_count"`
	HighRiskCount      int     `yaml:"high_risk_count"`
	LowConfidenceCount int     `yaml:"low_confidence_count"`
}

// Decision is one governance checkpoint's outcome. Decisions are recomputed
// fresh at every checkpoint and immutable once emitted; superseded decisions
// stay in history untouched.
type Decision struct {
	Mode         GovernanceMode  `yaml:"mode"`
	Restrictions []string        `yaml:"restrictions,omitempty"`
	Reasoning    string          `yaml:"reasoning"`
	Conflicts    []Conflict      `yaml:"conflicts,omitempty"`
	Metrics      DecisionMetrics `yaml:"metrics"`
	DecidedAt    string          `yaml:"decided_at"`
}
