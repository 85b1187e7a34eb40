package model

type ReportStatus string

const (
	ReportStatusSuccess ReportStatus = "success"
	ReportStatusWarning ReportStatus = "warning"
	ReportStatusError   ReportStatus = "error"
)

type ConflictType string

const (
	ConflictDecisionMismatch     ConflictType = "decision_mismatch"
	ConflictLowConfidenceCluster ConflictType = "low_confidence_cluster"
	ConflictRiskEscalation       ConflictType = "risk_escalation"
	ConflictBudgetWarning        ConflictType = "budget_warning"
)

type ConflictSeverity string

const (
	SeveritySoft ConflictSeverity = "soft"
	SeverityHard ConflictSeverity = "hard"
)

// Signals is the accumulated signal map a run threads through its steps.
type Signals map[string]any

// Float reads a numeric signal, tolerating int/float encodings from YAML.
func (s Signals) Float(key string) (float64, bool) {
	v, ok := s[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// String reads a string signal.
func (s Signals) String(key string) (string, bool) {
	v, ok := s[key]
	if !ok {
		return "", false
	}
	str, ok := v.(string)
	return str, ok
}

// StepReport is the normalized signal derived from one step's result.
// Normalized fields are never mutated afterwards; Conflicts is the one
// exception, rewritten by each conflict detection pass to hold the current
// conflicts this step is involved in.
type StepReport struct {
	ID         string       `yaml:"id"`
	Step       string       `yaml:"step"`
	Decision   string       `yaml:"decision"`
	Status     ReportStatus `yaml:"status"`
	Confidence float64      `yaml:"confidence"`
	RiskTier   RiskTier     `yaml:"risk_tier"`
	CostImpact float64      `yaml:"cost_impact"`
	Fallback   bool         `yaml:"fallback,omitempty"`
	Signals    Signals      `yaml:"signals,omitempty"`
	Conflicts  []Conflict   `yaml:"conflicts,omitempty"`
}

// Conflict is a deterministic cross-step disagreement found by pure rules
// over the current report set.
type Conflict struct {
	Type            ConflictType     `yaml:"type"`
	Steps           []string         `yaml:"steps"`
	Evidence        string           `yaml:"evidence"`
	Severity        ConflictSeverity `yaml:"severity"`
	SuggestedAction string           `yaml:"suggested_action"`
}
