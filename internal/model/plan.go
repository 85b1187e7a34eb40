package model

type ConditionKind string

const (
	CondAlways             ConditionKind = "always"
	CondBudgetCheck        ConditionKind = "budget_check"
	CondRiskCheck          ConditionKind = "risk_check"
	CondEvaluationFeedback ConditionKind = "evaluation_feedback"
)

// Condition gates a node on the current signal map. Conditions are a closed
// tagged enumeration with one pure evaluator per tag, so they serialize into
// artifacts and replay identically.
type Condition struct {
	Kind ConditionKind `yaml:"kind"`

	// budget_check: minimum acceptable value of the budget_remaining signal.
	Floor float64 `yaml:"floor,omitempty"`

	// risk_check: tier at or above which the node is gated out.
	MaxTier RiskTier `yaml:"max_tier,omitempty"`

	// evaluation_feedback: gate out when Signal currently equals SkipWhen.
	Signal   string `yaml:"signal,omitempty"`
	SkipWhen string `yaml:"skip_when,omitempty"`
}

// Evaluate reports whether the condition passes for the given signals.
// Evaluation is pure: same signals, same answer. A missing signal never
// gates a node out.
func (c Condition) Evaluate(signals Signals) bool {
	switch c.Kind {
	case CondBudgetCheck:
		remaining, ok := signals.Float("budget_remaining")
		if !ok {
			return true
		}
		return remaining >= c.Floor
	case CondRiskCheck:
		tier, ok := signals.String("risk_tier")
		if !ok {
			return true
		}
		max := c.MaxTier
		if max == "" {
			max = RiskHigh
		}
		return !RiskTier(tier).AtLeast(max)
	case CondEvaluationFeedback:
		v, ok := signals.String(c.Signal)
		if !ok {
			return true
		}
		return v != c.SkipWhen
	default:
		// always, and any unknown kind, passes
		return true
	}
}

// Always is the zero-friction condition.
func Always() Condition {
	return Condition{Kind: CondAlways}
}

// Plan is a named, versioned, condition-gated node sequence representing one
// execution strategy. Plans are immutable once registered.
type Plan struct {
	Name    string     `yaml:"name"`
	Version string     `yaml:"version"`
	Nodes   []PlanNode `yaml:"nodes"`
}

// Empty reports whether the plan schedules no work (the paused sentinel).
func (p Plan) Empty() bool {
	return len(p.Nodes) == 0
}

// PlanNode is one entry of a plan, expanded into a graph Node when selected.
type PlanNode struct {
	ID              string    `yaml:"id"`
	Step            string    `yaml:"step"`
	DependsOn       []string  `yaml:"depends_on,omitempty"`
	Required        bool      `yaml:"required"`
	CostEstimate    float64   `yaml:"cost_estimate"`
	LatencyEstimate float64   `yaml:"latency_estimate_sec"`
	RiskTier        RiskTier  `yaml:"risk_tier"`
	Condition       Condition `yaml:"condition"`
}

// Node converts a plan node into a fresh pending graph node.
func (pn PlanNode) Node() Node {
	cond := pn.Condition
	return Node{
		ID:              pn.ID,
		Step:            pn.Step,
		DependsOn:       append([]string(nil), pn.DependsOn...),
		Required:        pn.Required,
		CostEstimate:    pn.CostEstimate,
		LatencyEstimate: pn.LatencyEstimate,
		RiskTier:        pn.RiskTier,
		Status:          NodeStatusPending,
		Condition:       &cond,
	}
}
