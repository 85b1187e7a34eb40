package plan

import "github.com/msageha/conductor/internal/model"

// DefaultCatalog builds the built-in strategy catalogue. The degraded plan's
// data node is self-gated: it skips itself while the last failure cause is
// still "data", which prevents a data-failure → degraded → data-failure loop.
func DefaultCatalog(budgetFloor float64) (*Registry, error) {
	r := NewRegistry()

	full := model.Plan{
		Name:    PlanFull,
		Version: "1.2.0",
		Nodes: []model.PlanNode{
			{ID: "requirements", Step: "requirements_analysis", Required: true, CostEstimate: 2, LatencyEstimate: 5, RiskTier: model.RiskLow, Condition: model.Always()},
			{ID: "data", Step: "data_collection", DependsOn: []string{"requirements"}, Required: true, CostEstimate: 4, LatencyEstimate: 20, RiskTier: model.RiskMedium, Condition: model.Always()},
			{ID: "build", Step: "build", DependsOn: []string{"data"}, Required: true, CostEstimate: 8, LatencyEstimate: 60, RiskTier: model.RiskMedium, Condition: model.Always()},
			{ID: "quality", Step: "quality_review", DependsOn: []string{"build"}, Required: true, CostEstimate: 3, LatencyEstimate: 15, RiskTier: model.RiskLow, Condition: model.Always()},
			{ID: "cost", Step: "cost_check", DependsOn: []string{"build"}, CostEstimate: 1, LatencyEstimate: 2, RiskTier: model.RiskLow, Condition: model.Condition{Kind: model.CondBudgetCheck, Floor: budgetFloor}},
			{ID: "approval", Step: "release_approval", DependsOn: []string{"quality", "cost"}, Required: true, CostEstimate: 1, LatencyEstimate: 5, RiskTier: model.RiskLow, Condition: model.Always()},
		},
	}

	degraded := model.Plan{
		Name:    PlanDegraded,
		Version: "1.1.0",
		Nodes: []model.PlanNode{
			{ID: "data", Step: "data_collection", Required: false, CostEstimate: 2, LatencyEstimate: 10, RiskTier: model.RiskMedium,
				Condition: model.Condition{Kind: model.CondEvaluationFeedback, Signal: "last_failure_cause", SkipWhen: "data"}},
			{ID: "build", Step: "build", DependsOn: []string{"data"}, Required: true, CostEstimate: 5, LatencyEstimate: 40, RiskTier: model.RiskMedium, Condition: model.Always()},
			{ID: "quality", Step: "quality_review", DependsOn: []string{"build"}, Required: true, CostEstimate: 2, LatencyEstimate: 10, RiskTier: model.RiskLow,
				Condition: model.Condition{Kind: model.CondRiskCheck, MaxTier: model.RiskCritical}},
		},
	}

	minimal := model.Plan{
		Name:    PlanMinimal,
		Version: "1.0.0",
		Nodes: []model.PlanNode{
			{ID: "build", Step: "build", Required: true, CostEstimate: 3, LatencyEstimate: 30, RiskTier: model.RiskMedium, Condition: model.Always()},
			{ID: "quality", Step: "quality_review", DependsOn: []string{"build"}, Required: true, CostEstimate: 1, LatencyEstimate: 5, RiskTier: model.RiskLow, Condition: model.Always()},
		},
	}

	paused := model.Plan{Name: PlanPaused, Version: "1.0.0"}

	for _, p := range []model.Plan{full, degraded, minimal, paused} {
		if err := r.Register(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}
