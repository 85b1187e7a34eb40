package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msageha/conductor/internal/model"
)

func rep(stepName, decision string, confidence float64, risk model.RiskTier) model.StepReport {
	return model.StepReport{
		Step:       stepName,
		Decision:   decision,
		Status:     model.ReportStatusSuccess,
		Confidence: confidence,
		RiskTier:   risk,
	}
}

func findConflict(conflicts []model.Conflict, ct model.ConflictType) *model.Conflict {
	for i := range conflicts {
		if conflicts[i].Type == ct {
			return &conflicts[i]
		}
	}
	return nil
}

func TestDetectConflictsNoneOnCleanReports(t *testing.T) {
	reports := []model.StepReport{
		rep("build", "continue", 0.9, model.RiskLow),
		rep("quality_review", "pass", 0.9, model.RiskLow),
		rep("release_approval", "approve", 0.9, model.RiskLow),
	}
	assert.Empty(t, DetectConflicts(reports, 10))
}

func TestDecisionMismatch(t *testing.T) {
	reports := []model.StepReport{
		rep("release_approval", "approve", 0.9, model.RiskLow),
		rep("quality_review", "rejected", 0.9, model.RiskLow),
	}
	c := findConflict(DetectConflicts(reports, 10), model.ConflictDecisionMismatch)
	require.NotNil(t, c)
	assert.Equal(t, model.SeverityHard, c.Severity)
	assert.ElementsMatch(t, []string{"release_approval", "quality_review"}, c.Steps)
	assert.NotEmpty(t, c.Evidence)
}

func TestDecisionMismatchBothDirections(t *testing.T) {
	reports := []model.StepReport{
		rep("release_approval", "reject", 0.9, model.RiskLow),
		rep("quality_review", "pass", 0.9, model.RiskLow),
	}
	c := findConflict(DetectConflicts(reports, 10), model.ConflictDecisionMismatch)
	require.NotNil(t, c)
	assert.Equal(t, model.SeverityHard, c.Severity)
}

func TestLowConfidenceCluster(t *testing.T) {
	// One low key step: no conflict.
	reports := []model.StepReport{
		rep("quality_review", "pass", 0.4, model.RiskLow),
		rep("build", "continue", 0.4, model.RiskLow), // not a key step
	}
	assert.Nil(t, findConflict(DetectConflicts(reports, 10), model.ConflictLowConfidenceCluster))

	// Two low key steps: soft conflict.
	reports = append(reports, rep("cost_check", "continue", 0.3, model.RiskLow))
	c := findConflict(DetectConflicts(reports, 10), model.ConflictLowConfidenceCluster)
	require.NotNil(t, c)
	assert.Equal(t, model.SeveritySoft, c.Severity)
	assert.ElementsMatch(t, []string{"quality_review", "cost_check"}, c.Steps)
}

func TestRiskEscalationSeverity(t *testing.T) {
	one := []model.StepReport{
		rep("deploy", "continue", 0.9, model.RiskHigh),
	}
	c := findConflict(DetectConflicts(one, 10), model.ConflictRiskEscalation)
	require.NotNil(t, c)
	assert.Equal(t, model.SeveritySoft, c.Severity)

	two := append(one, rep("data_sync", "continue", 0.9, model.RiskCritical))
	c = findConflict(DetectConflicts(two, 10), model.ConflictRiskEscalation)
	require.NotNil(t, c)
	assert.Equal(t, model.SeverityHard, c.Severity)
}

func TestBudgetWarning(t *testing.T) {
	costRep := rep("cost_check", "continue", 0.9, model.RiskLow)
	costRep.Signals = model.Signals{"budget_remaining": 2.0}

	c := findConflict(DetectConflicts([]model.StepReport{costRep}, 5), model.ConflictBudgetWarning)
	require.NotNil(t, c)
	assert.Equal(t, model.SeveritySoft, c.Severity)

	// Above the floor: no warning.
	costRep.Signals = model.Signals{"budget_remaining": 8.0}
	assert.Nil(t, findConflict(DetectConflicts([]model.StepReport{costRep}, 5), model.ConflictBudgetWarning))

	// A halted cost step is not a budget warning, whatever its signal says.
	costRep.Decision = "terminate"
	costRep.Signals = model.Signals{"budget_remaining": 2.0}
	assert.Nil(t, findConflict(DetectConflicts([]model.StepReport{costRep}, 5), model.ConflictBudgetWarning))
}

func TestConflictsAttachedToInvolvedReports(t *testing.T) {
	reports := []model.StepReport{
		rep("build", "continue", 0.9, model.RiskLow),
		rep("release_approval", "approve", 0.9, model.RiskLow),
		rep("quality_review", "rejected", 0.9, model.RiskHigh),
	}
	conflicts := DetectConflicts(reports, 10)
	require.NotNil(t, findConflict(conflicts, model.ConflictDecisionMismatch))

	// Uninvolved reports stay clean; involved ones carry their conflicts.
	assert.Empty(t, reports[0].Conflicts)
	require.Len(t, reports[1].Conflicts, 1)
	assert.Equal(t, model.ConflictDecisionMismatch, reports[1].Conflicts[0].Type)
	// quality_review is also the sole high-risk report.
	assert.Len(t, reports[2].Conflicts, 2)
	assert.NotNil(t, findConflict(reports[2].Conflicts, model.ConflictRiskEscalation))

	// A later pass rebuilds the set instead of stacking duplicates.
	conflicts = DetectConflicts(reports, 10)
	require.NotNil(t, findConflict(conflicts, model.ConflictDecisionMismatch))
	assert.Len(t, reports[1].Conflicts, 1)

	// When the disagreement resolves, the attachment disappears with it.
	reports[2].Decision = "pass"
	reports[2].RiskTier = model.RiskLow
	assert.Empty(t, DetectConflicts(reports, 10))
	for _, r := range reports {
		assert.Empty(t, r.Conflicts)
	}
}

func TestDetectConflictsIsPure(t *testing.T) {
	reports := []model.StepReport{
		rep("release_approval", "approve", 0.4, model.RiskHigh),
		rep("quality_review", "failed", 0.3, model.RiskCritical),
	}
	first := DetectConflicts(reports, 10)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, DetectConflicts(reports, 10))
	}
	// Multiple independent rules fire at once.
	assert.NotNil(t, findConflict(first, model.ConflictDecisionMismatch))
	assert.NotNil(t, findConflict(first, model.ConflictRiskEscalation))
	assert.NotNil(t, findConflict(first, model.ConflictLowConfidenceCluster))
}
