// Package governance reduces accumulated step reports, conflicts, and the
// cost ledger into one run-wide execution mode. The engine is a strict
// first-match rule cascade, never a weighted classifier: every decision must
// be explainable by naming the one rule that fired.
package governance

import (
	"fmt"
	"time"

	"github.com/msageha/conductor/internal/model"
)

// Thresholds are the tunable knobs of the cascade.
type Thresholds struct {
	// FallbackCeiling degrades the run once this many steps fell back to
	// deterministic paths.
	FallbackCeiling int
	// ConfidenceFloor is the confidence below which a report counts as low.
	ConfidenceFloor float64
	// RiskCountFloor is how many high/critical reports it takes, together
	// with low confidence, to pause the run.
	RiskCountFloor int
}

// DefaultThresholds mirrors the configuration defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		FallbackCeiling: 3,
		ConfidenceFloor: 0.5,
		RiskCountFloor:  2,
	}
}

// Engine evaluates governance checkpoints.
type Engine struct {
	thresholds Thresholds
}

func NewEngine(t Thresholds) *Engine {
	if t.FallbackCeiling <= 0 {
		t.FallbackCeiling = DefaultThresholds().FallbackCeiling
	}
	if t.ConfidenceFloor <= 0 {
		t.ConfidenceFloor = DefaultThresholds().ConfidenceFloor
	}
	if t.RiskCountFloor <= 0 {
		t.RiskCountFloor = DefaultThresholds().RiskCountFloor
	}
	return &Engine{thresholds: t}
}

// Decide computes a fresh decision from the current facts. It is a pure
// function of (reports, conflicts, totalCost, budgetLimit, fallbackCount):
// identical inputs produce an identical mode and reasoning. Every decision
// carries the metrics and the full conflict list considered, whichever rule
// fired.
func (e *Engine) Decide(reports []model.StepReport, conflicts []model.Conflict, totalCost, budgetLimit float64, fallbackCount int) model.Decision {
	highRisk := 0
	lowConfidence := 0
	for _, r := range reports {
		if r.RiskTier.AtLeast(model.RiskHigh) {
			highRisk++
		}
		if r.Confidence < e.thresholds.ConfidenceFloor {
			lowConfidence++
		}
	}

	d := model.Decision{
		Conflicts: conflicts,
		Metrics: model.DecisionMetrics{
			TotalCost:          totalCost,
			BudgetLimit:        budgetLimit,
			FallbackCount:      fallbackCount,
			ReportCount:        len(reports),
			HighRiskCount:      highRisk,
			LowConfidenceCount: lowConfidence,
		},
		DecidedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}

	// Strict first-match cascade.
	switch {
	case hasHardConflict(conflicts):
		c := firstHardConflict(conflicts)
		d.Mode = model.ModePaused
		d.Reasoning = fmt.Sprintf("hard conflict %s: %s", c.Type, c.Evidence)
		d.Restrictions = []string{"no further dispatch"}
	case totalCost > budgetLimit:
		d.Mode = model.ModeDegraded
		d.Reasoning = fmt.Sprintf("total cost %.2f exceeds budget limit %.2f", totalCost, budgetLimit)
		d.Restrictions = []string{"required nodes only", "no high-cost steps"}
	case highRisk >= e.thresholds.RiskCountFloor && lowConfidence >= 2:
		d.Mode = model.ModePaused
		d.Reasoning = fmt.Sprintf("%d high-risk reports with %d reports below confidence %.2f", highRisk, lowConfidence, e.thresholds.ConfidenceFloor)
		d.Restrictions = []string{"no further dispatch"}
	case fallbackCount >= e.thresholds.FallbackCeiling:
		d.Mode = model.ModeDegraded
		d.Reasoning = fmt.Sprintf("fallback count %d reached ceiling %d", fallbackCount, e.thresholds.FallbackCeiling)
		d.Restrictions = []string{"required nodes only"}
	case hasSoftConflict(conflicts):
		c := firstSoftConflict(conflicts)
		d.Mode = model.ModeMinimal
		d.Reasoning = fmt.Sprintf("soft conflict %s: %s", c.Type, c.Evidence)
		d.Restrictions = []string{"minimal plan only"}
	default:
		d.Mode = model.ModeNormal
		d.Reasoning = "no conflicts, cost within budget"
	}
	return d
}

func hasHardConflict(conflicts []model.Conflict) bool {
	return firstHardConflict(conflicts) != nil
}

func firstHardConflict(conflicts []model.Conflict) *model.Conflict {
	for i := range conflicts {
		if conflicts[i].Severity == model.SeverityHard {
			return &conflicts[i]
		}
	}
	return nil
}

func hasSoftConflict(conflicts []model.Conflict) bool {
	return firstSoftConflict(conflicts) != nil
}

func firstSoftConflict(conflicts []model.Conflict) *model.Conflict {
	for i := range conflicts {
		if conflicts[i].Severity == model.SeveritySoft {
			return &conflicts[i]
		}
	}
	return nil
}
