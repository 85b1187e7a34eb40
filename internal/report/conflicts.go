package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/msageha/conductor/internal/model"
)

// Step classification is by capability name. The sets are deliberately
// substring-based: platforms name steps things like "release_approval" or
// "quality_review".
func isApprovalStep(name string) bool {
	return strings.Contains(name, "approval") || strings.Contains(name, "signoff")
}

func isQualityStep(name string) bool {
	return strings.Contains(name, "quality") || strings.Contains(name, "evaluation") || strings.Contains(name, "verify")
}

func isCostStep(name string) bool {
	return strings.Contains(name, "cost") || strings.Contains(name, "budget")
}

// isKeyStep marks the steps whose low confidence matters for clustering.
func isKeyStep(name string) bool {
	return isApprovalStep(name) || isQualityStep(name) || isCostStep(name) || strings.Contains(name, "data")
}

var positiveDecisions = map[string]bool{
	"approve":  true,
	"approved": true,
	"continue": true,
	"proceed":  true,
	"pass":     true,
	"passed":   true,
}

var negativeDecisions = map[string]bool{
	"reject":    true,
	"rejected":  true,
	"failed":    true,
	"terminate": true,
	"block":     true,
}

// clusterConfidenceFloor is the fixed threshold of the low-confidence rule.
// It is part of the conflict definition, unlike the governance engine's
// configurable floor.
const clusterConfidenceFloor = 0.5

// DetectConflicts applies every conflict rule to the current report set and
// mirrors each conflict onto the reports it names, replacing whatever an
// earlier detection pass attached. The rules are independent: any number may
// fire. Detection is pure, so the same reports and floor always yield the
// same conflicts in a fixed order.
func DetectConflicts(reports []model.StepReport, budgetFloor float64) []model.Conflict {
	var conflicts []model.Conflict

	if c := decisionMismatch(reports); c != nil {
		conflicts = append(conflicts, *c)
	}
	if c := lowConfidenceCluster(reports); c != nil {
		conflicts = append(conflicts, *c)
	}
	if c := riskEscalation(reports); c != nil {
		conflicts = append(conflicts, *c)
	}
	if c := budgetWarning(reports, budgetFloor); c != nil {
		conflicts = append(conflicts, *c)
	}

	attachConflicts(reports, conflicts)
	return conflicts
}

// attachConflicts writes each conflict into every report whose step it
// involves. The set is rebuilt from scratch on every pass: detection runs
// after each dispatch and a conflict can stop firing as reports accumulate.
func attachConflicts(reports []model.StepReport, conflicts []model.Conflict) {
	for i := range reports {
		reports[i].Conflicts = nil
	}
	for _, c := range conflicts {
		involved := make(map[string]bool, len(c.Steps))
		for _, s := range c.Steps {
			involved[s] = true
		}
		for i := range reports {
			if involved[reports[i].Step] {
				reports[i].Conflicts = append(reports[i].Conflicts, c)
			}
		}
	}
}

// decisionMismatch fires when an approval step and a quality step disagree.
func decisionMismatch(reports []model.StepReport) *model.Conflict {
	for _, a := range reports {
		if !isApprovalStep(a.Step) {
			continue
		}
		for _, q := range reports {
			if !isQualityStep(q.Step) {
				continue
			}
			mismatch := (positiveDecisions[a.Decision] && negativeDecisions[q.Decision]) ||
				(negativeDecisions[a.Decision] && positiveDecisions[q.Decision])
			if mismatch {
				return &model.Conflict{
					Type:            model.ConflictDecisionMismatch,
					Steps:           []string{a.Step, q.Step},
					Evidence:        fmt.Sprintf("%s decided %q but %s decided %q", a.Step, a.Decision, q.Step, q.Decision),
					Severity:        model.SeverityHard,
					SuggestedAction: "pause and reconcile the disagreement before continuing",
				}
			}
		}
	}
	return nil
}

// lowConfidenceCluster fires when two or more key steps report confidence
// below the cluster floor.
func lowConfidenceCluster(reports []model.StepReport) *model.Conflict {
	var low []string
	for _, r := range reports {
		if isKeyStep(r.Step) && r.Confidence < clusterConfidenceFloor {
			low = append(low, r.Step)
		}
	}
	if len(low) < 2 {
		return nil
	}
	sort.Strings(low)
	return &model.Conflict{
		Type:            model.ConflictLowConfidenceCluster,
		Steps:           low,
		Evidence:        fmt.Sprintf("%d key steps below confidence %.1f", len(low), clusterConfidenceFloor),
		Severity:        model.SeveritySoft,
		SuggestedAction: "reduce scope or re-run the low-confidence steps",
	}
}

// riskEscalation fires on any high/critical risk report. It is hard when two
// or more such reports exist, soft for a single one.
func riskEscalation(reports []model.StepReport) *model.Conflict {
	var risky []string
	for _, r := range reports {
		if r.RiskTier.AtLeast(model.RiskHigh) {
			risky = append(risky, r.Step)
		}
	}
	if len(risky) == 0 {
		return nil
	}
	severity := model.SeveritySoft
	if len(risky) >= 2 {
		severity = model.SeverityHard
	}
	sort.Strings(risky)
	return &model.Conflict{
		Type:            model.ConflictRiskEscalation,
		Steps:           risky,
		Evidence:        fmt.Sprintf("%d reports at high or critical risk", len(risky)),
		Severity:        severity,
		SuggestedAction: "escalate risk review",
	}
}

// budgetWarning fires when a cost step says continue while its own
// remaining-budget signal is already below the floor.
func budgetWarning(reports []model.StepReport, budgetFloor float64) *model.Conflict {
	for _, r := range reports {
		if !isCostStep(r.Step) || r.Decision != "continue" {
			continue
		}
		remaining, ok := r.Signals.Float("budget_remaining")
		if !ok || remaining >= budgetFloor {
			continue
		}
		return &model.Conflict{
			Type:            model.ConflictBudgetWarning,
			Steps:           []string{r.Step},
			Evidence:        fmt.Sprintf("%s continued with budget_remaining=%.2f below floor %.2f", r.Step, remaining, budgetFloor),
			Severity:        model.SeveritySoft,
			SuggestedAction: "switch to the degraded plan",
		}
	}
	return nil
}
