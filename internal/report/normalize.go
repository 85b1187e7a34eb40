// Package report turns heterogeneous step output into normalized signals and
// finds deterministic cross-step disagreements over them.
package report

import (
	"github.com/msageha/conductor/internal/model"
	"github.com/msageha/conductor/internal/step"
)

// Decisions that force an error-status report.
var errorDecisions = map[string]bool{
	"terminate": true,
	"failed":    true,
	"rejected":  true,
}

// Decisions that force a warning-status report.
var warningDecisions = map[string]bool{
	"warning":  true,
	"degraded": true,
}

var hintConfidence = map[string]float64{
	"low":    0.3,
	"medium": 0.6,
	"high":   0.9,
}

// Normalize derives a StepReport from one step's result. The report is a
// pure function of its inputs and is never mutated afterwards.
//
// Status defaults to success and is forced to error (risk high) or warning
// (risk medium) by the decision. Confidence starts at 1.0, drops to 0.5 on
// any fallback-to-deterministic path, else follows an explicit hint.
func Normalize(stepName string, res step.Result) model.StepReport {
	r := model.StepReport{
		ID:         model.NewID(model.IDTypeReport),
		Step:       stepName,
		Decision:   res.Decision,
		Status:     model.ReportStatusSuccess,
		Confidence: 1.0,
		RiskTier:   model.RiskLow,
		Signals:    res.StateUpdate,
	}

	if tier, ok := model.Signals(res.StateUpdate).String("risk_tier"); ok {
		switch model.RiskTier(tier) {
		case model.RiskLow, model.RiskMedium, model.RiskHigh, model.RiskCritical:
			r.RiskTier = model.RiskTier(tier)
		}
	}

	switch {
	case errorDecisions[res.Decision]:
		r.Status = model.ReportStatusError
		if !r.RiskTier.AtLeast(model.RiskHigh) {
			r.RiskTier = model.RiskHigh
		}
	case warningDecisions[res.Decision]:
		r.Status = model.ReportStatusWarning
		if !r.RiskTier.AtLeast(model.RiskMedium) {
			r.RiskTier = model.RiskMedium
		}
	}

	if res.Call != nil {
		if res.Call.Fallback {
			r.Fallback = true
			r.Confidence = 0.5
		} else if c, ok := hintConfidence[res.Call.ConfidenceHint]; ok {
			r.Confidence = c
		}
	}

	if cost, ok := model.Signals(res.StateUpdate).Float("cost_impact"); ok {
		r.CostImpact = cost
	}

	return r
}
