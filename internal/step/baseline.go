package step

import (
	"context"

	"github.com/msageha/conductor/internal/model"
)

// RegisterBaseline installs deterministic implementations of the standard
// capabilities so goal files run without custom step wiring. Real
// deployments replace these with their own registrations.
func RegisterBaseline(r *Registry, budgetFloor float64) error {
	baseline := map[string]Step{
		"requirements_analysis": Func{
			Question: "are the requirements clear enough to proceed?",
			Fn: func(ctx context.Context, runID string, signals model.Signals) (Result, error) {
				return Result{
					Decision:    "continue",
					Reason:      "requirements captured",
					StateUpdate: model.Signals{"requirements_ready": true},
				}, nil
			},
		},
		"data_collection": Func{
			Question: "is the input data available and usable?",
			Fn: func(ctx context.Context, runID string, signals model.Signals) (Result, error) {
				return Result{
					Decision:    "continue",
					Reason:      "inputs collected",
					StateUpdate: model.Signals{"data_ready": true},
				}, nil
			},
		},
		"build": Func{
			Question: "was the deliverable produced?",
			Fn: func(ctx context.Context, runID string, signals model.Signals) (Result, error) {
				return Result{
					Decision:    "continue",
					Reason:      "deliverable produced",
					StateUpdate: model.Signals{"artifact_ready": true},
				}, nil
			},
		},
		"quality_review": Func{
			Question: "does the deliverable meet the quality bar?",
			Fn: func(ctx context.Context, runID string, signals model.Signals) (Result, error) {
				if ready, ok := signals["artifact_ready"].(bool); ok && !ready {
					return Result{
						Decision:    "rejected",
						Reason:      "no artifact to review",
						StateUpdate: model.Signals{"failure_cause": "execution"},
					}, nil
				}
				return Result{Decision: "approve", Reason: "quality bar met"}, nil
			},
		},
		"cost_check": Func{
			Question: "is the remaining budget sufficient?",
			Fn: func(ctx context.Context, runID string, signals model.Signals) (Result, error) {
				remaining, ok := signals.Float("budget_remaining")
				if ok && remaining < budgetFloor {
					return Result{
						Decision: "warning",
						Reason:   "remaining budget below floor",
					}, nil
				}
				return Result{Decision: "continue", Reason: "budget healthy"}, nil
			},
		},
		"release_approval": Func{
			Question: "is this delivery approved for release?",
			Fn: func(ctx context.Context, runID string, signals model.Signals) (Result, error) {
				if ready, ok := signals["artifact_ready"].(bool); !ok || !ready {
					return Result{Decision: "rejected", Reason: "nothing to release"}, nil
				}
				return Result{Decision: "approve", Reason: "release approved"}, nil
			},
		},
	}

	for name, s := range baseline {
		if err := r.Register(name, s); err != nil {
			return err
		}
	}
	return nil
}
