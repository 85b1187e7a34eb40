// Package orchestrator drives a single run: it expands the selected plan
// into the graph, dispatches one step at a time, checkpoints governance
// after every dispatch, swaps plans when governance tightens, and persists
// the run's audit artifacts on termination.
package orchestrator

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/msageha/conductor/internal/audit"
	"github.com/msageha/conductor/internal/dag"
	"github.com/msageha/conductor/internal/governance"
	"github.com/msageha/conductor/internal/ledger"
	"github.com/msageha/conductor/internal/lock"
	"github.com/msageha/conductor/internal/model"
	"github.com/msageha/conductor/internal/optimize"
	"github.com/msageha/conductor/internal/plan"
	"github.com/msageha/conductor/internal/report"
	"github.com/msageha/conductor/internal/step"
)

type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

func ParseLogLevel(s string) LogLevel {
	switch strings.ToLower(s) {
	case "debug":
		return LogLevelDebug
	case "info":
		return LogLevelInfo
	case "warn", "warning":
		return LogLevelWarn
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// RunResult is the user-visible outcome of one run. Status is only ever
// completed or failed; degraded and minimal runs complete normally with a
// smaller executed set, explained in the trace.
type RunResult struct {
	RunID        string
	Status       model.RunStatus
	Reason       string
	Executed     []ExecutedStep
	LastDecision model.Decision
	FinalContext model.Signals
}

// Orchestrator owns one run's control flow. All collaborators are injected;
// it holds no global state and one instance drives exactly one run.
type Orchestrator struct {
	runDir   string
	graph    *dag.Graph
	steps    *step.Registry
	selector *plan.Selector
	engine   *governance.Engine
	ledger   *ledger.Ledger
	trace    *Trace
	cfg      model.Config
	logger   *log.Logger
	logLevel LogLevel
}

func New(runDir string, steps *step.Registry, selector *plan.Selector, engine *governance.Engine, led *ledger.Ledger, cfg model.Config, logger *log.Logger) *Orchestrator {
	return &Orchestrator{
		runDir:   runDir,
		graph:    dag.New(),
		steps:    steps,
		selector: selector,
		engine:   engine,
		ledger:   led,
		trace:    NewTrace(),
		cfg:      cfg,
		logger:   logger,
		logLevel: ParseLogLevel(cfg.Logging.Level),
	}
}

// Graph exposes the run's graph, mainly for inspection in tests and for
// pre-seeding nodes from a goal file before Run.
func (o *Orchestrator) Graph() *dag.Graph {
	return o.graph
}

// SetAuditLog mirrors every trace event into a durable audit stream.
// Must be called before Run.
func (o *Orchestrator) SetAuditLog(a *audit.Logger) {
	o.trace.SetSink(func(e TraceEvent) {
		if err := a.Log(e.Kind, e.Node, e.Detail); err != nil {
			o.log(LogLevelWarn, "audit log write failed: %v", err)
		}
	})
}

// Run executes the full loop for runID and always returns a result; only
// lock acquisition and artifact flushing surface as errors. Step failures,
// governance pauses, and required-node failures terminate the run failed
// with the reason embedded in the result and the manifest.
func (o *Orchestrator) Run(ctx context.Context, runID string) (RunResult, error) {
	fl, err := lock.LockRunDir(o.runDir)
	if err != nil {
		return RunResult{}, fmt.Errorf("lock run dir: %w", err)
	}
	defer fl.Unlock()

	watcher, err := o.ledger.Watch()
	if err != nil {
		o.log(LogLevelWarn, "ledger watch unavailable: %v", err)
	} else {
		go func() {
			for note := range watcher.Notes() {
				o.trace.Append(EventNote, "", map[string]any{"note": note})
			}
		}()
		defer watcher.Close()
	}

	res := o.run(ctx, runID)

	o.trace.Append(EventFinal, "", map[string]any{
		"status": string(res.Status),
		"reason": res.Reason,
	})

	if err := o.flush(runID, res); err != nil {
		return res, err
	}
	return res, nil
}

func (o *Orchestrator) run(ctx context.Context, runID string) RunResult {
	res := RunResult{RunID: runID, FinalContext: model.Signals{}}
	signals := res.FinalContext

	var (
		reports          []model.StepReport
		fallbackCount    int
		lastFailureCause string
		currentPlan      string
		executedSteps    = map[string]bool{}
	)

	total, lerr := o.ledger.Total()
	if lerr != nil {
		o.log(LogLevelWarn, "ledger read failed: %v", lerr)
	}
	signals["budget_remaining"] = o.cfg.Budget.Limit - total

	// Phase budgets are fixed up front so steps can read their share from
	// the signal map.
	stageBudgets := optimize.SplitBudget(o.cfg.Budget.Limit, o.cfg.Optimizer.StageWeights)
	for stage, share := range stageBudgets {
		signals["stage_budget_"+stage] = share
	}
	o.recordFrontier()

	// A graph pre-seeded from a goal file is taken as-is; otherwise the
	// selector's initial plan is expanded into the empty graph.
	if len(o.graph.Nodes()) > 0 {
		currentPlan = "goal"
	} else {
		sel, err := o.selector.Select(model.ModeNormal, o.cfg.Budget.Limit-total, "")
		if err != nil {
			res.Status = model.RunStatusFailed
			res.Reason = fmt.Sprintf("initial plan selection: %v", err)
			return res
		}
		currentPlan = sel.Plan.Name
		o.recordSelection(sel)
		o.expandPlan(sel.Plan, signals, executedSteps)
	}
	o.prioritize()
	o.graph.TakeSnapshot()

	for {
		if err := ctx.Err(); err != nil {
			res.Status = model.RunStatusFailed
			res.Reason = fmt.Sprintf("run cancelled: %v", err)
			return res
		}

		order := o.graph.ExecutableOrder(signals)
		if len(order) == 0 {
			status, reason := o.terminalState()
			res.Status = status
			res.Reason = reason
			return res
		}
		nodeID := order[0]
		node, _ := o.graph.Node(nodeID)

		// Conditions are re-checked against the live signal map right
		// before dispatch; a node that no longer qualifies is skipped,
		// never re-queued.
		if node.Condition != nil && !node.Condition.Evaluate(signals) {
			_ = o.graph.SkipNode(nodeID, "condition no longer satisfied at dispatch")
			o.trace.Append(EventTransition, nodeID, map[string]any{
				"to":     string(model.NodeStatusSkipped),
				"reason": "condition no longer satisfied at dispatch",
			})
			continue
		}

		rep, dispatchErr := o.dispatch(ctx, runID, node, signals)
		executedSteps[node.Step] = true
		if dispatchErr != nil {
			res.Status = model.RunStatusFailed
			res.Reason = fmt.Sprintf("step %q failed: %v", node.Step, dispatchErr)
			res.Executed = append(res.Executed, ExecutedStep{
				NodeID: nodeID, Step: node.Step, Status: model.ReportStatusError,
			})
			return res
		}
		reports = append(reports, rep)
		if rep.Fallback {
			fallbackCount++
		}
		res.Executed = append(res.Executed, ExecutedStep{
			NodeID:   nodeID,
			Step:     node.Step,
			Decision: rep.Decision,
			Status:   rep.Status,
		})

		if rep.Status == model.ReportStatusError {
			lastFailureCause = failureCause(node.Step, rep)
			signals["last_failure_cause"] = lastFailureCause
		}

		// Total cost always comes from the ledger file, never from an
		// accumulated delta, so writes by other processes count.
		if t, err := o.ledger.Total(); err == nil {
			total = t
		} else {
			o.log(LogLevelWarn, "ledger read failed, keeping previous total: %v", err)
			o.trace.Append(EventNote, nodeID, map[string]any{"note": fmt.Sprintf("ledger read failed: %v", err)})
		}
		signals["budget_remaining"] = o.cfg.Budget.Limit - total

		conflicts := report.DetectConflicts(reports, o.cfg.Budget.Floor)
		decision := o.checkpoint(reports, conflicts, total, fallbackCount)
		res.LastDecision = decision

		switch decision.Mode {
		case model.ModePaused:
			res.Status = model.RunStatusFailed
			res.Reason = decision.Reasoning
			return res
		case model.ModeDegraded, model.ModeMinimal:
			newSel, err := o.selector.Select(decision.Mode, o.cfg.Budget.Limit-total, lastFailureCause)
			if err != nil {
				// An unusable selector must not strand the run in a
				// tightened mode it can no longer act on; the run falls
				// back to an explicit unrestricted decision, same as a
				// governance panic.
				fallback := model.Decision{
					Mode:      model.ModeNormal,
					Reasoning: fmt.Sprintf("plan selection failed (%v): defaulting to normal, no restrictions", err),
					DecidedAt: time.Now().UTC().Format(time.RFC3339Nano),
				}
				res.LastDecision = fallback
				o.log(LogLevelWarn, "plan selection failed, keeping plan %q: %v", currentPlan, err)
				o.trace.Append(EventGovernance, "", map[string]any{
					"mode":      string(fallback.Mode),
					"reasoning": fallback.Reasoning,
				})
				continue
			}
			o.recordSelection(newSel)
			if newSel.Plan.Name != currentPlan {
				o.swapPlan(newSel.Plan, signals, executedSteps)
				o.prioritize()
				currentPlan = newSel.Plan.Name
			}
		}
	}
}

// dispatch runs one node's step and normalizes the outcome. The step error
// is returned to the caller exactly once; the node status and trace are
// updated here either way.
func (o *Orchestrator) dispatch(ctx context.Context, runID string, node model.Node, signals model.Signals) (model.StepReport, error) {
	if node.Status == model.NodeStatusPending {
		_ = o.graph.SetStatus(node.ID, model.NodeStatusReady)
	}
	_ = o.graph.SetStatus(node.ID, model.NodeStatusRunning)
	o.trace.Append(EventTransition, node.ID, map[string]any{"to": string(model.NodeStatusRunning)})

	s, ok := o.steps.Resolve(node.Step)
	if !ok {
		_ = o.graph.SetStatus(node.ID, model.NodeStatusFailed)
		return model.StepReport{}, fmt.Errorf("no step registered for capability %q", node.Step)
	}

	o.log(LogLevelInfo, "dispatch node=%s step=%s", node.ID, node.Step)
	result, err := execute(ctx, runID, s, signals)
	if err != nil {
		_ = o.graph.SetStatus(node.ID, model.NodeStatusFailed)
		o.trace.Append(EventDispatch, node.ID, map[string]any{
			"step":  node.Step,
			"error": err.Error(),
		})
		return model.StepReport{}, err
	}

	for k, v := range result.StateUpdate {
		signals[k] = v
	}

	rep := report.Normalize(node.Step, result)
	cost := rep.CostImpact
	if cost == 0 {
		cost = node.CostEstimate
	}
	if _, err := o.ledger.Record(node.ID, node.Step, cost, ""); err != nil {
		o.log(LogLevelWarn, "ledger record failed: %v", err)
	}

	to := model.NodeStatusCompleted
	if rep.Status == model.ReportStatusError {
		to = model.NodeStatusFailed
	}
	_ = o.graph.SetStatus(node.ID, to)
	o.trace.Append(EventDispatch, node.ID, map[string]any{
		"step":       node.Step,
		"decision":   rep.Decision,
		"status":     string(rep.Status),
		"confidence": rep.Confidence,
		"cost":       cost,
	})
	o.trace.Append(EventTransition, node.ID, map[string]any{"to": string(to)})

	return rep, nil
}

// execute shields the loop from a panicking step implementation: the panic
// surfaces as an ordinary step error, so the run terminates failed and its
// artifacts still flush.
func execute(ctx context.Context, runID string, s step.Step, signals model.Signals) (result step.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("step panicked: %v", r)
		}
	}()
	return s.Execute(ctx, runID, signals)
}

// checkpoint evaluates governance, never letting an internal failure stop
// the run: a panic degrades to an explicit normal decision carrying the
// failure in its reasoning.
func (o *Orchestrator) checkpoint(reports []model.StepReport, conflicts []model.Conflict, total float64, fallbackCount int) (decision model.Decision) {
	defer func() {
		if r := recover(); r != nil {
			decision = model.Decision{
				Mode:      model.ModeNormal,
				Reasoning: fmt.Sprintf("governance evaluation failed (%v): defaulting to normal, no restrictions", r),
				DecidedAt: time.Now().UTC().Format(time.RFC3339Nano),
			}
			o.trace.Append(EventGovernance, "", map[string]any{
				"mode":      string(decision.Mode),
				"reasoning": decision.Reasoning,
			})
		}
	}()

	decision = o.engine.Decide(reports, conflicts, total, o.cfg.Budget.Limit, fallbackCount)
	o.trace.Append(EventGovernance, "", map[string]any{
		"mode":       string(decision.Mode),
		"reasoning":  decision.Reasoning,
		"conflicts":  len(decision.Conflicts),
		"total_cost": decision.Metrics.TotalCost,
	})
	o.log(LogLevelDebug, "checkpoint mode=%s reasoning=%q", decision.Mode, decision.Reasoning)
	return decision
}

// expandPlan adds the plan's nodes to the graph, skipping steps that have
// already been dispatched this run and nodes whose condition fails now.
func (o *Orchestrator) expandPlan(p model.Plan, signals model.Signals, executedSteps map[string]bool) {
	idMap := make(map[string]string)
	for _, pn := range p.Nodes {
		if executedSteps[pn.Step] {
			continue
		}
		if !pn.Condition.Evaluate(signals) {
			continue
		}
		n := pn.Node()
		if _, exists := o.graph.Node(n.ID); exists {
			n.ID = p.Name + "-" + n.ID
		}
		idMap[pn.ID] = n.ID
		for i, dep := range n.DependsOn {
			if mapped, ok := idMap[dep]; ok {
				n.DependsOn[i] = mapped
			}
		}
		if err := o.graph.AddNode(n, fmt.Sprintf("plan %s v%s", p.Name, p.Version)); err != nil {
			o.log(LogLevelWarn, "add plan node %s: %v", n.ID, err)
		}
	}
}

// swapPlan replaces the remaining unexecuted node stream with the new
// plan's nodes. Terminal nodes stay in the graph as history.
func (o *Orchestrator) swapPlan(p model.Plan, signals model.Signals, executedSteps map[string]bool) {
	o.graph.TakeSnapshot()
	for _, n := range o.graph.Nodes() {
		if model.IsNodeTerminal(n.Status) || n.Status == model.NodeStatusRunning {
			continue
		}
		_ = o.graph.RemoveNode(n.ID, fmt.Sprintf("superseded by plan %s", p.Name))
	}
	o.expandPlan(p, signals, executedSteps)
	o.log(LogLevelInfo, "plan swapped to %s v%s", p.Name, p.Version)
}

// recordFrontier writes the optimizer's pruning verdict over the plan
// catalogue into the trace, one entry per surviving candidate and one note
// per discard, so the manifest reader can see why a plan was off the table.
func (o *Orchestrator) recordFrontier() {
	fr := o.selector.Frontier()
	survivors := make([]string, 0, len(fr.Frontier))
	for _, c := range fr.Frontier {
		survivors = append(survivors, c.PlanID)
	}
	discarded := make(map[string]string, len(fr.Discarded))
	for _, d := range fr.Discarded {
		discarded[d.Candidate.PlanID] = d.Reason
	}
	o.trace.Append(EventFrontier, "", map[string]any{
		"survivors": survivors,
		"discarded": discarded,
	})
}

// prioritize recomputes scheduling priorities over the live graph and stores
// them as the executable-order tie-break preference. Dependencies still rule;
// priorities only break ties among simultaneously ready nodes.
func (o *Orchestrator) prioritize() {
	nodes := o.graph.Nodes()
	if len(nodes) == 0 {
		return
	}
	priorities := optimize.AssignPriorities(nodes, o.cfg.Optimizer.CostThreshold)
	sort.SliceStable(priorities, func(i, j int) bool {
		return priorities[i].Priority > priorities[j].Priority
	})
	ids := make([]string, 0, len(priorities))
	for _, p := range priorities {
		ids = append(ids, p.NodeID)
	}
	if err := o.graph.ReorderNodes(ids, "scheduling priority"); err != nil {
		o.log(LogLevelWarn, "priority reorder failed: %v", err)
	}
}

func (o *Orchestrator) recordSelection(sel plan.Selection) {
	o.trace.Append(EventPlanSelection, "", map[string]any{
		"plan":      sel.Plan.Name,
		"version":   sel.Plan.Version,
		"reasoning": sel.Reasoning,
	})
	o.log(LogLevelInfo, "plan selected name=%s reasoning=%q", sel.Plan.Name, sel.Reasoning)
}

// terminalState decides the run outcome once no node is executable:
// completed only when every required node finished or was legitimately
// skipped, failed otherwise with the first offending node named.
func (o *Orchestrator) terminalState() (model.RunStatus, string) {
	for _, n := range o.graph.Nodes() {
		if !n.Required {
			continue
		}
		switch n.Status {
		case model.NodeStatusFailed:
			return model.RunStatusFailed, fmt.Sprintf("required node %s (%s) failed", n.ID, n.Step)
		case model.NodeStatusCompleted, model.NodeStatusSkipped, model.NodeStatusMerged:
		default:
			return model.RunStatusFailed, fmt.Sprintf("required node %s (%s) never became executable", n.ID, n.Step)
		}
	}
	return model.RunStatusCompleted, "all required nodes completed or skipped"
}

func (o *Orchestrator) flush(runID string, res RunResult) error {
	return flushArtifacts(o.runDir,
		o.graph.Evolution(runID),
		traceFile{
			SchemaVersion: 1,
			FileType:      "execution_trace",
			RunID:         runID,
			Events:        o.trace.Events(),
			FinalContext:  res.FinalContext,
		},
		manifestFile{
			SchemaVersion: 1,
			FileType:      "delivery_manifest",
			RunID:         runID,
			Status:        res.Status,
			FailureReason: res.Reason,
			Steps:         res.Executed,
			FinishedAt:    time.Now().UTC().Format(time.RFC3339Nano),
		},
	)
}

// failureCause classifies a failed step for the selector's feedback rule.
func failureCause(stepName string, rep model.StepReport) string {
	if cause, ok := rep.Signals.String("failure_cause"); ok && cause != "" {
		return cause
	}
	name := strings.ToLower(stepName)
	switch {
	case strings.Contains(name, "data"):
		return "data"
	case strings.Contains(name, "cost") || strings.Contains(name, "budget"):
		return "cost"
	default:
		return "execution"
	}
}

func (o *Orchestrator) log(level LogLevel, format string, args ...any) {
	if level < o.logLevel || o.logger == nil {
		return
	}
	levelStr := "INFO"
	switch level {
	case LogLevelDebug:
		levelStr = "DEBUG"
	case LogLevelWarn:
		levelStr = "WARN"
	case LogLevelError:
		levelStr = "ERROR"
	}
	msg := fmt.Sprintf(format, args...)
	o.logger.Printf("%s %s orchestrator: %s", time.Now().Format(time.RFC3339), levelStr, msg)
}
