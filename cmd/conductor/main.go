package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/msageha/conductor/internal/audit"
	"github.com/msageha/conductor/internal/dag"
	"github.com/msageha/conductor/internal/governance"
	"github.com/msageha/conductor/internal/ledger"
	"github.com/msageha/conductor/internal/model"
	"github.com/msageha/conductor/internal/orchestrator"
	"github.com/msageha/conductor/internal/plan"
	"github.com/msageha/conductor/internal/step"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		runRun(os.Args[2:])
	case "plans":
		runPlans(os.Args[2:])
	case "version":
		fmt.Printf("conductor %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runRun(args []string) {
	var goalPath, runDir, configPath string

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--goal":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "--goal requires a value")
				os.Exit(1)
			}
			i++
			goalPath = args[i]
		case "--dir":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "--dir requires a value")
				os.Exit(1)
			}
			i++
			runDir = args[i]
		case "--config":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "--config requires a value")
				os.Exit(1)
			}
			i++
			configPath = args[i]
		default:
			fmt.Fprintf(os.Stderr, "unknown flag: %s\n", args[i])
			os.Exit(1)
		}
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	runID := model.NewID(model.IDTypeRun)
	if runDir == "" {
		runDir = filepath.Join(".conductor", "runs", runID)
	}
	if err := os.MkdirAll(runDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "create run dir: %v\n", err)
		os.Exit(1)
	}

	steps := step.NewRegistry()
	if err := step.RegisterBaseline(steps, cfg.Budget.Floor); err != nil {
		fmt.Fprintf(os.Stderr, "register steps: %v\n", err)
		os.Exit(1)
	}

	registry, err := plan.DefaultCatalog(cfg.Budget.Floor)
	if err != nil {
		fmt.Fprintf(os.Stderr, "plan catalog: %v\n", err)
		os.Exit(1)
	}
	selector := plan.NewSelector(registry, cfg.Budget.Floor, cfg.Optimizer.FrontierCap)
	engine := governance.NewEngine(governance.Thresholds{
		FallbackCeiling: cfg.Governance.FallbackCeiling,
		ConfidenceFloor: cfg.Governance.ConfidenceFloor,
		RiskCountFloor:  cfg.Governance.RiskCountFloor,
	})
	led := ledger.New(runDir)
	logger := log.New(os.Stderr, "", 0)

	orch := orchestrator.New(runDir, steps, selector, engine, led, cfg, logger)

	auditLog, err := audit.NewLogger(filepath.Join(runDir, "audit.jsonl"), runID, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open audit log: %v\n", err)
		os.Exit(1)
	}
	defer auditLog.Close()
	orch.SetAuditLog(auditLog)

	if goalPath != "" {
		if err := seedGoal(orch.Graph(), steps, goalPath); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := orch.Run(ctx, runID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "run %s: %v\n", runID, err)
		os.Exit(1)
	}

	fmt.Printf("run:      %s\n", res.RunID)
	fmt.Printf("status:   %s\n", res.Status)
	if res.Reason != "" {
		fmt.Printf("reason:   %s\n", res.Reason)
	}
	fmt.Printf("steps:    %d dispatched\n", len(res.Executed))
	fmt.Printf("artifacts: %s\n", runDir)

	if res.Status != model.RunStatusCompleted {
		os.Exit(1)
	}
}

// seedGoal expands a goal file into the run's graph, failing fast on
// unresolvable capabilities and dependency cycles.
func seedGoal(g *dag.Graph, steps *step.Registry, goalPath string) error {
	goal, err := model.LoadGoal(goalPath)
	if err != nil {
		return err
	}

	for _, n := range goal.Nodes {
		if _, ok := steps.Resolve(n.Step); !ok {
			return fmt.Errorf("goal node %q needs capability %q, which is not registered", n.ID, n.Step)
		}
	}

	reason := fmt.Sprintf("goal %s", goal.Name)
	for _, pn := range goal.Nodes {
		if err := g.AddNode(pn.Node(), reason); err != nil {
			return fmt.Errorf("add goal node %q: %w", pn.ID, err)
		}
	}
	for _, pn := range goal.Nodes {
		for _, dep := range pn.DependsOn {
			if err := g.AddEdge(dep, pn.ID, reason); err != nil {
				var ge *dag.GraphError
				if errors.As(err, &ge) {
					return fmt.Errorf("goal has a dependency cycle: %s", strings.Join(ge.Cycle, " -> "))
				}
				return fmt.Errorf("wire %s -> %s: %w", dep, pn.ID, err)
			}
		}
	}
	return nil
}

func runPlans(args []string) {
	var configPath string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--config":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "--config requires a value")
				os.Exit(1)
			}
			i++
			configPath = args[i]
		default:
			fmt.Fprintf(os.Stderr, "unknown flag: %s\n", args[i])
			os.Exit(1)
		}
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	registry, err := plan.DefaultCatalog(cfg.Budget.Floor)
	if err != nil {
		fmt.Fprintf(os.Stderr, "plan catalog: %v\n", err)
		os.Exit(1)
	}

	for _, name := range registry.Names() {
		p, _ := registry.Get(name)
		fmt.Printf("%-10s v%-8s %d nodes\n", p.Name, p.Version, len(p.Nodes))
	}
}

func loadConfig(path string) (model.Config, error) {
	if path == "" {
		return model.DefaultConfig(), nil
	}
	return model.LoadConfig(path)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `conductor %s - task delivery control core

Usage: conductor <command> [options]

Commands:
  run [options]     Execute one run
    --goal <file>     Goal decomposition YAML (default: built-in plan)
    --dir <dir>       Run directory for artifacts (default: .conductor/runs/<id>)
    --config <file>   Configuration YAML (default: built-in defaults)
  plans             List the registered plan catalogue
  version           Show version
  help              Show this help

`, version)
}
