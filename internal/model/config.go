package model

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Project    ProjectConfig    `yaml:"project"`
	Budget     BudgetConfig     `yaml:"budget"`
	Governance GovernanceConfig `yaml:"governance"`
	Optimizer  OptimizerConfig  `yaml:"optimizer"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type ProjectConfig struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type BudgetConfig struct {
	// Limit is the total cost budget for one run.
	Limit float64 `yaml:"limit"`
	// Floor is the remaining-budget level below which selection degrades.
	Floor float64 `yaml:"floor"`
}

type GovernanceConfig struct {
	FallbackCeiling int     `yaml:"fallback_ceiling"`
	ConfidenceFloor float64 `yaml:"confidence_floor"`
	RiskCountFloor  int     `yaml:"risk_count_floor"`
}

type OptimizerConfig struct {
	FrontierCap   int     `yaml:"frontier_cap"`
	CostThreshold float64 `yaml:"cost_threshold"`
	// StageWeights split the run budget across fixed phases. The core does
	// not validate that the weights sum to 1.0.
	StageWeights map[string]float64 `yaml:"stage_weights"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the configuration used when no file is supplied.
func DefaultConfig() Config {
	return Config{
		Budget: BudgetConfig{
			Limit: 100.0,
			Floor: 10.0,
		},
		Governance: GovernanceConfig{
			FallbackCeiling: 3,
			ConfidenceFloor: 0.5,
			RiskCountFloor:  2,
		},
		Optimizer: OptimizerConfig{
			FrontierCap:   5,
			CostThreshold: 10.0,
			StageWeights: map[string]float64{
				"requirements": 0.2,
				"build":        0.4,
				"verify":       0.25,
				"govern":       0.15,
			},
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// LoadConfig reads a YAML config file, layering it over the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Budget.Limit < 0 {
		return fmt.Errorf("budget limit must be non-negative, got %v", c.Budget.Limit)
	}
	if c.Governance.ConfidenceFloor < 0 || c.Governance.ConfidenceFloor > 1 {
		return fmt.Errorf("confidence floor must be in [0,1], got %v", c.Governance.ConfidenceFloor)
	}
	if c.Optimizer.FrontierCap < 1 {
		return fmt.Errorf("frontier cap must be at least 1, got %d", c.Optimizer.FrontierCap)
	}
	return nil
}
