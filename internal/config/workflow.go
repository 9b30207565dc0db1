package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	SupervisorRules = "rules"
	SupervisorAgent = "agent"

	EnvWorkflowSupervisor     = "ESTIMATOR_WORKFLOW_SUPERVISOR"
	EnvWorkflowMaxTurns       = "ESTIMATOR_WORKFLOW_MAX_TURNS"
	EnvWorkflowSessionTimeout = "ESTIMATOR_WORKFLOW_SESSION_TIMEOUT"
	EnvWorkflowContingency    = "ESTIMATOR_WORKFLOW_CONTINGENCY_RATE"
	EnvWorkflowMarkup         = "ESTIMATOR_WORKFLOW_MARKUP_RATE"
)

// WorkflowConfig holds the estimation workflow's budgets, coverage
// thresholds, and pricing rates.
type WorkflowConfig struct {
	// Supervisor selects the decision maker: "rules" applies the policy
	// recommendation directly, "agent" asks the language model.
	Supervisor string `toml:"supervisor"`

	MaxTurns                int `toml:"max_turns"`
	MaxIterations           int `toml:"max_iterations"`
	MaxRequirementsAttempts int `toml:"max_requirements_attempts"`
	MaxDataAttempts         int `toml:"max_data_attempts"`
	MaxMaterialAttempts     int `toml:"max_material_attempts"`
	MaxCalculationAttempts  int `toml:"max_calculation_attempts"`

	SessionTimeout string `toml:"session_timeout"`

	ContingencyRate float64 `toml:"contingency_rate"`
	MarkupRate      float64 `toml:"markup_rate"`
	Currency        string  `toml:"currency"`

	MinMaterials  int `toml:"min_materials"`
	MinLaborRates int `toml:"min_labor_rates"`

	Knowledge KnowledgeConfig `toml:"knowledge"`
}

// KnowledgeConfig tunes the two knowledge searches.
type KnowledgeConfig struct {
	StandardsTopK     int     `toml:"standards_top_k"`
	StandardsMinScore float64 `toml:"standards_min_score"`
	CodesTopK         int     `toml:"codes_top_k"`
	CodesMinScore     float64 `toml:"codes_min_score"`
}

// SessionTimeoutDuration returns SessionTimeout as a time.Duration.
func (c *WorkflowConfig) SessionTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.SessionTimeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *WorkflowConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *WorkflowConfig) Merge(overlay *WorkflowConfig) {
	if overlay.Supervisor != "" {
		c.Supervisor = overlay.Supervisor
	}
	if overlay.MaxTurns != 0 {
		c.MaxTurns = overlay.MaxTurns
	}
	if overlay.MaxIterations != 0 {
		c.MaxIterations = overlay.MaxIterations
	}
	if overlay.MaxRequirementsAttempts != 0 {
		c.MaxRequirementsAttempts = overlay.MaxRequirementsAttempts
	}
	if overlay.MaxDataAttempts != 0 {
		c.MaxDataAttempts = overlay.MaxDataAttempts
	}
	if overlay.MaxMaterialAttempts != 0 {
		c.MaxMaterialAttempts = overlay.MaxMaterialAttempts
	}
	if overlay.MaxCalculationAttempts != 0 {
		c.MaxCalculationAttempts = overlay.MaxCalculationAttempts
	}
	if overlay.SessionTimeout != "" {
		c.SessionTimeout = overlay.SessionTimeout
	}
	if overlay.ContingencyRate != 0 {
		c.ContingencyRate = overlay.ContingencyRate
	}
	if overlay.MarkupRate != 0 {
		c.MarkupRate = overlay.MarkupRate
	}
	if overlay.Currency != "" {
		c.Currency = overlay.Currency
	}
	if overlay.MinMaterials != 0 {
		c.MinMaterials = overlay.MinMaterials
	}
	if overlay.MinLaborRates != 0 {
		c.MinLaborRates = overlay.MinLaborRates
	}
	c.Knowledge.Merge(&overlay.Knowledge)
}

// Merge overwrites non-zero fields from overlay.
func (c *KnowledgeConfig) Merge(overlay *KnowledgeConfig) {
	if overlay.StandardsTopK != 0 {
		c.StandardsTopK = overlay.StandardsTopK
	}
	if overlay.StandardsMinScore != 0 {
		c.StandardsMinScore = overlay.StandardsMinScore
	}
	if overlay.CodesTopK != 0 {
		c.CodesTopK = overlay.CodesTopK
	}
	if overlay.CodesMinScore != 0 {
		c.CodesMinScore = overlay.CodesMinScore
	}
}

func (c *WorkflowConfig) loadDefaults() {
	if c.Supervisor == "" {
		c.Supervisor = SupervisorRules
	}
	if c.MaxTurns == 0 {
		c.MaxTurns = 20
	}
	if c.MaxIterations == 0 {
		c.MaxIterations = 15
	}
	if c.MaxRequirementsAttempts == 0 {
		c.MaxRequirementsAttempts = 8
	}
	if c.MaxDataAttempts == 0 {
		c.MaxDataAttempts = 3
	}
	if c.MaxMaterialAttempts == 0 {
		c.MaxMaterialAttempts = 12
	}
	if c.MaxCalculationAttempts == 0 {
		c.MaxCalculationAttempts = 3
	}
	if c.SessionTimeout == "" {
		c.SessionTimeout = "30m"
	}
	if c.ContingencyRate == 0 {
		c.ContingencyRate = 0.10
	}
	if c.Currency == "" {
		c.Currency = "EGP"
	}
	if c.MinMaterials == 0 {
		c.MinMaterials = 30
	}
	if c.MinLaborRates == 0 {
		c.MinLaborRates = 5
	}
	if c.Knowledge.StandardsTopK == 0 {
		c.Knowledge.StandardsTopK = 10
	}
	if c.Knowledge.StandardsMinScore == 0 {
		c.Knowledge.StandardsMinScore = 0.7
	}
	if c.Knowledge.CodesTopK == 0 {
		c.Knowledge.CodesTopK = 7
	}
	if c.Knowledge.CodesMinScore == 0 {
		c.Knowledge.CodesMinScore = 0.6
	}
}

func (c *WorkflowConfig) loadEnv() {
	if v := os.Getenv(EnvWorkflowSupervisor); v != "" {
		c.Supervisor = v
	}
	if v := os.Getenv(EnvWorkflowMaxTurns); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxTurns = n
		}
	}
	if v := os.Getenv(EnvWorkflowSessionTimeout); v != "" {
		c.SessionTimeout = v
	}
	if v := os.Getenv(EnvWorkflowContingency); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.ContingencyRate = f
		}
	}
	if v := os.Getenv(EnvWorkflowMarkup); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.MarkupRate = f
		}
	}
}

func (c *WorkflowConfig) validate() error {
	if c.Supervisor != SupervisorRules && c.Supervisor != SupervisorAgent {
		return fmt.Errorf("invalid supervisor %q: must be %q or %q", c.Supervisor, SupervisorRules, SupervisorAgent)
	}
	if c.MaxTurns < 1 {
		return fmt.Errorf("max_turns must be positive")
	}
	if c.MaxIterations < 1 {
		return fmt.Errorf("max_iterations must be positive")
	}
	if _, err := time.ParseDuration(c.SessionTimeout); err != nil {
		return fmt.Errorf("invalid session_timeout: %w", err)
	}
	if c.ContingencyRate < 0 || c.ContingencyRate > 1 {
		return fmt.Errorf("contingency_rate must be within [0, 1]")
	}
	if c.MarkupRate < 0 || c.MarkupRate > 1 {
		return fmt.Errorf("markup_rate must be within [0, 1]")
	}
	return nil
}
