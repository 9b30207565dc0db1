package config

import (
	"fmt"
	"os"
	"time"

	gaconfig "github.com/JaimeStill/go-agents/pkg/config"
	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/estimator/pkg/database"
	"github.com/JaimeStill/estimator/pkg/observability"
	"github.com/JaimeStill/estimator/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvEstimatorEnv             = "ESTIMATOR_ENV"
	EnvEstimatorShutdownTimeout = "ESTIMATOR_SHUTDOWN_TIMEOUT"
	EnvEstimatorVersion         = "ESTIMATOR_VERSION"
)

var databaseEnv = &database.Env{
	URL:             "ESTIMATOR_DB_URL",
	Host:            "ESTIMATOR_DB_HOST",
	Port:            "ESTIMATOR_DB_PORT",
	Name:            "ESTIMATOR_DB_NAME",
	User:            "ESTIMATOR_DB_USER",
	Password:        "ESTIMATOR_DB_PASSWORD",
	SSLMode:         "ESTIMATOR_DB_SSL_MODE",
	MaxOpenConns:    "ESTIMATOR_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "ESTIMATOR_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "ESTIMATOR_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "ESTIMATOR_DB_CONN_TIMEOUT",
	ApplicationName: "ESTIMATOR_DB_APPLICATION_NAME",
}

var storageEnv = &storage.Env{
	ContainerName:    "ESTIMATOR_STORAGE_CONTAINER_NAME",
	ConnectionString: "ESTIMATOR_STORAGE_CONNECTION_STRING",
	Prefix:           "ESTIMATOR_STORAGE_PREFIX",
}

var observabilityEnv = &observability.Env{
	Enabled:     "ESTIMATOR_OTEL_ENABLED",
	ServiceName: "ESTIMATOR_OTEL_SERVICE_NAME",
	SampleRatio: "ESTIMATOR_OTEL_SAMPLE_RATIO",
}

// Config is the root configuration for the estimator service.
type Config struct {
	Server          ServerConfig         `toml:"server"`
	Database        database.Config      `toml:"database"`
	Storage         storage.Config       `toml:"storage"`
	API             APIConfig            `toml:"api"`
	Agent           gaconfig.AgentConfig `toml:"agent"`
	Workflow        WorkflowConfig       `toml:"workflow"`
	Pricing         PricingConfig        `toml:"pricing"`
	Sessions        SessionsConfig       `toml:"sessions"`
	Observability   observability.Config `toml:"observability"`
	ShutdownTimeout string               `toml:"shutdown_timeout"`
	Version         string               `toml:"version"`
}

// Env returns the ESTIMATOR_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvEstimatorEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.API.Merge(&overlay.API)
	c.Agent.Merge(&overlay.Agent)
	c.Workflow.Merge(&overlay.Workflow)
	c.Pricing.Merge(&overlay.Pricing)
	c.Sessions.Merge(&overlay.Sessions)
	c.Observability.Merge(&overlay.Observability)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Workflow.Finalize(); err != nil {
		return fmt.Errorf("workflow: %w", err)
	}
	if c.Workflow.Supervisor == SupervisorAgent {
		if err := FinalizeAgent(&c.Agent); err != nil {
			return fmt.Errorf("agent: %w", err)
		}
	}
	if err := c.Pricing.Finalize(); err != nil {
		return fmt.Errorf("pricing: %w", err)
	}
	if err := c.Sessions.Finalize(); err != nil {
		return fmt.Errorf("sessions: %w", err)
	}
	if err := c.Observability.Finalize(observabilityEnv); err != nil {
		return fmt.Errorf("observability: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvEstimatorShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvEstimatorVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvEstimatorEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
