package config

import (
	"fmt"
	"os"
	"time"
)

const (
	SessionsDriverPostgres = "postgres"
	SessionsDriverSQLite   = "sqlite"
	SessionsDriverMemory   = "memory"

	EnvPricingCacheTTL    = "ESTIMATOR_PRICING_CACHE_TTL"
	EnvSessionsDriver     = "ESTIMATOR_SESSIONS_DRIVER"
	EnvSessionsSQLitePath = "ESTIMATOR_SESSIONS_SQLITE_PATH"
)

// PricingConfig controls the reference-data snapshot cache.
type PricingConfig struct {
	CacheTTL string `toml:"cache_ttl"`
}

// CacheTTLDuration returns CacheTTL as a time.Duration.
func (c *PricingConfig) CacheTTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.CacheTTL)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *PricingConfig) Finalize() error {
	if c.CacheTTL == "" {
		c.CacheTTL = "5m"
	}
	if v := os.Getenv(EnvPricingCacheTTL); v != "" {
		c.CacheTTL = v
	}
	if _, err := time.ParseDuration(c.CacheTTL); err != nil {
		return fmt.Errorf("invalid cache_ttl: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *PricingConfig) Merge(overlay *PricingConfig) {
	if overlay.CacheTTL != "" {
		c.CacheTTL = overlay.CacheTTL
	}
}

// SessionsConfig selects the checkpoint store for workflow sessions.
type SessionsConfig struct {
	Driver     string `toml:"driver"`
	SQLitePath string `toml:"sqlite_path"`
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *SessionsConfig) Finalize() error {
	if c.Driver == "" {
		c.Driver = SessionsDriverPostgres
	}
	if c.SQLitePath == "" {
		c.SQLitePath = "estimator-sessions.db"
	}
	if v := os.Getenv(EnvSessionsDriver); v != "" {
		c.Driver = v
	}
	if v := os.Getenv(EnvSessionsSQLitePath); v != "" {
		c.SQLitePath = v
	}

	switch c.Driver {
	case SessionsDriverPostgres, SessionsDriverSQLite, SessionsDriverMemory:
		return nil
	default:
		return fmt.Errorf("invalid driver %q", c.Driver)
	}
}

// Merge overwrites non-zero fields from overlay.
func (c *SessionsConfig) Merge(overlay *SessionsConfig) {
	if overlay.Driver != "" {
		c.Driver = overlay.Driver
	}
	if overlay.SQLitePath != "" {
		c.SQLitePath = overlay.SQLitePath
	}
}
