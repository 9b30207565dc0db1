package config

import (
	"fmt"
	"os"

	"github.com/JaimeStill/estimator/pkg/middleware"
	"github.com/JaimeStill/estimator/pkg/pagination"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "ESTIMATOR_CORS_ENABLED",
	Origins:          "ESTIMATOR_CORS_ORIGINS",
	AllowedMethods:   "ESTIMATOR_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "ESTIMATOR_CORS_ALLOWED_HEADERS",
	ExposedHeaders:   "ESTIMATOR_CORS_EXPOSED_HEADERS",
	AllowCredentials: "ESTIMATOR_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "ESTIMATOR_CORS_MAX_AGE",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "ESTIMATOR_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "ESTIMATOR_PAGINATION_MAX_PAGE_SIZE",
}

// APIConfig holds API routing, CORS, and pagination settings.
type APIConfig struct {
	BasePath       string                `toml:"base_path"`
	MaxMessageSize int64                 `toml:"max_message_size"`
	CORS           middleware.CORSConfig `toml:"cors"`
	Pagination     pagination.Config     `toml:"pagination"`
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested CORS and pagination configs.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if c.MaxMessageSize <= 0 {
		return fmt.Errorf("max_message_size must be positive")
	}
	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxMessageSize != 0 {
		c.MaxMessageSize = overlay.MaxMessageSize
	}

	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxMessageSize == 0 {
		c.MaxMessageSize = 64 * 1024
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv("ESTIMATOR_API_BASE_PATH"); v != "" {
		c.BasePath = v
	}
}
