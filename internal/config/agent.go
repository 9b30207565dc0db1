package config

import (
	"fmt"
	"net/url"
	"os"

	gaconfig "github.com/JaimeStill/go-agents/pkg/config"
)

const (
	EnvAgentName         = "ESTIMATOR_AGENT_NAME"
	EnvAgentProviderName = "ESTIMATOR_AGENT_PROVIDER_NAME"
	EnvAgentBaseURL      = "ESTIMATOR_AGENT_BASE_URL"
	EnvAgentToken        = "ESTIMATOR_AGENT_TOKEN"
	EnvAgentDeployment   = "ESTIMATOR_AGENT_DEPLOYMENT"
	EnvAgentAPIVersion   = "ESTIMATOR_AGENT_API_VERSION"
	EnvAgentAuthType     = "ESTIMATOR_AGENT_AUTH_TYPE"
	EnvAgentModelName    = "ESTIMATOR_AGENT_MODEL_NAME"
)

// providerOptions maps provider option keys to the env vars that set them.
var providerOptions = []struct{ key, env string }{
	{"token", EnvAgentToken},
	{"deployment", EnvAgentDeployment},
	{"api_version", EnvAgentAPIVersion},
	{"auth_type", EnvAgentAuthType},
}

// FinalizeAgent prepares the model agent used by the agent supervisor. It is
// only called when workflow.supervisor is "agent"; the rules supervisor never
// talks to a model.
func FinalizeAgent(c *gaconfig.AgentConfig) error {
	loadAgentDefaults(c)
	loadAgentEnv(c)
	return validateAgent(c)
}

func loadAgentDefaults(c *gaconfig.AgentConfig) {
	merged := gaconfig.DefaultAgentConfig()
	merged.Merge(c)
	*c = merged

	if c.Provider == nil {
		c.Provider = &gaconfig.ProviderConfig{}
	}
	if c.Provider.Options == nil {
		c.Provider.Options = make(map[string]any)
	}
	if c.Model == nil {
		c.Model = &gaconfig.ModelConfig{}
	}
}

func loadAgentEnv(c *gaconfig.AgentConfig) {
	if v := os.Getenv(EnvAgentName); v != "" {
		c.Name = v
	}
	if v := os.Getenv(EnvAgentProviderName); v != "" {
		c.Provider.Name = v
	}
	if v := os.Getenv(EnvAgentBaseURL); v != "" {
		c.Provider.BaseURL = v
	}
	if v := os.Getenv(EnvAgentModelName); v != "" {
		c.Model.Name = v
	}
	for _, opt := range providerOptions {
		if v := os.Getenv(opt.env); v != "" {
			c.Provider.Options[opt.key] = v
		}
	}
}

func validateAgent(c *gaconfig.AgentConfig) error {
	switch {
	case c.Name == "":
		return fmt.Errorf("name required")
	case c.Provider.Name == "":
		return fmt.Errorf("provider name required")
	case c.Model.Name == "":
		return fmt.Errorf("model name required")
	}

	if c.Provider.BaseURL != "" {
		u, err := url.Parse(c.Provider.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid provider base_url %q", c.Provider.BaseURL)
		}
	}

	if c.Provider.Name == "azure" {
		if c.Provider.BaseURL == "" {
			return fmt.Errorf("azure provider requires base_url")
		}
		if d, _ := c.Provider.Options["deployment"].(string); d == "" {
			return fmt.Errorf("azure provider requires a deployment option")
		}
	}
	return nil
}
