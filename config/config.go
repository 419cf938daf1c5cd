// Package config loads client settings from an optional YAML file with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/holdfast-dev/holdfast/resilience"
)

const (
	DefaultBaseURL = "http://localhost:8080/v1"

	// The batch proxy does not authenticate, but the SDKs insist on a key.
	DefaultAPIKey = "dummy"

	DefaultModel    = "gpt-4"
	DefaultProvider = "openai"
)

type Config struct {
	BaseURL  string `yaml:"base_url"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	Provider string `yaml:"provider"`

	AttemptTimeout Duration `yaml:"attempt_timeout"`
	MaxWait        Duration `yaml:"max_wait"`
	InitialDelay   Duration `yaml:"initial_delay"`
	MaxDelay       Duration `yaml:"max_delay"`
}

func Default() *Config {
	retry := resilience.DefaultRetryConfig()
	return &Config{
		BaseURL:        DefaultBaseURL,
		APIKey:         DefaultAPIKey,
		Model:          DefaultModel,
		Provider:       DefaultProvider,
		AttemptTimeout: Duration(retry.AttemptTimeout),
		MaxWait:        Duration(retry.MaxWait),
		InitialDelay:   Duration(retry.InitialDelay),
		MaxDelay:       Duration(retry.MaxDelay),
	}
}

// DefaultPath returns ~/.holdfast/config.yaml, or "" when the home
// directory cannot be resolved.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".holdfast", "config.yaml")
}

// Load builds the configuration from defaults, then the YAML file at path
// (missing files are fine unless explicitly requested), then environment
// variables.
func Load(path string, explicit bool) (*Config, error) {
	cfg := Default()

	if path != "" {
		content, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(content, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		case os.IsNotExist(err) && !explicit:
			// No config file is the common case.
		default:
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("HOLDFAST_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("HOLDFAST_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("HOLDFAST_MODEL"); v != "" {
		c.Model = v
	}
	if v := os.Getenv("HOLDFAST_PROVIDER"); v != "" {
		c.Provider = v
	}

	for _, override := range []struct {
		name   string
		target *Duration
	}{
		{"HOLDFAST_ATTEMPT_TIMEOUT", &c.AttemptTimeout},
		{"HOLDFAST_MAX_WAIT", &c.MaxWait},
		{"HOLDFAST_INITIAL_DELAY", &c.InitialDelay},
		{"HOLDFAST_MAX_DELAY", &c.MaxDelay},
	} {
		v := os.Getenv(override.name)
		if v == "" {
			continue
		}
		parsed, err := ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", override.name, err)
		}
		*override.target = Duration(parsed)
	}

	return nil
}

func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL is required")
	}
	if c.Provider != "openai" && c.Provider != "anthropic" {
		return fmt.Errorf("unknown provider %q (want openai or anthropic)", c.Provider)
	}
	return c.RetryConfig().Validate()
}

func (c *Config) RetryConfig() resilience.RetryConfig {
	retry := resilience.DefaultRetryConfig()
	retry.AttemptTimeout = time.Duration(c.AttemptTimeout)
	retry.MaxWait = time.Duration(c.MaxWait)
	retry.InitialDelay = time.Duration(c.InitialDelay)
	retry.MaxDelay = time.Duration(c.MaxDelay)
	return retry
}
