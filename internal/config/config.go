// Package config loads and validates the orchestrator's configuration
// document: provider definitions, role/task-slot bindings, database location,
// and search paths. Config is process-wide state, loaded once at startup and
// re-validated on explicit reload (see Watcher); no global mutable singleton
// is exposed to domain code.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"taskforge/internal/domain"
)

// CurrentVersion is the schema version new config documents are written at.
const CurrentVersion = 2

// ProviderConfig describes one named LLM provider endpoint.
type ProviderConfig struct {
	Type          string `yaml:"type"`
	BaseURL       string `yaml:"base_url"`
	APIKeyEnv     string `yaml:"api_key_env,omitempty"`
	TimeoutSeconds int   `yaml:"timeout_seconds"`
	MaxRetries    int    `yaml:"max_retries"`
	DefaultModel  string `yaml:"default_model"`
}

// SlotConfig binds a logical role to a provider + model.
type SlotConfig struct {
	ProviderName string `yaml:"provider_name"`
	Model        string `yaml:"model"`
	Enabled      bool   `yaml:"enabled"`
	Streaming    bool   `yaml:"streaming,omitempty"`
}

// Config is the top-level, versioned configuration document.
type Config struct {
	Version           int                   `yaml:"version"`
	DatabaseURL       string                `yaml:"database_url"`
	ProjectSearchPath string                `yaml:"project_search_path,omitempty"`
	GlobalSearchPath  string                `yaml:"global_search_path,omitempty"`
	Providers         map[string]ProviderConfig `yaml:"providers"`
	TaskSlots         map[string]SlotConfig `yaml:"task_slots"`
	MaxComprehensionCycles int              `yaml:"max_comprehension_cycles"`
}

// DefaultConfig returns a populated default configuration, grounded on the
// teacher's DefaultConfig() nested-struct-literal idiom.
func DefaultConfig() *Config {
	return &Config{
		Version:     CurrentVersion,
		DatabaseURL: "file:taskforge.db",
		Providers: map[string]ProviderConfig{
			"anthropic": {
				Type:           "anthropic",
				BaseURL:        "https://api.anthropic.com/v1",
				APIKeyEnv:      "ANTHROPIC_API_KEY",
				TimeoutSeconds: 120,
				MaxRetries:     3,
				DefaultModel:   "claude-sonnet-4-5-20250514",
			},
			"openai": {
				Type:           "openai",
				BaseURL:        "https://api.openai.com/v1",
				APIKeyEnv:      "OPENAI_API_KEY",
				TimeoutSeconds: 120,
				MaxRetries:     3,
				DefaultModel:   "gpt-4o-mini",
			},
			"gemini": {
				Type:           "gemini",
				BaseURL:        "https://generativelanguage.googleapis.com",
				APIKeyEnv:      "GEMINI_API_KEY",
				TimeoutSeconds: 120,
				MaxRetries:     3,
				DefaultModel:   "gemini-2.0-flash",
			},
		},
		TaskSlots: map[string]SlotConfig{
			"Enhancer":   {ProviderName: "anthropic", Model: "claude-sonnet-4-5-20250514", Enabled: true},
			"Decomposer": {ProviderName: "anthropic", Model: "claude-sonnet-4-5-20250514", Enabled: true},
			"Router":     {ProviderName: "anthropic", Model: "claude-sonnet-4-5-20250514", Enabled: true},
			"Embedder":   {ProviderName: "gemini", Model: "text-embedding-004", Enabled: true},
			"Vision":     {ProviderName: "gemini", Model: "gemini-2.0-flash", Enabled: true},
			"Agent":      {ProviderName: "openai", Model: "gpt-4o-mini", Enabled: true, Streaming: true},
			"Generalist": {ProviderName: "openai", Model: "gpt-4o-mini", Enabled: true},
		},
		MaxComprehensionCycles: 3,
	}
}

// Load reads a YAML config document from path, applies env overrides, and
// migrates older versions in place.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading config %s: %v", domain.ErrConfigInvalid, path, err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: parsing config %s: %v", domain.ErrConfigInvalid, path, err)
	}
	Migrate(cfg)
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks structural invariants: known provider references, and a
// positive comprehension cycle bound.
func (c *Config) Validate() error {
	if c.MaxComprehensionCycles <= 0 {
		return fmt.Errorf("%w: max_comprehension_cycles must be positive", domain.ErrConfigInvalid)
	}
	for role, slot := range c.TaskSlots {
		if !slot.Enabled {
			continue
		}
		if _, ok := c.Providers[slot.ProviderName]; !ok {
			return fmt.Errorf("%w: role %s references unknown provider %s", domain.ErrConfigInvalid, role, slot.ProviderName)
		}
	}
	return nil
}

// APIKeyFor reads the configured environment variable for a provider on
// demand. API keys are never held on disk or cached in the Config struct.
func (c *Config) APIKeyFor(providerName string) (string, error) {
	p, ok := c.Providers[providerName]
	if !ok {
		return "", fmt.Errorf("%w: unknown provider %s", domain.ErrConfigInvalid, providerName)
	}
	if p.APIKeyEnv == "" {
		return "", nil
	}
	key := os.Getenv(p.APIKeyEnv)
	if key == "" {
		return "", fmt.Errorf("%w: environment variable %s is not set for provider %s", domain.ErrConfigInvalid, p.APIKeyEnv, providerName)
	}
	return key, nil
}

// MaskedAPIKeyFor returns a display-safe representation of a provider's key,
// e.g. "sk-a****e123", without ever surfacing the full secret.
func MaskedAPIKeyFor(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}
