// Package config provides runtime configuration for gpt-shell. Values come
// from an optional YAML file overridden by environment variables; every
// setting has a documented default and none is required except the API key,
// which the caller validates at startup.
package config

import "time"

// Config holds all runtime configuration.
type Config struct {
	// APIKey authenticates against the OpenAI-compatible endpoint.
	// Environment only (OPENAI_API_KEY); never read from the YAML file so
	// credentials do not end up in dotfiles.
	APIKey string `yaml:"-"`

	// BaseURL overrides the API endpoint, e.g. for a compatible proxy.
	BaseURL string `yaml:"baseURL"`

	// Model is the model identifier sent with every request.
	Model string `yaml:"model"`

	// MaxOutputTokens caps the model's reply length per call.
	MaxOutputTokens int `yaml:"maxOutputTokens"`

	// ContextTokens is the hard token ceiling for one exchange; the
	// transcript and output budgets are derived from it.
	ContextTokens int `yaml:"contextTokens"`

	// CommandTimeoutSeconds bounds each command execution; 0 disables the
	// timeout.
	CommandTimeoutSeconds int `yaml:"commandTimeoutSeconds"`

	// SafeMode enforces destructive-command confirmation when true.
	SafeMode bool `yaml:"safeMode"`

	// ShowTokenUsage prints the usage line after each exchange.
	ShowTokenUsage bool `yaml:"showTokenUsage"`

	// LogLevel controls application log verbosity (zap level names).
	LogLevel string `yaml:"logLevel"`

	// LogFile overrides the interaction log location.
	LogFile string `yaml:"logFile"`
}

// ReserveTokens is held back from the context ceiling for the next model
// reply when truncating history.
const ReserveTokens = 400

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Model:                 "gpt-4o-mini",
		MaxOutputTokens:       1200,
		ContextTokens:         16384,
		CommandTimeoutSeconds: 300,
		SafeMode:              true,
		ShowTokenUsage:        true,
		LogLevel:              "info",
	}
}

// CommandTimeout returns the per-command wall-clock limit; zero means no
// timeout.
func (c *Config) CommandTimeout() time.Duration {
	if c.CommandTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.CommandTimeoutSeconds) * time.Second
}

// HistoryCeiling is the token budget for the message history of one
// exchange, with the reply reserve held back.
func (c *Config) HistoryCeiling() int {
	return c.ContextTokens - ReserveTokens
}

// OutputCeiling is the token budget for one batch of command outputs.
func (c *Config) OutputCeiling() int {
	return c.ContextTokens - c.ContextTokens/2
}
