package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Loader reads configuration from a YAML file and environment overrides.
type Loader struct {
	logger *zap.Logger
}

// NewLoader creates a configuration loader.
func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		logger: logger,
	}
}

// Load builds the effective configuration: defaults, then the YAML file at
// path (missing file is fine), then environment variables. Malformed
// individual values fall back to their previous value with a warning; only
// an unreadable or unparseable config file is an error.
func (l *Loader) Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if err := l.applyFile(cfg, path); err != nil {
		return nil, err
	}
	l.applyEnv(cfg)

	return cfg, nil
}

func (l *Loader) applyFile(cfg *Config, path string) error {
	if path == "" {
		return nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(content, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (l *Loader) applyEnv(cfg *Config) {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		cfg.Model = v
	}
	l.applyIntEnv(&cfg.MaxOutputTokens, "GPT_SHELL_MAX_OUTPUT_TOKENS", true)
	l.applyIntEnv(&cfg.ContextTokens, "GPT_SHELL_CONTEXT_TOKENS", true)
	l.applyIntEnv(&cfg.CommandTimeoutSeconds, "GPT_SHELL_COMMAND_TIMEOUT", false)
	l.applyBoolEnv(&cfg.SafeMode, "GPT_SHELL_SAFE_MODE")
	l.applyBoolEnv(&cfg.ShowTokenUsage, "GPT_SHELL_SHOW_TOKENS")
	if v := os.Getenv("GPT_SHELL_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("GPT_SHELL_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
}

func (l *Loader) applyIntEnv(target *int, key string, requirePositive bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return
	}
	value, err := strconv.Atoi(raw)
	if err != nil || (requirePositive && value <= 0) {
		l.logger.Warn("ignoring invalid integer environment variable",
			zap.String("key", key),
			zap.String("value", raw),
		)
		return
	}
	*target = value
}

func (l *Loader) applyBoolEnv(target *bool, key string) {
	raw := os.Getenv(key)
	if raw == "" {
		return
	}
	*target = ParseBool(raw)
}

// ParseBool interprets a toggle value: "0", "false", "off" and "no" are
// false, anything else is true.
func ParseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "0", "false", "off", "no":
		return false
	default:
		return true
	}
}
