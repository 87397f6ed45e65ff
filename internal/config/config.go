package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Config is the root configuration for the gateway. It is read once at
// process start and immutable afterwards.
type Config struct {
	General      GeneralConfig             `json:"general"`
	Providers    map[string]ProviderConfig `json:"providers"`
	Channels     ChannelsConfig            `json:"channels"`
	Instructions InstructionsConfig        `json:"instructions"`
	Audit        AuditConfig               `json:"audit"`
	Metrics      MetricsConfig             `json:"metrics"`
}

type GeneralConfig struct {
	LogLevel              string `json:"logLevel"`
	LogFile               string `json:"logFile,omitempty"`
	DefaultProvider       string `json:"defaultProvider"`
	RequestTimeoutSeconds int    `json:"requestTimeoutSeconds"`
	MaxConcurrentMessages int    `json:"maxConcurrentMessages"`
}

// Request body styles accepted by upstream completion providers.
const (
	StyleCompletion = "completion" // single concatenated prompt string
	StyleChat       = "chat"       // role-tagged message list
)

type ProviderConfig struct {
	Enabled     bool    `json:"enabled"`
	Style       string  `json:"style"` // "completion" | "chat"
	APIBase     string  `json:"apiBase,omitempty"`
	APIKey      string  `json:"apiKey,omitempty"`
	Model       string  `json:"model,omitempty"`
	MaxTokens   int     `json:"maxTokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

type ChannelsConfig struct {
	Telegram TelegramConfig `json:"telegram"`
	CLI      CLIConfig      `json:"cli"`
}

type TelegramConfig struct {
	Enabled   bool           `json:"enabled"`
	Token     string         `json:"token"`
	AllowFrom FlexStringList `json:"allowFrom"`
}

type CLIConfig struct {
	Enabled bool `json:"enabled"`
}

// InstructionsConfig points at an optional YAML file overriding the built-in
// instruction templates and fallback phrases.
type InstructionsConfig struct {
	Path string `json:"path,omitempty"`
}

// AuditConfig configures the SQLite diagnostics log of answered turns.
type AuditConfig struct {
	Enabled       bool   `json:"enabled"`
	DBPath        string `json:"dbPath"`
	RetentionDays int    `json:"retentionDays"`
}

// MetricsConfig configures the Prometheus-exposition endpoint.
type MetricsConfig struct {
	Enabled  bool   `json:"enabled"`
	Addr     string `json:"addr"`
	Endpoint string `json:"endpoint"`
}

// FlexStringList is a []string that can unmarshal from JSON arrays containing
// both strings and numbers (e.g. ["123", 456] both become "123", "456").
// Telegram user IDs are numbers and people paste them as such.
type FlexStringList []string

func (f *FlexStringList) UnmarshalJSON(data []byte) error {
	var ss []string
	if err := json.Unmarshal(data, &ss); err == nil {
		*f = ss
		return nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	result := make([]string, 0, len(raw))
	for _, item := range raw {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			result = append(result, s)
			continue
		}
		var n float64
		if err := json.Unmarshal(item, &n); err == nil {
			result = append(result, strconv.FormatInt(int64(n), 10))
			continue
		}
		result = append(result, string(item))
	}
	*f = result
	return nil
}

// DefaultConfigDir returns the default config directory (~/.fatwabot).
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".fatwabot"
	}
	return filepath.Join(home, ".fatwabot")
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

func Load(path string) (*Config, error) {
	path = ExpandPath(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	// Substitute environment variables: ${VAR} and ${VAR:-default}
	data = []byte(ExpandEnvVars(string(data)))

	cfg := Defaults()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	cfg.General.LogFile = ExpandPath(cfg.General.LogFile)
	cfg.Audit.DBPath = ExpandPath(cfg.Audit.DBPath)
	cfg.Instructions.Path = ExpandPath(cfg.Instructions.Path)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns in config strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// ExpandEnvVars replaces ${VAR} with the environment variable value.
// Supports default values: ${VAR:-default} uses "default" when VAR is unset
// or empty.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultVal := ""
		hasDefault := len(groups) >= 3 && groups[2] != ""
		if hasDefault {
			defaultVal = groups[2]
		}

		val, exists := os.LookupEnv(varName)
		if !exists || val == "" {
			if hasDefault {
				return defaultVal
			}
			return match // keep original if no env var and no default
		}
		return val
	})
}

func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// Validate checks that the config has valid values. Missing credentials on an
// enabled provider or channel are configuration errors: the process must
// refuse to start rather than fail per-query later.
func Validate(cfg *Config) error {
	var errs []string

	if cfg.General.RequestTimeoutSeconds < 5 || cfg.General.RequestTimeoutSeconds > 120 {
		errs = append(errs, "general.requestTimeoutSeconds must be between 5 and 120")
	}
	if cfg.General.MaxConcurrentMessages < 1 || cfg.General.MaxConcurrentMessages > 100 {
		errs = append(errs, "general.maxConcurrentMessages must be between 1 and 100")
	}

	if cfg.General.DefaultProvider == "" {
		errs = append(errs, "general.defaultProvider is required")
	} else if pc, ok := cfg.Providers[cfg.General.DefaultProvider]; !ok {
		errs = append(errs, fmt.Sprintf("general.defaultProvider references unknown provider: %s", cfg.General.DefaultProvider))
	} else if !pc.Enabled {
		errs = append(errs, fmt.Sprintf("general.defaultProvider %s is disabled", cfg.General.DefaultProvider))
	}

	for name, pc := range cfg.Providers {
		if !pc.Enabled {
			continue
		}
		if isUnset(pc.APIKey) {
			errs = append(errs, fmt.Sprintf("providers.%s: apiKey is required", name))
		}
		switch pc.Style {
		case "", StyleCompletion, StyleChat:
			// valid
		default:
			errs = append(errs, fmt.Sprintf("providers.%s: style must be one of: completion, chat", name))
		}
		if pc.MaxTokens != 0 && (pc.MaxTokens < 400 || pc.MaxTokens > 1024) {
			errs = append(errs, fmt.Sprintf("providers.%s: maxTokens must be between 400 and 1024", name))
		}
		if pc.Temperature < 0 || pc.Temperature > 0.7 {
			errs = append(errs, fmt.Sprintf("providers.%s: temperature must be between 0 and 0.7", name))
		}
	}

	if cfg.Channels.Telegram.Enabled && isUnset(cfg.Channels.Telegram.Token) {
		errs = append(errs, "channels.telegram: token is required when enabled")
	}

	if cfg.Audit.Enabled {
		if cfg.Audit.DBPath == "" {
			errs = append(errs, "audit.dbPath is required when audit is enabled")
		}
		if cfg.Audit.RetentionDays < 1 {
			errs = append(errs, "audit.retentionDays must be >= 1")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// isUnset reports whether a credential is empty or still holds an unresolved
// ${VAR} placeholder, which happens when the environment variable was never
// exported.
func isUnset(s string) bool {
	return s == "" || envVarPattern.MatchString(s)
}

// ExpandPath resolves ~/ to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
