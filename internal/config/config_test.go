package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// --- Environment variable expansion ---

func TestExpandEnvVars_Simple(t *testing.T) {
	t.Setenv("FATWABOT_TEST_VAR", "secret123")
	result := ExpandEnvVars(`{"apiKey": "${FATWABOT_TEST_VAR}"}`)
	if result != `{"apiKey": "secret123"}` {
		t.Fatalf("unexpected expansion: %s", result)
	}
}

func TestExpandEnvVars_Default(t *testing.T) {
	result := ExpandEnvVars(`{"addr": "${FATWABOT_UNSET_VAR:-127.0.0.1:9091}"}`)
	if result != `{"addr": "127.0.0.1:9091"}` {
		t.Fatalf("unexpected expansion: %s", result)
	}
}

func TestExpandEnvVars_UnsetKeepsPlaceholder(t *testing.T) {
	input := `{"apiKey": "${FATWABOT_UNSET_VAR}"}`
	if got := ExpandEnvVars(input); got != input {
		t.Fatalf("unset variable without default must keep placeholder, got %s", got)
	}
}

func TestExpandEnvVars_SetVarBeatsDefault(t *testing.T) {
	t.Setenv("FATWABOT_TEST_VAR", "actual")
	result := ExpandEnvVars(`${FATWABOT_TEST_VAR:-fallback}`)
	if result != "actual" {
		t.Fatalf("expected 'actual', got %s", result)
	}
}

// --- Validation ---

func validConfig() *Config {
	cfg := Defaults()
	prov := cfg.Providers["together"]
	prov.APIKey = "sk-test"
	cfg.Providers["together"] = prov
	return cfg
}

func TestValidate_OK(t *testing.T) {
	if err := Validate(validConfig()); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestValidate_DefaultsMissingCredentials(t *testing.T) {
	err := Validate(Defaults())
	if err == nil {
		t.Fatal("defaults carry an unresolved API key placeholder and must not validate")
	}
	if !strings.Contains(err.Error(), "apiKey is required") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_TimeoutBounds(t *testing.T) {
	cfg := validConfig()
	cfg.General.RequestTimeoutSeconds = 0
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for zero timeout")
	}
	cfg.General.RequestTimeoutSeconds = 600
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for excessive timeout")
	}
}

func TestValidate_TemperatureRange(t *testing.T) {
	cfg := validConfig()
	prov := cfg.Providers["together"]
	prov.Temperature = 0.9
	cfg.Providers["together"] = prov
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for temperature above 0.7")
	}
}

func TestValidate_MaxTokensRange(t *testing.T) {
	cfg := validConfig()
	prov := cfg.Providers["together"]
	prov.MaxTokens = 50
	cfg.Providers["together"] = prov
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for maxTokens below 400")
	}
}

func TestValidate_UnknownDefaultProvider(t *testing.T) {
	cfg := validConfig()
	cfg.General.DefaultProvider = "missing"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for unknown default provider")
	}
}

func TestValidate_TelegramTokenRequired(t *testing.T) {
	cfg := validConfig()
	cfg.Channels.Telegram.Enabled = true
	cfg.Channels.Telegram.Token = "${TELEGRAM_BOT_TOKEN:-}"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for enabled Telegram without token")
	}
}

func TestValidate_DisabledProviderSkipsCredentialCheck(t *testing.T) {
	cfg := validConfig()
	cfg.Providers["openai"] = ProviderConfig{Enabled: false}
	if err := Validate(cfg); err != nil {
		t.Fatalf("disabled provider must not require a key: %v", err)
	}
}

// --- Load ---

func TestLoad_ExpandsAndValidates(t *testing.T) {
	t.Setenv("FATWABOT_TEST_KEY", "sk-live")
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
		"providers": {
			"together": {"enabled": true, "style": "completion", "apiKey": "${FATWABOT_TEST_KEY}"}
		}
	}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Providers["together"].APIKey != "sk-live" {
		t.Fatalf("env var not expanded: %q", cfg.Providers["together"].APIKey)
	}
	if cfg.General.RequestTimeoutSeconds != 30 {
		t.Fatalf("defaults not merged: timeout=%d", cfg.General.RequestTimeoutSeconds)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

// --- FlexStringList ---

func TestFlexStringList_MixedTypes(t *testing.T) {
	var f FlexStringList
	if err := f.UnmarshalJSON([]byte(`["123", 456]`)); err != nil {
		t.Fatal(err)
	}
	if len(f) != 2 || f[0] != "123" || f[1] != "456" {
		t.Fatalf("unexpected result: %v", f)
	}
}

// --- Accessor ---

func TestGetByPath(t *testing.T) {
	cfg := validConfig()
	val, err := GetByPath(cfg, "general.defaultProvider")
	if err != nil {
		t.Fatal(err)
	}
	if val != "together" {
		t.Fatalf("expected 'together', got %v", val)
	}
}

func TestSetByPath(t *testing.T) {
	cfg := validConfig()
	if err := SetByPath(cfg, "general.requestTimeoutSeconds", "45"); err != nil {
		t.Fatal(err)
	}
	if cfg.General.RequestTimeoutSeconds != 45 {
		t.Fatalf("expected 45, got %d", cfg.General.RequestTimeoutSeconds)
	}
}

func TestSanitize_MasksSecrets(t *testing.T) {
	cfg := validConfig()
	prov := cfg.Providers["together"]
	prov.APIKey = "sk-1234567890abcdef"
	cfg.Providers["together"] = prov
	cfg.Channels.Telegram.Token = "123456:ABCDEF-token"

	clean := Sanitize(cfg)
	if clean.Providers["together"].APIKey == prov.APIKey {
		t.Fatal("API key must be masked")
	}
	if clean.Channels.Telegram.Token == cfg.Channels.Telegram.Token {
		t.Fatal("Telegram token must be masked")
	}
	// Original untouched.
	if cfg.Providers["together"].APIKey != "sk-1234567890abcdef" {
		t.Fatal("Sanitize must not mutate the original config")
	}
}
