package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Model.BaseURL != "https://generativelanguage.googleapis.com/v1beta/openai" {
		t.Errorf("Expected Gemini OpenAI-compatible BaseURL, got %s", cfg.Model.BaseURL)
	}

	if cfg.Memory.MaxContextMessages != 20 {
		t.Errorf("Expected MaxContextMessages to be 20, got %d", cfg.Memory.MaxContextMessages)
	}

	if cfg.Football.DefaultCompetition != "FL1" {
		t.Errorf("Expected default competition FL1, got %s", cfg.Football.DefaultCompetition)
	}

	if cfg.Weather.TimeoutSeconds != 10 {
		t.Errorf("Expected weather timeout 10, got %d", cfg.Weather.TimeoutSeconds)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(cfg *Config) {},
			wantErr: false,
		},
		{
			name:    "empty BaseURL",
			mutate:  func(cfg *Config) { cfg.Model.BaseURL = "" },
			wantErr: true,
		},
		{
			name:    "invalid Temperature",
			mutate:  func(cfg *Config) { cfg.Model.Temperature = 3.0 },
			wantErr: true,
		},
		{
			name:    "zero MaxContextMessages",
			mutate:  func(cfg *Config) { cfg.Memory.MaxContextMessages = 0 },
			wantErr: true,
		},
		{
			name:    "empty forecast URL",
			mutate:  func(cfg *Config) { cfg.Weather.ForecastURL = " " },
			wantErr: true,
		},
		{
			name:    "zero football limit",
			mutate:  func(cfg *Config) { cfg.Football.DefaultLimit = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	SetConfigDir(filepath.Join(tmpDir, "config"))

	cfg := DefaultConfig()
	cfg.Model.APIKey = "test-api-key"
	cfg.Football.DefaultCompetition = "PL"

	if err := Save(cfg); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	configPath := filepath.Join(tmpDir, "config", "config.yaml")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Fatal("Config file not created")
	}

	loadedCfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if loadedCfg.Model.APIKey != cfg.Model.APIKey {
		t.Errorf("API Key mismatch: expected %s, got %s", cfg.Model.APIKey, loadedCfg.Model.APIKey)
	}
	if loadedCfg.Football.DefaultCompetition != "PL" {
		t.Errorf("Expected competition PL, got %s", loadedCfg.Football.DefaultCompetition)
	}
}

func TestLoad_SecretsFromDotenv(t *testing.T) {
	tmpDir := t.TempDir()
	dir := filepath.Join(tmpDir, "config")
	SetConfigDir(dir)
	t.Setenv(ModelAPIKeyName, "")
	t.Setenv(FootballAPIKeyName, "")

	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	env := "# keys\nGOOGLE_AI_STUDIO_API_KEY=gemini-key-123\nFOOTBALL_DATA_API_KEY=\"football-key\"\n"
	if err := os.WriteFile(filepath.Join(dir, "config.env"), []byte(env), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Model.APIKey != "gemini-key-123" {
		t.Errorf("Expected model key from config.env, got %q", cfg.Model.APIKey)
	}
	if cfg.Football.APIKey != "football-key" {
		t.Errorf("Expected football key from config.env, got %q", cfg.Football.APIKey)
	}

	// The default config.yaml written on first load must not contain the keys
	data, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "gemini-key-123") {
		t.Error("Secrets should not be persisted to config.yaml")
	}
}

func TestSecrets_EnvironmentOverride(t *testing.T) {
	SetConfigDir(t.TempDir())
	t.Setenv(FootballAPIKeyName, "from-env")

	secrets, err := LoadSecrets()
	if err != nil {
		t.Fatalf("LoadSecrets failed: %v", err)
	}
	if got := secrets.GetFootballAPIKey(); got != "from-env" {
		t.Errorf("Expected from-env, got %q", got)
	}
	if !secrets.Has(FootballAPIKeyName) {
		t.Error("Has should report environment keys")
	}
	if got := secrets.GetOrDefault("FOOTBOT_MISSING_KEY", "fallback"); got != "fallback" {
		t.Errorf("Expected fallback, got %q", got)
	}
}

func TestIsAPIKeyConfigured(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.IsAPIKeyConfigured() {
		t.Error("Default config should not have API Key")
	}

	cfg.Model.APIKey = "test-key"
	if !cfg.IsAPIKeyConfigured() {
		t.Error("Should return true after setting API Key")
	}
}

func TestString_RedactsKeys(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Model.APIKey = "abcdefghijklmnop"
	cfg.Football.APIKey = "short"

	s := cfg.String()
	if strings.Contains(s, "abcdefghijklmnop") {
		t.Error("Model key should be redacted")
	}
	if !strings.Contains(s, "abcdefgh...") {
		t.Error("Expected first 8 chars of the model key")
	}
	if !strings.Contains(s, "***") {
		t.Error("Short football key should be fully masked")
	}
}

func TestPromptConfig(t *testing.T) {
	p := DefaultPromptConfig()

	if !strings.Contains(p.GetSystemPrompt(), "football results chatbot") {
		t.Error("Default system prompt should describe the football assistant")
	}
	if p.GetInitialMessage() != "How can I help you with football results today?" {
		t.Errorf("Unexpected initial message: %s", p.GetInitialMessage())
	}

	tools := p.GetToolsPrompt("- get_city_wind: wind lookup")
	if strings.Contains(tools, ToolsPlaceholder) {
		t.Error("Tools placeholder should be replaced")
	}
	if !strings.Contains(tools, "- get_city_wind: wind lookup") {
		t.Error("Tools prompt should contain the catalogue")
	}

	p.Language = "fr"
	if p.GetErrorPrefix() != "Erreur" {
		t.Errorf("Expected French error prefix, got %s", p.GetErrorPrefix())
	}

	p.Language = "de"
	if p.GetErrorPrefix() != "Error" {
		t.Errorf("Unknown language should fall back to English, got %s", p.GetErrorPrefix())
	}
}

func TestLoadPromptConfig_FromFile(t *testing.T) {
	dir := t.TempDir()
	SetConfigDir(dir)

	content := "language: en\nprompts:\n  en:\n    system: custom system\n    initial_message: hi\n"
	if err := os.WriteFile(filepath.Join(dir, "prompt.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	p, err := LoadPromptConfig()
	if err != nil {
		t.Fatalf("LoadPromptConfig failed: %v", err)
	}
	if p.GetSystemPrompt() != "custom system" {
		t.Errorf("Expected custom system prompt, got %q", p.GetSystemPrompt())
	}
	if p.GetInitialMessage() != "hi" {
		t.Errorf("Expected custom initial message, got %q", p.GetInitialMessage())
	}
}
