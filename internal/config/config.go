package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// configDir is the configuration directory path
	// Can be set via SetConfigDir before loading config
	configDir     string
	configDirInit bool
)

// SetConfigDir sets a custom configuration directory
// Must be called before any config loading functions
func SetConfigDir(dir string) {
	configDir = dir
	configDirInit = true
}

// GetConfigDir returns the configuration directory
// Priority: 1. Manually set via SetConfigDir, 2. ./config in current directory
func GetConfigDir() string {
	if !configDirInit {
		cwd, err := os.Getwd()
		if err == nil {
			configDir = filepath.Join(cwd, "config")
		}
		configDirInit = true
	}
	return configDir
}

// Config application configuration structure
type Config struct {
	Model    ModelConfig    `yaml:"model"`
	Memory   MemoryConfig   `yaml:"memory"`
	Weather  WeatherConfig  `yaml:"weather"`
	Football FootballConfig `yaml:"football"`
	Log      LogConfig      `yaml:"log"`
}

// ModelConfig LLM model configuration.
// BaseURL points at an OpenAI-compatible chat completions endpoint.
type ModelConfig struct {
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// MemoryConfig conversation memory configuration
type MemoryConfig struct {
	DBPath             string `yaml:"db_path"`
	MaxContextMessages int    `yaml:"max_context_messages"`
}

// WeatherConfig Open-Meteo endpoints
type WeatherConfig struct {
	GeocodingURL   string `yaml:"geocoding_url"`
	ForecastURL    string `yaml:"forecast_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	UserAgent      string `yaml:"user_agent"`
}

// FootballConfig football-data.org configuration
type FootballConfig struct {
	BaseURL            string `yaml:"base_url"`
	APIKey             string `yaml:"api_key"`
	TimeoutSeconds     int    `yaml:"timeout_seconds"`
	DefaultCompetition string `yaml:"default_competition"`
	DefaultLimit       int    `yaml:"default_limit"`
}

// LogConfig logging configuration
type LogConfig struct {
	Level      string `yaml:"level"`
	MaxDays    int    `yaml:"max_days"`
	ConsoleOut bool   `yaml:"console_out"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Model: ModelConfig{
			APIKey:      "",
			BaseURL:     "https://generativelanguage.googleapis.com/v1beta/openai",
			Model:       "gemini-2.5-flash-preview-05-20",
			Temperature: 0.7,
			MaxTokens:   4096,
		},
		Memory: MemoryConfig{
			DBPath:             filepath.Join(homeDir, ".footbot", "memory.db"),
			MaxContextMessages: 20,
		},
		Weather: WeatherConfig{
			GeocodingURL:   "https://geocoding-api.open-meteo.com/v1/search",
			ForecastURL:    "https://api.open-meteo.com/v1/forecast",
			TimeoutSeconds: 10,
			UserAgent:      "footbot/0.1",
		},
		Football: FootballConfig{
			BaseURL:            "https://api.football-data.org/v4",
			APIKey:             "",
			TimeoutSeconds:     10,
			DefaultCompetition: "FL1",
			DefaultLimit:       5,
		},
		Log: LogConfig{
			Level:      "info",
			MaxDays:    7,
			ConsoleOut: false,
		},
	}
}

// ConfigDir returns the configuration directory path
func ConfigDir() (string, error) {
	dir := GetConfigDir()
	if dir == "" {
		return "", fmt.Errorf("failed to determine config directory")
	}
	return dir, nil
}

// LogDir returns the log directory path
func LogDir() string {
	dir := GetConfigDir()
	if dir == "" {
		return "logs"
	}
	return filepath.Join(dir, "logs")
}

// ConfigPath returns the configuration file path
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load loads configuration from file and merges with secrets
func Load() (*Config, error) {
	configPath, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		// Config file doesn't exist, create default config
		cfg := DefaultConfig()
		if err := Save(cfg); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		cfg.applySecrets()
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig() // Use default values as base
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applySecrets()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applySecrets fills API keys left empty in config.yaml from config.env or the environment
func (c *Config) applySecrets() {
	secrets, err := LoadSecrets()
	if err != nil {
		return
	}
	if c.Model.APIKey == "" {
		c.Model.APIKey = secrets.GetModelAPIKey()
	}
	if c.Football.APIKey == "" {
		c.Football.APIKey = secrets.GetFootballAPIKey()
	}
}

// Save saves configuration to file
func Save(cfg *Config) error {
	configPath, err := ConfigPath()
	if err != nil {
		return err
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	content := "# footbot configuration file\n# API keys can also live in config.env next to this file\n\n" + string(data)

	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Model.BaseURL == "" {
		return fmt.Errorf("config error: model.base_url cannot be empty")
	}
	if c.Model.Model == "" {
		return fmt.Errorf("config error: model.model cannot be empty")
	}
	if c.Model.Temperature < 0 || c.Model.Temperature > 2 {
		return fmt.Errorf("config error: model.temperature must be between 0 and 2")
	}
	if c.Model.MaxTokens <= 0 {
		return fmt.Errorf("config error: model.max_tokens must be greater than 0")
	}

	if c.Memory.DBPath == "" {
		return fmt.Errorf("config error: memory.db_path cannot be empty")
	}
	if c.Memory.MaxContextMessages <= 0 {
		return fmt.Errorf("config error: memory.max_context_messages must be greater than 0")
	}

	if strings.TrimSpace(c.Weather.GeocodingURL) == "" || strings.TrimSpace(c.Weather.ForecastURL) == "" {
		return fmt.Errorf("config error: weather.geocoding_url and weather.forecast_url cannot be empty")
	}
	if c.Weather.TimeoutSeconds <= 0 {
		return fmt.Errorf("config error: weather.timeout_seconds must be greater than 0")
	}

	if strings.TrimSpace(c.Football.BaseURL) == "" {
		return fmt.Errorf("config error: football.base_url cannot be empty")
	}
	if c.Football.TimeoutSeconds <= 0 {
		return fmt.Errorf("config error: football.timeout_seconds must be greater than 0")
	}
	if c.Football.DefaultLimit <= 0 {
		return fmt.Errorf("config error: football.default_limit must be greater than 0")
	}

	return nil
}

// IsAPIKeyConfigured checks if the model API key is configured
func (c *Config) IsAPIKeyConfigured() bool {
	return c.Model.APIKey != ""
}

// String returns string representation of config (hides sensitive info)
func (c *Config) String() string {
	return fmt.Sprintf(`footbot configuration:
  Model:
    API Key: %s
    Base URL: %s
    Model: %s
    Temperature: %.1f
    Max Tokens: %d
  Memory:
    DB Path: %s
    Max Context Messages: %d
  Weather:
    Geocoding URL: %s
    Forecast URL: %s
    Timeout Seconds: %d
  Football:
    Base URL: %s
    API Key: %s
    Default Competition: %s
    Default Limit: %d
  Log:
    Level: %s
    Max Days: %d`,
		redactAPIKey(c.Model.APIKey),
		c.Model.BaseURL,
		c.Model.Model,
		c.Model.Temperature,
		c.Model.MaxTokens,
		c.Memory.DBPath,
		c.Memory.MaxContextMessages,
		c.Weather.GeocodingURL,
		c.Weather.ForecastURL,
		c.Weather.TimeoutSeconds,
		c.Football.BaseURL,
		redactAPIKey(c.Football.APIKey),
		c.Football.DefaultCompetition,
		c.Football.DefaultLimit,
		c.Log.Level,
		c.Log.MaxDays,
	)
}

func redactAPIKey(value string) string {
	if value == "" {
		return "(not configured)"
	}
	if len(value) > 8 {
		return value[:8] + "..." // Only show first 8 chars
	}
	return "***"
}
