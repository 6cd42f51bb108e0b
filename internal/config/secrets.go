package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Secret keys read from config.env or the process environment
const (
	ModelAPIKeyName    = "GOOGLE_AI_STUDIO_API_KEY"
	FootballAPIKeyName = "FOOTBALL_DATA_API_KEY"
)

// Secrets sensitive values loaded from the config.env dotenv file
type Secrets struct {
	values map[string]string
}

// NewSecrets creates a new Secrets instance
func NewSecrets() *Secrets {
	return &Secrets{
		values: make(map[string]string),
	}
}

// SecretsPath returns the secrets file path
func SecretsPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.env"), nil
}

// LoadSecrets loads secrets from config.env. A missing file yields empty secrets;
// environment variables are still consulted by Get.
func LoadSecrets() (*Secrets, error) {
	secrets := NewSecrets()

	secretsPath, err := SecretsPath()
	if err != nil {
		return secrets, nil
	}

	if _, err := os.Stat(secretsPath); os.IsNotExist(err) {
		return secrets, nil
	}

	values, err := godotenv.Read(secretsPath)
	if err != nil {
		return secrets, err
	}
	secrets.values = values

	return secrets, nil
}

// Get returns the value for a key. The process environment wins over the file.
func (s *Secrets) Get(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	if s == nil || s.values == nil {
		return ""
	}
	return s.values[key]
}

// GetOrDefault returns the value for a key, or the default value if not found
func (s *Secrets) GetOrDefault(key, defaultValue string) string {
	if value := s.Get(key); value != "" {
		return value
	}
	return defaultValue
}

// Has checks if a key exists in the file or the environment
func (s *Secrets) Has(key string) bool {
	if _, ok := os.LookupEnv(key); ok {
		return true
	}
	if s == nil || s.values == nil {
		return false
	}
	_, ok := s.values[key]
	return ok
}

// GetModelAPIKey returns the Google AI Studio API key
func (s *Secrets) GetModelAPIKey() string {
	return s.Get(ModelAPIKeyName)
}

// GetFootballAPIKey returns the football-data.org API key
func (s *Secrets) GetFootballAPIKey() string {
	return s.Get(FootballAPIKeyName)
}
