package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ToolsPlaceholder is replaced with the tool catalogue in the tools prompt
const ToolsPlaceholder = "{tools}"

// PromptConfig prompt configuration structure
type PromptConfig struct {
	Language string                     `yaml:"language"`
	Prompts  map[string]LanguagePrompts `yaml:"prompts"`
}

// LanguagePrompts prompts for a specific language
type LanguagePrompts struct {
	System           string `yaml:"system"`
	Tools            string `yaml:"tools"`
	InitialMessage   string `yaml:"initial_message"`
	InputPlaceholder string `yaml:"input_placeholder"`
	ErrorPrefix      string `yaml:"error_prefix"`
}

// DefaultPromptConfig returns default prompt configuration
func DefaultPromptConfig() *PromptConfig {
	return &PromptConfig{
		Language: "en",
		Prompts: map[string]LanguagePrompts{
			"en": {
				System: `Assistant is designed to be a dedicated football results chatbot.
It can fetch and summarize recent football match results, league standings, and team statistics.
Assistant understands how to interpret user queries about football clubs, competitions, match dates, and scores.
Given a club name or a competition name, Assistant should respond with the most recent finished match results,
including date, home team, away team, and final score.
If the user's query is ambiguous or does not specify a team or competition, Assistant should ask a clarifying question.
Assistant can also provide brief contextual information about leagues or teams when relevant.
Assistant can also look up the current weather and wind for a city, for example the city where a match is played.`,
				Tools: `TOOLS
------
Assistant can use tools to look up football and weather data (live scores, historical results, team info, forecasts).
Every tool takes a single "input" string made of comma-separated values, in the order given by the tool description.
Values must not contain commas themselves. The available tools are:

{tools}`,
				InitialMessage:   "How can I help you with football results today?",
				InputPlaceholder: "Ask me about recent match scores, team results, or league standings! Try: 'What were the last 5 results of PSG?' or 'Show me the latest Ligue 1 scores.'",
				ErrorPrefix:      "Error",
			},
			"fr": {
				System: `L'assistant est un chatbot dédié aux résultats de football.
Il peut récupérer et résumer les derniers résultats, les classements et les statistiques des équipes.
Pour un club ou une compétition, il donne les derniers matchs terminés avec la date, l'équipe à domicile,
l'équipe à l'extérieur et le score final.
Si la question est ambiguë ou ne précise ni équipe ni compétition, l'assistant pose une question de clarification.
L'assistant peut aussi donner la météo et le vent actuels d'une ville.`,
				Tools: `OUTILS
------
Chaque outil prend une seule chaîne "input" composée de valeurs séparées par des virgules,
dans l'ordre indiqué par la description de l'outil. Les valeurs ne doivent pas contenir de virgule.
Outils disponibles :

{tools}`,
				InitialMessage:   "Comment puis-je vous aider avec les résultats de football aujourd'hui ?",
				InputPlaceholder: "Demandez les derniers scores, les résultats d'une équipe ou un classement ! Exemple : 'Quels sont les 5 derniers résultats du PSG ?'",
				ErrorPrefix:      "Erreur",
			},
		},
	}
}

// PromptConfigPath returns the prompt config file path
func PromptConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "prompt.yaml"), nil
}

// LoadPromptConfig loads prompt configuration from file
func LoadPromptConfig() (*PromptConfig, error) {
	configPath, err := PromptConfigPath()
	if err != nil {
		return DefaultPromptConfig(), nil
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultPromptConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt config: %w", err)
	}

	cfg := DefaultPromptConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse prompt config: %w", err)
	}

	return cfg, nil
}

// GetPrompts returns prompts for the configured language
func (p *PromptConfig) GetPrompts() LanguagePrompts {
	if prompts, ok := p.Prompts[p.Language]; ok {
		return prompts
	}
	// Fall back to English if configured language not found
	if prompts, ok := p.Prompts["en"]; ok {
		return prompts
	}
	return LanguagePrompts{}
}

// GetSystemPrompt returns the system prompt for the configured language
func (p *PromptConfig) GetSystemPrompt() string {
	return p.GetPrompts().System
}

// GetToolsPrompt returns the tools prompt with the catalogue substituted in
func (p *PromptConfig) GetToolsPrompt(catalogue string) string {
	return strings.ReplaceAll(p.GetPrompts().Tools, ToolsPlaceholder, catalogue)
}

// GetInitialMessage returns the greeting seeded into a new conversation
func (p *PromptConfig) GetInitialMessage() string {
	return p.GetPrompts().InitialMessage
}

// GetInputPlaceholder returns the hint shown before the first question
func (p *PromptConfig) GetInputPlaceholder() string {
	return p.GetPrompts().InputPlaceholder
}

// GetErrorPrefix returns the error prefix for the configured language
func (p *PromptConfig) GetErrorPrefix() string {
	return p.GetPrompts().ErrorPrefix
}
