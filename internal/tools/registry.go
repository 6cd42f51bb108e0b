package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/niquolic/foot-chatbot/internal/config"
	"github.com/niquolic/foot-chatbot/internal/football"
	"github.com/niquolic/foot-chatbot/internal/weather"
)

// Registry tool registry
type Registry struct {
	tools map[string]Tool
	mu    sync.RWMutex
}

// NewRegistry creates a new tool registry
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register registers a tool
func (r *Registry) Register(tool Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := tool.Name()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %s already exists", name)
	}

	r.tools[name] = tool
	return nil
}

// Get gets a tool by name
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, exists := r.tools[name]
	return tool, exists
}

// List lists all tools sorted by name
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]Tool, 0, len(r.tools))
	for _, tool := range r.tools {
		tools = append(tools, tool)
	}
	sort.Slice(tools, func(i, j int) bool {
		return tools[i].Name() < tools[j].Name()
	})
	return tools
}

// Execute executes a tool by name
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (string, error) {
	tool, exists := r.Get(name)
	if !exists {
		return "", fmt.Errorf("tool not found: %s", name)
	}
	return tool.Execute(ctx, args)
}

// Catalogue renders the tool list substituted into the tools prompt
func (r *Registry) Catalogue() string {
	var sb strings.Builder
	for i, tool := range r.List() {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "- %s: %s", tool.Name(), tool.Description())
		for _, p := range tool.Parameters() {
			fmt.Fprintf(&sb, "\n  %s: %s", p.Name, strings.ReplaceAll(p.Description, "\n\n", " "))
		}
	}
	return sb.String()
}

// ToolSchema tool schema (for Function Calling)
type ToolSchema struct {
	Type     string         `json:"type"`
	Function FunctionSchema `json:"function"`
}

// FunctionSchema function schema
type FunctionSchema struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// GetSchemas gets all tool schemas for Function Calling, sorted by name
func (r *Registry) GetSchemas() []ToolSchema {
	tools := r.List()
	schemas := make([]ToolSchema, 0, len(tools))
	for _, tool := range tools {
		schemas = append(schemas, ToolSchema{
			Type: "function",
			Function: FunctionSchema{
				Name:        tool.Name(),
				Description: tool.Description(),
				Parameters:  buildParameterSchema(tool.Parameters()),
			},
		})
	}
	return schemas
}

// buildParameterSchema builds parameter schema
func buildParameterSchema(params []ParameterDef) map[string]any {
	properties := make(map[string]any)
	required := make([]string, 0)

	for _, param := range params {
		properties[param.Name] = map[string]any{
			"type":        param.Type,
			"description": param.Description,
		}
		if param.Required {
			required = append(required, param.Name)
		}
	}

	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}

	if len(required) > 0 {
		schema["required"] = required
	}

	return schema
}

// NewDefaultRegistry creates and registers the weather and football tools
func NewDefaultRegistry(cfg *config.Config) *Registry {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	wc := weather.NewClient(
		cfg.Weather.GeocodingURL,
		cfg.Weather.ForecastURL,
		cfg.Weather.UserAgent,
		time.Duration(cfg.Weather.TimeoutSeconds)*time.Second,
	)
	fc := football.NewClient(
		cfg.Football.BaseURL,
		cfg.Football.APIKey,
		time.Duration(cfg.Football.TimeoutSeconds)*time.Second,
	)

	registry := NewRegistry()
	all := append(WeatherTools(wc), FootballTools(fc, cfg.Football.DefaultCompetition)...)
	for _, tool := range all {
		_ = registry.Register(tool) // Names are fixed and unique
	}

	return registry
}
