package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/niquolic/foot-chatbot/internal/logger"
	"github.com/niquolic/foot-chatbot/internal/stringtool"
)

// InputParam is the single parameter every StringTool takes.
const InputParam = "input"

// StringTool exposes a stringtool.Adapter as a Tool taking one comma-separated input string.
type StringTool struct {
	adapter     *stringtool.Adapter
	description string
}

// NewStringTool wraps adapter. description says what the tool does; the input format
// comes from the adapter usage text.
func NewStringTool(adapter *stringtool.Adapter, description string) *StringTool {
	return &StringTool{adapter: adapter, description: description}
}

func (t *StringTool) Name() string { return t.adapter.Name() }

func (t *StringTool) Description() string { return t.description }

func (t *StringTool) Parameters() []ParameterDef {
	return []ParameterDef{
		{
			Name:        InputParam,
			Type:        "string",
			Description: t.adapter.Usage(),
			Required:    true,
		},
	}
}

// Adapter returns the wrapped adapter.
func (t *StringTool) Adapter() *stringtool.Adapter { return t.adapter }

// Invoke runs the adapter on a raw input string.
func (t *StringTool) Invoke(ctx context.Context, input string) stringtool.Result {
	return t.adapter.Invoke(ctx, input)
}

// Execute returns the JSON record {"output": ...}. Parse and target failures are
// reported inside the record, so the error is only set for malformed calls.
func (t *StringTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	raw, ok := args[InputParam]
	if !ok {
		return "", fmt.Errorf("missing required parameter: %s", InputParam)
	}
	input, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("parameter %s must be a string, got %T", InputParam, raw)
	}

	result := t.Invoke(ctx, input)
	if !result.OK() {
		logger.Warnw("tool failed", "tool", t.Name(), "input", input, "error", result.Message())
	}

	data, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("failed to encode tool result: %w", err)
	}
	return string(data), nil
}

func renderJSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
