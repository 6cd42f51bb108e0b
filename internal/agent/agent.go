package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/niquolic/foot-chatbot/internal/config"
	"github.com/niquolic/foot-chatbot/internal/llm"
	"github.com/niquolic/foot-chatbot/internal/logger"
	"github.com/niquolic/foot-chatbot/internal/memory"
	"github.com/niquolic/foot-chatbot/internal/tools"
)

const (
	// MaxToolIterations maximum number of tool call iterations
	MaxToolIterations = 10

	// StoppedOutput is returned when the iteration limit is reached without an answer
	StoppedOutput = "Agent stopped due to iteration limit."
)

// ChatModel is the LLM surface the agent needs
type ChatModel interface {
	Chat(ctx context.Context, messages []llm.Message, tools []llm.Tool) (*llm.ChatResponse, error)
	ChatStream(ctx context.Context, messages []llm.Message, tools []llm.Tool, handler llm.StreamHandler) (*llm.ChatResponse, error)
}

// Step one tool invocation made while answering
type Step struct {
	Tool        string `json:"tool"`
	Input       string `json:"tool_input"`
	Log         string `json:"log"`
	Observation string `json:"observation"`
}

// Response final answer with the tool steps that produced it
type Response struct {
	Output            string `json:"output"`
	IntermediateSteps []Step `json:"intermediate_steps"`
}

// Agent AI agent core
type Agent struct {
	promptConfig    *config.PromptConfig
	llm             ChatModel
	memory          memory.Store
	registry        *tools.Registry
	sessionID       string
	maxContextMsgs  int
	streamHandler   func(content string)
	toolCallHandler func(name string, args map[string]any, result string, err error)
}

// Option agent configuration option
type Option func(*Agent)

// WithStreamHandler sets the stream output handler
func WithStreamHandler(handler func(content string)) Option {
	return func(a *Agent) {
		a.streamHandler = handler
	}
}

// WithToolCallHandler sets the tool call handler
func WithToolCallHandler(handler func(name string, args map[string]any, result string, err error)) Option {
	return func(a *Agent) {
		a.toolCallHandler = handler
	}
}

// WithPromptConfig replaces the prompts loaded from prompt.yaml
func WithPromptConfig(p *config.PromptConfig) Option {
	return func(a *Agent) {
		if p != nil {
			a.promptConfig = p
		}
	}
}

// New creates a new Agent instance
func New(cfg *config.Config, model ChatModel, mem memory.Store, reg *tools.Registry, opts ...Option) (*Agent, error) {
	// Load prompt configuration
	promptCfg, err := config.LoadPromptConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load prompt config: %w", err)
	}

	agent := &Agent{
		promptConfig:   promptCfg,
		llm:            model,
		memory:         mem,
		registry:       reg,
		maxContextMsgs: cfg.Memory.MaxContextMessages,
	}

	// Apply options
	for _, opt := range opts {
		opt(agent)
	}

	// Initialize session
	if err := agent.initSession(); err != nil {
		return nil, err
	}

	return agent, nil
}

// initSession resumes the latest session or starts a new one
func (a *Agent) initSession() error {
	session, err := a.memory.GetLatestSession()
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}

	if session != nil {
		a.sessionID = session.ID
		logger.Info("Resumed session %s", a.sessionID)
		return nil
	}

	return a.NewSession()
}

// NewSession creates a new session seeded with the initial AI message
func (a *Agent) NewSession() error {
	sessionID, err := a.memory.CreateSession()
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	a.sessionID = sessionID

	if greeting := a.promptConfig.GetInitialMessage(); greeting != "" {
		if err := a.memory.SaveMessage(sessionID, &memory.Message{
			SessionID: sessionID,
			Role:      memory.RoleAI,
			Content:   greeting,
		}); err != nil {
			return fmt.Errorf("failed to seed session: %w", err)
		}
	}

	logger.Info("Started session %s", a.sessionID)
	return nil
}

// Reset clears the current conversation and starts over from the initial message
func (a *Agent) Reset() error {
	if err := a.memory.ClearSession(a.sessionID); err != nil {
		return err
	}
	return a.NewSession()
}

// InitialMessage returns the greeting that opens every conversation
func (a *Agent) InitialMessage() string {
	return a.promptConfig.GetInitialMessage()
}

// InputPlaceholder returns the hint shown under the greeting
func (a *Agent) InputPlaceholder() string {
	return a.promptConfig.GetInputPlaceholder()
}

// History returns the buffered conversation in chronological order
func (a *Agent) History() ([]*memory.Message, error) {
	return a.memory.GetMessages(a.sessionID, a.maxContextMsgs)
}

// LastSteps returns the tool steps behind the latest answer
func (a *Agent) LastSteps() ([]Step, error) {
	stored, err := a.memory.GetLastSteps(a.sessionID)
	if err != nil {
		return nil, err
	}
	steps := make([]Step, 0, len(stored))
	for _, s := range stored {
		steps = append(steps, Step{Tool: s.Tool, Input: s.Input, Log: s.Log, Observation: s.Observation})
	}
	return steps, nil
}

// Chat processes user message and returns the answer with its intermediate steps
func (a *Agent) Chat(ctx context.Context, userMessage string) (*Response, error) {
	// Build message list from history before the new message is stored
	messages, err := a.buildMessages(userMessage)
	if err != nil {
		return nil, fmt.Errorf("failed to build messages: %w", err)
	}

	// Save user message
	if err := a.memory.SaveMessage(a.sessionID, &memory.Message{
		SessionID: a.sessionID,
		Role:      memory.RoleHuman,
		Content:   userMessage,
	}); err != nil {
		return nil, fmt.Errorf("failed to save user message: %w", err)
	}

	llmTools := a.llmTools()
	resp := &Response{IntermediateSteps: []Step{}}
	answered := false

	// Agent loop
	for i := 0; i < MaxToolIterations; i++ {
		var out *llm.ChatResponse
		var err error

		if a.streamHandler != nil {
			out, err = a.llm.ChatStream(ctx, messages, llmTools, a.streamHandler)
		} else {
			out, err = a.llm.Chat(ctx, messages, llmTools)
		}

		if err != nil {
			logger.Error("LLM call failed: %v", err)
			return nil, fmt.Errorf("failed to call LLM: %w", err)
		}

		// If no tool calls, this is the final answer
		if len(out.ToolCalls) == 0 {
			resp.Output = out.Content
			answered = true
			break
		}

		// Add assistant message (with tool calls)
		messages = append(messages, llm.Message{
			Role:      "assistant",
			Content:   out.Content,
			ToolCalls: out.ToolCalls,
		})

		toolCallsJSON, _ := json.Marshal(out.ToolCalls)
		if err := a.memory.SaveMessage(a.sessionID, &memory.Message{
			SessionID: a.sessionID,
			Role:      memory.RoleAI,
			Content:   out.Content,
			ToolCalls: string(toolCallsJSON),
		}); err != nil {
			return nil, fmt.Errorf("failed to save assistant tool call message: %w", err)
		}

		// Execute each tool call
		for _, toolCall := range out.ToolCalls {
			step := a.runTool(ctx, toolCall, out.Content)
			resp.IntermediateSteps = append(resp.IntermediateSteps, step)

			messages = append(messages, llm.Message{
				Role:       "tool",
				Content:    step.Observation,
				ToolCallID: toolCall.ID,
			})

			if err := a.memory.SaveMessage(a.sessionID, &memory.Message{
				SessionID:  a.sessionID,
				Role:       memory.RoleTool,
				Content:    step.Observation,
				ToolCallID: toolCall.ID,
			}); err != nil {
				return nil, fmt.Errorf("failed to save tool message: %w", err)
			}
		}
	}

	if !answered {
		logger.Warn("No answer after %d tool iterations", MaxToolIterations)
		resp.Output = StoppedOutput
	}

	answer := &memory.Message{
		SessionID: a.sessionID,
		Role:      memory.RoleAI,
		Content:   resp.Output,
	}
	if err := a.memory.SaveMessage(a.sessionID, answer); err != nil {
		return nil, fmt.Errorf("failed to save assistant message: %w", err)
	}

	if err := a.memory.SaveSteps(a.sessionID, answer.ID, a.storedSteps(resp.IntermediateSteps)); err != nil {
		return nil, fmt.Errorf("failed to save intermediate steps: %w", err)
	}

	return resp, nil
}

// runTool executes one tool call and records it as a step
func (a *Agent) runTool(ctx context.Context, toolCall llm.ToolCall, reasoning string) Step {
	step := Step{
		Tool:  toolCall.Function.Name,
		Input: toolCall.Function.Arguments,
		Log:   reasoning,
	}

	var (
		args    map[string]any
		result  string
		toolErr error
	)
	if err := json.Unmarshal([]byte(toolCall.Function.Arguments), &args); err != nil {
		toolErr = fmt.Errorf("failed to parse tool arguments: %w", err)
	} else {
		if input, ok := args[tools.InputParam].(string); ok {
			step.Input = input
		}
		result, toolErr = a.registry.Execute(ctx, toolCall.Function.Name, args)
	}

	logger.Info("Tool %s input=%q", step.Tool, step.Input)

	// Notify tool call status
	if a.toolCallHandler != nil {
		a.toolCallHandler(toolCall.Function.Name, args, result, toolErr)
	}

	step.Observation = result
	if toolErr != nil {
		logger.Warn("Tool %s failed: %v", step.Tool, toolErr)
		step.Observation = fmt.Sprintf("%s: %v", a.promptConfig.GetErrorPrefix(), toolErr)
	}
	return step
}

func (a *Agent) storedSteps(steps []Step) []*memory.Step {
	stored := make([]*memory.Step, 0, len(steps))
	for _, s := range steps {
		stored = append(stored, &memory.Step{Tool: s.Tool, Input: s.Input, Log: s.Log, Observation: s.Observation})
	}
	return stored
}

// llmTools converts the registry schemas for the LLM request
func (a *Agent) llmTools() []llm.Tool {
	toolSchemas := a.registry.GetSchemas()
	llmTools := make([]llm.Tool, len(toolSchemas))
	for i, schema := range toolSchemas {
		llmTools[i] = llm.Tool{
			Type: schema.Type,
			Function: llm.ToolFunction{
				Name:        schema.Function.Name,
				Description: schema.Function.Description,
				Parameters:  schema.Function.Parameters,
			},
		}
	}
	return llmTools
}

// buildMessages builds the message list: prompts, buffered history, then the user message
func (a *Agent) buildMessages(userMessage string) ([]llm.Message, error) {
	systemPrompt := a.promptConfig.GetSystemPrompt()
	if toolsPrompt := a.promptConfig.GetToolsPrompt(a.registry.Catalogue()); toolsPrompt != "" {
		systemPrompt = strings.TrimSpace(systemPrompt + "\n\n" + toolsPrompt)
	}

	messages := []llm.Message{
		{Role: "system", Content: systemPrompt},
	}

	historyMsgs, err := a.memory.GetMessages(a.sessionID, a.maxContextMsgs)
	if err != nil {
		return nil, fmt.Errorf("failed to get history messages: %w", err)
	}

	// A window starting inside a tool exchange would leave orphaned tool results
	for len(historyMsgs) > 0 && historyMsgs[0].Role == memory.RoleTool {
		historyMsgs = historyMsgs[1:]
	}

	for _, msg := range historyMsgs {
		llmMsg := llm.Message{
			Role:       llmRole(msg.Role),
			Content:    msg.Content,
			ToolCallID: msg.ToolCallID,
		}

		// Parse tool calls if present
		if msg.ToolCalls != "" {
			var toolCalls []llm.ToolCall
			if err := json.Unmarshal([]byte(msg.ToolCalls), &toolCalls); err == nil {
				llmMsg.ToolCalls = toolCalls
			}
		}

		messages = append(messages, llmMsg)
	}

	messages = append(messages, llm.Message{
		Role:    "user",
		Content: userMessage,
	})

	return messages, nil
}

// llmRole maps stored roles onto chat completion roles
func llmRole(role string) string {
	switch role {
	case memory.RoleHuman:
		return "user"
	case memory.RoleAI:
		return "assistant"
	default:
		return role
	}
}

// SessionID returns the current session ID
func (a *Agent) SessionID() string {
	return a.sessionID
}
