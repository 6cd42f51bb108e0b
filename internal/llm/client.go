// Package llm is a minimal client for OpenAI-compatible chat completion endpoints,
// such as the Gemini OpenAI compatibility layer.
package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/niquolic/foot-chatbot/internal/config"
)

// completionsPath is appended to the base URL, which already carries the API version
const completionsPath = "/chat/completions"

// Client LLM client
type Client struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	maxTokens   int
	retryDelay  time.Duration
	httpClient  *http.Client
}

// Message message structure
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// ToolCall tool call structure
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// FunctionCall function call details
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Usage token accounting of a completion
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatResponse chat response
type ChatResponse struct {
	Content      string     `json:"content"`
	ToolCalls    []ToolCall `json:"tool_calls,omitempty"`
	FinishReason string     `json:"finish_reason,omitempty"`
	Usage        Usage      `json:"usage"`
}

// StreamHandler stream response handler
type StreamHandler func(content string)

// Tool tool definition (for Function Calling)
type Tool struct {
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

// ToolFunction tool function definition
type ToolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// APIError non-200 answer from the completion endpoint
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API returned error (status %d): %s", e.StatusCode, e.Body)
}

// Retryable reports whether the request may succeed when sent again
func (e *APIError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// chatRequest chat request
type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Tools       []Tool    `json:"tools,omitempty"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
	Stream      bool      `json:"stream"`
}

// deltaToolCall streamed tool call fragment; fragments of one call share an index
type deltaToolCall struct {
	Index    int          `json:"index"`
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

type delta struct {
	Content   string          `json:"content"`
	ToolCalls []deltaToolCall `json:"tool_calls"`
}

type choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	Delta        delta   `json:"delta"`
	FinishReason string  `json:"finish_reason"`
}

// chatResponse API response
type chatResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []choice `json:"choices"`
	Usage   Usage    `json:"usage"`
	Error   *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error,omitempty"`
}

// New creates a new LLM client
func New(apiKey, baseURL, model string, temperature float64, maxTokens int) *Client {
	return &Client{
		apiKey:      apiKey,
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		retryDelay:  time.Second,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// NewFromConfig creates a client from the model section of the configuration
func NewFromConfig(cfg config.ModelConfig) *Client {
	return New(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Temperature, cfg.MaxTokens)
}

// Model returns the configured model name
func (c *Client) Model() string {
	return c.model
}

// Chat sends a chat request
func (c *Client) Chat(ctx context.Context, messages []Message, tools []Tool) (*ChatResponse, error) {
	return c.chat(ctx, messages, tools, false, nil)
}

// ChatStream sends a streaming chat request
func (c *Client) ChatStream(ctx context.Context, messages []Message, tools []Tool, handler StreamHandler) (*ChatResponse, error) {
	return c.chat(ctx, messages, tools, true, handler)
}

// chat internal chat implementation
func (c *Client) chat(ctx context.Context, messages []Message, tools []Tool, stream bool, handler StreamHandler) (*ChatResponse, error) {
	reqBody := chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		Stream:      stream,
	}

	if len(tools) > 0 {
		reqBody.Tools = tools
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+completionsPath, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if stream {
		return c.handleStreamResponse(resp.Body, handler)
	}

	return c.handleResponse(resp.Body)
}

// handleResponse handles normal response
func (c *Client) handleResponse(body io.Reader) (*ChatResponse, error) {
	var resp chatResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Error != nil {
		return nil, fmt.Errorf("API error: %s", resp.Error.Message)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("API returned empty response")
	}

	choice := resp.Choices[0]
	return &ChatResponse{
		Content:      choice.Message.Content,
		ToolCalls:    choice.Message.ToolCalls,
		FinishReason: choice.FinishReason,
		Usage:        resp.Usage,
	}, nil
}

// handleStreamResponse handles streaming response
func (c *Client) handleStreamResponse(body io.Reader, handler StreamHandler) (*ChatResponse, error) {
	reader := bufio.NewReader(body)
	var fullContent strings.Builder
	var finishReason string
	var usage Usage
	toolCallsMap := make(map[int]*ToolCall) // For merging streaming tool_calls

	for {
		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("failed to read streaming response: %w", err)
		}
		done := err == io.EOF

		line = strings.TrimSpace(line)
		if data, ok := strings.CutPrefix(line, "data: "); ok {
			if data == "[DONE]" {
				break
			}

			var resp chatResponse
			if json.Unmarshal([]byte(data), &resp) == nil {
				if resp.Error != nil {
					return nil, fmt.Errorf("API error: %s", resp.Error.Message)
				}
				if resp.Usage.TotalTokens > 0 {
					usage = resp.Usage
				}
				if len(resp.Choices) > 0 {
					ch := resp.Choices[0]
					if ch.FinishReason != "" {
						finishReason = ch.FinishReason
					}

					// Handle content
					if ch.Delta.Content != "" {
						fullContent.WriteString(ch.Delta.Content)
						if handler != nil {
							handler(ch.Delta.Content)
						}
					}

					// Handle tool_calls
					for _, tc := range ch.Delta.ToolCalls {
						if existing, ok := toolCallsMap[tc.Index]; ok {
							existing.Function.Arguments += tc.Function.Arguments
							if existing.Function.Name == "" {
								existing.Function.Name = tc.Function.Name
							}
							continue
						}
						toolCallsMap[tc.Index] = &ToolCall{
							ID:       tc.ID,
							Type:     tc.Type,
							Function: tc.Function,
						}
					}
				}
			}
		}

		if done {
			break
		}
	}

	// Collect all tool_calls in index order
	indexes := make([]int, 0, len(toolCallsMap))
	for idx := range toolCallsMap {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	var toolCalls []ToolCall
	for _, idx := range indexes {
		tc := toolCallsMap[idx]
		if tc.Type == "" {
			tc.Type = "function"
		}
		toolCalls = append(toolCalls, *tc)
	}

	return &ChatResponse{
		Content:      fullContent.String(),
		ToolCalls:    toolCalls,
		FinishReason: finishReason,
		Usage:        usage,
	}, nil
}

// ChatWithRetry chat request with retry
func (c *Client) ChatWithRetry(ctx context.Context, messages []Message, tools []Tool, maxRetries int) (*ChatResponse, error) {
	return c.retry(ctx, maxRetries, func() (*ChatResponse, error) {
		return c.Chat(ctx, messages, tools)
	})
}

// ChatStreamWithRetry streaming chat request with retry
func (c *Client) ChatStreamWithRetry(ctx context.Context, messages []Message, tools []Tool, handler StreamHandler, maxRetries int) (*ChatResponse, error) {
	return c.retry(ctx, maxRetries, func() (*ChatResponse, error) {
		return c.ChatStream(ctx, messages, tools, handler)
	})
}

// retry runs call up to maxRetries times with a linear backoff.
// Client errors other than rate limiting are returned at once.
func (c *Client) retry(ctx context.Context, maxRetries int, call func() (*ChatResponse, error)) (*ChatResponse, error) {
	var lastErr error
	for i := 0; i < maxRetries; i++ {
		resp, err := call()
		if err == nil {
			return resp, nil
		}
		lastErr = err

		var apiErr *APIError
		if errors.As(err, &apiErr) && !apiErr.Retryable() {
			return nil, err
		}
		if i == maxRetries-1 {
			break
		}

		// Wait before retry
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(i+1) * c.retryDelay):
		}
	}
	return nil, fmt.Errorf("failed after %d retries: %w", maxRetries, lastErr)
}
