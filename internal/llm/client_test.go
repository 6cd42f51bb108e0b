package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/niquolic/foot-chatbot/internal/config"
)

func TestNew(t *testing.T) {
	client := New("test-api-key", "https://generativelanguage.googleapis.com/v1beta/openai", "test-model", 0.7, 1000)

	if client.apiKey != "test-api-key" {
		t.Errorf("Expected apiKey 'test-api-key', got '%s'", client.apiKey)
	}
	if client.baseURL != "https://generativelanguage.googleapis.com/v1beta/openai" {
		t.Errorf("Expected baseURL 'https://generativelanguage.googleapis.com/v1beta/openai', got '%s'", client.baseURL)
	}
	if client.model != "test-model" {
		t.Errorf("Expected model 'test-model', got '%s'", client.model)
	}
	if client.temperature != 0.7 {
		t.Errorf("Expected temperature 0.7, got %f", client.temperature)
	}
	if client.maxTokens != 1000 {
		t.Errorf("Expected maxTokens 1000, got %d", client.maxTokens)
	}
}

func TestNew_TrimTrailingSlash(t *testing.T) {
	client := New("key", "https://generativelanguage.googleapis.com/v1beta/openai/", "model", 0.7, 1000)

	if client.baseURL != "https://generativelanguage.googleapis.com/v1beta/openai" {
		t.Errorf("Expected baseURL without trailing slash, got '%s'", client.baseURL)
	}
}

func TestClient_Chat(t *testing.T) {
	// Create mock server
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Verify request
		if r.Method != "POST" {
			t.Errorf("Expected POST method, got %s", r.Method)
		}
		if r.URL.Path != "/v1beta/openai/chat/completions" {
			t.Errorf("Expected path /v1beta/openai/chat/completions, got %s", r.URL.Path)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Expected Content-Type application/json, got %s", r.Header.Get("Content-Type"))
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Expected Authorization header, got %s", r.Header.Get("Authorization"))
		}

		// Verify request body
		var reqBody chatRequest
		if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
			t.Fatalf("Failed to decode request body: %v", err)
		}
		if reqBody.Model != "test-model" {
			t.Errorf("Expected model 'test-model', got '%s'", reqBody.Model)
		}
		if len(reqBody.Messages) != 1 {
			t.Errorf("Expected 1 message, got %d", len(reqBody.Messages))
		}

		// Send response
		resp := chatResponse{
			ID:      "test-id",
			Object:  "chat.completion",
			Created: time.Now().Unix(),
			Model:   "test-model",
			Choices: []choice{
				{
					Index: 0,
					Message: Message{
						Role:    "assistant",
						Content: "How can I help you with football results today?",
					},
					FinishReason: "stop",
				},
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := New("test-key", server.URL+"/v1beta/openai", "test-model", 0.7, 1000)

	messages := []Message{
		{Role: "user", Content: "Hello"},
	}

	resp, err := client.Chat(context.Background(), messages, nil)
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	if resp.Content != "How can I help you with football results today?" {
		t.Errorf("Expected response content, got '%s'", resp.Content)
	}
}

func TestClient_Chat_WithTools(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var reqBody chatRequest
		if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
			t.Fatalf("Failed to decode request body: %v", err)
		}

		// Verify tools are passed
		if len(reqBody.Tools) != 1 {
			t.Errorf("Expected 1 tool, got %d", len(reqBody.Tools))
		}

		resp := chatResponse{
			ID:      "test-id",
			Object:  "chat.completion",
			Created: time.Now().Unix(),
			Model:   "test-model",
			Choices: []choice{
				{
					Index: 0,
					Message: Message{
						Role: "assistant",
						ToolCalls: []ToolCall{
							{
								ID:   "call_123",
								Type: "function",
								Function: FunctionCall{
									Name:      "get_league_standings",
									Arguments: `{"input": "FL1"}`,
								},
							},
						},
					},
					FinishReason: "tool_calls",
				},
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := New("test-key", server.URL, "test-model", 0.7, 1000)

	messages := []Message{
		{Role: "user", Content: "Call a function"},
	}

	tools := []Tool{
		{
			Type: "function",
			Function: ToolFunction{
				Name:        "get_league_standings",
				Description: "A test function",
				Parameters:  map[string]any{"type": "object"},
			},
		},
	}

	resp, err := client.Chat(context.Background(), messages, tools)
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	if len(resp.ToolCalls) != 1 {
		t.Errorf("Expected 1 tool call, got %d", len(resp.ToolCalls))
	}
	if resp.ToolCalls[0].Function.Name != "get_league_standings" {
		t.Errorf("Expected function name 'get_league_standings', got '%s'", resp.ToolCalls[0].Function.Name)
	}
}

func TestClient_Chat_ErrorResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": {"message": "Invalid request", "type": "invalid_request_error"}}`))
	}))
	defer server.Close()

	client := New("test-key", server.URL, "test-model", 0.7, 1000)

	messages := []Message{
		{Role: "user", Content: "Hello"},
	}

	_, err := client.Chat(context.Background(), messages, nil)
	if err == nil {
		t.Error("Expected error for bad request")
	}
	if !strings.Contains(err.Error(), "status 400") {
		t.Errorf("Expected status 400 in error, got: %v", err)
	}
}

func TestClient_Chat_EmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := chatResponse{
			ID:      "test-id",
			Choices: []choice{},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := New("test-key", server.URL, "test-model", 0.7, 1000)

	messages := []Message{
		{Role: "user", Content: "Hello"},
	}

	_, err := client.Chat(context.Background(), messages, nil)
	if err == nil {
		t.Error("Expected error for empty response")
	}
	if !strings.Contains(err.Error(), "empty response") {
		t.Errorf("Expected 'empty response' in error, got: %v", err)
	}
}

func TestClient_Chat_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := chatResponse{
			Error: &struct {
				Message string `json:"message"`
				Type    string `json:"type"`
				Code    any    `json:"code"`
			}{
				Message: "Rate limit exceeded",
				Type:    "rate_limit_error",
				Code:    "rate_limit",
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := New("test-key", server.URL, "test-model", 0.7, 1000)

	messages := []Message{
		{Role: "user", Content: "Hello"},
	}

	_, err := client.Chat(context.Background(), messages, nil)
	if err == nil {
		t.Error("Expected error for API error response")
	}
	if !strings.Contains(err.Error(), "Rate limit exceeded") {
		t.Errorf("Expected 'Rate limit exceeded' in error, got: %v", err)
	}
}

func TestClient_ChatStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var reqBody chatRequest
		if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
			t.Fatalf("Failed to decode request body: %v", err)
		}

		if !reqBody.Stream {
			t.Error("Expected Stream to be true")
		}

		w.Header().Set("Content-Type", "text/event-stream")
		flusher, _ := w.(http.Flusher)

		// Send streaming response
		chunks := []string{
			`{"id":"test","choices":[{"delta":{"content":"Hello"}}]}`,
			`{"id":"test","choices":[{"delta":{"content":" World"}}]}`,
			`{"id":"test","choices":[{"delta":{"content":"!"}}]}`,
		}

		for _, chunk := range chunks {
			w.Write([]byte("data: " + chunk + "\n\n"))
			flusher.Flush()
		}
		w.Write([]byte("data: [DONE]\n\n"))
		flusher.Flush()
	}))
	defer server.Close()

	client := New("test-key", server.URL, "test-model", 0.7, 1000)

	messages := []Message{
		{Role: "user", Content: "Hello"},
	}

	var receivedContent strings.Builder
	handler := func(content string) {
		receivedContent.WriteString(content)
	}

	resp, err := client.ChatStream(context.Background(), messages, nil, handler)
	if err != nil {
		t.Fatalf("ChatStream failed: %v", err)
	}

	if resp.Content != "Hello World!" {
		t.Errorf("Expected 'Hello World!', got '%s'", resp.Content)
	}
	if receivedContent.String() != "Hello World!" {
		t.Errorf("Handler received '%s', expected 'Hello World!'", receivedContent.String())
	}
}

func TestClient_ChatStream_WithToolCalls(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher, _ := w.(http.Flusher)

		// Send streaming response with tool calls
		chunks := []string{
			`{"id":"test","choices":[{"delta":{"tool_calls":[{"index":0,"id":"call_1","type":"function","function":{"name":"geocode_city","arguments":"{\"input\":"}}]}}]}`,
			`{"id":"test","choices":[{"delta":{"tool_calls":[{"index":0,"function":{"arguments":"\"Paris\"}"}}]}}]}`,
			`{"id":"test","choices":[{"delta":{"tool_calls":[{"index":1,"id":"call_2","function":{"name":"find_team","arguments":"{\"input\":\"PSG, FL1\"}"}}]},"finish_reason":"tool_calls"}]}`,
		}

		for _, chunk := range chunks {
			w.Write([]byte("data: " + chunk + "\n\n"))
			flusher.Flush()
		}
		w.Write([]byte("data: [DONE]\n\n"))
		flusher.Flush()
	}))
	defer server.Close()

	client := New("test-key", server.URL, "test-model", 0.7, 1000)

	messages := []Message{
		{Role: "user", Content: "Call a function"},
	}

	resp, err := client.ChatStream(context.Background(), messages, nil, nil)
	if err != nil {
		t.Fatalf("ChatStream failed: %v", err)
	}

	if len(resp.ToolCalls) != 2 {
		t.Fatalf("Expected 2 tool calls, got %d", len(resp.ToolCalls))
	}
	if resp.ToolCalls[0].Function.Arguments != `{"input":"Paris"}` {
		t.Errorf("Expected merged arguments, got '%s'", resp.ToolCalls[0].Function.Arguments)
	}
	if resp.ToolCalls[1].ID != "call_2" || resp.ToolCalls[1].Type != "function" {
		t.Errorf("Second tool call mismatch: %+v", resp.ToolCalls[1])
	}
	if resp.FinishReason != "tool_calls" {
		t.Errorf("Expected finish reason tool_calls, got '%s'", resp.FinishReason)
	}
}

func TestClient_ChatWithRetry(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error": "Server error"}`))
			return
		}

		resp := chatResponse{
			ID: "test-id",
			Choices: []choice{
				{
					Index:   0,
					Message: Message{Role: "assistant", Content: "Success"},
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := New("test-key", server.URL, "test-model", 0.7, 1000)
	// Override timeout and backoff for faster test
	client.httpClient.Timeout = 100 * time.Millisecond
	client.retryDelay = time.Millisecond

	messages := []Message{
		{Role: "user", Content: "Hello"},
	}

	resp, err := client.ChatWithRetry(context.Background(), messages, nil, 5)
	if err != nil {
		t.Fatalf("ChatWithRetry failed: %v", err)
	}

	if resp.Content != "Success" {
		t.Errorf("Expected 'Success', got '%s'", resp.Content)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
}

func TestClient_ChatWithRetry_AllFail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Server error"}`))
	}))
	defer server.Close()

	client := New("test-key", server.URL, "test-model", 0.7, 1000)
	client.httpClient.Timeout = 100 * time.Millisecond
	client.retryDelay = time.Millisecond

	messages := []Message{
		{Role: "user", Content: "Hello"},
	}

	_, err := client.ChatWithRetry(context.Background(), messages, nil, 2)
	if err == nil {
		t.Error("Expected error after all retries fail")
	}
	if !strings.Contains(err.Error(), "2 retries") {
		t.Errorf("Expected '2 retries' in error, got: %v", err)
	}
}

func TestHandleResponse_InvalidJSON(t *testing.T) {
	client := New("test-key", "https://generativelanguage.googleapis.com/v1beta/openai", "test-model", 0.7, 1000)

	body := bytes.NewBufferString("invalid json")
	_, err := client.handleResponse(body)
	if err == nil {
		t.Error("Expected error for invalid JSON")
	}
}

func TestClient_ChatWithRetry_ClientErrorNotRetried(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": {"message": "API key not valid"}}`))
	}))
	defer server.Close()

	client := New("bad-key", server.URL, "test-model", 0.7, 1000)
	client.retryDelay = time.Millisecond

	_, err := client.ChatWithRetry(context.Background(), []Message{{Role: "user", Content: "Hello"}}, nil, 3)
	if err == nil {
		t.Fatal("Expected error for unauthorized request")
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt, got %d", attempts)
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected APIError with status 401, got: %v", err)
	}
}

func TestClient_ChatWithRetry_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := New("test-key", server.URL, "test-model", 0.7, 1000)
	client.retryDelay = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.ChatWithRetry(ctx, []Message{{Role: "user", Content: "Hello"}}, nil, 3)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got: %v", err)
	}
}

func TestHandleResponse_Usage(t *testing.T) {
	client := New("test-key", "https://generativelanguage.googleapis.com/v1beta/openai", "test-model", 0.7, 1000)

	body := bytes.NewBufferString(`{"choices":[{"message":{"role":"assistant","content":"ok"},"finish_reason":"stop"}],"usage":{"prompt_tokens":12,"completion_tokens":3,"total_tokens":15}}`)
	resp, err := client.handleResponse(body)
	if err != nil {
		t.Fatalf("handleResponse failed: %v", err)
	}
	if resp.Usage.TotalTokens != 15 {
		t.Errorf("Expected 15 total tokens, got %d", resp.Usage.TotalTokens)
	}
	if resp.FinishReason != "stop" {
		t.Errorf("Expected finish reason stop, got %s", resp.FinishReason)
	}
}

func TestNewFromConfig(t *testing.T) {
	cfg := config.DefaultConfig().Model
	cfg.APIKey = "gemini-key"

	client := NewFromConfig(cfg)
	if client.apiKey != "gemini-key" {
		t.Errorf("Expected apiKey 'gemini-key', got '%s'", client.apiKey)
	}
	if client.Model() != cfg.Model {
		t.Errorf("Expected model %s, got %s", cfg.Model, client.Model())
	}
	if client.baseURL != cfg.BaseURL {
		t.Errorf("Expected baseURL %s, got %s", cfg.BaseURL, client.baseURL)
	}
}
