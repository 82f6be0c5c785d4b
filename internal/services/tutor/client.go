// Package tutor provides the client for the tutoring backend, which owns
// AI responses and code execution. Both are external collaborators; this
// service only relays turns and records outcomes.
package tutor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/javatutor/session-service/internal/domain/models"
)

// Client defines the interface for the tutoring backend.
type Client interface {
	// SubmitChatTurn sends a bounded conversation context to the named model
	// and returns the assistant reply with correlation metadata.
	SubmitChatTurn(ctx context.Context, model models.ModelTag, window []models.ContextEntry) (*ChatTurnResult, error)

	// ExecuteCode runs a code snippet in the backend sandbox.
	ExecuteCode(ctx context.Context, code string) (*ExecutionResult, error)
}

// ChatTurnResult is the backend's reply to a chat turn.
type ChatTurnResult struct {
	Text          string `json:"text"`
	CorrelationID string `json:"correlationId"`
	LatencyMs     int64  `json:"latencyMs"`
	ModelName     string `json:"modelName"`
}

// ExecutionResult is the outcome of a sandboxed code run.
type ExecutionResult struct {
	Stdout     string `json:"stdout"`
	Stderr     string `json:"stderr"`
	DurationMs int64  `json:"durationMs"`
}

type tokenKey struct{}

// WithToken returns a context carrying the caller's bearer token. Requests
// made with that context forward the token to the backend.
func WithToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, tokenKey{}, token)
}

func tokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

// client implements Client over HTTP.
type client struct {
	baseURL    string
	httpClient *http.Client
}

// ClientConfig holds the configuration for the tutor backend client.
type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
}

// NewClient creates a new tutor backend client.
func NewClient(cfg *ClientConfig) Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type chatTurnRequest struct {
	Model    models.ModelTag       `json:"model"`
	Messages []models.ContextEntry `json:"messages"`
}

type executeRequest struct {
	Code string `json:"code"`
}

// SubmitChatTurn sends a chat turn to the backend.
func (c *client) SubmitChatTurn(ctx context.Context, model models.ModelTag, window []models.ContextEntry) (*ChatTurnResult, error) {
	var result ChatTurnResult
	if err := c.post(ctx, "/api/v1/tutor/chat", &chatTurnRequest{Model: model, Messages: window}, &result); err != nil {
		return nil, fmt.Errorf("chat turn failed: %w", err)
	}
	return &result, nil
}

// ExecuteCode runs a code snippet in the backend sandbox.
func (c *client) ExecuteCode(ctx context.Context, code string) (*ExecutionResult, error) {
	var result ExecutionResult
	if err := c.post(ctx, "/api/v1/tutor/execute", &executeRequest{Code: code}, &result); err != nil {
		return nil, fmt.Errorf("code execution failed: %w", err)
	}
	return &result, nil
}

func (c *client) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token := tokenFrom(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("backend returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
