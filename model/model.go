package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/brainmesh/schema"
)

// Request captures the normalized single-turn model input.
type Request struct {
	Model  string            `json:"model"`            // Backend model id
	System string            `json:"system,omitempty"` // Rendered briefs; sent as a system message when non-empty
	Prompt string            `json:"prompt"`           // The caller's instruction
	Output schema.Constraint `json:"output"`           // Wire constraint for the response body
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the final output of a Generate call.
type Response struct {
	ID           string      `json:"id"`
	Text         string      `json:"text"`          // Response body, JSON unless the constraint is raw
	FinishReason string      `json:"finish_reason"` // "stop", "length", "tool_use", ...
	Usage        *TokenUsage `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "google", "mock"
}

// Model is the minimal interface required by Atoms to drive generation.
type Model interface {
	Generate(ctx context.Context, req Request) (Response, error)

	// Info returns information about the model implementation.
	Info() Info
}

// Factory builds a Model for one invocation from a resolved API key.
type Factory func(ctx context.Context, apiKey string) (Model, error)

// MockModel is a lightweight in-memory Model useful for tests & examples.
// Unless Respond is set it answers registered prompts verbatim and echoes the
// prompt otherwise, shaped to the request's output constraint.
type MockModel struct {
	// Respond overrides the default behaviour when set.
	Respond func(ctx context.Context, req Request) (Response, error)

	info      Info
	mu        sync.Mutex
	responses map[string]string
	requests  []Request
}

var _ Model = (*MockModel)(nil)

// NewMockModel constructs a MockModel.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		info:      Info{Name: name, Provider: "mock"},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned body for an input prompt.
func (m *MockModel) AddResponse(prompt, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = body
}

// Requests returns the requests seen so far.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.requests...)
}

// Generate implements Model.
func (m *MockModel) Generate(ctx context.Context, req Request) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	m.mu.Lock()
	m.requests = append(m.requests, req)
	body, ok := m.responses[req.Prompt]
	m.mu.Unlock()

	if m.Respond != nil {
		return m.Respond(ctx, req)
	}
	if !ok {
		body = fmt.Sprintf("Mock response to: %s", req.Prompt)
		if !req.Output.IsRaw() {
			body = fmt.Sprintf("{%q:%q}", schema.WrapKey, body)
		}
	}
	return Response{ID: "mock", Text: body, FinishReason: "stop"}, nil
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }
