// Package gemini provides an implementation of model.Model using the Gemini
// API through google.golang.org/genai. Output constraints are sent as
// `responseJsonSchema` with a JSON response MIME type.
package gemini

import (
	"context"
	"errors"

	"google.golang.org/genai"

	"github.com/hupe1980/brainmesh/model"
)

const provider = "google"

// Options configures the Gemini model adapter.
type Options struct {
	BaseURL string
	// APIVersion overrides the API version path segment (default v1beta).
	APIVersion string
	// MaxOutputTokens caps the response length. Zero leaves it to the API.
	MaxOutputTokens int32
}

// Model wraps genai's GenerateContent behind the generic model.Model interface.
type Model struct {
	client *genai.Client
	opts   Options
}

var _ model.Model = (*Model)(nil)

// NewModel creates a Gemini API client for apiKey.
func NewModel(ctx context.Context, apiKey string, optFns ...func(o *Options)) (*Model, error) {
	opts := applyOptions(optFns)
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    opts.BaseURL,
			APIVersion: opts.APIVersion,
		},
	})
	if err != nil {
		return nil, model.NewBackendError(provider, 0, err)
	}
	return &Model{client: client, opts: opts}, nil
}

// NewModelFromClient creates a Gemini model from an existing client.
func NewModelFromClient(client *genai.Client, optFns ...func(o *Options)) *Model {
	return &Model{client: client, opts: applyOptions(optFns)}
}

// Factory returns a model.Factory building a fresh client per invocation.
func Factory(optFns ...func(o *Options)) model.Factory {
	return func(ctx context.Context, apiKey string) (model.Model, error) {
		return NewModel(ctx, apiKey, optFns...)
	}
}

func applyOptions(optFns []func(o *Options)) Options {
	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}
	return opts
}

// Generate sends one GenerateContent request.
func (m *Model) Generate(ctx context.Context, req model.Request) (model.Response, error) {
	cfg := &genai.GenerateContentConfig{}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if m.opts.MaxOutputTokens > 0 {
		cfg.MaxOutputTokens = m.opts.MaxOutputTokens
	}
	if js := req.Output.JSONSchema(); js != nil {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseJsonSchema = js
	}

	resp, err := m.client.Models.GenerateContent(ctx, req.Model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return model.Response{}, classify(err)
	}
	if len(resp.Candidates) == 0 {
		return model.Response{}, &model.BackendError{Provider: provider, Err: errors.New("no candidates returned")}
	}

	out := model.Response{
		ID:           resp.ResponseID,
		Text:         resp.Text(),
		FinishReason: string(resp.Candidates[0].FinishReason),
	}
	if u := resp.UsageMetadata; u != nil {
		out.Usage = &model.TokenUsage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
	}
	return out, nil
}

func classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return model.NewBackendError(provider, apiErr.Code, err)
	}
	return model.NewBackendError(provider, 0, err)
}

// Info returns metadata describing this Gemini model implementation.
func (m *Model) Info() model.Info {
	return model.Info{Name: "generate-content", Provider: provider}
}
