// Package openai provides an implementation of model.Model using the OpenAI
// Chat Completions API. Output constraints are sent as a strict
// `json_schema` response format; raw string constraints send none and the
// message content is returned as is.
package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/hupe1980/brainmesh/model"
)

const provider = "openai"

// Options configure the OpenAI model adapter.
type Options struct {
	// BaseURL overrides the API endpoint.
	BaseURL string
	// MaxCompletionTokens caps the response length. Zero leaves it to the API.
	MaxCompletionTokens int64
	// MaxRetries is the SDK's own retry count. Atoms do not retry, so the
	// default is zero.
	MaxRetries int
	// RequestOptions are appended to the client options.
	RequestOptions []option.RequestOption
}

// Model wraps the OpenAI Chat Completions API behind the generic model.Model interface.
type Model struct {
	client *openai.Client
	opts   Options
}

var _ model.Model = (*Model)(nil)

// NewModel creates a new OpenAI model using the official client.
func NewModel(apiKey string, optFns ...func(o *Options)) *Model {
	opts := applyOptions(optFns)
	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(opts.MaxRetries),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	reqOpts = append(reqOpts, opts.RequestOptions...)
	client := openai.NewClient(reqOpts...)
	return &Model{client: &client, opts: opts}
}

// NewModelFromClient creates a new OpenAI model from an existing client.
func NewModelFromClient(client *openai.Client, optFns ...func(o *Options)) *Model {
	return &Model{client: client, opts: applyOptions(optFns)}
}

// Factory returns a model.Factory building a fresh client per invocation.
func Factory(optFns ...func(o *Options)) model.Factory {
	return func(_ context.Context, apiKey string) (model.Model, error) {
		return NewModel(apiKey, optFns...), nil
	}
}

func applyOptions(optFns []func(o *Options)) Options {
	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}
	return opts
}

// Generate sends one chat completion request and returns the first choice.
func (m *Model) Generate(ctx context.Context, req model.Request) (model.Response, error) {
	resp, err := m.client.Chat.Completions.New(ctx, m.buildParams(req))
	if err != nil {
		return model.Response{}, classify(err)
	}
	if len(resp.Choices) == 0 {
		return model.Response{}, &model.BackendError{Provider: provider, Err: errors.New("no choices returned")}
	}
	ch0 := resp.Choices[0]
	if ch0.Message.Refusal != "" {
		return model.Response{}, &model.BackendError{Provider: provider, Err: fmt.Errorf("model refused: %s", ch0.Message.Refusal)}
	}
	return model.Response{
		ID:           resp.ID,
		Text:         ch0.Message.Content,
		FinishReason: ch0.FinishReason,
		Usage: &model.TokenUsage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}, nil
}

// buildParams assembles the request: optional system message, the user
// prompt and the response format.
func (m *Model) buildParams(req model.Request) openai.ChatCompletionNewParams {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Messages: messages,
		Model:    req.Model,
	}
	if m.opts.MaxCompletionTokens > 0 {
		params.MaxCompletionTokens = openai.Int(m.opts.MaxCompletionTokens)
	}
	if js := req.Output.JSONSchema(); js != nil {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   req.Output.Name,
					Strict: openai.Bool(req.Output.Strict),
					Schema: js,
				},
			},
		}
	}
	return params
}

func classify(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return model.NewBackendError(provider, apiErr.StatusCode, err)
	}
	return model.NewBackendError(provider, 0, err)
}

// Info returns metadata describing this OpenAI model implementation.
func (m *Model) Info() model.Info {
	return model.Info{Name: "chat-completions", Provider: provider}
}
