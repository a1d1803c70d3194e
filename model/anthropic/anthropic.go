// Package anthropic provides an implementation of model.Model using the
// Anthropic Messages API.
//
// The Messages API has no response-format parameter, so structured output is
// requested by offering a single tool whose input schema is the wire
// constraint and forcing the model to call it. The tool input is returned as
// the response body. Raw string constraints skip the tool and return the
// concatenated text blocks.
package anthropic

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/hupe1980/brainmesh/model"
)

const provider = "anthropic"

// Options configures the Anthropic model adapter.
type Options struct {
	BaseURL string
	// MaxTokens is required by the Messages API.
	MaxTokens int64
	// MaxRetries is the SDK's own retry count, zero by default.
	MaxRetries     int
	RequestOptions []option.RequestOption
}

// Model wraps the Anthropic Messages API behind the generic model.Model interface.
type Model struct {
	client *anthropic.Client
	opts   Options
}

var _ model.Model = (*Model)(nil)

// NewModel creates a new Anthropic model using the official client.
func NewModel(apiKey string, optFns ...func(o *Options)) *Model {
	opts := applyOptions(optFns)
	clientOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(opts.MaxRetries),
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
	}
	clientOpts = append(clientOpts, opts.RequestOptions...)
	client := anthropic.NewClient(clientOpts...)
	return &Model{client: &client, opts: opts}
}

// NewModelFromClient creates a new Anthropic model from an existing client.
func NewModelFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Model {
	return &Model{client: client, opts: applyOptions(optFns)}
}

// Factory returns a model.Factory building a fresh client per invocation.
func Factory(optFns ...func(o *Options)) model.Factory {
	return func(_ context.Context, apiKey string) (model.Model, error) {
		return NewModel(apiKey, optFns...), nil
	}
}

func applyOptions(optFns []func(o *Options)) Options {
	opts := Options{MaxTokens: 4096}
	for _, fn := range optFns {
		fn(&opts)
	}
	return opts
}

// Generate sends one Messages request and extracts the response body.
func (m *Model) Generate(ctx context.Context, req model.Request) (model.Response, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: m.opts.MaxTokens,
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt))},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	js := req.Output.JSONSchema()
	if js != nil {
		params.Tools = []anthropic.ToolUnionParam{buildTool(req.Output.Name, js)}
		params.ToolChoice = anthropic.ToolChoiceParamOfTool(req.Output.Name)
	}

	resp, err := m.client.Messages.New(ctx, params)
	if err != nil {
		return model.Response{}, classify(err)
	}

	out := model.Response{
		ID:           resp.ID,
		FinishReason: string(resp.StopReason),
		Usage: &model.TokenUsage{
			PromptTokens:     int(resp.Usage.InputTokens),
			CompletionTokens: int(resp.Usage.OutputTokens),
			TotalTokens:      int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
		},
	}

	var text strings.Builder
	for _, block := range resp.Content {
		switch block.Type {
		case "tool_use":
			tu := block.AsToolUse()
			if js != nil && tu.Name == req.Output.Name {
				out.Text = string(tu.Input)
				return out, nil
			}
		case "text":
			text.WriteString(block.AsText().Text)
		}
	}
	if js != nil {
		return model.Response{}, &model.BackendError{Provider: provider, Err: errors.New("model did not call the response tool")}
	}
	out.Text = text.String()
	return out, nil
}

// buildTool turns an object wire schema into a tool definition.
func buildTool(name string, js map[string]any) anthropic.ToolUnionParam {
	inputSchema := anthropic.ToolInputSchemaParam{
		Properties:  js["properties"],
		ExtraFields: map[string]any{"additionalProperties": false},
	}
	if required, ok := js["required"].([]string); ok {
		inputSchema.Required = required
	}
	tool := anthropic.ToolUnionParamOfTool(inputSchema, name)
	tool.OfTool.Description = anthropic.String("Return the " + name + ". Always call this tool with the final answer.")
	return tool
}

func classify(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return model.NewBackendError(provider, apiErr.StatusCode, err)
	}
	return model.NewBackendError(provider, 0, err)
}

// Info returns metadata describing this Anthropic model implementation.
func (m *Model) Info() model.Info {
	return model.Info{Name: "messages", Provider: provider}
}
