package anthropic

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/brainmesh/model"
	"github.com/hupe1980/brainmesh/schema"
)

func newServer(t *testing.T, status int, body string, seen *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-ant-test", r.Header.Get("X-Api-Key"))
		data, _ := io.ReadAll(r.Body)
		if seen != nil {
			assert.NoError(t, json.Unmarshal(data, seen))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func withBaseURL(url string) func(o *Options) {
	return func(o *Options) { o.BaseURL = url }
}

const toolUseMessage = `{
  "id": "msg_1",
  "type": "message",
  "role": "assistant",
  "model": "claude-sonnet-4-5",
  "content": [
    {"type": "text", "text": "Calling the tool."},
    {"type": "tool_use", "id": "toolu_1", "name": "response", "input": {"summary": "ok", "count": 2}}
  ],
  "stop_reason": "tool_use",
  "stop_sequence": null,
  "usage": {"input_tokens": 12, "output_tokens": 7}
}`

func TestGenerate_ForcedTool(t *testing.T) {
	var seen map[string]any
	srv := newServer(t, http.StatusOK, toolUseMessage, &seen)

	out := schema.Object(schema.Field("summary", schema.String()), schema.Field("count", schema.Integer()))
	c := schema.Constrain(out, true)

	m := NewModel("sk-ant-test", withBaseURL(srv.URL))
	resp, err := m.Generate(context.Background(), model.Request{
		Model:  "claude-sonnet-4-5",
		System: "Be terse.",
		Prompt: "Summarize.",
		Output: c,
	})
	require.NoError(t, err)
	assert.Equal(t, "msg_1", resp.ID)
	assert.Equal(t, "tool_use", resp.FinishReason)
	assert.Equal(t, 19, resp.Usage.TotalTokens)

	v, err := c.Decode(resp.Text)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"summary": "ok", "count": int64(2)}, v)

	assert.Equal(t, "claude-sonnet-4-5", seen["model"])
	assert.EqualValues(t, 4096, seen["max_tokens"])
	system := seen["system"].([]any)
	assert.Equal(t, "Be terse.", system[0].(map[string]any)["text"])

	tools := seen["tools"].([]any)
	require.Len(t, tools, 1)
	tool := tools[0].(map[string]any)
	assert.Equal(t, "response", tool["name"])
	inputSchema := tool["input_schema"].(map[string]any)
	assert.Equal(t, "object", inputSchema["type"])
	assert.Equal(t, false, inputSchema["additionalProperties"])
	assert.ElementsMatch(t, []any{"summary", "count"}, inputSchema["required"])

	choice := seen["tool_choice"].(map[string]any)
	assert.Equal(t, "tool", choice["type"])
	assert.Equal(t, "response", choice["name"])
}

func TestGenerate_RawText(t *testing.T) {
	var seen map[string]any
	srv := newServer(t, http.StatusOK, `{
		"id": "msg_2", "type": "message", "role": "assistant", "model": "claude-haiku-4-5",
		"content": [{"type": "text", "text": "hello "}, {"type": "text", "text": "world"}],
		"stop_reason": "end_turn", "stop_sequence": null,
		"usage": {"input_tokens": 1, "output_tokens": 2}
	}`, &seen)

	resp, err := NewModel("sk-ant-test", withBaseURL(srv.URL)).Generate(context.Background(), model.Request{
		Model:  "claude-haiku-4-5",
		Prompt: "greet",
		Output: schema.Constrain(schema.String(), true),
	})
	require.NoError(t, err)
	assert.Equal(t, "hello world", resp.Text)
	assert.NotContains(t, seen, "tools")
	assert.NotContains(t, seen, "system")
}

func TestGenerate_ToolNotCalled(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{
		"id": "msg_3", "type": "message", "role": "assistant", "model": "claude-haiku-4-5",
		"content": [{"type": "text", "text": "no"}],
		"stop_reason": "end_turn", "stop_sequence": null,
		"usage": {"input_tokens": 1, "output_tokens": 1}
	}`, nil)

	_, err := NewModel("sk-ant-test", withBaseURL(srv.URL)).Generate(context.Background(), model.Request{
		Model:  "claude-haiku-4-5",
		Prompt: "x",
		Output: schema.Constrain(schema.Boolean(), true),
	})
	assert.ErrorIs(t, err, model.ErrBackend)
}

func TestGenerate_Overloaded(t *testing.T) {
	srv := newServer(t, 529, `{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`, nil)

	_, err := NewModel("sk-ant-test", withBaseURL(srv.URL)).Generate(context.Background(), model.Request{Model: "claude-opus-4-1", Prompt: "x"})
	var be *model.BackendError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, 529, be.StatusCode)
	assert.True(t, be.Temporary())
}
