// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Querent Contributors

package anthropic_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/querent-dev/querent/internal/provider"
	"github.com/querent-dev/querent/internal/provider/anthropic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const toolUseResponse = `{
  "id": "msg_1",
  "type": "message",
  "role": "assistant",
  "model": "claude-sonnet-4-5",
  "content": [
    {"type": "tool_use", "id": "toolu_1", "name": "execute_sparql",
     "input": {"query": "SELECT ?s WHERE { ?s ?p ?o }", "reasoning": "list subjects"}}
  ],
  "stop_reason": "tool_use",
  "usage": {"input_tokens": 30, "output_tokens": 12}
}`

const textOnlyResponse = `{
  "id": "msg_2",
  "type": "message",
  "role": "assistant",
  "model": "claude-sonnet-4-5",
  "content": [{"type": "text", "text": "{\"satisfactory\": true, \"reason\": \"count given\"}"}],
  "stop_reason": "end_turn",
  "usage": {"input_tokens": 20, "output_tokens": 10}
}`

func newProvider(t *testing.T, handler http.HandlerFunc) *anthropic.Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := anthropic.New(provider.Settings{
		APIKey:     "test-key",
		Deployment: "claude-sonnet-4-5",
		BaseURL:    srv.URL,
	})
	require.NoError(t, err)
	return p
}

func TestCompleteParsesToolUse(t *testing.T) {
	p := newProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, toolUseResponse)
	})

	res, err := p.Complete(context.Background(), provider.Request{
		Messages: []provider.Message{provider.UserMessage("How many printings?")},
		Tool: &provider.ToolDefinition{
			Name: "execute_sparql",
			InputSchema: map[string]any{
				"type":       "object",
				"properties": map[string]any{"query": map[string]any{"type": "string"}},
				"required":   []string{"query"},
			},
		},
	})
	require.NoError(t, err)

	require.NotNil(t, res.Call)
	assert.Equal(t, "execute_sparql", res.Call.Name)
	assert.Contains(t, res.Call.Arguments, "SELECT ?s")
	assert.Equal(t, 30, res.Usage.InputTokens)
}

func TestCompleteJSONOnlyAppendsSystemInstruction(t *testing.T) {
	var gotBody map[string]any
	p := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, textOnlyResponse)
	})

	res, err := p.Complete(context.Background(), provider.Request{
		SystemPrompt: "You are a validation assistant.",
		Messages:     []provider.Message{provider.UserMessage("validate this")},
		JSONOnly:     true,
	})
	require.NoError(t, err)
	assert.Nil(t, res.Call)
	assert.Contains(t, res.Text, `"satisfactory": true`)

	system, ok := gotBody["system"].([]any)
	require.True(t, ok)
	first := system[0].(map[string]any)
	assert.Contains(t, first["text"], "single JSON object")
	assert.Contains(t, first["text"], "validation assistant")
}

func TestNewValidatesSettings(t *testing.T) {
	_, err := anthropic.New(provider.Settings{Deployment: "claude-sonnet-4-5"})
	assert.Error(t, err)

	_, err = anthropic.New(provider.Settings{APIKey: "k"})
	assert.Error(t, err)
}
