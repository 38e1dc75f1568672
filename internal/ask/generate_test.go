// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Querent Contributors

package ask

import (
	"context"
	"strings"
	"testing"

	"github.com/querent-dev/querent/internal/provider"
	qerr "github.com/querent-dev/querent/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubProvider returns one fixed reply and records the request.
type stubProvider struct {
	result *provider.Result
	err    error

	req provider.Request
}

func (p *stubProvider) Name() string { return "stub" }
func (p *stubProvider) Close() error { return nil }

func (p *stubProvider) Complete(_ context.Context, req provider.Request) (*provider.Result, error) {
	p.req = req
	return p.result, p.err
}

func testDigest() *SchemaDigest {
	return &SchemaDigest{
		Predicates:  []string{"https://querent.dev/mtg/name"},
		SampleCards: []string{"Counterspell"},
	}
}

func TestGenerateQueryParsesStructuredCall(t *testing.T) {
	p := &stubProvider{result: &provider.Result{
		Call: &provider.ToolCall{
			Name:      queryToolName,
			Arguments: `{"query": "SELECT ?s WHERE { ?s ?p ?o }", "reasoning": "broad probe"}`,
		},
	}}

	call, err := generateQuery(context.Background(), p, testDigest(), nil, "User question: q", "q")
	require.NoError(t, err)
	require.NotNil(t, call)
	assert.Equal(t, "SELECT ?s WHERE { ?s ?p ?o }", call.Query)
	assert.Equal(t, "broad probe", call.Reasoning)

	// The request carries the tool and the context-bearing user turn.
	require.NotNil(t, p.req.Tool)
	assert.Equal(t, queryToolName, p.req.Tool.Name)
	require.NotEmpty(t, p.req.Messages)
	last := p.req.Messages[len(p.req.Messages)-1]
	assert.Contains(t, last.Content, "User question: q")
	assert.Contains(t, last.Content, "Question to answer: q")
}

func TestGenerateQueryMissOnFreeText(t *testing.T) {
	p := &stubProvider{result: &provider.Result{Text: "I cannot query that."}}

	call, err := generateQuery(context.Background(), p, testDigest(), nil, "ctx", "q")
	require.NoError(t, err)
	assert.Nil(t, call)
}

func TestGenerateQueryMissOnWrongFunctionName(t *testing.T) {
	p := &stubProvider{result: &provider.Result{
		Call: &provider.ToolCall{Name: "other_tool", Arguments: `{"query": "SELECT ?s WHERE {}"}`},
	}}

	call, err := generateQuery(context.Background(), p, testDigest(), nil, "ctx", "q")
	require.NoError(t, err)
	assert.Nil(t, call)
}

func TestGenerateQueryMissOnUnparseableArguments(t *testing.T) {
	p := &stubProvider{result: &provider.Result{
		Call: &provider.ToolCall{Name: queryToolName, Arguments: `{"query": `},
	}}

	call, err := generateQuery(context.Background(), p, testDigest(), nil, "ctx", "q")
	require.NoError(t, err)
	assert.Nil(t, call)
}

func TestGenerateQueryMissOnBlankQuery(t *testing.T) {
	p := &stubProvider{result: &provider.Result{
		Call: &provider.ToolCall{Name: queryToolName, Arguments: `{"query": "  ", "reasoning": "none"}`},
	}}

	call, err := generateQuery(context.Background(), p, testDigest(), nil, "ctx", "q")
	require.NoError(t, err)
	assert.Nil(t, call)
}

func TestGenerateQueryPropagatesTransportFault(t *testing.T) {
	p := &stubProvider{err: qerr.New(qerr.CodeProviderUpstreamFailure, "503 from upstream")}

	_, err := generateQuery(context.Background(), p, testDigest(), nil, "ctx", "q")
	require.Error(t, err)
	assert.True(t, qerr.IsUpstreamFailure(err))
}

func TestGenerateQuerySystemPromptCapsPredicates(t *testing.T) {
	digest := &SchemaDigest{}
	for i := 0; i < 60; i++ {
		digest.Predicates = append(digest.Predicates, "https://querent.dev/mtg/p"+string(rune('a'+i%26)))
	}

	prompt := generationSystemPrompt(digest)
	// The prompt embeds a bounded predicate listing, never the full set.
	assert.Contains(t, prompt, "https://querent.dev/mtg/pa")
	assert.Equal(t, systemPromptPredicateCap, strings.Count(prompt, "https://querent.dev/mtg/p"))
}
