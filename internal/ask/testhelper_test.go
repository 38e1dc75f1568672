// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Querent Contributors

package ask_test

import (
	"context"
	"strings"

	"github.com/querent-dev/querent/internal/graph"
	"github.com/querent-dev/querent/internal/provider"
)

// storeReply scripts one Query call on the fake store.
type storeReply struct {
	set *graph.BindingSet
	err error
}

// fakeStore answers the engine's schema-sampling queries from fixed data and
// pops attempt queries from a scripted queue, recording everything it saw.
type fakeStore struct {
	predicates []string
	samples    []string

	replies []storeReply
	queries []string
}

func newFakeStore(replies ...storeReply) *fakeStore {
	return &fakeStore{
		predicates: []string{
			"https://querent.dev/mtg/name",
			"https://querent.dev/mtg/artist",
			"https://querent.dev/mtg/set_code",
		},
		samples: []string{"Counterspell", "Arcane Denial"},
		replies: replies,
	}
}

func (s *fakeStore) Query(_ context.Context, queryText string) (*graph.BindingSet, error) {
	switch {
	case strings.Contains(queryText, "?predicate"):
		set := &graph.BindingSet{Vars: []string{"predicate"}}
		for _, p := range s.predicates {
			set.Rows = append(set.Rows, graph.Binding{"predicate": p})
		}
		return set, nil

	case strings.Contains(queryText, "FILTER(CONTAINS(LCASE(?name)"):
		set := &graph.BindingSet{Vars: []string{"card", "name"}}
		for _, n := range s.samples {
			set.Rows = append(set.Rows, graph.Binding{"card": "card/" + n, "name": n})
		}
		return set, nil
	}

	s.queries = append(s.queries, queryText)
	if len(s.replies) == 0 {
		return &graph.BindingSet{}, nil
	}

	reply := s.replies[0]
	s.replies = s.replies[1:]
	if reply.err != nil {
		return nil, reply.err
	}
	return reply.set, nil
}

// rows builds a BindingSet of name→value single-column rows.
func rows(varName string, values ...string) *graph.BindingSet {
	set := &graph.BindingSet{Vars: []string{varName}}
	for _, v := range values {
		set.Rows = append(set.Rows, graph.Binding{varName: v})
	}
	return set
}

// providerReply scripts one Complete call on the fake provider.
type providerReply struct {
	result *provider.Result
	err    error
}

// fakeProvider routes each Complete call to one of three scripted queues
// based on the request shape: Tool set means query generation, JSONOnly
// means validation, otherwise composition. Requests are recorded per queue.
type fakeProvider struct {
	generate []providerReply
	compose  []providerReply
	validate []providerReply

	generateReqs []provider.Request
	composeReqs  []provider.Request
	validateReqs []provider.Request
}

func (p *fakeProvider) Name() string { return "fake" }
func (p *fakeProvider) Close() error { return nil }

func (p *fakeProvider) Complete(_ context.Context, req provider.Request) (*provider.Result, error) {
	var queue *[]providerReply
	switch {
	case req.Tool != nil:
		p.generateReqs = append(p.generateReqs, req)
		queue = &p.generate
	case req.JSONOnly:
		p.validateReqs = append(p.validateReqs, req)
		queue = &p.validate
	default:
		p.composeReqs = append(p.composeReqs, req)
		queue = &p.compose
	}

	if len(*queue) == 0 {
		return &provider.Result{Text: "unscripted"}, nil
	}

	reply := (*queue)[0]
	*queue = (*queue)[1:]
	return reply.result, reply.err
}

// queryCallResult builds a generation reply carrying a structured query call.
func queryCallResult(query, reasoning string) providerReply {
	return providerReply{result: &provider.Result{
		Call: &provider.ToolCall{
			ID:        "call_1",
			Name:      "execute_sparql",
			Arguments: `{"query": ` + jsonString(query) + `, "reasoning": ` + jsonString(reasoning) + `}`,
		},
	}}
}

// textResult builds a free-text reply.
func textResult(text string) providerReply {
	return providerReply{result: &provider.Result{Text: text}}
}

func jsonString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
