// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Querent Contributors

package ask_test

import (
	"context"
	"testing"

	"github.com/querent-dev/querent/internal/ask"
	qerr "github.com/querent-dev/querent/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T, store *fakeStore, prov *fakeProvider, opts ...func(*ask.Config)) *ask.Engine {
	t.Helper()
	cfg := ask.Config{Store: store, Provider: prov}
	for _, opt := range opts {
		opt(&cfg)
	}
	e, err := ask.New(cfg)
	require.NoError(t, err)
	return e
}

func withMaxRetries(n int) func(*ask.Config) {
	return func(c *ask.Config) { c.MaxRetries = n }
}

// Scenario A: first attempt returns zero rows, the refined second attempt
// returns seven and validates satisfactory.
func TestAnswerRetriesAfterEmptyResultThenSucceeds(t *testing.T) {
	store := newFakeStore(
		storeReply{set: rows("count")}, // zero rows
		storeReply{set: rows("count", "7")},
	)
	prov := &fakeProvider{
		generate: []providerReply{
			queryCallResult(`SELECT ?count WHERE { ?c <name> "Counterspell" }`, "exact match"),
			queryCallResult(`SELECT (COUNT(?c) AS ?count) WHERE { ?c <name> ?n . FILTER(CONTAINS(LCASE(?n), "counterspell")) }`, "partial match"),
		},
		compose:  []providerReply{textResult("There are 7 printings of Counterspell.")},
		validate: []providerReply{textResult(`{"satisfactory": true, "reason": "count given"}`)},
	}

	out, err := newEngine(t, store, prov).Answer(context.Background(), "How many printings of Counterspell exist?")
	require.NoError(t, err)

	assert.True(t, out.Success)
	assert.Equal(t, 2, out.AttemptCount())
	assert.Contains(t, out.Answer, "7")
	assert.Contains(t, out.FinalQuery(), "COUNT")
	require.Len(t, out.Rows(), 1)
	assert.Equal(t, "7", out.Rows()[0]["count"])
}

// Scenario B: the store rejects every query; the session exhausts with each
// attempt preserving the store's error text.
func TestAnswerExhaustsOnRepeatedQueryFaults(t *testing.T) {
	fault := qerr.New(qerr.CodeGraphQueryFault, "Parse error: unresolved prefixed name")
	store := newFakeStore(
		storeReply{err: fault},
		storeReply{err: fault},
		storeReply{err: fault},
	)
	prov := &fakeProvider{
		generate: []providerReply{
			queryCallResult("SELECT ?a WHERE { ?a :name ?n }", "try 1"),
			queryCallResult("SELECT ?b WHERE { ?b :name ?n }", "try 2"),
			queryCallResult("SELECT ?c WHERE { ?c :name ?n }", "try 3"),
		},
	}

	out, err := newEngine(t, store, prov).Answer(context.Background(), "Who illustrated Black Lotus?")
	require.NoError(t, err)

	assert.False(t, out.Success)
	assert.Equal(t, ask.DefaultMaxRetries, out.AttemptCount())
	for _, attempt := range out.Attempts {
		assert.True(t, attempt.Execution.Failed)
		assert.Contains(t, attempt.Execution.Error, "unresolved prefixed name")
		assert.Empty(t, attempt.Answer)
		assert.Nil(t, attempt.Verdict)
	}
}

// Scenario C: the validator replies with prose instead of JSON; the verdict
// degrades to the observable default and the session succeeds immediately.
func TestAnswerSucceedsWhenValidatorPayloadUnparseable(t *testing.T) {
	store := newFakeStore(storeReply{set: rows("name", "Counterspell")})
	prov := &fakeProvider{
		generate: []providerReply{queryCallResult("SELECT ?name WHERE { ?c <name> ?name }", "lookup")},
		compose:  []providerReply{textResult("The card is Counterspell.")},
		validate: []providerReply{textResult("Sure! The answer looks fine to me.")},
	}

	out, err := newEngine(t, store, prov).Answer(context.Background(), "Which card counters spells?")
	require.NoError(t, err)

	assert.True(t, out.Success)
	assert.Equal(t, 1, out.AttemptCount())
	require.NotNil(t, out.Attempts[0].Verdict)
	assert.True(t, out.Attempts[0].Verdict.Satisfactory)
	assert.Equal(t, ask.ReasonValidationUnavailable, out.Attempts[0].Verdict.Reason)
}

// Scenario D: maxRetries=1 and the only attempt returns zero rows.
func TestAnswerExhaustsAfterSingleAttemptBudget(t *testing.T) {
	store := newFakeStore(storeReply{set: rows("s")})
	prov := &fakeProvider{
		generate: []providerReply{queryCallResult("SELECT ?s WHERE { ?s ?p ?o }", "broad")},
	}

	out, err := newEngine(t, store, prov, withMaxRetries(1)).Answer(context.Background(), "Anything?")
	require.NoError(t, err)

	assert.False(t, out.Success)
	assert.Equal(t, 1, out.AttemptCount())
}

func TestAnswerStopsAtFirstSatisfactoryVerdict(t *testing.T) {
	store := newFakeStore(storeReply{set: rows("artist", "John Avon")})
	prov := &fakeProvider{
		generate: []providerReply{queryCallResult("SELECT ?artist WHERE { ?c <artist> ?artist }", "artist lookup")},
		compose:  []providerReply{textResult("John Avon illustrated it.")},
		validate: []providerReply{textResult(`{"satisfactory": true, "reason": "named the artist"}`)},
	}

	out, err := newEngine(t, store, prov).Answer(context.Background(), "Who illustrated it?")
	require.NoError(t, err)

	assert.True(t, out.Success)
	assert.Equal(t, 1, out.AttemptCount())
	// No further generation happened after the satisfactory verdict.
	assert.Len(t, prov.generateReqs, 1)
	assert.Len(t, store.queries, 1)
}

func TestAnswerRetriesOnUnsatisfactoryVerdictWithFeedback(t *testing.T) {
	store := newFakeStore(
		storeReply{set: rows("name", "Counterspell")},
		storeReply{set: rows("count", "7")},
	)
	prov := &fakeProvider{
		generate: []providerReply{
			queryCallResult("SELECT ?name WHERE { ?c <name> ?name }", "names"),
			queryCallResult("SELECT (COUNT(?c) AS ?count) WHERE { ?c <name> ?n }", "count"),
		},
		compose: []providerReply{
			textResult("Counterspell is a card."),
			textResult("There are 7 printings."),
		},
		validate: []providerReply{
			textResult(`{"satisfactory": false, "reason": "no count provided", "missing": "a number", "suggestion": "use COUNT"}`),
			textResult(`{"satisfactory": true, "reason": "count provided"}`),
		},
	}

	out, err := newEngine(t, store, prov).Answer(context.Background(), "How many printings?")
	require.NoError(t, err)

	assert.True(t, out.Success)
	assert.Equal(t, 2, out.AttemptCount())
	require.NotNil(t, out.Attempts[0].Verdict)
	assert.False(t, out.Attempts[0].Verdict.Satisfactory)

	// The second generation saw the validator's feedback in its history.
	second := prov.generateReqs[1]
	var joined string
	for _, m := range second.Messages {
		joined += m.Content + "\n"
	}
	assert.Contains(t, joined, "no count provided")
	assert.Contains(t, joined, "use COUNT")
}

func TestAnswerGenerationMissRecordedAsNoResultAttempt(t *testing.T) {
	store := newFakeStore(storeReply{set: rows("count", "3")})
	prov := &fakeProvider{
		generate: []providerReply{
			textResult("I would need to query the database for that."), // no structured call
			queryCallResult("SELECT (COUNT(?c) AS ?count) WHERE { ?c ?p ?o }", "count"),
		},
		compose:  []providerReply{textResult("There are 3.")},
		validate: []providerReply{textResult(`{"satisfactory": true, "reason": "ok"}`)},
	}

	out, err := newEngine(t, store, prov).Answer(context.Background(), "How many?")
	require.NoError(t, err)

	assert.True(t, out.Success)
	assert.Equal(t, 2, out.AttemptCount())
	first := out.Attempts[0]
	assert.Empty(t, first.Query)
	assert.False(t, first.Execution.Failed)
	assert.Equal(t, 0, first.Execution.RowCount)
	// Only the second attempt reached the store.
	assert.Len(t, store.queries, 1)
}

func TestAnswerContextAccumulatesAllPriorQueries(t *testing.T) {
	store := newFakeStore(
		storeReply{set: rows("s")},
		storeReply{set: rows("s")},
		storeReply{set: rows("s")},
	)
	prov := &fakeProvider{
		generate: []providerReply{
			queryCallResult("QUERY-ONE", "first"),
			queryCallResult("QUERY-TWO", "second"),
			queryCallResult("QUERY-THREE", "third"),
		},
	}

	out, err := newEngine(t, store, prov).Answer(context.Background(), "Anything?")
	require.NoError(t, err)
	assert.False(t, out.Success)

	// The third generation's context literally contains both prior queries.
	third := prov.generateReqs[2]
	last := third.Messages[len(third.Messages)-1].Content
	assert.Contains(t, last, "QUERY-ONE")
	assert.Contains(t, last, "QUERY-TWO")
	assert.NotContains(t, last, "QUERY-THREE")
}

func TestAnswerProviderTransportFaultIsFatal(t *testing.T) {
	store := newFakeStore(storeReply{set: rows("s", "x")})
	upstream := qerr.New(qerr.CodeProviderUpstreamFailure, "401 unauthorized")
	prov := &fakeProvider{
		generate: []providerReply{{err: upstream}},
	}

	out, err := newEngine(t, store, prov).Answer(context.Background(), "Anything?")
	require.Error(t, err)
	assert.Nil(t, out)
	assert.True(t, qerr.IsUpstreamFailure(err))
	// No retry happened: the fault terminates the session immediately.
	assert.Len(t, prov.generateReqs, 1)
}

func TestAnswerComposerTransportFaultIsFatal(t *testing.T) {
	store := newFakeStore(storeReply{set: rows("s", "x")})
	prov := &fakeProvider{
		generate: []providerReply{queryCallResult("SELECT ?s WHERE { ?s ?p ?o }", "broad")},
		compose:  []providerReply{{err: qerr.New(qerr.CodeProviderUpstreamFailure, "quota exceeded")}},
	}

	_, err := newEngine(t, store, prov).Answer(context.Background(), "Anything?")
	require.Error(t, err)
	assert.True(t, qerr.IsUpstreamFailure(err))
}

func TestAnswerAttemptsNeverExceedBudget(t *testing.T) {
	for _, budget := range []int{1, 2, 3, 5} {
		store := newFakeStore() // every attempt query returns zero rows
		prov := &fakeProvider{
			generate: []providerReply{
				queryCallResult("Q1", "r"), queryCallResult("Q2", "r"),
				queryCallResult("Q3", "r"), queryCallResult("Q4", "r"),
				queryCallResult("Q5", "r"),
			},
		}

		out, err := newEngine(t, store, prov, withMaxRetries(budget)).Answer(context.Background(), "Anything?")
		require.NoError(t, err)
		assert.False(t, out.Success)
		assert.Equal(t, budget, out.AttemptCount(), "budget %d", budget)
	}
}

func TestAnswerRejectsEmptyQuestion(t *testing.T) {
	e := newEngine(t, newFakeStore(), &fakeProvider{})
	_, err := e.Answer(context.Background(), "")
	require.Error(t, err)
	assert.True(t, qerr.HasCode(err, qerr.CodeAskInputInvalid))
}

func TestAnswerStagesFireInOrder(t *testing.T) {
	store := newFakeStore(storeReply{set: rows("s", "x")})
	prov := &fakeProvider{
		generate: []providerReply{queryCallResult("SELECT ?s WHERE { ?s ?p ?o }", "broad")},
		compose:  []providerReply{textResult("answer")},
		validate: []providerReply{textResult(`{"satisfactory": true, "reason": "ok"}`)},
	}

	var stages []string
	record := func(name string) func(int) {
		return func(int) { stages = append(stages, name) }
	}

	e := newEngine(t, store, prov, func(c *ask.Config) {
		c.Hooks = &ask.Hooks{
			OnGenerate: record("generate"),
			OnExecute:  record("execute"),
			OnCompose:  record("compose"),
			OnValidate: record("validate"),
		}
	})

	_, err := e.Answer(context.Background(), "Anything?")
	require.NoError(t, err)
	assert.Equal(t, []string{"generate", "execute", "compose", "validate"}, stages)
}

func TestNewRequiresStoreAndProvider(t *testing.T) {
	_, err := ask.New(ask.Config{Provider: &fakeProvider{}})
	assert.Error(t, err)

	_, err = ask.New(ask.Config{Store: newFakeStore()})
	assert.Error(t, err)
}
