// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Querent Contributors

package sparqlhttp_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/querent-dev/querent/internal/graph/sparqlhttp"
	qerr "github.com/querent-dev/querent/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resultsJSON = `{
  "head": {"vars": ["card", "name"]},
  "results": {"bindings": [
    {"card": {"type": "uri", "value": "https://querent.dev/mtg/card/abc"},
     "name": {"type": "literal", "value": "Counterspell"}},
    {"card": {"type": "uri", "value": "https://querent.dev/mtg/card/def"},
     "name": {"type": "literal", "value": "Mana Drain"}}
  ]}
}`

func newClient(t *testing.T, handler http.HandlerFunc) *sparqlhttp.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := sparqlhttp.New(sparqlhttp.Config{Endpoint: srv.URL, Dataset: "mtg"})
	require.NoError(t, err)
	return c
}

func TestQueryParsesBindings(t *testing.T) {
	var gotQuery string
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/mtg/sparql", r.URL.Path)
		require.NoError(t, r.ParseForm())
		gotQuery = r.PostFormValue("query")
		w.Header().Set("Content-Type", "application/sparql-results+json")
		_, _ = io.WriteString(w, resultsJSON)
	})

	set, err := c.Query(context.Background(), "SELECT ?card ?name WHERE { ?card <name> ?name }")
	require.NoError(t, err)

	assert.Contains(t, gotQuery, "SELECT ?card ?name")
	assert.Equal(t, []string{"card", "name"}, set.Vars)
	require.Equal(t, 2, set.Len())
	assert.Equal(t, "Counterspell", set.Rows[0]["name"])
	assert.Equal(t, "Mana Drain", set.Rows[1]["name"])
}

func TestQueryZeroRowsIsNotAnError(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"head":{"vars":["s"]},"results":{"bindings":[]}}`)
	})

	set, err := c.Query(context.Background(), "SELECT ?s WHERE { ?s <p> \"nothing\" }")
	require.NoError(t, err)
	assert.Equal(t, 0, set.Len())
}

func TestQueryRejectionIsQueryFault(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, "Parse error: unresolved prefixed name: :name")
	})

	_, err := c.Query(context.Background(), "SELECT ?s WHERE { ?s :name ?n }")
	require.Error(t, err)
	assert.True(t, qerr.IsQueryFault(err))
	assert.Contains(t, err.Error(), "unresolved prefixed name")
}

func TestQueryServerErrorIsTransportFailure(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.Query(context.Background(), "SELECT * WHERE { ?s ?p ?o }")
	require.Error(t, err)
	assert.True(t, qerr.HasCode(err, qerr.CodeGraphTransportFailure))
	assert.False(t, qerr.IsQueryFault(err))
}

func TestQueryGarbageBodyIsResponseInvalid(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "<html>not json</html>")
	})

	_, err := c.Query(context.Background(), "SELECT * WHERE { ?s ?p ?o }")
	require.Error(t, err)
	assert.True(t, qerr.HasCode(err, qerr.CodeGraphResponseInvalid))
}

func TestLoadTurtlePutsDefaultGraph(t *testing.T) {
	var gotBody string
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/mtg/data", r.URL.Path)
		require.Equal(t, "text/turtle", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusNoContent)
	})

	err := c.LoadTurtle(context.Background(), []byte("<a> <b> <c> ."))
	require.NoError(t, err)
	assert.Equal(t, "<a> <b> <c> .", gotBody)
}

func TestUpdateFailureCarriesCode(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, "update not permitted")
	})

	err := c.Update(context.Background(), "CLEAR DEFAULT")
	require.Error(t, err)
	assert.True(t, qerr.HasCode(err, qerr.CodeGraphUpdateFailure))
}

func TestNewRequiresEndpointAndDataset(t *testing.T) {
	_, err := sparqlhttp.New(sparqlhttp.Config{Dataset: "mtg"})
	assert.Error(t, err)

	_, err = sparqlhttp.New(sparqlhttp.Config{Endpoint: "http://localhost:3030"})
	assert.Error(t, err)
}
