// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Querent Contributors

package ask

import (
	"context"
	"testing"

	"github.com/querent-dev/querent/internal/graph"
	qerr "github.com/querent-dev/querent/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestExecuteQueryFoldsStoreErrorIntoResult(t *testing.T) {
	store := &scriptedStore{errs: []error{
		qerr.New(qerr.CodeGraphQueryFault, "Parse error: bad token"),
	}}

	result := executeQuery(context.Background(), store, "SELECT bogus")

	assert.True(t, result.Failed)
	assert.Contains(t, result.Error, "Parse error: bad token")
	assert.False(t, result.HasRows())
}

func TestExecuteQueryZeroRowsIsSuccess(t *testing.T) {
	store := &scriptedStore{sets: []*graph.BindingSet{
		{Vars: []string{"name"}},
	}}

	result := executeQuery(context.Background(), store, "SELECT ?name WHERE { ?c <name> ?name }")

	assert.False(t, result.Failed)
	assert.Equal(t, 0, result.RowCount)
	assert.False(t, result.HasRows())
	assert.Equal(t, []string{"name"}, result.Vars)
}

func TestExecuteQueryPreservesRowOrder(t *testing.T) {
	store := &scriptedStore{sets: []*graph.BindingSet{
		{
			Vars: []string{"name"},
			Rows: []graph.Binding{
				{"name": "Counterspell"},
				{"name": "Arcane Denial"},
				{"name": "Dissipate"},
			},
		},
	}}

	result := executeQuery(context.Background(), store, "SELECT ?name WHERE { ?c <name> ?name }")

	assert.True(t, result.HasRows())
	assert.Equal(t, 3, result.RowCount)
	assert.Equal(t, "Counterspell", result.Rows[0]["name"])
	assert.Equal(t, "Dissipate", result.Rows[2]["name"])
}
