// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Querent Contributors

package ask

import (
	"context"

	"github.com/querent-dev/querent/internal/graph"
)

// executeQuery runs one generated query against the store and normalizes
// the outcome. Every store-level fault — malformed syntax, timeout, engine
// error — is folded into ExecutionResult.Failed with the store's message
// preserved: query malformation is an expected, retryable condition, never
// a program fault escaping to the orchestrator.
func executeQuery(ctx context.Context, store graph.Store, queryText string) ExecutionResult {
	set, err := store.Query(ctx, queryText)
	if err != nil {
		return ExecutionResult{Failed: true, Error: err.Error()}
	}

	return ExecutionResult{
		RowCount: set.Len(),
		Vars:     set.Vars,
		Rows:     set.Rows,
	}
}
