// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Querent Contributors

package graph

import "context"

// Store is the boundary interface to a triple store's query capability.
// A query rejection (malformed syntax, engine error) is returned as an
// error carrying CodeGraphQueryFault; transport-level failures carry
// CodeGraphTransportFailure so callers can tell the two apart.
type Store interface {
	// Query runs a SPARQL query and returns its bindings in the store's
	// native row order.
	Query(ctx context.Context, queryText string) (*BindingSet, error)
}

// Loader is the optional write surface used by the ingest pipeline.
type Loader interface {
	// Update runs a SPARQL 1.1 update statement.
	Update(ctx context.Context, updateText string) error

	// LoadTurtle replaces the dataset's default graph with the given
	// Turtle document.
	LoadTurtle(ctx context.Context, turtle []byte) error
}

// Binding is one result row, mapping each queried variable name to its
// literal value.
type Binding map[string]string

// BindingSet is an ordered query result: the projected variable names and
// one Binding per row.
type BindingSet struct {
	Vars []string
	Rows []Binding
}

// Len returns the number of result rows.
func (b *BindingSet) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Rows)
}
