// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Querent Contributors

package ingest

import (
	"context"
	"os"

	"github.com/querent-dev/querent/internal/graph"
	qerr "github.com/querent-dev/querent/pkg/errors"
)

// Loader pushes a Turtle document into the triple store, replacing the
// dataset's default graph.
type Loader struct {
	graph graph.Loader
}

// NewLoader creates a Loader writing through the given graph write surface.
func NewLoader(g graph.Loader) *Loader {
	return &Loader{graph: g}
}

// LoadFile reads the Turtle file at path and loads it into the store.
func (l *Loader) LoadFile(ctx context.Context, path string) error {
	turtle, err := os.ReadFile(path)
	if err != nil {
		return qerr.Wrapf(err, qerr.CodeIngestLoadFailure, "reading turtle file %s", path)
	}
	return l.Load(ctx, turtle)
}

// Load loads an in-memory Turtle document into the store.
func (l *Loader) Load(ctx context.Context, turtle []byte) error {
	if err := l.graph.LoadTurtle(ctx, turtle); err != nil {
		return qerr.Wrapf(err, qerr.CodeIngestLoadFailure, "loading turtle into store")
	}
	return nil
}
