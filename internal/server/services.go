// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Querent Contributors

package server

import (
	"context"
	"log/slog"

	"github.com/querent-dev/querent/internal/ask"
	"github.com/querent-dev/querent/internal/store"
)

// Asker runs the question-answering loop for one question. The ask.Engine
// satisfies it; tests substitute a fake.
type Asker interface {
	Answer(ctx context.Context, question string) (*ask.Outcome, error)
}

// Services bundles the dependencies the REST routes operate on. History is
// optional; when nil, ask results are not persisted and the history routes
// answer 503.
type Services struct {
	Asker   Asker
	History store.SessionStore
	Log     *slog.Logger
}

func (s *Services) logger() *slog.Logger {
	if s.Log != nil {
		return s.Log
	}
	return slog.Default()
}
