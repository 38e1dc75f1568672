// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Querent Contributors

// Package store defines the session history model: every answered question
// is persisted with its full attempt trajectory so past sessions can be
// listed and inspected.
package store

import (
	"context"
	"time"
)

// Session is one persisted question-answering session.
type Session struct {
	ID        string
	Question  string
	Success   bool
	Answer    string
	Attempts  []Attempt
	CreatedAt time.Time
}

// Attempt is one recorded iteration of a session's loop, ordered by Ordinal
// starting at 1.
type Attempt struct {
	Ordinal      int
	Query        string
	Rationale    string
	Failed       bool
	Error        string
	RowCount     int
	Answer       string
	Validated    bool
	Satisfactory bool
	Reason       string
}

// ListOpts controls pagination for session listings.
type ListOpts struct {
	Limit  int
	Offset int
}

// SessionStore persists sessions and their attempts.
type SessionStore interface {
	SaveSession(ctx context.Context, session *Session) error
	GetSession(ctx context.Context, id string) (*Session, error)
	ListSessions(ctx context.Context, opts ListOpts) ([]*Session, error)
	DeleteSession(ctx context.Context, id string) error
	Close() error
}
