// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Querent Contributors

package store

import (
	"time"

	"github.com/querent-dev/querent/internal/ask"
)

// FromOutcome converts a finished loop outcome into its persisted form.
func FromOutcome(outcome *ask.Outcome) *Session {
	session := &Session{
		ID:        outcome.SessionID,
		Question:  outcome.Question,
		Success:   outcome.Success,
		Answer:    outcome.Answer,
		CreatedAt: time.Now().UTC(),
	}

	for i, a := range outcome.Attempts {
		attempt := Attempt{
			Ordinal:   i + 1,
			Query:     a.Query,
			Rationale: a.Rationale,
			Failed:    a.Execution.Failed,
			Error:     a.Execution.Error,
			RowCount:  a.Execution.RowCount,
			Answer:    a.Answer,
		}
		if a.Verdict != nil {
			attempt.Validated = true
			attempt.Satisfactory = a.Verdict.Satisfactory
			attempt.Reason = a.Verdict.Reason
		}
		session.Attempts = append(session.Attempts, attempt)
	}

	return session
}
