// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Querent Contributors

// Package ask implements the iterative question-answering loop: generate a
// SPARQL query from the question, execute it, compose a natural-language
// answer over the results, and independently validate that the answer
// satisfies the question — retrying with accumulated feedback up to a
// bounded number of attempts.
package ask

import "github.com/querent-dev/querent/internal/graph"

// SchemaDigest is a bounded sample of the graph's vocabulary used to ground
// generation prompts: distinct predicate names plus a few example card names.
type SchemaDigest struct {
	Predicates  []string
	SampleCards []string
}

// ExecutionResult is the tagged outcome of running one query. Either the
// query failed (Failed=true, Error holds the store's message) or it
// succeeded with RowCount rows in store order. Zero rows is success.
type ExecutionResult struct {
	Failed   bool
	Error    string
	RowCount int
	Vars     []string
	Rows     []graph.Binding
}

// HasRows reports a successful execution that returned at least one row —
// the only state that proceeds to answer composition.
func (r ExecutionResult) HasRows() bool {
	return !r.Failed && r.RowCount > 0
}

// ValidationVerdict is the validator's structured judgment of an answer.
type ValidationVerdict struct {
	Satisfactory bool   `json:"satisfactory"`
	Reason       string `json:"reason"`
	Missing      string `json:"missing,omitempty"`
	Suggestion   string `json:"suggestion,omitempty"`
}

// ReasonValidationUnavailable marks the default verdict substituted when the
// validator's payload cannot be parsed, so logs and tests can tell a degraded
// validation from a genuine pass.
const ReasonValidationUnavailable = "validation unavailable"

// DefaultVerdict is the fallback applied on validator parse failure:
// validation is advisory, so a brittle payload must not stall the session.
func DefaultVerdict() ValidationVerdict {
	return ValidationVerdict{Satisfactory: true, Reason: ReasonValidationUnavailable}
}

// Attempt records one full iteration of the loop. Answer and Verdict are set
// only when execution succeeded with at least one row.
type Attempt struct {
	Query     string
	Rationale string
	Execution ExecutionResult
	Answer    string
	Verdict   *ValidationVerdict
}

// Outcome is a session's terminal result. On success it carries the
// validated answer, the query that produced it, and the full result rows; on
// exhaustion it carries every recorded attempt so callers can inspect the
// whole trajectory.
type Outcome struct {
	SessionID string
	Question  string
	Success   bool
	Answer    string
	Attempts  []Attempt
}

// AttemptCount returns the number of attempts the session consumed.
func (o *Outcome) AttemptCount() int {
	return len(o.Attempts)
}

// FinalQuery returns the query of the last attempt, which on success is the
// one whose answer was validated.
func (o *Outcome) FinalQuery() string {
	if len(o.Attempts) == 0 {
		return ""
	}
	return o.Attempts[len(o.Attempts)-1].Query
}

// Rows returns the last attempt's full result rows.
func (o *Outcome) Rows() []graph.Binding {
	if len(o.Attempts) == 0 {
		return nil
	}
	return o.Attempts[len(o.Attempts)-1].Execution.Rows
}
