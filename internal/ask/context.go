// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Querent Contributors

package ask

import (
	"fmt"
	"strings"

	"github.com/querent-dev/querent/internal/provider"
)

// buildContext assembles the prompt context for one attempt: the question,
// and for retries a per-attempt summary of what went wrong plus fixed
// corrective heuristics. Deterministic given its inputs.
func buildContext(question string, prior []Attempt) string {
	var b strings.Builder
	fmt.Fprintf(&b, "User question: %s", question)

	if len(prior) == 0 {
		return b.String()
	}

	b.WriteString("\n\nPrevious attempts that didn't work:")
	for i, attempt := range prior {
		fmt.Fprintf(&b, "\n\nAttempt %d:", i+1)
		query := attempt.Query
		if query == "" {
			query = "N/A"
		}
		fmt.Fprintf(&b, "\nQuery: %s", query)

		switch {
		case attempt.Verdict != nil && !attempt.Verdict.Satisfactory:
			fmt.Fprintf(&b, "\nIssue: %s", attempt.Verdict.Reason)
			suggestion := attempt.Verdict.Suggestion
			if suggestion == "" {
				suggestion = "N/A"
			}
			fmt.Fprintf(&b, "\nSuggestion: %s", suggestion)
		case attempt.Execution.Failed:
			errText := attempt.Execution.Error
			if errText == "" {
				errText = "Unknown"
			}
			fmt.Fprintf(&b, "\nError: %s", errText)
		default:
			b.WriteString("\nIssue: Returned no results")
		}
	}

	b.WriteString("\n\nPlease try a different approach. Consider:")
	b.WriteString("\n- Check spelling and case sensitivity")
	b.WriteString("\n- Use FILTER with CONTAINS for partial matches")
	b.WriteString("\n- Try different predicates")
	b.WriteString("\n- Use OPTIONAL for properties that might not exist")

	return b.String()
}

// appendNoResultFeedback returns a fresh copy of history extended with the
// retry turns used after a failed or empty execution. The input slice is
// never mutated so attempt boundaries stay auditable.
func appendNoResultFeedback(history []provider.Message, attempt Attempt) []provider.Message {
	query := attempt.Query
	if query == "" {
		query = "No query generated"
	}

	out := make([]provider.Message, len(history), len(history)+2)
	copy(out, history)

	out = append(out,
		provider.AssistantMessage(fmt.Sprintf("I tried this query but got no results: %s", query)),
		provider.UserMessage("The query returned no results. Please try a different approach using partial matching, case-insensitive search, or broader criteria."),
	)
	return out
}

// appendValidationFeedback returns a fresh copy of history extended with the
// validator's objections so the next generation can address them.
func appendValidationFeedback(history []provider.Message, attempt Attempt) []provider.Message {
	verdict := attempt.Verdict

	missing := verdict.Missing
	if missing == "" {
		missing = "Not specified"
	}
	suggestion := verdict.Suggestion
	if suggestion == "" {
		suggestion = "Try a different approach"
	}

	out := make([]provider.Message, len(history), len(history)+2)
	copy(out, history)

	out = append(out,
		provider.AssistantMessage(fmt.Sprintf("My query returned %d results but didn't fully answer the question.", attempt.Execution.RowCount)),
		provider.UserMessage(fmt.Sprintf(`The answer wasn't satisfactory.
Issue: %s
Missing: %s
Suggestion: %s

Please generate a new query that addresses these issues.`, verdict.Reason, missing, suggestion)),
	)
	return out
}
