// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Querent Contributors

package ask

import (
	"context"
	"encoding/json"

	"github.com/querent-dev/querent/internal/graph"
	"github.com/querent-dev/querent/internal/provider"
	qerr "github.com/querent-dev/querent/pkg/errors"
)

// composeAnswerMaxTokens bounds the length of a composed answer.
const composeAnswerMaxTokens = 500

// composeAnswer turns an execution result into a natural-language answer.
// Only called when execution succeeded with at least one row. The model sees
// a bounded row prefix plus the true total so it grounds the answer in the
// concrete figures rather than paraphrasing.
func composeAnswer(
	ctx context.Context,
	p provider.Provider,
	question, queryText string,
	exec ExecutionResult,
	rowCap int,
) (string, error) {
	rowsJSON, err := marshalRowPrefix(exec.Rows, rowCap)
	if err != nil {
		return "", qerr.Wrapf(err, qerr.CodeProviderRequestInvalid, "encoding result rows")
	}

	result, err := p.Complete(ctx, provider.Request{
		SystemPrompt: composerSystemPrompt,
		Messages: []provider.Message{
			provider.UserMessage(composerPrompt(question, queryText, rowsJSON, exec.RowCount)),
		},
		MaxTokens: composeAnswerMaxTokens,
	})
	if err != nil {
		return "", err
	}

	return result.Text, nil
}

// marshalRowPrefix renders at most cap rows as indented JSON.
func marshalRowPrefix(rows []graph.Binding, cap int) (string, error) {
	if cap > 0 && len(rows) > cap {
		rows = rows[:cap]
	}
	if rows == nil {
		rows = []graph.Binding{}
	}

	out, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}
