// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Querent Contributors

package ask

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/querent-dev/querent/internal/provider"
	qerr "github.com/querent-dev/querent/pkg/errors"
)

// validateAnswer issues the second, independent model call judging whether
// the composed answer satisfies the question. A payload that cannot be
// parsed degrades to the default satisfactory verdict — one brittle
// validator response must not stall the session. Only a provider transport
// fault is returned as an error.
func validateAnswer(
	ctx context.Context,
	p provider.Provider,
	question, queryText string,
	exec ExecutionResult,
	answer string,
	rowCap int,
) (ValidationVerdict, error) {
	rowsJSON, err := marshalRowPrefix(exec.Rows, rowCap)
	if err != nil {
		return ValidationVerdict{}, qerr.Wrapf(err, qerr.CodeProviderRequestInvalid, "encoding result rows")
	}

	result, err := p.Complete(ctx, provider.Request{
		SystemPrompt: validatorSystemPrompt,
		Messages: []provider.Message{
			provider.UserMessage(validatorPrompt(question, queryText, rowsJSON, exec.RowCount, answer)),
		},
		JSONOnly: true,
	})
	if err != nil {
		return ValidationVerdict{}, err
	}

	verdict, ok := parseVerdict(result.Text)
	if !ok {
		return DefaultVerdict(), nil
	}
	return verdict, nil
}

// parseVerdict extracts a ValidationVerdict from the model's reply,
// tolerating code fences and surrounding prose around the JSON object.
func parseVerdict(raw string) (ValidationVerdict, bool) {
	candidate := extractJSONObject(raw)
	if candidate == "" {
		return ValidationVerdict{}, false
	}

	// Probe for the satisfactory key so a syntactically valid but unrelated
	// object ("{}") still falls back to the default verdict.
	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(candidate), &probe); err != nil {
		return ValidationVerdict{}, false
	}
	if _, ok := probe["satisfactory"]; !ok {
		return ValidationVerdict{}, false
	}

	var verdict ValidationVerdict
	if err := json.Unmarshal([]byte(candidate), &verdict); err != nil {
		return ValidationVerdict{}, false
	}
	return verdict, true
}

// extractJSONObject returns the outermost {...} span of raw, or "".
func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end <= start {
		return ""
	}
	return raw[start : end+1]
}
