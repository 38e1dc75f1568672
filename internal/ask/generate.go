// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Querent Contributors

package ask

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/querent-dev/querent/internal/provider"
)

// queryCall is the parsed structured call emitted by the model when it
// chooses to query the store.
type queryCall struct {
	Query     string `json:"query"`
	Reasoning string `json:"reasoning"`
}

// generateQuery asks the provider for the next query. The returned call is
// nil on a generation miss — the model answered in free text, named a
// different function, or produced arguments that don't parse — which the
// orchestrator treats like a zero-row result, not an error. A non-nil error
// is a transport fault and is fatal to the session.
func generateQuery(
	ctx context.Context,
	p provider.Provider,
	digest *SchemaDigest,
	history []provider.Message,
	contextText, question string,
) (*queryCall, error) {
	messages := make([]provider.Message, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, provider.UserMessage(contextText+"\n\nQuestion to answer: "+question))

	result, err := p.Complete(ctx, provider.Request{
		SystemPrompt: generationSystemPrompt(digest),
		Messages:     messages,
		Tool:         queryTool(),
	})
	if err != nil {
		return nil, err
	}

	if result.Call == nil || result.Call.Name != queryToolName {
		return nil, nil
	}

	var call queryCall
	if err := json.Unmarshal([]byte(result.Call.Arguments), &call); err != nil {
		return nil, nil
	}
	if strings.TrimSpace(call.Query) == "" {
		return nil, nil
	}

	return &call, nil
}
