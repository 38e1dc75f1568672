// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Querent Contributors

package ask

import (
	"fmt"
	"strings"

	"github.com/querent-dev/querent/internal/provider"
)

// systemPromptPredicateCap bounds how many sampled predicates are embedded
// in the generation system prompt.
const systemPromptPredicateCap = 30

// queryToolName is the declared function the model calls to run a query.
const queryToolName = "execute_sparql"

// queryTool declares the structured call carrying the generated query and
// its rationale.
func queryTool() *provider.ToolDefinition {
	return &provider.ToolDefinition{
		Name:        queryToolName,
		Description: "Execute a SPARQL query against the MTG card graph",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "The SPARQL query to execute",
				},
				"reasoning": map[string]any{
					"type":        "string",
					"description": "Explanation of what this query is trying to find",
				},
			},
			"required": []string{"query", "reasoning"},
		},
	}
}

// generationSystemPrompt embeds the schema digest so the model grounds its
// queries in predicates that actually exist.
func generationSystemPrompt(digest *SchemaDigest) string {
	predicates := digest.Predicates
	if len(predicates) > systemPromptPredicateCap {
		predicates = predicates[:systemPromptPredicateCap]
	}

	var b strings.Builder
	b.WriteString("You are a SPARQL query expert for an MTG card database.\n\n")
	b.WriteString("Database schema:\n")
	b.WriteString("Predicates: ")
	b.WriteString(strings.Join(predicates, ", "))
	b.WriteString("\nSample cards: ")
	b.WriteString(strings.Join(digest.SampleCards, ", "))
	b.WriteString("\n\n")
	b.WriteString("When searching for \"versions\" of a card, look for:\n")
	b.WriteString("- Different sets/editions (using set, setCode, printings predicates)\n")
	b.WriteString("- Each unique combination of card + set is a different version\n")
	b.WriteString("- Use GROUP BY and COUNT for aggregations\n")
	return b.String()
}

// composerSystemPrompt frames the answer-composition call.
const composerSystemPrompt = "You are a helpful assistant that provides clear, concise answers based on query results."

// composerPrompt grounds the answer in the concrete rows and true total.
func composerPrompt(question, queryText, rowsJSON string, totalRows int) string {
	return fmt.Sprintf(`Original question: %s

SPARQL query executed:
%s

Query results:
%s

Total results: %d

Please provide a clear, natural language answer to the original question based on these results.
Be specific with numbers and details from the results.`,
		question, queryText, rowsJSON, totalRows)
}

// validatorSystemPrompt frames the independent validation call.
const validatorSystemPrompt = "You are a validation assistant that checks if answers properly address questions."

// validatorPrompt asks for the structured satisfaction judgment.
func validatorPrompt(question, queryText, rowsJSON string, totalRows int, answer string) string {
	return fmt.Sprintf(`Original Question: %s

SPARQL Query Executed: %s

Results Retrieved: %s
Result Count: %d

Generated Answer: %s

Evaluate whether this answer satisfactorily addresses the original question.

Consider:
1. Does the answer directly address what was asked?
2. If asking for a count, does the answer provide a specific number?
3. If asking for names/items, does the answer list them?
4. Is the answer based on the actual results or is it evasive?

Respond with JSON only:
{
    "satisfactory": true or false,
    "reason": "explanation",
    "missing": "what specific information is missing",
    "suggestion": "how to improve the query"
}`,
		question, queryText, rowsJSON, totalRows, answer)
}
