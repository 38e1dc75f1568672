// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Querent Contributors

package ask

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVerdictPlainObject(t *testing.T) {
	verdict, ok := parseVerdict(`{"satisfactory": false, "reason": "no count", "missing": "a total", "suggestion": "use COUNT"}`)
	require.True(t, ok)
	assert.False(t, verdict.Satisfactory)
	assert.Equal(t, "no count", verdict.Reason)
	assert.Equal(t, "a total", verdict.Missing)
	assert.Equal(t, "use COUNT", verdict.Suggestion)
}

func TestParseVerdictStripsCodeFence(t *testing.T) {
	raw := "```json\n{\"satisfactory\": true, \"reason\": \"complete\"}\n```"
	verdict, ok := parseVerdict(raw)
	require.True(t, ok)
	assert.True(t, verdict.Satisfactory)
	assert.Equal(t, "complete", verdict.Reason)
}

func TestParseVerdictToleratesSurroundingProse(t *testing.T) {
	raw := `Here is my assessment: {"satisfactory": true, "reason": "looks right"} Hope that helps.`
	verdict, ok := parseVerdict(raw)
	require.True(t, ok)
	assert.True(t, verdict.Satisfactory)
}

func TestParseVerdictRejectsProseWithoutJSON(t *testing.T) {
	_, ok := parseVerdict("The answer seems fine to me.")
	assert.False(t, ok)
}

func TestParseVerdictRejectsObjectWithoutSatisfactoryKey(t *testing.T) {
	_, ok := parseVerdict(`{}`)
	assert.False(t, ok)

	_, ok = parseVerdict(`{"verdict": "good"}`)
	assert.False(t, ok)
}

func TestParseVerdictRejectsMalformedJSON(t *testing.T) {
	_, ok := parseVerdict(`{"satisfactory": true,`)
	assert.False(t, ok)
}

func TestParseVerdictRejectsEmpty(t *testing.T) {
	_, ok := parseVerdict("")
	assert.False(t, ok)
}

func TestDefaultVerdictIsSatisfactoryAndMarked(t *testing.T) {
	verdict := DefaultVerdict()
	assert.True(t, verdict.Satisfactory)
	assert.Equal(t, ReasonValidationUnavailable, verdict.Reason)
}
