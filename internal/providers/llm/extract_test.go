package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONPlainObject(t *testing.T) {
	got, ok := extractJSON(`{"a":1,"b":"two"}`)
	require.True(t, ok)
	assert.JSONEq(t, `{"a":1,"b":"two"}`, got)
}

func TestExtractJSONIgnoresSurroundingProse(t *testing.T) {
	got, ok := extractJSON("Sure, here is the result:\n{\"a\":1}\nLet me know if you need more.")
	require.True(t, ok)
	assert.JSONEq(t, `{"a":1}`, got)
}

func TestExtractJSONStripsFencedCodeBlock(t *testing.T) {
	got, ok := extractJSON("```json\n{\"a\":1}\n```")
	require.True(t, ok)
	assert.JSONEq(t, `{"a":1}`, got)
}

func TestExtractJSONToleratesMissingClosingFence(t *testing.T) {
	got, ok := extractJSON("```json\n{\"a\":1}")
	require.True(t, ok)
	assert.JSONEq(t, `{"a":1}`, got)
}

func TestExtractJSONHandlesNestedObjects(t *testing.T) {
	got, ok := extractJSON(`{"a":{"b":1},"c":2}`)
	require.True(t, ok)
	assert.JSONEq(t, `{"a":{"b":1},"c":2}`, got)
}

func TestExtractJSONHandlesTopLevelArray(t *testing.T) {
	got, ok := extractJSON(`[{"a":1},{"a":2}]`)
	require.True(t, ok)
	assert.JSONEq(t, `[{"a":1},{"a":2}]`, got)
}

func TestExtractJSONRepairsTruncatedString(t *testing.T) {
	got, ok := extractJSON(`{"a": 1, "b": "incomplete`)
	require.True(t, ok)

	var out map[string]interface{}
	err := json.Unmarshal([]byte(got), &out)
	require.NoError(t, err, "repaired JSON must parse: %s", got)
	assert.Equal(t, "incomplete", out["b"])
}

func TestExtractJSONRepairsTruncatedNesting(t *testing.T) {
	got, ok := extractJSON(`{"a": [1, 2, {"c": 3}`)
	require.True(t, ok)

	var out map[string]interface{}
	err := json.Unmarshal([]byte(got), &out)
	require.NoError(t, err, "repaired JSON must parse: %s", got)
}

func TestExtractJSONNoCandidateReturnsFalse(t *testing.T) {
	_, ok := extractJSON("just some plain text, no braces here")
	assert.False(t, ok)
}
