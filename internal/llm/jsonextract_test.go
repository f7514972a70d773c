package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractObjectDirect(t *testing.T) {
	raw, err := ExtractObject(`{"Correct": ["Alice", "Bob"]}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Correct": ["Alice", "Bob"]}`, string(raw))
}

func TestExtractObjectWrappedInProse(t *testing.T) {
	raw, err := ExtractObject(`Sure! Here is the grouping: {"Correct": ["Alice"], "No category": ["Bob"]} Hope that helps.`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Correct": ["Alice"], "No category": ["Bob"]}`, string(raw))
}

func TestExtractObjectNestedBraces(t *testing.T) {
	raw, err := ExtractObject(`prefix {"a": {"b": 1}, "c": "x{y}"} suffix`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": {"b": 1}, "c": "x{y}"}`, string(raw))
}

func TestExtractObjectBraceInsideString(t *testing.T) {
	raw, err := ExtractObject(`{"label": "open { brace", "names": ["A"]}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"label": "open { brace", "names": ["A"]}`, string(raw))
}

func TestExtractObjectEscapedQuote(t *testing.T) {
	raw, err := ExtractObject(`noise {"label": "quote \" and }", "n": 1} tail`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"label": "quote \" and }", "n": 1}`, string(raw))
}

func TestExtractObjectNoObject(t *testing.T) {
	_, err := ExtractObject("the model refused to answer")
	assert.Error(t, err)
}

func TestExtractObjectUnbalanced(t *testing.T) {
	_, err := ExtractObject(`{"Correct": ["Alice"`)
	assert.Error(t, err)
}
