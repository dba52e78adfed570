package intel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain json",
			input:    `{"relevant": true}`,
			expected: `{"relevant": true}`,
		},
		{
			name:     "fenced json",
			input:    "```json\n{\"relevant\": true}\n```",
			expected: `{"relevant": true}`,
		},
		{
			name:     "fenced without language",
			input:    "```\n{\"a\": 1}\n```",
			expected: `{"a": 1}`,
		},
		{
			name:     "surrounding whitespace",
			input:    "  {\"a\": 1}  ",
			expected: `{"a": 1}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, stripCodeFences(tt.input))
		})
	}
}

func TestParseNumberedSummaries(t *testing.T) {
	response := `Here are the summaries:
1. Covers tax policy shifts in Congress.
2) Reports on a major accounting merger.

3 - Analyzes new SEC disclosure rules.`

	parsed := parseNumberedSummaries(response, 3)

	assert.Equal(t, "Covers tax policy shifts in Congress.", parsed[0])
	assert.Equal(t, "Reports on a major accounting merger.", parsed[1])
	assert.Equal(t, "Analyzes new SEC disclosure rules.", parsed[2])
}

func TestParseNumberedSummaries_Short(t *testing.T) {
	parsed := parseNumberedSummaries("1. Only one line here.", 3)

	assert.Equal(t, "Only one line here.", parsed[0])
	assert.Empty(t, parsed[1])
	assert.Empty(t, parsed[2])
}

func TestParseNumberedSummaries_Overflow(t *testing.T) {
	response := "1. a\n2. b\n3. c"
	parsed := parseNumberedSummaries(response, 2)

	assert.Len(t, parsed, 2)
	assert.Equal(t, "a", parsed[0])
	assert.Equal(t, "b", parsed[1])
}
