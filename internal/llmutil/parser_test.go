// File: internal/llmutil/parser_test.go
package llmutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type parsedPayload struct {
	Intent   string `json:"intent"`
	Commands []struct {
		Action string `json:"action"`
	} `json:"commands"`
}

func TestParseJSONResponse(t *testing.T) {
	const bare = `{"intent":"open site","commands":[{"action":"navigate"}]}`

	tests := []struct {
		name     string
		response string
	}{
		{"bare json", bare},
		{"fenced json", "```json\n" + bare + "\n```"},
		{"fenced without language tag", "```\n" + bare + "\n```"},
		{"conversational wrapper", "Sure, here is the result:\n" + bare + "\nLet me know if you need more."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseJSONResponse[parsedPayload](tt.response)
			require.NoError(t, err)
			assert.Equal(t, "open site", result.Intent)
			require.Len(t, result.Commands, 1)
			assert.Equal(t, "navigate", result.Commands[0].Action)
		})
	}
}

func TestParseJSONResponse_Array(t *testing.T) {
	result, err := ParseJSONResponse[[]string]("```json\n[\"a\",\"b\"]\n```")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, *result)
}

func TestParseJSONResponse_Invalid(t *testing.T) {
	_, err := ParseJSONResponse[parsedPayload]("this is not json at all")
	require.Error(t, err)

	_, err = ParseJSONResponse[parsedPayload]("{\"intent\": truncated")
	require.Error(t, err)
}
