package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractReply(t *testing.T) {
	tests := []struct {
		name      string
		generated string
		expected  string
	}{
		{
			name:      "last line",
			generated: "You are Eliz.\nBob: hi\nEliz: hello Bob",
			expected:  "hello Bob",
		},
		{
			name:      "no space after colon",
			generated: "Bob: hi\nEliz:hello Bob",
			expected:  "hello Bob",
		},
		{
			name:      "bottom-up skips other speakers",
			generated: "Bob: hi\nEliz: hello\nBob: bye",
			expected:  "hello",
		},
		{
			name:      "prefix without colon kept verbatim",
			generated: "Bob: hi\nEliza waves",
			expected:  "Eliza waves",
		},
		{
			name:      "crlf",
			generated: "Bob: hi\r\nEliz: yo\r\n",
			expected:  "yo",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply, err := ExtractReply(tt.generated, "Eliz")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, reply)
		})
	}
}

func TestExtractReplyEmpty(t *testing.T) {
	t.Run("no matching line", func(t *testing.T) {
		_, err := ExtractReply("Bob: hi\nAnn: hey", "Eliz")
		assert.ErrorIs(t, err, ErrEmptyCompletion)
	})

	t.Run("model stopped at the cue", func(t *testing.T) {
		_, err := ExtractReply("Bob: hi\nEliz:", "Eliz")
		assert.ErrorIs(t, err, ErrEmptyCompletion)
	})

	t.Run("no name", func(t *testing.T) {
		_, err := ExtractReply("Eliz: hi", "")
		assert.Error(t, err)
	})
}
