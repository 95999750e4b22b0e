package duplicate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRatio(t *testing.T) {
	tests := []struct {
		name     string
		a        string
		b        string
		expected float64
	}{
		{
			name:     "identical",
			a:        "hello there",
			b:        "hello there",
			expected: 1.0,
		},
		{
			name:     "both empty",
			a:        "",
			b:        "",
			expected: 1.0,
		},
		{
			name:     "one empty",
			a:        "abc",
			b:        "",
			expected: 0.0,
		},
		{
			name:     "shifted",
			a:        "abcd",
			b:        "bcde",
			expected: 0.75,
		},
		{
			name:     "one extra rune",
			a:        "hi there",
			b:        "hi there!",
			expected: 16.0 / 17.0,
		},
		{
			name:     "multibyte runes count once",
			a:        "héllo",
			b:        "hallo",
			expected: 0.8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Ratio(tt.a, tt.b), 0.0001)
		})
	}
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name     string
		messages []string
		kept     []int
		removed  int
	}{
		{
			name:     "no messages",
			messages: nil,
			kept:     []int{},
			removed:  0,
		},
		{
			name:     "distinct messages",
			messages: []string{"good morning", "what is for lunch?", "42"},
			kept:     []int{0, 1, 2},
			removed:  0,
		},
		{
			name:     "later repeat dropped",
			messages: []string{"spam spam spam", "hello", "spam spam spam!"},
			kept:     []int{0, 1},
			removed:  1,
		},
		{
			name:     "every repeat of the first dropped",
			messages: []string{"buy now", "buy now", "buy now"},
			kept:     []int{0},
			removed:  2,
		},
		{
			name:     "exactly at threshold is kept",
			messages: []string{"héllo", "hallo"},
			kept:     []int{0, 1},
			removed:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kept, removed := Filter(tt.messages, DefaultThreshold)
			assert.Equal(t, tt.kept, kept)
			assert.Equal(t, tt.removed, removed)
		})
	}
}

func TestNewDetector(t *testing.T) {
	assert.Equal(t, DefaultThreshold, NewDetector(0).Threshold())
	assert.Equal(t, DefaultThreshold, NewDetector(1.5).Threshold())
	assert.Equal(t, 0.5, NewDetector(0.5).Threshold())

	kept, removed := NewDetector(0.5).Filter([]string{"abcd", "bcde"})
	assert.Equal(t, []int{0}, kept)
	assert.Equal(t, 1, removed)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "héll...", Truncate("héllo world", 4))
}
