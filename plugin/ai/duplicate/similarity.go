package duplicate

import (
	"github.com/pmezard/go-difflib/difflib"
)

// Ratio measures the similarity of a and b as 2*M/T, where M is the number of
// runes in matching blocks and T the total rune count. Two empty strings are
// identical.
func Ratio(a, b string) float64 {
	return ratio(splitRunes(a), splitRunes(b))
}

func ratio(a, b []string) float64 {
	return difflib.NewMatcher(a, b).Ratio()
}

// splitRunes turns s into one element per rune for the sequence matcher.
func splitRunes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

// Truncate truncates content to maxLen runes.
func Truncate(content string, maxLen int) string {
	runes := []rune(content)
	if len(runes) <= maxLen {
		return content
	}
	return string(runes[:maxLen]) + "..."
}
