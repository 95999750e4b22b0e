package context

import (
	"regexp"
	"strings"
	"unicode"
)

// sentenceBoundary matches the gap after a sentence: a run of terminal
// punctuation, an optional closing quote, then whitespace or end of text.
// A bare newline run also ends a sentence.
var sentenceBoundary = regexp.MustCompile(`[.!?]+["']?(?:\s+|$)|\n+`)

type span struct {
	start int
	end   int
}

// sentenceSpans splits text into consecutive sentences. Each span starts at the
// first character of its sentence and ends after the whitespace that follows it,
// so the spans tile text exactly.
func sentenceSpans(text string) []span {
	if text == "" {
		return nil
	}

	var spans []span
	start := 0
	for _, m := range sentenceBoundary.FindAllStringIndex(text, -1) {
		if m[1] <= start {
			continue
		}
		spans = append(spans, span{start: start, end: m[1]})
		start = m[1]
	}
	if start < len(text) {
		spans = append(spans, span{start: start, end: len(text)})
	}
	return spans
}

// balanceQuotes closes an odd double quote ahead of any trailing whitespace,
// so the quote stays on the sentence's last line.
func balanceQuotes(text string) string {
	if strings.Count(text, `"`)%2 == 0 {
		return text
	}
	body := strings.TrimRightFunc(text, unicode.IsSpace)
	return body + `"` + text[len(body):]
}
