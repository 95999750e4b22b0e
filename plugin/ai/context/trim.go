package context

import (
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

// Trimmer cuts a fragment's token sequence down to a target length.
type Trimmer struct {
	tok Tokenizer
}

// NewTrimmer creates a trimmer that measures with tok.
func NewTrimmer(tok Tokenizer) *Trimmer {
	return &Trimmer{tok: tok}
}

// Trim encodes f and reduces it to fit maxLength tokens, never exceeding ceiling.
// A zero or negative maxLength trims to nothing.
func (t *Trimmer) Trim(f *Fragment, maxLength, ceiling int) ([]int, error) {
	if t.tok == nil {
		return nil, ErrNilTokenizer
	}
	tokens, err := t.tok.Encode(f.text)
	if err != nil {
		return nil, errors.Wrap(err, "encode fragment")
	}

	target := trimTarget(len(tokens), maxLength, ceiling)
	if len(tokens) <= target || f.trimDirection == TrimNone {
		return tokens, nil
	}

	switch f.trimType {
	case TrimByNewline:
		return t.byNewline(tokens, f.trimDirection, target)
	case TrimBySentence:
		return t.bySentence(tokens, f.trimDirection, target)
	case TrimByToken:
		return byToken(tokens, f.trimDirection, target), nil
	default:
		return nil, errors.Errorf("unknown trim type %d", f.trimType)
	}
}

// trimTarget picks how many tokens a fragment of n tokens may keep.
func trimTarget(n, maxLength, ceiling int) int {
	var target int
	projected := maxLength - n
	switch {
	case projected > ceiling:
		target = ceiling
	case projected >= 0:
		target = n
	default:
		target = maxLength
	}
	if target > ceiling {
		target = ceiling
	}
	if target < 0 {
		target = 0
	}
	return target
}

// byNewline keeps whole lines from the end opposite dir, stopping at the first
// line that would push the re-encoded text over target.
func (t *Trimmer) byNewline(tokens []int, dir TrimDirection, target int) ([]int, error) {
	text, err := t.tok.Decode(tokens)
	if err != nil {
		return nil, errors.Wrap(err, "decode fragment")
	}
	lines := strings.Split(text, "\n")

	kept := make([]string, 0, len(lines))
	acc := []int{}
	for i := range lines {
		var candidate []string
		if dir == TrimTop {
			candidate = append([]string{lines[len(lines)-1-i]}, kept...)
		} else {
			candidate = append(append([]string(nil), kept...), lines[i])
		}
		enc, err := t.tok.Encode(strings.Join(candidate, "\n"))
		if err != nil {
			return nil, errors.Wrap(err, "encode lines")
		}
		if len(enc) > target {
			break
		}
		kept, acc = candidate, enc
	}
	return acc, nil
}

// bySentence keeps whole sentences from the end opposite dir. Each candidate is
// quote-balanced before it is measured.
func (t *Trimmer) bySentence(tokens []int, dir TrimDirection, target int) ([]int, error) {
	text, err := t.tok.Decode(tokens)
	if err != nil {
		return nil, errors.Wrap(err, "decode fragment")
	}
	spans := sentenceSpans(text)

	acc := []int{}
	for i := range spans {
		var candidate string
		if dir == TrimTop {
			candidate = text[spans[len(spans)-1-i].start:]
		} else {
			candidate = strings.TrimRightFunc(text[:spans[i].end], unicode.IsSpace)
		}
		enc, err := t.tok.Encode(balanceQuotes(candidate))
		if err != nil {
			return nil, errors.Wrap(err, "encode sentences")
		}
		if len(enc) > target {
			break
		}
		acc = enc
	}
	return acc, nil
}

func byToken(tokens []int, dir TrimDirection, target int) []int {
	if dir == TrimTop {
		return append([]int(nil), tokens[len(tokens)-target:]...)
	}
	return append([]int(nil), tokens[:target]...)
}
