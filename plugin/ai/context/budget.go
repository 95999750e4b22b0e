package context

import (
	"log/slog"
	"strings"

	"github.com/pkg/errors"
)

// DefaultTokenBudget is the total budget used when none is given.
const DefaultTokenBudget = 1024

// Allotment records how one fragment was budgeted during a pass.
type Allotment struct {
	Fragment *Fragment
	// Reserved is the part of the shared budget carved out before trimming.
	Reserved int
	// MaxLength is the length the trimmer was allowed.
	MaxLength int
	// Tokens is the trimmed length actually placed.
	Tokens int
	Lines  int
}

// pass is the working state of a single assembly: the running budget, the
// output assembled so far, and per-fragment token counts. It is discarded when
// the assembly finishes.
type pass struct {
	tok     Tokenizer
	trimmer *Trimmer

	remaining  int
	lines      []string
	counts     map[*Fragment]int
	allotments []Allotment
}

func newPass(tok Tokenizer, budget int) *pass {
	return &pass{
		tok:       tok,
		trimmer:   NewTrimmer(tok),
		remaining: budget,
		counts:    make(map[*Fragment]int),
	}
}

// tokenCount measures f's untrimmed text once per pass.
func (p *pass) tokenCount(f *Fragment) (int, error) {
	if n, ok := p.counts[f]; ok {
		return n, nil
	}
	n, err := Count(p.tok, f.text)
	if err != nil {
		return 0, errors.Wrap(err, "encode fragment")
	}
	p.counts[f] = n
	return n, nil
}

// reservation is the fragment's declared reservation, or its measured length
// when none was declared and it is not inserted at the very start.
func (p *pass) reservation(f *Fragment) (int, error) {
	if f.reservedTokens != 0 || f.insertionPosition == 0 {
		return f.reservedTokens, nil
	}
	return p.tokenCount(f)
}

// place budgets, trims and splices one fragment into the output.
func (p *pass) place(f *Fragment) error {
	reserved, err := p.reservation(f)
	if err != nil {
		return err
	}

	consumed := 0
	if reserved > 0 {
		n, err := p.tokenCount(f)
		if err != nil {
			return err
		}
		consumed = min(n, reserved)
		p.remaining -= consumed
	}

	maxLength := p.remaining + consumed
	tokens, err := p.trimmer.Trim(f, maxLength, f.tokenBudget)
	if err != nil {
		return err
	}
	text, err := p.tok.Decode(tokens)
	if err != nil {
		return errors.Wrap(err, "decode fragment")
	}
	p.remaining -= len(tokens) - consumed

	lines := splitLines(text)
	p.lines = splice(p.lines, lines, f.insertionPosition)
	p.allotments = append(p.allotments, Allotment{
		Fragment:  f,
		Reserved:  consumed,
		MaxLength: maxLength,
		Tokens:    len(tokens),
		Lines:     len(lines),
	})

	slog.Debug("prompt fragment placed",
		"order", f.insertionOrder,
		"position", f.insertionPosition,
		"reserved", consumed,
		"max_length", maxLength,
		"tokens", len(tokens),
		"remaining", p.remaining)
	return nil
}

// splice inserts ins into out at position, resolved against out as it is now.
// Positions past either end are clamped.
func splice(out, ins []string, position int) []string {
	at := position
	if position < 0 {
		at = len(out) + position + 1
		if at < 0 {
			at = 0
		}
	} else if at > len(out) {
		at = len(out)
	}

	result := make([]string, 0, len(out)+len(ins))
	result = append(result, out[:at]...)
	result = append(result, ins...)
	result = append(result, out[at:]...)
	return result
}

// splitLines splits on "\n" and "\r\n". A single trailing newline does not
// produce an empty last line, and empty text produces no lines.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n")
}
