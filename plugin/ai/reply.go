package ai

import (
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

// ExtractReply returns the character's reply from generated text that
// continues a transcript. Lines are scanned from the bottom and the first one
// starting with name wins; its "name:" prefix and any leading whitespace are
// removed, so "Eliz: hi" and "Eliz:hi" both yield "hi".
func ExtractReply(generated, name string) (string, error) {
	if name == "" {
		return "", errors.New("character name is required")
	}

	lines := strings.Split(strings.ReplaceAll(generated, "\r\n", "\n"), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := lines[i]
		if !strings.HasPrefix(line, name) {
			continue
		}
		reply := strings.TrimLeftFunc(strings.TrimPrefix(line, name+":"), unicode.IsSpace)
		reply = strings.TrimRightFunc(reply, unicode.IsSpace)
		if reply == "" {
			return "", errors.Wrapf(ErrEmptyCompletion, "%s said nothing", name)
		}
		return reply, nil
	}

	return "", errors.Wrapf(ErrEmptyCompletion, "no line from %s in completion", name)
}
