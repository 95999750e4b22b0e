package context

import (
	"github.com/pkg/errors"
	tiktoken "github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is the byte-pair vocabulary used when none is configured.
// r50k_base is the GPT-2 vocabulary.
const DefaultEncoding = "r50k_base"

// Tokenizer converts text to token ids and back.
// Implementations must be deterministic and safe for concurrent use.
type Tokenizer interface {
	Encode(text string) ([]int, error)
	Decode(tokens []int) (string, error)
}

// TiktokenTokenizer is a Tokenizer backed by tiktoken-go.
type TiktokenTokenizer struct {
	enc *tiktoken.Tiktoken
}

// NewTiktokenTokenizer loads the named encoding. An empty name selects DefaultEncoding.
func NewTiktokenTokenizer(encoding string) (*TiktokenTokenizer, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, errors.Wrapf(err, "tokenizer: get encoding %s", encoding)
	}
	return &TiktokenTokenizer{enc: enc}, nil
}

// Encode implements Tokenizer.
func (t *TiktokenTokenizer) Encode(text string) ([]int, error) {
	if text == "" {
		return []int{}, nil
	}
	return t.enc.Encode(text, nil, nil), nil
}

// Decode implements Tokenizer.
func (t *TiktokenTokenizer) Decode(tokens []int) (string, error) {
	if len(tokens) == 0 {
		return "", nil
	}
	return t.enc.Decode(tokens), nil
}

// Count returns the number of tokens in text.
func Count(tok Tokenizer, text string) (int, error) {
	tokens, err := tok.Encode(text)
	if err != nil {
		return 0, err
	}
	return len(tokens), nil
}

var _ Tokenizer = (*TiktokenTokenizer)(nil)
