package context

import (
	"strings"
)

// Fragment defaults.
const (
	DefaultFragmentTokenBudget = 2048
	DefaultInsertionOrder      = 100
	DefaultInsertionPosition   = -1
)

// TrimDirection selects which end of a fragment is discarded when it is over budget.
type TrimDirection int

const (
	// TrimTop discards the beginning and keeps the tail.
	TrimTop TrimDirection = iota
	// TrimBottom discards the end and keeps the head.
	TrimBottom
	// TrimNone never trims.
	TrimNone
)

func (d TrimDirection) String() string {
	switch d {
	case TrimTop:
		return "top"
	case TrimBottom:
		return "bottom"
	case TrimNone:
		return "none"
	default:
		return "unknown"
	}
}

// TrimType selects the unit excess content is removed in.
type TrimType int

const (
	TrimByNewline TrimType = iota
	TrimBySentence
	TrimByToken
)

func (t TrimType) String() string {
	switch t {
	case TrimByNewline:
		return "newline"
	case TrimBySentence:
		return "sentence"
	case TrimByToken:
		return "token"
	default:
		return "unknown"
	}
}

// FragmentConfig describes a fragment before its text is frozen.
type FragmentConfig struct {
	// Keys are case-insensitive trigger substrings used for cascading activation.
	Keys   []string
	Prefix string
	Body   string
	Suffix string

	// TokenBudget is the ceiling on the fragment's trimmed length.
	TokenBudget int
	// ReservedTokens is pre-allocated from the shared budget. Zero means
	// "measure at assembly time" for fragments not inserted at position 0.
	ReservedTokens int
	// InsertionOrder is the priority; higher is placed first.
	InsertionOrder int
	// InsertionPosition is the splice point: 0 is the start, p > 0 is line p,
	// p < 0 counts from the end (-1 appends).
	InsertionPosition int

	TrimDirection TrimDirection
	TrimType      TrimType

	ForcedActivation    bool
	CascadingActivation bool
}

// DefaultFragmentConfig returns the defaults for a fragment.
func DefaultFragmentConfig() FragmentConfig {
	return FragmentConfig{
		Keys:              []string{""},
		Suffix:            "\n",
		TokenBudget:       DefaultFragmentTokenBudget,
		InsertionOrder:    DefaultInsertionOrder,
		InsertionPosition: DefaultInsertionPosition,
		TrimDirection:     TrimBottom,
		TrimType:          TrimBySentence,
	}
}

// Fragment is one candidate piece of prompt text with placement and trim metadata.
// A Fragment never changes after NewFragment returns.
type Fragment struct {
	keys      []string
	lowerKeys []string
	text      string
	lowerText string

	tokenBudget       int
	reservedTokens    int
	insertionOrder    int
	insertionPosition int
	trimDirection     TrimDirection
	trimType          TrimType
	forced            bool
	cascading         bool
}

// NewFragment freezes cfg into a Fragment with text Prefix+Body+Suffix.
func NewFragment(cfg FragmentConfig) *Fragment {
	if cfg.TokenBudget <= 0 {
		cfg.TokenBudget = DefaultFragmentTokenBudget
	}
	if cfg.ReservedTokens < 0 {
		cfg.ReservedTokens = 0
	}

	f := &Fragment{
		keys:              append([]string(nil), cfg.Keys...),
		text:              cfg.Prefix + cfg.Body + cfg.Suffix,
		tokenBudget:       cfg.TokenBudget,
		reservedTokens:    cfg.ReservedTokens,
		insertionOrder:    cfg.InsertionOrder,
		insertionPosition: cfg.InsertionPosition,
		trimDirection:     cfg.TrimDirection,
		trimType:          cfg.TrimType,
		forced:            cfg.ForcedActivation,
		cascading:         cfg.CascadingActivation,
	}
	f.lowerText = strings.ToLower(f.text)
	for _, k := range f.keys {
		if strings.TrimSpace(k) == "" {
			continue
		}
		f.lowerKeys = append(f.lowerKeys, strings.ToLower(k))
	}
	return f
}

func (f *Fragment) Keys() []string { return append([]string(nil), f.keys...) }
func (f *Fragment) Text() string { return f.text }
func (f *Fragment) TokenBudget() int { return f.tokenBudget }
func (f *Fragment) ReservedTokens() int { return f.reservedTokens }
func (f *Fragment) InsertionOrder() int { return f.insertionOrder }
func (f *Fragment) InsertionPosition() int { return f.insertionPosition }
func (f *Fragment) TrimDirection() TrimDirection { return f.trimDirection }
func (f *Fragment) TrimType() TrimType { return f.trimType }
func (f *Fragment) ForcedActivation() bool { return f.forced }
func (f *Fragment) CascadingActivation() bool { return f.cascading }

// keyIn reports whether any non-blank key of f occurs in other's text.
func (f *Fragment) keyIn(other *Fragment) bool {
	for _, k := range f.lowerKeys {
		if strings.Contains(other.lowerText, k) {
			return true
		}
	}
	return false
}

// Trim returns the fragment's tokens cut down to fit maxLength and ceiling.
func (f *Fragment) Trim(tok Tokenizer, maxLength, ceiling int) ([]int, error) {
	return NewTrimmer(tok).Trim(f, maxLength, ceiling)
}

// Render is Trim followed by Decode.
func (f *Fragment) Render(tok Tokenizer, maxLength, ceiling int) (string, error) {
	tokens, err := f.Trim(tok, maxLength, ceiling)
	if err != nil {
		return "", err
	}
	return tok.Decode(tokens)
}
