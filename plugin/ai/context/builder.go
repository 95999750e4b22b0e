// Package context assembles bounded-length prompts from weighted fragments.
// It resolves which fragments participate, trims each to its share of a token
// budget in priority order, and splices their lines into one prompt.
package context

import (
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// ErrNilTokenizer is returned when assembly is attempted without a tokenizer.
var ErrNilTokenizer = errors.New("context: tokenizer is nil")

// Reservation used for the conversation fragment of a single-shot assembly.
const DefaultConversationReserve = 512

// Result is the outcome of one assembly pass.
type Result struct {
	Text  string
	Lines []string
	// Activated lists participating fragments in the order they were placed.
	Activated  []*Fragment
	Allotments []Allotment
	// Remaining is the shared budget left after the last fragment. It can be
	// negative when reservations exceeded what the budget could hold.
	Remaining int
}

// Tokens returns the number of tokens placed across all fragments.
func (r *Result) Tokens() int {
	n := 0
	for _, a := range r.Allotments {
		n += a.Tokens
	}
	return n
}

// Compositor owns a set of fragments and assembles them into a prompt.
// Assembly never modifies the compositor or its fragments, so concurrent
// Assemble calls are safe; Register and Remove are serialized against them.
type Compositor struct {
	tokenizer   Tokenizer
	tokenBudget int

	mu        sync.RWMutex
	fragments []*Fragment
}

// NewCompositor creates a compositor with a default total budget.
func NewCompositor(tok Tokenizer, tokenBudget int) *Compositor {
	if tokenBudget <= 0 {
		tokenBudget = DefaultTokenBudget
	}
	return &Compositor{
		tokenizer:   tok,
		tokenBudget: tokenBudget,
	}
}

// TokenBudget returns the compositor's default total budget.
func (c *Compositor) TokenBudget() int {
	return c.tokenBudget
}

// Register adds f. It reports false if f is nil or already registered.
func (c *Compositor) Register(f *Fragment) bool {
	if f == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, existing := range c.fragments {
		if existing == f {
			return false
		}
	}
	c.fragments = append(c.fragments, f)
	return true
}

// Remove deletes f. It reports whether f was registered.
func (c *Compositor) Remove(f *Fragment) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, existing := range c.fragments {
		if existing == f {
			c.fragments = append(c.fragments[:i:i], c.fragments[i+1:]...)
			return true
		}
	}
	return false
}

// Fragments returns the registered fragments in registration order.
func (c *Compositor) Fragments() []*Fragment {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]*Fragment(nil), c.fragments...)
}

// Assemble builds the prompt text within totalBudget tokens.
func (c *Compositor) Assemble(totalBudget int) (string, error) {
	res, err := c.AssembleResult(totalBudget)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// AssembleResult is Assemble with the per-fragment accounting.
func (c *Compositor) AssembleResult(totalBudget int) (*Result, error) {
	return c.assemble(c.Fragments(), totalBudget)
}

// AssembleConversation assembles the registered fragments plus conversation as
// a transient fragment appended at the end, using the compositor's budget. When
// respond is set the conversation ends with "\n<name>:" to cue a reply.
// The transient fragment is never registered.
func (c *Compositor) AssembleConversation(conversation string, respond bool, name string) (string, error) {
	res, err := c.AssembleConversationResult(conversation, respond, name)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// AssembleConversationResult is AssembleConversation with the per-fragment accounting.
func (c *Compositor) AssembleConversationResult(conversation string, respond bool, name string) (*Result, error) {
	f := NewConversationFragment(conversation, respond, name)
	return c.assemble(append(c.Fragments(), f), c.tokenBudget)
}

// NewConversationFragment wraps raw chat history as a forced, cascading
// fragment that is trimmed by line from the top and appended at the end.
func NewConversationFragment(conversation string, respond bool, name string) *Fragment {
	cfg := DefaultFragmentConfig()
	cfg.Body = conversation
	if respond {
		cfg.Suffix = "\n" + name + ":"
	}
	cfg.ReservedTokens = DefaultConversationReserve
	cfg.InsertionOrder = OrderConversation
	cfg.InsertionPosition = -1
	cfg.TrimDirection = TrimTop
	cfg.TrimType = TrimByNewline
	cfg.ForcedActivation = true
	cfg.CascadingActivation = true
	return NewFragment(cfg)
}

func (c *Compositor) assemble(fragments []*Fragment, totalBudget int) (*Result, error) {
	if c.tokenizer == nil {
		return nil, ErrNilTokenizer
	}

	sorted := sortByPriority(fragments)
	active := newActivationGraph(sorted).resolve()

	p := newPass(c.tokenizer, totalBudget)
	res := &Result{}
	for i, f := range sorted {
		if !active[i] {
			continue
		}
		if err := p.place(f); err != nil {
			return nil, errors.Wrapf(err, "place fragment %d (order %d)", i, f.insertionOrder)
		}
		res.Activated = append(res.Activated, f)
	}

	res.Lines = p.lines
	res.Allotments = p.allotments
	res.Remaining = p.remaining
	res.Text = strings.Join(p.lines, "\n")
	return res, nil
}
