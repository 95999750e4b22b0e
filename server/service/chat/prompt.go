package chat

import (
	"regexp"
	"strings"

	"github.com/faber6/eliz/internal/profile"
	aicontext "github.com/faber6/eliz/plugin/ai/context"
)

const (
	// PromptReserve is the budget held back for the character prompt.
	PromptReserve = 512
)

// markup matches mentions, custom emoji and channel links.
var markup = regexp.MustCompile(`<[^>]*>`)

// StripMarkup removes <...> chat markup from content.
func StripMarkup(content string) string {
	return markup.ReplaceAllString(content, "")
}

// BuildConversation renders a newest-first history as "Author: text" lines,
// oldest first. Messages with embeds or no text are skipped, and the bot's own
// messages are labelled with the character name.
func BuildConversation(messages []HistoryMessage, characterName string) string {
	chain := make([]string, 0, len(messages))
	for i := len(messages) - 1; i >= 0; i-- {
		m := messages[i]
		if m.HasEmbeds || m.Content == "" {
			continue
		}
		content := StripMarkup(m.Content)
		if content == "" {
			continue
		}
		author := m.AuthorName
		if m.FromSelf {
			author = characterName
		}
		chain = append(chain, author+": "+content)
	}
	return strings.Join(chain, "\n")
}

// NewPromptFragment wraps the character prompt as the highest priority fragment.
func NewPromptFragment(c *profile.Character) *aicontext.Fragment {
	cfg := aicontext.DefaultFragmentConfig()
	cfg.Body = c.Prompt
	cfg.ReservedTokens = PromptReserve
	cfg.InsertionOrder = aicontext.OrderSystemPrompt
	cfg.InsertionPosition = -1
	cfg.ForcedActivation = true
	return aicontext.NewFragment(cfg)
}

// NewCompositor creates a compositor holding the character prompt, budgeted
// by the character's context size.
func NewCompositor(tok aicontext.Tokenizer, c *profile.Character) *aicontext.Compositor {
	comp := aicontext.NewCompositor(tok, c.ClientArgs.ContextSize)
	comp.Register(NewPromptFragment(c))
	return comp
}
