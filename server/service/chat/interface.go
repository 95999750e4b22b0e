package chat

import (
	"context"
)

// HistoryMessage is one message of a channel's history.
type HistoryMessage struct {
	ID         string
	AuthorName string
	Content    string
	// FromSelf is set for messages the bot itself sent.
	FromSelf  bool
	HasEmbeds bool
}

// HistorySource reads recent channel messages, newest first.
type HistorySource interface {
	Recent(ctx context.Context, channelID string, limit int) ([]HistoryMessage, error)
}

// Request asks for a reply in a channel.
type Request struct {
	ChannelID string
	Author    string
}

// Reply is the outcome of a successful Respond.
type Reply struct {
	RequestID    string
	Text         string
	Prompt       string
	PromptTokens int
	SpamRemoved  int
}
