// Package discord connects a character to Discord channels.
package discord

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"

	"github.com/faber6/eliz/internal/profile"
	"github.com/faber6/eliz/plugin/ai/timeout"
	"github.com/faber6/eliz/server/service/chat"
)

const (
	defaultDiscordMaxSize = 1900
	maxHistoryPage        = 100
)

// Responder produces a reply for a channel.
type Responder interface {
	Respond(ctx context.Context, req chat.Request) (*chat.Reply, error)
}

// Bot listens for messages that mention the character and answers them.
type Bot struct {
	session   *discordgo.Session
	character *profile.Character
	prefix    string
	logger    *slog.Logger

	mu        sync.RWMutex
	responder Responder
	closeOnce sync.Once
}

// New creates a bot session. SetResponder must be called before Start.
func New(token string, character *profile.Character, prefix string, logger *slog.Logger) (*Bot, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New("discord token is required, set DISCORD_TOKEN")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create discord session")
	}
	b := &Bot{session: s, character: character, prefix: prefix, logger: logger}
	s.AddHandler(b.onReady)
	s.AddHandler(b.onMessage)
	s.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages | discordgo.IntentsMessageContent
	return b, nil
}

// SetResponder sets the reply producer.
func (b *Bot) SetResponder(r Responder) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.responder = r
}

func (b *Bot) getResponder() Responder {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.responder
}

// Start opens the gateway connection.
func (b *Bot) Start() error {
	if b.getResponder() == nil {
		return errors.New("discord bot has no responder")
	}
	return errors.Wrap(b.session.Open(), "failed to open discord session")
}

// Stop closes the gateway connection.
func (b *Bot) Stop() error {
	var err error
	b.closeOnce.Do(func() { err = b.session.Close() })
	return err
}

// Recent implements chat.HistorySource.
func (b *Bot) Recent(ctx context.Context, channelID string, limit int) ([]chat.HistoryMessage, error) {
	if limit <= 0 || limit > maxHistoryPage {
		limit = maxHistoryPage
	}
	msgs, err := b.session.ChannelMessages(channelID, limit, "", "", "", discordgo.WithContext(ctx))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch history of channel %s", channelID)
	}
	return toHistory(msgs, b.selfID()), nil
}

func (b *Bot) selfID() string {
	if b.session.State == nil || b.session.State.User == nil {
		return ""
	}
	return b.session.State.User.ID
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.logger.Info("logged in", slog.String("user", r.User.Username), slog.String("id", r.User.ID))
	if status := b.character.ClientArgs.Status; status != "" {
		if err := s.UpdateCustomStatus(status); err != nil {
			b.logger.Warn("failed to set status", slog.String("error", err.Error()))
		}
	}
}

func (b *Bot) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.ID == b.selfID() {
		return
	}
	if !shouldRespond(m.Message, b.selfID(), b.prefix, b.character) {
		return
	}
	responder := b.getResponder()
	if responder == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout.ReplyTimeout)
	defer cancel()

	stopTyping := b.keepTyping(ctx, m.ChannelID)
	reply, err := responder.Respond(ctx, chat.Request{ChannelID: m.ChannelID, Author: m.Author.Username})
	stopTyping()

	if err != nil {
		_, _ = s.ChannelMessageSend(m.ChannelID, formatError(err))
		return
	}
	for _, part := range splitMessage(reply.Text, defaultDiscordMaxSize) {
		if _, err := s.ChannelMessageSend(m.ChannelID, part); err != nil {
			b.logger.Warn("failed to send reply", slog.String("channel_id", m.ChannelID), slog.String("error", err.Error()))
			return
		}
	}
}

// keepTyping shows the typing indicator until the returned func is called.
func (b *Bot) keepTyping(ctx context.Context, channelID string) func() {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(timeout.TypingInterval)
		defer ticker.Stop()
		for {
			if err := b.session.ChannelTyping(channelID, discordgo.WithContext(ctx)); err != nil && ctx.Err() == nil {
				b.logger.Debug("typing indicator failed", slog.String("error", err.Error()))
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	return func() {
		cancel()
		<-done
	}
}

// shouldRespond reports whether m asks the character for a reply: it must
// mention the bot or one of the character's nicknames, and must not be a
// prefixed command.
func shouldRespond(m *discordgo.Message, selfID, prefix string, c *profile.Character) bool {
	if prefix != "" && strings.HasPrefix(m.Content, prefix) {
		return false
	}
	return mentions(m, selfID) || c.Triggered(m.Content)
}

func mentions(m *discordgo.Message, userID string) bool {
	if userID == "" {
		return false
	}
	for _, u := range m.Mentions {
		if u != nil && u.ID == userID {
			return true
		}
	}
	return false
}

// toHistory converts Discord messages, keeping their newest-first order.
func toHistory(msgs []*discordgo.Message, selfID string) []chat.HistoryMessage {
	out := make([]chat.HistoryMessage, 0, len(msgs))
	for _, m := range msgs {
		if m == nil {
			continue
		}
		h := chat.HistoryMessage{
			ID:        m.ID,
			Content:   m.Content,
			HasEmbeds: len(m.Embeds) > 0,
		}
		if m.Author != nil {
			h.AuthorName = m.Author.Username
			h.FromSelf = selfID != "" && m.Author.ID == selfID
		}
		out = append(out, h)
	}
	return out
}

func formatError(err error) string {
	return "error: " + err.Error()
}

// splitMessage breaks text into parts of at most maxLen bytes, preferring
// spaces and never cutting inside a rune.
func splitMessage(text string, maxLen int) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	if maxLen <= 0 {
		maxLen = defaultDiscordMaxSize
	}

	var out []string
	remaining := trimmed
	for len(remaining) > maxLen {
		limit := maxLen
		for limit > 0 && !utf8.RuneStart(remaining[limit]) {
			limit--
		}
		if limit == 0 {
			_, limit = utf8.DecodeRuneInString(remaining)
		}
		cut := strings.LastIndex(remaining[:limit], " ")
		if cut <= 0 {
			cut = limit
		}
		part := strings.TrimSpace(remaining[:cut])
		if part != "" {
			out = append(out, part)
		}
		remaining = strings.TrimSpace(remaining[cut:])
	}
	if remaining != "" {
		out = append(out, remaining)
	}
	return out
}

var _ chat.HistorySource = (*Bot)(nil)
