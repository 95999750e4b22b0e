package discord

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faber6/eliz/internal/profile"
	"github.com/faber6/eliz/server/service/chat"
)

func testCharacter() *profile.Character {
	return &profile.Character{
		Name:       "Eliz",
		ClientArgs: profile.ClientArgs{Nicknames: []string{"eliz", "lizzy"}},
	}
}

func TestShouldRespond(t *testing.T) {
	self := &discordgo.User{ID: "42", Username: "EnmaBot"}
	other := &discordgo.User{ID: "7", Username: "bob"}

	tests := []struct {
		name     string
		msg      *discordgo.Message
		expected bool
	}{
		{"nickname", &discordgo.Message{Content: "hey Eliz"}, true},
		{"second nickname", &discordgo.Message{Content: "LIZZY?"}, true},
		{"mention", &discordgo.Message{Content: "<@42> hi", Mentions: []*discordgo.User{self}}, true},
		{"other mention", &discordgo.Message{Content: "<@7> hi", Mentions: []*discordgo.User{other}}, false},
		{"unrelated", &discordgo.Message{Content: "lunch?"}, false},
		{"prefixed command", &discordgo.Message{Content: "?toggle eliz"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, shouldRespond(tt.msg, "42", "?", testCharacter()))
		})
	}

	assert.False(t, mentions(&discordgo.Message{Mentions: []*discordgo.User{self}}, ""))
}

func TestToHistory(t *testing.T) {
	msgs := []*discordgo.Message{
		{ID: "3", Content: "hello", Author: &discordgo.User{ID: "42", Username: "EnmaBot"}},
		{ID: "2", Content: "", Author: &discordgo.User{ID: "7", Username: "bob"}, Embeds: []*discordgo.MessageEmbed{{Title: "x"}}},
		nil,
		{ID: "1", Content: "hi eliz", Author: &discordgo.User{ID: "7", Username: "bob"}},
	}

	history := toHistory(msgs, "42")
	require.Len(t, history, 3)
	assert.Equal(t, chat.HistoryMessage{ID: "3", AuthorName: "EnmaBot", Content: "hello", FromSelf: true}, history[0])
	assert.True(t, history[1].HasEmbeds)
	assert.False(t, history[2].FromSelf)

	assert.Equal(t, "bob: hi eliz\nEliz: hello", chat.BuildConversation(history, "Eliz"))
}

func TestSplitMessage(t *testing.T) {
	assert.Nil(t, splitMessage("   ", 10))
	assert.Equal(t, []string{"short"}, splitMessage("short", 10))

	parts := splitMessage("alpha beta gamma", 11)
	assert.Equal(t, []string{"alpha beta", "gamma"}, parts)

	long := strings.Repeat("x", 25)
	parts = splitMessage(long, 10)
	require.Len(t, parts, 3)
	for _, p := range parts {
		assert.LessOrEqual(t, len(p), 10)
	}

	accented := strings.Repeat("é", 10)
	parts = splitMessage(accented, 5)
	require.Len(t, parts, 5)
	for _, p := range parts {
		assert.True(t, utf8.ValidString(p), "part %q", p)
		assert.LessOrEqual(t, len(p), 5)
	}
	assert.Equal(t, accented, strings.Join(parts, ""))

	wide := strings.Repeat("日", 3)
	parts = splitMessage(wide, 2)
	assert.Equal(t, []string{"日", "日", "日"}, parts)
}

func TestFormatError(t *testing.T) {
	assert.Equal(t, "error: model is loading", formatError(errors.New("model is loading")))
}

func TestNewRequiresToken(t *testing.T) {
	_, err := New("  ", testCharacter(), "?", nil)
	assert.Error(t, err)

	b, err := New("token", testCharacter(), "?", nil)
	require.NoError(t, err)
	assert.Error(t, b.Start(), "start without a responder")
}
