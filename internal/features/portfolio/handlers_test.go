package portfolio

import (
	"context"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	texts []string
}

func (s *recordingSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		s.texts = append(s.texts, msg.Text)
	}
	return tgbotapi.Message{}, nil
}

func (s *recordingSender) last() string {
	if len(s.texts) == 0 {
		return ""
	}
	return s.texts[len(s.texts)-1]
}

func newTestHandler(t *testing.T) (*Handler, *recordingSender, *memoryStore) {
	t.Helper()
	g, err := NewGraph(sampleRules())
	require.NoError(t, err)

	store := &memoryStore{}
	svc := NewService(store, NewManager(nil, g, Options{}))
	require.NoError(t, svc.Load(context.Background(), samplePrograms()))

	sender := &recordingSender{}
	return NewHandler(svc, sender), sender, store
}

func TestHandler_Portfolio(t *testing.T) {
	h, sender, _ := newTestHandler(t)

	h.HandlePortfolio(context.Background(), 1)
	assert.Contains(t, sender.last(), "Chase Ultimate Rewards")
}

func TestHandler_Paths(t *testing.T) {
	h, sender, _ := newTestHandler(t)
	ctx := context.Background()

	h.HandlePaths(ctx, 1, []string{"united"})
	assert.Contains(t, sender.last(), "Usage")

	h.HandlePaths(ctx, 1, []string{"united", "zero"})
	assert.Contains(t, sender.last(), "positive")

	h.HandlePaths(ctx, 1, []string{"UNITED", "150,000"})
	assert.Contains(t, sender.last(), "Chase Ultimate Rewards")
}

func TestHandler_SetBalance(t *testing.T) {
	h, sender, store := newTestHandler(t)
	ctx := context.Background()

	h.HandleSetBalance(ctx, 1, []string{"aa", "60000"})
	assert.Contains(t, sender.last(), "+5,000 points")
	assert.Equal(t, int64(60000), store.programs[2].Balance)

	h.HandleSetBalance(ctx, 1, []string{"jal", "100"})
	assert.Contains(t, sender.last(), "/addprogram")

	h.HandleSetBalance(ctx, 1, []string{"aa", "-5"})
	assert.Contains(t, sender.last(), "negative")
}

func TestHandler_AddAndRemove(t *testing.T) {
	h, sender, _ := newTestHandler(t)
	ctx := context.Background()

	h.HandleAddProgram(ctx, 1, []string{"bilt", "25000", "Bilt", "Rewards"})
	assert.Equal(t, "✅ Bilt Rewards [bilt]: 25,000 points", sender.last())

	h.HandleRemoveProgram(ctx, 1, []string{"bilt"})
	assert.Equal(t, "🗑 Removed bilt", sender.last())

	h.HandleRemoveProgram(ctx, 1, []string{"bilt"})
	assert.Contains(t, sender.last(), "Not in your portfolio")
}

func TestParseAmount(t *testing.T) {
	n, err := parseAmount(" 85,000 ")
	require.NoError(t, err)
	assert.Equal(t, int64(85000), n)

	n, err = parseAmount("1_000")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), n)

	_, err = parseAmount("lots")
	assert.Error(t, err)
}
