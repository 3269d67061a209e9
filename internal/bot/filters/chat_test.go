package filters

import (
	"context"
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pointsmaxxer/pointsmaxxer/internal/features/subscribers"
)

type fakeDirectory struct {
	known      map[int64]bool
	remembered []subscribers.Subscriber
	err        error
}

func (d *fakeDirectory) IsKnown(_ context.Context, userID int64) (bool, error) {
	return d.known[userID], d.err
}

func (d *fakeDirectory) Remember(_ context.Context, sub subscribers.Subscriber) error {
	d.remembered = append(d.remembered, sub)
	return nil
}

type fakeAPI struct {
	status  map[int64]string
	err     error
	calls   int
	replies []string
}

func (a *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		a.replies = append(a.replies, msg.Text)
	}
	return tgbotapi.Message{}, nil
}

func (a *fakeAPI) GetChatMember(cfg tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error) {
	a.calls++
	if a.err != nil {
		return tgbotapi.ChatMember{}, a.err
	}
	return tgbotapi.ChatMember{Status: a.status[cfg.UserID]}, nil
}

const home = int64(-1001)

func message(chatID int64, chatType string, userID int64) *tgbotapi.Message {
	return &tgbotapi.Message{
		Text: "/deals",
		From: &tgbotapi.User{ID: userID, UserName: "u", FirstName: "U"},
		Chat: &tgbotapi.Chat{ID: chatID, Type: chatType},
	}
}

func newFilter(dir *fakeDirectory, api *fakeAPI) *ChatFilter {
	return NewChatFilter(home, dir, api, func(id int64) bool { return id == 42 })
}

func TestCheckAccess(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		msg       *tgbotapi.Message
		known     map[int64]bool
		status    map[int64]string
		want      bool
		wantCalls int
		backfill  bool
		denied    bool
	}{
		{name: "home chat", msg: message(home, "supergroup", 5), want: true},
		{name: "other group", msg: message(-2002, "group", 5), want: false},
		{name: "owner in private", msg: message(42, "private", 42), want: true},
		{name: "known user", msg: message(5, "private", 5), known: map[int64]bool{5: true}, want: true},
		{
			name: "home member backfilled", msg: message(6, "private", 6),
			status: map[int64]string{6: "member"}, want: true, wantCalls: 1, backfill: true,
		},
		{
			name: "stranger", msg: message(7, "private", 7),
			status: map[int64]string{7: "left"}, want: false, wantCalls: 1, denied: true,
		},
		{name: "nil sender", msg: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: home}}, want: false},
		{name: "nil message", msg: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := &fakeDirectory{known: tt.known}
			api := &fakeAPI{status: tt.status}
			f := newFilter(dir, api)

			assert.Equal(t, tt.want, f.CheckAccess(ctx, tt.msg))
			assert.Equal(t, tt.wantCalls, api.calls)
			if tt.backfill {
				require.Len(t, dir.remembered, 1)
				assert.Equal(t, tt.msg.From.ID, dir.remembered[0].UserID)
			} else {
				assert.Empty(t, dir.remembered)
			}
			if tt.denied {
				require.Len(t, api.replies, 1)
				assert.Contains(t, api.replies[0], "home chat")
			}
		})
	}
}

func TestCheckAccess_Errors(t *testing.T) {
	ctx := context.Background()

	f := newFilter(&fakeDirectory{err: errors.New("db down")}, &fakeAPI{})
	assert.False(t, f.CheckAccess(ctx, message(5, "private", 5)))

	api := &fakeAPI{err: errors.New("telegram down")}
	f = newFilter(&fakeDirectory{}, api)
	assert.False(t, f.CheckAccess(ctx, message(5, "private", 5)))
	assert.Empty(t, api.replies, "no deny message when the lookup failed")
}

func TestCheckAccess_NoHomeChat(t *testing.T) {
	api := &fakeAPI{}
	f := NewChatFilter(0, &fakeDirectory{}, api, nil)

	assert.False(t, f.CheckAccess(context.Background(), message(5, "private", 5)))
	assert.Zero(t, api.calls)
	assert.Len(t, api.replies, 1)
}
