package subscribers

import (
	"context"
	"errors"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pointsmaxxer/pointsmaxxer/internal/features/deals"
)

type memoryStore struct {
	rows     map[int64]*Subscriber
	order    []int64
	failWith error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{rows: make(map[int64]*Subscriber)}
}

func (m *memoryStore) Remember(_ context.Context, s *Subscriber) error {
	if m.failWith != nil {
		return m.failWith
	}
	if row, ok := m.rows[s.UserID]; ok {
		row.ChatID, row.Username, row.FirstName = s.ChatID, s.Username, s.FirstName
		return nil
	}
	cp := *s
	cp.IsActive = false
	m.rows[s.UserID] = &cp
	m.order = append(m.order, s.UserID)
	return nil
}

func (m *memoryStore) SetActive(_ context.Context, userID int64, active bool) (bool, error) {
	row, ok := m.rows[userID]
	if !ok {
		return false, nil
	}
	row.IsActive = active
	return true, nil
}

func (m *memoryStore) Get(_ context.Context, userID int64) (*Subscriber, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	if row, ok := m.rows[userID]; ok {
		cp := *row
		return &cp, nil
	}
	return nil, nil
}

func (m *memoryStore) ListActive(context.Context) ([]Subscriber, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	var out []Subscriber
	for _, id := range m.order {
		if row := m.rows[id]; row.IsActive {
			out = append(out, *row)
		}
	}
	return out, nil
}

type recordingSender struct {
	sent map[int64][]string
}

func newRecordingSender() *recordingSender {
	return &recordingSender{sent: make(map[int64][]string)}
}

func (s *recordingSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		s.sent[msg.ChatID] = append(s.sent[msg.ChatID], msg.Text)
	}
	return tgbotapi.Message{}, nil
}

func (s *recordingSender) last(chatID int64) string {
	texts := s.sent[chatID]
	if len(texts) == 0 {
		return ""
	}
	return texts[len(texts)-1]
}

func TestService_SubscribeLifecycle(t *testing.T) {
	svc := NewService(newMemoryStore())
	ctx := context.Background()

	known, err := svc.IsKnown(ctx, 1)
	require.NoError(t, err)
	assert.False(t, known)

	require.NoError(t, svc.Remember(ctx, Subscriber{UserID: 1, ChatID: 1, Username: "ana"}))
	known, _ = svc.IsKnown(ctx, 1)
	active, _ := svc.IsSubscriber(ctx, 1)
	assert.True(t, known)
	assert.False(t, active, "remembering does not subscribe")

	already, err := svc.Subscribe(ctx, Subscriber{UserID: 1, ChatID: 1, Username: "ana"})
	require.NoError(t, err)
	assert.False(t, already)

	already, err = svc.Subscribe(ctx, Subscriber{UserID: 1, ChatID: 1})
	require.NoError(t, err)
	assert.True(t, already)

	_, err = svc.Subscribe(ctx, Subscriber{UserID: 2, ChatID: 2})
	require.NoError(t, err)

	ids, err := svc.ActiveChatIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids)

	was, err := svc.Unsubscribe(ctx, 1)
	require.NoError(t, err)
	assert.True(t, was)

	was, err = svc.Unsubscribe(ctx, 1)
	require.NoError(t, err)
	assert.False(t, was)

	was, err = svc.Unsubscribe(ctx, 99)
	require.NoError(t, err)
	assert.False(t, was)

	ids, _ = svc.ActiveChatIDs(ctx)
	assert.Equal(t, []int64{2}, ids)
}

func TestService_StoreErrors(t *testing.T) {
	store := newMemoryStore()
	store.failWith = errors.New("db down")
	svc := NewService(store)
	ctx := context.Background()

	_, err := svc.Subscribe(ctx, Subscriber{UserID: 1})
	assert.EqualError(t, err, "db down")
	_, err = svc.ActiveChatIDs(ctx)
	assert.Error(t, err)
}

func TestSubscriber_DisplayName(t *testing.T) {
	assert.Equal(t, "@ana", (&Subscriber{Username: "ana", FirstName: "Ana"}).DisplayName())
	assert.Equal(t, "Ana", (&Subscriber{FirstName: "Ana"}).DisplayName())
	assert.Equal(t, "user", (&Subscriber{}).DisplayName())
}

func TestHandler_SubscribeUnsubscribe(t *testing.T) {
	sender := newRecordingSender()
	h := NewHandler(NewService(newMemoryStore()), sender)
	ctx := context.Background()

	h.HandleSubscribe(ctx, -100, Subscriber{UserID: 5, Username: "bo"})
	assert.Contains(t, sender.last(-100), "Subscribed")
	assert.Contains(t, sender.last(-100), "/start in private")

	h.HandleSubscribe(ctx, 5, Subscriber{UserID: 5})
	assert.Contains(t, sender.last(5), "already subscribed")

	h.HandleUnsubscribe(ctx, 5, 5)
	assert.Equal(t, "🔕 Unsubscribed", sender.last(5))

	h.HandleUnsubscribe(ctx, 5, 5)
	assert.Contains(t, sender.last(5), "were not subscribed")
}

func sampleUnicorn() *deals.Deal {
	return &deals.Deal{
		Award: &deals.Award{
			Program: "ana",
			Flight: deals.Flight{
				Origin:      "SFO",
				Destination: "NRT",
				AirlineCode: "NH",
				Departure:   time.Date(2025, 6, 15, 11, 0, 0, 0, time.UTC),
			},
			Miles:          88000,
			CashFees:       120,
			Cabin:          deals.CabinBusiness,
			SeatsAvailable: 2,
		},
		CashPrice: 6400,
		CPP:       7.14,
		IsUnicorn: true,
	}
}

func TestNotifier_Broadcasts(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store)
	ctx := context.Background()
	for _, id := range []int64{10, 20} {
		_, err := svc.Subscribe(ctx, Subscriber{UserID: id, ChatID: id})
		require.NoError(t, err)
	}
	require.NoError(t, svc.Remember(ctx, Subscriber{UserID: 30, ChatID: 30}))

	sender := newRecordingSender()
	n := NewNotifier(svc, sender, deals.NewAlertManager(nil), Channels{Terminal: true, Telegram: true})

	n.NotifyUnicorn(ctx, sampleUnicorn())
	assert.Contains(t, sender.last(10), "🦄 UNICORN: SFO→NRT")
	assert.Contains(t, sender.last(20), "🦄 UNICORN")
	assert.Empty(t, sender.sent[30], "inactive rows get nothing")

	drop := deals.PriceDrop{Origin: "SFO", Destination: "NRT", Program: "ana", OldMiles: 120000, NewMiles: 88000, DropAmount: 32000, DropPercent: 26.7}
	n.NotifyPriceDrop(ctx, drop)
	assert.Len(t, sender.sent[10], 1, "price drops are off")

	n = NewNotifier(svc, sender, deals.NewAlertManager(nil), Channels{Telegram: true, PriceDrops: true})
	n.NotifyPriceDrop(ctx, drop)
	assert.Len(t, sender.sent[10], 2)
	assert.Contains(t, sender.last(20), "MAJOR")
}

func TestNotifier_TelegramOff(t *testing.T) {
	svc := NewService(newMemoryStore())
	ctx := context.Background()
	_, err := svc.Subscribe(ctx, Subscriber{UserID: 10, ChatID: 10})
	require.NoError(t, err)

	sender := newRecordingSender()
	n := NewNotifier(svc, sender, deals.NewAlertManager(nil), Channels{Terminal: true})
	n.NotifyUnicorn(ctx, sampleUnicorn())
	assert.Empty(t, sender.sent)
}
