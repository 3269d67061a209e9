package owner

import (
	"context"
	"errors"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pointsmaxxer/pointsmaxxer/internal/common"
)

var cheapParams = HashParams{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16}

type attempt struct {
	at      time.Time
	success bool
}

type memoryStore struct {
	now      func() time.Time
	sessions []*Session
	attempts map[int64][]attempt
	failWith error
}

func newMemoryStore(now func() time.Time) *memoryStore {
	return &memoryStore{now: now, attempts: make(map[int64][]attempt)}
}

func (m *memoryStore) CreateSession(_ context.Context, s *Session) error {
	if m.failWith != nil {
		return m.failWith
	}
	s.ID = int64(len(m.sessions) + 1)
	s.IsActive = true
	m.sessions = append(m.sessions, s)
	return nil
}

func (m *memoryStore) ActiveSession(_ context.Context, userID int64) (*Session, error) {
	for i := len(m.sessions) - 1; i >= 0; i-- {
		s := m.sessions[i]
		if s.UserID == userID && s.IsActive && s.ExpiresAt.After(m.now()) {
			return s, nil
		}
	}
	return nil, nil
}

func (m *memoryStore) DeactivateSessions(_ context.Context, userID int64) error {
	for _, s := range m.sessions {
		if s.UserID == userID {
			s.IsActive = false
		}
	}
	return nil
}

func (m *memoryStore) TouchSession(context.Context, int64) error { return nil }

func (m *memoryStore) LogAttempt(_ context.Context, userID int64, success bool) error {
	m.attempts[userID] = append(m.attempts[userID], attempt{at: m.now(), success: success})
	return nil
}

func (m *memoryStore) FailedAttemptsSince(_ context.Context, userID int64, since time.Time) (int, error) {
	n := 0
	for _, a := range m.attempts[userID] {
		if !a.success && !a.at.Before(since) {
			n++
		}
	}
	return n, nil
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestService(t *testing.T) (*Service, *memoryStore, *clock) {
	t.Helper()
	hash, err := Hash("hunter2", cheapParams)
	require.NoError(t, err)

	c := &clock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	store := newMemoryStore(c.now)
	svc := NewService(store, []int64{42}, hash)
	svc.now = c.now
	return svc, store, c
}

func TestHash_Verify(t *testing.T) {
	hash, err := Hash("correct horse", cheapParams)
	require.NoError(t, err)
	assert.Regexp(t, `^\$argon2id\$v=19\$m=1024,t=1,p=1\$[A-Za-z0-9+/]+\$[A-Za-z0-9+/]+$`, hash)

	ok, err := Verify("correct horse", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Verify("battery staple", hash)
	require.NoError(t, err)
	assert.False(t, ok)

	other, err := Hash("correct horse", cheapParams)
	require.NoError(t, err)
	assert.NotEqual(t, hash, other, "salts differ")
}

func TestVerify_Malformed(t *testing.T) {
	for _, encoded := range []string{
		"",
		"plain",
		"$bcrypt$v=19$m=1,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=16$m=1024,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=x$c2FsdA$a2V5",
		"$argon2id$v=19$m=1024,t=1,p=1$!!$a2V5",
		"$argon2id$v=19$m=1024,t=1,p=1$c2FsdA$",
	} {
		ok, err := Verify("pw", encoded)
		assert.False(t, ok, encoded)
		assert.ErrorIs(t, err, ErrInvalidHash, encoded)
	}
}

func TestService_LoginAndAuthorize(t *testing.T) {
	svc, _, c := newTestService(t)
	ctx := context.Background()

	assert.ErrorIs(t, svc.Authorize(ctx, 7), common.ErrNotOwner)
	assert.ErrorIs(t, svc.Login(ctx, 7, "hunter2"), common.ErrNotOwner)
	assert.ErrorIs(t, svc.Authorize(ctx, 42), common.ErrSessionExpired)

	require.NoError(t, svc.Login(ctx, 42, "hunter2"))
	assert.NoError(t, svc.Authorize(ctx, 42))

	c.advance(23 * time.Hour)
	assert.NoError(t, svc.Authorize(ctx, 42))

	c.advance(2 * time.Hour)
	assert.ErrorIs(t, svc.Authorize(ctx, 42), common.ErrSessionExpired)
}

func TestService_Logout(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Login(ctx, 42, "hunter2"))
	require.NoError(t, svc.Logout(ctx, 42))
	assert.ErrorIs(t, svc.Authorize(ctx, 42), common.ErrSessionExpired)
}

func TestService_Lockout(t *testing.T) {
	svc, _, c := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, svc.Login(ctx, 42, "wrong"), common.ErrWrongPassword)
		c.advance(time.Minute)
	}
	assert.ErrorIs(t, svc.Login(ctx, 42, "hunter2"), common.ErrTooManyAttempts)

	c.advance(time.Hour)
	assert.NoError(t, svc.Login(ctx, 42, "hunter2"), "failed attempts age out after an hour")
}

func TestService_BadHashRejectsEverything(t *testing.T) {
	c := &clock{t: time.Now()}
	svc := NewService(newMemoryStore(c.now), []int64{42}, "not-a-hash")
	assert.ErrorIs(t, svc.Login(context.Background(), 42, ""), common.ErrWrongPassword)
}

func TestService_StoreError(t *testing.T) {
	svc, store, _ := newTestService(t)
	store.failWith = errors.New("db down")
	assert.EqualError(t, svc.Login(context.Background(), 42, "hunter2"), "db down")
}

func TestService_DialogStateExpires(t *testing.T) {
	svc, _, c := newTestService(t)

	svc.SetState(42, StateAwaitingPassword)
	require.NotNil(t, svc.GetState(42))
	assert.Equal(t, StateAwaitingPassword, svc.GetState(42).State)

	c.advance(5*time.Minute + time.Second)
	assert.Nil(t, svc.GetState(42))

	svc.SetState(42, StateAwaitingPassword)
	svc.ClearState(42)
	assert.Nil(t, svc.GetState(42))
}

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

func TestHandler_LoginDialog(t *testing.T) {
	svc, _, _ := newTestService(t)
	sender := &recordingSender{}
	h := NewHandler(svc, sender)
	ctx := context.Background()

	h.HandleLogin(ctx, -100, 42, nil)
	assert.Contains(t, sender.last(), "private chat")

	h.HandleLogin(ctx, 7, 7, nil)
	assert.Contains(t, sender.last(), "owner")

	assert.False(t, h.HandleDialog(ctx, 42, 42, "hello"), "no dialog pending")

	h.HandleLogin(ctx, 42, 42, nil)
	assert.Contains(t, sender.last(), "Enter the owner password")

	assert.True(t, h.HandleDialog(ctx, 42, 42, " wrong "))
	assert.Contains(t, sender.last(), "wrong password")
	assert.False(t, h.RequireOwner(ctx, 42, 42))
	assert.Contains(t, sender.last(), "/login")

	h.HandleLogin(ctx, 42, 42, []string{"hunter2"})
	assert.Contains(t, sender.last(), "Logged in")
	assert.True(t, h.RequireOwner(ctx, -100, 42))

	h.HandleLogout(ctx, 42, 42)
	assert.Contains(t, sender.last(), "Logged out")
	assert.False(t, h.RequireOwner(ctx, 42, 42))
}

func TestHandler_RequireOwner_NotOwner(t *testing.T) {
	svc, _, _ := newTestService(t)
	sender := &recordingSender{}
	h := NewHandler(svc, sender)

	assert.False(t, h.RequireOwner(context.Background(), -100, 7))
	assert.Contains(t, sender.last(), "only the portfolio owner")
}
