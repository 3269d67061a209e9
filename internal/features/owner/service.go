package owner

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/pointsmaxxer/pointsmaxxer/internal/common"
)

// Store persists sessions and login attempts. *Repository implements it.
type Store interface {
	CreateSession(ctx context.Context, s *Session) error
	ActiveSession(ctx context.Context, userID int64) (*Session, error)
	DeactivateSessions(ctx context.Context, userID int64) error
	TouchSession(ctx context.Context, userID int64) error
	LogAttempt(ctx context.Context, userID int64, success bool) error
	FailedAttemptsSince(ctx context.Context, userID int64, since time.Time) (int, error)
}

// Service authenticates the owner. Dialog states live in memory only.
type Service struct {
	store        Store
	ownerIDs     []int64
	passwordHash string

	states   map[int64]*DialogState
	statesMu sync.RWMutex

	now func() time.Time
}

func NewService(store Store, ownerIDs []int64, passwordHash string) *Service {
	return &Service{
		store:        store,
		ownerIDs:     ownerIDs,
		passwordHash: passwordHash,
		states:       make(map[int64]*DialogState),
		now:          time.Now,
	}
}

// IsOwner reports whether userID is one of the configured owners.
func (s *Service) IsOwner(userID int64) bool {
	return slices.Contains(s.ownerIDs, userID)
}

// Login verifies the password and opens a 24h session. Three failed
// attempts within an hour lock the account until they age out.
func (s *Service) Login(ctx context.Context, userID int64, password string) error {
	if !s.IsOwner(userID) {
		return common.ErrNotOwner
	}

	failed, err := s.store.FailedAttemptsSince(ctx, userID, s.now().Add(-lockoutWindow))
	if err != nil {
		return err
	}
	if failed >= maxFailedLogin {
		return common.ErrTooManyAttempts
	}

	match, err := Verify(password, s.passwordHash)
	if err != nil {
		log.WithError(err).Error("OWNER_PASSWORD_HASH cannot be parsed")
		match = false
	}
	if logErr := s.store.LogAttempt(ctx, userID, match); logErr != nil {
		log.WithError(logErr).WithField("user_id", userID).Warn("Failed to log login attempt")
	}
	if !match {
		return common.ErrWrongPassword
	}

	token, err := newSessionToken()
	if err != nil {
		return err
	}
	if err := s.store.DeactivateSessions(ctx, userID); err != nil {
		return err
	}
	session := &Session{
		UserID:    userID,
		Token:     token,
		ExpiresAt: s.now().Add(sessionTTL),
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return err
	}

	log.WithField("user_id", userID).Info("Owner logged in")
	return nil
}

// Authorize allows userID to run owner commands: it must be an owner with
// an active session.
func (s *Service) Authorize(ctx context.Context, userID int64) error {
	if !s.IsOwner(userID) {
		return common.ErrNotOwner
	}
	session, err := s.store.ActiveSession(ctx, userID)
	if err != nil {
		return fmt.Errorf("authorize owner: %w", err)
	}
	if session == nil || !session.ExpiresAt.After(s.now()) {
		return common.ErrSessionExpired
	}
	if err := s.store.TouchSession(ctx, userID); err != nil {
		log.WithError(err).WithField("user_id", userID).Debug("Failed to touch owner session")
	}
	return nil
}

// Logout ends every session of userID.
func (s *Service) Logout(ctx context.Context, userID int64) error {
	s.ClearState(userID)
	return s.store.DeactivateSessions(ctx, userID)
}

// GetState returns the pending dialog step, or nil once it expired.
func (s *Service) GetState(userID int64) *DialogState {
	s.statesMu.RLock()
	defer s.statesMu.RUnlock()

	state, ok := s.states[userID]
	if !ok || s.now().After(state.ExpiresAt) {
		return nil
	}
	return state
}

// SetState records a dialog step that expires after five minutes.
func (s *Service) SetState(userID int64, state string) {
	s.statesMu.Lock()
	defer s.statesMu.Unlock()

	s.states[userID] = &DialogState{
		State:     state,
		ExpiresAt: s.now().Add(dialogTTL),
	}
}

func (s *Service) ClearState(userID int64) {
	s.statesMu.Lock()
	defer s.statesMu.Unlock()
	delete(s.states, userID)
}
