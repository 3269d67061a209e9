package subscribers

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Store persists subscribers. *Repository implements it.
type Store interface {
	Remember(ctx context.Context, s *Subscriber) error
	SetActive(ctx context.Context, userID int64, active bool) (bool, error)
	Get(ctx context.Context, userID int64) (*Subscriber, error)
	ListActive(ctx context.Context) ([]Subscriber, error)
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Remember records a user without subscribing them.
func (s *Service) Remember(ctx context.Context, sub Subscriber) error {
	return s.store.Remember(ctx, &sub)
}

// IsKnown reports whether the user has a row, active or not.
func (s *Service) IsKnown(ctx context.Context, userID int64) (bool, error) {
	sub, err := s.store.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	return sub != nil, nil
}

// IsSubscriber reports whether the user receives alerts.
func (s *Service) IsSubscriber(ctx context.Context, userID int64) (bool, error) {
	sub, err := s.store.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	return sub != nil && sub.IsActive, nil
}

// Subscribe turns alerts on. already is true when they were on before.
func (s *Service) Subscribe(ctx context.Context, sub Subscriber) (already bool, err error) {
	already, err = s.IsSubscriber(ctx, sub.UserID)
	if err != nil {
		return false, err
	}
	if err := s.store.Remember(ctx, &sub); err != nil {
		return false, err
	}
	ok, err := s.store.SetActive(ctx, sub.UserID, true)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, fmt.Errorf("subscriber %d vanished", sub.UserID)
	}

	if !already {
		log.WithFields(log.Fields{
			"user_id":  sub.UserID,
			"username": sub.Username,
		}).Info("New subscriber")
	}
	return already, nil
}

// Unsubscribe turns alerts off. wasActive is false when nothing changed.
func (s *Service) Unsubscribe(ctx context.Context, userID int64) (wasActive bool, err error) {
	wasActive, err = s.IsSubscriber(ctx, userID)
	if err != nil || !wasActive {
		return false, err
	}
	if _, err := s.store.SetActive(ctx, userID, false); err != nil {
		return false, err
	}
	log.WithField("user_id", userID).Info("Subscriber left")
	return true, nil
}

// ActiveChatIDs lists the chats that receive alerts.
func (s *Service) ActiveChatIDs(ctx context.Context) ([]int64, error) {
	subs, err := s.store.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(subs))
	for _, sub := range subs {
		ids = append(ids, sub.ChatID)
	}
	return ids, nil
}
