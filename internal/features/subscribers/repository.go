package subscribers

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Remember inserts the user as inactive, or refreshes the name and chat of
// an existing row without touching is_active.
func (r *Repository) Remember(ctx context.Context, s *Subscriber) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO subscribers (user_id, chat_id, username, first_name, is_active)
		VALUES ($1, $2, $3, $4, FALSE)
		ON CONFLICT (user_id) DO UPDATE
		SET chat_id = EXCLUDED.chat_id,
		    username = EXCLUDED.username,
		    first_name = EXCLUDED.first_name,
		    updated_at = NOW()
	`, s.UserID, s.ChatID, s.Username, s.FirstName)
	if err != nil {
		return fmt.Errorf("remember subscriber (user_id=%d): %w", s.UserID, err)
	}
	return nil
}

// SetActive flips is_active. ok is false when the user is unknown.
func (r *Repository) SetActive(ctx context.Context, userID int64, active bool) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE subscribers
		SET is_active = $2,
		    subscribed_at = CASE WHEN $2 THEN NOW() ELSE subscribed_at END,
		    updated_at = NOW()
		WHERE user_id = $1
	`, userID, active)
	if err != nil {
		return false, fmt.Errorf("update subscriber (user_id=%d): %w", userID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// Get returns the row for userID, or nil.
func (r *Repository) Get(ctx context.Context, userID int64) (*Subscriber, error) {
	var s Subscriber
	err := r.db.QueryRow(ctx, `
		SELECT user_id, chat_id, username, first_name, is_active, subscribed_at, updated_at
		FROM subscribers
		WHERE user_id = $1
	`, userID).Scan(&s.UserID, &s.ChatID, &s.Username, &s.FirstName, &s.IsActive, &s.SubscribedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("read subscriber (user_id=%d): %w", userID, err)
	}
	return &s, nil
}

// ListActive returns the active subscribers, oldest first.
func (r *Repository) ListActive(ctx context.Context) ([]Subscriber, error) {
	rows, err := r.db.Query(ctx, `
		SELECT user_id, chat_id, username, first_name, is_active, subscribed_at, updated_at
		FROM subscribers
		WHERE is_active
		ORDER BY subscribed_at
	`)
	if err != nil {
		return nil, fmt.Errorf("query subscribers: %w", err)
	}
	defer rows.Close()

	var out []Subscriber
	for rows.Next() {
		var s Subscriber
		if err := rows.Scan(&s.UserID, &s.ChatID, &s.Username, &s.FirstName, &s.IsActive, &s.SubscribedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan subscriber: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
