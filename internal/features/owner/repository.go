package owner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository works with owner_sessions and owner_login_attempts.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CreateSession(ctx context.Context, s *Session) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO owner_sessions (user_id, session_token, expires_at, is_active)
		VALUES ($1, $2, $3, TRUE)
		RETURNING id, authenticated_at, last_activity
	`, s.UserID, s.Token, s.ExpiresAt).Scan(&s.ID, &s.AuthenticatedAt, &s.LastActivity)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	s.IsActive = true
	return nil
}

// ActiveSession returns the newest unexpired session, or nil.
func (r *Repository) ActiveSession(ctx context.Context, userID int64) (*Session, error) {
	var s Session
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, session_token, authenticated_at, expires_at, last_activity, is_active
		FROM owner_sessions
		WHERE user_id = $1 AND is_active = TRUE AND expires_at > NOW()
		ORDER BY authenticated_at DESC
		LIMIT 1
	`, userID).Scan(
		&s.ID, &s.UserID, &s.Token, &s.AuthenticatedAt,
		&s.ExpiresAt, &s.LastActivity, &s.IsActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("read session (user_id=%d): %w", userID, err)
	}
	return &s, nil
}

func (r *Repository) DeactivateSessions(ctx context.Context, userID int64) error {
	if _, err := r.db.Exec(ctx, `UPDATE owner_sessions SET is_active = FALSE WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("deactivate sessions: %w", err)
	}
	return nil
}

func (r *Repository) TouchSession(ctx context.Context, userID int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE owner_sessions SET last_activity = NOW()
		WHERE user_id = $1 AND is_active = TRUE
	`, userID)
	return err
}

func (r *Repository) LogAttempt(ctx context.Context, userID int64, success bool) error {
	_, err := r.db.Exec(ctx, `INSERT INTO owner_login_attempts (user_id, success) VALUES ($1, $2)`, userID, success)
	return err
}

// FailedAttemptsSince counts failed logins at or after since.
func (r *Repository) FailedAttemptsSince(ctx context.Context, userID int64, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM owner_login_attempts
		WHERE user_id = $1 AND success = FALSE AND attempt_time >= $2
	`, userID, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count login attempts: %w", err)
	}
	return count, nil
}
