// Package owner gates the mutating bot commands behind the owner's
// password: argon2id verification, brute-force lockout, 24h sessions and
// the short password dialog in private chat.
package owner

import "time"

// Session is an authenticated owner login.
type Session struct {
	ID              int64
	UserID          int64
	Token           string
	AuthenticatedAt time.Time
	ExpiresAt       time.Time
	LastActivity    time.Time
	IsActive        bool
}

// DialogState is the pending step of a private-chat conversation.
type DialogState struct {
	State     string
	ExpiresAt time.Time
}

const (
	StateNone             = ""
	StateAwaitingPassword = "awaiting_password"
)

const (
	sessionTTL     = 24 * time.Hour
	dialogTTL      = 5 * time.Minute
	lockoutWindow  = time.Hour
	maxFailedLogin = 3
)
