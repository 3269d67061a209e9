// Package subscribers tracks who may talk to the bot in private and who
// receives unicorn and price-drop alerts.
package subscribers

import "time"

// Subscriber is a Telegram user known to the bot. Alerts go only to
// active subscribers; inactive rows are users let in through the home chat.
type Subscriber struct {
	UserID       int64
	ChatID       int64
	Username     string
	FirstName    string
	IsActive     bool
	SubscribedAt time.Time
	UpdatedAt    time.Time
}

// DisplayName prefers @username.
func (s *Subscriber) DisplayName() string {
	if s.Username != "" {
		return "@" + s.Username
	}
	if s.FirstName != "" {
		return s.FirstName
	}
	return "user"
}
