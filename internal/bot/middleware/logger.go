// Package middleware holds the per-update helpers: logging, panic recovery
// and per-user rate limiting.
package middleware

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

const maxLoggedText = 50

// LogMessage logs an incoming message at debug level. redact hides the
// text, for passwords.
func LogMessage(message *tgbotapi.Message, redact bool) {
	if message == nil || message.From == nil || message.Chat == nil {
		return
	}

	text := message.Text
	switch {
	case redact:
		text = "[redacted]"
	case len([]rune(text)) > maxLoggedText:
		text = string([]rune(text)[:maxLoggedText]) + "..."
	}

	log.WithFields(log.Fields{
		"user_id":   message.From.ID,
		"chat_id":   message.Chat.ID,
		"chat_type": message.Chat.Type,
		"username":  message.From.UserName,
		"text":      text,
	}).Debug("Incoming message")
}
