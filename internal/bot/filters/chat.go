// Package filters decides which chats the bot answers.
package filters

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"github.com/pointsmaxxer/pointsmaxxer/internal/common"
	"github.com/pointsmaxxer/pointsmaxxer/internal/features/subscribers"
)

// Directory is the subscriber lookup the filter needs.
type Directory interface {
	IsKnown(ctx context.Context, userID int64) (bool, error)
	Remember(ctx context.Context, sub subscribers.Subscriber) error
}

// ChatAPI is the part of *tgbotapi.BotAPI the filter calls.
type ChatAPI interface {
	common.Sender
	GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error)
}

// ChatFilter lets through the home chat and private chats of known users
// or members of the home chat. Owners are always allowed in private.
type ChatFilter struct {
	homeChatID int64
	directory  Directory
	api        ChatAPI
	isOwner    func(userID int64) bool
}

func NewChatFilter(homeChatID int64, directory Directory, api ChatAPI, isOwner func(int64) bool) *ChatFilter {
	return &ChatFilter{
		homeChatID: homeChatID,
		directory:  directory,
		api:        api,
		isOwner:    isOwner,
	}
}

func (f *ChatFilter) CheckAccess(ctx context.Context, message *tgbotapi.Message) bool {
	if message == nil || message.Chat == nil {
		log.WithField("component", "ChatFilter").Warn("nil message/chat")
		return false
	}
	if message.From == nil {
		log.WithFields(log.Fields{
			"component": "ChatFilter",
			"chat_id":   message.Chat.ID,
			"chat_type": message.Chat.Type,
		}).Debug("no sender (channel post?)")
		return false
	}

	chatID := message.Chat.ID
	userID := message.From.ID

	logger := log.WithFields(log.Fields{
		"component":    "ChatFilter",
		"chat_id":      chatID,
		"chat_type":    message.Chat.Type,
		"user_id":      userID,
		"home_chat_id": f.homeChatID,
	})

	if f.homeChatID != 0 && chatID == f.homeChatID {
		return true
	}
	if !message.Chat.IsPrivate() {
		logger.Info("deny: not the home chat and not private")
		return false
	}

	if f.isOwner != nil && f.isOwner(userID) {
		logger.Debug("allow: owner")
		return true
	}

	known, err := f.directory.IsKnown(ctx, userID)
	if err != nil {
		logger.WithError(err).Error("subscriber lookup failed")
		return false
	}
	if known {
		return true
	}

	if f.homeChatID == 0 {
		logger.Info("deny: unknown user and no home chat configured")
		f.deny(chatID, logger)
		return false
	}

	cm, err := f.api.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			ChatID: f.homeChatID,
			UserID: userID,
		},
	})
	if err != nil {
		logger.WithError(err).Error("getChatMember failed")
		return false
	}

	switch cm.Status {
	case "creator", "administrator", "member", "restricted":
		if err := f.directory.Remember(ctx, subscribers.Subscriber{
			UserID:    userID,
			ChatID:    chatID,
			Username:  message.From.UserName,
			FirstName: message.From.FirstName,
		}); err != nil {
			logger.WithError(err).Warn("failed to backfill subscriber (allowing anyway)")
		}
		logger.WithField("tg_status", cm.Status).Info("allow: home chat member, backfilled")
		return true
	default:
		logger.WithField("tg_status", cm.Status).Info("deny: not a home chat member")
		f.deny(chatID, logger)
		return false
	}
}

func (f *ChatFilter) deny(chatID int64, logger *log.Entry) {
	msg := tgbotapi.NewMessage(chatID, "❌ This bot only answers members of its home chat")
	if _, err := f.api.Send(msg); err != nil {
		logger.WithError(err).Warn("failed to send deny message")
	}
}
