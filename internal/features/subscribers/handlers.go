package subscribers

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/pointsmaxxer/pointsmaxxer/internal/common"
)

type Handler struct {
	service *Service
	bot     common.Sender
}

func NewHandler(service *Service, bot common.Sender) *Handler {
	return &Handler{service: service, bot: bot}
}

// HandleSubscribe answers /subscribe. Alerts are delivered in private chat.
func (h *Handler) HandleSubscribe(ctx context.Context, chatID int64, sub Subscriber) {
	sub.ChatID = sub.UserID
	already, err := h.service.Subscribe(ctx, sub)
	if err != nil {
		log.WithError(err).WithField("user_id", sub.UserID).Error("Subscribe failed")
		common.SendText(h.bot, chatID, "❌ Could not subscribe, try again later")
		return
	}
	if already {
		common.SendText(h.bot, chatID, "🔔 You are already subscribed")
		return
	}
	text := "🔔 Subscribed. Unicorn deals and major price drops will arrive in private chat."
	if chatID != sub.UserID {
		text += " Send me /start in private first so I can write to you."
	}
	common.SendText(h.bot, chatID, text)
}

// HandleUnsubscribe answers /unsubscribe.
func (h *Handler) HandleUnsubscribe(ctx context.Context, chatID, userID int64) {
	was, err := h.service.Unsubscribe(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Unsubscribe failed")
		common.SendText(h.bot, chatID, "❌ Could not unsubscribe, try again later")
		return
	}
	if !was {
		common.SendText(h.bot, chatID, "🔕 You were not subscribed")
		return
	}
	common.SendText(h.bot, chatID, "🔕 Unsubscribed")
}
