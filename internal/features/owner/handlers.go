package owner

import (
	"context"
	"errors"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/pointsmaxxer/pointsmaxxer/internal/common"
)

// Handler runs the /login dialog and guards owner-only commands.
type Handler struct {
	service *Service
	bot     common.Sender
}

func NewHandler(service *Service, bot common.Sender) *Handler {
	return &Handler{service: service, bot: bot}
}

// HandleLogin answers /login [password]. Private chats only.
func (h *Handler) HandleLogin(ctx context.Context, chatID, userID int64, args []string) {
	if chatID != userID {
		common.SendText(h.bot, chatID, "🔐 Send /login to me in a private chat")
		return
	}
	if !h.service.IsOwner(userID) {
		common.SendText(h.bot, chatID, "❌ "+common.ErrNotOwner.Error())
		return
	}

	if password := strings.TrimSpace(strings.Join(args, " ")); password != "" {
		h.handlePasswordInput(ctx, chatID, userID, password)
		return
	}
	h.service.SetState(userID, StateAwaitingPassword)
	common.SendText(h.bot, chatID, "🔐 Enter the owner password:")
}

// HandleLogout answers /logout.
func (h *Handler) HandleLogout(ctx context.Context, chatID, userID int64) {
	if !h.service.IsOwner(userID) {
		common.SendText(h.bot, chatID, "❌ "+common.ErrNotOwner.Error())
		return
	}
	if err := h.service.Logout(ctx, userID); err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Logout failed")
		common.SendText(h.bot, chatID, "❌ Could not end the session")
		return
	}
	common.SendText(h.bot, chatID, "👋 Logged out")
}

// HandleDialog consumes a non-command private message when a dialog step
// is pending. It reports whether the message was consumed.
func (h *Handler) HandleDialog(ctx context.Context, chatID, userID int64, text string) bool {
	state := h.service.GetState(userID)
	if state == nil {
		return false
	}
	switch state.State {
	case StateAwaitingPassword:
		h.handlePasswordInput(ctx, chatID, userID, strings.TrimSpace(text))
		return true
	}
	return false
}

func (h *Handler) handlePasswordInput(ctx context.Context, chatID, userID int64, password string) {
	h.service.ClearState(userID)

	err := h.service.Login(ctx, userID, password)
	switch {
	case err == nil:
		common.SendText(h.bot, chatID, "✅ Logged in for 24 hours")
	case errors.Is(err, common.ErrWrongPassword),
		errors.Is(err, common.ErrTooManyAttempts),
		errors.Is(err, common.ErrNotOwner):
		common.SendText(h.bot, chatID, "❌ "+err.Error())
	default:
		log.WithError(err).WithField("user_id", userID).Error("Login failed")
		common.SendText(h.bot, chatID, "❌ Login failed, try again later")
	}
}

// RequireOwner reports whether userID may run an owner command and tells
// the chat why not when it may not.
func (h *Handler) RequireOwner(ctx context.Context, chatID, userID int64) bool {
	err := h.service.Authorize(ctx, userID)
	if err == nil {
		return true
	}
	switch {
	case errors.Is(err, common.ErrNotOwner):
		common.SendText(h.bot, chatID, "❌ "+err.Error())
	case errors.Is(err, common.ErrSessionExpired):
		common.SendText(h.bot, chatID, "🔐 "+err.Error()+" (/login in a private chat)")
	default:
		log.WithError(err).WithField("user_id", userID).Error("Owner check failed")
		common.SendText(h.bot, chatID, "❌ Could not check your session")
	}
	return false
}
