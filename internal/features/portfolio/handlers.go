package portfolio

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/pointsmaxxer/pointsmaxxer/internal/common"
)

// Handler serves the portfolio commands.
type Handler struct {
	service *Service
	bot     common.Sender
}

func NewHandler(service *Service, bot common.Sender) *Handler {
	return &Handler{service: service, bot: bot}
}

// HandlePortfolio answers /portfolio with balances, values and best uses.
func (h *Handler) HandlePortfolio(ctx context.Context, chatID int64) {
	common.SendText(h.bot, chatID, FormatSummary(h.service.Manager().Summary()))
}

// HandlePaths answers /paths <program> <miles>.
func (h *Handler) HandlePaths(ctx context.Context, chatID int64, args []string) {
	if len(args) < 2 {
		common.SendText(h.bot, chatID, "❌ Usage: /paths <program> <miles>")
		return
	}
	miles, err := parseAmount(args[1])
	if err != nil || miles <= 0 {
		common.SendText(h.bot, chatID, "❌ Miles must be a positive number")
		return
	}

	target := common.NormalizeCode(args[0])
	paths := h.service.Manager().FindTransferPaths(target, miles)
	common.SendText(h.bot, chatID, FormatPaths(h.service.Manager().ProgramName(target), miles, paths))
}

// HandleSetBalance answers /setbalance <code> <balance>.
func (h *Handler) HandleSetBalance(ctx context.Context, chatID int64, args []string) {
	if len(args) < 2 {
		common.SendText(h.bot, chatID, "❌ Usage: /setbalance <program> <balance>")
		return
	}
	balance, err := parseAmount(args[1])
	if err != nil {
		common.SendText(h.bot, chatID, "❌ Balance must be a number")
		return
	}

	code := common.NormalizeCode(args[0])
	old := h.service.Manager().Balance(code)
	found, err := h.service.UpdateBalance(ctx, code, balance)
	switch {
	case errors.Is(err, common.ErrInvalidBalance):
		common.SendText(h.bot, chatID, "❌ Balance must not be negative")
		return
	case err != nil:
		log.WithError(err).WithField("program", code).Error("Failed to update balance")
		common.SendText(h.bot, chatID, "❌ Could not save the balance")
		return
	case !found:
		common.SendText(h.bot, chatID, fmt.Sprintf("❌ %s is not in your portfolio. Use /addprogram first", code))
		return
	}

	common.SendText(h.bot, chatID, fmt.Sprintf("✅ %s: %s (%s)",
		h.service.Manager().ProgramName(code), common.FormatPoints(balance), common.FormatSignedPoints(balance-old)))
}

// HandleAddProgram answers /addprogram <code> <balance> [name...].
func (h *Handler) HandleAddProgram(ctx context.Context, chatID int64, args []string) {
	if len(args) < 2 {
		common.SendText(h.bot, chatID, "❌ Usage: /addprogram <program> <balance> [name]")
		return
	}
	balance, err := parseAmount(args[1])
	if err != nil {
		common.SendText(h.bot, chatID, "❌ Balance must be a number")
		return
	}

	p := Program{
		Code:    args[0],
		Balance: balance,
		Name:    strings.Join(args[2:], " "),
	}
	if err := h.service.AddProgram(ctx, p); err != nil {
		switch {
		case errors.Is(err, common.ErrInvalidBalance), errors.Is(err, common.ErrEmptyCode):
			common.SendText(h.bot, chatID, "❌ "+err.Error())
		default:
			log.WithError(err).WithField("program", p.Code).Error("Failed to add program")
			common.SendText(h.bot, chatID, "❌ Could not save the program")
		}
		return
	}

	code := common.NormalizeCode(p.Code)
	common.SendText(h.bot, chatID, fmt.Sprintf("✅ %s [%s]: %s",
		h.service.Manager().ProgramName(code), code, common.FormatPoints(balance)))
}

// HandleRemoveProgram answers /removeprogram <code>.
func (h *Handler) HandleRemoveProgram(ctx context.Context, chatID int64, args []string) {
	if len(args) < 1 {
		common.SendText(h.bot, chatID, "❌ Usage: /removeprogram <program>")
		return
	}

	removed, err := h.service.RemoveProgram(ctx, args[0])
	if err != nil {
		log.WithError(err).WithField("program", args[0]).Error("Failed to remove program")
		common.SendText(h.bot, chatID, "❌ Could not remove the program")
		return
	}
	if !removed {
		common.SendText(h.bot, chatID, "❌ Not in your portfolio")
		return
	}
	common.SendText(h.bot, chatID, "🗑 Removed "+common.NormalizeCode(args[0]))
}

// parseAmount accepts "85000", "85,000" and "85_000".
func parseAmount(s string) (int64, error) {
	s = strings.NewReplacer(",", "", "_", "").Replace(strings.TrimSpace(s))
	return strconv.ParseInt(s, 10, 64)
}
