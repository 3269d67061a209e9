package deals

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/pointsmaxxer/pointsmaxxer/internal/common"
)

const (
	listLimit  = 10
	dealsUsage = "Usage: /deals [min=<cpp>] [max=<cpp>] [program=<code>] [cabin=<cabin>] [saver] [affordable] [unicorns]"
)

// DealReader is the read side of Repository used by the bot.
type DealReader interface {
	RecentDeals(ctx context.Context, limit int, unicornsOnly bool) ([]*Deal, error)
	GetDeal(ctx context.Context, id int64) (*Deal, error)
}

// Handler serves the deal commands.
type Handler struct {
	store    DealReader
	analyzer *Analyzer
	alerts   *AlertManager
	drops    *PriceDropTracker
	bot      common.Sender
}

func NewHandler(store DealReader, analyzer *Analyzer, alerts *AlertManager, drops *PriceDropTracker, bot common.Sender) *Handler {
	return &Handler{
		store:    store,
		analyzer: analyzer,
		alerts:   alerts,
		drops:    drops,
		bot:      bot,
	}
}

// HandleDeals lists the best recent deals, optionally filtered with
// ParseFilterArgs tokens.
func (h *Handler) HandleDeals(ctx context.Context, chatID int64, args []string) {
	c, err := ParseFilterArgs(args)
	if err != nil {
		common.SendText(h.bot, chatID, "❌ "+err.Error()+"\n"+dealsUsage)
		return
	}
	title := "💎 Best recent deals:"
	if !c.IsZero() {
		title = "💎 Best recent deals (filtered):"
	}
	h.sendList(ctx, chatID, c, title, "No deals yet. The next scan will find some.")
}

// HandleUnicorns lists recent unicorns only.
func (h *Handler) HandleUnicorns(ctx context.Context, chatID int64) {
	h.sendList(ctx, chatID, FilterCriteria{UnicornsOnly: true}, "🦄 Recent unicorns:", "No unicorns right now.")
}

func (h *Handler) sendList(ctx context.Context, chatID int64, c FilterCriteria, title, empty string) {
	recent, err := History(ctx, h.store, 0, c)
	if err != nil {
		log.WithError(err).Error("Failed to load recent deals")
		common.SendText(h.bot, chatID, "❌ Could not load deals")
		return
	}

	ranked := RankDeals(recent, h.analyzer.Weights())
	if len(ranked) > listLimit {
		ranked = ranked[:listLimit]
	}
	common.SendText(h.bot, chatID, FormatDealList(title, empty, ranked))
}

// HandleDrops lists recent price drops.
func (h *Handler) HandleDrops(ctx context.Context, chatID int64) {
	drops, err := h.drops.RecentDrops(ctx, listLimit, 10)
	if err != nil {
		log.WithError(err).Error("Failed to load price drops")
		common.SendText(h.bot, chatID, "❌ Could not load price drops")
		return
	}
	if len(drops) == 0 {
		common.SendText(h.bot, chatID, "📉 No price drops recently")
		return
	}

	lines := []string{"📉 Recent price drops:"}
	for _, d := range drops {
		lines = append(lines, "• "+d.Summary())
	}
	common.SendText(h.bot, chatID, strings.Join(lines, "\n"))
}

// HandleEstimate answers /estimate <ORIG> <DEST> [cabin].
func (h *Handler) HandleEstimate(ctx context.Context, chatID int64, args []string) {
	if len(args) < 2 {
		common.SendText(h.bot, chatID, "❌ Usage: /estimate <ORIG> <DEST> [cabin]")
		return
	}
	cabin := CabinBusiness
	if len(args) > 2 {
		c, err := ParseCabin(args[2])
		if err != nil {
			common.SendText(h.bot, chatID, "❌ Cabin must be economy, premium, business or first")
			return
		}
		cabin = c
	}
	common.SendText(h.bot, chatID, FormatEstimate(h.analyzer.EstimateRouteValue(args[0], args[1], cabin)))
}

// HandleDiscover answers /discover <ORIG> [cabin] [min cpp].
func (h *Handler) HandleDiscover(ctx context.Context, chatID int64, args []string) {
	if len(args) < 1 {
		common.SendText(h.bot, chatID, "❌ Usage: /discover <ORIG> [cabin] [min cpp]")
		return
	}
	cabin := CabinFirst
	minCPP := DefaultDiscoverMinCPP
	for _, arg := range args[1:] {
		if v, err := strconv.ParseFloat(arg, 64); err == nil && v >= 0 {
			minCPP = v
			continue
		}
		c, err := ParseCabin(arg)
		if err != nil {
			common.SendText(h.bot, chatID, "❌ Cabin must be economy, premium, business or first")
			return
		}
		cabin = c
	}
	found := h.analyzer.Discover(args[0], cabin, minCPP)
	common.SendText(h.bot, chatID, FormatDiscovery(args[0], cabin, minCPP, found))
}

// HandleBook answers /book <deal_id> with the deal and its booking link.
func (h *Handler) HandleBook(ctx context.Context, chatID int64, args []string) {
	if len(args) < 1 {
		common.SendText(h.bot, chatID, "❌ Usage: /book <deal id>")
		return
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(args[0], "#"), 10, 64)
	if err != nil || id <= 0 {
		common.SendText(h.bot, chatID, "❌ Deal id must be a number")
		return
	}

	deal, err := h.store.GetDeal(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrDealNotFound) {
			common.SendText(h.bot, chatID, fmt.Sprintf("❌ Deal #%d not found", id))
			return
		}
		log.WithError(err).WithField("deal_id", id).Error("Failed to load deal")
		common.SendText(h.bot, chatID, "❌ Could not load the deal")
		return
	}
	common.SendText(h.bot, chatID, FormatDealDetail(deal, h.alerts))
}
