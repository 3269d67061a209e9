// Package bot runs Telegram long polling and routes commands to the
// feature handlers.
package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"github.com/pointsmaxxer/pointsmaxxer/internal/bot/filters"
	"github.com/pointsmaxxer/pointsmaxxer/internal/bot/middleware"
	"github.com/pointsmaxxer/pointsmaxxer/internal/common"
	"github.com/pointsmaxxer/pointsmaxxer/internal/config"
	"github.com/pointsmaxxer/pointsmaxxer/internal/features/deals"
	"github.com/pointsmaxxer/pointsmaxxer/internal/features/owner"
	"github.com/pointsmaxxer/pointsmaxxer/internal/features/portfolio"
	"github.com/pointsmaxxer/pointsmaxxer/internal/features/scanner"
	"github.com/pointsmaxxer/pointsmaxxer/internal/features/subscribers"
	"github.com/pointsmaxxer/pointsmaxxer/internal/metrics"
)

// Handlers are the feature handlers the router dispatches to.
type Handlers struct {
	Portfolio   *portfolio.Handler
	Deals       *deals.Handler
	Scanner     *scanner.Handler
	Subscribers *subscribers.Handler
	Owner       *owner.Handler
}

type Bot struct {
	api    *tgbotapi.BotAPI
	sender common.Sender
	cfg    *config.Config

	chatFilter  *filters.ChatFilter
	rateLimiter *middleware.RateLimiter
	parser      *CommandParser

	handlers  Handlers
	owners    *owner.Service
	portfolio *portfolio.Service
	metrics   *metrics.Metrics

	// bounds concurrent update handling
	inflight chan struct{}
}

func New(
	api *tgbotapi.BotAPI,
	cfg *config.Config,
	handlers Handlers,
	owners *owner.Service,
	portfolioService *portfolio.Service,
	chatFilter *filters.ChatFilter,
	m *metrics.Metrics,
) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 16
	}

	return &Bot{
		api:         api,
		sender:      api,
		cfg:         cfg,
		chatFilter:  chatFilter,
		rateLimiter: middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		parser:      NewCommandParser(),
		handlers:    handlers,
		owners:      owners,
		portfolio:   portfolioService,
		metrics:     m,
		inflight:    make(chan struct{}, maxInFlight),
	}
}

// Start polls for updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) {
	defer b.rateLimiter.Close()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.BotUpdateTimeoutSeconds

	updates := b.api.GetUpdatesChan(u)

	log.WithFields(log.Fields{
		"bot":          b.api.Self.UserName,
		"max_inflight": cap(b.inflight),
		"timeout_sec":  b.cfg.BotUpdateTimeoutSeconds,
	}).Info("Bot is polling for updates")

	for {
		select {
		case <-ctx.Done():
			log.Info("Bot stopping (ctx done)")
			b.api.StopReceivingUpdates()
			return

		case update, ok := <-updates:
			if !ok {
				log.Info("Updates channel closed, bot stopped")
				return
			}

			b.inflight <- struct{}{}
			go func(upd tgbotapi.Update) {
				defer func() { <-b.inflight }()
				b.handleUpdate(ctx, upd)
			}(update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer middleware.RecoverFromPanic(update.UpdateID)

	message := update.Message
	if message == nil || message.Text == "" || message.From == nil || message.Chat == nil {
		return
	}

	cmd, args, isCommand := b.parser.ParseCommand(message.Text)
	private := message.Chat.IsPrivate()
	redact := (isCommand && cmd == "login") ||
		(private && !isCommand && b.owners.GetState(message.From.ID) != nil)
	middleware.LogMessage(message, redact)

	if !b.chatFilter.CheckAccess(ctx, message) {
		return
	}
	if !b.rateLimiter.Allow(message.From.ID) {
		log.WithField("user_id", message.From.ID).Debug("rate limited")
		return
	}

	if !isCommand {
		if private {
			b.handlers.Owner.HandleDialog(ctx, message.Chat.ID, message.From.ID, message.Text)
		}
		return
	}

	log.WithFields(log.Fields{
		"cmd":  cmd,
		"args": len(args),
	}).Debug("routing command")
	if b.routeCommand(ctx, message, cmd, args) {
		b.metrics.CommandRouted(cmd)
	}
}

// routeCommand dispatches a parsed command and reports whether it was known.
func (b *Bot) routeCommand(ctx context.Context, message *tgbotapi.Message, cmd string, args []string) bool {
	chatID := message.Chat.ID
	userID := message.From.ID
	h := b.handlers

	switch cmd {
	case "start", "help":
		common.SendText(b.sender, chatID, helpText)

	case "portfolio":
		h.Portfolio.HandlePortfolio(ctx, chatID)
	case "paths":
		h.Portfolio.HandlePaths(ctx, chatID, args)

	case "search":
		h.Scanner.HandleSearch(ctx, chatID, args)
	case "compare":
		h.Scanner.HandleCompare(ctx, chatID, args)
	case "deals":
		h.Deals.HandleDeals(ctx, chatID, args)
	case "unicorns":
		h.Deals.HandleUnicorns(ctx, chatID)
	case "drops":
		h.Deals.HandleDrops(ctx, chatID)
	case "estimate":
		h.Deals.HandleEstimate(ctx, chatID, args)
	case "discover":
		h.Deals.HandleDiscover(ctx, chatID, args)
	case "book":
		h.Deals.HandleBook(ctx, chatID, args)

	case "subscribe":
		h.Subscribers.HandleSubscribe(ctx, chatID, subscribers.Subscriber{
			UserID:    userID,
			Username:  message.From.UserName,
			FirstName: message.From.FirstName,
		})
	case "unsubscribe":
		h.Subscribers.HandleUnsubscribe(ctx, chatID, userID)

	case "login":
		h.Owner.HandleLogin(ctx, chatID, userID, args)
	case "logout":
		h.Owner.HandleLogout(ctx, chatID, userID)

	case "setbalance", "addprogram", "removeprogram":
		if !h.Owner.RequireOwner(ctx, chatID, userID) {
			return true
		}
		switch cmd {
		case "setbalance":
			h.Portfolio.HandleSetBalance(ctx, chatID, args)
		case "addprogram":
			h.Portfolio.HandleAddProgram(ctx, chatID, args)
		case "removeprogram":
			h.Portfolio.HandleRemoveProgram(ctx, chatID, args)
		}
		b.metrics.SetPortfolioPoints(b.portfolio.Manager().TotalPoints())

	case "scan":
		if h.Owner.RequireOwner(ctx, chatID, userID) {
			h.Scanner.HandleScan(ctx, chatID)
		}

	default:
		return false
	}
	return true
}

const helpText = `✈️ pointsmaxxer finds award flights worth more than your points.

/portfolio - balances, values and best uses
/paths <program> <miles> - how to reach a program from your balances
/search <ORIG> <DEST> [cabin] [YYYY-MM-DD] - live award search
/compare <ORIG> <DEST> [cabin] [YYYY-MM-DD] - programs side by side for one day
/deals [min=<cpp>] [max=<cpp>] [program=<code>] [cabin=<cabin>] [saver] [affordable] - latest deals
/unicorns - latest unicorn deals
/drops - recent award price drops
/estimate <ORIG> <DEST> [cabin] - typical cash fare and program prices
/discover <ORIG> [cabin] [min cpp] - destinations that usually price well
/book <deal_id> - booking link for a deal
/subscribe, /unsubscribe - unicorn alerts in private chat

Owner: /login, /logout, /setbalance <program> <balance>,
/addprogram <code> <balance> [name], /removeprogram <code>, /scan`
