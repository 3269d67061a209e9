// Package app is the composition root: it opens storage, builds the engine
// and wires the bot, scanner and scheduler together.
package app

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"github.com/pointsmaxxer/pointsmaxxer/internal/bot"
	"github.com/pointsmaxxer/pointsmaxxer/internal/bot/filters"
	"github.com/pointsmaxxer/pointsmaxxer/internal/cache"
	"github.com/pointsmaxxer/pointsmaxxer/internal/config"
	"github.com/pointsmaxxer/pointsmaxxer/internal/db/postgres"
	"github.com/pointsmaxxer/pointsmaxxer/internal/features/collectors"
	"github.com/pointsmaxxer/pointsmaxxer/internal/features/deals"
	"github.com/pointsmaxxer/pointsmaxxer/internal/features/owner"
	"github.com/pointsmaxxer/pointsmaxxer/internal/features/portfolio"
	"github.com/pointsmaxxer/pointsmaxxer/internal/features/scanner"
	"github.com/pointsmaxxer/pointsmaxxer/internal/features/subscribers"
	"github.com/pointsmaxxer/pointsmaxxer/internal/jobs"
	"github.com/pointsmaxxer/pointsmaxxer/internal/metrics"
)

// Core is the engine backed by PostgreSQL and, optionally, Redis.
type Core struct {
	Config    *config.Config
	Engine    *Engine
	DB        *pgxpool.Pool
	Cache     *cache.RedisCache
	Metrics   *metrics.Metrics
	Portfolio *portfolio.Service
	Deals     *deals.Repository
	Drops     *deals.PriceDropTracker
}

// Open connects storage, applies migrations and loads the portfolio.
func Open(ctx context.Context, cfg *config.Config, file *config.File) (*Core, error) {
	m := metrics.New()

	// === 1. Database ===
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	// === 2. Cash fare cache ===
	var (
		redisCache *cache.RedisCache
		prices     collectors.CashPriceSource
	)
	if cfg.RedisEnabled {
		redisCache, err = cache.NewRedisCache(cache.RedisConfig{
			Host:      cfg.RedisHost,
			Port:      cfg.RedisPort,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: "pointsmaxxer:",
		})
		if err != nil {
			log.WithError(err).Warn("Redis unavailable, cash fares will not be cached")
		} else {
			ttl := time.Duration(file.Settings.CacheTTLHours) * time.Hour
			prices = collectors.NewCachedPrices(defaultPrices(cfg), redisCache, ttl)
		}
	}

	// === 3. Engine ===
	engine, err := NewEngine(cfg, file, m, prices)
	if err != nil {
		pool.Close()
		return nil, err
	}

	// === 4. Repositories ===
	portfolioService := portfolio.NewService(portfolio.NewRepository(pool), engine.Portfolio)
	if err := portfolioService.Load(ctx, SeedPrograms(file)); err != nil {
		pool.Close()
		return nil, fmt.Errorf("load portfolio: %w", err)
	}
	m.SetPortfolioPoints(engine.Portfolio.TotalPoints())

	dealsRepo := deals.NewRepository(pool)

	return &Core{
		Config:    cfg,
		Engine:    engine,
		DB:        pool,
		Cache:     redisCache,
		Metrics:   m,
		Portfolio: portfolioService,
		Deals:     dealsRepo,
		Drops:     deals.NewPriceDropTracker(dealsRepo),
	}, nil
}

// Scanner builds a persisting scanner that reports through notifier.
func (c *Core) Scanner(notifier scanner.Notifier) *scanner.Scanner {
	return c.Engine.NewScanner(c.Deals, c.Drops, notifier, c.Metrics)
}

func (c *Core) Close() {
	if c.Cache != nil {
		if err := c.Cache.Close(); err != nil {
			log.WithError(err).Warn("Closing Redis")
		}
	}
	c.DB.Close()
}

// App is the long-running daemon: bot, scheduled scans and metrics.
type App struct {
	*Core
	Bot       *bot.Bot
	BotAPI    *tgbotapi.BotAPI
	Scanner   *scanner.Scanner
	Scheduler *jobs.Scheduler
}

// New builds the daemon. cfg must pass ValidateDaemon.
func New(ctx context.Context, cfg *config.Config, file *config.File) (*App, error) {
	core, err := Open(ctx, cfg, file)
	if err != nil {
		return nil, err
	}

	// === 5. Telegram Bot API ===
	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		core.Close()
		return nil, fmt.Errorf("create Telegram API: %w", err)
	}
	botAPI.Debug = cfg.AppEnv == "development" && cfg.AppLogLevel == "trace"
	log.Infof("Authorized as @%s", botAPI.Self.UserName)

	// === 6. Services ===
	subscriberService := subscribers.NewService(subscribers.NewRepository(core.DB))
	ownerService := owner.NewService(owner.NewRepository(core.DB), cfg.OwnerIDs, cfg.OwnerPasswordHash)

	notifier := subscribers.NewNotifier(subscriberService, botAPI, core.Engine.Alerts, subscribers.Channels{
		Terminal:   file.Alerts.Terminal,
		Telegram:   file.Alerts.Telegram,
		PriceDrops: file.Alerts.PriceDrops,
	})
	scan := core.Scanner(notifier)

	// === 7. Handlers ===
	handlers := bot.Handlers{
		Portfolio:   portfolio.NewHandler(core.Portfolio, botAPI),
		Deals:       deals.NewHandler(core.Deals, core.Engine.Analyzer, core.Engine.Alerts, core.Drops, botAPI),
		Scanner:     scanner.NewHandler(scan, botAPI),
		Subscribers: subscribers.NewHandler(subscriberService, botAPI),
		Owner:       owner.NewHandler(ownerService, botAPI),
	}

	// === 8. Filters and bot ===
	chatFilter := filters.NewChatFilter(cfg.HomeChatID, subscriberService, botAPI, ownerService.IsOwner)
	b := bot.New(botAPI, cfg, handlers, ownerService, core.Portfolio, chatFilter, core.Metrics)

	// === 9. Scheduler ===
	scheduler := jobs.NewScheduler(scan, cfg.AppTimezone, file.Settings.ScanFrequency)

	return &App{
		Core:      core,
		Bot:       b,
		BotAPI:    botAPI,
		Scanner:   scan,
		Scheduler: scheduler,
	}, nil
}
