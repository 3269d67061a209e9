package app

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/pointsmaxxer/pointsmaxxer/internal/config"
	"github.com/pointsmaxxer/pointsmaxxer/internal/features/collectors"
	"github.com/pointsmaxxer/pointsmaxxer/internal/features/deals"
	"github.com/pointsmaxxer/pointsmaxxer/internal/features/portfolio"
	"github.com/pointsmaxxer/pointsmaxxer/internal/features/scanner"
	"github.com/pointsmaxxer/pointsmaxxer/internal/metrics"
)

// Engine is everything that works without a database or Telegram: the
// portfolio, the analyzer and the collectors. The CLI uses it directly.
type Engine struct {
	File      *config.File
	Portfolio *portfolio.Manager
	Analyzer  *deals.Analyzer
	Alerts    *deals.AlertManager
	Registry  *collectors.Registry
	Prices    collectors.CashPriceSource
}

// NewEngine builds the engine from env settings and the YAML file. prices
// may be nil to pick the default source.
func NewEngine(cfg *config.Config, file *config.File, m *metrics.Metrics, prices collectors.CashPriceSource) (*Engine, error) {
	graph, err := BuildGraph(file)
	if err != nil {
		return nil, err
	}
	manager := portfolio.NewManager(SeedPrograms(file), graph, portfolio.Options{
		Valuations: BuildValuations(file),
		MaxHops:    file.Settings.MaxTransferHops,
	})

	registry, err := BuildRegistry(cfg, file, m)
	if err != nil {
		return nil, err
	}
	if prices == nil {
		prices = defaultPrices(cfg)
	}

	w := file.Settings.Ranking
	analyzer := deals.NewAnalyzer(manager, deals.Settings{
		UnicornThreshold: file.Settings.UnicornThresholdCPP,
		Weights: deals.RankingWeights{
			CPP:          w.CPP,
			Savings:      w.Savings,
			Saver:        w.Saver,
			Availability: w.Availability,
		},
	})

	return &Engine{
		File:      file,
		Portfolio: manager,
		Analyzer:  analyzer,
		Alerts:    deals.NewAlertManager(manager.ProgramName),
		Registry:  registry,
		Prices:    prices,
	}, nil
}

// NewScanner builds a scanner over the engine. store, drops and notifier
// may be nil.
func (e *Engine) NewScanner(store scanner.Store, drops *deals.PriceDropTracker, notifier scanner.Notifier, m *metrics.Metrics) *scanner.Scanner {
	s := e.File.Settings
	return scanner.New(scanner.Deps{
		Registry: e.Registry,
		Prices:   e.Prices,
		Analyzer: e.Analyzer,
		Alerts:   e.Alerts,
		Drops:    drops,
		Store:    store,
		Notifier: notifier,
		Metrics:  m,
	}, scanner.Options{
		Routes:       BuildRoutes(e.File),
		FlexibleDays: s.FlexibleDays,
		MaxStops:     s.MaxStops,
		RouteDelay:   time.Duration(s.RequestDelaySeconds * float64(time.Second)),
	})
}

// BuildGraph uses the file's transfer table, or the built-in partners when
// the table is empty.
func BuildGraph(file *config.File) (*portfolio.Graph, error) {
	if len(file.Transfers) == 0 {
		return portfolio.DefaultGraph(), nil
	}
	rules := make([]portfolio.TransferRule, 0, len(file.Transfers))
	for _, t := range file.Transfers {
		rule := portfolio.TransferRule{Source: t.Source}
		for _, p := range t.Partners {
			rule.Partners = append(rule.Partners, portfolio.PartnerRatio{Partner: p.Partner, Ratio: p.Ratio})
		}
		rules = append(rules, rule)
	}
	g, err := portfolio.NewGraph(rules)
	if err != nil {
		return nil, fmt.Errorf("transfers: %w", err)
	}
	return g, nil
}

// BuildValuations overlays the file's valuations on the defaults.
func BuildValuations(file *config.File) map[string]float64 {
	out := portfolio.DefaultValuations()
	for code, cpp := range file.Valuations {
		if cpp > 0 {
			out[strings.ToLower(code)] = cpp
		}
	}
	return out
}

// SeedPrograms converts the file's portfolio section.
func SeedPrograms(file *config.File) []portfolio.Program {
	out := make([]portfolio.Program, 0, len(file.Portfolio))
	for _, p := range file.Portfolio {
		out = append(out, portfolio.Program{
			Code:          p.Code,
			Name:          p.Name,
			Balance:       p.Balance,
			TransferRatio: p.TransferRatio,
		})
	}
	return out
}

// BuildRoutes converts the file's routes. Unknown cabins fall back to
// economy with a warning.
func BuildRoutes(file *config.File) []scanner.Route {
	out := make([]scanner.Route, 0, len(file.Routes))
	for _, r := range file.Routes {
		cabin, err := deals.ParseCabin(r.Cabin)
		if err != nil {
			log.WithError(err).WithField("route", r.Origin+"-"+r.Destination).Warn("Unknown cabin, using economy")
			cabin = deals.CabinEconomy
		}
		out = append(out, scanner.Route{
			Origin:        strings.ToUpper(strings.TrimSpace(r.Origin)),
			Destination:   strings.ToUpper(strings.TrimSpace(r.Destination)),
			Cabin:         cabin,
			FlexibleDates: r.FlexibleDates,
		})
	}
	return out
}

// SeatsAeroKey prefers SEATS_AERO_API_KEY over settings.seats_aero_api_key.
func SeatsAeroKey(cfg *config.Config, file *config.File) string {
	if cfg.SeatsAeroAPIKey != "" {
		return cfg.SeatsAeroAPIKey
	}
	return file.Settings.SeatsAeroAPIKey
}

// BuildRegistry registers the enabled collectors. It fails when none is.
func BuildRegistry(cfg *config.Config, file *config.File, m *metrics.Metrics) (*collectors.Registry, error) {
	reg := collectors.NewRegistry().WithMetrics(m)
	reg.SetConcurrency(cfg.CollectorConcurrency)

	if key := SeatsAeroKey(cfg, file); cfg.FeatureSeatsAero && key != "" {
		reg.Register(collectors.NewSeatsAeroCollector(collectors.SeatsAeroConfig{
			APIKey:  key,
			BaseURL: cfg.SeatsAeroBaseURL,
		}))
	}
	if cfg.FeatureDemoCollector {
		reg.Register(collectors.NewDemoCollector(newRand(cfg.DemoSeed)))
	}

	if reg.Len() == 0 {
		return nil, fmt.Errorf("no award collectors enabled: set SEATS_AERO_API_KEY or FEATURE_DEMO_COLLECTOR=true")
	}
	log.WithField("collectors", reg.Codes()).Info("Award collectors registered")
	return reg, nil
}

// defaultPrices is the demo fare generator next to the demo collector and
// the static regional table otherwise.
func defaultPrices(cfg *config.Config) collectors.CashPriceSource {
	if cfg.FeatureDemoCollector {
		return collectors.NewDemoPrices(newRand(cfg.DemoSeed))
	}
	return collectors.FallbackPrices{}
}

func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}
