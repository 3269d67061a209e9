// Package scanner runs the configured routes through the collectors and the
// valuation engine.
package scanner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/pointsmaxxer/pointsmaxxer/internal/common"
	"github.com/pointsmaxxer/pointsmaxxer/internal/features/collectors"
	"github.com/pointsmaxxer/pointsmaxxer/internal/features/deals"
	"github.com/pointsmaxxer/pointsmaxxer/internal/metrics"
)

// Route is one monitored origin/destination pair. Destination "*" means any
// destination and is not scanned yet.
type Route struct {
	Origin        string
	Destination   string
	Cabin         deals.Cabin
	FlexibleDates bool
}

func (r Route) IsWildcard() bool {
	return r.Destination == "*"
}

func (r Route) String() string {
	return fmt.Sprintf("%s-%s %s", r.Origin, r.Destination, r.Cabin)
}

// Store persists scan output. *deals.Repository satisfies it.
type Store interface {
	SaveDeal(ctx context.Context, d *deals.Deal) error
	SaveCashPrice(ctx context.Context, origin, destination string, date time.Time, cabin deals.Cabin, price float64, source string) error
	LogSearch(ctx context.Context, s deals.SearchLog) error
}

// Notifier receives unicorns and major price drops as they are found.
type Notifier interface {
	NotifyUnicorn(ctx context.Context, d *deals.Deal)
	NotifyPriceDrop(ctx context.Context, p deals.PriceDrop)
}

type Options struct {
	Routes       []Route
	FlexibleDays int
	MaxStops     int
	// RouteDelay spaces out consecutive routes in a scan.
	RouteDelay time.Duration
}

type Scanner struct {
	registry *collectors.Registry
	prices   collectors.CashPriceSource
	analyzer *deals.Analyzer
	alerts   *deals.AlertManager
	drops    *deals.PriceDropTracker
	store    Store
	notifier Notifier
	metrics  *metrics.Metrics
	opts     Options
	now      func() time.Time
}

// Deps groups the scanner's collaborators. Drops, Store, Notifier and
// Metrics may be nil.
type Deps struct {
	Registry *collectors.Registry
	Prices   collectors.CashPriceSource
	Analyzer *deals.Analyzer
	Alerts   *deals.AlertManager
	Drops    *deals.PriceDropTracker
	Store    Store
	Notifier Notifier
	Metrics  *metrics.Metrics
}

func New(d Deps, opts Options) *Scanner {
	prices := d.Prices
	if prices == nil {
		prices = collectors.FallbackPrices{}
	}
	return &Scanner{
		registry: d.Registry,
		prices:   prices,
		analyzer: d.Analyzer,
		alerts:   d.Alerts,
		drops:    d.Drops,
		store:    d.Store,
		notifier: d.Notifier,
		metrics:  d.Metrics,
		opts:     opts,
		now:      time.Now,
	}
}

// Routes returns the configured routes.
func (s *Scanner) Routes() []Route {
	out := make([]Route, len(s.opts.Routes))
	copy(out, s.opts.Routes)
	return out
}

// ScanResult summarises one ScanAllRoutes pass.
type ScanResult struct {
	ID            uuid.UUID
	StartedAt     time.Time
	Duration      time.Duration
	RoutesScanned int
	AwardsFound   int
	DealsFound    int
	UnicornsFound int
	Unicorns      []*deals.Deal
	PriceDrops    []deals.PriceDrop
	Errors        []string
}

// ScanAllRoutes scans every configured route once. Route failures are
// recorded in the result and never abort the pass.
func (s *Scanner) ScanAllRoutes(ctx context.Context) *ScanResult {
	res := &ScanResult{ID: uuid.New(), StartedAt: s.now()}
	logger := log.WithField("scan_id", res.ID)
	logger.WithField("routes", len(s.opts.Routes)).Info("Scan started")

	scanned := 0
	for _, route := range s.opts.Routes {
		if route.IsWildcard() {
			logger.WithField("route", route.String()).Warn("Skipping wildcard destination")
			continue
		}
		if scanned > 0 {
			s.pause(ctx)
		}
		if ctx.Err() != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("scan cancelled: %v", ctx.Err()))
			break
		}
		s.scanRoute(ctx, res, route)
		scanned++
	}

	res.Duration = s.now().Sub(res.StartedAt)
	s.metrics.ObserveScan(metrics.ScanStats{
		Duration:   res.Duration,
		Awards:     res.AwardsFound,
		Deals:      res.DealsFound,
		Unicorns:   res.UnicornsFound,
		PriceDrops: len(res.PriceDrops),
		Errors:     len(res.Errors),
	})

	logger.WithFields(log.Fields{
		"routes":   res.RoutesScanned,
		"awards":   res.AwardsFound,
		"deals":    res.DealsFound,
		"unicorns": res.UnicornsFound,
		"drops":    len(res.PriceDrops),
		"errors":   len(res.Errors),
		"duration": res.Duration.Round(time.Millisecond),
	}).Info("Scan finished")
	return res
}

func (s *Scanner) pause(ctx context.Context) {
	if s.opts.RouteDelay <= 0 {
		return
	}
	t := time.NewTimer(s.opts.RouteDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (s *Scanner) scanRoute(ctx context.Context, res *ScanResult, route Route) {
	started := s.now()
	q := s.routeQuery(route)
	logger := log.WithFields(log.Fields{"scan_id": res.ID, "route": route.String()})

	out := s.run(ctx, q)
	res.RoutesScanned++
	res.AwardsFound += out.awards
	res.DealsFound += len(out.deals)
	res.Errors = append(res.Errors, prefixed(route, out.errors)...)

	// Drops are measured against history before this pass is stored.
	if s.drops != nil && len(out.awardList) > 0 {
		drops, err := s.drops.CheckForDrops(ctx, out.awardList)
		if err != nil {
			logger.WithError(err).Warn("Price drop check failed")
			res.Errors = append(res.Errors, fmt.Sprintf("%s: price history: %v", route, err))
		}
		for _, d := range drops {
			res.PriceDrops = append(res.PriceDrops, d)
			if d.IsMajor() && s.notifier != nil {
				s.notifier.NotifyPriceDrop(ctx, d)
			}
		}
	}

	var unicorns int
	for _, d := range out.deals {
		if s.store != nil {
			if err := s.store.SaveDeal(ctx, d); err != nil {
				logger.WithError(err).Error("Failed to save deal")
				res.Errors = append(res.Errors, fmt.Sprintf("%s: save deal: %v", route, err))
			}
		}
	}
	if s.alerts != nil {
		for _, d := range s.alerts.PendingAlerts(out.deals) {
			unicorns++
			res.Unicorns = append(res.Unicorns, d)
			logger.WithFields(log.Fields{
				"program": d.Award.Program,
				"cpp":     fmt.Sprintf("%.2f", d.CPP),
			}).Info("Unicorn found")
			if s.notifier != nil {
				s.notifier.NotifyUnicorn(ctx, d)
			}
		}
	}
	res.UnicornsFound += unicorns

	if s.store != nil {
		for day, price := range out.cashPrices {
			if err := s.store.SaveCashPrice(ctx, q.Origin, q.Destination, day, q.Cabin, price, s.prices.Name()); err != nil {
				logger.WithError(err).Warn("Failed to log cash price")
			}
		}
		entry := deals.SearchLog{
			ScanID:        res.ID,
			Origin:        q.Origin,
			Destination:   q.Destination,
			Cabin:         q.Cabin,
			TravelDate:    q.Date,
			AwardsFound:   out.awards,
			DealsFound:    len(out.deals),
			UnicornsFound: unicorns,
			Errors:        out.errors,
			Duration:      s.now().Sub(started),
		}
		if err := s.store.LogSearch(ctx, entry); err != nil {
			logger.WithError(err).Warn("Failed to log search")
		}
	}

	logger.WithFields(log.Fields{
		"awards":   out.awards,
		"deals":    len(out.deals),
		"unicorns": unicorns,
	}).Debug("Route scanned")
}

// routeQuery searches today, or today through today+FlexibleDays for a
// flexible route.
func (s *Scanner) routeQuery(r Route) collectors.Query {
	today := s.now()
	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	end := today
	if r.FlexibleDates && s.opts.FlexibleDays > 0 {
		end = today.AddDate(0, 0, s.opts.FlexibleDays)
	}
	return collectors.Query{
		Origin:      r.Origin,
		Destination: r.Destination,
		Date:        today,
		DateEnd:     end,
		Cabin:       r.Cabin,
	}.Normalize()
}

type runOutput struct {
	awards     int
	awardList  []*deals.Award
	deals      []*deals.Deal
	cashPrices map[time.Time]float64
	errors     []string
}

// run collects awards for q and values each departure day's awards against
// that day's cash fare.
func (s *Scanner) run(ctx context.Context, q collectors.Query) runOutput {
	collected := s.registry.CollectAll(ctx, q)
	out := runOutput{
		cashPrices: make(map[time.Time]float64),
		errors:     collected.Errors,
	}

	var days []time.Time
	byDay := make(map[time.Time][]*deals.Award)
	for _, a := range collected.Awards {
		if s.opts.MaxStops > 0 && a.Flight.Stops > s.opts.MaxStops {
			continue
		}
		out.awards++
		out.awardList = append(out.awardList, a)

		day := dayOf(a.Flight.Departure, q.Date)
		if _, ok := byDay[day]; !ok {
			days = append(days, day)
		}
		byDay[day] = append(byDay[day], a)
	}

	for _, day := range days {
		price := s.cashPrice(ctx, q, day)
		out.cashPrices[day] = price

		analyzed, errs := s.analyzer.AnalyzeAll(byDay[day], price)
		out.deals = append(out.deals, analyzed...)
		for _, err := range errs {
			out.errors = append(out.errors, err.Error())
		}
	}
	return out
}

// cashPrice looks up the fare for day and falls back to the route estimate
// when the source fails or has nothing.
func (s *Scanner) cashPrice(ctx context.Context, q collectors.Query, day time.Time) float64 {
	price, err := s.prices.CashPrice(ctx, q.Origin, q.Destination, day, q.Cabin)
	if err != nil || price <= 0 {
		if err != nil {
			log.WithError(err).WithField("source", s.prices.Name()).Warn("Cash price lookup failed, using fallback")
		}
		price = collectors.FallbackFare(q.Origin, q.Destination, q.Cabin)
	}
	return price
}

// dayOf is midnight of t's calendar day in t's own location.
func dayOf(t, fallback time.Time) time.Time {
	if t.IsZero() {
		t = fallback
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func prefixed(r Route, errs []string) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = fmt.Sprintf("%s: %s", r, e)
	}
	return out
}

// SearchResult is the outcome of one ad-hoc search.
type SearchResult struct {
	Query      collectors.Query
	Awards     int
	Deals      []*deals.Deal
	CashPrices map[time.Time]float64
	Errors     []string
}

// Search runs one query and returns its deals ranked with the analyzer's
// weights. Deals are stored when a store is configured so they can be
// booked by ID.
func (s *Scanner) Search(ctx context.Context, q collectors.Query) (*SearchResult, error) {
	if q.Date.IsZero() {
		q.Date = s.now()
	}
	q = q.Normalize()
	if q.Origin == "" || q.Destination == "" {
		return nil, common.ErrMissingRoute
	}

	out := s.run(ctx, q)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if s.store != nil {
		for _, d := range out.deals {
			if err := s.store.SaveDeal(ctx, d); err != nil {
				log.WithError(err).WithField("program", d.Award.Program).Warn("Failed to save searched deal")
			}
		}
	}

	return &SearchResult{
		Query:      q,
		Awards:     out.awards,
		Deals:      deals.RankDeals(out.deals, s.analyzer.Weights()),
		CashPrices: out.cashPrices,
		Errors:     out.errors,
	}, nil
}

// CompareResult lines up every program offering the route on one day.
type CompareResult struct {
	Query     collectors.Query
	CashPrice float64
	Programs  []deals.ProgramComparison
	Best      *deals.Deal
	Errors    []string
}

// Compare searches q.Date only and compares the programs pricing the route
// that day. Nothing is stored.
func (s *Scanner) Compare(ctx context.Context, q collectors.Query) (*CompareResult, error) {
	if q.Date.IsZero() {
		q.Date = s.now()
	}
	q.DateEnd = time.Time{}
	q = q.Normalize()
	if q.Origin == "" || q.Destination == "" {
		return nil, common.ErrMissingRoute
	}

	out := s.run(ctx, q)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &CompareResult{Query: q, Errors: out.errors}
	want := q.Date.Format(time.DateOnly)
	var awards []*deals.Award
	for _, a := range out.awardList {
		if dayOf(a.Flight.Departure, q.Date).Format(time.DateOnly) == want {
			awards = append(awards, a)
		}
	}
	if len(awards) == 0 {
		return res, nil
	}
	res.CashPrice = out.cashPrices[dayOf(awards[0].Flight.Departure, q.Date)]

	rows, err := s.analyzer.ComparePrograms(awards, res.CashPrice)
	if err != nil {
		return nil, err
	}
	best, err := s.analyzer.FindBestProgramForRoute(awards, res.CashPrice)
	if err != nil {
		return nil, err
	}
	res.Programs = rows
	res.Best = best
	return res, nil
}
