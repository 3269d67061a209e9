// Package collectors fetches award availability and cash fares from the
// configured sources.
package collectors

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/pointsmaxxer/pointsmaxxer/internal/common"
	"github.com/pointsmaxxer/pointsmaxxer/internal/features/deals"
	"github.com/pointsmaxxer/pointsmaxxer/internal/metrics"
)

// Query is one award search.
type Query struct {
	Origin      string
	Destination string
	Date        time.Time
	// DateEnd is inclusive; zero means Date only.
	DateEnd  time.Time
	Cabin    deals.Cabin
	Programs []string
}

// Normalize uppercases airports and fills DateEnd.
func (q Query) Normalize() Query {
	q.Origin = common.NormalizeAirport(q.Origin)
	q.Destination = common.NormalizeAirport(q.Destination)
	if q.Cabin == "" {
		q.Cabin = deals.CabinBusiness
	}
	if q.DateEnd.IsZero() || q.DateEnd.Before(q.Date) {
		q.DateEnd = q.Date
	}
	return q
}

// Collector is a source of awards.
type Collector interface {
	Code() string
	SearchAwards(ctx context.Context, q Query) ([]*deals.Award, error)
}

// Registry holds collectors by code. Collection order is registration order.
type Registry struct {
	mu         sync.RWMutex
	collectors map[string]Collector
	order      []string
	limit      int
	metrics    *metrics.Metrics
}

// NewRegistry registers cs in order.
func NewRegistry(cs ...Collector) *Registry {
	r := &Registry{
		collectors: make(map[string]Collector),
		limit:      4,
	}
	for _, c := range cs {
		r.Register(c)
	}
	return r
}

// WithMetrics records collector latency and outcomes.
func (r *Registry) WithMetrics(m *metrics.Metrics) *Registry {
	r.metrics = m
	return r
}

// SetConcurrency bounds how many collectors run at once.
func (r *Registry) SetConcurrency(n int) {
	if n > 0 {
		r.limit = n
	}
}

// Register adds or replaces a collector.
func (r *Registry) Register(c Collector) {
	r.mu.Lock()
	defer r.mu.Unlock()

	code := c.Code()
	if _, ok := r.collectors[code]; !ok {
		r.order = append(r.order, code)
	}
	r.collectors[code] = c
}

// Get looks a collector up by code.
func (r *Registry) Get(code string) (Collector, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.collectors[code]
	if !ok {
		return nil, fmt.Errorf("%s: %w", code, common.ErrCollectorNotFound)
	}
	return c, nil
}

// Codes returns the registered codes sorted.
func (r *Registry) Codes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.order))
	copy(out, r.order)
	sort.Strings(out)
	return out
}

// Len is the number of registered collectors.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Result is the merged output of every collector.
type Result struct {
	Awards []*deals.Award
	Errors []string
}

// CollectAll runs every collector on q. A failing collector adds
// "<code>: <err>" to Errors and never stops the others.
func (r *Registry) CollectAll(ctx context.Context, q Query) Result {
	r.mu.RLock()
	list := make([]Collector, 0, len(r.order))
	for _, code := range r.order {
		list = append(list, r.collectors[code])
	}
	r.mu.RUnlock()

	q = q.Normalize()
	awards := make([][]*deals.Award, len(list))
	errs := make([]error, len(list))

	var g errgroup.Group
	g.SetLimit(r.limit)
	for i, c := range list {
		i, c := i, c
		g.Go(func() error {
			start := time.Now()
			found, err := c.SearchAwards(ctx, q)
			r.metrics.ObserveCollector(c.Code(), time.Since(start), err)
			if err != nil {
				errs[i] = err
				return nil
			}
			awards[i] = found
			return nil
		})
	}
	_ = g.Wait()

	var res Result
	seen := make(map[awardKey]bool)
	for i, c := range list {
		if errs[i] != nil {
			log.WithError(errs[i]).WithFields(log.Fields{
				"collector":   c.Code(),
				"origin":      q.Origin,
				"destination": q.Destination,
			}).Warn("Collector failed")
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", c.Code(), errs[i]))
			continue
		}
		for _, a := range awards[i] {
			k := keyOf(a)
			if seen[k] {
				continue
			}
			seen[k] = true
			res.Awards = append(res.Awards, a)
		}
	}
	return res
}

type awardKey struct {
	program   string
	flightNo  string
	departure int64
	cabin     deals.Cabin
	miles     int64
}

func keyOf(a *deals.Award) awardKey {
	return awardKey{
		program:   a.Program,
		flightNo:  a.Flight.FlightNo,
		departure: a.Flight.Departure.Unix(),
		cabin:     a.Cabin,
		miles:     a.Miles,
	}
}

// dates lists each day from q.Date to q.DateEnd inclusive.
func dates(q Query) []time.Time {
	start := truncateDay(q.Date)
	end := truncateDay(q.DateEnd)
	if end.Before(start) {
		end = start
	}
	var out []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
