package collectors

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/pointsmaxxer/pointsmaxxer/internal/cache"
	"github.com/pointsmaxxer/pointsmaxxer/internal/common"
	"github.com/pointsmaxxer/pointsmaxxer/internal/features/deals"
)

// CashPriceSource prices the cash fare an award is compared against.
type CashPriceSource interface {
	Name() string
	CashPrice(ctx context.Context, origin, destination string, date time.Time, cabin deals.Cabin) (float64, error)
}

type regionKey struct {
	from, to string
	cabin    deals.Cabin
}

var fallbackFares = map[regionKey]float64{
	{"US", "US", deals.CabinEconomy}:    200,
	{"US", "US", deals.CabinBusiness}:   600,
	{"US", "US", deals.CabinFirst}:      1200,
	{"US", "EU", deals.CabinEconomy}:    600,
	{"US", "EU", deals.CabinBusiness}:   4000,
	{"US", "EU", deals.CabinFirst}:      8000,
	{"US", "ASIA", deals.CabinEconomy}:  800,
	{"US", "ASIA", deals.CabinBusiness}: 6000,
	{"US", "ASIA", deals.CabinFirst}:    12000,
}

var defaultFares = map[deals.Cabin]float64{
	deals.CabinEconomy:        500,
	deals.CabinPremiumEconomy: 1200,
	deals.CabinBusiness:       4000,
	deals.CabinFirst:          10000,
}

var fallbackRegions = func() map[string]string {
	m := make(map[string]string)
	for region, codes := range map[string][]string{
		"US":   {"SFO", "LAX", "JFK", "ORD", "DFW", "SEA", "MIA", "BOS", "ATL", "DEN"},
		"EU":   {"LHR", "CDG", "FRA", "AMS", "FCO", "MAD", "MUC", "BCN", "DUB", "ZRH"},
		"ASIA": {"NRT", "HND", "HKG", "SIN", "ICN", "PVG", "BKK", "TPE", "KUL", "MNL"},
	} {
		for _, c := range codes {
			m[c] = region
		}
	}
	return m
}()

// FallbackPrices estimates fares from a region table.
type FallbackPrices struct{}

func (FallbackPrices) Name() string { return "fallback" }

func (FallbackPrices) CashPrice(_ context.Context, origin, destination string, _ time.Time, cabin deals.Cabin) (float64, error) {
	return FallbackFare(origin, destination, cabin), nil
}

// FallbackFare looks the route up in both directions, then falls back to a
// per-cabin default.
func FallbackFare(origin, destination string, cabin deals.Cabin) float64 {
	from := fallbackRegions[common.NormalizeAirport(origin)]
	to := fallbackRegions[common.NormalizeAirport(destination)]

	if p, ok := fallbackFares[regionKey{from, to, cabin}]; ok {
		return p
	}
	if p, ok := fallbackFares[regionKey{to, from, cabin}]; ok {
		return p
	}
	if p, ok := defaultFares[cabin]; ok {
		return p
	}
	return 1000
}

var demoFares = map[RouteType]map[deals.Cabin]float64{
	RouteDomestic:      {deals.CabinEconomy: 250, deals.CabinBusiness: 600, deals.CabinFirst: 1200},
	RouteHawaii:        {deals.CabinEconomy: 450, deals.CabinBusiness: 1200, deals.CabinFirst: 2500},
	RouteTransatlantic: {deals.CabinEconomy: 800, deals.CabinBusiness: 4500, deals.CabinFirst: 9000},
	RouteTranspacific:  {deals.CabinEconomy: 900, deals.CabinBusiness: 6000, deals.CabinFirst: 12000},
}

// DemoPrices pairs with DemoCollector: route-type fares with 0.8x to 1.3x
// variance.
type DemoPrices struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewDemoPrices(rng *rand.Rand) *DemoPrices {
	return &DemoPrices{rng: rng}
}

func (d *DemoPrices) Name() string { return "demo" }

func (d *DemoPrices) CashPrice(_ context.Context, origin, destination string, _ time.Time, cabin deals.Cabin) (float64, error) {
	route := ClassifyRoute(common.NormalizeAirport(origin), common.NormalizeAirport(destination))
	base, ok := demoFares[route][cabin]
	if !ok {
		base = 500
	}

	d.mu.Lock()
	factor := 0.8 + d.rng.Float64()*0.5
	d.mu.Unlock()

	return base * factor, nil
}

// Cache is the subset of *cache.RedisCache used for fares.
type Cache interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// CachedPrices memoizes another source. Cache failures fall through to it.
type CachedPrices struct {
	inner CashPriceSource
	cache Cache
	ttl   time.Duration
}

func NewCachedPrices(inner CashPriceSource, c Cache, ttl time.Duration) *CachedPrices {
	return &CachedPrices{inner: inner, cache: c, ttl: ttl}
}

func (c *CachedPrices) Name() string { return c.inner.Name() }

func cashKey(origin, destination string, date time.Time, cabin deals.Cabin) string {
	return fmt.Sprintf("cash:%s:%s:%s:%s",
		common.NormalizeAirport(origin), common.NormalizeAirport(destination), date.Format(time.DateOnly), cabin)
}

func (c *CachedPrices) CashPrice(ctx context.Context, origin, destination string, date time.Time, cabin deals.Cabin) (float64, error) {
	key := cashKey(origin, destination, date, cabin)

	var price float64
	err := c.cache.Get(ctx, key, &price)
	switch {
	case err == nil:
		return price, nil
	case !errors.Is(err, cache.ErrCacheMiss):
		log.WithError(err).WithField("key", key).Warn("Cash price cache read failed")
	}

	price, err = c.inner.CashPrice(ctx, origin, destination, date, cabin)
	if err != nil {
		return 0, err
	}
	if err := c.cache.Set(ctx, key, price, c.ttl); err != nil {
		log.WithError(err).WithField("key", key).Warn("Cash price cache write failed")
	}
	return price, nil
}
