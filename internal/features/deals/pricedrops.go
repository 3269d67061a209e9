package deals

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pointsmaxxer/pointsmaxxer/internal/common"
)

// PriceDrop is a fall in the miles price of the same route, program, cabin
// and departure day.
type PriceDrop struct {
	Origin        string
	Destination   string
	Program       string
	Cabin         Cabin
	DepartureDate time.Time
	OldMiles      int64
	NewMiles      int64
	DropAmount    int64
	DropPercent   float64
	IsSaverNow    bool
	DetectedAt    time.Time
	FlightNo      string
	AirlineName   string
}

// IsSignificant is true for drops of at least 10% or 5,000 miles.
func (p PriceDrop) IsSignificant() bool {
	return p.DropPercent >= 10 || p.DropAmount >= 5000
}

// IsMajor is true for drops of at least 25% or 15,000 miles.
func (p PriceDrop) IsMajor() bool {
	return p.DropPercent >= 25 || p.DropAmount >= 15000
}

// Summary renders "SFO→NRT on ANA: 110,000 → 85,000 miles (-25,000, 23% off)".
func (p PriceDrop) Summary() string {
	return fmt.Sprintf("%s→%s on %s: %s → %s miles (-%s, %.0f%% off)",
		p.Origin, p.Destination, strings.ToUpper(p.Program),
		common.FormatNumber(p.OldMiles), common.FormatNumber(p.NewMiles),
		common.FormatNumber(p.DropAmount), p.DropPercent)
}

// FormatPriceDrop renders a drop as a chat message.
func FormatPriceDrop(p PriceDrop) string {
	severity := "SIGNIFICANT"
	if p.IsMajor() {
		severity = "MAJOR"
	}
	saver := ""
	if p.IsSaverNow {
		saver = " [SAVER]"
	}
	return fmt.Sprintf("📉 PRICE DROP - %s%s\n%s\n%s, %s",
		severity, saver, p.Summary(), p.Cabin.Title(), p.DepartureDate.Format("Jan 02, 2006"))
}

// PriceDropDetector compares current award prices against history.
type PriceDropDetector struct {
	MinDropPercent float64
	MinDropMiles   int64
	LookbackDays   int
	now            func() time.Time
}

// NewPriceDropDetector returns a detector with the 10% / 5,000 mile
// thresholds and a 14 day lookback.
func NewPriceDropDetector() *PriceDropDetector {
	return &PriceDropDetector{
		MinDropPercent: 10,
		MinDropMiles:   5000,
		LookbackDays:   14,
		now:            time.Now,
	}
}

// DetectDrop returns a drop when historicalMiles is above the award's price
// and the fall meets either threshold.
func (d *PriceDropDetector) DetectDrop(award *Award, historicalMiles int64) *PriceDrop {
	if historicalMiles <= award.Miles {
		return nil
	}

	amount := historicalMiles - award.Miles
	percent := float64(amount) / float64(historicalMiles) * 100
	if percent < d.MinDropPercent && amount < d.MinDropMiles {
		return nil
	}

	return &PriceDrop{
		Origin:        award.Flight.Origin,
		Destination:   award.Flight.Destination,
		Program:       award.Program,
		Cabin:         award.Cabin,
		DepartureDate: award.Flight.Departure,
		OldMiles:      historicalMiles,
		NewMiles:      award.Miles,
		DropAmount:    amount,
		DropPercent:   percent,
		IsSaverNow:    award.IsSaver,
		DetectedAt:    d.now(),
		FlightNo:      award.Flight.FlightNo,
		AirlineName:   award.Flight.AirlineName,
	}
}

// HistoryKey identifies an award for DetectDropsBatch:
// origin:destination:program:cabin:YYYY-MM-DD.
func HistoryKey(a *Award) string {
	return fmt.Sprintf("%s:%s:%s:%s:%s",
		a.Flight.Origin, a.Flight.Destination, a.Program, a.Cabin, a.Flight.Departure.Format(time.DateOnly))
}

// DetectDropsBatch checks every award that has a history entry. Drops come
// back largest percentage first.
func (d *PriceDropDetector) DetectDropsBatch(awards []*Award, history map[string]int64) []PriceDrop {
	drops := make([]PriceDrop, 0)
	for _, a := range awards {
		old, ok := history[HistoryKey(a)]
		if !ok {
			continue
		}
		if drop := d.DetectDrop(a, old); drop != nil {
			drops = append(drops, *drop)
		}
	}
	sortDrops(drops)
	return drops
}

func sortDrops(drops []PriceDrop) {
	sort.SliceStable(drops, func(i, j int) bool {
		return drops[i].DropPercent > drops[j].DropPercent
	})
}

// HistoryStore reads past award prices. *Repository implements it.
type HistoryStore interface {
	MaxMilesSince(ctx context.Context, a *Award, since time.Time) (int64, bool, error)
	RecentDealPrices(ctx context.Context, limit int) ([]PricePoint, error)
}

// PricePoint is one observed deal price.
type PricePoint struct {
	Origin      string
	Destination string
	Program     string
	Cabin       Cabin
	Miles       int64
	SeenAt      time.Time
}

// PriceDropTracker runs the detector against stored history.
type PriceDropTracker struct {
	store    HistoryStore
	detector *PriceDropDetector
}

// NewPriceDropTracker creates a tracker with the default detector.
func NewPriceDropTracker(store HistoryStore) *PriceDropTracker {
	return &PriceDropTracker{store: store, detector: NewPriceDropDetector()}
}

// CheckForDrops compares each award against the highest price seen for the
// same route, program, cabin and departure day within the lookback window.
// Awards sharing a HistoryKey are looked up once.
func (t *PriceDropTracker) CheckForDrops(ctx context.Context, awards []*Award) ([]PriceDrop, error) {
	since := t.detector.now().AddDate(0, 0, -t.detector.LookbackDays)

	history := make(map[string]int64, len(awards))
	looked := make(map[string]bool, len(awards))
	for _, a := range awards {
		key := HistoryKey(a)
		if looked[key] {
			continue
		}
		looked[key] = true

		highest, ok, err := t.store.MaxMilesSince(ctx, a, since)
		if err != nil {
			return nil, fmt.Errorf("price history %s: %w", key, err)
		}
		if ok {
			history[key] = highest
		}
	}
	return t.detector.DetectDropsBatch(awards, history), nil
}

// RecentDrops looks at the last 500 stored deals and reports routes whose
// newest price is below the highest older price.
func (t *PriceDropTracker) RecentDrops(ctx context.Context, limit int, minPercent float64) ([]PriceDrop, error) {
	points, err := t.store.RecentDealPrices(ctx, 500)
	if err != nil {
		return nil, err
	}
	return DropsFromHistory(points, minPercent, limit), nil
}

// DropsFromHistory groups observations by route, program and cabin and
// compares the newest price with the highest earlier one.
func DropsFromHistory(points []PricePoint, minPercent float64, limit int) []PriceDrop {
	type routeKey struct {
		origin, destination, program string
		cabin                        Cabin
	}

	groups := make(map[routeKey][]PricePoint)
	var order []routeKey
	for _, p := range points {
		k := routeKey{p.Origin, p.Destination, p.Program, p.Cabin}
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], p)
	}

	drops := make([]PriceDrop, 0)
	for _, k := range order {
		prices := groups[k]
		if len(prices) < 2 {
			continue
		}
		sort.SliceStable(prices, func(i, j int) bool { return prices[i].SeenAt.After(prices[j].SeenAt) })

		current := prices[0]
		var maxOlder int64
		for _, p := range prices[1:] {
			if p.Miles > maxOlder {
				maxOlder = p.Miles
			}
		}
		if maxOlder <= current.Miles {
			continue
		}

		amount := maxOlder - current.Miles
		percent := float64(amount) / float64(maxOlder) * 100
		if percent < minPercent {
			continue
		}
		drops = append(drops, PriceDrop{
			Origin:        k.origin,
			Destination:   k.destination,
			Program:       k.program,
			Cabin:         k.cabin,
			DepartureDate: current.SeenAt,
			OldMiles:      maxOlder,
			NewMiles:      current.Miles,
			DropAmount:    amount,
			DropPercent:   percent,
			DetectedAt:    current.SeenAt,
		})
	}

	sortDrops(drops)
	if limit > 0 && len(drops) > limit {
		drops = drops[:limit]
	}
	return drops
}
