package collectors

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/pointsmaxxer/pointsmaxxer/internal/features/deals"
)

// RouteType classifies a route for the demo charts.
type RouteType string

const (
	RouteDomestic      RouteType = "domestic"
	RouteHawaii        RouteType = "hawaii"
	RouteTransatlantic RouteType = "transatlantic"
	RouteTranspacific  RouteType = "transpacific"
)

var (
	usAirports     = airportSet("JFK", "LAX", "SFO", "ORD", "DFW", "MIA", "SEA", "BOS", "ATL", "DEN", "IAH", "PHX", "EWR", "LGA", "DCA", "IAD")
	hawaiiAirports = airportSet("HNL", "OGG", "LIH", "KOA")
	europeAirports = airportSet("LHR", "CDG", "FRA", "AMS", "FCO", "MAD", "MUC", "BCN", "DUB", "ZRH", "VIE", "CPH")
	asiaAirports   = airportSet("NRT", "HND", "HKG", "SIN", "ICN", "PVG", "BKK", "TPE", "KUL", "MNL", "DEL", "BOM")
)

func airportSet(codes ...string) map[string]bool {
	m := make(map[string]bool, len(codes))
	for _, c := range codes {
		m[c] = true
	}
	return m
}

func connects(a, b string, x, y map[string]bool) bool {
	return (x[a] && y[b]) || (y[a] && x[b])
}

// ClassifyRoute picks the route type; anything unrecognised is domestic.
func ClassifyRoute(origin, destination string) RouteType {
	switch {
	case connects(origin, destination, usAirports, hawaiiAirports):
		return RouteHawaii
	case connects(origin, destination, usAirports, europeAirports):
		return RouteTransatlantic
	case connects(origin, destination, usAirports, asiaAirports):
		return RouteTranspacific
	default:
		return RouteDomestic
	}
}

type chartPrice struct {
	miles   int64
	program string
}

var awardCharts = map[RouteType]map[deals.Cabin][]chartPrice{
	RouteDomestic: {
		deals.CabinEconomy:  {{12500, "aa"}, {15000, "united"}, {10000, "delta"}},
		deals.CabinBusiness: {{25000, "aa"}, {30000, "united"}, {25000, "delta"}},
		deals.CabinFirst:    {{50000, "aa"}, {50000, "united"}, {50000, "delta"}},
	},
	RouteHawaii: {
		deals.CabinEconomy:  {{22500, "aa"}, {22500, "united"}, {20000, "delta"}, {25000, "alaska"}},
		deals.CabinBusiness: {{45000, "aa"}, {45000, "united"}, {40000, "delta"}, {50000, "alaska"}},
		deals.CabinFirst:    {{80000, "aa"}, {80000, "united"}, {70000, "delta"}, {70000, "alaska"}},
	},
	RouteTransatlantic: {
		deals.CabinEconomy:  {{30000, "aeroplan"}, {35000, "united"}, {40000, "delta"}, {26000, "ba_avios"}},
		deals.CabinBusiness: {{70000, "aeroplan"}, {88000, "united"}, {85000, "delta"}, {60000, "ba_avios"}},
		deals.CabinFirst:    {{100000, "aeroplan"}, {120000, "united"}, {120000, "delta"}, {85000, "ba_avios"}},
	},
	RouteTranspacific: {
		deals.CabinEconomy:  {{35000, "aeroplan"}, {40000, "united"}, {45000, "delta"}, {35000, "alaska"}},
		deals.CabinBusiness: {{75000, "aeroplan"}, {85000, "ana"}, {88000, "united"}, {70000, "alaska"}},
		deals.CabinFirst:    {{110000, "aeroplan"}, {110000, "ana"}, {120000, "united"}, {70000, "alaska"}},
	},
}

type airlineInfo struct {
	code     string
	name     string
	aircraft []string
	// fee range in dollars
	feeMin, feeMax float64
}

var demoAirlines = map[string]airlineInfo{
	"aa":       {"AA", "American Airlines", []string{"737", "777", "787"}, 5, 50},
	"united":   {"UA", "United Airlines", []string{"737", "777", "787", "A350"}, 5, 50},
	"delta":    {"DL", "Delta Air Lines", []string{"737", "767", "A330", "A350"}, 5, 50},
	"alaska":   {"AS", "Alaska Airlines", []string{"737", "E175"}, 5, 50},
	"aeroplan": {"AC", "Air Canada", []string{"737", "777", "787", "A330"}, 50, 200},
	"ana":      {"NH", "ANA", []string{"777", "787", "A380"}, 50, 150},
	"ba_avios": {"BA", "British Airways", []string{"777", "787", "A380", "A350"}, 200, 600},
}

var demoProgramNames = map[string]string{
	"aa":       "American AAdvantage",
	"united":   "United MileagePlus",
	"delta":    "Delta SkyMiles",
	"alaska":   "Alaska Mileage Plan",
	"aeroplan": "Air Canada Aeroplan",
	"ana":      "ANA Mileage Club",
	"ba_avios": "British Airways Avios",
}

var durationRanges = map[RouteType][2]int{
	RouteDomestic:      {120, 300},
	RouteHawaii:        {300, 420},
	RouteTransatlantic: {420, 600},
	RouteTranspacific:  {600, 900},
}

// DemoCollector produces plausible awards from fixed charts. Output is
// reproducible for a given seed.
type DemoCollector struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// NewDemoCollector uses rng for every random choice.
func NewDemoCollector(rng *rand.Rand) *DemoCollector {
	return &DemoCollector{rng: rng, now: time.Now}
}

func (d *DemoCollector) Code() string { return "demo" }

// SearchAwards returns about 70% of the chart entries for each day.
func (d *DemoCollector) SearchAwards(ctx context.Context, q Query) ([]*deals.Award, error) {
	q = q.Normalize()
	route := ClassifyRoute(q.Origin, q.Destination)
	chart := awardCharts[route][q.Cabin]

	d.mu.Lock()
	defer d.mu.Unlock()

	var out []*deals.Award
	for _, day := range dates(q) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, entry := range chart {
			if len(q.Programs) > 0 && !contains(q.Programs, entry.program) {
				continue
			}
			if d.rng.Float64() >= 0.7 {
				continue
			}
			a, err := d.award(q, route, day, entry)
			if err != nil {
				return nil, err
			}
			out = append(out, a)
		}
	}
	return out, nil
}

func (d *DemoCollector) award(q Query, route RouteType, day time.Time, entry chartPrice) (*deals.Award, error) {
	info, ok := demoAirlines[entry.program]
	if !ok {
		info = airlineInfo{"XX", "Demo Airline", []string{"737"}, 50, 50}
	}

	span := durationRanges[route]
	duration := span[0] + d.rng.Intn(span[1]-span[0]+1)
	departure := time.Date(day.Year(), day.Month(), day.Day(),
		6+d.rng.Intn(17), 15*d.rng.Intn(4), 0, 0, day.Location())

	fees := info.feeMin + d.rng.Float64()*(info.feeMax-info.feeMin)
	saver := d.rng.Float64() < 0.4

	cabin := q.Cabin
	premium := cabin == deals.CabinBusiness || cabin == deals.CabinFirst
	longHaul := route == RouteTransatlantic || route == RouteTranspacific

	stops := 1
	if d.rng.Float64() < 0.6 {
		stops = 0
	}
	bookingClass := "Z"
	if saver {
		bookingClass = "I"
	}

	return deals.NewAward(deals.AwardParams{
		Flight: deals.Flight{
			FlightNo:        fmt.Sprintf("%s%d", info.code, 100+d.rng.Intn(900)),
			AirlineCode:     info.code,
			AirlineName:     info.name,
			Origin:          q.Origin,
			Destination:     q.Destination,
			Departure:       departure,
			Arrival:         departure.Add(time.Duration(duration) * time.Minute),
			DurationMinutes: duration,
			Aircraft:        info.aircraft[d.rng.Intn(len(info.aircraft))],
			Stops:           stops,
			Amenities: deals.Amenities{
				WiFi:              d.rng.Float64() < 0.8,
				LieFlat:           premium,
				DirectAisleAccess: cabin == deals.CabinFirst || (cabin == deals.CabinBusiness && d.rng.Float64() < 0.7),
				LoungeAccess:      premium,
				MealService:       cabin != deals.CabinEconomy || longHaul,
				Entertainment:     true,
			},
		},
		Program:        entry.program,
		ProgramName:    demoProgramNames[entry.program],
		Miles:          entry.miles,
		CashFees:       math.Round(fees*100) / 100,
		Cabin:          cabin,
		BookingClass:   bookingClass,
		IsSaver:        saver,
		SeatsAvailable: 1 + d.rng.Intn(4),
		Source:         "demo",
		ScrapedAt:      d.now(),
	})
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
