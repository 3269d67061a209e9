package deals

import (
	"fmt"
	"sort"
	"time"

	"github.com/pointsmaxxer/pointsmaxxer/internal/common"
	"github.com/pointsmaxxer/pointsmaxxer/internal/features/portfolio"
)

// DefaultUnicornThreshold is the CPP at or above which a deal is a unicorn.
const DefaultUnicornThreshold = 7.0

// TransferResolver answers how the user's points reach a program.
// *portfolio.Manager implements it.
type TransferResolver interface {
	ProgramsThatTransferTo(target string) []string
	BestTransferPath(target string, milesNeeded int64) *portfolio.TransferPath
	ProgramName(code string) string
}

// Settings configures an Analyzer.
type Settings struct {
	UnicornThreshold float64
	Weights          RankingWeights
}

// Analyzer turns awards into deals. It only reads portfolio state.
type Analyzer struct {
	resolver  TransferResolver
	threshold float64
	weights   RankingWeights
	now       func() time.Time
}

// DefaultSettings is the default threshold with the default weights.
func DefaultSettings() Settings {
	return Settings{
		UnicornThreshold: DefaultUnicornThreshold,
		Weights:          DefaultRankingWeights(),
	}
}

// NewAnalyzer creates an analyzer. A non-positive threshold becomes
// DefaultUnicornThreshold; weights are used as given, zeros included.
func NewAnalyzer(resolver TransferResolver, s Settings) *Analyzer {
	threshold := s.UnicornThreshold
	if threshold <= 0 {
		threshold = DefaultUnicornThreshold
	}
	return &Analyzer{
		resolver:  resolver,
		threshold: threshold,
		weights:   s.Weights,
		now:       time.Now,
	}
}

// Threshold returns the unicorn threshold in use.
func (a *Analyzer) Threshold() float64 {
	return a.threshold
}

// Weights returns the ranking weights in use.
func (a *Analyzer) Weights() RankingWeights {
	return a.weights
}

// CalculateCPP returns cents of cash value per point, net of the award's
// cash fees. It is 0 when miles are not positive or the fees eat the whole
// cash fare.
func CalculateCPP(award *Award, cashPrice float64) float64 {
	if award == nil || award.Miles <= 0 {
		return 0
	}
	net := cashPrice - award.CashFees
	if net <= 0 {
		return 0
	}
	return net / float64(award.Miles) * 100
}

// IsUnicorn reports cpp >= threshold, inclusive.
func (a *Analyzer) IsUnicorn(cpp float64) bool {
	return cpp >= a.threshold
}

// AnalyzeAward values an award against a cash fare and attaches what the
// portfolio can do about it. Cost fields stay nil unless the best path is
// affordable.
func (a *Analyzer) AnalyzeAward(award *Award, cashPrice float64) (*Deal, error) {
	if award == nil {
		return nil, fmt.Errorf("analyze: %w", common.ErrInvalidMiles)
	}
	if err := award.Validate(); err != nil {
		return nil, err
	}
	if cashPrice <= 0 {
		return nil, fmt.Errorf("analyze %s %s: %w", award.Program, award.Flight.FlightNo, common.ErrInvalidCashPrice)
	}

	cpp := CalculateCPP(award, cashPrice)
	deal := &Deal{
		Award:            award,
		CashPrice:        cashPrice,
		CPP:              cpp,
		IsUnicorn:        a.IsUnicorn(cpp),
		TransferableFrom: a.resolver.ProgramsThatTransferTo(award.Program),
		CreatedAt:        a.now(),
	}

	if path := a.resolver.BestTransferPath(award.Program, award.Miles); path != nil && path.CanAfford() {
		cost := path.PointsNeeded
		source := path.SourceProgram
		deal.YourCost = &cost
		deal.YourSourceProgram = &source
	}

	return deal, nil
}

// AnalyzeAll values every award against the same fare. Invalid awards are
// skipped and reported in errs.
func (a *Analyzer) AnalyzeAll(awards []*Award, cashPrice float64) ([]*Deal, []error) {
	out := make([]*Deal, 0, len(awards))
	var errs []error
	for _, award := range awards {
		deal, err := a.AnalyzeAward(award, cashPrice)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, deal)
	}
	return out, errs
}

// FindBestProgramForRoute analyzes the same flight across programs and
// returns the top-ranked deal, nil when there are no awards.
func (a *Analyzer) FindBestProgramForRoute(awards []*Award, cashPrice float64) (*Deal, error) {
	if len(awards) == 0 {
		return nil, nil
	}
	deals := make([]*Deal, 0, len(awards))
	for _, award := range awards {
		deal, err := a.AnalyzeAward(award, cashPrice)
		if err != nil {
			return nil, err
		}
		deals = append(deals, deal)
	}
	ranked := RankDeals(deals, a.weights)
	return ranked[0], nil
}

// ProgramComparison is one row of ComparePrograms.
type ProgramComparison struct {
	Program        string
	ProgramName    string
	Miles          int64
	Fees           float64
	CPP            float64
	IsUnicorn      bool
	IsSaver        bool
	SeatsAvailable int
	HasPath        bool
	CanAfford      bool
	SourceProgram  string
	SourceName     string
	PointsNeeded   int64
}

// ComparePrograms lines up program options for one route, best CPP first.
func (a *Analyzer) ComparePrograms(awards []*Award, cashPrice float64) ([]ProgramComparison, error) {
	out := make([]ProgramComparison, 0, len(awards))
	for _, award := range awards {
		deal, err := a.AnalyzeAward(award, cashPrice)
		if err != nil {
			return nil, err
		}

		name := award.ProgramName
		if name == "" {
			name = a.resolver.ProgramName(award.Program)
		}
		row := ProgramComparison{
			Program:        award.Program,
			ProgramName:    name,
			Miles:          award.Miles,
			Fees:           award.CashFees,
			CPP:            deal.CPP,
			IsUnicorn:      deal.IsUnicorn,
			IsSaver:        award.IsSaver,
			SeatsAvailable: award.SeatsAvailable,
		}
		if path := a.resolver.BestTransferPath(award.Program, award.Miles); path != nil {
			row.HasPath = true
			row.CanAfford = path.CanAfford()
			row.SourceProgram = path.SourceProgram
			row.SourceName = path.SourceName
			row.PointsNeeded = path.PointsNeeded
		}
		out = append(out, row)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].CPP > out[j].CPP })
	return out, nil
}

// RouteEstimate is a planning estimate for a route without a live search.
type RouteEstimate struct {
	Origin           string
	Destination      string
	Cabin            Cabin
	TypicalMiles     int64
	TypicalCashPrice float64
	EstimatedCPP     float64
	UnicornThreshold float64
	Note             string
}

type regionPair struct{ from, to string }

type chartEntry struct {
	miles int64
	cash  float64
}

var routeEstimates = map[regionPair]map[Cabin]chartEntry{
	{"US", "US"}: {
		CabinEconomy:  {10000, 200},
		CabinBusiness: {25000, 600},
		CabinFirst:    {50000, 1200},
	},
	{"US", "EU"}: {
		CabinEconomy:  {30000, 600},
		CabinBusiness: {70000, 4000},
		CabinFirst:    {100000, 8000},
	},
	{"US", "ASIA"}: {
		CabinEconomy:  {35000, 800},
		CabinBusiness: {85000, 6000},
		CabinFirst:    {110000, 12000},
	},
}

var estimateRegions = map[string]string{
	"SFO": "US", "LAX": "US", "JFK": "US", "ORD": "US", "DFW": "US", "SEA": "US", "MIA": "US", "BOS": "US",
	"LHR": "EU", "CDG": "EU", "FRA": "EU", "AMS": "EU", "FCO": "EU", "MAD": "EU", "MUC": "EU",
	"NRT": "ASIA", "HND": "ASIA", "HKG": "ASIA", "SIN": "ASIA", "ICN": "ASIA", "PVG": "ASIA", "BKK": "ASIA",
}

func estimateRegion(airport string) string {
	if r, ok := estimateRegions[airport]; ok {
		return r
	}
	return "OTHER"
}

// EstimateRouteValue gives a rough award price and CPP for a route from a
// small region chart. Unknown region pairs are treated as transpacific and
// cabins missing from the chart use the business row.
func (a *Analyzer) EstimateRouteValue(origin, destination string, cabin Cabin) RouteEstimate {
	origin = common.NormalizeAirport(origin)
	destination = common.NormalizeAirport(destination)

	key := regionPair{estimateRegion(origin), estimateRegion(destination)}
	chart, ok := routeEstimates[key]
	if !ok {
		chart, ok = routeEstimates[regionPair{key.to, key.from}]
	}
	if !ok {
		chart = routeEstimates[regionPair{"US", "ASIA"}]
	}
	entry, ok := chart[cabin]
	if !ok {
		entry = chart[CabinBusiness]
	}

	return RouteEstimate{
		Origin:           origin,
		Destination:      destination,
		Cabin:            cabin,
		TypicalMiles:     entry.miles,
		TypicalCashPrice: entry.cash,
		EstimatedCPP:     entry.cash / float64(entry.miles) * 100,
		UnicornThreshold: a.threshold,
		Note:             "Rough estimate. Actual values vary by date and availability.",
	}
}

// DiscoveryDestinations are the long-haul airports Discover checks.
var DiscoveryDestinations = []string{"NRT", "HND", "LHR", "CDG", "SIN", "HKG", "FRA", "SYD", "DOH", "DXB"}

// DefaultDiscoverMinCPP is the estimated value Discover keeps by default.
const DefaultDiscoverMinCPP = 8.0

// Discover estimates every DiscoveryDestinations route from origin and keeps
// those at or above minCPP, best first.
func (a *Analyzer) Discover(origin string, cabin Cabin, minCPP float64) []RouteEstimate {
	origin = common.NormalizeAirport(origin)
	out := make([]RouteEstimate, 0, len(DiscoveryDestinations))
	for _, dest := range DiscoveryDestinations {
		if dest == origin {
			continue
		}
		if e := a.EstimateRouteValue(origin, dest, cabin); e.EstimatedCPP >= minCPP {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].EstimatedCPP > out[j].EstimatedCPP })
	return out
}
