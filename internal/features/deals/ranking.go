package deals

import (
	"sort"

	"github.com/pointsmaxxer/pointsmaxxer/internal/common"
)

// AffordabilityBonus is added on top of the weighted score when the
// portfolio can fund the deal.
const AffordabilityBonus = 0.2

// Normalization caps: values at or above these score the full factor.
const (
	maxScoredCPP     = 20.0
	maxScoredSavings = 10000.0
	maxScoredSeats   = 4.0
)

// RankingWeights weights the normalized factors. They need not sum to 1.
type RankingWeights struct {
	CPP          float64 `yaml:"cpp"`
	Savings      float64 `yaml:"savings"`
	Saver        float64 `yaml:"saver"`
	Availability float64 `yaml:"availability"`
}

// DefaultRankingWeights returns 0.5 / 0.3 / 0.1 / 0.1.
func DefaultRankingWeights() RankingWeights {
	return RankingWeights{CPP: 0.5, Savings: 0.3, Saver: 0.1, Availability: 0.1}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Score is the composite ranking score of one deal.
func Score(d *Deal, w RankingWeights) float64 {
	saver := 0.0
	if d.Award.IsSaver {
		saver = 1.0
	}

	score := w.CPP*clamp01(d.CPP/maxScoredCPP) +
		w.Savings*clamp01(d.SavingsDollars()/maxScoredSavings) +
		w.Saver*saver +
		w.Availability*clamp01(float64(d.Award.SeatsAvailable)/maxScoredSeats)

	if d.YourCost != nil {
		score += AffordabilityBonus
	}
	return score
}

// RankDeals returns a new slice ordered by descending Score. Deals with
// equal scores keep their input order.
func RankDeals(deals []*Deal, w RankingWeights) []*Deal {
	type scored struct {
		deal  *Deal
		score float64
	}

	items := make([]scored, len(deals))
	for i, d := range deals {
		items[i] = scored{deal: d, score: Score(d, w)}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].score > items[j].score
	})

	out := make([]*Deal, len(items))
	for i, it := range items {
		out[i] = it.deal
	}
	return out
}

// FilterCriteria narrows a deal list. Every field is optional; empty
// slices and nil bounds do not constrain.
type FilterCriteria struct {
	MinCPP         *float64
	MaxCPP         *float64
	UnicornsOnly   bool
	AffordableOnly bool
	SaverOnly      bool
	Cabins         []Cabin
	Programs       []string
}

// Matches reports whether one deal passes every set criterion.
func (c FilterCriteria) Matches(d *Deal) bool {
	if c.MinCPP != nil && d.CPP < *c.MinCPP {
		return false
	}
	if c.MaxCPP != nil && d.CPP > *c.MaxCPP {
		return false
	}
	if c.UnicornsOnly && !d.IsUnicorn {
		return false
	}
	if c.AffordableOnly && d.YourCost == nil {
		return false
	}
	if c.SaverOnly && !d.Award.IsSaver {
		return false
	}
	if len(c.Cabins) > 0 && !containsCabin(c.Cabins, d.Award.Cabin) {
		return false
	}
	if len(c.Programs) > 0 && !containsProgram(c.Programs, d.Award.Program) {
		return false
	}
	return true
}

// FilterDeals keeps the deals matching c, in input order.
func FilterDeals(deals []*Deal, c FilterCriteria) []*Deal {
	out := make([]*Deal, 0, len(deals))
	for _, d := range deals {
		if c.Matches(d) {
			out = append(out, d)
		}
	}
	return out
}

func containsCabin(set []Cabin, c Cabin) bool {
	for _, s := range set {
		if s == c {
			return true
		}
	}
	return false
}

// containsProgram matches program codes case-insensitively, the way
// NewAward stores them.
func containsProgram(set []string, code string) bool {
	code = common.NormalizeCode(code)
	for _, s := range set {
		if common.NormalizeCode(s) == code {
			return true
		}
	}
	return false
}
