package deals

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dealFixture(program string, cpp float64, saver bool, seats int, affordable bool) *Deal {
	d := &Deal{
		Award: &Award{
			Program:        program,
			Miles:          50000,
			Cabin:          CabinBusiness,
			IsSaver:        saver,
			SeatsAvailable: seats,
		},
		CPP:       cpp,
		CashPrice: cpp * 500,
		IsUnicorn: cpp >= DefaultUnicornThreshold,
	}
	if affordable {
		cost := int64(50000)
		src := "chase_ur"
		d.YourCost = &cost
		d.YourSourceProgram = &src
	}
	return d
}

func TestScore(t *testing.T) {
	w := DefaultRankingWeights()

	maxed := dealFixture("ana", 40, true, 9, true)
	maxed.CashPrice = 50000
	assert.InDelta(t, 1.2, Score(maxed, w), 1e-9)

	empty := dealFixture("ana", 0, false, 0, false)
	empty.CashPrice = 0
	empty.Award.CashFees = 100
	assert.InDelta(t, 0, Score(empty, w), 1e-9, "negative savings clamp to zero")

	mid := dealFixture("ana", 10, false, 2, false)
	mid.CashPrice = 5000
	assert.InDelta(t, 0.5*0.5+0.3*0.5+0.1*0.5, Score(mid, w), 1e-9)
}

func TestRankDeals_OrderAndStability(t *testing.T) {
	a := dealFixture("united", 3, false, 1, false)
	b := dealFixture("ana", 9, true, 2, false)
	c := dealFixture("aa", 3, false, 1, false)
	d := dealFixture("delta", 3, false, 1, true)

	input := []*Deal{a, b, c, d}
	ranked := RankDeals(input, DefaultRankingWeights())

	require.Len(t, ranked, 4)
	assert.Same(t, b, ranked[0])
	assert.Same(t, d, ranked[1], "affordability bonus lifts an otherwise equal deal")
	assert.Same(t, a, ranked[2], "ties keep input order")
	assert.Same(t, c, ranked[3])

	assert.Same(t, a, input[0], "input untouched")

	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, Score(ranked[i-1], DefaultRankingWeights()), Score(ranked[i], DefaultRankingWeights()))
	}

	assert.Empty(t, RankDeals(nil, DefaultRankingWeights()))
}

func TestRankDeals_CustomWeights(t *testing.T) {
	highCPP := dealFixture("ana", 15, false, 1, false)
	manySeats := dealFixture("aa", 2, true, 4, false)

	ranked := RankDeals([]*Deal{highCPP, manySeats}, RankingWeights{Saver: 1, Availability: 1})
	assert.Same(t, manySeats, ranked[0])
}

func TestFilterDeals(t *testing.T) {
	unicorn := dealFixture("ana", 8, true, 2, true)
	plain := dealFixture("united", 2, false, 1, false)
	mid := dealFixture("aa", 5, true, 1, false)
	mid.Award.Cabin = CabinEconomy
	low := dealFixture("delta", 3, false, 1, false)
	high := dealFixture("jetblue", 6, false, 1, false)
	all := []*Deal{unicorn, plain, mid, low, high}

	minCPP := 3.0
	maxCPP := 6.0

	tests := []struct {
		name     string
		criteria FilterCriteria
		want     []*Deal
	}{
		{"no criteria", FilterCriteria{}, all},
		{"min cpp inclusive", FilterCriteria{MinCPP: &minCPP}, []*Deal{unicorn, mid, low, high}},
		{"max cpp inclusive", FilterCriteria{MaxCPP: &maxCPP}, []*Deal{plain, mid, low, high}},
		{"cpp band", FilterCriteria{MinCPP: &minCPP, MaxCPP: &maxCPP}, []*Deal{mid, low, high}},
		{"unicorns", FilterCriteria{UnicornsOnly: true}, []*Deal{unicorn}},
		{"affordable", FilterCriteria{AffordableOnly: true}, []*Deal{unicorn}},
		{"saver", FilterCriteria{SaverOnly: true}, []*Deal{unicorn, mid}},
		{"cabin", FilterCriteria{Cabins: []Cabin{CabinEconomy}}, []*Deal{mid}},
		{"programs", FilterCriteria{Programs: []string{"united", "aa"}}, []*Deal{plain, mid}},
		{"programs any case", FilterCriteria{Programs: []string{"United", " AA "}}, []*Deal{plain, mid}},
		{"combined", FilterCriteria{SaverOnly: true, Programs: []string{"united"}}, []*Deal{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterDeals(all, tt.criteria)
			assert.Equal(t, tt.want, got)

			assert.Equal(t, got, FilterDeals(got, tt.criteria), "filtering twice changes nothing")
			for _, d := range got {
				assert.Contains(t, all, d)
				assert.True(t, tt.criteria.Matches(d))
			}
		})
	}
}

func TestFilterDeals_InputUntouched(t *testing.T) {
	a := dealFixture("ana", 8, true, 2, true)
	b := dealFixture("united", 2, false, 1, false)
	input := []*Deal{a, b}

	out := FilterDeals(input, FilterCriteria{UnicornsOnly: true})
	require.Len(t, out, 1)
	assert.Same(t, a, out[0])
	assert.Equal(t, []*Deal{a, b}, input)
	assert.Empty(t, FilterDeals(nil, FilterCriteria{}))
}
