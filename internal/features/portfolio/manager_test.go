package portfolio

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pointsmaxxer/pointsmaxxer/internal/common"
)

func samplePrograms() []Program {
	return []Program{
		{Code: "chase_ur", Name: "Chase Ultimate Rewards", Balance: 180000},
		{Code: "amex_mr", Name: "Amex Membership Rewards", Balance: 95000},
		{Code: "aa", Name: "American AAdvantage", Balance: 55000},
	}
}

func sampleRules() []TransferRule {
	return []TransferRule{
		{Source: "chase_ur", Partners: []PartnerRatio{
			{Partner: "united", Ratio: 1.0},
			{Partner: "aeroplan", Ratio: 1.0},
			{Partner: "hyatt", Ratio: 1.0},
		}},
		{Source: "amex_mr", Partners: []PartnerRatio{
			{Partner: "ana", Ratio: 1.0},
			{Partner: "delta", Ratio: 1.0},
		}},
	}
}

func newSampleManager(t *testing.T) *Manager {
	t.Helper()
	g, err := NewGraph(sampleRules())
	require.NoError(t, err)
	return NewManager(samplePrograms(), g, Options{})
}

func TestFindTransferPaths_TransferPartner(t *testing.T) {
	m := newSampleManager(t)

	paths := m.FindTransferPaths("united", 150000)
	require.Len(t, paths, 1)
	assert.Equal(t, "chase_ur", paths[0].SourceProgram)
	assert.Equal(t, "Chase Ultimate Rewards", paths[0].SourceName)
	assert.Equal(t, "United MileagePlus", paths[0].TargetName)
	assert.Equal(t, int64(150000), paths[0].PointsNeeded)
	assert.Equal(t, int64(180000), paths[0].PointsAvailable)
	assert.False(t, paths[0].IsDirect)
	assert.True(t, paths[0].CanAfford())

	paths = m.FindTransferPaths("united", 200000)
	require.Len(t, paths, 1)
	assert.False(t, paths[0].CanAfford())
	assert.Equal(t, int64(20000), paths[0].Shortfall())
}

func TestFindTransferPaths_DirectBalance(t *testing.T) {
	m := newSampleManager(t)

	paths := m.FindTransferPaths("aa", 40000)
	require.Len(t, paths, 1)
	assert.True(t, paths[0].IsDirect)
	assert.Equal(t, "aa", paths[0].SourceProgram)
	assert.Equal(t, 1.0, paths[0].Ratio)
	assert.Equal(t, int64(40000), paths[0].PointsNeeded)
	assert.True(t, paths[0].CanAfford())
}

func TestFindTransferPaths_UnknownProgram(t *testing.T) {
	m := newSampleManager(t)

	assert.Empty(t, m.FindTransferPaths("singapore", 50000))
	assert.Nil(t, m.BestTransferPath("singapore", 50000))
}

func TestFindTransferPaths_Ordering(t *testing.T) {
	rules := []TransferRule{
		{Source: "chase_ur", Partners: []PartnerRatio{{Partner: "flying_blue", Ratio: 1.0}}},
		{Source: "amex_mr", Partners: []PartnerRatio{{Partner: "flying_blue", Ratio: 1.0}}},
		{Source: "cap_one", Partners: []PartnerRatio{{Partner: "flying_blue", Ratio: 2.0}}},
	}
	g, err := NewGraph(rules)
	require.NoError(t, err)

	m := NewManager([]Program{
		{Code: "amex_mr", Balance: 95000},
		{Code: "chase_ur", Balance: 180000},
		{Code: "cap_one", Balance: 10000},
		{Code: "flying_blue", Balance: 120000},
	}, g, Options{})

	paths := m.FindTransferPaths("flying_blue", 100000)
	require.Len(t, paths, 4)

	// affordable first, cheapest in source points within each group
	assert.Equal(t, "flying_blue", paths[0].SourceProgram)
	assert.Equal(t, "chase_ur", paths[1].SourceProgram)
	assert.Equal(t, "cap_one", paths[2].SourceProgram)
	assert.Equal(t, int64(50000), paths[2].PointsNeeded)
	assert.Equal(t, "amex_mr", paths[3].SourceProgram)

	best := m.BestTransferPath("flying_blue", 100000)
	require.NotNil(t, best)
	assert.True(t, best.IsDirect)
}

func TestFindTransferPaths_TiesKeepPortfolioOrder(t *testing.T) {
	rules := []TransferRule{
		{Source: "chase_ur", Partners: []PartnerRatio{{Partner: "singapore", Ratio: 1.0}}},
		{Source: "amex_mr", Partners: []PartnerRatio{{Partner: "singapore", Ratio: 1.0}}},
	}
	g, err := NewGraph(rules)
	require.NoError(t, err)

	m := NewManager([]Program{
		{Code: "amex_mr", Balance: 90000},
		{Code: "chase_ur", Balance: 90000},
	}, g, Options{})

	paths := m.FindTransferPaths("singapore", 60000)
	require.Len(t, paths, 2)
	assert.Equal(t, "amex_mr", paths[0].SourceProgram)
	assert.Equal(t, "chase_ur", paths[1].SourceProgram)
}

func TestFindTransferPaths_Truncation(t *testing.T) {
	tests := []struct {
		name  string
		ratio float64
		miles int64
		want  int64
	}{
		{"one to one", 1.0, 150000, 150000},
		{"three to one", 3.0, 10000, 3333},
		{"fractional ratio", 0.75, 10000, 13333},
		{"two to one", 2.0, 75001, 37500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := NewGraph([]TransferRule{
				{Source: "src", Partners: []PartnerRatio{{Partner: "dst", Ratio: tt.ratio}}},
			})
			require.NoError(t, err)
			m := NewManager([]Program{{Code: "src", Balance: 1}}, g, Options{})

			paths := m.FindTransferPaths("dst", tt.miles)
			require.Len(t, paths, 1)
			assert.Equal(t, tt.want, paths[0].PointsNeeded)
			assert.Equal(t, tt.ratio, paths[0].Ratio)
		})
	}
}

func TestFindTransferPaths_CountAndAffordability(t *testing.T) {
	rules := []TransferRule{
		{Source: "a", Partners: []PartnerRatio{{Partner: "t", Ratio: 1.0}}},
		{Source: "b", Partners: []PartnerRatio{{Partner: "t", Ratio: 1.5}}},
		{Source: "c", Partners: []PartnerRatio{{Partner: "other", Ratio: 1.0}}},
		{Source: "d", Partners: []PartnerRatio{{Partner: "t", Ratio: 0.5}}},
	}
	g, err := NewGraph(rules)
	require.NoError(t, err)

	m := NewManager([]Program{
		{Code: "t", Balance: 5000},
		{Code: "a", Balance: 40000},
		{Code: "b", Balance: 20000},
		{Code: "c", Balance: 900000},
		{Code: "d", Balance: 0},
	}, g, Options{})

	paths := m.FindTransferPaths("t", 30000)
	// direct + a + b + d; c has no edge into t
	require.Len(t, paths, 4)
	for _, p := range paths {
		assert.Equal(t, p.PointsAvailable >= p.PointsNeeded, p.CanAfford(), p.SourceProgram)
	}

	best := m.BestTransferPath("t", 30000)
	require.NotNil(t, best)
	assert.True(t, best.CanAfford())
	assert.Equal(t, "b", best.SourceProgram)
	assert.Equal(t, int64(20000), best.PointsNeeded)
}

func TestBestTransferPath_NoneAffordable(t *testing.T) {
	m := newSampleManager(t)

	best := m.BestTransferPath("ana", 500000)
	require.NotNil(t, best)
	assert.False(t, best.CanAfford())
	assert.Equal(t, "amex_mr", best.SourceProgram)
	assert.Equal(t, int64(500000), best.PointsNeeded)
}

func TestProgramsThatTransferTo(t *testing.T) {
	m := newSampleManager(t)

	assert.Equal(t, []string{"chase_ur"}, m.ProgramsThatTransferTo("united"))
	assert.Equal(t, []string{"amex_mr"}, m.ProgramsThatTransferTo("ANA"))
	assert.Equal(t, []string{"aa"}, m.ProgramsThatTransferTo("aa"))
	assert.Empty(t, m.ProgramsThatTransferTo("emirates"))

	ok, err := m.UpdateBalance("chase_ur", 0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, m.ProgramsThatTransferTo("united"))
}

func TestSummary_OneHop(t *testing.T) {
	m := newSampleManager(t)

	s := m.Summary()
	assert.Equal(t, int64(330000), s.TotalPoints)
	assert.InDelta(t, 4950.0, s.TotalEstimatedValue, 1e-9)
	require.Len(t, s.Programs, 3)

	chase := s.BestValues["chase_ur"]
	assert.Equal(t, "→ World of Hyatt", chase.Description)
	assert.InDelta(t, 2.0, chase.CPP, 1e-9)
	assert.Equal(t, []string{"hyatt"}, chase.Via)

	amex := s.BestValues["amex_mr"]
	assert.Equal(t, "→ ANA Mileage Club", amex.Description)
	assert.InDelta(t, 2.0, amex.CPP, 1e-9)

	aa := s.BestValues["aa"]
	assert.Equal(t, DirectRedemption, aa.Description)
	assert.InDelta(t, 1.5, aa.CPP, 1e-9)
	assert.Empty(t, aa.Via)
}

func TestSummary_StrictImprovementKeepsFirst(t *testing.T) {
	g, err := NewGraph([]TransferRule{
		{Source: "src", Partners: []PartnerRatio{
			{Partner: "p1", Ratio: 1.0},
			{Partner: "p2", Ratio: 1.0},
		}},
	})
	require.NoError(t, err)
	m := NewManager([]Program{{Code: "src", Balance: 1000}}, g, Options{
		Valuations: map[string]float64{"src": 1.0, "p1": 2.0, "p2": 2.0},
	})

	best := m.Summary().BestValues["src"]
	assert.Equal(t, "→ P1", best.Description)
}

func TestSummary_RatioScalesPartnerValue(t *testing.T) {
	g, err := NewGraph([]TransferRule{
		{Source: "src", Partners: []PartnerRatio{{Partner: "hotel", Ratio: 0.5}}},
	})
	require.NoError(t, err)
	m := NewManager([]Program{{Code: "src", Balance: 1000}}, g, Options{
		Valuations: map[string]float64{"src": 1.5, "hotel": 2.0},
	})

	best := m.Summary().BestValues["src"]
	assert.Equal(t, DirectRedemption, best.Description)
	assert.InDelta(t, 1.5, best.CPP, 1e-9)
}

func TestSummary_MultiHopIsOptIn(t *testing.T) {
	rules := []TransferRule{
		{Source: "a", Partners: []PartnerRatio{{Partner: "b", Ratio: 1.0}}},
		{Source: "b", Partners: []PartnerRatio{{Partner: "c", Ratio: 1.0}}},
		{Source: "c", Partners: []PartnerRatio{{Partner: "a", Ratio: 1.0}}},
	}
	g, err := NewGraph(rules)
	require.NoError(t, err)
	valuations := map[string]float64{"a": 1.0, "b": 1.1, "c": 3.0}
	programs := []Program{{Code: "a", Name: "Alpha", Balance: 100}}

	oneHop := NewManager(programs, g, Options{Valuations: valuations})
	best := oneHop.Summary().BestValues["a"]
	assert.Equal(t, "→ B", best.Description)
	assert.InDelta(t, 1.1, best.CPP, 1e-9)

	twoHop := NewManager(programs, g, Options{Valuations: valuations, MaxHops: 3})
	best = twoHop.Summary().BestValues["a"]
	assert.Equal(t, "→ B → C", best.Description)
	assert.InDelta(t, 3.0, best.CPP, 1e-9)
	assert.Equal(t, []string{"b", "c"}, best.Via)
}

func TestSummary_EmptyPortfolio(t *testing.T) {
	m := NewManager(nil, nil, Options{})

	s := m.Summary()
	assert.Zero(t, s.TotalPoints)
	assert.Zero(t, s.TotalEstimatedValue)
	assert.Empty(t, s.Programs)
	assert.Empty(t, s.BestValues)
}

func TestMutations(t *testing.T) {
	m := newSampleManager(t)

	ok, err := m.UpdateBalance("aa", 70000)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(70000), m.Balance("aa"))

	ok, err = m.UpdateBalance("jal", 1000)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = m.UpdateBalance("aa", -1)
	assert.ErrorIs(t, err, common.ErrInvalidBalance)

	require.NoError(t, m.AddProgram(Program{Code: "aa", Name: "AAdvantage", Balance: 10}))
	require.Len(t, m.Programs(), 3)
	p, ok := m.Program("aa")
	require.True(t, ok)
	assert.Equal(t, "AAdvantage", p.Name)
	assert.Equal(t, int64(10), p.Balance)

	require.NoError(t, m.AddProgram(Program{Code: "Bilt", Balance: 25000}))
	programs := m.Programs()
	require.Len(t, programs, 4)
	assert.Equal(t, "bilt", programs[3].Code)
	assert.Equal(t, "BILT", programs[3].Name)

	assert.ErrorIs(t, m.AddProgram(Program{Code: " "}), common.ErrEmptyCode)
	assert.ErrorIs(t, m.AddProgram(Program{Code: "x", Balance: -5}), common.ErrInvalidBalance)

	assert.True(t, m.RemoveProgram("amex_mr"))
	assert.False(t, m.RemoveProgram("amex_mr"))
	assert.Len(t, m.Programs(), 3)
	assert.Zero(t, m.Balance("amex_mr"))
}

func TestProgramName(t *testing.T) {
	m := newSampleManager(t)

	assert.Equal(t, "Chase Ultimate Rewards", m.ProgramName("chase_ur"))
	assert.Equal(t, "Singapore KrisFlyer", m.ProgramName("singapore"))
	assert.Equal(t, "XYZ_AIR", m.ProgramName("xyz_air"))
}

func TestTransferLookups(t *testing.T) {
	m := newSampleManager(t)

	assert.True(t, m.CanTransferTo("chase_ur", "hyatt"))
	assert.False(t, m.CanTransferTo("chase_ur", "ana"))
	assert.False(t, m.CanTransferTo("nope", "ana"))
	assert.Equal(t, 1.0, m.TransferRatio("amex_mr", "delta"))
	assert.Equal(t, 0.0, m.TransferRatio("amex_mr", "united"))
	assert.InDelta(t, 2700.0, m.EstimatedValue("chase_ur"), 1e-9)
	assert.Zero(t, m.EstimatedValue("jal"))
}

func TestManager_ConcurrentAccess(t *testing.T) {
	m := newSampleManager(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = m.FindTransferPaths("united", 100000)
			_ = m.Summary()
		}()
		go func(n int64) {
			defer wg.Done()
			_, _ = m.UpdateBalance("chase_ur", 100000+n)
		}(int64(i))
	}
	wg.Wait()

	assert.GreaterOrEqual(t, m.Balance("chase_ur"), int64(100000))
}
