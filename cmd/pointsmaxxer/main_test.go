package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pointsmaxxer/pointsmaxxer/internal/common"
	"github.com/pointsmaxxer/pointsmaxxer/internal/features/deals"
)

const testConfig = `
portfolio:
  - name: Chase Ultimate Rewards
    code: chase_ur
    balance: 180000
transfers:
  chase_ur: {united: 1.0}
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("OWNER_IDS", "")

	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o644))
	return path
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "pointsmaxxer version "+Version)
}

func TestPortfolioCommand(t *testing.T) {
	out, err := execute(t, "portfolio", "--config", writeConfig(t))
	require.NoError(t, err)
	assert.Contains(t, out, "Chase Ultimate Rewards [chase_ur]")
}

func TestPathsCommand(t *testing.T) {
	cfg := writeConfig(t)

	out, err := execute(t, "paths", "united", "60,000", "-c", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "Funding 60,000")
	assert.Contains(t, out, "✅ Chase Ultimate Rewards")

	_, err = execute(t, "paths", "united", "lots", "-c", cfg)
	assert.ErrorIs(t, err, errBadMiles)

	_, err = execute(t, "paths", "united")
	assert.Error(t, err)
}

func TestEstimateCommand_BadCabin(t *testing.T) {
	_, err := execute(t, "estimate", "SFO", "NRT", "--cabin", "steerage", "-c", writeConfig(t))
	assert.Error(t, err)
}

func TestDiscoverCommand(t *testing.T) {
	cfg := writeConfig(t)

	out, err := execute(t, "discover", "--from", "sfo", "--min-cpp", "9", "-c", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "From SFO in First, 9.0+ cpp")
	assert.Contains(t, out, "• NRT")
	assert.NotContains(t, out, "LHR")

	_, err = execute(t, "discover", "-c", cfg)
	assert.Error(t, err)

	_, err = execute(t, "discover", "--from", "SFO", "--cabin", "sofa", "-c", cfg)
	assert.ErrorIs(t, err, common.ErrUnknownCabin)
}

func TestCompareCommand_BadArgs(t *testing.T) {
	cfg := writeConfig(t)

	_, err := execute(t, "compare", "SFO", "NRT", "--cabin", "sofa", "-c", cfg)
	assert.ErrorIs(t, err, common.ErrUnknownCabin)

	_, err = execute(t, "compare", "SFO", "-c", cfg)
	assert.Error(t, err)
}

func TestHistoryCriteria(t *testing.T) {
	opts := historyOptions{
		unicorns:   true,
		saver:      true,
		affordable: true,
		minCPP:     0,
		maxCPP:     12,
		programs:   []string{" ANA", "united", ""},
		cabins:     []string{"first", "j"},
	}

	c, err := opts.criteria(true, true)
	require.NoError(t, err)
	require.NotNil(t, c.MinCPP)
	assert.Zero(t, *c.MinCPP, "an explicit zero bound is kept")
	require.NotNil(t, c.MaxCPP)
	assert.Equal(t, 12.0, *c.MaxCPP)
	assert.True(t, c.UnicornsOnly)
	assert.True(t, c.SaverOnly)
	assert.True(t, c.AffordableOnly)
	assert.Equal(t, []string{"ana", "united"}, c.Programs)
	assert.Equal(t, []deals.Cabin{deals.CabinFirst, deals.CabinBusiness}, c.Cabins)

	c, err = opts.criteria(false, false)
	require.NoError(t, err)
	assert.Nil(t, c.MinCPP)
	assert.Nil(t, c.MaxCPP)

	_, err = historyOptions{minCPP: 9, maxCPP: 5}.criteria(true, true)
	assert.Error(t, err)

	_, err = historyOptions{cabins: []string{"sofa"}}.criteria(false, false)
	assert.ErrorIs(t, err, common.ErrUnknownCabin)
}

func TestHistoryCommand_BadFilter(t *testing.T) {
	_, err := execute(t, "history", "--min-cpp", "9", "--max-cpp", "5")
	assert.ErrorContains(t, err, "--min-cpp is above --max-cpp")
}

func TestWriteHistory(t *testing.T) {
	var empty bytes.Buffer
	writeHistory(&empty, nil, true)
	assert.Equal(t, "No matching deals.\n", empty.String())

	d := &deals.Deal{
		ID: 42,
		Award: &deals.Award{
			Flight: deals.Flight{
				FlightNo:    "NH7",
				Origin:      "SFO",
				Destination: "NRT",
				Departure:   time.Date(2026, 11, 3, 11, 0, 0, 0, time.UTC),
			},
			Program: "ana",
			Miles:   85000,
			Cabin:   deals.CabinBusiness,
		},
		CPP:       9.86,
		IsUnicorn: true,
		CreatedAt: time.Date(2026, 10, 1, 9, 15, 0, 0, time.UTC),
	}

	var plain bytes.Buffer
	writeHistory(&plain, []*deals.Deal{d}, false)
	assert.Contains(t, plain.String(), "SFO-NRT")
	assert.Contains(t, plain.String(), "2026-10-01 09:15")
	assert.Contains(t, plain.String(), "9.86 🦄")
	assert.NotContains(t, plain.String(), "#42")

	var linked bytes.Buffer
	writeHistory(&linked, []*deals.Deal{d}, true)
	assert.Contains(t, linked.String(), "#42 "+deals.BookingURLDisplay(d.Award))
}

func TestParseMiles(t *testing.T) {
	for in, want := range map[string]int64{"85000": 85000, "85,000": 85000, " 85_000 ": 85000} {
		got, err := parseMiles(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	for _, in := range []string{"", "0", "-5", "1e5"} {
		_, err := parseMiles(in)
		assert.ErrorIs(t, err, errBadMiles, in)
	}
}

func TestWriteDealTable(t *testing.T) {
	var empty bytes.Buffer
	writeDealTable(&empty, nil, 5)
	assert.Equal(t, "No award space found.\n", empty.String())

	award := &deals.Award{
		Flight: deals.Flight{
			FlightNo:    "NH7",
			Origin:      "SFO",
			Destination: "NRT",
			Departure:   time.Date(2026, 11, 3, 11, 0, 0, 0, time.UTC),
		},
		Program:  "ana",
		Miles:    85000,
		CashFees: 120,
		Cabin:    deals.CabinBusiness,
	}
	source := "amex_mr"
	cost := int64(85000)
	ds := []*deals.Deal{
		{Award: award, CashPrice: 8500, CPP: 9.86, IsUnicorn: true, YourCost: &cost, YourSourceProgram: &source},
		{Award: award, CashPrice: 4000, CPP: 4.56},
	}

	var buf bytes.Buffer
	writeDealTable(&buf, ds, 1)
	out := buf.String()
	assert.Contains(t, out, "PROGRAM")
	assert.Contains(t, out, "2026-11-03")
	assert.Contains(t, out, "85,000")
	assert.Contains(t, out, "9.86 🦄")
	assert.Contains(t, out, "amex_mr")
	assert.NotContains(t, out, "4.56", "limit trims rows")
}
