package portfolio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatSummary(t *testing.T) {
	m := newSampleManager(t)

	text := FormatSummary(m.Summary())
	assert.Contains(t, text, "Portfolio: 330,000 points (~$4,950)")
	assert.Contains(t, text, "• Chase Ultimate Rewards [chase_ur]: 180,000 points")
	assert.Contains(t, text, "best use: → World of Hyatt (2.0 cpp)")
	assert.Contains(t, text, "best use: Direct redemption (1.5 cpp)")
}

func TestFormatSummary_Empty(t *testing.T) {
	text := FormatSummary(Summary{})
	assert.Contains(t, text, "Portfolio is empty")
}

func TestFormatPaths(t *testing.T) {
	m := newSampleManager(t)

	text := FormatPaths("united", 200000, m.FindTransferPaths("united", 200000))
	assert.Contains(t, text, "Funding 200,000 in United MileagePlus")
	assert.Contains(t, text, "❌ Chase Ultimate Rewards (transfer, ratio 1)")
	assert.Contains(t, text, "short 20,000")

	assert.Contains(t, FormatPaths("jal", 1000, nil), "Nothing in your portfolio reaches jal")
}
