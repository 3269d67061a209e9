package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{85000, "85,000"},
		{1234567, "1,234,567"},
		{-1500, "-1,500"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatNumber(tt.in))
		})
	}
}

func TestFormatDollars(t *testing.T) {
	assert.Equal(t, "$6,200", FormatDollars(6200))
	assert.Equal(t, "$88", FormatDollars(87.5))
	assert.Equal(t, "-$12", FormatDollars(-12.2))
}

func TestFormatPoints(t *testing.T) {
	assert.Equal(t, "1 point", FormatPoints(1))
	assert.Equal(t, "180,000 points", FormatPoints(180000))
	assert.Equal(t, "+5,000 points", FormatSignedPoints(5000))
	assert.Equal(t, "-1 point", FormatSignedPoints(-1))
	assert.Equal(t, "2 seats", FormatCount(2, "seat", "seats"))
}

func TestFormatMinutes(t *testing.T) {
	assert.Equal(t, "11h00m", FormatMinutes(660))
	assert.Equal(t, "0h45m", FormatMinutes(45))
	assert.Equal(t, "0h00m", FormatMinutes(-5))
}

func TestLoadLocation(t *testing.T) {
	assert.Equal(t, time.UTC, LoadLocation(""))
	assert.Equal(t, time.UTC, LoadLocation("Not/AZone"))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "chase_ur", NormalizeCode("  Chase_UR "))
	assert.Equal(t, "SFO", NormalizeAirport(" sfo"))
}
