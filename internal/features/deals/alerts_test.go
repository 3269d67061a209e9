package deals

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAlertManager_Pending(t *testing.T) {
	m := NewAlertManager(nil)
	unicorn := dealFixture("ana", 8, true, 2, false)
	plain := dealFixture("aa", 2, false, 1, false)

	assert.True(t, m.ShouldAlert(unicorn))
	assert.False(t, m.ShouldAlert(plain))
	assert.False(t, m.ShouldAlert(nil))
	assert.Equal(t, []*Deal{unicorn}, m.PendingAlerts([]*Deal{plain, unicorn}))
	assert.Empty(t, m.PendingAlerts(nil))
}

func TestAlertManager_FormatAlert(t *testing.T) {
	names := map[string]string{"amex_mr": "Amex Membership Rewards", "ana": "ANA Mileage Club"}
	m := NewAlertManager(func(code string) string { return names[code] })

	award := testAward(t, "ana", 85000, 87.50)
	cost := int64(85000)
	src := "amex_mr"
	deal := &Deal{
		ID:                42,
		Award:             award,
		CashPrice:         6200,
		CPP:               CalculateCPP(award, 6200),
		IsUnicorn:         true,
		YourCost:          &cost,
		YourSourceProgram: &src,
	}

	want := "🦄 UNICORN: SFO→NRT Jun 15 ANA\n" +
		"   85,000 ana + $88 = $6,200 value (7.2 cpp)\n" +
		"   Business, 2 seats, saver\n" +
		"   Transfer: Amex Membership Rewards → ANA Mileage Club\n" +
		"   /book 42"
	assert.Equal(t, want, m.FormatAlert(deal))

	direct := "ana"
	deal.YourSourceProgram = &direct
	deal.ID = 0
	assert.Contains(t, m.FormatAlert(deal), "Book with your ANA Mileage Club balance")
	assert.NotContains(t, m.FormatAlert(deal), "/book")
}
