package deals

import (
	"fmt"
	"strings"

	"github.com/pointsmaxxer/pointsmaxxer/internal/common"
)

// AlertManager decides which deals deserve a push and renders them.
type AlertManager struct {
	names func(code string) string
}

// NewAlertManager creates an alert manager. names resolves program codes to
// display names and may be nil.
func NewAlertManager(names func(code string) string) *AlertManager {
	return &AlertManager{names: names}
}

// ShouldAlert is true for unicorns.
func (m *AlertManager) ShouldAlert(d *Deal) bool {
	return d != nil && d.IsUnicorn
}

// PendingAlerts keeps the deals that should alert, in input order.
func (m *AlertManager) PendingAlerts(deals []*Deal) []*Deal {
	out := make([]*Deal, 0)
	for _, d := range deals {
		if m.ShouldAlert(d) {
			out = append(out, d)
		}
	}
	return out
}

func (m *AlertManager) name(code string) string {
	if m.names == nil {
		return code
	}
	if n := m.names(code); n != "" {
		return n
	}
	return code
}

// FormatAlert renders a deal as a short chat message.
func (m *AlertManager) FormatAlert(d *Deal) string {
	award := d.Award
	flight := award.Flight

	airline := flight.AirlineName
	if airline == "" {
		airline = flight.AirlineCode
	}

	header := "💎 DEAL"
	if d.IsUnicorn {
		header = "🦄 UNICORN"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s→%s %s %s\n",
		header, flight.Origin, flight.Destination, flight.Departure.Format("Jan 02"), airline)
	fmt.Fprintf(&b, "   %s %s + %s = %s value (%.1f cpp)\n",
		common.FormatNumber(award.Miles), award.Program,
		common.FormatDollars(award.CashFees), common.FormatDollars(d.CashPrice), d.CPP)
	fmt.Fprintf(&b, "   %s, %s", award.Cabin.Title(), common.FormatCount(int64(award.SeatsAvailable), "seat", "seats"))
	if award.IsSaver {
		b.WriteString(", saver")
	}

	if d.YourSourceProgram != nil {
		src := *d.YourSourceProgram
		if src == award.Program {
			fmt.Fprintf(&b, "\n   Book with your %s balance", m.name(src))
		} else {
			fmt.Fprintf(&b, "\n   Transfer: %s → %s", m.name(src), m.name(award.Program))
		}
	}
	if d.ID > 0 {
		fmt.Fprintf(&b, "\n   /book %d", d.ID)
	}
	return b.String()
}
