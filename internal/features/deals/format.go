package deals

import (
	"fmt"
	"strings"

	"github.com/pointsmaxxer/pointsmaxxer/internal/common"
)

// FormatDealLine renders one deal on a single line for chat lists.
func FormatDealLine(d *Deal) string {
	a := d.Award
	var b strings.Builder
	if d.ID > 0 {
		fmt.Fprintf(&b, "#%d ", d.ID)
	}
	fmt.Fprintf(&b, "%s→%s %s %s %s: %s + %s, %.1f cpp",
		a.Flight.Origin, a.Flight.Destination, a.Flight.Departure.Format("Jan 02"),
		a.Program, a.Cabin, common.FormatNumber(a.Miles), common.FormatDollars(a.CashFees), d.CPP)
	if d.IsUnicorn {
		b.WriteString(" 🦄")
	}
	if d.Affordable() {
		b.WriteString(" ✅")
	}
	return b.String()
}

// FormatDealList renders a titled list, or empty when there is nothing.
func FormatDealList(title, empty string, deals []*Deal) string {
	if len(deals) == 0 {
		return empty
	}
	lines := make([]string, 0, len(deals)+1)
	lines = append(lines, title)
	for _, d := range deals {
		lines = append(lines, FormatDealLine(d))
	}
	return strings.Join(lines, "\n")
}

// FormatDealDetail renders a deal with its booking link.
func FormatDealDetail(d *Deal, alerts *AlertManager) string {
	a := d.Award
	var b strings.Builder
	b.WriteString(alerts.FormatAlert(d))
	fmt.Fprintf(&b, "\n   Flight %s, %s", a.Flight.FlightNo, a.Flight.DurationFormatted())
	if a.Flight.Stops > 0 {
		fmt.Fprintf(&b, ", %s", common.FormatCount(int64(a.Flight.Stops), "stop", "stops"))
	}
	if len(d.TransferableFrom) > 0 {
		fmt.Fprintf(&b, "\n   Fund from: %s", strings.Join(d.TransferableFrom, ", "))
	}
	fmt.Fprintf(&b, "\n   %s", BookingURLDisplay(a))
	return b.String()
}

// FormatEstimate renders a RouteEstimate.
func FormatEstimate(e RouteEstimate) string {
	verdict := "below"
	if e.EstimatedCPP >= e.UnicornThreshold {
		verdict = "at or above"
	}
	return fmt.Sprintf("📐 %s→%s %s\n   typical: %s miles vs %s cash\n   ~%.1f cpp, %s the %.1f cpp unicorn bar\n   %s",
		e.Origin, e.Destination, e.Cabin.Title(),
		common.FormatNumber(e.TypicalMiles), common.FormatDollars(e.TypicalCashPrice),
		e.EstimatedCPP, verdict, e.UnicornThreshold, e.Note)
}

// FormatComparison renders ComparePrograms rows.
func FormatComparison(rows []ProgramComparison) string {
	if len(rows) == 0 {
		return "No programs to compare"
	}
	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		line := fmt.Sprintf("%s: %s + %s, %.1f cpp",
			r.ProgramName, common.FormatNumber(r.Miles), common.FormatDollars(r.Fees), r.CPP)
		switch {
		case r.CanAfford:
			line += fmt.Sprintf(" ✅ via %s", r.SourceName)
		case r.HasPath:
			line += fmt.Sprintf(" ❌ via %s", r.SourceName)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// FormatDiscovery renders Discover results for chat.
func FormatDiscovery(origin string, cabin Cabin, minCPP float64, found []RouteEstimate) string {
	header := fmt.Sprintf("🧭 From %s in %s, %.1f+ cpp:", common.NormalizeAirport(origin), cabin.Title(), minCPP)
	if len(found) == 0 {
		return header + "\nNothing clears that bar. Try a lower minimum or another cabin."
	}
	lines := []string{header}
	for _, e := range found {
		lines = append(lines, fmt.Sprintf("• %s: ~%s miles vs %s, ~%.1f cpp",
			e.Destination, common.FormatNumber(e.TypicalMiles), common.FormatDollars(e.TypicalCashPrice), e.EstimatedCPP))
	}
	lines = append(lines, found[0].Note)
	return strings.Join(lines, "\n")
}
