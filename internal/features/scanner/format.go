package scanner

import (
	"fmt"
	"strings"
	"time"

	"github.com/pointsmaxxer/pointsmaxxer/internal/common"
	"github.com/pointsmaxxer/pointsmaxxer/internal/features/deals"
)

// FormatScanResult renders the scan summary.
func FormatScanResult(r *ScanResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔎 Scan finished in %s\n", r.Duration.Round(100*time.Millisecond))
	fmt.Fprintf(&b, "   %s, %s, %s, %s",
		common.FormatCount(int64(r.RoutesScanned), "route", "routes"),
		common.FormatCount(int64(r.AwardsFound), "award", "awards"),
		common.FormatCount(int64(r.DealsFound), "deal", "deals"),
		common.FormatCount(int64(r.UnicornsFound), "unicorn", "unicorns"))
	if len(r.PriceDrops) > 0 {
		fmt.Fprintf(&b, "\n   %s", common.FormatCount(int64(len(r.PriceDrops)), "price drop", "price drops"))
	}
	for _, d := range r.Unicorns {
		b.WriteString("\n")
		b.WriteString(deals.FormatDealLine(d))
	}
	if len(r.Errors) > 0 {
		fmt.Fprintf(&b, "\n⚠️ %s:", common.FormatCount(int64(len(r.Errors)), "error", "errors"))
		for i, e := range r.Errors {
			if i == 5 {
				fmt.Fprintf(&b, "\n   ...and %d more", len(r.Errors)-5)
				break
			}
			fmt.Fprintf(&b, "\n   %s", e)
		}
	}
	return b.String()
}

// FormatSearchResult renders the top limit deals of a search.
func FormatSearchResult(r *SearchResult, limit int) string {
	q := r.Query
	header := fmt.Sprintf("✈️ %s→%s %s, %s", q.Origin, q.Destination, q.Cabin.Title(), q.Date.Format("Jan 02"))
	if !q.DateEnd.Equal(q.Date) {
		header += q.DateEnd.Format(" - Jan 02")
	}

	if len(r.Deals) == 0 {
		msg := header + "\nNo award space found."
		if len(r.Errors) > 0 {
			msg += "\n⚠️ " + strings.Join(r.Errors, "\n⚠️ ")
		}
		return msg
	}

	shown := r.Deals
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}
	lines := []string{header, fmt.Sprintf("%s, best first:", common.FormatCount(int64(len(r.Deals)), "deal", "deals"))}
	for _, d := range shown {
		lines = append(lines, deals.FormatDealLine(d))
	}
	if len(r.Errors) > 0 {
		lines = append(lines, fmt.Sprintf("⚠️ %s failed", common.FormatCount(int64(len(r.Errors)), "source", "sources")))
	}
	return strings.Join(lines, "\n")
}

// FormatCompareResult renders the program lineup for one day.
func FormatCompareResult(r *CompareResult) string {
	q := r.Query
	header := fmt.Sprintf("⚖️ %s→%s %s, %s", q.Origin, q.Destination, q.Cabin.Title(), q.Date.Format("Jan 02"))
	if len(r.Programs) == 0 {
		return header + "\nNo award space found."
	}

	lines := []string{
		header,
		fmt.Sprintf("Cash fare %s", common.FormatDollars(r.CashPrice)),
		deals.FormatComparison(r.Programs),
	}
	if r.Best != nil {
		lines = append(lines, "🏆 Best overall:", deals.FormatDealLine(r.Best))
	}
	return strings.Join(lines, "\n")
}
