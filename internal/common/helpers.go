package common

import (
	"fmt"
	"strings"
	"time"
)

// FormatNumber renders an integer with comma thousands separators.
//
//	FormatNumber(85000)   // "85,000"
//	FormatNumber(-1500)   // "-1,500"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%s,%03d", FormatNumber(n/1000), n%1000)
}

// FormatDollars renders a dollar amount rounded to whole dollars.
func FormatDollars(amount float64) string {
	if amount < 0 {
		return "-" + FormatDollars(-amount)
	}
	return "$" + FormatNumber(int64(amount+0.5))
}

// FormatPoints renders "85,000 points".
func FormatPoints(n int64) string {
	return FormatNumber(n) + " " + Pluralize(n, "point", "points")
}

// FormatMinutes renders a duration in minutes as "11h05m".
func FormatMinutes(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	return fmt.Sprintf("%dh%02dm", minutes/60, minutes%60)
}

// LoadLocation resolves an IANA zone name and falls back to UTC.
func LoadLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// FormatDateTime renders t in loc as "Jun 15, 2025 10:30".
func FormatDateTime(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("Jan 02, 2006 15:04")
}

// NormalizeCode lower-cases and trims a program code.
func NormalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// NormalizeAirport upper-cases and trims an airport code.
func NormalizeAirport(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
