package common

import "fmt"

// Pluralize picks the singular form for exactly one, plural otherwise.
func Pluralize(n int64, singular, plural string) string {
	if n == 1 || n == -1 {
		return singular
	}
	return plural
}

// FormatCount renders "3 seats", "1 seat".
func FormatCount(n int64, singular, plural string) string {
	return fmt.Sprintf("%s %s", FormatNumber(n), Pluralize(n, singular, plural))
}

// FormatSignedPoints renders a balance change with an explicit sign.
func FormatSignedPoints(delta int64) string {
	if delta >= 0 {
		return "+" + FormatPoints(delta)
	}
	return FormatPoints(delta)
}
