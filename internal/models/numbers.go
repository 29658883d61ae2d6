package models

import (
	"math"
	"strconv"
	"strings"
)

// ParseNumber parses a seed cell as a decimal number. Surrounding whitespace
// and a leading currency symbol are tolerated. NaN and infinities are
// rejected.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// FormatNumber renders f with the fewest digits that round-trip.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
