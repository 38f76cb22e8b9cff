package scraper

import (
	"strconv"
	"strings"
)

// NormalizePrice turns raw marketplace price text into a numeric value by
// keeping decimal digits only and parsing the remaining run as an
// integer-valued number. Currency symbols, thousands separators, decimal
// points and whitespace are all discarded, so "₦12,500.00" normalizes to
// 1250000, not 12500.00. Kept that way for compatibility with the stored
// data. Returns 0 when no digits survive; never fails.
func NormalizePrice(raw string) float64 {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	v, err := strconv.ParseFloat(digits.String(), 64)
	if err != nil {
		return 0
	}
	return v
}
