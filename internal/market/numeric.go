package market

import (
	"strings"

	"github.com/shopspring/decimal"
)

// parseFloat returns 0 for anything that is not a number ("N/A", "None", "").
func parseFloat(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	return d.InexactFloat64()
}

func parsePercent(s string) float64 {
	return parseFloat(strings.TrimSuffix(strings.TrimSpace(s), "%"))
}

// parseNonNegative is parseFloat clamped at 0, for prices and market caps.
func parseNonNegative(s string) float64 {
	v := parseFloat(s)
	if v < 0 {
		return 0
	}
	return v
}

func parseVolume(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return 0
	}
	return d.IntPart()
}
