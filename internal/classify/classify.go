// Package classify derives the dashboard tags from a row's percent change.
// Tags are computed on read and never stored.
package classify

import (
	"math"
	"strings"
)

type Risk string

const (
	RiskLow    Risk = "low"
	RiskMedium Risk = "medium"
	RiskHigh   Risk = "high"
)

type Recommendation string

const (
	Buy  Recommendation = "buy"
	Hold Recommendation = "hold"
	Sell Recommendation = "sell"
)

const (
	mediumRiskPct = 2.0
	highRiskPct   = 5.0
	signalPct     = 2.0
)

// RiskLevel buckets |pct|: below 2 is low, below 5 is medium, else high.
func RiskLevel(pct float64) Risk {
	abs := math.Abs(pct)
	switch {
	case abs >= highRiskPct:
		return RiskHigh
	case abs >= mediumRiskPct:
		return RiskMedium
	default:
		return RiskLow
	}
}

// Recommend is buy above +2%, sell below -2%, hold otherwise. Both
// thresholds are exclusive.
func Recommend(pct float64) Recommendation {
	switch {
	case pct > signalPct:
		return Buy
	case pct < -signalPct:
		return Sell
	default:
		return Hold
	}
}

func ParseRisk(s string) (Risk, bool) {
	switch r := Risk(strings.ToLower(strings.TrimSpace(s))); r {
	case RiskLow, RiskMedium, RiskHigh:
		return r, true
	}
	return "", false
}

func ParseRecommendation(s string) (Recommendation, bool) {
	switch r := Recommendation(strings.ToLower(strings.TrimSpace(s))); r {
	case Buy, Hold, Sell:
		return r, true
	}
	return "", false
}
