package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRiskLevel(t *testing.T) {
	tests := []struct {
		pct  float64
		want Risk
	}{
		{0, RiskLow},
		{1.34, RiskLow},
		{1.999, RiskLow},
		{2.0, RiskMedium},
		{-2.0, RiskMedium},
		{4.99, RiskMedium},
		{5.0, RiskHigh},
		{-7.5, RiskHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RiskLevel(tt.pct), "pct=%v", tt.pct)
	}
}

func TestRecommend(t *testing.T) {
	tests := []struct {
		pct  float64
		want Recommendation
	}{
		{2.0, Hold},
		{2.01, Buy},
		{-2.0, Hold},
		{-2.01, Sell},
		{0, Hold},
		{1.34, Hold},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Recommend(tt.pct), "pct=%v", tt.pct)
	}
}

func TestParse(t *testing.T) {
	r, ok := ParseRisk(" High ")
	assert.True(t, ok)
	assert.Equal(t, RiskHigh, r)
	_, ok = ParseRisk("extreme")
	assert.False(t, ok)

	rec, ok := ParseRecommendation("SELL")
	assert.True(t, ok)
	assert.Equal(t, Sell, rec)
	_, ok = ParseRecommendation("")
	assert.False(t, ok)
}
