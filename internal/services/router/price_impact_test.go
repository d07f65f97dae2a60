package router

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculatePriceImpact(t *testing.T) {
	tests := []struct {
		name                string
		refIn, refOut       int64
		amountIn, amountOut int64
		want                uint16
	}{
		{"no impact", 1000, 1000, 1_000_000, 1_000_000, 0},
		{"three percent", 1000, 1000, 1_000_000, 970_000, 300},
		{"better than reference", 1000, 990, 1_000_000, 1_000_000, 0},
		{"different decimals", 1_000_000, 2_000_000_000_000, 10_000_000, 19_000_000_000_000, 500},
		{"total loss", 1000, 1000, 1_000_000, 0, 10000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculatePriceImpact(big.NewInt(tt.refIn), big.NewInt(tt.refOut), big.NewInt(tt.amountIn), big.NewInt(tt.amountOut))
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Zero(t, CalculatePriceImpact(nil, big.NewInt(1), big.NewInt(1), big.NewInt(1)))
	assert.Zero(t, CalculatePriceImpact(big.NewInt(1), big.NewInt(0), big.NewInt(1), big.NewInt(1)))
}

func TestReferenceAmount(t *testing.T) {
	assert.Equal(t, int64(1_000_000), ReferenceAmount(big.NewInt(50_000_000), 6).Int64())
	assert.Equal(t, int64(500), ReferenceAmount(big.NewInt(500_000), 6).Int64())
	assert.Equal(t, int64(1), ReferenceAmount(big.NewInt(10), 6).Int64())
}

func TestPriceImpactSeverity(t *testing.T) {
	tests := []struct {
		bps  uint16
		want ImpactSeverity
	}{
		{0, SeverityNone},
		{99, SeverityNone},
		{100, SeverityLow},
		{299, SeverityLow},
		{300, SeverityModerate},
		{500, SeverityHigh},
		{999, SeverityHigh},
		{1000, SeverityExtreme},
		{65535, SeverityExtreme},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SeverityOf(tt.bps), "bps=%d", tt.bps)
	}

	assert.Empty(t, WarningOf(50))
	assert.Contains(t, WarningOf(2000), "EXTREME")
}
