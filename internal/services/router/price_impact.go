package router

import (
	"math"
	"math/big"
)

// ImpactSeverity buckets a price impact for display
type ImpactSeverity string

const (
	SeverityNone     ImpactSeverity = "none"
	SeverityLow      ImpactSeverity = "low"
	SeverityModerate ImpactSeverity = "moderate"
	SeverityHigh     ImpactSeverity = "high"
	SeverityExtreme  ImpactSeverity = "extreme"
)

type impactBand struct {
	from     uint16
	severity ImpactSeverity
	warning  string
}

// impactBands is ordered by descending lower bound; anything under 1% is none
var impactBands = []impactBand{
	{1000, SeverityExtreme, "EXTREME price impact: the route drains most of the pool depth at this size"},
	{500, SeverityHigh, "High price impact: expect noticeably less than the spot rate"},
	{300, SeverityModerate, "Moderate price impact: consider splitting the trade"},
	{100, SeverityLow, "Low price impact"},
}

func bandFor(bps uint16) (impactBand, bool) {
	for _, b := range impactBands {
		if bps >= b.from {
			return b, true
		}
	}
	return impactBand{}, false
}

// SeverityOf maps an impact in bps to its severity bucket
func SeverityOf(bps uint16) ImpactSeverity {
	if b, ok := bandFor(bps); ok {
		return b.severity
	}
	return SeverityNone
}

// WarningOf returns the user-facing warning for an impact, empty below 1%
func WarningOf(bps uint16) string {
	b, _ := bandFor(bps)
	return b.warning
}

// CalculatePriceImpact compares the rate of a small reference trade with the rate
// of the actual trade along the same route.
// impact = (1 - (out/in) / (refOut/refIn)) * 10000 = (refOut*in - out*refIn) * 10000 / (refOut*in)
// A better actual rate yields zero.
func CalculatePriceImpact(refIn, refOut, amountIn, amountOut *big.Int) uint16 {
	if refIn == nil || refOut == nil || amountIn == nil || amountOut == nil {
		return 0
	}
	if refIn.Sign() <= 0 || refOut.Sign() <= 0 || amountIn.Sign() <= 0 || amountOut.Sign() < 0 {
		return 0
	}

	refValue := new(big.Int).Mul(refOut, amountIn)
	actual := new(big.Int).Mul(amountOut, refIn)
	if actual.Cmp(refValue) >= 0 {
		return 0
	}

	impact := new(big.Int).Sub(refValue, actual)
	impact.Mul(impact, BPS_DENOM)
	impact.Div(impact, refValue)

	if !impact.IsUint64() || impact.Uint64() > math.MaxUint16 {
		return math.MaxUint16
	}
	return uint16(impact.Uint64())
}

// ReferenceAmount picks the small trade used as the spot rate.
// It is one whole token, or amount/1000 when the trade itself is not larger than a token.
func ReferenceAmount(amount *big.Int, decimals uint8) *big.Int {
	one := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	if amount.Cmp(one) > 0 {
		return one
	}
	ref := new(big.Int).Div(amount, big.NewInt(1000))
	if ref.Sign() == 0 {
		ref.SetInt64(1)
	}
	return ref
}
