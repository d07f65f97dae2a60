package router

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"

	"github.com/hxuan190/curve-route-engine/internal/domain"
)

var (
	BPS_DENOM = big.NewInt(10000)

	u256Max = new(uint256.Int).SetAllOne()
)

// toU256 saturates instead of wrapping on overflow
func toU256(x *big.Int) *uint256.Int {
	if x == nil || x.Sign() <= 0 {
		return new(uint256.Int)
	}
	v, overflow := uint256.FromBig(x)
	if overflow {
		return new(uint256.Int).Set(u256Max)
	}
	return v
}

// gasCostWei returns gas*gasPrice + l1Gas*l1GasPrice
func gasCostWei(est domain.GasEstimate, gasPrice, l1GasPrice *big.Int) *uint256.Int {
	total := new(uint256.Int)
	if _, overflow := total.MulOverflow(uint256.NewInt(est.Gas), toU256(gasPrice)); overflow {
		return new(uint256.Int).Set(u256Max)
	}
	if est.L1Gas == 0 || l1GasPrice == nil {
		return total
	}
	l1 := new(uint256.Int)
	if _, overflow := l1.MulOverflow(uint256.NewInt(est.L1Gas), toU256(l1GasPrice)); overflow {
		return new(uint256.Int).Set(u256Max)
	}
	if _, overflow := total.AddOverflow(total, l1); overflow {
		return new(uint256.Int).Set(u256Max)
	}
	return total
}

// txCostUSD converts a wei cost to USD with the gas token rate
func txCostUSD(costWei *uint256.Int, gasTokenUSD float64) decimal.Decimal {
	return decimal.NewFromBigInt(costWei.ToBig(), -18).Mul(decimal.NewFromFloat(gasTokenUSD))
}

// amountUSD converts base units to USD
func amountUSD(amount *big.Int, decimals uint8, rate float64) decimal.Decimal {
	if amount == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(amount, -int32(decimals)).Mul(decimal.NewFromFloat(rate))
}

// FormatUnits renders base units as a decimal string
func FormatUnits(amount *big.Int, decimals uint8) string {
	if amount == nil {
		return "0"
	}
	return decimal.NewFromBigInt(amount, -int32(decimals)).String()
}

