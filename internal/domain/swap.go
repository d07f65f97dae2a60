package domain

import "fmt"

type SwapType uint8

const (
	SwapTypeExchange SwapType = iota + 1
	SwapTypeExchangeUnderlying
	SwapTypeExchangeUnderlyingZap
	SwapTypeAddLiquidity
	SwapTypeAddLiquidityUnderlying
	SwapTypeRemoveLiquidityOneCoin
	SwapTypeRemoveLiquidityOneCoinUnderlying
	SwapTypeWrapper
	SwapTypeSynthExchanger
)

func (s SwapType) String() string {
	switch s {
	case SwapTypeExchange:
		return "exchange"
	case SwapTypeExchangeUnderlying:
		return "exchange_underlying"
	case SwapTypeExchangeUnderlyingZap:
		return "exchange_underlying_zap"
	case SwapTypeAddLiquidity:
		return "add_liquidity"
	case SwapTypeAddLiquidityUnderlying:
		return "add_liquidity_underlying"
	case SwapTypeRemoveLiquidityOneCoin:
		return "remove_liquidity_one_coin"
	case SwapTypeRemoveLiquidityOneCoinUnderlying:
		return "remove_liquidity_one_coin_underlying"
	case SwapTypeWrapper:
		return "wrapper"
	case SwapTypeSynthExchanger:
		return "synth_exchanger"
	default:
		return fmt.Sprintf("swap_type(%d)", uint8(s))
	}
}

// EquivalenceClass folds withdrawals onto the matching deposit so a route
// cannot deposit into a pool and withdraw from it again.
func (s SwapType) EquivalenceClass() SwapType {
	switch s {
	case SwapTypeRemoveLiquidityOneCoin:
		return SwapTypeAddLiquidity
	case SwapTypeRemoveLiquidityOneCoinUnderlying:
		return SwapTypeAddLiquidityUnderlying
	default:
		return s
	}
}

// PoolType is the implementation discriminant passed to the router contract.
type PoolType uint8

const (
	PoolTypeNone      PoolType = 0
	PoolTypeStable    PoolType = 1
	PoolTypeTwoCrypto PoolType = 2
	PoolTypeTriCrypto PoolType = 3
	PoolTypeLlamma    PoolType = 4
)

func (p PoolType) String() string {
	base := p
	ng := ""
	if p >= 10 {
		base = p / 10
		ng = "-ng"
	}
	switch base {
	case PoolTypeNone:
		return "none"
	case PoolTypeStable:
		return "stable" + ng
	case PoolTypeTwoCrypto:
		return "twocrypto" + ng
	case PoolTypeTriCrypto:
		return "tricrypto" + ng
	case PoolTypeLlamma:
		return "llamma" + ng
	default:
		return "UNKNOWN"
	}
}
