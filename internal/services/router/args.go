package router

import (
	"math/big"

	"github.com/hxuan190/curve-route-engine/internal/domain"
	"github.com/hxuan190/curve-route-engine/internal/network"
)

// BuildExchangeArgs serializes a route into the fixed-size arrays the router
// contract expects. The empty route serializes to all-zero arrays.
func BuildExchangeArgs(net network.Network, route domain.Route) (domain.ExchangeArgs, error) {
	args := domain.ExchangeArgs{
		ABI:        net.RouterABI,
		NeedsPools: net.RouterNeedsPools && net.RouterABI == domain.RouterABING,
	}
	for i := range args.SwapParams {
		for j := range args.SwapParams[i] {
			args.SwapParams[i][j] = new(big.Int)
		}
	}
	if route.Len() > domain.MaxHops {
		return args, ErrRouteTooLong
	}
	if route.IsEmpty() {
		return args, nil
	}

	args.Route[0] = route.Steps[0].InputCoin
	for i, step := range route.Steps {
		args.Route[2*i+1] = step.SwapAddress
		args.Route[2*i+2] = step.OutputCoin
		for j, p := range step.SwapParams {
			args.SwapParams[i][j].SetUint64(p)
		}
		// only zap swaps need the pool next to the zap address
		if step.SwapType() == domain.SwapTypeExchangeUnderlyingZap {
			args.Pools[i] = step.PoolAddress
		}
		args.BasePools[i] = step.BasePool
		args.BaseTokens[i] = step.BaseToken
		args.SecondBasePools[i] = step.SecondBasePool
		args.SecondBaseTokens[i] = step.SecondBaseToken
	}
	return args, nil
}

// MinOutput applies slippage in basis points to an expected output
func MinOutput(expected *big.Int, slippageBps uint16) *big.Int {
	if expected == nil {
		return new(big.Int)
	}
	if slippageBps >= 10000 {
		return new(big.Int)
	}
	out := new(big.Int).Mul(expected, big.NewInt(int64(10000-slippageBps)))
	return out.Div(out, BPS_DENOM)
}
