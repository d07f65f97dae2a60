package priority

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/hxuan190/curve-route-engine/internal/domain"
)

// Default gas when estimation fails
const (
	BaseRouterGas uint64  = 60000
	GasBuffer     float64 = 1.1 // 10% buffer
	MaxRouteGas   uint64  = 3000000
)

// defaultGasPerHop approximates the gas of one hop by swap type
var defaultGasPerHop = map[domain.SwapType]uint64{
	domain.SwapTypeExchange:                         160000,
	domain.SwapTypeExchangeUnderlying:               260000,
	domain.SwapTypeExchangeUnderlyingZap:            380000,
	domain.SwapTypeAddLiquidity:                     220000,
	domain.SwapTypeAddLiquidityUnderlying:           320000,
	domain.SwapTypeRemoveLiquidityOneCoin:           200000,
	domain.SwapTypeRemoveLiquidityOneCoinUnderlying: 300000,
	domain.SwapTypeWrapper:                          70000,
	domain.SwapTypeSynthExchanger:                   450000,
}

// GasEstimator estimates router gas, falling back to per-hop defaults when the
// node cannot simulate the call (no balance, no allowance, revert).
type GasEstimator struct {
	simulate func(ctx context.Context, args domain.ExchangeArgs) (domain.GasEstimate, error)
	l1Gas    func(args domain.ExchangeArgs) uint64
}

// NewGasEstimator wraps a simulation function; a nil function always uses defaults
func NewGasEstimator(simulate func(ctx context.Context, args domain.ExchangeArgs) (domain.GasEstimate, error)) *GasEstimator {
	return &GasEstimator{simulate: simulate}
}

// WithL1Gas sets the L1 data gas reported with a default estimate. L2 networks
// need it so a failed simulation still pays for its calldata.
func (e *GasEstimator) WithL1Gas(fn func(args domain.ExchangeArgs) uint64) *GasEstimator {
	e.l1Gas = fn
	return e
}

// GasEstimateResult holds the estimation result
type GasEstimateResult struct {
	Estimate  domain.GasEstimate
	Simulated bool
}

// Estimate never fails; a failed simulation yields the default for the route shape
func (e *GasEstimator) Estimate(ctx context.Context, route domain.Route, args domain.ExchangeArgs) GasEstimateResult {
	if e.simulate != nil {
		est, err := e.simulate(ctx, args)
		if err == nil && est.Gas > 0 {
			est.Gas = withBuffer(est.Gas)
			return GasEstimateResult{Estimate: est, Simulated: true}
		}
		if err != nil {
			log.Debug().Err(err).Str("route", route.PoolSignature()).Msg("[gasEstimator] simulation failed, using default gas")
		}
	}
	est := domain.GasEstimate{Gas: DefaultRouteGas(route)}
	if e.l1Gas != nil {
		est.L1Gas = e.l1Gas(args)
	}
	return GasEstimateResult{Estimate: est}
}

// DefaultRouteGas is the fallback gas for a route
func DefaultRouteGas(route domain.Route) uint64 {
	total := BaseRouterGas
	for _, step := range route.Steps {
		gas, ok := defaultGasPerHop[step.SwapType()]
		if !ok {
			gas = defaultGasPerHop[domain.SwapTypeExchange]
		}
		total += gas
	}
	return min(total, MaxRouteGas)
}

func withBuffer(gas uint64) uint64 {
	return min(uint64(float64(gas)*GasBuffer), MaxRouteGas)
}
