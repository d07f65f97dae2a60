package router

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/hxuan190/curve-route-engine/internal/adapters/chain"
	"github.com/hxuan190/curve-route-engine/internal/cache"
	"github.com/hxuan190/curve-route-engine/internal/domain"
	"github.com/hxuan190/curve-route-engine/internal/metrics"
	"github.com/hxuan190/curve-route-engine/internal/network"
	"github.com/hxuan190/curve-route-engine/internal/services/priority"
)

// DefaultGasCacheTTL is how long a route's simulated gas estimate is reused
const DefaultGasCacheTTL = time.Hour

// DefaultFallbackGasTTL is how long a per-hop default stands in for a failed simulation
const DefaultFallbackGasTTL = 30 * time.Second

const gasCacheSize = 4096

// ChainInterface is the read-only view of the router contract and chain the selector needs
type ChainInterface interface {
	BatchQuote(ctx context.Context, args []domain.ExchangeArgs, amount *big.Int) ([]*big.Int, error)
	Quote(ctx context.Context, args domain.ExchangeArgs, amount *big.Int) (*big.Int, error)
	QuoteRequired(ctx context.Context, args domain.ExchangeArgs, amountOut *big.Int) (*big.Int, error)
	EstimateGas(ctx context.Context, args domain.ExchangeArgs, amount *big.Int) (domain.GasEstimate, error)
	CurrentGasPrice(ctx context.Context) (*big.Int, error)
	CurrentL1DataGasPrice(ctx context.Context) (*big.Int, error)
}

// GasPriceSource lets a cache sit in front of the chain's gas price calls
type GasPriceSource interface {
	CurrentGasPrice(ctx context.Context) (*big.Int, error)
	CurrentL1DataGasPrice(ctx context.Context) (*big.Int, error)
}

type PriceProvider interface {
	USDRate(ctx context.Context, token common.Address) (float64, error)
}

type DecimalsLookup interface {
	Decimals(token common.Address) (uint8, bool)
}

// Selector quotes candidate routes and picks the one with the best output value net of gas
type Selector struct {
	net       network.Network
	chain     ChainInterface
	gasPrices GasPriceSource
	prices    PriceProvider
	decimals  DecimalsLookup
	gasCache  *cache.TTLCache[string, domain.GasEstimate]

	// defaults from failed simulations, retried sooner than gasCache
	fallbackGas *cache.TTLCache[string, domain.GasEstimate]
}

type SelectorConfig struct {
	Network     network.Network
	Chain       ChainInterface
	GasPrices   GasPriceSource
	Prices      PriceProvider
	Decimals    DecimalsLookup
	GasCacheTTL time.Duration
	Clock       cache.Clock
}

func NewSelector(cfg SelectorConfig) *Selector {
	ttl := cfg.GasCacheTTL
	if ttl <= 0 {
		ttl = DefaultGasCacheTTL
	}
	gasPrices := cfg.GasPrices
	if gasPrices == nil {
		gasPrices = cfg.Chain
	}
	return &Selector{
		net:         cfg.Network,
		chain:       cfg.Chain,
		gasPrices:   gasPrices,
		prices:      cfg.Prices,
		decimals:    cfg.Decimals,
		gasCache:    cache.NewTTLCache[string, domain.GasEstimate](gasCacheSize, ttl, cfg.Clock),
		fallbackGas: cache.NewTTLCache[string, domain.GasEstimate](gasCacheSize, DefaultFallbackGasTTL, cfg.Clock),
	}
}

func (s *Selector) decimalsOf(token common.Address) uint8 {
	if s.decimals != nil {
		if d, ok := s.decimals.Decimals(token); ok {
			return d
		}
	}
	return 18
}

type quotedRoute struct {
	route  domain.Route
	args   domain.ExchangeArgs
	output *big.Int
}

// Select returns the best candidate for amount. Quote failures drop the route.
// When candidates exist but none could be quoted it returns the empty route with
// ErrAllQuotesFailed, so callers can tell chain trouble from a missing route.
func (s *Selector) Select(ctx context.Context, candidates []domain.Route, amount *big.Int, outputCoin common.Address) (*domain.BestRouteResult, error) {
	if amount == nil || amount.Sign() <= 0 || len(candidates) == 0 {
		return domain.NoRoute(), nil
	}

	quoted := s.quoteAll(ctx, candidates, amount)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(quoted) == 0 {
		log.Warn().Int("candidates", len(candidates)).Msg("[routeSelector] no candidate could be quoted")
		return domain.NoRoute(), ErrAllQuotesFailed
	}
	if len(quoted) == 1 {
		q := quoted[0]
		return &domain.BestRouteResult{
			Route:      q.route,
			Output:     q.output,
			Candidates: []domain.RankedRoute{{Route: q.route, Output: q.output}},
		}, nil
	}

	better := betterNet
	ranked, err := s.rank(ctx, quoted, amount, outputCoin)
	if err != nil {
		log.Warn().Err(err).Msg("[routeSelector] cost inputs unavailable, ranking by output only")
		ranked = rankByOutput(quoted)
		better = betterOutput
	}

	best := 0
	for i := 1; i < len(ranked); i++ {
		if better(ranked[i], ranked[best]) {
			best = i
		}
	}
	return &domain.BestRouteResult{
		Route:      ranked[best].Route,
		Output:     ranked[best].Output,
		Candidates: ranked,
	}, nil
}

// betterNet prefers higher net value, then the shorter route
func betterNet(a, b domain.RankedRoute) bool {
	if an, bn := a.NetUSD(), b.NetUSD(); an != bn {
		return an > bn
	}
	return a.Route.Len() < b.Route.Len()
}

func betterOutput(a, b domain.RankedRoute) bool {
	if c := a.Output.Cmp(b.Output); c != 0 {
		return c > 0
	}
	return a.Route.Len() < b.Route.Len()
}

func rankByOutput(quoted []quotedRoute) []domain.RankedRoute {
	ranked := make([]domain.RankedRoute, len(quoted))
	for i, q := range quoted {
		ranked[i] = domain.RankedRoute{Route: q.route, Output: q.output}
	}
	return ranked
}

// quoteAll batch-quotes every candidate, retrying one by one if the batch fails
func (s *Selector) quoteAll(ctx context.Context, candidates []domain.Route, amount *big.Int) []quotedRoute {
	routes := make([]quotedRoute, 0, len(candidates))
	args := make([]domain.ExchangeArgs, 0, len(candidates))
	for _, r := range candidates {
		a, err := BuildExchangeArgs(s.net, r)
		if err != nil {
			log.Warn().Err(err).Str("route", r.PoolSignature()).Msg("[routeSelector] skipping unserializable route")
			continue
		}
		routes = append(routes, quotedRoute{route: r, args: a})
		args = append(args, a)
	}
	if len(routes) == 0 {
		return nil
	}

	outputs, err := s.chain.BatchQuote(ctx, args, amount)
	if err == nil && len(outputs) == len(routes) {
		return keepQuoted(routes, outputs)
	}
	if err != nil {
		log.Warn().Err(err).Int("routes", len(routes)).Msg("[routeSelector] batch quote failed, quoting routes one by one")
	}

	outputs = make([]*big.Int, len(routes))
	for i, r := range routes {
		if ctx.Err() != nil {
			return nil
		}
		out, err := s.chain.Quote(ctx, r.args, amount)
		if err != nil {
			metrics.QuoteFailures.Inc()
			log.Warn().Err(err).Str("route", r.route.PoolSignature()).Msg("[routeSelector] route is unavailable, dropping")
			continue
		}
		outputs[i] = out
	}
	return keepQuoted(routes, outputs)
}

func keepQuoted(routes []quotedRoute, outputs []*big.Int) []quotedRoute {
	kept := routes[:0]
	for i, r := range routes {
		if outputs[i] == nil || outputs[i].Sign() <= 0 {
			continue
		}
		r.output = outputs[i]
		kept = append(kept, r)
	}
	return kept
}

// rank fetches gas estimates, gas prices and USD rates concurrently and values every route
func (s *Selector) rank(ctx context.Context, quoted []quotedRoute, amount *big.Int, outputCoin common.Address) ([]domain.RankedRoute, error) {
	var (
		gas        = make([]domain.GasEstimate, len(quoted))
		outputRate float64
		gasRate    float64
		gasPrice   *big.Int
		l1Price    *big.Int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for i, q := range quoted {
			gas[i] = s.estimateGas(gctx, q, amount)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		outputRate, err = s.prices.USDRate(gctx, outputCoin)
		return err
	})
	g.Go(func() error {
		var err error
		gasRate, err = s.prices.USDRate(gctx, network.NativeToken)
		return err
	})
	g.Go(func() error {
		var err error
		gasPrice, err = s.gasPrices.CurrentGasPrice(gctx)
		return err
	})
	if s.net.L2 {
		g.Go(func() error {
			var err error
			l1Price, err = s.gasPrices.CurrentL1DataGasPrice(gctx)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	decimals := s.decimalsOf(outputCoin)
	ranked := make([]domain.RankedRoute, len(quoted))
	for i, q := range quoted {
		cost := txCostUSD(gasCostWei(gas[i], gasPrice, l1Price), gasRate)
		ranked[i] = domain.RankedRoute{
			Route:     q.route,
			Output:    q.output,
			Gas:       gas[i].Gas,
			L1Gas:     gas[i].L1Gas,
			OutputUSD: amountUSD(q.output, decimals, outputRate).InexactFloat64(),
			TxCostUSD: cost.InexactFloat64(),
		}
	}
	return ranked, nil
}

func (s *Selector) estimateGas(ctx context.Context, q quotedRoute, amount *big.Int) domain.GasEstimate {
	key := q.route.Key()
	if est, ok := s.gasCache.Get(key); ok {
		metrics.CacheHits.WithLabelValues("gas").Inc()
		return est
	}
	if est, ok := s.fallbackGas.Get(key); ok {
		metrics.CacheHits.WithLabelValues("gas").Inc()
		return est
	}
	metrics.CacheMisses.WithLabelValues("gas").Inc()

	estimator := priority.NewGasEstimator(func(ctx context.Context, args domain.ExchangeArgs) (domain.GasEstimate, error) {
		return s.chain.EstimateGas(ctx, args, amount)
	})
	if s.net.L2 {
		estimator.WithL1Gas(func(args domain.ExchangeArgs) uint64 {
			gas, err := chain.ExchangeL1DataGas(args, amount)
			if err != nil {
				log.Warn().Err(err).Str("route", q.route.PoolSignature()).Msg("[routeSelector] cannot size calldata for L1 fee")
				return 0
			}
			return gas
		})
	}
	res := estimator.Estimate(ctx, q.route, q.args)
	switch {
	case res.Simulated:
		s.gasCache.Set(key, res.Estimate)
	case ctx.Err() == nil:
		s.fallbackGas.Set(key, res.Estimate)
	}
	return res.Estimate
}
