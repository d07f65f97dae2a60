package router

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/hxuan190/curve-route-engine/internal/cache"
	"github.com/hxuan190/curve-route-engine/internal/domain"
	"github.com/hxuan190/curve-route-engine/internal/metrics"
	"github.com/hxuan190/curve-route-engine/internal/network"
	"github.com/hxuan190/curve-route-engine/internal/worker"
)

const (
	DefaultGraphTTL     = 15 * time.Second
	DefaultBestRouteTTL = 5 * time.Minute

	// searchTimeout bounds a shared best-route computation, which outlives any single caller
	searchTimeout = 30 * time.Second
)

// CatalogueSource supplies the pool catalogue and its liquidity snapshots
type CatalogueSource interface {
	Pools(ctx context.Context) (map[string]*domain.Pool, error)
	Amplifications(ctx context.Context) (map[common.Address]float64, error)
	TVLs(ctx context.Context) (map[string]float64, error)
}

type Config struct {
	Network   network.Network
	Catalogue CatalogueSource
	Chain     ChainInterface
	GasPrices GasPriceSource
	Prices    PriceProvider
	Decimals  DecimalsLookup
	Executor  *worker.Executor
	Clock     cache.Clock

	Finder       FinderOptions
	GraphTTL     time.Duration
	BestRouteTTL time.Duration
	GasCacheTTL  time.Duration
}

type graphSnapshot struct {
	graph   RouteGraph
	views   map[string]domain.PoolView
	stats   GraphStats
	builtAt time.Time
}

// Router answers best-route questions for one network. The graph is rebuilt at most
// once per GraphTTL and best routes are cached per (input, output, amount).
type Router struct {
	net       network.Network
	catalogue CatalogueSource
	chain     ChainInterface
	prices    PriceProvider
	selector  *Selector
	executor  *worker.Executor
	finder    FinderOptions
	clock     cache.Clock
	graphTTL  time.Duration

	graphMu  sync.Mutex
	snapshot *graphSnapshot
	lastTVL  map[string]float64

	bestRoutes *cache.TTLCache[uint64, *domain.BestRouteResult]
	inflight   singleflight.Group
}

func NewRouter(cfg Config) *Router {
	clock := cfg.Clock
	if clock == nil {
		clock = cache.SystemClock
	}
	graphTTL := cfg.GraphTTL
	if graphTTL <= 0 {
		graphTTL = DefaultGraphTTL
	}
	bestTTL := cfg.BestRouteTTL
	if bestTTL <= 0 {
		bestTTL = DefaultBestRouteTTL
	}

	return &Router{
		net:       cfg.Network,
		catalogue: cfg.Catalogue,
		chain:     cfg.Chain,
		prices:    cfg.Prices,
		selector: NewSelector(SelectorConfig{
			Network:     cfg.Network,
			Chain:       cfg.Chain,
			GasPrices:   cfg.GasPrices,
			Prices:      cfg.Prices,
			Decimals:    cfg.Decimals,
			GasCacheTTL: cfg.GasCacheTTL,
			Clock:       clock,
		}),
		executor:   cfg.Executor,
		finder:     cfg.Finder.normalize(),
		clock:      clock,
		graphTTL:   graphTTL,
		bestRoutes: cache.NewTTLCache[uint64, *domain.BestRouteResult](bestRouteCacheSize, bestTTL, clock),
	}
}

func (r *Router) Network() network.Network {
	return r.net
}

// Decimals returns the catalogue decimals of token, 18 when unknown
func (r *Router) Decimals(token common.Address) uint8 {
	return r.selector.decimalsOf(token)
}

// graph returns the cached graph, rebuilding it when older than the graph TTL.
// Concurrent callers that miss wait on the same rebuild.
func (r *Router) graph(ctx context.Context) (*graphSnapshot, error) {
	r.graphMu.Lock()
	defer r.graphMu.Unlock()

	if r.snapshot != nil && r.clock.Now().Before(r.snapshot.builtAt.Add(r.graphTTL)) {
		metrics.CacheHits.WithLabelValues("graph").Inc()
		return r.snapshot, nil
	}
	metrics.CacheMisses.WithLabelValues("graph").Inc()

	snap, err := r.buildSnapshot(ctx)
	if err != nil {
		if r.snapshot != nil && ctx.Err() == nil {
			log.Warn().Err(err).Msg("[router] graph rebuild failed, serving previous graph")
			return r.snapshot, nil
		}
		return nil, err
	}
	r.snapshot = snap
	return snap, nil
}

func (r *Router) buildSnapshot(ctx context.Context) (*graphSnapshot, error) {
	pools, err := r.catalogue.Pools(ctx)
	if err != nil {
		return nil, fmt.Errorf("load pools: %w", err)
	}
	if len(pools) == 0 {
		return nil, ErrCatalogueNotReady
	}

	amps, err := r.catalogue.Amplifications(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("[router] amplification lookup failed, using 1 for every pool")
		amps = nil
	}

	tvls, err := r.catalogue.TVLs(ctx)
	if err != nil {
		log.Warn().Err(err).Int("previous", len(r.lastTVL)).Msg("[router] tvl snapshot failed, keeping previous snapshot")
		tvls = r.lastTVL
	} else {
		r.lastTVL = tvls
	}

	start := time.Now()
	snap, err := worker.Run(ctx, r.executor, func() (*graphSnapshot, error) {
		g, stats := BuildGraph(GraphInput{
			Network:       r.net,
			Pools:         pools,
			Amplification: amps,
			TVL:           tvls,
		})
		views := make(map[string]domain.PoolView, len(pools))
		for id, p := range pools {
			views[id] = p.View()
		}
		return &graphSnapshot{graph: g, views: views, stats: stats}, nil
	})
	if err != nil {
		return nil, err
	}
	snap.builtAt = r.clock.Now()
	took := time.Since(start)

	metrics.GraphBuilds.Inc()
	metrics.GraphBuildDuration.Observe(took.Seconds())
	metrics.GraphEdges.Set(float64(snap.stats.Edges))
	metrics.GraphPoolsUsed.Set(float64(snap.stats.PoolsUsed))

	log.Info().
		Str("network", r.net.Name).
		Int("pools", snap.stats.PoolsTotal).
		Int("used", snap.stats.PoolsUsed).
		Int("skipped", snap.stats.PoolsSkipped).
		Int("edges", snap.stats.Edges).
		Dur("took", took).
		Msg("[router] route graph built")

	return snap, nil
}

// InvalidateGraph forces the next request to rebuild the graph
func (r *Router) InvalidateGraph() {
	r.graphMu.Lock()
	if r.snapshot != nil {
		r.snapshot.builtAt = time.Time{}
	}
	r.graphMu.Unlock()
	r.bestRoutes.Clear()
}

// PurgeExpired drops expired best-route and gas entries, returning how many were removed
func (r *Router) PurgeExpired() int {
	return r.bestRoutes.PurgeExpired() + r.selector.gasCache.PurgeExpired() + r.selector.fallbackGas.PurgeExpired()
}

// Candidates returns the deduplicated candidate routes between two coins
func (r *Router) Candidates(ctx context.Context, from, to common.Address) ([]domain.Route, error) {
	snap, err := r.graph(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	routes, err := worker.Run(ctx, r.executor, func() ([]domain.Route, error) {
		return FindRoutes(ctx, snap.graph, snap.views, from, to, r.finder)
	})
	if err != nil {
		return nil, err
	}
	metrics.RouteSearchDuration.Observe(time.Since(start).Seconds())
	metrics.RouteCandidates.Observe(float64(len(routes)))
	return routes, nil
}

// BestRoute returns the route with the highest output value net of gas.
// A zero amount returns the empty route before any graph work. Cached decisions
// are re-quoted on every read.
func (r *Router) BestRoute(ctx context.Context, from, to common.Address, amount *big.Int) (*domain.BestRouteResult, error) {
	if amount == nil || amount.Sign() <= 0 || from == to {
		return domain.NoRoute(), nil
	}

	start := time.Now()
	defer func() {
		metrics.QuoteDuration.Observe(time.Since(start).Seconds())
	}()

	key := routeCacheKey(from, to, amount)
	if cached, ok := r.bestRoutes.Get(key); ok {
		metrics.CacheHits.WithLabelValues("best_route").Inc()
		if res, ok := r.requote(ctx, cached, amount); ok {
			metrics.QuoteRequests.WithLabelValues("cached").Inc()
			return res, nil
		}
		r.bestRoutes.Delete(key)
	} else {
		metrics.CacheMisses.WithLabelValues("best_route").Inc()
	}

	ch := r.inflight.DoChan(strconv.FormatUint(key, 16), func() (any, error) {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), searchTimeout)
		defer cancel()

		res, err := r.findBestRoute(sctx, from, to, amount)
		if errors.Is(err, ErrAllQuotesFailed) {
			// chain trouble, not a missing route: answer empty but let the next request retry
			log.Warn().Str("from", domain.AddressKey(from)).Str("to", domain.AddressKey(to)).Msg("[router] every candidate failed to quote, not caching")
			return domain.NoRoute(), nil
		}
		if err != nil {
			return nil, err
		}
		r.bestRoutes.Set(key, res)
		return res, nil
	})

	var out singleflight.Result
	select {
	case out = <-ch:
	case <-ctx.Done():
		metrics.QuoteRequests.WithLabelValues("error").Inc()
		return nil, ctx.Err()
	}
	if out.Err != nil {
		metrics.QuoteRequests.WithLabelValues("error").Inc()
		return nil, out.Err
	}

	res := *out.Val.(*domain.BestRouteResult)
	if res.Route.IsEmpty() {
		metrics.QuoteRequests.WithLabelValues("no_route").Inc()
	} else {
		metrics.QuoteRequests.WithLabelValues("ok").Inc()
	}
	return &res, nil
}

func (r *Router) findBestRoute(ctx context.Context, from, to common.Address, amount *big.Int) (*domain.BestRouteResult, error) {
	candidates, err := r.Candidates(ctx, from, to)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		log.Debug().Str("from", domain.AddressKey(from)).Str("to", domain.AddressKey(to)).Msg("[router] no candidate routes")
		return domain.NoRoute(), nil
	}
	return r.selector.Select(ctx, candidates, amount, to)
}

func (r *Router) requote(ctx context.Context, cached *domain.BestRouteResult, amount *big.Int) (*domain.BestRouteResult, bool) {
	if cached.Route.IsEmpty() {
		return domain.NoRoute(), true
	}
	args, err := BuildExchangeArgs(r.net, cached.Route)
	if err != nil {
		return nil, false
	}
	out, err := r.chain.Quote(ctx, args, amount)
	if err != nil || out == nil || out.Sign() <= 0 {
		log.Warn().Err(err).Str("route", cached.Route.PoolSignature()).Msg("[router] cached route failed to re-quote, searching again")
		return nil, false
	}
	return &domain.BestRouteResult{Route: cached.Route, Output: out}, true
}

// Output is the expected output of the best route, zero when none exists
func (r *Router) Output(ctx context.Context, from, to common.Address, amount *big.Int) (*big.Int, error) {
	best, err := r.BestRoute(ctx, from, to, amount)
	if err != nil {
		return nil, err
	}
	return best.Output, nil
}

// RequiredInput returns the input needed to receive amountOut. The route is the best
// forward route for the input implied by USD rates, quoted in reverse.
func (r *Router) RequiredInput(ctx context.Context, from, to common.Address, amountOut *big.Int) (*big.Int, domain.Route, error) {
	if amountOut == nil || amountOut.Sign() <= 0 {
		return new(big.Int), domain.EmptyRoute(), nil
	}

	approx := r.approximateInput(ctx, from, to, amountOut)
	best, err := r.BestRoute(ctx, from, to, approx)
	if err != nil {
		return nil, domain.EmptyRoute(), err
	}
	if best.Route.IsEmpty() {
		return nil, domain.EmptyRoute(), ErrPairNotExchangeable
	}

	args, err := BuildExchangeArgs(r.net, best.Route)
	if err != nil {
		return nil, domain.EmptyRoute(), err
	}
	required, err := r.chain.QuoteRequired(ctx, args, amountOut)
	if err != nil {
		return nil, domain.EmptyRoute(), fmt.Errorf("quote required input: %w", err)
	}
	return required, best.Route, nil
}

// approximateInput converts amountOut to input units through USD rates, treating an unknown rate as 1
func (r *Router) approximateInput(ctx context.Context, from, to common.Address, amountOut *big.Int) *big.Int {
	inRate, outRate := 1.0, 1.0
	if r.prices != nil {
		if rate, err := r.prices.USDRate(ctx, from); err == nil && rate > 0 {
			inRate = rate
		}
		if rate, err := r.prices.USDRate(ctx, to); err == nil && rate > 0 {
			outRate = rate
		}
	}

	inDecimals := r.selector.decimalsOf(from)
	outDecimals := r.selector.decimalsOf(to)
	approx := decimal.NewFromBigInt(amountOut, -int32(outDecimals)).
		Mul(decimal.NewFromFloat(outRate)).
		Div(decimal.NewFromFloat(inRate)).
		Shift(int32(inDecimals)).
		Truncate(0).
		BigInt()
	if approx.Sign() <= 0 {
		approx.SetInt64(1)
	}
	return approx
}

// PriceImpact compares the best route's rate for amount with its rate for a small reference trade
func (r *Router) PriceImpact(ctx context.Context, from, to common.Address, amount *big.Int) (*domain.PriceImpactResult, error) {
	best, err := r.BestRoute(ctx, from, to, amount)
	if err != nil {
		return nil, err
	}
	if best.Route.IsEmpty() {
		return &domain.PriceImpactResult{Severity: string(SeverityNone)}, nil
	}

	args, err := BuildExchangeArgs(r.net, best.Route)
	if err != nil {
		return nil, err
	}
	ref := ReferenceAmount(amount, r.selector.decimalsOf(from))
	refOut, err := r.chain.Quote(ctx, args, ref)
	if err != nil {
		return nil, fmt.Errorf("quote reference amount: %w", err)
	}

	bps := CalculatePriceImpact(ref, refOut, amount, best.Output)
	severity := SeverityOf(bps)
	metrics.PriceImpact.WithLabelValues(string(severity)).Observe(float64(bps))

	return &domain.PriceImpactResult{
		Bps:      bps,
		Severity: string(severity),
		Warning:  WarningOf(bps),
	}, nil
}

// SwapArgs builds the router exchange call for the best route with a slippage bound
func (r *Router) SwapArgs(ctx context.Context, from, to common.Address, amount *big.Int, slippageBps uint16) (*domain.SwapCall, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}

	best, err := r.BestRoute(ctx, from, to, amount)
	if err != nil {
		return nil, err
	}
	if best.Route.IsEmpty() {
		return nil, ErrPairNotExchangeable
	}

	args, err := BuildExchangeArgs(r.net, best.Route)
	if err != nil {
		return nil, err
	}

	value := new(big.Int)
	if r.net.IsNative(from) {
		value.Set(amount)
	}

	return &domain.SwapCall{
		Route:     best.Route,
		Args:      args,
		Amount:    new(big.Int).Set(amount),
		Expected:  best.Output,
		MinOutput: MinOutput(best.Output, slippageBps),
		Value:     value,
	}, nil
}

