package router

import (
	"bytes"
	"math"
	"slices"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/curve-route-engine/internal/domain"
	"github.com/hxuan190/curve-route-engine/internal/network"
)

// MaxEdgesPerPair limits pool edges kept for one ordered coin pair
const MaxEdgesPerPair = 3

// maxLPCoins bounds the coin count for deposit/withdraw edges
const maxLPCoins = 6

// RouteGraph maps input coin -> output coin -> candidate hops
type RouteGraph map[common.Address]map[common.Address][]domain.RouteStep

// GraphInput is everything a graph build reads. Pools is keyed by pool id.
type GraphInput struct {
	Network       network.Network
	Pools         map[string]*domain.Pool
	Amplification map[common.Address]float64
	TVL           map[string]float64
}

type GraphStats struct {
	PoolsTotal   int `json:"poolsTotal"`
	PoolsUsed    int `json:"poolsUsed"`
	PoolsSkipped int `json:"poolsSkipped"`
	Edges        int `json:"edges"`
}

func (g RouteGraph) addEdge(step domain.RouteStep) {
	neighbors, ok := g[step.InputCoin]
	if !ok {
		neighbors = make(map[common.Address][]domain.RouteStep)
		g[step.InputCoin] = neighbors
	}
	neighbors[step.OutputCoin] = append(neighbors[step.OutputCoin], step)
}

// Edges returns the hops from in to out
func (g RouteGraph) Edges(in, out common.Address) []domain.RouteStep {
	return g[in][out]
}

// OutCoins returns the neighbours of in sorted by address so traversal order is stable
func (g RouteGraph) OutCoins(in common.Address) []common.Address {
	neighbors := g[in]
	out := make([]common.Address, 0, len(neighbors))
	for c := range neighbors {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b common.Address) int { return bytes.Compare(a[:], b[:]) })
	return out
}

func (g RouteGraph) EdgeCount() int {
	n := 0
	for _, neighbors := range g {
		for _, steps := range neighbors {
			n += len(steps)
		}
	}
	return n
}

// capEdges keeps the highest-tvl edges per pair. Stable sort keeps catalogue order among ties.
func (g RouteGraph) capEdges(limit int) {
	for _, neighbors := range g {
		for out, steps := range neighbors {
			if len(steps) <= 1 {
				continue
			}
			sort.SliceStable(steps, func(i, j int) bool { return steps[i].TVL > steps[j].TVL })
			if len(steps) > limit {
				neighbors[out] = steps[:limit:limit]
			}
		}
	}
}

// BuildGraph turns the pool catalogue into the routing multigraph.
// It only reads its input and returns a fresh graph each call.
func BuildGraph(in GraphInput) (RouteGraph, GraphStats) {
	g := make(RouteGraph)
	stats := GraphStats{PoolsTotal: len(in.Pools)}

	addNetworkEdges(g, in.Network)

	ids := make([]string, 0, len(in.Pools))
	for id := range in.Pools {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		pool := in.Pools[id]
		tvl := poolTVL(pool, in)
		if tvl < in.Network.MinPoolTVL {
			stats.PoolsSkipped++
			continue
		}
		base := resolveBase(pool, in.Pools)
		addPoolEdges(g, in.Network, pool, base, tvl)
		stats.PoolsUsed++
	}

	g.capEdges(MaxEdgesPerPair)
	stats.Edges = g.EdgeCount()
	return g, stats
}

func poolTVL(pool *domain.Pool, in GraphInput) float64 {
	tvl := in.TVL[pool.ID]
	if pool.IsCrypto() {
		return tvl
	}
	if amp, ok := in.Amplification[pool.Address]; ok && amp > 0 {
		return tvl * amp
	}
	return tvl
}

func fixedStep(id string, swapAddress, from, to common.Address, swapType domain.SwapType) domain.RouteStep {
	return domain.RouteStep{
		PoolID:      id,
		SwapAddress: swapAddress,
		InputCoin:   from,
		OutputCoin:  to,
		SwapParams:  domain.NewSwapParams(0, 0, swapType, domain.PoolTypeNone, 0),
		TVL:         math.Inf(1),
	}
}

func addNetworkEdges(g RouteGraph, net network.Network) {
	wrapped := net.WrappedNative
	if !net.SkipNativeWrap && wrapped != (common.Address{}) {
		id := "W" + net.NativeSymbol + " wrapper"
		g.addEdge(fixedStep(id, wrapped, network.NativeToken, wrapped, domain.SwapTypeWrapper))
		g.addEdge(fixedStep(id, wrapped, wrapped, network.NativeToken, domain.SwapTypeWrapper))
	}

	for _, w := range net.Wrappers {
		g.addEdge(fixedStep(w.ID, w.SwapAddress, w.From, w.To, domain.SwapTypeWrapper))
		if w.Bidirectional {
			g.addEdge(fixedStep(w.ID, w.SwapAddress, w.To, w.From, domain.SwapTypeWrapper))
		}
	}

	if ex := net.SynthExchanger; ex != nil {
		for _, from := range ex.Coins {
			for _, to := range ex.Coins {
				if from == to {
					continue
				}
				g.addEdge(fixedStep("SNX exchanger", ex.Address, from, to, domain.SwapTypeSynthExchanger))
			}
		}
	}
}

type baseInfo struct {
	pool            *domain.Pool
	basePool        common.Address
	baseToken       common.Address
	secondBasePool  common.Address
	secondBaseToken common.Address
}

func (b baseInfo) isLending() bool {
	return b.pool != nil && b.pool.IsLending()
}

// underlying returns the base pool's underlying coins; hops between two of them belong to the base pool
func (b baseInfo) underlying() []common.Address {
	if b.pool == nil {
		return nil
	}
	return b.pool.UnderlyingCoins
}

func resolveBase(pool *domain.Pool, pools map[string]*domain.Pool) baseInfo {
	if !pool.IsMeta() || pool.BasePoolID == "" {
		return baseInfo{}
	}
	base, ok := pools[pool.BasePoolID]
	if !ok {
		log.Warn().Str("pool", pool.ID).Str("basePool", pool.BasePoolID).Msg("[routeGraph] base pool missing, treating pool as non-meta")
		return baseInfo{}
	}

	info := baseInfo{
		pool:      base,
		basePool:  base.Address,
		baseToken: base.LPToken,
	}
	if base.BasePoolID == "" {
		return info
	}
	second, ok := pools[base.BasePoolID]
	if !ok {
		log.Warn().Str("pool", base.ID).Str("basePool", base.BasePoolID).Msg("[routeGraph] second base pool missing")
		return info
	}
	info.secondBasePool = second.Address
	info.secondBaseToken = second.LPToken
	// double-meta pools route through the base pool's zap
	info.baseToken = base.DepositAddress
	return info
}

func addPoolEdges(g RouteGraph, net network.Network, pool *domain.Pool, base baseInfo, tvl float64) {
	poolType := pool.Type()
	swapAddress := pool.Address
	if pool.IsFake() {
		swapAddress = pool.DepositAddress
	}
	underlyingExcluded := net.IsUnderlyingExcluded(pool.ID)

	// LP <-> wrapped coins
	if !pool.IsFake() && !pool.IsLlamma() && len(pool.WrappedCoins) < maxLPCoins {
		addLPEdges(g, pool, swapAddress, pool.WrappedCoins, poolType, tvl, domain.SwapTypeAddLiquidity, domain.SwapTypeRemoveLiquidityOneCoin)
	}

	// LP <-> underlying coins
	aaveLike := pool.IsAaveLikeLending()
	if (pool.IsFake() || aaveLike) && len(pool.UnderlyingCoins) < maxLPCoins && !underlyingExcluded {
		deposit, withdraw := domain.SwapTypeAddLiquidity, domain.SwapTypeRemoveLiquidityOneCoin
		if aaveLike {
			deposit, withdraw = domain.SwapTypeAddLiquidityUnderlying, domain.SwapTypeRemoveLiquidityOneCoinUnderlying
		}
		addLPEdges(g, pool, swapAddress, pool.UnderlyingCoins, poolType, tvl, deposit, withdraw)
	}

	// wrapped <-> wrapped
	if !pool.IsFake() {
		n := len(pool.WrappedCoins)
		for i, in := range pool.WrappedCoins {
			for j, out := range pool.WrappedCoins {
				if i == j {
					continue
				}
				g.addEdge(poolStep(pool, swapAddress, base, in, out, domain.NewSwapParams(i, j, domain.SwapTypeExchange, poolType, n), tvl))
			}
		}
	}

	// underlying <-> underlying
	if pool.IsPlain() || underlyingExcluded {
		return
	}
	underlyingSwapAddress := pool.Address
	if (pool.IsCrypto() && pool.IsMeta()) || (base.isLending() && pool.IsFactory()) {
		underlyingSwapAddress = pool.DepositAddress
	}
	swapType := underlyingSwapType(net, pool, base)
	metaCoins := base.underlying()
	n := len(pool.UnderlyingCoins)
	for i, in := range pool.UnderlyingCoins {
		if net.SkipsUnderlyingIndex(pool.ID, i) {
			continue
		}
		for j, out := range pool.UnderlyingCoins {
			if i == j {
				continue
			}
			if slices.Contains(metaCoins, in) && slices.Contains(metaCoins, out) {
				continue
			}
			g.addEdge(poolStep(pool, underlyingSwapAddress, base, in, out, domain.NewSwapParams(i, j, swapType, poolType, n), tvl))
		}
	}
}

func underlyingSwapType(net network.Network, pool *domain.Pool, base baseInfo) domain.SwapType {
	cryptoMetaFactory := pool.IsCrypto() && pool.IsMeta() && pool.IsFactory()
	lendingBaseFactory := base.isLending() && pool.IsFactory()
	switch {
	case cryptoMetaFactory || lendingBaseFactory:
		return domain.SwapTypeExchangeUnderlyingZap
	case slices.Contains(pool.UnderlyingCoins, network.NativeToken) && !net.ExcludesNativeExchange(pool.ID):
		return domain.SwapTypeExchange
	default:
		return domain.SwapTypeExchangeUnderlying
	}
}

// addLPEdges links every coin with the LP token. Index 0 is the LP token itself.
// A pool listing its own LP token among its coins gets no LP to LP hop.
func addLPEdges(
	g RouteGraph,
	pool *domain.Pool,
	swapAddress common.Address,
	coins []common.Address,
	poolType domain.PoolType,
	tvl float64,
	deposit, withdraw domain.SwapType,
) {
	n := len(coins)
	for k, coin := range coins {
		if coin == pool.LPToken {
			continue
		}
		g.addEdge(domain.RouteStep{
			PoolID:      pool.ID,
			SwapAddress: swapAddress,
			InputCoin:   coin,
			OutputCoin:  pool.LPToken,
			SwapParams:  domain.NewSwapParams(k, 0, deposit, poolType, n),
			TVL:         tvl,
		})
		g.addEdge(domain.RouteStep{
			PoolID:      pool.ID,
			SwapAddress: swapAddress,
			InputCoin:   pool.LPToken,
			OutputCoin:  coin,
			SwapParams:  domain.NewSwapParams(0, k, withdraw, poolType, n),
			TVL:         tvl,
		})
	}
}

func poolStep(pool *domain.Pool, swapAddress common.Address, base baseInfo, in, out common.Address, params domain.SwapParams, tvl float64) domain.RouteStep {
	return domain.RouteStep{
		PoolID:          pool.ID,
		SwapAddress:     swapAddress,
		InputCoin:       in,
		OutputCoin:      out,
		SwapParams:      params,
		PoolAddress:     pool.Address,
		BasePool:        base.basePool,
		BaseToken:       base.baseToken,
		SecondBasePool:  base.secondBasePool,
		SecondBaseToken: base.secondBaseToken,
		TVL:             tvl,
	}
}
