package router

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"

	"github.com/hxuan190/curve-route-engine/internal/domain"
	"github.com/hxuan190/curve-route-engine/internal/network"
)

var (
	usdc = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	usdt = common.HexToAddress("0x00000000000000000000000000000000000000a2")
	dai  = common.HexToAddress("0x00000000000000000000000000000000000000a3")
	frax = common.HexToAddress("0x00000000000000000000000000000000000000a4")
	wbtc = common.HexToAddress("0x00000000000000000000000000000000000000a5")
	weth = common.HexToAddress("0x00000000000000000000000000000000000000a6")

	pool3       = common.HexToAddress("0x00000000000000000000000000000000000000b1")
	lp3         = common.HexToAddress("0x00000000000000000000000000000000000000c1")
	poolFraxUSD = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	lpFraxUSD   = common.HexToAddress("0x00000000000000000000000000000000000000c2")
	poolMeta    = common.HexToAddress("0x00000000000000000000000000000000000000b3")
	lpMeta      = common.HexToAddress("0x00000000000000000000000000000000000000c3")
	poolTri     = common.HexToAddress("0x00000000000000000000000000000000000000b4")
	lpTri       = common.HexToAddress("0x00000000000000000000000000000000000000c4")

	routerAddr = common.HexToAddress("0x00000000000000000000000000000000000000f0")
)

func testNetwork() network.Network {
	return network.Network{
		ChainID:          1,
		Name:             "testnet",
		NativeSymbol:     "ETH",
		WrappedNative:    weth,
		RouterAddress:    routerAddr,
		RouterABI:        domain.RouterABING,
		RouterNeedsPools: true,
		MinPoolTVL:       100,
	}
}

// testPools is a plain 3-coin base pool, a plain 2-coin pool, a meta pool on
// the base pool and a plain crypto pool holding the wrapped native coin.
func testPools() map[string]*domain.Pool {
	return map[string]*domain.Pool{
		"3pool": {
			ID:              "3pool",
			Address:         pool3,
			LPToken:         lp3,
			Flags:           domain.FlagPlain,
			WrappedCoins:    []common.Address{dai, usdc, usdt},
			UnderlyingCoins: []common.Address{dai, usdc, usdt},
		},
		"fraxusdc": {
			ID:              "fraxusdc",
			Address:         poolFraxUSD,
			LPToken:         lpFraxUSD,
			Flags:           domain.FlagPlain,
			WrappedCoins:    []common.Address{frax, usdc},
			UnderlyingCoins: []common.Address{frax, usdc},
		},
		"frax3crv": {
			ID:              "frax3crv",
			Address:         poolMeta,
			LPToken:         lpMeta,
			BasePoolID:      "3pool",
			Flags:           domain.FlagMeta | domain.FlagFactory,
			WrappedCoins:    []common.Address{frax, lp3},
			UnderlyingCoins: []common.Address{frax, dai, usdc, usdt},
		},
		"tricrypto": {
			ID:              "tricrypto",
			Address:         poolTri,
			LPToken:         lpTri,
			Flags:           domain.FlagCrypto | domain.FlagPlain,
			WrappedCoins:    []common.Address{usdc, wbtc, weth},
			UnderlyingCoins: []common.Address{usdc, wbtc, weth},
		},
	}
}

func testTVL() map[string]float64 {
	return map[string]float64{
		"3pool":     1_000_000,
		"fraxusdc":  500_000,
		"frax3crv":  200_000,
		"tricrypto": 3_000_000,
	}
}

func testGraph() (RouteGraph, map[string]domain.PoolView) {
	pools := testPools()
	g, _ := BuildGraph(GraphInput{Network: testNetwork(), Pools: pools, TVL: testTVL()})
	views := make(map[string]domain.PoolView, len(pools))
	for id, p := range pools {
		views[id] = p.View()
	}
	return g, views
}

func testStep(poolID string, swapAddress, in, out common.Address, swapType domain.SwapType, tvl float64) domain.RouteStep {
	return domain.RouteStep{
		PoolID:      poolID,
		SwapAddress: swapAddress,
		InputCoin:   in,
		OutputCoin:  out,
		SwapParams:  domain.NewSwapParams(0, 1, swapType, domain.PoolTypeStable, 2),
		PoolAddress: swapAddress,
		TVL:         tvl,
	}
}

func testRoute(steps ...domain.RouteStep) domain.Route {
	r := domain.EmptyRoute()
	for _, s := range steps {
		r = r.Extend(s)
	}
	return r
}

// hops counts the filled swap slots of serialized args
func hops(args domain.ExchangeArgs) int {
	n := 0
	for i := 1; i < len(args.Route); i += 2 {
		if args.Route[i] != (common.Address{}) {
			n++
		}
	}
	return n
}

type fakeCatalogue struct {
	mu        sync.Mutex
	pools     map[string]*domain.Pool
	amps      map[common.Address]float64
	tvl       map[string]float64
	poolsErr  error
	tvlErr    error
	poolCalls int
}

func newFakeCatalogue() *fakeCatalogue {
	return &fakeCatalogue{pools: testPools(), tvl: testTVL()}
}

func (c *fakeCatalogue) Pools(ctx context.Context) (map[string]*domain.Pool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.poolCalls++
	if c.poolsErr != nil {
		return nil, c.poolsErr
	}
	return c.pools, nil
}

func (c *fakeCatalogue) Amplifications(ctx context.Context) (map[common.Address]float64, error) {
	return c.amps, nil
}

func (c *fakeCatalogue) TVLs(ctx context.Context) (map[string]float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tvlErr != nil {
		return nil, c.tvlErr
	}
	return c.tvl, nil
}

func (c *fakeCatalogue) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.poolCalls
}

var errReverted = errors.New("execution reverted")

// fakeChain quotes with quoteFn; by default every hop loses 0.1%
type fakeChain struct {
	mu       sync.Mutex
	quoteFn  func(args domain.ExchangeArgs, amount *big.Int) (*big.Int, error)
	gasFn    func(args domain.ExchangeArgs) (domain.GasEstimate, error)
	batchErr error
	gasPrice *big.Int
	l1Price  *big.Int

	batchCalls    atomic.Int32
	quoteCalls    atomic.Int32
	requiredCalls atomic.Int32
	gasCalls      atomic.Int32
	priceCalls    atomic.Int32
}

func newFakeChain() *fakeChain {
	return &fakeChain{gasPrice: big.NewInt(50_000_000_000), l1Price: big.NewInt(0)}
}

func (c *fakeChain) setQuote(fn func(args domain.ExchangeArgs, amount *big.Int) (*big.Int, error)) {
	c.mu.Lock()
	c.quoteFn = fn
	c.mu.Unlock()
}

func (c *fakeChain) quote(args domain.ExchangeArgs, amount *big.Int) (*big.Int, error) {
	c.mu.Lock()
	fn := c.quoteFn
	c.mu.Unlock()
	if fn != nil {
		return fn(args, amount)
	}
	out := new(big.Int).Set(amount)
	for i := 0; i < hops(args); i++ {
		out.Mul(out, big.NewInt(999))
		out.Div(out, big.NewInt(1000))
	}
	return out, nil
}

func (c *fakeChain) BatchQuote(ctx context.Context, args []domain.ExchangeArgs, amount *big.Int) ([]*big.Int, error) {
	c.batchCalls.Add(1)
	if c.batchErr != nil {
		return nil, c.batchErr
	}
	outs := make([]*big.Int, len(args))
	for i, a := range args {
		out, err := c.quote(a, amount)
		if err == nil {
			outs[i] = out
		}
	}
	return outs, nil
}

func (c *fakeChain) Quote(ctx context.Context, args domain.ExchangeArgs, amount *big.Int) (*big.Int, error) {
	c.quoteCalls.Add(1)
	return c.quote(args, amount)
}

func (c *fakeChain) QuoteRequired(ctx context.Context, args domain.ExchangeArgs, amountOut *big.Int) (*big.Int, error) {
	c.requiredCalls.Add(1)
	out := new(big.Int).Mul(amountOut, big.NewInt(1010))
	return out.Div(out, big.NewInt(1000)), nil
}

func (c *fakeChain) EstimateGas(ctx context.Context, args domain.ExchangeArgs, amount *big.Int) (domain.GasEstimate, error) {
	c.gasCalls.Add(1)
	if c.gasFn != nil {
		return c.gasFn(args)
	}
	return domain.GasEstimate{Gas: uint64(100_000 * hops(args))}, nil
}

func (c *fakeChain) CurrentGasPrice(ctx context.Context) (*big.Int, error) {
	c.priceCalls.Add(1)
	return c.gasPrice, nil
}

func (c *fakeChain) CurrentL1DataGasPrice(ctx context.Context) (*big.Int, error) {
	return c.l1Price, nil
}

type fakePrices struct {
	rates map[common.Address]float64
	err   error
	calls atomic.Int32
}

func newFakePrices() *fakePrices {
	return &fakePrices{rates: map[common.Address]float64{
		network.NativeToken: 2000,
		weth:                2000,
	}}
}

func (p *fakePrices) USDRate(ctx context.Context, token common.Address) (float64, error) {
	p.calls.Add(1)
	if p.err != nil {
		return 0, p.err
	}
	if r, ok := p.rates[token]; ok {
		return r, nil
	}
	return 1, nil
}

type fakeDecimals map[common.Address]uint8

func (d fakeDecimals) Decimals(token common.Address) (uint8, bool) {
	v, ok := d[token]
	return v, ok
}
