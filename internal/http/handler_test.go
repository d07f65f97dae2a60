package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math/big"
	gohttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/curve-route-engine/internal/config"
	"github.com/hxuan190/curve-route-engine/internal/domain"
	"github.com/hxuan190/curve-route-engine/internal/network"
	"github.com/hxuan190/curve-route-engine/internal/services/gauge"
	"github.com/hxuan190/curve-route-engine/internal/services/router"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var (
	usdc   = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	usdt   = common.HexToAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7")
	pool3  = common.HexToAddress("0xbEbc44782C7dB0a1A60Cb6fe97d0b483032FF1C7")
	gauge3 = common.HexToAddress("0xbFcF63294aD7105dEa65aA58F8AE5BE2D9d0952A")
)

func directRoute() domain.Route {
	return domain.EmptyRoute().Extend(domain.RouteStep{
		PoolID:      "3pool",
		SwapAddress: pool3,
		PoolAddress: pool3,
		InputCoin:   usdc,
		OutputCoin:  usdt,
		SwapParams:  domain.NewSwapParams(1, 2, domain.SwapTypeExchange, domain.PoolTypeStable, 3),
		TVL:         170_000_000,
	})
}

type stubRouter struct {
	net         network.Network
	best        *domain.BestRouteResult
	bestErr     error
	required    *big.Int
	impact      *domain.PriceImpactResult
	invalidated bool
}

func newStubRouter() *stubRouter {
	net, _ := network.ByChainID(network.ChainEthereum)
	return &stubRouter{
		net:      net,
		best:     &domain.BestRouteResult{Route: directRoute(), Output: big.NewInt(999_000_000)},
		required: big.NewInt(1_010_000_000),
		impact:   &domain.PriceImpactResult{Bps: 12, Severity: string(router.SeverityNone)},
	}
}

func (r *stubRouter) Network() network.Network { return r.net }

func (r *stubRouter) Decimals(token common.Address) uint8 { return 6 }

func (r *stubRouter) BestRoute(ctx context.Context, from, to common.Address, amount *big.Int) (*domain.BestRouteResult, error) {
	return r.best, r.bestErr
}

func (r *stubRouter) RequiredInput(ctx context.Context, from, to common.Address, amountOut *big.Int) (*big.Int, domain.Route, error) {
	if r.bestErr != nil {
		return nil, domain.EmptyRoute(), r.bestErr
	}
	if r.best.Route.IsEmpty() {
		return nil, domain.EmptyRoute(), router.ErrPairNotExchangeable
	}
	return r.required, r.best.Route, nil
}

func (r *stubRouter) PriceImpact(ctx context.Context, from, to common.Address, amount *big.Int) (*domain.PriceImpactResult, error) {
	return r.impact, nil
}

func (r *stubRouter) SwapArgs(ctx context.Context, from, to common.Address, amount *big.Int, slippageBps uint16) (*domain.SwapCall, error) {
	if r.bestErr != nil {
		return nil, r.bestErr
	}
	if r.best.Route.IsEmpty() {
		return nil, router.ErrPairNotExchangeable
	}
	args, err := router.BuildExchangeArgs(r.net, r.best.Route)
	if err != nil {
		return nil, err
	}
	return &domain.SwapCall{
		Route:     r.best.Route,
		Args:      args,
		Amount:    amount,
		Expected:  r.best.Output,
		MinOutput: router.MinOutput(r.best.Output, slippageBps),
		Value:     new(big.Int),
	}, nil
}

func (r *stubRouter) InvalidateGraph() { r.invalidated = true }

func (r *stubRouter) Stats() router.ServiceStats {
	return router.ServiceStats{Network: r.net.Name, Pools: 1}
}

type stubCatalogue struct {
	pools map[string]*domain.Pool
	ready bool
}

func newStubCatalogue() *stubCatalogue {
	pools := map[string]*domain.Pool{}
	for _, id := range []string{"c", "a", "b"} {
		pools[id] = &domain.Pool{ID: id, Address: pool3, WrappedCoins: []common.Address{usdc, usdt}, UnderlyingCoins: []common.Address{usdc, usdt}}
	}
	pools["3pool"] = &domain.Pool{
		ID:              "3pool",
		Address:         pool3,
		LPToken:         common.HexToAddress("0x6c3F90f043a72FA612cbac8115EE7e52BDe6E490"),
		GaugeAddress:    gauge3,
		Flags:           domain.FlagPlain,
		WrappedCoins:    []common.Address{usdc, usdt},
		UnderlyingCoins: []common.Address{usdc, usdt},
	}
	return &stubCatalogue{pools: pools, ready: true}
}

func (c *stubCatalogue) List() []*domain.Pool {
	out := make([]*domain.Pool, 0, len(c.pools))
	for _, p := range c.pools {
		out = append(out, p)
	}
	return out
}

func (c *stubCatalogue) Pool(id string) (*domain.Pool, bool) {
	p, ok := c.pools[id]
	return p, ok
}

func (c *stubCatalogue) TVL(id string) float64 { return 1000 }
func (c *stubCatalogue) Ready() bool { return c.ready }
func (c *stubCatalogue) GetStats() (int, int64) { return len(c.pools), 1_700_000_000 }

type stubGauges struct {
	err error
}

func (g *stubGauges) Capability(ctx context.Context, addr common.Address) (gauge.ClaimCapability, error) {
	return gauge.ClaimWithReceiver, g.err
}

func (g *stubGauges) Claim(ctx context.Context, addr, owner common.Address) (*gauge.ClaimCall, error) {
	if g.err != nil {
		return nil, g.err
	}
	return &gauge.ClaimCall{Capability: gauge.ClaimWithReceiver.String(), To: addr, Data: []byte{0xe6, 0xf1, 0xda, 0xf2}}, nil
}

type testServer struct {
	engine    *gin.Engine
	router    *stubRouter
	catalogue *stubCatalogue
	gauges    *stubGauges
}

func newTestServer(rps, burst int) *testServer {
	s := &testServer{router: newStubRouter(), catalogue: newStubCatalogue(), gauges: &stubGauges{}}
	conf := &config.GeneralConfig{HTTPHost: "localhost", HTTPPort: "0", Env: "dev", RateLimitRPS: rps, RateLimitBurst: burst}
	s.engine = NewHTTPService(conf, s.router, s.catalogue, s.gauges).Engine()
	return s
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Code    string          `json:"code"`
	Error   string          `json:"error"`
}

func (s *testServer) do(t *testing.T, method, target string, body any) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w.Code, env
}

const quoteQuery = "/api/v1/quote?inputCoin=0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48&outputCoin=0xdAC17F958D2ee523a2206206994597C13D831ec7&amount=1000000000"

func TestHealth(t *testing.T) {
	s := newTestServer(100, 100)

	code, _ := s.do(t, gohttp.MethodGet, "/health", nil)
	assert.Equal(t, gohttp.StatusOK, code)

	s.catalogue.ready = false
	code, _ = s.do(t, gohttp.MethodGet, "/health", nil)
	assert.Equal(t, gohttp.StatusServiceUnavailable, code)
}

func TestQuoteExactIn(t *testing.T) {
	s := newTestServer(100, 100)

	code, env := s.do(t, gohttp.MethodGet, quoteQuery, nil)
	require.Equal(t, gohttp.StatusOK, code)
	require.True(t, env.Success)

	var resp QuoteResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, "1000000000", resp.AmountIn)
	assert.Equal(t, "999000000", resp.AmountOut)
	assert.Equal(t, "994005000", resp.OtherAmountThreshold)
	assert.Equal(t, uint16(12), resp.PriceImpactBps)
	assert.Equal(t, "0.12%", resp.PriceImpactPercent)
	assert.Equal(t, 1, resp.HopCount)
	require.Len(t, resp.Routes, 1)
	assert.Equal(t, "3pool", resp.Routes[0].PoolID)
	assert.Equal(t, "exchange", resp.Routes[0].SwapType)
	assert.Equal(t, "stable", resp.Routes[0].PoolType)
	assert.Equal(t, []string{domain.AddressKey(usdc), domain.AddressKey(usdt)}, resp.RoutePath)
	assert.Equal(t, []string{"3pool: " + domain.AddressKey(usdc) + " -> " + domain.AddressKey(usdt)}, resp.Description)
	assert.Equal(t, "1000", resp.AmountInDecimal)
	assert.Equal(t, "999", resp.AmountOutDecimal)
}

func TestQuoteExactOut(t *testing.T) {
	s := newTestServer(100, 100)

	code, env := s.do(t, gohttp.MethodGet, quoteQuery+"&swapMode=ExactOut", nil)
	require.Equal(t, gohttp.StatusOK, code)

	var resp QuoteResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, "1010000000", resp.AmountIn)
	assert.Equal(t, "1000000000", resp.AmountOut)
	// 1010000000 * 10000 / 9950
	assert.Equal(t, "1015075376", resp.OtherAmountThreshold)
	assert.Zero(t, resp.PriceImpactBps)
}

func TestQuoteBadRequests(t *testing.T) {
	s := newTestServer(100, 100)

	tests := []struct {
		name   string
		target string
	}{
		{"missing params", "/api/v1/quote?inputCoin=0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"},
		{"bad address", "/api/v1/quote?inputCoin=usdc&outputCoin=0xdAC17F958D2ee523a2206206994597C13D831ec7&amount=1"},
		{"zero amount", "/api/v1/quote?inputCoin=0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48&outputCoin=0xdAC17F958D2ee523a2206206994597C13D831ec7&amount=0"},
		{"bad swap mode", quoteQuery + "&swapMode=Both"},
		{"slippage too high", quoteQuery + "&slippageBps=10000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := s.do(t, gohttp.MethodGet, tt.target, nil)
			assert.Equal(t, gohttp.StatusBadRequest, code)
			assert.Equal(t, "BAD_REQUEST", env.Code)
		})
	}
}

func TestQuoteNoRoute(t *testing.T) {
	s := newTestServer(100, 100)
	s.router.best = domain.NoRoute()

	code, env := s.do(t, gohttp.MethodGet, quoteQuery, nil)
	assert.Equal(t, gohttp.StatusNotFound, code)
	assert.False(t, env.Success)

	code, _ = s.do(t, gohttp.MethodGet, quoteQuery+"&swapMode=ExactOut", nil)
	assert.Equal(t, gohttp.StatusNotFound, code)
}

func TestQuoteCatalogueNotReady(t *testing.T) {
	s := newTestServer(100, 100)
	s.router.bestErr = router.ErrCatalogueNotReady

	code, env := s.do(t, gohttp.MethodGet, quoteQuery, nil)
	assert.Equal(t, gohttp.StatusServiceUnavailable, code)
	assert.Equal(t, "SERVICE_UNAVAILABLE", env.Code)
}

func TestRouteWithCandidates(t *testing.T) {
	s := newTestServer(100, 100)
	s.router.best.Candidates = []domain.RankedRoute{
		{Route: directRoute(), Output: big.NewInt(999_000_000), Gas: 150_000, OutputUSD: 999, TxCostUSD: 3},
	}

	code, env := s.do(t, gohttp.MethodGet, "/api/v1/route?inputCoin=0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48&outputCoin=0xdAC17F958D2ee523a2206206994597C13D831ec7&amount=1000000000", nil)
	require.Equal(t, gohttp.StatusOK, code)

	var resp RouteResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	require.Len(t, resp.Candidates, 1)
	assert.Equal(t, "3pool", resp.Candidates[0].Pools)
	assert.Equal(t, uint64(150_000), resp.Candidates[0].Gas)
}

func TestSwap(t *testing.T) {
	s := newTestServer(100, 100)

	code, env := s.do(t, gohttp.MethodPost, "/api/v1/swap", SwapHandlerRequest{
		InputCoin:   usdc.Hex(),
		OutputCoin:  usdt.Hex(),
		Amount:      "1000000000",
		SlippageBps: 100,
	})
	require.Equal(t, gohttp.StatusOK, code)

	var resp SwapHandlerResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, domain.AddressKey(s.router.net.RouterAddress), resp.To)
	assert.Equal(t, "0", resp.Value)
	assert.Equal(t, "989010000", resp.MinAmountOut)
	// selector, 42 words for the NG router with pools
	assert.Len(t, resp.Data, 2+2*(4+42*32))
	assert.Equal(t, []string{domain.AddressKey(usdc), domain.AddressKey(usdt)}, resp.Route)
}

func TestSwapErrors(t *testing.T) {
	s := newTestServer(100, 100)

	code, _ := s.do(t, gohttp.MethodPost, "/api/v1/swap", map[string]string{"inputCoin": usdc.Hex()})
	assert.Equal(t, gohttp.StatusBadRequest, code)

	s.router.best = domain.NoRoute()
	code, env := s.do(t, gohttp.MethodPost, "/api/v1/swap", SwapHandlerRequest{InputCoin: usdc.Hex(), OutputCoin: usdt.Hex(), Amount: "1"})
	assert.Equal(t, gohttp.StatusNotFound, code)
	assert.Equal(t, "NOT_FOUND", env.Code)
}

func TestPools(t *testing.T) {
	s := newTestServer(100, 100)

	code, env := s.do(t, gohttp.MethodGet, "/api/v1/pools/list?page=2&limit=2", nil)
	require.Equal(t, gohttp.StatusOK, code)
	var list PoolListResponse
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, 4, list.Total)
	assert.Equal(t, 2, list.Pages)
	require.Len(t, list.Pools, 2)
	assert.Equal(t, "b", list.Pools[0].ID)
	assert.Equal(t, "c", list.Pools[1].ID)

	code, env = s.do(t, gohttp.MethodGet, "/api/v1/pools/list?coin="+usdc.Hex(), nil)
	require.Equal(t, gohttp.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, 4, list.Total)

	code, env = s.do(t, gohttp.MethodGet, "/api/v1/pools/list?coin=0x000000000000000000000000000000000000dEaD", nil)
	require.Equal(t, gohttp.StatusOK, code)
	list = PoolListResponse{}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Zero(t, list.Total)
	assert.Empty(t, list.Pools)

	code, _ = s.do(t, gohttp.MethodGet, "/api/v1/pools/list?coin=nope", nil)
	assert.Equal(t, gohttp.StatusBadRequest, code)

	code, env = s.do(t, gohttp.MethodGet, "/api/v1/pools/3pool", nil)
	require.Equal(t, gohttp.StatusOK, code)
	var detail PoolDetailResponse
	require.NoError(t, json.Unmarshal(env.Data, &detail))
	assert.Equal(t, domain.AddressKey(gauge3), detail.GaugeAddress)
	assert.Empty(t, detail.DepositAddress)
	assert.Equal(t, "stable", detail.Type)

	code, _ = s.do(t, gohttp.MethodGet, "/api/v1/pools/missing", nil)
	assert.Equal(t, gohttp.StatusNotFound, code)

	code, env = s.do(t, gohttp.MethodGet, "/api/v1/pools/stats", nil)
	require.Equal(t, gohttp.StatusOK, code)
	var stats PoolStatsResponse
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, 4, stats.PoolCount)
	assert.True(t, stats.Ready)
}

func TestGaugeClaim(t *testing.T) {
	s := newTestServer(100, 100)
	base := "/api/v1/gauges/" + gauge3.Hex()

	code, env := s.do(t, gohttp.MethodGet, base+"/claim?owner=0x000000000000000000000000000000000000bEEF", nil)
	require.Equal(t, gohttp.StatusOK, code)
	var call gauge.ClaimCall
	require.NoError(t, json.Unmarshal(env.Data, &call))
	assert.Equal(t, "claim_rewards_receiver", call.Capability)
	assert.Equal(t, gauge3, call.To)

	code, _ = s.do(t, gohttp.MethodGet, base+"/claim?owner=nobody", nil)
	assert.Equal(t, gohttp.StatusBadRequest, code)

	code, env = s.do(t, gohttp.MethodGet, base+"/capability", nil)
	require.Equal(t, gohttp.StatusOK, code)
	var capability CapabilityResponse
	require.NoError(t, json.Unmarshal(env.Data, &capability))
	assert.Equal(t, "claim_rewards_receiver", capability.Capability)

	s.gauges.err = gauge.ErrProbeFailed
	code, _ = s.do(t, gohttp.MethodGet, base+"/capability", nil)
	assert.Equal(t, gohttp.StatusUnprocessableEntity, code)
}

func TestAdminInvalidate(t *testing.T) {
	s := newTestServer(100, 100)

	code, _ := s.do(t, gohttp.MethodPost, "/api/v1/admin/route/invalidate", nil)
	assert.Equal(t, gohttp.StatusOK, code)
	assert.True(t, s.router.invalidated)
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(1, 2)

	codes := make([]int, 3)
	for i := range codes {
		codes[i], _ = s.do(t, gohttp.MethodGet, "/api/v1/route/stats", nil)
	}
	assert.Equal(t, []int{gohttp.StatusOK, gohttp.StatusOK, gohttp.StatusTooManyRequests}, codes)

	// health is outside the limited group
	code, _ := s.do(t, gohttp.MethodGet, "/health", nil)
	assert.Equal(t, gohttp.StatusOK, code)
}

func TestToHttpError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{router.ErrInvalidAmount, gohttp.StatusBadRequest},
		{domain.ErrInvalidAddress, gohttp.StatusBadRequest},
		{router.ErrPairNotExchangeable, gohttp.StatusNotFound},
		{router.ErrRouteTooLong, gohttp.StatusUnprocessableEntity},
		{router.ErrCatalogueNotReady, gohttp.StatusServiceUnavailable},
		{router.ErrAllQuotesFailed, gohttp.StatusServiceUnavailable},
		{context.DeadlineExceeded, gohttp.StatusServiceUnavailable},
		{errors.New("boom"), gohttp.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, toHttpError(tt.err).StatusCode, tt.err.Error())
	}
}
