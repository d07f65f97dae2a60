package pricing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/curve-route-engine/internal/cache"
	"github.com/hxuan190/curve-route-engine/internal/network"
)

var (
	usdc = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	weth = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
)

type priceServer struct {
	*httptest.Server
	hits   atomic.Int32
	broken atomic.Bool
	paths  chan string
}

func newPriceServer(t *testing.T) *priceServer {
	t.Helper()
	s := &priceServer{paths: make(chan string, 16)}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		select {
		case s.paths <- r.URL.Path:
		default:
		}
		if s.broken.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		switch {
		case strings.HasSuffix(r.URL.Path, strings.ToLower(usdc.Hex())):
			_, _ = w.Write([]byte(`{"data":{"address":"usdc","usd_price":0.9998}}`))
		case strings.HasSuffix(r.URL.Path, strings.ToLower(weth.Hex())):
			_, _ = w.Write([]byte(`{"data":{"address":"weth","usd_price":3150.5}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(s.Close)
	return s
}

func ethereum() network.Network {
	return network.Network{ChainID: 1, Name: "ethereum", WrappedNative: weth}
}

func TestUSDRate(t *testing.T) {
	srv := newPriceServer(t)
	client := NewClient(ethereum(), ClientOptions{BaseURL: srv.URL + "/v1/usd_price/", RequestsPerSecond: 100})

	r, err := client.USDRate(context.Background(), usdc)
	require.NoError(t, err)
	assert.InDelta(t, 0.9998, r, 1e-9)
	assert.Equal(t, "/v1/usd_price/ethereum/"+strings.ToLower(usdc.Hex()), <-srv.paths)
}

func TestUSDRateNativeUsesWrapped(t *testing.T) {
	srv := newPriceServer(t)
	client := NewClient(ethereum(), ClientOptions{BaseURL: srv.URL, RequestsPerSecond: 100})

	r, err := client.USDRate(context.Background(), network.NativeToken)
	require.NoError(t, err)
	assert.InDelta(t, 3150.5, r, 1e-9)
}

func TestUSDRateCaches(t *testing.T) {
	srv := newPriceServer(t)
	clock := cache.NewManualClock(time.Unix(0, 0))
	client := NewClient(ethereum(), ClientOptions{BaseURL: srv.URL, RequestsPerSecond: 100, CacheTTL: time.Minute, Clock: clock})

	for i := 0; i < 3; i++ {
		_, err := client.USDRate(context.Background(), usdc)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), srv.hits.Load())

	clock.Advance(2 * time.Minute)
	_, err := client.USDRate(context.Background(), usdc)
	require.NoError(t, err)
	assert.Equal(t, int32(2), srv.hits.Load())
}

func TestUSDRateServesStaleOnFailure(t *testing.T) {
	srv := newPriceServer(t)
	clock := cache.NewManualClock(time.Unix(0, 0))
	client := NewClient(ethereum(), ClientOptions{BaseURL: srv.URL, RequestsPerSecond: 100, CacheTTL: time.Minute, Clock: clock})

	_, err := client.USDRate(context.Background(), usdc)
	require.NoError(t, err)

	srv.broken.Store(true)
	clock.Advance(2 * time.Minute)
	r, err := client.USDRate(context.Background(), usdc)
	require.NoError(t, err)
	assert.InDelta(t, 0.9998, r, 1e-9)
}

func TestUSDRateUnknownToken(t *testing.T) {
	srv := newPriceServer(t)
	client := NewClient(ethereum(), ClientOptions{BaseURL: srv.URL, RequestsPerSecond: 100})

	_, err := client.USDRate(context.Background(), common.HexToAddress("0x1234"))
	assert.ErrorIs(t, err, ErrNoPrice)
}

func TestStaticProvider(t *testing.T) {
	p := NewStaticProvider(map[common.Address]float64{usdc: 1})

	r, err := p.USDRate(context.Background(), usdc)
	require.NoError(t, err)
	assert.Equal(t, 1.0, r)

	_, err = p.USDRate(context.Background(), weth)
	assert.ErrorIs(t, err, ErrNoPrice)

	p.Set(weth, 3000)
	r, err = p.USDRate(context.Background(), weth)
	require.NoError(t, err)
	assert.Equal(t, 3000.0, r)
}

func TestParseOverrides(t *testing.T) {
	rates, err := ParseOverrides(" 0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48=1, 0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2=2500.5 ,")
	require.NoError(t, err)
	assert.Equal(t, map[common.Address]float64{usdc: 1, weth: 2500.5}, rates)

	rates, err = ParseOverrides("")
	require.NoError(t, err)
	assert.Empty(t, rates)

	for _, bad := range []string{"0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", "nope=1", "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48=-1", "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48=abc"} {
		_, err := ParseOverrides(bad)
		assert.Error(t, err, bad)
	}
}

func TestServicePrefersPinnedRates(t *testing.T) {
	srv := newPriceServer(t)
	svc := &Service{
		client: NewClient(ethereum(), ClientOptions{BaseURL: srv.URL, RequestsPerSecond: 100}),
		pinned: NewStaticProvider(map[common.Address]float64{weth: 3000}),
	}

	r, err := svc.USDRate(context.Background(), weth)
	require.NoError(t, err)
	assert.Equal(t, 3000.0, r)
	assert.Zero(t, srv.hits.Load())

	r, err = svc.USDRate(context.Background(), usdc)
	require.NoError(t, err)
	assert.InDelta(t, 0.9998, r, 1e-9)
	assert.Equal(t, int32(1), srv.hits.Load())
}
