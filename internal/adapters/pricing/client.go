package pricing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/hxuan190/curve-route-engine/internal/cache"
	"github.com/hxuan190/curve-route-engine/internal/domain"
	"github.com/hxuan190/curve-route-engine/internal/metrics"
	"github.com/hxuan190/curve-route-engine/internal/network"
)

const priceCacheSize = 2048

var (
	ErrNoPrice     = errors.New("no usd price for token")
	ErrBadResponse = errors.New("unexpected price api response")
)

type priceResponse struct {
	Data struct {
		Address  string  `json:"address"`
		USDPrice float64 `json:"usd_price"`
	} `json:"data"`
}

type ClientOptions struct {
	BaseURL           string
	RequestsPerSecond int
	CacheTTL          time.Duration
	Timeout           time.Duration
	Clock             cache.Clock
	HTTPClient        *http.Client
}

// Client fetches USD rates from the price API. Rates are cached per token and the
// last known rate is served when the API fails.
type Client struct {
	http    *http.Client
	baseURL string
	net     network.Network
	limiter *rate.Limiter
	rates   *cache.TTLCache[common.Address, float64]
}

func NewClient(net network.Network, opts ClientOptions) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = time.Minute
	}

	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		net:     net,
		limiter: rate.NewLimiter(rate.Limit(rps), rps),
		rates:   cache.NewTTLCache[common.Address, float64](priceCacheSize, ttl, opts.Clock),
	}
}

// USDRate returns the token's USD price. The native coin is priced as its wrapped form.
func (c *Client) USDRate(ctx context.Context, token common.Address) (float64, error) {
	if c.net.IsNative(token) && c.net.WrappedNative != (common.Address{}) {
		token = c.net.WrappedNative
	}

	stale, hasStale := c.rates.GetStale(token)
	if r, ok := c.rates.Get(token); ok {
		metrics.CacheHits.WithLabelValues("usd_rate").Inc()
		return r, nil
	}
	metrics.CacheMisses.WithLabelValues("usd_rate").Inc()

	r, err := c.fetch(ctx, token)
	if err != nil {
		metrics.PriceRequests.WithLabelValues("error").Inc()
		if hasStale {
			log.Debug().Err(err).Str("token", domain.AddressKey(token)).Msg("[priceClient] serving stale usd rate")
			return stale, nil
		}
		return 0, err
	}
	metrics.PriceRequests.WithLabelValues("ok").Inc()
	c.rates.Set(token, r)
	return r, nil
}

func (c *Client) fetch(ctx context.Context, token common.Address) (float64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	url := fmt.Sprintf("%s/%s/%s", c.baseURL, c.net.Name, domain.AddressKey(token))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("price request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return 0, ErrNoPrice
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: status %d", ErrBadResponse, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, err
	}
	var parsed priceResponse
	if err := sonic.Unmarshal(body, &parsed); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	if parsed.Data.USDPrice <= 0 {
		return 0, ErrNoPrice
	}
	return parsed.Data.USDPrice, nil
}
