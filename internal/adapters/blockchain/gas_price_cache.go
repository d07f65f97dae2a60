package blockchain

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/curve-route-engine/internal/adapters/chain"
	"github.com/hxuan190/curve-route-engine/internal/cache"
	"github.com/hxuan190/curve-route-engine/internal/metrics"
)

const GAS_PRICE_CACHE_SERVICE = "cache-gas-price-svc"

const DefaultGasPriceMaxAge = 2 * time.Second

type GasPriceFetcher interface {
	CurrentGasPrice(ctx context.Context) (*big.Int, error)
	CurrentL1DataGasPrice(ctx context.Context) (*big.Int, error)
}

type CachedGasPrice struct {
	Price     *big.Int
	UpdatedAt time.Time
}

// GasPriceCacheService keeps the last gas prices for a couple of seconds and serves
// the stale value when the node fails.
type GasPriceCacheService struct {
	container.BaseDIInstance

	fetcher GasPriceFetcher
	clock   cache.Clock
	maxAge  time.Duration

	mu        sync.RWMutex
	execution *CachedGasPrice
	l1Data    *CachedGasPrice
}

func NewGasPriceCache(fetcher GasPriceFetcher, maxAge time.Duration, clock cache.Clock) *GasPriceCacheService {
	svc := &GasPriceCacheService{fetcher: fetcher}
	svc.init(maxAge, clock)
	return svc
}

func (svc *GasPriceCacheService) init(maxAge time.Duration, clock cache.Clock) {
	if maxAge <= 0 {
		maxAge = DefaultGasPriceMaxAge
	}
	if clock == nil {
		clock = cache.SystemClock
	}
	svc.maxAge = maxAge
	svc.clock = clock
}

func (svc *GasPriceCacheService) ID() string {
	return GAS_PRICE_CACHE_SERVICE
}

func (svc *GasPriceCacheService) Configure(c container.IContainer) error {
	svc.fetcher = c.Instance(chain.CHAIN_SERVICE).(*chain.Service)
	svc.init(DefaultGasPriceMaxAge, nil)
	return nil
}

func (svc *GasPriceCacheService) Start() error {
	price, err := svc.CurrentGasPrice(context.Background())
	if err != nil {
		log.Warn().Err(err).Msg("[GasPriceCacheService] failed to fetch initial gas price, will retry on first request")
		return nil
	}
	log.Info().Str("gasPrice", price.String()).Msg("[GasPriceCacheService] initialized with gas price")
	return nil
}

func (svc *GasPriceCacheService) Stop() error {
	return nil
}

func (svc *GasPriceCacheService) CurrentGasPrice(ctx context.Context) (*big.Int, error) {
	return svc.get(ctx, "gas_price", &svc.execution, svc.fetcher.CurrentGasPrice)
}

func (svc *GasPriceCacheService) CurrentL1DataGasPrice(ctx context.Context) (*big.Int, error) {
	return svc.get(ctx, "l1_gas_price", &svc.l1Data, svc.fetcher.CurrentL1DataGasPrice)
}

func (svc *GasPriceCacheService) get(
	ctx context.Context,
	name string,
	slot **CachedGasPrice,
	fetch func(context.Context) (*big.Int, error),
) (*big.Int, error) {
	svc.mu.RLock()
	cached := *slot
	svc.mu.RUnlock()

	now := svc.clock.Now()
	if cached != nil && now.Sub(cached.UpdatedAt) < svc.maxAge {
		metrics.CacheHits.WithLabelValues(name).Inc()
		return new(big.Int).Set(cached.Price), nil
	}
	metrics.CacheMisses.WithLabelValues(name).Inc()

	price, err := fetch(ctx)
	if err != nil {
		if cached != nil {
			log.Debug().Err(err).Str("cache", name).Msg("[GasPriceCacheService] refresh failed, serving stale price")
			return new(big.Int).Set(cached.Price), nil
		}
		return nil, err
	}

	svc.mu.Lock()
	*slot = &CachedGasPrice{Price: new(big.Int).Set(price), UpdatedAt: now}
	svc.mu.Unlock()

	return price, nil
}
