package router

import (
	"context"
	"sync"
	"time"

	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/curve-route-engine/internal/adapters/blockchain"
	"github.com/hxuan190/curve-route-engine/internal/adapters/chain"
	"github.com/hxuan190/curve-route-engine/internal/adapters/pricing"
	"github.com/hxuan190/curve-route-engine/internal/config"
	"github.com/hxuan190/curve-route-engine/internal/services"
	"github.com/hxuan190/curve-route-engine/internal/services/catalogue"
	"github.com/hxuan190/curve-route-engine/internal/worker"
)

const ROUTER_SERVICE = "router-service"

const (
	warmupTimeout = 30 * time.Second
	janitorPeriod = time.Minute
)

// Service is the container-managed Router for the configured network
type Service struct {
	container.BaseDIInstance
	*Router

	logger    *services.ServiceLogger
	executor  *worker.Executor
	catalogue *catalogue.Service

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func (svc *Service) ID() string {
	return ROUTER_SERVICE
}

func (svc *Service) Configure(c container.IContainer) error {
	routerConfig := c.GetConfig(config.ROUTER_CONFIG_KEY).(*config.RouterConfig)
	rpcConfig := c.GetConfig(config.RPC_CONFIG_KEY).(*config.RPCConfig)

	net, err := rpcConfig.ResolveNetwork()
	if err != nil {
		return err
	}
	svc.logger = services.NewServiceLogger(svc).With("network", net.Name)

	svc.catalogue = c.Instance(catalogue.CATALOGUE_SERVICE).(*catalogue.Service)
	chainSvc := c.Instance(chain.CHAIN_SERVICE).(*chain.Service)
	gasPrices := c.Instance(blockchain.GAS_PRICE_CACHE_SERVICE).(*blockchain.GasPriceCacheService)
	prices := c.Instance(pricing.PRICING_SERVICE).(*pricing.Service)

	svc.stopCh = make(chan struct{})
	svc.executor = worker.NewExecutor(routerConfig.Workers)
	svc.Router = NewRouter(Config{
		Network:      net,
		Catalogue:    svc.catalogue,
		Chain:        chainSvc,
		GasPrices:    gasPrices,
		Prices:       prices,
		Decimals:     svc.catalogue,
		Executor:     svc.executor,
		Finder:       FinderOptions{MaxRoutes: routerConfig.MaxRoutesPerCriterion, MaxDepth: MaxRouteDepth},
		GraphTTL:     routerConfig.GraphTTL,
		BestRouteTTL: routerConfig.BestRouteTTL,
		GasCacheTTL:  routerConfig.GasCacheTTL,
	})
	return nil
}

func (svc *Service) Start() error {
	svc.executor.Start()
	svc.logger.Info().Int("workers", svc.executor.Workers()).Msg("[routerService] executor started")

	svc.wg.Add(1)
	go svc.janitor()

	if !svc.catalogue.Ready() {
		svc.logger.Warn().Msg("[routerService] catalogue not ready, graph will be built on first request")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), warmupTimeout)
	defer cancel()
	if _, err := svc.graph(ctx); err != nil {
		svc.logger.Warn().Err(err).Msg("[routerService] graph warmup failed")
	}
	return nil
}

func (svc *Service) Stop() error {
	svc.stopOnce.Do(func() { close(svc.stopCh) })
	svc.wg.Wait()
	svc.executor.Stop()
	return nil
}

func (svc *Service) janitor() {
	defer svc.wg.Done()
	ticker := time.NewTicker(janitorPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := svc.PurgeExpired(); n > 0 {
				svc.logger.Debug().Int("removed", n).Msg("[routerService] purged expired cache entries")
			}
		case <-svc.stopCh:
			return
		}
	}
}

// Stats reports the current graph and catalogue sizes
func (svc *Service) Stats() ServiceStats {
	pools, updatedAt := svc.catalogue.GetStats()
	stats := ServiceStats{
		Network:            svc.net.Name,
		Pools:              pools,
		CatalogueUpdatedAt: updatedAt,
		CachedRoutes:       svc.bestRoutes.Size(),
	}

	svc.graphMu.Lock()
	if snap := svc.snapshot; snap != nil {
		stats.Graph = snap.stats
		if !snap.builtAt.IsZero() {
			stats.GraphBuiltAt = snap.builtAt.Unix()
		}
	}
	svc.graphMu.Unlock()
	return stats
}

type ServiceStats struct {
	Network            string     `json:"network"`
	Pools              int        `json:"pools"`
	CatalogueUpdatedAt int64      `json:"catalogueUpdatedAt"`
	Graph              GraphStats `json:"graph"`
	GraphBuiltAt       int64      `json:"graphBuiltAt"`
	CachedRoutes       int        `json:"cachedRoutes"`
}
