package catalogue

import (
	"context"
	"errors"
	"maps"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/curve-route-engine/internal/adapters/persistence"
	"github.com/hxuan190/curve-route-engine/internal/config"
	"github.com/hxuan190/curve-route-engine/internal/domain"
	"github.com/hxuan190/curve-route-engine/internal/metrics"
	"github.com/hxuan190/curve-route-engine/internal/services"
)

const CATALOGUE_SERVICE = "catalogue-service"

var ErrNotLoaded = errors.New("catalogue not loaded")

// Service holds the pool catalogue and its liquidity snapshots. The catalogue file
// is the source of truth; BoltDB keeps the last good copy for restarts.
type Service struct {
	container.BaseDIInstance
	logger  *services.ServiceLogger
	config  *config.CatalogueConfig
	storage *persistence.Storage

	pools *ShardedPoolMap

	mu       sync.RWMutex
	amps     map[common.Address]float64
	tvl      map[string]float64
	decimals map[common.Address]uint8

	loaded    atomic.Bool
	updatedAt atomic.Int64

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewService builds a catalogue without the container, used by tests and tools
func NewService(cfg *config.CatalogueConfig) *Service {
	svc := &Service{config: cfg}
	svc.init()
	return svc
}

func (svc *Service) init() {
	svc.logger = services.NewServiceLogger(svc)
	svc.pools = NewShardedPoolMap()
	svc.amps = make(map[common.Address]float64)
	svc.tvl = make(map[string]float64)
	svc.decimals = make(map[common.Address]uint8)
	svc.stopCh = make(chan struct{})
}

func (svc *Service) ID() string {
	return CATALOGUE_SERVICE
}

func (svc *Service) Configure(c container.IContainer) error {
	svc.config = c.GetConfig(config.CATALOGUE_CONFIG_KEY).(*config.CatalogueConfig)
	svc.init()

	if svc.config.PersistenceEnabled {
		storage, err := persistence.NewStorage(svc.config.DBPath)
		if err != nil {
			return err
		}
		svc.storage = storage
	}
	return nil
}

func (svc *Service) Start() error {
	if err := svc.Reload(); err != nil {
		svc.logger.Warn().Err(err).Msg("[catalogueService] failed to load catalogue file, trying storage")
		if svc.storage == nil {
			return err
		}
		if err := svc.loadFromStorage(); err != nil {
			return err
		}
	}

	if svc.config.RefreshInterval > 0 && svc.config.File != "" {
		svc.wg.Add(1)
		go svc.refreshLoop()
	}
	return nil
}

func (svc *Service) Stop() error {
	svc.stopOnce.Do(func() { close(svc.stopCh) })
	svc.wg.Wait()

	if svc.storage != nil {
		if err := svc.storage.Close(); err != nil {
			svc.logger.Error().Err(err).Msg("[catalogueService] failed to close storage")
			return err
		}
	}
	return nil
}

func (svc *Service) refreshLoop() {
	defer svc.wg.Done()
	ticker := time.NewTicker(svc.config.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := svc.Reload(); err != nil {
				svc.logger.Warn().Err(err).Msg("[catalogueService] refresh failed, keeping current catalogue")
			}
		case <-svc.stopCh:
			return
		}
	}
}

// Reload reads the catalogue file and replaces the current catalogue
func (svc *Service) Reload() error {
	if svc.config == nil || svc.config.File == "" {
		return errors.New("no catalogue file configured")
	}
	snap, err := LoadFile(svc.config.File)
	if err != nil {
		metrics.CatalogueRefreshes.WithLabelValues("error").Inc()
		return err
	}
	svc.Apply(snap)
	metrics.CatalogueRefreshes.WithLabelValues("ok").Inc()

	if svc.storage != nil {
		svc.persist(snap)
	}
	return nil
}

// Apply replaces the catalogue with snap
func (svc *Service) Apply(snap *Snapshot) {
	svc.pools.Replace(snap.Pools)

	svc.mu.Lock()
	svc.amps = maps.Clone(snap.Amplification)
	svc.tvl = maps.Clone(snap.TVL)
	svc.decimals = maps.Clone(snap.Decimals)
	svc.mu.Unlock()

	svc.loaded.Store(true)
	svc.updatedAt.Store(time.Now().Unix())
	metrics.PoolCount.Set(float64(len(snap.Pools)))

	svc.logger.Info().
		Int("pools", len(snap.Pools)).
		Int("skipped", snap.Skipped).
		Int("tvl", len(snap.TVL)).
		Msg("[catalogueService] catalogue applied")
}

func (svc *Service) persist(snap *Snapshot) {
	pools := make([]*domain.Pool, 0, len(snap.Pools))
	for _, p := range snap.Pools {
		pools = append(pools, p)
	}
	if err := svc.storage.SavePoolBatch(pools); err != nil {
		svc.logger.Error().Err(err).Msg("[catalogueService] failed to persist pools")
		return
	}
	if err := svc.storage.SaveTVLSnapshot(snap.TVL); err != nil {
		svc.logger.Error().Err(err).Msg("[catalogueService] failed to persist tvl snapshot")
	}
	if err := svc.storage.SaveAmplifications(snap.Amplification); err != nil {
		svc.logger.Error().Err(err).Msg("[catalogueService] failed to persist amplifications")
	}
	if err := svc.storage.SaveDecimals(snap.Decimals); err != nil {
		svc.logger.Error().Err(err).Msg("[catalogueService] failed to persist decimals")
	}
}

func (svc *Service) loadFromStorage() error {
	count, err := svc.storage.GetPoolCount()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrNotLoaded
	}
	pools, err := svc.storage.LoadAllPools()
	if err != nil {
		return err
	}
	svc.logger.Info().Int("stored", count).Int("loaded", len(pools)).Msg("[catalogueService] restored catalogue from storage")

	snap := &Snapshot{Pools: make(map[string]*domain.Pool, len(pools))}
	for _, p := range pools {
		snap.Pools[p.ID] = p
	}
	if snap.TVL, err = svc.storage.LoadTVLSnapshot(); err != nil {
		svc.logger.Warn().Err(err).Msg("[catalogueService] failed to load tvl snapshot")
	}
	if snap.Amplification, err = svc.storage.LoadAmplifications(); err != nil {
		svc.logger.Warn().Err(err).Msg("[catalogueService] failed to load amplifications")
	}
	if snap.Decimals, err = svc.storage.LoadDecimals(); err != nil {
		svc.logger.Warn().Err(err).Msg("[catalogueService] failed to load decimals")
	}
	svc.Apply(snap)
	return nil
}

func (svc *Service) Pools(ctx context.Context) (map[string]*domain.Pool, error) {
	if !svc.loaded.Load() {
		return nil, ErrNotLoaded
	}
	return svc.pools.Snapshot(), nil
}

func (svc *Service) Amplifications(ctx context.Context) (map[common.Address]float64, error) {
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	return maps.Clone(svc.amps), nil
}

func (svc *Service) TVLs(ctx context.Context) (map[string]float64, error) {
	if !svc.loaded.Load() {
		return nil, ErrNotLoaded
	}
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	return maps.Clone(svc.tvl), nil
}

func (svc *Service) Decimals(token common.Address) (uint8, bool) {
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	d, ok := svc.decimals[token]
	return d, ok
}

func (svc *Service) Pool(id string) (*domain.Pool, bool) {
	return svc.pools.Get(id)
}

// List returns every pool ordered by nothing in particular
func (svc *Service) List() []*domain.Pool {
	out := make([]*domain.Pool, 0, svc.pools.Len())
	svc.pools.Range(func(_ string, p *domain.Pool) bool {
		out = append(out, p)
		return true
	})
	return out
}

func (svc *Service) TVL(id string) float64 {
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	return svc.tvl[id]
}

func (svc *Service) Ready() bool {
	return svc.loaded.Load()
}

// GetStats returns pool count and the unix time of the last update
func (svc *Service) GetStats() (int, int64) {
	return svc.pools.Len(), svc.updatedAt.Load()
}
