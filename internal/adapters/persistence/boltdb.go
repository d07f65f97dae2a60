package persistence

import (
	"fmt"
	"os"
	"path/filepath"

	boltdb "github.com/andrew-solarstorm/bolt-db"
	"github.com/bytedance/sonic"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/curve-route-engine/internal/domain"
)

const (
	PoolsBucket     = "pools"
	SnapshotsBucket = "snapshots"

	poolIDsKey       = "pool_ids"
	tvlKey           = "tvl"
	amplificationKey = "amplification"
	decimalsKey      = "decimals"

	DefaultDBPath = "./data/catalogue.db"
)

// StoredPool is the on-disk and catalogue-file form of a pool
type StoredPool struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Address        string `json:"address"`
	LPToken        string `json:"lpToken"`
	DepositAddress string `json:"depositAddress,omitempty"`
	GaugeAddress   string `json:"gaugeAddress,omitempty"`
	BasePool       string `json:"basePool,omitempty"`

	IsCrypto  bool `json:"isCrypto,omitempty"`
	IsMeta    bool `json:"isMeta,omitempty"`
	IsPlain   bool `json:"isPlain,omitempty"`
	IsLending bool `json:"isLending,omitempty"`
	IsFake    bool `json:"isFake,omitempty"`
	IsNG      bool `json:"isNg,omitempty"`
	IsFactory bool `json:"isFactory,omitempty"`
	IsLlamma  bool `json:"isLlamma,omitempty"`

	WrappedCoins       []string `json:"wrappedCoins"`
	WrappedDecimals    []int    `json:"wrappedDecimals"`
	UnderlyingCoins    []string `json:"underlyingCoins"`
	UnderlyingDecimals []int    `json:"underlyingDecimals"`
}

type Storage struct {
	db     *boltdb.BoltDatabase
	dbPath string
}

func NewStorage(dbPath string) (*Storage, error) {
	if dbPath == "" {
		dbPath = DefaultDBPath
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database dir: %w", err)
	}

	db := boltdb.NewBoltDatabase(dbPath)
	if db == nil {
		return nil, fmt.Errorf("failed to open database at %s", dbPath)
	}

	log.Info().Str("path", dbPath).Msg("[catalogueStorage] opened database")

	return &Storage{
		db:     db,
		dbPath: dbPath,
	}, nil
}

func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SavePoolBatch writes every pool and records the id set, so pools dropped from
// the catalogue are ignored on the next load.
func (s *Storage) SavePoolBatch(pools []*domain.Pool) error {
	if len(pools) == 0 {
		return nil
	}

	ids := make([]string, 0, len(pools))
	batch := s.db.NewBatch()
	for _, pool := range pools {
		data, err := sonic.Marshal(PoolToStored(pool))
		if err != nil {
			return fmt.Errorf("failed to marshal pool %s: %w", pool.ID, err)
		}

		value := data
		op := &boltdb.WriteOperation{
			Bucket: []byte(PoolsBucket),
			Key:    []byte(pool.ID),
			Value:  &value,
			Op:     boltdb.OpSet,
		}
		if err := batch.Add(op); err != nil {
			return fmt.Errorf("failed to add pool %s to batch: %w", pool.ID, err)
		}
		ids = append(ids, pool.ID)
	}

	idData, err := sonic.Marshal(ids)
	if err != nil {
		return fmt.Errorf("failed to marshal pool ids: %w", err)
	}
	if err := batch.Add(&boltdb.WriteOperation{
		Bucket: []byte(SnapshotsBucket),
		Key:    []byte(poolIDsKey),
		Value:  &idData,
		Op:     boltdb.OpSet,
	}); err != nil {
		return fmt.Errorf("failed to add pool ids to batch: %w", err)
	}

	if err := batch.Execute(); err != nil {
		log.Error().Err(err).Int("count", len(pools)).Msg("[catalogueStorage] FAILED to execute batch")
		return err
	}

	log.Info().Int("count", len(pools)).Msg("[catalogueStorage] saved pool batch")
	return nil
}

func (s *Storage) LoadAllPools() ([]*domain.Pool, error) {
	data, err := s.db.List(PoolsBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to list pools: %w", err)
	}

	var current map[string]struct{}
	var ids []string
	if ok, err := s.loadSnapshot(poolIDsKey, &ids); err != nil {
		return nil, err
	} else if ok {
		current = make(map[string]struct{}, len(ids))
		for _, id := range ids {
			current[id] = struct{}{}
		}
	}

	pools := make([]*domain.Pool, 0, len(data))
	unmarshalFailed := 0
	conversionFailed := 0

	for id, value := range data {
		if current != nil {
			if _, ok := current[id]; !ok {
				continue
			}
		}

		var stored StoredPool
		if err := sonic.Unmarshal(value, &stored); err != nil {
			log.Error().Str("pool", id).Err(err).Msg("[catalogueStorage] failed to unmarshal pool, skipping")
			unmarshalFailed++
			continue
		}

		pool, err := StoredToPool(&stored)
		if err != nil {
			log.Error().Str("pool", id).Err(err).Msg("[catalogueStorage] failed to convert stored pool, skipping")
			conversionFailed++
			continue
		}

		pools = append(pools, pool)
	}

	if unmarshalFailed > 0 || conversionFailed > 0 {
		log.Error().
			Int("total_in_db", len(data)).
			Int("loaded", len(pools)).
			Int("unmarshal_failed", unmarshalFailed).
			Int("conversion_failed", conversionFailed).
			Msg("[catalogueStorage] pool loading completed with errors")
	} else {
		log.Info().
			Int("total_in_db", len(data)).
			Int("loaded", len(pools)).
			Msg("[catalogueStorage] pool loading completed successfully")
	}

	return pools, nil
}

func (s *Storage) SaveTVLSnapshot(tvl map[string]float64) error {
	return s.saveSnapshot(tvlKey, tvl)
}

func (s *Storage) LoadTVLSnapshot() (map[string]float64, error) {
	tvl := make(map[string]float64)
	_, err := s.loadSnapshot(tvlKey, &tvl)
	return tvl, err
}

// SaveAmplifications stores amplification coefficients keyed by lowercase swap address
func (s *Storage) SaveAmplifications(amps map[common.Address]float64) error {
	stored := make(map[string]float64, len(amps))
	for addr, a := range amps {
		stored[domain.AddressKey(addr)] = a
	}
	return s.saveSnapshot(amplificationKey, stored)
}

func (s *Storage) LoadAmplifications() (map[common.Address]float64, error) {
	stored := make(map[string]float64)
	if _, err := s.loadSnapshot(amplificationKey, &stored); err != nil {
		return nil, err
	}
	amps := make(map[common.Address]float64, len(stored))
	for addr, a := range stored {
		if !common.IsHexAddress(addr) {
			continue
		}
		amps[common.HexToAddress(addr)] = a
	}
	return amps, nil
}

func (s *Storage) SaveDecimals(decimals map[common.Address]uint8) error {
	stored := make(map[string]int, len(decimals))
	for addr, d := range decimals {
		stored[domain.AddressKey(addr)] = int(d)
	}
	return s.saveSnapshot(decimalsKey, stored)
}

func (s *Storage) LoadDecimals() (map[common.Address]uint8, error) {
	stored := make(map[string]int)
	if _, err := s.loadSnapshot(decimalsKey, &stored); err != nil {
		return nil, err
	}
	decimals := make(map[common.Address]uint8, len(stored))
	for addr, d := range stored {
		if !common.IsHexAddress(addr) || d < 0 || d > 255 {
			continue
		}
		decimals[common.HexToAddress(addr)] = uint8(d)
	}
	return decimals, nil
}

func (s *Storage) GetPoolCount() (int, error) {
	var ids []string
	ok, err := s.loadSnapshot(poolIDsKey, &ids)
	if err != nil {
		return 0, err
	}
	if ok {
		return len(ids), nil
	}
	data, err := s.db.List(PoolsBucket)
	if err != nil {
		return 0, err
	}
	return len(data), nil
}

func (s *Storage) saveSnapshot(key string, v any) error {
	data, err := sonic.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s snapshot: %w", key, err)
	}
	return s.db.Set(SnapshotsBucket, []byte(key), data)
}

func (s *Storage) loadSnapshot(key string, v any) (bool, error) {
	data, err := s.db.List(SnapshotsBucket)
	if err != nil {
		return false, fmt.Errorf("failed to list snapshots: %w", err)
	}
	raw, ok := data[key]
	if !ok {
		return false, nil
	}
	if err := sonic.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s snapshot: %w", key, err)
	}
	return true, nil
}

func PoolToStored(pool *domain.Pool) *StoredPool {
	return &StoredPool{
		ID:                 pool.ID,
		Name:               pool.Name,
		Address:            domain.AddressKey(pool.Address),
		LPToken:            domain.AddressKey(pool.LPToken),
		DepositAddress:     optionalAddress(pool.DepositAddress),
		GaugeAddress:       optionalAddress(pool.GaugeAddress),
		BasePool:           pool.BasePoolID,
		IsCrypto:           pool.IsCrypto(),
		IsMeta:             pool.IsMeta(),
		IsPlain:            pool.IsPlain(),
		IsLending:          pool.IsLending(),
		IsFake:             pool.IsFake(),
		IsNG:               pool.IsNG(),
		IsFactory:          pool.IsFactory(),
		IsLlamma:           pool.IsLlamma(),
		WrappedCoins:       addressStrings(pool.WrappedCoins),
		WrappedDecimals:    decimalInts(pool.WrappedDecimals),
		UnderlyingCoins:    addressStrings(pool.UnderlyingCoins),
		UnderlyingDecimals: decimalInts(pool.UnderlyingDecimals),
	}
}

func StoredToPool(stored *StoredPool) (*domain.Pool, error) {
	if stored.ID == "" {
		return nil, domain.ErrEmptyPoolID
	}

	address, err := domain.ParseAddress(stored.Address)
	if err != nil {
		return nil, fmt.Errorf("invalid address: %w", err)
	}

	lpToken, err := domain.ParseAddress(stored.LPToken)
	if err != nil {
		return nil, fmt.Errorf("invalid lpToken: %w", err)
	}

	deposit, err := parseOptional(stored.DepositAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid depositAddress: %w", err)
	}

	gauge, err := parseOptional(stored.GaugeAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid gaugeAddress: %w", err)
	}

	wrapped, err := parseAddresses(stored.WrappedCoins)
	if err != nil {
		return nil, fmt.Errorf("invalid wrappedCoins: %w", err)
	}

	underlying, err := parseAddresses(stored.UnderlyingCoins)
	if err != nil {
		return nil, fmt.Errorf("invalid underlyingCoins: %w", err)
	}

	wrappedDecimals, err := decimalsFromInts(stored.WrappedDecimals, len(wrapped))
	if err != nil {
		return nil, fmt.Errorf("invalid wrappedDecimals: %w", err)
	}

	underlyingDecimals, err := decimalsFromInts(stored.UnderlyingDecimals, len(underlying))
	if err != nil {
		return nil, fmt.Errorf("invalid underlyingDecimals: %w", err)
	}

	var flags domain.PoolFlags
	for flag, set := range map[domain.PoolFlags]bool{
		domain.FlagCrypto:  stored.IsCrypto,
		domain.FlagMeta:    stored.IsMeta,
		domain.FlagPlain:   stored.IsPlain,
		domain.FlagLending: stored.IsLending,
		domain.FlagFake:    stored.IsFake,
		domain.FlagNG:      stored.IsNG,
		domain.FlagFactory: stored.IsFactory,
		domain.FlagLlamma:  stored.IsLlamma,
	} {
		if set {
			flags |= flag
		}
	}

	return &domain.Pool{
		ID:                 stored.ID,
		Name:               stored.Name,
		Address:            address,
		LPToken:            lpToken,
		DepositAddress:     deposit,
		GaugeAddress:       gauge,
		BasePoolID:         stored.BasePool,
		Flags:              flags,
		WrappedCoins:       wrapped,
		WrappedDecimals:    wrappedDecimals,
		UnderlyingCoins:    underlying,
		UnderlyingDecimals: underlyingDecimals,
	}, nil
}

func optionalAddress(a common.Address) string {
	if a == (common.Address{}) {
		return ""
	}
	return domain.AddressKey(a)
}

func parseOptional(s string) (common.Address, error) {
	if s == "" {
		return common.Address{}, nil
	}
	return domain.ParseAddress(s)
}

func addressStrings(addrs []common.Address) []string {
	out := make([]string, len(addrs))
	for i, a := range addrs {
		out[i] = domain.AddressKey(a)
	}
	return out
}

func parseAddresses(ss []string) ([]common.Address, error) {
	out := make([]common.Address, len(ss))
	for i, s := range ss {
		a, err := domain.ParseAddress(s)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", s, err)
		}
		out[i] = a
	}
	return out, nil
}

func decimalInts(ds []uint8) []int {
	out := make([]int, len(ds))
	for i, d := range ds {
		out[i] = int(d)
	}
	return out
}

// decimalsFromInts defaults missing decimals to 18
func decimalsFromInts(ds []int, n int) ([]uint8, error) {
	if len(ds) > n {
		return nil, fmt.Errorf("%d decimals for %d coins", len(ds), n)
	}
	out := make([]uint8, n)
	for i := range out {
		out[i] = 18
		if i < len(ds) {
			if ds[i] < 0 || ds[i] > 255 {
				return nil, fmt.Errorf("decimals %d out of range", ds[i])
			}
			out[i] = uint8(ds[i])
		}
	}
	return out, nil
}
