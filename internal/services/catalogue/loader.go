package catalogue

import (
	"fmt"
	"os"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/curve-route-engine/internal/adapters/persistence"
	"github.com/hxuan190/curve-route-engine/internal/domain"
)

// File is the JSON catalogue format: pools plus the liquidity snapshots the graph needs
type File struct {
	Network       string                   `json:"network"`
	Pools         []persistence.StoredPool `json:"pools"`
	Amplification map[string]float64       `json:"amplification"`
	TVL           map[string]float64       `json:"tvl"`
	Decimals      map[string]int           `json:"decimals"`
}

// Snapshot is a validated catalogue
type Snapshot struct {
	Network       string
	Pools         map[string]*domain.Pool
	Amplification map[common.Address]float64
	TVL           map[string]float64
	Decimals      map[common.Address]uint8
	Skipped       int
}

func LoadFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalogue %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a catalogue. Invalid pools are logged and skipped.
func Parse(data []byte) (*Snapshot, error) {
	var f File
	if err := sonic.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode catalogue: %w", err)
	}

	snap := &Snapshot{
		Network:       strings.ToLower(f.Network),
		Pools:         make(map[string]*domain.Pool, len(f.Pools)),
		Amplification: make(map[common.Address]float64, len(f.Amplification)),
		TVL:           make(map[string]float64, len(f.TVL)),
		Decimals:      make(map[common.Address]uint8),
	}

	for i := range f.Pools {
		pool, err := persistence.StoredToPool(&f.Pools[i])
		if err == nil {
			err = pool.Validate()
		}
		if err != nil {
			log.Warn().Err(err).Str("pool", f.Pools[i].ID).Msg("[catalogue] invalid pool, skipping")
			snap.Skipped++
			continue
		}
		if _, dup := snap.Pools[pool.ID]; dup {
			log.Warn().Str("pool", pool.ID).Msg("[catalogue] duplicate pool id, keeping first")
			snap.Skipped++
			continue
		}
		snap.Pools[pool.ID] = pool
		addDecimals(snap.Decimals, pool.WrappedCoins, pool.WrappedDecimals)
		addDecimals(snap.Decimals, pool.UnderlyingCoins, pool.UnderlyingDecimals)
	}

	for addr, amp := range f.Amplification {
		if !common.IsHexAddress(addr) || amp <= 0 {
			continue
		}
		snap.Amplification[common.HexToAddress(addr)] = amp
	}
	for id, tvl := range f.TVL {
		if tvl < 0 {
			continue
		}
		snap.TVL[id] = tvl
	}
	// explicit decimals win over pool metadata
	for addr, d := range f.Decimals {
		if !common.IsHexAddress(addr) || d < 0 || d > 255 {
			continue
		}
		snap.Decimals[common.HexToAddress(addr)] = uint8(d)
	}

	return snap, nil
}

func addDecimals(dst map[common.Address]uint8, coins []common.Address, decimals []uint8) {
	for i, c := range coins {
		if i >= len(decimals) {
			return
		}
		if _, ok := dst[c]; !ok {
			dst[c] = decimals[i]
		}
	}
}
