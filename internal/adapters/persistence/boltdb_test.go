package persistence

import (
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/curve-route-engine/internal/domain"
)

func TestPoolConversion(t *testing.T) {
	pool := &domain.Pool{
		ID:                 "frax3crv",
		Name:               "FRAX/3CRV",
		Address:            common.HexToAddress("0xd632f22692FaC7611d2AA1C0D552930D43CAEd3B"),
		LPToken:            common.HexToAddress("0xd632f22692FaC7611d2AA1C0D552930D43CAEd3B"),
		GaugeAddress:       common.HexToAddress("0x72E158d38dbd50A483501c24f792bDAAA3e7D55C"),
		BasePoolID:         "3pool",
		Flags:              domain.FlagMeta | domain.FlagFactory,
		WrappedCoins:       []common.Address{common.HexToAddress("0x01"), common.HexToAddress("0x02")},
		WrappedDecimals:    []uint8{18, 18},
		UnderlyingCoins:    []common.Address{common.HexToAddress("0x01"), common.HexToAddress("0x03")},
		UnderlyingDecimals: []uint8{18, 6},
	}

	stored := PoolToStored(pool)
	assert.True(t, stored.IsMeta)
	assert.True(t, stored.IsFactory)
	assert.False(t, stored.IsPlain)
	assert.Empty(t, stored.DepositAddress)
	assert.Equal(t, "0xd632f22692fac7611d2aa1c0d552930d43caed3b", stored.Address)

	back, err := StoredToPool(stored)
	require.NoError(t, err)
	assert.Equal(t, pool, back)
}

func TestStoredToPoolDefaultsDecimals(t *testing.T) {
	pool, err := StoredToPool(&StoredPool{
		ID:           "p",
		Address:      "0x0000000000000000000000000000000000000001",
		LPToken:      "0x0000000000000000000000000000000000000002",
		WrappedCoins: []string{"0x0000000000000000000000000000000000000003", "0x0000000000000000000000000000000000000004"},
	})
	require.NoError(t, err)
	assert.Equal(t, []uint8{18, 18}, pool.WrappedDecimals)
	assert.Equal(t, []common.Address{}, pool.UnderlyingCoins)
}

func TestStoredToPoolErrors(t *testing.T) {
	valid := func() *StoredPool {
		return &StoredPool{
			ID:           "p",
			Address:      "0x0000000000000000000000000000000000000001",
			LPToken:      "0x0000000000000000000000000000000000000002",
			WrappedCoins: []string{"0x0000000000000000000000000000000000000003"},
		}
	}

	tests := []struct {
		name   string
		mutate func(*StoredPool)
	}{
		{"empty id", func(p *StoredPool) { p.ID = "" }},
		{"bad address", func(p *StoredPool) { p.Address = "0x123" }},
		{"bad gauge", func(p *StoredPool) { p.GaugeAddress = "gauge" }},
		{"bad coin", func(p *StoredPool) { p.WrappedCoins = []string{"nope"} }},
		{"too many decimals", func(p *StoredPool) { p.WrappedDecimals = []int{18, 6} }},
		{"decimals out of range", func(p *StoredPool) { p.WrappedDecimals = []int{300} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid()
			tt.mutate(p)
			_, err := StoredToPool(p)
			assert.Error(t, err)
		})
	}
}

func TestStorageRoundTrip(t *testing.T) {
	storage, err := NewStorage(filepath.Join(t.TempDir(), "catalogue.db"))
	require.NoError(t, err)
	defer storage.Close()

	pools := []*domain.Pool{
		{
			ID:              "3pool",
			Address:         common.HexToAddress("0xbEbc44782C7dB0a1A60Cb6fe97d0b483032FF1C7"),
			LPToken:         common.HexToAddress("0x6c3F90f043a72FA612cbac8115EE7e52BDe6E490"),
			Flags:           domain.FlagPlain,
			WrappedCoins:    []common.Address{common.HexToAddress("0x01"), common.HexToAddress("0x02")},
			UnderlyingCoins: []common.Address{common.HexToAddress("0x01"), common.HexToAddress("0x02")},
		},
		{
			ID:              "fraxusdc",
			Address:         common.HexToAddress("0xDcEF968d416a41Cdac0ED8702fAC8128A64241A2"),
			Flags:           domain.FlagPlain,
			WrappedCoins:    []common.Address{common.HexToAddress("0x03"), common.HexToAddress("0x02")},
			UnderlyingCoins: []common.Address{common.HexToAddress("0x03"), common.HexToAddress("0x02")},
		},
	}
	require.NoError(t, storage.SavePoolBatch(pools))

	count, err := storage.GetPoolCount()
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	loaded, err := storage.LoadAllPools()
	require.NoError(t, err)
	ids := make([]string, 0, len(loaded))
	for _, p := range loaded {
		ids = append(ids, p.ID)
	}
	assert.ElementsMatch(t, []string{"3pool", "fraxusdc"}, ids)

	require.NoError(t, storage.SaveTVLSnapshot(map[string]float64{"3pool": 1.5e8}))
	tvl, err := storage.LoadTVLSnapshot()
	require.NoError(t, err)
	assert.Equal(t, 1.5e8, tvl["3pool"])

	usdc := common.HexToAddress("0x02")
	require.NoError(t, storage.SaveDecimals(map[common.Address]uint8{usdc: 6}))
	decimals, err := storage.LoadDecimals()
	require.NoError(t, err)
	assert.Equal(t, uint8(6), decimals[usdc])
}
