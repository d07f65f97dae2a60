package router

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRouteCacheKey(t *testing.T) {
	amount := big.NewInt(1_000_000)

	assert.Equal(t, routeCacheKey(usdc, usdt, amount), routeCacheKey(usdc, usdt, big.NewInt(1_000_000)))
	assert.NotEqual(t, routeCacheKey(usdc, usdt, amount), routeCacheKey(usdt, usdc, amount))
	assert.NotEqual(t, routeCacheKey(usdc, usdt, amount), routeCacheKey(usdc, usdt, big.NewInt(1_000_001)))

	large := new(big.Int).Lsh(big.NewInt(1), 100)
	larger := new(big.Int).Add(large, big.NewInt(1))
	assert.NotEqual(t, routeCacheKey(usdc, usdt, large), routeCacheKey(usdc, usdt, larger))
}

// BenchmarkRouteCacheKey benchmarks the inline FNV-1a cache key
func BenchmarkRouteCacheKey(b *testing.B) {
	amount := big.NewInt(1_000_000_000)

	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_ = routeCacheKey(usdc, usdt, amount)
	}
}
