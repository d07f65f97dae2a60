package router

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

const bestRouteCacheSize = 4096

// FNV-1a constants for zero-allocation hashing
const (
	fnvOffset64 = 14695981039346656037
	fnvPrime64  = 1099511628211
)

// routeCacheKey hashes (input, output, amount) with inline FNV-1a
func routeCacheKey(inputCoin, outputCoin common.Address, amount *big.Int) uint64 {
	h := uint64(fnvOffset64)

	for _, b := range inputCoin {
		h ^= uint64(b)
		h *= fnvPrime64
	}

	// pair separator
	h ^= 0xff
	h *= fnvPrime64

	for _, b := range outputCoin {
		h ^= uint64(b)
		h *= fnvPrime64
	}

	if amount != nil && amount.IsUint64() {
		amountU64 := amount.Uint64()
		for i := 0; i < 8; i++ {
			h ^= (amountU64 >> (i * 8)) & 0xFF
			h *= fnvPrime64
		}
	} else if amount != nil {
		// Fallback for amounts above 2^64
		for _, b := range amount.Bytes() {
			h ^= uint64(b)
			h *= fnvPrime64
		}
		h ^= 1
		h *= fnvPrime64
	}

	return h
}
