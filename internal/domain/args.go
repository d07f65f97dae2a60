package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

const (
	RouteSlots = 11
	MaxHops    = 5
)

// RouterABI selects the router contract's argument layout.
type RouterABI uint8

const (
	// RouterABING takes swap params as uint256[5][5] plus an optional pools array.
	RouterABING RouterABI = iota
	// RouterABILegacy takes uint256[5][4] swap params plus base pool and base token arrays.
	RouterABILegacy
)

func (a RouterABI) String() string {
	if a == RouterABILegacy {
		return "legacy"
	}
	return "ng"
}

// ExchangeArgs is a route serialized for the router contract. Unused slots are
// zero; every big.Int slot is non-nil.
type ExchangeArgs struct {
	ABI              RouterABI                  `json:"abi"`
	NeedsPools       bool                       `json:"needsPools"`
	Route            [RouteSlots]common.Address `json:"route"`
	SwapParams       [MaxHops][5]*big.Int       `json:"swapParams"`
	Pools            [MaxHops]common.Address    `json:"pools"`
	BasePools        [MaxHops]common.Address    `json:"basePools"`
	BaseTokens       [MaxHops]common.Address    `json:"baseTokens"`
	SecondBasePools  [MaxHops]common.Address    `json:"secondBasePools"`
	SecondBaseTokens [MaxHops]common.Address    `json:"secondBaseTokens"`
}

// LegacySwapParams drops the coin count column.
func (a ExchangeArgs) LegacySwapParams() [MaxHops][4]*big.Int {
	var out [MaxHops][4]*big.Int
	for i := range a.SwapParams {
		for j := 0; j < 4; j++ {
			out[i][j] = a.SwapParams[i][j]
		}
	}
	return out
}
