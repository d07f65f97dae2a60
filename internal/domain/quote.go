package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

type RouteRequest struct {
	InputCoin  common.Address
	OutputCoin common.Address
	Amount     *big.Int
}

// RankedRoute is a quoted candidate with its cost inputs. USD fields stay zero
// when the selector returned without a cost comparison.
type RankedRoute struct {
	Route     Route    `json:"route"`
	Output    *big.Int `json:"output"`
	Gas       uint64   `json:"gas"`
	L1Gas     uint64   `json:"l1Gas"`
	OutputUSD float64  `json:"outputUsd"`
	TxCostUSD float64  `json:"txCostUsd"`
}

func (r RankedRoute) NetUSD() float64 {
	return r.OutputUSD - r.TxCostUSD
}

type BestRouteResult struct {
	Route      Route         `json:"route"`
	Output     *big.Int      `json:"output"`
	Candidates []RankedRoute `json:"candidates,omitempty"`
}

func NoRoute() *BestRouteResult {
	return &BestRouteResult{Route: EmptyRoute(), Output: new(big.Int)}
}

type PriceImpactResult struct {
	Bps      uint16 `json:"bps"`
	Severity string `json:"severity"`
	Warning  string `json:"warning,omitempty"`
}

type SwapCall struct {
	Route     Route        `json:"route"`
	Args      ExchangeArgs `json:"args"`
	Amount    *big.Int     `json:"amount"`
	Expected  *big.Int     `json:"expected"`
	MinOutput *big.Int     `json:"minOutput"`
	// Value is the native amount sent with the call; zero unless the input is the native coin.
	Value *big.Int `json:"value"`
}

// GasEstimate is execution gas plus, on L2 networks, the L1 data gas of the calldata.
type GasEstimate struct {
	Gas   uint64 `json:"gas"`
	L1Gas uint64 `json:"l1Gas"`
}
