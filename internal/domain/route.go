package domain

import (
	"math"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// SwapParams holds i, j, swap type, pool type and coin count for one hop.
type SwapParams [5]uint64

func NewSwapParams(i, j int, swapType SwapType, poolType PoolType, nCoins int) SwapParams {
	return SwapParams{uint64(i), uint64(j), uint64(swapType), uint64(poolType), uint64(nCoins)}
}

type RouteStep struct {
	PoolID          string         `json:"poolId"`
	SwapAddress     common.Address `json:"swapAddress"`
	InputCoin       common.Address `json:"inputCoinAddress"`
	OutputCoin      common.Address `json:"outputCoinAddress"`
	SwapParams      SwapParams     `json:"swapParams"`
	PoolAddress     common.Address `json:"poolAddress"`
	BasePool        common.Address `json:"basePool"`
	BaseToken       common.Address `json:"baseToken"`
	SecondBasePool  common.Address `json:"secondBasePool"`
	SecondBaseToken common.Address `json:"secondBaseToken"`
	TVL             float64        `json:"tvl"`
}

func (s RouteStep) SwapType() SwapType {
	return SwapType(s.SwapParams[2])
}

// Route is an immutable sequence of hops. Extend returns a new route and never
// touches the receiver's backing array.
type Route struct {
	Steps    []RouteStep `json:"route"`
	MinTVL   float64     `json:"minTvl"`
	TotalTVL float64     `json:"totalTvl"`
}

func EmptyRoute() Route {
	return Route{MinTVL: math.Inf(1)}
}

func (r Route) Len() int {
	return len(r.Steps)
}

func (r Route) IsEmpty() bool {
	return len(r.Steps) == 0
}

func (r Route) Extend(step RouteStep) Route {
	steps := make([]RouteStep, len(r.Steps), len(r.Steps)+1)
	copy(steps, r.Steps)
	return Route{
		Steps:    append(steps, step),
		MinTVL:   math.Min(r.MinTVL, step.TVL),
		TotalTVL: r.TotalTVL + step.TVL,
	}
}

// CurrentCoin is the coin the route ends on, or from for an empty route.
func (r Route) CurrentCoin(from common.Address) common.Address {
	if len(r.Steps) == 0 {
		return from
	}
	return r.Steps[len(r.Steps)-1].OutputCoin
}

func (r Route) HasInputCoin(coin common.Address) bool {
	for _, s := range r.Steps {
		if s.InputCoin == coin {
			return true
		}
	}
	return false
}

func (r Route) UsesPool(poolID string) bool {
	for _, s := range r.Steps {
		if s.PoolID == poolID {
			return true
		}
	}
	return false
}

func (r Route) UsesPoolClass(poolID string, class SwapType) bool {
	for _, s := range r.Steps {
		if s.PoolID == poolID && s.SwapType().EquivalenceClass() == class {
			return true
		}
	}
	return false
}

// PoolSignature identifies a route by its pool sequence.
func (r Route) PoolSignature() string {
	ids := make([]string, len(r.Steps))
	for i, s := range r.Steps {
		ids[i] = s.PoolID
	}
	return strings.Join(ids, "-")
}

// Key identifies a route by pools and coins; two routes with the same key
// produce the same router calldata.
func (r Route) Key() string {
	var b strings.Builder
	for i, s := range r.Steps {
		if i == 0 {
			b.WriteString(AddressKey(s.InputCoin))
		}
		b.WriteByte('|')
		b.WriteString(s.PoolID)
		b.WriteByte('|')
		b.WriteString(AddressKey(s.OutputCoin))
	}
	return b.String()
}

// Describe renders the route as "pool: in -> out" lines.
func (r Route) Describe() []string {
	out := make([]string, len(r.Steps))
	for i, s := range r.Steps {
		out[i] = s.PoolID + ": " + AddressKey(s.InputCoin) + " -> " + AddressKey(s.OutputCoin)
	}
	return out
}
