package domain

import (
	"errors"
	"fmt"
	"slices"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrDuplicateCoin    = errors.New("duplicate coin in pool")
	ErrPlainCoinsDiffer = errors.New("plain pool wrapped and underlying coins differ")
	ErrEmptyPoolID      = errors.New("empty pool id")
)

type PoolFlags uint64

const (
	FlagCrypto PoolFlags = 1 << iota
	FlagMeta
	FlagPlain
	FlagLending
	FlagFake
	FlagNG
	FlagFactory
	FlagLlamma
)

type Pool struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Address        common.Address `json:"address"`
	LPToken        common.Address `json:"lpToken"`
	DepositAddress common.Address `json:"depositAddress"`
	GaugeAddress   common.Address `json:"gaugeAddress"`
	BasePoolID     string         `json:"basePool,omitempty"`
	Flags          PoolFlags      `json:"flags"`

	WrappedCoins       []common.Address `json:"wrappedCoins"`
	WrappedDecimals    []uint8          `json:"wrappedDecimals"`
	UnderlyingCoins    []common.Address `json:"underlyingCoins"`
	UnderlyingDecimals []uint8          `json:"underlyingDecimals"`
}

func (p *Pool) HasFlags(mask PoolFlags) bool {
	return p.Flags&mask == mask
}

func (p *Pool) IsCrypto() bool  { return p.HasFlags(FlagCrypto) }
func (p *Pool) IsMeta() bool    { return p.HasFlags(FlagMeta) }
func (p *Pool) IsPlain() bool   { return p.HasFlags(FlagPlain) }
func (p *Pool) IsLending() bool { return p.HasFlags(FlagLending) }
func (p *Pool) IsFake() bool    { return p.HasFlags(FlagFake) }
func (p *Pool) IsNG() bool      { return p.HasFlags(FlagNG) }
func (p *Pool) IsFactory() bool { return p.HasFlags(FlagFactory) }
func (p *Pool) IsLlamma() bool  { return p.HasFlags(FlagLlamma) }

func (p *Pool) HasDeposit() bool {
	return p.DepositAddress != (common.Address{})
}

// IsAaveLikeLending reports lending pools whose underlying coins are deposited
// through the pool itself rather than a separate zap.
func (p *Pool) IsAaveLikeLending() bool {
	return p.IsLending() && len(p.WrappedCoins) == 3 && !p.HasDeposit()
}

// Type returns the router discriminant for the pool implementation.
func (p *Pool) Type() PoolType {
	var t PoolType
	switch {
	case p.IsLlamma():
		t = PoolTypeLlamma
	case p.IsCrypto():
		t = PoolType(min(len(p.WrappedCoins), 3))
	default:
		t = PoolTypeStable
	}
	if p.IsNG() {
		t *= 10
	}
	return t
}

func (p *Pool) ContainsCoin(coin common.Address) bool {
	return slices.Contains(p.WrappedCoins, coin) || slices.Contains(p.UnderlyingCoins, coin)
}

// Coins returns wrapped coins followed by underlying coins not already listed.
func (p *Pool) Coins() []common.Address {
	out := make([]common.Address, 0, len(p.WrappedCoins)+len(p.UnderlyingCoins))
	out = append(out, p.WrappedCoins...)
	for _, c := range p.UnderlyingCoins {
		if !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	return out
}

func (p *Pool) Validate() error {
	if p.ID == "" {
		return ErrEmptyPoolID
	}
	if hasDuplicate(p.WrappedCoins) || hasDuplicate(p.UnderlyingCoins) {
		return fmt.Errorf("%w: %s", ErrDuplicateCoin, p.ID)
	}
	if p.IsPlain() && !sameSet(p.WrappedCoins, p.UnderlyingCoins) {
		return fmt.Errorf("%w: %s", ErrPlainCoinsDiffer, p.ID)
	}
	return nil
}

func hasDuplicate(coins []common.Address) bool {
	seen := make(map[common.Address]struct{}, len(coins))
	for _, c := range coins {
		if _, ok := seen[c]; ok {
			return true
		}
		seen[c] = struct{}{}
	}
	return false
}

func sameSet(a, b []common.Address) bool {
	if len(a) != len(b) {
		return false
	}
	for _, c := range a {
		if !slices.Contains(b, c) {
			return false
		}
	}
	return true
}

// PoolView is the reduced pool data the route search needs.
type PoolView struct {
	IsLending bool
	Coins     []common.Address
	LPToken   common.Address
}

func (p *Pool) View() PoolView {
	return PoolView{
		IsLending: p.IsLending(),
		Coins:     p.Coins(),
		LPToken:   p.LPToken,
	}
}
