package domain

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
)

var (
	coinA = common.HexToAddress("0x0a")
	coinB = common.HexToAddress("0x0b")
	coinC = common.HexToAddress("0x0c")
)

func TestPoolType(t *testing.T) {
	tests := []struct {
		name  string
		flags PoolFlags
		coins int
		want  PoolType
	}{
		{"stable", FlagPlain, 3, PoolTypeStable},
		{"stable ng", FlagPlain | FlagNG, 2, 10},
		{"two crypto", FlagCrypto, 2, PoolTypeTwoCrypto},
		{"tri crypto", FlagCrypto, 3, PoolTypeTriCrypto},
		{"crypto ng", FlagCrypto | FlagNG, 2, 20},
		{"llamma", FlagLlamma | FlagCrypto, 2, PoolTypeLlamma},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Pool{Flags: tt.flags, WrappedCoins: make([]common.Address, tt.coins)}
			assert.Equal(t, tt.want, p.Type())
		})
	}
	assert.Equal(t, "stable-ng", PoolType(10).String())
}

func TestPoolValidate(t *testing.T) {
	assert.ErrorIs(t, (&Pool{}).Validate(), ErrEmptyPoolID)

	dup := &Pool{ID: "d", WrappedCoins: []common.Address{coinA, coinA}}
	assert.ErrorIs(t, dup.Validate(), ErrDuplicateCoin)

	plain := &Pool{ID: "p", Flags: FlagPlain, WrappedCoins: []common.Address{coinA, coinB}, UnderlyingCoins: []common.Address{coinB, coinC}}
	assert.ErrorIs(t, plain.Validate(), ErrPlainCoinsDiffer)

	plain.UnderlyingCoins = []common.Address{coinB, coinA}
	assert.NoError(t, plain.Validate())
}

func TestPoolCoins(t *testing.T) {
	p := &Pool{
		WrappedCoins:    []common.Address{coinA, coinB},
		UnderlyingCoins: []common.Address{coinA, coinC},
	}
	assert.Equal(t, []common.Address{coinA, coinB, coinC}, p.Coins())
	assert.True(t, p.ContainsCoin(coinC))
	assert.False(t, p.ContainsCoin(common.HexToAddress("0x0d")))
}

func TestAaveLikeLending(t *testing.T) {
	p := &Pool{Flags: FlagLending, WrappedCoins: []common.Address{coinA, coinB, coinC}}
	assert.True(t, p.IsAaveLikeLending())

	p.DepositAddress = common.HexToAddress("0x0e")
	assert.False(t, p.IsAaveLikeLending())
}

func TestSwapTypeEquivalenceClass(t *testing.T) {
	assert.Equal(t, SwapTypeAddLiquidity, SwapTypeRemoveLiquidityOneCoin.EquivalenceClass())
	assert.Equal(t, SwapTypeAddLiquidityUnderlying, SwapTypeRemoveLiquidityOneCoinUnderlying.EquivalenceClass())
	assert.Equal(t, SwapTypeExchange, SwapTypeExchange.EquivalenceClass())
}

func TestRouteExtendDoesNotAlias(t *testing.T) {
	base := EmptyRoute().Extend(RouteStep{PoolID: "a", InputCoin: coinA, OutputCoin: coinB, TVL: 10})

	left := base.Extend(RouteStep{PoolID: "b", InputCoin: coinB, OutputCoin: coinC, TVL: 5})
	right := base.Extend(RouteStep{PoolID: "c", InputCoin: coinB, OutputCoin: coinA, TVL: 20})

	assert.Equal(t, 1, base.Len())
	assert.Equal(t, "a-b", left.PoolSignature())
	assert.Equal(t, "a-c", right.PoolSignature())
	assert.Equal(t, 5.0, left.MinTVL)
	assert.Equal(t, 10.0, right.MinTVL)
	assert.Equal(t, 30.0, right.TotalTVL)
	assert.Equal(t, coinC, left.CurrentCoin(coinA))
	assert.Equal(t, coinA, EmptyRoute().CurrentCoin(coinA))
}

func TestParseAddress(t *testing.T) {
	a, err := ParseAddress(" 0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48 ")
	assert.NoError(t, err)
	assert.Equal(t, "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48", AddressKey(a))

	_, err = ParseAddress("0x1234")
	assert.ErrorIs(t, err, ErrInvalidAddress)
}
