package network

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByName(t *testing.T) {
	n, err := ByName(" Ethereum ")
	require.NoError(t, err)
	assert.Equal(t, ChainEthereum, n.ChainID)

	n, err = ByName("10")
	require.NoError(t, err)
	assert.Equal(t, "optimism", n.Name)
	assert.True(t, n.L2)

	_, err = ByName("solana")
	assert.ErrorIs(t, err, ErrUnknownNetwork)
}

func TestByChainIDReturnsCopy(t *testing.T) {
	n, err := ByChainID(ChainEthereum)
	require.NoError(t, err)
	n.Wrappers = nil
	n.MinPoolTVL = -1

	again, err := ByChainID(ChainEthereum)
	require.NoError(t, err)
	assert.NotEqual(t, -1.0, again.MinPoolTVL)
	assert.NotEmpty(t, again.Wrappers)
}

func TestOptimismSynthExchanger(t *testing.T) {
	n, err := ByName("optimism")
	require.NoError(t, err)
	require.NotNil(t, n.SynthExchanger)
	assert.Equal(t, snxOptimism, n.SynthExchanger.Address)
	assert.ElementsMatch(t, []common.Address{sUSDOptimism, sETHOptimism, sBTCOptimism, sLINKOptimism}, n.SynthExchanger.Coins)

	n.SynthExchanger.Coins = nil
	again, err := ByChainID(ChainOptimism)
	require.NoError(t, err)
	assert.Len(t, again.SynthExchanger.Coins, 4)

	eth, err := ByChainID(ChainEthereum)
	require.NoError(t, err)
	assert.Nil(t, eth.SynthExchanger)
}

func TestSupported(t *testing.T) {
	ids := Supported()
	assert.Contains(t, ids, ChainEthereum)
	assert.Contains(t, ids, ChainArbitrum)
	assert.IsIncreasing(t, ids)
}

func TestMinterFor(t *testing.T) {
	eth, _ := ByChainID(ChainEthereum)
	arb, _ := ByChainID(ChainArbitrum)

	assert.Equal(t, crvMinter, MinterFor(eth))
	assert.Equal(t, childGaugeFactory, MinterFor(arb))
}

func TestIsNative(t *testing.T) {
	n, _ := ByChainID(ChainEthereum)
	assert.True(t, n.IsNative(NativeToken))
	assert.False(t, n.IsNative(n.WrappedNative))
}
