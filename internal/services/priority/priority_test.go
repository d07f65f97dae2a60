package priority

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/curve-route-engine/internal/domain"
)

type fakeFeeReader struct {
	history    *ethereum.FeeHistory
	historyErr error
	suggested  *big.Int
}

func (f *fakeFeeReader) FeeHistory(context.Context, uint64, *big.Int, []float64) (*ethereum.FeeHistory, error) {
	return f.history, f.historyErr
}

func (f *fakeFeeReader) SuggestGasPrice(context.Context) (*big.Int, error) {
	if f.suggested == nil {
		return nil, errors.New("unavailable")
	}
	return f.suggested, nil
}

func TestGasPriceFromFeeHistory(t *testing.T) {
	reader := &fakeFeeReader{history: &ethereum.FeeHistory{
		BaseFee: []*big.Int{big.NewInt(9e9), big.NewInt(10e9)},
		Reward: [][]*big.Int{
			{big.NewInt(1e9)},
			{big.NewInt(3e9)},
			{big.NewInt(2e9)},
		},
	}}

	res, err := NewGasPriceCalculator(reader).GetGasPrice(context.Background(), UrgencyMedium)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(12e9), res.GasPrice)
	assert.Equal(t, 3, res.SampleCount)
	assert.Equal(t, float64(50), res.Percentile)
}

func TestGasPriceFallsBack(t *testing.T) {
	reader := &fakeFeeReader{historyErr: errors.New("method not found"), suggested: big.NewInt(5e9)}
	res, err := NewGasPriceCalculator(reader).GetGasPrice(context.Background(), UrgencyHigh)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(5e9), res.GasPrice)

	reader.suggested = nil
	res, err = NewGasPriceCalculator(reader).GetGasPrice(context.Background(), UrgencyHigh)
	require.NoError(t, err)
	assert.Equal(t, DefaultGasPrice, res.GasPrice)
}

func TestGasEstimatorDefaultsOnFailure(t *testing.T) {
	route := domain.EmptyRoute().
		Extend(domain.RouteStep{PoolID: "a", SwapParams: domain.NewSwapParams(0, 1, domain.SwapTypeExchange, 1, 2), TVL: 1}).
		Extend(domain.RouteStep{PoolID: "b", SwapParams: domain.NewSwapParams(0, 0, domain.SwapTypeWrapper, 0, 0), TVL: 1})

	failing := NewGasEstimator(func(context.Context, domain.ExchangeArgs) (domain.GasEstimate, error) {
		return domain.GasEstimate{}, errors.New("execution reverted")
	})
	res := failing.Estimate(context.Background(), route, domain.ExchangeArgs{})
	assert.False(t, res.Simulated)
	assert.Equal(t, BaseRouterGas+160000+70000, res.Estimate.Gas)

	ok := NewGasEstimator(func(context.Context, domain.ExchangeArgs) (domain.GasEstimate, error) {
		return domain.GasEstimate{Gas: 100000, L1Gas: 2000}, nil
	})
	res = ok.Estimate(context.Background(), route, domain.ExchangeArgs{})
	assert.True(t, res.Simulated)
	assert.Equal(t, uint64(110000), res.Estimate.Gas)
	assert.Equal(t, uint64(2000), res.Estimate.L1Gas)
}

func TestGasEstimatorDefaultCarriesL1Gas(t *testing.T) {
	route := domain.EmptyRoute().
		Extend(domain.RouteStep{PoolID: "a", SwapParams: domain.NewSwapParams(0, 1, domain.SwapTypeExchange, 1, 2), TVL: 1})

	failing := NewGasEstimator(func(context.Context, domain.ExchangeArgs) (domain.GasEstimate, error) {
		return domain.GasEstimate{}, errors.New("execution reverted")
	}).WithL1Gas(func(domain.ExchangeArgs) uint64 { return 3100 })

	res := failing.Estimate(context.Background(), route, domain.ExchangeArgs{})
	assert.False(t, res.Simulated)
	assert.Equal(t, BaseRouterGas+160000, res.Estimate.Gas)
	assert.Equal(t, uint64(3100), res.Estimate.L1Gas)
}
