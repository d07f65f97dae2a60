package priority

import (
	"context"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum"
)

// Urgency represents the priority level for a transaction
type Urgency uint8

const (
	// UrgencyLow uses the p25 tip
	UrgencyLow Urgency = iota
	// UrgencyMedium uses the p50 tip
	UrgencyMedium
	// UrgencyHigh uses the p90 tip
	UrgencyHigh
)

const feeHistoryBlocks = 10

// DefaultGasPrice is used when the node returns nothing usable (20 gwei)
var DefaultGasPrice = big.NewInt(20_000_000_000)

// minTip floors the priority fee (0.01 gwei)
var minTip = big.NewInt(10_000_000)

// FeeHistoryReader is the subset of ethclient.Client the calculator needs
type FeeHistoryReader interface {
	FeeHistory(ctx context.Context, blockCount uint64, lastBlock *big.Int, rewardPercentiles []float64) (*ethereum.FeeHistory, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
}

// GasPriceCalculator derives a gas price from recent base fees and tips
type GasPriceCalculator struct {
	reader FeeHistoryReader
}

func NewGasPriceCalculator(reader FeeHistoryReader) *GasPriceCalculator {
	return &GasPriceCalculator{reader: reader}
}

// GasPriceResult holds the calculated fee information
type GasPriceResult struct {
	GasPrice    *big.Int
	BaseFee     *big.Int
	Tip         *big.Int
	Urgency     Urgency
	Percentile  float64
	SampleCount int
}

// GetGasPrice returns next-block base fee plus the urgency percentile of recent tips.
// Nodes without fee history fall back to eth_gasPrice, then to DefaultGasPrice.
func (c *GasPriceCalculator) GetGasPrice(ctx context.Context, urgency Urgency) (*GasPriceResult, error) {
	percentile := getPercentileForUrgency(urgency)

	history, err := c.reader.FeeHistory(ctx, feeHistoryBlocks, nil, []float64{percentile})
	if err != nil || history == nil || len(history.BaseFee) == 0 {
		return c.fallback(ctx, urgency, percentile), nil
	}

	tips := make([]*big.Int, 0, len(history.Reward))
	for _, rewards := range history.Reward {
		if len(rewards) > 0 && rewards[0] != nil && rewards[0].Sign() > 0 {
			tips = append(tips, rewards[0])
		}
	}

	tip := new(big.Int).Set(minTip)
	if len(tips) > 0 {
		sort.Slice(tips, func(i, j int) bool { return tips[i].Cmp(tips[j]) < 0 })
		if median := tips[len(tips)/2]; median.Cmp(tip) > 0 {
			tip.Set(median)
		}
	}

	// last entry is the next block's base fee
	baseFee := history.BaseFee[len(history.BaseFee)-1]
	if baseFee == nil {
		return c.fallback(ctx, urgency, percentile), nil
	}

	return &GasPriceResult{
		GasPrice:    new(big.Int).Add(baseFee, tip),
		BaseFee:     new(big.Int).Set(baseFee),
		Tip:         tip,
		Urgency:     urgency,
		Percentile:  percentile,
		SampleCount: len(tips),
	}, nil
}

func (c *GasPriceCalculator) fallback(ctx context.Context, urgency Urgency, percentile float64) *GasPriceResult {
	price, err := c.reader.SuggestGasPrice(ctx)
	if err != nil || price == nil || price.Sign() <= 0 {
		price = DefaultGasPrice
	}
	return &GasPriceResult{
		GasPrice:   new(big.Int).Set(price),
		Urgency:    urgency,
		Percentile: percentile,
	}
}

// getPercentileForUrgency returns the tip percentile to use for each urgency level
func getPercentileForUrgency(urgency Urgency) float64 {
	switch urgency {
	case UrgencyLow:
		return 25
	case UrgencyMedium:
		return 50
	case UrgencyHigh:
		return 90
	default:
		return 50
	}
}
