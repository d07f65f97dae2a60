package chain

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/curve-route-engine/internal/domain"
	"github.com/hxuan190/curve-route-engine/internal/metrics"
	"github.com/hxuan190/curve-route-engine/internal/network"
	"github.com/hxuan190/curve-route-engine/internal/services/priority"
)

const DefaultTimeout = 10 * time.Second

// Client talks to the router contract through a JSON-RPC node
type Client struct {
	rpc      *rpc.Client
	eth      *ethclient.Client
	net      network.Network
	gasPrice *priority.GasPriceCalculator
	urgency  priority.Urgency
	timeout  time.Duration

	// estimateFrom is the sender used for gas simulation
	estimateFrom common.Address
}

func Dial(ctx context.Context, url string, net network.Network, timeout time.Duration) (*Client, error) {
	rc, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}
	return NewClient(rc, net, timeout), nil
}

func NewClient(rc *rpc.Client, net network.Network, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	eth := ethclient.NewClient(rc)
	return &Client{
		rpc:      rc,
		eth:      eth,
		net:      net,
		gasPrice: priority.NewGasPriceCalculator(eth),
		urgency:  priority.UrgencyMedium,
		timeout:  timeout,
	}
}

func (c *Client) Network() network.Network {
	return c.net
}

// SetEstimateFrom sets the sender used when simulating exchange calls
func (c *Client) SetEstimateFrom(from common.Address) {
	c.estimateFrom = from
}

func (c *Client) Close() {
	c.rpc.Close()
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.timeout)
}

func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.eth.ChainID(ctx)
}

// BatchQuote sends one get_dy per route in a single JSON-RPC batch. Routes whose
// call fails get a nil output; only a transport failure is returned as an error.
func (c *Client) BatchQuote(ctx context.Context, args []domain.ExchangeArgs, amount *big.Int) ([]*big.Int, error) {
	outputs := make([]*big.Int, len(args))
	if len(args) == 0 {
		return outputs, nil
	}

	results := make([]hexutil.Bytes, len(args))
	elems := make([]rpc.BatchElem, 0, len(args))
	index := make([]int, 0, len(args))
	for i, a := range args {
		data, err := PackGetDy(a, amount)
		if err != nil {
			log.Debug().Err(err).Int("route", i).Msg("[chainClient] failed to pack get_dy")
			continue
		}
		elems = append(elems, rpc.BatchElem{
			Method: "eth_call",
			Args:   []any{c.callArg(c.net.RouterAddress, data), "latest"},
			Result: &results[i],
		})
		index = append(index, i)
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	if err := c.rpc.BatchCallContext(ctx, elems); err != nil {
		metrics.RPCRequests.WithLabelValues("eth_call_batch", "error").Inc()
		return nil, fmt.Errorf("batch get_dy: %w", err)
	}
	metrics.RPCRequests.WithLabelValues("eth_call_batch", "ok").Inc()

	for k, elem := range elems {
		i := index[k]
		if elem.Error != nil {
			log.Debug().Err(elem.Error).Int("route", i).Msg("[chainClient] get_dy reverted")
			continue
		}
		out, err := unpackUint256(routerABIFor(args[i]), methodGetDy, results[i])
		if err != nil {
			log.Debug().Err(err).Int("route", i).Msg("[chainClient] failed to decode get_dy")
			continue
		}
		outputs[i] = out
	}
	return outputs, nil
}

func (c *Client) Quote(ctx context.Context, args domain.ExchangeArgs, amount *big.Int) (*big.Int, error) {
	data, err := PackGetDy(args, amount)
	if err != nil {
		return nil, fmt.Errorf("pack get_dy: %w", err)
	}
	res, err := c.call(ctx, "get_dy", c.net.RouterAddress, data)
	if err != nil {
		return nil, err
	}
	return unpackUint256(routerABIFor(args), methodGetDy, res)
}

func (c *Client) QuoteRequired(ctx context.Context, args domain.ExchangeArgs, amountOut *big.Int) (*big.Int, error) {
	data, err := PackGetDx(args, amountOut)
	if err != nil {
		return nil, fmt.Errorf("pack get_dx: %w", err)
	}
	res, err := c.call(ctx, "get_dx", c.net.RouterAddress, data)
	if err != nil {
		return nil, err
	}
	return unpackUint256(routerABIFor(args), methodGetDx, res)
}

// EstimateGas simulates exchange with a zero expected output. On L2 networks the
// L1 data gas of the calldata is reported separately.
func (c *Client) EstimateGas(ctx context.Context, args domain.ExchangeArgs, amount *big.Int) (domain.GasEstimate, error) {
	data, err := PackExchange(args, amount, new(big.Int))
	if err != nil {
		return domain.GasEstimate{}, fmt.Errorf("pack exchange: %w", err)
	}

	value := new(big.Int)
	if c.net.IsNative(args.Route[0]) {
		value.Set(amount)
	}

	router := c.net.RouterAddress
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	gas, err := c.eth.EstimateGas(ctx, ethereum.CallMsg{
		From:  c.estimateFrom,
		To:    &router,
		Value: value,
		Data:  data,
	})
	if err != nil {
		metrics.RPCRequests.WithLabelValues("eth_estimateGas", "error").Inc()
		return domain.GasEstimate{}, err
	}
	metrics.RPCRequests.WithLabelValues("eth_estimateGas", "ok").Inc()

	est := domain.GasEstimate{Gas: gas}
	if c.net.L2 {
		est.L1Gas = l1DataGas(data)
	}
	return est, nil
}

func (c *Client) CurrentGasPrice(ctx context.Context) (*big.Int, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	res, err := c.gasPrice.GetGasPrice(ctx, c.urgency)
	if err != nil {
		return nil, err
	}
	return res.GasPrice, nil
}

// CurrentL1DataGasPrice reads l1BaseFee from the network's gas price oracle. Zero on L1 networks.
func (c *Client) CurrentL1DataGasPrice(ctx context.Context) (*big.Int, error) {
	if !c.net.L2 {
		return new(big.Int), nil
	}
	oracle := c.net.GasOracle
	if oracle == (common.Address{}) {
		oracle = network.OPGasPriceOracle
	}

	data, err := gasOracle.Pack("l1BaseFee")
	if err != nil {
		return nil, err
	}
	res, err := c.call(ctx, "l1BaseFee", oracle, data)
	if err != nil {
		return nil, err
	}
	return unpackUint256(gasOracle, "l1BaseFee", res)
}

// EstimateCall estimates gas for an arbitrary call from a given sender
func (c *Client) EstimateCall(ctx context.Context, from, to common.Address, data []byte) (uint64, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.eth.EstimateGas(ctx, ethereum.CallMsg{From: from, To: &to, Data: data})
}

func (c *Client) call(ctx context.Context, method string, to common.Address, data []byte) ([]byte, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	res, err := c.eth.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		metrics.RPCRequests.WithLabelValues(method, "error").Inc()
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	metrics.RPCRequests.WithLabelValues(method, "ok").Inc()
	return res, nil
}

func (c *Client) callArg(to common.Address, data []byte) map[string]any {
	return map[string]any{
		"to":   to,
		"data": hexutil.Bytes(data),
	}
}
