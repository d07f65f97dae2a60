package chain

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/hxuan190/curve-route-engine/internal/domain"
)

const (
	methodGetDy    = "get_dy"
	methodGetDx    = "get_dx"
	methodExchange = "exchange"
)

// routerNGPoolsABI is the NG router with the zap pools argument (mainnet)
const routerNGPoolsABI = `[
{"name":"get_dy","type":"function","stateMutability":"view","inputs":[
 {"name":"_route","type":"address[11]"},{"name":"_swap_params","type":"uint256[5][5]"},
 {"name":"_amount","type":"uint256"},{"name":"_pools","type":"address[5]"}],
 "outputs":[{"name":"","type":"uint256"}]},
{"name":"get_dx","type":"function","stateMutability":"view","inputs":[
 {"name":"_route","type":"address[11]"},{"name":"_swap_params","type":"uint256[5][5]"},
 {"name":"_out_amount","type":"uint256"},{"name":"_pools","type":"address[5]"},
 {"name":"_base_pools","type":"address[5]"},{"name":"_base_tokens","type":"address[5]"}],
 "outputs":[{"name":"","type":"uint256"}]},
{"name":"exchange","type":"function","stateMutability":"payable","inputs":[
 {"name":"_route","type":"address[11]"},{"name":"_swap_params","type":"uint256[5][5]"},
 {"name":"_amount","type":"uint256"},{"name":"_expected","type":"uint256"},
 {"name":"_pools","type":"address[5]"}],
 "outputs":[{"name":"","type":"uint256"}]}
]`

const routerNGABI = `[
{"name":"get_dy","type":"function","stateMutability":"view","inputs":[
 {"name":"_route","type":"address[11]"},{"name":"_swap_params","type":"uint256[5][5]"},
 {"name":"_amount","type":"uint256"}],
 "outputs":[{"name":"","type":"uint256"}]},
{"name":"get_dx","type":"function","stateMutability":"view","inputs":[
 {"name":"_route","type":"address[11]"},{"name":"_swap_params","type":"uint256[5][5]"},
 {"name":"_out_amount","type":"uint256"},
 {"name":"_base_pools","type":"address[5]"},{"name":"_base_tokens","type":"address[5]"}],
 "outputs":[{"name":"","type":"uint256"}]},
{"name":"exchange","type":"function","stateMutability":"payable","inputs":[
 {"name":"_route","type":"address[11]"},{"name":"_swap_params","type":"uint256[5][5]"},
 {"name":"_amount","type":"uint256"},{"name":"_expected","type":"uint256"}],
 "outputs":[{"name":"","type":"uint256"}]}
]`

// routerLegacyABI takes (i, j, swapType, poolType) rows and explicit base pool arrays
const routerLegacyABI = `[
{"name":"get_dy","type":"function","stateMutability":"view","inputs":[
 {"name":"_route","type":"address[11]"},{"name":"_swap_params","type":"uint256[4][5]"},
 {"name":"_amount","type":"uint256"},
 {"name":"_base_pools","type":"address[5]"},{"name":"_base_tokens","type":"address[5]"},
 {"name":"_second_base_pools","type":"address[5]"},{"name":"_second_base_tokens","type":"address[5]"}],
 "outputs":[{"name":"","type":"uint256"}]},
{"name":"get_dx","type":"function","stateMutability":"view","inputs":[
 {"name":"_route","type":"address[11]"},{"name":"_swap_params","type":"uint256[4][5]"},
 {"name":"_out_amount","type":"uint256"},
 {"name":"_base_pools","type":"address[5]"},{"name":"_base_tokens","type":"address[5]"},
 {"name":"_second_base_pools","type":"address[5]"},{"name":"_second_base_tokens","type":"address[5]"}],
 "outputs":[{"name":"","type":"uint256"}]},
{"name":"exchange","type":"function","stateMutability":"payable","inputs":[
 {"name":"_route","type":"address[11]"},{"name":"_swap_params","type":"uint256[4][5]"},
 {"name":"_amount","type":"uint256"},{"name":"_expected","type":"uint256"},
 {"name":"_base_pools","type":"address[5]"},{"name":"_base_tokens","type":"address[5]"},
 {"name":"_second_base_pools","type":"address[5]"},{"name":"_second_base_tokens","type":"address[5]"}],
 "outputs":[{"name":"","type":"uint256"}]}
]`

const gasOracleABI = `[
{"name":"l1BaseFee","type":"function","stateMutability":"view","inputs":[],
 "outputs":[{"name":"","type":"uint256"}]}
]`

var (
	ngPoolsRouter = mustParseABI(routerNGPoolsABI)
	ngRouter      = mustParseABI(routerNGABI)
	legacyRouter  = mustParseABI(routerLegacyABI)
	gasOracle     = mustParseABI(gasOracleABI)
)

func mustParseABI(s string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic(fmt.Sprintf("invalid abi: %v", err))
	}
	return parsed
}

func routerABIFor(args domain.ExchangeArgs) abi.ABI {
	switch {
	case args.ABI == domain.RouterABILegacy:
		return legacyRouter
	case args.NeedsPools:
		return ngPoolsRouter
	default:
		return ngRouter
	}
}

// PackGetDy encodes get_dy for the route's ABI shape
func PackGetDy(args domain.ExchangeArgs, amount *big.Int) ([]byte, error) {
	parsed := routerABIFor(args)
	switch {
	case args.ABI == domain.RouterABILegacy:
		return parsed.Pack(methodGetDy, args.Route, args.LegacySwapParams(), amount,
			args.BasePools, args.BaseTokens, args.SecondBasePools, args.SecondBaseTokens)
	case args.NeedsPools:
		return parsed.Pack(methodGetDy, args.Route, args.SwapParams, amount, args.Pools)
	default:
		return parsed.Pack(methodGetDy, args.Route, args.SwapParams, amount)
	}
}

// PackGetDx encodes get_dx for the route's ABI shape
func PackGetDx(args domain.ExchangeArgs, amountOut *big.Int) ([]byte, error) {
	parsed := routerABIFor(args)
	switch {
	case args.ABI == domain.RouterABILegacy:
		return parsed.Pack(methodGetDx, args.Route, args.LegacySwapParams(), amountOut,
			args.BasePools, args.BaseTokens, args.SecondBasePools, args.SecondBaseTokens)
	case args.NeedsPools:
		return parsed.Pack(methodGetDx, args.Route, args.SwapParams, amountOut, args.Pools, args.BasePools, args.BaseTokens)
	default:
		return parsed.Pack(methodGetDx, args.Route, args.SwapParams, amountOut, args.BasePools, args.BaseTokens)
	}
}

// PackExchange encodes the exchange call a wallet submits
func PackExchange(args domain.ExchangeArgs, amount, expected *big.Int) ([]byte, error) {
	parsed := routerABIFor(args)
	switch {
	case args.ABI == domain.RouterABILegacy:
		return parsed.Pack(methodExchange, args.Route, args.LegacySwapParams(), amount, expected,
			args.BasePools, args.BaseTokens, args.SecondBasePools, args.SecondBaseTokens)
	case args.NeedsPools:
		return parsed.Pack(methodExchange, args.Route, args.SwapParams, amount, expected, args.Pools)
	default:
		return parsed.Pack(methodExchange, args.Route, args.SwapParams, amount, expected)
	}
}

// unpackUint256 decodes a single uint256 return value
func unpackUint256(parsed abi.ABI, method string, data []byte) (*big.Int, error) {
	out, err := parsed.Unpack(method, data)
	if err != nil {
		return nil, err
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("%s: expected 1 return value, got %d", method, len(out))
	}
	v, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected return type %T", method, out[0])
	}
	return v, nil
}

// calldataGas is the L1 data gas of a payload: 16 per non-zero byte, 4 per zero byte
func calldataGas(data []byte) uint64 {
	var gas uint64
	for _, b := range data {
		if b == 0 {
			gas += 4
		} else {
			gas += 16
		}
	}
	return gas
}

// l1TxOverhead covers the fixed L1 overhead plus a 68-byte signed envelope
const l1TxOverhead = 188 + 68*16

func l1DataGas(data []byte) uint64 {
	return calldataGas(data) + l1TxOverhead
}

// ExchangeL1DataGas is the L1 data gas of the exchange calldata EstimateGas would send
func ExchangeL1DataGas(args domain.ExchangeArgs, amount *big.Int) (uint64, error) {
	data, err := PackExchange(args, amount, new(big.Int))
	if err != nil {
		return 0, fmt.Errorf("pack exchange: %w", err)
	}
	return l1DataGas(data), nil
}
