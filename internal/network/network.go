// Package network holds per-chain constants the route graph and router calls depend on.
package network

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/hxuan190/curve-route-engine/internal/domain"
)

var ErrUnknownNetwork = errors.New("unknown network")

const (
	ChainEthereum  uint64 = 1
	ChainOptimism  uint64 = 10
	ChainBSC       uint64 = 56
	ChainXDai      uint64 = 100
	ChainPolygon   uint64 = 137
	ChainFantom    uint64 = 250
	ChainFraxtal   uint64 = 252
	ChainZkSync    uint64 = 324
	ChainMoonbeam  uint64 = 1284
	ChainKava      uint64 = 2222
	ChainMantle    uint64 = 5000
	ChainBase      uint64 = 8453
	ChainArbitrum  uint64 = 42161
	ChainCelo      uint64 = 42220
	ChainAvalanche uint64 = 43114
	ChainAurora    uint64 = 1313161554
)

// NativeToken is the placeholder address for the chain's gas coin.
var NativeToken = common.HexToAddress("0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE")

// OP-stack gas price oracle predeploy exposing l1BaseFee().
var OPGasPriceOracle = common.HexToAddress("0x420000000000000000000000000000000000000F")

// Wrapper is a fixed conversion outside the pool catalogue.
type Wrapper struct {
	ID            string
	SwapAddress   common.Address
	From          common.Address
	To            common.Address
	Bidirectional bool
}

type SynthExchanger struct {
	Address common.Address
	Coins   []common.Address
}

type Network struct {
	ChainID       uint64
	Name          string
	NativeSymbol  string
	WrappedNative common.Address

	RouterAddress    common.Address
	RouterABI        domain.RouterABI
	RouterNeedsPools bool

	// L2 networks pay an L1 data fee priced from GasOracle.
	L2        bool
	GasOracle common.Address

	MinPoolTVL float64

	SkipNativeWrap bool
	Wrappers       []Wrapper
	SynthExchanger *SynthExchanger

	ExcludedUnderlying     []string
	SkipUnderlyingIndex    map[string]int
	NativeExchangeExcluded []string
}

func (n Network) IsUnderlyingExcluded(poolID string) bool {
	return slices.Contains(n.ExcludedUnderlying, poolID)
}

func (n Network) SkipsUnderlyingIndex(poolID string, idx int) bool {
	skip, ok := n.SkipUnderlyingIndex[poolID]
	return ok && skip == idx
}

func (n Network) ExcludesNativeExchange(poolID string) bool {
	return slices.Contains(n.NativeExchangeExcluded, poolID)
}

func (n Network) IsNative(coin common.Address) bool {
	return coin == NativeToken
}

var (
	weth    = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	stETH   = common.HexToAddress("0xae7ab96520DE3A18E5e111B5EaAb095312D7fE84")
	wstETH  = common.HexToAddress("0x7f39C581F595B53c5cb19bD0b3f8dA6c935E2Ca0")
	frxETH  = common.HexToAddress("0x5E8422345238F34275888049021821E8E08CAa1f")
	sfrxETH = common.HexToAddress("0xac3E018457B222d93114458476f3E3416Abbe38F")
	wBETH   = common.HexToAddress("0xa2E3356610840701BDf5611a53974510Ae27E2e1")

	frxETHMinter = common.HexToAddress("0xbAFA44EFE7901E04E39Dad13167D089C559c1138")

	// Synthetix on Optimism: synths trade atomically through the SNX proxy
	snxOptimism   = common.HexToAddress("0x8700dAec35aF8Ff88c16BdF0418774CB3D7599B4")
	sUSDOptimism  = common.HexToAddress("0x8c6f28f2F1A3C87F0f938b96d27520d9751ec8d9")
	sETHOptimism  = common.HexToAddress("0xE405de8F52ba7559f9df3C368500B6E6ae6Cee49")
	sBTCOptimism  = common.HexToAddress("0x298B9B95708152ff6968aafd889c6586e9169f1D")
	sLINKOptimism = common.HexToAddress("0xc5Db22719A06418028A40A9B5E9A7c02959D0d08")

	routerNG     = common.HexToAddress("0x0DCDED3545D565bA3B19E683431381007245d983")
	routerNGMain = common.HexToAddress("0x16C6521Dff6baB339122a0FE25a9116693265353")
)

var networks = map[uint64]Network{
	ChainEthereum: {
		ChainID:          ChainEthereum,
		Name:             "ethereum",
		NativeSymbol:     "ETH",
		WrappedNative:    weth,
		RouterAddress:    routerNGMain,
		RouterABI:        domain.RouterABING,
		RouterNeedsPools: true,
		MinPoolTVL:       1000,
		Wrappers: []Wrapper{
			{ID: "stETH minter", SwapAddress: stETH, From: NativeToken, To: stETH},
			{ID: "frxETH minter", SwapAddress: frxETHMinter, From: NativeToken, To: frxETH},
			{ID: "wBETH minter", SwapAddress: wBETH, From: NativeToken, To: wBETH},
			{ID: "wstETH wrapper", SwapAddress: wstETH, From: stETH, To: wstETH, Bidirectional: true},
			{ID: "sfrxETH wrapper", SwapAddress: sfrxETH, From: frxETH, To: sfrxETH, Bidirectional: true},
		},
		ExcludedUnderlying: []string{"ib", "saave"},
	},
	ChainOptimism: {
		ChainID:       ChainOptimism,
		Name:          "optimism",
		NativeSymbol:  "ETH",
		WrappedNative: common.HexToAddress("0x4200000000000000000000000000000000000006"),
		RouterAddress: routerNG,
		L2:            true,
		GasOracle:     OPGasPriceOracle,
		MinPoolTVL:    100,
		SynthExchanger: &SynthExchanger{
			Address: snxOptimism,
			Coins:   []common.Address{sUSDOptimism, sETHOptimism, sBTCOptimism, sLINKOptimism},
		},
	},
	ChainBSC: {
		ChainID:       ChainBSC,
		Name:          "bsc",
		NativeSymbol:  "BNB",
		WrappedNative: common.HexToAddress("0xbb4CdB9CBd36B01bD1cBaEBF2De08d9173bc095c"),
		RouterAddress: common.HexToAddress("0xA72C85C258A81761433B4e8da60505Fe3Dd551CC"),
		MinPoolTVL:    100,
	},
	ChainXDai: {
		ChainID:       ChainXDai,
		Name:          "xdai",
		NativeSymbol:  "XDAI",
		WrappedNative: common.HexToAddress("0xe91D153E0b41518A2Ce8Dd3D7944Fa863463a97d"),
		RouterAddress: routerNG,
		MinPoolTVL:    100,
	},
	ChainPolygon: {
		ChainID:       ChainPolygon,
		Name:          "polygon",
		NativeSymbol:  "POL",
		WrappedNative: common.HexToAddress("0x0d500B1d8E8eF31E21C99d1Db9A6444d3ADf1270"),
		RouterAddress: routerNG,
		MinPoolTVL:    100,
	},
	ChainFantom: {
		ChainID:            ChainFantom,
		Name:               "fantom",
		NativeSymbol:       "FTM",
		WrappedNative:      common.HexToAddress("0x21be370D5312f44cB42ce377BC9b8a0cEF1A4C83"),
		RouterAddress:      routerNG,
		MinPoolTVL:         100,
		ExcludedUnderlying: []string{"geist"},
	},
	ChainFraxtal: {
		ChainID:       ChainFraxtal,
		Name:          "fraxtal",
		NativeSymbol:  "frxETH",
		WrappedNative: common.HexToAddress("0xFC00000000000000000000000000000000000006"),
		RouterAddress: common.HexToAddress("0x9f2Fa7709B30c75047980a0d70A106728f0Ef2db"),
		L2:            true,
		GasOracle:     OPGasPriceOracle,
		MinPoolTVL:    100,
	},
	ChainZkSync: {
		ChainID:       ChainZkSync,
		Name:          "zksync",
		NativeSymbol:  "ETH",
		WrappedNative: common.HexToAddress("0x5AEa5775959fBC2557Cc8789bC1bf90A239D9a91"),
		RouterAddress: common.HexToAddress("0x7C915390e109CA66934f1eB285854375D1B127FA"),
		RouterABI:     domain.RouterABILegacy,
		MinPoolTVL:    100,
	},
	ChainMoonbeam: {
		ChainID:       ChainMoonbeam,
		Name:          "moonbeam",
		NativeSymbol:  "GLMR",
		WrappedNative: common.HexToAddress("0xAcc15dC74880C9944775448304B263D191c6077F"),
		RouterAddress: routerNG,
		MinPoolTVL:    100,
	},
	ChainKava: {
		ChainID:       ChainKava,
		Name:          "kava",
		NativeSymbol:  "KAVA",
		WrappedNative: common.HexToAddress("0xc86c7C0eFbd6A49B35E8714C5f59D99De09A225b"),
		RouterAddress: routerNG,
		MinPoolTVL:    100,
	},
	ChainMantle: {
		ChainID:       ChainMantle,
		Name:          "mantle",
		NativeSymbol:  "MNT",
		WrappedNative: common.HexToAddress("0x78c1b0C915c4FAA5FffA6CAbf0219DA63d7f4cb8"),
		RouterAddress: routerNG,
		L2:            true,
		GasOracle:     OPGasPriceOracle,
		MinPoolTVL:    100,
	},
	ChainBase: {
		ChainID:       ChainBase,
		Name:          "base",
		NativeSymbol:  "ETH",
		WrappedNative: common.HexToAddress("0x4200000000000000000000000000000000000006"),
		RouterAddress: common.HexToAddress("0x4f37A9d177470499A2dD084621020b023fcffc1F"),
		L2:            true,
		GasOracle:     OPGasPriceOracle,
		MinPoolTVL:    100,
	},
	ChainArbitrum: {
		ChainID:       ChainArbitrum,
		Name:          "arbitrum",
		NativeSymbol:  "ETH",
		WrappedNative: common.HexToAddress("0x82aF49447D8a07e3bd95BD0d56f35241523fBab1"),
		RouterAddress: common.HexToAddress("0x2191718CD32d02B8E60BAdFFeA33E4B5DD9A0A0D"),
		MinPoolTVL:    100,
	},
	ChainCelo: {
		ChainID:        ChainCelo,
		Name:           "celo",
		NativeSymbol:   "CELO",
		RouterAddress:  routerNG,
		MinPoolTVL:     100,
		SkipNativeWrap: true,
	},
	ChainAvalanche: {
		ChainID:                ChainAvalanche,
		Name:                   "avalanche",
		NativeSymbol:           "AVAX",
		WrappedNative:          common.HexToAddress("0xB31f66AA3C1e785363F0875A1B74E27b85FD66c7"),
		RouterAddress:          routerNG,
		MinPoolTVL:             100,
		SkipUnderlyingIndex:    map[string]int{"atricrypto": 3},
		NativeExchangeExcluded: []string{"avaxcrypto"},
	},
	ChainAurora: {
		ChainID:       ChainAurora,
		Name:          "aurora",
		NativeSymbol:  "ETH",
		WrappedNative: common.HexToAddress("0xC9BdeEd33CD01541e1eeD10f90519d2C06Fe3feB"),
		RouterAddress: routerNG,
		MinPoolTVL:    100,
	},
}

// ByChainID returns a copy of the network constants; callers may override fields.
func ByChainID(id uint64) (Network, error) {
	n, ok := networks[id]
	if !ok {
		return Network{}, fmt.Errorf("%w: chain id %d (supported: %v)", ErrUnknownNetwork, id, Supported())
	}
	n.Wrappers = slices.Clone(n.Wrappers)
	n.ExcludedUnderlying = slices.Clone(n.ExcludedUnderlying)
	n.NativeExchangeExcluded = slices.Clone(n.NativeExchangeExcluded)
	if ex := n.SynthExchanger; ex != nil {
		n.SynthExchanger = &SynthExchanger{Address: ex.Address, Coins: slices.Clone(ex.Coins)}
	}
	return n, nil
}

// ByName accepts a network name or a decimal chain id
func ByName(name string) (Network, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if id, err := strconv.ParseUint(name, 10, 64); err == nil {
		return ByChainID(id)
	}
	for id, n := range networks {
		if n.Name == name {
			return ByChainID(id)
		}
	}
	return Network{}, fmt.Errorf("%w: %q (supported: %v)", ErrUnknownNetwork, name, Supported())
}

// Supported lists the configured chain ids in ascending order
func Supported() []uint64 {
	ids := make([]uint64, 0, len(networks))
	for id := range networks {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

var (
	crvMinter         = common.HexToAddress("0xd061D61a4d941c39E5453435B6345Dc261C2fcE0")
	childGaugeFactory = common.HexToAddress("0xabC000d88f23Bb45525E447528DBF656A9D55bf5")
)

// MinterFor is the contract that mints CRV for a gauge: the mainnet Minter, or the
// child gauge factory on sidechains.
func MinterFor(n Network) common.Address {
	if n.ChainID == ChainEthereum {
		return crvMinter
	}
	return childGaugeFactory
}
