package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/andrew-solarstorm/go-packages/common"
	ethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/hxuan190/curve-route-engine/internal/network"
)

type RPCConfig struct {
	RPCUrl string
	// Network is a network name ("ethereum", "arbitrum", ...) or a chain id
	Network string
	// RouterAddress overrides the network's router contract when set
	RouterAddress string
	// GasOracleAddress overrides the L1 gas price oracle on L2 networks
	GasOracleAddress string
	// EstimateFrom is the sender for gas simulation; a funded, approved holder gives tighter estimates
	EstimateFrom   string
	RequestTimeout time.Duration
}

func (r *RPCConfig) Key() string {
	return RPC_CONFIG_KEY
}

func (r *RPCConfig) Load() error {
	r.RPCUrl = os.Getenv("RPC_URL")
	r.Network = common.GetEnvOrDefault("NETWORK", "ethereum")
	r.RouterAddress = os.Getenv("ROUTER_ADDRESS")
	r.GasOracleAddress = os.Getenv("GAS_ORACLE_ADDRESS")
	r.EstimateFrom = os.Getenv("RPC_ESTIMATE_FROM")
	r.RequestTimeout = time.Duration(common.GetEnvOrDefaultInt("RPC_TIMEOUT_SECONDS", 10)) * time.Second
	return r.Validate()
}

func (r *RPCConfig) Validate() error {
	if r.RPCUrl == "" {
		return errors.New("invalid rpc config: RPC_URL is required")
	}
	for _, addr := range []string{r.RouterAddress, r.GasOracleAddress, r.EstimateFrom} {
		if addr != "" && !ethcommon.IsHexAddress(addr) {
			return fmt.Errorf("invalid rpc config: bad address %q", addr)
		}
	}
	if _, err := r.ResolveNetwork(); err != nil {
		return err
	}
	return nil
}

// ResolveNetwork returns the network constants with any configured overrides applied
func (r *RPCConfig) ResolveNetwork() (network.Network, error) {
	net, err := network.ByName(r.Network)
	if err != nil {
		return network.Network{}, err
	}
	if r.RouterAddress != "" {
		net.RouterAddress = ethcommon.HexToAddress(r.RouterAddress)
	}
	if r.GasOracleAddress != "" {
		net.GasOracle = ethcommon.HexToAddress(r.GasOracleAddress)
	}
	return net, nil
}
