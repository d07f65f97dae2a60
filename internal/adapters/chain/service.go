package chain

import (
	"context"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/curve-route-engine/internal/config"
)

const CHAIN_SERVICE = "chain-service"

// Service exposes the chain client to the container
type Service struct {
	container.BaseDIInstance
	*Client
}

func (svc *Service) ID() string {
	return CHAIN_SERVICE
}

func (svc *Service) Configure(c container.IContainer) error {
	rpcConfig := c.GetConfig(config.RPC_CONFIG_KEY).(*config.RPCConfig)
	net, err := rpcConfig.ResolveNetwork()
	if err != nil {
		return err
	}

	client, err := Dial(context.Background(), rpcConfig.RPCUrl, net, rpcConfig.RequestTimeout)
	if err != nil {
		return err
	}
	if rpcConfig.EstimateFrom != "" {
		client.SetEstimateFrom(ethcommon.HexToAddress(rpcConfig.EstimateFrom))
	}
	svc.Client = client
	return nil
}

func (svc *Service) Start() error {
	id, err := svc.ChainID(context.Background())
	if err != nil {
		log.Warn().Err(err).Msg("[chainService] failed to read chain id, continuing")
		return nil
	}
	if id.Uint64() != svc.net.ChainID {
		log.Warn().
			Uint64("node", id.Uint64()).
			Uint64("configured", svc.net.ChainID).
			Msg("[chainService] node chain id does not match configured network")
	}
	log.Info().Str("network", svc.net.Name).Str("router", svc.net.RouterAddress.Hex()).Msg("[chainService] started")
	return nil
}

func (svc *Service) Stop() error {
	if svc.Client != nil {
		svc.Close()
	}
	return nil
}
