package gauge

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	container "github.com/thehyperflames/dicontainer-go"
	"golang.org/x/sync/singleflight"

	"github.com/hxuan190/curve-route-engine/internal/adapters/chain"
	"github.com/hxuan190/curve-route-engine/internal/config"
	"github.com/hxuan190/curve-route-engine/internal/domain"
	"github.com/hxuan190/curve-route-engine/internal/metrics"
	"github.com/hxuan190/curve-route-engine/internal/network"
	"github.com/hxuan190/curve-route-engine/internal/services"
)

const GAUGE_SERVICE = "gauge-service"

var ErrProbeFailed = errors.New("gauge probe failed")

// Prober simulates a call from a given sender
type Prober interface {
	EstimateCall(ctx context.Context, from, to common.Address, data []byte) (uint64, error)
}

// ClaimCall is the transaction a wallet sends to claim a gauge's rewards
type ClaimCall struct {
	Capability string         `json:"capability"`
	To         common.Address `json:"to"`
	Data       hexutil.Bytes  `json:"data"`
}

// probeSender is any address; the claim paths do not revert for an empty balance
var probeSender = common.HexToAddress("0x000000000000000000000000000000000000dEaD")

// Service resolves each gauge's claim capability once and caches it
type Service struct {
	container.BaseDIInstance
	logger *services.ServiceLogger
	prober Prober
	minter common.Address

	mu       sync.RWMutex
	resolved map[common.Address]ClaimCapability
	inflight singleflight.Group
}

func NewService(prober Prober, minter common.Address) *Service {
	svc := &Service{prober: prober, minter: minter}
	svc.init()
	return svc
}

func (svc *Service) init() {
	svc.logger = services.NewServiceLogger(svc)
	svc.resolved = make(map[common.Address]ClaimCapability)
}

func (svc *Service) ID() string {
	return GAUGE_SERVICE
}

func (svc *Service) Configure(c container.IContainer) error {
	svc.init()
	svc.prober = c.Instance(chain.CHAIN_SERVICE).(*chain.Service)

	rpcConfig := c.GetConfig(config.RPC_CONFIG_KEY).(*config.RPCConfig)
	net, err := rpcConfig.ResolveNetwork()
	if err != nil {
		return err
	}
	svc.minter = network.MinterFor(net)
	return nil
}

func (svc *Service) Start() error {
	return nil
}

func (svc *Service) Stop() error {
	return nil
}

// Capability returns the gauge's claim shape, probing the contract on first use.
// Transport failures are returned and not cached.
func (svc *Service) Capability(ctx context.Context, gauge common.Address) (ClaimCapability, error) {
	svc.mu.RLock()
	c, ok := svc.resolved[gauge]
	svc.mu.RUnlock()
	if ok {
		return c, nil
	}

	v, err, _ := svc.inflight.Do(domain.AddressKey(gauge), func() (any, error) {
		c, err := svc.probe(ctx, gauge)
		if err != nil {
			return ClaimUnknown, err
		}
		svc.mu.Lock()
		svc.resolved[gauge] = c
		svc.mu.Unlock()
		metrics.GaugeProbes.WithLabelValues(c.String()).Inc()

		svc.logger.Info().
			Str("gauge", domain.AddressKey(gauge)).
			Str("capability", c.String()).
			Msg("[gaugeService] claim capability resolved")
		return c, nil
	})
	if err != nil {
		return ClaimUnknown, err
	}
	return v.(ClaimCapability), nil
}

func (svc *Service) probe(ctx context.Context, gauge common.Address) (ClaimCapability, error) {
	data, err := packClaimWithReceiver(probeSender, probeSender)
	if err != nil {
		return ClaimUnknown, err
	}
	_, err = svc.prober.EstimateCall(ctx, probeSender, gauge, data)
	if err == nil {
		return ClaimWithReceiver, nil
	}
	if !isRevert(err) {
		return ClaimUnknown, fmt.Errorf("%w: %v", ErrProbeFailed, err)
	}

	data, err = packClaimPlain()
	if err != nil {
		return ClaimUnknown, err
	}
	_, err = svc.prober.EstimateCall(ctx, probeSender, gauge, data)
	if err == nil {
		return ClaimPlain, nil
	}
	if !isRevert(err) {
		return ClaimUnknown, fmt.Errorf("%w: %v", ErrProbeFailed, err)
	}
	return ClaimMinterOnly, nil
}

// Claim builds the reward-claim call for owner on gauge
func (svc *Service) Claim(ctx context.Context, gauge, owner common.Address) (*ClaimCall, error) {
	c, err := svc.Capability(ctx, gauge)
	if err != nil {
		return nil, err
	}

	var (
		to   = gauge
		data []byte
	)
	switch c {
	case ClaimWithReceiver:
		data, err = packClaimWithReceiver(owner, owner)
	case ClaimPlain:
		data, err = packClaimPlain()
	default:
		to = svc.minter
		data, err = packMint(gauge)
	}
	if err != nil {
		return nil, err
	}
	return &ClaimCall{Capability: c.String(), To: to, Data: data}, nil
}
