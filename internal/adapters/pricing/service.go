package pricing

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/curve-route-engine/internal/config"
	"github.com/hxuan190/curve-route-engine/internal/domain"
	"github.com/hxuan190/curve-route-engine/internal/services"
)

const PRICING_SERVICE = "pricing-service"

type Service struct {
	container.BaseDIInstance
	logger *services.ServiceLogger
	client *Client
	pinned *StaticProvider
}

func (svc *Service) ID() string {
	return PRICING_SERVICE
}

func (svc *Service) Configure(c container.IContainer) error {
	svc.logger = services.NewServiceLogger(svc)
	pricingConfig := c.GetConfig(config.PRICING_CONFIG_KEY).(*config.PricingConfig)
	rpcConfig := c.GetConfig(config.RPC_CONFIG_KEY).(*config.RPCConfig)

	net, err := rpcConfig.ResolveNetwork()
	if err != nil {
		return err
	}
	overrides, err := ParseOverrides(pricingConfig.Overrides)
	if err != nil {
		return err
	}
	svc.pinned = NewStaticProvider(overrides)
	svc.client = NewClient(net, ClientOptions{
		BaseURL:           pricingConfig.APIUrl,
		RequestsPerSecond: pricingConfig.RequestsPerSecond,
		CacheTTL:          pricingConfig.CacheTTL,
	})
	return nil
}

func (svc *Service) Start() error {
	svc.logger.Info().Str("api", svc.client.baseURL).Int("pinned", svc.pinned.Len()).Msg("[pricingService] started")
	return nil
}

func (svc *Service) Stop() error {
	return nil
}

// USDRate serves pinned rates first and asks the price API for the rest
func (svc *Service) USDRate(ctx context.Context, token common.Address) (float64, error) {
	if r, err := svc.pinned.USDRate(ctx, token); err == nil {
		return r, nil
	}
	return svc.client.USDRate(ctx, token)
}

// ParseOverrides reads "0xabc=1.0,0xdef=2500" into a rate map
func ParseOverrides(s string) (map[common.Address]float64, error) {
	out := make(map[common.Address]float64)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		addr, rate, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid price override %q: want address=rate", pair)
		}
		token, err := domain.ParseAddress(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid price override %q: %w", pair, err)
		}
		r, err := strconv.ParseFloat(strings.TrimSpace(rate), 64)
		if err != nil || r <= 0 {
			return nil, fmt.Errorf("invalid price override %q: rate must be a positive number", pair)
		}
		out[token] = r
	}
	return out, nil
}
