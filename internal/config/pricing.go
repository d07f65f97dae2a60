package config

import (
	"errors"
	"time"

	"github.com/andrew-solarstorm/go-packages/common"
)

type PricingConfig struct {
	// APIUrl is the USD price endpoint; /{network}/{token} is appended per request.
	APIUrl string

	// RequestsPerSecond rate limits outgoing price requests.
	// Default: 5
	RequestsPerSecond int

	// CacheTTL is how long a USD rate is reused.
	// Default: 60s
	CacheTTL time.Duration

	// Overrides pins USD rates, as comma separated address=rate pairs.
	// Pinned tokens never hit the price API.
	Overrides string
}

func (c *PricingConfig) Key() string {
	return PRICING_CONFIG_KEY
}

func (c *PricingConfig) Load() error {
	c.APIUrl = common.GetEnvOrDefault("PRICE_API_URL", "https://prices.curve.fi/v1/usd_price")
	c.RequestsPerSecond = common.GetEnvOrDefaultInt("PRICE_API_RPS", 5)
	c.CacheTTL = time.Duration(common.GetEnvOrDefaultInt("PRICE_CACHE_TTL_SECONDS", 60)) * time.Second
	c.Overrides = common.GetEnvOrDefault("PRICE_OVERRIDES", "")
	return c.Validate()
}

func (c *PricingConfig) Validate() error {
	if c.APIUrl == "" {
		return errors.New("invalid pricing config: PRICE_API_URL is required")
	}
	if c.RequestsPerSecond <= 0 || c.CacheTTL <= 0 {
		return errors.New("invalid pricing config")
	}
	return nil
}
