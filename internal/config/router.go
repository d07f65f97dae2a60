package config

import (
	"errors"
	"time"

	"github.com/andrew-solarstorm/go-packages/common"
)

type RouterConfig struct {
	// GraphTTL is how long a built route graph is reused.
	// Default: 15s
	GraphTTL time.Duration

	// BestRouteTTL is how long a best-route decision is cached per (input, output, amount).
	// Default: 300s
	BestRouteTTL time.Duration

	// GasCacheTTL is how long a route's gas estimate is reused.
	// Default: 3600s
	GasCacheTTL time.Duration

	// MaxRoutesPerCriterion bounds each candidate buffer of the route search.
	// Default: 5
	MaxRoutesPerCriterion int

	// Workers is the size of the graph build / route search pool. 0 means GOMAXPROCS.
	Workers int
}

func (c *RouterConfig) Key() string {
	return ROUTER_CONFIG_KEY
}

func (c *RouterConfig) Load() error {
	c.GraphTTL = time.Duration(common.GetEnvOrDefaultInt("ROUTER_GRAPH_TTL_SECONDS", 15)) * time.Second
	c.BestRouteTTL = time.Duration(common.GetEnvOrDefaultInt("ROUTER_BEST_ROUTE_TTL_SECONDS", 300)) * time.Second
	c.GasCacheTTL = time.Duration(common.GetEnvOrDefaultInt("ROUTER_GAS_CACHE_TTL_SECONDS", 3600)) * time.Second
	c.MaxRoutesPerCriterion = common.GetEnvOrDefaultInt("ROUTER_MAX_ROUTES_PER_CRITERION", 5)
	c.Workers = common.GetEnvOrDefaultInt("ROUTER_WORKERS", 0)
	return c.Validate()
}

func (c *RouterConfig) Validate() error {
	if c.GraphTTL <= 0 || c.BestRouteTTL <= 0 || c.GasCacheTTL <= 0 {
		return errors.New("invalid router config: cache ttls must be positive")
	}
	if c.MaxRoutesPerCriterion <= 0 {
		return errors.New("invalid router config: ROUTER_MAX_ROUTES_PER_CRITERION must be positive")
	}
	if c.Workers < 0 {
		return errors.New("invalid router config: ROUTER_WORKERS must not be negative")
	}
	return nil
}
