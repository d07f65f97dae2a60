package config

import (
	"errors"

	"github.com/andrew-solarstorm/go-packages/common"
)

type ServerEnv = string

var (
	DevEnv     ServerEnv = "dev"
	StagingEnv ServerEnv = "staging"
	ProdEnv    ServerEnv = "prod"
)

const (
	GENERAL_CONFIG_KEY   = "general-config"
	RPC_CONFIG_KEY       = "rpc-config"
	ROUTER_CONFIG_KEY    = "router-config"
	CATALOGUE_CONFIG_KEY = "catalogue-config"
	PRICING_CONFIG_KEY   = "pricing-config"
)

type GeneralConfig struct {
	HTTPPort string
	HTTPHost string
	Env      string
	LogLevel string

	// RateLimitRPS and RateLimitBurst bound requests per client IP
	RateLimitRPS   int
	RateLimitBurst int
}

func (gc *GeneralConfig) Key() string {
	return GENERAL_CONFIG_KEY
}

func (gc *GeneralConfig) Load() error {
	gc.HTTPPort = common.GetEnvOrDefault("HTTP_PORT", "8080")
	gc.HTTPHost = common.GetEnvOrDefault("HTTP_HOST", "localhost")
	gc.Env = common.GetEnvOrDefault("ENV", "dev")
	gc.LogLevel = common.GetEnvOrDefault("LOG_LEVEL", "INFO")
	gc.RateLimitRPS = common.GetEnvOrDefaultInt("HTTP_RATE_LIMIT_RPS", 10)
	gc.RateLimitBurst = common.GetEnvOrDefaultInt("HTTP_RATE_LIMIT_BURST", 20)
	return gc.Validate()
}

func (gc *GeneralConfig) Validate() error {
	if gc.HTTPPort == "" || gc.HTTPHost == "" || gc.Env == "" {
		return errors.New("invalid server config")
	}
	if gc.RateLimitRPS <= 0 || gc.RateLimitBurst <= 0 {
		return errors.New("invalid server config: rate limit must be positive")
	}
	return nil
}
