package main

import (
	pkgcommon "github.com/andrew-solarstorm/go-packages/common"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/curve-route-engine/internal/adapters/blockchain"
	"github.com/hxuan190/curve-route-engine/internal/adapters/chain"
	"github.com/hxuan190/curve-route-engine/internal/adapters/pricing"
	"github.com/hxuan190/curve-route-engine/internal/common"
	"github.com/hxuan190/curve-route-engine/internal/config"
	"github.com/hxuan190/curve-route-engine/internal/http"
	"github.com/hxuan190/curve-route-engine/internal/services/catalogue"
	"github.com/hxuan190/curve-route-engine/internal/services/gauge"
	"github.com/hxuan190/curve-route-engine/internal/services/router"
)

// @title Curve Route Engine API
// @version 1.0
// @description Best-route search across Curve pools for one EVM network.
// @description
// @description ## - Features
// @description - **Route Search**: Up to 4-hop routes through plain, meta, lending and crypto pools, LP tokens and wrappers
// @description - **Net Ranking**: Candidates ranked by output value net of gas, including the L1 data fee on L2 networks
// @description - **Exact Out**: Required input quoted in reverse along the best forward route
// @description - **Price Impact**: Rate of a trade against a one-token reference trade on the same route
// @description - **Swap Calls**: ABI-encoded router exchange calls with a slippage bound
// @description - **Gauge Claims**: Reward-claim calls resolved per gauge
// @description
// @description ## - Usage Tips
// @description - Use smallest coin units: 1 USDC = 1000000
// @description - The native coin is 0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE
// @description - Default slippage is 50 bps (0.5%)
// @description - Rate Limit: 10 requests/second per IP (burst: 20)
// @BasePath /
// @schemes https http
// @tag.name route
// @tag.description Best route and ranked candidates for a coin pair
// @tag.name quote
// @tag.description Swap quotes with price impact analysis
// @tag.name swap
// @tag.description Build unsigned router exchange calls
// @tag.name pools
// @tag.description Pool catalogue
// @tag.name gauges
// @tag.description Gauge reward claims

func main() {
	// load env
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("no .env file, using process environment")
	}

	common.SetupLogger(pkgcommon.GetEnvOrDefault("LOG_LEVEL", "INFO"), pkgcommon.GetEnvOrDefault("ENV", "dev"))
	common.InitRuntime()

	// di container config
	conf := container.NewConf(
		&config.GeneralConfig{},
		&config.RPCConfig{},
		&config.RouterConfig{},
		&config.CatalogueConfig{},
		&config.PricingConfig{},
	)

	// di container; instances start in order and the router needs everything above it
	dic, err := container.New(
		// config
		conf,

		// services
		&catalogue.Service{},
		&chain.Service{},
		&blockchain.GasPriceCacheService{},
		&pricing.Service{},
		&gauge.Service{},
		&router.Service{},

		&http.HTTPService{},
	)
	if err != nil {
		log.Error().Err(err).Msg("failed to create di container")
		return
	}

	// Run blocks until SIGINT/SIGTERM
	if err := dic.Run(); err != nil {
		log.Error().Err(err).Msg("failed to run di container")
		return
	}

	// Run doesn't call Stop(), we must do it manually
	log.Info().Msg("Shutting down services...")
	if err := dic.Stop(); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
	log.Info().Msg("Shutdown complete")
}
