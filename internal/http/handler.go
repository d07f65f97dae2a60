package http

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	gohttp "net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/curve-route-engine/internal/config"
	"github.com/hxuan190/curve-route-engine/internal/domain"
	"github.com/hxuan190/curve-route-engine/internal/http/httputil"
	"github.com/hxuan190/curve-route-engine/internal/http/middlewares"
	"github.com/hxuan190/curve-route-engine/internal/network"
	"github.com/hxuan190/curve-route-engine/internal/services/catalogue"
	"github.com/hxuan190/curve-route-engine/internal/services/gauge"
	"github.com/hxuan190/curve-route-engine/internal/services/router"
)

const (
	API_VERSION  = "v1"
	HTTP_SERVICE = "http-service"
)

// RouteService is the router surface the handlers use
type RouteService interface {
	Network() network.Network
	Decimals(token common.Address) uint8
	BestRoute(ctx context.Context, from, to common.Address, amount *big.Int) (*domain.BestRouteResult, error)
	RequiredInput(ctx context.Context, from, to common.Address, amountOut *big.Int) (*big.Int, domain.Route, error)
	PriceImpact(ctx context.Context, from, to common.Address, amount *big.Int) (*domain.PriceImpactResult, error)
	SwapArgs(ctx context.Context, from, to common.Address, amount *big.Int, slippageBps uint16) (*domain.SwapCall, error)
	InvalidateGraph()
	Stats() router.ServiceStats
}

type PoolCatalogue interface {
	List() []*domain.Pool
	Pool(id string) (*domain.Pool, bool)
	TVL(id string) float64
	Ready() bool
	GetStats() (int, int64)
}

type GaugeService interface {
	Capability(ctx context.Context, gauge common.Address) (gauge.ClaimCapability, error)
	Claim(ctx context.Context, gauge, owner common.Address) (*gauge.ClaimCall, error)
}

type HTTPService struct {
	container.BaseDIInstance

	router      RouteService
	catalogue   PoolCatalogue
	gauges      GaugeService
	rateLimiter *middlewares.RateLimiter
	server      *gohttp.Server
	conf        *config.GeneralConfig

	handlers []httputil.IHttpHandler
}

// NewHTTPService wires the handlers without the container, used by tests
func NewHTTPService(conf *config.GeneralConfig, rs RouteService, pools PoolCatalogue, gauges GaugeService) *HTTPService {
	svc := &HTTPService{conf: conf}
	svc.init(rs, pools, gauges)
	return svc
}

func (svc *HTTPService) init(rs RouteService, pools PoolCatalogue, gauges GaugeService) {
	svc.router = rs
	svc.catalogue = pools
	svc.gauges = gauges
	svc.rateLimiter = middlewares.NewRateLimiter(svc.conf.RateLimitRPS, svc.conf.RateLimitBurst)

	svc.handlers = []httputil.IHttpHandler{
		NewPoolHandler(pools),
		NewRouteHandler(rs),
		NewQuoteHandler(rs),
		NewSwapHandler(rs),
		NewGaugeHandler(gauges),
	}
}

func (svc *HTTPService) ID() string {
	return HTTP_SERVICE
}

func (svc *HTTPService) Configure(c container.IContainer) error {
	svc.conf = c.GetConfig(config.GENERAL_CONFIG_KEY).(*config.GeneralConfig)
	if svc.conf == nil {
		return errors.New("invalid server config")
	}

	svc.init(
		c.Instance(router.ROUTER_SERVICE).(*router.Service),
		c.Instance(catalogue.CATALOGUE_SERVICE).(*catalogue.Service),
		c.Instance(gauge.GAUGE_SERVICE).(*gauge.Service),
	)
	return nil
}

// Engine builds the gin engine with every route registered
func (svc *HTTPService) Engine() *gin.Engine {
	if svc.conf.Env == config.ProdEnv {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	corsConf := cors.DefaultConfig()
	corsConf.AllowAllOrigins = true
	corsConf.AddAllowHeaders("Authorization")
	r.Use(cors.New(corsConf))

	r.Use(middlewares.MetricsMiddleware("/metrics", "/health"))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/health", svc.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("api")
	api.Use(svc.rateLimiter.RateLimitMiddleware())
	pub := api.Group(API_VERSION)
	priv := api.Group(API_VERSION)

	admin := api.Group(fmt.Sprintf("%s/admin", API_VERSION))

	svc.setupHandlers(pub, priv, admin)
	return r
}

func (svc *HTTPService) Start() error {
	svc.server = &gohttp.Server{
		Addr:              svc.conf.HTTPHost + ":" + svc.conf.HTTPPort,
		Handler:           svc.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Info().Str("host", svc.conf.HTTPHost).Str("port", svc.conf.HTTPPort).Msg("http server started")

	if err := svc.server.ListenAndServe(); err != nil && err != gohttp.ErrServerClosed {
		return err
	}

	return nil
}

func (svc *HTTPService) Stop() error {
	if svc.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := svc.server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("failed to stop http server")
		return err
	}
	log.Info().Msg("http server stopped gracefully")
	return nil
}

func (svc *HTTPService) health(c *gin.Context) {
	if !svc.catalogue.Ready() {
		c.JSON(gohttp.StatusServiceUnavailable, gin.H{"status": "catalogue not loaded"})
		return
	}
	c.JSON(gohttp.StatusOK, gin.H{"status": "ok", "network": svc.router.Network().Name})
}

func (svc *HTTPService) setupHandlers(
	rootPub *gin.RouterGroup,
	rootPriv *gin.RouterGroup,
	rootAdmin *gin.RouterGroup,
) {
	for _, h := range svc.handlers {
		pub := rootPub.Group(h.Root())
		priv := rootPriv.Group(h.Root())
		admin := rootAdmin.Group(h.Root())
		h.SetRoutes(pub, priv, admin)
	}
}
