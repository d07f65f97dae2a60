package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Catalogue metrics
	PoolCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "curve_router_pool_count",
		Help: "Total number of pools in the catalogue",
	})

	CatalogueRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curve_router_catalogue_refreshes_total",
			Help: "Total number of catalogue refreshes",
		},
		[]string{"status"},
	)

	// Graph metrics
	GraphBuilds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "curve_router_graph_builds_total",
		Help: "Total number of route graph builds",
	})

	GraphBuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "curve_router_graph_build_duration_seconds",
		Help:    "Route graph build duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	})

	GraphEdges = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "curve_router_graph_edges",
		Help: "Number of edges in the last built route graph",
	})

	GraphPoolsUsed = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "curve_router_graph_pools_used",
		Help: "Number of pools above the liquidity floor in the last graph build",
	})

	// Search metrics
	RouteSearchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "curve_router_route_search_duration_seconds",
		Help:    "Route search duration in seconds",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
	})

	RouteCandidates = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "curve_router_route_candidates",
		Help:    "Number of candidate routes returned by the search",
		Buckets: []float64{0, 1, 2, 3, 5, 7, 10},
	})

	// Selection metrics
	QuoteRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curve_router_quote_requests_total",
			Help: "Total number of best route requests",
		},
		[]string{"status"},
	)

	QuoteDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "curve_router_quote_duration_seconds",
		Help:    "Best route request duration in seconds",
		Buckets: prometheus.DefBuckets,
	})

	QuoteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "curve_router_route_quote_failures_total",
		Help: "Total number of candidate routes dropped because quoting failed",
	})

	PriceImpact = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "curve_router_price_impact_bps",
			Help:    "Price impact in basis points",
			Buckets: []float64{0, 10, 50, 100, 300, 500, 1000, 5000, 10000},
		},
		[]string{"severity"},
	)

	// Cache metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curve_router_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curve_router_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache"},
	)

	// Chain metrics
	RPCRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curve_router_rpc_requests_total",
			Help: "Total number of RPC requests",
		},
		[]string{"method", "status"},
	)

	PriceRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curve_router_price_requests_total",
			Help: "Total number of USD price API requests",
		},
		[]string{"status"},
	)

	SwapBuilds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curve_router_swap_builds_total",
			Help: "Total number of exchange calls built",
		},
		[]string{"status"},
	)

	GaugeProbes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curve_router_gauge_probes_total",
			Help: "Gauge claim capability probes by resolved capability",
		},
		[]string{"capability"},
	)

	// HTTP metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curve_router_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "curve_router_http_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)
