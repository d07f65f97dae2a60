package http

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"github.com/hxuan190/curve-route-engine/internal/domain"
	"github.com/hxuan190/curve-route-engine/internal/http/httputil"
)

type RouteHandler struct {
	router RouteService
}

func NewRouteHandler(rs RouteService) *RouteHandler {
	return &RouteHandler{router: rs}
}

func (h *RouteHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("", h.getRoute)
	pub.GET("/stats", h.getStats)
	admin.POST("/invalidate", h.invalidate)
}

func (h *RouteHandler) Root() string {
	return "/route"
}

// PairRequest is the coin pair and amount shared by route and quote requests
type PairRequest struct {
	// Input coin address; 0xEeee...EEeE is the native coin
	InputCoin string `form:"inputCoin" binding:"required" example:"0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"`

	// Output coin address
	OutputCoin string `form:"outputCoin" binding:"required" example:"0xdAC17F958D2ee523a2206206994597C13D831ec7"`

	// Amount in the coin's smallest units
	Amount string `form:"amount" binding:"required" example:"1000000000"`
}

type parsedPair struct {
	from   common.Address
	to     common.Address
	amount *big.Int
}

func parsePair(c *gin.Context, req *PairRequest) (*parsedPair, bool) {
	from, err := domain.ParseAddress(req.InputCoin)
	if err != nil {
		httputil.HandleBadRequest(c, "invalid inputCoin address")
		return nil, false
	}
	to, err := domain.ParseAddress(req.OutputCoin)
	if err != nil {
		httputil.HandleBadRequest(c, "invalid outputCoin address")
		return nil, false
	}
	amount, ok := new(big.Int).SetString(req.Amount, 10)
	if !ok || amount.Sign() <= 0 {
		httputil.HandleBadRequest(c, "invalid amount: must be a positive integer")
		return nil, false
	}
	return &parsedPair{from: from, to: to, amount: amount}, true
}

// RouteInfo describes one hop of a route
type RouteInfo struct {
	PoolID      string `json:"poolId" example:"3pool"`
	PoolAddress string `json:"poolAddress" example:"0xbebc44782c7db0a1a60cb6fe97d0b483032ff1c7"`
	SwapAddress string `json:"swapAddress" example:"0xbebc44782c7db0a1a60cb6fe97d0b483032ff1c7"`
	SwapType    string `json:"swapType" example:"exchange"`
	PoolType    string `json:"poolType" example:"stable"`
	InputCoin   string `json:"inputCoin" example:"0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"`
	OutputCoin  string `json:"outputCoin" example:"0xdac17f958d2ee523a2206206994597c13d831ec7"`
	// Pool TVL in USD at graph build time
	TVL float64 `json:"tvl" example:"170000000"`
}

func routeInfos(route domain.Route) []RouteInfo {
	out := make([]RouteInfo, 0, route.Len())
	for _, s := range route.Steps {
		out = append(out, RouteInfo{
			PoolID:      s.PoolID,
			PoolAddress: domain.AddressKey(s.PoolAddress),
			SwapAddress: domain.AddressKey(s.SwapAddress),
			SwapType:    s.SwapType().String(),
			PoolType:    domain.PoolType(s.SwapParams[3]).String(),
			InputCoin:   domain.AddressKey(s.InputCoin),
			OutputCoin:  domain.AddressKey(s.OutputCoin),
			TVL:         s.TVL,
		})
	}
	return out
}

// routePath is the coin sequence of a route, [input, ..., output]
func routePath(route domain.Route) []string {
	if route.IsEmpty() {
		return []string{}
	}
	out := make([]string, 0, route.Len()+1)
	out = append(out, domain.AddressKey(route.Steps[0].InputCoin))
	for _, s := range route.Steps {
		out = append(out, domain.AddressKey(s.OutputCoin))
	}
	return out
}

// CandidateInfo is one quoted candidate and the cost inputs it was ranked on
type CandidateInfo struct {
	Pools     string  `json:"pools" example:"3pool"`
	Output    string  `json:"output" example:"999612345"`
	Gas       uint64  `json:"gas" example:"180000"`
	L1Gas     uint64  `json:"l1Gas" example:"0"`
	OutputUSD float64 `json:"outputUsd" example:"999.61"`
	TxCostUSD float64 `json:"txCostUsd" example:"4.21"`
}

// RouteResponse is the best route for a pair and amount
type RouteResponse struct {
	InputCoin   string          `json:"inputCoin"`
	OutputCoin  string          `json:"outputCoin"`
	AmountIn    string          `json:"amountIn" example:"1000000000"`
	AmountOut   string          `json:"amountOut" example:"999612345"`
	Routes      []RouteInfo     `json:"routes"`
	RoutePath   []string        `json:"routePath"`
	Description []string        `json:"description"`
	HopCount    int             `json:"hopCount" example:"1"`
	Candidates  []CandidateInfo `json:"candidates,omitempty"`
}

// @Summary Get best route
// @Description Returns the route with the highest output value net of gas, plus every ranked candidate
// @Description when the decision was not served from cache. An empty route means the pair is not exchangeable.
// @Tags route
// @Produce json
// @Param inputCoin query string true "Input coin address"
// @Param outputCoin query string true "Output coin address"
// @Param amount query string true "Amount in smallest units"
// @Success 200 {object} RouteResponse
// @Failure 400 {object} httputil.Response
// @Failure 503 {object} httputil.Response
// @Router /api/v1/route [get]
func (h *RouteHandler) getRoute(c *gin.Context) {
	var req PairRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httputil.HandleBadRequest(c, "invalid query parameters: "+err.Error())
		return
	}
	p, ok := parsePair(c, &req)
	if !ok {
		return
	}

	best, err := h.router.BestRoute(c.Request.Context(), p.from, p.to, p.amount)
	if err != nil {
		handleError(c, err)
		return
	}

	resp := RouteResponse{
		InputCoin:   domain.AddressKey(p.from),
		OutputCoin:  domain.AddressKey(p.to),
		AmountIn:    p.amount.String(),
		AmountOut:   best.Output.String(),
		Routes:      routeInfos(best.Route),
		RoutePath:   routePath(best.Route),
		Description: best.Route.Describe(),
		HopCount:    best.Route.Len(),
	}
	for _, cand := range best.Candidates {
		resp.Candidates = append(resp.Candidates, CandidateInfo{
			Pools:     cand.Route.PoolSignature(),
			Output:    cand.Output.String(),
			Gas:       cand.Gas,
			L1Gas:     cand.L1Gas,
			OutputUSD: cand.OutputUSD,
			TxCostUSD: cand.TxCostUSD,
		})
	}
	httputil.HandleSuccess(c, resp)
}

// @Summary Router statistics
// @Tags route
// @Produce json
// @Success 200 {object} router.ServiceStats
// @Router /api/v1/route/stats [get]
func (h *RouteHandler) getStats(c *gin.Context) {
	httputil.HandleSuccess(c, h.router.Stats())
}

func (h *RouteHandler) invalidate(c *gin.Context) {
	h.router.InvalidateGraph()
	httputil.HandleSuccess(c, gin.H{"invalidated": true})
}
