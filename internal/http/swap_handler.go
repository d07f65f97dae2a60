package http

import (
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gin-gonic/gin"

	"github.com/hxuan190/curve-route-engine/internal/adapters/chain"
	"github.com/hxuan190/curve-route-engine/internal/domain"
	"github.com/hxuan190/curve-route-engine/internal/http/httputil"
	"github.com/hxuan190/curve-route-engine/internal/metrics"
)

// SwapHandler builds unsigned router exchange calls
type SwapHandler struct {
	router RouteService
}

func NewSwapHandler(rs RouteService) *SwapHandler {
	return &SwapHandler{router: rs}
}

func (h *SwapHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.POST("", h.buildSwap)
}

func (h *SwapHandler) Root() string {
	return "/swap"
}

// SwapHandlerRequest represents the parameters for building a swap call
type SwapHandlerRequest struct {
	InputCoin  string `json:"inputCoin" binding:"required" example:"0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"`
	OutputCoin string `json:"outputCoin" binding:"required" example:"0xdAC17F958D2ee523a2206206994597C13D831ec7"`

	// Exact input amount in smallest units
	Amount string `json:"amount" binding:"required" example:"1000000000"`

	// Slippage tolerance in basis points (1 bps = 0.01%)
	// Default: 50 bps (0.5%) if not specified
	SlippageBps uint16 `json:"slippageBps" example:"50"`
}

// SwapHandlerResponse is the transaction a wallet signs and sends to the router
type SwapHandlerResponse struct {
	// Router contract address
	To string `json:"to" example:"0x16c6521dff6bab339122a0fe25a9116693265353"`

	// ABI-encoded exchange call
	Data string `json:"data" example:"0x..."`

	// Native amount to attach; non-zero only when the input is the native coin
	Value string `json:"value" example:"0"`

	AmountIn  string `json:"amountIn" example:"1000000000"`
	AmountOut string `json:"amountOut" example:"999612345"`

	// The router reverts if the output is below this
	MinAmountOut string `json:"minAmountOut" example:"994614283"`

	Routes   []RouteInfo `json:"routes"`
	Route    []string    `json:"route"`
	HopCount int         `json:"hopCount" example:"1"`

	// Router arguments for callers that encode the call themselves
	Args domain.ExchangeArgs `json:"args"`
}

// @Summary Build swap call
// @Description Builds the router exchange call for the best route, bounded by the requested slippage.
// @Description The response is unsigned; the wallet signs and submits it.
// @Tags swap
// @Accept json
// @Produce json
// @Param request body SwapHandlerRequest true "Swap parameters"
// @Success 200 {object} SwapHandlerResponse
// @Failure 400 {object} httputil.Response
// @Failure 404 {object} httputil.Response "Pair is not exchangeable"
// @Router /api/v1/swap [post]
func (h *SwapHandler) buildSwap(c *gin.Context) {
	var req SwapHandlerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	p, ok := parsePair(c, &PairRequest{InputCoin: req.InputCoin, OutputCoin: req.OutputCoin, Amount: req.Amount})
	if !ok {
		return
	}
	slippageBps, ok := resolveSlippage(c, req.SlippageBps)
	if !ok {
		return
	}

	call, err := h.router.SwapArgs(c.Request.Context(), p.from, p.to, p.amount, slippageBps)
	if err != nil {
		metrics.SwapBuilds.WithLabelValues("error").Inc()
		handleError(c, err)
		return
	}

	data, err := chain.PackExchange(call.Args, call.Amount, call.MinOutput)
	if err != nil {
		metrics.SwapBuilds.WithLabelValues("error").Inc()
		handleError(c, err)
		return
	}
	metrics.SwapBuilds.WithLabelValues("ok").Inc()

	httputil.HandleSuccess(c, SwapHandlerResponse{
		To:           domain.AddressKey(h.router.Network().RouterAddress),
		Data:         hexutil.Encode(data),
		Value:        call.Value.String(),
		AmountIn:     call.Amount.String(),
		AmountOut:    call.Expected.String(),
		MinAmountOut: call.MinOutput.String(),
		Routes:       routeInfos(call.Route),
		Route:        routePath(call.Route),
		HopCount:     call.Route.Len(),
		Args:         call.Args,
	})
}
