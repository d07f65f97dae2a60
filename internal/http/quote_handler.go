package http

import (
	"fmt"
	"math/big"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/curve-route-engine/internal/common"
	"github.com/hxuan190/curve-route-engine/internal/domain"
	"github.com/hxuan190/curve-route-engine/internal/http/httputil"
	"github.com/hxuan190/curve-route-engine/internal/services/router"
)

type QuoteHandler struct {
	router RouteService
}

func NewQuoteHandler(rs RouteService) *QuoteHandler {
	return &QuoteHandler{router: rs}
}

func (h *QuoteHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("", h.getQuote)
}

func (h *QuoteHandler) Root() string {
	return "/quote"
}

// QuoteRequest represents the parameters for requesting a swap quote
type QuoteRequest struct {
	PairRequest

	// Swap mode determines how the amount is interpreted
	// - "ExactIn": Amount is the exact input, output is estimated
	// - "ExactOut": Amount is the exact output desired, input is estimated
	SwapMode string `form:"swapMode" enums:"ExactIn,ExactOut" example:"ExactIn"`

	// Slippage tolerance in basis points (1 bps = 0.01%)
	// Default: 50 bps (0.5%)
	SlippageBps uint16 `form:"slippageBps" example:"50"`
}

// QuoteResponse contains the calculated swap quote with routing information
type QuoteResponse struct {
	InputCoin  string `json:"inputCoin"`
	OutputCoin string `json:"outputCoin"`

	// For ExactOut mode: input required by the reverse quote
	AmountIn string `json:"amountIn" example:"1000000000"`

	// For ExactOut mode: same as requested amount
	AmountOut string `json:"amountOut" example:"999612345"`

	// Amounts in whole tokens using catalogue decimals
	AmountInDecimal  string `json:"amountInDecimal" example:"1000"`
	AmountOutDecimal string `json:"amountOutDecimal" example:"999.612345"`

	// Rate of this trade against a one-token reference trade on the same route.
	// Not computed for ExactOut quotes.
	PriceImpactBps      uint16 `json:"priceImpactBps" example:"12"`
	PriceImpactPercent  string `json:"priceImpactPercent" example:"0.12%"`
	PriceImpactSeverity string `json:"priceImpactSeverity" enums:"none,low,moderate,high,extreme" example:"none"`
	PriceImpactWarning  string `json:"priceImpactWarning,omitempty"`

	Routes      []RouteInfo `json:"routes"`
	RoutePath   []string    `json:"routePath"`
	Description []string    `json:"description"`
	HopCount    int         `json:"hopCount" example:"1"`

	// Minimum output (ExactIn) or maximum input (ExactOut) after applying slippage
	OtherAmountThreshold string `json:"otherAmountThreshold" example:"994614283"`
}

// resolveSlippage applies the default tolerance and rejects values that allow a zero bound
func resolveSlippage(c *gin.Context, bps uint16) (uint16, bool) {
	if bps == 0 {
		return common.DefaultSlippageBps, true
	}
	if bps > common.MaxSlippageBps {
		httputil.HandleBadRequest(c, fmt.Sprintf("invalid slippageBps: must be at most %d", common.MaxSlippageBps))
		return 0, false
	}
	return bps, true
}

// otherAmountThreshold is min output for ExactIn and max input for ExactOut.
// Max input divides by (1 - slippage) rather than multiplying by (1 + slippage).
func otherAmountThreshold(amountIn, amountOut *big.Int, slippageBps uint16, exactIn bool) *big.Int {
	if exactIn {
		return router.MinOutput(amountOut, slippageBps)
	}
	if slippageBps >= 10000 {
		return new(big.Int).Set(amountIn)
	}
	out := new(big.Int).Mul(amountIn, router.BPS_DENOM)
	return out.Div(out, big.NewInt(int64(10000-slippageBps)))
}

// @Summary Get swap quote
// @Description Quotes the best route for a coin pair. ExactIn quotes the output for an input amount;
// @Description ExactOut quotes the input needed for an output amount along the best forward route.
// @Description
// @Description **Amount Format:** smallest coin units, e.g. 1 USDC = 1000000
// @Tags quote
// @Produce json
// @Param inputCoin query string true "Input coin address"
// @Param outputCoin query string true "Output coin address"
// @Param amount query string true "Amount in smallest units"
// @Param swapMode query string false "Swap mode" Enums(ExactIn, ExactOut) default(ExactIn)
// @Param slippageBps query int false "Slippage tolerance in basis points" default(50)
// @Success 200 {object} QuoteResponse
// @Failure 400 {object} httputil.Response "Invalid request parameters"
// @Failure 404 {object} httputil.Response "No route found between the coins"
// @Router /api/v1/quote [get]
func (h *QuoteHandler) getQuote(c *gin.Context) {
	var req QuoteRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httputil.HandleBadRequest(c, "invalid query parameters: "+err.Error())
		return
	}
	p, ok := parsePair(c, &req.PairRequest)
	if !ok {
		return
	}

	exactIn := true
	switch req.SwapMode {
	case "", "ExactIn":
	case "ExactOut":
		exactIn = false
	default:
		httputil.HandleBadRequest(c, "invalid swapMode: must be ExactIn or ExactOut")
		return
	}
	slippageBps, ok := resolveSlippage(c, req.SlippageBps)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	var (
		route     domain.Route
		amountIn  = p.amount
		amountOut = p.amount
		impact    = &domain.PriceImpactResult{Severity: string(router.SeverityNone)}
	)

	if exactIn {
		best, err := h.router.BestRoute(ctx, p.from, p.to, p.amount)
		if err != nil {
			handleError(c, err)
			return
		}
		route, amountOut = best.Route, best.Output

		if !route.IsEmpty() {
			if pi, err := h.router.PriceImpact(ctx, p.from, p.to, p.amount); err != nil {
				log.Warn().Err(err).Msg("[quoteHandler] price impact unavailable")
			} else {
				impact = pi
			}
		}
	} else {
		required, r, err := h.router.RequiredInput(ctx, p.from, p.to, p.amount)
		if err != nil {
			handleError(c, err)
			return
		}
		route, amountIn = r, required
	}

	if route.IsEmpty() {
		httputil.HandleHttpError(c, common.HTTPErrorNotFound("no route found"))
		return
	}

	httputil.HandleSuccess(c, QuoteResponse{
		InputCoin:            domain.AddressKey(p.from),
		OutputCoin:           domain.AddressKey(p.to),
		AmountIn:             amountIn.String(),
		AmountOut:            amountOut.String(),
		AmountInDecimal:      router.FormatUnits(amountIn, h.router.Decimals(p.from)),
		AmountOutDecimal:     router.FormatUnits(amountOut, h.router.Decimals(p.to)),
		PriceImpactBps:       impact.Bps,
		PriceImpactPercent:   fmt.Sprintf("%.2f%%", float64(impact.Bps)/100.0),
		PriceImpactSeverity:  impact.Severity,
		PriceImpactWarning:   impact.Warning,
		Routes:               routeInfos(route),
		RoutePath:            routePath(route),
		Description:          route.Describe(),
		HopCount:             route.Len(),
		OtherAmountThreshold: otherAmountThreshold(amountIn, amountOut, slippageBps, exactIn).String(),
	})
}
