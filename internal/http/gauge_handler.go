package http

import (
	"github.com/gin-gonic/gin"

	"github.com/hxuan190/curve-route-engine/internal/domain"
	"github.com/hxuan190/curve-route-engine/internal/http/httputil"
)

// GaugeHandler serves reward-claim calls for liquidity gauges
type GaugeHandler struct {
	gauges GaugeService
}

func NewGaugeHandler(gauges GaugeService) *GaugeHandler {
	return &GaugeHandler{gauges: gauges}
}

func (h *GaugeHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("/:address/capability", h.getCapability)
	pub.GET("/:address/claim", h.getClaim)
}

func (h *GaugeHandler) Root() string {
	return "/gauges"
}

// CapabilityResponse is the gauge's reward-claim shape
type CapabilityResponse struct {
	Gauge      string `json:"gauge"`
	Capability string `json:"capability" enums:"claim_rewards_receiver,claim_rewards,minter_only" example:"claim_rewards_receiver"`
}

// @Summary Gauge claim capability
// @Description Resolves which reward-claim entry point the gauge supports. Probed once per gauge and cached.
// @Tags gauges
// @Produce json
// @Param address path string true "Gauge address"
// @Success 200 {object} CapabilityResponse
// @Failure 422 {object} httputil.Response "Gauge could not be probed"
// @Router /api/v1/gauges/{address}/capability [get]
func (h *GaugeHandler) getCapability(c *gin.Context) {
	gauge, err := domain.ParseAddress(c.Param("address"))
	if err != nil {
		httputil.HandleBadRequest(c, "invalid gauge address")
		return
	}

	capability, err := h.gauges.Capability(c.Request.Context(), gauge)
	if err != nil {
		handleError(c, err)
		return
	}
	httputil.HandleSuccess(c, CapabilityResponse{
		Gauge:      domain.AddressKey(gauge),
		Capability: capability.String(),
	})
}

// @Summary Build reward claim call
// @Description Builds the call that claims the owner's rewards: claim_rewards on the gauge when
// @Description supported, otherwise mint on the CRV minter.
// @Tags gauges
// @Produce json
// @Param address path string true "Gauge address"
// @Param owner query string true "Reward owner"
// @Success 200 {object} gauge.ClaimCall
// @Failure 400 {object} httputil.Response
// @Router /api/v1/gauges/{address}/claim [get]
func (h *GaugeHandler) getClaim(c *gin.Context) {
	gauge, err := domain.ParseAddress(c.Param("address"))
	if err != nil {
		httputil.HandleBadRequest(c, "invalid gauge address")
		return
	}
	owner, err := domain.ParseAddress(c.Query("owner"))
	if err != nil {
		httputil.HandleBadRequest(c, "invalid owner address")
		return
	}

	call, err := h.gauges.Claim(c.Request.Context(), gauge, owner)
	if err != nil {
		handleError(c, err)
		return
	}
	httputil.HandleSuccess(c, call)
}
