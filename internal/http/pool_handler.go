package http

import (
	"slices"
	"sort"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"github.com/hxuan190/curve-route-engine/internal/domain"
	"github.com/hxuan190/curve-route-engine/internal/http/httputil"
)

type PoolHandler struct {
	catalogue PoolCatalogue
}

func NewPoolHandler(pools PoolCatalogue) *PoolHandler {
	return &PoolHandler{catalogue: pools}
}

func (h *PoolHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("/stats", h.getStats)
	pub.GET("/list", h.listPools)
	pub.GET("/:id", h.getPool)
}

func (h *PoolHandler) Root() string {
	return "/pools"
}

// PoolStatsResponse contains catalogue statistics
type PoolStatsResponse struct {
	// Number of pools in the catalogue
	PoolCount int `json:"pool_count" example:"1247"`

	// Unix time of the last catalogue load
	UpdatedAt int64 `json:"updated_at" example:"1718000000"`

	Ready bool `json:"ready" example:"true"`
}

// @Summary Pool catalogue statistics
// @Tags pools
// @Produce json
// @Success 200 {object} PoolStatsResponse
// @Router /api/v1/pools/stats [get]
func (h *PoolHandler) getStats(c *gin.Context) {
	poolCount, updatedAt := h.catalogue.GetStats()
	httputil.HandleSuccess(c, PoolStatsResponse{
		PoolCount: poolCount,
		UpdatedAt: updatedAt,
		Ready:     h.catalogue.Ready(),
	})
}

// PoolInfo contains basic information about a pool
type PoolInfo struct {
	ID      string `json:"id" example:"3pool"`
	Name    string `json:"name" example:"DAI/USDC/USDT"`
	Address string `json:"address" example:"0xbebc44782c7db0a1a60cb6fe97d0b483032ff1c7"`

	// Router pool type discriminant name
	Type string `json:"type" example:"stable"`

	Coins []string `json:"coins"`

	// TVL in USD from the last liquidity snapshot
	TVL float64 `json:"tvl" example:"170000000"`
}

// PoolListResponse contains paginated list of pools
type PoolListResponse struct {
	Pools []PoolInfo `json:"pools"`

	// Total number of pools across all pages
	Total int `json:"total" example:"1247"`

	// Current page number (1-indexed)
	Page int `json:"page" example:"1"`

	// Number of pools per page (max 500)
	Limit int `json:"limit" example:"100"`

	// Total number of pages available
	Pages int `json:"pages" example:"13"`
}

func (h *PoolHandler) poolInfo(p *domain.Pool) PoolInfo {
	coins := make([]string, 0, len(p.WrappedCoins))
	for _, coin := range p.Coins() {
		coins = append(coins, domain.AddressKey(coin))
	}
	return PoolInfo{
		ID:      p.ID,
		Name:    p.Name,
		Address: domain.AddressKey(p.Address),
		Type:    p.Type().String(),
		Coins:   coins,
		TVL:     h.catalogue.TVL(p.ID),
	}
}

// @Summary List pools
// @Description Pools ordered by id
// @Tags pools
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Pools per page, max 500" default(100)
// @Param coin query string false "Only pools holding this coin, wrapped or underlying"
// @Success 200 {object} PoolListResponse
// @Router /api/v1/pools/list [get]
func (h *PoolHandler) listPools(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 100
	}
	if limit > 500 {
		limit = 500
	}

	allPools := h.catalogue.List()
	if raw := c.Query("coin"); raw != "" {
		coin, err := domain.ParseAddress(raw)
		if err != nil {
			httputil.HandleBadRequest(c, "invalid coin address")
			return
		}
		allPools = slices.DeleteFunc(allPools, func(p *domain.Pool) bool { return !p.ContainsCoin(coin) })
	}
	sort.Slice(allPools, func(i, j int) bool { return allPools[i].ID < allPools[j].ID })
	total := len(allPools)

	pages := (total + limit - 1) / limit
	offset := (page - 1) * limit
	end := offset + limit
	if offset > total {
		offset = total
	}
	if end > total {
		end = total
	}

	pools := make([]PoolInfo, 0, end-offset)
	for _, pool := range allPools[offset:end] {
		pools = append(pools, h.poolInfo(pool))
	}

	httputil.HandleSuccess(c, PoolListResponse{
		Pools: pools,
		Total: total,
		Page:  page,
		Limit: limit,
		Pages: pages,
	})
}

// PoolDetailResponse contains the full catalogue entry of a pool
type PoolDetailResponse struct {
	PoolInfo

	LPToken        string `json:"lp_token"`
	DepositAddress string `json:"deposit_address,omitempty"`
	GaugeAddress   string `json:"gauge_address,omitempty"`
	BasePool       string `json:"base_pool,omitempty"`

	WrappedCoins       []string `json:"wrapped_coins"`
	WrappedDecimals    []uint8  `json:"wrapped_decimals"`
	UnderlyingCoins    []string `json:"underlying_coins"`
	UnderlyingDecimals []uint8  `json:"underlying_decimals"`

	IsMeta    bool `json:"is_meta"`
	IsCrypto  bool `json:"is_crypto"`
	IsLending bool `json:"is_lending"`
	IsNG      bool `json:"is_ng"`
}

func addressKeys(addrs []common.Address) []string {
	out := make([]string, len(addrs))
	for i, a := range addrs {
		out[i] = domain.AddressKey(a)
	}
	return out
}

func optionalKey(a common.Address) string {
	if a == (common.Address{}) {
		return ""
	}
	return domain.AddressKey(a)
}

// @Summary Get pool
// @Tags pools
// @Produce json
// @Param id path string true "Pool id"
// @Success 200 {object} PoolDetailResponse
// @Failure 404 {object} httputil.Response
// @Router /api/v1/pools/{id} [get]
func (h *PoolHandler) getPool(c *gin.Context) {
	pool, ok := h.catalogue.Pool(c.Param("id"))
	if !ok {
		httputil.HandleNotFound(c, "pool not found")
		return
	}

	httputil.HandleSuccess(c, PoolDetailResponse{
		PoolInfo:           h.poolInfo(pool),
		LPToken:            domain.AddressKey(pool.LPToken),
		DepositAddress:     optionalKey(pool.DepositAddress),
		GaugeAddress:       optionalKey(pool.GaugeAddress),
		BasePool:           pool.BasePoolID,
		WrappedCoins:       addressKeys(pool.WrappedCoins),
		WrappedDecimals:    pool.WrappedDecimals,
		UnderlyingCoins:    addressKeys(pool.UnderlyingCoins),
		UnderlyingDecimals: pool.UnderlyingDecimals,
		IsMeta:             pool.IsMeta(),
		IsCrypto:           pool.IsCrypto(),
		IsLending:          pool.IsLending(),
		IsNG:               pool.IsNG(),
	})
}
