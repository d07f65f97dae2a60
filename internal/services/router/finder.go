package router

import (
	"context"
	"slices"
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"github.com/hxuan190/curve-route-engine/internal/domain"
)

const (
	// MaxRoutesPerCriterion is how many routes each ranking keeps
	MaxRoutesPerCriterion = 5
	// MaxRouteDepth is the longest route the search will produce
	MaxRouteDepth = 4
)

type FinderOptions struct {
	MaxRoutes int
	MaxDepth  int
}

func DefaultFinderOptions() FinderOptions {
	return FinderOptions{MaxRoutes: MaxRoutesPerCriterion, MaxDepth: MaxRouteDepth}
}

func (o FinderOptions) normalize() FinderOptions {
	if o.MaxRoutes <= 0 {
		o.MaxRoutes = MaxRoutesPerCriterion
	}
	if o.MaxDepth <= 0 || o.MaxDepth > domain.MaxHops {
		o.MaxDepth = MaxRouteDepth
	}
	return o
}

// routeBuffer is a bounded array kept sorted by less. Equal routes keep insertion order.
type routeBuffer struct {
	routes []domain.Route
	limit  int
	less   func(a, b domain.Route) bool
}

func newRouteBuffer(limit int, less func(a, b domain.Route) bool) *routeBuffer {
	return &routeBuffer{routes: make([]domain.Route, 0, limit+1), limit: limit, less: less}
}

func (b *routeBuffer) fits(r domain.Route) bool {
	return len(b.routes) < b.limit || b.less(r, b.routes[len(b.routes)-1])
}

func (b *routeBuffer) insert(r domain.Route) {
	if !b.fits(r) {
		return
	}
	pos := sort.Search(len(b.routes), func(i int) bool { return b.less(r, b.routes[i]) })
	b.routes = slices.Insert(b.routes, pos, r)
	if len(b.routes) > b.limit {
		b.routes = b.routes[:b.limit]
	}
}

// byLiquidity prefers the deepest bottleneck, then total depth, then fewer hops
func byLiquidity(a, b domain.Route) bool {
	if a.MinTVL != b.MinTVL {
		return a.MinTVL > b.MinTVL
	}
	if a.TotalTVL != b.TotalTVL {
		return a.TotalTVL > b.TotalTVL
	}
	return a.Len() < b.Len()
}

// byLength prefers fewer hops, then the deepest bottleneck, then total depth
func byLength(a, b domain.Route) bool {
	if a.Len() != b.Len() {
		return a.Len() < b.Len()
	}
	if a.MinTVL != b.MinTVL {
		return a.MinTVL > b.MinTVL
	}
	return a.TotalTVL > b.TotalTVL
}

// FindRoutes runs a depth-bounded search from one coin to another and returns
// the best routes by liquidity followed by the shortest routes not already listed.
// pools carries the lending flag, coin set and LP token for catalogue pools;
// fixed conversions are absent from it.
func FindRoutes(
	ctx context.Context,
	graph RouteGraph,
	pools map[string]domain.PoolView,
	from, to common.Address,
	opts FinderOptions,
) ([]domain.Route, error) {
	opts = opts.normalize()
	if from == to {
		return nil, nil
	}

	liquid := newRouteBuffer(opts.MaxRoutes, byLiquidity)
	short := newRouteBuffer(opts.MaxRoutes, byLength)

	stack := []domain.Route{domain.EmptyRoute()}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		route := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if route.Len() >= opts.MaxDepth {
			continue
		}

		current := route.CurrentCoin(from)
		for _, out := range graph.OutCoins(current) {
			if out == from || route.HasInputCoin(out) {
				continue
			}
			for _, step := range graph.Edges(current, out) {
				if !canExtend(route, step, pools, to) {
					continue
				}
				next := route.Extend(step)
				if out == to {
					liquid.insert(next)
					short.insert(next)
					continue
				}
				if next.Len() < opts.MaxDepth && (liquid.fits(next) || short.fits(next)) {
					stack = append(stack, next)
				}
			}
		}
	}

	return mergeRoutes(liquid.routes, short.routes), nil
}

func canExtend(route domain.Route, step domain.RouteStep, pools map[string]domain.PoolView, to common.Address) bool {
	view, known := pools[step.PoolID]
	lending := known && view.IsLending

	if route.UsesPool(step.PoolID) && !lending {
		return false
	}
	if route.UsesPoolClass(step.PoolID, step.SwapType().EquivalenceClass()) {
		return false
	}
	// a pool holding the target must be used to reach it, except to enter a lending pool's LP token
	if known && step.OutputCoin != to && slices.Contains(view.Coins, to) {
		return lending && step.OutputCoin == view.LPToken
	}
	return true
}

func mergeRoutes(liquid, short []domain.Route) []domain.Route {
	merged := make([]domain.Route, 0, len(liquid)+len(short))
	seen := make(map[string]struct{}, len(liquid))
	for _, r := range liquid {
		merged = append(merged, r)
		seen[r.PoolSignature()] = struct{}{}
	}
	for _, r := range short {
		if _, ok := seen[r.PoolSignature()]; ok {
			continue
		}
		merged = append(merged, r)
	}
	return merged
}
