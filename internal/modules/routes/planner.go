package routes

import (
	"context"
	"fmt"

	"field-service-backend/internal/models"
	"field-service-backend/pkg/geocode"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"go.uber.org/zap"
)

// Planner suggests a driving order for a route's stops by great-circle
// distance between the customers' geocoded addresses. The suggestion is
// advisory; the dispatcher applies it with a regular reorder if they agree.
type Planner struct {
	repo     RepositoryInterface
	geocoder geocode.Geocoder
	logger   *zap.Logger
}

func NewPlanner(repo RepositoryInterface, geocoder geocode.Geocoder, logger *zap.Logger) *Planner {
	return &Planner{repo: repo, geocoder: geocoder, logger: logger}
}

// SuggestedStop pairs a stop with the order the planner recommends, ready to
// feed into a reorder request.
type SuggestedStop struct {
	StopID         string `json:"stop_id"`
	CustomerID     string `json:"customer_id"`
	CurrentOrder   int    `json:"current_order"`
	SuggestedOrder int    `json:"suggested_order"`
}

// SuggestOrder computes a nearest-neighbor ordering starting from the route's
// current first stop. Stops whose address cannot be located keep their
// relative order at the end of the suggestion.
func (p *Planner) SuggestOrder(ctx context.Context, routeID string) ([]SuggestedStop, error) {
	stops, err := p.repo.ListStops(ctx, routeID)
	if err != nil {
		return nil, err
	}
	if len(stops) == 0 {
		return nil, nil
	}

	customerIDs := make([]string, 0, len(stops))
	for _, s := range stops {
		customerIDs = append(customerIDs, s.CustomerID)
	}
	addrs, err := p.repo.CustomerAddresses(ctx, customerIDs)
	if err != nil {
		return nil, err
	}

	points := make(map[string]orb.Point, len(stops))
	var located, unlocated []*models.RouteStop
	for _, s := range stops {
		addr, ok := addrs[s.CustomerID]
		if !ok {
			unlocated = append(unlocated, s)
			continue
		}
		pt, found, err := p.geocoder.Resolve(ctx, addr)
		if err != nil {
			return nil, fmt.Errorf("planner.SuggestOrder geocode %s: %w", s.CustomerID, err)
		}
		if !found {
			p.logger.Debug("address did not geocode, keeping stop at tail",
				zap.String("stop_id", s.ID),
				zap.String("customer_id", s.CustomerID),
			)
			unlocated = append(unlocated, s)
			continue
		}
		points[s.ID] = pt
		located = append(located, s)
	}

	ordered := nearestNeighborChain(located, points)
	ordered = append(ordered, unlocated...)

	suggestion := make([]SuggestedStop, len(ordered))
	for i, s := range ordered {
		suggestion[i] = SuggestedStop{
			StopID:         s.ID,
			CustomerID:     s.CustomerID,
			CurrentOrder:   s.StopOrder,
			SuggestedOrder: i + 1,
		}
	}
	return suggestion, nil
}

// nearestNeighborChain greedily walks the stops starting from the current
// first stop, always taking the closest remaining point next.
func nearestNeighborChain(stops []*models.RouteStop, points map[string]orb.Point) []*models.RouteStop {
	if len(stops) <= 2 {
		return append([]*models.RouteStop(nil), stops...)
	}

	remaining := append([]*models.RouteStop(nil), stops[1:]...)
	chain := []*models.RouteStop{stops[0]}
	current := points[stops[0].ID]

	for len(remaining) > 0 {
		best := 0
		bestDist := geo.Distance(current, points[remaining[0].ID])
		for i := 1; i < len(remaining); i++ {
			if d := geo.Distance(current, points[remaining[i].ID]); d < bestDist {
				best, bestDist = i, d
			}
		}
		next := remaining[best]
		chain = append(chain, next)
		current = points[next.ID]
		remaining = append(remaining[:best], remaining[best+1:]...)
	}
	return chain
}
