package routes

import (
	"context"
	"fmt"
	"sort"

	"field-service-backend/internal/models"
)

// Sequencer owns the dense 1..N ordering of stops within a route. Every
// order mutation (append, positioned insert, removal, reorder) goes through
// it; nothing else writes stop_order.
//
// Persisting an order is per-stop, not transactional. A failure mid-sequence
// leaves a committed prefix and surfaces as PartialWriteError; the caller
// re-reads current state and retries the remainder.
type Sequencer struct {
	repo RepositoryInterface
}

func NewSequencer(repo RepositoryInterface) *Sequencer {
	return &Sequencer{repo: repo}
}

// NormalizeOrder computes the committed order for a route's stops given the
// caller's desired positions. Desired orders need not be unique or
// contiguous; ties and untouched stops keep their current relative order.
// The result is the same stops renumbered 1..N.
func NormalizeOrder(stops []*models.RouteStop, desired []models.StopPosition) []*models.RouteStop {
	want := make(map[string]int, len(desired))
	for _, d := range desired {
		want[d.StopID] = d.DesiredOrder
	}

	ordered := make([]*models.RouteStop, len(stops))
	copy(ordered, stops)

	sort.SliceStable(ordered, func(i, j int) bool {
		oi, oj := ordered[i].StopOrder, ordered[j].StopOrder
		if w, ok := want[ordered[i].ID]; ok {
			oi = w
		}
		if w, ok := want[ordered[j].ID]; ok {
			oj = w
		}
		return oi < oj
	})

	for i, s := range ordered {
		s.StopOrder = i + 1
	}
	return ordered
}

// Reorder re-sequences a route's stops to match the desired positions and
// persists every stop whose order changed.
func (sq *Sequencer) Reorder(ctx context.Context, routeID string, desired []models.StopPosition) ([]*models.RouteStop, error) {
	stops, err := sq.repo.ListStops(ctx, routeID)
	if err != nil {
		return nil, err
	}

	known := make(map[string]bool, len(stops))
	for _, s := range stops {
		known[s.ID] = true
	}
	for _, d := range desired {
		if !known[d.StopID] {
			return nil, fmt.Errorf("reorder stop %s: %w", d.StopID, models.ErrNotFound)
		}
	}

	current := make(map[string]int, len(stops))
	for _, s := range stops {
		current[s.ID] = s.StopOrder
	}

	ordered := NormalizeOrder(stops, desired)

	var dirty []*models.RouteStop
	for _, s := range ordered {
		if current[s.ID] != s.StopOrder {
			dirty = append(dirty, s)
		}
	}

	for i, s := range dirty {
		if err := sq.repo.UpdateStopOrder(ctx, s.ID, s.StopOrder); err != nil {
			return ordered, &models.PartialWriteError{
				Op:    "sequencer.Reorder",
				Done:  i,
				Total: len(dirty),
				Err:   err,
			}
		}
	}
	return ordered, nil
}

// Append inserts a new stop at the end of the route.
func (sq *Sequencer) Append(ctx context.Context, stop *models.RouteStop) error {
	stops, err := sq.repo.ListStops(ctx, stop.RouteID)
	if err != nil {
		return err
	}
	stop.StopOrder = len(stops) + 1
	return sq.repo.InsertStop(ctx, stop)
}

// InsertAt inserts a new stop so that it lands at the given 1-based
// position; stops at or after that position shift down by one.
func (sq *Sequencer) InsertAt(ctx context.Context, stop *models.RouteStop, position int) error {
	stops, err := sq.repo.ListStops(ctx, stop.RouteID)
	if err != nil {
		return err
	}

	if position < 1 || position > len(stops)+1 {
		position = len(stops) + 1
	}

	// Insert at the tail first so the row exists, then one reorder pass
	// places it and renumbers the rest.
	stop.StopOrder = len(stops) + 1
	if err := sq.repo.InsertStop(ctx, stop); err != nil {
		return err
	}
	if position == stop.StopOrder {
		return nil
	}

	desired := make([]models.StopPosition, 0, len(stops)+1)
	for _, s := range stops {
		order := s.StopOrder
		if order >= position {
			order++
		}
		desired = append(desired, models.StopPosition{StopID: s.ID, DesiredOrder: order})
	}
	desired = append(desired, models.StopPosition{StopID: stop.ID, DesiredOrder: position})

	if _, err := sq.Reorder(ctx, stop.RouteID, desired); err != nil {
		return err
	}
	stop.StopOrder = position
	return nil
}

// Remove deletes a stop and renumbers the remainder to close the gap.
func (sq *Sequencer) Remove(ctx context.Context, routeID, stopID string) error {
	if err := sq.repo.DeleteStop(ctx, routeID, stopID); err != nil {
		return err
	}

	stops, err := sq.repo.ListStops(ctx, routeID)
	if err != nil {
		return err
	}

	desired := make([]models.StopPosition, 0, len(stops))
	for _, s := range stops {
		desired = append(desired, models.StopPosition{StopID: s.ID, DesiredOrder: s.StopOrder})
	}
	_, err = sq.Reorder(ctx, routeID, desired)
	return err
}
