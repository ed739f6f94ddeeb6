package routes

import (
	"context"
	"errors"
	"time"

	"field-service-backend/internal/models"
	"field-service-backend/internal/modules/offline"

	"go.uber.org/zap"
)

// AppointmentReader is the slice of the appointments repository the
// assembler needs. The appointments module's repository satisfies it.
type AppointmentReader interface {
	FindByIDs(ctx context.Context, ids []string) ([]*models.Appointment, error)
	ListForCustomersOnDate(ctx context.Context, date time.Time, customerIDs []string) ([]*models.Appointment, error)
	ListForTechnicianOnDate(ctx context.Context, technicianID string, date time.Time) ([]*models.Appointment, error)
}

// Assembler builds a technician's ordered itinerary for a date. A curated
// route's stop order wins over appointment times; technicians without a
// route fall back to the assignment query sorted by time. Successful
// assemblies refresh the offline cache; an unreachable store serves the
// last-known-good itinerary instead.
type Assembler struct {
	routeRepo RepositoryInterface
	apptRepo  AppointmentReader
	cache     *offline.ItineraryCache
	logger    *zap.Logger
}

func NewAssembler(routeRepo RepositoryInterface, apptRepo AppointmentReader, cache *offline.ItineraryCache, logger *zap.Logger) *Assembler {
	return &Assembler{
		routeRepo: routeRepo,
		apptRepo:  apptRepo,
		cache:     cache,
		logger:    logger,
	}
}

// Assemble returns the ordered appointment list for (technician, date).
func (a *Assembler) Assemble(ctx context.Context, technicianID string, date time.Time) ([]*models.Appointment, error) {
	appts, err := a.assemble(ctx, technicianID, date)
	dateKey := date.Format("2006-01-02")

	if err != nil {
		if errors.Is(err, models.ErrRemoteUnavailable) {
			cached, cacheErr := a.cache.Load(ctx, technicianID, dateKey)
			if cacheErr == nil {
				a.logger.Info("serving itinerary from offline cache",
					zap.String("technician_id", technicianID),
					zap.String("date", dateKey),
				)
				return cached, nil
			}
		}
		return nil, err
	}

	if cacheErr := a.cache.Save(ctx, technicianID, dateKey, appts); cacheErr != nil {
		a.logger.Warn("itinerary cache write failed", zap.Error(cacheErr))
	}
	return appts, nil
}

func (a *Assembler) assemble(ctx context.Context, technicianID string, date time.Time) ([]*models.Appointment, error) {
	route, err := a.routeRepo.FindLatestByTechnicianAndDate(ctx, technicianID, date)
	switch {
	case err == nil:
		appts, ok, err := a.fromRoute(ctx, route)
		if err != nil {
			return nil, err
		}
		if ok {
			return appts, nil
		}
		// A route with no linked stops falls through to the assignment query.
	case errors.Is(err, models.ErrNotFound):
		// No route; use the fallback.
	default:
		return nil, err
	}

	return a.fromAssignments(ctx, technicianID, date)
}

// fromRoute orders the route's linked appointments by stop order. Returns
// ok=false when no stop references an appointment.
func (a *Assembler) fromRoute(ctx context.Context, route *models.DailyRoute) ([]*models.Appointment, bool, error) {
	stops, err := a.routeRepo.ListStops(ctx, route.ID)
	if err != nil {
		return nil, false, err
	}

	var linked []*models.RouteStop
	var ids []string
	for _, s := range stops {
		if s.AppointmentID.Valid {
			linked = append(linked, s)
			ids = append(ids, s.AppointmentID.String)
		}
	}
	if len(linked) == 0 {
		return nil, false, nil
	}

	appts, err := a.apptRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, false, err
	}

	byID := make(map[string]*models.Appointment, len(appts))
	for _, appt := range appts {
		byID[appt.ID] = appt
	}

	// linked is already in ascending stop order; that order is the result,
	// even when it contradicts the appointments' own times.
	ordered := make([]*models.Appointment, 0, len(linked))
	for _, s := range linked {
		if appt, ok := byID[s.AppointmentID.String]; ok {
			ordered = append(ordered, appt)
		}
	}
	return ordered, true, nil
}

// fromAssignments is the no-route fallback: assigned customers' appointments
// by time, or the technician's own appointments when no assignments exist.
func (a *Assembler) fromAssignments(ctx context.Context, technicianID string, date time.Time) ([]*models.Appointment, error) {
	customerIDs, err := a.routeRepo.ListAssignedCustomerIDs(ctx, technicianID)
	if err != nil {
		return nil, err
	}

	if len(customerIDs) > 0 {
		return a.apptRepo.ListForCustomersOnDate(ctx, date, customerIDs)
	}
	return a.apptRepo.ListForTechnicianOnDate(ctx, technicianID, date)
}
