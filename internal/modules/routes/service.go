package routes

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"field-service-backend/internal/models"

	"github.com/google/uuid"
)

// ServiceInterface defines the contract for route business logic.
type ServiceInterface interface {
	CreateRoute(ctx context.Context, createdBy string, req models.CreateRouteRequest) (*models.DailyRoute, error)
	GetRoute(ctx context.Context, routeID string) (*models.DailyRoute, error)
	DeleteRoute(ctx context.Context, routeID string) error
	ApproveRoute(ctx context.Context, routeID, approverID string) (*models.DailyRoute, error)
	GetItinerary(ctx context.Context, technicianID string, date time.Time) ([]*models.Appointment, error)
	SuggestStopOrder(ctx context.Context, routeID string) ([]SuggestedStop, error)

	AddStop(ctx context.Context, routeID string, req models.AddStopRequest) (*models.RouteStop, error)
	RemoveStop(ctx context.Context, routeID, stopID string) error
	ReorderStops(ctx context.Context, routeID string, req models.ReorderStopsRequest) ([]*models.RouteStop, error)
	RecordStopProgress(ctx context.Context, stopID string, req models.StopProgressRequest) (*models.RouteStop, error)

	CreateChangeRequest(ctx context.Context, routeID, requestedBy string, req models.CreateChangeRequestRequest) (*models.RouteChangeRequest, error)
	ReviewChangeRequest(ctx context.Context, requestID, reviewerID string, req models.ReviewChangeRequestRequest) (*models.RouteChangeRequest, error)
	ListChangeRequests(ctx context.Context, routeID string) ([]*models.RouteChangeRequest, error)
}

// Service implements route management: creation, stop sequencing, assembly,
// and the approval workflow.
type Service struct {
	repo      RepositoryInterface
	sequencer *Sequencer
	assembler *Assembler
	planner   *Planner
}

// NewService creates a new route service.
func NewService(repo RepositoryInterface, sequencer *Sequencer, assembler *Assembler, planner *Planner) *Service {
	return &Service{
		repo:      repo,
		sequencer: sequencer,
		assembler: assembler,
		planner:   planner,
	}
}

// CreateRoute creates a route and its initial stops, numbered in the order
// given. Stops referencing an appointment already on another route are
// refused before anything is written. Stop inserts are per-row; a failure
// partway reports the committed prefix.
func (s *Service) CreateRoute(ctx context.Context, createdBy string, req models.CreateRouteRequest) (*models.DailyRoute, error) {
	routeDate, err := time.Parse("2006-01-02", req.RouteDate)
	if err != nil {
		return nil, fmt.Errorf("service.CreateRoute parse date: %w", err)
	}

	route := &models.DailyRoute{
		ID:           uuid.New().String(),
		RouteDate:    routeDate,
		TechnicianID: req.TechnicianID,
		Status:       models.RoutePending,
		CreatedBy:    createdBy,
		Notes:        req.Notes,
	}

	for _, in := range req.Stops {
		if in.AppointmentID == "" {
			continue
		}
		taken, err := s.repo.AppointmentOnActiveRoute(ctx, in.AppointmentID, route.ID)
		if err != nil {
			return nil, fmt.Errorf("service.CreateRoute: %w", err)
		}
		if taken {
			return nil, fmt.Errorf("appointment %s: %w", in.AppointmentID, models.ErrStopConflict)
		}
	}

	if err := s.repo.CreateRoute(ctx, route); err != nil {
		return nil, fmt.Errorf("service.CreateRoute: %w", err)
	}

	for i, in := range req.Stops {
		stop := stopFromInput(route.ID, in)
		stop.StopOrder = i + 1
		if err := s.repo.InsertStop(ctx, stop); err != nil {
			return route, &models.PartialWriteError{
				Op:    "routes.CreateRouteStops",
				Done:  i,
				Total: len(req.Stops),
				Err:   err,
			}
		}
		route.Stops = append(route.Stops, stop)
	}

	return route, nil
}

func stopFromInput(routeID string, in models.StopInput) *models.RouteStop {
	stop := &models.RouteStop{
		ID:         uuid.New().String(),
		RouteID:    routeID,
		CustomerID: in.CustomerID,
		Status:     models.StopPending,
		Notes:      in.Notes,
	}
	if in.AppointmentID != "" {
		stop.AppointmentID = sql.NullString{String: in.AppointmentID, Valid: true}
	}
	if in.EstimatedArrivalTime != "" {
		stop.EstimatedArrivalTime = sql.NullString{String: in.EstimatedArrivalTime, Valid: true}
	}
	return stop
}

// GetRoute returns a route with its stops in order.
func (s *Service) GetRoute(ctx context.Context, routeID string) (*models.DailyRoute, error) {
	route, err := s.repo.FindRouteByID(ctx, routeID)
	if err != nil {
		return nil, err
	}
	stops, err := s.repo.ListStops(ctx, routeID)
	if err != nil {
		return nil, err
	}
	route.Stops = stops
	return route, nil
}

// DeleteRoute removes a route and, via cascade, its stops.
func (s *Service) DeleteRoute(ctx context.Context, routeID string) error {
	return s.repo.DeleteRoute(ctx, routeID)
}

// ApproveRoute moves a pending route to approved and stamps the approver.
// There is no way back; change requests are the only sanctioned follow-up.
func (s *Service) ApproveRoute(ctx context.Context, routeID, approverID string) (*models.DailyRoute, error) {
	if err := s.repo.ApproveRoute(ctx, routeID, approverID); err != nil {
		return nil, err
	}
	return s.GetRoute(ctx, routeID)
}

// GetItinerary assembles the ordered appointment list for the pair.
func (s *Service) GetItinerary(ctx context.Context, technicianID string, date time.Time) ([]*models.Appointment, error) {
	return s.assembler.Assemble(ctx, technicianID, date)
}

// SuggestStopOrder returns the planner's distance-based ordering suggestion.
// Nothing is written; the dispatcher applies it via a reorder if they agree.
func (s *Service) SuggestStopOrder(ctx context.Context, routeID string) ([]SuggestedStop, error) {
	if _, err := s.repo.FindRouteByID(ctx, routeID); err != nil {
		return nil, err
	}
	return s.planner.SuggestOrder(ctx, routeID)
}

// AddStop appends (or positions) a stop, refusing a double-booked
// appointment.
func (s *Service) AddStop(ctx context.Context, routeID string, req models.AddStopRequest) (*models.RouteStop, error) {
	if _, err := s.repo.FindRouteByID(ctx, routeID); err != nil {
		return nil, err
	}

	if req.AppointmentID != "" {
		taken, err := s.repo.AppointmentOnActiveRoute(ctx, req.AppointmentID, routeID)
		if err != nil {
			return nil, fmt.Errorf("service.AddStop: %w", err)
		}
		if taken {
			return nil, fmt.Errorf("appointment %s: %w", req.AppointmentID, models.ErrStopConflict)
		}
	}

	stop := stopFromInput(routeID, req.StopInput)
	if req.Position > 0 {
		if err := s.sequencer.InsertAt(ctx, stop, req.Position); err != nil {
			return nil, err
		}
	} else {
		if err := s.sequencer.Append(ctx, stop); err != nil {
			return nil, err
		}
	}
	return stop, nil
}

// RemoveStop deletes a stop and renumbers the remainder.
func (s *Service) RemoveStop(ctx context.Context, routeID, stopID string) error {
	return s.sequencer.Remove(ctx, routeID, stopID)
}

// ReorderStops re-sequences the whole route in one call.
func (s *Service) ReorderStops(ctx context.Context, routeID string, req models.ReorderStopsRequest) ([]*models.RouteStop, error) {
	if _, err := s.repo.FindRouteByID(ctx, routeID); err != nil {
		return nil, err
	}
	return s.sequencer.Reorder(ctx, routeID, req.Stops)
}

// RecordStopProgress stores arrival/departure times and stop status. The
// stop vocabulary is independent of the appointment's; completing the
// appointment is a separate, explicit action.
func (s *Service) RecordStopProgress(ctx context.Context, stopID string, req models.StopProgressRequest) (*models.RouteStop, error) {
	return s.repo.UpdateStopProgress(ctx, stopID, req)
}

// CreateChangeRequest files a proposed change against a route.
func (s *Service) CreateChangeRequest(ctx context.Context, routeID, requestedBy string, req models.CreateChangeRequestRequest) (*models.RouteChangeRequest, error) {
	if _, err := s.repo.FindRouteByID(ctx, routeID); err != nil {
		return nil, err
	}

	cr := &models.RouteChangeRequest{
		ID:          uuid.New().String(),
		RouteID:     routeID,
		RequestedBy: requestedBy,
		RequestType: req.RequestType,
		RequestData: req.RequestData,
		Status:      models.ChangePending,
	}
	if err := s.repo.CreateChangeRequest(ctx, cr); err != nil {
		return nil, fmt.Errorf("service.CreateChangeRequest: %w", err)
	}
	return cr, nil
}

// ReviewChangeRequest records the reviewer's decision. The review is
// advisory only: approving a request never applies the described change;
// the reviewer performs the mutation separately. That keeps the audit trail
// independent of the edit itself.
func (s *Service) ReviewChangeRequest(ctx context.Context, requestID, reviewerID string, req models.ReviewChangeRequestRequest) (*models.RouteChangeRequest, error) {
	status := models.ChangeRejected
	if req.Approve {
		status = models.ChangeApproved
	}
	if err := s.repo.ReviewChangeRequest(ctx, requestID, reviewerID, status, req.ReviewNotes); err != nil {
		return nil, err
	}
	return s.repo.FindChangeRequest(ctx, requestID)
}

// ListChangeRequests returns a route's change requests.
func (s *Service) ListChangeRequests(ctx context.Context, routeID string) ([]*models.RouteChangeRequest, error) {
	if _, err := s.repo.FindRouteByID(ctx, routeID); err != nil {
		return nil, err
	}
	return s.repo.ListChangeRequests(ctx, routeID)
}
