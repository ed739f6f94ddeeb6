package routes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"field-service-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const routeColumns = `id, route_date, technician_id, status, created_by, approved_by, approved_at, notes, created_at, updated_at`

const stopColumns = `id, route_id, appointment_id, customer_id, stop_order, estimated_arrival_time, status,
	actual_arrival_time, actual_departure_time, notes`

const changeRequestColumns = `id, route_id, requested_by, request_type, request_data, status,
	reviewed_by, reviewed_at, review_notes, created_at`

// RepositoryInterface defines the contract for the route repository.
type RepositoryInterface interface {
	CreateRoute(ctx context.Context, route *models.DailyRoute) error
	FindRouteByID(ctx context.Context, id string) (*models.DailyRoute, error)
	FindLatestByTechnicianAndDate(ctx context.Context, technicianID string, date time.Time) (*models.DailyRoute, error)
	DeleteRoute(ctx context.Context, id string) error
	ApproveRoute(ctx context.Context, id, approverID string) error

	ListStops(ctx context.Context, routeID string) ([]*models.RouteStop, error)
	FindStop(ctx context.Context, stopID string) (*models.RouteStop, error)
	InsertStop(ctx context.Context, stop *models.RouteStop) error
	DeleteStop(ctx context.Context, routeID, stopID string) error
	UpdateStopOrder(ctx context.Context, stopID string, order int) error
	UpdateStopProgress(ctx context.Context, stopID string, req models.StopProgressRequest) (*models.RouteStop, error)
	AppointmentOnActiveRoute(ctx context.Context, appointmentID, excludeRouteID string) (bool, error)

	CreateChangeRequest(ctx context.Context, cr *models.RouteChangeRequest) error
	FindChangeRequest(ctx context.Context, id string) (*models.RouteChangeRequest, error)
	ListChangeRequests(ctx context.Context, routeID string) ([]*models.RouteChangeRequest, error)
	ReviewChangeRequest(ctx context.Context, id, reviewerID string, status models.ChangeRequestStatus, notes string) error

	ListAssignedCustomerIDs(ctx context.Context, technicianID string) ([]string, error)
	CustomerAddresses(ctx context.Context, customerIDs []string) (map[string]string, error)
}

// Repository implements the RepositoryInterface against PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new route repository.
func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

// wrapErr classifies a pgx error the same way the appointments repository
// does: no-rows and server errors keep their mapping, transport failures
// surface as ErrRemoteUnavailable.
func wrapErr(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %v", op, models.ErrRemoteUnavailable, err)
}

func scanRoute(row pgx.Row) (*models.DailyRoute, error) {
	var r models.DailyRoute
	err := row.Scan(
		&r.ID,
		&r.RouteDate,
		&r.TechnicianID,
		&r.Status,
		&r.CreatedBy,
		&r.ApprovedBy,
		&r.ApprovedAt,
		&r.Notes,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func scanStop(row pgx.Row) (*models.RouteStop, error) {
	var s models.RouteStop
	err := row.Scan(
		&s.ID,
		&s.RouteID,
		&s.AppointmentID,
		&s.CustomerID,
		&s.StopOrder,
		&s.EstimatedArrivalTime,
		&s.Status,
		&s.ActualArrivalTime,
		&s.ActualDepartureTime,
		&s.Notes,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateRoute inserts a new daily route (without stops).
func (r *Repository) CreateRoute(ctx context.Context, route *models.DailyRoute) error {
	query := `
		INSERT INTO daily_routes (id, route_date, technician_id, status, created_by, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		route.ID, route.RouteDate, route.TechnicianID, route.Status, route.CreatedBy, route.Notes,
	).Scan(&route.CreatedAt, &route.UpdatedAt)
	if err != nil {
		return wrapErr("repository.CreateRoute", err)
	}
	return nil
}

// FindRouteByID retrieves one route without its stops.
func (r *Repository) FindRouteByID(ctx context.Context, id string) (*models.DailyRoute, error) {
	query := fmt.Sprintf(`SELECT %s FROM daily_routes WHERE id = $1`, routeColumns)

	route, err := scanRoute(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, wrapErr("repository.FindRouteByID", err)
	}
	return route, nil
}

// FindLatestByTechnicianAndDate returns the most recently created route for
// the pair. Nothing enforces one route per (technician, date); duplicates
// are tolerated and the newest wins.
func (r *Repository) FindLatestByTechnicianAndDate(ctx context.Context, technicianID string, date time.Time) (*models.DailyRoute, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM daily_routes
		WHERE technician_id = $1 AND route_date = $2
		ORDER BY created_at DESC
		LIMIT 1`, routeColumns)

	route, err := scanRoute(r.db.QueryRow(ctx, query, technicianID, date))
	if err != nil {
		return nil, wrapErr("repository.FindLatestByTechnicianAndDate", err)
	}
	return route, nil
}

// DeleteRoute removes a route; its stops go with it via FK cascade.
func (r *Repository) DeleteRoute(ctx context.Context, id string) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM daily_routes WHERE id = $1`, id)
	if err != nil {
		return wrapErr("repository.DeleteRoute", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ApproveRoute stamps the approver on a pending route. Approval is one-way;
// a route that is no longer pending reports ErrRouteAlreadyApproved.
func (r *Repository) ApproveRoute(ctx context.Context, id, approverID string) error {
	query := `
		UPDATE daily_routes
		SET status = $1, approved_by = $2, approved_at = NOW(), updated_at = NOW()
		WHERE id = $3 AND status = $4`

	cmdTag, err := r.db.Exec(ctx, query, models.RouteApproved, approverID, id, models.RoutePending)
	if err != nil {
		return wrapErr("repository.ApproveRoute", err)
	}
	if cmdTag.RowsAffected() == 0 {
		if _, err := r.FindRouteByID(ctx, id); err != nil {
			return err
		}
		return models.ErrRouteAlreadyApproved
	}
	return nil
}

// ListStops returns a route's stops in stop order.
func (r *Repository) ListStops(ctx context.Context, routeID string) ([]*models.RouteStop, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM route_stops
		WHERE route_id = $1
		ORDER BY stop_order ASC`, stopColumns)

	rows, err := r.db.Query(ctx, query, routeID)
	if err != nil {
		return nil, wrapErr("repository.ListStops", err)
	}
	defer rows.Close()

	var stops []*models.RouteStop
	for rows.Next() {
		s, err := scanStop(rows)
		if err != nil {
			return nil, wrapErr("repository.ListStops.Scan", err)
		}
		stops = append(stops, s)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("repository.ListStops.Rows", err)
	}
	return stops, nil
}

// FindStop retrieves one stop.
func (r *Repository) FindStop(ctx context.Context, stopID string) (*models.RouteStop, error) {
	query := fmt.Sprintf(`SELECT %s FROM route_stops WHERE id = $1`, stopColumns)

	stop, err := scanStop(r.db.QueryRow(ctx, query, stopID))
	if err != nil {
		return nil, wrapErr("repository.FindStop", err)
	}
	return stop, nil
}

// InsertStop adds one stop row with the order the sequencer chose.
func (r *Repository) InsertStop(ctx context.Context, stop *models.RouteStop) error {
	query := `
		INSERT INTO route_stops (id, route_id, appointment_id, customer_id, stop_order, estimated_arrival_time, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(ctx, query,
		stop.ID, stop.RouteID, stop.AppointmentID, stop.CustomerID,
		stop.StopOrder, stop.EstimatedArrivalTime, stop.Status, stop.Notes,
	)
	if err != nil {
		return wrapErr("repository.InsertStop", err)
	}
	return nil
}

// DeleteStop removes one stop from a route.
func (r *Repository) DeleteStop(ctx context.Context, routeID, stopID string) error {
	cmdTag, err := r.db.Exec(ctx,
		`DELETE FROM route_stops WHERE id = $1 AND route_id = $2`, stopID, routeID)
	if err != nil {
		return wrapErr("repository.DeleteStop", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// UpdateStopOrder writes one stop's order. Only the sequencer calls this;
// the dense-ordering invariant spans rows and lives there, not here.
func (r *Repository) UpdateStopOrder(ctx context.Context, stopID string, order int) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE route_stops SET stop_order = $1 WHERE id = $2`, order, stopID)
	if err != nil {
		return wrapErr("repository.UpdateStopOrder", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// UpdateStopProgress records status, arrival and departure on a stop.
func (r *Repository) UpdateStopProgress(ctx context.Context, stopID string, req models.StopProgressRequest) (*models.RouteStop, error) {
	query := `
		UPDATE route_stops
		SET status = COALESCE(NULLIF($1, ''), status),
		    actual_arrival_time = COALESCE($2, actual_arrival_time),
		    actual_departure_time = COALESCE($3, actual_departure_time),
		    notes = COALESCE($4, notes)
		WHERE id = $5
		RETURNING ` + stopColumns

	var status string
	if req.Status != "" {
		status = string(req.Status)
	}
	stop, err := scanStop(r.db.QueryRow(ctx, query, status, req.Arrival, req.Departure, req.Notes, stopID))
	if err != nil {
		return nil, wrapErr("repository.UpdateStopProgress", err)
	}
	return stop, nil
}

// AppointmentOnActiveRoute reports whether the appointment is already a stop
// on any route other than excludeRouteID. The at-most-one-active-route rule
// is enforced here on write, not by a database constraint.
func (r *Repository) AppointmentOnActiveRoute(ctx context.Context, appointmentID, excludeRouteID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM route_stops
			WHERE appointment_id = $1 AND route_id <> $2
		)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, appointmentID, excludeRouteID).Scan(&exists); err != nil {
		return false, wrapErr("repository.AppointmentOnActiveRoute", err)
	}
	return exists, nil
}

// CreateChangeRequest records a proposed route change for review.
func (r *Repository) CreateChangeRequest(ctx context.Context, cr *models.RouteChangeRequest) error {
	query := `
		INSERT INTO route_change_requests (id, route_id, requested_by, request_type, request_data, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	err := r.db.QueryRow(ctx, query,
		cr.ID, cr.RouteID, cr.RequestedBy, cr.RequestType, cr.RequestData, cr.Status,
	).Scan(&cr.CreatedAt)
	if err != nil {
		return wrapErr("repository.CreateChangeRequest", err)
	}
	return nil
}

func scanChangeRequest(row pgx.Row) (*models.RouteChangeRequest, error) {
	var cr models.RouteChangeRequest
	err := row.Scan(
		&cr.ID,
		&cr.RouteID,
		&cr.RequestedBy,
		&cr.RequestType,
		&cr.RequestData,
		&cr.Status,
		&cr.ReviewedBy,
		&cr.ReviewedAt,
		&cr.ReviewNotes,
		&cr.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &cr, nil
}

// FindChangeRequest retrieves one change request.
func (r *Repository) FindChangeRequest(ctx context.Context, id string) (*models.RouteChangeRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM route_change_requests WHERE id = $1`, changeRequestColumns)

	cr, err := scanChangeRequest(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, wrapErr("repository.FindChangeRequest", err)
	}
	return cr, nil
}

// ListChangeRequests returns a route's change requests, newest first.
func (r *Repository) ListChangeRequests(ctx context.Context, routeID string) ([]*models.RouteChangeRequest, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM route_change_requests
		WHERE route_id = $1
		ORDER BY created_at DESC`, changeRequestColumns)

	rows, err := r.db.Query(ctx, query, routeID)
	if err != nil {
		return nil, wrapErr("repository.ListChangeRequests", err)
	}
	defer rows.Close()

	var crs []*models.RouteChangeRequest
	for rows.Next() {
		cr, err := scanChangeRequest(rows)
		if err != nil {
			return nil, wrapErr("repository.ListChangeRequests.Scan", err)
		}
		crs = append(crs, cr)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("repository.ListChangeRequests.Rows", err)
	}
	return crs, nil
}

// ReviewChangeRequest records the decision on a pending request. A request
// that is no longer pending reports ErrChangeRequestReviewed.
func (r *Repository) ReviewChangeRequest(ctx context.Context, id, reviewerID string, status models.ChangeRequestStatus, notes string) error {
	query := `
		UPDATE route_change_requests
		SET status = $1, reviewed_by = $2, reviewed_at = NOW(), review_notes = $3
		WHERE id = $4 AND status = $5`

	cmdTag, err := r.db.Exec(ctx, query, status, reviewerID, notes, id, models.ChangePending)
	if err != nil {
		return wrapErr("repository.ReviewChangeRequest", err)
	}
	if cmdTag.RowsAffected() == 0 {
		if _, err := r.FindChangeRequest(ctx, id); err != nil {
			return err
		}
		return models.ErrChangeRequestReviewed
	}
	return nil
}

// ListAssignedCustomerIDs returns the customers assigned to a technician.
// Only the route assembler's fallback reads this.
func (r *Repository) ListAssignedCustomerIDs(ctx context.Context, technicianID string) ([]string, error) {
	query := `
		SELECT customer_id FROM technician_customer_assignments
		WHERE technician_id = $1`

	rows, err := r.db.Query(ctx, query, technicianID)
	if err != nil {
		return nil, wrapErr("repository.ListAssignedCustomerIDs", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, wrapErr("repository.ListAssignedCustomerIDs.Scan", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("repository.ListAssignedCustomerIDs.Rows", err)
	}
	return ids, nil
}

// CustomerAddresses returns the street address per customer id. Customers
// without an address on file are simply absent from the map.
func (r *Repository) CustomerAddresses(ctx context.Context, customerIDs []string) (map[string]string, error) {
	query := `
		SELECT id, address FROM customers
		WHERE id = ANY($1) AND address IS NOT NULL`

	rows, err := r.db.Query(ctx, query, customerIDs)
	if err != nil {
		return nil, wrapErr("repository.CustomerAddresses", err)
	}
	defer rows.Close()

	addrs := make(map[string]string)
	for rows.Next() {
		var id, address string
		if err := rows.Scan(&id, &address); err != nil {
			return nil, wrapErr("repository.CustomerAddresses.Scan", err)
		}
		addrs[id] = address
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("repository.CustomerAddresses.Rows", err)
	}
	return addrs, nil
}
