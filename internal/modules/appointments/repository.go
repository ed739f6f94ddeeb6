package appointments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"field-service-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const appointmentColumns = `id, customer_id, technician_id, date, time, service_type, status, notes,
	is_recurring, recurring_parent_id, external_event_id, created_at, updated_at`

// RepositoryInterface defines the contract for the appointment repository.
type RepositoryInterface interface {
	Create(ctx context.Context, appt *models.Appointment) error
	FindByID(ctx context.Context, id string) (*models.Appointment, error)
	FindByIDs(ctx context.Context, ids []string) ([]*models.Appointment, error)
	ListSeries(ctx context.Context, parentID string, from *time.Time) ([]*models.Appointment, error)
	ListForCustomersOnDate(ctx context.Context, date time.Time, customerIDs []string) ([]*models.Appointment, error)
	ListForTechnicianOnDate(ctx context.Context, technicianID string, date time.Time) ([]*models.Appointment, error)
	UpdateFields(ctx context.Context, id string, req models.UpdateAppointmentRequest) (*models.Appointment, error)
	Delete(ctx context.Context, id string) error
	UpdateStatus(ctx context.Context, id string, status models.AppointmentStatus) error
	SetSchedule(ctx context.Context, id string, date time.Time, timeOfDay string) error
	SetExternalEventID(ctx context.Context, id, eventID string) error
	InsertServiceRecord(ctx context.Context, rec *models.ServiceRecord) (inserted bool, err error)
	CustomerContact(ctx context.Context, customerID string) (name, email string, err error)
}

// Repository implements the RepositoryInterface against PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new appointment repository.
func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

// wrapErr classifies a pgx error. Server-reported errors and no-rows keep
// their usual mapping; anything else means the store itself was unreachable,
// which is what routes captures into the offline queue.
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

// scanAppointment reads one row into an Appointment model.
func scanAppointment(row pgx.Row) (*models.Appointment, error) {
	var a models.Appointment
	err := row.Scan(
		&a.ID,
		&a.CustomerID,
		&a.TechnicianID,
		&a.Date,
		&a.Time,
		&a.ServiceType,
		&a.Status,
		&a.Notes,
		&a.IsRecurring,
		&a.RecurringParentID,
		&a.ExternalEventID,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *Repository) collect(rows pgx.Rows, op string) ([]*models.Appointment, error) {
	defer rows.Close()
	var appts []*models.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, wrapErr(op+".Scan", err)
		}
		appts = append(appts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(op+".Rows", err)
	}
	return appts, nil
}

// Create inserts a new appointment.
func (r *Repository) Create(ctx context.Context, appt *models.Appointment) error {
	query := `
		INSERT INTO appointments (id, customer_id, technician_id, date, time, service_type, status, notes, is_recurring, recurring_parent_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		appt.ID, appt.CustomerID, appt.TechnicianID, appt.Date, appt.Time,
		appt.ServiceType, appt.Status, appt.Notes, appt.IsRecurring, appt.RecurringParentID,
	).Scan(&appt.CreatedAt, &appt.UpdatedAt)
	if err != nil {
		return wrapErr("repository.CreateAppointment", err)
	}
	return nil
}

// FindByID retrieves a single appointment.
func (r *Repository) FindByID(ctx context.Context, id string) (*models.Appointment, error) {
	query := fmt.Sprintf(`SELECT %s FROM appointments WHERE id = $1`, appointmentColumns)

	a, err := scanAppointment(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, wrapErr("repository.FindByID", err)
	}
	return a, nil
}

// FindByIDs retrieves appointments by id; the result order is unspecified.
func (r *Repository) FindByIDs(ctx context.Context, ids []string) ([]*models.Appointment, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM appointments WHERE id = ANY($1)`, appointmentColumns)

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, wrapErr("repository.FindByIDs", err)
	}
	return r.collect(rows, "repository.FindByIDs")
}

// ListSeries returns the children of a series root, optionally restricted to
// dates on or after `from`. The root itself is not included; it carries a
// null recurring_parent_id.
func (r *Repository) ListSeries(ctx context.Context, parentID string, from *time.Time) ([]*models.Appointment, error) {
	query := fmt.Sprintf(`SELECT %s FROM appointments WHERE recurring_parent_id = $1`, appointmentColumns)
	args := []interface{}{parentID}
	if from != nil {
		query += ` AND date >= $2`
		args = append(args, *from)
	}
	query += ` ORDER BY date ASC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("repository.ListSeries", err)
	}
	return r.collect(rows, "repository.ListSeries")
}

// ListForCustomersOnDate returns a date's appointments for the given
// customers, ordered by time of day. The assembler's assignment fallback.
func (r *Repository) ListForCustomersOnDate(ctx context.Context, date time.Time, customerIDs []string) ([]*models.Appointment, error) {
	if len(customerIDs) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`
		SELECT %s FROM appointments
		WHERE date = $1 AND customer_id = ANY($2)
		ORDER BY time ASC NULLS LAST`, appointmentColumns)

	rows, err := r.db.Query(ctx, query, date, customerIDs)
	if err != nil {
		return nil, wrapErr("repository.ListForCustomersOnDate", err)
	}
	return r.collect(rows, "repository.ListForCustomersOnDate")
}

// ListForTechnicianOnDate returns a date's appointments owned directly by the
// technician, ordered by time of day. The assembler's last fallback.
func (r *Repository) ListForTechnicianOnDate(ctx context.Context, technicianID string, date time.Time) ([]*models.Appointment, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM appointments
		WHERE date = $1 AND technician_id = $2
		ORDER BY time ASC NULLS LAST`, appointmentColumns)

	rows, err := r.db.Query(ctx, query, date, technicianID)
	if err != nil {
		return nil, wrapErr("repository.ListForTechnicianOnDate", err)
	}
	return r.collect(rows, "repository.ListForTechnicianOnDate")
}

// UpdateFields modifies the provided fields of one appointment.
func (r *Repository) UpdateFields(ctx context.Context, id string, req models.UpdateAppointmentRequest) (*models.Appointment, error) {
	var setClauses []string
	var args []interface{}
	argIdx := 1

	if req.Date != nil {
		setClauses = append(setClauses, fmt.Sprintf("date = $%d", argIdx))
		args = append(args, *req.Date)
		argIdx++
	}
	if req.Time != nil {
		setClauses = append(setClauses, fmt.Sprintf("time = $%d", argIdx))
		args = append(args, *req.Time)
		argIdx++
	}
	if req.ServiceType != nil {
		setClauses = append(setClauses, fmt.Sprintf("service_type = $%d", argIdx))
		args = append(args, *req.ServiceType)
		argIdx++
	}
	if req.Notes != nil {
		setClauses = append(setClauses, fmt.Sprintf("notes = $%d", argIdx))
		args = append(args, *req.Notes)
		argIdx++
	}

	if len(setClauses) == 0 {
		return r.FindByID(ctx, id)
	}

	setClauses = append(setClauses, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf(`
		UPDATE appointments SET %s
		WHERE id = $%d
		RETURNING %s`,
		strings.Join(setClauses, ", "), argIdx, appointmentColumns)

	a, err := scanAppointment(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, wrapErr("repository.UpdateFields", err)
	}
	return a, nil
}

// Delete removes one appointment.
func (r *Repository) Delete(ctx context.Context, id string) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return wrapErr("repository.DeleteAppointment", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// UpdateStatus sets the appointment's status.
func (r *Repository) UpdateStatus(ctx context.Context, id string, status models.AppointmentStatus) error {
	query := `
		UPDATE appointments
		SET status = $1, updated_at = NOW()
		WHERE id = $2`

	cmdTag, err := r.db.Exec(ctx, query, status, id)
	if err != nil {
		return wrapErr("repository.UpdateStatus", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// SetSchedule puts a backlog appointment onto a concrete date and time.
func (r *Repository) SetSchedule(ctx context.Context, id string, date time.Time, timeOfDay string) error {
	query := `
		UPDATE appointments
		SET date = $1, time = $2, status = $3, updated_at = NOW()
		WHERE id = $4`

	cmdTag, err := r.db.Exec(ctx, query, date, timeOfDay, models.StatusScheduled, id)
	if err != nil {
		return wrapErr("repository.SetSchedule", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// SetExternalEventID records the provider event id written by calendar sync.
func (r *Repository) SetExternalEventID(ctx context.Context, id, eventID string) error {
	query := `
		UPDATE appointments
		SET external_event_id = $1, updated_at = NOW()
		WHERE id = $2`

	cmdTag, err := r.db.Exec(ctx, query, eventID, id)
	if err != nil {
		return wrapErr("repository.SetExternalEventID", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// InsertServiceRecord stores a completed-visit record. The id is the client
// capture token; replays conflict on it and report inserted=false.
func (r *Repository) InsertServiceRecord(ctx context.Context, rec *models.ServiceRecord) (bool, error) {
	query := `
		INSERT INTO service_records (id, appointment_id, technician_id, work_performed, notes, photos, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING`

	photos, err := json.Marshal(rec.Photos)
	if err != nil {
		return false, fmt.Errorf("repository.InsertServiceRecord marshal photos: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, query,
		rec.ID, rec.AppointmentID, rec.TechnicianID,
		rec.WorkPerformed, rec.Notes, photos, rec.CompletedAt,
	)
	if err != nil {
		return false, wrapErr("repository.InsertServiceRecord", err)
	}
	return cmdTag.RowsAffected() > 0, nil
}

// CustomerContact returns the name and notification address for a customer.
func (r *Repository) CustomerContact(ctx context.Context, customerID string) (string, string, error) {
	query := `SELECT name, email FROM customers WHERE id = $1`

	var name, email string
	if err := r.db.QueryRow(ctx, query, customerID).Scan(&name, &email); err != nil {
		return "", "", wrapErr("repository.CustomerContact", err)
	}
	return name, email, nil
}
