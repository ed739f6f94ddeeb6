package appointments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"field-service-backend/internal/models"
	"field-service-backend/internal/modules/offline"
	"field-service-backend/pkg/calendar"
	"field-service-backend/pkg/notify"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ServiceInterface defines the contract for appointment business logic.
type ServiceInterface interface {
	CreateAppointment(ctx context.Context, req models.CreateAppointmentRequest) (*models.Appointment, error)
	GetAppointment(ctx context.Context, id string) (*models.Appointment, error)
	UpdateAppointment(ctx context.Context, id string, req models.UpdateAppointmentRequest) ([]*models.Appointment, error)
	DeleteAppointment(ctx context.Context, id string, scope models.EditScope) (int, error)
	ChangeStatus(ctx context.Context, id string, status models.AppointmentStatus) (*models.Appointment, error)
	ScheduleBacklog(ctx context.Context, id string, req models.ScheduleBacklogRequest) (*models.Appointment, error)
	Capture(ctx context.Context, appointmentID, technicianID string, req models.CaptureRequest) (models.CaptureResult, error)
	SyncCalendar(ctx context.Context, creds calendar.ProviderCredentials, appointmentIDs []string) ([]calendar.SyncResult, error)
}

// Service implements the appointment scheduling logic. It also implements
// offline.CaptureWriter so drained queue entries replay through the same
// write path as direct captures.
type Service struct {
	repo     RepositoryInterface
	resolver *SeriesResolver
	notifier notify.Notifier
	tmpl     *notify.TemplateManager
	calSync  calendar.Sync
	queue    *offline.CaptureQueue
	logger   *zap.Logger
}

// NewService creates a new appointment service. The offline queue is
// attached afterwards because the queue's writer is this service.
func NewService(repo RepositoryInterface, notifier notify.Notifier, tmpl *notify.TemplateManager, calSync calendar.Sync, logger *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		resolver: NewSeriesResolver(repo),
		notifier: notifier,
		tmpl:     tmpl,
		calSync:  calSync,
		logger:   logger,
	}
}

// AttachQueue wires in the offline capture queue once it exists.
func (s *Service) AttachQueue(q *offline.CaptureQueue) { s.queue = q }

// CreateAppointment creates an appointment, plus generated occurrences when
// the request describes a recurring series. Children always point at the
// root's id, never at each other.
func (s *Service) CreateAppointment(ctx context.Context, req models.CreateAppointmentRequest) (*models.Appointment, error) {
	root := &models.Appointment{
		ID:          uuid.New().String(),
		ServiceType: req.ServiceType,
		Notes:       req.Notes,
		IsRecurring: req.IsRecurring,
		Status:      models.StatusUnscheduled,
	}
	if req.CustomerID != "" {
		root.CustomerID = sql.NullString{String: req.CustomerID, Valid: true}
	}
	if req.TechnicianID != "" {
		root.TechnicianID = sql.NullString{String: req.TechnicianID, Valid: true}
	}
	if req.Date != "" {
		date, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			return nil, fmt.Errorf("service.CreateAppointment parse date: %w", err)
		}
		root.Date = sql.NullTime{Time: date, Valid: true}
		root.Status = models.StatusScheduled
	}
	if req.Time != "" {
		root.Time = sql.NullString{String: req.Time, Valid: true}
	}

	if req.RecurrenceCount > 0 && (!req.IsRecurring || !root.Date.Valid) {
		return nil, fmt.Errorf("%w: recurrence requires a recurring appointment with a date", models.ErrInvalidScope)
	}

	if err := s.repo.Create(ctx, root); err != nil {
		return nil, fmt.Errorf("service.CreateAppointment: %w", err)
	}

	if req.RecurrenceCount > 0 {
		interval := req.RecurrenceIntervalDays
		if interval == 0 {
			interval = 7
		}
		for i := 1; i <= req.RecurrenceCount; i++ {
			child := &models.Appointment{
				ID:                uuid.New().String(),
				CustomerID:        root.CustomerID,
				TechnicianID:      root.TechnicianID,
				Date:              sql.NullTime{Time: root.Date.Time.AddDate(0, 0, interval*i), Valid: true},
				Time:              root.Time,
				ServiceType:       root.ServiceType,
				Status:            models.StatusScheduled,
				Notes:             root.Notes,
				IsRecurring:       true,
				RecurringParentID: sql.NullString{String: root.ID, Valid: true},
			}
			if err := s.repo.Create(ctx, child); err != nil {
				return nil, &models.PartialWriteError{
					Op:    "appointments.CreateSeries",
					Done:  i, // root plus i-1 children
					Total: req.RecurrenceCount + 1,
					Err:   err,
				}
			}
		}
	}

	return root, nil
}

// GetAppointment retrieves one appointment.
func (s *Service) GetAppointment(ctx context.Context, id string) (*models.Appointment, error) {
	return s.repo.FindByID(ctx, id)
}

// UpdateAppointment applies an edit over the scope-resolved set. Writes are
// per row; a mid-set failure reports the committed prefix so the caller can
// retry the remainder.
func (s *Service) UpdateAppointment(ctx context.Context, id string, req models.UpdateAppointmentRequest) ([]*models.Appointment, error) {
	appt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	targets, err := s.resolver.ResolveScope(ctx, appt, req.Scope)
	if err != nil {
		return nil, err
	}

	updated := make([]*models.Appointment, 0, len(targets))
	for i, target := range targets {
		a, err := s.repo.UpdateFields(ctx, target.ID, req)
		if err != nil {
			return updated, &models.PartialWriteError{
				Op:    "appointments.UpdateSeries",
				Done:  i,
				Total: len(targets),
				Err:   err,
			}
		}
		updated = append(updated, a)
	}
	return updated, nil
}

// DeleteAppointment removes the scope-resolved set; delete is the update
// path with removal applied to the identical set.
func (s *Service) DeleteAppointment(ctx context.Context, id string, scope models.EditScope) (int, error) {
	appt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return 0, err
	}

	targets, err := s.resolver.ResolveScope(ctx, appt, scope)
	if err != nil {
		return 0, err
	}

	for i, target := range targets {
		if err := s.repo.Delete(ctx, target.ID); err != nil {
			return i, &models.PartialWriteError{
				Op:    "appointments.DeleteSeries",
				Done:  i,
				Total: len(targets),
				Err:   err,
			}
		}
	}
	return len(targets), nil
}

// ChangeStatus runs one state-machine transition. Moving to in-progress
// fires the en-route notification; delivery never blocks the write.
func (s *Service) ChangeStatus(ctx context.Context, id string, status models.AppointmentStatus) (*models.Appointment, error) {
	appt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := ValidateTransition(appt.Status, status); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, fmt.Errorf("service.ChangeStatus: %w", err)
	}
	appt.Status = status

	if appt.CustomerID.Valid {
		switch status {
		case models.StatusInProgress:
			go s.notifyEnRoute(appt)
		case models.StatusConfirmed:
			go s.notifyReminder(appt)
		}
	}

	return appt, nil
}

// notifyEnRoute sends the "technician en route" message on a detached
// context; the status write has already committed.
func (s *Service) notifyEnRoute(appt *models.Appointment) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	name, email, err := s.repo.CustomerContact(ctx, appt.CustomerID.String)
	if err != nil {
		s.logger.Warn("en-route notification skipped, no contact",
			zap.String("appointment_id", appt.ID), zap.Error(err))
		return
	}

	msg, err := s.tmpl.EnRouteMessage(notify.TemplateData{
		CustomerName:   name,
		TechnicianName: "Your technician",
		ServiceType:    appt.ServiceType,
	})
	if err != nil {
		s.logger.Warn("en-route template failed", zap.Error(err))
		return
	}

	if err := s.notifier.Notify(ctx, email, msg); err != nil {
		s.logger.Warn("en-route notification failed",
			zap.String("appointment_id", appt.ID), zap.Error(err))
	}
}

// notifyReminder confirms the upcoming visit to the customer once the
// appointment reaches confirmed.
func (s *Service) notifyReminder(appt *models.Appointment) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	name, email, err := s.repo.CustomerContact(ctx, appt.CustomerID.String)
	if err != nil {
		s.logger.Warn("reminder skipped, no contact",
			zap.String("appointment_id", appt.ID), zap.Error(err))
		return
	}

	data := notify.TemplateData{
		CustomerName: name,
		ServiceType:  appt.ServiceType,
	}
	if appt.Date.Valid {
		data.Date = appt.Date.Time.Format("2006-01-02")
	}
	if appt.Time.Valid {
		data.Time = appt.Time.String
	}

	msg, err := s.tmpl.ReminderMessage(data)
	if err != nil {
		s.logger.Warn("reminder template failed", zap.Error(err))
		return
	}

	if err := s.notifier.Notify(ctx, email, msg); err != nil {
		s.logger.Warn("reminder failed",
			zap.String("appointment_id", appt.ID), zap.Error(err))
	}
}

// ScheduleBacklog promotes an unscheduled appointment onto a date and time.
func (s *Service) ScheduleBacklog(ctx context.Context, id string, req models.ScheduleBacklogRequest) (*models.Appointment, error) {
	appt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := ValidateTransition(appt.Status, models.StatusScheduled); err != nil {
		return nil, err
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, fmt.Errorf("service.ScheduleBacklog parse date: %w", err)
	}

	if err := s.repo.SetSchedule(ctx, id, date, req.Time); err != nil {
		return nil, fmt.Errorf("service.ScheduleBacklog: %w", err)
	}

	appt.Date = sql.NullTime{Time: date, Valid: true}
	appt.Time = sql.NullString{String: req.Time, Valid: true}
	appt.Status = models.StatusScheduled
	return appt, nil
}

// Capture files a service record and completes the appointment. When the
// store is unreachable the capture is buffered in the offline queue instead
// of failing the technician's action.
func (s *Service) Capture(ctx context.Context, appointmentID, technicianID string, req models.CaptureRequest) (models.CaptureResult, error) {
	err := s.writeCapture(ctx, appointmentID, technicianID, req)
	if err == nil {
		return models.CaptureResult{RecordID: req.ClientToken}, nil
	}

	if errors.Is(err, models.ErrRemoteUnavailable) && s.queue != nil {
		if _, qErr := s.queue.Enqueue(ctx, appointmentID, technicianID, req); qErr != nil {
			return models.CaptureResult{}, fmt.Errorf("service.Capture enqueue: %w", qErr)
		}
		return models.CaptureResult{RecordID: req.ClientToken, Queued: true}, nil
	}

	return models.CaptureResult{}, err
}

// WriteCapture applies a drained queue entry. Implements offline.CaptureWriter.
func (s *Service) WriteCapture(ctx context.Context, entry offline.QueueEntry) error {
	return s.writeCapture(ctx, entry.AppointmentID, entry.TechnicianID, entry.Capture)
}

// writeCapture is the single write path for captures, direct or replayed.
// The record insert is idempotent on the client token; the status update
// tolerates an appointment a previous partial attempt already completed.
// The transition is checked before any row is written so a rejected capture
// leaves no orphan record behind.
func (s *Service) writeCapture(ctx context.Context, appointmentID, technicianID string, req models.CaptureRequest) error {
	appt, err := s.repo.FindByID(ctx, appointmentID)
	if err != nil {
		return err
	}
	if appt.Status != models.StatusCompleted {
		if err := ValidateTransition(appt.Status, models.StatusCompleted); err != nil {
			return err
		}
	}

	rec := &models.ServiceRecord{
		ID:            req.ClientToken,
		AppointmentID: appointmentID,
		TechnicianID:  technicianID,
		WorkPerformed: req.WorkPerformed,
		Notes:         req.Notes,
		Photos:        req.Photos,
		CompletedAt:   req.CompletedAt,
	}
	inserted, err := s.repo.InsertServiceRecord(ctx, rec)
	if err != nil {
		return err
	}
	if !inserted {
		s.logger.Info("capture replay ignored, record exists",
			zap.String("record_id", rec.ID))
	}

	if appt.Status == models.StatusCompleted {
		return nil
	}
	return s.repo.UpdateStatus(ctx, appointmentID, models.StatusCompleted)
}

// SyncCalendar mirrors appointments into the external calendar and writes
// the provider event id back per item. Per-item failures are reported in the
// results, never fatal to the batch.
func (s *Service) SyncCalendar(ctx context.Context, creds calendar.ProviderCredentials, appointmentIDs []string) ([]calendar.SyncResult, error) {
	appts, err := s.repo.FindByIDs(ctx, appointmentIDs)
	if err != nil {
		return nil, fmt.Errorf("service.SyncCalendar: %w", err)
	}
	if len(appts) == 0 {
		return nil, models.ErrNotFound
	}

	results := s.calSync.SyncAppointments(ctx, creds, appts)
	for i, res := range results {
		if res.Err != nil || res.ExternalEventID == "" {
			continue
		}
		if err := s.repo.SetExternalEventID(ctx, res.AppointmentID, res.ExternalEventID); err != nil {
			results[i].Err = fmt.Errorf("write back event id: %w", err)
		}
	}
	return results, nil
}
