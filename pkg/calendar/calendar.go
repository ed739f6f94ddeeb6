// Package calendar mirrors appointments into a third-party calendar. Token
// exchange and OAuth flows live elsewhere; this package only consumes
// ready-to-use credentials.
package calendar

import (
	"context"

	"field-service-backend/internal/models"
)

// ProviderCredentials identifies the external calendar to write into.
type ProviderCredentials struct {
	Provider    string // e.g. "google"
	AccessToken string
	CalendarID  string // provider-side calendar, "primary" if empty
}

// SyncResult reports the outcome for one appointment. Exactly one of
// ExternalEventID and Err is meaningful.
type SyncResult struct {
	AppointmentID   string
	ExternalEventID string
	Err             error
}

// Sync pushes appointments to an external provider, one result per input
// appointment, in input order. A per-item failure never aborts the batch.
type Sync interface {
	SyncAppointments(ctx context.Context, creds ProviderCredentials, appts []*models.Appointment) []SyncResult
}
