package models

import (
	"database/sql"
	"time"
)

// AppointmentStatus enumerates the lifecycle states of an appointment.
type AppointmentStatus string

const (
	StatusUnscheduled AppointmentStatus = "unscheduled"
	StatusScheduled   AppointmentStatus = "scheduled"
	StatusConfirmed   AppointmentStatus = "confirmed"
	StatusInProgress  AppointmentStatus = "in-progress"
	StatusCompleted   AppointmentStatus = "completed"
	StatusCancelled   AppointmentStatus = "cancelled"
)

// EditScope controls how far a series edit or delete cascades.
type EditScope string

const (
	ScopeSingle EditScope = "single"
	ScopeFuture EditScope = "future"
	ScopeAll    EditScope = "all"
)

// Appointment represents a single service visit, scheduled or backlog.
// A recurring child always points at its series root via RecurringParentID;
// the chain is never transitive.
type Appointment struct {
	ID                string            `json:"id"`
	CustomerID        sql.NullString    `json:"customer_id,omitempty"`
	TechnicianID      sql.NullString    `json:"technician_id,omitempty"`
	Date              sql.NullTime      `json:"date,omitempty"` // null = unscheduled backlog
	Time              sql.NullString    `json:"time,omitempty"` // "HH:MM", local to the branch
	ServiceType       string            `json:"service_type"`
	Status            AppointmentStatus `json:"status"`
	Notes             string            `json:"notes,omitempty"`
	IsRecurring       bool              `json:"is_recurring"`
	RecurringParentID sql.NullString    `json:"recurring_parent_id,omitempty"`
	ExternalEventID   sql.NullString    `json:"external_event_id,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// SeriesRootID returns the group id shared by every member of the
// appointment's series. For the root itself that is its own id.
func (a *Appointment) SeriesRootID() string {
	if a.RecurringParentID.Valid {
		return a.RecurringParentID.String
	}
	return a.ID
}

// CreateAppointmentRequest is the body for creating an appointment. Date and
// time may be omitted to create an unscheduled backlog entry.
type CreateAppointmentRequest struct {
	CustomerID   string `json:"customer_id,omitempty" validate:"omitempty,uuid"`
	TechnicianID string `json:"technician_id,omitempty" validate:"omitempty,uuid"`
	Date         string `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Time         string `json:"time,omitempty" validate:"omitempty,datetime=15:04"`
	ServiceType  string `json:"service_type" validate:"required,min=2,max=100"`
	Notes        string `json:"notes,omitempty"`
	IsRecurring  bool   `json:"is_recurring"`

	// RecurrenceCount is how many additional occurrences to generate beyond
	// the root; RecurrenceIntervalDays defaults to 7. Both require
	// IsRecurring and a concrete date.
	RecurrenceCount        int `json:"recurrence_count,omitempty" validate:"omitempty,min=1,max=52"`
	RecurrenceIntervalDays int `json:"recurrence_interval_days,omitempty" validate:"omitempty,min=1,max=90"`
}

// UpdateAppointmentRequest is the body for a (possibly cascading) edit.
// Scope defaults to "single" when empty.
type UpdateAppointmentRequest struct {
	Scope       EditScope `json:"scope,omitempty" validate:"omitempty,oneof=single future all"`
	Date        *string   `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Time        *string   `json:"time,omitempty" validate:"omitempty,datetime=15:04"`
	ServiceType *string   `json:"service_type,omitempty" validate:"omitempty,min=2,max=100"`
	Notes       *string   `json:"notes,omitempty"`
}

// DeleteAppointmentRequest carries the cascade scope for a delete.
type DeleteAppointmentRequest struct {
	Scope EditScope `json:"scope,omitempty" validate:"omitempty,oneof=single future all"`
}

// StatusChangeRequest asks for a single state-machine transition.
type StatusChangeRequest struct {
	Status AppointmentStatus `json:"status" validate:"required,oneof=unscheduled scheduled confirmed in-progress completed cancelled"`
}

// ScheduleBacklogRequest promotes an unscheduled appointment onto a date.
type ScheduleBacklogRequest struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
	Time string `json:"time" validate:"required,datetime=15:04"`
}
