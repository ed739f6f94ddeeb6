package models

import (
	"database/sql"
	"time"
)

// RouteStatus enumerates the approval states of a daily route.
type RouteStatus string

const (
	RoutePending  RouteStatus = "pending"
	RouteApproved RouteStatus = "approved"
)

// StopStatus is the route-stop status vocabulary. It is parallel to and
// independent of the appointment status; nothing forces the two in sync.
type StopStatus string

const (
	StopPending  StopStatus = "pending"
	StopArrived  StopStatus = "arrived"
	StopDeparted StopStatus = "departed"
	StopSkipped  StopStatus = "skipped"
)

// DailyRoute is one technician's itinerary for one calendar date. Duplicate
// (technician, date) routes are tolerated; readers take the most recent.
type DailyRoute struct {
	ID           string         `json:"id"`
	RouteDate    time.Time      `json:"route_date"`
	TechnicianID string         `json:"technician_id"`
	Status       RouteStatus    `json:"status"`
	CreatedBy    string         `json:"created_by"`
	ApprovedBy   sql.NullString `json:"approved_by,omitempty"`
	ApprovedAt   sql.NullTime   `json:"approved_at,omitempty"`
	Notes        string         `json:"notes,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	Stops        []*RouteStop   `json:"stops,omitempty"`
}

// RouteStop is one position in a route. StopOrder values within a route are
// unique and contiguous from 1; every mutation goes through the sequencer.
type RouteStop struct {
	ID                   string         `json:"id"`
	RouteID              string         `json:"route_id"`
	AppointmentID        sql.NullString `json:"appointment_id,omitempty"`
	CustomerID           string         `json:"customer_id"`
	StopOrder            int            `json:"stop_order"`
	EstimatedArrivalTime sql.NullString `json:"estimated_arrival_time,omitempty"`
	Status               StopStatus     `json:"status"`
	ActualArrivalTime    sql.NullTime   `json:"actual_arrival_time,omitempty"`
	ActualDepartureTime  sql.NullTime   `json:"actual_departure_time,omitempty"`
	Notes                string         `json:"notes,omitempty"`
}

// ChangeRequestStatus enumerates review outcomes for a route change request.
type ChangeRequestStatus string

const (
	ChangePending  ChangeRequestStatus = "pending"
	ChangeApproved ChangeRequestStatus = "approved"
	ChangeRejected ChangeRequestStatus = "rejected"
)

// RouteChangeRequest records a proposed route modification awaiting review.
// It is advisory: approving a request does not apply the described change.
type RouteChangeRequest struct {
	ID          string              `json:"id"`
	RouteID     string              `json:"route_id"`
	RequestedBy string              `json:"requested_by"`
	RequestType string              `json:"request_type"`
	RequestData []byte              `json:"request_data"` // opaque JSONB payload
	Status      ChangeRequestStatus `json:"status"`
	ReviewedBy  sql.NullString      `json:"reviewed_by,omitempty"`
	ReviewedAt  sql.NullTime        `json:"reviewed_at,omitempty"`
	ReviewNotes sql.NullString      `json:"review_notes,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
}

// TechnicianCustomerAssignment maps a technician to a customer they service.
// Used only as the route assembler's fallback when no route exists.
type TechnicianCustomerAssignment struct {
	TechnicianID string `json:"technician_id"`
	CustomerID   string `json:"customer_id"`
}

// StopInput describes one stop when creating a route.
type StopInput struct {
	AppointmentID        string `json:"appointment_id,omitempty" validate:"omitempty,uuid"`
	CustomerID           string `json:"customer_id" validate:"required,uuid"`
	EstimatedArrivalTime string `json:"estimated_arrival_time,omitempty" validate:"omitempty,datetime=15:04"`
	Notes                string `json:"notes,omitempty"`
}

// CreateRouteRequest is the body for creating a daily route with an optional
// initial stop list; stops are numbered in the order given.
type CreateRouteRequest struct {
	RouteDate    string      `json:"route_date" validate:"required,datetime=2006-01-02"`
	TechnicianID string      `json:"technician_id" validate:"required,uuid"`
	Notes        string      `json:"notes,omitempty"`
	Stops        []StopInput `json:"stops,omitempty" validate:"omitempty,dive"`
}

// AddStopRequest appends or positions a new stop on an existing route.
type AddStopRequest struct {
	StopInput
	Position int `json:"position,omitempty" validate:"omitempty,min=1"`
}

// StopPosition pairs a stop with the order the caller wants it at. Desired
// orders need not be unique or contiguous; the sequencer normalizes them.
type StopPosition struct {
	StopID       string `json:"stop_id" validate:"required,uuid"`
	DesiredOrder int    `json:"desired_order" validate:"required,min=1"`
}

// ReorderStopsRequest re-sequences every stop of a route in one call.
type ReorderStopsRequest struct {
	Stops []StopPosition `json:"stops" validate:"required,min=1,dive"`
}

// StopProgressRequest records arrival/departure or a status change on a stop.
type StopProgressRequest struct {
	Status    StopStatus `json:"status,omitempty" validate:"omitempty,oneof=pending arrived departed skipped"`
	Arrival   *time.Time `json:"arrival,omitempty"`
	Departure *time.Time `json:"departure,omitempty"`
	Notes     *string    `json:"notes,omitempty"`
}

// CreateChangeRequestRequest proposes a route change for review.
type CreateChangeRequestRequest struct {
	RequestType string `json:"request_type" validate:"required,min=2,max=50"`
	RequestData []byte `json:"request_data" validate:"required"`
}

// ReviewChangeRequestRequest records the reviewer's decision.
type ReviewChangeRequestRequest struct {
	Approve     bool   `json:"approve"`
	ReviewNotes string `json:"review_notes,omitempty"`
}
