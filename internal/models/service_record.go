package models

import "time"

// PhotoMeta is the lightweight descriptor kept for a photo captured in the
// field. Binary content is never queued offline; the file is re-selected and
// uploaded once the device is back online.
type PhotoMeta struct {
	Name string `json:"name" validate:"required"`
	Size int64  `json:"size" validate:"min=0"`
	Type string `json:"type,omitempty"`
}

// ServiceRecord is the write-up a technician files after completing a visit.
// ID doubles as the idempotency key: a capture replayed from the offline
// queue inserts with the same id and is a no-op the second time.
type ServiceRecord struct {
	ID            string      `json:"id"`
	AppointmentID string      `json:"appointment_id"`
	TechnicianID  string      `json:"technician_id"`
	WorkPerformed string      `json:"work_performed"`
	Notes         string      `json:"notes,omitempty"`
	Photos        []PhotoMeta `json:"photos,omitempty"`
	CompletedAt   time.Time   `json:"completed_at"`
	CreatedAt     time.Time   `json:"created_at"`
}

// CaptureRequest is the body for filing a service record against an
// appointment. ClientToken is generated on the device so that the same
// capture, replayed after an offline drain, cannot double-apply.
type CaptureRequest struct {
	ClientToken   string      `json:"client_token" validate:"required,min=16"`
	WorkPerformed string      `json:"work_performed" validate:"required"`
	Notes         string      `json:"notes,omitempty"`
	Photos        []PhotoMeta `json:"photos,omitempty" validate:"omitempty,dive"`
	CompletedAt   time.Time   `json:"completed_at" validate:"required"`
}

// CaptureResult reports how a capture was handled: written through to the
// store, or accepted into the offline queue for a later drain.
type CaptureResult struct {
	RecordID string `json:"record_id"`
	Queued   bool   `json:"queued"`
}
