package appointments

import (
	"fmt"

	"field-service-backend/internal/models"
)

// transitions is the full appointment state machine. completed and cancelled
// have no outgoing edges; rescheduling a terminal appointment means creating
// a new one.
var transitions = map[models.AppointmentStatus][]models.AppointmentStatus{
	models.StatusUnscheduled: {models.StatusScheduled, models.StatusCancelled},
	models.StatusScheduled:   {models.StatusConfirmed, models.StatusCancelled},
	models.StatusConfirmed:   {models.StatusInProgress, models.StatusCancelled},
	models.StatusInProgress:  {models.StatusCompleted, models.StatusCancelled},
	models.StatusCompleted:   {},
	models.StatusCancelled:   {},
}

// CanTransition reports whether from -> to is a legal status change.
func CanTransition(from, to models.AppointmentStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidateTransition returns ErrInvalidTransition unless from -> to is legal.
func ValidateTransition(from, to models.AppointmentStatus) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", models.ErrInvalidTransition, from, to)
	}
	return nil
}
