package models

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a requested resource is not found.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidScope is returned when a series-scoped edit or delete is
	// attempted on a non-recurring appointment with a scope other than 'single'.
	ErrInvalidScope = errors.New("scope requires a recurring appointment")

	// ErrInvalidTransition is returned when an appointment status change is
	// not allowed by the state machine (including any change out of a
	// terminal 'completed' or 'cancelled' state).
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrRouteAlreadyApproved is returned when an approval is attempted on a
	// route that is no longer pending. Approval is one-way.
	ErrRouteAlreadyApproved = errors.New("route is already approved")

	// ErrChangeRequestReviewed is returned when a review is attempted on a
	// change request that has already been approved or rejected.
	ErrChangeRequestReviewed = errors.New("change request has already been reviewed")

	// ErrStopConflict is returned when an appointment is added to a route
	// while it is still a stop on another route.
	ErrStopConflict = errors.New("appointment is already on another route")

	// ErrRemoteUnavailable is returned when the store cannot be reached.
	// Capture operations reroute into the offline queue on this error; all
	// other operations surface it to the caller.
	ErrRemoteUnavailable = errors.New("store unreachable")
)

// PartialWriteError reports a multi-row operation that stopped partway, such
// as a stop reorder or a route-plus-stops creation. The committed prefix is
// durable; the caller re-reads current state and retries only the remainder.
type PartialWriteError struct {
	Op    string // operation name, e.g. "sequencer.Reorder"
	Done  int    // rows confirmed written before the failure
	Total int    // rows the operation set out to write
	Err   error  // the underlying failure
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("%s: wrote %d of %d rows: %v", e.Op, e.Done, e.Total, e.Err)
}

func (e *PartialWriteError) Unwrap() error { return e.Err }
