package appointments

import (
	"testing"

	"field-service-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifecycleChain(t *testing.T) {
	chain := []models.AppointmentStatus{
		models.StatusUnscheduled,
		models.StatusScheduled,
		models.StatusConfirmed,
		models.StatusInProgress,
		models.StatusCompleted,
	}
	for i := 0; i < len(chain)-1; i++ {
		assert.Truef(t, CanTransition(chain[i], chain[i+1]), "%s -> %s", chain[i], chain[i+1])
	}
}

func TestCancellableFromEveryNonTerminalState(t *testing.T) {
	for _, from := range []models.AppointmentStatus{
		models.StatusUnscheduled,
		models.StatusScheduled,
		models.StatusConfirmed,
		models.StatusInProgress,
	} {
		assert.Truef(t, CanTransition(from, models.StatusCancelled), "%s -> cancelled", from)
	}
}

func TestTerminalStatesHaveNoExit(t *testing.T) {
	all := []models.AppointmentStatus{
		models.StatusUnscheduled,
		models.StatusScheduled,
		models.StatusConfirmed,
		models.StatusInProgress,
		models.StatusCompleted,
		models.StatusCancelled,
	}
	for _, terminal := range []models.AppointmentStatus{models.StatusCompleted, models.StatusCancelled} {
		for _, to := range all {
			assert.Falsef(t, CanTransition(terminal, to), "%s -> %s", terminal, to)
		}
	}
}

func TestNoSkippingForward(t *testing.T) {
	cases := []struct{ from, to models.AppointmentStatus }{
		{models.StatusUnscheduled, models.StatusConfirmed},
		{models.StatusUnscheduled, models.StatusInProgress},
		{models.StatusScheduled, models.StatusInProgress},
		{models.StatusScheduled, models.StatusCompleted},
		{models.StatusConfirmed, models.StatusCompleted},
	}
	for _, tc := range cases {
		assert.Falsef(t, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestNoMovingBackward(t *testing.T) {
	cases := []struct{ from, to models.AppointmentStatus }{
		{models.StatusScheduled, models.StatusUnscheduled},
		{models.StatusConfirmed, models.StatusScheduled},
		{models.StatusInProgress, models.StatusConfirmed},
	}
	for _, tc := range cases {
		assert.Falsef(t, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestValidateTransitionError(t *testing.T) {
	err := ValidateTransition(models.StatusCompleted, models.StatusScheduled)
	require.ErrorIs(t, err, models.ErrInvalidTransition)
	assert.Contains(t, err.Error(), "completed -> scheduled")

	assert.NoError(t, ValidateTransition(models.StatusScheduled, models.StatusConfirmed))
}
