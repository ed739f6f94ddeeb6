package offline

import (
	"net/http"

	"field-service-backend/pkg/utils"

	"github.com/labstack/echo/v4"
)

// Handler exposes the capture queue over HTTP: a technician device signals
// "connectivity returned" by forcing a drain, and can inspect what is still
// buffered.
type Handler struct {
	queue *CaptureQueue
}

func NewHandler(queue *CaptureQueue) *Handler {
	return &Handler{queue: queue}
}

// Drain replays the queue now instead of waiting for the worker's next tick.
func (h *Handler) Drain(c echo.Context) error {
	result, err := h.queue.Drain(c.Request().Context())
	if err != nil {
		return utils.RespondWithError(c, http.StatusInternalServerError, "drain failed")
	}
	return utils.RespondWithJSON(c, http.StatusOK, map[string]interface{}{
		"applied": result.Applied,
		"failed":  result.Failed,
	})
}

// Pending lists the entries still waiting for a successful drain.
func (h *Handler) Pending(c echo.Context) error {
	entries, err := h.queue.Pending(c.Request().Context())
	if err != nil {
		return utils.RespondWithError(c, http.StatusInternalServerError, "failed to read queue")
	}
	return utils.RespondWithJSON(c, http.StatusOK, entries)
}
