package appointments

import (
	"net/http"

	"field-service-backend/internal/models"
	"field-service-backend/pkg/calendar"
	"field-service-backend/pkg/utils"

	"github.com/labstack/echo/v4"
)

// Handler handles HTTP requests for appointments.
type Handler struct {
	svc ServiceInterface
}

// NewHandler creates a new appointment handler.
func NewHandler(svc ServiceInterface) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) CreateAppointment(c echo.Context) error {
	var req models.CreateAppointmentRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	appt, err := h.svc.CreateAppointment(c.Request().Context(), req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	return utils.RespondWithJSON(c, http.StatusCreated, appt)
}

func (h *Handler) GetAppointment(c echo.Context) error {
	appt, err := h.svc.GetAppointment(c.Request().Context(), c.Param("appointmentId"))
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, appt)
}

func (h *Handler) UpdateAppointment(c echo.Context) error {
	var req models.UpdateAppointmentRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	updated, err := h.svc.UpdateAppointment(c.Request().Context(), c.Param("appointmentId"), req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	return utils.RespondWithJSON(c, http.StatusOK, map[string]interface{}{
		"updated": updated,
		"count":   len(updated),
	})
}

func (h *Handler) DeleteAppointment(c echo.Context) error {
	var req models.DeleteAppointmentRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	count, err := h.svc.DeleteAppointment(c.Request().Context(), c.Param("appointmentId"), req.Scope)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	return utils.RespondWithJSON(c, http.StatusOK, map[string]int{"deleted": count})
}

func (h *Handler) ChangeStatus(c echo.Context) error {
	var req models.StatusChangeRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	appt, err := h.svc.ChangeStatus(c.Request().Context(), c.Param("appointmentId"), req.Status)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	return utils.RespondWithJSON(c, http.StatusOK, appt)
}

func (h *Handler) ScheduleBacklog(c echo.Context) error {
	var req models.ScheduleBacklogRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	appt, err := h.svc.ScheduleBacklog(c.Request().Context(), c.Param("appointmentId"), req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	return utils.RespondWithJSON(c, http.StatusOK, appt)
}

func (h *Handler) Capture(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	var req models.CaptureRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	result, err := h.svc.Capture(c.Request().Context(), c.Param("appointmentId"), userID, req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	status := http.StatusCreated
	if result.Queued {
		status = http.StatusAccepted
	}
	return utils.RespondWithJSON(c, status, result)
}

// CalendarSyncRequest is the body for pushing appointments to an external
// calendar. Token exchange happens elsewhere; the caller supplies a live
// access token.
type CalendarSyncRequest struct {
	Provider       string   `json:"provider" validate:"required"`
	AccessToken    string   `json:"access_token" validate:"required"`
	CalendarID     string   `json:"calendar_id,omitempty"`
	AppointmentIDs []string `json:"appointment_ids" validate:"required,min=1,dive,uuid"`
}

func (h *Handler) SyncCalendar(c echo.Context) error {
	var req CalendarSyncRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	creds := calendar.ProviderCredentials{
		Provider:    req.Provider,
		AccessToken: req.AccessToken,
		CalendarID:  req.CalendarID,
	}
	results, err := h.svc.SyncCalendar(c.Request().Context(), creds, req.AppointmentIDs)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	type itemResult struct {
		AppointmentID   string `json:"appointment_id"`
		ExternalEventID string `json:"external_event_id,omitempty"`
		Error           string `json:"error,omitempty"`
	}
	out := make([]itemResult, 0, len(results))
	for _, r := range results {
		item := itemResult{AppointmentID: r.AppointmentID, ExternalEventID: r.ExternalEventID}
		if r.Err != nil {
			item.Error = r.Err.Error()
		}
		out = append(out, item)
	}
	return utils.RespondWithJSON(c, http.StatusOK, out)
}
