package routes

import (
	"net/http"
	"time"

	"field-service-backend/internal/models"
	"field-service-backend/pkg/utils"

	"github.com/labstack/echo/v4"
)

// Handler handles HTTP requests for routes and itineraries.
type Handler struct {
	svc ServiceInterface
}

// NewHandler creates a new route handler.
func NewHandler(svc ServiceInterface) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) CreateRoute(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	var req models.CreateRouteRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	route, err := h.svc.CreateRoute(c.Request().Context(), userID, req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	return utils.RespondWithJSON(c, http.StatusCreated, route)
}

func (h *Handler) GetRoute(c echo.Context) error {
	route, err := h.svc.GetRoute(c.Request().Context(), c.Param("routeId"))
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, route)
}

func (h *Handler) DeleteRoute(c echo.Context) error {
	if err := h.svc.DeleteRoute(c.Request().Context(), c.Param("routeId")); err != nil {
		return utils.HandleServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ApproveRoute(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	route, err := h.svc.ApproveRoute(c.Request().Context(), c.Param("routeId"), userID)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, route)
}

// GetItinerary returns the technician's assembled appointment list for the
// date in the path, e.g. GET /itinerary/2024-06-01.
func (h *Handler) GetItinerary(c echo.Context) error {
	userID, role, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	// Only dispatchers may assemble for another technician.
	technicianID := c.QueryParam("technician_id")
	if technicianID == "" {
		technicianID = userID
	}
	if technicianID != userID && role != models.RoleDispatcher {
		return utils.RespondWithError(c, http.StatusForbidden, "cannot read another technician's itinerary")
	}

	date, err := time.Parse("2006-01-02", c.Param("date"))
	if err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid date, want YYYY-MM-DD")
	}

	appts, err := h.svc.GetItinerary(c.Request().Context(), technicianID, date)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, map[string]interface{}{
		"technician_id": technicianID,
		"date":          c.Param("date"),
		"appointments":  appts,
	})
}

// SuggestStopOrder returns the planner's advisory ordering for a route.
func (h *Handler) SuggestStopOrder(c echo.Context) error {
	suggestion, err := h.svc.SuggestStopOrder(c.Request().Context(), c.Param("routeId"))
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, suggestion)
}

func (h *Handler) AddStop(c echo.Context) error {
	var req models.AddStopRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	stop, err := h.svc.AddStop(c.Request().Context(), c.Param("routeId"), req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusCreated, stop)
}

func (h *Handler) RemoveStop(c echo.Context) error {
	if err := h.svc.RemoveStop(c.Request().Context(), c.Param("routeId"), c.Param("stopId")); err != nil {
		return utils.HandleServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ReorderStops(c echo.Context) error {
	var req models.ReorderStopsRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	stops, err := h.svc.ReorderStops(c.Request().Context(), c.Param("routeId"), req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, stops)
}

func (h *Handler) RecordStopProgress(c echo.Context) error {
	var req models.StopProgressRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	stop, err := h.svc.RecordStopProgress(c.Request().Context(), c.Param("stopId"), req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, stop)
}

func (h *Handler) CreateChangeRequest(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	var req models.CreateChangeRequestRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	cr, err := h.svc.CreateChangeRequest(c.Request().Context(), c.Param("routeId"), userID, req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusCreated, cr)
}

func (h *Handler) ReviewChangeRequest(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	var req models.ReviewChangeRequestRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}

	cr, err := h.svc.ReviewChangeRequest(c.Request().Context(), c.Param("requestId"), userID, req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, cr)
}

func (h *Handler) ListChangeRequests(c echo.Context) error {
	crs, err := h.svc.ListChangeRequests(c.Request().Context(), c.Param("routeId"))
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, crs)
}
