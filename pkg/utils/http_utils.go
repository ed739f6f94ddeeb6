package utils

import (
	"errors"
	"net/http"

	"field-service-backend/internal/models"

	"github.com/labstack/echo/v4"
)

// RespondWithJSON writes a JSON body with the given status code.
func RespondWithJSON(c echo.Context, status int, payload interface{}) error {
	return c.JSON(status, payload)
}

// RespondWithError writes a uniform error body.
func RespondWithError(c echo.Context, status int, message string) error {
	return c.JSON(status, models.ErrorResponse{Message: message})
}

// HandleServiceError maps service-layer errors onto HTTP status codes so
// handlers don't repeat the same switch everywhere.
func HandleServiceError(c echo.Context, err error) error {
	var partial *models.PartialWriteError
	switch {
	case errors.Is(err, models.ErrNotFound):
		return RespondWithError(c, http.StatusNotFound, "resource not found")
	case errors.Is(err, models.ErrInvalidScope):
		return RespondWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrInvalidTransition):
		return RespondWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, models.ErrRouteAlreadyApproved):
		return RespondWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, models.ErrChangeRequestReviewed):
		return RespondWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, models.ErrStopConflict):
		return RespondWithError(c, http.StatusConflict, err.Error())
	case errors.As(err, &partial):
		// The committed prefix is durable; the caller re-reads and retries
		// the remainder, so tell them exactly how far the write got.
		return RespondWithJSON(c, http.StatusConflict, map[string]interface{}{
			"message": "partial write",
			"op":      partial.Op,
			"done":    partial.Done,
			"total":   partial.Total,
		})
	case errors.Is(err, models.ErrRemoteUnavailable):
		return RespondWithError(c, http.StatusServiceUnavailable, "store unreachable, try again")
	default:
		c.Logger().Error(err)
		return RespondWithError(c, http.StatusInternalServerError, "internal error")
	}
}

// ExtractUserInfo pulls the authenticated user's id and role out of the
// context; the JWT middleware put them there.
func ExtractUserInfo(c echo.Context) (userID, role string, err error) {
	userID, _ = c.Get("userID").(string)
	role, _ = c.Get("userRole").(string)
	if userID == "" {
		return "", "", RespondWithError(c, http.StatusUnauthorized, "missing authentication")
	}
	return userID, role, nil
}
