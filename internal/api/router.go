package api

import (
	"net/http"

	"field-service-backend/internal/api/middleware"
	"field-service-backend/internal/modules/appointments"
	"field-service-backend/internal/modules/offline"
	"field-service-backend/internal/modules/routes"

	"github.com/labstack/echo/v4"
)

// SetupRoutes sets up all the API endpoints for the application.
func SetupRoutes(
	e *echo.Echo,
	jwtSecret string,
	appointmentHandler *appointments.Handler,
	routeHandler *routes.Handler,
	offlineHandler *offline.Handler,
) {
	authMiddleware := middleware.JWTAuth(jwtSecret)
	dispatcherRequired := middleware.DispatcherRequired()

	// --- Public Routes ---
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"message": "Field Service Scheduling API"})
	})
	e.GET("/healthz", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	// --- Appointment Routes ---
	appointmentGroup := e.Group("/appointments", authMiddleware)
	{
		appointmentGroup.POST("", appointmentHandler.CreateAppointment)
		appointmentGroup.GET("/:appointmentId", appointmentHandler.GetAppointment)
		appointmentGroup.PUT("/:appointmentId", appointmentHandler.UpdateAppointment)
		appointmentGroup.DELETE("/:appointmentId", appointmentHandler.DeleteAppointment)
		appointmentGroup.PUT("/:appointmentId/status", appointmentHandler.ChangeStatus)
		appointmentGroup.PUT("/:appointmentId/schedule", appointmentHandler.ScheduleBacklog)
		appointmentGroup.POST("/:appointmentId/capture", appointmentHandler.Capture)
		appointmentGroup.POST("/calendar-sync", appointmentHandler.SyncCalendar, dispatcherRequired)
	}

	// --- Route & Itinerary Routes ---
	routeGroup := e.Group("/routes", authMiddleware)
	{
		routeGroup.POST("", routeHandler.CreateRoute, dispatcherRequired)
		routeGroup.GET("/:routeId", routeHandler.GetRoute)
		routeGroup.DELETE("/:routeId", routeHandler.DeleteRoute, dispatcherRequired)
		routeGroup.POST("/:routeId/approve", routeHandler.ApproveRoute, dispatcherRequired)
		routeGroup.GET("/:routeId/suggested-order", routeHandler.SuggestStopOrder, dispatcherRequired)

		routeGroup.POST("/:routeId/stops", routeHandler.AddStop, dispatcherRequired)
		routeGroup.DELETE("/:routeId/stops/:stopId", routeHandler.RemoveStop, dispatcherRequired)
		routeGroup.PUT("/:routeId/stops/reorder", routeHandler.ReorderStops, dispatcherRequired)
		routeGroup.PUT("/stops/:stopId/progress", routeHandler.RecordStopProgress)

		routeGroup.POST("/:routeId/change-requests", routeHandler.CreateChangeRequest)
		routeGroup.GET("/:routeId/change-requests", routeHandler.ListChangeRequests)
		routeGroup.PUT("/change-requests/:requestId/review", routeHandler.ReviewChangeRequest, dispatcherRequired)
	}

	e.GET("/itinerary/:date", routeHandler.GetItinerary, authMiddleware)

	// --- Offline Queue Routes ---
	offlineGroup := e.Group("/offline", authMiddleware)
	{
		offlineGroup.POST("/drain", offlineHandler.Drain)
		offlineGroup.GET("/pending", offlineHandler.Pending)
	}
}
