package routes

import (
	"net/http"

	"github.com/OFFIS-RIT/animekg/backend/internal/server/middleware"

	"github.com/labstack/echo/v4"
)

// GetMetricsHandler returns token usage and timing accumulated by the model
// client since start or the last reset.
func GetMetricsHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App
	if app.Model == nil {
		return middleware.Fail(c, http.StatusServiceUnavailable, "No model configured")
	}
	return middleware.OK(c, http.StatusOK, app.Model.GetMetrics())
}

func ResetMetricsHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App
	if app.Model == nil {
		return middleware.Fail(c, http.StatusServiceUnavailable, "No model configured")
	}
	previous := app.Model.GetMetrics()
	app.Model.ResetMetrics()
	return middleware.OK(c, http.StatusOK, previous)
}
