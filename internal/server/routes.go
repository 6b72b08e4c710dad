package server

import (
	"github.com/OFFIS-RIT/animekg/backend/internal/server/middleware"
	"github.com/OFFIS-RIT/animekg/backend/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	e.GET("/ready", routes.ReadyHandler)

	apiRoutes := e.Group("/api")

	apiRoutes.GET("/ping", routes.PingHandler)
	apiRoutes.POST("/qa", routes.PostQAHandler)

	// Entity routes
	apiRoutes.GET("/character/:name", routes.GetCharacterHandler)
	apiRoutes.GET("/characters", routes.SearchCharactersHandler)

	// Admin routes
	apiRoutes.GET("/history", routes.GetHistoryHandler, middleware.RequireAPIKey)
	apiRoutes.POST("/entities/reload", routes.ReloadEntitiesHandler, middleware.RequireAPIKey)
	apiRoutes.GET("/metrics", routes.GetMetricsHandler, middleware.RequireAPIKey)
	apiRoutes.POST("/metrics/reset", routes.ResetMetricsHandler, middleware.RequireAPIKey)
}
