package routes

import (
	"net/http"

	"github.com/OFFIS-RIT/animekg/backend/internal/server/middleware"
	"github.com/OFFIS-RIT/animekg/backend/pkg/history"
	"github.com/OFFIS-RIT/animekg/backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

func GetHistoryHandler(c echo.Context) error {
	type getHistoryParams struct {
		Limit int `query:"limit" validate:"omitempty,min=1,max=200"`
	}

	params := &getHistoryParams{Limit: history.DefaultRecentLimit}
	if err := c.Bind(params); err != nil {
		return middleware.Fail(c, http.StatusBadRequest, "Invalid request params")
	}
	if err := c.Validate(params); err != nil {
		return middleware.Fail(c, http.StatusBadRequest, "Invalid request params")
	}

	app := c.(*middleware.AppContext).App
	if app.History == nil {
		return middleware.Fail(c, http.StatusServiceUnavailable, "History is disabled")
	}

	records, err := app.History.Recent(c.Request().Context(), params.Limit)
	if err != nil {
		logger.Error("Failed to load history", "err", err)
		return middleware.Fail(c, http.StatusInternalServerError, "Internal server error")
	}
	return middleware.OK(c, http.StatusOK, records)
}
