package routes

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/OFFIS-RIT/animekg/backend/internal/server/middleware"
	"github.com/OFFIS-RIT/animekg/backend/pkg/history"
	"github.com/OFFIS-RIT/animekg/backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

func PingHandler(c echo.Context) error {
	return middleware.OK(c, http.StatusOK, map[string]string{"message": "pong"})
}

// ReadyHandler reports whether the graph is reachable.
func ReadyHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App
	if app.Graph == nil {
		return c.String(http.StatusServiceUnavailable, "graph not configured")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()
	if err := app.Graph.Ping(ctx); err != nil {
		logger.Warn("Readiness check failed", "err", err)
		return c.String(http.StatusServiceUnavailable, "graph unreachable")
	}
	return c.String(http.StatusOK, "READY")
}

// PostQAHandler answers one question. Only a missing question is an error;
// everything else that goes wrong yields the refusal payload.
func PostQAHandler(c echo.Context) error {
	type qaBody struct {
		Query string `json:"query" validate:"required"`
	}

	body := new(qaBody)
	if err := c.Bind(body); err != nil {
		return middleware.Fail(c, http.StatusBadRequest, "query is required")
	}
	body.Query = strings.TrimSpace(body.Query)
	if err := c.Validate(body); err != nil {
		return middleware.Fail(c, http.StatusBadRequest, "query is required")
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	start := time.Now()
	res := app.QA.Answer(ctx, body.Query)

	record, err := history.NewRecord(body.Query, res, time.Since(start))
	if err != nil {
		logger.Error("Failed to build history record", "err", err)
	} else {
		app.Recorder.Record(ctx, record)
	}

	return middleware.OK(c, http.StatusOK, res)
}
