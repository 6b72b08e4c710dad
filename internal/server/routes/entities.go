package routes

import (
	"errors"
	"net/http"

	"github.com/OFFIS-RIT/animekg/backend/internal/server/middleware"
	"github.com/OFFIS-RIT/animekg/backend/pkg/logger"
	"github.com/OFFIS-RIT/animekg/backend/pkg/query"
	"github.com/OFFIS-RIT/animekg/backend/pkg/schema"
	"github.com/OFFIS-RIT/animekg/backend/pkg/store"

	"github.com/labstack/echo/v4"
)

func nodeView(n store.Node) query.NodeView {
	return query.NodeView{
		ID:         n.ID,
		Name:       n.Name,
		Label:      n.Label,
		Group:      n.Label,
		Properties: n.Properties.Clone(),
	}
}

func GetCharacterHandler(c echo.Context) error {
	type getCharacterParams struct {
		Name string `param:"name" validate:"required"`
	}

	params := new(getCharacterParams)
	if err := c.Bind(params); err != nil {
		return middleware.Fail(c, http.StatusBadRequest, "Invalid request params")
	}
	if err := c.Validate(params); err != nil {
		return middleware.Fail(c, http.StatusBadRequest, "Invalid request params")
	}

	app := c.(*middleware.AppContext).App
	if app.Catalog == nil {
		return middleware.Fail(c, http.StatusServiceUnavailable, "Graph not available")
	}

	node, err := app.Catalog.GetEntity(c.Request().Context(), schema.Character, params.Name)
	if errors.Is(err, store.ErrNotFound) {
		return middleware.Fail(c, http.StatusNotFound, "Character not found")
	}
	if err != nil {
		logger.Error("Failed to load character", "name", params.Name, "err", err)
		return middleware.Fail(c, http.StatusInternalServerError, "Internal server error")
	}

	return middleware.OK(c, http.StatusOK, nodeView(node))
}

func SearchCharactersHandler(c echo.Context) error {
	type searchCharactersParams struct {
		Keyword string `query:"keyword"`
		Limit   int    `query:"limit" validate:"omitempty,min=1,max=100"`
	}

	params := &searchCharactersParams{Limit: 10}
	if err := c.Bind(params); err != nil {
		return middleware.Fail(c, http.StatusBadRequest, "Invalid request params")
	}
	if err := c.Validate(params); err != nil {
		return middleware.Fail(c, http.StatusBadRequest, "Invalid request params")
	}

	app := c.(*middleware.AppContext).App
	if app.Catalog == nil {
		return middleware.Fail(c, http.StatusServiceUnavailable, "Graph not available")
	}

	nodes, err := app.Catalog.SearchEntities(c.Request().Context(), schema.Character, params.Keyword, params.Limit)
	if err != nil {
		logger.Error("Failed to search characters", "keyword", params.Keyword, "err", err)
		return middleware.Fail(c, http.StatusInternalServerError, "Internal server error")
	}

	views := make([]query.NodeView, 0, len(nodes))
	for _, n := range nodes {
		views = append(views, nodeView(n))
	}
	return middleware.OK(c, http.StatusOK, views)
}

func ReloadEntitiesHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App
	if app.Dictionaries == nil {
		return middleware.Fail(c, http.StatusServiceUnavailable, "Dictionaries not available")
	}

	sizes, err := app.Dictionaries.Reload(c.Request().Context())
	if err != nil {
		return middleware.Fail(c, http.StatusInternalServerError, "Failed to reload dictionaries")
	}
	return middleware.OK(c, http.StatusOK, map[string]any{"sizes": sizes})
}
