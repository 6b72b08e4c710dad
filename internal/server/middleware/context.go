package middleware

import (
	"context"

	"github.com/OFFIS-RIT/animekg/backend/pkg/ai"
	"github.com/OFFIS-RIT/animekg/backend/pkg/history"
	"github.com/OFFIS-RIT/animekg/backend/pkg/query"
	"github.com/OFFIS-RIT/animekg/backend/pkg/schema"
	"github.com/OFFIS-RIT/animekg/backend/pkg/store"

	"github.com/labstack/echo/v4"
)

// QAService answers questions.
type QAService interface {
	Answer(ctx context.Context, query string) query.Result
}

// DictionaryReloader reloads the entity dictionaries.
type DictionaryReloader interface {
	Reload(ctx context.Context) (map[schema.EntityType]int, error)
}

// Pinger checks that a backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ModelMetrics exposes the accumulated usage of the language model.
type ModelMetrics interface {
	GetMetrics() ai.ModelMetrics
	ResetMetrics()
}

// HistoryReader lists recorded questions.
type HistoryReader interface {
	Recent(ctx context.Context, limit int) ([]history.Record, error)
}

// App holds the dependencies shared by all handlers. Optional parts are nil
// when not configured.
type App struct {
	QA           QAService
	Catalog      store.EntityCatalog
	Graph        Pinger
	Dictionaries DictionaryReloader
	History      HistoryReader
	Model        ModelMetrics
	Recorder     history.Recorder
	MasterAPIKey string
}

type AppContext struct {
	echo.Context
	App *App
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	if app.Recorder == nil {
		app.Recorder = history.Noop()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app}
			return next(cc)
		}
	}
}
