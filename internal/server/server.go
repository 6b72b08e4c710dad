package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OFFIS-RIT/animekg/backend/internal/bootstrap"
	mid "github.com/OFFIS-RIT/animekg/backend/internal/server/middleware"
	"github.com/OFFIS-RIT/animekg/backend/pkg/logger"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

// New builds the echo instance serving app.
func New(app *mid.App) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &CustomValidator{validator: validator.New()}

	e.Use(mid.AppContextMiddleware(app))
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("1M"))

	RegisterRoutes(e)
	return e
}

func Init() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := bootstrap.LoadConfig()
	stack, err := bootstrap.Build(ctx, cfg, true)
	if err != nil {
		logger.Fatal("Failed to start question answering", "err", err)
	}
	defer stack.Close(context.Background())

	app := &mid.App{
		QA:           stack.QA,
		Catalog:      stack.Graph,
		Graph:        stack.Graph,
		Dictionaries: stack.Resolver,
		Recorder:     stack.Recorder,
		MasterAPIKey: cfg.MasterAPIKey,
	}
	if stack.History != nil {
		app.History = stack.History
	}
	if stack.AI != nil {
		app.Model = stack.AI
	}
	e := New(app)

	go func() {
		logger.Info("Starting server", "port", cfg.Port)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}
