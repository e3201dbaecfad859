package cli

import (
	"context"
	"errors"

	internalApp "github.com/felixgeelhaar/eventline/internal/app"
	"github.com/felixgeelhaar/eventline/internal/planning/application/commands"
	"github.com/felixgeelhaar/eventline/internal/planning/application/queries"
	"github.com/felixgeelhaar/eventline/internal/planning/infrastructure/persistence"
	"github.com/felixgeelhaar/eventline/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/eventline/pkg/config"
	"github.com/felixgeelhaar/eventline/pkg/observability"
	"github.com/spf13/cobra"
)

// ErrAppNotInitialized is returned when a command needs the database but no
// application could be built.
var ErrAppNotInitialized = errors.New("application not initialized - database connection required")

// Importer stores a timeline snapshot.
type Importer interface {
	Import(ctx context.Context, snap *persistence.Snapshot) error
}

// App holds the CLI application dependencies.
type App struct {
	Config *config.Config
	DB     database.Connection
	Health *observability.HealthRegistry

	// Planning handlers
	RecalculateTimelineHandler  *commands.RecalculateTimelineHandler
	AutoRecalculateHandler      *commands.AutoRecalculateHandler
	PreviewRecalculationHandler *queries.PreviewRecalculationHandler
	GetLastRecalculationHandler *queries.GetLastRecalculationHandler
	Importer                    Importer

	// Container is set when the app was built from one and is closed on exit.
	Container *internalApp.Container
}

// NewApp creates a CLI application backed by container.
func NewApp(container *internalApp.Container) *App {
	return &App{
		Config:                      container.Config,
		DB:                          container.DBConn,
		Health:                      container.Health,
		RecalculateTimelineHandler:  container.RecalculateTimelineHandler,
		AutoRecalculateHandler:      container.AutoRecalculateHandler,
		PreviewRecalculationHandler: container.PreviewRecalculationHandler,
		GetLastRecalculationHandler: container.GetLastRecalculationHandler,
		Importer:                    container.Store,
		Container:                   container,
	}
}

// AppFactory builds the application on first use. configFile is the value
// of the --config flag.
type AppFactory func(ctx context.Context, configFile string) (*App, error)

var (
	// app is the global CLI application instance
	app        *App
	appFactory AppFactory
)

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return app
}

// SetAppFactory registers how RequireApp builds the application.
func SetAppFactory(f AppFactory) {
	appFactory = f
}

// RequireApp returns the application, building it on first use. Commands
// that work without a database never call it.
func RequireApp(cmd *cobra.Command) (*App, error) {
	if app != nil {
		return app, nil
	}
	if appFactory == nil {
		return nil, ErrAppNotInitialized
	}
	a, err := appFactory(cmd.Context(), cfgFile)
	if err != nil {
		return nil, err
	}
	app = a
	return app, nil
}

func closeApp() {
	if app != nil && app.Container != nil {
		app.Container.Close()
	}
}
