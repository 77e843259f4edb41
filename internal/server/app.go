// Package server wires configuration, storage, the analysis ledger, the saga
// and the HTTP and gRPC front ends into a runnable application.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/refgate/internal/logging"
	"github.com/dmitrijs2005/refgate/internal/server/config"
	"github.com/dmitrijs2005/refgate/internal/server/credentials"
	"github.com/dmitrijs2005/refgate/internal/server/dispatch"
	"github.com/dmitrijs2005/refgate/internal/server/httpapi"
	"github.com/dmitrijs2005/refgate/internal/server/jobs"
	"github.com/dmitrijs2005/refgate/internal/server/saga"
	"github.com/dmitrijs2005/refgate/internal/server/storage"

	gs "github.com/dmitrijs2005/refgate/internal/server/grpc"
)

var (
	newStore      = storage.New
	openPostgres  = jobs.OpenPostgres
	runMigrations = jobs.RunMigrations
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	handler http.Handler
	db      *sql.DB
}

// NewApp builds every dependency from c. The ledger lives in Postgres when
// a DSN is configured and in memory otherwise.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(os.Stdout, c.LogFormat, c.LogLevel)
	return newApp(ctx, c, logger)
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	store, err := newStore(ctx, c, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	app := &App{config: c, logger: logger}

	var ledger jobs.Repository
	if c.DatabaseDSN != "" {
		db, err := openPostgres(ctx, c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		if err := runMigrations(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("db migration error: %w", err)
		}
		app.db = db
		ledger = jobs.NewPostgresRepository(db)
	} else {
		logger.Warn(ctx, "no database configured, analysis ledger kept in memory")
		ledger = jobs.NewInMemoryRepository()
	}

	backend := dispatch.NewClient(&http.Client{}, c.DispatchTimeout, logger)
	orchestrator := saga.New(c, store, backend, ledger, logger)
	issuer := credentials.NewIssuer(store, c.Bucket, c.SignedURLTTL, c.ClientExpiry, logger)

	app.handler = httpapi.NewRouter(httpapi.NewHandler(c, issuer, orchestrator, store, ledger, logger))

	return app, nil
}

// Handler returns the HTTP router, e.g. for serverless adapters.
func (app *App) Handler() http.Handler {
	return app.handler
}

// Logger returns the application logger.
func (app *App) Logger() logging.Logger {
	return app.logger
}

// Close releases the database handle, if any.
func (app *App) Close() error {
	if app.db != nil {
		return app.db.Close()
	}
	return nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	srv := &http.Server{
		Addr:              app.config.EndpointAddrHTTP,
		Handler:           app.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), app.config.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(ctx, "http shutdown", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", app.config.EndpointAddrHTTP)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves HTTP and, when configured, gRPC until ctx is cancelled or a
// termination signal arrives. A failing server stops the other one.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	if app.config.EndpointAddrGRPC != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startGRPCServer(ctx, cancelFunc)
		}()
	}

	wg.Wait()

	if err := app.Close(); err != nil {
		app.logger.Error(ctx, "close", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
