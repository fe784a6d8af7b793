// Package server initializes and runs the authd application: it wires the
// database, repositories, token machinery, and the HTTP endpoint together and
// handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"

	"authd/internal/config"
	"authd/internal/device"
	"authd/internal/hash"
	"authd/internal/httpapi"
	"authd/internal/logging"
	"authd/internal/repositories/repomanager"
	"authd/internal/services"
	"authd/internal/token"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	httpServer  *httpapi.Server
}

func NewApp(cfg *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout)

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()

	signer := token.NewManager([]byte(cfg.AccessTokenSecretKey), []byte(cfg.RefreshTokenSecretKey))
	hasher := hash.NewManager([]byte(cfg.PepperSecretKey))
	fingerprinter := device.NewFingerprinter()

	svc := services.NewUserService(db, rm, hasher, signer, fingerprinter, cfg, logger)
	httpServer := httpapi.NewServer(svc, signer, cfg, logger)

	return &App{
		config:      cfg,
		logger:      logger,
		db:          db,
		repomanager: rm,
		httpServer:  httpServer,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run migrates the schema, starts the HTTP endpoint, and blocks until the
// context is canceled or a termination signal arrives.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.initSignalHandler(cancelFunc)

	if err := app.repomanager.RunMigrations(ctx, app.db); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}

	app.logger.Info(ctx, "starting server", "addr", app.config.EndpointAddr)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.httpServer.Listen(); err != nil {
			app.logger.Error(ctx, "http server stopped", "error", err)
			cancelFunc()
		}
	}()

	<-ctx.Done()

	app.logger.Info(ctx, "shutting down")
	if err := app.httpServer.Shutdown(); err != nil {
		app.logger.Error(ctx, "shutdown error", "error", err)
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}

	wg.Wait()
	return nil
}
