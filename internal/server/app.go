// Package server initializes and runs the auth service: it wires config,
// logging, storage, the token codec, and the HTTP API, runs schema
// migrations, and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hermesapp/auth-service/internal/logging"
	"github.com/hermesapp/auth-service/internal/password"
	"github.com/hermesapp/auth-service/internal/server/auth"
	"github.com/hermesapp/auth-service/internal/server/config"
	"github.com/hermesapp/auth-service/internal/server/httpapi"
	"github.com/hermesapp/auth-service/internal/server/repositories/repomanager"
	"github.com/hermesapp/auth-service/internal/server/services"
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	repos      repomanager.RepositoryManager
	users      *services.UserService
	sessions   *services.SessionService
	httpServer *httpapi.Server
}

func NewApp(cfg *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	repos := repomanager.NewPostgresRepositoryManager()

	hasher, err := password.NewHasher(password.DefaultParams)
	if err != nil {
		return nil, fmt.Errorf("hasher init error: %w", err)
	}

	codec, err := auth.NewCodec(auth.CodecConfig{
		Algorithm:     cfg.SigningAlgorithm,
		AccessSecret:  []byte(cfg.AccessSecret),
		RefreshSecret: []byte(cfg.RefreshSecret),
		Issuer:        cfg.Issuer,
		Audience:      cfg.Audience,
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshTTL:    cfg.RefreshTokenTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("codec init error: %w", err)
	}

	us, err := services.NewUserService(db, repos, hasher, logger)
	if err != nil {
		return nil, fmt.Errorf("user service init error: %w", err)
	}
	ss := services.NewSessionService(db, repos, us, codec, cfg.MaxActiveRefreshTokens, logger)

	hs, err := httpapi.NewServer(cfg.HTTPAddr, logger, us, ss)
	if err != nil {
		return nil, fmt.Errorf("http server init error: %w", err)
	}

	return &App{
		config:     cfg,
		logger:     logger,
		db:         db,
		repos:      repos,
		users:      us,
		sessions:   ss,
		httpServer: hs,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.httpServer.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// startSweeper periodically deletes expired refresh-token records. A zero
// interval disables it.
func (app *App) startSweeper(ctx context.Context) {
	if app.config.SweepInterval <= 0 {
		return
	}

	ticker := time.NewTicker(app.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Failures are logged by the service; the next tick retries.
			_, _ = app.sessions.SweepExpired(ctx)
		}
	}
}

func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	if err := app.repos.RunMigrations(ctx, app.db); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startSweeper(ctx)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
	return nil
}
