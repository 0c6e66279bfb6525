package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mkorobov/jobwatch/internal/db"
	"github.com/mkorobov/jobwatch/internal/handlers"
	"github.com/mkorobov/jobwatch/internal/logger"
	"github.com/mkorobov/jobwatch/internal/repository/postgres"
	"github.com/mkorobov/jobwatch/internal/service/auth"
	"github.com/mkorobov/jobwatch/internal/service/auth/tokenmanager"
	"github.com/mkorobov/jobwatch/internal/service/job"
	"github.com/mkorobov/jobwatch/internal/service/notification"
	"github.com/mkorobov/jobwatch/internal/service/user"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	sweeper *auth.Sweeper
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	log := logger.New(c.Environment, c.LogLevel)

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Initialize repositories
	storage := postgres.NewStorage(pool)

	// Initialize services
	tokenManager, err := tokenmanager.New(tokenmanager.Config{
		SecretKey:  c.SecretKey,
		AccessTTL:  c.AccessTTL,
		RefreshTTL: c.RefreshTTL,
	}, storage.Refresh())
	if err != nil {
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}

	authService, err := auth.NewService(auth.Config{Logger: log}, tokenManager, storage)
	if err != nil {
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}

	userService := user.NewService(nil, storage.User())

	// Seed the first admin account into an empty database, otherwise the
	// admin surface is unreachable on a fresh deployment
	seeded, err := userService.BootstrapAdmin(ctx)
	if err != nil {
		return nil, fmt.Errorf("error while seeding bootstrap admin. Err: %w", err)
	}
	if seeded {
		log.Warn("Bootstrap admin account created, change its password after first login",
			"username", user.BootstrapUsername)
	}
	notificationService := notification.NewService(storage.Notification(), storage.Favorite(), nil, log)
	jobService := job.NewService(
		storage.Job(),
		storage.Execution(),
		storage.Favorite(),
		storage.User(),
		notificationService,
		log,
	)

	mux := handlers.NewRouter(
		authService,
		userService,
		jobService,
		notificationService,
		log,
	)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
		sweeper:    auth.NewSweeper(c.SweepInterval, storage.Refresh(), log),
	}, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	sweeperStopped := s.sweeper.Run(srvCtx)

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); err == context.DeadlineExceeded {
			slog.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		slog.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	slog.Info("Starting server", "address", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed
	<-sweeperStopped

	return err
}
