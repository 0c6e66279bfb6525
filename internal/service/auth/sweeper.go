package auth

import (
	"context"
	"time"

	"github.com/mkorobov/jobwatch/internal/logger"
	"github.com/mkorobov/jobwatch/internal/repository"
)

const defaultSweepInterval = time.Hour

// Sweeper periodically deletes refresh token rows that can never validate
// again (expired or revoked). Housekeeping only: the validity checks reject
// those rows with or without the sweep, so it may run concurrently with
// live traffic.
type Sweeper struct {
	interval    time.Duration
	refreshRepo repository.RefreshTokenRepo
	logger      logger.Logger
}

func NewSweeper(interval time.Duration, refreshRepo repository.RefreshTokenRepo, logger logger.Logger) *Sweeper {
	if interval <= 0 {
		interval = defaultSweepInterval
	}

	return &Sweeper{
		interval:    interval,
		refreshRepo: refreshRepo,
		logger:      logger,
	}
}

// Run sweeps on a ticker until the context is cancelled.
// The returned channel closes when the sweeper has fully stopped.
func (s *Sweeper) Run(ctx context.Context) <-chan struct{} {
	stopped := make(chan struct{})
	s.logger.Debug("Starting refresh token sweeper", "interval", s.interval)

	go func() {
		defer close(stopped)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Debug("Sweeper stopped by context")
				return

			case <-ticker.C:
				s.sweep(ctx)
			}
		}
	}()

	return stopped
}

func (s *Sweeper) sweep(ctx context.Context) {
	deleted, err := s.refreshRepo.DeleteUnusable(ctx, time.Now())
	if err != nil {
		s.logger.Error("Failed to sweep refresh tokens", "error", err)
		return
	}

	if deleted > 0 {
		s.logger.Info("Swept unusable refresh tokens", "deleted", deleted)
	}
}
