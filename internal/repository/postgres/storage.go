package postgres

import (
	"context"
	"fmt"

	"github.com/mkorobov/jobwatch/internal/repository"
)

type Storage struct {
	db DBTX
}

func NewStorage(db DBTX) repository.Storage {
	return &Storage{db: db}
}

func (s *Storage) User() repository.UserRepo {
	return &UserRepo{DB: s.db}
}

func (s *Storage) Refresh() repository.RefreshTokenRepo {
	return &RefreshTokenRepo{DB: s.db}
}

func (s *Storage) Job() repository.JobRepo {
	return &JobRepo{DB: s.db}
}

func (s *Storage) Execution() repository.ExecutionRepo {
	return &ExecutionRepo{DB: s.db}
}

func (s *Storage) Favorite() repository.FavoriteRepo {
	return &FavoriteRepo{DB: s.db}
}

func (s *Storage) Notification() repository.NotificationRepo {
	return &NotificationRepo{DB: s.db}
}

func (s *Storage) InTx(ctx context.Context, fn func(repository.Storage) error) (err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("db tx error: %w", err)
	}

	defer func() {
		switch err {
		case nil:
			err = tx.Commit(ctx)
		default:
			_ = tx.Rollback(ctx)
		}
	}()

	err = fn(NewStorage(tx))

	return err
}
