package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/mkorobov/jobwatch/internal/apperrors"
	"github.com/mkorobov/jobwatch/internal/models"
	"github.com/mkorobov/jobwatch/internal/repository"
)

type ExecutionRepo struct {
	DB DBTX
}

const executionColumns = `id, job_id, status, started_at, finished_at,
       records_processed, cost, error_message, source`

const insertExecution = `-- name: InsertExecution
INSERT INTO job_executions (id, job_id, status, started_at, finished_at,
       records_processed, cost, error_message, source)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING ` + executionColumns

func (r *ExecutionRepo) Insert(ctx context.Context, e models.JobExecution) (models.JobExecution, error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}

	rows, _ := r.DB.Query(ctx, insertExecution,
		e.ID, e.JobID, e.Status, e.StartedAt, e.FinishedAt,
		e.RecordsProcessed, e.Cost, e.ErrorMessage, e.Source)
	saved, err := pgx.CollectOneRow(rows, rowToExecution)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return saved, apperrors.ErrJobNotFound
		}

		return saved, fmt.Errorf("db error: %w", err)
	}

	return saved, nil
}

const listExecutionsByJob = `-- name: ListExecutionsByJob
SELECT ` + executionColumns + `
FROM job_executions
WHERE job_id = $1
  AND ($2 = '' OR status = $2)
ORDER BY started_at DESC
LIMIT $3 OFFSET $4
`

func (r *ExecutionRepo) ListByJob(ctx context.Context, jobID uuid.UUID, opts repository.ListExecutionsOpts) ([]models.JobExecution, error) {
	if opts.Limit <= 0 {
		opts.Limit = 50
	}

	rows, _ := r.DB.Query(ctx, listExecutionsByJob, jobID, opts.Status, opts.Limit, opts.Offset)
	executions, err := pgx.CollectRows(rows, rowToExecution)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return executions, nil
}

const jobStats = `-- name: JobStats
SELECT count(*),
       count(*) FILTER (WHERE status = 'SUCCESS'),
       count(*) FILTER (WHERE status = 'FAILED'),
       count(*) FILTER (WHERE status = 'RUNNING'),
       COALESCE(sum(cost), 0)
FROM job_executions
WHERE job_id = $1
`

func (r *ExecutionRepo) JobStats(ctx context.Context, jobID uuid.UUID) (models.JobStats, error) {
	rows, _ := r.DB.Query(ctx, jobStats, jobID)
	stats, err := pgx.CollectOneRow(rows, func(row pgx.CollectableRow) (models.JobStats, error) {
		var s models.JobStats
		err := row.Scan(&s.Total, &s.Succeeded, &s.Failed, &s.Running, &s.TotalCost)
		return s, err
	})
	if err != nil {
		return stats, fmt.Errorf("db error: %w", err)
	}

	return stats, nil
}

const overallStats = `-- name: OverallExecutionStats
SELECT count(*),
       count(*) FILTER (WHERE status = 'FAILED'),
       COALESCE(sum(cost), 0)
FROM job_executions
`

func (r *ExecutionRepo) OverallStats(ctx context.Context) (int64, int64, decimal.Decimal, error) {
	type overall struct {
		executions int64
		failed     int64
		totalCost  decimal.Decimal
	}

	rows, _ := r.DB.Query(ctx, overallStats)
	stats, err := pgx.CollectOneRow(rows, func(row pgx.CollectableRow) (overall, error) {
		var s overall
		err := row.Scan(&s.executions, &s.failed, &s.totalCost)
		return s, err
	})
	if err != nil {
		return 0, 0, decimal.Zero, fmt.Errorf("db error: %w", err)
	}

	return stats.executions, stats.failed, stats.totalCost, nil
}

func rowToExecution(row pgx.CollectableRow) (models.JobExecution, error) {
	var e models.JobExecution
	err := row.Scan(
		&e.ID, &e.JobID, &e.Status, &e.StartedAt, &e.FinishedAt,
		&e.RecordsProcessed, &e.Cost, &e.ErrorMessage, &e.Source,
	)
	return e, err
}
