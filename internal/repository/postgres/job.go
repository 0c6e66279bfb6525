package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mkorobov/jobwatch/internal/apperrors"
	"github.com/mkorobov/jobwatch/internal/models"
	"github.com/mkorobov/jobwatch/internal/repository"
)

type JobRepo struct {
	DB DBTX
}

const jobColumns = `id, name, description, schedule, enabled,
       created_at, updated_at, created_by, updated_by`

const createJob = `-- name: CreateJob
INSERT INTO jobs (id, name, description, schedule, enabled, created_by, updated_by)
VALUES ($1, $2, $3, $4, $5, $6, $6)
RETURNING ` + jobColumns

func (r *JobRepo) CreateJob(ctx context.Context, params repository.CreateJobParams) (models.Job, error) {
	rows, _ := r.DB.Query(ctx, createJob,
		uuid.New(), params.Name, params.Description, params.Schedule, params.Enabled, params.CreatedBy)
	job, err := pgx.CollectOneRow(rows, rowToJob)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return job, apperrors.ErrJobAlreadyExists
		}

		return job, fmt.Errorf("db error: %w", err)
	}

	return job, nil
}

const getJobByID = `-- name: GetJobByID
SELECT ` + jobColumns + `
FROM jobs
WHERE id = $1
`

func (r *JobRepo) GetJobByID(ctx context.Context, jobID uuid.UUID) (models.Job, error) {
	rows, _ := r.DB.Query(ctx, getJobByID, jobID)
	job, err := pgx.CollectOneRow(rows, rowToJob)

	switch {
	case err == nil:
		return job, nil
	case errors.Is(err, pgx.ErrNoRows):
		return job, apperrors.ErrJobNotFound
	default:
		return job, fmt.Errorf("db error: %w", err)
	}
}

const listJobs = `-- name: ListJobs
SELECT ` + jobColumns + `
FROM jobs
WHERE ($1 = '' OR name ILIKE '%' || $1 || '%')
  AND ($2::boolean IS NULL OR enabled = $2)
ORDER BY name
LIMIT $3 OFFSET $4
`

func (r *JobRepo) ListJobs(ctx context.Context, opts repository.ListJobsOpts) ([]models.Job, error) {
	if opts.Limit <= 0 {
		opts.Limit = 50
	}

	rows, _ := r.DB.Query(ctx, listJobs, opts.Name, opts.Enabled, opts.Limit, opts.Offset)
	jobs, err := pgx.CollectRows(rows, rowToJob)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return jobs, nil
}

const updateJob = `-- name: UpdateJob
UPDATE jobs
SET description = COALESCE($2, description),
    schedule    = COALESCE($3, schedule),
    enabled     = COALESCE($4, enabled),
    updated_by  = $5,
    updated_at  = now()
WHERE id = $1
RETURNING ` + jobColumns

func (r *JobRepo) UpdateJob(ctx context.Context, jobID uuid.UUID, params repository.UpdateJobParams) (models.Job, error) {
	rows, _ := r.DB.Query(ctx, updateJob,
		jobID, params.Description, params.Schedule, params.Enabled, params.UpdatedBy)
	job, err := pgx.CollectOneRow(rows, rowToJob)

	switch {
	case err == nil:
		return job, nil
	case errors.Is(err, pgx.ErrNoRows):
		return job, apperrors.ErrJobNotFound
	default:
		return job, fmt.Errorf("db error: %w", err)
	}
}

const deleteJob = `-- name: DeleteJob
DELETE FROM jobs
WHERE id = $1
`

func (r *JobRepo) DeleteJob(ctx context.Context, jobID uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, deleteJob, jobID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrJobNotFound
	}
	return nil
}

const countJobs = `-- name: CountJobs
SELECT count(*) FROM jobs
`

func (r *JobRepo) CountJobs(ctx context.Context) (int64, error) {
	rows, _ := r.DB.Query(ctx, countJobs)
	count, err := pgx.CollectOneRow(rows, pgx.RowTo[int64])
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return count, nil
}

func rowToJob(row pgx.CollectableRow) (models.Job, error) {
	var j models.Job
	err := row.Scan(
		&j.ID, &j.Name, &j.Description, &j.Schedule, &j.Enabled,
		&j.CreatedAt, &j.UpdatedAt, &j.CreatedBy, &j.UpdatedBy,
	)
	return j, err
}
