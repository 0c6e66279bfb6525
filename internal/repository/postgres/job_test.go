package postgres

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkorobov/jobwatch/internal/apperrors"
	"github.com/mkorobov/jobwatch/internal/repository"
	"github.com/mkorobov/jobwatch/internal/testutil"
)

func Test_JobRepo(t *testing.T) {
	t.Parallel() // It's ok to run in parallel with other tests, but not with subtests

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	params := repository.CreateJobParams{
		Name:        "nightly-import",
		Description: "Imports yesterday's batch",
		Schedule:    "0 3 * * *",
		Enabled:     true,
		CreatedBy:   "admin",
	}

	t.Run("create job ok", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := JobRepo{DB: tx}

			got, err := repo.CreateJob(t.Context(), params)

			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, got.ID)
			assert.Equal(t, params.Name, got.Name)
			assert.Equal(t, params.Description, got.Description)
			assert.Equal(t, params.Schedule, got.Schedule)
			assert.True(t, got.Enabled)
			assert.Equal(t, "admin", got.CreatedBy)
		})
	})

	t.Run("job name taken", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := JobRepo{DB: tx}
			_, err := repo.CreateJob(t.Context(), params)
			require.NoError(t, err)

			_, err = repo.CreateJob(t.Context(), params)

			require.ErrorIs(t, err, apperrors.ErrJobAlreadyExists)
		})
	})

	t.Run("get not existed job", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := JobRepo{DB: tx}

			_, err := repo.GetJobByID(t.Context(), uuid.New())

			require.ErrorIs(t, err, apperrors.ErrJobNotFound)
		})
	})

	t.Run("list jobs filters", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := JobRepo{DB: tx}

			for _, job := range []repository.CreateJobParams{
				{Name: "nightly-import", Enabled: true, CreatedBy: "admin"},
				{Name: "nightly-cleanup", Enabled: false, CreatedBy: "admin"},
				{Name: "hourly-sync", Enabled: true, CreatedBy: "admin"},
			} {
				_, err := repo.CreateJob(t.Context(), job)
				require.NoError(t, err)
			}

			all, err := repo.ListJobs(t.Context(), repository.ListJobsOpts{})
			require.NoError(t, err)
			require.Len(t, all, 3)
			assert.Equal(t, "hourly-sync", all[0].Name, "list is ordered by name")

			byName, err := repo.ListJobs(t.Context(), repository.ListJobsOpts{Name: "NIGHTLY"})
			require.NoError(t, err)
			require.Len(t, byName, 2, "name filter is a case insensitive substring")

			enabled := true
			byEnabled, err := repo.ListJobs(t.Context(), repository.ListJobsOpts{Enabled: &enabled})
			require.NoError(t, err)
			require.Len(t, byEnabled, 2)

			both, err := repo.ListJobs(t.Context(), repository.ListJobsOpts{Name: "nightly", Enabled: &enabled})
			require.NoError(t, err)
			require.Len(t, both, 1)
			assert.Equal(t, "nightly-import", both[0].Name)
		})
	})

	t.Run("update job partial", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := JobRepo{DB: tx}
			created, err := repo.CreateJob(t.Context(), params)
			require.NoError(t, err)

			enabled := false
			got, err := repo.UpdateJob(t.Context(), created.ID, repository.UpdateJobParams{
				Enabled:   &enabled,
				UpdatedBy: "root",
			})

			require.NoError(t, err)
			assert.False(t, got.Enabled)
			assert.Equal(t, created.Description, got.Description, "untouched fields should stay")
			assert.Equal(t, created.Schedule, got.Schedule, "untouched fields should stay")
			assert.Equal(t, "root", got.UpdatedBy)
		})
	})

	t.Run("update not existed job", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := JobRepo{DB: tx}

			enabled := false
			_, err := repo.UpdateJob(t.Context(), uuid.New(), repository.UpdateJobParams{
				Enabled:   &enabled,
				UpdatedBy: "root",
			})

			require.ErrorIs(t, err, apperrors.ErrJobNotFound)
		})
	})

	t.Run("delete job", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := JobRepo{DB: tx}
			created, err := repo.CreateJob(t.Context(), params)
			require.NoError(t, err)

			require.NoError(t, repo.DeleteJob(t.Context(), created.ID))

			_, err = repo.GetJobByID(t.Context(), created.ID)
			require.ErrorIs(t, err, apperrors.ErrJobNotFound)

			err = repo.DeleteJob(t.Context(), created.ID)
			require.ErrorIs(t, err, apperrors.ErrJobNotFound)
		})
	})

	t.Run("count jobs", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := JobRepo{DB: tx}
			_, err := repo.CreateJob(t.Context(), params)
			require.NoError(t, err)

			count, err := repo.CountJobs(t.Context())
			require.NoError(t, err)
			require.EqualValues(t, 1, count)
		})
	})
}
