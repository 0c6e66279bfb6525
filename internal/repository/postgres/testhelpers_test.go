package postgres

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/mkorobov/jobwatch/internal/models"
	"github.com/mkorobov/jobwatch/internal/repository"
)

func mustParseTime(value string) time.Time {
	dt, err := time.Parse("2006-01-02 15:04:05Z07:00", value)
	if err != nil {
		panic(err)
	}
	return dt
}

// Tokens, favorites and notifications reference users, executions reference
// jobs. These helpers create the referenced rows.
func createTestUser(t *testing.T, tx pgx.Tx, username string) models.User {
	t.Helper()

	repo := UserRepo{DB: tx}
	user, err := repo.CreateUser(t.Context(), repository.CreateUserParams{
		Username:       username,
		Email:          username + "@example.com",
		HashedPassword: "hashed_password",
		Role:           models.RoleUser,
		CreatedBy:      "system",
	})
	require.NoError(t, err)

	return user
}

func createTestJob(t *testing.T, tx pgx.Tx, name string) models.Job {
	t.Helper()

	repo := JobRepo{DB: tx}
	job, err := repo.CreateJob(t.Context(), repository.CreateJobParams{
		Name:      name,
		Schedule:  "0 3 * * *",
		Enabled:   true,
		CreatedBy: "system",
	})
	require.NoError(t, err)

	return job
}
