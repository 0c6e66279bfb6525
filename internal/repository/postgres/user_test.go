package postgres

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkorobov/jobwatch/internal/apperrors"
	"github.com/mkorobov/jobwatch/internal/models"
	"github.com/mkorobov/jobwatch/internal/repository"
	"github.com/mkorobov/jobwatch/internal/testutil"
)

func Test_UserRepo(t *testing.T) {
	t.Parallel() // It's ok to run in parallel with other tests, but not with subtests

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	params := repository.CreateUserParams{
		Username:       "mkorobov",
		Email:          "mkorobov@example.com",
		HashedPassword: "hashed_password",
		Role:           models.RoleUser,
		CreatedBy:      "admin",
	}

	t.Run("create user ok", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := UserRepo{DB: tx}

			got, err := repo.CreateUser(t.Context(), params)

			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, got.ID)
			assert.Equal(t, params.Username, got.Username)
			assert.Equal(t, params.Email, got.Email)
			assert.Equal(t, params.HashedPassword, got.HashedPassword)
			assert.Equal(t, models.RoleUser, got.Role)
			assert.True(t, got.Enabled, "users are enabled by default")
			assert.False(t, got.Locked)
			assert.False(t, got.CredentialsExpired)
			assert.Equal(t, "admin", got.CreatedBy)
			assert.Equal(t, "admin", got.UpdatedBy)
		})
	})

	t.Run("username taken", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := UserRepo{DB: tx}
			_, err := repo.CreateUser(t.Context(), params)
			require.NoError(t, err)

			other := params
			other.Email = "other@example.com"
			_, err = repo.CreateUser(t.Context(), other)

			require.ErrorIs(t, err, apperrors.ErrUserAlreadyExists)
		})
	})

	t.Run("email taken", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := UserRepo{DB: tx}
			_, err := repo.CreateUser(t.Context(), params)
			require.NoError(t, err)

			other := params
			other.Username = "othername"
			_, err = repo.CreateUser(t.Context(), other)

			require.ErrorIs(t, err, apperrors.ErrEmailAlreadyExists)
		})
	})

	t.Run("get by id and username", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := UserRepo{DB: tx}
			created, err := repo.CreateUser(t.Context(), params)
			require.NoError(t, err)

			byID, err := repo.GetUserByID(t.Context(), created.ID)
			require.NoError(t, err)
			assert.Equal(t, created.ID, byID.ID)

			byName, err := repo.GetUserByUsername(t.Context(), "mkorobov")
			require.NoError(t, err)
			assert.Equal(t, created.ID, byName.ID)
		})
	})

	t.Run("username match is exact", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := UserRepo{DB: tx}
			_, err := repo.CreateUser(t.Context(), params)
			require.NoError(t, err)

			_, err = repo.GetUserByUsername(t.Context(), "MKorobov")
			require.ErrorIs(t, err, apperrors.ErrUserNotFound)
		})
	})

	t.Run("get not existed user", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := UserRepo{DB: tx}

			_, err := repo.GetUserByID(t.Context(), uuid.New())
			require.ErrorIs(t, err, apperrors.ErrUserNotFound)

			_, err = repo.GetUserByUsername(t.Context(), "nobody")
			require.ErrorIs(t, err, apperrors.ErrUserNotFound)
		})
	})

	t.Run("update user partial", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := UserRepo{DB: tx}
			created, err := repo.CreateUser(t.Context(), params)
			require.NoError(t, err)

			locked := true
			got, err := repo.UpdateUser(t.Context(), created.ID, repository.UpdateUserParams{
				Locked:    &locked,
				UpdatedBy: "root",
			})

			require.NoError(t, err)
			assert.True(t, got.Locked, "locked should be updated")
			assert.Equal(t, created.Role, got.Role, "untouched fields should stay")
			assert.True(t, got.Enabled, "untouched fields should stay")
			assert.Equal(t, "root", got.UpdatedBy)
			assert.Equal(t, "admin", got.CreatedBy, "created_by never changes")
		})
	})

	t.Run("update not existed user", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := UserRepo{DB: tx}

			enabled := false
			_, err := repo.UpdateUser(t.Context(), uuid.New(), repository.UpdateUserParams{
				Enabled:   &enabled,
				UpdatedBy: "root",
			})

			require.ErrorIs(t, err, apperrors.ErrUserNotFound)
		})
	})

	t.Run("list and count", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := UserRepo{DB: tx}

			for _, name := range []string{"brian", "alice", "carol"} {
				p := params
				p.Username = name
				p.Email = name + "@example.com"
				_, err := repo.CreateUser(t.Context(), p)
				require.NoError(t, err)
			}

			users, err := repo.ListUsers(t.Context(), repository.ListUsersOpts{})
			require.NoError(t, err)
			require.Len(t, users, 3)
			assert.Equal(t, "alice", users[0].Username, "list is ordered by username")

			page, err := repo.ListUsers(t.Context(), repository.ListUsersOpts{Limit: 1, Offset: 1})
			require.NoError(t, err)
			require.Len(t, page, 1)
			assert.Equal(t, "brian", page[0].Username)

			count, err := repo.CountUsers(t.Context())
			require.NoError(t, err)
			assert.EqualValues(t, 3, count)
		})
	})
}
