package user

import (
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkorobov/jobwatch/internal/apperrors"
	"github.com/mkorobov/jobwatch/internal/models"
	"github.com/mkorobov/jobwatch/internal/repository"
	"github.com/mkorobov/jobwatch/internal/repository/postgres"
	"github.com/mkorobov/jobwatch/internal/service/auth"
	"github.com/mkorobov/jobwatch/internal/service/auth/tokenmanager"
	"github.com/mkorobov/jobwatch/internal/testutil"
)

func Test_UserService(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	withTx := func(dbpool *pgxpool.Pool, t *testing.T, fn func(s *UserService, storage repository.Storage)) {
		testutil.WithTx(dbpool, t, func(tx pgx.Tx) {
			storage := postgres.NewStorage(tx)
			fn(NewService(nil, storage.User()), storage)
		})
	}

	t.Run("CreateUser stores a verifiable hash", func(t *testing.T) {
		withTx(pg.Pool, t, func(s *UserService, storage repository.Storage) {
			created, err := s.CreateUser(t.Context(), CreateParams{
				Username: "mkorobov",
				Email:    "mkorobov@example.com",
				Password: "pwd-123456",
				Role:     models.RoleUser,
				Actor:    "root",
			})

			require.NoError(t, err)
			assert.Equal(t, "root", created.CreatedBy)
			assert.NotEqual(t, "pwd-123456", created.HashedPassword, "password must never be stored as given")
			assert.NoError(t, auth.DefaultHasher.Compare(created.HashedPassword, "pwd-123456"))
		})
	})

	t.Run("BootstrapAdmin", func(t *testing.T) {
		t.Run("seeds the first admin", func(t *testing.T) {
			withTx(pg.Pool, t, func(s *UserService, storage repository.Storage) {
				seeded, err := s.BootstrapAdmin(t.Context())

				require.NoError(t, err)
				require.True(t, seeded, "empty database should get the bootstrap admin")

				admin, err := storage.User().GetUserByUsername(t.Context(), BootstrapUsername)
				require.NoError(t, err)
				assert.Equal(t, models.RoleAdmin, admin.Role)
				assert.Equal(t, "system", admin.CreatedBy)
				assert.True(t, admin.Enabled)
			})
		})

		t.Run("seeded admin can log in", func(t *testing.T) {
			withTx(pg.Pool, t, func(s *UserService, storage repository.Storage) {
				seeded, err := s.BootstrapAdmin(t.Context())
				require.NoError(t, err)
				require.True(t, seeded)

				tokenManager, err := tokenmanager.New(tokenmanager.Config{SecretKey: "test-secret"}, storage.Refresh())
				require.NoError(t, err)
				authService, err := auth.NewService(auth.Config{}, tokenManager, storage)
				require.NoError(t, err)

				pair, admin, err := authService.Login(t.Context(), "admin", "admin123")

				require.NoError(t, err, "bootstrap credentials should log in on a fresh deployment")
				assert.Equal(t, models.RoleAdmin, admin.Role)
				assert.NotEmpty(t, pair.Access.Value)
				assert.NotEmpty(t, pair.Refresh.Value)
			})
		})

		t.Run("second run is a no-op", func(t *testing.T) {
			withTx(pg.Pool, t, func(s *UserService, storage repository.Storage) {
				seeded, err := s.BootstrapAdmin(t.Context())
				require.NoError(t, err)
				require.True(t, seeded)

				seeded, err = s.BootstrapAdmin(t.Context())
				require.NoError(t, err)
				assert.False(t, seeded)

				count, err := storage.User().CountUsers(t.Context())
				require.NoError(t, err)
				assert.EqualValues(t, 1, count)
			})
		})

		t.Run("skipped when any user exists", func(t *testing.T) {
			withTx(pg.Pool, t, func(s *UserService, storage repository.Storage) {
				_, err := s.CreateUser(t.Context(), CreateParams{
					Username: "mkorobov",
					Email:    "mkorobov@example.com",
					Password: "pwd-123456",
					Role:     models.RoleUser,
					Actor:    "system",
				})
				require.NoError(t, err)

				seeded, err := s.BootstrapAdmin(t.Context())

				require.NoError(t, err)
				assert.False(t, seeded, "a populated database must not get a default admin")

				_, err = storage.User().GetUserByUsername(t.Context(), BootstrapUsername)
				require.ErrorIs(t, err, apperrors.ErrUserNotFound)
			})
		})
	})
}
