package auth

import (
	"net/http"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkorobov/jobwatch/internal/apperrors"
	"github.com/mkorobov/jobwatch/internal/models"
	"github.com/mkorobov/jobwatch/internal/repository"
	"github.com/mkorobov/jobwatch/internal/repository/postgres"
	"github.com/mkorobov/jobwatch/internal/service/auth/tokenmanager"
	"github.com/mkorobov/jobwatch/internal/testutil"
)

func Test_Auth(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	// Begin new db transaction and create new AuthService
	// Rollback transaction when test stops
	withTx := func(dbpool *pgxpool.Pool, accessTTL time.Duration, refreshTTL time.Duration, t *testing.T, fn func(s *AuthService, userRepo repository.UserRepo)) {
		testutil.WithTx(dbpool, t, func(tx pgx.Tx) {
			storage := postgres.NewStorage(tx)

			tokenManager, err := tokenmanager.New(
				tokenmanager.Config{
					SecretKey:  "test-secret-key",
					AccessTTL:  accessTTL,
					RefreshTTL: refreshTTL,
				},
				storage.Refresh(),
			)
			require.NoError(t, err, "token manager should be created without errors")

			s, err := NewService(Config{}, tokenManager, storage)
			require.NoError(t, err, "auth service could't be started", err)

			fn(s, storage.User())
		})
	}

	createUser := func(t *testing.T, userRepo repository.UserRepo, username string, password string, mutate func(*repository.UpdateUserParams)) models.User {
		hash, err := DefaultHasher.Hash(password)
		require.NoError(t, err)

		user, err := userRepo.CreateUser(t.Context(), repository.CreateUserParams{
			Username:       username,
			Email:          username + "@example.com",
			HashedPassword: hash,
			Role:           models.RoleUser,
			CreatedBy:      "system",
		})
		require.NoError(t, err)

		if mutate != nil {
			params := repository.UpdateUserParams{UpdatedBy: "system"}
			mutate(&params)
			user, err = userRepo.UpdateUser(t.Context(), user.ID, params)
			require.NoError(t, err)
		}

		return user
	}

	t.Run("new auth service defaults", func(t *testing.T) {
		s, err := NewService(Config{}, nil, nil)
		require.NoError(t, err, "auth service should be created without errors")

		require.Equal(t, BcryptHasher{}, s.hasher, "default hasher should be set to BcryptHasher")
		require.NotEmpty(t, s.dummyHash, "dummy hash should be prepared")
	})

	t.Run("Authenticate", func(t *testing.T) {
		t.Run("valid credentials ok", func(t *testing.T) {
			withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *AuthService, userRepo repository.UserRepo) {
				created := createUser(t, userRepo, "mkorobov", "pwd-123456", nil)

				user, err := s.Authenticate(t.Context(), "mkorobov", "pwd-123456")

				require.NoError(t, err)
				require.Equal(t, created.ID, user.ID)
			})
		})

		tests := []struct {
			name        string
			username    string
			password    string
			mutate      func(*repository.UpdateUserParams)
			expectedErr error
		}{
			{
				name:        "wrong password",
				username:    "mkorobov",
				password:    "wrong",
				expectedErr: apperrors.ErrBadCredentials,
			},
			{
				name:        "unknown user looks the same",
				username:    "who-is-this",
				password:    "pwd-123456",
				expectedErr: apperrors.ErrBadCredentials,
			},
			{
				name:     "disabled account",
				username: "mkorobov",
				password: "pwd-123456",
				mutate: func(p *repository.UpdateUserParams) {
					enabled := false
					p.Enabled = &enabled
				},
				expectedErr: apperrors.ErrAccountDisabled,
			},
			{
				name:     "locked account",
				username: "mkorobov",
				password: "pwd-123456",
				mutate: func(p *repository.UpdateUserParams) {
					locked := true
					p.Locked = &locked
				},
				expectedErr: apperrors.ErrAccountLocked,
			},
			{
				name:     "expired credentials",
				username: "mkorobov",
				password: "pwd-123456",
				mutate: func(p *repository.UpdateUserParams) {
					expired := true
					p.CredentialsExpired = &expired
				},
				expectedErr: apperrors.ErrCredentialsExpired,
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *AuthService, userRepo repository.UserRepo) {
					createUser(t, userRepo, "mkorobov", "pwd-123456", tt.mutate)

					_, err := s.Authenticate(t.Context(), tt.username, tt.password)

					require.ErrorIs(t, err, tt.expectedErr)
				})
			})
		}
	})

	t.Run("Login", func(t *testing.T) {
		withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *AuthService, userRepo repository.UserRepo) {
			created := createUser(t, userRepo, "mkorobov", "pwd-123456", nil)

			pair, user, err := s.Login(t.Context(), "mkorobov", "pwd-123456")

			require.NoError(t, err)
			require.Equal(t, created.ID, user.ID)
			require.NotEmpty(t, pair.Access.Value, "access token should not be empty")
			require.NotEmpty(t, pair.Refresh.Value, "refresh token should not be empty")
		})
	})

	t.Run("RefreshPair", func(t *testing.T) {
		t.Run("rotates the token", func(t *testing.T) {
			withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *AuthService, userRepo repository.UserRepo) {
				createUser(t, userRepo, "mkorobov", "pwd-123456", nil)
				pair, _, err := s.Login(t.Context(), "mkorobov", "pwd-123456")
				require.NoError(t, err)

				next, err := s.RefreshPair(t.Context(), pair.Refresh.Value)
				require.NoError(t, err)
				require.NotEqual(t, pair.Refresh.Value, next.Refresh.Value, "refresh token should rotate")

				// The old token is spent now
				_, err = s.RefreshPair(t.Context(), pair.Refresh.Value)
				require.ErrorIs(t, err, apperrors.ErrRefreshTokenRevoked)
			})
		})

		t.Run("rejected for disabled account", func(t *testing.T) {
			withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *AuthService, userRepo repository.UserRepo) {
				user := createUser(t, userRepo, "mkorobov", "pwd-123456", nil)
				pair, _, err := s.Login(t.Context(), "mkorobov", "pwd-123456")
				require.NoError(t, err)

				enabled := false
				_, err = userRepo.UpdateUser(t.Context(), user.ID, repository.UpdateUserParams{
					Enabled:   &enabled,
					UpdatedBy: "system",
				})
				require.NoError(t, err)

				_, err = s.RefreshPair(t.Context(), pair.Refresh.Value)
				require.ErrorIs(t, err, apperrors.ErrRefreshTokenRevoked)
			})
		})

		t.Run("failed rotation leaves the token unspent", func(t *testing.T) {
			withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *AuthService, userRepo repository.UserRepo) {
				user := createUser(t, userRepo, "mkorobov", "pwd-123456", nil)
				pair, _, err := s.Login(t.Context(), "mkorobov", "pwd-123456")
				require.NoError(t, err)

				enabled := false
				_, err = userRepo.UpdateUser(t.Context(), user.ID, repository.UpdateUserParams{
					Enabled:   &enabled,
					UpdatedBy: "system",
				})
				require.NoError(t, err)

				_, err = s.RefreshPair(t.Context(), pair.Refresh.Value)
				require.ErrorIs(t, err, apperrors.ErrRefreshTokenRevoked)

				// The rotation rolled back, so once the account is enabled
				// again the same token still refreshes
				enabled = true
				_, err = userRepo.UpdateUser(t.Context(), user.ID, repository.UpdateUserParams{
					Enabled:   &enabled,
					UpdatedBy: "system",
				})
				require.NoError(t, err)

				_, err = s.RefreshPair(t.Context(), pair.Refresh.Value)
				require.NoError(t, err, "token should stay live after a failed rotation")
			})
		})

		t.Run("expired refresh rejected", func(t *testing.T) {
			withTx(pg.Pool, 15*time.Minute, -time.Minute, t, func(s *AuthService, userRepo repository.UserRepo) {
				createUser(t, userRepo, "mkorobov", "pwd-123456", nil)
				pair, _, err := s.Login(t.Context(), "mkorobov", "pwd-123456")
				require.NoError(t, err)

				_, err = s.RefreshPair(t.Context(), pair.Refresh.Value)
				require.ErrorIs(t, err, apperrors.ErrRefreshTokenExpired)
			})
		})
	})

	t.Run("Logout", func(t *testing.T) {
		withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *AuthService, userRepo repository.UserRepo) {
			createUser(t, userRepo, "mkorobov", "pwd-123456", nil)
			pair, _, err := s.Login(t.Context(), "mkorobov", "pwd-123456")
			require.NoError(t, err)

			err = s.Logout(t.Context(), pair.Refresh.Value)
			require.NoError(t, err)

			_, err = s.RefreshPair(t.Context(), pair.Refresh.Value)
			require.ErrorIs(t, err, apperrors.ErrRefreshTokenRevoked)

			// Second logout reports the revocation
			err = s.Logout(t.Context(), pair.Refresh.Value)
			require.ErrorIs(t, err, apperrors.ErrRefreshTokenRevoked)
		})
	})

	t.Run("RevokeAll", func(t *testing.T) {
		withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *AuthService, userRepo repository.UserRepo) {
			user := createUser(t, userRepo, "mkorobov", "pwd-123456", nil)

			pair1, _, err := s.Login(t.Context(), "mkorobov", "pwd-123456")
			require.NoError(t, err)
			pair2, _, err := s.Login(t.Context(), "mkorobov", "pwd-123456")
			require.NoError(t, err)

			revoked, err := s.RevokeAll(t.Context(), user.ID)
			require.NoError(t, err)
			require.EqualValues(t, 2, revoked)

			_, err = s.RefreshPair(t.Context(), pair1.Refresh.Value)
			require.ErrorIs(t, err, apperrors.ErrRefreshTokenRevoked)
			_, err = s.RefreshPair(t.Context(), pair2.Refresh.Value)
			require.ErrorIs(t, err, apperrors.ErrRefreshTokenRevoked)
		})
	})

	t.Run("Auth", func(t *testing.T) {
		withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *AuthService, userRepo repository.UserRepo) {
			user := createUser(t, userRepo, "mkorobov", "pwd-123456", nil)
			pair, _, err := s.Login(t.Context(), "mkorobov", "pwd-123456")
			require.NoError(t, err)

			r, err := http.NewRequestWithContext(t.Context(), http.MethodGet, "/api/user/me", nil)
			require.NoError(t, err)
			r.Header.Set("Authorization", "Bearer "+pair.Access.Value)

			principal, err := s.Auth(t.Context(), r)
			require.NoError(t, err)
			assert.Equal(t, user.ID, principal.UserID)
			assert.Equal(t, "mkorobov", principal.Username)
		})
	})
}

func Test_BearerToken(t *testing.T) {
	t.Parallel()

	newRequest := func(header string) *http.Request {
		r, _ := http.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			r.Header.Set("Authorization", header)
		}
		return r
	}

	t.Run("plain bearer", func(t *testing.T) {
		token, err := BearerToken(newRequest("Bearer abc.def.ghi"))
		require.NoError(t, err)
		require.Equal(t, "abc.def.ghi", token)
	})

	t.Run("scheme is case insensitive", func(t *testing.T) {
		token, err := BearerToken(newRequest("bearer abc"))
		require.NoError(t, err)
		require.Equal(t, "abc", token)
	})

	t.Run("missing header", func(t *testing.T) {
		_, err := BearerToken(newRequest(""))
		require.Error(t, err)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		_, err := BearerToken(newRequest("Basic dXNlcjpwd2Q="))
		require.ErrorIs(t, err, apperrors.ErrInvalidToken)
	})

	t.Run("empty token", func(t *testing.T) {
		_, err := BearerToken(newRequest("Bearer "))
		require.ErrorIs(t, err, apperrors.ErrInvalidToken)
	})
}
