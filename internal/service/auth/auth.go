package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mkorobov/jobwatch/internal/apperrors"
	"github.com/mkorobov/jobwatch/internal/logger"
	"github.com/mkorobov/jobwatch/internal/models"
	"github.com/mkorobov/jobwatch/internal/repository"
	"github.com/mkorobov/jobwatch/internal/service/auth/tokenmanager"
)

const bearerScheme = "Bearer"

type Config struct {
	// Hasher to compare user passwords
	// Defaults to BcryptHasher
	Hasher PasswordHasher

	// Logger for server side auth failure reasons
	// Defaults to the no-op logger
	Logger logger.Logger
}

// Auth service: credential verification and token lifecycle
type AuthService struct {
	// Manager to issue and validate token pairs (access and refresh)
	tokens *tokenmanager.TokenManager

	// hasher to compare user passwords
	hasher PasswordHasher

	// Repositories for long term user and token data
	storage repository.Storage

	logger logger.Logger

	// Valid bcrypt hash compared against when the username is unknown, so
	// lookup misses and password mismatches take the same time
	dummyHash string
}

func NewService(cfg Config, tokens *tokenmanager.TokenManager, storage repository.Storage) (*AuthService, error) {
	hasher := cfg.Hasher
	if hasher == nil {
		hasher = DefaultHasher
	}

	log := cfg.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	dummyHash, err := hasher.Hash("jobwatch-timing-equalizer")
	if err != nil {
		return nil, fmt.Errorf("hasher is not usable. Err: %w", err)
	}

	return &AuthService{
		tokens:    tokens,
		hasher:    hasher,
		storage:   storage,
		logger:    log,
		dummyHash: dummyHash,
	}, nil
}

// Authenticate verifies credentials and account status.
// Unknown username and wrong password both surface as ErrBadCredentials;
// the distinct reason is only logged server side.
func (s *AuthService) Authenticate(ctx context.Context, username string, password string) (models.User, error) {
	user, err := s.storage.User().GetUserByUsername(ctx, username)
	if err != nil {
		// Burn a compare anyway to keep the timing indistinguishable
		_ = s.hasher.Compare(s.dummyHash, password)
		s.logger.Info("login rejected: user not found", "username", username)
		return models.User{}, apperrors.ErrBadCredentials
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		s.logger.Info("login rejected: wrong password", "username", username)
		return models.User{}, apperrors.ErrBadCredentials
	}

	switch {
	case !user.Enabled:
		s.logger.Info("login rejected: account disabled", "username", username)
		return models.User{}, apperrors.ErrAccountDisabled
	case user.Locked:
		s.logger.Info("login rejected: account locked", "username", username)
		return models.User{}, apperrors.ErrAccountLocked
	case user.CredentialsExpired:
		s.logger.Info("login rejected: credentials expired", "username", username)
		return models.User{}, apperrors.ErrCredentialsExpired
	}

	return user, nil
}

// Login authenticates and issues a fresh token pair
func (s *AuthService) Login(ctx context.Context, username string, password string) (models.TokenPair, models.User, error) {
	user, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return models.TokenPair{}, models.User{}, err
	}

	pair, err := s.tokens.GeneratePair(ctx, user)
	if err != nil {
		return models.TokenPair{}, models.User{}, fmt.Errorf("token could not be generated. Err: %w", err)
	}

	return pair, user, nil
}

// RefreshPair rotates the presented refresh token and issues a new pair.
// Revoke and re-issue run in one transaction, so a failed rotation leaves
// the presented token untouched.
// The user row is re-read so role or status changes take effect on refresh.
func (s *AuthService) RefreshPair(ctx context.Context, refresh string) (models.TokenPair, error) {
	var pair models.TokenPair

	err := s.storage.InTx(ctx, func(st repository.Storage) error {
		tokens := s.tokens.WithRefreshRepo(st.Refresh())

		token, err := tokens.UseRefresh(ctx, refresh)
		if err != nil {
			return err
		}

		user, err := st.User().GetUserByID(ctx, token.UserID)
		if err != nil {
			return fmt.Errorf("refresh token owner not found. Err: %w", err)
		}

		if !user.Enabled || user.Locked {
			s.logger.Info("refresh rejected: account not active", "username", user.Username)
			return apperrors.ErrRefreshTokenRevoked
		}

		pair, err = tokens.GeneratePair(ctx, user)
		if err != nil {
			return fmt.Errorf("token could not be generated. Err: %w", err)
		}

		return nil
	})
	if err != nil {
		return models.TokenPair{}, err
	}

	return pair, nil
}

// Logout terminally revokes the presented refresh token
func (s *AuthService) Logout(ctx context.Context, refresh string) error {
	return s.tokens.RevokeRefresh(ctx, refresh)
}

// RevokeAll invalidates every live session of the user
// (forced logout, password change)
func (s *AuthService) RevokeAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.tokens.RevokeAllForUser(ctx, userID)
}

// AccessTokenTTL exposes the configured access token lifetime for the
// login response's expiresIn field
func (s *AuthService) AccessTokenTTL() time.Duration {
	return s.tokens.AccessTTL()
}

// Auth authenticates the request from its bearer access token alone.
// No database round trip: the token claims are self contained.
func (s *AuthService) Auth(ctx context.Context, r *http.Request) (models.Principal, error) {
	raw, err := BearerToken(r)
	if err != nil {
		return models.Principal{}, err
	}

	return s.tokens.ParseAccess(raw)
}

// BearerToken extracts the token from the Authorization header
func BearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errors.New("no authorization header")
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, bearerScheme) || token == "" {
		return "", fmt.Errorf("authorization header is not a bearer token: %w", apperrors.ErrInvalidToken)
	}

	return token, nil
}
