package tokenmanager

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mkorobov/jobwatch/internal/apperrors"
	"github.com/mkorobov/jobwatch/internal/models"
	"github.com/mkorobov/jobwatch/internal/repository"
)

const (
	defaultAccessTokenTTL  = 15 * time.Minute
	defaultSigningMethod   = "HS256"
	defaultRefreshTokenTTL = 7 * 24 * time.Hour
)

type TokenType string

const (
	TokenTypeAccess  TokenType = "ACCESS"
	TokenTypeRefresh TokenType = "REFRESH"
)

// Claims carried by both token kinds. Email and authorities are set on
// access tokens only, so the request path never needs a db round trip.
type Claims struct {
	jwt.RegisteredClaims
	UserID      uuid.UUID `json:"uid"`
	Email       string    `json:"email,omitempty"`
	Authorities []string  `json:"authorities,omitempty"`
	TokenType   TokenType `json:"token_type"`
}

// Expired reports whether the token expired strictly before now.
// Claims without an expiry never validate.
func (c Claims) Expired(now time.Time) bool {
	if c.ExpiresAt == nil {
		return true
	}
	return c.ExpiresAt.Time.Before(now)
}

// Token manager with sensible defaults
type Config struct {
	// Secret key to sign token payloads
	// Required to be set
	SecretKey string

	// JWT MAC (Message Authentication Code) algorithm
	// If not set than default is used
	Alg string

	// Access and refresh token lifetimes
	// If not set than default is used
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type TokenManager struct {
	// Secret key to sign token payloads
	key string

	// JWT MAC (Message Authentication Code) algorithm
	alg jwt.SigningMethod

	// Access and refresh token lifetimes
	accessTTL  time.Duration
	refreshTTL time.Duration

	// Refresh token repo
	refreshRepo repository.RefreshTokenRepo
}

func New(cfg Config, refreshRepo repository.RefreshTokenRepo) (*TokenManager, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("secret key must not be empty")
	}

	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}

	setDefaultDuration := func(field *time.Duration, def time.Duration) {
		if *field == 0 {
			*field = def
		}
	}
	setDefaultDuration(&cfg.AccessTTL, defaultAccessTokenTTL)
	setDefaultDuration(&cfg.RefreshTTL, defaultRefreshTokenTTL)

	return &TokenManager{
		key:         cfg.SecretKey,
		alg:         jwt.GetSigningMethod(cfg.Alg),
		accessTTL:   cfg.AccessTTL,
		refreshTTL:  cfg.RefreshTTL,
		refreshRepo: refreshRepo,
	}, nil
}

func (m *TokenManager) AccessTTL() time.Duration {
	return m.accessTTL
}

// WithRefreshRepo returns a manager bound to the given repository, so token
// writes can run inside a caller supplied transaction
func (m *TokenManager) WithRefreshRepo(repo repository.RefreshTokenRepo) *TokenManager {
	bound := *m
	bound.refreshRepo = repo
	return &bound
}

// Issue builds and signs a single token of the given type.
// Identity claims beyond the subject are set on access tokens only.
func (m *TokenManager) Issue(user models.User, tokenType TokenType, ttl time.Duration) (models.IssuedToken, error) {
	now := time.Now().UTC().Truncate(time.Second)
	expiresAt := now.Add(ttl)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID:    user.ID,
		TokenType: tokenType,
	}
	if tokenType == TokenTypeAccess {
		claims.Email = user.Email
		claims.Authorities = []string{user.Role}
	}

	signed, err := jwt.NewWithClaims(m.alg, claims).SignedString([]byte(m.key))
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("error while signing token. Err: %w", err)
	}

	return models.IssuedToken{Value: signed, ExpiresAt: expiresAt}, nil
}

// GeneratePair issues an access and a refresh token.
// The refresh token is persisted so it can be revoked later; earlier tokens
// of the same user stay valid (concurrent sessions are allowed).
func (m *TokenManager) GeneratePair(ctx context.Context, user models.User) (models.TokenPair, error) {
	var pair models.TokenPair

	access, err := m.Issue(user, TokenTypeAccess, m.accessTTL)
	if err != nil {
		return pair, err
	}

	refresh, err := m.Issue(user, TokenTypeRefresh, m.refreshTTL)
	if err != nil {
		return pair, err
	}

	_, err = m.refreshRepo.Save(ctx, models.RefreshToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		Token:     refresh.Value,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
		ExpiresAt: refresh.ExpiresAt,
		RevokedAt: nil,
	})
	if err != nil {
		return pair, fmt.Errorf("error while saving refresh token. Err: %w", err)
	}

	return models.TokenPair{Access: access, Refresh: refresh}, nil
}

// Parse verifies the signature and structure only. Expiry is deliberately
// not rejected here: callers check it through Claims.Expired, so an expired
// token is still distinguishable from a forged one.
func (m *TokenManager) Parse(tokenString string) (Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (any, error) { return []byte(m.key), nil },
		jwt.WithValidMethods([]string{m.alg.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil || !token.Valid {
		return Claims{}, fmt.Errorf("%w: %v", apperrors.ErrInvalidToken, err)
	}

	return *claims, nil
}

// ParseAccess validates an access token and builds the request principal
// from its claims alone
func (m *TokenManager) ParseAccess(tokenString string) (models.Principal, error) {
	claims, err := m.Parse(tokenString)
	if err != nil {
		return models.Principal{}, err
	}

	if claims.TokenType != TokenTypeAccess {
		return models.Principal{}, fmt.Errorf("expected access token: %w", apperrors.ErrWrongTokenType)
	}

	if claims.Expired(time.Now().UTC()) {
		return models.Principal{}, apperrors.ErrTokenExpired
	}

	return models.Principal{
		UserID:      claims.UserID,
		Username:    claims.Subject,
		Email:       claims.Email,
		Authorities: claims.Authorities,
	}, nil
}

// UseRefresh validates a refresh token and rotates it: the stored row is
// revoked so the same token can never mint a second session. Reuse after
// rotation surfaces as apperrors.ErrRefreshTokenRevoked.
func (m *TokenManager) UseRefresh(ctx context.Context, refresh string) (models.RefreshToken, error) {
	claims, err := m.Parse(refresh)
	if err != nil {
		return models.RefreshToken{}, err
	}

	if claims.TokenType != TokenTypeRefresh {
		return models.RefreshToken{}, fmt.Errorf("expected refresh token: %w", apperrors.ErrWrongTokenType)
	}

	token, err := m.refreshRepo.Revoke(ctx, refresh)
	if err != nil {
		return token, fmt.Errorf("error while rotating refresh token. Err: %w", err)
	}

	if token.ExpiresAt.Before(time.Now()) {
		return token, fmt.Errorf("error while rotating refresh token. Err: %w", apperrors.ErrRefreshTokenExpired)
	}

	return token, nil
}

// RevokeRefresh terminally invalidates the presented refresh token (logout).
// Revoking an already revoked token is reported, not repeated.
func (m *TokenManager) RevokeRefresh(ctx context.Context, refresh string) error {
	claims, err := m.Parse(refresh)
	if err != nil {
		return err
	}

	if claims.TokenType != TokenTypeRefresh {
		return fmt.Errorf("expected refresh token: %w", apperrors.ErrWrongTokenType)
	}

	_, err = m.refreshRepo.Revoke(ctx, refresh)
	if err != nil {
		return fmt.Errorf("error while revoking refresh token. Err: %w", err)
	}

	return nil
}

// RevokeAllForUser invalidates every live session of the user
func (m *TokenManager) RevokeAllForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	revoked, err := m.refreshRepo.RevokeAllForUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("error while revoking user tokens. Err: %w", err)
	}

	return revoked, nil
}
