package apperrors

import (
	"errors"
)

var (
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrUserNotFound       = errors.New("user not found")

	// ErrBadCredentials is reported for both unknown username and wrong
	// password so the response never reveals which check failed
	ErrBadCredentials     = errors.New("bad username or password")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrAccountLocked      = errors.New("account is locked")
	ErrCredentialsExpired = errors.New("credentials are expired")

	ErrInvalidToken   = errors.New("token is malformed or has invalid signature")
	ErrTokenExpired   = errors.New("token is expired")
	ErrWrongTokenType = errors.New("wrong token type")

	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrRefreshTokenRevoked  = errors.New("refresh token is revoked")
	ErrRefreshTokenExpired  = errors.New("refresh token is expired")

	ErrJobAlreadyExists = errors.New("job already exists")
	ErrJobNotFound      = errors.New("job not found")

	ErrFavoriteExists   = errors.New("job is already in favorites")
	ErrFavoriteNotFound = errors.New("favorite not found")

	ErrNotificationNotFound = errors.New("notification not found")
)
