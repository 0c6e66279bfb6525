package handlers

import (
	"errors"
	"net/http"

	"github.com/mkorobov/jobwatch/internal/apperrors"
	"github.com/mkorobov/jobwatch/internal/handlers/render"
	"github.com/mkorobov/jobwatch/internal/logger"
)

func handleLogin(authService authService, l logger.Logger) http.Handler {
	type request struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}
	type response struct {
		AccessToken  string       `json:"accessToken"`
		RefreshToken string       `json:"refreshToken"`
		TokenType    string       `json:"tokenType"`
		ExpiresIn    int64        `json:"expiresIn"`
		User         UserResponse `json:"user"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		pair, user, err := authService.Login(r.Context(), data.Username, data.Password)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrBadCredentials):
				render.ServiceError(w, "Bad credentials", http.StatusUnauthorized)
			case errors.Is(err, apperrors.ErrAccountDisabled):
				render.ServiceError(w, "Account is disabled", http.StatusUnauthorized)
			case errors.Is(err, apperrors.ErrAccountLocked):
				render.ServiceError(w, "Account is locked", http.StatusUnauthorized)
			case errors.Is(err, apperrors.ErrCredentialsExpired):
				render.ServiceError(w, "Credentials have expired", http.StatusUnauthorized)
			default:
				l.Error("Login failed", "error", err)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSON(w, response{
			AccessToken:  pair.Access.Value,
			RefreshToken: pair.Refresh.Value,
			TokenType:    "Bearer",
			ExpiresIn:    int64(authService.AccessTokenTTL().Seconds()),
			User:         toUserResponse(user),
		})
	})
}

func handleTokenRefresh(authService authService, l logger.Logger) http.Handler {
	type request struct {
		RefreshToken string `json:"refreshToken" validate:"required"`
	}
	type response struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
		TokenType    string `json:"tokenType"`
		ExpiresIn    int64  `json:"expiresIn"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		pair, err := authService.RefreshPair(r.Context(), data.RefreshToken)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrInvalidToken),
				errors.Is(err, apperrors.ErrWrongTokenType),
				errors.Is(err, apperrors.ErrTokenExpired),
				errors.Is(err, apperrors.ErrRefreshTokenNotFound),
				errors.Is(err, apperrors.ErrRefreshTokenExpired),
				errors.Is(err, apperrors.ErrRefreshTokenRevoked):
				render.ServiceError(w, "Refresh token is not valid", http.StatusUnauthorized)
			default:
				l.Error("Token refresh failed", "error", err)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSON(w, response{
			AccessToken:  pair.Access.Value,
			RefreshToken: pair.Refresh.Value,
			TokenType:    "Bearer",
			ExpiresIn:    int64(authService.AccessTokenTTL().Seconds()),
		})
	})
}

func handleLogout(authService authService, l logger.Logger) http.Handler {
	type request struct {
		RefreshToken string `json:"refreshToken" validate:"required"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		err = authService.Logout(r.Context(), data.RefreshToken)
		switch {
		case err == nil,
			// Logout is idempotent: a token that is already gone or
			// revoked means there is nothing left to terminate
			errors.Is(err, apperrors.ErrRefreshTokenNotFound),
			errors.Is(err, apperrors.ErrRefreshTokenRevoked),
			errors.Is(err, apperrors.ErrInvalidToken),
			errors.Is(err, apperrors.ErrWrongTokenType):
			w.WriteHeader(http.StatusNoContent)
		default:
			l.Error("Logout failed", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}
