package handlers

import (
	"errors"
	"net/http"

	"github.com/mkorobov/jobwatch/internal/apperrors"
	"github.com/mkorobov/jobwatch/internal/handlers/render"
	"github.com/mkorobov/jobwatch/internal/handlers/userctx"
	"github.com/mkorobov/jobwatch/internal/logger"
	"github.com/mkorobov/jobwatch/internal/repository"
	"github.com/mkorobov/jobwatch/internal/service/user"
)

func handleUserMe() http.Handler {
	type response struct {
		ID          string   `json:"id"`
		Username    string   `json:"username"`
		Email       string   `json:"email"`
		Authorities []string `json:"authorities"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, response{
			ID:          principal.UserID.String(),
			Username:    principal.Username,
			Email:       principal.Email,
			Authorities: principal.Authorities,
		})
	})
}

func handleCreateUser(userService userService, l logger.Logger) http.Handler {
	type request struct {
		Username string `json:"username" validate:"required,min=2,max=50"`
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=8"`
		Role     string `json:"role" validate:"required,oneof=ADMIN USER"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		created, err := userService.CreateUser(r.Context(), user.CreateParams{
			Username: data.Username,
			Email:    data.Email,
			Password: data.Password,
			Role:     data.Role,
			Actor:    principal.Username,
		})
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrUserAlreadyExists):
				render.ServiceError(w, "Username already taken", http.StatusConflict)
			case errors.Is(err, apperrors.ErrEmailAlreadyExists):
				render.ServiceError(w, "Email already taken", http.StatusConflict)
			default:
				l.Error("Failed to create user", "error", err)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSONWithStatus(w, toUserResponse(created), http.StatusCreated)
	})
}

func handleListUsers(userService userService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		users, err := userService.ListUsers(r.Context(), repository.ListUsersOpts{
			Limit:  queryInt(r, "limit", 0),
			Offset: queryInt(r, "offset", 0),
		})
		if err != nil {
			l.Error("Failed to list users", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		out := make([]UserResponse, 0, len(users))
		for _, u := range users {
			out = append(out, toUserResponse(u))
		}
		render.JSON(w, out)
	})
}

func handleGetUser(userService userService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		found, err := userService.GetUser(r.Context(), userID)
		switch {
		case err == nil:
			render.JSON(w, toUserResponse(found))
		case errors.Is(err, apperrors.ErrUserNotFound):
			render.ServiceError(w, "User not found", http.StatusNotFound)
		default:
			l.Error("Failed to get user", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleUpdateUser(userService userService, l logger.Logger) http.Handler {
	type request struct {
		Role               *string `json:"role" validate:"omitempty,oneof=ADMIN USER"`
		Enabled            *bool   `json:"enabled"`
		Locked             *bool   `json:"locked"`
		CredentialsExpired *bool   `json:"credentialsExpired"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		userID, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		updated, err := userService.UpdateUser(r.Context(), userID, user.UpdateParams{
			Role:               data.Role,
			Enabled:            data.Enabled,
			Locked:             data.Locked,
			CredentialsExpired: data.CredentialsExpired,
			Actor:              principal.Username,
		})
		switch {
		case err == nil:
			render.JSON(w, toUserResponse(updated))
		case errors.Is(err, apperrors.ErrUserNotFound):
			render.ServiceError(w, "User not found", http.StatusNotFound)
		default:
			l.Error("Failed to update user", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

// handleRevokeUserTokens force-terminates every live session of the user
func handleRevokeUserTokens(authService authService, l logger.Logger) http.Handler {
	type response struct {
		Revoked int64 `json:"revoked"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		revoked, err := authService.RevokeAll(r.Context(), userID)
		if err != nil {
			l.Error("Failed to revoke user tokens", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, response{Revoked: revoked})
	})
}
