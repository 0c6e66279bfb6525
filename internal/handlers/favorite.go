package handlers

import (
	"errors"
	"net/http"

	"github.com/mkorobov/jobwatch/internal/apperrors"
	"github.com/mkorobov/jobwatch/internal/handlers/render"
	"github.com/mkorobov/jobwatch/internal/handlers/userctx"
	"github.com/mkorobov/jobwatch/internal/logger"
)

func handleListFavorites(jobService jobService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		jobs, err := jobService.ListFavorites(r.Context(), principal.UserID)
		if err != nil {
			l.Error("Failed to list favorites", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, toJobResponses(jobs))
	})
}

func handleAddFavorite(jobService jobService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		jobID, ok := pathID(w, r, "jobID")
		if !ok {
			return
		}

		_, err := jobService.AddFavorite(r.Context(), principal.UserID, jobID)
		switch {
		case err == nil:
			w.WriteHeader(http.StatusNoContent)
		case errors.Is(err, apperrors.ErrFavoriteExists):
			// Marking twice is a no-op, the mark is already there
			w.WriteHeader(http.StatusNoContent)
		case errors.Is(err, apperrors.ErrJobNotFound):
			render.ServiceError(w, "Job not found", http.StatusNotFound)
		default:
			l.Error("Failed to add favorite", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleRemoveFavorite(jobService jobService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		jobID, ok := pathID(w, r, "jobID")
		if !ok {
			return
		}

		err := jobService.RemoveFavorite(r.Context(), principal.UserID, jobID)
		switch {
		case err == nil:
			w.WriteHeader(http.StatusNoContent)
		case errors.Is(err, apperrors.ErrFavoriteNotFound):
			render.ServiceError(w, "Favorite not found", http.StatusNotFound)
		default:
			l.Error("Failed to remove favorite", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}
