package handlers

import (
	"errors"
	"net/http"

	"github.com/mkorobov/jobwatch/internal/apperrors"
	"github.com/mkorobov/jobwatch/internal/handlers/render"
	"github.com/mkorobov/jobwatch/internal/handlers/userctx"
	"github.com/mkorobov/jobwatch/internal/logger"
)

func handleListNotifications(notificationService notificationService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		unreadOnly := r.URL.Query().Get("unread") == "true"

		notifications, err := notificationService.ListForUser(r.Context(), principal.UserID, unreadOnly)
		if err != nil {
			l.Error("Failed to list notifications", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		out := make([]NotificationResponse, 0, len(notifications))
		for _, n := range notifications {
			out = append(out, toNotificationResponse(n))
		}
		render.JSON(w, out)
	})
}

func handleMarkNotificationRead(notificationService notificationService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		notification, err := notificationService.MarkRead(r.Context(), id, principal.UserID)
		switch {
		case err == nil:
			render.JSON(w, toNotificationResponse(notification))
		case errors.Is(err, apperrors.ErrNotificationNotFound):
			render.ServiceError(w, "Notification not found", http.StatusNotFound)
		default:
			l.Error("Failed to mark notification read", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}
