package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/mkorobov/jobwatch/internal/handlers/authz"
	"github.com/mkorobov/jobwatch/internal/handlers/middleware"
	"github.com/mkorobov/jobwatch/internal/logger"
	"github.com/mkorobov/jobwatch/internal/models"
	"github.com/mkorobov/jobwatch/internal/repository"
	"github.com/mkorobov/jobwatch/internal/service/user"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	authService authService,
	userService userService,
	jobService jobService,
	notificationService notificationService,
	logger logger.Logger,
) http.Handler {
	apiauth := http.NewServeMux()
	apiauth.Handle("POST /login", handleLogin(authService, logger))
	apiauth.Handle("POST /refresh", handleTokenRefresh(authService, logger))
	apiauth.Handle("POST /logout", handleLogout(authService, logger))

	apiuser := http.NewServeMux()
	apiuser.Handle("GET /me", handleUserMe())
	apiuser.Handle("GET /jobs", handleListJobs(jobService, logger))
	apiuser.Handle("GET /jobs/{id}", handleGetJob(jobService, logger))
	apiuser.Handle("GET /jobs/{id}/executions", handleListExecutions(jobService, logger))
	apiuser.Handle("GET /jobs/{id}/stats", handleJobStats(jobService, logger))
	apiuser.Handle("GET /favorites", handleListFavorites(jobService, logger))
	apiuser.Handle("PUT /favorites/{jobID}", handleAddFavorite(jobService, logger))
	apiuser.Handle("DELETE /favorites/{jobID}", handleRemoveFavorite(jobService, logger))
	apiuser.Handle("GET /notifications", handleListNotifications(notificationService, logger))
	apiuser.Handle("POST /notifications/{id}/read", handleMarkNotificationRead(notificationService, logger))

	apiadmin := http.NewServeMux()
	apiadmin.Handle("POST /users", handleCreateUser(userService, logger))
	apiadmin.Handle("GET /users", handleListUsers(userService, logger))
	apiadmin.Handle("GET /users/{id}", handleGetUser(userService, logger))
	apiadmin.Handle("PATCH /users/{id}", handleUpdateUser(userService, logger))
	apiadmin.Handle("POST /users/{id}/revoke-tokens", handleRevokeUserTokens(authService, logger))
	apiadmin.Handle("POST /jobs", handleCreateJob(jobService, logger))
	apiadmin.Handle("PATCH /jobs/{id}", handleUpdateJob(jobService, logger))
	apiadmin.Handle("DELETE /jobs/{id}", handleDeleteJob(jobService, logger))
	apiadmin.Handle("POST /jobs/{id}/executions", handleImportExecution(jobService, logger))
	apiadmin.Handle("GET /stats", handleSystemStats(jobService, logger))

	root := http.NewServeMux()
	root.Handle("GET /healthz", handleHealthz())
	root.Handle("/api/auth/", http.StripPrefix("/api/auth", apiauth))
	root.Handle("/api/user/", http.StripPrefix("/api/user", apiuser))
	root.Handle("/api/admin/", http.StripPrefix("/api/admin", apiadmin))

	handler := chain(root,
		middleware.LoggerMiddleware(logger),
		middleware.Authenticate(authService),
		middleware.Authorize(authz.NewPolicy(authz.DefaultRules()...)),
	)

	return handler
}

func handleHealthz() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
}

type authService interface {
	// Login with username and password
	// Bad username and bad password both surface as apperrors.ErrBadCredentials;
	// disabled, locked and expired accounts return their own sentinels
	Login(ctx context.Context, username string, password string) (models.TokenPair, models.User, error)

	// Rotate the refresh token and issue a new pair
	// Any unusable token returns one of the token sentinels from apperrors
	RefreshPair(ctx context.Context, refresh string) (models.TokenPair, error)

	// Terminally revoke the presented refresh token
	Logout(ctx context.Context, refresh string) error

	// Revoke every live refresh token of the user
	RevokeAll(ctx context.Context, userID uuid.UUID) (int64, error)

	// Configured access token lifetime, rendered as expiresIn
	AccessTokenTTL() time.Duration

	// Authenticate the request from its bearer access token
	Auth(ctx context.Context, r *http.Request) (models.Principal, error)
}

type userService interface {
	CreateUser(ctx context.Context, params user.CreateParams) (models.User, error)
	GetUser(ctx context.Context, userID uuid.UUID) (models.User, error)
	ListUsers(ctx context.Context, opts repository.ListUsersOpts) ([]models.User, error)
	UpdateUser(ctx context.Context, userID uuid.UUID, params user.UpdateParams) (models.User, error)
}

type jobService interface {
	CreateJob(ctx context.Context, params repository.CreateJobParams) (models.Job, error)
	GetJob(ctx context.Context, jobID uuid.UUID) (models.Job, error)
	ListJobs(ctx context.Context, opts repository.ListJobsOpts) ([]models.Job, error)
	UpdateJob(ctx context.Context, jobID uuid.UUID, params repository.UpdateJobParams) (models.Job, error)
	DeleteJob(ctx context.Context, jobID uuid.UUID) error

	ImportExecution(ctx context.Context, jobID uuid.UUID, execution models.JobExecution) (models.JobExecution, error)
	ListExecutions(ctx context.Context, jobID uuid.UUID, opts repository.ListExecutionsOpts) ([]models.JobExecution, error)
	JobStats(ctx context.Context, jobID uuid.UUID) (models.JobStats, error)
	SystemStats(ctx context.Context) (models.SystemStats, error)

	AddFavorite(ctx context.Context, userID uuid.UUID, jobID uuid.UUID) (models.Favorite, error)
	RemoveFavorite(ctx context.Context, userID uuid.UUID, jobID uuid.UUID) error
	ListFavorites(ctx context.Context, userID uuid.UUID) ([]models.Job, error)
}

type notificationService interface {
	ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]models.Notification, error)
	MarkRead(ctx context.Context, id uuid.UUID, userID uuid.UUID) (models.Notification, error)
}
