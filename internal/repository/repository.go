package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mkorobov/jobwatch/internal/models"
)

// Storage bundles all repositories over one connection or transaction
type Storage interface {
	User() UserRepo
	Refresh() RefreshTokenRepo
	Job() JobRepo
	Execution() ExecutionRepo
	Favorite() FavoriteRepo
	Notification() NotificationRepo

	// Run fn inside a single db transaction
	InTx(ctx context.Context, fn func(Storage) error) error
}

type CreateUserParams struct {
	Username       string
	Email          string
	HashedPassword string
	Role           string
	CreatedBy      string
}

// UpdateUserParams updates only the non-nil fields
type UpdateUserParams struct {
	Role               *string
	Enabled            *bool
	Locked             *bool
	CredentialsExpired *bool
	UpdatedBy          string
}

type ListUsersOpts struct {
	Limit  int
	Offset int
}

// User repository interface
type UserRepo interface {
	// Create user
	// If username is taken has to return apperrors.ErrUserAlreadyExists,
	// if email is taken apperrors.ErrEmailAlreadyExists
	CreateUser(ctx context.Context, params CreateUserParams) (models.User, error)

	// Get user by it's id or username (exact, case-sensitive match)
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)

	ListUsers(ctx context.Context, opts ListUsersOpts) ([]models.User, error)
	UpdateUser(ctx context.Context, userID uuid.UUID, params UpdateUserParams) (models.User, error)
	CountUsers(ctx context.Context) (int64, error)
}

// RefreshToken repository interface
type RefreshTokenRepo interface {
	// Save token in repository
	Save(ctx context.Context, token models.RefreshToken) (models.RefreshToken, error)

	// Return the token even if it is expired or revoked already
	// If the token not found must return apperrors.ErrRefreshTokenNotFound
	Get(ctx context.Context, tokenString string) (models.RefreshToken, error)

	// Revoke token and return it
	// Revocation is monotonic: if the token is revoked already must keep
	// the original RevokedAt and return apperrors.ErrRefreshTokenRevoked
	Revoke(ctx context.Context, tokenString string) (models.RefreshToken, error)

	// Revoke every live token of the user (password change, forced logout)
	RevokeAllForUser(ctx context.Context, userID uuid.UUID) (int64, error)

	// Delete rows that can never validate again: expired or revoked.
	// Housekeeping only, validity checks reject those rows anyway
	DeleteUnusable(ctx context.Context, now time.Time) (int64, error)
}

type CreateJobParams struct {
	Name        string
	Description string
	Schedule    string
	Enabled     bool
	CreatedBy   string
}

type UpdateJobParams struct {
	Description *string
	Schedule    *string
	Enabled     *bool
	UpdatedBy   string
}

type ListJobsOpts struct {
	Name    string // substring match, empty matches all
	Enabled *bool
	Limit   int
	Offset  int
}

type JobRepo interface {
	// If job name is taken has to return apperrors.ErrJobAlreadyExists
	CreateJob(ctx context.Context, params CreateJobParams) (models.Job, error)

	// If job not found must return apperrors.ErrJobNotFound
	GetJobByID(ctx context.Context, jobID uuid.UUID) (models.Job, error)

	ListJobs(ctx context.Context, opts ListJobsOpts) ([]models.Job, error)
	UpdateJob(ctx context.Context, jobID uuid.UUID, params UpdateJobParams) (models.Job, error)
	DeleteJob(ctx context.Context, jobID uuid.UUID) error
	CountJobs(ctx context.Context) (int64, error)
}

type ListExecutionsOpts struct {
	Status string // empty matches all
	Limit  int
	Offset int
}

type ExecutionRepo interface {
	// Insert imported execution record
	// If the job does not exist must return apperrors.ErrJobNotFound
	Insert(ctx context.Context, execution models.JobExecution) (models.JobExecution, error)

	ListByJob(ctx context.Context, jobID uuid.UUID, opts ListExecutionsOpts) ([]models.JobExecution, error)

	// Aggregate executions of a single job
	JobStats(ctx context.Context, jobID uuid.UUID) (models.JobStats, error)

	// Aggregate over all executions for the admin dashboard
	OverallStats(ctx context.Context) (executions int64, failed int64, totalCost decimal.Decimal, err error)
}

type FavoriteRepo interface {
	// If the pair exists already must return apperrors.ErrFavoriteExists
	Add(ctx context.Context, userID uuid.UUID, jobID uuid.UUID) (models.Favorite, error)

	// If the pair does not exist must return apperrors.ErrFavoriteNotFound
	Remove(ctx context.Context, userID uuid.UUID, jobID uuid.UUID) error

	// Jobs the user marked as favorite, newest mark first
	ListJobsByUser(ctx context.Context, userID uuid.UUID) ([]models.Job, error)

	// Users who marked the job as favorite (notification fan-out)
	ListUsersByJob(ctx context.Context, jobID uuid.UUID) ([]models.User, error)
}

type NotificationRepo interface {
	Create(ctx context.Context, n models.Notification) (models.Notification, error)

	ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]models.Notification, error)

	// Mark notification read. Monotonic: keeps the original ReadAt.
	// If the notification is not owned by the user or does not exist must
	// return apperrors.ErrNotificationNotFound
	MarkRead(ctx context.Context, id uuid.UUID, userID uuid.UUID) (models.Notification, error)
}
