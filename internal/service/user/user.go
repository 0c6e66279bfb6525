package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mkorobov/jobwatch/internal/apperrors"
	"github.com/mkorobov/jobwatch/internal/models"
	"github.com/mkorobov/jobwatch/internal/repository"
	"github.com/mkorobov/jobwatch/internal/service/auth"
)

// Credentials of the account seeded into an empty database, so a fresh
// deployment has a way onto the admin surface at all. The password is
// meant to be changed right after the first login.
const (
	BootstrapUsername = "admin"
	bootstrapPassword = "admin123"
	bootstrapEmail    = "admin@jobwatch.local"
)

// Admin facing user management
type UserService struct {
	hasher   auth.PasswordHasher
	userRepo repository.UserRepo
}

func NewService(hasher auth.PasswordHasher, userRepo repository.UserRepo) *UserService {
	if hasher == nil {
		hasher = auth.DefaultHasher
	}

	return &UserService{
		hasher:   hasher,
		userRepo: userRepo,
	}
}

type CreateParams struct {
	Username string
	Email    string
	Password string
	Role     string

	// Username of the authenticated admin performing the change,
	// recorded in the audit fields
	Actor string
}

func (s *UserService) CreateUser(ctx context.Context, params CreateParams) (models.User, error) {
	var user models.User

	hash, err := s.hasher.Hash(params.Password)
	if err != nil {
		return user, fmt.Errorf("can't use this as password. Err: %w", err)
	}

	user, err = s.userRepo.CreateUser(ctx, repository.CreateUserParams{
		Username:       params.Username,
		Email:          params.Email,
		HashedPassword: hash,
		Role:           params.Role,
		CreatedBy:      params.Actor,
	})
	if err != nil {
		return user, err
	}

	return user, nil
}

// BootstrapAdmin seeds the first admin account. No-op once any user
// exists, so it is safe to call on every startup.
func (s *UserService) BootstrapAdmin(ctx context.Context) (bool, error) {
	count, err := s.userRepo.CountUsers(ctx)
	if err != nil {
		return false, fmt.Errorf("can't count users. Err: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	_, err = s.CreateUser(ctx, CreateParams{
		Username: BootstrapUsername,
		Email:    bootstrapEmail,
		Password: bootstrapPassword,
		Role:     models.RoleAdmin,
		Actor:    "system",
	})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, apperrors.ErrUserAlreadyExists):
		// Another instance seeded it first
		return false, nil
	default:
		return false, err
	}
}

type UpdateParams struct {
	Role               *string
	Enabled            *bool
	Locked             *bool
	CredentialsExpired *bool
	Actor              string
}

func (s *UserService) UpdateUser(ctx context.Context, userID uuid.UUID, params UpdateParams) (models.User, error) {
	return s.userRepo.UpdateUser(ctx, userID, repository.UpdateUserParams{
		Role:               params.Role,
		Enabled:            params.Enabled,
		Locked:             params.Locked,
		CredentialsExpired: params.CredentialsExpired,
		UpdatedBy:          params.Actor,
	})
}

func (s *UserService) GetUser(ctx context.Context, userID uuid.UUID) (models.User, error) {
	return s.userRepo.GetUserByID(ctx, userID)
}

func (s *UserService) ListUsers(ctx context.Context, opts repository.ListUsersOpts) ([]models.User, error) {
	return s.userRepo.ListUsers(ctx, opts)
}
