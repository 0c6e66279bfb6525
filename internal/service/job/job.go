package job

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mkorobov/jobwatch/internal/logger"
	"github.com/mkorobov/jobwatch/internal/models"
	"github.com/mkorobov/jobwatch/internal/repository"
)

// Notifier is told about imported failures. Implemented by the
// notification service; a nil notifier disables fan-out.
type Notifier interface {
	ExecutionFailed(ctx context.Context, job models.Job, execution models.JobExecution) error
}

type JobService struct {
	jobRepo       repository.JobRepo
	executionRepo repository.ExecutionRepo
	favoriteRepo  repository.FavoriteRepo
	userRepo      repository.UserRepo
	notifier      Notifier
	logger        logger.Logger
}

func NewService(
	jobRepo repository.JobRepo,
	executionRepo repository.ExecutionRepo,
	favoriteRepo repository.FavoriteRepo,
	userRepo repository.UserRepo,
	notifier Notifier,
	logger logger.Logger,
) *JobService {
	return &JobService{
		jobRepo:       jobRepo,
		executionRepo: executionRepo,
		favoriteRepo:  favoriteRepo,
		userRepo:      userRepo,
		notifier:      notifier,
		logger:        logger,
	}
}

func (s *JobService) CreateJob(ctx context.Context, params repository.CreateJobParams) (models.Job, error) {
	return s.jobRepo.CreateJob(ctx, params)
}

func (s *JobService) GetJob(ctx context.Context, jobID uuid.UUID) (models.Job, error) {
	return s.jobRepo.GetJobByID(ctx, jobID)
}

func (s *JobService) ListJobs(ctx context.Context, opts repository.ListJobsOpts) ([]models.Job, error) {
	return s.jobRepo.ListJobs(ctx, opts)
}

func (s *JobService) UpdateJob(ctx context.Context, jobID uuid.UUID, params repository.UpdateJobParams) (models.Job, error) {
	return s.jobRepo.UpdateJob(ctx, jobID, params)
}

func (s *JobService) DeleteJob(ctx context.Context, jobID uuid.UUID) error {
	return s.jobRepo.DeleteJob(ctx, jobID)
}

// ImportExecution stores an externally produced execution record.
// Failed imports fan out notifications to users watching the job; a
// notification failure never fails the import itself.
func (s *JobService) ImportExecution(ctx context.Context, jobID uuid.UUID, execution models.JobExecution) (models.JobExecution, error) {
	job, err := s.jobRepo.GetJobByID(ctx, jobID)
	if err != nil {
		return models.JobExecution{}, err
	}

	execution.JobID = job.ID
	saved, err := s.executionRepo.Insert(ctx, execution)
	if err != nil {
		return saved, fmt.Errorf("can't store execution. Err: %w", err)
	}

	if saved.Status == models.ExecutionStatusFailed && s.notifier != nil {
		if err := s.notifier.ExecutionFailed(ctx, job, saved); err != nil {
			s.logger.Error("Failed to notify about failed execution",
				"job", job.Name, "execution_id", saved.ID, "error", err)
		}
	}

	return saved, nil
}

func (s *JobService) ListExecutions(ctx context.Context, jobID uuid.UUID, opts repository.ListExecutionsOpts) ([]models.JobExecution, error) {
	// Make sure a missing job surfaces as not found, not as an empty list
	if _, err := s.jobRepo.GetJobByID(ctx, jobID); err != nil {
		return nil, err
	}

	return s.executionRepo.ListByJob(ctx, jobID, opts)
}

func (s *JobService) JobStats(ctx context.Context, jobID uuid.UUID) (models.JobStats, error) {
	if _, err := s.jobRepo.GetJobByID(ctx, jobID); err != nil {
		return models.JobStats{}, err
	}

	return s.executionRepo.JobStats(ctx, jobID)
}

func (s *JobService) AddFavorite(ctx context.Context, userID uuid.UUID, jobID uuid.UUID) (models.Favorite, error) {
	return s.favoriteRepo.Add(ctx, userID, jobID)
}

func (s *JobService) RemoveFavorite(ctx context.Context, userID uuid.UUID, jobID uuid.UUID) error {
	return s.favoriteRepo.Remove(ctx, userID, jobID)
}

func (s *JobService) ListFavorites(ctx context.Context, userID uuid.UUID) ([]models.Job, error) {
	return s.favoriteRepo.ListJobsByUser(ctx, userID)
}

func (s *JobService) SystemStats(ctx context.Context) (models.SystemStats, error) {
	var stats models.SystemStats

	users, err := s.userRepo.CountUsers(ctx)
	if err != nil {
		return stats, err
	}

	jobs, err := s.jobRepo.CountJobs(ctx)
	if err != nil {
		return stats, err
	}

	executions, failed, totalCost, err := s.executionRepo.OverallStats(ctx)
	if err != nil {
		return stats, err
	}

	return models.SystemStats{
		Users:            users,
		Jobs:             jobs,
		Executions:       executions,
		FailedExecutions: failed,
		TotalCost:        totalCost,
	}, nil
}
