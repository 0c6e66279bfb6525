package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mkorobov/jobwatch/internal/logger"
	"github.com/mkorobov/jobwatch/internal/models"
	"github.com/mkorobov/jobwatch/internal/repository"
)

// Sender delivers a formatted message. The actual transport (SMTP etc.)
// lives outside this service.
type Sender interface {
	Send(ctx context.Context, to string, subject string, body string) error
}

// LogSender writes would-be emails to the log. Used when no real
// transport is configured.
type LogSender struct {
	Logger logger.Logger
}

func (s LogSender) Send(ctx context.Context, to string, subject string, body string) error {
	s.Logger.Info("Outbound notification", "to", to, "subject", subject, "body_size", len(body))
	return nil
}

type NotificationService struct {
	notificationRepo repository.NotificationRepo
	favoriteRepo     repository.FavoriteRepo
	sender           Sender
	logger           logger.Logger
}

func NewService(
	notificationRepo repository.NotificationRepo,
	favoriteRepo repository.FavoriteRepo,
	sender Sender,
	log logger.Logger,
) *NotificationService {
	if sender == nil {
		sender = LogSender{Logger: log}
	}

	return &NotificationService{
		notificationRepo: notificationRepo,
		favoriteRepo:     favoriteRepo,
		sender:           sender,
		logger:           log,
	}
}

// ExecutionFailed notifies every user watching the job about a failed
// execution: one stored notification plus one outbound message each.
// Delivery errors are logged and skipped, the stored rows stay.
func (s *NotificationService) ExecutionFailed(ctx context.Context, job models.Job, execution models.JobExecution) error {
	subject := FormatFailureSubject(job)
	body := FormatFailureBody(job, execution)

	users, err := s.favoriteRepo.ListUsersByJob(ctx, job.ID)
	if err != nil {
		return fmt.Errorf("can't list job watchers. Err: %w", err)
	}

	for _, user := range users {
		_, err := s.notificationRepo.Create(ctx, models.Notification{
			UserID:  user.ID,
			Subject: subject,
			Body:    body,
		})
		if err != nil {
			return fmt.Errorf("can't store notification. Err: %w", err)
		}

		if err := s.sender.Send(ctx, user.Email, subject, body); err != nil {
			s.logger.Error("Failed to send notification", "to", user.Email, "error", err)
		}
	}

	return nil
}

func (s *NotificationService) ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]models.Notification, error) {
	return s.notificationRepo.ListByUser(ctx, userID, unreadOnly)
}

func (s *NotificationService) MarkRead(ctx context.Context, id uuid.UUID, userID uuid.UUID) (models.Notification, error) {
	return s.notificationRepo.MarkRead(ctx, id, userID)
}

func FormatFailureSubject(job models.Job) string {
	return fmt.Sprintf("[jobwatch] Job %q failed", job.Name)
}

func FormatFailureBody(job models.Job, execution models.JobExecution) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Job %q failed.\n\n", job.Name)
	fmt.Fprintf(&b, "Started at: %s\n", execution.StartedAt.UTC().Format(time.RFC3339))
	if execution.FinishedAt != nil {
		fmt.Fprintf(&b, "Finished at: %s\n", execution.FinishedAt.UTC().Format(time.RFC3339))
	}
	fmt.Fprintf(&b, "Records processed: %d\n", execution.RecordsProcessed)
	if execution.ErrorMessage != "" {
		fmt.Fprintf(&b, "Error: %s\n", execution.ErrorMessage)
	}
	if execution.Source != "" {
		fmt.Fprintf(&b, "Source: %s\n", execution.Source)
	}

	return b.String()
}
