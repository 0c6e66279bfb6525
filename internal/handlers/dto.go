package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mkorobov/jobwatch/internal/handlers/render"
	"github.com/mkorobov/jobwatch/internal/models"
)

// Response shapes shared by the user and admin surfaces

type UserResponse struct {
	ID                 uuid.UUID `json:"id"`
	Username           string    `json:"username"`
	Email              string    `json:"email"`
	Role               string    `json:"role"`
	Enabled            bool      `json:"enabled"`
	Locked             bool      `json:"locked"`
	CredentialsExpired bool      `json:"credentialsExpired"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
	CreatedBy          string    `json:"createdBy"`
	UpdatedBy          string    `json:"updatedBy"`
}

func toUserResponse(u models.User) UserResponse {
	return UserResponse{
		ID:                 u.ID,
		Username:           u.Username,
		Email:              u.Email,
		Role:               u.Role,
		Enabled:            u.Enabled,
		Locked:             u.Locked,
		CredentialsExpired: u.CredentialsExpired,
		CreatedAt:          u.CreatedAt,
		UpdatedAt:          u.UpdatedAt,
		CreatedBy:          u.CreatedBy,
		UpdatedBy:          u.UpdatedBy,
	}
}

type JobResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Schedule    string    `json:"schedule,omitempty"`
	Enabled     bool      `json:"enabled"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	CreatedBy   string    `json:"createdBy"`
	UpdatedBy   string    `json:"updatedBy"`
}

func toJobResponse(j models.Job) JobResponse {
	return JobResponse{
		ID:          j.ID,
		Name:        j.Name,
		Description: j.Description,
		Schedule:    j.Schedule,
		Enabled:     j.Enabled,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
		CreatedBy:   j.CreatedBy,
		UpdatedBy:   j.UpdatedBy,
	}
}

func toJobResponses(jobs []models.Job) []JobResponse {
	out := make([]JobResponse, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, toJobResponse(j))
	}
	return out
}

type ExecutionResponse struct {
	ID               uuid.UUID       `json:"id"`
	JobID            uuid.UUID       `json:"jobId"`
	Status           string          `json:"status"`
	StartedAt        time.Time       `json:"startedAt"`
	FinishedAt       *time.Time      `json:"finishedAt,omitempty"`
	RecordsProcessed int64           `json:"recordsProcessed"`
	Cost             decimal.Decimal `json:"cost"`
	ErrorMessage     string          `json:"errorMessage,omitempty"`
	Source           string          `json:"source,omitempty"`
}

func toExecutionResponse(e models.JobExecution) ExecutionResponse {
	return ExecutionResponse{
		ID:               e.ID,
		JobID:            e.JobID,
		Status:           e.Status,
		StartedAt:        e.StartedAt,
		FinishedAt:       e.FinishedAt,
		RecordsProcessed: e.RecordsProcessed,
		Cost:             e.Cost,
		ErrorMessage:     e.ErrorMessage,
		Source:           e.Source,
	}
}

type NotificationResponse struct {
	ID        uuid.UUID  `json:"id"`
	Subject   string     `json:"subject"`
	Body      string     `json:"body"`
	CreatedAt time.Time  `json:"createdAt"`
	ReadAt    *time.Time `json:"readAt,omitempty"`
}

func toNotificationResponse(n models.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		Subject:   n.Subject,
		Body:      n.Body,
		CreatedAt: n.CreatedAt,
		ReadAt:    n.ReadAt,
	}
}

// pathID parses the named path value as UUID and renders a 400 on failure
func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		render.ServiceError(w, "Invalid "+name+" in path", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

// queryInt reads an integer query parameter, falling back on absence or junk
func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}

	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}
