package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Job is a monitored job definition. Jobs are never executed by this
// service; execution records arrive from external imports.
type Job struct {
	ID          uuid.UUID
	Name        string
	Description string
	Schedule    string // cron expression, display only
	Enabled     bool

	CreatedAt time.Time
	UpdatedAt time.Time
	CreatedBy string
	UpdatedBy string
}

const (
	ExecutionStatusRunning = "RUNNING"
	ExecutionStatusSuccess = "SUCCESS"
	ExecutionStatusFailed  = "FAILED"
)

type JobExecution struct {
	ID               uuid.UUID
	JobID            uuid.UUID
	Status           string
	StartedAt        time.Time
	FinishedAt       *time.Time // nil while status is RUNNING
	RecordsProcessed int64
	Cost             decimal.Decimal
	ErrorMessage     string
	Source           string // import origin, e.g. csv file name
}

// JobStats aggregates executions of a single job.
type JobStats struct {
	Total     int64
	Succeeded int64
	Failed    int64
	Running   int64
	TotalCost decimal.Decimal
}

// SystemStats is the admin dashboard summary.
type SystemStats struct {
	Users            int64
	Jobs             int64
	Executions       int64
	FailedExecutions int64
	TotalCost        decimal.Decimal
}

type Favorite struct {
	UserID    uuid.UUID
	JobID     uuid.UUID
	CreatedAt time.Time
}
