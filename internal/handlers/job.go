package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mkorobov/jobwatch/internal/apperrors"
	"github.com/mkorobov/jobwatch/internal/handlers/render"
	"github.com/mkorobov/jobwatch/internal/handlers/userctx"
	"github.com/mkorobov/jobwatch/internal/logger"
	"github.com/mkorobov/jobwatch/internal/models"
	"github.com/mkorobov/jobwatch/internal/repository"
)

func handleListJobs(jobService jobService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		opts := repository.ListJobsOpts{
			Name:   r.URL.Query().Get("name"),
			Limit:  queryInt(r, "limit", 0),
			Offset: queryInt(r, "offset", 0),
		}
		switch r.URL.Query().Get("enabled") {
		case "true":
			enabled := true
			opts.Enabled = &enabled
		case "false":
			enabled := false
			opts.Enabled = &enabled
		}

		jobs, err := jobService.ListJobs(r.Context(), opts)
		if err != nil {
			l.Error("Failed to list jobs", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, toJobResponses(jobs))
	})
}

func handleGetJob(jobService jobService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jobID, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		job, err := jobService.GetJob(r.Context(), jobID)
		switch {
		case err == nil:
			render.JSON(w, toJobResponse(job))
		case errors.Is(err, apperrors.ErrJobNotFound):
			render.ServiceError(w, "Job not found", http.StatusNotFound)
		default:
			l.Error("Failed to get job", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleCreateJob(jobService jobService, l logger.Logger) http.Handler {
	type request struct {
		Name        string `json:"name" validate:"required,min=1,max=200"`
		Description string `json:"description"`
		Schedule    string `json:"schedule"`
		Enabled     *bool  `json:"enabled"`
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

		enabled := true
		if data.Enabled != nil {
			enabled = *data.Enabled
		}

		job, err := jobService.CreateJob(r.Context(), repository.CreateJobParams{
			Name:        data.Name,
			Description: data.Description,
			Schedule:    data.Schedule,
			Enabled:     enabled,
			CreatedBy:   principal.Username,
		})
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrJobAlreadyExists):
				render.ServiceError(w, "Job name already taken", http.StatusConflict)
			default:
				l.Error("Failed to create job", "error", err)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSONWithStatus(w, toJobResponse(job), http.StatusCreated)
	})
}

func handleUpdateJob(jobService jobService, l logger.Logger) http.Handler {
	type request struct {
		Description *string `json:"description"`
		Schedule    *string `json:"schedule"`
		Enabled     *bool   `json:"enabled"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		jobID, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		job, err := jobService.UpdateJob(r.Context(), jobID, repository.UpdateJobParams{
			Description: data.Description,
			Schedule:    data.Schedule,
			Enabled:     data.Enabled,
			UpdatedBy:   principal.Username,
		})
		switch {
		case err == nil:
			render.JSON(w, toJobResponse(job))
		case errors.Is(err, apperrors.ErrJobNotFound):
			render.ServiceError(w, "Job not found", http.StatusNotFound)
		default:
			l.Error("Failed to update job", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleDeleteJob(jobService jobService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jobID, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		err := jobService.DeleteJob(r.Context(), jobID)
		switch {
		case err == nil:
			w.WriteHeader(http.StatusNoContent)
		case errors.Is(err, apperrors.ErrJobNotFound):
			render.ServiceError(w, "Job not found", http.StatusNotFound)
		default:
			l.Error("Failed to delete job", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

// handleImportExecution accepts an externally produced execution record
func handleImportExecution(jobService jobService, l logger.Logger) http.Handler {
	type request struct {
		Status           string          `json:"status" validate:"required,oneof=RUNNING SUCCESS FAILED"`
		StartedAt        time.Time       `json:"startedAt" validate:"required"`
		FinishedAt       *time.Time      `json:"finishedAt"`
		RecordsProcessed int64           `json:"recordsProcessed"`
		Cost             decimal.Decimal `json:"cost"`
		ErrorMessage     string          `json:"errorMessage"`
		Source           string          `json:"source"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jobID, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		saved, err := jobService.ImportExecution(r.Context(), jobID, models.JobExecution{
			Status:           data.Status,
			StartedAt:        data.StartedAt,
			FinishedAt:       data.FinishedAt,
			RecordsProcessed: data.RecordsProcessed,
			Cost:             data.Cost,
			ErrorMessage:     data.ErrorMessage,
			Source:           data.Source,
		})
		switch {
		case err == nil:
			render.JSONWithStatus(w, toExecutionResponse(saved), http.StatusCreated)
		case errors.Is(err, apperrors.ErrJobNotFound):
			render.ServiceError(w, "Job not found", http.StatusNotFound)
		default:
			l.Error("Failed to import execution", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleListExecutions(jobService jobService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jobID, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		executions, err := jobService.ListExecutions(r.Context(), jobID, repository.ListExecutionsOpts{
			Status: r.URL.Query().Get("status"),
			Limit:  queryInt(r, "limit", 0),
			Offset: queryInt(r, "offset", 0),
		})
		switch {
		case err == nil:
			out := make([]ExecutionResponse, 0, len(executions))
			for _, e := range executions {
				out = append(out, toExecutionResponse(e))
			}
			render.JSON(w, out)
		case errors.Is(err, apperrors.ErrJobNotFound):
			render.ServiceError(w, "Job not found", http.StatusNotFound)
		default:
			l.Error("Failed to list executions", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleJobStats(jobService jobService, l logger.Logger) http.Handler {
	type response struct {
		Total     int64           `json:"total"`
		Succeeded int64           `json:"succeeded"`
		Failed    int64           `json:"failed"`
		Running   int64           `json:"running"`
		TotalCost decimal.Decimal `json:"totalCost"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jobID, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		stats, err := jobService.JobStats(r.Context(), jobID)
		switch {
		case err == nil:
			render.JSON(w, response{
				Total:     stats.Total,
				Succeeded: stats.Succeeded,
				Failed:    stats.Failed,
				Running:   stats.Running,
				TotalCost: stats.TotalCost,
			})
		case errors.Is(err, apperrors.ErrJobNotFound):
			render.ServiceError(w, "Job not found", http.StatusNotFound)
		default:
			l.Error("Failed to get job stats", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleSystemStats(jobService jobService, l logger.Logger) http.Handler {
	type response struct {
		Users            int64           `json:"users"`
		Jobs             int64           `json:"jobs"`
		Executions       int64           `json:"executions"`
		FailedExecutions int64           `json:"failedExecutions"`
		TotalCost        decimal.Decimal `json:"totalCost"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stats, err := jobService.SystemStats(r.Context())
		if err != nil {
			l.Error("Failed to get system stats", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, response{
			Users:            stats.Users,
			Jobs:             stats.Jobs,
			Executions:       stats.Executions,
			FailedExecutions: stats.FailedExecutions,
			TotalCost:        stats.TotalCost,
		})
	})
}
