package handler

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appsync "github.com/storefront/syncengine/internal/application/sync"
	"github.com/storefront/syncengine/internal/infrastructure/scheduler"
	"github.com/storefront/syncengine/internal/interfaces/http/dto"
)

// JobLookup resolves submitted jobs for status queries
type JobLookup interface {
	GetJob(id uuid.UUID) (*scheduler.Job, bool)
	GetJobHistory(limit int) []*scheduler.Job
}

// SyncHandler exposes the catalog synchronization operations
type SyncHandler struct {
	BaseHandler
	enqueuer scheduler.Enqueuer
	jobs     JobLookup
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(enqueuer scheduler.Enqueuer, jobs JobLookup) *SyncHandler {
	return &SyncHandler{enqueuer: enqueuer, jobs: jobs}
}

// RegisterRoutes registers the sync endpoints
func (h *SyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/sync")
	group.POST("/catalog", h.TriggerCatalogDownload)
	group.POST("/upload", h.TriggerCatalogUpload)
	group.GET("/jobs", h.ListJobs)
	group.GET("/jobs/:id", h.GetJob)
}

// JobResponse is the API view of a background job
type JobResponse struct {
	ID          string     `json:"id"`
	Type        string     `json:"type"`
	Status      string     `json:"status"`
	Progress    int        `json:"progress"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	RetryCount  int        `json:"retry_count,omitempty"`
}

func newJobResponse(job *scheduler.Job) JobResponse {
	return JobResponse{
		ID:          job.ID.String(),
		Type:        string(job.Type),
		Status:      string(job.Status),
		Progress:    job.Progress,
		Error:       job.Error,
		CreatedAt:   job.CreatedAt,
		StartedAt:   job.StartedAt,
		CompletedAt: job.CompletedAt,
		RetryCount:  job.RetryCount,
	}
}

// TriggerCatalogDownload queues a full catalog reconciliation pass
func (h *SyncHandler) TriggerCatalogDownload(c *gin.Context) {
	job, err := h.enqueuer.Enqueue(scheduler.JobTypeCatalogDownload, nil)
	if err != nil {
		h.handleEnqueueError(c, err)
		return
	}
	h.Accepted(c, newJobResponse(job))
}

// TriggerCatalogUpload queues a catalog upload. With only_updated=1 only
// recently edited products are sent.
func (h *SyncHandler) TriggerCatalogUpload(c *gin.Context) {
	params := map[string]string{}
	if c.Query("only_updated") == "1" {
		params[appsync.ParamOnlyUpdated] = "1"
	}

	job, err := h.enqueuer.Enqueue(scheduler.JobTypeCatalogUpload, params)
	if err != nil {
		h.handleEnqueueError(c, err)
		return
	}
	h.Accepted(c, newJobResponse(job))
}

// GetJob returns the status of one submitted job
func (h *SyncHandler) GetJob(c *gin.Context) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "Invalid job id")
		return
	}

	id, err := uuid.Parse(req.ID)
	if err != nil {
		h.BadRequest(c, "Invalid job id")
		return
	}

	job, ok := h.jobs.GetJob(id)
	if !ok {
		h.NotFound(c, "Job not found")
		return
	}
	h.Success(c, newJobResponse(job))
}

// ListJobs returns recent job history, newest first
func (h *SyncHandler) ListJobs(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			h.BadRequest(c, "limit must be between 1 and 100")
			return
		}
		limit = parsed
	}

	history := h.jobs.GetJobHistory(limit)
	jobs := make([]JobResponse, 0, len(history))
	for _, job := range history {
		jobs = append(jobs, newJobResponse(job))
	}
	h.Success(c, jobs)
}

func (h *SyncHandler) handleEnqueueError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, scheduler.ErrJobQueueFull):
		h.TooManyRequests(c, "Job queue is full, try again later")
	case errors.Is(err, scheduler.ErrSchedulerNotRunning):
		h.Error(c, 503, dto.ErrCodeServiceUnavailable, "Background scheduler is not running")
	default:
		h.InternalError(c, "Failed to queue job")
	}
}
