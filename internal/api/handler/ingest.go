package handler

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sendit2sri/artifact-os/config"
	"github.com/sendit2sri/artifact-os/internal/model/dto"
	"github.com/sendit2sri/artifact-os/internal/pkg/response"
	"github.com/sendit2sri/artifact-os/internal/service"
)

type IngestHandler struct {
	ingestService *service.IngestService
	cfg           *config.Config
}

func NewIngestHandler(ingestService *service.IngestService, cfg *config.Config) *IngestHandler {
	return &IngestHandler{
		ingestService: ingestService,
		cfg:           cfg,
	}
}

// SubmitURL enqueues a URL for ingestion.
// POST /api/ingest
func (h *IngestHandler) SubmitURL(c *gin.Context) {
	var req dto.IngestURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	result, err := h.ingestService.SubmitURL(c.Request.Context(), req.ProjectID, req.WorkspaceID, req.URL)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, &dto.IngestResponse{
		JobID:       result.Job.ID,
		Status:      result.Job.Status,
		IsDuplicate: result.IsDuplicate,
		Message:     result.Message,
	})
}

// SubmitFile accepts a media upload and enqueues it for transcription.
// POST /api/ingest/file (multipart: project_id, workspace_id, file)
func (h *IngestHandler) SubmitFile(c *gin.Context) {
	projectID := c.PostForm("project_id")
	workspaceID := c.PostForm("workspace_id")
	if projectID == "" || workspaceID == "" {
		response.ParamError(c, "project_id and workspace_id are required")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.ParamError(c, "file is required")
		return
	}

	maxBytes := int64(h.cfg.Ingest.MaxMediaUploadMB) * 1024 * 1024
	if fileHeader.Size > maxBytes {
		response.ParamError(c, fmt.Sprintf("file exceeds the %dMB limit", h.cfg.Ingest.MaxMediaUploadMB))
		return
	}

	filename := filepath.Base(fileHeader.Filename)
	if err := os.MkdirAll(h.cfg.Ingest.UploadDir, 0o755); err != nil {
		response.ServerError(c, "")
		return
	}
	// Stored under a fresh name so concurrent uploads of the same filename
	// cannot clobber each other.
	storedPath := filepath.Join(h.cfg.Ingest.UploadDir, uuid.NewString()+filepath.Ext(filename))
	if err := c.SaveUploadedFile(fileHeader, storedPath); err != nil {
		response.ServerError(c, "")
		return
	}

	result, err := h.ingestService.SubmitFile(c.Request.Context(), projectID, workspaceID, storedPath, filename)
	if err != nil {
		os.Remove(storedPath)
		if errors.Is(err, service.ErrUnsupportedFile) {
			response.UnsupportedMediaError(c, err.Error())
			return
		}
		response.ServerError(c, "")
		return
	}

	response.Success(c, &dto.IngestResponse{
		JobID:       result.Job.ID,
		Status:      result.Job.Status,
		IsDuplicate: result.IsDuplicate,
		Message:     result.Message,
	})
}

// Retry re-runs ingestion for a URL. Always a new job.
// POST /api/ingest/retry
func (h *IngestHandler) Retry(c *gin.Context) {
	var req dto.RetryIngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	result, err := h.ingestService.Retry(c.Request.Context(), req.ProjectID, req.WorkspaceID, req.URL)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, &dto.IngestResponse{
		JobID:  result.Job.ID,
		Status: result.Job.Status,
	})
}

// GetJob returns the polling shape for one job.
// GET /api/jobs/:id
func (h *IngestHandler) GetJob(c *gin.Context) {
	job, err := h.ingestService.GetJob(c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFoundError(c, "job not found")
			return
		}
		response.ServerError(c, "")
		return
	}

	response.Success(c, dto.NewJobStatusResponse(job))
}
