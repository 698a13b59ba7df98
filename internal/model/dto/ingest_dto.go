package dto

import "github.com/sendit2sri/artifact-os/internal/model"

// IngestURLRequest submits one URL for ingestion.
type IngestURLRequest struct {
	ProjectID   string `json:"project_id" binding:"required"`
	WorkspaceID string `json:"workspace_id" binding:"required"`
	URL         string `json:"url" binding:"required,max=2000"`
}

// RetryIngestRequest re-runs ingestion for a previously submitted URL.
type RetryIngestRequest struct {
	ProjectID   string `json:"project_id" binding:"required"`
	WorkspaceID string `json:"workspace_id" binding:"required"`
	URL         string `json:"url" binding:"required,max=2000"`
}

// IngestResponse is returned for every submission, fresh or deduplicated.
type IngestResponse struct {
	JobID       string `json:"job_id"`
	Status      string `json:"status"`
	IsDuplicate bool   `json:"is_duplicate"`
	Message     string `json:"message,omitempty"`
}

// JobStatusResponse is the polling shape.
type JobStatusResponse struct {
	ID             string        `json:"id"`
	Status         string        `json:"status"`
	CurrentStep    string        `json:"current_step"`
	StepsCompleted int           `json:"steps_completed"`
	StepsTotal     int           `json:"steps_total"`
	ResultSummary  model.JSONMap `json:"result_summary,omitempty"`
}

// DedupResponse reports one suppression pass.
type DedupResponse struct {
	Scanned         int `json:"scanned"`
	GroupsFormed    int `json:"groups_formed"`
	FactsSuppressed int `json:"facts_suppressed"`
}

// FactGroupItem is one lexical group in the preview listing.
type FactGroupItem struct {
	GroupID     string     `json:"group_id"`
	CanonicalID string     `json:"canonical_id"`
	Members     []FactItem `json:"members"`
}

// FactItem is the compact fact shape used in group listings.
type FactItem struct {
	ID              string `json:"id"`
	FactText        string `json:"fact_text"`
	ConfidenceScore int    `json:"confidence_score"`
	IsKeyClaim      bool   `json:"is_key_claim"`
	IsPinned        bool   `json:"is_pinned"`
}

func NewJobStatusResponse(job *model.Job) *JobStatusResponse {
	return &JobStatusResponse{
		ID:             job.ID,
		Status:         job.Status,
		CurrentStep:    job.CurrentStep,
		StepsCompleted: job.StepsCompleted,
		StepsTotal:     job.StepsTotal,
		ResultSummary:  job.ResultSummary,
	}
}
