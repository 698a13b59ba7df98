package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Job statuses.
const (
	JobStatusPending   = "PENDING"
	JobStatusRunning   = "RUNNING"
	JobStatusCompleted = "COMPLETED"
	JobStatusFailed    = "FAILED"
	JobStatusCancelled = "CANCELLED"
)

// Job types.
const (
	JobTypeURLIngest  = "url_ingest"
	JobTypeFileIngest = "file_ingest"
)

// DefaultStepsTotal is the number of steps in the ingestion pipeline.
const DefaultStepsTotal = 5

// Pipeline steps, persisted on the job so pollers see live progress.
const (
	StepQueued     = "QUEUED"
	StepFetching   = "FETCHING"
	StepExtracting = "EXTRACTING"
	StepFacting    = "FACTING"
	StepDone       = "DONE"
	StepFailed     = "FAILED"
)

// Terminal error codes for failed ingestion jobs. Presentation layers key
// actionable guidance off this fixed vocabulary.
const (
	ErrCodeNetwork            = "NETWORK"
	ErrCodeRateLimit          = "RATE_LIMIT"
	ErrCodePaywall            = "PAYWALL"
	ErrCodeUnsupported        = "UNSUPPORTED"
	ErrCodeEmptyContent       = "EMPTY_CONTENT"
	ErrCodeTranscriptDisabled = "TRANSCRIPT_DISABLED"
	ErrCodeTranscriptFailed   = "TRANSCRIPT_FAILED"
)

// Job is one unit of asynchronous ingestion work. Jobs are never revived:
// a retry is always a new row against the same canonical URL.
type Job struct {
	ID          string `gorm:"type:char(36);primaryKey" json:"id"`
	WorkspaceID string `gorm:"type:char(36);not null" json:"workspace_id"`
	ProjectID   string `gorm:"type:char(36);not null;uniqueIndex:uniq_job_project_idem" json:"project_id"`

	Type   string `gorm:"size:30;not null" json:"type"`
	Status string `gorm:"size:20;not null;default:PENDING;index" json:"status"`

	// Unique per project; the store constraint is the source of truth for
	// concurrent duplicate submissions.
	IdempotencyKey string `gorm:"size:700;not null;uniqueIndex:uniq_job_project_idem" json:"idempotency_key"`

	CurrentStep    string `gorm:"size:30;default:QUEUED" json:"current_step"`
	StepsCompleted int    `gorm:"default:0" json:"steps_completed"`
	StepsTotal     int    `gorm:"default:5" json:"steps_total"`

	Params        JSONMap `gorm:"type:text" json:"params,omitempty"`
	ResultSummary JSONMap `gorm:"type:text" json:"result_summary,omitempty"`

	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (Job) TableName() string {
	return "jobs"
}

func (j *Job) BeforeCreate(tx *gorm.DB) error {
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	return nil
}
