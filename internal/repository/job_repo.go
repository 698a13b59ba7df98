package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/sendit2sri/artifact-os/internal/model"
)

type JobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create inserts a job. A gorm.ErrDuplicatedKey result means another
// submission won the (project_id, idempotency_key) race.
func (r *JobRepository) Create(job *model.Job) error {
	return r.db.Create(job).Error
}

func (r *JobRepository) GetByID(id string) (*model.Job, error) {
	var job model.Job
	err := r.db.Where("id = ?", id).First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// GetByIdempotencyKey returns (nil, nil) when no job holds the key.
func (r *JobRepository) GetByIdempotencyKey(projectID, key string) (*model.Job, error) {
	var job model.Job
	err := r.db.Where("project_id = ? AND idempotency_key = ?", projectID, key).First(&job).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

func (r *JobRepository) Update(job *model.Job) error {
	return r.db.Save(job).Error
}

// MarkRunning transitions the job to RUNNING and stamps started_at.
func (r *JobRepository) MarkRunning(id string) error {
	now := time.Now()
	return r.db.Model(&model.Job{}).Where("id = ?", id).Updates(map[string]any{
		"status":       model.JobStatusRunning,
		"current_step": model.StepQueued,
		"started_at":   &now,
	}).Error
}

// UpdateStep persists a single step transition immediately so a poller sees
// live progress.
func (r *JobRepository) UpdateStep(id, step string, stepsCompleted int) error {
	return r.db.Model(&model.Job{}).Where("id = ?", id).Updates(map[string]any{
		"current_step":    step,
		"steps_completed": stepsCompleted,
	}).Error
}

// MarkCompleted finalizes a successful job with its result summary.
func (r *JobRepository) MarkCompleted(id string, summary model.JSONMap) error {
	now := time.Now()
	return r.db.Model(&model.Job{}).Where("id = ?", id).Updates(map[string]any{
		"status":          model.JobStatusCompleted,
		"current_step":    model.StepDone,
		"steps_completed": 5,
		"result_summary":  summary,
		"completed_at":    &now,
	}).Error
}

// MarkFailed finalizes a failed job with an error code and capped message.
func (r *JobRepository) MarkFailed(id, errorCode, errorMessage string, summary model.JSONMap) error {
	if summary == nil {
		summary = model.JSONMap{}
	}
	summary["error_code"] = errorCode
	summary["error_message"] = errorMessage

	now := time.Now()
	return r.db.Model(&model.Job{}).Where("id = ?", id).Updates(map[string]any{
		"status":         model.JobStatusFailed,
		"current_step":   model.StepFailed,
		"result_summary": summary,
		"completed_at":   &now,
	}).Error
}

func (r *JobRepository) ListByProject(projectID string) ([]*model.Job, error) {
	var jobs []*model.Job
	err := r.db.Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&jobs).Error
	return jobs, err
}
