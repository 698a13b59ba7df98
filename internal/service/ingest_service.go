package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sendit2sri/artifact-os/internal/extractor"
	"github.com/sendit2sri/artifact-os/internal/model"
	"github.com/sendit2sri/artifact-os/internal/pkg/queue"
	"github.com/sendit2sri/artifact-os/internal/repository"
)

var ErrUnsupportedFile = errors.New("unsupported file type")

// EnqueueResult is the outcome of a submission: either a fresh PENDING job
// that was dispatched, or an existing/synthesized job flagged as duplicate.
type EnqueueResult struct {
	Job         *model.Job
	IsDuplicate bool
	Message     string
}

const duplicateMessage = "This source has already been added to this project"

// IngestService owns the enqueue contract: canonicalize, dedup against
// existing documents and jobs, then create and dispatch.
type IngestService struct {
	jobRepo *repository.JobRepository
	docRepo *repository.SourceDocRepository
	queue   *queue.Queue
}

func NewIngestService(jobRepo *repository.JobRepository, docRepo *repository.SourceDocRepository, q *queue.Queue) *IngestService {
	return &IngestService{jobRepo: jobRepo, docRepo: docRepo, queue: q}
}

// SubmitURL enqueues a URL ingest job. Submitting the same canonical URL
// twice never creates a second SourceDoc or a second live job.
func (s *IngestService) SubmitURL(ctx context.Context, projectID, workspaceID, rawURL string) (*EnqueueResult, error) {
	sourceType := extractor.DetectSourceType(rawURL)
	canonical := extractor.NormalizeURL(rawURL, sourceType)
	idempotencyKey := fmt.Sprintf("%s:%s", projectID, canonical)

	// Document-level dedup: the URL was already ingested to completion.
	existingDoc, err := s.docRepo.FindForIngest(projectID, canonical, rawURL)
	if err != nil {
		return nil, err
	}
	if existingDoc != nil {
		dupJob, err := s.synthesizeDuplicateJob(projectID, workspaceID, rawURL, canonical, sourceType, existingDoc)
		if err != nil {
			return nil, err
		}
		return &EnqueueResult{Job: dupJob, IsDuplicate: true, Message: duplicateMessage}, nil
	}

	// Job-level dedup: a job for this canonical is queued, running, or done.
	existingJob, err := s.jobRepo.GetByIdempotencyKey(projectID, idempotencyKey)
	if err != nil {
		return nil, err
	}
	if existingJob != nil {
		return &EnqueueResult{Job: existingJob, IsDuplicate: true, Message: duplicateMessage}, nil
	}

	job := &model.Job{
		ProjectID:      projectID,
		WorkspaceID:    workspaceID,
		Type:           model.JobTypeURLIngest,
		Status:         model.JobStatusPending,
		IdempotencyKey: idempotencyKey,
		CurrentStep:    model.StepQueued,
		StepsTotal:     model.DefaultStepsTotal,
		Params: model.JSONMap{
			"url":           rawURL,
			"source_type":   sourceType,
			"canonical_url": canonical,
		},
	}
	if err := s.jobRepo.Create(job); err != nil {
		// Insertion raced another submitter; the constraint decided the
		// winner, so re-read and return that row.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			winner, qErr := s.jobRepo.GetByIdempotencyKey(projectID, idempotencyKey)
			if qErr != nil {
				return nil, qErr
			}
			if winner != nil {
				return &EnqueueResult{Job: winner, IsDuplicate: true, Message: duplicateMessage}, nil
			}
		}
		return nil, err
	}

	if err := s.dispatch(ctx, job, rawURL, canonical, sourceType, "", ""); err != nil {
		return nil, err
	}
	return &EnqueueResult{Job: job}, nil
}

// SubmitFile enqueues an uploaded media file for transcription. The file
// must already be stored at filePath by the caller.
func (s *IngestService) SubmitFile(ctx context.Context, projectID, workspaceID, filePath, filename string) (*EnqueueResult, error) {
	if !extractor.IsMediaFile(filename) {
		return nil, ErrUnsupportedFile
	}

	job := &model.Job{
		ProjectID:      projectID,
		WorkspaceID:    workspaceID,
		Type:           model.JobTypeFileIngest,
		Status:         model.JobStatusPending,
		IdempotencyKey: fmt.Sprintf("%s:file:%s", projectID, filename),
		CurrentStep:    model.StepQueued,
		StepsTotal:     model.DefaultStepsTotal,
		Params: model.JSONMap{
			"filename":    filename,
			"path":        filePath,
			"source_type": model.SourceTypeMedia,
		},
	}
	if err := s.jobRepo.Create(job); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			winner, qErr := s.jobRepo.GetByIdempotencyKey(projectID, job.IdempotencyKey)
			if qErr != nil {
				return nil, qErr
			}
			if winner != nil {
				return &EnqueueResult{Job: winner, IsDuplicate: true, Message: duplicateMessage}, nil
			}
		}
		return nil, err
	}

	if err := s.dispatch(ctx, job, "", "", model.SourceTypeMedia, filePath, filename); err != nil {
		return nil, err
	}
	return &EnqueueResult{Job: job}, nil
}

// Retry creates a brand-new job for a previously failed canonical URL. The
// key carries a fresh suffix so the idempotency constraint never blocks a
// deliberate retry; failed jobs are never revived in place.
func (s *IngestService) Retry(ctx context.Context, projectID, workspaceID, rawURL string) (*EnqueueResult, error) {
	sourceType := extractor.DetectSourceType(rawURL)
	canonical := extractor.NormalizeURL(rawURL, sourceType)

	job := &model.Job{
		ProjectID:      projectID,
		WorkspaceID:    workspaceID,
		Type:           model.JobTypeURLIngest,
		Status:         model.JobStatusPending,
		IdempotencyKey: fmt.Sprintf("%s:%s:retry:%s", projectID, canonical, uuid.NewString()),
		CurrentStep:    model.StepQueued,
		StepsTotal:     model.DefaultStepsTotal,
		Params: model.JSONMap{
			"url":           rawURL,
			"source_type":   sourceType,
			"canonical_url": canonical,
			"retry":         true,
		},
	}
	if err := s.jobRepo.Create(job); err != nil {
		return nil, err
	}

	if err := s.dispatch(ctx, job, rawURL, canonical, sourceType, "", ""); err != nil {
		return nil, err
	}
	return &EnqueueResult{Job: job}, nil
}

// GetJob returns a job for polling.
func (s *IngestService) GetJob(jobID string) (*model.Job, error) {
	return s.jobRepo.GetByID(jobID)
}

// synthesizeDuplicateJob records an audit row for a submission that matched
// an existing document. It is born COMPLETED and never dispatched.
func (s *IngestService) synthesizeDuplicateJob(projectID, workspaceID, rawURL, canonical, sourceType string, doc *model.SourceDoc) (*model.Job, error) {
	title := doc.Title
	if title == "" {
		title = canonical
	}
	job := &model.Job{
		ProjectID:      projectID,
		WorkspaceID:    workspaceID,
		Type:           model.JobTypeURLIngest,
		Status:         model.JobStatusCompleted,
		IdempotencyKey: fmt.Sprintf("%s:dup:%s", projectID, uuid.NewString()),
		CurrentStep:    model.StepDone,
		StepsCompleted: model.DefaultStepsTotal,
		StepsTotal:     model.DefaultStepsTotal,
		Params: model.JSONMap{
			"url":           rawURL,
			"source_type":   sourceType,
			"canonical_url": canonical,
		},
		ResultSummary: model.JSONMap{
			"is_duplicate": true,
			"source_id":    doc.ID,
			"message":      "Already added",
			"source_title": title,
		},
	}
	if err := s.jobRepo.Create(job); err != nil {
		return nil, err
	}
	return job, nil
}

func (s *IngestService) dispatch(ctx context.Context, job *model.Job, rawURL, canonical, sourceType, filePath, filename string) error {
	return s.queue.Push(ctx, &queue.JobMessage{
		JobID:        job.ID,
		ProjectID:    job.ProjectID,
		WorkspaceID:  job.WorkspaceID,
		Type:         job.Type,
		URL:          rawURL,
		CanonicalURL: canonical,
		SourceType:   sourceType,
		FilePath:     filePath,
		Filename:     filename,
	})
}

// DomainOf extracts the host for display purposes, falling back to the raw
// string for unparseable input.
func DomainOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return rawURL
	}
	return parsed.Host
}
