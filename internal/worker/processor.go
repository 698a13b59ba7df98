package worker

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	neturl "net/url"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/sendit2sri/artifact-os/config"
	"github.com/sendit2sri/artifact-os/internal/extractor"
	"github.com/sendit2sri/artifact-os/internal/facts"
	"github.com/sendit2sri/artifact-os/internal/model"
	"github.com/sendit2sri/artifact-os/internal/pkg/evidence"
	"github.com/sendit2sri/artifact-os/internal/pkg/pubsub"
	"github.com/sendit2sri/artifact-os/internal/pkg/queue"
	"github.com/sendit2sri/artifact-os/internal/repository"
)

// Extractors bundles the per-source-type content extractors.
type Extractors struct {
	Web     *extractor.WebExtractor
	Reddit  *extractor.RedditExtractor
	YouTube *extractor.YouTubeExtractor
	Media   *extractor.MediaExtractor
}

// Processor executes one ingestion job end to end: extract content, upsert
// the document, extract facts, persist them with evidence anchors. Every
// step transition is written immediately so pollers see live progress, and
// every failure path leaves the job terminal.
type Processor struct {
	jobRepo    *repository.JobRepository
	docRepo    *repository.SourceDocRepository
	nodeRepo   *repository.NodeRepository
	extractors Extractors
	facts      facts.Extractor
	publisher  *pubsub.Publisher
	cfg        *config.Config
}

func NewProcessor(
	jobRepo *repository.JobRepository,
	docRepo *repository.SourceDocRepository,
	nodeRepo *repository.NodeRepository,
	extractors Extractors,
	factExtractor facts.Extractor,
	publisher *pubsub.Publisher,
	cfg *config.Config,
) *Processor {
	return &Processor{
		jobRepo:    jobRepo,
		docRepo:    docRepo,
		nodeRepo:   nodeRepo,
		extractors: extractors,
		facts:      factExtractor,
		publisher:  publisher,
		cfg:        cfg,
	}
}

// Process runs one job under the configured time limits. The soft limit is
// a context deadline the steps observe; the hard limit is a watchdog that
// force-fails the job so it can never be left RUNNING.
func (p *Processor) Process(ctx context.Context, msg *queue.JobMessage) error {
	job, err := p.jobRepo.GetByID(msg.JobID)
	if err != nil {
		return fmt.Errorf("failed to load job %s: %w", msg.JobID, err)
	}
	if job.Status != model.JobStatusPending {
		// Already picked up, finished, or cancelled before dispatch.
		return nil
	}

	soft := time.Duration(p.cfg.Ingest.SoftTimeLimitSeconds) * time.Second
	hard := time.Duration(p.cfg.Ingest.HardTimeLimitSeconds) * time.Second
	jobCtx, cancel := context.WithTimeout(ctx, soft)
	defer cancel()

	done := make(chan struct{})
	defer close(done)
	go p.watchdog(job.ID, hard, done)

	switch job.Type {
	case model.JobTypeURLIngest:
		err = p.processURL(jobCtx, job, msg)
	case model.JobTypeFileIngest:
		err = p.processFile(jobCtx, job, msg)
	default:
		err = p.fail(ctx, job, model.ErrCodeUnsupported, fmt.Sprintf("unknown job type %q", job.Type), nil)
	}
	return err
}

// watchdog force-fails the job if it is still RUNNING past the hard limit.
func (p *Processor) watchdog(jobID string, hard time.Duration, done <-chan struct{}) {
	select {
	case <-done:
		return
	case <-time.After(hard):
	}
	job, err := p.jobRepo.GetByID(jobID)
	if err != nil || job == nil {
		return
	}
	if job.Status == model.JobStatusRunning || job.Status == model.JobStatusPending {
		log.Printf("job %s exceeded hard time limit, force-failing", jobID)
		_ = p.jobRepo.MarkFailed(jobID, model.ErrCodeNetwork,
			"Job exceeded its time limit.", nil)
	}
}

func (p *Processor) processURL(ctx context.Context, job *model.Job, msg *queue.JobMessage) error {
	url := msg.URL
	sourceType := msg.SourceType
	canonical := msg.CanonicalURL
	if url == "" {
		url, _ = job.Params["url"].(string)
	}
	if sourceType == "" {
		sourceType = extractor.DetectSourceType(url)
	}
	if canonical == "" {
		canonical = extractor.NormalizeURL(url, sourceType)
	}

	// Re-check for an existing document before any network I/O: covers the
	// enqueue-to-dispatch race window.
	existing, err := p.docRepo.FindForIngest(job.ProjectID, canonical, url)
	if err != nil {
		return p.fail(ctx, job, model.ErrCodeUnsupported, err.Error(), nil)
	}
	if existing != nil {
		title := existing.Title
		if title == "" {
			title = canonical
		}
		summary := model.JSONMap{
			"is_duplicate": true,
			"source_id":    existing.ID,
			"source_title": title,
			"source_type":  sourceType,
		}
		if err := p.jobRepo.MarkCompleted(job.ID, summary); err != nil {
			return err
		}
		p.publish(ctx, job, model.JobStatusCompleted, model.StepDone, model.DefaultStepsTotal, "")
		return nil
	}

	if err := p.jobRepo.MarkRunning(job.ID); err != nil {
		return err
	}
	p.publish(ctx, job, model.JobStatusRunning, model.StepQueued, 0, "")

	content, err := p.extractContent(ctx, job, url, sourceType)
	if err != nil {
		return p.failExtraction(ctx, job, sourceType, content, err)
	}
	if content.TextRaw == "" {
		return p.fail(ctx, job, model.ErrCodeEmptyContent,
			"No content could be extracted from this page.", nil)
	}

	doc, err := p.upsertDoc(job, url, canonical, sourceType, content)
	if err != nil {
		return p.fail(ctx, job, model.ErrCodeUnsupported, err.Error(), nil)
	}

	return p.extractAndSaveFacts(ctx, job, doc, content, model.JSONMap{
		"source_title": content.Title,
		"source_type":  sourceType,
		"content_formats": model.JSONMap{
			"has_markdown": content.Markdown != "",
			"has_html":     content.HTMLClean != "",
		},
	})
}

func (p *Processor) processFile(ctx context.Context, job *model.Job, msg *queue.JobMessage) error {
	filePath := msg.FilePath
	filename := msg.Filename
	if filePath == "" {
		filePath, _ = job.Params["path"].(string)
	}
	if filename == "" {
		filename, _ = job.Params["filename"].(string)
	}
	if filePath == "" {
		return p.fail(ctx, job, model.ErrCodeUnsupported, "Missing file path", job.Params)
	}

	if err := p.jobRepo.MarkRunning(job.ID); err != nil {
		return err
	}
	p.publish(ctx, job, model.JobStatusRunning, model.StepQueued, 0, "")

	if err := p.step(ctx, job, model.StepExtracting, 2); err != nil {
		return err
	}

	content, err := p.extractors.Media.Extract(ctx, filePath, filename)
	if err != nil {
		if errors.Is(err, extractor.ErrEmptyContent) {
			return p.fail(ctx, job, model.ErrCodeEmptyContent, "No speech could be transcribed.", job.Params)
		}
		return p.fail(ctx, job, ClassifyMedia(err.Error()), err.Error(), job.Params)
	}

	hash := contentHash(content.TextRaw)
	mediaURL := fmt.Sprintf("media://%s/%s", job.ProjectID, hash)

	// Identical bytes transcribe to the same canonical identity, so a
	// re-upload refreshes the existing document instead of duplicating it.
	doc, err := p.upsertDoc(job, mediaURL, mediaURL, model.SourceTypeMedia, content)
	if err != nil {
		return p.fail(ctx, job, model.ErrCodeUnsupported, err.Error(), job.Params)
	}

	return p.extractAndSaveFacts(ctx, job, doc, content, model.JSONMap{
		"source_title": content.Title,
		"source_type":  model.SourceTypeMedia,
	})
}

// extractContent runs the per-source-type extraction with its step
// transitions. Web sources get a distinct FETCHING phase; thread and video
// sources fetch inside their extractor.
func (p *Processor) extractContent(ctx context.Context, job *model.Job, url, sourceType string) (*extractor.Content, error) {
	switch sourceType {
	case model.SourceTypeWeb:
		if err := p.step(ctx, job, model.StepFetching, 1); err != nil {
			return nil, err
		}
		content, err := p.extractors.Web.Extract(url)
		if err != nil {
			return nil, err
		}
		if err := p.step(ctx, job, model.StepExtracting, 2); err != nil {
			return nil, err
		}
		return content, nil

	case model.SourceTypeReddit:
		if err := p.step(ctx, job, model.StepExtracting, 2); err != nil {
			return nil, err
		}
		return p.extractors.Reddit.Extract(url)

	case model.SourceTypeYouTube:
		if err := p.step(ctx, job, model.StepExtracting, 2); err != nil {
			return nil, err
		}
		return p.extractors.YouTube.Extract(url)

	default:
		return nil, fmt.Errorf("unsupported source type %q", sourceType)
	}
}

// failExtraction maps extraction errors onto the failure vocabulary. A
// transcript-disabled video keeps its title in the summary so the UI can
// name what failed.
func (p *Processor) failExtraction(ctx context.Context, job *model.Job, sourceType string, content *extractor.Content, err error) error {
	if errors.Is(err, extractor.ErrTranscriptDisabled) {
		summary := model.JSONMap{"source_type": sourceType}
		if content != nil && content.Title != "" {
			summary["source_title"] = content.Title
		}
		return p.fail(ctx, job, model.ErrCodeTranscriptDisabled,
			"Captions not available, upload an audio file instead", summary)
	}
	if errors.Is(err, extractor.ErrEmptyContent) {
		return p.fail(ctx, job, model.ErrCodeEmptyContent,
			"No content could be extracted from this page.", nil)
	}
	return p.fail(ctx, job, Classify(err.Error()), err.Error(), nil)
}

// upsertDoc stores extracted content under the canonical URL, updating in
// place when a document already exists for it.
func (p *Processor) upsertDoc(job *model.Job, url, canonical, sourceType string, content *extractor.Content) (*model.SourceDoc, error) {
	doc, err := p.docRepo.FindForIngest(job.ProjectID, canonical, url)
	if err != nil {
		return nil, err
	}

	if doc != nil {
		doc.Title = content.Title
		doc.SourceType = sourceType
		doc.CanonicalURL = canonical
		doc.TextRaw = content.TextRaw
		doc.Markdown = content.Markdown
		doc.HTMLClean = content.HTMLClean
		doc.ContentHash = contentHash(content.TextRaw)
		if content.Metadata != nil {
			doc.Metadata = model.JSONMap(content.Metadata)
		}
		if err := p.docRepo.Update(doc); err != nil {
			return nil, err
		}
		return doc, nil
	}

	storeURL := canonical
	if storeURL == "" {
		storeURL = url
	}
	domain := domainOf(storeURL)
	if sourceType == model.SourceTypeMedia {
		domain = "media"
	}
	doc = &model.SourceDoc{
		ProjectID:    job.ProjectID,
		WorkspaceID:  job.WorkspaceID,
		URL:          storeURL,
		CanonicalURL: canonical,
		Domain:       domain,
		Title:        content.Title,
		SourceType:   sourceType,
		Metadata:     model.JSONMap(content.Metadata),
		TextRaw:      content.TextRaw,
		Markdown:     content.Markdown,
		HTMLClean:    content.HTMLClean,
		ContentHash:  contentHash(content.TextRaw),
	}
	if err := p.docRepo.Create(doc); err != nil {
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, err
		}
		// Lost a create race on (project_id, canonical_url); the winner's
		// row owns this identity now, refresh it in place.
		winner, qErr := p.docRepo.FindForIngest(job.ProjectID, canonical, storeURL)
		if qErr != nil {
			return nil, qErr
		}
		if winner == nil {
			return nil, err
		}
		doc.ID = winner.ID
		doc.CreatedAt = winner.CreatedAt
		if err := p.docRepo.Update(doc); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// extractAndSaveFacts runs the FACTING phase and completes the job. A
// malformed candidate fact is skipped, never fatal: the job completes with
// a reduced facts_count.
func (p *Processor) extractAndSaveFacts(ctx context.Context, job *model.Job, doc *model.SourceDoc, content *extractor.Content, summary model.JSONMap) error {
	if err := p.step(ctx, job, model.StepFacting, 3); err != nil {
		return err
	}

	input := content.TextRaw
	if max := p.cfg.LLM.MaxChars; max > 0 && len(input) > max {
		input = truncate(input, max)
	}
	result, err := p.facts.ExtractFacts(ctx, input)
	if err != nil {
		return p.fail(ctx, job, Classify(err.Error()), err.Error(), summary)
	}

	if err := p.step(ctx, job, model.StepFacting, 4); err != nil {
		return err
	}

	savedCount := 0
	autoFlagged := 0
	for _, candidate := range result.Facts {
		node, flagged := p.buildFact(job, doc, content, candidate)
		if err := p.nodeRepo.Create(node); err != nil {
			log.Printf("job %s: skipping fact %q: %v", job.ID, truncate(candidate.FactText, 30), err)
			continue
		}
		savedCount++
		if flagged {
			autoFlagged++
		}
	}

	summary["facts_count"] = savedCount
	summary["auto_flagged_count"] = autoFlagged
	summary["summary"] = result.SummaryBrief

	if err := p.jobRepo.MarkCompleted(job.ID, summary); err != nil {
		return err
	}
	p.publish(ctx, job, model.JobStatusCompleted, model.StepDone, model.DefaultStepsTotal, "")
	log.Printf("job %s: completed, %d facts saved, %d flagged", job.ID, savedCount, autoFlagged)
	return nil
}

// buildFact turns one candidate into a persistable node: numeric confidence,
// initial review status, evidence anchors in both representations, and a
// resolved per-fact source URL.
func (p *Processor) buildFact(job *model.Job, doc *model.SourceDoc, content *extractor.Content, candidate facts.CandidateFact) (*model.ResearchNode, bool) {
	score := facts.ScoreForConfidence(candidate.Confidence)
	reviewStatus := model.ReviewStatusForScore(score)

	node := &model.ResearchNode{
		ProjectID:       job.ProjectID,
		SourceDocID:     doc.ID,
		FactText:        candidate.FactText,
		QuoteTextRaw:    candidate.QuoteSpan,
		EvidenceSnippet: evidence.Snippet(candidate.QuoteSpan),
		ConfidenceScore: score,
		ReviewStatus:    reviewStatus,
		Tags:            candidate.Tags,
		IsKeyClaim:      candidate.IsKeyClaim,
		SectionContext:  candidate.SectionContext,
	}

	if candidate.QuoteSpan != "" {
		if loc, ok := evidence.Locate(content.TextRaw, candidate.QuoteSpan); ok {
			node.EvidenceStartRaw, node.EvidenceEndRaw = intPtr(loc.Start), intPtr(loc.End)
		}
		if content.Markdown != "" {
			if loc, ok := evidence.Locate(content.Markdown, candidate.QuoteSpan); ok {
				node.EvidenceStartMD, node.EvidenceEndMD = intPtr(loc.Start), intPtr(loc.End)
			}
		}
	}

	sectCtx, sourceURL := extractor.ResolveFactSource(
		candidate.SectionContext, doc.SourceType, content.Metadata, doc.URL)
	if sectCtx != "" {
		node.SectionContext = sectCtx
	}
	node.SourceURL = sourceURL

	return node, reviewStatus == model.ReviewStatusNeedsReview
}

// step persists a transition and publishes it.
func (p *Processor) step(ctx context.Context, job *model.Job, step string, completed int) error {
	if err := ctx.Err(); err != nil {
		return p.fail(ctx, job, model.ErrCodeNetwork, "Job exceeded its time limit.", nil)
	}
	if err := p.jobRepo.UpdateStep(job.ID, step, completed); err != nil {
		return err
	}
	p.publish(ctx, job, model.JobStatusRunning, step, completed, "")
	return nil
}

// fail moves the job to FAILED with a classified code and capped message,
// then reports the failure to watchers. Returns nil: a failed job is a
// handled outcome, not a processing error.
func (p *Processor) fail(ctx context.Context, job *model.Job, code, message string, summary model.JSONMap) error {
	message = CapMessage(message)
	if err := p.jobRepo.MarkFailed(job.ID, code, message, summary); err != nil {
		return err
	}
	p.publish(context.WithoutCancel(ctx), job, model.JobStatusFailed, model.StepFailed, job.StepsCompleted, message)
	log.Printf("job %s: failed with %s: %s", job.ID, code, message)
	return nil
}

func (p *Processor) publish(ctx context.Context, job *model.Job, status, step string, completed int, errMsg string) {
	if p.publisher == nil {
		return
	}
	_ = p.publisher.PublishProgress(ctx, &pubsub.ProgressMessage{
		ProjectID:      job.ProjectID,
		WorkspaceID:    job.WorkspaceID,
		JobID:          job.ID,
		Status:         status,
		Step:           step,
		StepsCompleted: completed,
		StepsTotal:     job.StepsTotal,
		Error:          errMsg,
	})
}

func contentHash(text string) string {
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}

func domainOf(rawURL string) string {
	parsed, err := neturl.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return rawURL
	}
	return parsed.Host
}

// truncate caps s at n bytes, backing up so a multi-byte rune is never
// split at the boundary.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func intPtr(v int) *int {
	return &v
}
