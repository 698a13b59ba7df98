package testutil

import (
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/sendit2sri/artifact-os/internal/model"
)

// TestWorkspace inserts a workspace.
func TestWorkspace(t *testing.T, db *gorm.DB) *model.Workspace {
	t.Helper()

	ws := &model.Workspace{Name: "Test Workspace"}
	if err := db.Create(ws).Error; err != nil {
		t.Fatalf("Failed to create test workspace: %v", err)
	}
	return ws
}

// TestProject inserts a project under the workspace.
func TestProject(t *testing.T, db *gorm.DB, workspaceID string) *model.Project {
	t.Helper()

	p := &model.Project{WorkspaceID: workspaceID, Title: "Test Project"}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("Failed to create test project: %v", err)
	}
	return p
}

// TestJob inserts a job with the given status.
func TestJob(t *testing.T, db *gorm.DB, workspaceID, projectID, status string) *model.Job {
	t.Helper()

	job := &model.Job{
		WorkspaceID:    workspaceID,
		ProjectID:      projectID,
		Type:           model.JobTypeURLIngest,
		Status:         status,
		IdempotencyKey: fmt.Sprintf("%s:test:%d", projectID, time.Now().UnixNano()),
	}
	if err := db.Create(job).Error; err != nil {
		t.Fatalf("Failed to create test job: %v", err)
	}
	return job
}

// TestSourceDoc inserts a source doc keyed by the canonical URL.
func TestSourceDoc(t *testing.T, db *gorm.DB, workspaceID, projectID, canonicalURL string) *model.SourceDoc {
	t.Helper()

	doc := &model.SourceDoc{
		ProjectID:    projectID,
		WorkspaceID:  workspaceID,
		URL:          canonicalURL,
		CanonicalURL: canonicalURL,
		Domain:       "example.com",
		Title:        "Test Doc",
		SourceType:   model.SourceTypeWeb,
		TextRaw:      "test content",
	}
	if err := db.Create(doc).Error; err != nil {
		t.Fatalf("Failed to create test source doc: %v", err)
	}
	return doc
}

// TestFact inserts a research node with sane defaults.
func TestFact(t *testing.T, db *gorm.DB, projectID, sourceDocID, factText string) *model.ResearchNode {
	t.Helper()

	node := &model.ResearchNode{
		ProjectID:       projectID,
		SourceDocID:     sourceDocID,
		FactText:        factText,
		ConfidenceScore: 85,
		ReviewStatus:    model.ReviewStatusPending,
	}
	if err := db.Create(node).Error; err != nil {
		t.Fatalf("Failed to create test fact: %v", err)
	}
	return node
}
