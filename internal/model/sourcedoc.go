package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Source types. MEDIA covers uploaded audio/video files.
const (
	SourceTypeWeb     = "WEB"
	SourceTypeReddit  = "REDDIT"
	SourceTypeYouTube = "YOUTUBE"
	SourceTypeMedia   = "MEDIA"
)

// SourceDoc is one ingested document per (project, canonical URL).
// Re-ingesting the same canonical URL updates the row in place.
type SourceDoc struct {
	ID          string `gorm:"type:char(36);primaryKey" json:"id"`
	ProjectID   string `gorm:"type:char(36);not null;uniqueIndex:uniq_doc_project_canonical" json:"project_id"`
	WorkspaceID string `gorm:"type:char(36);not null" json:"workspace_id"`

	URL          string `gorm:"size:2000;not null" json:"url"`
	CanonicalURL string `gorm:"size:700;not null;uniqueIndex:uniq_doc_project_canonical" json:"canonical_url"`
	Domain       string `gorm:"size:300" json:"domain"`
	Title        string `gorm:"size:1000" json:"title"`
	SourceType   string `gorm:"size:20;not null;default:WEB" json:"source_type"`

	// Source-specific structure: comment list for threads, transcript
	// segment index for video/media.
	Metadata JSONMap `gorm:"type:text" json:"metadata,omitempty"`

	// Three content representations; evidence offsets are anchored against
	// TextRaw and Markdown independently.
	TextRaw   string `gorm:"type:longtext" json:"text_raw,omitempty"`
	Markdown  string `gorm:"type:longtext" json:"markdown,omitempty"`
	HTMLClean string `gorm:"type:longtext" json:"html_clean,omitempty"`

	ContentHash string `gorm:"size:64;index" json:"content_hash"`

	// Object-storage copy of the uploaded media file, set by the archiver.
	ArchiveURL string `gorm:"size:2000" json:"archive_url,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (SourceDoc) TableName() string {
	return "source_docs"
}

func (d *SourceDoc) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}
