package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Review statuses. Distinct from extraction confidence: this is the human
// workflow label.
const (
	ReviewStatusPending     = "PENDING"
	ReviewStatusApproved    = "APPROVED"
	ReviewStatusNeedsReview = "NEEDS_REVIEW"
	ReviewStatusFlagged     = "FLAGGED"
	ReviewStatusRejected    = "REJECTED"
)

// ReviewThreshold is the confidence score below which a freshly extracted
// fact starts in NEEDS_REVIEW instead of PENDING.
const ReviewThreshold = 75

// ResearchNode is one atomic factual claim extracted from a source document.
type ResearchNode struct {
	ID          string `gorm:"type:char(36);primaryKey" json:"id"`
	ProjectID   string `gorm:"type:char(36);not null;index" json:"project_id"`
	SourceDocID string `gorm:"type:char(36);not null;index" json:"source_doc_id"`

	FactText     string `gorm:"type:text;not null" json:"fact_text"`
	QuoteTextRaw string `gorm:"type:text" json:"quote_text_raw,omitempty"`

	// Human-readable excerpt shown in the evidence panel, distinct from FactText.
	EvidenceSnippet string `gorm:"type:text" json:"evidence_snippet,omitempty"`

	// Character offsets anchoring the quote in each content representation.
	// Nil when the quote could not be located; persistence never depends on them.
	EvidenceStartRaw *int `json:"evidence_start_raw,omitempty"`
	EvidenceEndRaw   *int `json:"evidence_end_raw,omitempty"`
	EvidenceStartMD  *int `json:"evidence_start_md,omitempty"`
	EvidenceEndMD    *int `json:"evidence_end_md,omitempty"`

	// Provenance marker, e.g. "reddit:comment:abc" or "yt:12.5-18.0".
	SectionContext string `gorm:"size:300" json:"section_context,omitempty"`
	// Fact-level override of the document URL (comment permalink, watch URL).
	SourceURL string `gorm:"size:2000" json:"source_url,omitempty"`

	ConfidenceScore int        `gorm:"not null;default:0" json:"confidence_score"`
	ReviewStatus    string     `gorm:"size:20;not null;default:PENDING" json:"review_status"`
	Tags            StringList `gorm:"type:text" json:"tags,omitempty"`
	IsKeyClaim      bool       `gorm:"default:false" json:"is_key_claim"`
	IsPinned        bool       `gorm:"default:false" json:"is_pinned"`

	// Dedup fields, written only by the clustering engine. A suppressed fact
	// always carries the canonical fact id of its group.
	DuplicateGroupID string `gorm:"type:char(36);index" json:"duplicate_group_id,omitempty"`
	IsSuppressed     bool   `gorm:"default:false;index" json:"is_suppressed"`
	CanonicalFactID  string `gorm:"type:char(36)" json:"canonical_fact_id,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (ResearchNode) TableName() string {
	return "research_nodes"
}

func (n *ResearchNode) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}

// ReviewStatusForScore maps an extraction confidence score to the initial
// review status: anything below the threshold needs a human look.
func ReviewStatusForScore(score int) string {
	if score < ReviewThreshold {
		return ReviewStatusNeedsReview
	}
	return ReviewStatusPending
}
