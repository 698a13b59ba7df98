// Package facts extracts atomic, quote-anchored facts from document text.
package facts

import "context"

// CandidateFact is one extracted fact before persistence.
type CandidateFact struct {
	FactText       string   `json:"fact_text"`
	QuoteSpan      string   `json:"quote_span"`
	Confidence     string   `json:"confidence"`
	SectionContext string   `json:"section_context"`
	Tags           []string `json:"tags"`
	IsKeyClaim     bool     `json:"is_key_claim"`
}

// ExtractionResult bundles the deduplicated facts of a document with a short
// summary.
type ExtractionResult struct {
	Facts        []CandidateFact `json:"facts"`
	SummaryBrief []string        `json:"summary_brief"`
}

// Extractor produces facts from document text.
type Extractor interface {
	ExtractFacts(ctx context.Context, content string) (*ExtractionResult, error)
}

const (
	ConfidenceHigh   = "HIGH"
	ConfidenceMedium = "MEDIUM"
	ConfidenceLow    = "LOW"
)
