// Package extractor turns source URLs and uploaded files into normalized
// document content: plain text, optional markdown, sanitized HTML, and
// source-specific metadata.
package extractor

import (
	"errors"
	"net/http"
	"time"
)

// Content is the normalized output of any extractor.
type Content struct {
	Title     string
	TextRaw   string
	Markdown  string
	HTMLClean string
	// Metadata holds source-specific structure: reddit comments, transcript
	// segments, channel names. Persisted on the document as JSON.
	Metadata map[string]any
}

// ErrTranscriptDisabled signals a video with no retrievable captions. The
// pipeline fails such jobs hard with guidance to upload the audio instead.
var ErrTranscriptDisabled = errors.New("transcript not available for this video")

// ErrEmptyContent signals an extraction that produced no usable text.
var ErrEmptyContent = errors.New("no text content could be extracted")

// HTTPClient is the shared client for all extractor fetches.
type HTTPClient struct {
	client    *http.Client
	userAgent string
}

func NewHTTPClient(timeout time.Duration, userAgent string) *HTTPClient {
	return &HTTPClient{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

func (c *HTTPClient) Get(url string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	return c.client.Do(req)
}
