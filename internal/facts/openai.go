package facts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"
)

const extractionSystemPrompt = `You are a fact extraction engine.
Extract atomic, high-value facts.
If a fact has a direct quote, include it in 'quote_span' EXACTLY as it appears.
Classify confidence: HIGH (explicit), MEDIUM (implied), LOW (ambiguous).

Return the output as valid JSON matching this structure:
{
    "facts": [
        {
            "fact_text": "The fact content",
            "quote_span": "Exact substring from text",
            "confidence": "HIGH",
            "section_context": "Introduction",
            "tags": ["tag1", "tag2"],
            "is_key_claim": true
        }
    ],
    "summary_brief": ["Summary point 1"]
}`

const maxAttempts = 3

// OpenAIExtractor extracts facts through an OpenAI-compatible chat
// completions endpoint. Long documents are chunked with overlap; a failed
// chunk is skipped, not fatal, so one bad response never loses the whole
// document.
type OpenAIExtractor struct {
	baseURL   string
	apiKey    string
	model     string
	maxChars  int
	chunkSize int
	overlap   int
	client    *http.Client
}

type OpenAIOption func(*OpenAIExtractor)

func WithLimits(maxChars, chunkSize, overlap int) OpenAIOption {
	return func(e *OpenAIExtractor) {
		e.maxChars = maxChars
		e.chunkSize = chunkSize
		e.overlap = overlap
	}
}

func WithHTTPClient(client *http.Client) OpenAIOption {
	return func(e *OpenAIExtractor) {
		e.client = client
	}
}

func NewOpenAIExtractor(baseURL, apiKey, model string, opts ...OpenAIOption) *OpenAIExtractor {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	e := &OpenAIExtractor{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		model:     model,
		maxChars:  25000,
		chunkSize: 12000,
		overlap:   500,
		client:    &http.Client{Timeout: 120 * time.Second},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// capContent trims content to at most max bytes without splitting a
// multi-byte rune at the boundary.
func capContent(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// ExtractFacts runs chunked extraction over content. Facts repeated across
// overlapping chunks are collapsed by case-insensitive fact text, keeping
// the first occurrence. The summary keeps at most five points.
func (e *OpenAIExtractor) ExtractFacts(ctx context.Context, content string) (*ExtractionResult, error) {
	if len(content) > e.maxChars {
		content = capContent(content, e.maxChars)
	}

	chunks := ChunkText(content, e.chunkSize, e.overlap)

	seen := make(map[string]struct{})
	result := &ExtractionResult{}

	for i, chunk := range chunks {
		chunkResult, err := e.extractChunk(ctx, i+1, chunk)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}

		for _, fact := range chunkResult.Facts {
			if fact.FactText == "" {
				continue
			}
			if fact.QuoteSpan != "" && !VerifyQuoteIntegrity(chunk, fact.QuoteSpan) {
				fact.Confidence = ConfidenceLow
				fact.Tags = append(fact.Tags, "fuzzy-quote")
			}
			if fact.Confidence == "" {
				fact.Confidence = ConfidenceMedium
			}
			if fact.SectionContext == "" {
				fact.SectionContext = "General"
			}

			key := strings.TrimSpace(strings.ToLower(fact.FactText))
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			result.Facts = append(result.Facts, fact)
		}
		result.SummaryBrief = append(result.SummaryBrief, chunkResult.SummaryBrief...)
	}

	if len(result.SummaryBrief) > 5 {
		result.SummaryBrief = result.SummaryBrief[:5]
	}
	return result, nil
}

func (e *OpenAIExtractor) extractChunk(ctx context.Context, part int, chunk string) (*ExtractionResult, error) {
	raw, err := e.complete(ctx, []chatMessage{
		{Role: "system", Content: extractionSystemPrompt},
		{Role: "user", Content: fmt.Sprintf("Extract from part %d:\n\n%s", part, chunk)},
	})
	if err != nil {
		return nil, err
	}

	var parsed ExtractionResult
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("chunk %d returned invalid JSON: %w", part, err)
	}
	return &parsed, nil
}

// complete calls the chat completions endpoint with exponential backoff.
func (e *OpenAIExtractor) complete(ctx context.Context, messages []chatMessage) (string, error) {
	req := chatRequest{
		Model:       e.model,
		Messages:    messages,
		Temperature: 0.1,
	}
	req.ResponseFormat = &struct {
		Type string `json:"type"`
	}{Type: "json_object"}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<(attempt-1)) * time.Second
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		content, err := e.doRequest(ctx, body)
		if err == nil {
			return content, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		lastErr = err
	}
	return "", lastErr
}

func (e *OpenAIExtractor) doRequest(ctx context.Context, body []byte) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		e.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("llm API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("llm API error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("empty response from llm API")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}
