package extractor

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// WebExtractor extracts article content from generic webpages.
type WebExtractor struct {
	http *HTTPClient
}

func NewWebExtractor(http *HTTPClient) *WebExtractor {
	return &WebExtractor{http: http}
}

// Extract fetches the page and extracts its content.
func (e *WebExtractor) Extract(pageURL string) (*Content, error) {
	resp, err := e.http.Get(pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("page fetch returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read page body: %w", err)
	}

	return e.ExtractHTML(pageURL, string(body))
}

// ExtractHTML extracts content from already-fetched HTML. Readability is the
// primary path; when it yields nothing we fall back to scraping the main
// content area directly.
func (e *WebExtractor) ExtractHTML(pageURL, htmlContent string) (*Content, error) {
	if strings.TrimSpace(htmlContent) == "" {
		return nil, ErrEmptyContent
	}

	content := &Content{Metadata: map[string]any{}}

	article, err := readability.FromReader(strings.NewReader(htmlContent), nil)
	if err == nil {
		content.Title = strings.TrimSpace(article.Title)
		content.TextRaw = strings.TrimSpace(article.TextContent)
		if article.Content != "" {
			content.HTMLClean = SanitizeHTML(article.Content)
			if markdown, mdErr := md.NewConverter("", true, nil).ConvertString(article.Content); mdErr == nil {
				content.Markdown = strings.TrimSpace(markdown)
			}
		}
	}

	doc, docErr := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))

	if content.TextRaw == "" && docErr == nil {
		e.scrapeFallback(doc, content)
	}

	if content.Title == "" && docErr == nil {
		content.Title = extractTitle(doc)
	}
	if content.Title == "" {
		content.Title = pageURL
	}

	if content.TextRaw == "" {
		return nil, ErrEmptyContent
	}
	return content, nil
}

var (
	blankLinesRe = regexp.MustCompile(`\n{3,}`)
	multiSpaceRe = regexp.MustCompile(` {2,}`)
)

// scrapeFallback pulls text from the most likely content container after
// dropping boilerplate elements.
func (e *WebExtractor) scrapeFallback(doc *goquery.Document, content *Content) {
	doc.Find("script, style, nav, footer, header, aside, iframe").Remove()

	var area *goquery.Selection
	for _, sel := range []string{"main", "article", `[role="main"]`, ".main-content", "#content", ".content"} {
		if s := doc.Find(sel).First(); s.Length() > 0 {
			area = s
			break
		}
	}
	if area == nil {
		area = doc.Find("body").First()
	}
	if area.Length() == 0 {
		return
	}

	if html, err := goquery.OuterHtml(area); err == nil {
		content.HTMLClean = SanitizeHTML(html)
	}

	text := strings.TrimSpace(areaText(area))
	text = blankLinesRe.ReplaceAllString(text, "\n\n")
	text = multiSpaceRe.ReplaceAllString(text, " ")
	content.TextRaw = text
}

// areaText renders the selection's text with newlines between block elements.
func areaText(area *goquery.Selection) string {
	var parts []string
	area.Find("p, h1, h2, h3, h4, h5, h6, li, blockquote, pre, td, dt, dd").
		Each(func(_ int, s *goquery.Selection) {
			if t := strings.TrimSpace(s.Text()); t != "" {
				parts = append(parts, t)
			}
		})
	if len(parts) == 0 {
		return area.Text()
	}
	return strings.Join(parts, "\n")
}

// extractTitle walks the fallback chain: <title>, first <h1>, og:title, then
// meta name="title".
func extractTitle(doc *goquery.Document) string {
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	if title := strings.TrimSpace(doc.Find("h1").First().Text()); title != "" {
		return title
	}
	if title, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok && strings.TrimSpace(title) != "" {
		return strings.TrimSpace(title)
	}
	if title, ok := doc.Find(`meta[name="title"]`).Attr("content"); ok && strings.TrimSpace(title) != "" {
		return strings.TrimSpace(title)
	}
	return ""
}
