package extractor

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"math"
	"net/url"
	"strconv"
	"strings"
)

// Segment is one transcript span with times in seconds.
type Segment struct {
	StartS float64 `json:"start_s"`
	EndS   float64 `json:"end_s"`
	Text   string  `json:"text"`
}

// CaptionsProvider fetches the transcript for a video id. Implementations
// must return an empty slice (not an error) when the video simply has no
// captions.
type CaptionsProvider interface {
	Captions(videoID string) ([]Segment, error)
}

// YouTubeExtractor extracts transcripts and video metadata without an API
// key: captions through the provider, title and channel through oEmbed.
type YouTubeExtractor struct {
	http       *HTTPClient
	captions   CaptionsProvider
	oembedBase string
}

func NewYouTubeExtractor(http *HTTPClient, captions CaptionsProvider) *YouTubeExtractor {
	return &YouTubeExtractor{
		http:       http,
		captions:   captions,
		oembedBase: "https://www.youtube.com",
	}
}

// Extract fetches the transcript and assembles timestamped text blocks. A
// video with no retrievable captions is a hard failure: there is nothing to
// extract facts from.
func (e *YouTubeExtractor) Extract(videoURL string) (*Content, error) {
	videoID := YouTubeVideoID(videoURL)
	if videoID == "" {
		return nil, fmt.Errorf("could not parse video id from %q", videoURL)
	}

	segments, err := e.captions.Captions(videoID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transcript: %w", err)
	}

	canonicalURL := "https://www.youtube.com/watch?v=" + videoID
	title, channel := e.fetchOEmbed(canonicalURL)
	if title == "" {
		title = "YouTube video " + videoID
	}

	if len(segments) == 0 {
		return &Content{
			Title:    title,
			Metadata: map[string]any{"video_url": canonicalURL},
		}, ErrTranscriptDisabled
	}

	parts := make([]string, 0, len(segments))
	segmentMeta := make([]map[string]any, 0, len(segments))
	for _, seg := range segments {
		parts = append(parts, fmt.Sprintf("## [%s-%s]\n%s",
			FormatSeconds(seg.StartS), FormatSeconds(seg.EndS), seg.Text))
		segmentMeta = append(segmentMeta, map[string]any{
			"start_s": seg.StartS,
			"end_s":   seg.EndS,
		})
	}

	return &Content{
		Title:   title,
		TextRaw: strings.Join(parts, "\n\n"),
		Metadata: map[string]any{
			"video_url":  canonicalURL,
			"channel":    channel,
			"transcript": segmentMeta,
		},
	}, nil
}

// fetchOEmbed grabs title and channel from the keyless oEmbed endpoint.
// Failures are non-fatal; the transcript is the payload.
func (e *YouTubeExtractor) fetchOEmbed(videoURL string) (title, channel string) {
	resp, err := e.http.Get(e.oembedBase + "/oembed?url=" + url.QueryEscape(videoURL))
	if err != nil {
		return "", ""
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return "", ""
	}

	var payload struct {
		Title      string `json:"title"`
		AuthorName string `json:"author_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", ""
	}
	return payload.Title, payload.AuthorName
}

// FormatSeconds renders a timestamp for block headings and section contexts:
// whole seconds without a decimal, fractional seconds with one.
func FormatSeconds(v float64) string {
	rounded := math.Round(v*10) / 10
	if rounded == math.Trunc(rounded) {
		return strconv.FormatFloat(rounded, 'f', 0, 64)
	}
	return strconv.FormatFloat(rounded, 'f', 1, 64)
}

// TimedTextProvider fetches captions from YouTube's timedtext endpoint.
type TimedTextProvider struct {
	http *HTTPClient
	lang string
}

func NewTimedTextProvider(http *HTTPClient, lang string) *TimedTextProvider {
	if lang == "" {
		lang = "en"
	}
	return &TimedTextProvider{http: http, lang: lang}
}

type timedText struct {
	Texts []struct {
		Start float64 `xml:"start,attr"`
		Dur   float64 `xml:"dur,attr"`
		Body  string  `xml:",chardata"`
	} `xml:"text"`
}

func (p *TimedTextProvider) Captions(videoID string) ([]Segment, error) {
	endpoint := fmt.Sprintf("https://www.youtube.com/api/timedtext?v=%s&lang=%s",
		url.QueryEscape(videoID), url.QueryEscape(p.lang))

	resp, err := p.http.Get(endpoint)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("timedtext returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	// The endpoint answers 200 with an empty body when captions are off.
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, nil
	}

	var parsed timedText
	if err := xml.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse timedtext: %w", err)
	}

	segments := make([]Segment, 0, len(parsed.Texts))
	for _, t := range parsed.Texts {
		text := strings.TrimSpace(html.UnescapeString(t.Body))
		if text == "" {
			continue
		}
		segments = append(segments, Segment{
			StartS: math.Round(t.Start*10) / 10,
			EndS:   math.Round((t.Start+t.Dur)*10) / 10,
			Text:   text,
		})
	}
	return segments, nil
}
