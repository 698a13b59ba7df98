package extractor

import (
	"regexp"
	"strings"

	"github.com/sendit2sri/artifact-os/internal/model"
)

var (
	commentCtxRe = regexp.MustCompile(`(?i)\[Comment:\s*([^\]]+)\]|comment[:\s]+([a-z0-9]+)`)
	timeRangeRe  = regexp.MustCompile(`\[?(\d+\.?\d*)\s*[-\x{2013}]\s*(\d+\.?\d*)\]?|yt:(\d+\.?\d*)-(\d+\.?\d*)`)
)

// ResolveFactSource normalizes a fact's section context and resolves the URL
// it should deep-link to. Reddit facts resolve to the thread or the specific
// comment permalink, video and media facts to a yt:{start}-{end} timestamp
// context. Returns the original context and an empty URL when nothing
// applies.
func ResolveFactSource(sectionContext, sourceType string, metadata map[string]any, docURL string) (string, string) {
	if metadata == nil {
		return sectionContext, ""
	}
	ctx := strings.TrimSpace(sectionContext)

	switch sourceType {
	case model.SourceTypeReddit:
		if strings.Contains(ctx, "[OP]") || strings.EqualFold(ctx, "op") || ctx == "reddit:op" {
			return "reddit:op", metaString(metadata, "thread_url", docURL)
		}
		if m := commentCtxRe.FindStringSubmatch(ctx); m != nil {
			cid := strings.TrimSpace(m[1])
			if cid == "" {
				cid = strings.TrimSpace(m[2])
			}
			if cid != "" {
				return "reddit:comment:" + cid, commentPermalink(metadata, cid, docURL)
			}
		}
		if strings.HasPrefix(ctx, "reddit:comment:") {
			cid := strings.TrimSpace(strings.TrimPrefix(ctx, "reddit:comment:"))
			return ctx, commentPermalink(metadata, cid, docURL)
		}

	case model.SourceTypeYouTube:
		if start, end, ok := parseTimeRange(ctx); ok {
			return "yt:" + start + "-" + end, metaString(metadata, "video_url", docURL)
		}
		if strings.HasPrefix(ctx, "yt:") {
			return ctx, metaString(metadata, "video_url", docURL)
		}

	case model.SourceTypeMedia:
		if start, end, ok := parseTimeRange(ctx); ok {
			return "yt:" + start + "-" + end, docURL
		}
	}

	return sectionContext, ""
}

func parseTimeRange(ctx string) (start, end string, ok bool) {
	m := timeRangeRe.FindStringSubmatch(ctx)
	if m == nil {
		return "", "", false
	}
	if m[1] != "" && m[2] != "" {
		return m[1], m[2], true
	}
	if m[3] != "" && m[4] != "" {
		return m[3], m[4], true
	}
	return "", "", false
}

func metaString(metadata map[string]any, key, fallback string) string {
	if v, ok := metadata[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// commentPermalink finds the permalink of a comment id in the document
// metadata, falling back to the document URL.
func commentPermalink(metadata map[string]any, cid, docURL string) string {
	comments, ok := metadata["comments"].([]any)
	if !ok {
		// Metadata written in-process keeps its concrete type.
		if typed, okTyped := metadata["comments"].([]map[string]any); okTyped {
			for _, c := range typed {
				if c["id"] == cid {
					if link, okLink := c["permalink"].(string); okLink && link != "" {
						return link
					}
				}
			}
		}
		return docURL
	}
	for _, raw := range comments {
		c, okMap := raw.(map[string]any)
		if !okMap {
			continue
		}
		if c["id"] == cid {
			if link, okLink := c["permalink"].(string); okLink && link != "" {
				return link
			}
		}
	}
	return docURL
}
