package extractor

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/sendit2sri/artifact-os/internal/model"
)

// DetectSourceType classifies a URL by hostname.
func DetectSourceType(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return model.SourceTypeWeb
	}
	host := strings.ToLower(parsed.Hostname())
	if strings.Contains(host, "reddit.com") {
		return model.SourceTypeReddit
	}
	if strings.Contains(host, "youtube.com") || strings.Contains(host, "youtu.be") {
		return model.SourceTypeYouTube
	}
	return model.SourceTypeWeb
}

// NormalizeURL produces the canonical form used for idempotency checks.
// Reddit threads normalize to the www.reddit.com comments path, YouTube
// videos to the watch?v= form. Anything unrecognized passes through.
func NormalizeURL(rawURL, sourceType string) string {
	switch sourceType {
	case model.SourceTypeReddit:
		return normalizeRedditURL(rawURL)
	case model.SourceTypeYouTube:
		return normalizeYouTubeURL(rawURL)
	}
	return rawURL
}

// normalizeRedditURL maps any reddit thread URL to
// https://www.reddit.com/r/{sub}/comments/{id}/{slug}/.
func normalizeRedditURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")

	commentsIdx := -1
	for i, p := range parts {
		if p == "comments" {
			commentsIdx = i
			break
		}
	}
	if commentsIdx < 0 || commentsIdx+1 >= len(parts) {
		return rawURL
	}
	postID := parts[commentsIdx+1]

	sub := "reddit"
	for i, p := range parts {
		if p == "r" && i < commentsIdx && i+1 < len(parts) {
			sub = parts[i+1]
			break
		}
	}

	base := fmt.Sprintf("https://www.reddit.com/r/%s/comments/%s", sub, postID)
	if commentsIdx+2 < len(parts) && parts[commentsIdx+2] != "" {
		return base + "/" + parts[commentsIdx+2] + "/"
	}
	return base + "/"
}

// normalizeYouTubeURL maps youtu.be short links and watch URLs to
// https://www.youtube.com/watch?v={videoID}.
func normalizeYouTubeURL(rawURL string) string {
	if id := YouTubeVideoID(rawURL); id != "" {
		return "https://www.youtube.com/watch?v=" + id
	}
	return rawURL
}

// YouTubeVideoID extracts the video id from a watch or short-link URL.
func YouTubeVideoID(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(parsed.Hostname())
	if strings.Contains(host, "youtu.be") {
		path := strings.Trim(parsed.Path, "/")
		if path == "" {
			return ""
		}
		return strings.Split(path, "/")[0]
	}
	if strings.Contains(host, "youtube.com") {
		return parsed.Query().Get("v")
	}
	return ""
}

var mediaExtensions = map[string]struct{}{
	".mp3":  {},
	".wav":  {},
	".m4a":  {},
	".webm": {},
	".ogg":  {},
	".mp4":  {},
	".m4v":  {},
	".mov":  {},
}

// IsMediaFile reports whether a filename carries a supported audio or video
// extension.
func IsMediaFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	_, ok := mediaExtensions[ext]
	return ok
}
