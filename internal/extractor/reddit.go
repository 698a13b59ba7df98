package extractor

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// RedditComment is one flattened thread comment.
type RedditComment struct {
	ID        string `json:"id"`
	Author    string `json:"author"`
	Score     int    `json:"score"`
	Body      string `json:"body"`
	Permalink string `json:"permalink"`
}

// RedditExtractor pulls threads through Reddit's public .json endpoint, no
// API key required.
type RedditExtractor struct {
	http        *HTTPClient
	maxComments int
}

func NewRedditExtractor(http *HTTPClient, maxComments int) *RedditExtractor {
	if maxComments <= 0 {
		maxComments = 20
	}
	return &RedditExtractor{http: http, maxComments: maxComments}
}

// redditListing mirrors the two-element response of the .json endpoint: the
// post listing followed by the comment tree.
type redditListing struct {
	Data struct {
		Children []redditNode `json:"children"`
	} `json:"data"`
}

type redditNode struct {
	Kind string `json:"kind"`
	Data struct {
		ID        string          `json:"id"`
		Title     string          `json:"title"`
		Selftext  string          `json:"selftext"`
		Author    string          `json:"author"`
		Score     int             `json:"score"`
		Body      string          `json:"body"`
		Permalink string          `json:"permalink"`
		Replies   json.RawMessage `json:"replies"`
	} `json:"data"`
}

// Extract fetches the thread and assembles the document text: an OP block
// followed by the top comments by score, each under a "## [Comment: id]"
// heading so facts can be traced back to the comment they came from.
func (e *RedditExtractor) Extract(threadURL string) (*Content, error) {
	jsonURL := strings.TrimRight(threadURL, "/") + ".json"

	resp, err := e.http.Get(jsonURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reddit thread: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("reddit fetch returned status %d", resp.StatusCode)
	}

	var listings []redditListing
	if err := json.NewDecoder(resp.Body).Decode(&listings); err != nil {
		return nil, fmt.Errorf("failed to parse reddit response: %w", err)
	}
	if len(listings) == 0 || len(listings[0].Data.Children) == 0 {
		return nil, ErrEmptyContent
	}

	op := listings[0].Data.Children[0].Data
	threadPermalink := "https://www.reddit.com" + strings.TrimRight(op.Permalink, "/") + "/"

	var comments []RedditComment
	if len(listings) > 1 {
		comments = flattenComments(listings[1].Data.Children, threadPermalink)
		sort.SliceStable(comments, func(i, j int) bool {
			return comments[i].Score > comments[j].Score
		})
		if len(comments) > e.maxComments {
			comments = comments[:e.maxComments]
		}
	}

	parts := []string{"## [OP]\n" + op.Selftext}
	commentMeta := make([]map[string]any, 0, len(comments))
	for _, c := range comments {
		parts = append(parts, fmt.Sprintf("## [Comment: %s]\n%s", c.ID, c.Body))
		commentMeta = append(commentMeta, map[string]any{
			"id":        c.ID,
			"permalink": c.Permalink,
			"author":    c.Author,
			"score":     c.Score,
		})
	}

	return &Content{
		Title:   op.Title,
		TextRaw: strings.Join(parts, "\n\n"),
		Metadata: map[string]any{
			"thread_url": threadPermalink,
			"comments":   commentMeta,
		},
	}, nil
}

// flattenComments walks the comment tree depth-first, collecting every
// comment node with a body.
func flattenComments(children []redditNode, threadURL string) []RedditComment {
	var out []RedditComment
	for _, node := range children {
		if node.Kind == "t1" && node.Data.Body != "" {
			permalink := node.Data.Permalink
			if strings.HasPrefix(permalink, "/") {
				permalink = "https://www.reddit.com" + permalink
			}
			if permalink == "" {
				permalink = threadURL
			}
			out = append(out, RedditComment{
				ID:        node.Data.ID,
				Author:    node.Data.Author,
				Score:     node.Data.Score,
				Body:      strings.TrimSpace(node.Data.Body),
				Permalink: permalink,
			})
		}

		// Replies are either a nested listing or an empty string.
		if len(node.Data.Replies) > 0 && node.Data.Replies[0] == '{' {
			var nested redditListing
			if err := json.Unmarshal(node.Data.Replies, &nested); err == nil {
				out = append(out, flattenComments(nested.Data.Children, threadURL)...)
			}
		}
	}
	return out
}
