package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sendit2sri/artifact-os/internal/model"
)

func redditMeta() map[string]any {
	return map[string]any{
		"thread_url": "https://www.reddit.com/r/golang/comments/abc123/thread/",
		"comments": []map[string]any{
			{"id": "c1", "permalink": "https://www.reddit.com/r/golang/comments/abc123/thread/c1/"},
		},
	}
}

func TestResolveFactSource_RedditOP(t *testing.T) {
	ctx, url := ResolveFactSource("[OP]", model.SourceTypeReddit, redditMeta(), "https://doc")
	assert.Equal(t, "reddit:op", ctx)
	assert.Equal(t, "https://www.reddit.com/r/golang/comments/abc123/thread/", url)

	ctx, _ = ResolveFactSource("op", model.SourceTypeReddit, redditMeta(), "https://doc")
	assert.Equal(t, "reddit:op", ctx)
}

func TestResolveFactSource_RedditComment(t *testing.T) {
	ctx, url := ResolveFactSource("[Comment: c1]", model.SourceTypeReddit, redditMeta(), "https://doc")
	assert.Equal(t, "reddit:comment:c1", ctx)
	assert.Equal(t, "https://www.reddit.com/r/golang/comments/abc123/thread/c1/", url)

	// Unknown comment id falls back to the document URL.
	ctx, url = ResolveFactSource("[Comment: zzz]", model.SourceTypeReddit, redditMeta(), "https://doc")
	assert.Equal(t, "reddit:comment:zzz", ctx)
	assert.Equal(t, "https://doc", url)

	// Already-normalized context keeps its form.
	ctx, url = ResolveFactSource("reddit:comment:c1", model.SourceTypeReddit, redditMeta(), "https://doc")
	assert.Equal(t, "reddit:comment:c1", ctx)
	assert.Equal(t, "https://www.reddit.com/r/golang/comments/abc123/thread/c1/", url)
}

func TestResolveFactSource_YouTube(t *testing.T) {
	meta := map[string]any{"video_url": "https://www.youtube.com/watch?v=abc123"}

	ctx, url := ResolveFactSource("[90-120.5]", model.SourceTypeYouTube, meta, "https://doc")
	assert.Equal(t, "yt:90-120.5", ctx)
	assert.Equal(t, "https://www.youtube.com/watch?v=abc123", url)

	ctx, url = ResolveFactSource("yt:10-20", model.SourceTypeYouTube, meta, "https://doc")
	assert.Equal(t, "yt:10-20", ctx)
	assert.Equal(t, "https://www.youtube.com/watch?v=abc123", url)
}

func TestResolveFactSource_Media(t *testing.T) {
	meta := map[string]any{"filename": "talk.mp3"}

	ctx, url := ResolveFactSource("[3.2-7]", model.SourceTypeMedia, meta, "media://proj/hash")
	assert.Equal(t, "yt:3.2-7", ctx)
	assert.Equal(t, "media://proj/hash", url)
}

func TestResolveFactSource_NoMetadata(t *testing.T) {
	ctx, url := ResolveFactSource("Introduction", model.SourceTypeWeb, nil, "https://doc")
	assert.Equal(t, "Introduction", ctx)
	assert.Empty(t, url)
}

func TestResolveFactSource_WebPassesThrough(t *testing.T) {
	ctx, url := ResolveFactSource("Section 2", model.SourceTypeWeb, map[string]any{"x": 1}, "https://doc")
	assert.Equal(t, "Section 2", ctx)
	assert.Empty(t, url)
}
