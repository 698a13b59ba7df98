package worker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/sendit2sri/artifact-os/internal/model"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		errText string
		want    string
	}{
		{"page fetch returned status 429", model.ErrCodeRateLimit},
		{"Rate limit exceeded, slow down", model.ErrCodeRateLimit},
		{"page fetch returned status 403", model.ErrCodePaywall},
		{"page fetch returned status 401", model.ErrCodePaywall},
		{"article behind paywall", model.ErrCodePaywall},
		{"403 Forbidden", model.ErrCodePaywall},
		{"context deadline exceeded", model.ErrCodeNetwork},
		{"dial tcp: connection refused", model.ErrCodeNetwork},
		{"request timeout after 15s", model.ErrCodeNetwork},
		{"transcript is disabled for this video", model.ErrCodeTranscriptDisabled},
		{"captions not available", model.ErrCodeTranscriptDisabled},
		{"something entirely different", model.ErrCodeUnsupported},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Classify(c.errText), "input: %s", c.errText)
	}
}

func TestClassifyMedia(t *testing.T) {
	assert.Equal(t, model.ErrCodeTranscriptFailed, ClassifyMedia("transcription failed: whisper exited 1"))
	assert.Equal(t, model.ErrCodeTranscriptFailed, ClassifyMedia("file not found: /tmp/x.mp3"))
	assert.Equal(t, model.ErrCodeTranscriptFailed, ClassifyMedia("failed to transcribe audio"))
	assert.Equal(t, model.ErrCodeUnsupported, ClassifyMedia("some other problem"))
}

func TestCapMessage(t *testing.T) {
	short := "fits as is"
	assert.Equal(t, short, CapMessage(short))

	long := strings.Repeat("x", 300)
	capped := CapMessage(long)
	assert.Len(t, capped, 120)
	assert.True(t, strings.HasSuffix(capped, "..."))
}

func TestTruncateKeepsRuneBoundary(t *testing.T) {
	assert.Equal(t, "ab", truncate("ab\u00e9cd", 3))
	assert.Equal(t, "abc", truncate("abc", 10))
	assert.True(t, utf8.ValidString(truncate(strings.Repeat("\u8a9e", 5), 7)))
}
