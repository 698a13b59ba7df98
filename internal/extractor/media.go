package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Transcriber turns a local audio or video file into transcript segments.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) ([]Segment, error)
}

// MediaExtractor transcribes uploaded files and renders the transcript as
// timestamped text blocks, the same shape video transcripts use.
type MediaExtractor struct {
	transcriber Transcriber
}

func NewMediaExtractor(transcriber Transcriber) *MediaExtractor {
	return &MediaExtractor{transcriber: transcriber}
}

func (e *MediaExtractor) Extract(ctx context.Context, path, filename string) (*Content, error) {
	if path == "" {
		return nil, fmt.Errorf("missing file path")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("file not found: %s", path)
	}

	segments, err := e.transcriber.Transcribe(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}

	parts := make([]string, 0, len(segments))
	segmentMeta := make([]map[string]any, 0, len(segments))
	for _, seg := range segments {
		parts = append(parts, fmt.Sprintf("## [%s-%s]\n%s",
			FormatSeconds(seg.StartS), FormatSeconds(seg.EndS), seg.Text))
		segmentMeta = append(segmentMeta, map[string]any{
			"start_s": seg.StartS,
			"end_s":   seg.EndS,
			"text":    seg.Text,
		})
	}

	text := strings.Join(parts, "\n\n")
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyContent
	}

	return &Content{
		Title:    filename,
		TextRaw:  text,
		Markdown: text,
		Metadata: map[string]any{
			"filename":   filename,
			"path":       path,
			"transcript": segmentMeta,
		},
	}, nil
}

// CommandTranscriber shells out to a local speech-to-text binary (whisper or
// compatible) that prints JSON segments to stdout.
type CommandTranscriber struct {
	command string
	args    []string
}

func NewCommandTranscriber(command string, args ...string) *CommandTranscriber {
	return &CommandTranscriber{command: command, args: args}
}

func (t *CommandTranscriber) Transcribe(ctx context.Context, path string) ([]Segment, error) {
	args := append(append([]string{}, t.args...), path)
	cmd := exec.CommandContext(ctx, t.command, args...)

	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok && len(exitErr.Stderr) > 0 {
			return nil, fmt.Errorf("%s: %s", t.command, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("%s: %w", t.command, err)
	}

	var segments []Segment
	if err := json.Unmarshal(out, &segments); err != nil {
		return nil, fmt.Errorf("failed to parse transcriber output: %w", err)
	}
	return segments, nil
}
