package worker

import (
	"strings"

	"github.com/sendit2sri/artifact-os/internal/model"
)

// maxErrorMessageLen caps the persisted human error message.
const maxErrorMessageLen = 120

// Classify maps a caught error's text onto the fixed failure vocabulary by
// substring matching. A pragmatic heuristic: the failure is terminal either
// way, the code only steers user guidance.
func Classify(errText string) string {
	msg := strings.ToLower(errText)
	switch {
	case strings.Contains(msg, "429"), strings.Contains(msg, "rate limit"):
		return model.ErrCodeRateLimit
	case strings.Contains(msg, "403"), strings.Contains(msg, "401"),
		strings.Contains(msg, "paywall"), strings.Contains(msg, "forbidden"):
		return model.ErrCodePaywall
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "connection"),
		strings.Contains(msg, "refused"), strings.Contains(msg, "deadline exceeded"):
		return model.ErrCodeNetwork
	case strings.Contains(msg, "transcript"), strings.Contains(msg, "disabled"),
		strings.Contains(msg, "not available"):
		return model.ErrCodeTranscriptDisabled
	default:
		return model.ErrCodeUnsupported
	}
}

// ClassifyMedia maps transcription-path errors; file and transcriber
// problems become TRANSCRIPT_FAILED rather than the generic code.
func ClassifyMedia(errText string) string {
	msg := strings.ToLower(errText)
	if strings.Contains(msg, "transcribe") || strings.Contains(msg, "transcription") ||
		strings.Contains(msg, "whisper") || strings.Contains(msg, "file") {
		return model.ErrCodeTranscriptFailed
	}
	return model.ErrCodeUnsupported
}

// CapMessage truncates a message for persistence.
func CapMessage(msg string) string {
	if len(msg) <= maxErrorMessageLen {
		return msg
	}
	return msg[:maxErrorMessageLen-3] + "..."
}
