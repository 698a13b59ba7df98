package facts

import "strings"

// ScoreForConfidence maps the model's confidence label to a numeric score.
// Unknown labels score as MEDIUM.
func ScoreForConfidence(confidence string) int {
	switch strings.ToUpper(strings.TrimSpace(confidence)) {
	case ConfidenceHigh:
		return 85
	case ConfidenceLow:
		return 40
	default:
		return 60
	}
}

// VerifyQuoteIntegrity checks that the claimed quote actually occurs in the
// chunk it was extracted from, comparing whitespace-normalized forms.
func VerifyQuoteIntegrity(content, quote string) bool {
	normContent := strings.Join(strings.Fields(content), " ")
	normQuote := strings.Join(strings.Fields(quote), " ")
	return strings.Contains(normContent, normQuote)
}
