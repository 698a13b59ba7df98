// Package evidence anchors extracted quotes back to their position in the
// source document text.
package evidence

import "strings"

// Location is a character offset range [Start, End) within the content the
// quote was located in. Normalized reports whether the offsets refer to the
// whitespace-normalized form of the content rather than the content itself.
type Location struct {
	Start      int
	End        int
	Normalized bool
}

// Locate finds quote in content. It tries a case-insensitive exact match
// first; when that fails it collapses whitespace in both strings and matches
// again. Offsets from the fallback are positions in the normalized content,
// which drift from the raw text wherever whitespace was collapsed. The
// exact-match offsets assume case folding preserves byte length, which holds
// for ASCII but not for a few locale-specific letters. Returns false when
// the quote cannot be found either way.
func Locate(content, quote string) (Location, bool) {
	if quote == "" || content == "" {
		return Location{}, false
	}

	if idx := strings.Index(strings.ToLower(content), strings.ToLower(quote)); idx >= 0 {
		return Location{Start: idx, End: idx + len(quote)}, true
	}

	normContent := normalizeSpace(content)
	normQuote := normalizeSpace(quote)
	if normQuote == "" {
		return Location{}, false
	}
	if idx := strings.Index(strings.ToLower(normContent), strings.ToLower(normQuote)); idx >= 0 {
		return Location{Start: idx, End: idx + len(normQuote), Normalized: true}, true
	}

	return Location{}, false
}

// normalizeSpace collapses runs of whitespace to single spaces without
// trimming, so offsets stay aligned with the normalized string.
func normalizeSpace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f' {
			if !inSpace {
				b.WriteByte(' ')
				inSpace = true
			}
			continue
		}
		inSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

// Snippet returns the evidence snippet stored alongside a fact: the first
// 500 characters of the quote, but only for quotes longer than 10 characters.
// Short quotes are too ambiguous to serve as anchors.
func Snippet(quote string) string {
	if len(quote) <= 10 {
		return ""
	}
	if len(quote) > 500 {
		return quote[:500]
	}
	return quote
}
