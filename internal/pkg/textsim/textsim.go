// Package textsim provides the text comparison primitives used by duplicate
// detection: sequence similarity over characters and token-set overlap.
package textsim

import (
	"strings"

	"github.com/google/uuid"
)

// Normalize lowercases and collapses runs of whitespace to single spaces.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Ratio computes sequence similarity between two strings as
// 2*M / (len(a)+len(b)), where M is the total length of the matching blocks
// found by recursive longest-common-substring. Returns 1.0 for two empty
// strings.
func Ratio(a, b string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	matched := matchingBlocks([]rune(a), []rune(b))
	return 2.0 * float64(matched) / float64(len([]rune(a))+len([]rune(b)))
}

// matchingBlocks returns the total length of non-overlapping matching blocks
// between a and b, found by splitting on the longest common substring and
// recursing on both sides.
func matchingBlocks(a, b []rune) int {
	ai, bi, size := longestMatch(a, b)
	if size == 0 {
		return 0
	}
	total := size
	total += matchingBlocks(a[:ai], b[:bi])
	total += matchingBlocks(a[ai+size:], b[bi+size:])
	return total
}

// longestMatch finds the longest common substring of a and b, preferring the
// earliest occurrence in a, then in b.
func longestMatch(a, b []rune) (bestA, bestB, bestSize int) {
	if len(a) == 0 || len(b) == 0 {
		return 0, 0, 0
	}
	// b2j maps each rune to its positions in b.
	b2j := make(map[rune][]int, len(b))
	for j, r := range b {
		b2j[r] = append(b2j[r], j)
	}

	// j2len[j] is the length of the match ending at a[i-1], b[j-1].
	j2len := make(map[int]int)
	for i := range a {
		newJ2len := make(map[int]int)
		for _, j := range b2j[a[i]] {
			k := j2len[j-1] + 1
			newJ2len[j] = k
			if k > bestSize {
				bestA = i - k + 1
				bestB = j - k + 1
				bestSize = k
			}
		}
		j2len = newJ2len
	}
	return bestA, bestB, bestSize
}

// Stop words excluded from token-set comparison. Short function words carry
// no signal for near-duplicate detection.
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {},
	"of": {}, "to": {}, "in": {}, "on": {}, "at": {}, "for": {},
	"is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {},
	"it": {}, "its": {}, "this": {}, "that": {}, "with": {}, "as": {},
	"by": {}, "from": {}, "has": {}, "have": {}, "had": {},
}

// TokenSet tokenizes text for lexical grouping: lowercase, strip punctuation
// from token edges, drop stop words and tokens of length one or less.
func TokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(strings.ToLower(s)) {
		tok = strings.TrimFunc(tok, func(r rune) bool {
			return !isWordRune(r)
		})
		if len([]rune(tok)) <= 1 {
			continue
		}
		if _, stop := stopWords[tok]; stop {
			continue
		}
		set[tok] = struct{}{}
	}
	return set
}

// Punctuation and unit symbols are stripped so wording variants like
// "13%" and "13 percent" still share the numeric token.
func isWordRune(r rune) bool {
	return (r >= '0' && r <= '9') ||
		(r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		r > 127
}

// Jaccard computes token-set overlap. Two empty sets score zero, not one,
// so contentless facts never group with each other.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	inter := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// GroupID derives a stable group identifier from a name, typically the
// normalized text of a cluster's representative. Repeated grouping over the
// same data yields the same ids without persisting anything.
func GroupID(name string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}
