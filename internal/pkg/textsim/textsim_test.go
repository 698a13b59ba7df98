package textsim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "hello world", Normalize("  Hello \t WORLD \n"))
	assert.Equal(t, "", Normalize("   "))
}

func TestRatio_Identical(t *testing.T) {
	assert.InDelta(t, 1.0, Ratio("the same text", "the same text"), 1e-9)
}

func TestRatio_Disjoint(t *testing.T) {
	assert.InDelta(t, 0.0, Ratio("abc", "xyz"), 1e-9)
}

func TestRatio_Empty(t *testing.T) {
	assert.InDelta(t, 1.0, Ratio("", ""), 1e-9)
	assert.InDelta(t, 0.0, Ratio("abc", ""), 1e-9)
}

func TestRatio_NearDuplicate(t *testing.T) {
	a := "inflation rose by 13 percent in the third quarter"
	b := "inflation rose by 13% in the third quarter"
	r := Ratio(a, b)
	assert.Greater(t, r, 0.9)
	assert.Less(t, r, 1.0)
}

func TestRatio_Symmetric(t *testing.T) {
	a := "one two three four"
	b := "one two five four"
	assert.InDelta(t, Ratio(a, b), Ratio(b, a), 1e-9)
}

func TestTokenSet_DropsStopWordsAndShortTokens(t *testing.T) {
	set := TokenSet("The revenue of the company is 5M, a record.")
	assert.Contains(t, set, "revenue")
	assert.Contains(t, set, "company")
	assert.Contains(t, set, "5m")
	assert.Contains(t, set, "record")
	assert.NotContains(t, set, "the")
	assert.NotContains(t, set, "of")
	assert.NotContains(t, set, "is")
	assert.NotContains(t, set, "a")
}

func TestTokenSet_PercentVariantsShareTokens(t *testing.T) {
	a := TokenSet("declined by 13 percent per decade")
	b := TokenSet("declined by 13% per decade")
	assert.Contains(t, b, "13")
	assert.GreaterOrEqual(t, Jaccard(a, b), 0.8)
}

func TestTokenSet_StripsEdgePunctuation(t *testing.T) {
	set := TokenSet("(revenue), \"growth\"!")
	assert.Contains(t, set, "revenue")
	assert.Contains(t, set, "growth")
}

func TestJaccard(t *testing.T) {
	a := TokenSet("inflation rose 13 percent quarter")
	b := TokenSet("inflation rose 13 percent quarter")
	assert.InDelta(t, 1.0, Jaccard(a, b), 1e-9)

	c := TokenSet("completely unrelated sentence here")
	assert.InDelta(t, 0.0, Jaccard(a, c), 1e-9)

	assert.InDelta(t, 0.0, Jaccard(map[string]struct{}{}, map[string]struct{}{}), 1e-9)
}

func TestGroupID_Deterministic(t *testing.T) {
	a := GroupID("arctic sea ice has declined")
	b := GroupID("arctic sea ice has declined")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, GroupID("some other text"))
}
