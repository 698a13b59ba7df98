package evidence

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocate_ExactMatch(t *testing.T) {
	content := "The quick brown fox jumps over the lazy dog."
	loc, ok := Locate(content, "brown fox jumps")
	require.True(t, ok)
	assert.False(t, loc.Normalized)
	assert.Equal(t, "brown fox jumps", content[loc.Start:loc.End])
}

func TestLocate_CaseInsensitive(t *testing.T) {
	content := "Revenue Grew 40% Year Over Year."
	loc, ok := Locate(content, "revenue grew 40%")
	require.True(t, ok)
	assert.False(t, loc.Normalized)
	assert.Equal(t, 0, loc.Start)
	assert.Equal(t, "Revenue Grew 40%", content[loc.Start:loc.End])
}

func TestLocate_WhitespaceFallback(t *testing.T) {
	content := "Revenue grew\n\t40% year   over year."
	loc, ok := Locate(content, "Revenue grew 40% year over year")
	require.True(t, ok)
	assert.True(t, loc.Normalized)

	norm := "Revenue grew 40% year over year."
	assert.Equal(t, "Revenue grew 40% year over year", norm[loc.Start:loc.End])
}

func TestLocate_NotFound(t *testing.T) {
	_, ok := Locate("some document text", "nowhere to be seen")
	assert.False(t, ok)
}

func TestLocate_EmptyInputs(t *testing.T) {
	_, ok := Locate("", "quote")
	assert.False(t, ok)
	_, ok = Locate("content", "")
	assert.False(t, ok)
}

func TestLocate_RandomSliceRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	words := []string{"alpha", "beta", "gamma", "delta", "epsilon", "zeta", "eta", "theta"}

	var sb strings.Builder
	for i := 0; i < 200; i++ {
		sb.WriteString(words[rng.Intn(len(words))])
		sb.WriteByte(' ')
	}
	content := sb.String()

	for i := 0; i < 50; i++ {
		start := rng.Intn(len(content) - 30)
		end := start + 10 + rng.Intn(20)
		quote := content[start:end]

		loc, ok := Locate(content, quote)
		require.True(t, ok, "quote %q should be found", quote)
		assert.False(t, loc.Normalized)
		assert.Equal(t, strings.ToLower(quote), strings.ToLower(content[loc.Start:loc.End]))
	}
}

func TestSnippet(t *testing.T) {
	assert.Empty(t, Snippet("short"))
	assert.Empty(t, Snippet("exactly10c"))

	quote := "a quote comfortably longer than ten characters"
	assert.Equal(t, quote, Snippet(quote))

	long := strings.Repeat("x", 600)
	assert.Equal(t, 500, len(Snippet(long)))
}
