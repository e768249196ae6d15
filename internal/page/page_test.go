package page

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutolinkExtractsURL(t *testing.T) {
	lines := Autolink("see gopher://example.org/1/about for more")
	require.Len(t, lines, 3)
	assert.Equal(t, KindText, lines[0].Kind)
	assert.Equal(t, "see ", lines[0].Text)
	assert.Equal(t, KindLink, lines[1].Kind)
	assert.Equal(t, "gopher://example.org/1/about", lines[1].Label)
	assert.Equal(t, KindText, lines[2].Kind)
	assert.Equal(t, " for more", lines[2].Text)
}

func TestAutolinkNoMatch(t *testing.T) {
	lines := Autolink("just plain text")
	require.Len(t, lines, 1)
	assert.Equal(t, KindText, lines[0].Kind)
}

func TestAutolinkIdempotent(t *testing.T) {
	first := Autolink("visit https://example.org/x now")
	// Re-running over each resulting span independently must reproduce
	// the same structure for that span.
	for _, l := range first {
		again := Autolink(l.String())
		require.Len(t, again, 1)
		assert.Equal(t, l.Kind, again[0].Kind)
	}
}

func TestWrapSplitsLongLines(t *testing.T) {
	lines := []Line{NewText("the quick brown fox jumps over the lazy dog")}
	wrapped := Wrap(lines, 10)
	for _, l := range wrapped {
		assert.LessOrEqual(t, len(l.Text), 10)
	}
}

func TestWrapZeroWidthDisablesWrapping(t *testing.T) {
	lines := []Line{NewText("the quick brown fox jumps over the lazy dog")}
	wrapped := Wrap(lines, 0)
	require.Len(t, wrapped, 1)
	assert.Equal(t, lines[0].Text, wrapped[0].Text)
}

func TestWrapNeverWrapsPreformatted(t *testing.T) {
	lines := []Line{NewPreformatted("a very long preformatted line that exceeds the width by far")}
	wrapped := Wrap(lines, 10)
	require.Len(t, wrapped, 1)
	assert.Equal(t, KindPreformatted, wrapped[0].Kind)
}
