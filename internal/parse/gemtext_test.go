package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncgopher/ncgopher-go/internal/page"
	"github.com/ncgopher/ncgopher-go/internal/urlmodel"
)

func testBase(t *testing.T) *urlmodel.URL {
	t.Helper()
	u, err := urlmodel.Parse("gemini://example.org/dir/page.gmi")
	require.NoError(t, err)
	return u
}

func TestGemtextHeadings(t *testing.T) {
	body := "# Title\n## Subtitle\n### Subsubtitle\n"
	lines := Gemtext([]byte(body), testBase(t))
	require.Len(t, lines, 3)
	assert.Equal(t, "Title", lines[0].Text)
	assert.Equal(t, "Subtitle", lines[1].Text)
	assert.Equal(t, "Subsubtitle", lines[2].Text)
}

func TestGemtextListAndQuote(t *testing.T) {
	body := "* an item\n> a quote\n"
	lines := Gemtext([]byte(body), testBase(t))
	require.Len(t, lines, 2)
	assert.Equal(t, "* an item", lines[0].Text)
	assert.Equal(t, "> a quote", lines[1].Text)
}

func TestGemtextPreformattedToggle(t *testing.T) {
	body := "before\n```\ncode line one\ncode line two\n```\nafter\n"
	lines := Gemtext([]byte(body), testBase(t))
	require.Len(t, lines, 4)
	assert.Equal(t, page.KindText, lines[0].Kind)
	assert.Equal(t, page.KindPreformatted, lines[1].Kind)
	assert.Equal(t, page.KindPreformatted, lines[2].Kind)
	assert.Equal(t, page.KindText, lines[3].Kind)
}

func TestGemtextLinkWithLabel(t *testing.T) {
	body := "=> /other.gmi Other page\n"
	lines := Gemtext([]byte(body), testBase(t))
	require.Len(t, lines, 1)
	assert.Equal(t, page.KindLink, lines[0].Kind)
	assert.Equal(t, "Other page", lines[0].Label)
	require.NotNil(t, lines[0].Target)
	assert.Equal(t, "example.org", lines[0].Target.Host)
	assert.Equal(t, "/other.gmi", lines[0].Target.Path)
}

func TestGemtextLinkWithoutLabel(t *testing.T) {
	body := "=> gemini://example.org/\n"
	lines := Gemtext([]byte(body), testBase(t))
	require.Len(t, lines, 1)
	assert.Equal(t, "", lines[0].Label)
}

func TestGemtextLinkUnresolvableFallsBackToText(t *testing.T) {
	body := "=> ::::not a url\n"
	lines := Gemtext([]byte(body), testBase(t))
	require.Len(t, lines, 1)
	assert.Equal(t, page.KindText, lines[0].Kind)
}

func TestGemtextPlainLine(t *testing.T) {
	body := "just some prose\n"
	lines := Gemtext([]byte(body), testBase(t))
	require.Len(t, lines, 1)
	assert.Equal(t, page.KindText, lines[0].Kind)
	assert.Equal(t, "just some prose", lines[0].Text)
}
