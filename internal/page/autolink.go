package page

import (
	"regexp"
	"strings"

	"github.com/ncgopher/ncgopher-go/internal/urlmodel"
)

// autolinkPattern matches the longest run of non-whitespace characters
// following one of the recognised scheme prefixes. Longest-match is
// guaranteed by regexp's leftmost-first semantics combined with a
// greedy non-space body.
var autolinkPattern = regexp.MustCompile(`(gopher|gemini|finger|https?)://[^\s<>"']+`)

// Autolink scans text for bare URLs and returns a sequence of lines
// that interleave Text spans with Link entries, so plain Gopher/Finger
// text bodies still expose their embedded links as navigable entries.
//
// Autolink is idempotent: running it again over its own output (each
// resulting Text/Link line taken as independent input) reproduces the
// same structure, since a Link's Label is the matched URL text itself
// and rescanning it yields the same single Link.
func Autolink(text string) []Line {
	matches := autolinkPattern.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		if text == "" {
			return nil
		}
		return []Line{NewText(text)}
	}

	var lines []Line
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		if start > last {
			lines = append(lines, NewText(text[last:start]))
		}
		raw := text[start:end]
		kind := LinkAutolink
		if len(raw) >= 4 && raw[:4] == "http" {
			kind = LinkWWW
		}
		target, err := urlmodel.Parse(raw)
		if err != nil {
			// Not a parseable URL after all; treat as plain text
			// rather than dropping the content.
			lines = append(lines, NewText(raw))
		} else {
			lines = append(lines, NewLink(target, raw, kind))
		}
		last = end
	}
	if last < len(text) {
		lines = append(lines, NewText(text[last:]))
	}
	return lines
}

// AutolinkBody splits a multi-line response body into its constituent
// lines and runs Autolink on each one independently, so an embedded
// newline in the source body always produces a line boundary in the
// result instead of being folded into one Text span that later
// wrapping or line-count logic would mishandle.
func AutolinkBody(body string) []Line {
	body = strings.TrimSuffix(body, "\n")
	if body == "" {
		return nil
	}
	raw := strings.Split(body, "\n")
	lines := make([]Line, 0, len(raw))
	for _, l := range raw {
		lines = append(lines, Autolink(l)...)
	}
	return lines
}
