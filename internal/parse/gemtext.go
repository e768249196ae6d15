package parse

import (
	"bufio"
	"bytes"
	"strings"

	"github.com/ncgopher/ncgopher-go/internal/apperr"
	"github.com/ncgopher/ncgopher-go/internal/logging"
	"github.com/ncgopher/ncgopher-go/internal/page"
	"github.com/ncgopher/ncgopher-go/internal/urlmodel"
)

// Gemtext parses a text/gemini body into lines, resolving relative link
// targets against base.
//
// The state machine has exactly two states, NORMAL and PREFORMATTED,
// toggled by a line starting with "```"; in PREFORMATTED every line
// (other than the closing toggle) is emitted verbatim as
// page.KindPreformatted.
func Gemtext(body []byte, base *urlmodel.URL) []page.Line {
	const spacetab = " \t"

	var lines []page.Line
	var preformatted bool

	scanner := bufio.NewScanner(bytes.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		text := scanner.Text()

		if strings.HasPrefix(text, "```") {
			preformatted = !preformatted
			continue
		}

		if preformatted {
			lines = append(lines, page.NewPreformatted(text))
			continue
		}

		switch {
		case strings.HasPrefix(text, "=>"):
			lines = append(lines, parseGemtextLink(text, base))
		case strings.HasPrefix(text, "###"):
			lines = append(lines, page.NewText(strings.TrimLeft(text[3:], spacetab)))
		case strings.HasPrefix(text, "##"):
			lines = append(lines, page.NewText(strings.TrimLeft(text[2:], spacetab)))
		case strings.HasPrefix(text, "#"):
			lines = append(lines, page.NewText(strings.TrimLeft(text[1:], spacetab)))
		case strings.HasPrefix(text, "*"):
			lines = append(lines, page.NewText("* "+strings.TrimLeft(text[1:], spacetab)))
		case strings.HasPrefix(text, ">"):
			lines = append(lines, page.NewText("> "+strings.TrimLeft(text[1:], spacetab)))
		default:
			lines = append(lines, page.NewText(text))
		}
	}
	return lines
}

func parseGemtextLink(text string, base *urlmodel.URL) page.Line {
	const spacetab = " \t"
	rest := strings.TrimLeft(text[2:], spacetab)

	split := strings.IndexAny(rest, spacetab)
	var rawURL, label string
	if split == -1 {
		rawURL = rest
	} else {
		rawURL = rest[:split]
		label = strings.TrimLeft(rest[split:], spacetab)
	}

	target, err := urlmodel.ResolveRelative(base, rawURL)
	if err != nil {
		logging.L().Warnw("gemtext link target could not be resolved",
			"target", rawURL, "error", apperr.Wrap(apperr.KindProtocol, rawURL, err))
		return page.NewText(text)
	}
	return page.NewLink(target, label, page.LinkGemini)
}

// Title returns the text of the first Text line in lines, or the empty
// string if there is none. Gemtext emits headings as Text lines with
// their markers removed, so this is the first heading only when no
// plain, list or quote line precedes it; the heading level is not
// checked.
func Title(lines []page.Line) string {
	for _, l := range lines {
		if l.Kind == page.KindText {
			return l.Text
		}
	}
	return ""
}
