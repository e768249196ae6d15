// Package page holds the decoded, navigable representation that every
// protocol's response is turned into: a sequence of display lines, each
// either plain text, a preformatted block line, or a link.
package page

import (
	"time"

	"github.com/ncgopher/ncgopher-go/internal/urlmodel"
)

// LineKind distinguishes the three line shapes a Page can contain.
type LineKind int

const (
	KindText LineKind = iota
	KindPreformatted
	KindLink
)

// LinkKind distinguishes where a Link line came from.
type LinkKind int

const (
	LinkGopherMenuEntry LinkKind = iota
	LinkGemini
	LinkAutolink
	LinkWWW
)

// Line is one rendered line of a Page.
type Line struct {
	Kind LineKind

	// Text holds the literal content for KindText and KindPreformatted.
	Text string

	// The following fields are populated only for KindLink.
	Target *urlmodel.URL
	Label  string
	Link   LinkKind
}

// NewText returns a plain text line.
func NewText(s string) Line {
	return Line{Kind: KindText, Text: s}
}

// NewPreformatted returns a preformatted (verbatim, never wrapped) line.
func NewPreformatted(s string) Line {
	return Line{Kind: KindPreformatted, Text: s}
}

// NewLink returns a navigable link line.
func NewLink(target *urlmodel.URL, label string, kind LinkKind) Line {
	return Line{Kind: KindLink, Target: target, Label: label, Link: kind}
}

// String renders the line's display text (without its wire-format markers).
func (l Line) String() string {
	switch l.Kind {
	case KindLink:
		if l.Label != "" {
			return l.Label
		}
		if l.Target != nil {
			return l.Target.String()
		}
		return ""
	default:
		return l.Text
	}
}

// Page is the decoded representation of a fetched resource.
type Page struct {
	URL       *urlmodel.URL
	Title     string
	Lines     []Line
	FetchedAt time.Time
}

// Links returns every KindLink line in order.
func (p *Page) Links() []Line {
	var links []Line
	for _, l := range p.Lines {
		if l.Kind == KindLink {
			links = append(links, l)
		}
	}
	return links
}
