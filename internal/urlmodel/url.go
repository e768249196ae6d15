// Package urlmodel parses and normalises the Gopher, Gemini, and Finger
// URLs the rest of the client treats as its single identity key for
// history and bookmarks, keeping Gopher's item-type embedded in the
// URL rather than tracked as side-band state.
package urlmodel

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/net/idna"

	"github.com/ncgopher/ncgopher-go/internal/apperr"
)

// Scheme is one of the schemes this client understands.
type Scheme string

const (
	SchemeGopher Scheme = "gopher"
	SchemeGemini Scheme = "gemini"
	SchemeFinger Scheme = "finger"
	SchemeAbout  Scheme = "about"
	SchemeMailto Scheme = "mailto"
	SchemeHTTP   Scheme = "http"
	SchemeHTTPS  Scheme = "https"
)

// DefaultPort returns the default port for scheme, or 0 if the scheme
// has none (e.g. about:, mailto:).
func DefaultPort(scheme Scheme) int {
	switch scheme {
	case SchemeGopher:
		return 70
	case SchemeGemini:
		return 1965
	case SchemeFinger:
		return 79
	case SchemeHTTP:
		return 80
	case SchemeHTTPS:
		return 443
	}
	return 0
}

// URL is the parsed, normalised representation of a resource this
// client can navigate to.
type URL struct {
	Scheme Scheme

	// Host is the IDNA A-label form, used on the wire.
	Host string
	// HostDisplay is the Unicode U-label form, used for rendering.
	HostDisplay string

	Port int

	// Path is the decoded path. For Gopher URLs the item-type segment
	// has already been stripped into ItemType.
	Path string

	// Query is the Gemini "?query" or the Gopher search-server query.
	Query string
	// HasQuery distinguishes an empty query from no query at all,
	// which matters for Gopher type-7 URLs (the tab-query is
	// authoritative over a "?query" suffix) and Gemini's empty-input
	// resubmission.
	HasQuery bool

	// ItemType is meaningful only for Gopher URLs.
	ItemType ItemType
}

// Parse parses raw into a URL. A URL with no scheme is rejected.
func Parse(raw string) (*URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindURLParse, raw, err)
	}
	if u.Scheme == "" {
		return nil, apperr.Newf(apperr.KindURLParse, "missing scheme in %q", raw)
	}

	scheme := Scheme(strings.ToLower(u.Scheme))

	result := &URL{Scheme: scheme}

	if u.Host != "" {
		hostname := u.Hostname()
		display, wire, err := normaliseHost(hostname)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindURLParse, raw, err)
		}
		result.Host = wire
		result.HostDisplay = display

		if portStr := u.Port(); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return nil, apperr.Newf(apperr.KindURLParse, "invalid port in %q", raw)
			}
			result.Port = port
		} else {
			result.Port = DefaultPort(scheme)
		}
	}

	path := u.Path

	if scheme == SchemeGopher {
		itemType, rest, err := splitItemType(path)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindURLParse, raw, err)
		}
		result.ItemType = itemType
		path = rest

		tabIdx := strings.IndexByte(path, '\t')
		hasExternalQuery := u.RawQuery != ""
		if tabIdx >= 0 {
			if hasExternalQuery {
				// Ambiguous: both an embedded tab-query and an
				// external ?query. Reject at parse time rather than
				// silently preferring one.
				return nil, apperr.Newf(apperr.KindURLParse,
					"ambiguous query in gopher URL %q: both tab and ?query present", raw)
			}
			result.Query = path[tabIdx+1:]
			result.HasQuery = true
			path = path[:tabIdx]
		} else if hasExternalQuery {
			result.Query = u.RawQuery
			result.HasQuery = true
		}
	} else if scheme == SchemeGemini {
		if u.RawQuery != "" || u.ForceQuery {
			result.Query = u.RawQuery
			result.HasQuery = true
		}
	}

	result.Path = path
	return result, nil
}

// splitItemType lifts a /X/... leading item-type segment out of path.
// A bare "/" implies item-type '1'.
func splitItemType(path string) (ItemType, string, error) {
	if path == "" || path == "/" {
		return ItemTypeMenu, "/", nil
	}
	if path[0] != '/' {
		path = "/" + path
	}
	rest := path[1:]
	if rest == "" {
		return ItemTypeMenu, "/", nil
	}
	// The first path segment must be a single printable char followed
	// by '/' or end of string to count as an item-type segment.
	slash := strings.IndexByte(rest, '/')
	var seg string
	if slash == -1 {
		seg = rest
	} else {
		seg = rest[:slash]
	}
	if len(seg) == 1 && isPrintableASCII(seg[0]) {
		it := ItemType(seg[0])
		if slash == -1 {
			return it, "", nil
		}
		return it, rest[slash:], nil
	}
	// No item-type segment present; default to directory listing with
	// the full path as selector, consistent with a bare "/".
	return ItemTypeMenu, path, nil
}

func isPrintableASCII(b byte) bool {
	return b >= 0x20 && b < 0x7f
}

// normaliseHost returns the Unicode display form and the ASCII wire
// form (IDNA A-label) of hostname.
func normaliseHost(hostname string) (display, wire string, err error) {
	if hostname == "" {
		return "", "", nil
	}
	if ip := net.ParseIP(hostname); ip != nil {
		return hostname, hostname, nil
	}
	aLabel, err := idna.Lookup.ToASCII(hostname)
	if err != nil {
		return "", "", fmt.Errorf("idna: %w", err)
	}
	uLabel, err := idna.Lookup.ToUnicode(aLabel)
	if err != nil {
		// Fall back to the ASCII form for display; this is not fatal.
		uLabel = aLabel
	}
	return uLabel, aLabel, nil
}

// String renders the URL in display form (Unicode hostname, scheme
// default ports omitted).
func (u *URL) String() string {
	var b strings.Builder
	b.WriteString(string(u.Scheme))
	b.WriteString("://")
	if u.HostDisplay != "" {
		b.WriteString(u.HostDisplay)
		if u.Port != 0 && u.Port != DefaultPort(u.Scheme) {
			fmt.Fprintf(&b, ":%d", u.Port)
		}
	}
	b.WriteString(u.wirePath())
	if u.HasQuery && u.Scheme == SchemeGemini {
		b.WriteByte('?')
		b.WriteString(u.Query)
	}
	return b.String()
}

// wirePath reconstructs the percent-encoded path including the Gopher
// item-type segment, suitable for embedding in a URL string.
func (u *URL) wirePath() string {
	escaped := (&url.URL{Path: u.Path}).EscapedPath()
	if u.Scheme != SchemeGopher {
		return escaped
	}
	if escaped == "" {
		escaped = "/"
	}
	return "/" + string(rune(u.ItemType)) + escaped
}

// Wire returns the bytes to send on the wire to request this URL.
func (u *URL) Wire() ([]byte, error) {
	switch u.Scheme {
	case SchemeGopher:
		selector := u.Path
		var b strings.Builder
		b.WriteString(selector)
		if u.ItemType == ItemTypeSearch && u.HasQuery {
			b.WriteByte('\t')
			b.WriteString(u.Query)
		}
		b.WriteString("\r\n")
		return []byte(b.String()), nil
	case SchemeGemini:
		full := u.wireURL()
		if len(full) > 1024 {
			return nil, apperr.New(apperr.KindProtocol, "gemini request line exceeds 1024 bytes")
		}
		return []byte(full + "\r\n"), nil
	case SchemeFinger:
		user := strings.TrimPrefix(u.Path, "/")
		return []byte(user + "\r\n"), nil
	}
	return nil, apperr.Newf(apperr.KindURLParse, "cannot serialise scheme %q to wire format", u.Scheme)
}

// wireURL renders the ASCII wire form of a Gemini URL: scheme, A-label
// host, path, and query.
func (u *URL) wireURL() string {
	var b strings.Builder
	b.WriteString(string(u.Scheme))
	b.WriteString("://")
	b.WriteString(u.Host)
	if u.Port != 0 && u.Port != DefaultPort(u.Scheme) {
		fmt.Fprintf(&b, ":%d", u.Port)
	}
	escaped := (&url.URL{Path: u.Path}).EscapedPath()
	if escaped == "" {
		escaped = "/"
	}
	b.WriteString(escaped)
	if u.HasQuery {
		b.WriteByte('?')
		b.WriteString(u.Query)
	}
	return b.String()
}

// HostPort returns "host:port" suitable for net.Dial.
func (u *URL) HostPort() string {
	return net.JoinHostPort(u.Host, strconv.Itoa(u.Port))
}

// IsDownloadable reports whether this Gopher item-type denotes a binary
// resource that must be streamed to a download sink rather than parsed.
func (it ItemType) IsDownloadable() bool {
	switch it {
	case ItemTypeBinary, ItemTypeGIF, ItemTypeImage, ItemTypeSound, ItemTypePNG, ItemTypeDOSArchive, ItemTypeUUEncoded, ItemTypeBinHex:
		return true
	}
	return false
}

// Equal reports whether two URLs are equal for history/bookmark keying
// purposes: same normalised wire identity.
func (u *URL) Equal(o *URL) bool {
	if u == nil || o == nil {
		return u == o
	}
	return u.Scheme == o.Scheme && u.Host == o.Host && u.Port == o.Port &&
		u.Path == o.Path && u.ItemType == o.ItemType && u.Query == o.Query
}
