package urlmodel

import (
	"net/url"

	"github.com/ncgopher/ncgopher-go/internal/apperr"
)

// ResolveRelative resolves ref against base per RFC 3986, as Gemini
// link lines require. ref may itself be absolute.
func ResolveRelative(base *URL, ref string) (*URL, error) {
	baseURL, err := url.Parse(base.wireURL())
	if err != nil {
		return nil, apperr.Wrap(apperr.KindURLParse, ref, err)
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindURLParse, ref, err)
	}
	resolved := baseURL.ResolveReference(refURL)
	return Parse(resolved.String())
}
