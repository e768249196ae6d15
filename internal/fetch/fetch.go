// Package fetch implements the protocol-specific request/response cycle
// for Gopher, Gemini, and Finger. Each fetcher is a blocking call meant
// to run on a worker goroutine; suspension for trust decisions is
// expressed through the TrustAsker callback rather than shared state,
// and a Gopher search with no query is reported back through
// Result.NeedQuery, so a fetcher never touches controller-owned state
// directly.
package fetch

import (
	"crypto/tls"
	"time"

	"github.com/ncgopher/ncgopher-go/internal/page"
	"github.com/ncgopher/ncgopher-go/internal/trust"
	"github.com/ncgopher/ncgopher-go/internal/urlmodel"
)

// Result is what a fetcher produces for a textual/menu resource.
type Result struct {
	Page *page.Page
	// NeedQuery signals a Gopher type-7 search server hit with no
	// query attached yet; the caller must prompt and re-request.
	NeedQuery bool
}

// ProgressFunc is invoked periodically while streaming a downloadable
// resource to sink, reporting cumulative bytes written.
type ProgressFunc func(bytesWritten int64)

// TrustAsker is consulted when a Gemini TLS handshake needs a user
// decision on a new or changed certificate fingerprint. It must block
// until the user responds and return whether to proceed.
type TrustAsker func(host string, port int, result trust.Result) (accept bool)

// progressInterval is how often ProgressFunc is invoked during a Gopher
// download, measured in bytes written rather than wall-clock time so
// behaviour is deterministic under test. A Gemini body is read whole
// before it reaches the sink, so a Gemini download invokes
// ProgressFunc once, with the full size.
const progressInterval = 32 * 1024

// ClientCertFunc resolves the client certificate (if any) configured
// for the given origin URL.
type ClientCertFunc func(origin *urlmodel.URL) (cert tls.Certificate, ok bool)

// dialTimeout bounds how long a fetcher waits to establish a
// connection before giving up with a Network error.
const dialTimeout = 30 * time.Second
