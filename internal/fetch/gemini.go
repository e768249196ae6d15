package fetch

import (
	"crypto/tls"
	"crypto/x509"
	"io"
	"mime"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/ncgopher/ncgopher-go/internal/apperr"
	"github.com/ncgopher/ncgopher-go/internal/logging"
	"github.com/ncgopher/ncgopher-go/internal/page"
	"github.com/ncgopher/ncgopher-go/internal/parse"
	"github.com/ncgopher/ncgopher-go/internal/trust"
	"github.com/ncgopher/ncgopher-go/internal/urlmodel"
)

const maxGeminiMetaBytes = 1024
const maxRedirects = 5

// statusClass returns the leading digit of a two-digit Gemini status.
func statusClass(status int) int {
	return status / 10
}

const (
	statusClassInput        = 1
	statusClassSuccess      = 2
	statusClassRedirect     = 3
	statusClassTempFailure  = 4
	statusClassPermFailure  = 5
	statusClassCertRequired = 6
)

// Gemini fetches u, consulting store for TOFU pinning and asker for
// user confirmation on new/changed certificates. Redirects are
// followed transparently up to maxRedirects, with loop detection
// against the chain visited so far.
func Gemini(u *urlmodel.URL, store *trust.Store, asker TrustAsker, clientCert ClientCertFunc, sink io.Writer, progress ProgressFunc) (*Result, error) {
	visited := map[string]bool{}
	current := u

	for redirects := 0; ; redirects++ {
		if redirects > maxRedirects {
			return nil, apperr.New(apperr.KindRedirect, "too many redirects")
		}
		chainKey := current.String()
		if visited[chainKey] {
			return nil, apperr.New(apperr.KindRedirect, "redirect loop detected")
		}
		visited[chainKey] = true

		result, redirectTo, err := geminiOnce(current, store, asker, clientCert, sink, progress)
		if err != nil {
			return nil, err
		}
		if redirectTo == nil {
			return result, nil
		}
		current = redirectTo
	}
}

// geminiOnce performs a single request/response cycle. A non-nil
// redirect URL means the caller should re-request with it.
func geminiOnce(u *urlmodel.URL, store *trust.Store, asker TrustAsker, clientCert ClientCertFunc, sink io.Writer, progress ProgressFunc) (*Result, *urlmodel.URL, error) {
	conn, err := dialGeminiTLS(u, store, asker, clientCert)
	if err != nil {
		return nil, nil, err
	}
	defer conn.Close()

	wire, err := u.Wire()
	if err != nil {
		return nil, nil, apperr.Wrap(apperr.KindProtocol, u.String(), err)
	}
	if _, err := conn.Write(wire); err != nil {
		return nil, nil, apperr.Wrap(apperr.KindNetwork, u.String(), err)
	}

	status, meta, body, err := readGeminiResponse(conn)
	if err != nil {
		return nil, nil, apperr.Wrap(apperr.KindProtocol, u.String(), err)
	}

	switch statusClass(status) {
	case statusClassInput:
		return &Result{Page: &page.Page{
			URL:   u,
			Lines: []page.Line{page.NewText(meta)},
		}}, nil, nil

	case statusClassSuccess:
		return successResult(u, meta, body, sink, progress)

	case statusClassRedirect:
		target, err := urlmodel.ResolveRelative(u, meta)
		if err != nil {
			return nil, nil, apperr.Wrap(apperr.KindRedirect, meta, err)
		}
		return nil, target, nil

	case statusClassTempFailure, statusClassPermFailure:
		return nil, nil, apperr.New(apperr.KindProtocol, meta).WithURL(u.String())

	case statusClassCertRequired:
		return nil, nil, apperr.New(apperr.KindTLS, meta).WithURL(u.String())
	}

	return nil, nil, apperr.Newf(apperr.KindProtocol, "unrecognised status %d", status)
}

// successResult interprets a 2x response body according to its
// declared MIME type.
func successResult(u *urlmodel.URL, metaMIME string, body []byte, sink io.Writer, progress ProgressFunc) (*Result, *urlmodel.URL, error) {
	mediaType, params, err := mime.ParseMediaType(metaMIME)
	if err != nil {
		mediaType = strings.TrimSpace(metaMIME)
		params = nil
	}
	if mediaType == "" {
		mediaType = "text/gemini"
	}

	charset := strings.ToLower(params["charset"])
	if charset == "" {
		charset = "utf-8"
	}
	if charset != "utf-8" && charset != "us-ascii" {
		return nil, nil, apperr.Newf(apperr.KindCharset, "unsupported charset %q", charset).WithURL(u.String())
	}

	if mediaType == "text/gemini" {
		lines := parse.Gemtext(body, u)
		return &Result{Page: &page.Page{
			URL:       u,
			Title:     parse.Title(lines),
			Lines:     lines,
			FetchedAt: time.Now(),
		}}, nil, nil
	}

	if strings.HasPrefix(mediaType, "text/") {
		return &Result{Page: &page.Page{
			URL:       u,
			Lines:     page.AutolinkBody(string(body)),
			FetchedAt: time.Now(),
		}}, nil, nil
	}

	if sink != nil {
		if _, err := sink.Write(body); err != nil {
			return nil, nil, apperr.Wrap(apperr.KindIO, u.String(), err)
		}
		if progress != nil {
			progress(int64(len(body)))
		}
	}
	return &Result{}, nil, nil
}

// readGeminiResponse reads the two-digit status, a single space, META
// up to CRLF (capped at maxGeminiMetaBytes), and the remaining body. A
// read error after a complete header is tolerated: the partial body is
// returned and the truncation is logged as a warning.
func readGeminiResponse(conn io.Reader) (status int, meta string, body []byte, err error) {
	all, err := io.ReadAll(conn)
	if err != nil {
		if indexCRLF(all) == -1 {
			return 0, "", nil, err
		}
		logging.L().Warnw("gemini response truncated after header", "kind", apperr.KindProtocol, "error", err)
	}
	headerEnd := indexCRLF(all)
	if headerEnd == -1 {
		return 0, "", nil, apperr.New(apperr.KindProtocol, "missing response header terminator")
	}
	header := string(all[:headerEnd])
	if len(header) < 3 || header[2] != ' ' {
		return 0, "", nil, apperr.New(apperr.KindProtocol, "malformed response header")
	}
	status, err = strconv.Atoi(header[:2])
	if err != nil {
		return 0, "", nil, apperr.Wrap(apperr.KindProtocol, "", err)
	}
	meta = header[3:]
	if len(meta) > maxGeminiMetaBytes {
		return 0, "", nil, apperr.New(apperr.KindProtocol, "META exceeds 1024 bytes")
	}
	return status, meta, all[headerEnd+2:], nil
}

func indexCRLF(b []byte) int {
	for i := 0; i+1 < len(b); i++ {
		if b[i] == '\r' && b[i+1] == '\n' {
			return i
		}
	}
	return -1
}

// dialGeminiTLS performs the TLS handshake with SNI set to u.Host,
// offering a client certificate if clientCert resolves one for this
// origin, and consulting the trust store before completing the
// handshake.
func dialGeminiTLS(u *urlmodel.URL, store *trust.Store, asker TrustAsker, clientCert ClientCertFunc) (*tls.Conn, error) {
	config := &tls.Config{
		ServerName:         u.Host,
		InsecureSkipVerify: true,
	}

	if clientCert != nil {
		if cert, ok := clientCert(u); ok {
			config.Certificates = []tls.Certificate{cert}
		}
	}

	var verifyErr error
	config.VerifyPeerCertificate = func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
		cert, err := x509.ParseCertificate(rawCerts[0])
		if err != nil {
			verifyErr = err
			return err
		}
		result := store.Check(u.Host, u.Port, cert)
		switch result.Decision {
		case trust.Ok:
			return nil
		case trust.New, trust.Mismatch:
			if asker == nil || !asker(u.Host, u.Port, result) {
				verifyErr = apperr.New(apperr.KindTrustReject, "certificate not trusted").WithURL(u.String())
				return verifyErr
			}
			if err := store.Commit(u.Host, u.Port, result.Fingerprint); err != nil {
				logging.L().Warnw("failed to persist trust decision", "host", u.Host, "error", err)
			}
			return nil
		}
		return nil
	}

	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := tls.DialWithDialer(&dialer, "tcp", u.HostPort(), config)
	if err != nil {
		if verifyErr != nil {
			return nil, verifyErr
		}
		return nil, apperr.Wrap(apperr.KindNetwork, u.String(), err)
	}
	return conn, nil
}
