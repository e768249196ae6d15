package fetch

import (
	"crypto/tls"
	"io"
	"net"
	"time"

	"github.com/ncgopher/ncgopher-go/internal/apperr"
	"github.com/ncgopher/ncgopher-go/internal/logging"
	"github.com/ncgopher/ncgopher-go/internal/page"
	"github.com/ncgopher/ncgopher-go/internal/parse"
	"github.com/ncgopher/ncgopher-go/internal/urlmodel"
)

// Gopher fetches u and returns the rendered page. Binary item types
// are streamed to sink instead of parsed; sink may be nil for
// menu/text requests.
func Gopher(u *urlmodel.URL, sink io.Writer, progress ProgressFunc) (*Result, error) {
	if u.ItemType == urlmodel.ItemTypeSearch && !u.HasQuery {
		return &Result{NeedQuery: true}, nil
	}

	conn, err := dialGopher(u)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindNetwork, u.String(), err)
	}
	defer conn.Close()

	wire, err := u.Wire()
	if err != nil {
		return nil, apperr.Wrap(apperr.KindProtocol, u.String(), err)
	}
	if _, err := conn.Write(wire); err != nil {
		return nil, apperr.Wrap(apperr.KindNetwork, u.String(), err)
	}

	if u.ItemType.IsDownloadable() {
		if sink == nil {
			sink = io.Discard
		}
		n, err := copyWithProgress(sink, conn, progress)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindIO, u.String(), err)
		}
		logging.L().Debugw("gopher download complete", "url", u.String(), "bytes", n)
		return &Result{}, nil
	}

	body, err := io.ReadAll(conn)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindNetwork, u.String(), err)
	}

	var lines []page.Line
	switch {
	case u.ItemType == urlmodel.ItemTypeMenu || u.ItemType == urlmodel.ItemTypeSearch:
		lines = parse.Gophermap(body)
	default:
		lines = page.AutolinkBody(string(body))
	}

	return &Result{Page: &page.Page{
		URL:       u,
		Lines:     lines,
		FetchedAt: time.Now(),
	}}, nil
}

// dialGopher opens a TCP connection to u.HostPort, attempting TLS first
// on non-standard ports and falling back to plaintext on handshake
// failure.
func dialGopher(u *urlmodel.URL) (net.Conn, error) {
	addr := u.HostPort()
	dialer := net.Dialer{Timeout: dialTimeout}

	if u.Port != 70 {
		tlsConn, err := tls.DialWithDialer(&dialer, "tcp", addr, &tls.Config{
			ServerName:         u.Host,
			InsecureSkipVerify: true,
		})
		if err == nil {
			return tlsConn, nil
		}
		logging.L().Debugw("gopher TLS attempt failed, falling back to plaintext", "addr", addr, "error", err)
	}
	return dialer.Dial("tcp", addr)
}

// copyWithProgress copies from r to w, invoking progress every
// progressInterval bytes.
func copyWithProgress(w io.Writer, r io.Reader, progress ProgressFunc) (int64, error) {
	buf := make([]byte, progressInterval)
	var total, reported int64
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return total, werr
			}
			total += int64(n)
			if progress != nil && total-reported >= progressInterval {
				progress(total)
				reported = total
			}
		}
		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return total, err
		}
	}
}
