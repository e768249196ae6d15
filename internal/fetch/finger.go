package fetch

import (
	"io"
	"net"
	"strings"
	"time"

	"github.com/ncgopher/ncgopher-go/internal/apperr"
	"github.com/ncgopher/ncgopher-go/internal/page"
	"github.com/ncgopher/ncgopher-go/internal/urlmodel"
)

// Finger fetches u: connect, send the user name (the URL path with its
// leading slash stripped) plus CRLF, read to EOF, and autolink the
// result as plain text.
func Finger(u *urlmodel.URL) (*Result, error) {
	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.Dial("tcp", u.HostPort())
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

	body, err := io.ReadAll(conn)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindNetwork, u.String(), err)
	}

	return &Result{Page: &page.Page{
		URL:       u,
		Lines:     page.AutolinkBody(strings.ReplaceAll(string(body), "\r\n", "\n")),
		FetchedAt: time.Now(),
	}}, nil
}
