// Package parse turns raw protocol bodies into the page model: a
// gophermap parser and a gemtext parser, each emitting a sequence of
// page.Line values.
package parse

import (
	"bufio"
	"bytes"
	"strconv"
	"strings"

	"github.com/ncgopher/ncgopher-go/internal/page"
	"github.com/ncgopher/ncgopher-go/internal/urlmodel"
)

// Gophermap parses a gophermap body into lines:
//
//	<type><display>\t<selector>\t<host>\t<port>[\r]\n
//
// A line not matching this shape is tolerated and rendered as an info
// line rather than failing the whole parse; a terminating "." line
// ends parsing and any tail after it is ignored.
func Gophermap(body []byte) []page.Line {
	var lines []page.Line

	scanner := bufio.NewScanner(bytes.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		raw := strings.TrimRight(scanner.Text(), "\r")
		if raw == "." {
			break
		}
		if raw == "" {
			continue
		}
		lines = append(lines, parseGophermapLine(raw))
	}
	return lines
}

func parseGophermapLine(raw string) page.Line {
	itemType := urlmodel.ItemType(raw[0])
	rest := raw[1:]
	parts := strings.Split(rest, "\t")
	display := parts[0]

	if itemType == urlmodel.ItemTypeInfo || len(parts) < 4 {
		return page.NewText(display)
	}

	selector := parts[1]
	host := parts[2]
	portStr := parts[3]
	port, err := strconv.Atoi(portStr)
	if err != nil {
		// Malformed port: tolerate as info text rather than failing
		// the parse.
		return page.NewText(display)
	}

	target := &urlmodel.URL{
		Scheme:      urlmodel.SchemeGopher,
		Host:        host,
		HostDisplay: host,
		Port:        port,
		Path:        selector,
		ItemType:    itemType,
	}
	if itemType == urlmodel.ItemTypeSearch {
		target.HasQuery = false
	}

	return page.NewLink(target, display, page.LinkGopherMenuEntry)
}
