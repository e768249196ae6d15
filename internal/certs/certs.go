// Package certs stores client TLS certificates keyed by URL origin
// prefix, offered during a Gemini handshake when the server requests
// one. Each origin's certificate and key live concatenated in a single
// PEM file on disk; certificates are supplied by the user rather than
// minted by the client.
package certs

import (
	"crypto/tls"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Dir is a directory of client certificates keyed by origin (e.g.
// "gemini://example.org"). Safe for concurrent use.
type Dir struct {
	mu    sync.RWMutex
	path  string
	certs map[string]tls.Certificate
}

// Load reads all "*.pem" files under path, where each file's base name
// (path-unescaped, so "%2F" becomes "/") is the origin it applies to.
// Missing directories are treated as empty.
func Load(path string) (*Dir, error) {
	d := &Dir{path: path, certs: map[string]tls.Certificate{}}

	matches, err := filepath.Glob(filepath.Join(path, "*.pem"))
	if err != nil {
		return nil, fmt.Errorf("certs: glob %s: %w", path, err)
	}
	for _, pemPath := range matches {
		raw, err := os.ReadFile(pemPath)
		if err != nil {
			continue
		}
		cert, err := tls.X509KeyPair(raw, raw)
		if err != nil {
			continue
		}
		origin := unescapeOrigin(strings.TrimSuffix(filepath.Base(pemPath), ".pem"))
		d.certs[origin] = cert
	}
	return d, nil
}

// Lookup returns the certificate configured for the longest origin
// prefix of rawURL, if any.
func (d *Dir) Lookup(rawURL string) (tls.Certificate, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var best string
	var bestCert tls.Certificate
	found := false
	for origin, cert := range d.certs {
		if strings.HasPrefix(rawURL, origin) && len(origin) > len(best) {
			best = origin
			bestCert = cert
			found = true
		}
	}
	return bestCert, found
}

// Add stores cert for origin, persisting it to <path>/<escaped-origin>.pem
// if the directory has a backing path.
func (d *Dir) Add(origin string, certPEM, keyPEM []byte) error {
	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return fmt.Errorf("certs: parse key pair for %q: %w", origin, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.certs == nil {
		d.certs = map[string]tls.Certificate{}
	}

	if d.path != "" {
		if err := os.MkdirAll(d.path, 0o755); err != nil {
			return fmt.Errorf("certs: create %s: %w", d.path, err)
		}
		pemPath := filepath.Join(d.path, escapeOrigin(origin)+".pem")
		combined := append(append([]byte{}, certPEM...), keyPEM...)
		if err := os.WriteFile(pemPath, combined, 0o600); err != nil {
			return fmt.Errorf("certs: write %s: %w", pemPath, err)
		}
	}

	d.certs[origin] = cert
	return nil
}

func escapeOrigin(origin string) string {
	return url.PathEscape(origin)
}

func unescapeOrigin(scope string) string {
	origin, err := url.PathUnescape(scope)
	if err != nil {
		return scope
	}
	return origin
}
