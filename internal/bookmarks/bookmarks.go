// Package bookmarks persists an ordered list of bookmark records to a
// TOML file, written atomically via a temp file plus rename (spec
// §4.8). It follows the same BurntSushi/toml-based load pattern as
// internal/config.
package bookmarks

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Bookmark is one saved entry.
type Bookmark struct {
	Title   string    `toml:"title"`
	URL     string    `toml:"url"`
	Tags    []string  `toml:"tags"`
	AddedAt time.Time `toml:"added_at"`
}

type document struct {
	Bookmark []Bookmark `toml:"bookmark"`
}

// List is an ordered, disk-backed sequence of bookmarks.
type List struct {
	path  string
	items []Bookmark
}

// Load reads the bookmarks file at path, if it exists. A missing file
// is treated as an empty list.
func Load(path string) (*List, error) {
	l := &List{path: path}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return l, nil
	}

	var doc document
	if _, err := toml.DecodeFile(path, &doc); err != nil {
		return nil, fmt.Errorf("bookmarks: decode %s: %w", path, err)
	}
	l.items = doc.Bookmark
	return l, nil
}

// All returns the bookmarks in their stored order.
func (l *List) All() []Bookmark {
	out := make([]Bookmark, len(l.items))
	copy(out, l.items)
	return out
}

// Add appends a bookmark and persists the list. Duplicate URLs are
// rejected so the caller can offer to reuse the existing entry
// instead.
func (l *List) Add(title, url string, tags []string) error {
	for _, b := range l.items {
		if b.URL == url {
			return fmt.Errorf("bookmarks: %q is already bookmarked", url)
		}
	}
	l.items = append(l.items, Bookmark{
		Title:   title,
		URL:     url,
		Tags:    tags,
		AddedAt: time.Now(),
	})
	return l.flush()
}

// Remove deletes the bookmark for url, if present, and persists the
// list.
func (l *List) Remove(url string) error {
	for i, b := range l.items {
		if b.URL == url {
			l.items = append(l.items[:i], l.items[i+1:]...)
			return l.flush()
		}
	}
	return nil
}

// flush writes the list to a temp file in the same directory, then
// renames it into place so a crash mid-write never leaves a truncated
// bookmarks file behind.
func (l *List) flush() error {
	dir := filepath.Dir(l.path)
	tmp, err := os.CreateTemp(dir, "bookmarks-*.toml.tmp")
	if err != nil {
		return fmt.Errorf("bookmarks: create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	enc := toml.NewEncoder(tmp)
	if err := enc.Encode(document{Bookmark: l.items}); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("bookmarks: encode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("bookmarks: close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, l.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("bookmarks: rename temp file: %w", err)
	}
	return nil
}
