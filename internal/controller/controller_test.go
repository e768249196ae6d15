package controller

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncgopher/ncgopher-go/internal/bookmarks"
	"github.com/ncgopher/ncgopher-go/internal/config"
	"github.com/ncgopher/ncgopher-go/internal/history"
	"github.com/ncgopher/ncgopher-go/internal/trust"
	"github.com/ncgopher/ncgopher-go/internal/urlmodel"
)

func newTestController(t *testing.T) (*Controller, chan UiMessage, chan ControllerMessage) {
	t.Helper()
	dir := t.TempDir()

	hist, err := history.Open(filepath.Join(dir, "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { hist.Close() })

	bm, err := bookmarks.Load(filepath.Join(dir, "bookmarks.toml"))
	require.NoError(t, err)

	ts, err := trust.Load(filepath.Join(dir, "hosts"))
	require.NoError(t, err)

	toUI := make(chan ControllerMessage, 16)
	fromUI := make(chan UiMessage, 16)

	c := New(toUI, fromUI, config.Default(), hist, bm, ts, nil)
	go c.Run()
	t.Cleanup(func() { fromUI <- Quit{} })

	return c, fromUI, toUI
}

func recv(t *testing.T, ch chan ControllerMessage) ControllerMessage {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for controller message")
		return nil
	}
}

func TestNavigateToUnsupportedSchemeReportsError(t *testing.T) {
	_, fromUI, toUI := newTestController(t)
	fromUI <- NavigateTo{URL: "mailto:foo@example.org"}

	msg := recv(t, toUI)
	_, ok := msg.(ShowError)
	assert.True(t, ok)
}

func TestNavigateToMalformedURLReportsError(t *testing.T) {
	_, fromUI, toUI := newTestController(t)
	fromUI <- NavigateTo{URL: "::::not a url"}

	msg := recv(t, toUI)
	showErr, ok := msg.(ShowError)
	require.True(t, ok)
	assert.NotEmpty(t, showErr.Text)
}

func TestStaleResponseIsDroppedByGeneration(t *testing.T) {
	c, _, toUI := newTestController(t)

	// Simulate a late worker response for a generation older than the
	// controller's current generation.
	u, err := urlmodel.Parse("gopher://example.org/")
	require.NoError(t, err)

	c.generation = 5
	c.internal <- fetchOutcome{generation: 1, url: u, err: nil}

	select {
	case msg := <-toUI:
		t.Fatalf("expected no message for a stale generation, got %#v", msg)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestBackWithEmptyStackShowsStatus(t *testing.T) {
	_, fromUI, toUI := newTestController(t)
	fromUI <- NavigateBack{}

	msg := recv(t, toUI)
	_, ok := msg.(ShowStatus)
	assert.True(t, ok)
}

func TestAddBookmarkThenDuplicateReportsStatus(t *testing.T) {
	_, fromUI, toUI := newTestController(t)
	fromUI <- AddBookmark{Title: "Example", URL: "gemini://example.org/"}
	fromUI <- AddBookmark{Title: "Example", URL: "gemini://example.org/"}

	msg := recv(t, toUI)
	_, ok := msg.(ShowStatus)
	assert.True(t, ok)
}
