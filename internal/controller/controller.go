// Package controller implements the navigation state machine and
// message hub that sits between the terminal UI and the protocol
// fetchers. It owns the current URL, the navigation stack, bookmarks,
// history, the trust store, and the request generation counter;
// fetchers run on worker goroutines and report back asynchronously so
// a stale response can never overwrite a newer page.
package controller

import (
	"crypto/tls"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/ncgopher/ncgopher-go/internal/apperr"
	"github.com/ncgopher/ncgopher-go/internal/bookmarks"
	"github.com/ncgopher/ncgopher-go/internal/certs"
	"github.com/ncgopher/ncgopher-go/internal/config"
	"github.com/ncgopher/ncgopher-go/internal/fetch"
	"github.com/ncgopher/ncgopher-go/internal/history"
	"github.com/ncgopher/ncgopher-go/internal/logging"
	"github.com/ncgopher/ncgopher-go/internal/page"
	"github.com/ncgopher/ncgopher-go/internal/trust"
	"github.com/ncgopher/ncgopher-go/internal/urlmodel"
)

// State is the controller's per-request navigation state.
type State int

const (
	Idle State = iota
	Dispatching
	Suspended
	Rendering
)

// navEntry is one frame of the navigation stack.
type navEntry struct {
	url    *urlmodel.URL
	page   *page.Page
	cursor int
}

// fetchOutcome is what a worker goroutine reports back to the
// controller loop once a fetch completes, successfully or not.
type fetchOutcome struct {
	generation  uint64
	url         *urlmodel.URL
	result      *fetch.Result
	err         error
	pushHistory bool
}

// suspendNotice is emitted internally by a worker that is blocking on
// a trust decision, so the controller loop can move its State to
// Suspended without the worker touching controller state directly.
type suspendNotice struct{ generation uint64 }

// Controller is the single owner of navigation state. Run must be
// called from its own goroutine; it is the only goroutine that
// mutates navStack, history, or bookmarks. Trust-store writes happen
// on the fetch worker goroutine that asked for the decision (see
// fetch.Gemini).
type Controller struct {
	toUI   chan<- ControllerMessage
	fromUI <-chan UiMessage

	internal chan any // workers -> controller: fetchOutcome, suspendNotice

	cfg        config.Config
	hist       *history.Store
	bookmarks  *bookmarks.List
	trustStore *trust.Store
	certDir    *certs.Dir

	generation uint64 // atomic, bumped by NavigateTo

	state    State
	current  *urlmodel.URL
	navStack []navEntry
	navPos   int

	mu           sync.Mutex
	pendingGen   uint64
	pendingReply chan bool
}

// New constructs a Controller. toUI is the controller_tx -> ui_rx
// channel; fromUI is the ui_tx -> controller_rx channel.
func New(toUI chan<- ControllerMessage, fromUI <-chan UiMessage, cfg config.Config, hist *history.Store, bm *bookmarks.List, trustStore *trust.Store, certDir *certs.Dir) *Controller {
	return &Controller{
		toUI:       toUI,
		fromUI:     fromUI,
		internal:   make(chan any, 16),
		cfg:        cfg,
		hist:       hist,
		bookmarks:  bm,
		trustStore: trustStore,
		certDir:    certDir,
		state:      Idle,
	}
}

// Run processes UI messages and worker outcomes until a Quit message
// is received.
func (c *Controller) Run() {
	for {
		select {
		case msg := <-c.fromUI:
			if _, quit := msg.(Quit); quit {
				return
			}
			c.handleUI(msg)
		case evt := <-c.internal:
			c.handleInternal(evt)
		}
	}
}

func (c *Controller) handleUI(msg UiMessage) {
	switch m := msg.(type) {
	case NavigateTo:
		c.navigate(m.URL, true)
	case Reload:
		if c.current != nil {
			c.navigateURL(c.current, false)
		}
	case NavigateBack:
		c.back()
	case AddBookmark:
		if err := c.bookmarks.Add(m.Title, m.URL, nil); err != nil {
			c.toUI <- ShowStatus{Text: err.Error()}
		}
	case OpenBookmark:
		c.navigate(m.URL, true)
	case SetQuery:
		u, err := urlmodel.Parse(m.URL)
		if err != nil {
			c.toUI <- ShowError{Kind: apperr.KindURLParse, Text: err.Error()}
			return
		}
		u.Query = m.Query
		u.HasQuery = true
		c.navigateURL(u, true)
	case Download:
		c.download(m.URL, m.Path)
	case SavePage:
		c.savePage(m.Path)
	case ConfirmTrust:
		c.resolveTrust(true)
	case RejectTrust:
		c.resolveTrust(false)
	}
}

func (c *Controller) resolveTrust(accept bool) {
	c.mu.Lock()
	reply := c.pendingReply
	gen := c.pendingGen
	c.pendingReply = nil
	c.mu.Unlock()

	if reply == nil {
		logging.L().Warnw("trust decision received with no pending request")
		return
	}
	if gen != atomic.LoadUint64(&c.generation) {
		logging.L().Debugw("trust decision for superseded generation", "pending", gen, "current", c.generation)
	}
	reply <- accept
	c.state = Dispatching
}

func (c *Controller) navigate(rawURL string, pushHistory bool) {
	u, err := urlmodel.Parse(rawURL)
	if err != nil {
		c.toUI <- ShowError{Kind: apperr.KindURLParse, Text: err.Error()}
		return
	}
	c.navigateURL(u, pushHistory)
}

func (c *Controller) navigateURL(u *urlmodel.URL, pushHistory bool) {
	gen := atomic.AddUint64(&c.generation, 1)
	c.state = Dispatching
	c.current = u

	go c.runFetch(gen, u, pushHistory)
}

// runFetch executes on a worker goroutine: it must never touch
// controller-owned state directly, only report back over c.internal.
func (c *Controller) runFetch(gen uint64, u *urlmodel.URL, pushHistory bool) {
	asker := func(host string, port int, result trust.Result) bool {
		c.internal <- suspendNotice{generation: gen}
		return c.askTrust(gen, host, port, result)
	}

	var result *fetch.Result
	var err error
	switch u.Scheme {
	case urlmodel.SchemeGopher:
		result, err = fetch.Gopher(u, nil, nil)
	case urlmodel.SchemeGemini:
		result, err = fetch.Gemini(u, c.trustStore, asker, c.lookupClientCert, nil, nil)
	case urlmodel.SchemeFinger:
		result, err = fetch.Finger(u)
	default:
		err = apperr.Newf(apperr.KindURLParse, "unsupported scheme %q", u.Scheme)
	}

	c.internal <- fetchOutcome{generation: gen, url: u, result: result, err: err, pushHistory: pushHistory}
}

// lookupClientCert resolves the client certificate configured for
// origin's longest matching prefix, if any.
func (c *Controller) lookupClientCert(origin *urlmodel.URL) (tls.Certificate, bool) {
	if c.certDir == nil {
		return tls.Certificate{}, false
	}
	return c.certDir.Lookup(origin.String())
}

// askTrust suspends the calling worker goroutine until the controller
// loop routes back a ConfirmTrust/RejectTrust decision.
func (c *Controller) askTrust(gen uint64, host string, port int, result trust.Result) bool {
	reply := make(chan bool, 1)

	c.mu.Lock()
	c.pendingGen = gen
	c.pendingReply = reply
	c.mu.Unlock()

	var old *string
	if result.Decision == trust.Mismatch {
		prev := result.Previous
		old = &prev
	}
	c.toUI <- AskTrust{Host: host, Port: port, OldFingerprint: old, NewFingerprint: result.Fingerprint}
	return <-reply
}

func (c *Controller) handleInternal(evt any) {
	switch e := evt.(type) {
	case suspendNotice:
		if e.generation == atomic.LoadUint64(&c.generation) {
			c.state = Suspended
		}
	case fetchOutcome:
		c.handleFetchOutcome(e)
	}
}

func (c *Controller) handleFetchOutcome(e fetchOutcome) {
	current := atomic.LoadUint64(&c.generation)
	if e.generation < current {
		logging.L().Debugw("dropping stale fetch response", "url", e.url.String(), "generation", e.generation, "current", current)
		return
	}

	if e.err != nil {
		c.state = Idle
		kind := apperr.KindInternal
		if ae, ok := e.err.(*apperr.Error); ok {
			kind = ae.Kind
		}
		c.toUI <- ShowError{Kind: kind, Text: e.err.Error()}
		return
	}

	c.state = Rendering

	if e.result.NeedQuery {
		c.state = Idle
		c.toUI <- AskQuery{Prompt: "Enter search query:", URL: e.url.String()}
		return
	}

	if e.result.Page == nil {
		// Binary download already streamed to its sink; nothing to
		// render or push into history.
		c.state = Idle
		return
	}

	if !e.pushHistory && c.navPos > 0 {
		// Reload: replace the top navigation-stack frame in place
		// rather than pushing a new one, and skip the history-db
		// visit bump.
		c.navStack[c.navPos-1] = navEntry{url: e.url, page: e.result.Page}
		c.state = Idle
		c.toUI <- ShowPage{Page: e.result.Page}
		return
	}

	if c.shouldRecordHistory(e.url) {
		title := e.result.Page.Title
		if err := c.hist.RecordVisit(e.url.String(), title); err != nil {
			logging.L().Warnw("failed to record history visit", "url", e.url.String(), "error", err)
		}
	}

	c.navStack = append(c.navStack[:c.navPos], navEntry{url: e.url, page: e.result.Page})
	c.navPos = len(c.navStack)

	c.state = Idle
	c.toUI <- ShowPage{Page: e.result.Page}
}

// shouldRecordHistory excludes binary downloads and query-type URLs
// from history.
func (c *Controller) shouldRecordHistory(u *urlmodel.URL) bool {
	if c.cfg.DisableHistory {
		return false
	}
	if u.Scheme != urlmodel.SchemeGopher && u.Scheme != urlmodel.SchemeGemini && u.Scheme != urlmodel.SchemeFinger {
		return false
	}
	if u.ItemType.IsDownloadable() || u.ItemType == urlmodel.ItemTypeSearch {
		return false
	}
	return true
}

// back pops the navigation stack and re-shows the saved page without
// re-fetching.
func (c *Controller) back() {
	if c.navPos <= 1 {
		c.toUI <- ShowStatus{Text: "no previous page"}
		return
	}
	c.navPos--
	entry := c.navStack[c.navPos-1]
	c.current = entry.url
	cursor := entry.cursor
	c.toUI <- ShowPage{Page: entry.page, Cursor: &cursor}
}

func (c *Controller) download(rawURL, path string) {
	u, err := urlmodel.Parse(rawURL)
	if err != nil {
		c.toUI <- ShowError{Kind: apperr.KindURLParse, Text: err.Error()}
		return
	}
	gen := atomic.AddUint64(&c.generation, 1)
	c.state = Dispatching

	go func() {
		f, err := os.Create(path)
		if err != nil {
			c.internal <- fetchOutcome{generation: gen, url: u, err: apperr.Wrap(apperr.KindIO, path, err)}
			return
		}
		defer f.Close()

		progress := func(n int64) { c.toUI <- ProgressTick{Bytes: n} }

		var result *fetch.Result
		switch u.Scheme {
		case urlmodel.SchemeGopher:
			result, err = fetch.Gopher(u, f, progress)
		case urlmodel.SchemeGemini:
			asker := func(host string, port int, r trust.Result) bool {
				c.internal <- suspendNotice{generation: gen}
				return c.askTrust(gen, host, port, r)
			}
			result, err = fetch.Gemini(u, c.trustStore, asker, c.lookupClientCert, f, progress)
		default:
			err = apperr.Newf(apperr.KindURLParse, "cannot download scheme %q", u.Scheme)
		}
		c.internal <- fetchOutcome{generation: gen, url: u, result: result, err: err}
	}()
}

// savePage writes the body of the currently rendered page to path.
// This is a simplified best-effort save of the rendered text; it does
// not re-fetch.
func (c *Controller) savePage(path string) {
	if c.navPos == 0 {
		c.toUI <- ShowStatus{Text: "no page to save"}
		return
	}
	entry := c.navStack[c.navPos-1]
	f, err := os.Create(path)
	if err != nil {
		c.toUI <- ShowError{Kind: apperr.KindIO, Text: err.Error()}
		return
	}
	defer f.Close()

	for _, line := range entry.page.Lines {
		if _, err := io.WriteString(f, line.String()+"\n"); err != nil {
			c.toUI <- ShowError{Kind: apperr.KindIO, Text: err.Error()}
			return
		}
	}
	c.toUI <- ShowStatus{Text: "saved to " + path}
}
