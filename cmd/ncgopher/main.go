// Command ncgopher is a terminal client for Gopher, Gemini, and Finger.
//
// The curses-based menu/dialog layer described in the design is
// external plumbing (out of scope for this module); this entrypoint
// wires configuration, persistence, and the navigation controller
// together and drives them from a line-oriented console front end.
package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	flag "github.com/spf13/pflag"

	"github.com/ncgopher/ncgopher-go/internal/bookmarks"
	"github.com/ncgopher/ncgopher-go/internal/certs"
	"github.com/ncgopher/ncgopher-go/internal/config"
	"github.com/ncgopher/ncgopher-go/internal/controller"
	"github.com/ncgopher/ncgopher-go/internal/history"
	"github.com/ncgopher/ncgopher-go/internal/logging"
	"github.com/ncgopher/ncgopher-go/internal/trust"
)

// version is set at build time via -ldflags.
var version = "dev"

const (
	exitOK            = 0
	exitConfigError   = 1
	exitTerminalError = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("ncgopher", flag.ContinueOnError)
	debugPath := fs.StringP("debug", "d", "", "append log messages to <path>")
	configPath := fs.String("config", "", "use <path> as the configuration directory (not a path to config.toml itself)")
	showVersion := fs.BoolP("version", "V", false, "print version and exit")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: ncgopher [flags] [url]")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return exitOK
		}
		fmt.Fprintln(os.Stderr, err)
		return exitConfigError
	}

	if *showVersion {
		fmt.Println("ncgopher", version)
		return exitOK
	}

	if *debugPath != "" {
		if err := logging.Init(*debugPath); err != nil {
			fmt.Fprintln(os.Stderr, "ncgopher: cannot open debug log:", err)
			return exitConfigError
		}
		defer logging.Sync()
	}

	dir := *configPath
	if dir == "" {
		resolved, err := config.Dir()
		if err != nil {
			fmt.Fprintln(os.Stderr, "ncgopher: cannot resolve config directory:", err)
			return exitConfigError
		}
		dir = resolved
	}
	if err := config.EnsureDir(dir); err != nil {
		fmt.Fprintln(os.Stderr, "ncgopher: cannot create config directory:", err)
		return exitConfigError
	}

	cfg, err := config.Load(dir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ncgopher: cannot load config:", err)
		return exitConfigError
	}

	hist, err := history.Open(filepath.Join(dir, "history.db"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "ncgopher: cannot open history store:", err)
		return exitConfigError
	}
	defer hist.Close()

	bm, err := bookmarks.Load(filepath.Join(dir, "bookmarks.toml"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "ncgopher: cannot load bookmarks:", err)
		return exitConfigError
	}

	trustStore, err := trust.Load(filepath.Join(dir, "hosts"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "ncgopher: cannot load trust store:", err)
		return exitConfigError
	}

	certDir, err := certs.Load(filepath.Join(dir, "certs"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "ncgopher: cannot load client certificates:", err)
		return exitConfigError
	}

	toUI := make(chan controller.ControllerMessage, 16)
	fromUI := make(chan controller.UiMessage, 16)

	ctrl := controller.New(toUI, fromUI, cfg, hist, bm, trustStore, certDir)
	go ctrl.Run()
	defer func() { fromUI <- controller.Quit{} }()

	startURL := cfg.Homepage
	if positional := fs.Args(); len(positional) > 0 {
		startURL = positional[0]
	}
	if startURL != "" {
		fromUI <- controller.NavigateTo{URL: startURL}
	}

	runConsole(fromUI, toUI)
	return exitOK
}

// runConsole is a minimal line-oriented front end standing in for the
// curses UI: it prints rendered pages and error/status notifications
// to stdout, and accepts a small command set on stdin. Trust and
// query prompts are answered interactively, matching the rendezvous
// model the controller expects.
func runConsole(fromUI chan<- controller.UiMessage, toUI <-chan controller.ControllerMessage) {
	stdin := bufio.NewScanner(os.Stdin)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for msg := range toUI {
			printControllerMessage(fromUI, stdin, msg)
		}
	}()

	for stdin.Scan() {
		line := stdin.Text()
		if line == "" {
			continue
		}
		switch {
		case line == "q" || line == "quit":
			return
		case line == "b" || line == "back":
			fromUI <- controller.NavigateBack{}
		case line == "r" || line == "reload":
			fromUI <- controller.Reload{}
		default:
			fromUI <- controller.NavigateTo{URL: line}
		}
	}
}

func printControllerMessage(fromUI chan<- controller.UiMessage, stdin *bufio.Scanner, msg controller.ControllerMessage) {
	switch m := msg.(type) {
	case controller.ShowPage:
		for _, line := range m.Page.Lines {
			fmt.Println(line.String())
		}
	case controller.ShowStatus:
		fmt.Fprintln(os.Stderr, "--", m.Text)
	case controller.ShowError:
		fmt.Fprintf(os.Stderr, "error [%s]: %s\n", m.Kind, m.Text)
	case controller.AskTrust:
		fmt.Fprintf(os.Stderr, "new certificate for %s:%d (fingerprint %s) -- trust it? [y/N] ", m.Host, m.Port, m.NewFingerprint)
		stdin.Scan()
		if stdin.Text() == "y" {
			fromUI <- controller.ConfirmTrust{Host: m.Host, Port: m.Port, Fingerprint: m.NewFingerprint}
		} else {
			fromUI <- controller.RejectTrust{Host: m.Host, Port: m.Port}
		}
	case controller.AskQuery:
		fmt.Fprintf(os.Stderr, "%s ", m.Prompt)
		stdin.Scan()
		fromUI <- controller.SetQuery{URL: m.URL, Query: stdin.Text()}
	case controller.ProgressTick:
		fmt.Fprintf(os.Stderr, "\rdownloaded %d bytes", m.Bytes)
	}
}
