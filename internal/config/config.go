// Package config loads and resolves ncgopher's persisted configuration,
// following the same BurntSushi/toml load pattern used by
// internal/bookmarks, with directory resolution driven by the XDG base
// directory convention and the NCGOPHER_CONFIG_DIR override.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the parsed contents of config.toml.
type Config struct {
	Homepage       string            `toml:"homepage"`
	DownloadPath   string            `toml:"download_path"`
	Darkmode       bool              `toml:"darkmode"`
	Textwrap       int               `toml:"textwrap"`
	DisableHistory bool              `toml:"disable_history"`
	Keybindings    map[string]string `toml:"keybindings"`
}

// Default returns the configuration used when no config.toml exists
// yet.
func Default() Config {
	return Config{
		Homepage: "gemini://geminiprotocol.net/",
		Textwrap: 80,
		Keybindings: map[string]string{
			"q": "quit",
			"b": "back",
			"r": "reload",
		},
	}
}

// Dir resolves the ncgopher configuration directory: NCGOPHER_CONFIG_DIR
// if set, otherwise $XDG_CONFIG_HOME/ncgopher, otherwise
// ~/.config/ncgopher.
func Dir() (string, error) {
	if override := os.Getenv("NCGOPHER_CONFIG_DIR"); override != "" {
		return override, nil
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "ncgopher"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "ncgopher"), nil
}

// Load reads config.toml from dir. A missing file returns Default()
// rather than an error, since the config file is optional on first
// run.
func Load(dir string) (Config, error) {
	path := filepath.Join(dir, "config.toml")

	cfg := Default()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return cfg, nil
}

// EnsureDir creates dir (and its parents) if it does not already
// exist.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("config: create %s: %w", dir, err)
	}
	return nil
}
