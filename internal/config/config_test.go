package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirHonoursEnvOverride(t *testing.T) {
	t.Setenv("NCGOPHER_CONFIG_DIR", "/tmp/custom-ncgopher")
	dir, err := Dir()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom-ncgopher", dir)
}

func TestDirFallsBackToXDG(t *testing.T) {
	t.Setenv("NCGOPHER_CONFIG_DIR", "")
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	dir, err := Dir()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/xdg/ncgopher", dir)
}

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, Default().Homepage, cfg.Homepage)
	assert.Equal(t, 80, cfg.Textwrap)
}

func TestLoadParsesConfigFile(t *testing.T) {
	dir := t.TempDir()
	contents := `
homepage = "gemini://example.org/"
download_path = "/tmp/downloads"
darkmode = true
textwrap = 0
disable_history = true

[keybindings]
q = "quit"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(contents), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "gemini://example.org/", cfg.Homepage)
	assert.True(t, cfg.Darkmode)
	assert.Equal(t, 0, cfg.Textwrap)
	assert.True(t, cfg.DisableHistory)
	assert.Equal(t, "quit", cfg.Keybindings["q"])
}

func TestEnsureDirCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "ncgopher")
	require.NoError(t, EnsureDir(dir))
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
