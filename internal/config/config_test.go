package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := FromViper(NewViper())
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "console", cfg.Logger.Format)
	assert.Equal(t, 64, cfg.Page.MemoryLimitMB)
	assert.Equal(t, "127.0.0.1:8765", cfg.Server.Addr)
	assert.True(t, cfg.Chrome.Headless)
	assert.Equal(t, "wvbridge", cfg.Window.Title)
	assert.Equal(t, 1024, cfg.Window.Width)
	assert.False(t, cfg.Page.Debug)
	assert.False(t, cfg.Journal.Enabled)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
logger:
  level: debug
  format: json
page:
  minify: true
journal:
  enabled: true
  path: /tmp/calls.db
`), 0o644))
	t.Setenv("WVBRIDGE_SERVER_ADDR", "0.0.0.0:9000")

	cfg, err := Load(NewViper(), path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "json", cfg.Logger.Format)
	assert.True(t, cfg.Page.Minify)
	assert.True(t, cfg.Journal.Enabled)
	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Addr)

	bc := cfg.Bridge(nil, nil)
	assert.True(t, bc.MinifyScripts)
	assert.Equal(t, 64, bc.MemoryLimitMB)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(NewViper(), filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base, err := FromViper(NewViper())
	require.NoError(t, err)

	for name, mutate := range map[string]func(c *Config){
		"format":   func(c *Config) { c.Logger.Format = "xml" },
		"memory":   func(c *Config) { c.Page.MemoryLimitMB = -1 },
		"queue":    func(c *Config) { c.Page.MaxQueued = -1 },
		"journal":  func(c *Config) { c.Journal.Enabled = true; c.Journal.Path = "" },
		"addr":     func(c *Config) { c.Server.Addr = "" },
		"viewport": func(c *Config) { c.Chrome.Width = 0 },
		"window":   func(c *Config) { c.Window.Height = -1 },
	} {
		c := *base
		mutate(&c)
		assert.Error(t, c.Validate(), name)
	}
}
