package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "https://secure.gooddata.com", c.Host)
	assert.Equal(t, "https://secure-di.gooddata.com", c.StagingHost)
	assert.Equal(t, 500*time.Millisecond, c.Poll.Interval)
	assert.Equal(t, 1.0, c.Poll.Multiplier)
	assert.Equal(t, time.Hour, c.Poll.Timeout)
	assert.Equal(t, 60*time.Second, c.HTTPTimeout)
	assert.Equal(t, "info", c.Log.Level)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
host: https://analytics.example.com
poll:
  interval: 2s
  timeout: 10m
log:
  level: debug
`), 0o600))
	t.Setenv("GDC_POLL_TIMEOUT", "0s")
	t.Setenv("GDC_PROJECT", "abc123")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://analytics.example.com", c.Host)
	assert.Equal(t, 2*time.Second, c.Poll.Interval)
	assert.Equal(t, time.Duration(0), c.Poll.Timeout)
	assert.Equal(t, "debug", c.Log.Level)
	assert.Equal(t, "abc123", c.Project)
	assert.Equal(t, 2*time.Second, c.Poll.Task().Interval)
}

func TestLoadExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("poll:\n  multiplier: 0.5\n"), 0o600))
	_, err := Load(path)
	assert.ErrorContains(t, err, "multiplier")
}

func TestSaveRoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	c, err := Load("")
	require.NoError(t, err)
	c.Project = "p42"
	c.Poll.Timeout = 15 * time.Minute

	require.NoError(t, Save("", c))
	p, err := Path()
	require.NoError(t, err)
	info, err := os.Stat(p)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, c, got)
}
