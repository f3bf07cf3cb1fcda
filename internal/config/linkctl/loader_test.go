package linkctl_config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", cfg.API.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.API.Timeout)
	assert.Equal(t, 10*time.Second, cfg.Session.RefreshTimeout)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadPriority(t *testing.T) {
	path := filepath.Join(t.TempDir(), "linkctl.yaml")
	body := "api:\n  base_url: http://file:1\n  timeout: 3s\nsession:\n  cookie_file: /tmp/c.json\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	t.Setenv("LINKCTL_API_TIMEOUT", "4s")

	fs := pflag.NewFlagSet("linkctl", pflag.ContinueOnError)
	fs.String("base-url", "", "")
	require.NoError(t, fs.Parse([]string{"--base-url", "http://flag:2"}))

	cfg, err := Load(path, fs)
	require.NoError(t, err)
	assert.Equal(t, "http://flag:2", cfg.API.BaseURL)
	assert.Equal(t, 4*time.Second, cfg.API.Timeout)
	assert.Equal(t, "/tmp/c.json", cfg.Session.CookieFile)
}

func TestUnsetFlagKeepsFileValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "linkctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api:\n  base_url: http://file:1\n"), 0o600))

	fs := pflag.NewFlagSet("linkctl", pflag.ContinueOnError)
	fs.String("base-url", "", "")
	require.NoError(t, fs.Parse(nil))

	cfg, err := Load(path, fs)
	require.NoError(t, err)
	assert.Equal(t, "http://file:1", cfg.API.BaseURL)
}

func TestLoadRejectsBadTimeout(t *testing.T) {
	t.Setenv("LINKCTL_SESSION_REFRESH_TIMEOUT", "0s")
	_, err := Load("", nil)
	var cerr ErrConfig
	require.ErrorAs(t, err, &cerr)
}
