package config

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "cfg.json")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestConfigPath(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "a.json", configPath([]string{"-config", "a.json"}))
	assert.Equal(t, "b.json", configPath([]string{"-addr", "x", "--config=b.json"}))
	assert.Equal(t, "", configPath([]string{"-addr", "x", "config"}))
	assert.Equal(t, "", configPath([]string{"-config"}))
}

func TestLoadServer_Defaults(t *testing.T) {
	t.Parallel()
	c, err := LoadServer(nil, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, ":8443", c.Addr)
	assert.Equal(t, 15*time.Minute, c.AccessTTL)
	assert.Equal(t, 100, c.PageSize)
	assert.Empty(t, c.JWTKey)
}

func TestLoadServer_JSONThenFlags(t *testing.T) {
	t.Parallel()
	p := writeJSON(t, `{"addr":":9000","jwt_key":"from-json","access_ttl":"5m","page_size":7,"dsn":"","login_max_fails":3}`)

	c, err := LoadServer([]string{"-config", p, "-addr", ":9100", "-container", "c9"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, ":9100", c.Addr)
	assert.Equal(t, "from-json", c.JWTKey)
	assert.Equal(t, 5*time.Minute, c.AccessTTL)
	assert.Equal(t, 7, c.PageSize)
	assert.Empty(t, c.DSN)
	assert.Equal(t, "c9", c.ContainerID)
	assert.Equal(t, 3, c.LoginMaxFails)
	assert.Equal(t, 15*time.Minute, c.LoginBlockFor)
}

func TestLoadServer_Errors(t *testing.T) {
	t.Parallel()
	_, err := LoadServer([]string{"-config", filepath.Join(t.TempDir(), "missing.json")}, io.Discard)
	require.Error(t, err)

	_, err = LoadServer([]string{"-config", writeJSON(t, `{"access_ttl":"soon"}`)}, io.Discard)
	require.Error(t, err)

	_, err = LoadServer([]string{"-no-such-flag"}, io.Discard)
	require.Error(t, err)
}

func TestLoadClient_RemainingArgs(t *testing.T) {
	t.Parallel()
	p := writeJSON(t, `{"addr":"store:443","timeout":1000000000,"state_dir":"/tmp/zs"}`)

	c, rest, err := LoadClient([]string{"-config", p, "-v", "add", "-m", "hello"}, nil, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "store:443", c.Addr)
	assert.Equal(t, time.Second, c.Timeout)
	assert.Equal(t, "/tmp/zs", c.StateDir)
	assert.True(t, c.Verbose)
	assert.Equal(t, []string{"add", "-m", "hello"}, rest)
}

func TestDefaultStateDir_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	assert.Equal(t, filepath.Join("/xdg", "zoneshare"), DefaultStateDir())
}
