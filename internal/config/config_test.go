package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost/SkillSphere/api", cfg.API.BaseURL)
	assert.Equal(t, "bolt", cfg.Storage.Driver)
	assert.Equal(t, 2*time.Second, cfg.Notifications.TTL)
	assert.Equal(t, 50, cfg.Notifications.MaxActive)
	assert.Equal(t, "/dashboard/home", cfg.Web.AfterLoginPath)
	assert.False(t, cfg.Dev.Enabled)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: https://api.skillsphere.example
  timeout: 3s
storage:
  driver: sqlite
  path: /tmp/skillsphere.sqlite
notifications:
  ttl: 500ms
  max_active: 5
logging:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://api.skillsphere.example", cfg.API.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.API.Timeout)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, 500*time.Millisecond, cfg.Notifications.TTL)
	assert.Equal(t, 5, cfg.Notifications.MaxActive)
	assert.Equal(t, "json", cfg.Logging.Format)
	// untouched sections keep their defaults
	assert.Equal(t, ":3000", cfg.Web.Address)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := map[string]string{
		"bad driver":   "storage:\n  driver: redis\n",
		"bad base url": "api:\n  base_url: not a url\n",
		"dev key":      "dev:\n  enabled: true\n  signing_key: short\n",
		"login path":   "web:\n  login_path: login\n",
		"log format":   "logging:\n  format: xml\n",
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MemoryDriverNeedsNoPath(t *testing.T) {
	cfg, err := Load(writeConfig(t, "storage:\n  driver: memory\n  path: \"\"\n"))
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Storage.Driver)
}

func TestApplyEnvOverrides(t *testing.T) {
	env := map[string]string{
		"SKILLSPHERE_API_BASE_URL":             "https://env.example/api",
		"SKILLSPHERE_STORAGE_DRIVER":           "memory",
		"SKILLSPHERE_NOTIFICATIONS_TTL":        "1s",
		"SKILLSPHERE_NOTIFICATIONS_MAX_ACTIVE": "7",
		"SKILLSPHERE_DEV_ENABLED":              "true",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	require.NoError(t, applyEnvOverrides(cfg, lookup))

	assert.Equal(t, "https://env.example/api", cfg.API.BaseURL)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, time.Second, cfg.Notifications.TTL)
	assert.Equal(t, 7, cfg.Notifications.MaxActive)
	assert.True(t, cfg.Dev.Enabled)
}

func TestApplyEnvOverrides_InvalidValues(t *testing.T) {
	env := map[string]string{
		"SKILLSPHERE_API_TIMEOUT":              "soon",
		"SKILLSPHERE_NOTIFICATIONS_MAX_ACTIVE": "many",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	err := applyEnvOverrides(Default(), lookup)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SKILLSPHERE_API_TIMEOUT")
	assert.Contains(t, err.Error(), "SKILLSPHERE_NOTIFICATIONS_MAX_ACTIVE")
}

func TestFlags_OnlySetFlagsOverride(t *testing.T) {
	path := writeConfig(t, "web:\n  address: \":4000\"\nstorage:\n  driver: sqlite\n  path: file.db\n")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	f := BindFlags(fs)
	require.NoError(t, fs.Parse([]string{"-config", path, "-storage", "memory", "-log-level", "debug"}))

	cfg, err := LoadWithFlags(f)
	require.NoError(t, err)

	assert.Equal(t, ":4000", cfg.Web.Address)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, "file.db", cfg.Storage.Path)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestFlags_DevGeneratesSigningKey(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	f := BindFlags(fs)
	require.NoError(t, fs.Parse([]string{"-dev", "-storage", "memory"}))

	cfg, err := LoadWithFlags(f)
	require.NoError(t, err)
	assert.True(t, cfg.Dev.Enabled)
	assert.Len(t, cfg.Dev.SigningKey, 32)
}

func TestLoad_DevKeepsConfiguredKey(t *testing.T) {
	cfg, err := Load(writeConfig(t, "dev:\n  enabled: true\n  signing_key: 0123456789abcdef\n"))
	require.NoError(t, err)
	assert.Equal(t, "0123456789abcdef", cfg.Dev.SigningKey)
}
