package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	settings, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "agrobio-v1", settings.Cache.Version)
	assert.Equal(t, []string{"/", "/index.html", "/manifest.json", "/favicon.svg"},
		settings.Cache.PrecacheAssets)

	assert.Equal(t, []string{"supabase"}, settings.Routing.BypassHosts)
	assert.Equal(t, []string{"/auth"}, settings.Routing.BypassPathPrefixes)
	assert.Equal(t, []string{"/api/"}, settings.Routing.LiveDataPathSubstrings)
	assert.Equal(t, []string{"openweathermap"}, settings.Routing.LiveDataHosts)

	assert.Equal(t, 10*time.Second, settings.Fetch.Timeout.Std())
	assert.Equal(t, "agrobio-sync", settings.Sync.Tag)
	assert.Equal(t, 30*time.Minute, settings.Sync.UpdateInterval.Std())
	assert.Equal(t, "sqlite", settings.Datastore.Dialect)
	assert.Equal(t, 24, settings.GovCache.DefaultTTLHours)
}

func TestLoad_ConfigFileOverrides(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(`
cache:
  version: agrobio-v2
fetch:
  timeout: 5s
sync:
  tag: agrobio-sync
datastore:
  dialect: mysql
  dsn: "user:pass@tcp(localhost:3306)/agrobio"
`), 0o600))

	settings, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "agrobio-v2", settings.Cache.Version)
	assert.Equal(t, 5*time.Second, settings.Fetch.Timeout.Std())
	assert.Equal(t, "mysql", settings.Datastore.Dialect)
	// Untouched sections keep their defaults.
	assert.Equal(t, []string{"supabase"}, settings.Routing.BypassHosts)
}

func TestLoad_RejectsUnknownDialect(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("datastore:\n  dialect: mongodb\n"), 0o600))

	_, err := Load(configPath)
	assert.ErrorContains(t, err, "unsupported datastore dialect")
}

func TestLoad_MissingFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
