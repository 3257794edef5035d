// file: internal/config/config_test.go
// version: 2.0.0
// guid: b2c3d4e5-f6a7-8b9c-0d1e-2f3a4b5c6d7e

package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

// TestInitConfig tests configuration initialization with defaults
func TestInitConfig(t *testing.T) {
	// Arrange
	viper.Reset()
	defer viper.Reset()

	// Act
	require.NoError(t, InitConfig())

	// Assert
	assert.Equal(t, 20*time.Second, AppConfig.Timeout)
	assert.False(t, AppConfig.Strict)
	assert.Equal(t, []string{PlaceholderCover}, AppConfig.Blacklist)
	assert.Equal(t, "memory", AppConfig.Cache.Type)
	assert.Equal(t, 24*time.Hour, AppConfig.Cache.TTL)
	assert.Equal(t, "info", AppConfig.Log.Level)
	assert.Equal(t, 8484, AppConfig.Server.Port)

	require.Len(t, AppConfig.Providers, len(DefaultProviders))
	mb := AppConfig.Providers["musicbrainz"]
	assert.True(t, mb.Enabled)
	assert.Equal(t, 1.0, mb.RateLimit)
	assert.Equal(t, "safe", mb.Group)
}

func TestLoadOverrides(t *testing.T) {
	v := newViper()
	v.Set("timeout", "5s")
	v.Set("strict", true)
	v.Set("cache.type", "SQLITE3")
	v.Set("cache.path", "/tmp/spit.db")
	v.Set("providers.lrclib.enabled", false)
	v.Set("providers.musicbrainz.base_url", "http://localhost:5000")
	v.Set("lastfm.api_key", "abc")

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.True(t, cfg.Strict)
	assert.Equal(t, "sqlite", cfg.Cache.Type)
	assert.False(t, cfg.Providers["lrclib"].Enabled)
	assert.Equal(t, "http://localhost:5000", cfg.Providers["musicbrainz"].BaseURL)
	assert.Equal(t, "abc", cfg.LastFM.APIKey)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
		field string
	}{
		{"negative timeout", "timeout", "-1s", "Timeout"},
		{"negative parallel", "parallel", -2, "Parallel"},
		{"unknown cache", "cache.type", "redis", "Type"},
		{"bad log level", "log.level", "loud", "Level"},
		{"bad log format", "log.format", "xml", "Format"},
		{"port out of range", "server.port", 70000, "Port"},
		{"bad group", "providers.lastfm.group", "dodgy", "Group"},
		{"bad base url", "providers.lrclib.base_url", "not a url", "BaseURL"},
		{"long language", "language", "english", "Language"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newViper()
			v.Set(tt.key, tt.value)
			_, err := Load(v)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestCachePathRequiredForDiskBackends(t *testing.T) {
	v := newViper()
	v.Set("cache.type", "pebble")
	v.Set("cache.path", "")
	_, err := Load(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Path")

	v.Set("cache.type", "none")
	_, err = Load(v)
	assert.NoError(t, err)
}
