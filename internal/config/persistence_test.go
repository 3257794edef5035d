// file: internal/config/persistence_test.go
// version: 2.0.0
// guid: d849fc57-d89a-466c-89d9-6790dbdad000

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestConfigFilePath(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	assert.Equal(t, filepath.Join("/home/tester", ConfigFileName), ConfigFilePath())
}

func TestSaveAndLoadConfigFile(t *testing.T) {
	cfg, err := Load(newViper())
	require.NoError(t, err)
	cfg.Timeout = 7 * time.Second
	cfg.Cache.Type = "pebble"
	cfg.Cache.TTL = 90 * time.Minute
	cfg.Blacklist = append(cfg.Blacklist, "https://bad.example/x.jpg")
	p := cfg.Providers["lastfm"]
	p.Enabled = false
	cfg.Providers["lastfm"] = p

	path := filepath.Join(t.TempDir(), "nested", "spit.yaml")
	require.NoError(t, SaveConfigToFile(path, cfg, false))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := LoadConfigFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)

	err = SaveConfigToFile(path, cfg, false)
	assert.Error(t, err, "existing file must not be replaced")
	assert.NoError(t, SaveConfigToFile(path, cfg, true))
}

func TestMarshalYAMLUsesReadableDurations(t *testing.T) {
	cfg, err := Load(newViper())
	require.NoError(t, err)

	b, err := MarshalYAML(cfg)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(b, &doc))
	assert.Equal(t, "20s", doc["timeout"])
	cacheSection, ok := doc["cache"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "24h0m0s", cacheSection["ttl"])
}

func TestRedacted(t *testing.T) {
	cfg, err := Load(newViper())
	require.NoError(t, err)
	cfg.LastFM.APIKey = "secret"
	assert.Equal(t, "********", cfg.Redacted().LastFM.APIKey)
	assert.Equal(t, "secret", cfg.LastFM.APIKey)
}

func TestLoadConfigFromFileMissing(t *testing.T) {
	_, err := LoadConfigFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
