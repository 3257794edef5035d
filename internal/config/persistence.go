// file: internal/config/persistence.go
// version: 2.0.0
// guid: 9c8d7e6f-5a4b-3c2d-1e0f-9a8b7c6d5e4f

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// ConfigFileName is the config file looked up in the home directory.
const ConfigFileName = ".spit.yaml"

// ConfigFilePath returns the default config file path.
func ConfigFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ConfigFileName
	}
	return filepath.Join(home, ConfigFileName)
}

// Settings renders cfg as the nested map the config file uses. Durations are
// written in their string form so the file stays readable.
func Settings(cfg Config) map[string]any {
	providers := make(map[string]any, len(cfg.Providers))
	for name, p := range cfg.Providers {
		entry := map[string]any{
			"enabled":    p.Enabled,
			"rate_limit": p.RateLimit,
			"group":      p.Group,
		}
		if p.BaseURL != "" {
			entry["base_url"] = p.BaseURL
		}
		providers[name] = entry
	}
	blacklist := cfg.Blacklist
	if blacklist == nil {
		blacklist = []string{}
	}
	return map[string]any{
		"timeout":          cfg.Timeout.String(),
		"parallel":         cfg.Parallel,
		"strict":           cfg.Strict,
		"max_per_provider": cfg.MaxPerProvider,
		"blacklist":        blacklist,
		"language":         cfg.Language,
		"cache": map[string]any{
			"type": cfg.Cache.Type,
			"path": cfg.Cache.Path,
			"ttl":  cfg.Cache.TTL.String(),
		},
		"log": map[string]any{
			"level":  cfg.Log.Level,
			"format": cfg.Log.Format,
		},
		"server": map[string]any{
			"host":       cfg.Server.Host,
			"port":       cfg.Server.Port,
			"rate_limit": cfg.Server.RateLimit,
			"burst":      cfg.Server.Burst,
		},
		"lastfm": map[string]any{
			"api_key": cfg.LastFM.APIKey,
		},
		"providers": providers,
	}
}

// Redacted returns a copy of cfg with secrets masked.
func (c Config) Redacted() Config {
	out := c
	if out.LastFM.APIKey != "" {
		out.LastFM.APIKey = "********"
	}
	return out
}

// MarshalYAML renders cfg as a config file.
func MarshalYAML(cfg Config) ([]byte, error) {
	b, err := yaml.Marshal(Settings(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return b, nil
}

// SaveConfigToFile writes cfg to path. An existing file is only replaced
// when overwrite is set.
func SaveConfigToFile(path string, cfg Config, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file %s already exists", path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to check config file: %w", err)
		}
	}
	data, err := MarshalYAML(cfg)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	// The file may hold an API key.
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// LoadConfigFromFile reads path into a fresh viper with defaults applied.
func LoadConfigFromFile(path string) (Config, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	return Load(v)
}
