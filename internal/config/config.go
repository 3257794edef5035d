// file: internal/config/config.go
// version: 2.0.0
// guid: 7b8c9d0e-1f2a-3b4c-5d6e-7f8a9b0c1d2e

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// ProviderConfig holds per-provider settings under providers.<name>.
type ProviderConfig struct {
	Enabled   bool    `mapstructure:"enabled" yaml:"enabled"`
	BaseURL   string  `mapstructure:"base_url" yaml:"base_url,omitempty" validate:"omitempty,url"`
	RateLimit float64 `mapstructure:"rate_limit" yaml:"rate_limit" validate:"gte=0"`
	Group     string  `mapstructure:"group" yaml:"group" validate:"oneof=safe unsafe special"`
}

// CacheConfig selects the cache backend.
type CacheConfig struct {
	Type string        `mapstructure:"type" yaml:"type" validate:"oneof=none memory pebble sqlite"`
	Path string        `mapstructure:"path" yaml:"path" validate:"required_if=Type pebble,required_if=Type sqlite"`
	TTL  time.Duration `mapstructure:"ttl" yaml:"ttl" validate:"gte=0"`
}

// LogConfig selects log level and format.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=text json logfmt"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host      string  `mapstructure:"host" yaml:"host"`
	Port      int     `mapstructure:"port" yaml:"port" validate:"gte=1,lte=65535"`
	RateLimit float64 `mapstructure:"rate_limit" yaml:"rate_limit" validate:"gte=0"` // requests per second per client IP
	Burst     int     `mapstructure:"burst" yaml:"burst" validate:"gte=0"`
}

// Config holds application configuration
type Config struct {
	Timeout        time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"gte=0"`
	Parallel       int           `mapstructure:"parallel" yaml:"parallel" validate:"gte=0"`
	Strict         bool          `mapstructure:"strict" yaml:"strict"`
	MaxPerProvider int           `mapstructure:"max_per_provider" yaml:"max_per_provider" validate:"gte=0"`
	Blacklist      []string      `mapstructure:"blacklist" yaml:"blacklist"`
	Language       string        `mapstructure:"language" yaml:"language" validate:"omitempty,len=2"`

	Cache  CacheConfig  `mapstructure:"cache" yaml:"cache"`
	Log    LogConfig    `mapstructure:"log" yaml:"log"`
	Server ServerConfig `mapstructure:"server" yaml:"server"`
	LastFM struct {
		APIKey string `mapstructure:"api_key" yaml:"api_key"`
	} `mapstructure:"lastfm" yaml:"lastfm"`

	Providers map[string]ProviderConfig `mapstructure:"providers" yaml:"providers" validate:"dive"`
}

var AppConfig Config

// PlaceholderCover is the blank image Amazon serves for releases without art.
const PlaceholderCover = "http://ecx.images-amazon.com/images/I/11J2DMYABHL.jpg"

// DefaultProviders lists the built-in providers and their default settings.
var DefaultProviders = map[string]ProviderConfig{
	"musicbrainz":     {Enabled: true, RateLimit: 1, Group: "safe"},
	"coverartarchive": {Enabled: true, Group: "safe"},
	"lastfm":          {Enabled: true, RateLimit: 5, Group: "unsafe"},
	"lrclib":          {Enabled: true, Group: "safe"},
}

// DefaultCacheDir returns the directory on-disk caches live in by default.
func DefaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "spit")
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("timeout", 20*time.Second)
	v.SetDefault("parallel", 0)
	v.SetDefault("strict", false)
	v.SetDefault("max_per_provider", 0)
	v.SetDefault("blacklist", []string{PlaceholderCover})
	v.SetDefault("language", "en")

	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.path", DefaultCacheDir())
	v.SetDefault("cache.ttl", 24*time.Hour)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8484)
	v.SetDefault("server.rate_limit", 5.0)
	v.SetDefault("server.burst", 10)

	v.SetDefault("lastfm.api_key", "")
	for name, p := range DefaultProviders {
		v.SetDefault("providers."+name+".enabled", p.Enabled)
		v.SetDefault("providers."+name+".rate_limit", p.RateLimit)
		v.SetDefault("providers."+name+".group", p.Group)
		v.SetDefault("providers."+name+".base_url", "")
	}
}

// Load reads a Config from v and validates it. Providers not listed in
// DefaultProviders are ignored.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		Timeout:        v.GetDuration("timeout"),
		Parallel:       v.GetInt("parallel"),
		Strict:         v.GetBool("strict"),
		MaxPerProvider: v.GetInt("max_per_provider"),
		Blacklist:      v.GetStringSlice("blacklist"),
		Language:       strings.ToLower(v.GetString("language")),
		Cache: CacheConfig{
			Type: strings.ToLower(v.GetString("cache.type")),
			Path: v.GetString("cache.path"),
			TTL:  v.GetDuration("cache.ttl"),
		},
		Log: LogConfig{
			Level:  strings.ToLower(v.GetString("log.level")),
			Format: strings.ToLower(v.GetString("log.format")),
		},
		Server: ServerConfig{
			Host:      v.GetString("server.host"),
			Port:      v.GetInt("server.port"),
			RateLimit: v.GetFloat64("server.rate_limit"),
			Burst:     v.GetInt("server.burst"),
		},
		Providers: make(map[string]ProviderConfig, len(DefaultProviders)),
	}
	cfg.LastFM.APIKey = v.GetString("lastfm.api_key")

	// Normalize cache type
	if cfg.Cache.Type == "sqlite3" {
		cfg.Cache.Type = "sqlite"
	}
	if cfg.Cache.Type == "" {
		cfg.Cache.Type = "memory"
	}

	for name := range DefaultProviders {
		prefix := "providers." + name + "."
		cfg.Providers[name] = ProviderConfig{
			Enabled:   v.GetBool(prefix + "enabled"),
			BaseURL:   v.GetString(prefix + "base_url"),
			RateLimit: v.GetFloat64(prefix + "rate_limit"),
			Group:     strings.ToLower(v.GetString(prefix + "group")),
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks value ranges and enumerations.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid config: %s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// InitConfig initializes the application configuration from the global viper.
func InitConfig() error {
	SetDefaults(viper.GetViper())
	cfg, err := Load(viper.GetViper())
	if err != nil {
		return err
	}
	AppConfig = cfg
	return nil
}
