// file: internal/app/app.go
// version: 1.0.0
// guid: dfc6a9ef-7d72-493d-b959-781067849396

// Package app wires configuration into a ready-to-use dispatcher.
package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jdfalk/spit/internal/cache"
	"github.com/jdfalk/spit/internal/config"
	"github.com/jdfalk/spit/internal/dispatcher"
	"github.com/jdfalk/spit/internal/metadata"
	"github.com/jdfalk/spit/internal/metrics"
	"github.com/jdfalk/spit/internal/models"
	"github.com/jdfalk/spit/internal/registry"
)

// ProviderOrder is the registration order of the built-in providers. It is
// also the tie-break order for equally ranked results.
var ProviderOrder = []string{"musicbrainz", "coverartarchive", "lastfm", "lrclib"}

// App bundles the long-lived components.
type App struct {
	Config     config.Config
	Registry   *registry.Registry
	Store      cache.Store
	Dispatcher *dispatcher.Dispatcher
	Logger     *slog.Logger
}

// Build opens the cache, registers providers and creates the dispatcher.
func Build(cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	store, err := OpenCache(cfg.Cache)
	if err != nil {
		return nil, err
	}

	reg, err := BuildRegistry(cfg, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	reg.Freeze()
	metrics.SetProviders(reg.Len())

	d := dispatcher.New(reg, store, DispatcherOptions(cfg, logger))
	logger.Debug("Application initialized", "providers", reg.Len(), "cache", cfg.Cache.Type)
	return &App{Config: cfg, Registry: reg, Store: store, Dispatcher: d, Logger: logger}, nil
}

// DispatcherOptions maps configuration onto dispatcher options.
func DispatcherOptions(cfg config.Config, logger *slog.Logger) dispatcher.Options {
	return dispatcher.Options{
		Timeout:        cfg.Timeout,
		Parallel:       cfg.Parallel,
		Strict:         cfg.Strict,
		MaxPerProvider: cfg.MaxPerProvider,
		Blacklist:      append([]string(nil), cfg.Blacklist...),
		Logger:         logger,
	}
}

// Apply hot-swaps the settings that can change without a restart.
func (a *App) Apply(cfg config.Config) {
	a.Dispatcher.Reconfigure(func(o *dispatcher.Options) {
		o.Timeout = cfg.Timeout
		o.Parallel = cfg.Parallel
		o.Strict = cfg.Strict
		o.MaxPerProvider = cfg.MaxPerProvider
		o.Blacklist = append([]string(nil), cfg.Blacklist...)
	})
	a.Config = cfg
	a.Logger.Info("Configuration reloaded", "timeout", cfg.Timeout, "strict", cfg.Strict)
}

// Close releases the cache.
func (a *App) Close() error {
	return a.Store.Close()
}

// OpenCache opens the configured cache backend, creating directories as
// needed.
func OpenCache(cfg config.CacheConfig) (cache.Store, error) {
	path := cfg.Path
	switch cfg.Type {
	case cache.BackendPebble:
		path = filepath.Join(path, "results")
		if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	case cache.BackendSQLite:
		if filepath.Ext(path) == "" {
			path = filepath.Join(path, "results.db")
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}
	store, err := cache.Open(cfg.Type, path, cfg.TTL)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s cache: %w", cfg.Type, err)
	}
	return store, nil
}

// BuildRegistry registers the built-in providers in ProviderOrder.
func BuildRegistry(cfg config.Config, logger *slog.Logger) (*registry.Registry, error) {
	mb := newMusicBrainz(cfg.Providers["musicbrainz"])

	reg := registry.New()
	var errs []error
	for _, name := range ProviderOrder {
		pc, ok := cfg.Providers[name]
		if !ok {
			pc = config.DefaultProviders[name]
		}
		desc := models.Descriptor{
			Name:      name,
			Group:     models.Group(pc.Group),
			RateLimit: pc.RateLimit,
			Enabled:   pc.Enabled,
		}

		var p metadata.Provider
		switch name {
		case "musicbrainz":
			p = mb
		case "coverartarchive":
			if pc.BaseURL != "" {
				p = metadata.NewCoverArtArchiveClientWithBaseURL(pc.BaseURL, mb)
			} else {
				p = metadata.NewCoverArtArchiveClient(mb)
			}
		case "lastfm":
			client := metadata.NewLastFMClient(cfg.LastFM.APIKey)
			if pc.BaseURL != "" {
				client = metadata.NewLastFMClientWithBaseURL(pc.BaseURL, cfg.LastFM.APIKey)
			}
			client.SetLanguage(cfg.Language)
			if cfg.LastFM.APIKey == "" && desc.Enabled {
				logger.Warn("Last.fm disabled: no API key configured (set LASTFM_API_KEY)")
				desc.Enabled = false
			}
			p = client
		case "lrclib":
			if pc.BaseURL != "" {
				p = metadata.NewLRCLibClientWithBaseURL(pc.BaseURL)
			} else {
				p = metadata.NewLRCLibClient()
			}
		}
		if err := reg.Register(desc, p); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return reg, nil
}

func newMusicBrainz(pc config.ProviderConfig) *metadata.MusicBrainzClient {
	if pc.BaseURL != "" {
		return metadata.NewMusicBrainzClientWithBaseURL(pc.BaseURL)
	}
	return metadata.NewMusicBrainzClient()
}
