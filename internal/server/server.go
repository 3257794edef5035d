// file: internal/server/server.go
// version: 2.1.0
// guid: 4a5b6c7d-8e9f-0a1b-2c3d-4e5f6a7b8c9d

// Package server exposes retrieval over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"

	"github.com/jdfalk/spit/internal/app"
	"github.com/jdfalk/spit/internal/cache"
	"github.com/jdfalk/spit/internal/config"
	"github.com/jdfalk/spit/internal/dispatcher"
	"github.com/jdfalk/spit/internal/metrics"
	"github.com/jdfalk/spit/internal/models"
	"github.com/jdfalk/spit/internal/server/middleware"
)

// Server represents the HTTP server
type Server struct {
	app        *app.App
	cfg        config.ServerConfig
	cacheType  string
	router     *gin.Engine
	httpServer *http.Server
	logger     *slog.Logger
	started    time.Time
}

// NewServer creates a new server instance
func NewServer(a *app.App) *Server {
	logger := a.Logger
	if logger == nil {
		logger = slog.Default()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(logger))

	// Register metrics (idempotent)
	metrics.Register()

	s := &Server{
		app:       a,
		cfg:       a.Config.Server,
		cacheType: a.Config.Cache.Type,
		router:    router,
		logger:    logger,
		started:   time.Now(),
	}
	s.setupRoutes()
	return s
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr is the listen address from the configuration.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
}

// Start serves until ctx is cancelled or the process receives SIGINT or
// SIGTERM, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	// Retrievals may legitimately run for the whole dispatcher timeout.
	writeTimeout := s.app.Dispatcher.Options().Timeout + 10*time.Second
	if writeTimeout < 30*time.Second {
		writeTimeout = 30 * time.Second
	}
	s.httpServer = &http.Server{
		Addr:              s.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       2 * time.Minute,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	// Heartbeat: refresh runtime gauges while running
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

wait:
	for {
		select {
		case <-ticker.C:
			metrics.SampleRuntime()
			s.sweepCache()
		case err, ok := <-errCh:
			if ok {
				return fmt.Errorf("failed to start server: %w", err)
			}
			return nil
		case <-quit:
			break wait
		case <-ctx.Done():
			break wait
		}
	}

	s.logger.Info("Shutting down server")

	// Give outstanding requests a deadline for completion
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	s.logger.Info("Server exited")
	return nil
}

// setupRoutes configures all the routes
func (s *Server) setupRoutes() {
	// Prometheus metrics endpoint (standard path)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check endpoint (both paths for compatibility)
	s.router.GET("/api/health", s.healthCheck)
	s.router.GET("/api/v1/health", s.healthCheck)

	v1 := s.router.Group("/api/v1")
	if s.cfg.RateLimit > 0 {
		v1.Use(middleware.NewIPRateLimiter(s.cfg.RateLimit, s.cfg.Burst).Middleware())
	}
	v1.GET("/get", s.handleGet)
	v1.GET("/get/:category", s.handleGet)
	v1.GET("/providers", s.listProviders)
	v1.GET("/providers/:name", s.getProvider)
	v1.GET("/categories", s.listCategories)
}

// sweepCache drops expired entries from stores that keep them until swept.
func (s *Server) sweepCache() int {
	sw, ok := s.app.Store.(cache.Sweeper)
	if !ok {
		return 0
	}
	n := sw.Sweep()
	if n > 0 {
		s.logger.Debug("Expired cache entries dropped", "count", n)
	}
	return n
}

func (s *Server) healthCheck(c *gin.Context) {
	data := gin.H{
		"providers": s.app.Registry.Len(),
		"cache":     s.cacheType,
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	}
	status := "ok"
	if counter, ok := s.app.Store.(cache.Counter); ok {
		n, err := counter.Count()
		if err != nil {
			status = "degraded"
			data["cache_error"] = err.Error()
		} else {
			data["cache_entries"] = n
		}
	}
	c.JSON(http.StatusOK, StatusResponse{Status: status, Data: data})
}

// handleGet runs one retrieval. The category comes from the path or the
// "category" parameter; the subject from artist, album and title.
func (s *Server) handleGet(c *gin.Context) {
	name := c.Param("category")
	if name == "" {
		name = c.Query("category")
	}
	if name == "" {
		RespondWithValidationError(c, "category", "required")
		return
	}
	category, err := models.ParseCategory(name)
	if err != nil {
		RespondWithValidationError(c, "category", err.Error())
		return
	}

	number, err := ParseQueryInt(c, "number", 0)
	if err != nil {
		RespondWithValidationError(c, "number", "must be an integer")
		return
	}
	timeout, err := ParseQueryDuration(c, "timeout")
	if err != nil || timeout < 0 {
		RespondWithValidationError(c, "timeout", "must be a duration or seconds")
		return
	}

	params := models.QueryParams{
		Category:     category,
		SourceFilter: c.Query("from"),
		MaxResults:   number,
	}
	if v, ok := ParseQueryString(c, "artist"); ok {
		params.Artist = models.String(v)
	}
	if v, ok := ParseQueryString(c, "album"); ok {
		params.Album = models.String(v)
	}
	if v, ok := ParseQueryString(c, "title"); ok {
		params.Track = models.String(v)
	}

	q, err := models.BuildQuery(params)
	if err != nil {
		RespondWithValidationError(c, "query", err.Error())
		return
	}

	var reports []ProviderReport
	ctx := dispatcher.WithReporter(c.Request.Context(), func(r dispatcher.Report) {
		pr := ProviderReport{
			Name:     r.Provider,
			Items:    r.Items,
			CacheHit: r.CacheHit,
			TimedOut: r.TimedOut,
			Millis:   r.Duration.Milliseconds(),
		}
		if r.Err != nil {
			pr.Error = r.Err.Error()
		}
		reports = append(reports, pr)
	})

	results, err := s.app.Dispatcher.Retrieve(ctx, q, timeout)
	switch {
	case errors.Is(err, dispatcher.ErrRetrieval):
		RespondWithBadGateway(c, err.Error())
		return
	case errors.Is(err, models.ErrInvalidQuery):
		RespondWithValidationError(c, "query", err.Error())
		return
	case err != nil:
		RespondWithInternalError(c, err.Error())
		return
	}
	if reports == nil {
		reports = []ProviderReport{}
	}

	c.JSON(http.StatusOK, RetrievalResponse{
		Query:     echoQuery(q),
		Results:   results,
		Count:     len(results),
		Providers: reports,
	})
}

func (s *Server) listProviders(c *gin.Context) {
	var filter models.Category
	if name := c.Query("category"); name != "" {
		category, err := models.ParseCategory(name)
		if err != nil {
			RespondWithValidationError(c, "category", err.Error())
			return
		}
		filter = category
	}

	items := make([]models.Descriptor, 0, s.app.Registry.Len())
	for _, e := range s.app.Registry.Providers() {
		if filter.Valid() && !e.Descriptor.Supports(filter) {
			continue
		}
		items = append(items, e.Descriptor)
	}
	c.JSON(http.StatusOK, ListResponse{Items: items, Count: len(items)})
}

func (s *Server) getProvider(c *gin.Context) {
	name := c.Param("name")
	e, ok := s.app.Registry.Lookup(name)
	if !ok {
		RespondWithNotFound(c, "provider", name)
		return
	}
	RespondWithOK(c, e.Descriptor)
}

func (s *Server) listCategories(c *gin.Context) {
	all := models.AllCategories()
	items := make([]CategoryInfo, 0, len(all))
	for _, category := range all {
		info := CategoryInfo{
			Name:      category.String(),
			Kind:      category.Kind().String(),
			Providers: []string{},
		}
		for _, e := range s.app.Registry.Providers() {
			if e.Descriptor.Enabled && e.Descriptor.Supports(category) {
				info.Providers = append(info.Providers, e.Descriptor.Name)
			}
		}
		items = append(items, info)
	}
	c.JSON(http.StatusOK, ListResponse{Items: items, Count: len(items)})
}

// WatchConfig reloads the configuration from v whenever its file changes.
func (s *Server) WatchConfig(v *viper.Viper) {
	v.OnConfigChange(func(e fsnotify.Event) {
		s.logger.Info("Config file changed", "file", e.Name)
		s.reload(v)
	})
	v.WatchConfig()
}

// reload applies the settings in v. An invalid file leaves the running
// configuration untouched.
func (s *Server) reload(v *viper.Viper) bool {
	cfg, err := config.Load(v)
	if err != nil {
		s.logger.Warn("Ignoring invalid config change", "error", err)
		return false
	}
	s.app.Apply(cfg)
	return true
}
