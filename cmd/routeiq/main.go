package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"routeiq/internal/assistant"
	"routeiq/internal/cache"
	"routeiq/internal/config"
	"routeiq/internal/handler"
	"routeiq/internal/hub"
	"routeiq/internal/ingestor"
	"routeiq/internal/metrics"
	"routeiq/internal/middleware"
	"routeiq/internal/planner"
	"routeiq/internal/registry"
	"routeiq/internal/schedule"
	"routeiq/internal/stats"
	"routeiq/internal/store"
	"routeiq/pkg/gemini"
	"routeiq/pkg/gotransit"
	"routeiq/pkg/gtfs"
	"routeiq/pkg/mapsapi"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("starting routeiq server",
		"log_level", cfg.LogLevel.String(),
		"http_addr", cfg.HTTPAddr,
		"timezone", cfg.Location.String(),
		"redis_enabled", cfg.RedisEnabled,
		"service_updates_enabled", cfg.ServiceUpdatesEnabled,
	)

	reg, err := loadRegistry(cfg, logger)
	if err != nil {
		logger.Error("failed to load stations", "error", err)
		os.Exit(1)
	}
	logger.Info("station registry loaded", "source", reg.Source(), "stations", reg.Count(), "routes", len(reg.Routes()))

	var redisCache *cache.RedisCache
	if cfg.RedisEnabled {
		redisCache, err = cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, logger)
		if err != nil {
			logger.Warn("redis unavailable, using in-memory stats", "error", err)
		} else {
			defer redisCache.Close()
			logger.Info("redis connected", "addr", cfg.RedisAddr)
		}
	}

	var statsSink stats.Sink = stats.NewMemorySink()
	if redisCache != nil {
		statsSink = stats.NewRedisSink(redisCache, logger)
	}

	sessionStore := store.New(cfg.SessionIdleTimeout)
	wsHub := hub.NewHub(logger.With("component", "hub"))
	collector := metrics.NewCollector(sessionStore.Count, wsHub.ClientCount)

	now := func() time.Time { return time.Now().In(cfg.Location) }

	mapsClient := mapsapi.New(cfg.MapsAPIURL, cfg.MapsAPIKey, cfg.DirectionsTimeout)
	directions := cache.NewDirectionsCache(mapsClient, cfg.DirectionsCacheSize, cfg.DirectionsCacheTTL, redisCache, logger)
	schedules := schedule.NewProvider(reg.Routes())

	synthesizer := planner.NewSynthesizer(directions, schedules, planner.NewTrafficEstimator(nil), planner.SynthesizerOptions{
		LegTimeout:    cfg.DirectionsTimeout,
		MaxConcurrent: cfg.MaxConcurrentLegs,
		Observer:      collector,
	}, logger.With("component", "synthesizer"))
	controller := planner.NewController(reg, mapsClient, synthesizer, schedules, statsSink, planner.ControllerOptions{
		SearchTimeout: cfg.SearchTimeout,
		Now:           now,
		Observer:      collector,
	}, logger.With("component", "controller"))

	var updates ingestor.UpdatesSource
	if cfg.ServiceUpdatesEnabled && cfg.GoTransitAPIKey != "" {
		updates = gotransit.New(cfg.GoTransitAPIURL, cfg.GoTransitAPIKey, cfg.DirectionsTimeout)
	}
	ing := ingestor.New(updates, wsHub, sessionStore, redisCache, collector, ingestor.Options{
		PollInterval: cfg.ServiceUpdatesInterval,
		AlertTTL:     2 * cfg.ServiceUpdatesInterval,
	}, logger)

	var generator assistant.Generator
	if cfg.GeminiAPIKey != "" {
		generator = gemini.New(cfg.GeminiAPIURL, cfg.GeminiAPIKey, cfg.AssistantTimeout)
	}
	ai := assistant.New(generator, cfg.AssistantTimeout, collector, logger)

	sessionHandler := handler.NewSessionHandler(sessionStore, controller, schedules, ai, wsHub, now, logger)
	stationsHandler := handler.NewStationsHandler(reg)
	statsHandler := handler.NewStatsHandler(statsSink, ing, logger)
	wsHandler := handler.NewWSHandler(wsHub, sessionStore, ing, logger)
	healthHandler := handler.NewHealthHandler(ing, sessionStore, reg.Count())

	api := http.NewServeMux()

	api.HandleFunc("POST /v1/sessions", sessionHandler.Create)
	api.HandleFunc("GET /v1/sessions/{id}", sessionHandler.Get)
	api.HandleFunc("POST /v1/sessions/{id}/search", sessionHandler.Search)
	api.HandleFunc("POST /v1/sessions/{id}/select", sessionHandler.Select)
	api.HandleFunc("POST /v1/sessions/{id}/start", sessionHandler.Start)
	api.HandleFunc("GET /v1/sessions/{id}/departures", sessionHandler.Departures)
	api.HandleFunc("POST /v1/sessions/{id}/assistant", sessionHandler.Assistant)

	api.HandleFunc("GET /v1/stations", stationsHandler.List)
	api.HandleFunc("GET /v1/stations/nearby", stationsHandler.Nearby)
	api.HandleFunc("GET /v1/stations/{code}", stationsHandler.Get)

	api.HandleFunc("GET /v1/stats", statsHandler.GetStats)
	api.HandleFunc("GET /v1/alerts", statsHandler.GetAlerts)

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerWindow, cfg.RateLimitWindow, cfg.RateLimitWhitelist, logger)

	mux := http.NewServeMux()
	mux.Handle("/v1/", limiter.Middleware(handler.GzipMiddleware(handler.MetricsMiddleware(collector, api))))
	mux.HandleFunc("/v1/ws", wsHandler.ServeWS)

	mux.HandleFunc("GET /healthz", healthHandler.Healthz)
	mux.HandleFunc("GET /readyz", healthHandler.Readyz)
	if cfg.MetricsEnabled {
		mux.Handle("GET /metrics", collector.Handler())
	}

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      handler.CORSMiddleware(mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go wsHub.Run(ctx)

	go ing.Run(ctx)

	go limiter.Run(ctx)

	go func() {
		logger.Info("starting HTTP server", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			cancel()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info("shutdown signal received")
	case <-ctx.Done():
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}

// loadRegistry prefers a GTFS feed, then the stations file, then the
// embedded registry. A feed that fails to load falls back to the others.
func loadRegistry(cfg *config.Config, logger *slog.Logger) (*registry.Registry, error) {
	if cfg.GTFSFeed != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		feed, err := gtfs.Load(ctx, cfg.GTFSFeed, cfg.GTFSCacheDir, logger)
		if err == nil {
			var reg *registry.Registry
			if reg, err = registry.FromGTFS(feed, cfg.GTFSFeed); err == nil {
				return reg, nil
			}
		}
		logger.Warn("GTFS feed unavailable, using stations file", "feed", cfg.GTFSFeed, "error", err)
	}
	return registry.Load(cfg.StationsFile)
}
