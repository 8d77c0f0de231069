package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"redflag/internal/api"
	"redflag/internal/api/handlers"
	"redflag/internal/config"
	"redflag/internal/domain/services/risk"
	"redflag/internal/infrastructure/cache"
	"redflag/internal/infrastructure/database"
	"redflag/internal/infrastructure/database/repository"
	"redflag/internal/streaming"
	"redflag/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.LoadDefault()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	var log *logger.Logger
	if cfg.App.Environment == "production" {
		log = logger.NewProduction()
	} else {
		log = logger.NewDevelopment()
	}
	logger.SetGlobal(log)

	log.Info().
		Str("app", cfg.App.Name).
		Str("env", cfg.App.Environment).
		Str("version", cfg.App.Version).
		Msg("starting RedFlag")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize infrastructure
	db, redisCache, err := initInfrastructure(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize infrastructure")
	}
	defer func() {
		if db != nil {
			db.Close()
		}
		if redisCache != nil {
			redisCache.Close()
		}
	}()

	// Initialize repositories
	var repos *repository.Repositories
	if db != nil {
		repos = repository.NewRepositories(db.Pool())
		if err := repos.Migrate(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}
		log.Info().Msg("repositories initialized with database")
	} else {
		log.Warn().Msg("running without database - analyses will not be persisted")
	}

	// Initialize streaming infrastructure
	var natsPublisher *streaming.NATSPublisher
	if cfg.NATS.Enabled {
		var err error
		natsPublisher, err = streaming.NewNATSPublisher(ctx, cfg.NATS, log)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to NATS, continuing without real-time streaming")
		} else {
			defer natsPublisher.Close()
			log.Info().Str("url", cfg.NATS.URL).Msg("connected to NATS")
		}
	}

	// Create WebSocket hub for dashboard real-time updates
	wsHub := streaming.NewWebSocketHub(log)
	go wsHub.Run(ctx)

	// Create event bus for real-time updates
	eventBus := streaming.NewEventBus(natsPublisher, wsHub, log)
	log.Info().Bool("nats_enabled", natsPublisher != nil).Msg("event bus initialized")

	// Initialize the risk scorer
	scorer, err := buildScorer(cfg.Scoring, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build risk scorer")
	}

	// Initialize handlers
	deps := handlers.Dependencies{
		Scorer:         scorer,
		Repos:          repos,
		Cache:          redisCache,
		EventBus:       eventBus,
		WSHub:          wsHub,
		Logger:         log,
		PersistReports: cfg.Scoring.PersistReports && repos != nil,
		CacheTTL:       time.Duration(cfg.Scoring.CacheTTL) * time.Second,
	}
	h := handlers.NewHandlers(deps)

	// Create router
	router := api.NewRouter(cfg, h, redisCache, log)

	// Start HTTP server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().
			Str("addr", httpServer.Addr).
			Msg("starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down...")

	// Cancel context to stop the WebSocket hub
	cancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("shutdown complete")
}

// initInfrastructure initializes database and cache connections
func initInfrastructure(ctx context.Context, cfg *config.Config, log *logger.Logger) (*database.PostgresDB, *cache.RedisCache, error) {
	// Connect to PostgreSQL
	db, err := database.NewPostgres(ctx, cfg.Database, log)
	if err != nil {
		log.Warn().Err(err).Msg("failed to connect to PostgreSQL, continuing without database")
		// Don't fail, continue without database for development
		db = nil
	}

	// Connect to Redis
	redisCache, err := cache.NewRedis(ctx, cfg.Redis, log)
	if err != nil {
		return db, nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return db, redisCache, nil
}

// buildScorer loads the pattern table and applies config overrides
func buildScorer(cfg config.ScoringConfig, log *logger.Logger) (*risk.Scorer, error) {
	patterns := risk.DefaultConfig()
	if cfg.PatternsFile != "" {
		loaded, err := risk.LoadConfig(cfg.PatternsFile)
		if err != nil {
			log.Warn().Err(err).Str("file", cfg.PatternsFile).Msg("failed to load pattern file, using defaults")
		} else {
			patterns = loaded
			log.Info().Str("file", cfg.PatternsFile).Int("categories", len(patterns.Categories)).Msg("loaded pattern file")
		}
	}

	if cfg.FrequencyThreshold > 0 {
		patterns.FrequencyThreshold = cfg.FrequencyThreshold
	}
	if cfg.FrequencyBonus > 0 {
		patterns.FrequencyBonus = cfg.FrequencyBonus
	}

	if err := patterns.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pattern configuration: %w", err)
	}

	return risk.NewScorer(patterns), nil
}
