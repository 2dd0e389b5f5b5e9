package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sjsage522/jobofferworker/config"
	"sjsage522/jobofferworker/internal"
	"sjsage522/jobofferworker/internal/api"
	"sjsage522/jobofferworker/internal/crawler"
	"sjsage522/jobofferworker/logger"
	"sjsage522/jobofferworker/services/cache"
	"sjsage522/jobofferworker/services/publisher"
	"sjsage522/jobofferworker/services/worker"

	"github.com/joho/godotenv"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Str("base_url", cfg.BaseURL).
		Str("strategy", cfg.Strategy).
		Int("max_pages", cfg.MaxPages).
		Dur("refresh_interval", cfg.RefreshInterval).
		Msg("Starting application")

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Initialize services
	deps, err := initializeServices(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer deps.Cleanup()

	service, err := crawler.NewService(cfg, &http.Client{Timeout: cfg.FetchTimeout}, deps.Cache)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create scrape service")
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewServer(service, cfg.RequestTimeout).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverDone := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("Starting HTTP server")
		serverDone <- httpServer.ListenAndServe()
	}()

	// Start worker in a goroutine when periodic refresh is enabled
	workerDone := make(chan error, 1)
	if deps.Publisher != nil {
		w := worker.NewWorker(service, deps.Publisher, cfg.RefreshInterval, cfg.IsProduction())
		go func() {
			log.Info().Msg("Starting job offer worker")
			workerDone <- w.Start(ctx)
		}()
	}

	// Wait for shutdown signal, server or worker exit
	select {
	case sig := <-sigChan:
		log.Info().
			Str("signal", sig.String()).
			Msg("Received shutdown signal")
	case err := <-serverDone:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP server exited with error")
		}
	case err := <-workerDone:
		if err != nil {
			log.Error().Err(err).Msg("Worker exited with error")
		} else {
			log.Info().Msg("Worker exited normally")
		}
	}

	// Graceful shutdown
	log.Info().Msg("Shutting down gracefully...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
}

// initializeServices initializes the cache and, when the refresh worker is
// enabled, the publisher
func initializeServices(ctx context.Context, cfg config.Config) (*internal.Dependencies, error) {
	deps := &internal.Dependencies{}

	// Initialize cache service
	if cfg.MemcacheAddr != "" {
		memcacheService := cache.NewMemcacheService(cfg.MemcacheAddr)
		if err := memcacheService.Ping(); err != nil {
			return nil, err
		}
		deps.Cache = memcacheService
		logger.ForCache().Info().Str("addr", cfg.MemcacheAddr).Msg("Connected to Memcache")
	} else {
		deps.Cache = cache.NewMemoryService()
		logger.Warn("MEMCACHE_ADDR not set, rate-limit blocks are kept in process")
	}

	if cfg.RefreshInterval <= 0 {
		logger.Info("Periodic refresh disabled")
		return deps, nil
	}

	// Initialize publisher
	redisPublisher := publisher.NewRedisPublisher(
		ctx,
		cfg.RedisAddr,
		cfg.RedisDB,
		cfg.RedisStream,
		cfg.RedisStreamCount,
		cfg.RedisStreamMaxLength,
	)
	if err := redisPublisher.Ping(); err != nil {
		redisPublisher.Close()
		return nil, err
	}
	deps.Publisher = redisPublisher

	logger.ForPublisher().WithFields(logger.Fields{
		"addr":   cfg.RedisAddr,
		"db":     cfg.RedisDB,
		"stream": cfg.RedisStream,
	}).Info().Msg("Connected to Redis")

	return deps, nil
}
