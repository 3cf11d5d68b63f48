package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mfpereira/llmstxt-api/internal/config"
	"github.com/mfpereira/llmstxt-api/internal/converter"
	httpserver "github.com/mfpereira/llmstxt-api/internal/http"
	"github.com/mfpereira/llmstxt-api/internal/http/handlers"
	"github.com/mfpereira/llmstxt-api/internal/repository"
	"github.com/mfpereira/llmstxt-api/internal/service"
	"github.com/mfpereira/llmstxt-api/internal/store"
	"github.com/mfpereira/llmstxt-api/internal/tokencount"
)

func main() {
	logger := log.New(os.Stdout, "[llmstxt] ", log.LstdFlags|log.LUTC|log.Lmicroseconds)
	if err := config.LoadDotEnv(".env", ".env.local"); err != nil {
		logger.Printf("failed loading .env files: %v", err)
	}
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	jobStore, storeCloser := setupStore(ctx, cfg, logger)
	defer storeCloser()

	archive, archiveCloser := setupArchive(ctx, cfg, logger)
	defer archiveCloser()

	counter := tokencount.New(logger)
	docConverter := converter.NewLocalConverter(converter.LocalConfig{
		MinParagraphLength: cfg.MinParagraphLength,
		MaxSummaryLength:   cfg.MaxSummaryLength,
		Logger:             logger,
	})

	jobsService := service.NewJobsService(service.JobsDependencies{
		Store:     jobStore,
		Converter: docConverter,
		Archive:   archive,
		Counter:   counter,
		Logger:    logger,
		UploadDir: cfg.UploadDir,
		TTL: service.TTLConfig{
			Processing: time.Duration(cfg.TTLProcessingSeconds) * time.Second,
			Completed:  time.Duration(cfg.TTLCompletedSeconds) * time.Second,
			Failed:     time.Duration(cfg.TTLFailedSeconds) * time.Second,
		},
	})
	analysisService := service.NewAnalysisService(counter, logger)

	api := handlers.NewAPI(handlers.APIConfig{
		Jobs:             jobsService,
		Analysis:         analysisService,
		SupportedFormats: cfg.SupportedFormats,
		MaxFileSizeBytes: cfg.MaxFileSizeBytes,
	})

	handler := httpserver.NewRouter(httpserver.RouterDependencies{
		API:            api,
		Logger:         logger,
		AuthToken:      cfg.AuthToken,
		CORSOrigins:    cfg.CORSAllowedOrigins,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Printf("api listening on :%s", cfg.Port)
		errChan <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Printf("shutdown signal received")
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Printf("server failed: %v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	}
}

func setupStore(ctx context.Context, cfg config.Config, logger *log.Logger) (store.JobStore, func()) {
	if cfg.RedisAddr == "" {
		logger.Printf("REDIS_ADDR not configured, using in-memory job store")
		return store.NewMemoryJobStore(), func() {}
	}

	redisStore, err := store.NewRedisJobStore(ctx, store.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		logger.Printf("failed to initialize redis job store, fallback to memory: %v", err)
		return store.NewMemoryJobStore(), func() {}
	}
	logger.Printf("redis job store initialized")
	return redisStore, func() {
		_ = redisStore.Close()
	}
}

func setupArchive(ctx context.Context, cfg config.Config, logger *log.Logger) (repository.JobsArchive, func()) {
	if cfg.DatabaseURL == "" {
		logger.Printf("DATABASE_URL not configured, using in-memory job archive")
		return repository.NewMemoryArchive(), func() {}
	}

	pgArchive, err := repository.NewPostgresArchive(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Printf("failed to initialize postgres archive, fallback to memory: %v", err)
		return repository.NewMemoryArchive(), func() {}
	}
	logger.Printf("postgres job archive initialized")
	return pgArchive, func() {
		pgArchive.Close()
	}
}
