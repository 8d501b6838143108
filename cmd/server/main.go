package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizgen/internal/config"
	"github.com/stemsi/quizgen/internal/database"
	"github.com/stemsi/quizgen/internal/handler"
	"github.com/stemsi/quizgen/internal/history"
	"github.com/stemsi/quizgen/internal/logger"
	"github.com/stemsi/quizgen/internal/middleware"
	"github.com/stemsi/quizgen/internal/provider"
	"github.com/stemsi/quizgen/internal/repository"
	"github.com/stemsi/quizgen/internal/router"
	"github.com/stemsi/quizgen/internal/service"
	"github.com/stemsi/quizgen/internal/validator"
	"github.com/stemsi/quizgen/internal/worker"
)

const (
	janitorInterval = time.Minute
	clientIdleTTL   = 30 * time.Minute
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Str("history_backend", cfg.HistoryBackend).
		Bool("result_archive", cfg.ResultArchive).
		Msg("Starting Quizgen")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Connect to PostgreSQL (only when something uses it) ──────────
	var pool *pgxpool.Pool
	if cfg.NeedsPostgres() {
		pool, err = database.NewPostgresPool(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
		}
		defer pool.Close()
	}

	// ─── History Store ─────────────────────────────────────────────────
	var store history.Store
	switch cfg.HistoryBackend {
	case config.HistoryBackendPostgres:
		store = history.NewPostgresStore(pool)
	case config.HistoryBackendMemory:
		store = history.NewMemoryStore()
	default:
		store = history.NewRedisStore(rdb)
	}
	histories := history.NewRepository(store, log)

	// ─── Initialize Services ──────────────────────────────────────────
	gemini, err := provider.NewGeminiClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Gemini client (is GEMINI_API_KEY set?)")
	}

	var (
		results     service.ResultPublisher
		archive     service.ResultStatsReader
		resultStore *repository.ResultRepository
	)
	if cfg.ResultArchive {
		resultStore = repository.NewResultRepository(pool)
		results = worker.NewResultQueue(rdb)
		archive = resultStore
	}

	authService := service.NewAuthService(cfg)
	documentService := service.NewDocumentService(cfg)
	quizService := service.NewQuizService(gemini, histories, results, cfg, log)
	statsService := service.NewStatsService(archive, quizService)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:    handler.NewAuthHandler(authService),
		Quiz:    handler.NewQuizHandler(quizService, documentService),
		History: handler.NewHistoryHandler(quizService),
		Stats:   handler.NewStatsHandler(statsService, log),
		Options: handler.NewOptionsHandler(cfg),
		System:  handler.NewSystemHandler(rdb, pool, quizService, log),
		WS:      handler.NewWSHandler(quizService, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
	workers.Add(2)
	go func() {
		defer workers.Done()
		limiter.RunCleanup(workerCtx)
	}()
	go func() {
		defer workers.Done()
		quizService.RunJanitor(workerCtx, janitorInterval, clientIdleTTL)
	}()

	if resultStore != nil {
		resultWorker := worker.NewResultWorker(resultStore, worker.NewResultQueue(rdb), log)
		workers.Add(1)
		go func() {
			defer workers.Done()
			resultWorker.Start(workerCtx)
		}()
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg, log, limiter)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Close live streams so hijacked WebSocket connections end.
	quizService.Shutdown()

	// 2. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 3. Stop background workers and wait for the result queue to drain.
	workerCancel()
	workers.Wait()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
