package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/polytech/coursedesk/internal/config"
	"github.com/polytech/coursedesk/internal/database"
	"github.com/polytech/coursedesk/internal/gateway"
	"github.com/polytech/coursedesk/internal/handler"
	"github.com/polytech/coursedesk/internal/logger"
	"github.com/polytech/coursedesk/internal/repository"
	"github.com/polytech/coursedesk/internal/router"
	"github.com/polytech/coursedesk/internal/service"
	"github.com/polytech/coursedesk/internal/session"
	"github.com/polytech/coursedesk/internal/validator"
	"github.com/polytech/coursedesk/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("upstream", cfg.UpstreamBaseURL).
		Str("session_backend", string(cfg.SessionBackend)).
		Msg("Starting coursedesk BFF")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Metrics ───────────────────────────────────────────────────────
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// ─── Session Backend ───────────────────────────────────────────────
	bus := session.NewBus()
	var (
		store     session.Store
		publisher session.Publisher = bus
		ping      handler.PingFunc
		purger    worker.ExpiredPurger
		relay     *worker.SessionEventWorker
	)

	switch cfg.SessionBackend {
	case config.SessionBackendRedis:
		rdb, err := database.NewRedisClient(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()
		store = repository.NewRedisSessionStore(rdb)
		// Events go through Redis and come back to the local bus via the relay,
		// so every instance drops its drafts and attempts.
		publisher = session.NewRedisPublisher(rdb)
		relay = worker.NewSessionEventWorker(rdb, bus, log)
		ping = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }

	case config.SessionBackendPostgres:
		pool, err := database.NewPostgresPool(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
		}
		defer pool.Close()
		pgStore := repository.NewPostgresSessionStore(pool)
		store, purger = pgStore, pgStore
		ping = pool.Ping

	case config.SessionBackendMemory:
		mem := session.NewMemoryStore()
		store, purger = mem, mem

	default:
		log.Fatal().Str("backend", string(cfg.SessionBackend)).Msg("Unknown SESSION_BACKEND")
	}

	// ─── Upstream Gateway ──────────────────────────────────────────────
	api := gateway.New(cfg.UpstreamBaseURL, cfg.UpstreamTimeout, gateway.NewMetrics(reg), log)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(api, store, publisher, session.NewSigner(cfg.SessionSecret), cfg.SessionTTL, log)
	courseService := service.NewCourseService(api, log)
	contentService := service.NewContentService(api, log)
	authoringService := service.NewAuthoringService(api, bus, log)
	attemptService := service.NewAttemptService(api, bus, cfg.TestTimeLimit, log)
	resultService := service.NewResultService(api, log)
	profileService := service.NewProfileService(api, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:      handler.NewAuthHandler(authService, log),
		Course:    handler.NewCourseHandler(courseService, log),
		Content:   handler.NewContentHandler(contentService, log),
		Authoring: handler.NewAuthoringHandler(authoringService, log),
		Attempt:   handler.NewAttemptHandler(attemptService, log),
		Progress:  handler.NewProgressHandler(profileService, resultService, log),
		Stream:    handler.NewAttemptStreamHandler(attemptService, log, cfg.AllowedOrigins),
		System:    handler.NewSystemHandler(string(cfg.SessionBackend), ping, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	workersDone := make(chan struct{}, 3)
	workers := 0

	if relay != nil {
		workers++
		go func() {
			relay.Start(workerCtx)
			workersDone <- struct{}{}
		}()
	}
	if purger != nil {
		workers++
		go func() {
			worker.NewSessionSweepWorker(purger, publisher, worker.SweepInterval, log).Start(workerCtx)
			workersDone <- struct{}{}
		}()
	}
	workers++
	go func() {
		worker.NewViewStateReaper(worker.ReapInterval, log, attemptService, authoringService).Start(workerCtx)
		workersDone <- struct{}{}
	}()

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(ctx, authService, handlers, cfg, reg)

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

	// 1. Stop accepting new HTTP requests (5s timeout). Countdown streams are
	// hijacked connections, so stopping the attempts closes them.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	attemptService.Shutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers.
	workerCancel()
wait:
	for i := 0; i < workers; i++ {
		select {
		case <-workersDone:
		case <-shutdownCtx.Done():
			log.Warn().Msg("Workers did not stop in time")
			break wait
		}
	}

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
