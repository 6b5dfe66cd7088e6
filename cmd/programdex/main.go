package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/techrealm/programdex/internal/config"
	dbRedis "github.com/techrealm/programdex/internal/db/redis"
	logpkg "github.com/techrealm/programdex/internal/logger"
	"github.com/techrealm/programdex/internal/metrics"
	analyticsrepo "github.com/techrealm/programdex/internal/repository/analytics"
	applicationrepo "github.com/techrealm/programdex/internal/repository/application"
	chatrepo "github.com/techrealm/programdex/internal/repository/chat"
	emailrepo "github.com/techrealm/programdex/internal/repository/email"
	programrepo "github.com/techrealm/programdex/internal/repository/program"
	chiTransport "github.com/techrealm/programdex/internal/transport/chi"
	"github.com/techrealm/programdex/internal/transport/csvio"
	"github.com/techrealm/programdex/internal/transport/mailer"
	openaiT "github.com/techrealm/programdex/internal/transport/openai"
	"github.com/techrealm/programdex/internal/transport/scraper"
	analyticsuc "github.com/techrealm/programdex/internal/usecase/analytics"
	applicationuc "github.com/techrealm/programdex/internal/usecase/application"
	chatuc "github.com/techrealm/programdex/internal/usecase/chat"
	emailuc "github.com/techrealm/programdex/internal/usecase/email"
	healthuc "github.com/techrealm/programdex/internal/usecase/health"
	programuc "github.com/techrealm/programdex/internal/usecase/program"
	"github.com/techrealm/programdex/internal/usecase/retrieval"
	"github.com/techrealm/programdex/internal/version"
)

func main() {
	// .env is optional; real environment variables win.
	dotenvErr := godotenv.Load()

	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	if dotenvErr != nil && !errors.Is(dotenvErr, fs.ErrNotExist) {
		logger.Warn(".env file not loaded", zap.Error(dotenvErr))
	}

	logger.Info("Starting programdex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("responder", cfg.Chat.Responder),
		zap.String("email_provider", cfg.Email.Provider),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	ctx := logpkg.ContextWithLogger(context.Background(), logger)
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register retrieval metrics explicitly (no init())
	metrics.RegisterRetrievalMetrics()

	// Repositories
	programRepo := programrepo.New(store)
	chatRepo := chatrepo.New(store, cfg.Storage.ChatTTL())
	applicationRepo := applicationrepo.New(store)
	analyticsRepo := analyticsrepo.New(store, cfg.Storage.AnalyticsRetention())
	emailRepo := emailrepo.New(store)

	// Responder: nil interface (not a typed nil pointer) selects the summary.
	var responder retrieval.Responder
	var responderChecker healthuc.ResponderChecker
	if cfg.Chat.Responder == config.ResponderOpenAI {
		r := openaiT.NewResponder(&openaiT.Config{
			APIKey:      cfg.Chat.OpenAI.APIKey,
			BaseURL:     cfg.Chat.OpenAI.BaseURL,
			Model:       cfg.Chat.OpenAI.Model,
			MaxTokens:   cfg.Chat.OpenAI.MaxTokens,
			Temperature: cfg.Chat.OpenAI.Temperature,
			Timeout:     time.Duration(cfg.Chat.OpenAI.TimeoutSec) * time.Second,
			Logger:      logger,
		})
		responder = r
		responderChecker = r
	}

	var sender emailuc.Sender = mailer.NewMock(logger)
	if cfg.Email.Provider == config.EmailBrevo {
		sender = mailer.NewBrevo(mailer.BrevoConfig{
			APIKey:    cfg.Email.Brevo.APIKey,
			BaseURL:   cfg.Email.Brevo.BaseURL,
			FromEmail: cfg.Email.FromEmail,
			FromName:  cfg.Email.FromName,
			Timeout:   time.Duration(cfg.Email.Brevo.TimeoutSec) * time.Second,
			Logger:    logger,
		})
	}

	engine := retrieval.New(retrieval.Options{
		MaxFeatures: cfg.Retrieval.MaxFeatures,
		MinScore:    cfg.Retrieval.MinScore,
		CacheSize:   cfg.Retrieval.CacheSize,
	}, responder, cfg.Chat.Responder, logger)

	var programScraper programuc.Scraper
	if cfg.Scraper.Enabled {
		programScraper = scraper.New(scraper.Config{
			Timeout:      time.Duration(cfg.Scraper.TimeoutSec) * time.Second,
			RateLimit:    cfg.Scraper.RateLimitRPS,
			MaxBodyBytes: cfg.Scraper.MaxBodyBytes,
			UserAgent:    cfg.Scraper.UserAgent,
			Selectors:    selectorsFromConfig(cfg.Scraper.Selectors),
			Logger:       logger,
		})
	}

	// Use case services
	programSvc := programuc.New(programRepo, engine, programScraper,
		programuc.WithRefitOnWrite(cfg.Retrieval.RefitOnWrite))
	chatSvc := chatuc.New(chatRepo, engine)
	applicationSvc := applicationuc.New(applicationRepo)
	analyticsSvc := analyticsuc.New(analyticsRepo)
	emailSvc := emailuc.New(emailRepo, sender)
	healthSvc := healthuc.New(store, responderChecker, engine)

	if err := loadCorpus(ctx, programSvc, cfg.Corpus.SeedCSV); err != nil {
		logger.Fatal("Failed to load corpus", zap.Error(err))
	}

	server := chiTransport.NewServer(
		programSvc, chatSvc, applicationSvc, analyticsSvc, emailSvc, engine, healthSvc, logger,
	).WithChatRateLimit(cfg.Chat.RateLimitRPS, cfg.Chat.RateLimitBurst)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.CORSMiddleware(cfg.HTTP.CORSOrigins))
	r.Use(chiTransport.APIKeyAuth(cfg.Auth.APIKeys, chiTransport.PublicPaths...))
	r.Use(metrics.Middleware("/metrics"))
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// loadCorpus seeds an empty catalog from seedCSV (if set) and fits the engine.
func loadCorpus(ctx context.Context, programs *programuc.Service, seedCSV string) error {
	logger := logpkg.FromContext(ctx)

	existing, err := programs.Export(ctx)
	if err != nil {
		return fmt.Errorf("read catalog: %w", err)
	}

	if len(existing) == 0 && seedCSV != "" {
		seeded, err := seedFromCSV(ctx, programs, seedCSV)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			logger.Warn("Seed file not found, starting with an empty catalog", zap.String("path", seedCSV))
		case err != nil:
			return err
		default:
			logger.Info("Catalog seeded", zap.String("path", seedCSV), zap.Int("programs", seeded))
		}
	}

	stats, err := programs.Retrain(ctx)
	if err != nil {
		return fmt.Errorf("fit engine: %w", err)
	}
	logger.Info("Retrieval model fitted",
		zap.Int("programs", stats.Programs),
		zap.Int("vocabulary", stats.Vocabulary),
	)
	return nil
}

func seedFromCSV(ctx context.Context, programs *programuc.Service, path string) (int, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return 0, fmt.Errorf("open seed: %w", err)
	}
	defer func() { _ = f.Close() }()

	rows, err := csvio.ReadPrograms(f)
	if err != nil {
		return 0, fmt.Errorf("parse seed %s: %w", path, err)
	}
	res, err := programs.Import(ctx, rows)
	if err != nil {
		return 0, fmt.Errorf("import seed %s: %w", path, err)
	}
	return res.Imported, nil
}

func selectorsFromConfig(c config.SelectorsConfig) scraper.Selectors {
	s := scraper.DefaultSelectors
	if c.Description != "" {
		s.Description = c.Description
	}
	if c.Requirements != "" {
		s.Requirements = c.Requirements
	}
	if c.TuitionFee != "" {
		s.TuitionFee = c.TuitionFee
	}
	if c.Duration != "" {
		s.Duration = c.Duration
	}
	return s
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					if rvr == http.ErrAbortHandler {
						panic(rvr)
					}
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.String("path", r.URL.Path),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}

			// Canonical log line, one per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("route", route),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
