package main

import (
	"context"
	"fmt"
	"net/http"
	"notebookeval/internal/archive"
	"notebookeval/internal/cache"
	"notebookeval/internal/config"
	"notebookeval/internal/drive"
	"notebookeval/internal/events"
	"notebookeval/internal/handler"
	"notebookeval/internal/logging"
	"notebookeval/internal/middleware"
	"notebookeval/internal/notebook"
	"notebookeval/internal/report"
	"notebookeval/internal/rubric"
	"notebookeval/internal/s3_client"
	"notebookeval/internal/service"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	zapLogger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}

	logger := logging.New(zapLogger)
	defer func() { _ = logger.Sync() }()

	cfg, err := config.New()
	if err != nil {
		logger.Fatal(ctx, "missing or invalid configuration: set the service account fields and GEMINI_API_KEY", zap.Error(err))
	}

	policy, err := rubric.ParsePolicy(cfg.ScorePolicy)
	if err != nil {
		logger.Fatal(ctx, "invalid SCORE_POLICY", zap.Error(err))
	}

	generator, err := rubric.NewGeminiGenerator(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.BaseURL)
	if err != nil {
		logger.Fatal(ctx, "cannot create gemini client", zap.Error(err))
	}
	evaluator := rubric.NewEvaluator(generator, policy)
	builder := report.NewBuilder(notebook.Extract, evaluator, cfg.EvalWorkers)

	var store cache.Store = cache.NewMemoryCache()
	if cfg.RedisURL != "" {
		redisConn := redis.NewClient(&redis.Options{
			Addr: cfg.RedisURL,
		})
		defer func() { _ = redisConn.Close() }()
		store = cache.NewRedisCache(redisConn)
	}

	opts := service.Options{
		ScratchDir: cfg.ScratchDir,
		ReportTTL:  cfg.ReportTTL,
	}

	if cfg.S3Bucket != "" {
		s3Client, err := s3_client.New(ctx, cfg)
		if err != nil {
			logger.Fatal(ctx, "cannot create s3 client", zap.Error(err))
		}
		reportArchive, err := archive.NewS3Archive(logging.ContextWithLogger(ctx, logger), s3Client, cfg.S3Bucket)
		if err != nil {
			logger.Fatal(ctx, "cannot prepare report bucket", zap.Error(err))
		}
		opts.Archive = reportArchive
	}

	if len(cfg.KafkaBrokers) > 0 {
		producer := events.NewProducer(events.Config{Brokers: cfg.KafkaBrokers, Topic: cfg.KafkaTopic})
		defer func() { _ = producer.Close() }()
		opts.Events = producer
	}

	// Every request authenticates anew.
	newFiles := func(ctx context.Context) (drive.Files, error) {
		return drive.NewClient(ctx, cfg.Google, cfg.DriveEndpoint)
	}
	svc := service.New(newFiles, builder, store, opts)
	h := handler.New(svc)

	r := chi.NewRouter()
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(func(next http.Handler) http.Handler {
		return http.MaxBytesHandler(next, 1<<20) // 1 MB
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	h.RegisterRoutes(r)

	port := fmt.Sprintf(":%d", cfg.HTTPPort)
	logger.Info(ctx, "Starting server", zap.String("port", port), zap.String("model", generator.Model()))

	srv := &http.Server{
		Addr:              port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "cannot start http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info(ctx, "Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal(ctx, "server forced to shutdown", zap.Error(err))
	}
	logger.Info(ctx, "Server stopped")
}
