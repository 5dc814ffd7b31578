package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"resumeForge/internal/config"
	"resumeForge/internal/metrics"
	"resumeForge/internal/pdf"
	"resumeForge/internal/storage"
	"resumeForge/internal/store"
	"resumeForge/internal/tasks"
	"resumeForge/internal/worker"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("load .env: %v", err)
	}
	cfg := config.MustLoad()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	resumes, err := store.Open(*cfg)
	if err != nil {
		log.Fatalf("open resume store: %v", err)
	}
	log.Printf("resume store ready for worker, backend=%s", cfg.Store.Backend)

	storageClient, err := storage.NewClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("init storage client: %v", err)
	}
	log.Printf("storage client ready, bucket=%s", cfg.MinIO.Bucket)

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr(), Password: cfg.Redis.Password})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("close redis client failed", slog.Any("error", err))
		}
	}()

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("ping redis: %v", err)
	}

	redisOpt := asynq.RedisClientOpt{Addr: cfg.Redis.Addr(), Password: cfg.Redis.Password}
	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.Worker.Concurrency,
	})

	exporter := pdf.NewExporter(pdf.Options{Bin: cfg.PDF.ChromeBin, Timeout: cfg.PDF.Timeout}, logger)
	pdfHandler := worker.NewPDFTaskHandler(resumes, storageClient, redisClient, exporter, logger, cfg.PDF.PreviewQuality)
	previewHandler := worker.NewTemplatePreviewHandler(storageClient, exporter, logger, cfg.PDF.PreviewQuality)

	mux := asynq.NewServeMux()
	mux.Use(metrics.AsynqMetricsMiddleware())
	mux.Handle(tasks.TypePDFExport, pdfHandler)
	mux.Handle(tasks.TypeTemplatePreview, previewHandler)

	logger.Info("worker service started", slog.String("redis_addr", cfg.Redis.Addr()))
	if err := server.Run(mux); err != nil {
		logger.Error("worker server stopped", slog.Any("error", err))
	}
}
