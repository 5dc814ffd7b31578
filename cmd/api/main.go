package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"resumeForge/internal/api"
	"resumeForge/internal/autosave"
	"resumeForge/internal/config"
	"resumeForge/internal/metrics"
	"resumeForge/internal/notify"
	"resumeForge/internal/storage"
	"resumeForge/internal/store"
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
	log.Printf("resume store ready, backend=%s", cfg.Store.Backend)

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

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.Redis.Addr(), Password: cfg.Redis.Password})
	defer asynqClient.Close()

	sessions := autosave.NewRegistry(resumes, autosave.Options{
		Delay:    cfg.Autosave.Delay,
		Logger:   logger,
		Notifier: notify.NewSaveFailureNotifier(redisClient, logger),
		Observer: metrics.AutosaveObserver{},
	})
	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	defer stopJanitor()
	go sessions.RunJanitor(janitorCtx, cfg.Autosave.IdleTTL, logger)

	router := api.NewRouter(api.Dependencies{
		Store:          resumes,
		Sessions:       sessions,
		Queue:          asynqClient,
		Objects:        storageClient,
		Logger:         logger,
		Redis:          redisClient,
		RateCounter:    redisClient,
		Scanner:        api.NewClamdScanner(cfg.Clamd.Addr),
		MaxUploadBytes: cfg.API.MaxUploadBytes,
	})

	previewCtx, cancelPreviews := context.WithTimeout(context.Background(), 10*time.Second)
	if _, err := api.NewTemplateHandler(storageClient, asynqClient, logger).EnsurePreviews(previewCtx); err != nil {
		logger.Warn("enqueue template previews failed", slog.Any("error", err))
	}
	cancelPreviews()

	address := fmt.Sprintf(":%d", cfg.API.Port)
	server := &http.Server{
		Addr:              address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("api listening", slog.String("addr", address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("failed to start api server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down api")
	stopJanitor()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("http server shutdown failed", slog.Any("error", err))
	}
	// 退出前把每个会话里未保存的修改写入存储
	if err := sessions.CloseAll(ctx); err != nil {
		logger.Error("flush autosave sessions failed", slog.Any("error", err))
	}
}
