package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"resumeForge/internal/api/middleware"
	"resumeForge/internal/autosave"
	"resumeForge/internal/metrics"
	"resumeForge/internal/store"
)

// Dependencies 汇总路由所需的外部依赖；可选项为 nil 时相应功能关闭。
type Dependencies struct {
	Store    store.Store
	Sessions *autosave.Registry
	Queue    TaskEnqueuer
	Objects  ObjectStore
	Logger   *slog.Logger

	// Redis 用于 WebSocket 通知订阅，为 nil 时不注册 /v1/ws。
	Redis *redis.Client
	// RateCounter 限制匿名提取/上传频率，为 nil 时不限流。
	RateCounter RateCounter
	// Scanner 为 nil 时跳过病毒扫描。
	Scanner        VirusScanner
	MaxUploadBytes int64
}

// NewRouter 构建 Gin 路由引擎。
func NewRouter(deps Dependencies) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.CorrelationIDMiddleware(),
		middleware.SlogLoggerMiddleware(deps.Logger),
		metrics.GinMiddleware(),
	)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	RegisterRoutes(router, deps)
	return router
}
