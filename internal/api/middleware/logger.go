package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const slogLoggerKey = "slogLogger"

// 探活与抓取指标的请求过于频繁，不记录完成日志。
var quietPaths = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

// SlogLoggerMiddleware 为每个请求注入带 Correlation ID 与简历 ID 的 logger，
// 并按响应状态选择完成日志的级别。
func SlogLoggerMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		attrs := []any{
			slog.String("correlation_id", GetCorrelationID(c)),
			slog.String("method", c.Request.Method),
			slog.String("path", path),
		}
		if id := c.Param("id"); id != "" {
			attrs = append(attrs, slog.String("resume_id", id))
		}
		requestLogger := logger.With(attrs...)
		c.Set(slogLoggerKey, requestLogger)

		start := time.Now()
		c.Next()

		if quietPaths[path] {
			return
		}

		status := c.Writer.Status()
		level := slog.LevelInfo
		switch {
		case status >= http.StatusInternalServerError:
			level = slog.LevelError
		case status >= http.StatusBadRequest:
			level = slog.LevelWarn
		}
		requestLogger.Log(c.Request.Context(), level, "request completed",
			slog.Int("status", status),
			slog.Int("bytes", c.Writer.Size()),
			slog.Duration("latency", time.Since(start)),
		)
	}
}

// LoggerFromContext 返回上下文中的 slog.Logger。
func LoggerFromContext(c *gin.Context) *slog.Logger {
	if value, ok := c.Get(slogLoggerKey); ok {
		if logger, ok := value.(*slog.Logger); ok {
			return logger
		}
	}
	return slog.Default()
}
