package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// 预览渲染与文件导入比普通请求慢，桶上限放宽到 10 秒。
	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "resumeforge",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP 请求耗时分布（秒）。",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route", "status"},
	)

	responseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "resumeforge",
			Subsystem: "http",
			Name:      "response_size_bytes",
			Help:      "HTTP 响应体大小（字节），主要用于观察预览 HTML 体积。",
			Buckets:   prometheus.ExponentialBuckets(256, 4, 8),
		},
		[]string{"route"},
	)

	requestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "resumeforge",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "当前正在处理的 HTTP 请求数量。",
		},
	)
)

// GinMiddleware 采集 HTTP 指标。未匹配路由统一记为 "unmatched"，避免标签基数失控。
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "/metrics" {
			c.Next()
			return
		}
		if route == "" {
			route = "unmatched"
		}

		start := time.Now()
		requestsInFlight.Inc()
		defer requestsInFlight.Dec()

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		requestDuration.WithLabelValues(c.Request.Method, route, status).Observe(time.Since(start).Seconds())
		if size := c.Writer.Size(); size > 0 {
			responseSize.WithLabelValues(route).Observe(float64(size))
		}
	}
}
