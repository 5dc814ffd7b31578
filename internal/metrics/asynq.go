package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 任务结果标签取值。
const (
	outcomeOK        = "ok"
	outcomeRetry     = "retry"
	outcomeSkipRetry = "skip_retry"
)

var (
	tasksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "resumeforge",
			Subsystem: "asynq",
			Name:      "tasks_total",
			Help:      "任务处理次数，按类型与结果（ok/retry/skip_retry）区分。",
		},
		[]string{"task_type", "outcome"},
	)

	taskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "resumeforge",
			Subsystem: "asynq",
			Name:      "task_duration_seconds",
			Help:      "单次任务执行耗时（秒），包含浏览器渲染与上传。",
			Buckets:   []float64{.1, .25, .5, 1, 2, 4, 8, 16, 32, 64},
		},
		[]string{"task_type"},
	)

	taskInProgress = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "resumeforge",
			Subsystem: "asynq",
			Name:      "tasks_in_progress",
			Help:      "当前正在处理的任务数量。",
		},
		[]string{"task_type"},
	)
)

// taskOutcome 把处理结果归类：SkipRetry 表示文档本身无法导出，其余错误会被 asynq 重试。
func taskOutcome(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case errors.Is(err, asynq.SkipRetry):
		return outcomeSkipRetry
	default:
		return outcomeRetry
	}
}

// AsynqMetricsMiddleware 记录 PDF 导出与模板预览任务的处理指标。
func AsynqMetricsMiddleware() asynq.MiddlewareFunc {
	return func(next asynq.Handler) asynq.Handler {
		return asynq.HandlerFunc(func(ctx context.Context, task *asynq.Task) error {
			taskType := task.Type()
			taskInProgress.WithLabelValues(taskType).Inc()
			defer taskInProgress.WithLabelValues(taskType).Dec()

			start := time.Now()
			err := next.ProcessTask(ctx, task)
			taskDuration.WithLabelValues(taskType).Observe(time.Since(start).Seconds())
			tasksTotal.WithLabelValues(taskType, taskOutcome(err)).Inc()

			return err
		})
	}
}
