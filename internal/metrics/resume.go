package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	extractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "resumeforge",
			Subsystem: "extract",
			Name:      "runs_total",
			Help:      "文本提取次数，按来源（text/pdf/docx/html）区分。",
		},
		[]string{"source"},
	)

	extractedFields = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "resumeforge",
			Subsystem: "extract",
			Name:      "fields_found",
			Help:      "单次提取识别出的字段数量。",
			Buckets:   []float64{0, 1, 2, 4, 8, 16, 32},
		},
		[]string{"source"},
	)

	autosaveDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "resumeforge",
			Subsystem: "autosave",
			Name:      "save_duration_seconds",
			Help:      "自动保存写入耗时（秒）。",
			Buckets:   prometheus.DefBuckets,
		},
	)

	autosaveFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "resumeforge",
			Subsystem: "autosave",
			Name:      "failures_total",
			Help:      "自动保存失败次数。",
		},
	)

	exportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "resumeforge",
			Subsystem: "pdf",
			Name:      "exports_total",
			Help:      "PDF 导出结果计数。",
		},
		[]string{"template", "result"},
	)
)

// ObserveExtraction records one extraction run and how many items it found.
func ObserveExtraction(source string, found int) {
	extractionsTotal.WithLabelValues(source).Inc()
	extractedFields.WithLabelValues(source).Observe(float64(found))
}

// ObserveExport records the outcome of one PDF export.
func ObserveExport(templateID string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	exportsTotal.WithLabelValues(templateID, result).Inc()
}

// AutosaveObserver 把自动保存的结果写入 Prometheus。
type AutosaveObserver struct{}

func (AutosaveObserver) SaveCompleted(d time.Duration, err error) {
	if err != nil {
		autosaveFailures.Inc()
		return
	}
	autosaveDuration.Observe(d.Seconds())
}
