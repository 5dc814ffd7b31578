package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestTaskOutcome(t *testing.T) {
	assert.Equal(t, outcomeOK, taskOutcome(nil))
	assert.Equal(t, outcomeRetry, taskOutcome(errors.New("browser crashed")))
	assert.Equal(t, outcomeSkipRetry, taskOutcome(fmt.Errorf("render resume: %w", asynq.SkipRetry)))
}

func TestAsynqMetricsMiddlewareCountsOutcomes(t *testing.T) {
	const taskType = "test:metrics"
	failing := errors.New("boom")

	handler := AsynqMetricsMiddleware()(asynq.HandlerFunc(func(_ context.Context, task *asynq.Task) error {
		if string(task.Payload()) == "fail" {
			return failing
		}
		return nil
	}))

	assert.NoError(t, handler.ProcessTask(context.Background(), asynq.NewTask(taskType, []byte("ok"))))
	assert.ErrorIs(t, handler.ProcessTask(context.Background(), asynq.NewTask(taskType, []byte("fail"))), failing)

	assert.Equal(t, 1.0, testutil.ToFloat64(tasksTotal.WithLabelValues(taskType, outcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(tasksTotal.WithLabelValues(taskType, outcomeRetry)))
	assert.Equal(t, 0.0, testutil.ToFloat64(taskInProgress.WithLabelValues(taskType)))
}

func TestGinMiddlewareSkipsMetricsEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware())
	r.GET("/metrics", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/v1/templates", func(c *gin.Context) { c.String(http.StatusOK, "[]") })

	before := testutil.CollectAndCount(requestDuration)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, before, testutil.CollectAndCount(requestDuration))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/templates", nil))
	assert.Equal(t, before+1, testutil.CollectAndCount(requestDuration))
}

func TestObserveHelpers(t *testing.T) {
	ObserveExport("metrics-test", nil)
	ObserveExport("metrics-test", errors.New("x"))
	assert.Equal(t, 1.0, testutil.ToFloat64(exportsTotal.WithLabelValues("metrics-test", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(exportsTotal.WithLabelValues("metrics-test", "error")))

	before := testutil.ToFloat64(autosaveFailures)
	AutosaveObserver{}.SaveCompleted(time.Millisecond, errors.New("disk full"))
	assert.Equal(t, before+1, testutil.ToFloat64(autosaveFailures))
}
