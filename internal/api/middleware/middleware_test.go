package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(buf *bytes.Buffer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(buf, nil))

	r := gin.New()
	r.Use(CorrelationIDMiddleware(), SlogLoggerMiddleware(logger))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/v1/resume/:id", func(c *gin.Context) {
		c.String(http.StatusOK, GetCorrelationID(c))
	})
	r.GET("/v1/fail", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })
	return r
}

func TestCorrelationIDKeepsClientValue(t *testing.T) {
	r := newTestRouter(&bytes.Buffer{})

	req := httptest.NewRequest(http.MethodGet, "/v1/resume/42", nil)
	req.Header.Set(CorrelationIDHeader, "client-abc.1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "client-abc.1", w.Body.String())
	assert.Equal(t, "client-abc.1", w.Header().Get(CorrelationIDHeader))
}

func TestCorrelationIDReplacesUnsafeValue(t *testing.T) {
	r := newTestRouter(&bytes.Buffer{})

	req := httptest.NewRequest(http.MethodGet, "/v1/resume/42", nil)
	req.Header.Set(CorrelationIDHeader, "bad id\nwith newline")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	id := w.Header().Get(CorrelationIDHeader)
	require.NotEmpty(t, id)
	assert.NotEqual(t, "bad id\nwith newline", id)
	assert.Equal(t, id, w.Body.String())
}

func TestSlogLoggerMiddlewareAttrsAndLevels(t *testing.T) {
	var buf bytes.Buffer
	r := newTestRouter(&buf)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/resume/42", nil))
	out := buf.String()
	assert.Contains(t, out, "level=INFO")
	assert.Contains(t, out, "resume_id=42")
	assert.Contains(t, out, "path=/v1/resume/:id")

	buf.Reset()
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/fail", nil))
	assert.Contains(t, buf.String(), "level=ERROR")

	buf.Reset()
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Empty(t, buf.String())
}

func TestLoggerFromContextFallsBackToDefault(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Same(t, slog.Default(), LoggerFromContext(c))
}
