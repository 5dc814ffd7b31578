package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumeForge/internal/autosave"
	"resumeForge/internal/database"
	"resumeForge/internal/resume"
	"resumeForge/internal/store"
	"resumeForge/internal/tasks"
)

type fakeQueue struct {
	mu    sync.Mutex
	tasks []*asynq.Task
	err   error
}

func (q *fakeQueue) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return nil, q.err
	}
	q.tasks = append(q.tasks, task)
	return &asynq.TaskInfo{ID: fmt.Sprintf("task-%d", len(q.tasks)), Type: task.Type()}, nil
}

type fakeObjects struct {
	mu       sync.Mutex
	existing map[string]bool
	prefixes []string
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{existing: map[string]bool{}}
}

func (o *fakeObjects) Exists(_ context.Context, objectKey string) (bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.existing[objectKey], nil
}

func (o *fakeObjects) GeneratePresignedURL(_ context.Context, objectKey string, _ time.Duration) (string, error) {
	return "https://example.invalid/" + objectKey, nil
}

func (o *fakeObjects) GeneratePresignedURLWithParams(_ context.Context, objectKey string, _ time.Duration, params map[string]string) (string, error) {
	return "https://example.invalid/" + objectKey + "?disposition=" + params["response-content-disposition"], nil
}

func (o *fakeObjects) DeletePrefix(_ context.Context, prefix string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.prefixes = append(o.prefixes, prefix)
	return nil
}

type fakeScanner struct {
	err error
}

func (s fakeScanner) Scan(r io.Reader) error {
	_, _ = io.Copy(io.Discard, r)
	return s.err
}

type fakeCounter struct {
	mu     sync.Mutex
	counts map[string]int64
}

func (f *fakeCounter) Incr(ctx context.Context, key string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.counts == nil {
		f.counts = map[string]int64{}
	}
	f.counts[key]++
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(f.counts[key])
	return cmd
}

func (f *fakeCounter) Expire(ctx context.Context, _ string, _ time.Duration) *redis.BoolCmd {
	cmd := redis.NewBoolCmd(ctx)
	cmd.SetVal(true)
	return cmd
}

type testServer struct {
	router  *gin.Engine
	store   store.Store
	queue   *fakeQueue
	objects *fakeObjects
}

func newTestServer(t *testing.T, mutate func(*Dependencies)) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sessions := autosave.NewRegistry(st, autosave.Options{Delay: time.Hour, Logger: logger})
	t.Cleanup(func() {
		_ = sessions.CloseAll(context.Background())
	})

	deps := Dependencies{
		Store:    st,
		Sessions: sessions,
		Queue:    &fakeQueue{},
		Objects:  newFakeObjects(),
		Logger:   logger,
	}
	if mutate != nil {
		mutate(&deps)
	}
	return &testServer{
		router:  NewRouter(deps),
		store:   st,
		queue:   deps.Queue.(*fakeQueue),
		objects: deps.Objects.(*fakeObjects),
	}
}

func (s *testServer) do(t *testing.T, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) create(t *testing.T) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/v1/resume", nil, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp resumeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.ID)
	return resp.ID
}

func decodeResume(t *testing.T, w *httptest.ResponseRecorder) resumeResponse {
	t.Helper()
	var resp resumeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func newMultipartUpload(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)
	w := s.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Correlation-ID"))
}

func TestCreateGetAndList(t *testing.T) {
	s := newTestServer(t, nil)
	id := s.create(t)

	w := s.do(t, http.MethodGet, "/v1/resume/"+id, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	got := decodeResume(t, w)
	assert.Equal(t, "Alex Morgan", got.Document.PersonalInfo.FullName)
	assert.False(t, got.Dirty)

	w = s.do(t, http.MethodGet, "/v1/resume", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var records []store.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, id, records[0].Key)
	assert.Equal(t, "Alex Morgan", records[0].Title)
}

func TestGetResumeErrors(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, http.MethodGet, "/v1/resume/missing", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/v1/resume/bad.key", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateResumeReplacesAndDebounces(t *testing.T) {
	s := newTestServer(t, nil)
	id := s.create(t)

	doc := resume.NewDemo()
	doc.PersonalInfo.FullName = "Jane Roe"
	body, err := resume.Export(doc)
	require.NoError(t, err)

	w := s.do(t, http.MethodPut, "/v1/resume/"+id, bytes.NewReader(body), "application/json")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decodeResume(t, w)
	assert.Equal(t, "Jane Roe", got.Document.PersonalInfo.FullName)
	assert.True(t, got.Dirty)

	// 保存尚未触发
	stored, err := s.store.Load(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Alex Morgan", stored.PersonalInfo.FullName)

	w = s.do(t, http.MethodPost, "/v1/resume/"+id+"/flush", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	stored, err = s.store.Load(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Jane Roe", stored.PersonalInfo.FullName)
}

func TestUpdateResumeRejectsInvalidDocument(t *testing.T) {
	s := newTestServer(t, nil)
	id := s.create(t)

	w := s.do(t, http.MethodPut, "/v1/resume/"+id, strings.NewReader("{"), "application/json")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), `"fields"`)

	w = s.do(t, http.MethodGet, "/v1/resume/"+id, nil, "")
	got := decodeResume(t, w)
	assert.Equal(t, "Alex Morgan", got.Document.PersonalInfo.FullName)
	assert.False(t, got.Dirty)
}

func TestResetResume(t *testing.T) {
	s := newTestServer(t, nil)
	id := s.create(t)

	doc := resume.NewDemo()
	doc.PersonalInfo.FullName = "Someone Else"
	body, err := resume.Export(doc)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPut, "/v1/resume/"+id, bytes.NewReader(body), "application/json").Code)

	w := s.do(t, http.MethodPost, "/v1/resume/"+id+"/reset", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Alex Morgan", decodeResume(t, w).Document.PersonalInfo.FullName)
}

func TestExtractEndpoints(t *testing.T) {
	s := newTestServer(t, nil)
	id := s.create(t)

	w := s.do(t, http.MethodPost, "/v1/extract", strings.NewReader(`{"text":"SKILLS\nTechnical: Kubernetes\n"}`), "application/json")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var stateless extractResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stateless))
	assert.Equal(t, []string{"Kubernetes"}, stateless.Document.Skills.Technical)

	w = s.do(t, http.MethodPost, "/v1/resume/"+id+"/extract", strings.NewReader(`{"text":"SKILLS\nTechnical: Kubernetes\n"}`), "application/json")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decodeResume(t, w)
	assert.Contains(t, got.Document.Skills.Technical, "Kubernetes")
	assert.Contains(t, got.Document.Skills.Technical, "Go")
	assert.True(t, got.Dirty)

	for _, body := range []string{`{"text":""}`, `{}`} {
		w = s.do(t, http.MethodPost, "/v1/extract", strings.NewReader(body), "application/json")
		require.Equal(t, http.StatusOK, w.Code, body)
		var empty extractResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &empty))
		assert.Zero(t, resume.PopulatedFieldCount(empty.Document), body)
	}

	w = s.do(t, http.MethodPost, "/v1/extract", strings.NewReader(`{"text":`), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestImportFile(t *testing.T) {
	s := newTestServer(t, nil)
	id := s.create(t)

	body, contentType := newMultipartUpload(t, "resume.txt", []byte("SKILLS\nTools: Terraform\n"))
	w := s.do(t, http.MethodPost, "/v1/resume/"+id+"/import-file", body, contentType)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, decodeResume(t, w).Document.Skills.Tools, "Terraform")

	body, contentType = newMultipartUpload(t, "photo.png", []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"))
	w = s.do(t, http.MethodPost, "/v1/resume/"+id+"/import-file", body, contentType)
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)

	w = s.do(t, http.MethodPost, "/v1/resume/"+id+"/import-file", strings.NewReader(""), "multipart/form-data; boundary=x")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestImportFileRejectsInfectedUpload(t *testing.T) {
	s := newTestServer(t, func(d *Dependencies) {
		d.Scanner = fakeScanner{err: fmt.Errorf("%w: Eicar-Test-Signature", ErrInfected)}
	})
	id := s.create(t)

	body, contentType := newMultipartUpload(t, "resume.txt", []byte("SKILLS\nTools: Terraform\n"))
	w := s.do(t, http.MethodPost, "/v1/resume/"+id+"/import-file", body, contentType)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	got := decodeResume(t, s.do(t, http.MethodGet, "/v1/resume/"+id, nil, ""))
	assert.NotContains(t, got.Document.Skills.Tools, "Terraform")
}

func TestImportJSONAndExport(t *testing.T) {
	s := newTestServer(t, nil)
	id := s.create(t)

	doc := resume.NewDemo()
	doc.Objective = "Imported objective"
	data, err := resume.Export(doc)
	require.NoError(t, err)

	body, contentType := newMultipartUpload(t, "backup.json", data)
	w := s.do(t, http.MethodPost, "/v1/resume/"+id+"/import", body, contentType)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Imported objective", decodeResume(t, w).Document.Objective)

	w = s.do(t, http.MethodGet, "/v1/resume/"+id+"/export", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	exported, err := resume.Import(w.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "Imported objective", exported.Objective)

	w = s.do(t, http.MethodPost, "/v1/resume/"+id+"/import", strings.NewReader(`{"personalInfo": 3}`), "application/json")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestPreviewTextAndScore(t *testing.T) {
	s := newTestServer(t, nil)
	id := s.create(t)

	w := s.do(t, http.MethodGet, "/v1/resume/"+id+"/preview?template=modern-sidebar", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "template-modern-sidebar")

	w = s.do(t, http.MethodGet, "/v1/resume/"+id+"/preview?accent=lab(50%25%2040%2059)", nil, "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "format unsupported")

	w = s.do(t, http.MethodGet, "/v1/resume/"+id+"/text", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "Alex Morgan\n"))

	w = s.do(t, http.MethodGet, "/v1/resume/"+id+"/score", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var report resume.ScoreReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Positive(t, report.Total)
}

func TestDownloadFlushesAndEnqueues(t *testing.T) {
	s := newTestServer(t, nil)
	id := s.create(t)

	doc := resume.NewDemo()
	doc.PersonalInfo.FullName = "Jane Roe"
	body, err := resume.Export(doc)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPut, "/v1/resume/"+id, bytes.NewReader(body), "application/json").Code)

	w := s.do(t, http.MethodPost, "/v1/resume/"+id+"/download?template=creative", nil, "")
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "task-1")

	require.Len(t, s.queue.tasks, 1)
	assert.Equal(t, tasks.TypePDFExport, s.queue.tasks[0].Type())
	var payload tasks.PDFExportPayload
	require.NoError(t, json.Unmarshal(s.queue.tasks[0].Payload(), &payload))
	assert.Equal(t, id, payload.ResumeID)
	assert.Equal(t, "creative", payload.TemplateID)
	assert.NotEmpty(t, payload.CorrelationID)

	stored, err := s.store.Load(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Jane Roe", stored.PersonalInfo.FullName)
}

func TestDownloadRejectsUnsupportedColor(t *testing.T) {
	s := newTestServer(t, nil)
	id := s.create(t)

	doc := resume.NewDemo()
	doc.Settings.AccentColor = "color(display-p3 1 0 0)"
	body, err := resume.Export(doc)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPut, "/v1/resume/"+id, bytes.NewReader(body), "application/json").Code)

	w := s.do(t, http.MethodPost, "/v1/resume/"+id+"/download", nil, "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "format unsupported")
	assert.Empty(t, s.queue.tasks)
}

func TestDownloadLink(t *testing.T) {
	s := newTestServer(t, nil)
	id := s.create(t)

	w := s.do(t, http.MethodGet, "/v1/resume/"+id+"/download-link", nil, "")
	assert.Equal(t, http.StatusConflict, w.Code)

	require.NoError(t, s.store.SetExport(context.Background(), id, store.Export{
		Status: database.StatusCompleted,
		PdfKey: "exports/" + id + "/a.pdf",
	}))
	w = s.do(t, http.MethodGet, "/v1/resume/"+id+"/download-link", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		URL    string `json:"url"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, strings.HasPrefix(resp.URL, "https://example.invalid/exports/"+id+"/a.pdf"))
	assert.Equal(t, database.StatusCompleted, resp.Status)
}

func TestDeleteResume(t *testing.T) {
	s := newTestServer(t, nil)
	id := s.create(t)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/v1/resume/"+id, nil, "").Code)

	w := s.do(t, http.MethodDelete, "/v1/resume/"+id, nil, "")
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{"exports/" + id + "/", "thumbnails/resume/" + id + "/"}, s.objects.prefixes)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/v1/resume/"+id, nil, "").Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, "/v1/resume/"+id, nil, "").Code)
}

func TestListTemplates(t *testing.T) {
	s := newTestServer(t, nil)
	s.objects.existing["thumbnails/template/modern/preview.jpg"] = true

	w := s.do(t, http.MethodGet, "/v1/templates", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var items []templateListItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	require.Len(t, items, 7)
	assert.Equal(t, "professional", items[0].ID)
	for _, item := range items {
		if item.ID == "modern" {
			assert.Equal(t, "https://example.invalid/thumbnails/template/modern/preview.jpg", item.PreviewImageURL)
		} else {
			assert.Empty(t, item.PreviewImageURL, item.ID)
		}
	}
}

func TestEnsureTemplatePreviews(t *testing.T) {
	objects := newFakeObjects()
	objects.existing["thumbnails/template/modern/preview.jpg"] = true
	queue := &fakeQueue{}
	h := NewTemplateHandler(objects, queue, slog.New(slog.NewTextHandler(io.Discard, nil)))

	n, err := h.EnsurePreviews(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	for _, task := range queue.tasks {
		assert.Equal(t, tasks.TypeTemplatePreview, task.Type())
		assert.NotContains(t, string(task.Payload()), `"modern"`)
	}

	dup := &fakeQueue{err: asynq.ErrTaskIDConflict}
	n, err = NewTemplateHandler(objects, dup, slog.Default()).EnsurePreviews(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, func(d *Dependencies) {
		d.RateCounter = &fakeCounter{}
	})

	for i := 0; i < rateLimitMax; i++ {
		w := s.do(t, http.MethodPost, "/v1/extract", strings.NewReader(`{"text":"Jane Doe"}`), "application/json")
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := s.do(t, http.MethodPost, "/v1/extract", strings.NewReader(`{"text":"Jane Doe"}`), "application/json")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestParseSubscribe(t *testing.T) {
	id, err := parseSubscribe([]byte(`{"type":"subscribe","resume_id":" 42 "}`))
	require.NoError(t, err)
	assert.Equal(t, "42", id)

	for _, raw := range []string{`{`, `{"type":"auth","resume_id":"1"}`, `{"type":"subscribe"}`} {
		_, err := parseSubscribe([]byte(raw))
		assert.Error(t, err, raw)
	}
}
