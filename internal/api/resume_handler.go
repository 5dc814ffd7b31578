package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"resumeForge/internal/api/middleware"
	"resumeForge/internal/autosave"
	"resumeForge/internal/render"
	"resumeForge/internal/resume"
	"resumeForge/internal/storage"
	"resumeForge/internal/store"
	"resumeForge/internal/tasks"
)

const downloadLinkTTL = 5 * time.Minute

// TaskEnqueuer 是 asynq.Client 的子集。
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// ObjectStore 是 API 使用的对象存储能力（storage.Client 满足）。
type ObjectStore interface {
	Exists(ctx context.Context, objectKey string) (bool, error)
	GeneratePresignedURL(ctx context.Context, objectKey string, duration time.Duration) (string, error)
	GeneratePresignedURLWithParams(ctx context.Context, objectKey string, duration time.Duration, params map[string]string) (string, error)
	DeletePrefix(ctx context.Context, prefix string) error
}

// ResumeHandler 负责简历文档的读写、渲染与导出。
// 编辑都经过 autosave.Registry，由 Controller 负责防抖保存。
type ResumeHandler struct {
	store    store.Store
	sessions *autosave.Registry
	queue    TaskEnqueuer
	objects  ObjectStore
	logger   *slog.Logger
}

// NewResumeHandler 构造 ResumeHandler。
func NewResumeHandler(resumes store.Store, sessions *autosave.Registry, queue TaskEnqueuer, objects ObjectStore, logger *slog.Logger) *ResumeHandler {
	return &ResumeHandler{
		store:    resumes,
		sessions: sessions,
		queue:    queue,
		objects:  objects,
		logger:   logger,
	}
}

type createResumeRequest struct {
	Content json.RawMessage `json:"content"`
}

type resumeResponse struct {
	ID       string           `json:"id"`
	Document *resume.Document `json:"document"`
	Dirty    bool             `json:"dirty"`
}

func newResumeResponse(ctl *autosave.Controller) resumeResponse {
	return resumeResponse{
		ID:       ctl.Key(),
		Document: ctl.Document(),
		Dirty:    ctl.Dirty(),
	}
}

// ListResumes 列出全部简历的摘要。
func (h *ResumeHandler) ListResumes(c *gin.Context) {
	records, err := h.store.List(c.Request.Context())
	if err != nil {
		middleware.LoggerFromContext(c).Error("list resumes failed", slog.Any("error", err))
		Internal(c, "failed to list resumes")
		return
	}
	if records == nil {
		records = []store.Record{}
	}
	c.JSON(http.StatusOK, records)
}

// CreateResume 创建简历；未提供内容时使用演示内容。
func (h *ResumeHandler) CreateResume(c *gin.Context) {
	var req createResumeRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			BadRequest(c, err.Error())
			return
		}
	}

	doc := resume.NewDemo()
	if len(req.Content) > 0 && string(req.Content) != "null" {
		imported, err := resume.Import(req.Content)
		if err != nil {
			respondImportError(c, err)
			return
		}
		doc = imported
		doc.EnsureIDs()
	}

	key, err := h.store.Create(c.Request.Context(), doc)
	if err != nil {
		middleware.LoggerFromContext(c).Error("create resume failed", slog.Any("error", err))
		Internal(c, "failed to create resume")
		return
	}

	c.JSON(http.StatusCreated, resumeResponse{ID: key, Document: doc})
}

// GetResume 返回内存中的当前文档（可能尚未保存）。
func (h *ResumeHandler) GetResume(c *gin.Context) {
	ctl, ok := h.controller(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newResumeResponse(ctl))
}

// UpdateResume 用请求体整体替换文档，随后防抖保存。
func (h *ResumeHandler) UpdateResume(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		BadRequest(c, "failed to read body")
		return
	}
	doc, err := resume.Import(body)
	if err != nil {
		respondImportError(c, err)
		return
	}

	ctl, ok := h.controller(c)
	if !ok {
		return
	}
	if err := ctl.Replace(doc); err != nil {
		respondEditError(c, err)
		return
	}
	c.JSON(http.StatusOK, newResumeResponse(ctl))
}

// DeleteResume 删除文档，并尽力清理已生成的 PDF 与缩略图。
func (h *ResumeHandler) DeleteResume(c *gin.Context) {
	key := c.Param("id")
	ctx := c.Request.Context()
	log := middleware.LoggerFromContext(c).With(slog.String("resume_id", key))

	if err := h.store.Delete(ctx, key); err != nil {
		respondStoreError(c, err, "failed to delete resume")
		return
	}
	h.sessions.Forget(key)

	if h.objects != nil {
		for _, prefix := range storage.ResumePrefixes(key) {
			if err := h.objects.DeletePrefix(ctx, prefix); err != nil {
				log.Warn("delete generated objects failed", slog.String("prefix", prefix), slog.Any("error", err))
			}
		}
	}

	c.Status(http.StatusNoContent)
}

// ResetResume 用演示内容替换当前文档。
func (h *ResumeHandler) ResetResume(c *gin.Context) {
	ctl, ok := h.controller(c)
	if !ok {
		return
	}
	if err := ctl.Reset(); err != nil {
		respondEditError(c, err)
		return
	}
	c.JSON(http.StatusOK, newResumeResponse(ctl))
}

// FlushResume 立即保存未保存的修改。
func (h *ResumeHandler) FlushResume(c *gin.Context) {
	ctl, ok := h.controller(c)
	if !ok {
		return
	}
	if err := ctl.Flush(c.Request.Context()); err != nil {
		middleware.LoggerFromContext(c).Error("flush resume failed", slog.Any("error", err))
		Internal(c, "failed to save resume")
		return
	}
	c.JSON(http.StatusOK, gin.H{"dirty": ctl.Dirty()})
}

// ExportResume 以 JSON 附件形式导出文档。
func (h *ResumeHandler) ExportResume(c *gin.Context) {
	ctl, ok := h.controller(c)
	if !ok {
		return
	}
	data, err := resume.Export(ctl.Document())
	if err != nil {
		respondImportError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="resume-%s.json"`, ctl.Key()))
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

// PreviewResume 渲染 HTML 预览，可用 template/accent 查询参数临时覆盖设置。
func (h *ResumeHandler) PreviewResume(c *gin.Context) {
	ctl, ok := h.controller(c)
	if !ok {
		return
	}
	doc := ctl.Document()
	settings := doc.Settings
	if id := strings.TrimSpace(c.Query("template")); id != "" {
		settings.TemplateID = id
	}
	if accent := strings.TrimSpace(c.Query("accent")); accent != "" {
		settings.AccentColor = accent
	}

	html, err := render.Render(doc, settings)
	if err != nil {
		respondRenderError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", html)
}

// ResumeText 返回纯文本版本（ATS 友好）。
func (h *ResumeHandler) ResumeText(c *gin.Context) {
	ctl, ok := h.controller(c)
	if !ok {
		return
	}
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(render.RenderText(ctl.Document())))
}

// ScoreResume 返回 ATS 完整度评分。
func (h *ResumeHandler) ScoreResume(c *gin.Context) {
	ctl, ok := h.controller(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, resume.Score(ctl.Document()))
}

// DownloadResume 先落盘当前文档，再将 PDF 导出任务入队并立即返回 202。
func (h *ResumeHandler) DownloadResume(c *gin.Context) {
	ctl, ok := h.controller(c)
	if !ok {
		return
	}
	log := middleware.LoggerFromContext(c)
	ctx := c.Request.Context()

	templateID := strings.TrimSpace(c.Query("template"))
	settings := ctl.Document().Settings
	if templateID != "" {
		settings.TemplateID = templateID
	}
	if _, err := render.ResolveSettings(settings); err != nil {
		respondRenderError(c, &render.RenderError{TemplateID: render.Lookup(settings.TemplateID).ID, Cause: err})
		return
	}

	// worker 从存储读取文档，入队前必须保证最新内容已保存
	if err := ctl.Flush(ctx); err != nil {
		log.Error("flush before export failed", slog.Any("error", err))
		Internal(c, "failed to save resume")
		return
	}

	task, err := tasks.NewPDFExportTask(ctl.Key(), templateID, middleware.GetCorrelationID(c))
	if err != nil {
		Internal(c, "failed to create task")
		return
	}
	info, err := h.queue.EnqueueContext(ctx, task, asynq.MaxRetry(5))
	if err != nil {
		log.Error("enqueue pdf export failed", slog.Any("error", err))
		Internal(c, "failed to enqueue pdf export")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message": "PDF export request accepted",
		"task_id": info.ID,
	})
}

// GetDownloadLink 生成简历 PDF 的预签名下载链接。
func (h *ResumeHandler) GetDownloadLink(c *gin.Context) {
	key := c.Param("id")
	record, err := h.store.Get(c.Request.Context(), key)
	if err != nil {
		respondStoreError(c, err, "failed to query resume")
		return
	}

	if record.Export.PdfKey == "" {
		Conflict(c, "pdf not ready")
		return
	}

	params := map[string]string{
		"response-content-disposition": fmt.Sprintf(`attachment; filename="resume-%s.pdf"`, key),
	}
	signedURL, err := h.objects.GeneratePresignedURLWithParams(c.Request.Context(), record.Export.PdfKey, downloadLinkTTL, params)
	if err != nil {
		middleware.LoggerFromContext(c).Error("presign pdf failed", slog.Any("error", err))
		Internal(c, "failed to generate download link")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url":    signedURL,
		"status": record.Export.Status,
	})
}

// controller 取出 :id 对应的 Controller；失败时已写入响应。
func (h *ResumeHandler) controller(c *gin.Context) (*autosave.Controller, bool) {
	return sessionController(c, h.sessions)
}

func sessionController(c *gin.Context, sessions *autosave.Registry) (*autosave.Controller, bool) {
	ctl, err := sessions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondStoreError(c, err, "failed to load resume")
		return nil, false
	}
	return ctl, true
}

func respondStoreError(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, store.ErrInvalidKey):
		BadRequest(c, "invalid resume id")
	case errors.Is(err, store.ErrNotFound):
		NotFound(c, "resume not found")
	default:
		middleware.LoggerFromContext(c).Error(msg, slog.Any("error", err))
		Internal(c, msg)
	}
}

func respondEditError(c *gin.Context, err error) {
	if errors.Is(err, autosave.ErrClosed) {
		Conflict(c, "resume is being closed, retry")
		return
	}
	Internal(c, "failed to update resume")
}

func respondImportError(c *gin.Context, err error) {
	var ie *resume.ImportError
	if errors.As(err, &ie) {
		InvalidDocument(c, ie)
		return
	}
	middleware.LoggerFromContext(c).Error("import resume failed", slog.Any("error", err))
	Internal(c, "failed to import resume")
}

func respondRenderError(c *gin.Context, err error) {
	var renderErr *render.RenderError
	switch {
	case render.IsUnsupportedColor(err):
		Unprocessable(c, "format unsupported: "+err.Error())
	case errors.As(err, &renderErr):
		Unprocessable(c, err.Error())
	default:
		middleware.LoggerFromContext(c).Error("render resume failed", slog.Any("error", err))
		Internal(c, "failed to render resume")
	}
}
