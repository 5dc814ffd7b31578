package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"resumeForge/internal/api/middleware"
	"resumeForge/internal/render"
	"resumeForge/internal/storage"
	"resumeForge/internal/tasks"
)

const templatePreviewTTL = time.Hour

// TemplateHandler 负责模板目录与模板缩略图。
type TemplateHandler struct {
	objects ObjectStore
	queue   TaskEnqueuer
	logger  *slog.Logger
}

func NewTemplateHandler(objects ObjectStore, queue TaskEnqueuer, logger *slog.Logger) *TemplateHandler {
	return &TemplateHandler{objects: objects, queue: queue, logger: logger}
}

type templateListItem struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	PreviewImageURL string `json:"preview_image_url,omitempty"`
}

// GET /v1/templates
// 按固定顺序返回模板目录；缩略图存在时附带预签名链接。
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	log := middleware.LoggerFromContext(c)
	ctx := c.Request.Context()

	catalogue := render.Templates()
	items := make([]templateListItem, 0, len(catalogue))
	for _, info := range catalogue {
		item := templateListItem{ID: info.ID, Name: info.Name, Description: info.Description}
		if url, err := h.previewURL(ctx, info.ID); err != nil {
			log.Warn("template preview lookup failed", slog.String("template_id", info.ID), slog.Any("error", err))
		} else {
			item.PreviewImageURL = url
		}
		items = append(items, item)
	}
	c.JSON(http.StatusOK, items)
}

func (h *TemplateHandler) previewURL(ctx context.Context, templateID string) (string, error) {
	if h.objects == nil {
		return "", nil
	}
	key := storage.TemplatePreviewKey(templateID)
	exists, err := h.objects.Exists(ctx, key)
	if err != nil || !exists {
		return "", err
	}
	return h.objects.GeneratePresignedURL(ctx, key, templatePreviewTTL)
}

// EnsurePreviews 为缺少缩略图的模板排队生成任务，返回入队数量。
// 同一模板已在队列中时 asynq 会拒绝重复任务，这里视为成功。
func (h *TemplateHandler) EnsurePreviews(ctx context.Context) (int, error) {
	if h.objects == nil || h.queue == nil {
		return 0, nil
	}
	var (
		enqueued int
		errs     []error
	)
	for _, info := range render.Templates() {
		exists, err := h.objects.Exists(ctx, storage.TemplatePreviewKey(info.ID))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if exists {
			continue
		}
		task, err := tasks.NewTemplatePreviewTask(info.ID, "")
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if _, err := h.queue.EnqueueContext(ctx, task, asynq.MaxRetry(3)); err != nil {
			if errors.Is(err, asynq.ErrTaskIDConflict) {
				continue
			}
			errs = append(errs, err)
			continue
		}
		enqueued++
	}
	if enqueued > 0 {
		h.logger.Info("template previews enqueued", slog.Int("count", enqueued))
	}
	return enqueued, errors.Join(errs...)
}
