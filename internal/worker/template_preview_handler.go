package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"resumeForge/internal/render"
	"resumeForge/internal/storage"
	"resumeForge/internal/tasks"
)

// TemplatePreviewHandler 负责模板缩略图生成任务：用演示简历渲染模板并截图。
type TemplatePreviewHandler struct {
	objects  ObjectStorage
	exporter Exporter
	logger   *slog.Logger
	quality  int
}

func NewTemplatePreviewHandler(
	objects ObjectStorage,
	exporter Exporter,
	logger *slog.Logger,
	quality int,
) *TemplatePreviewHandler {
	if quality <= 0 {
		quality = 80
	}
	return &TemplatePreviewHandler{
		objects:  objects,
		exporter: exporter,
		logger:   logger,
		quality:  quality,
	}
}

func (h *TemplatePreviewHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	log := h.logger

	var payload tasks.TemplatePreviewPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		log.Error("unmarshal template preview payload failed", slog.Any("error", err))
		return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	log = log.With(
		slog.String("template_id", payload.TemplateID),
		slog.String("correlation_id", payload.CorrelationID),
	)
	log.Info("Starting template preview generation task...")

	if render.Lookup(payload.TemplateID).ID != payload.TemplateID {
		log.Warn("template not found, skipping task")
		return nil
	}

	html, err := renderDemo(payload.TemplateID)
	if err != nil {
		log.Error("render template failed", slog.Any("error", err))
		return err
	}

	previewBytes, err := h.exporter.Screenshot(ctx, html, h.quality)
	if err != nil {
		log.Error("capture template screenshot failed", slog.Any("error", err))
		return err
	}

	objectName := storage.TemplatePreviewKey(payload.TemplateID)
	if _, err := h.objects.UploadFile(ctx, objectName, bytes.NewReader(previewBytes), int64(len(previewBytes)), "image/jpeg"); err != nil {
		log.Error("upload template preview failed", slog.Any("error", err))
		return err
	}

	log.Info("Template preview generation completed.")
	return nil
}
