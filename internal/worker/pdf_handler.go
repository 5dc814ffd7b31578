package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/hibiken/asynq"
	"github.com/minio/minio-go/v7"

	"resumeForge/internal/database"
	"resumeForge/internal/errcode"
	"resumeForge/internal/metrics"
	"resumeForge/internal/notify"
	"resumeForge/internal/render"
	"resumeForge/internal/resume"
	"resumeForge/internal/storage"
	"resumeForge/internal/store"
	"resumeForge/internal/tasks"
)

const unsupportedColorMessage = "accent colour format is not supported, use a hex, rgb() or hsl() value"

// ObjectStorage 是 worker 使用的对象存储能力（storage.Client 满足）。
type ObjectStorage interface {
	UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (*minio.UploadInfo, error)
	DeleteObject(ctx context.Context, objectKey string) error
}

// Exporter prints rendered HTML. pdf.Exporter satisfies it.
type Exporter interface {
	Export(ctx context.Context, html []byte) ([]byte, error)
	Screenshot(ctx context.Context, html []byte, quality int) ([]byte, error)
}

// PDFTaskHandler 负责消费 PDF 导出任务。
type PDFTaskHandler struct {
	store          store.Store
	objects        ObjectStorage
	publisher      notify.Publisher
	exporter       Exporter
	logger         *slog.Logger
	previewQuality int
}

// NewPDFTaskHandler 创建任务处理器。
func NewPDFTaskHandler(
	resumes store.Store,
	objects ObjectStorage,
	publisher notify.Publisher,
	exporter Exporter,
	logger *slog.Logger,
	previewQuality int,
) *PDFTaskHandler {
	if previewQuality <= 0 {
		previewQuality = 80
	}
	return &PDFTaskHandler{
		store:          resumes,
		objects:        objects,
		publisher:      publisher,
		exporter:       exporter,
		logger:         logger,
		previewQuality: previewQuality,
	}
}

// ProcessTask 实现 asynq.Handler。
func (h *PDFTaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) (retErr error) {
	log := h.logger

	var payload tasks.PDFExportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		log.Error("unmarshal task payload failed", slog.Any("error", err))
		return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	log = log.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.String("resume_id", payload.ResumeID),
	)
	log.Info("Starting PDF export task...")

	doc, err := h.store.Load(ctx, payload.ResumeID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		log.Warn("resume not found, skipping task")
		return nil
	case errors.Is(err, store.ErrInvalidKey):
		log.Warn("invalid resume key, skipping task")
		return fmt.Errorf("load resume: %w: %w", err, asynq.SkipRetry)
	case err != nil:
		log.Error("load resume failed", slog.Any("error", err))
		return err
	}

	previous, err := h.store.Get(ctx, payload.ResumeID)
	if err != nil {
		log.Error("load export metadata failed", slog.Any("error", err))
		return err
	}

	defer func() {
		if retErr == nil {
			return
		}
		if !errors.Is(retErr, asynq.SkipRetry) && !isFinalAsynqAttempt(ctx) {
			return
		}

		failed := previous.Export
		failed.Status = database.StatusFailed
		if err := h.store.SetExport(ctx, payload.ResumeID, failed); err != nil {
			log.Error("mark export failed", slog.Any("error", err))
		}

		msg := notify.Message{
			Type:          notify.TypeExport,
			Status:        notify.StatusFailed,
			ResumeID:      payload.ResumeID,
			CorrelationID: payload.CorrelationID,
			ErrorCode:     errcode.SystemError,
			ErrorMessage:  strings.TrimSpace(retErr.Error()),
		}
		var renderErr *render.RenderError
		switch {
		case render.IsUnsupportedColor(retErr):
			msg.ErrorCode = errcode.UnsupportedFormat
			msg.ErrorMessage = unsupportedColorMessage
		case errors.As(retErr, &renderErr):
			msg.ErrorCode = errcode.InvalidDocument
		}
		if err := notify.Send(ctx, h.publisher, msg); err != nil {
			log.Error("publish export error notification failed", slog.Any("error", err))
		}
	}()

	pending := previous.Export
	pending.Status = database.StatusPending
	if err := h.store.SetExport(ctx, payload.ResumeID, pending); err != nil {
		log.Error("mark export pending failed", slog.Any("error", err))
		return err
	}

	settings := doc.Settings
	if payload.TemplateID != "" {
		settings.TemplateID = payload.TemplateID
	}
	templateID := render.Lookup(settings.TemplateID).ID
	log = log.With(slog.String("template_id", templateID))

	html, err := render.Render(doc, settings)
	if err != nil {
		// 渲染结果只取决于文档本身，重试没有意义
		log.Error("render resume failed", slog.Any("error", err))
		return fmt.Errorf("render resume: %w: %w", err, asynq.SkipRetry)
	}

	pdfBytes, err := h.exporter.Export(ctx, html)
	metrics.ObserveExport(templateID, err)
	if err != nil {
		log.Error("export pdf failed", slog.Any("error", err))
		return err
	}

	objectName := storage.NewExportKey(payload.ResumeID)
	if _, err := h.objects.UploadFile(ctx, objectName, bytes.NewReader(pdfBytes), int64(len(pdfBytes)), "application/pdf"); err != nil {
		log.Error("upload pdf to minio failed", slog.Any("error", err))
		return err
	}

	completed := store.Export{
		Status:     database.StatusCompleted,
		PdfKey:     objectName,
		PreviewKey: previous.Export.PreviewKey,
	}
	if err := h.store.SetExport(ctx, payload.ResumeID, completed); err != nil {
		log.Error("update export metadata failed", slog.Any("error", err))
		return err
	}

	if old := previous.Export.PdfKey; old != "" && old != objectName {
		if err := h.objects.DeleteObject(ctx, old); err != nil {
			log.Warn("delete previous pdf failed", slog.String("object_key", old), slog.Any("error", err))
		}
	}

	msg := notify.Message{
		Type:          notify.TypeExport,
		Status:        notify.StatusCompleted,
		ResumeID:      payload.ResumeID,
		CorrelationID: payload.CorrelationID,
		ErrorCode:     errcode.OK,
	}
	if err := notify.Send(ctx, h.publisher, msg); err != nil {
		log.Error("publish redis notification failed", slog.Any("error", err))
		return err
	}

	if err := h.generatePreviewImage(ctx, payload.ResumeID, html, completed); err != nil {
		log.Warn("generate resume preview failed", slog.Any("error", err))
	}

	log.Info("PDF export task completed successfully.", slog.String("object_key", objectName))
	return nil
}

func (h *PDFTaskHandler) generatePreviewImage(ctx context.Context, resumeID string, html []byte, export store.Export) error {
	previewBytes, err := h.exporter.Screenshot(ctx, html, h.previewQuality)
	if err != nil {
		return fmt.Errorf("capture preview screenshot: %w", err)
	}

	objectName := storage.ResumePreviewKey(resumeID)
	if _, err := h.objects.UploadFile(ctx, objectName, bytes.NewReader(previewBytes), int64(len(previewBytes)), "image/jpeg"); err != nil {
		return fmt.Errorf("upload preview image: %w", err)
	}

	export.PreviewKey = objectName
	if err := h.store.SetExport(ctx, resumeID, export); err != nil {
		return fmt.Errorf("update resume preview key: %w", err)
	}
	return nil
}

func isFinalAsynqAttempt(ctx context.Context) bool {
	retryCount, ok1 := asynq.GetRetryCount(ctx)
	maxRetry, ok2 := asynq.GetMaxRetry(ctx)
	if !ok1 || !ok2 {
		return false
	}
	return retryCount >= maxRetry
}

// renderDemo 用演示内容渲染模板，供模板缩略图使用。
func renderDemo(templateID string) ([]byte, error) {
	return render.Render(resume.NewDemo(), resume.Settings{TemplateID: templateID})
}
