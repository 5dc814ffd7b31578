package api

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"resumeForge/internal/api/middleware"
	"resumeForge/internal/autosave"
	"resumeForge/internal/extract"
	"resumeForge/internal/metrics"
	"resumeForge/internal/resume"
)

const defaultMaxUploadBytes = 10 << 20

// ImportHandler 负责把外部内容（粘贴文本、上传文件、JSON 备份）带入文档。
type ImportHandler struct {
	sessions       *autosave.Registry
	scanner        VirusScanner
	maxUploadBytes int64
	logger         *slog.Logger
}

func NewImportHandler(sessions *autosave.Registry, scanner VirusScanner, maxUploadBytes int64, logger *slog.Logger) *ImportHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &ImportHandler{
		sessions:       sessions,
		scanner:        scanner,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

type extractRequest struct {
	Text string `json:"text"`
}

type extractResponse struct {
	Document *resume.Document `json:"document"`
	Report   extract.Report   `json:"report"`
}

// ExtractText 无状态提取：返回从文本中识别出的部分文档，不修改任何简历。
func (h *ImportHandler) ExtractText(c *gin.Context) {
	var req extractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	doc, report := extract.ExtractInto(&resume.Document{}, req.Text)
	metrics.ObserveExtraction("text", foundCount(report))
	c.JSON(http.StatusOK, extractResponse{Document: doc, Report: report})
}

// ExtractIntoResume 提取文本并合并进当前文档，已有内容不会被空值覆盖。
func (h *ImportHandler) ExtractIntoResume(c *gin.Context) {
	var req extractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	h.mergeText(c, req.Text, "text")
}

// ImportResume 导入 JSON 备份（请求体或 multipart 的 file 字段），校验失败时文档保持不变。
func (h *ImportHandler) ImportResume(c *gin.Context) {
	var (
		data []byte
		err  error
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		data, _, _, err = h.readUpload(c)
		if err != nil {
			return
		}
	} else {
		data, err = io.ReadAll(io.LimitReader(c.Request.Body, h.maxUploadBytes+1))
		if err != nil {
			BadRequest(c, "failed to read body")
			return
		}
		if int64(len(data)) > h.maxUploadBytes {
			Error(c, http.StatusRequestEntityTooLarge, "document too large")
			return
		}
	}

	doc, err := resume.Import(data)
	if err != nil {
		respondImportError(c, err)
		return
	}

	ctl, ok := sessionController(c, h.sessions)
	if !ok {
		return
	}
	if err := ctl.Replace(doc); err != nil {
		respondEditError(c, err)
		return
	}
	c.JSON(http.StatusOK, newResumeResponse(ctl))
}

// ImportFile 上传 PDF/DOCX/HTML/TXT，扫描后转为文本并合并进当前文档。
func (h *ImportHandler) ImportFile(c *gin.Context) {
	data, mimeType, fileName, err := h.readUpload(c)
	if err != nil {
		return
	}
	log := middleware.LoggerFromContext(c).With(slog.String("file_name", fileName))

	if h.scanner != nil {
		if err := h.scanner.Scan(bytes.NewReader(data)); err != nil {
			if errors.Is(err, ErrInfected) {
				log.Warn("upload rejected by scanner", slog.Any("error", err))
				BadRequest(c, "malicious file detected")
				return
			}
			log.Error("scan file", slog.Any("error", err))
			Internal(c, "failed to scan file")
			return
		}
	}

	text, err := extract.TextFromFile(c.Request.Context(), data, mimeType, fileName)
	if err != nil {
		var fileErr *extract.FileError
		switch {
		case errors.Is(err, extract.ErrUnsupportedFormat):
			Error(c, http.StatusUnsupportedMediaType, "unsupported file format, upload a PDF, DOCX, HTML or text file")
		case errors.As(err, &fileErr):
			log.Warn("read uploaded file failed", slog.Any("error", err))
			Unprocessable(c, "could not read the uploaded file")
		default:
			log.Error("read uploaded file failed", slog.Any("error", err))
			Internal(c, "failed to read file")
		}
		return
	}

	h.mergeText(c, text, sourceLabel(extract.DetectFormat(data, mimeType, fileName)))
}

func (h *ImportHandler) mergeText(c *gin.Context, text, source string) {
	ctl, ok := sessionController(c, h.sessions)
	if !ok {
		return
	}

	var report extract.Report
	err := ctl.Edit(func(doc *resume.Document) {
		_, report = extract.ExtractInto(doc, text)
	})
	if err != nil {
		respondEditError(c, err)
		return
	}
	metrics.ObserveExtraction(source, foundCount(report))

	c.JSON(http.StatusOK, gin.H{
		"id":       ctl.Key(),
		"document": ctl.Document(),
		"report":   report,
		"dirty":    ctl.Dirty(),
	})
}

// readUpload 读取 multipart 的 file 字段；失败时已写入响应。
func (h *ImportHandler) readUpload(c *gin.Context) (data []byte, mimeType, fileName string, err error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+1<<20)

	file, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			Error(c, http.StatusRequestEntityTooLarge, "file too large")
			return nil, "", "", err
		}
		BadRequest(c, "missing file")
		return nil, "", "", err
	}
	if file.Size > h.maxUploadBytes {
		Error(c, http.StatusRequestEntityTooLarge, "file too large")
		return nil, "", "", errors.New("file too large")
	}

	reader, err := file.Open()
	if err != nil {
		Internal(c, "failed to open file")
		return nil, "", "", err
	}
	defer reader.Close()

	data, err = io.ReadAll(reader)
	if err != nil {
		Internal(c, "failed to read file")
		return nil, "", "", err
	}
	return data, file.Header.Get("Content-Type"), file.Filename, nil
}

func sourceLabel(format string) string {
	switch format {
	case extract.MimePDF:
		return "pdf"
	case extract.MimeDOCX:
		return "docx"
	case extract.MimeHTML:
		return "html"
	default:
		return "text"
	}
}

func foundCount(r extract.Report) int {
	return len(r.Fields) + r.Skills + r.Entries
}
