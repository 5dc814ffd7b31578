package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// 任务类型常量，确保队列生产者与消费者一致。
const (
	TypePDFExport       = "pdf:export"
	TypeTemplatePreview = "template:preview"
)

// PDFExportPayload 描述导出一份简历 PDF 所需的信息。
// TemplateID 为空时使用文档自身设置里的模板。
type PDFExportPayload struct {
	ResumeID      string `json:"resume_id"`
	TemplateID    string `json:"template_id,omitempty"`
	CorrelationID string `json:"correlation_id"`
}

// TemplatePreviewPayload 描述为某个模板生成缩略图的任务。
type TemplatePreviewPayload struct {
	TemplateID    string `json:"template_id"`
	CorrelationID string `json:"correlation_id"`
}

// NewPDFExportTask 构造一个新的简历 PDF 导出任务。
func NewPDFExportTask(resumeID, templateID, correlationID string) (*asynq.Task, error) {
	payload, err := json.Marshal(PDFExportPayload{
		ResumeID:      resumeID,
		TemplateID:    templateID,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypePDFExport, payload), nil
}

// NewTemplatePreviewTask 构造模板缩略图任务；同一模板只保留一个排队任务。
func NewTemplatePreviewTask(templateID, correlationID string) (*asynq.Task, error) {
	payload, err := json.Marshal(TemplatePreviewPayload{
		TemplateID:    templateID,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeTemplatePreview, payload, asynq.TaskID(TypeTemplatePreview+":"+templateID)), nil
}
