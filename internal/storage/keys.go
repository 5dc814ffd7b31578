package storage

import (
	"fmt"

	"github.com/google/uuid"
)

// 对象键布局：
//
//	exports/<resume>/<uuid>.pdf            每次导出一个新对象
//	thumbnails/resume/<resume>/preview.jpg  简历缩略图，覆盖写
//	thumbnails/template/<id>/preview.jpg    模板缩略图
const (
	exportsPrefix    = "exports/"
	resumeThumbs     = "thumbnails/resume/"
	templateThumbFmt = "thumbnails/template/%s/preview.jpg"
)

// NewExportKey returns a fresh object key for a resume's PDF.
func NewExportKey(resumeKey string) string {
	return fmt.Sprintf("%s%s/%s.pdf", exportsPrefix, resumeKey, uuid.NewString())
}

// ResumePreviewKey returns the thumbnail key for a resume.
func ResumePreviewKey(resumeKey string) string {
	return resumeThumbs + resumeKey + "/preview.jpg"
}

// TemplatePreviewKey returns the thumbnail key for a template.
func TemplatePreviewKey(templateID string) string {
	return fmt.Sprintf(templateThumbFmt, templateID)
}

// ResumePrefixes lists every prefix that holds objects generated for a resume.
func ResumePrefixes(resumeKey string) []string {
	return []string{
		exportsPrefix + resumeKey + "/",
		resumeThumbs + resumeKey + "/",
	}
}
