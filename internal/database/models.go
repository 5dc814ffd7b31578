package database

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// 导出状态。
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Resume 保存一份简历文档（Content 为 resume.Document 的 JSON）以及最近一次导出的产物。
type Resume struct {
	gorm.Model
	Title      string         `gorm:"size:255"`
	Content    datatypes.JSON `gorm:"type:jsonb"`
	PdfKey     string         `gorm:"size:512"`
	PreviewKey string         `gorm:"size:512"`
	Status     string         `gorm:"size:32"`
}
