// Package store persists resume documents behind one interface, backed either
// by PostgreSQL (gorm) or by JSON files in a local directory.
package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"resumeForge/internal/resume"
)

var (
	// ErrNotFound is returned when no document exists under the key.
	ErrNotFound = errors.New("resume not found")
	// ErrInvalidKey is returned for keys the backend cannot address.
	ErrInvalidKey = errors.New("invalid resume key")
)

const untitled = "Untitled resume"

// Export 记录最近一次 PDF 导出的状态与对象存储中的产物。
type Export struct {
	Status     string `json:"status"`
	PdfKey     string `json:"pdfKey"`
	PreviewKey string `json:"previewKey"`
}

// Record 是列表与元数据查询返回的摘要，不含文档内容。
type Record struct {
	Key       string    `json:"key"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updatedAt"`
	Export    Export    `json:"export"`
}

// Store is the persistence boundary for resume documents. Save always
// writes the full document; implementations never merge.
type Store interface {
	Create(ctx context.Context, doc *resume.Document) (string, error)
	Load(ctx context.Context, key string) (*resume.Document, error)
	Save(ctx context.Context, key string, doc *resume.Document) error
	Delete(ctx context.Context, key string) error
	Get(ctx context.Context, key string) (Record, error)
	List(ctx context.Context) ([]Record, error)
	SetExport(ctx context.Context, key string, export Export) error
}

// titleOf 用姓名作为列表标题。
func titleOf(doc *resume.Document) string {
	if doc != nil {
		if name := strings.TrimSpace(doc.PersonalInfo.FullName); name != "" {
			return name
		}
	}
	return untitled
}
