package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"resumeForge/internal/database"
	"resumeForge/internal/resume"
)

// GormStore keeps documents in the resumes table; the key is the row id.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func parseID(key string) (uint, error) {
	id, err := strconv.ParseUint(key, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return uint(id), nil
}

func (s *GormStore) Create(ctx context.Context, doc *resume.Document) (string, error) {
	content, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal resume: %w", err)
	}
	rec := database.Resume{
		Title:   titleOf(doc),
		Content: datatypes.JSON(content),
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return "", fmt.Errorf("create resume: %w", err)
	}
	return strconv.FormatUint(uint64(rec.ID), 10), nil
}

func (s *GormStore) Load(ctx context.Context, key string) (*resume.Document, error) {
	rec, err := s.find(ctx, key)
	if err != nil {
		return nil, err
	}
	var doc resume.Document
	if len(rec.Content) > 0 {
		if err := json.Unmarshal(rec.Content, &doc); err != nil {
			return nil, fmt.Errorf("decode resume %s: %w", key, err)
		}
	}
	return &doc, nil
}

func (s *GormStore) Save(ctx context.Context, key string, doc *resume.Document) error {
	id, err := parseID(key)
	if err != nil {
		return err
	}
	content, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal resume: %w", err)
	}
	res := s.db.WithContext(ctx).Model(&database.Resume{}).Where("id = ?", id).Updates(map[string]any{
		"title":   titleOf(doc),
		"content": datatypes.JSON(content),
	})
	if res.Error != nil {
		return fmt.Errorf("save resume %s: %w", key, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) Delete(ctx context.Context, key string) error {
	id, err := parseID(key)
	if err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Delete(&database.Resume{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete resume %s: %w", key, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) Get(ctx context.Context, key string) (Record, error) {
	rec, err := s.find(ctx, key)
	if err != nil {
		return Record{}, err
	}
	return toRecord(rec), nil
}

func (s *GormStore) List(ctx context.Context) ([]Record, error) {
	var rows []database.Resume
	err := s.db.WithContext(ctx).
		Select("id", "title", "updated_at", "status", "pdf_key", "preview_key").
		Order("updated_at desc").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list resumes: %w", err)
	}
	out := make([]Record, 0, len(rows))
	for _, r := range rows {
		out = append(out, toRecord(r))
	}
	return out, nil
}

func (s *GormStore) SetExport(ctx context.Context, key string, export Export) error {
	id, err := parseID(key)
	if err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Model(&database.Resume{}).Where("id = ?", id).Updates(map[string]any{
		"status":      export.Status,
		"pdf_key":     export.PdfKey,
		"preview_key": export.PreviewKey,
	})
	if res.Error != nil {
		return fmt.Errorf("update export %s: %w", key, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) find(ctx context.Context, key string) (database.Resume, error) {
	id, err := parseID(key)
	if err != nil {
		return database.Resume{}, err
	}
	var rec database.Resume
	if err := s.db.WithContext(ctx).First(&rec, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return database.Resume{}, ErrNotFound
		}
		return database.Resume{}, fmt.Errorf("find resume %s: %w", key, err)
	}
	return rec, nil
}

func toRecord(r database.Resume) Record {
	return Record{
		Key:       strconv.FormatUint(uint64(r.ID), 10),
		Title:     r.Title,
		UpdatedAt: r.UpdatedAt,
		Export: Export{
			Status:     r.Status,
			PdfKey:     r.PdfKey,
			PreviewKey: r.PreviewKey,
		},
	}
}
