package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"resumeForge/internal/resume"
)

const (
	docExt    = ".json"
	exportExt = ".export.json"
)

var fileKeyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// FileStore 把每份简历保存为目录下的 <key>.json，导出信息写在 <key>.export.json。
// 写入先落临时文件再 rename，读者永远看不到半个文件。
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates dir if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(key, ext string) (string, error) {
	if !fileKeyPattern.MatchString(key) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(s.dir, key+ext), nil
}

func (s *FileStore) Create(ctx context.Context, doc *resume.Document) (string, error) {
	key := uuid.NewString()
	if err := s.write(ctx, key, docExt, doc, false); err != nil {
		return "", err
	}
	return key, nil
}

func (s *FileStore) Load(ctx context.Context, key string) (*resume.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var doc resume.Document
	if err := s.read(key, docExt, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Save overwrites an existing document. A document deleted concurrently is
// never recreated: the existence check and the rename share one lock.
func (s *FileStore) Save(ctx context.Context, key string, doc *resume.Document) error {
	return s.write(ctx, key, docExt, doc, true)
}

func (s *FileStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.path(key, docExt)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("delete resume %s: %w", key, err)
	}
	if err := os.Remove(filepath.Join(s.dir, key+exportExt)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete export info %s: %w", key, err)
	}
	return nil
}

func (s *FileStore) Get(ctx context.Context, key string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	p, err := s.path(key, docExt)
	if err != nil {
		return Record{}, err
	}
	info, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("stat resume %s: %w", key, err)
	}
	var doc resume.Document
	if err := s.read(key, docExt, &doc); err != nil {
		return Record{}, err
	}
	rec := Record{Key: key, Title: titleOf(&doc), UpdatedAt: info.ModTime()}
	if err := s.read(key, exportExt, &rec.Export); err != nil && !errors.Is(err, ErrNotFound) {
		return Record{}, err
	}
	return rec, nil
}

func (s *FileStore) List(ctx context.Context) ([]Record, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list store dir: %w", err)
	}
	out := make([]Record, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, docExt) || strings.HasSuffix(name, exportExt) {
			continue
		}
		rec, err := s.Get(ctx, strings.TrimSuffix(name, docExt))
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidKey) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (s *FileStore) SetExport(ctx context.Context, key string, export Export) error {
	return s.write(ctx, key, exportExt, export, true)
}

func (s *FileStore) read(key, ext string, v any) error {
	p, err := s.path(key, ext)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("read %s: %w", filepath.Base(p), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(p), err)
	}
	return nil
}

// write 原子地写入 <key><ext>。mustExist 为 true 时要求文档本身仍然存在，
// 检查与 rename 在同一把锁内完成，与 Delete 互斥。
func (s *FileStore) write(ctx context.Context, key, ext string, v any, mustExist bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.path(key, ext)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(p), err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if mustExist {
		if _, err := os.Stat(filepath.Join(s.dir, key+docExt)); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return ErrNotFound
			}
			return fmt.Errorf("stat resume %s: %w", key, err)
		}
	}

	tmp, err := os.CreateTemp(s.dir, "."+key+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
