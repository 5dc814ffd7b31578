package autosave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"resumeForge/internal/resume"
)

// Store loads and saves documents by key. store.Store satisfies it.
type Store interface {
	Saver
	Load(ctx context.Context, key string) (*resume.Document, error)
}

// Registry 维护 key 到 Controller 的映射，首次访问时从 Store 加载。
// 多个 API 副本各自持有 Controller 时，最后一次保存生效；
// 空闲的 Controller 由 EvictIdle 回收，下次访问时重新从 Store 加载。
type Registry struct {
	store Store
	opts  Options

	mu          sync.Mutex
	controllers map[string]*Controller
}

func NewRegistry(store Store, opts Options) *Registry {
	return &Registry{
		store:       store,
		opts:        opts,
		controllers: make(map[string]*Controller),
	}
}

// Get returns the controller for key, loading the document on first use.
// Load errors (including not-found) are returned unchanged.
func (r *Registry) Get(ctx context.Context, key string) (*Controller, error) {
	r.mu.Lock()
	c, ok := r.controllers[key]
	if ok {
		c.markUsed()
	}
	r.mu.Unlock()
	if ok {
		return c, nil
	}

	doc, err := r.store.Load(ctx, key)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.controllers[key]; ok {
		existing.markUsed()
		return existing, nil
	}
	c = New(key, doc, r.store, r.opts)
	r.controllers[key] = c
	return c, nil
}

// Evict flushes and closes the controller for key, if any.
func (r *Registry) Evict(ctx context.Context, key string) error {
	r.mu.Lock()
	c, ok := r.controllers[key]
	delete(r.controllers, key)
	r.mu.Unlock()
	if !ok {
		return nil
	}
	return c.Close(ctx)
}

// EvictIdle flushes and drops every controller unused for at least ttl.
// It returns how many controllers were evicted; flush errors are joined.
func (r *Registry) EvictIdle(ctx context.Context, ttl time.Duration) (int, error) {
	cutoff := time.Now().Add(-ttl)

	r.mu.Lock()
	idle := make(map[string]*Controller)
	for key, c := range r.controllers {
		if c.idleSince(cutoff) {
			idle[key] = c
			delete(r.controllers, key)
		}
	}
	r.mu.Unlock()

	var errs []error
	for key, c := range idle {
		if err := c.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("evict %s: %w", key, err))
		}
	}
	return len(idle), errors.Join(errs...)
}

// RunJanitor evicts idle controllers every ttl/2 until ctx is done.
func (r *Registry) RunJanitor(ctx context.Context, ttl time.Duration, logger *slog.Logger) {
	if ttl <= 0 {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	ticker := time.NewTicker(ttl / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			flushCtx, cancel := context.WithTimeout(context.Background(), saveTimeout)
			n, err := r.EvictIdle(flushCtx, ttl)
			cancel()
			if err != nil {
				logger.Error("evict idle resumes failed", slog.Any("error", err))
			}
			if n > 0 {
				logger.Debug("evicted idle resumes", slog.Int("count", n), slog.Int("remaining", r.Len()))
			}
		}
	}
}

// Forget drops the controller for key without saving; used after the
// document itself was deleted.
func (r *Registry) Forget(key string) {
	r.mu.Lock()
	c, ok := r.controllers[key]
	delete(r.controllers, key)
	r.mu.Unlock()
	if ok {
		c.discard()
	}
}

// Len returns the number of live controllers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.controllers)
}

// CloseAll flushes and closes every controller. Errors are joined.
func (r *Registry) CloseAll(ctx context.Context) error {
	r.mu.Lock()
	all := r.controllers
	r.controllers = make(map[string]*Controller)
	r.mu.Unlock()

	var errs []error
	for key, c := range all {
		if err := c.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}
