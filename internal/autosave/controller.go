// Package autosave keeps the in-memory resume document authoritative and
// persists it after a quiet period following the last edit.
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

// DefaultDelay is the quiet period between the last edit and the save.
const DefaultDelay = 1500 * time.Millisecond

const saveTimeout = 15 * time.Second

// ErrClosed is returned when editing a controller after Close.
var ErrClosed = errors.New("autosave controller closed")

// Saver persists a full document under a key. store.Store satisfies it.
type Saver interface {
	Save(ctx context.Context, key string, doc *resume.Document) error
}

// Notifier 接收保存失败的瞬时通知；不做重试。
type Notifier interface {
	SaveFailed(ctx context.Context, key string, err error)
}

// Observer receives the outcome of every save attempt.
type Observer interface {
	SaveCompleted(d time.Duration, err error)
}

// Options configures a Controller. Zero values use defaults.
type Options struct {
	Delay    time.Duration
	Logger   *slog.Logger
	Notifier Notifier
	Observer Observer
}

// Controller owns one document. Every mutation restarts the debounce timer;
// when it fires, a deep copy of the current document is saved. Saves are
// not cancelled by later edits, so two saves may overlap and finish out of
// order. Both write a complete document, and the next edit or Flush writes
// the latest state again.
type Controller struct {
	key      string
	saver    Saver
	delay    time.Duration
	logger   *slog.Logger
	notifier Notifier
	observer Observer

	mu      sync.Mutex
	doc     *resume.Document
	timer   *time.Timer
	version uint64
	saved   uint64
	closed  bool
	// lastUsed 记录最近一次读写，Registry 据此回收空闲的 Controller。
	lastUsed time.Time

	// inflight 为进行中的保存数，idle 在其归零时广播。
	inflight int
	idle     *sync.Cond
}

// New returns a controller for doc. A nil doc starts from the demo content.
func New(key string, doc *resume.Document, saver Saver, opts Options) *Controller {
	if doc == nil {
		doc = resume.NewDemo()
	}
	if opts.Delay <= 0 {
		opts.Delay = DefaultDelay
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	c := &Controller{
		key:      key,
		saver:    saver,
		delay:    opts.Delay,
		logger:   opts.Logger.With(slog.String("resume_key", key)),
		notifier: opts.Notifier,
		observer: opts.Observer,
		doc:      doc.Clone(),
		lastUsed: time.Now(),
	}
	c.idle = sync.NewCond(&c.mu)
	return c
}

// Key returns the key the document is saved under.
func (c *Controller) Key() string {
	return c.key
}

// Document returns a deep copy of the current document.
func (c *Controller) Document() *resume.Document {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastUsed = time.Now()
	return c.doc.Clone()
}

// Edit applies fn to the live document and schedules a save.
func (c *Controller) Edit(fn func(doc *resume.Document)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	fn(c.doc)
	c.doc.EnsureIDs()
	c.touchLocked()
	return nil
}

// Replace swaps the whole document, e.g. after an import.
func (c *Controller) Replace(doc *resume.Document) error {
	if doc == nil {
		return errors.New("replace with nil document")
	}
	return c.Edit(func(d *resume.Document) {
		*d = *doc.Clone()
	})
}

// Reset 用演示内容替换当前文档（用户显式重置）。
func (c *Controller) Reset() error {
	return c.Replace(resume.NewDemo())
}

// Dirty reports whether the document has edits that are not saved yet.
func (c *Controller) Dirty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saved != c.version
}

// Flush stops the pending timer and saves immediately if anything changed.
func (c *Controller) Flush(ctx context.Context) error {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	dirty := c.saved != c.version
	c.mu.Unlock()
	if !dirty {
		return nil
	}
	return c.save(ctx)
}

// Close flushes pending edits, waits for in-flight saves and rejects
// further edits.
func (c *Controller) Close(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	err := c.Flush(ctx)

	c.mu.Lock()
	for c.inflight > 0 {
		c.idle.Wait()
	}
	c.mu.Unlock()
	return err
}

// discard stops the timer and rejects further edits without saving.
func (c *Controller) discard() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Controller) markUsed() {
	c.mu.Lock()
	c.lastUsed = time.Now()
	c.mu.Unlock()
}

// idleSince reports whether the controller has not been used since cutoff
// and no save is in flight. Pending edits are flushed by Close.
func (c *Controller) idleSince(cutoff time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastUsed.Before(cutoff) && c.inflight == 0
}

func (c *Controller) touchLocked() {
	c.lastUsed = time.Now()
	c.version++
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.delay, c.fire)
}

func (c *Controller) fire() {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	_ = c.save(ctx)
}

func (c *Controller) save(ctx context.Context) error {
	c.mu.Lock()
	snapshot := c.doc.Clone()
	version := c.version
	c.inflight++
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.inflight--
		if c.inflight == 0 {
			c.idle.Broadcast()
		}
		c.mu.Unlock()
	}()

	start := time.Now()
	err := c.saver.Save(ctx, c.key, snapshot)
	elapsed := time.Since(start)
	if c.observer != nil {
		c.observer.SaveCompleted(elapsed, err)
	}

	if err != nil {
		c.logger.Error("autosave failed", slog.Any("error", err))
		if c.notifier != nil {
			c.notifier.SaveFailed(ctx, c.key, err)
		}
		return fmt.Errorf("save resume %s: %w", c.key, err)
	}

	c.mu.Lock()
	if version > c.saved {
		c.saved = version
	}
	c.mu.Unlock()
	c.logger.Debug("autosave completed", slog.Duration("elapsed", elapsed))
	return nil
}
