package autosave

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumeForge/internal/resume"
)

const testDelay = 50 * time.Millisecond

type fakeStore struct {
	mu    sync.Mutex
	docs  map[string]*resume.Document
	saves []*resume.Document
	loads int
	err   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{docs: map[string]*resume.Document{}}
}

func (s *fakeStore) Save(_ context.Context, key string, doc *resume.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves = append(s.saves, doc)
	if s.err != nil {
		return s.err
	}
	s.docs[key] = doc
	return nil
}

func (s *fakeStore) Load(_ context.Context, key string) (*resume.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	doc, ok := s.docs[key]
	if !ok {
		return nil, errors.New("not found")
	}
	return doc.Clone(), nil
}

func (s *fakeStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saves)
}

func (s *fakeStore) lastSave() *resume.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves[len(s.saves)-1]
}

type fakeNotifier struct {
	mu   sync.Mutex
	keys []string
	errs []error
}

func (n *fakeNotifier) SaveFailed(_ context.Context, key string, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.keys = append(n.keys, key)
	n.errs = append(n.errs, err)
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.keys)
}

type countingObserver struct {
	mu       sync.Mutex
	ok, fail int
}

func (o *countingObserver) SaveCompleted(_ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err != nil {
		o.fail++
		return
	}
	o.ok++
}

func TestControllerDebouncesEdits(t *testing.T) {
	st := newFakeStore()
	obs := &countingObserver{}
	c := New("r1", &resume.Document{}, st, Options{Delay: testDelay, Observer: obs})

	for _, name := range []string{"A", "Al", "Ale", "Alex"} {
		require.NoError(t, c.Edit(func(d *resume.Document) { d.PersonalInfo.FullName = name }))
	}
	assert.True(t, c.Dirty())

	require.Eventually(t, func() bool { return st.saveCount() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(3 * testDelay)
	assert.Equal(t, 1, st.saveCount())
	assert.Equal(t, "Alex", st.lastSave().PersonalInfo.FullName)
	assert.False(t, c.Dirty())

	obs.mu.Lock()
	assert.Equal(t, 1, obs.ok)
	obs.mu.Unlock()
}

func TestControllerSavesDeepCopy(t *testing.T) {
	st := newFakeStore()
	c := New("r1", resume.NewDemo(), st, Options{Delay: time.Hour})

	require.NoError(t, c.Edit(func(d *resume.Document) { d.Skills.Tools = append(d.Skills.Tools, "Make") }))
	require.NoError(t, c.Flush(context.Background()))
	saved := st.lastSave()

	require.NoError(t, c.Edit(func(d *resume.Document) { d.Skills.Tools[0] = "Mercurial" }))
	assert.Equal(t, "Git", saved.Skills.Tools[0])
	assert.Equal(t, "Mercurial", c.Document().Skills.Tools[0])
}

func TestControllerFailureNotifiesWithoutRetry(t *testing.T) {
	st := newFakeStore()
	st.err = errors.New("disk full")
	notifier := &fakeNotifier{}
	c := New("r1", &resume.Document{}, st, Options{Delay: testDelay, Notifier: notifier})

	require.NoError(t, c.Edit(func(d *resume.Document) { d.Objective = "keep me" }))

	require.Eventually(t, func() bool { return notifier.count() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(3 * testDelay)
	assert.Equal(t, 1, st.saveCount())
	assert.Equal(t, []string{"r1"}, notifier.keys)
	assert.EqualError(t, notifier.errs[0], "disk full")

	assert.True(t, c.Dirty())
	assert.Equal(t, "keep me", c.Document().Objective)
}

func TestControllerFlush(t *testing.T) {
	st := newFakeStore()
	c := New("r1", &resume.Document{}, st, Options{Delay: time.Hour})

	require.NoError(t, c.Flush(context.Background()))
	assert.Zero(t, st.saveCount())

	require.NoError(t, c.Edit(func(d *resume.Document) { d.Objective = "now" }))
	require.NoError(t, c.Flush(context.Background()))
	assert.Equal(t, 1, st.saveCount())
	assert.False(t, c.Dirty())

	st.err = errors.New("offline")
	require.NoError(t, c.Edit(func(d *resume.Document) { d.Objective = "later" }))
	err := c.Flush(context.Background())
	assert.ErrorContains(t, err, "offline")
	assert.True(t, c.Dirty())
}

func TestControllerCloseFlushesAndRejectsEdits(t *testing.T) {
	st := newFakeStore()
	c := New("r1", &resume.Document{}, st, Options{Delay: time.Hour})

	require.NoError(t, c.Edit(func(d *resume.Document) { d.Objective = "final" }))
	require.NoError(t, c.Close(context.Background()))
	assert.Equal(t, "final", st.lastSave().Objective)

	assert.ErrorIs(t, c.Edit(func(*resume.Document) {}), ErrClosed)
	assert.NoError(t, c.Close(context.Background()))
}

func TestControllerReplaceAndReset(t *testing.T) {
	st := newFakeStore()
	c := New("r1", nil, st, Options{Delay: time.Hour})
	assert.Equal(t, "Alex Morgan", c.Document().PersonalInfo.FullName)

	incoming := &resume.Document{Projects: []resume.Project{{Title: "Imported"}}}
	require.NoError(t, c.Replace(incoming))
	got := c.Document()
	require.Len(t, got.Projects, 1)
	assert.NotEmpty(t, got.Projects[0].ID)
	assert.Empty(t, incoming.Projects[0].ID)

	require.NoError(t, c.Reset())
	assert.Equal(t, "Alex Morgan", c.Document().PersonalInfo.FullName)
	assert.Error(t, c.Replace(nil))
}

func TestRegistry(t *testing.T) {
	st := newFakeStore()
	st.docs["a"] = resume.NewDemo()
	reg := NewRegistry(st, Options{Delay: time.Hour})
	ctx := context.Background()

	c1, err := reg.Get(ctx, "a")
	require.NoError(t, err)
	c2, err := reg.Get(ctx, "a")
	require.NoError(t, err)
	assert.Same(t, c1, c2)
	assert.Equal(t, 1, st.loads)

	_, err = reg.Get(ctx, "missing")
	assert.Error(t, err)
	assert.Equal(t, 1, reg.Len())

	require.NoError(t, c1.Edit(func(d *resume.Document) { d.Objective = "evicted" }))
	require.NoError(t, reg.Evict(ctx, "a"))
	assert.Equal(t, "evicted", st.docs["a"].Objective)
	assert.Zero(t, reg.Len())

	c3, err := reg.Get(ctx, "a")
	require.NoError(t, err)
	require.NoError(t, c3.Edit(func(d *resume.Document) { d.Objective = "dropped" }))
	reg.Forget("a")
	assert.Equal(t, "evicted", st.docs["a"].Objective)
	assert.ErrorIs(t, c3.Edit(func(*resume.Document) {}), ErrClosed)

	c4, err := reg.Get(ctx, "a")
	require.NoError(t, err)
	require.NoError(t, c4.Edit(func(d *resume.Document) { d.Objective = "closed" }))
	require.NoError(t, reg.CloseAll(ctx))
	assert.Equal(t, "closed", st.docs["a"].Objective)
}

func TestRegistryEvictIdle(t *testing.T) {
	st := newFakeStore()
	st.docs["idle"] = resume.NewDemo()
	st.docs["busy"] = resume.NewDemo()
	reg := NewRegistry(st, Options{Delay: time.Hour})
	ctx := context.Background()

	idle, err := reg.Get(ctx, "idle")
	require.NoError(t, err)
	require.NoError(t, idle.Edit(func(d *resume.Document) { d.Objective = "pending edit" }))
	_, err = reg.Get(ctx, "busy")
	require.NoError(t, err)

	time.Sleep(30 * time.Millisecond)
	_, err = reg.Get(ctx, "busy")
	require.NoError(t, err)

	n, err := reg.EvictIdle(ctx, 20*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, reg.Len())
	assert.Equal(t, "pending edit", st.docs["idle"].Objective)
	assert.ErrorIs(t, idle.Edit(func(*resume.Document) {}), ErrClosed)

	// 回收后再次访问会重新从存储加载。
	reloaded, err := reg.Get(ctx, "idle")
	require.NoError(t, err)
	assert.NotSame(t, idle, reloaded)
	assert.Equal(t, "pending edit", reloaded.Document().Objective)
}

func TestRegistryJanitorEvictsIdleControllers(t *testing.T) {
	st := newFakeStore()
	st.docs["a"] = resume.NewDemo()
	reg := NewRegistry(st, Options{Delay: time.Hour})

	_, err := reg.Get(context.Background(), "a")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		reg.RunJanitor(ctx, 20*time.Millisecond, nil)
		close(done)
	}()

	assert.Eventually(t, func() bool { return reg.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}
