package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOps struct {
	inst *fakeInstance
	err  error
}

func (f *fakeOps) NewWatcher() (WatcherInstance, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.inst, nil
}

type fakeInstance struct {
	mu     sync.Mutex
	added  []string
	addErr error
	closed bool
	events chan fsnotify.Event
	errs   chan error
}

func newFakeInstance() *fakeInstance {
	return &fakeInstance{
		events: make(chan fsnotify.Event, 16),
		errs:   make(chan error, 1),
	}
}

func (f *fakeInstance) Add(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return f.addErr
	}
	f.added = append(f.added, name)
	return nil
}

func (f *fakeInstance) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeInstance) Events() <-chan fsnotify.Event { return f.events }
func (f *fakeInstance) Errors() <-chan error          { return f.errs }

// runAsync starts Run and returns a channel that receives once per fn call
// and a channel with Run's result.
func runAsync(ctx context.Context, w *Watcher, dirs []string) (<-chan struct{}, <-chan error) {
	calls := make(chan struct{}, 16)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, dirs, 20*time.Millisecond, func(context.Context) error {
			calls <- struct{}{}
			return nil
		})
	}()
	return calls, done
}

func waitCall(t *testing.T, calls <-chan struct{}) {
	t.Helper()
	select {
	case <-calls:
	case <-time.After(2 * time.Second):
		t.Fatal("callback was not called")
	}
}

func assertNoCall(t *testing.T, calls <-chan struct{}) {
	t.Helper()
	select {
	case <-calls:
		t.Fatal("unexpected callback")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestRun_CallsOnStartAndDebounces(t *testing.T) {
	inst := newFakeInstance()
	w := New(WithOps(&fakeOps{inst: inst}))
	ctx, cancel := context.WithCancel(context.Background())

	calls, done := runAsync(ctx, w, []string{"scenarios", "fixtures"})
	waitCall(t, calls)

	for i := 0; i < 5; i++ {
		inst.events <- fsnotify.Event{Name: "scenarios/a.yaml", Op: fsnotify.Write}
	}
	waitCall(t, calls)
	assertNoCall(t, calls)

	cancel()
	require.NoError(t, <-done)

	inst.mu.Lock()
	defer inst.mu.Unlock()
	assert.Equal(t, []string{"scenarios", "fixtures"}, inst.added)
	assert.True(t, inst.closed)
}

func TestRun_IgnoresChmod(t *testing.T) {
	inst := newFakeInstance()
	w := New(WithOps(&fakeOps{inst: inst}))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls, _ := runAsync(ctx, w, []string{"scenarios"})
	waitCall(t, calls)

	inst.events <- fsnotify.Event{Name: "scenarios/a.yaml", Op: fsnotify.Chmod}
	assertNoCall(t, calls)
}

func TestRun_ReportsErrors(t *testing.T) {
	inst := newFakeInstance()
	reported := make(chan error, 2)
	w := New(WithOps(&fakeOps{inst: inst}), WithErrorHandler(func(err error) { reported <- err }))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls, _ := runAsync(ctx, w, []string{"scenarios"})
	waitCall(t, calls)

	inst.errs <- errors.New("queue overflow")
	select {
	case err := <-reported:
		assert.EqualError(t, err, "queue overflow")
	case <-time.After(2 * time.Second):
		t.Fatal("error was not reported")
	}
}

func TestRun_CallbackErrorDoesNotStop(t *testing.T) {
	inst := newFakeInstance()
	reported := make(chan error, 4)
	w := New(WithOps(&fakeOps{inst: inst}), WithErrorHandler(func(err error) { reported <- err }))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, []string{"scenarios"}, 10*time.Millisecond, func(context.Context) error {
			return errors.New("scenario failed")
		})
	}()

	<-reported
	inst.events <- fsnotify.Event{Name: "scenarios/a.yaml", Op: fsnotify.Create}
	select {
	case err := <-reported:
		assert.EqualError(t, err, "scenario failed")
	case <-time.After(2 * time.Second):
		t.Fatal("callback was not re-run")
	}

	cancel()
	require.NoError(t, <-done)
}

func TestRun_ClosedEvents(t *testing.T) {
	inst := newFakeInstance()
	w := New(WithOps(&fakeOps{inst: inst}))
	close(inst.events)

	err := w.Run(context.Background(), nil, 0, func(context.Context) error { return nil })
	assert.NoError(t, err)
}

func TestRun_NewWatcherError(t *testing.T) {
	w := New(WithOps(&fakeOps{err: errors.New("too many open files")}))

	err := w.Run(context.Background(), []string{"x"}, 0, func(context.Context) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create watcher")
}

func TestRun_AddError(t *testing.T) {
	inst := newFakeInstance()
	inst.addErr = errors.New("no such file")
	w := New(WithOps(&fakeOps{inst: inst}))

	called := false
	err := w.Run(context.Background(), []string{"missing"}, 0, func(context.Context) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to watch missing")
	assert.False(t, called)
	assert.True(t, inst.closed)
}

func TestRun_WatchesSubdirectories(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "members", "deleted"), 0755))
	require.NoError(t, os.Mkdir(filepath.Join(root, "reservations"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "members", "add.yaml"), []byte("name: add\n"), 0644))

	inst := newFakeInstance()
	w := New(WithOps(&fakeOps{inst: inst}))
	ctx, cancel := context.WithCancel(context.Background())

	calls, done := runAsync(ctx, w, []string{root})
	waitCall(t, calls)

	created := filepath.Join(root, "logs")
	require.NoError(t, os.Mkdir(created, 0755))
	inst.events <- fsnotify.Event{Name: created, Op: fsnotify.Create}
	waitCall(t, calls)

	cancel()
	require.NoError(t, <-done)

	inst.mu.Lock()
	defer inst.mu.Unlock()
	assert.Equal(t, []string{
		root,
		filepath.Join(root, "members"),
		filepath.Join(root, "members", "deleted"),
		filepath.Join(root, "reservations"),
		created,
	}, inst.added)
}

func TestRun_RealFilesystemNested(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "members")
	require.NoError(t, os.Mkdir(nested, 0755))
	w := New()
	ctx, cancel := context.WithCancel(context.Background())

	calls, done := runAsync(ctx, w, []string{dir})
	waitCall(t, calls)

	require.NoError(t, os.WriteFile(filepath.Join(nested, "add.yaml"), []byte("name: add\n"), 0644))
	waitCall(t, calls)

	cancel()
	require.NoError(t, <-done)
}

func TestRun_RealFilesystem(t *testing.T) {
	dir := t.TempDir()
	w := New()
	ctx, cancel := context.WithCancel(context.Background())

	calls, done := runAsync(ctx, w, []string{dir})
	waitCall(t, calls)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("name: a\n"), 0644))
	waitCall(t, calls)

	cancel()
	require.NoError(t, <-done)
}
