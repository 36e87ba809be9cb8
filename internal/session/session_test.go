package session

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/lumi-desktop/lumi/internal/panel"
	"github.com/lumi-desktop/lumi/internal/supervisor"
)

type fakeProcess struct {
	diagR *io.PipeReader
	diagW *io.PipeWriter

	mu     sync.Mutex
	killed bool
	exited chan struct{}
}

func newFakeProcess() *fakeProcess {
	r, w := io.Pipe()
	return &fakeProcess{diagR: r, diagW: w, exited: make(chan struct{})}
}

func (p *fakeProcess) Diagnostics() io.Reader { return p.diagR }

func (p *fakeProcess) Wait() error {
	<-p.exited
	return nil
}

func (p *fakeProcess) Kill() error {
	p.die()
	return nil
}

func (p *fakeProcess) die() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.killed {
		p.killed = true
		close(p.exited)
		p.diagW.Close()
	}
}

func (p *fakeProcess) alive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.killed
}

func (p *fakeProcess) emitReady(t *testing.T) {
	t.Helper()
	if _, err := p.diagW.Write([]byte("INFO:     Uvicorn running on http://0.0.0.0:8000\n")); err != nil {
		t.Fatalf("emitting readiness line: %v", err)
	}
}

type scriptedLauncher struct {
	mu       sync.Mutex
	launches int
	procs    []*fakeProcess
}

func (l *scriptedLauncher) Launch(path string) (supervisor.Process, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.launches++
	p := newFakeProcess()
	l.procs = append(l.procs, p)
	return p, nil
}

func (l *scriptedLauncher) launchCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.launches
}

type fakeSurface struct {
	mu        sync.Mutex
	reveals   int
	closed    bool
	onDispose []func()
}

func (f *fakeSurface) Reveal(panel.Column) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reveals++
}

func (f *fakeSurface) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	fns := f.onDispose
	f.onDispose = nil
	f.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (f *fakeSurface) OnDispose(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onDispose = append(f.onDispose, fn)
}

type surfaceFactory struct {
	mu       sync.Mutex
	surfaces []*fakeSurface
}

func (f *surfaceFactory) make(panel.Column) (panel.Surface, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := &fakeSurface{}
	f.surfaces = append(f.surfaces, s)
	return s, nil
}

func (f *surfaceFactory) created() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.surfaces)
}

type nopNotifier struct{}

func (nopNotifier) Errorf(string, ...any) {}
func (nopNotifier) Infof(string, ...any)  {}

func touchWorker(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lumi-server")
	if err := os.WriteFile(path, []byte{}, 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func newTestSession(t *testing.T) (*Session, *scriptedLauncher, *surfaceFactory) {
	t.Helper()
	launcher := &scriptedLauncher{}
	surfaces := &surfaceFactory{}
	s := New(Options{
		WorkerPath:     touchWorker(t),
		StartupTimeout: time.Minute,
		Launcher:       launcher,
		Notifier:       nopNotifier{},
		Surfaces:       surfaces.make,
	})
	t.Cleanup(s.Close)
	return s, launcher, surfaces
}

func TestStart_PanelWaitsForReadiness(t *testing.T) {
	s, launcher, surfaces := newTestSession(t)

	if err := s.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if surfaces.created() != 0 {
		t.Fatal("Panel created before the readiness marker")
	}

	launcher.procs[0].emitReady(t)
	waitFor(t, "panel creation", s.PanelOpen)
}

func TestStart_Idempotent(t *testing.T) {
	s, launcher, surfaces := newTestSession(t)

	if err := s.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	launcher.procs[0].emitReady(t)
	waitFor(t, "panel creation", s.PanelOpen)

	if err := s.Start(); err != nil {
		t.Fatalf("Second Start() error: %v", err)
	}

	if launcher.launchCount() != 1 {
		t.Errorf("Launched %d workers, want 1", launcher.launchCount())
	}
	if surfaces.created() != 1 {
		t.Errorf("Created %d panels, want 1", surfaces.created())
	}
	if surfaces.surfaces[0].reveals < 2 {
		t.Error("Second start must reveal the existing panel")
	}
}

func TestWorkerExit_DisposesPanel(t *testing.T) {
	s, launcher, surfaces := newTestSession(t)

	if err := s.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	launcher.procs[0].emitReady(t)
	waitFor(t, "panel creation", s.PanelOpen)

	launcher.procs[0].die()
	waitFor(t, "panel disposal", func() bool { return !s.PanelOpen() })

	if !surfaces.surfaces[0].closed {
		t.Error("Panel surface was not closed after worker exit")
	}
	if s.WorkerRunning() {
		t.Error("WorkerRunning() = true after exit")
	}
}

func TestPanelClose_KeepsWorker(t *testing.T) {
	s, launcher, surfaces := newTestSession(t)

	if err := s.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	launcher.procs[0].emitReady(t)
	waitFor(t, "panel creation", s.PanelOpen)

	surfaces.surfaces[0].Close()
	waitFor(t, "panel handle cleared", func() bool { return !s.PanelOpen() })

	if !s.WorkerRunning() {
		t.Error("Closing the panel must not stop the worker")
	}
	if !launcher.procs[0].alive() {
		t.Error("Worker was killed by panel close")
	}

	// Start again: same worker, fresh panel.
	if err := s.Start(); err != nil {
		t.Fatalf("Start() after panel close error: %v", err)
	}
	waitFor(t, "panel recreation", s.PanelOpen)
	if launcher.launchCount() != 1 {
		t.Errorf("Launched %d workers, want 1", launcher.launchCount())
	}
	if surfaces.created() != 2 {
		t.Errorf("Created %d panels, want 2", surfaces.created())
	}
}

func TestClose_TearsDownOnce(t *testing.T) {
	s, launcher, surfaces := newTestSession(t)

	if err := s.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	launcher.procs[0].emitReady(t)
	waitFor(t, "panel creation", s.PanelOpen)

	s.Close()
	s.Close()

	if s.PanelOpen() {
		t.Error("Panel still open after Close")
	}
	if s.WorkerRunning() {
		t.Error("Worker still running after Close")
	}
	if !surfaces.surfaces[0].closed {
		t.Error("Surface not closed by Close")
	}
	if launcher.procs[0].alive() {
		t.Error("Worker not killed by Close")
	}
}
