// Package supervisor owns the single Lumi worker process.
//
// The supervisor starts the worker on demand, watches its diagnostic stream
// for the readiness marker, surfaces error lines to the user, and cascades
// panel teardown when the worker dies. At most one worker is live per
// session; a second start request is a no-op.
package supervisor

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Markers scanned for in the worker's diagnostic stream. Detection is plain
// substring containment, matching the worker's uvicorn-style log lines.
const (
	readyMarker   = "Uvicorn running on"
	errorMarker   = "ERROR"
	warningMarker = "WARNING"
	infoMarker    = "INFO"
)

// DefaultStartupTimeout bounds the wait for the readiness marker. A worker
// that never reports ready is killed and the failure surfaced instead of
// leaving the user with no panel and no explanation.
const DefaultStartupTimeout = 30 * time.Second

// ErrMissingBinary indicates the worker executable is absent from its
// install-relative location. Fatal to the start action; no retry.
var ErrMissingBinary = errors.New("worker executable not found")

// ErrStartupTimeout indicates the worker never emitted the readiness marker
// within the startup window.
var ErrStartupTimeout = errors.New("worker did not become ready in time")

// ErrAlreadyRunning is returned by Start when a live worker exists. Callers
// treat it as success; it exists so they can distinguish reveal-only starts.
var ErrAlreadyRunning = errors.New("worker already running")

// Process is a live worker as seen by the supervisor.
type Process interface {
	// Diagnostics is the worker's line-oriented diagnostic stream.
	Diagnostics() io.Reader
	// Wait blocks until the process exits.
	Wait() error
	// Kill terminates the process.
	Kill() error
}

// Launcher spawns the worker executable. The production launcher uses
// os/exec; tests inject fakes.
type Launcher interface {
	Launch(path string) (Process, error)
}

// Notifier surfaces user-visible messages.
type Notifier interface {
	Errorf(format string, args ...any)
	Infof(format string, args ...any)
}

// Options configures a Supervisor.
type Options struct {
	// WorkerPath is the worker executable location. Defaults to the fixed
	// install-relative path next to the lumi binary.
	WorkerPath string
	// Launcher spawns the process. Defaults to an os/exec launcher.
	Launcher Launcher
	// Notifier receives user-visible errors. Required.
	Notifier Notifier
	// StartupTimeout bounds the wait for readiness. Zero selects
	// DefaultStartupTimeout.
	StartupTimeout time.Duration
	// OnReady runs once, after the readiness marker is first observed.
	OnReady func()
	// OnExit runs when a previously started worker exits on its own.
	// It does not run for exits caused by Stop or the startup timeout.
	OnExit func()
}

type nopNotifier struct{}

func (nopNotifier) Errorf(string, ...any) {}
func (nopNotifier) Infof(string, ...any)  {}

// Supervisor manages the lifecycle of the single worker process.
type Supervisor struct {
	workerPath     string
	launcher       Launcher
	notifier       Notifier
	startupTimeout time.Duration
	onReady        func()
	onExit         func()

	mu    sync.Mutex
	proc  Process
	ready bool
}

// New creates a Supervisor from opts.
func New(opts Options) *Supervisor {
	s := &Supervisor{
		workerPath:     opts.WorkerPath,
		launcher:       opts.Launcher,
		notifier:       opts.Notifier,
		startupTimeout: opts.StartupTimeout,
		onReady:        opts.OnReady,
		onExit:         opts.OnExit,
	}
	if s.workerPath == "" {
		s.workerPath = DefaultWorkerPath()
	}
	if s.launcher == nil {
		s.launcher = execLauncher{}
	}
	if s.notifier == nil {
		s.notifier = nopNotifier{}
	}
	if s.startupTimeout == 0 {
		s.startupTimeout = DefaultStartupTimeout
	}
	if s.onReady == nil {
		s.onReady = func() {}
	}
	if s.onExit == nil {
		s.onExit = func() {}
	}
	return s
}

// Running reports whether a live worker exists.
func (s *Supervisor) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.proc != nil
}

// Ready reports whether the live worker has signaled readiness.
func (s *Supervisor) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.proc != nil && s.ready
}

// Start launches the worker if none is live. Returns ErrAlreadyRunning (not
// a failure) when a worker exists, ErrMissingBinary when the executable is
// absent, or the spawn error. Readiness is reported asynchronously through
// OnReady once the marker appears on the diagnostic stream.
func (s *Supervisor) Start() error {
	s.mu.Lock()
	if s.proc != nil {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	s.mu.Unlock()

	if _, err := os.Stat(s.workerPath); err != nil {
		s.notifier.Errorf("Lumi worker executable not found at %s. Reinstall Lumi to restore it.", s.workerPath)
		return fmt.Errorf("%w: %s", ErrMissingBinary, s.workerPath)
	}

	proc, err := s.launcher.Launch(s.workerPath)
	if err != nil {
		s.notifier.Errorf("Failed to launch Lumi worker: %v", err)
		return fmt.Errorf("launching worker: %w", err)
	}

	s.mu.Lock()
	if s.proc != nil {
		// Lost the race to a concurrent Start; keep the first worker.
		s.mu.Unlock()
		_ = proc.Kill()
		return ErrAlreadyRunning
	}
	s.proc = proc
	s.ready = false
	s.mu.Unlock()

	timeout := time.AfterFunc(s.startupTimeout, func() { s.abortStartup(proc) })
	scanDone := make(chan struct{})
	go func() {
		defer close(scanDone)
		s.scan(proc, timeout)
	}()
	go s.reap(proc, timeout, scanDone)
	return nil
}

// Stop terminates the live worker and clears the handle. A no-op when no
// worker exists. The exit this causes does not cascade through OnExit;
// teardown is responsible for the panel.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	proc := s.proc
	s.proc = nil
	s.ready = false
	s.mu.Unlock()

	if proc != nil {
		_ = proc.Kill()
	}
}

// scan consumes the diagnostic stream line by line, flipping to ready on the
// first readiness marker and surfacing error lines as notifications.
func (s *Supervisor) scan(proc Process, timeout *time.Timer) {
	scanner := bufio.NewScanner(proc.Diagnostics())
	buf := make([]byte, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()

		if strings.Contains(line, readyMarker) && s.markReady(proc) {
			timeout.Stop()
			s.onReady()
			continue
		}

		if (strings.Contains(line, errorMarker) || strings.Contains(line, warningMarker)) &&
			!strings.Contains(line, infoMarker) {
			s.notifier.Errorf("Lumi worker: %s", line)
		}
	}
}

// markReady transitions the worker to ready exactly once. Reports false when
// the worker is already ready or is no longer the live one.
func (s *Supervisor) markReady(proc Process) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.proc != proc || s.ready {
		return false
	}
	s.ready = true
	return true
}

// abortStartup kills a worker that never reported ready. Clearing the handle
// first keeps reap from treating the kill as an unexpected exit.
func (s *Supervisor) abortStartup(proc Process) {
	s.mu.Lock()
	if s.proc != proc || s.ready {
		s.mu.Unlock()
		return
	}
	s.proc = nil
	s.mu.Unlock()

	_ = proc.Kill()
	s.notifier.Errorf("Lumi worker did not become ready within %s. Check the worker logs and try again.", s.startupTimeout)
}

// reap waits for the process to exit. An exit while the handle still points
// at this process is unexpected: clear state and cascade through OnExit so
// the panel is torn down with its backend.
//
// Wait closes the diagnostic pipe, so it must not run until the scanner has
// drained the stream to EOF — otherwise the final lines of a crashing
// worker are lost. The child's exit closes the write end, so the scanner
// always reaches EOF and scanDone closes.
func (s *Supervisor) reap(proc Process, timeout *time.Timer, scanDone <-chan struct{}) {
	<-scanDone
	err := proc.Wait()
	timeout.Stop()

	s.mu.Lock()
	if s.proc != proc {
		s.mu.Unlock()
		return
	}
	s.proc = nil
	s.ready = false
	s.mu.Unlock()

	if err != nil {
		s.notifier.Infof("Lumi worker exited: %v", err)
	} else {
		s.notifier.Infof("Lumi worker exited")
	}
	s.onExit()
}
