// Package session wires the worker supervisor and the panel controller into
// the single start action.
//
// One Session exists per lumi process. It owns the cascade rules: the panel
// appears only after the worker reports ready, a dead worker takes the panel
// down with it, and a closed panel leaves the worker running.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/lumi-desktop/lumi/internal/panel"
	"github.com/lumi-desktop/lumi/internal/supervisor"
)

// Options configures a Session.
type Options struct {
	// WorkerPath overrides the fixed install-relative worker location.
	WorkerPath string
	// StartupTimeout bounds the wait for worker readiness.
	StartupTimeout time.Duration
	// Launcher spawns the worker; nil selects the os/exec launcher.
	Launcher supervisor.Launcher
	// Notifier receives user-visible errors. Required.
	Notifier supervisor.Notifier
	// Surfaces creates panel surfaces. Required.
	Surfaces panel.SurfaceFactory
	// ActiveColumn reports the active editing surface's column, if any.
	ActiveColumn func() (panel.Column, bool)
}

// Session owns the worker and panel lifecycles for one lumi process.
type Session struct {
	sup      *supervisor.Supervisor
	panels   *panel.Controller
	notifier supervisor.Notifier

	closeOnce sync.Once
}

// New builds a Session and its cascade wiring.
func New(opts Options) *Session {
	s := &Session{notifier: opts.Notifier}
	s.panels = panel.NewController(opts.Surfaces, opts.ActiveColumn)
	s.sup = supervisor.New(supervisor.Options{
		WorkerPath:     opts.WorkerPath,
		Launcher:       opts.Launcher,
		Notifier:       opts.Notifier,
		StartupTimeout: opts.StartupTimeout,
		OnReady:        s.showPanel,
		OnExit:         s.panels.DisposeIfOpen,
	})
	return s
}

// Start is the single user action. It ensures the worker is running and,
// when the worker is already ready, reveals the existing panel. Idempotent:
// a second start spawns nothing and opens no second panel.
func (s *Session) Start() error {
	err := s.sup.Start()
	if errors.Is(err, supervisor.ErrAlreadyRunning) {
		if s.sup.Ready() {
			s.showPanel()
		}
		return nil
	}
	return err
}

// Close tears the session down: panel first, then the worker, each exactly
// once. Safe to call repeatedly.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.panels.DisposeIfOpen()
		s.sup.Stop()
	})
}

// WorkerRunning reports whether the worker process is live.
func (s *Session) WorkerRunning() bool { return s.sup.Running() }

// WorkerReady reports whether the worker has signaled readiness.
func (s *Session) WorkerReady() bool { return s.sup.Ready() }

// PanelOpen reports whether the panel surface exists.
func (s *Session) PanelOpen() bool { return s.panels.Open() }

func (s *Session) showPanel() {
	if err := s.panels.ShowOrReveal(); err != nil {
		s.notifier.Errorf("Failed to open the Lumi panel: %v", err)
	}
}
