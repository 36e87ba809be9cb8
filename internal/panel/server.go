package panel

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/lumi-desktop/lumi/internal/render"
)

// Server is the production panel surface: a loopback HTTP server serving the
// rendered bundle, revealed by opening the system browser. It may only load
// resources from the one bundle directory it was created for.
type Server struct {
	bundleDir string
	listener  net.Listener
	srv       *http.Server
	openURL   func(string) error

	mu        sync.Mutex
	page      string
	rendered  bool
	closed    bool
	onDispose []func()
}

// NewServer binds a loopback listener for the bundle and starts serving.
// The rendered page is cached until Invalidate.
func NewServer(bundleDir string) (*Server, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("binding panel listener: %w", err)
	}

	s := &Server{
		bundleDir: bundleDir,
		listener:  listener,
		openURL:   OpenURL,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.serveIndex)
	mux.Handle("/bundle/", http.StripPrefix("/bundle/", http.FileServer(http.Dir(bundleDir))))
	s.srv = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		_ = s.srv.Serve(listener)
		s.dispose()
	}()
	return s, nil
}

// Origin is the panel's own asset origin, e.g. http://127.0.0.1:53211.
func (s *Server) Origin() string {
	return "http://" + s.listener.Addr().String()
}

// Translate maps a bundle-relative path to its addressable URI on this
// server. Translate("") is the bundle root.
func (s *Server) Translate(rel string) string {
	root := s.Origin() + "/bundle"
	if rel == "" {
		return root
	}
	return root + "/" + rel
}

// SetBrowserOpener replaces the function Reveal uses to open the panel.
// `lumi start --no-open` installs a no-op; tests install recorders.
func (s *Server) SetBrowserOpener(fn func(string) error) {
	s.openURL = fn
}

// Invalidate drops the cached page so the next request re-renders. Used by
// the bundle watcher in dev mode.
func (s *Server) Invalidate() {
	s.mu.Lock()
	s.rendered = false
	s.mu.Unlock()
}

func (s *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	s.mu.Lock()
	if !s.rendered {
		// A missing index.html degrades to the inline error document;
		// the page is still served.
		page, _ := render.Page(s.bundleDir, s.Translate)
		s.page = page
		s.rendered = true
	}
	page := s.page
	s.mu.Unlock()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, page)
}

// Reveal opens (or re-opens) the panel in the system browser. The column is
// advisory; a browser tab has no display columns.
func (s *Server) Reveal(Column) {
	_ = s.openURL(s.Origin() + "/")
}

// Close shuts the server down and runs dispose callbacks.
func (s *Server) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = s.srv.Shutdown(ctx)
	s.dispose()
}

// OnDispose registers fn to run once when the server stops serving.
func (s *Server) OnDispose(fn func()) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		fn()
		return
	}
	s.onDispose = append(s.onDispose, fn)
	s.mu.Unlock()
}

func (s *Server) dispose() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	fns := s.onDispose
	s.onDispose = nil
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

var _ Surface = (*Server)(nil)
