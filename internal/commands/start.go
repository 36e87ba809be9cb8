package commands

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lumi-desktop/lumi/internal/config"
	"github.com/lumi-desktop/lumi/internal/notify"
	"github.com/lumi-desktop/lumi/internal/panel"
	"github.com/lumi-desktop/lumi/internal/session"
)

var (
	startWatch  bool
	startNoOpen bool
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the Lumi worker and open the chat panel",
	Long: `Start the Lumi worker and open the chat panel.

The worker is launched from its install-relative location and watched for
its readiness line. Once ready, the panel is served over loopback HTTP and
opened in your browser. Runs until interrupted; Ctrl-C stops the worker and
closes the panel.

Start is idempotent: with a worker already running, it only reveals the
existing panel.`,
	Args: cobra.NoArgs,
	RunE: runStart,
}

func init() {
	startCmd.Flags().BoolVar(&startWatch, "watch", false, "Re-render the panel when the UI bundle changes (development)")
	startCmd.Flags().BoolVar(&startNoOpen, "no-open", false, "Serve the panel without opening the browser")
}

// serverHolder tracks the live panel server so the bundle watcher can
// invalidate its cached page.
type serverHolder struct {
	mu  sync.Mutex
	srv *panel.Server
}

func (h *serverHolder) set(s *panel.Server) {
	h.mu.Lock()
	h.srv = s
	h.mu.Unlock()
}

func (h *serverHolder) invalidate() {
	h.mu.Lock()
	srv := h.srv
	h.mu.Unlock()
	if srv != nil {
		srv.Invalidate()
	}
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	console := notify.Stderr()
	holder := &serverHolder{}
	openBrowser := cfg.ShouldOpenBrowser() && !startNoOpen

	surfaces := func(panel.Column) (panel.Surface, error) {
		srv, err := panel.NewServer(cfg.BundleDir)
		if err != nil {
			return nil, err
		}
		if !openBrowser {
			srv.SetBrowserOpener(func(string) error { return nil })
		}
		holder.set(srv)
		console.Successf("Lumi panel available at %s", srv.Origin())
		return srv, nil
	}

	sess := session.New(session.Options{
		WorkerPath:     cfg.WorkerPath,
		StartupTimeout: cfg.StartupTimeout(),
		Notifier:       console,
		Surfaces:       surfaces,
	})
	defer sess.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := sess.Start(); err != nil {
		return err
	}
	console.Infof("Lumi worker starting: %s", cfg.WorkerPath)

	if startWatch {
		go func() {
			if err := panel.Watch(ctx, cfg.BundleDir, holder.invalidate); err != nil && ctx.Err() == nil {
				console.Warningf("Bundle watcher stopped: %v", err)
			}
		}()
	}

	<-ctx.Done()
	fmt.Fprintln(os.Stderr)
	console.Infof("Shutting down")
	sess.Close()
	return nil
}
