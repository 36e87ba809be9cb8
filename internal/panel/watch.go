package panel

import (
	"context"
	"fmt"

	"github.com/fsnotify/fsnotify"
)

// Watch re-renders the panel when the bundle directory changes. Dev-mode
// convenience behind `lumi start --watch`; returns when ctx is done.
func Watch(ctx context.Context, bundleDir string, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating bundle watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(bundleDir); err != nil {
		return fmt.Errorf("watching %s: %w", bundleDir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create) ||
				event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename) {
				onChange()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("bundle watcher: %w", err)
		}
	}
}
