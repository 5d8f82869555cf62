package locale

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 250 * time.Millisecond

// Watch reloads the catalog from dir whenever one of its files changes,
// until ctx is done. The tables are first loaded from dir synchronously.
func (c *Catalog) Watch(ctx context.Context, dir string) error {
	if err := c.Reload(os.DirFS(dir), "."); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch locale dir: %w", err)
	}

	c.logger.Info("watching locale catalog", "dir", dir)
	go c.watchLoop(ctx, watcher, dir)
	return nil
}

func (c *Catalog) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, dir string) {
	defer func() { _ = watcher.Close() }()

	var debounce *time.Timer
	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(reloadDebounce, func() {
				if err := c.Reload(os.DirFS(dir), "."); err != nil {
					c.logger.Error("locale reload failed", "dir", dir, "error", err)
					return
				}
				c.logger.Info("locale catalog reloaded", "dir", dir)
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			c.logger.Error("locale watcher error", "error", err)
		}
	}
}
