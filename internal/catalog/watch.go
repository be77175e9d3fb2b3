package catalog

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadDebounce is the quiet period after the last file event before
// the catalog is reloaded.
const ReloadDebounce = 100 * time.Millisecond

// Watch reloads the catalog when YAML files in the override directory
// change and calls onReload after each successful reload. It blocks until
// ctx is done.
func (c *Catalog) Watch(ctx context.Context, onReload func()) error {
	if c.dir == "" {
		return errors.New("catalog has no directory to watch")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(c.dir); err != nil {
		return err
	}
	c.logger.Debug("watching catalog directory", slog.String("dir", c.dir))

	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if !isYAML(event.Name) {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			name := event.Name
			debounceTimer = time.AfterFunc(ReloadDebounce, func() {
				c.logger.Debug("catalog file changed, reloading", "file", name)
				if err := c.Reload(); err != nil {
					c.logger.Error("catalog reload failed", "error", err)
					return
				}
				if onReload != nil {
					onReload()
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			c.logger.Error("watcher error", "error", err)
		}
	}
}
