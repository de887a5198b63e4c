package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond
)

// watchFiles calls onChange after writes to any of paths settle, until ctx
// is done. Parent directories are watched so editors that replace the file
// are still seen.
func watchFiles(ctx context.Context, paths []string, log logrus.FieldLogger, onChange func(path string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	targets := make(map[string]bool)
	watchedDirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		targets[abs] = true

		dir := filepath.Dir(abs)
		if !watchedDirs[dir] {
			if err := watcher.Add(dir); err != nil {
				return fmt.Errorf("failed to watch %s: %w", dir, err)
			}
			watchedDirs[dir] = true
		}
	}

	// Debounce timer for rapid file changes
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
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil || !targets[abs] {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			name := event.Name
			debounceTimer = time.AfterFunc(WatchDebounceDelay, func() {
				if ctx.Err() == nil {
					onChange(name)
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Warn("File watcher error")
		}
	}
}
