package storage

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reports changes to any of keys made by another process sharing the
// data directory. Writes made through s itself are skipped. onChange runs on
// the watcher goroutine.
//
// Watch needs s to sit on the real filesystem.
func (s *FileStore) Watch(ctx context.Context, onChange func(key string), keys ...string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file system watcher: %w", err)
	}
	if err := watcher.Add(s.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", s.dir, err)
	}

	byFile := make(map[string]string, len(keys))
	for _, key := range keys {
		byFile[FileName(key)] = key
	}

	go func() {
		defer func() {
			watcher.Close()
			s.logger.Debug("Storage watcher stopped")
		}()

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				// Set finishes with a rename onto the target name.
				if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
					continue
				}
				key, ok := byFile[filepath.Base(event.Name)]
				if !ok {
					continue
				}
				if s.ownWrite(key) {
					s.logger.Debug("Skipping own write", "key", key, "op", event.Op.String())
					continue
				}
				s.logger.Debug("Storage key changed", "key", key, "op", event.Op.String())
				onChange(key)

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Error("Storage watcher error", "error", err)
			}
		}
	}()

	return nil
}
