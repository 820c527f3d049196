package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the env file at path whenever it is written and passes the
// new Config to fn. It watches the parent directory so editors that replace
// the file atomically are still noticed. Blocks until ctx is done.
func Watch(ctx context.Context, path string, fn func(*Config), onErr func(error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	// Editors emit bursts of events for one save.
	const debounce = 200 * time.Millisecond
	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				pending = time.After(debounce)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if onErr != nil {
				onErr(err)
			}
		case <-pending:
			pending = nil
			cfg, err := Reload(abs)
			if err != nil {
				if onErr != nil {
					onErr(err)
				}
				continue
			}
			fn(cfg)
		}
	}
}
