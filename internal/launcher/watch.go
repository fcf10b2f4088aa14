package launcher

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/elpatron68/side-launcher/internal/task"
	"github.com/elpatron68/side-launcher/internal/task/sources"
)

// DebounceDelay coalesces bursts of change events into one resolution.
const DebounceDelay = 300 * time.Millisecond

// WatchPaths lists every file a resolution reads.
func (e *Engine) WatchPaths() []string {
	return sources.Paths(e.Sources(), e.cfg.Sources.WorkspaceSettingsFile, e.cfg.UserSettingsPath())
}

// Watch re-resolves whenever a source file changes and passes the result to
// onChange. Parent directories are watched so files created or replaced
// later are noticed. It blocks until ctx is done.
func (e *Engine) Watch(ctx context.Context, onChange func(task.Resolution)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	files := make(map[string]struct{})
	dirs := make(map[string]struct{})
	e.track(w, files, dirs)
	e.logger.Info("watching %d director(ies) for task changes", len(dirs))

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if _, tracked := files[filepath.Clean(event.Name)]; !tracked {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			e.logger.Debug("change: %s", event)
			// The folder list may have changed with the workspace file.
			e.track(w, files, dirs)
			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(DebounceDelay, func() {
				if ctx.Err() != nil {
					return
				}
				onChange(e.Resolve(ctx))
			})
			mu.Unlock()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			e.logger.Warn("watcher error: %v", err)
		}
	}
}

// track adds the current source files to files and starts watching any
// parent directory not yet in dirs. Paths of removed folders stay tracked.
func (e *Engine) track(w *fsnotify.Watcher, files, dirs map[string]struct{}) {
	for _, p := range e.WatchPaths() {
		p = filepath.Clean(p)
		files[p] = struct{}{}
		dir := filepath.Dir(p)
		if _, ok := dirs[dir]; ok {
			continue
		}
		if err := w.Add(dir); err != nil {
			e.logger.Debug("watch %s: %v", dir, err)
			continue
		}
		dirs[dir] = struct{}{}
	}
}
