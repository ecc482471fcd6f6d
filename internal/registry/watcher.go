package registry

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce is how long the file must stay quiet before a reload.
// Editors and atomic-save tools emit bursts of events per save; reloading
// mid-burst can read a half-written roster.
const reloadDebounce = 100 * time.Millisecond

// watcher reloads the roster when the file changes on disk. Watching the
// parent directory catches editors that replace the file on save.
type watcher struct {
	fs   *fsnotify.Watcher
	done chan struct{}
}

// Watch starts reloading the roster on file changes. onReload, if set, is
// called after every reload attempt with its result. Watch failure is not
// fatal; the registry simply stays static until the next explicit Reload.
func (r *Registry) Watch(onReload func(error)) error {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fs.Add(filepath.Dir(r.path)); err != nil {
		fs.Close()
		return err
	}

	w := &watcher{fs: fs, done: make(chan struct{})}
	r.mu.Lock()
	if r.watcher != nil {
		r.mu.Unlock()
		fs.Close()
		return nil
	}
	r.watcher = w
	r.mu.Unlock()

	go r.watchLoop(w, onReload)
	return nil
}

// Close stops the file watcher, if one is running.
func (r *Registry) Close() error {
	r.mu.Lock()
	w := r.watcher
	r.watcher = nil
	r.mu.Unlock()

	if w == nil {
		return nil
	}
	close(w.done)
	return w.fs.Close()
}

func (r *Registry) watchLoop(w *watcher, onReload func(error)) {
	target := filepath.Base(r.path)
	var pending *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-w.done:
			if pending != nil {
				pending.Stop()
			}
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if pending == nil {
				pending = time.NewTimer(reloadDebounce)
				fire = pending.C
			} else {
				if !pending.Stop() {
					select {
					case <-fire:
					default:
					}
				}
				pending.Reset(reloadDebounce)
			}
		case <-fire:
			pending = nil
			fire = nil
			err := r.Reload()
			if onReload != nil {
				onReload(err)
			}
		case <-w.fs.Errors:
			// Keep watching.
		}
	}
}
