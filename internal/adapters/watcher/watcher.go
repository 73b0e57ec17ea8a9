// Package watcher reports changes to the files that define an environment.
package watcher

import (
	"context"
	"errors"
	"iter"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.trai.ch/envcache/internal/core/domain"
	"go.trai.ch/envcache/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Watcher = (*Watcher)(nil)

const eventChannelBuffer = 100

// Watcher implements ports.Watcher using fsnotify.
//
// fsnotify follows directories, so each file is watched through its parent
// and events are filtered down to the requested paths. A file that does not
// exist yet is reported once it is created. A watched directory reports
// changes to its direct entries. The Watcher can be started again after Stop.
type Watcher struct {
	logger ports.Logger

	mu     sync.Mutex
	fs     *fsnotify.Watcher
	events chan ports.WatchEvent
	files  map[string]struct{}
	dirs   map[string]struct{}
}

// NewWatcher creates a new file watcher.
func NewWatcher(logger ports.Logger) *Watcher {
	return &Watcher{logger: logger}
}

// Start begins watching paths until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context, paths []string) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Join(domain.ErrWatchFailed, err)
	}

	files := make(map[string]struct{}, len(paths))
	dirs := make(map[string]struct{})
	watching := make(map[string]struct{})

	for _, p := range paths {
		p = filepath.Clean(p)
		target := filepath.Dir(p)
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			dirs[p] = struct{}{}
			target = p
		} else {
			files[p] = struct{}{}
		}

		if _, ok := watching[target]; ok {
			continue
		}
		if _, err := os.Stat(target); errors.Is(err, os.ErrNotExist) {
			w.logger.Debug("not watching " + p + ": " + target + " does not exist")
			continue
		}
		if err := fsw.Add(target); err != nil {
			_ = fsw.Close()
			return zerr.With(errors.Join(domain.ErrWatchFailed, err), "path", target)
		}
		watching[target] = struct{}{}
	}

	events := make(chan ports.WatchEvent, eventChannelBuffer)

	w.mu.Lock()
	w.fs = fsw
	w.events = events
	w.files = files
	w.dirs = dirs
	w.mu.Unlock()

	go w.processEvents(ctx, fsw, events)

	return nil
}

// Stop stops the watcher and releases all resources.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	fsw := w.fs
	w.fs = nil
	w.mu.Unlock()

	if fsw == nil {
		return nil
	}
	return fsw.Close()
}

// Events returns an iterator of file events for the current run.
func (w *Watcher) Events() iter.Seq[ports.WatchEvent] {
	w.mu.Lock()
	events := w.events
	w.mu.Unlock()

	return func(yield func(ports.WatchEvent) bool) {
		if events == nil {
			return
		}
		for event := range events {
			if !yield(event) {
				return
			}
		}
	}
}

func (w *Watcher) processEvents(ctx context.Context, fsw *fsnotify.Watcher, events chan<- ports.WatchEvent) {
	defer close(events)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}

			watchEvent, ok := w.convertEvent(event)
			if !ok {
				continue
			}

			select {
			case events <- watchEvent:
			case <-ctx.Done():
				return
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher: " + err.Error())
		}
	}
}

// convertEvent keeps events for watched files and entries of watched directories.
func (w *Watcher) convertEvent(event fsnotify.Event) (ports.WatchEvent, bool) {
	path := filepath.Clean(event.Name)

	w.mu.Lock()
	_, isFile := w.files[path]
	_, inDir := w.dirs[filepath.Dir(path)]
	w.mu.Unlock()

	if !isFile && !inDir {
		return ports.WatchEvent{}, false
	}

	var op ports.WatchOp
	switch {
	case event.Has(fsnotify.Write):
		op = ports.OpWrite
	case event.Has(fsnotify.Create):
		op = ports.OpCreate
	case event.Has(fsnotify.Remove):
		op = ports.OpRemove
	case event.Has(fsnotify.Rename):
		op = ports.OpRename
	default:
		return ports.WatchEvent{}, false
	}

	return ports.WatchEvent{Path: path, Operation: op}, true
}
