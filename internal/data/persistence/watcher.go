package persistence

import (
	"fmt"

	"github.com/fsnotify/fsnotify"

	"github.com/penwyp/go-pointer-monitor/internal/util"
)

// Change reports a modification of a stored key made outside this process or by it.
type Change struct {
	Key string
	Op  string
}

// Watcher follows the key files of a FileBackend directory.
type Watcher struct {
	watcher *fsnotify.Watcher
	backend *FileBackend
	events  chan Change
	done    chan struct{}
}

// NewWatcher watches backend's directory. Changed keys are dropped from the
// backend's memory cache before they are reported.
func NewWatcher(backend *FileBackend) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(backend.Dir()); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", backend.Dir(), err)
	}

	w := &Watcher{
		watcher: watcher,
		backend: backend,
		events:  make(chan Change, 100),
		done:    make(chan struct{}),
	}
	go w.processEvents()
	return w, nil
}

func (w *Watcher) processEvents() {
	defer close(w.events)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			key, ok := keyFromPath(event.Name)
			if !ok || event.Op == fsnotify.Chmod {
				continue
			}
			w.backend.Invalidate(key)

			select {
			case w.events <- Change{Key: key, Op: event.Op.String()}:
			case <-w.done:
				return
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// Log error but continue running
			util.LogError("Storage watch error: " + err.Error())

		case <-w.done:
			return
		}
	}
}

// Events returns the change stream. It is closed after Close.
func (w *Watcher) Events() <-chan Change {
	return w.events
}

func (w *Watcher) Close() error {
	select {
	case <-w.done:
		return nil
	default:
	}
	close(w.done)
	return w.watcher.Close()
}
