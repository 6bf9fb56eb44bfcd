package knowledge

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/0xcro3dile/faqbot-go/internal/domain/ports"
)

// Watcher implements ports.FileWatcher for a single file using fsnotify.
// It watches the parent directory so editors that replace the file
// (write to temp, rename over) keep producing events.
type Watcher struct {
	watcher *fsnotify.Watcher
	logger  *zap.Logger
}

// NewWatcher creates a new file watcher.
func NewWatcher(logger *zap.Logger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{watcher: w, logger: logger}, nil
}

// Watch starts monitoring path and emits events for it only.
func (w *Watcher) Watch(ctx context.Context, path string) (<-chan ports.FileEvent, error) {
	target, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if err := w.watcher.Add(filepath.Dir(target)); err != nil {
		return nil, err
	}

	events := make(chan ports.FileEvent, 16)

	go func() {
		defer close(events)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if name, err := filepath.Abs(event.Name); err != nil || name != target {
					continue
				}

				op, ok := operation(event.Op)
				if !ok {
					continue
				}

				select {
				case events <- ports.FileEvent{Path: path, Operation: op, At: time.Now()}:
				case <-ctx.Done():
					return
				}
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.logger.Warn("file watcher error", zap.String("path", path), zap.Error(err))
			}
		}
	}()

	return events, nil
}

// Stop stops the watcher and closes the event stream.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

func operation(op fsnotify.Op) (ports.FileOperation, bool) {
	switch {
	case op.Has(fsnotify.Create):
		return ports.FileCreated, true
	case op.Has(fsnotify.Write):
		return ports.FileModified, true
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		return ports.FileDeleted, true
	default:
		return 0, false
	}
}
