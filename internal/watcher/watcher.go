package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"softlink/internal/logger"
	"softlink/internal/model"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher turns fsnotify notifications for a set of source directories into
// model.ChangeEvent values.
type Watcher struct {
	fw        *fsnotify.Watcher
	recursive bool
	eventCh   chan model.ChangeEvent
	doneCh    chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
}

func New(bufferSize int, recursive bool) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	return &Watcher{
		fw:        fw,
		recursive: recursive,
		eventCh:   make(chan model.ChangeEvent, bufferSize),
		doneCh:    make(chan struct{}),
	}, nil
}

// Watch registers dir. The delivery loop starts with the first call.
func (w *Watcher) Watch(dir string) error {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	info, err := os.Stat(absDir)
	if err != nil {
		return fmt.Errorf("source directory not found: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("source %s is not a directory", absDir)
	}

	if w.recursive {
		err = w.addRecursive(absDir)
	} else {
		err = w.fw.Add(absDir)
	}
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", absDir, err)
	}

	w.startOnce.Do(func() { go w.run() })

	logger.Log.Info("watcher started",
		zap.String("dir", absDir),
		zap.Bool("recursive", w.recursive))
	return nil
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if err := w.fw.Add(path); err != nil {
				return fmt.Errorf("failed to watch %s: %w", path, err)
			}
			logger.Log.Debug("watching directory",
				zap.String("path", path))
		}

		return nil
	})
}

func (w *Watcher) run() {
	defer close(w.eventCh)

	for {
		select {
		case <-w.doneCh:
			logger.Log.Info("watcher stopping")
			return

		case fsEvent, ok := <-w.fw.Events:
			if !ok {
				return
			}

			kind := toEventKind(fsEvent.Op)
			if kind == "" {
				continue
			}

			if w.recursive && fsEvent.Op.Has(fsnotify.Create) {
				w.watchNewDir(fsEvent.Name)
			}

			event := model.ChangeEvent{
				Kind:      kind,
				Path:      fsEvent.Name,
				Timestamp: time.Now(),
			}

			select {
			case w.eventCh <- event:
			case <-w.doneCh:
				return
			default:
				// buffered events already owe a pass
				logger.Log.Warn("event channel is full, dropping event",
					zap.String("path", fsEvent.Name))
			}

		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}

			logger.Log.Error("watcher error",
				zap.Error(err))
		}
	}
}

func (w *Watcher) watchNewDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}

	if err := w.addRecursive(path); err != nil {
		logger.Log.Warn("failed to watch new directory",
			zap.String("path", path),
			zap.Error(err))
		return
	}

	logger.Log.Debug("added new directory to watch",
		zap.String("path", path))
}

func (w *Watcher) Events() <-chan model.ChangeEvent {
	return w.eventCh
}

func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.doneCh)
		_ = w.fw.Close()
	})
}

func toEventKind(op fsnotify.Op) model.EventKind {
	switch {
	case op.Has(fsnotify.Create):
		return model.EventCreated
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		return model.EventDeleted
	case op.Has(fsnotify.Write), op.Has(fsnotify.Chmod):
		return model.EventModified
	default:
		return ""
	}
}
