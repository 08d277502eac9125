package pipeline

import (
	"path/filepath"
	"strings"

	"softlink/internal/logger"
	"softlink/internal/model"

	"go.uber.org/zap"
)

// Filter passes on membership changes only. Modified events and paths with
// a component matching ignoreList are dropped.
func Filter(inCh <-chan model.ChangeEvent, ignoreList []string) <-chan model.ChangeEvent {
	outCh := make(chan model.ChangeEvent, cap(inCh))

	go func() {
		defer close(outCh)

		for event := range inCh {
			if !event.Membership() {
				continue
			}
			if shouldIgnore(event.Path, ignoreList) {
				logger.Log.Debug("ignoring event",
					zap.String("kind", string(event.Kind)),
					zap.String("path", event.Path))
				continue
			}
			outCh <- event
		}
	}()

	return outCh
}

func shouldIgnore(path string, ignoreList []string) bool {
	parts := strings.Split(filepath.ToSlash(path), "/")

	for _, part := range parts {
		for _, pattern := range ignoreList {
			matched, err := filepath.Match(pattern, part)
			if err == nil && matched {
				return true
			}
		}
	}

	return false
}
