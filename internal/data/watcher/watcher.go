package watcher

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/d1j/facebook-stats/internal/util"
)

// FileEvent is a change to an archive fragment.
type FileEvent struct {
	Path      string
	Operation string
}

// FileWatcher reports changes to .json fragments in the watched directories.
type FileWatcher struct {
	watcher *fsnotify.Watcher
	events  chan FileEvent
	done    chan struct{}
}

// NewFileWatcher watches each directory in paths. Like the scanner, it does
// not descend into subdirectories.
func NewFileWatcher(paths []string) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	fw := &FileWatcher{
		watcher: watcher,
		events:  make(chan FileEvent, 100),
		done:    make(chan struct{}),
	}

	for _, path := range paths {
		if err := watcher.Add(path); err != nil {
			watcher.Close()
			return nil, err
		}
	}

	go fw.processEvents()

	return fw, nil
}

func (fw *FileWatcher) processEvents() {
	defer close(fw.events)

	for {
		select {
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if event.Op == fsnotify.Chmod {
				continue
			}
			if !strings.EqualFold(filepath.Ext(event.Name), ".json") {
				continue
			}

			select {
			case fw.events <- FileEvent{Path: event.Name, Operation: event.Op.String()}:
			case <-fw.done:
				return
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			util.LogErrorf("File monitoring error: %v", err)

		case <-fw.done:
			return
		}
	}
}

func (fw *FileWatcher) Events() <-chan FileEvent {
	return fw.events
}

func (fw *FileWatcher) Close() error {
	close(fw.done)
	return fw.watcher.Close()
}

// Debounce coalesces bursts of events into one signal sent after quiet has
// elapsed without a further event. Exports are written file by file, so a
// single re-run per burst is enough.
func Debounce(ctx context.Context, events <-chan FileEvent, quiet time.Duration) <-chan []FileEvent {
	out := make(chan []FileEvent)

	go func() {
		defer close(out)

		var pending []FileEvent
		timer := time.NewTimer(quiet)
		timer.Stop()

		for {
			select {
			case <-ctx.Done():
				timer.Stop()
				return

			case event, ok := <-events:
				if !ok {
					if len(pending) > 0 {
						select {
						case out <- pending:
						case <-ctx.Done():
						}
					}
					return
				}
				pending = append(pending, event)
				timer.Reset(quiet)

			case <-timer.C:
				if len(pending) == 0 {
					continue
				}
				select {
				case out <- pending:
				case <-ctx.Done():
					return
				}
				pending = nil
			}
		}
	}()

	return out
}
