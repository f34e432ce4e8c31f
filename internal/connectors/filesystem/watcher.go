package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/pdfchat/internal/logger"
	"github.com/custodia-labs/pdfchat/internal/normalisers"
)

// ChangeType classifies a library file change.
type ChangeType string

// Change types.
const (
	ChangeCreated ChangeType = "created"
	ChangeUpdated ChangeType = "updated"
	ChangeDeleted ChangeType = "deleted"
)

// Change is a create, update or delete of a supported file.
type Change struct {
	Type ChangeType
	Path string
}

// DefaultDebounce coalesces bursts of writes to one file.
const DefaultDebounce = 300 * time.Millisecond

// Watcher reports changes to supported files under a root directory,
// including subdirectories created after the watch starts.
type Watcher struct {
	root     string
	debounce time.Duration
}

// NewWatcher creates a watcher for root.
func NewWatcher(root string, debounce time.Duration) *Watcher {
	if debounce < 0 {
		debounce = 0
	}
	return &Watcher{root: root, debounce: debounce}
}

// Watch starts watching and returns a channel of changes that is closed
// when ctx is cancelled.
func (w *Watcher) Watch(ctx context.Context) (<-chan Change, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.addTree(fsw, w.root); err != nil {
		fsw.Close()
		return nil, err
	}

	out := make(chan Change, 16)
	go w.run(ctx, fsw, out)
	return out, nil
}

func (w *Watcher) run(ctx context.Context, fsw *fsnotify.Watcher, out chan<- Change) {
	defer close(out)
	defer fsw.Close()

	pending := make(map[string]Change)
	var timer *time.Timer
	var fire <-chan time.Time

	flush := func() bool {
		for path, change := range pending {
			select {
			case out <- change:
			case <-ctx.Done():
				return false
			}
			delete(pending, path)
		}
		return true
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			change, ok := w.handleFsEvent(fsw, event)
			if !ok {
				continue
			}
			if w.debounce == 0 {
				pending[change.Path] = change
				if !flush() {
					return
				}
				continue
			}
			if prev, seen := pending[change.Path]; seen && prev.Type == ChangeCreated && change.Type == ChangeUpdated {
				change.Type = ChangeCreated
			}
			pending[change.Path] = change
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			if !flush() {
				return
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("watch %s: %v", w.root, err)
		}
	}
}

// handleFsEvent maps a raw fsnotify event to a library change.
func (w *Watcher) handleFsEvent(fsw *fsnotify.Watcher, event fsnotify.Event) (Change, bool) {
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil || isHidden(rel) {
		return Change{}, false
	}

	switch {
	case event.Has(fsnotify.Create):
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(fsw, event.Name); err != nil {
				logger.Warn("watch new directory %s: %v", event.Name, err)
			}
			return Change{}, false
		}
		if !normalisers.SupportedExtension(event.Name) {
			return Change{}, false
		}
		return Change{Type: ChangeCreated, Path: event.Name}, true

	case event.Has(fsnotify.Write):
		if !normalisers.SupportedExtension(event.Name) {
			return Change{}, false
		}
		return Change{Type: ChangeUpdated, Path: event.Name}, true

	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		if !normalisers.SupportedExtension(event.Name) {
			return Change{}, false
		}
		return Change{Type: ChangeDeleted, Path: event.Name}, true

	default:
		return Change{}, false
	}
}

// addTree adds dir and its non-hidden subdirectories to the watcher.
func (w *Watcher) addTree(fsw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if rel, _ := filepath.Rel(w.root, path); isHidden(rel) {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}
