package rules

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jonesrussell/north-cloud/parse-rules/internal/logger"
)

// DefaultDebounce is used when a Watcher is created with a zero interval.
const DefaultDebounce = 250 * time.Millisecond

// Watcher triggers a reload when files next to the rule source change. The
// directory is watched rather than the file so editors that replace files by
// rename are still seen. Bursts of events collapse into one reload.
//
// fsnotify does not recurse, so query directories below the rule directory are
// added through Track.
type Watcher struct {
	fs       *fsnotify.Watcher
	dir      string
	debounce time.Duration
	reload   func() error
	log      logger.Logger

	mu      sync.Mutex
	watched map[string]struct{}
}

// NewWatcher watches the directory holding the rule source at path.
func NewWatcher(path string, debounce time.Duration, reload func() error, log logger.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if log == nil {
		log = logger.NewNop()
	}

	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("resolve rules directory: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if addErr := fsw.Add(dir); addErr != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, addErr)
	}

	return &Watcher{
		fs:       fsw,
		dir:      dir,
		debounce: debounce,
		reload:   reload,
		log:      log,
		watched:  map[string]struct{}{dir: {}},
	}, nil
}

// Track watches every directory holding a query source of idx. Directories
// already watched are skipped; a directory that cannot be watched is logged
// and the rest are still added.
func (w *Watcher) Track(idx *Index) {
	idx.Each(func(_ int, r *Rule) {
		dir, err := filepath.Abs(filepath.Dir(r.QueryPath()))
		if err != nil {
			return
		}

		w.mu.Lock()
		defer w.mu.Unlock()
		if _, ok := w.watched[dir]; ok {
			return
		}
		if addErr := w.fs.Add(dir); addErr != nil {
			w.log.Warn("Cannot watch query directory",
				logger.String("dir", dir),
				logger.Error(addErr),
			)
			return
		}
		w.watched[dir] = struct{}{}
		w.log.Debug("Watching query directory", logger.String("dir", dir))
	})
}

// Run processes events until ctx is cancelled. It closes the underlying watcher on return.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.fs.Close() }()

	w.log.Info("Watching rules directory",
		logger.String("dir", w.dir),
		logger.Duration("debounce", w.debounce),
	)

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}
			if !relevant(event) {
				continue
			}
			w.log.Debug("Rules directory changed",
				logger.String("path", event.Name),
				logger.String("op", event.Op.String()),
			)
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			// Reload logs its own failures.
			_ = w.reload()

		case err, ok := <-w.fs.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			w.log.Error("Rules watcher error", logger.Error(err))
		}
	}
}

// relevant drops chmod-only events and editor scratch files.
func relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	base := filepath.Base(event.Name)
	return !strings.HasPrefix(base, ".") && !strings.HasSuffix(base, "~") && !strings.HasSuffix(base, ".swp")
}
