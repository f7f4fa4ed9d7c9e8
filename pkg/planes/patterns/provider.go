package patterns

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Provider publishes the current pattern Set behind an atomic pointer.
// Planes call Current on every evaluation, so a reload takes effect on the
// next evaluation without tearing one in flight.
type Provider struct {
	cur    atomic.Pointer[Set]
	logger *slog.Logger

	mu       sync.Mutex
	watching bool
}

// NewProvider creates a provider serving set. A nil set serves the built-in
// tables.
func NewProvider(set *Set) *Provider {
	if set == nil {
		set = DefaultSet()
	}
	p := &Provider{
		logger: slog.Default().With("component", "patterns.provider"),
	}
	p.cur.Store(set)
	return p
}

// Current returns the currently published pattern set.
func (p *Provider) Current() *Set {
	return p.cur.Load()
}

// Swap publishes a new pattern set.
func (p *Provider) Swap(set *Set) {
	if set == nil {
		return
	}
	p.cur.Store(set)
}

// Watch reloads the pattern pack at path whenever the file changes on disk,
// debouncing rapid event bursts. It blocks until ctx is cancelled. A reload
// failure keeps the previously published set and logs the error; the
// watcher keeps running.
func (p *Provider) Watch(ctx context.Context, path string, debounce time.Duration) error {
	p.mu.Lock()
	if p.watching {
		p.mu.Unlock()
		return fmt.Errorf("pattern watcher already running")
	}
	p.watching = true
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.watching = false
		p.mu.Unlock()
	}()

	if debounce <= 0 {
		debounce = 100 * time.Millisecond
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory rather than the file: editors and atomic
	// renames replace the inode, which silently detaches file watches.
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %q: %w", dir, err)
	}

	p.logger.Info("pattern pack watcher started",
		"path", path,
		"debounce_ms", debounce.Milliseconds(),
	)

	var timer *time.Timer
	var timerC <-chan time.Time

	reload := func() {
		set, err := Load(path)
		if err != nil {
			p.logger.Error("pattern pack reload failed, keeping previous set",
				"path", path,
				"error", err,
			)
			return
		}
		p.Swap(set)
		p.logger.Info("pattern pack reloaded",
			"path", path,
			"intent_categories", len(set.Intent),
			"pii_detectors", len(set.PII),
		)
	}

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pattern pack watcher stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			// Debounce: restart the quiet-period timer on every event.
			if timer == nil {
				timer = time.NewTimer(debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(debounce)
			}

		case <-timerC:
			timerC = nil
			timer = nil
			reload()

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			p.logger.Error("pattern pack watcher error", "error", err)
		}
	}
}
