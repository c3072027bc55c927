package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dusk-indust/spectrace/internal/config"
	"github.com/fsnotify/fsnotify"
	"github.com/phuslu/log"
)

const watchDebounce = 300 * time.Millisecond

// watchedExts are the extensions of files that can change a measurement:
// requirement documents, reports, test files and configuration.
var watchedExts = map[string]bool{
	".md": true, ".json": true, ".yaml": true, ".yml": true, ".toml": true,
	".ts": true, ".tsx": true, ".js": true, ".jsx": true, ".mjs": true, ".cjs": true,
}

var skippedDirs = map[string]bool{".git": true, "node_modules": true, "vendor": true}

// watcher calls a function once file changes under a directory tree settle.
type watcher struct {
	fsw      *fsnotify.Watcher
	ignore   map[string]bool
	debounce time.Duration
	logger   *log.Logger
}

func newWatcher(roots []string, ignore []string, debounce time.Duration, logger *log.Logger) (*watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	w := &watcher{
		fsw:      fsw,
		ignore:   make(map[string]bool, len(ignore)),
		debounce: debounce,
		logger:   logger,
	}
	for _, p := range ignore {
		if abs, err := filepath.Abs(p); err == nil {
			w.ignore[abs] = true
		}
	}
	for _, root := range roots {
		if err := w.addRecursive(root); err != nil {
			fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

func (w *watcher) Close() error {
	return w.fsw.Close()
}

func (w *watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		base := d.Name()
		if path != root && (skippedDirs[base] || strings.HasPrefix(base, ".")) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			w.logger.Warn().Err(err).Str("path", path).Msg("failed to watch directory")
		}
		return nil
	})
}

// relevant reports whether a change to path should trigger a run.
func (w *watcher) relevant(path string) bool {
	if !watchedExts[strings.ToLower(filepath.Ext(path))] {
		return false
	}
	if abs, err := filepath.Abs(path); err == nil && w.ignore[abs] {
		return false
	}
	return true
}

// run blocks until ctx is cancelled, calling fn after each burst of
// relevant changes.
func (w *watcher) run(ctx context.Context, fn func()) error {
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

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := w.addRecursive(ev.Name); err != nil {
						w.logger.Warn().Err(err).Str("path", ev.Name).Msg("failed to watch new directory")
					}
					continue
				}
			}
			if !w.relevant(ev.Name) {
				continue
			}
			w.logger.Debug().Str("path", ev.Name).Str("op", ev.Op.String()).Msg("change detected")
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(err).Msg("watcher error")

		case <-fire:
			fire = nil
			fn()
		}
	}
}

// watch re-runs fn on changes under the configuration's base directory and
// the directory holding the configuration file. ignore lists files spectrace
// writes itself.
func watch(ctx context.Context, cfg *config.Config, ignore []string, logger *log.Logger, fn func()) error {
	roots := []string{cfg.BaseDir}
	if cfg.Path != "" {
		if dir := filepath.Dir(cfg.Path); !within(cfg.BaseDir, dir) {
			roots = append(roots, dir)
		}
	}

	w, err := newWatcher(roots, ignore, watchDebounce, logger)
	if err != nil {
		return err
	}
	defer w.Close()

	logger.Info().Strs("dirs", roots).Msg("watching for changes, press Ctrl-C to stop")
	return w.run(ctx, fn)
}

// within reports whether path is dir or below it.
func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
