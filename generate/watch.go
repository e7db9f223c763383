package generate

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 300 * time.Millisecond

// Watch generates once, then regenerates whenever inPath changes until ctx
// is cancelled. The parent directory is watched so that editors that save
// by rename are picked up. Failed runs are logged and do not stop the watch.
// onRun, if non-nil, is called after every run.
func (g *Generator) Watch(ctx context.Context, inPath, outPath string, debounce time.Duration, onRun func(*Report, error)) error {
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	absIn, err := filepath.Abs(inPath)
	if err != nil {
		return fmt.Errorf("resolve input path: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(filepath.Dir(absIn)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(absIn), err)
	}

	regenerate := func() {
		report, err := g.Run(ctx, inPath, outPath)
		if err != nil && ctx.Err() == nil {
			g.logger.Error("Regeneration failed",
				slog.String("input", inPath),
				slog.String("error", err.Error()))
		}
		if onRun != nil {
			onRun(report, err)
		}
	}

	g.logger.Info("Watching mapping",
		slog.String("input", absIn),
		slog.Duration("debounce", debounce))
	regenerate()

	ticker := time.NewTicker(debounce)
	defer ticker.Stop()

	pending := false
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != absIn {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				g.logger.Debug("Mapping change detected", slog.String("op", event.Op.String()))
				pending = true
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			g.logger.Error("Watcher error", slog.String("error", err.Error()))

		case <-ticker.C:
			if pending {
				pending = false
				regenerate()
			}
		}
	}
}
