package app

import (
	"context"
	"errors"
	iofs "io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.trai.ch/symdex/internal/adapters/watcher" //nolint:depguard // Wired in app layer
	"go.trai.ch/symdex/internal/core/domain"
	"go.trai.ch/symdex/internal/core/ports"
	"go.trai.ch/symdex/internal/engine/orchestrator"
	"go.trai.ch/zerr"
)

// CycleFunc receives the outcome of every watch cycle.
type CycleFunc func(res *domain.RunResult, err error)

// Watch extracts the whole repository, then re-extracts whenever analyzable
// files change. Deleted files are pruned from the cache before the cycle that
// follows their removal. Watch returns when ctx is done or the watcher stops.
func (a *App) Watch(ctx context.Context, onCycle CycleFunc) error {
	ws, err := a.workspace()
	if err != nil {
		return err
	}

	if err := a.watcher.Start(ctx, ws.cfg.Root); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrWatchFailed.Error()), "root", ws.cfg.Root)
	}
	defer func() { _ = a.watcher.Stop() }()

	a.purgeOnce(ws)

	var cycleMu sync.Mutex
	cycle := func(paths []string) {
		cycleMu.Lock()
		defer cycleMu.Unlock()

		if ctx.Err() != nil {
			return
		}
		if anyMissing(paths) {
			if _, err := ws.janitor.Cleanup(ctx); err != nil {
				a.logger.Warn(err.Error())
			}
		}
		res, err := ws.orch.Run(ctx, domain.WholeRepository(), orchestrator.RunOptions{})
		if ctx.Err() != nil {
			return
		}
		onCycle(res, err)
	}

	cycle(nil)

	debouncer := watcher.NewDebouncer(ws.cfg.WatchDebounce, cycle)
	for event := range a.watcher.Events() {
		if a.relevant(ws.cfg, event) {
			debouncer.Add(event.Path)
		}
	}

	if ctx.Err() == nil {
		debouncer.Flush()
	}

	// Wait for a batch the debouncer may have started on its own.
	cycleMu.Lock()
	defer cycleMu.Unlock()
	return nil
}

// relevant reports whether an event can change the extraction result.
func (a *App) relevant(cfg *domain.Config, event ports.WatchEvent) bool {
	rel, err := filepath.Rel(cfg.Root, event.Path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	if inside(cfg.MetaDir, event.Path) {
		return false
	}
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		for _, pattern := range cfg.Ignore {
			if ok, _ := filepath.Match(pattern, part); ok {
				return false
			}
		}
	}

	if event.Operation.Removes() {
		return true
	}
	switch event.Operation {
	case ports.OpCreate:
		if info, err := os.Stat(event.Path); err == nil && info.IsDir() {
			return true
		}
		return a.extractor.Supports(filepath.ToSlash(rel))
	case ports.OpWrite:
		return a.extractor.Supports(filepath.ToSlash(rel))
	default:
		return false
	}
}

func inside(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func anyMissing(paths []string) bool {
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, iofs.ErrNotExist) {
			return true
		}
	}
	return false
}
