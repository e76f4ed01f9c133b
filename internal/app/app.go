// Package app implements the application layer for symdex.
package app

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"go.trai.ch/symdex/internal/adapters/fs" //nolint:depguard // Wired in app layer
	"go.trai.ch/symdex/internal/core/domain"
	"go.trai.ch/symdex/internal/core/ports"
	"go.trai.ch/symdex/internal/engine/orchestrator"
	"go.trai.ch/zerr"
)

// App is the entry point for extraction, statistics and cache maintenance.
// It owns the workspace of one repository, opened on first use.
type App struct {
	configLoader ports.ConfigLoader
	logger       ports.Logger
	extractor    ports.Extractor
	walker       *fs.Walker
	watcher      ports.Watcher
	tracer       ports.Tracer
	workDir      string

	mu sync.Mutex
	ws *workspace
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	log ports.Logger,
	extractor ports.Extractor,
	walker *fs.Walker,
	watcher ports.Watcher,
	tracer ports.Tracer,
) *App {
	return &App{
		configLoader: loader,
		logger:       log,
		extractor:    extractor,
		walker:       walker,
		watcher:      watcher,
		tracer:       tracer,
		workDir:      ".",
	}
}

// WithWorkingDir sets the directory the configuration is discovered from and
// relative scopes are resolved against.
func (a *App) WithWorkingDir(dir string) *App {
	a.workDir = dir
	return a
}

// ExtractOptions configures ExtractSymbolsIncremental.
type ExtractOptions struct {
	// VerifyHash compares content hashes even when file signals match.
	VerifyHash bool
}

// ExtractSymbolsIncremental returns the symbols of every analyzable file in
// scope, reusing cached results for unchanged files. An empty scope means the
// whole repository; relative scopes are resolved against the working
// directory.
func (a *App) ExtractSymbolsIncremental(ctx context.Context, scope string, opts ExtractOptions) (*domain.RunResult, error) {
	ws, err := a.workspace()
	if err != nil {
		return nil, err
	}

	s, err := a.resolveScope(ws.cfg.Root, scope)
	if err != nil {
		return nil, err
	}

	a.purgeOnce(ws)
	return ws.orch.Run(ctx, s, orchestrator.RunOptions{VerifyHash: opts.VerifyHash})
}

// GetIncrementalStats reports the statistics collected by this process and
// the current cache size.
func (a *App) GetIncrementalStats() domain.IncrementalStats {
	ws, err := a.workspace()
	if err != nil {
		a.logger.Error(err)
		return domain.IncrementalStats{}
	}
	return domain.NewIncrementalStats(ws.stats.Snapshot())
}

// CleanupIncrementalCache removes cache entries of deleted files and returns
// how many were removed.
func (a *App) CleanupIncrementalCache(ctx context.Context) (int, error) {
	ws, err := a.workspace()
	if err != nil {
		return 0, err
	}
	a.purgeOnce(ws)
	return ws.janitor.Cleanup(ctx)
}

// ClearIncrementalCache removes every cache entry and resets statistics.
func (a *App) ClearIncrementalCache(ctx context.Context) error {
	ws, err := a.workspace()
	if err != nil {
		return err
	}
	return ws.janitor.Clear(ctx)
}

// Close persists and releases the workspace, if one was opened.
func (a *App) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.ws == nil {
		return nil
	}
	err := a.ws.close()
	a.ws = nil
	return err
}

func (a *App) resolveScope(root, scope string) (domain.Scope, error) {
	if scope == "" {
		return domain.WholeRepository(), nil
	}

	target := scope
	if !filepath.IsAbs(target) {
		base, err := filepath.Abs(a.workDir)
		if err != nil {
			return domain.Scope{}, zerr.With(zerr.Wrap(err, domain.ErrScopeResolveFailed.Error()), "scope", scope)
		}
		target = filepath.Join(base, target)
	}

	rel, err := fs.RelativePath(root, target)
	if err != nil {
		return domain.Scope{}, err
	}
	return domain.Scope{Path: rel}, nil
}

func (a *App) purgeOnce(ws *workspace) {
	if n := ws.janitor.PurgeOnce(); n > 0 {
		a.logger.Info(fmt.Sprintf("removed %d stale cache temp files", n))
	}
}
