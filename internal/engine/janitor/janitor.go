// Package janitor prunes the cache of entries whose files no longer exist.
package janitor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"go.trai.ch/symdex/internal/core/domain"
	"go.trai.ch/symdex/internal/core/ports"
	"go.trai.ch/symdex/internal/engine/stats"
	"go.trai.ch/zerr"
)

// Janitor removes orphaned cache entries and leftovers of interrupted writes.
type Janitor struct {
	root    string
	metaDir string
	store   ports.CacheStore
	stats   *stats.Collector
	log     ports.Logger
	purged  atomic.Bool
}

// New creates a Janitor for the repository at root whose metadata lives in
// metaDir.
func New(root, metaDir string, store ports.CacheStore, collector *stats.Collector, log ports.Logger) *Janitor {
	return &Janitor{
		root:    root,
		metaDir: metaDir,
		store:   store,
		stats:   collector,
		log:     log,
	}
}

// Cleanup removes entries whose files are gone and returns how many were
// removed. Files that exist but cannot be stat'ed keep their entries.
func (j *Janitor) Cleanup(ctx context.Context) (int, error) {
	removed := 0
	for _, key := range j.store.Keys() {
		if err := ctx.Err(); err != nil {
			return removed, err
		}

		_, err := os.Stat(filepath.Join(j.root, filepath.FromSlash(key)))
		if err == nil || !errors.Is(err, fs.ErrNotExist) {
			continue
		}

		existed, err := j.store.Remove(key)
		if err != nil {
			return removed, zerr.With(zerr.Wrap(err, domain.ErrCleanupFailed.Error()), "path", key)
		}
		if existed {
			removed++
		}
	}

	if err := j.store.Flush(); err != nil {
		return removed, zerr.Wrap(err, domain.ErrCleanupFailed.Error())
	}
	return removed, nil
}

// Clear empties the store and resets every statistics counter.
func (j *Janitor) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := j.store.Clear(); err != nil {
		return zerr.Wrap(err, domain.ErrClearFailed.Error())
	}
	if j.stats != nil {
		j.stats.Reset()
	}
	return nil
}

// PurgeOnce deletes stale snapshot temp files left by interrupted writers.
// Only the first call does any work.
func (j *Janitor) PurgeOnce() int {
	if !j.purged.CompareAndSwap(false, true) {
		return 0
	}

	dir := domain.CachePath(j.metaDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}

	purged := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), domain.TempFileSuffix) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			j.log.Warn(fmt.Sprintf("cannot remove stale temp file %s: %v", e.Name(), err))
			continue
		}
		purged++
	}
	return purged
}
