// Package cas implements the default cache store, a JSON snapshot of all
// cache entries kept in memory and rewritten atomically on flush.
package cas

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/symdex/internal/core/domain"
	"go.trai.ch/symdex/internal/core/ports"
	"go.trai.ch/zerr"
)

// SchemaVersion is the version of the snapshot layout written by this package.
const SchemaVersion = 1

var _ ports.CacheStore = (*Store)(nil)

// snapshot is the on-disk envelope. Checksum covers the raw Entries payload.
type snapshot struct {
	Version  int             `json:"version"`
	Checksum string          `json:"checksum"`
	Entries  json.RawMessage `json:"entries"`
}

// Store implements ports.CacheStore backed by a single JSON snapshot file.
type Store struct {
	mu      sync.RWMutex
	path    string
	entries map[string]domain.CacheEntry
	dirty   bool
}

// NewStore opens the snapshot at path. A missing snapshot yields an empty store.
// A corrupt snapshot also yields an empty store; the corruption is reported
// through the logger and the file is overwritten on the next flush.
func NewStore(path string, log ports.Logger) *Store {
	s := &Store{
		path:    path,
		entries: make(map[string]domain.CacheEntry),
	}

	entries, err := load(path)
	if err != nil {
		log.Warn(fmt.Sprintf("%s, starting with an empty cache: %v", domain.ErrStoreCorrupt, err))
		s.dirty = true
		return s
	}
	if entries != nil {
		s.entries = entries
	}

	return s
}

func load(path string) (map[string]domain.CacheEntry, error) {
	//nolint:gosec // Path is derived from the configured metadata directory
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreReadFailed.Error()), "path", path)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to decode snapshot"), "path", path)
	}

	if snap.Version != SchemaVersion {
		return nil, zerr.With(zerr.New("unsupported snapshot version"), "version", snap.Version)
	}

	if checksum(snap.Entries) != snap.Checksum {
		return nil, zerr.With(zerr.New("snapshot checksum mismatch"), "path", path)
	}

	entries := make(map[string]domain.CacheEntry)
	if err := json.Unmarshal(snap.Entries, &entries); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to decode snapshot entries"), "path", path)
	}

	return entries, nil
}

func checksum(payload []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(payload))
}

// Get retrieves a copy of the entry for path.
func (s *Store) Get(path string) (*domain.CacheEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[path]
	if !ok {
		return nil, false
	}

	clone := entry.Clone()
	return &clone, true
}

// Put replaces the entry for path.
func (s *Store) Put(path string, entry domain.CacheEntry) error {
	entry = entry.Clone()
	entry.Path = path

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[path] = entry
	s.dirty = true
	return nil
}

// Remove deletes the entry for path.
func (s *Store) Remove(path string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[path]; !ok {
		return false, nil
	}

	delete(s.entries, path)
	s.dirty = true
	return true, nil
}

// Clear drops every entry and deletes the snapshot file.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]domain.CacheEntry)
	s.dirty = false

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return zerr.With(zerr.Wrap(err, domain.ErrClearFailed.Error()), "path", s.path)
	}
	return nil
}

// Keys returns the sorted paths of all entries.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Sorted(maps.Keys(s.entries))
}

// SizeBytes returns the size of the snapshot file, or 0 if none was written.
func (s *Store) SizeBytes() int64 {
	info, err := os.Stat(s.path)
	if err != nil {
		return 0
	}
	return info.Size()
}

// Flush rewrites the snapshot if there are pending changes.
// The snapshot is written to a temporary file and renamed into place.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return nil
	}

	payload, err := json.Marshal(s.entries)
	if err != nil {
		return zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
	}

	data, err := json.Marshal(snapshot{
		Version:  SchemaVersion,
		Checksum: checksum(payload),
		Entries:  payload,
	})
	if err != nil {
		return zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
	}

	if err := writeAtomic(s.path, data); err != nil {
		return err
	}

	s.dirty = false
	return nil
}

// Close flushes pending changes.
func (s *Store) Close() error {
	return s.Flush()
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "path", dir)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*"+domain.TempFileSuffix)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "path", dir)
	}
	tmpName := tmp.Name()

	cleanup := func(cause error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return zerr.With(zerr.Wrap(cause, domain.ErrStoreWriteFailed.Error()), "path", path)
	}

	if _, err := tmp.Write(data); err != nil {
		return cleanup(err)
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(err)
	}
	if err := tmp.Chmod(domain.FilePerm); err != nil {
		return cleanup(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "path", path)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "path", path)
	}

	return nil
}
