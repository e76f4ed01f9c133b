// Package badger implements ports.CacheStore on an embedded BadgerDB database.
//
// Each cache entry is stored under its own key, so writes are durable as soon
// as Put returns and a crash never loses more than the entry being written.
package badger

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"go.trai.ch/symdex/internal/core/domain"
	"go.trai.ch/symdex/internal/core/ports"
	"go.trai.ch/zerr"
)

const keyPrefix = "entry/"

var _ ports.CacheStore = (*Store)(nil)

// Options configures how the database is opened.
type Options struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path string
	// InMemory keeps the database in memory only.
	InMemory bool
	// SyncWrites makes every write durable before it returns.
	SyncWrites bool
}

// Store implements ports.CacheStore using BadgerDB.
type Store struct {
	db     *badger.DB
	logger ports.Logger
}

// Open opens the database described by opts. A database directory that
// cannot be opened is treated as corrupt: it is removed and recreated empty.
func Open(opts Options, log ports.Logger) (*Store, error) {
	db, err := openDB(opts, log)
	if err != nil && !opts.InMemory && !isLocked(err) {
		log.Warn(fmt.Sprintf("%s, recreating %s: %v", domain.ErrStoreCorrupt, opts.Path, err))
		if rmErr := os.RemoveAll(opts.Path); rmErr != nil {
			return nil, zerr.With(zerr.Wrap(rmErr, domain.ErrStoreOpenFailed.Error()), "path", opts.Path)
		}
		db, err = openDB(opts, log)
	}
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreOpenFailed.Error()), "path", opts.Path)
	}

	return &Store{db: db, logger: log}, nil
}

func openDB(opts Options, log ports.Logger) (*badger.DB, error) {
	var bopts badger.Options
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(opts.Path, domain.DirPerm); err != nil {
			return nil, err
		}
		bopts = badger.DefaultOptions(opts.Path)
	}

	bopts = bopts.
		WithSyncWrites(opts.SyncWrites).
		WithNumVersionsToKeep(1).
		WithLogger(&badgerLogger{logger: log})

	return badger.Open(bopts)
}

// isLocked reports whether another process holds the database directory.
// Such a database is in use, not corrupt.
func isLocked(err error) bool {
	return strings.Contains(err.Error(), "Cannot acquire directory lock")
}

func entryKey(path string) []byte {
	return []byte(keyPrefix + path)
}

// Get retrieves the entry for path. Undecodable records are reported as absent.
func (s *Store) Get(path string) (*domain.CacheEntry, bool) {
	var entry domain.CacheEntry
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(entryKey(path))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			s.logger.Warn(fmt.Sprintf("ignoring unreadable cache record %s: %v", path, err))
		}
		return nil, false
	}

	return &entry, true
}

// Put replaces the entry for path.
func (s *Store) Put(path string, entry domain.CacheEntry) error {
	entry.Path = path
	data, err := json.Marshal(entry)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "path", path)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(entryKey(path), data)
	})
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "path", path)
	}
	return nil
}

// Remove deletes the entry for path.
func (s *Store) Remove(path string) (bool, error) {
	existed := false
	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(entryKey(path)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		existed = true
		return txn.Delete(entryKey(path))
	})
	if err != nil {
		return false, zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "path", path)
	}
	return existed, nil
}

// Clear drops all data from the database.
func (s *Store) Clear() error {
	if err := s.db.DropAll(); err != nil {
		return zerr.Wrap(err, domain.ErrClearFailed.Error())
	}
	return nil
}

// Keys returns the paths of all entries in key order.
func (s *Store) Keys() []string {
	var keys []string
	_ = s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(keyPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, strings.TrimPrefix(string(it.Item().Key()), keyPrefix))
		}
		return nil
	})
	return keys
}

// SizeBytes returns the combined size of the LSM tree and value log.
func (s *Store) SizeBytes() int64 {
	lsm, vlog := s.db.Size()
	return lsm + vlog
}

// Flush syncs pending writes to disk.
func (s *Store) Flush() error {
	if s.db.Opts().InMemory {
		return nil
	}
	if err := s.db.Sync(); err != nil {
		return zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
	}
	return nil
}

// badgerLogger adapts ports.Logger to BadgerDB's Logger interface.
// Info and debug output is dropped.
type badgerLogger struct {
	logger ports.Logger
}

func (l *badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(zerr.New(strings.TrimSpace(fmt.Sprintf(format, args...))))
}

func (l *badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Infof(string, ...any) {}

func (l *badgerLogger) Debugf(string, ...any) {}
