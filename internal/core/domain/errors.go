package domain

import "go.trai.ch/zerr"

var (
	// ErrFileUnreadable is reported when a file cannot be stat'ed or read.
	ErrFileUnreadable = zerr.New("file unreadable")

	// ErrExtractionFailed is reported when an extractor rejects a file's content.
	ErrExtractionFailed = zerr.New("extraction failed")

	// ErrUnsupportedFile is returned when no extractor handles a file extension.
	ErrUnsupportedFile = zerr.New("no extractor for file type")

	// ErrSyntaxError is returned when the parsed source contains syntax errors.
	ErrSyntaxError = zerr.New("source contains syntax errors")

	// ErrFileTooLarge is returned when a file exceeds the configured size limit.
	ErrFileTooLarge = zerr.New("file exceeds maximum size")

	// ErrStoreCorrupt is reported when the persisted cache cannot be loaded.
	ErrStoreCorrupt = zerr.New("cache store corrupt")

	// ErrStoreWriteFailed is reported when the cache cannot be persisted.
	ErrStoreWriteFailed = zerr.New("failed to write cache store")

	// ErrStoreReadFailed is returned when a cached record cannot be read.
	ErrStoreReadFailed = zerr.New("failed to read cache store")

	// ErrStoreOpenFailed is returned when the store backend cannot be opened.
	ErrStoreOpenFailed = zerr.New("failed to open cache store")

	// ErrScopeOutsideRoot is returned when a scope path escapes the repository root.
	ErrScopeOutsideRoot = zerr.New("scope is outside repository root")

	// ErrScopeResolveFailed is returned when the files of a scope cannot be enumerated.
	ErrScopeResolveFailed = zerr.New("failed to resolve scope")

	// ErrGitStateFailed is returned when the repository HEAD cannot be read.
	ErrGitStateFailed = zerr.New("failed to read git state")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrConfigInvalid is returned when a config value is out of range.
	ErrConfigInvalid = zerr.New("invalid configuration")

	// ErrUnknownStoreBackend is returned for an unrecognized store backend name.
	ErrUnknownStoreBackend = zerr.New("unknown store backend, expected 'json' or 'badger'")

	// ErrCleanupFailed is returned when stale entries cannot be pruned.
	ErrCleanupFailed = zerr.New("failed to clean up cache")

	// ErrClearFailed is returned when the cache cannot be cleared.
	ErrClearFailed = zerr.New("failed to clear cache")

	// ErrWatchFailed is returned when the file watcher cannot be started.
	ErrWatchFailed = zerr.New("failed to start file watcher")
)
