package domain

import (
	"path/filepath"
	"runtime"
	"time"
)

// Store backend names.
const (
	StoreBackendJSON   = "json"
	StoreBackendBadger = "badger"
)

// Config is the resolved configuration for one repository.
type Config struct {
	// Root is the absolute repository root.
	Root string
	// MetaDir is the absolute path of the metadata directory (default <Root>/.symdex).
	MetaDir string

	Workers      int
	VerifyHash   bool
	RacyWindow   time.Duration
	MaxFileSize  int64
	HashMemoSize int
	Ignore       []string

	StoreBackend string

	GitEnabled     bool
	GitPinned      bool
	GitDetectDirty bool

	WatchDebounce time.Duration
}

// Default configuration values.
const (
	DefaultRacyWindow    = 2 * time.Second
	DefaultMaxFileSize   = 10 * 1024 * 1024
	DefaultHashMemoSize  = 4096
	DefaultWatchDebounce = 200 * time.Millisecond
)

// DefaultIgnore lists directory and file names skipped during enumeration.
var DefaultIgnore = []string{
	".git",
	".jj",
	".hg",
	".svn",
	SymdexDirName,
	"node_modules",
	"vendor",
	"__pycache__",
	".venv",
	"venv",
	".tox",
	"dist",
	"build",
}

// DefaultConfig returns the configuration used when no config file exists.
func DefaultConfig(root string) Config {
	return Config{
		Root:          root,
		MetaDir:       filepath.Join(root, SymdexDirName),
		Workers:       runtime.NumCPU(),
		RacyWindow:    DefaultRacyWindow,
		MaxFileSize:   DefaultMaxFileSize,
		HashMemoSize:  DefaultHashMemoSize,
		Ignore:        append([]string(nil), DefaultIgnore...),
		StoreBackend:  StoreBackendJSON,
		GitEnabled:    true,
		WatchDebounce: DefaultWatchDebounce,
	}
}
