package domain

import "path/filepath"

const (
	// SymdexDirName is the name of the repository-local metadata directory.
	SymdexDirName = ".symdex"

	// CacheDirName is the name of the cache directory.
	CacheDirName = "cache"

	// SnapshotFileName is the JSON snapshot file of the default store backend.
	SnapshotFileName = "symbols.json"

	// BadgerDirName is the directory of the badger store backend.
	BadgerDirName = "badger"

	// ConfigFileName is the name of the optional configuration file.
	ConfigFileName = ".symdex.yaml"

	// TempFileSuffix marks snapshot files that have not been renamed into place.
	TempFileSuffix = ".tmp"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// CachePath returns the cache directory below the given metadata directory.
func CachePath(metaDir string) string {
	return filepath.Join(metaDir, CacheDirName)
}

// SnapshotPath returns the JSON snapshot path below the given metadata directory.
func SnapshotPath(metaDir string) string {
	return filepath.Join(metaDir, CacheDirName, SnapshotFileName)
}

// BadgerPath returns the badger database directory below the given metadata directory.
func BadgerPath(metaDir string) string {
	return filepath.Join(metaDir, CacheDirName, BadgerDirName)
}
