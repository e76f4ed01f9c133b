package domain

import (
	"slices"
	"time"
)

// CacheEntry is the cached extraction result of one file, keyed by its path
// relative to the repository root.
type CacheEntry struct {
	Path        string    `json:"path"`
	Mtime       time.Time `json:"mtime"`
	Size        int64     `json:"size"`
	ContentHash string    `json:"content_hash,omitempty"`
	// GitCommit is empty when the repository had no git state.
	GitCommit   string    `json:"git_commit,omitempty"`
	Symbols     []Symbol  `json:"symbols"`
	ExtractedAt time.Time `json:"extracted_at"`
}

// Clone returns a copy of the entry that shares no mutable state with e.
func (e CacheEntry) Clone() CacheEntry {
	e.Symbols = slices.Clone(e.Symbols)
	return e
}

// FileSignals are the cheap identity signals of a file.
type FileSignals struct {
	Mtime time.Time
	Size  int64
}

// GitState describes the version-control state of the repository.
type GitState struct {
	// Commit is the HEAD commit identifier. Only meaningful when Available.
	Commit string
	// Dirty reports uncommitted changes, when detection is enabled.
	Dirty bool
	// Available is false for plain directories and repositories without HEAD.
	Available bool
	// Pinned marks checkouts whose content cannot change under a fixed ref.
	Pinned bool
}
