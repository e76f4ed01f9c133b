package ports

import (
	"context"
	"iter"
)

// WatchOp is the kind of change reported for a path under the watched root.
type WatchOp uint8

// Watch operations.
const (
	OpCreate WatchOp = iota
	OpWrite
	OpRemove
	OpRename
)

var watchOpNames = [...]string{"create", "write", "remove", "rename"}

func (o WatchOp) String() string {
	if int(o) < len(watchOpNames) {
		return watchOpNames[o]
	}
	return "unknown"
}

// Removes reports whether the path may no longer exist after the change.
// Cache entries for such paths become stale.
func (o WatchOp) Removes() bool {
	return o == OpRemove || o == OpRename
}

// WatchEvent is a single change under the watched root.
type WatchEvent struct {
	// Path is absolute.
	Path      string
	Operation WatchOp
}

// Watcher reports changes to the files of a repository so that watch mode
// can re-extract symbols.
//
//go:generate go run go.uber.org/mock/mockgen -source=watcher.go -destination=mocks/mock_watcher.go -package=mocks
type Watcher interface {
	// Start watches root and every directory below it that is not skipped.
	Start(ctx context.Context, root string) error
	// Stop releases the watcher. Events ends once it returns.
	Stop() error
	Events() iter.Seq[WatchEvent]
}
