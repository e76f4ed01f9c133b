// Package policy decides whether a cache entry is still valid for a file.
package policy

import (
	"time"

	"go.trai.ch/symdex/internal/core/domain"
)

// Reason explains why an entry was invalidated.
type Reason string

// Invalidation reasons, in evaluation order.
const (
	ReasonNone             Reason = ""
	ReasonGitCommitChanged Reason = "git_commit_changed"
	ReasonMtimeChanged     Reason = "mtime_changed"
	ReasonSizeChanged      Reason = "size_changed"
	ReasonContentChanged   Reason = "content_changed"
	ReasonHashError        Reason = "hash_error"
)

// Decision is the outcome of evaluating one entry.
type Decision struct {
	Valid  bool
	Reason Reason
	// Hash is the content hash computed during evaluation, if any.
	Hash string
}

// Current carries the present state of a file. Hash is only called when the
// content has to be compared.
type Current struct {
	Git     domain.GitState
	Signals domain.FileSignals
	Hash    func() (string, error)
}

// Policy evaluates cache entries against current file state.
type Policy struct {
	// VerifyHash forces a content comparison on every otherwise-valid entry.
	VerifyHash bool
	// RacyWindow is how close to ExtractedAt an mtime may be before the
	// timestamp alone is no longer trusted.
	RacyWindow time.Duration
}

// New creates a Policy.
func New(verifyHash bool, racyWindow time.Duration) *Policy {
	return &Policy{VerifyHash: verifyHash, RacyWindow: racyWindow}
}

// Evaluate checks entry against cur. Signals are compared in a fixed order and
// the first mismatch wins. Content is compared when verification is on, when
// the worktree has uncommitted changes, or when the entry is racily clean.
func (p *Policy) Evaluate(entry *domain.CacheEntry, cur Current) Decision {
	if p.commitChanged(entry, cur.Git) {
		return Decision{Reason: ReasonGitCommitChanged}
	}

	if !entry.Mtime.Equal(cur.Signals.Mtime) {
		return Decision{Reason: ReasonMtimeChanged}
	}

	if entry.Size != cur.Signals.Size {
		return Decision{Reason: ReasonSizeChanged}
	}

	if !p.VerifyHash && !cur.Git.Dirty && !p.Racy(entry) {
		return Decision{Valid: true}
	}

	// Entries without a recorded hash cannot be verified by content.
	if entry.ContentHash == "" || cur.Hash == nil {
		return Decision{Reason: ReasonContentChanged}
	}

	hash, err := cur.Hash()
	if err != nil {
		return Decision{Reason: ReasonHashError}
	}
	if hash != entry.ContentHash {
		return Decision{Reason: ReasonContentChanged, Hash: hash}
	}
	return Decision{Valid: true, Hash: hash}
}

func (p *Policy) commitChanged(entry *domain.CacheEntry, git domain.GitState) bool {
	if !git.Available || git.Pinned || entry.GitCommit == "" {
		return false
	}
	return entry.GitCommit != git.Commit
}

// Racy reports whether the file may have been rewritten within the mtime
// granularity after the entry was extracted. An mtime later than ExtractedAt,
// e.g. after clock skew, is always racy.
func (p *Policy) Racy(entry *domain.CacheEntry) bool {
	if p.RacyWindow <= 0 {
		return false
	}
	return entry.ExtractedAt.Sub(entry.Mtime) < p.RacyWindow
}
