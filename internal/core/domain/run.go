package domain

// Scope selects the files an extraction run covers.
// An empty Path means the whole repository.
type Scope struct {
	Path string
}

// WholeRepository returns the scope covering every analyzable file.
func WholeRepository() Scope {
	return Scope{}
}

// IsWholeRepository reports whether the scope covers the whole repository.
func (s Scope) IsWholeRepository() bool {
	return s.Path == "" || s.Path == "."
}

// FailureKind classifies a per-file failure.
type FailureKind string

const (
	// FailureUnreadable means the file could not be stat'ed or read.
	FailureUnreadable FailureKind = "file_unreadable"
	// FailureExtraction means the extractor rejected the file content.
	FailureExtraction FailureKind = "extraction_failed"
)

// FileFailure records a file that was skipped during a run.
type FileFailure struct {
	Path string
	Kind FailureKind
	Err  error
}

// RunResult is the outcome of one extraction run.
type RunResult struct {
	// Symbols are ordered by file path, then line.
	Symbols  []Symbol
	Failures []FileFailure
	// Warnings are non-fatal problems such as failed store writes.
	Warnings []error
	Hits     int
	Misses   int
	// GitDirty reports uncommitted worktree changes when the run started.
	GitDirty bool
}
