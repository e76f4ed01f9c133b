package fs

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/symdex/internal/core/domain"
	"go.trai.ch/symdex/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.FileResolver = (*Resolver)(nil)

// Resolver implements ports.FileResolver on top of the Walker.
type Resolver struct {
	walker  *Walker
	ignores []string
}

// NewResolver creates a new Resolver that skips the given ignore patterns.
func NewResolver(walker *Walker, ignores []string) *Resolver {
	return &Resolver{walker: walker, ignores: ignores}
}

// ResolveFiles returns the sorted, root-relative, slash-separated paths of the
// regular files below dir.
func (r *Resolver) ResolveFiles(ctx context.Context, root, dir string) ([]string, error) {
	base := filepath.Join(root, filepath.FromSlash(dir))

	info, err := os.Stat(base)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrScopeResolveFailed.Error()), "path", base)
	}
	if !info.IsDir() {
		return nil, zerr.With(domain.ErrScopeResolveFailed, "path", base)
	}

	var files []string
	for path := range r.walker.WalkFiles(base, r.ignores) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrScopeResolveFailed.Error()), "path", path)
		}
		files = append(files, filepath.ToSlash(rel))
	}

	slices.Sort(files)
	return files, nil
}

// RelativePath converts target into a slash-separated path relative to root.
// It fails when target lies outside root.
func RelativePath(root, target string) (string, error) {
	if !filepath.IsAbs(target) {
		target = filepath.Join(root, target)
	}

	rel, err := filepath.Rel(root, target)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, domain.ErrScopeOutsideRoot.Error()), "path", target)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", zerr.With(domain.ErrScopeOutsideRoot, "path", target)
	}
	if rel == "." {
		return "", nil
	}

	return filepath.ToSlash(rel), nil
}
