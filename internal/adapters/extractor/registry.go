// Package extractor provides tree-sitter based symbol extractors and a
// registry that dispatches files to them by extension.
package extractor

import (
	"context"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/symdex/internal/core/domain"
	"go.trai.ch/symdex/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Extractor = (*Registry)(nil)

// Language is an extractor for one source-file category.
type Language interface {
	ports.Extractor
	// Extensions lists the file extensions handled, including the leading dot.
	Extensions() []string
}

// Registry dispatches extraction to the language registered for a file's extension.
type Registry struct {
	byExt map[string]ports.Extractor
}

// NewRegistry creates a registry for the given languages.
// Later languages win when two claim the same extension.
func NewRegistry(langs ...Language) *Registry {
	r := &Registry{byExt: make(map[string]ports.Extractor)}
	for _, lang := range langs {
		for _, ext := range lang.Extensions() {
			r.byExt[strings.ToLower(ext)] = lang
		}
	}
	return r
}

// NewDefaultRegistry creates a registry with every built-in language.
func NewDefaultRegistry() *Registry {
	return NewRegistry(NewPython(), NewGo())
}

// Supports reports whether a language is registered for the file's extension.
func (r *Registry) Supports(path string) bool {
	_, ok := r.lookup(path)
	return ok
}

// Extract dispatches to the language registered for the file's extension.
func (r *Registry) Extract(ctx context.Context, path string, content []byte) ([]domain.Symbol, error) {
	lang, ok := r.lookup(path)
	if !ok {
		return nil, zerr.With(domain.ErrUnsupportedFile, "path", path)
	}
	return lang.Extract(ctx, path, content)
}

// Extensions returns the sorted list of registered extensions.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	return exts
}

func (r *Registry) lookup(path string) (ports.Extractor, bool) {
	lang, ok := r.byExt[strings.ToLower(filepath.Ext(path))]
	return lang, ok
}
