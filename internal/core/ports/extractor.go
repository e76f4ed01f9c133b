package ports

import (
	"context"

	"go.trai.ch/symdex/internal/core/domain"
)

// Extractor derives symbols from the content of a single source file.
//
//go:generate go run go.uber.org/mock/mockgen -source=extractor.go -destination=mocks/mock_extractor.go -package=mocks
type Extractor interface {
	// Supports reports whether the extractor handles the given path.
	Supports(path string) bool

	// Extract parses content and returns its symbols. path is root-relative.
	Extract(ctx context.Context, path string, content []byte) ([]domain.Symbol, error)
}
