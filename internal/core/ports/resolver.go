package ports

import "context"

// FileResolver enumerates the files an extraction scope covers.
//
//go:generate go run go.uber.org/mock/mockgen -source=resolver.go -destination=mocks/mock_resolver.go -package=mocks
type FileResolver interface {
	// ResolveFiles returns the sorted, root-relative, slash-separated paths of
	// all regular files below dir (relative to root; "" means root itself).
	ResolveFiles(ctx context.Context, root, dir string) ([]string, error)
}
