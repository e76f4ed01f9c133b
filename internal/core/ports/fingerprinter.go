package ports

import "go.trai.ch/symdex/internal/core/domain"

// Fingerprinter computes the identity signals of a file.
//
//go:generate go run go.uber.org/mock/mockgen -source=fingerprinter.go -destination=mocks/mock_fingerprinter.go -package=mocks
type Fingerprinter interface {
	// Stat returns the cheap signals (mtime, size) of the file at path.
	Stat(path string) (domain.FileSignals, error)

	// Hash returns the content digest of the file at path, read from disk.
	Hash(path string) (string, error)

	// HashBytes returns the content digest of data.
	HashBytes(data []byte) string

	// Read returns the content of the file at path.
	Read(path string) ([]byte, error)
}
