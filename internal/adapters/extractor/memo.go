package extractor

import (
	"context"
	"crypto/sha256"
	"path/filepath"
	"slices"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.trai.ch/symdex/internal/core/domain"
	"go.trai.ch/symdex/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Extractor = (*Memo)(nil)

type memoKey struct {
	ext    string
	digest [sha256.Size]byte
}

// Memo remembers the symbols of recently extracted contents. Entries are
// keyed by file extension and content digest, so a file whose timestamp
// changed but whose bytes did not is not parsed again.
type Memo struct {
	inner ports.Extractor
	cache *lru.Cache[memoKey, []domain.Symbol]
}

// NewMemo wraps inner with a memo holding up to size contents.
func NewMemo(inner ports.Extractor, size int) (*Memo, error) {
	if size <= 0 {
		size = domain.DefaultHashMemoSize
	}
	cache, err := lru.New[memoKey, []domain.Symbol](size)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to create extraction memo")
	}
	return &Memo{inner: inner, cache: cache}, nil
}

// Supports delegates to the wrapped extractor.
func (m *Memo) Supports(path string) bool {
	return m.inner.Supports(path)
}

// Extract returns memoized symbols for known content and extracts otherwise.
// Failures are not remembered.
func (m *Memo) Extract(ctx context.Context, path string, content []byte) ([]domain.Symbol, error) {
	key := memoKey{
		ext:    strings.ToLower(filepath.Ext(path)),
		digest: sha256.Sum256(content),
	}
	if symbols, ok := m.cache.Get(key); ok {
		return withFile(symbols, path), nil
	}

	symbols, err := m.inner.Extract(ctx, path, content)
	if err != nil {
		return nil, err
	}
	m.cache.Add(key, slices.Clone(symbols))
	return symbols, nil
}

// Len returns the number of memoized contents.
func (m *Memo) Len() int {
	return m.cache.Len()
}

func withFile(symbols []domain.Symbol, path string) []domain.Symbol {
	out := slices.Clone(symbols)
	for i := range out {
		out[i].File = path
	}
	return out
}
