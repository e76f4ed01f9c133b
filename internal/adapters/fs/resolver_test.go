package fs_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/symdex/internal/adapters/fs"
	"go.trai.ch/symdex/internal/core/domain"
)

func TestResolver_ResolveFiles(t *testing.T) {
	t.Parallel()

	rootDir := t.TempDir()
	mustCreateFile(t, rootDir, "main.py", "")
	mustCreateFile(t, rootDir, "pkg/lib.py", "")
	mustCreateFile(t, rootDir, "pkg/sub/deep.go", "")
	mustCreateFile(t, rootDir, ".symdex/cache/symbols.json", "{}")
	mustCreateFile(t, rootDir, "node_modules/dep.py", "")

	resolver := fs.NewResolver(fs.NewWalker(), domain.DefaultIgnore)

	t.Run("whole repository", func(t *testing.T) {
		t.Parallel()
		files, err := resolver.ResolveFiles(context.Background(), rootDir, "")
		require.NoError(t, err)
		assert.Equal(t, []string{"main.py", "pkg/lib.py", "pkg/sub/deep.go"}, files)
	})

	t.Run("directory", func(t *testing.T) {
		t.Parallel()
		files, err := resolver.ResolveFiles(context.Background(), rootDir, "pkg")
		require.NoError(t, err)
		assert.Equal(t, []string{"pkg/lib.py", "pkg/sub/deep.go"}, files)
	})

	t.Run("missing directory", func(t *testing.T) {
		t.Parallel()
		_, err := resolver.ResolveFiles(context.Background(), rootDir, "missing")
		require.Error(t, err)
		assert.ErrorContains(t, err, domain.ErrScopeResolveFailed.Error())
	})

	t.Run("cancelled", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := resolver.ResolveFiles(ctx, rootDir, "")
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestRelativePath(t *testing.T) {
	t.Parallel()

	root := filepath.Join(string(filepath.Separator), "repo")

	tests := []struct {
		name    string
		target  string
		want    string
		wantErr bool
	}{
		{name: "relative file", target: "pkg/a.py", want: "pkg/a.py"},
		{name: "absolute file", target: filepath.Join(root, "a.py"), want: "a.py"},
		{name: "root itself", target: root, want: ""},
		{name: "dot", target: ".", want: ""},
		{name: "escapes root", target: "../other/a.py", wantErr: true},
		{name: "absolute outside", target: filepath.Join(string(filepath.Separator), "elsewhere"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := fs.RelativePath(root, tt.target)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorContains(t, err, domain.ErrScopeOutsideRoot.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
