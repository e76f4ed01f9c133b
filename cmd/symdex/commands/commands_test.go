package commands_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/symdex/cmd/symdex/commands"
	"go.trai.ch/symdex/internal/app"
	"go.trai.ch/symdex/internal/build"
	"go.trai.ch/symdex/internal/core/domain"
)

type mockApp struct {
	extractFunc func(ctx context.Context, scope string, opts app.ExtractOptions) (*domain.RunResult, error)
	stats       domain.IncrementalStats
	cleanupFunc func(ctx context.Context) (int, error)
	clearFunc   func(ctx context.Context) error
	watchFunc   func(ctx context.Context, onCycle app.CycleFunc) error
}

func (m *mockApp) ExtractSymbolsIncremental(
	ctx context.Context, scope string, opts app.ExtractOptions,
) (*domain.RunResult, error) {
	if m.extractFunc != nil {
		return m.extractFunc(ctx, scope, opts)
	}
	return &domain.RunResult{}, nil
}

func (m *mockApp) GetIncrementalStats() domain.IncrementalStats {
	return m.stats
}

func (m *mockApp) CleanupIncrementalCache(ctx context.Context) (int, error) {
	if m.cleanupFunc != nil {
		return m.cleanupFunc(ctx)
	}
	return 0, nil
}

func (m *mockApp) ClearIncrementalCache(ctx context.Context) error {
	if m.clearFunc != nil {
		return m.clearFunc(ctx)
	}
	return nil
}

func (m *mockApp) Watch(ctx context.Context, onCycle app.CycleFunc) error {
	if m.watchFunc != nil {
		return m.watchFunc(ctx, onCycle)
	}
	return nil
}

type fakeLogControl struct {
	json  bool
	quiet bool
}

func (f *fakeLogControl) SetJSON(enable bool) { f.json = enable }
func (f *fakeLogControl) SetQuiet(quiet bool) { f.quiet = quiet }

func execute(t *testing.T, a commands.Application, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")

	cli := commands.New(a)
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	cli.SetOutput(stdout, stderr)
	cli.SetArgs(args)
	err := cli.Execute(context.Background())
	return stdout.String(), stderr.String(), err
}

func sampleResult() *domain.RunResult {
	return &domain.RunResult{
		Symbols: []domain.Symbol{
			{Name: "greet", Type: domain.SymbolFunction, File: "a.py", LineStart: 1, LineEnd: 2},
		},
		Misses: 1,
	}
}

func TestCommands_Extract(t *testing.T) {
	t.Run("wires flags correctly", func(t *testing.T) {
		var capturedScope string
		var capturedOpts app.ExtractOptions

		mock := &mockApp{
			extractFunc: func(_ context.Context, scope string, opts app.ExtractOptions) (*domain.RunResult, error) {
				capturedScope = scope
				capturedOpts = opts
				return sampleResult(), nil
			},
		}

		out, _, err := execute(t, mock, "extract", "src", "--verify")
		require.NoError(t, err)
		assert.Equal(t, "src", capturedScope)
		assert.True(t, capturedOpts.VerifyHash)
		assert.Contains(t, out, "a.py")
		assert.Contains(t, out, "greet")
		assert.Contains(t, out, "1 symbol")
	})

	t.Run("whole repository without a path", func(t *testing.T) {
		capturedScope := "unset"
		mock := &mockApp{
			extractFunc: func(_ context.Context, scope string, _ app.ExtractOptions) (*domain.RunResult, error) {
				capturedScope = scope
				return &domain.RunResult{}, nil
			},
		}

		_, _, err := execute(t, mock, "extract")
		require.NoError(t, err)
		assert.Empty(t, capturedScope)
	})

	t.Run("prints stats on request", func(t *testing.T) {
		mock := &mockApp{
			extractFunc: func(context.Context, string, app.ExtractOptions) (*domain.RunResult, error) {
				return sampleResult(), nil
			},
			stats: domain.IncrementalStats{FilesAnalyzed: 1, CacheMisses: 1},
		}

		out, _, err := execute(t, mock, "extract", "--stats")
		require.NoError(t, err)
		assert.Contains(t, out, "hit rate")
	})

	t.Run("returns error on extraction failure", func(t *testing.T) {
		mock := &mockApp{
			extractFunc: func(context.Context, string, app.ExtractOptions) (*domain.RunResult, error) {
				return nil, errors.New("simulated error")
			},
		}

		_, _, err := execute(t, mock, "extract")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "simulated error")
	})

	t.Run("rejects more than one path", func(t *testing.T) {
		mock := &mockApp{
			extractFunc: func(context.Context, string, app.ExtractOptions) (*domain.RunResult, error) {
				panic("should not be called")
			},
		}

		_, _, err := execute(t, mock, "extract", "a", "b")
		require.Error(t, err)
	})
}

func TestCommands_Stats(t *testing.T) {
	mock := &mockApp{
		stats: domain.IncrementalStats{
			CacheHitRate:  0.5,
			FilesAnalyzed: 4,
			CacheHits:     2,
			CacheMisses:   2,
		},
	}

	out, _, err := execute(t, mock, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "50.0%")
}

func TestCommands_Cleanup(t *testing.T) {
	t.Run("reports removed entries", func(t *testing.T) {
		mock := &mockApp{
			cleanupFunc: func(context.Context) (int, error) { return 3, nil },
		}

		out, _, err := execute(t, mock, "cleanup")
		require.NoError(t, err)
		assert.Contains(t, out, "removed 3 stale entries")
	})

	t.Run("returns error", func(t *testing.T) {
		mock := &mockApp{
			cleanupFunc: func(context.Context) (int, error) { return 0, errors.New("boom") },
		}

		_, _, err := execute(t, mock, "cleanup")
		require.Error(t, err)
	})
}

func TestCommands_Clear(t *testing.T) {
	called := false
	mock := &mockApp{
		clearFunc: func(context.Context) error {
			called = true
			return nil
		},
	}

	out, _, err := execute(t, mock, "clear")
	require.NoError(t, err)
	assert.True(t, called)
	assert.Contains(t, out, "cache cleared")
}

func TestCommands_Watch(t *testing.T) {
	mock := &mockApp{
		watchFunc: func(_ context.Context, onCycle app.CycleFunc) error {
			onCycle(sampleResult(), nil)
			onCycle(nil, errors.New("cycle failed"))
			return nil
		},
	}

	out, errOut, err := execute(t, mock, "watch")
	require.NoError(t, err)
	assert.Contains(t, out, "greet")
	assert.Contains(t, errOut, "Error: cycle failed")
}

func TestCommands_LogFlags(t *testing.T) {
	lc := &fakeLogControl{}
	cli := commands.New(&mockApp{}, commands.WithLogControl(lc))
	cli.SetOutput(new(bytes.Buffer), new(bytes.Buffer))
	cli.SetArgs([]string{"stats", "--log-json", "-q"})

	require.NoError(t, cli.Execute(context.Background()))
	assert.True(t, lc.json)
	assert.True(t, lc.quiet)
}

func TestCommands_Version(t *testing.T) {
	t.Run("version subcommand", func(t *testing.T) {
		out, _, err := execute(t, &mockApp{}, "version")
		require.NoError(t, err)
		assert.Contains(t, out, "symdex version "+build.Version)
	})

	t.Run("version flag", func(t *testing.T) {
		out, _, err := execute(t, &mockApp{}, "--version")
		require.NoError(t, err)
		assert.Contains(t, out, "symdex version "+build.Version)
		assert.Contains(t, out, "commit: "+build.Commit)
	})
}
