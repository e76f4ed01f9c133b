package orchestrator_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.trai.ch/symdex/internal/adapters/cas"
	"go.trai.ch/symdex/internal/adapters/extractor"
	"go.trai.ch/symdex/internal/adapters/fs"
	"go.trai.ch/symdex/internal/adapters/telemetry"
	"go.trai.ch/symdex/internal/core/domain"
	"go.trai.ch/symdex/internal/core/ports"
	"go.trai.ch/symdex/internal/core/ports/mocks"
	"go.trai.ch/symdex/internal/engine/orchestrator"
	"go.trai.ch/symdex/internal/engine/policy"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

const (
	srcA = "def f():\n    x = 1\n    return x\n"
	srcB = "class C:\n    def m(self):\n        pass\n\n    y = 2\n"
)

// past is far enough back that entries are never racily clean.
var past = time.Now().Add(-time.Hour).Truncate(time.Second)

type fixture struct {
	root  string
	store *cas.Store
	log   *mocks.MockLogger
	mu    sync.Mutex
	git   domain.GitState
	orch  *orchestrator.Orchestrator
}

type fixtureOption func(*orchestrator.Deps, *orchestrator.Settings)

func withRacyWindow(d time.Duration) fixtureOption {
	return func(_ *orchestrator.Deps, s *orchestrator.Settings) { s.RacyWindow = d }
}

func withTracer(tr ports.Tracer) fixtureOption {
	return func(d *orchestrator.Deps, _ *orchestrator.Settings) { d.Tracer = tr }
}

func withStore(store ports.CacheStore) fixtureOption {
	return func(d *orchestrator.Deps, _ *orchestrator.Settings) { d.Store = store }
}

func withExtractor(ex ports.Extractor) fixtureOption {
	return func(d *orchestrator.Deps, _ *orchestrator.Settings) { d.Extractor = ex }
}

func withMaxFileSize(n int64) fixtureOption {
	return func(_ *orchestrator.Deps, s *orchestrator.Settings) { s.MaxFileSize = n }
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	return newFixtureAt(t, t.TempDir(), opts...)
}

func newFixtureAt(t *testing.T, root string, opts ...fixtureOption) *fixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	f := &fixture{root: root}

	f.log = mocks.NewMockLogger(ctrl)
	f.log.EXPECT().Warn(gomock.Any()).AnyTimes()

	git := mocks.NewMockGitTracker(ctrl)
	git.EXPECT().CurrentState(gomock.Any()).DoAndReturn(func(context.Context) (domain.GitState, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.git, nil
	}).AnyTimes()

	f.store = cas.NewStore(domain.SnapshotPath(filepath.Join(f.root, domain.SymdexDirName)), f.log)

	deps := orchestrator.Deps{
		Store:         f.store,
		Fingerprinter: fs.NewFingerprinter(),
		Git:           git,
		Extractor:     extractor.NewDefaultRegistry(),
		Resolver:      fs.NewResolver(fs.NewWalker(), domain.DefaultIgnore),
		Tracer:        telemetry.NewNoOpTracer(),
		Logger:        f.log,
	}
	settings := orchestrator.Settings{Root: f.root, Workers: 4}
	for _, opt := range opts {
		opt(&deps, &settings)
	}

	f.orch = orchestrator.New(deps, settings)
	return f
}

func (f *fixture) setGit(state domain.GitState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.git = state
}

func (f *fixture) write(t *testing.T, rel, content string, mtime time.Time) {
	t.Helper()
	path := filepath.Join(f.root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	if !mtime.IsZero() {
		require.NoError(t, os.Chtimes(path, mtime, mtime))
	}
}

func (f *fixture) run(t *testing.T, scope string, opts orchestrator.RunOptions) *domain.RunResult {
	t.Helper()
	res, err := f.orch.Run(context.Background(), domain.Scope{Path: scope}, opts)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

type outline struct {
	Name  string
	File  string
	Start int
	End   int
}

func outlineOf(symbols []domain.Symbol) []outline {
	out := make([]outline, 0, len(symbols))
	for _, s := range symbols {
		out = append(out, outline{s.Name, s.File, s.LineStart, s.LineEnd})
	}
	return out
}

func TestRun_TwoFileScenario(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.write(t, "a.py", srcA, past)
	f.write(t, "b.py", srcB, past)
	f.write(t, "README.md", "# readme\n", past)

	first := f.run(t, "", orchestrator.RunOptions{})
	assert.Equal(t, 0, first.Hits)
	assert.Equal(t, 2, first.Misses)
	assert.Empty(t, first.Failures)

	want := []outline{
		{"f", "a.py", 1, 3},
		{"C", "b.py", 1, 5},
		{"C.m", "b.py", 2, 3},
	}
	assert.Equal(t, want, outlineOf(first.Symbols))
	assert.Equal(t, srcA[:len(srcA)-1], first.Symbols[0].Code)

	second := f.run(t, "", orchestrator.RunOptions{})
	assert.Equal(t, 2, second.Hits)
	assert.Equal(t, 0, second.Misses)
	assert.Equal(t, first.Symbols, second.Symbols)

	// Modifying b.py re-extracts only b.py.
	f.write(t, "b.py", "class C:\n    pass\n", past)
	third := f.run(t, "", orchestrator.RunOptions{})
	assert.Equal(t, 1, third.Hits)
	assert.Equal(t, 1, third.Misses)
	assert.Equal(t, []outline{{"f", "a.py", 1, 3}, {"C", "b.py", 1, 2}}, outlineOf(third.Symbols))

	snap := f.orch.Stats().Snapshot()
	assert.Equal(t, int64(3), snap.Hits)
	assert.Equal(t, int64(3), snap.Misses)
	assert.Equal(t, int64(2), snap.FilesAnalyzed)
}

func TestRun_PersistsAcrossInstances(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.write(t, "a.py", srcA, past)
	f.run(t, "", orchestrator.RunOptions{})

	reopened := newFixtureAt(t, f.root)
	res := reopened.run(t, "", orchestrator.RunOptions{})
	assert.Equal(t, 1, res.Hits)
	assert.Equal(t, 0, res.Misses)
}

func TestRun_SizeAndMtimeInvalidate(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.write(t, "a.py", srcA, past)
	f.run(t, "a.py", orchestrator.RunOptions{})

	f.write(t, "a.py", srcA, past.Add(time.Minute))
	res := f.run(t, "a.py", orchestrator.RunOptions{})
	assert.Equal(t, 1, res.Misses, "mtime change")

	f.write(t, "a.py", srcA+"\n", past.Add(time.Minute))
	res = f.run(t, "a.py", orchestrator.RunOptions{})
	assert.Equal(t, 1, res.Misses, "size change")

	res = f.run(t, "a.py", orchestrator.RunOptions{})
	assert.Equal(t, 1, res.Hits)
}

func TestRun_VerifyDetectsSameSizeRewrite(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.write(t, "a.py", "def f():\n    return 1\n", past)
	f.run(t, "", orchestrator.RunOptions{})

	// Same size, restored mtime: invisible to the cheap signals.
	f.write(t, "a.py", "def g():\n    return 1\n", past)

	stale := f.run(t, "", orchestrator.RunOptions{})
	assert.Equal(t, 1, stale.Hits)
	assert.Equal(t, "f", stale.Symbols[0].Name)

	fresh := f.run(t, "", orchestrator.RunOptions{VerifyHash: true})
	assert.Equal(t, 1, fresh.Misses)
	assert.Equal(t, "g", fresh.Symbols[0].Name)
}

func TestRun_VerifyAfterVerifiedHit(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.write(t, "a.py", "def f():\n    return 1\n", past)
	f.run(t, "", orchestrator.RunOptions{})

	verified := f.run(t, "", orchestrator.RunOptions{VerifyHash: true})
	assert.Equal(t, 1, verified.Hits)

	f.write(t, "a.py", "def g():\n    return 1\n", past)

	res := f.run(t, "", orchestrator.RunOptions{VerifyHash: true})
	assert.Equal(t, 0, res.Hits)
	assert.Equal(t, 1, res.Misses)
	require.Len(t, res.Symbols, 1)
	assert.Equal(t, "g", res.Symbols[0].Name)
}

func TestRun_DirtyWorktreeComparesContent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.setGit(domain.GitState{Commit: "c1", Available: true})
	f.write(t, "a.py", "def f():\n    return 1\n", past)
	clean := f.run(t, "", orchestrator.RunOptions{})
	assert.False(t, clean.GitDirty)

	f.write(t, "a.py", "def g():\n    return 1\n", past)
	f.setGit(domain.GitState{Commit: "c1", Available: true, Dirty: true})

	res := f.run(t, "", orchestrator.RunOptions{})
	assert.True(t, res.GitDirty)
	assert.Equal(t, 1, res.Misses)
	assert.Equal(t, "g", res.Symbols[0].Name)

	again := f.run(t, "", orchestrator.RunOptions{})
	assert.Equal(t, 1, again.Hits)
}

func TestRun_RacilyCleanEntryIsVerified(t *testing.T) {
	t.Parallel()

	f := newFixture(t, withRacyWindow(time.Hour))
	now := time.Now().Truncate(time.Second)
	f.write(t, "a.py", "def f():\n    return 1\n", now)
	f.run(t, "", orchestrator.RunOptions{})

	f.write(t, "a.py", "def g():\n    return 1\n", now)
	res := f.run(t, "", orchestrator.RunOptions{})
	assert.Equal(t, 1, res.Misses)
	assert.Equal(t, "g", res.Symbols[0].Name)

	again := f.run(t, "", orchestrator.RunOptions{})
	assert.Equal(t, 1, again.Hits)
}

func TestRun_GitCommitInvalidates(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.setGit(domain.GitState{Commit: "c1", Available: true})
	f.write(t, "a.py", srcA, past)
	f.write(t, "b.py", srcB, past)
	f.run(t, "", orchestrator.RunOptions{})

	entry, ok := f.store.Get("a.py")
	require.True(t, ok)
	assert.Equal(t, "c1", entry.GitCommit)

	f.setGit(domain.GitState{Commit: "c2", Available: true})
	res := f.run(t, "", orchestrator.RunOptions{})
	assert.Equal(t, 2, res.Misses)

	// Pinned checkouts ignore commit changes.
	f.setGit(domain.GitState{Commit: "c3", Available: true, Pinned: true})
	res = f.run(t, "", orchestrator.RunOptions{})
	assert.Equal(t, 2, res.Hits)
}

func TestRun_GitErrorFallsBackToSignals(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Warn(gomock.Any()).Times(1)
	git := mocks.NewMockGitTracker(ctrl)
	git.EXPECT().CurrentState(gomock.Any()).Return(domain.GitState{}, zerr.New("broken HEAD"))

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.py"), []byte(srcA), 0o600))
	orch := orchestrator.New(orchestrator.Deps{
		Store:         cas.NewStore(domain.SnapshotPath(filepath.Join(root, domain.SymdexDirName)), log),
		Fingerprinter: fs.NewFingerprinter(),
		Git:           git,
		Extractor:     extractor.NewDefaultRegistry(),
		Resolver:      fs.NewResolver(fs.NewWalker(), nil),
		Tracer:        telemetry.NewNoOpTracer(),
		Logger:        log,
	}, orchestrator.Settings{Root: root})

	res, err := orch.Run(context.Background(), domain.WholeRepository(), orchestrator.RunOptions{})
	require.NoError(t, err)
	assert.Len(t, res.Symbols, 1)
}

func TestRun_PartialFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.write(t, "good.py", srcA, past)
	f.write(t, "bad.py", "def broken(:\n", past)

	res := f.run(t, "", orchestrator.RunOptions{})
	assert.Equal(t, []outline{{"f", "good.py", 1, 3}}, outlineOf(res.Symbols))
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "bad.py", res.Failures[0].Path)
	assert.Equal(t, domain.FailureExtraction, res.Failures[0].Kind)
	assert.ErrorContains(t, res.Failures[0].Err, domain.ErrExtractionFailed.Error())

	_, cached := f.store.Get("bad.py")
	assert.False(t, cached)

	snap := f.orch.Stats().Snapshot()
	assert.Equal(t, int64(1), snap.Failures)
	assert.Equal(t, int64(1), snap.Misses)
}

func TestRun_SingleFileScope(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.write(t, "pkg/a.py", srcA, past)
	f.write(t, "b.py", srcB, past)

	res := f.run(t, "pkg/a.py", orchestrator.RunOptions{})
	assert.Equal(t, []outline{{"f", "pkg/a.py", 1, 3}}, outlineOf(res.Symbols))
	assert.Equal(t, []string{"pkg/a.py"}, f.store.Keys())

	missing := f.run(t, "gone.py", orchestrator.RunOptions{})
	assert.Empty(t, missing.Symbols)
	require.Len(t, missing.Failures, 1)
	assert.Equal(t, domain.FailureUnreadable, missing.Failures[0].Kind)

	unsupported := f.run(t, "notes.txt", orchestrator.RunOptions{})
	require.Len(t, unsupported.Failures, 1)
}

func TestRun_DirectoryScope(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.write(t, "pkg/a.py", srcA, past)
	f.write(t, "pkg/data.json", "{}", past)
	f.write(t, "b.py", srcB, past)

	res := f.run(t, "pkg", orchestrator.RunOptions{})
	assert.Equal(t, []outline{{"f", "pkg/a.py", 1, 3}}, outlineOf(res.Symbols))
	assert.Empty(t, res.Failures)
}

func TestRun_DeletedFileNotReturned(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.write(t, "a.py", srcA, past)
	f.write(t, "b.py", srcB, past)
	f.run(t, "", orchestrator.RunOptions{})

	require.NoError(t, os.Remove(filepath.Join(f.root, "b.py")))
	res := f.run(t, "", orchestrator.RunOptions{})
	assert.Equal(t, []outline{{"f", "a.py", 1, 3}}, outlineOf(res.Symbols))

	// The orphaned entry stays until cleanup.
	assert.Equal(t, []string{"a.py", "b.py"}, f.store.Keys())
}

func TestRun_MaxFileSize(t *testing.T) {
	t.Parallel()

	f := newFixture(t, withMaxFileSize(10))
	f.write(t, "a.py", srcA, past)

	res := f.run(t, "", orchestrator.RunOptions{})
	assert.Empty(t, res.Symbols)
	require.Len(t, res.Failures, 1)
	assert.ErrorContains(t, res.Failures[0].Err, domain.ErrFileTooLarge.Error())
}

func TestRun_CanceledBeforeStart(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.write(t, "a.py", srcA, past)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := f.orch.Run(ctx, domain.WholeRepository(), orchestrator.RunOptions{})
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, res)
	assert.True(t, orchestrator.IsCanceled(err))
}

func TestRun_CanceledMidRun(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ctrl := gomock.NewController(t)
	ex := mocks.NewMockExtractor(ctrl)
	ex.EXPECT().Supports(gomock.Any()).Return(true).AnyTimes()
	ex.EXPECT().Extract(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, path string, _ []byte) ([]domain.Symbol, error) {
			cancel()
			<-ctx.Done()
			return nil, ctx.Err()
		}).MinTimes(1)

	f := newFixture(t, withExtractor(ex))
	for _, name := range []string{"a.py", "b.py", "c.py", "d.py"} {
		f.write(t, name, srcA, past)
	}

	res, err := f.orch.Run(ctx, domain.WholeRepository(), orchestrator.RunOptions{})
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, res)
}

func TestRun_StoreWriteFailureIsWarning(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	store := mocks.NewMockCacheStore(ctrl)
	store.EXPECT().Get("a.py").Return(nil, false)
	store.EXPECT().Put("a.py", gomock.Any()).Return(zerr.New("disk full"))
	store.EXPECT().Flush().Return(zerr.New("disk full"))

	f := newFixture(t, withStore(store))
	f.write(t, "a.py", srcA, past)

	res := f.run(t, "", orchestrator.RunOptions{})
	assert.Equal(t, []outline{{"f", "a.py", 1, 3}}, outlineOf(res.Symbols))
	require.Len(t, res.Warnings, 2)
	for _, w := range res.Warnings {
		assert.ErrorContains(t, w, domain.ErrStoreWriteFailed.Error())
	}
}

func TestRun_Spans(t *testing.T) {
	t.Parallel()

	sr := tracetest.NewSpanRecorder()
	tp := trace.NewTracerProvider(trace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	f := newFixture(t, withTracer(telemetry.NewOTelTracer("test", telemetry.WithTracerProvider(tp))))
	f.write(t, "a.py", srcA, past)
	f.write(t, "b.py", srcB, past)

	f.run(t, "", orchestrator.RunOptions{})
	f.run(t, "", orchestrator.RunOptions{})

	counts := map[string]int{}
	for _, s := range sr.Ended() {
		counts[s.Name()]++
	}
	assert.Equal(t, 2, counts["symdex.run"])
	assert.Equal(t, 2, counts["symdex.extract"], "only misses are extracted")
}

func TestRun_ConcurrentRuns(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	for _, name := range []string{"a.py", "b.py", "pkg/c.py", "pkg/d.py"} {
		f.write(t, name, srcA, past)
	}

	var wg sync.WaitGroup
	results := make([]*domain.RunResult, 8)
	for i := range results {
		wg.Go(func() {
			res, err := f.orch.Run(context.Background(), domain.WholeRepository(), orchestrator.RunOptions{})
			assert.NoError(t, err)
			results[i] = res
		})
	}
	wg.Wait()

	evaluated := 0
	for _, res := range results {
		require.NotNil(t, res)
		assert.Len(t, res.Symbols, 4)
		assert.Empty(t, res.Failures)
		evaluated += res.Hits + res.Misses
	}
	assert.Len(t, f.store.Keys(), 4)

	// Runs sharing an evaluation each count the file.
	snap := f.orch.Stats().Snapshot()
	assert.Equal(t, int64(evaluated), snap.Hits+snap.Misses)
	assert.Equal(t, 8*4, evaluated)
}

func TestRun_CanceledRunDoesNotFailSharingRun(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctrl := gomock.NewController(t)
		entered := make(chan struct{})
		var calls atomic.Int32

		ex := mocks.NewMockExtractor(ctrl)
		ex.EXPECT().Supports(gomock.Any()).Return(true).AnyTimes()
		ex.EXPECT().Extract(gomock.Any(), "a.py", gomock.Any()).DoAndReturn(
			func(ctx context.Context, _ string, _ []byte) ([]domain.Symbol, error) {
				if calls.Add(1) == 1 {
					close(entered)
					<-ctx.Done()
					return nil, ctx.Err()
				}
				return []domain.Symbol{{Name: "f", Type: domain.SymbolFunction, LineStart: 1, LineEnd: 3}}, nil
			}).Times(2)

		f := newFixture(t, withExtractor(ex))
		f.write(t, "a.py", srcA, past)

		ctxA, cancelA := context.WithCancel(context.Background())
		defer cancelA()
		errA := make(chan error, 1)
		go func() {
			_, err := f.orch.Run(ctxA, domain.Scope{Path: "a.py"}, orchestrator.RunOptions{})
			errA <- err
		}()
		<-entered

		type outcome struct {
			res *domain.RunResult
			err error
		}
		doneB := make(chan outcome, 1)
		go func() {
			res, err := f.orch.Run(context.Background(), domain.Scope{Path: "a.py"}, orchestrator.RunOptions{})
			doneB <- outcome{res, err}
		}()

		// Run B now waits on the evaluation started by run A.
		synctest.Wait()
		cancelA()

		require.ErrorIs(t, <-errA, context.Canceled)

		b := <-doneB
		require.NoError(t, b.err)
		require.NotNil(t, b.res)
		assert.Equal(t, 1, b.res.Misses)
		assert.Equal(t, []outline{{"f", "a.py", 1, 3}}, outlineOf(b.res.Symbols))
	})
}

func TestFlightKey(t *testing.T) {
	t.Parallel()

	git := domain.GitState{Commit: "c1", Available: true}
	plain := policy.New(false, 0)
	verify := policy.New(true, 0)

	base := orchestrator.FlightKey("a.py", git, plain)
	assert.Equal(t, base, orchestrator.FlightKey("a.py", git, policy.New(false, 0)))
	assert.NotEqual(t, base, orchestrator.FlightKey("b.py", git, plain))
	assert.NotEqual(t, base, orchestrator.FlightKey("a.py", git, verify), "verification mode")
	assert.NotEqual(t, base, orchestrator.FlightKey("a.py", domain.GitState{Commit: "c2", Available: true}, plain))
	assert.NotEqual(t, base, orchestrator.FlightKey("a.py", domain.GitState{Commit: "c1", Available: true, Dirty: true}, plain))
}
