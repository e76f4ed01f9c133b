// Package orchestrator runs incremental symbol extraction over a scope,
// serving fresh files from the cache and extracting the rest.
package orchestrator

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.trai.ch/symdex/internal/core/domain"
	"go.trai.ch/symdex/internal/core/ports"
	"go.trai.ch/symdex/internal/engine/policy"
	"go.trai.ch/symdex/internal/engine/stats"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Deps are the collaborators of an Orchestrator.
type Deps struct {
	Store         ports.CacheStore
	Fingerprinter ports.Fingerprinter
	Git           ports.GitTracker
	Extractor     ports.Extractor
	Resolver      ports.FileResolver
	Tracer        ports.Tracer
	Logger        ports.Logger
	Stats         *stats.Collector
}

// Settings tune a run.
type Settings struct {
	// Root is the absolute repository root.
	Root string
	// Workers bounds concurrent file processing. Zero means runtime.NumCPU().
	Workers     int
	VerifyHash  bool
	RacyWindow  time.Duration
	MaxFileSize int64
}

// RunOptions override settings for a single run.
type RunOptions struct {
	// VerifyHash forces content verification for this run.
	VerifyHash bool
}

// Orchestrator coordinates the cache, the invalidation policy and the
// extractor.
type Orchestrator struct {
	deps     Deps
	settings Settings
	group    singleflight.Group
	now      func() time.Time
}

// New creates an Orchestrator.
func New(deps Deps, settings Settings) *Orchestrator {
	if settings.Workers <= 0 {
		settings.Workers = runtime.NumCPU()
	}
	if deps.Stats == nil {
		deps.Stats = stats.NewCollector(deps.Store)
	}
	return &Orchestrator{
		deps:     deps,
		settings: settings,
		now:      time.Now,
	}
}

// Stats returns the collector the orchestrator records into.
func (o *Orchestrator) Stats() *stats.Collector {
	return o.deps.Stats
}

type outcome struct {
	symbols []domain.Symbol
	hit     bool
	failure *domain.FileFailure
	warning error
	elapsed time.Duration
}

// runState accumulates the results of concurrent workers.
type runState struct {
	mu     sync.Mutex
	result domain.RunResult
}

func (s *runState) add(out outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if out.warning != nil {
		s.result.Warnings = append(s.result.Warnings, out.warning)
	}
	if out.failure != nil {
		s.result.Failures = append(s.result.Failures, *out.failure)
		return
	}
	if out.hit {
		s.result.Hits++
	} else {
		s.result.Misses++
	}
	s.result.Symbols = append(s.result.Symbols, out.symbols...)
}

// Run extracts the symbols of every analyzable file in scope. The scope path
// is relative to the repository root. Per-file failures are reported in the
// result; only cancellation and scope resolution errors are returned.
func (o *Orchestrator) Run(ctx context.Context, scope domain.Scope, opts RunOptions) (*domain.RunResult, error) {
	ctx, span := o.deps.Tracer.Start(ctx, "symdex.run")
	defer span.End()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	files, err := o.resolve(ctx, scope)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttribute("symdex.files", len(files))

	git := o.gitState(ctx)
	pol := policy.New(o.settings.VerifyHash || opts.VerifyHash, o.settings.RacyWindow)

	o.deps.Stats.BeginRun()

	state := &runState{}
	state.result.GitDirty = git.Available && git.Dirty
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.settings.Workers)

	for _, file := range files {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out, err := o.process(gctx, file, git, pol)
			if err != nil {
				return err
			}
			o.account(file, out)
			state.add(out)
			return nil
		})
	}

	waitErr := g.Wait()
	flushErr := o.deps.Store.Flush()

	if err := ctx.Err(); err != nil {
		if flushErr != nil {
			o.deps.Logger.Warn(fmt.Sprintf("cache not persisted: %v", flushErr))
		}
		span.RecordError(err)
		return nil, err
	}
	if waitErr != nil {
		span.RecordError(waitErr)
		return nil, waitErr
	}

	result := &state.result
	if flushErr != nil {
		warning := zerr.Wrap(flushErr, domain.ErrStoreWriteFailed.Error())
		o.deps.Logger.Warn(warning.Error())
		result.Warnings = append(result.Warnings, warning)
	}

	domain.SortSymbols(result.Symbols)
	slices.SortFunc(result.Failures, func(a, b domain.FileFailure) int {
		return cmp.Compare(a.Path, b.Path)
	})

	span.SetAttribute("symdex.hits", result.Hits)
	span.SetAttribute("symdex.misses", result.Misses)
	span.SetAttribute("symdex.failures", len(result.Failures))
	return result, nil
}

// resolve lists the root-relative files covered by scope. Directory and
// whole-repository scopes keep only files the extractor supports; a file
// scope is passed through so that unsupported or missing files surface as
// failures.
func (o *Orchestrator) resolve(ctx context.Context, scope domain.Scope) ([]string, error) {
	dir := ""
	if !scope.IsWholeRepository() {
		rel := path.Clean(filepath.ToSlash(scope.Path))
		info, err := os.Stat(filepath.Join(o.settings.Root, filepath.FromSlash(rel)))
		if err != nil || !info.IsDir() {
			return []string{rel}, nil
		}
		dir = rel
	}

	all, err := o.deps.Resolver.ResolveFiles(ctx, o.settings.Root, dir)
	if err != nil {
		return nil, err
	}

	files := all[:0]
	for _, f := range all {
		if o.deps.Extractor.Supports(f) {
			files = append(files, f)
		}
	}
	return files, nil
}

// gitState reads the repository state once per run. Errors degrade to an
// absent state so that invalidation falls back to file signals.
func (o *Orchestrator) gitState(ctx context.Context) domain.GitState {
	state, err := o.deps.Git.CurrentState(ctx)
	if err != nil {
		o.deps.Logger.Warn(fmt.Sprintf("git state unavailable, using file signals only: %v", err))
		return domain.GitState{}
	}
	return state
}

// process serves one file. At most one evaluation per path is in flight for
// the same git state and verification mode; concurrent callers share its
// outcome. A caller that joined a flight cancelled by another run evaluates
// the path again under its own context.
func (o *Orchestrator) process(
	ctx context.Context,
	rel string,
	git domain.GitState,
	pol *policy.Policy,
) (outcome, error) {
	key := flightKey(rel, git, pol)
	for {
		v, err, shared := o.group.Do(key, func() (any, error) {
			return o.processFile(ctx, rel, git, pol)
		})
		if err != nil {
			if shared && IsCanceled(err) && ctx.Err() == nil {
				continue
			}
			return outcome{}, err
		}
		out, _ := v.(outcome)
		if shared {
			out.symbols = slices.Clone(out.symbols)
		}
		return out, nil
	}
}

func flightKey(rel string, git domain.GitState, pol *policy.Policy) string {
	return strings.Join([]string{
		rel,
		git.Commit,
		strconv.FormatBool(git.Available),
		strconv.FormatBool(git.Pinned),
		strconv.FormatBool(git.Dirty),
		strconv.FormatBool(pol.VerifyHash),
	}, "\x00")
}

// account records one file of this run in the statistics. Runs that share a
// flight each count the file.
func (o *Orchestrator) account(rel string, out outcome) {
	if out.failure != nil {
		o.deps.Stats.RecordFailure(rel)
		return
	}
	o.deps.Stats.Record(rel, out.hit, out.elapsed)
}

//nolint:cyclop,funlen // linear pipeline of stat, evaluate, read, extract, store
func (o *Orchestrator) processFile(
	ctx context.Context,
	rel string,
	git domain.GitState,
	pol *policy.Policy,
) (outcome, error) {
	start := o.now()
	abs := filepath.Join(o.settings.Root, filepath.FromSlash(rel))

	signals, err := o.deps.Fingerprinter.Stat(abs)
	if err != nil {
		return o.fail(rel, domain.FailureUnreadable, zerr.Wrap(err, domain.ErrFileUnreadable.Error())), nil
	}

	if o.settings.MaxFileSize > 0 && signals.Size > o.settings.MaxFileSize {
		return o.fail(rel, domain.FailureExtraction, zerr.With(domain.ErrFileTooLarge, "size", signals.Size)), nil
	}

	var warning error
	if entry, ok := o.deps.Store.Get(rel); ok {
		decision := pol.Evaluate(entry, policy.Current{
			Git:     git,
			Signals: signals,
			Hash: func() (string, error) {
				return o.deps.Fingerprinter.Hash(abs)
			},
		})
		if decision.Valid {
			if decision.Hash != "" && pol.Racy(entry) {
				warning = o.reconfirm(entry)
			}
			return outcome{symbols: entry.Symbols, hit: true, warning: warning, elapsed: o.now().Sub(start)}, nil
		}
	}

	content, err := o.deps.Fingerprinter.Read(abs)
	if err != nil {
		return o.fail(rel, domain.FailureUnreadable, zerr.Wrap(err, domain.ErrFileUnreadable.Error())), nil
	}

	symbols, err := o.extract(ctx, rel, content)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return outcome{}, ctxErr
		}
		return o.fail(rel, domain.FailureExtraction, zerr.Wrap(err, domain.ErrExtractionFailed.Error())), nil
	}

	for i := range symbols {
		symbols[i].File = rel
	}

	entry := domain.CacheEntry{
		Path:        rel,
		Mtime:       signals.Mtime,
		Size:        signals.Size,
		ContentHash: o.deps.Fingerprinter.HashBytes(content),
		Symbols:     symbols,
		ExtractedAt: o.now(),
	}
	if git.Available {
		entry.GitCommit = git.Commit
	}

	if err := o.deps.Store.Put(rel, entry); err != nil {
		warning = zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "path", rel)
		o.deps.Logger.Warn(warning.Error())
	}

	return outcome{symbols: symbols, warning: warning, elapsed: o.now().Sub(start)}, nil
}

func (o *Orchestrator) extract(ctx context.Context, rel string, content []byte) ([]domain.Symbol, error) {
	ctx, span := o.deps.Tracer.Start(ctx, "symdex.extract")
	defer span.End()
	span.SetAttribute("symdex.file", rel)

	symbols, err := o.deps.Extractor.Extract(ctx, rel, content)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttribute("symdex.symbols", len(symbols))
	return symbols, nil
}

// reconfirm moves the extraction time of a racily clean entry whose content
// was just verified, so later runs can trust its timestamp again.
func (o *Orchestrator) reconfirm(entry *domain.CacheEntry) error {
	entry.ExtractedAt = o.now()
	if err := o.deps.Store.Put(entry.Path, *entry); err != nil {
		warning := zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "path", entry.Path)
		o.deps.Logger.Warn(warning.Error())
		return warning
	}
	return nil
}

func (o *Orchestrator) fail(rel string, kind domain.FailureKind, err error) outcome {
	err = zerr.With(err, "path", rel)
	o.deps.Logger.Warn(fmt.Sprintf("skipping %s: %v", rel, err))
	return outcome{failure: &domain.FileFailure{Path: rel, Kind: kind, Err: err}}
}

// IsCanceled reports whether err comes from a cancelled or expired context.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
