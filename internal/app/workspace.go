package app

import (
	"errors"

	"go.trai.ch/symdex/internal/adapters/badger"    //nolint:depguard // Wired in app layer
	"go.trai.ch/symdex/internal/adapters/cas"       //nolint:depguard // Wired in app layer
	"go.trai.ch/symdex/internal/adapters/extractor" //nolint:depguard // Wired in app layer
	"go.trai.ch/symdex/internal/adapters/fs"        //nolint:depguard // Wired in app layer
	"go.trai.ch/symdex/internal/adapters/git"       //nolint:depguard // Wired in app layer
	"go.trai.ch/symdex/internal/core/domain"
	"go.trai.ch/symdex/internal/core/ports"
	"go.trai.ch/symdex/internal/engine/janitor"
	"go.trai.ch/symdex/internal/engine/orchestrator"
	"go.trai.ch/symdex/internal/engine/stats"
	"go.trai.ch/zerr"
)

// workspace is the object graph for one repository root. Everything that
// depends on the resolved configuration lives here.
type workspace struct {
	cfg     *domain.Config
	store   ports.CacheStore
	stats   *stats.Collector
	orch    *orchestrator.Orchestrator
	janitor *janitor.Janitor
}

func (a *App) workspace() (*workspace, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.ws != nil {
		return a.ws, nil
	}

	cfg, err := a.configLoader.Load(a.workDir)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}

	ws, err := a.openWorkspace(cfg)
	if err != nil {
		return nil, err
	}
	a.ws = ws
	return ws, nil
}

func (a *App) openWorkspace(cfg *domain.Config) (*workspace, error) {
	store, err := openStore(cfg, a.logger)
	if err != nil {
		return nil, err
	}

	memo, err := extractor.NewMemo(a.extractor, cfg.HashMemoSize)
	if err != nil {
		return nil, errors.Join(err, store.Close())
	}

	collector := stats.NewCollector(store)
	orch := orchestrator.New(orchestrator.Deps{
		Store:         store,
		Fingerprinter: fs.NewFingerprinter(),
		Git: git.NewTracker(cfg.Root, git.Options{
			Enabled:     cfg.GitEnabled,
			Pinned:      cfg.GitPinned,
			DetectDirty: cfg.GitDetectDirty,
		}),
		Extractor: memo,
		Resolver:  fs.NewResolver(a.walker, cfg.Ignore),
		Tracer:    a.tracer,
		Logger:    a.logger,
		Stats:     collector,
	}, orchestrator.Settings{
		Root:        cfg.Root,
		Workers:     cfg.Workers,
		VerifyHash:  cfg.VerifyHash,
		RacyWindow:  cfg.RacyWindow,
		MaxFileSize: cfg.MaxFileSize,
	})

	return &workspace{
		cfg:     cfg,
		store:   store,
		stats:   collector,
		orch:    orch,
		janitor: janitor.New(cfg.Root, cfg.MetaDir, store, collector, a.logger),
	}, nil
}

func openStore(cfg *domain.Config, log ports.Logger) (ports.CacheStore, error) {
	switch cfg.StoreBackend {
	case domain.StoreBackendBadger:
		store, err := badger.Open(badger.Options{Path: domain.BadgerPath(cfg.MetaDir)}, log)
		if err != nil {
			return nil, err
		}
		return store, nil
	case domain.StoreBackendJSON, "":
		return cas.NewStore(domain.SnapshotPath(cfg.MetaDir), log), nil
	default:
		return nil, zerr.With(domain.ErrUnknownStoreBackend, "backend", cfg.StoreBackend)
	}
}

func (ws *workspace) close() error {
	if err := ws.store.Close(); err != nil {
		return zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
	}
	return nil
}
