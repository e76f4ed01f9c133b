// Package git reads repository version-control state with go-git.
package git

import (
	"context"
	"errors"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"go.trai.ch/symdex/internal/core/domain"
	"go.trai.ch/symdex/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.GitTracker = (*Tracker)(nil)

// Options controls what the tracker reports.
type Options struct {
	// Enabled turns git tracking on. A disabled tracker always reports no state.
	Enabled bool
	// Pinned marks the checkout as fixed to one ref.
	Pinned bool
	// DetectDirty additionally reports uncommitted worktree changes.
	DetectDirty bool
}

// Tracker implements ports.GitTracker for the repository containing root.
type Tracker struct {
	root string
	opts Options
}

// NewTracker creates a Tracker for the repository that contains root.
func NewTracker(root string, opts Options) *Tracker {
	return &Tracker{root: root, opts: opts}
}

// CurrentState returns the HEAD commit of the repository.
// Plain directories and repositories without commits report Available=false.
func (t *Tracker) CurrentState(ctx context.Context) (domain.GitState, error) {
	if !t.opts.Enabled {
		return domain.GitState{}, nil
	}
	if err := ctx.Err(); err != nil {
		return domain.GitState{}, err
	}

	repo, err := gogit.PlainOpenWithOptions(t.root, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, gogit.ErrRepositoryNotExists) {
			return domain.GitState{}, nil
		}
		return domain.GitState{}, zerr.With(zerr.Wrap(err, domain.ErrGitStateFailed.Error()), "root", t.root)
	}

	head, err := repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return domain.GitState{}, nil
		}
		return domain.GitState{}, zerr.With(zerr.Wrap(err, domain.ErrGitStateFailed.Error()), "root", t.root)
	}

	state := domain.GitState{
		Commit:    head.Hash().String(),
		Available: true,
		Pinned:    t.opts.Pinned,
	}

	if t.opts.DetectDirty {
		dirty, err := isDirty(repo)
		if err != nil {
			return domain.GitState{}, zerr.With(zerr.Wrap(err, domain.ErrGitStateFailed.Error()), "root", t.root)
		}
		state.Dirty = dirty
	}

	return state, nil
}

func isDirty(repo *gogit.Repository) (bool, error) {
	wt, err := repo.Worktree()
	if err != nil {
		if errors.Is(err, gogit.ErrIsBareRepository) {
			return false, nil
		}
		return false, err
	}

	status, err := wt.Status()
	if err != nil {
		return false, err
	}
	return !status.IsClean(), nil
}
