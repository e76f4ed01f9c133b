package ports

import (
	"context"

	"go.trai.ch/symdex/internal/core/domain"
)

// GitTracker reports the version-control state of the repository.
//
//go:generate go run go.uber.org/mock/mockgen -source=git.go -destination=mocks/mock_git.go -package=mocks
type GitTracker interface {
	// CurrentState returns the HEAD commit and related flags.
	// A directory without git metadata yields a state with Available set to false.
	CurrentState(ctx context.Context) (domain.GitState, error)
}
