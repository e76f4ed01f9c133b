package extractor

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/symdex/internal/core/ports"
)

// NodeID is the unique identifier for the extractor registry Graft node.
const NodeID graft.ID = "adapter.extractor"

func init() {
	graft.Register(graft.Node[ports.Extractor]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Extractor, error) {
			return NewDefaultRegistry(), nil
		},
	})
}
