package hook

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/envcache/internal/core/ports"
)

// NodeID is the unique identifier for the hook renderer Graft node.
const NodeID graft.ID = "adapter.hook_renderer"

func init() {
	graft.Register(graft.Node[ports.HookRenderer]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.HookRenderer, error) {
			return NewRenderer(), nil
		},
	})
}
