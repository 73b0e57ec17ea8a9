package shell

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/envcache/internal/adapters/logger"
	"go.trai.ch/envcache/internal/core/ports"
)

const (
	// BuilderNodeID is the unique identifier for the builder Graft node.
	BuilderNodeID graft.ID = "adapter.builder"
	// WatchListerNodeID is the unique identifier for the watch-list provider Graft node.
	WatchListerNodeID graft.ID = "adapter.watch_lister"
)

func init() {
	graft.Register(graft.Node[ports.Builder]{
		ID:        BuilderNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (ports.Builder, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewBuilder(log), nil
		},
	})

	graft.Register(graft.Node[ports.WatchLister]{
		ID:        WatchListerNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (ports.WatchLister, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewWatchLister(log), nil
		},
	})
}
