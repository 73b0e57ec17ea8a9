package orchestrator

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/envcache/internal/adapters/cas"
	"go.trai.ch/envcache/internal/adapters/fs"
	"go.trai.ch/envcache/internal/adapters/lock"
	"go.trai.ch/envcache/internal/adapters/logger"
	"go.trai.ch/envcache/internal/adapters/shell"
	"go.trai.ch/envcache/internal/adapters/telemetry"
	"go.trai.ch/envcache/internal/core/ports"
)

// NodeID is the unique identifier for the orchestrator Graft node.
const NodeID graft.ID = "engine.orchestrator"

func init() {
	graft.Register(graft.Node[*Orchestrator]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			shell.WatchListerNodeID,
			fs.HasherNodeID,
			cas.NodeID,
			shell.BuilderNodeID,
			lock.NodeID,
			telemetry.TracerNodeID,
			logger.NodeID,
		},
		Run: runNode,
	})
}

func runNode(ctx context.Context) (*Orchestrator, error) {
	lister, err := graft.Dep[ports.WatchLister](ctx)
	if err != nil {
		return nil, err
	}
	hasher, err := graft.Dep[ports.Fingerprinter](ctx)
	if err != nil {
		return nil, err
	}
	store, err := graft.Dep[ports.EnvironmentStore](ctx)
	if err != nil {
		return nil, err
	}
	builder, err := graft.Dep[ports.Builder](ctx)
	if err != nil {
		return nil, err
	}
	locker, err := graft.Dep[ports.Locker](ctx)
	if err != nil {
		return nil, err
	}
	tracer, err := graft.Dep[ports.Tracer](ctx)
	if err != nil {
		return nil, err
	}
	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}
	return New(lister, hasher, store, builder, locker, tracer, log), nil
}
