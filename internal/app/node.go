package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/envcache/internal/adapters/cas"       //nolint:depguard // Wired in app layer
	"go.trai.ch/envcache/internal/adapters/config"    //nolint:depguard // Wired in app layer
	"go.trai.ch/envcache/internal/adapters/hook"      //nolint:depguard // Wired in app layer
	"go.trai.ch/envcache/internal/adapters/lock"      //nolint:depguard // Wired in app layer
	"go.trai.ch/envcache/internal/adapters/logger"    //nolint:depguard // Wired in app layer
	"go.trai.ch/envcache/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/envcache/internal/adapters/watcher"   //nolint:depguard // Wired in app layer
	"go.trai.ch/envcache/internal/core/ports"
	"go.trai.ch/envcache/internal/engine/orchestrator"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

// Components holds what the entry point needs besides the App itself.
type Components struct {
	App    *App
	Logger ports.Logger
	Tracer ports.Tracer
}

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			orchestrator.NodeID,
			cas.NodeID,
			lock.NodeID,
			hook.NodeID,
			watcher.NodeID,
			logger.NodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
			telemetry.TracerNodeID,
		},
		Run: runComponentsNode,
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}
	engine, err := graft.Dep[*orchestrator.Orchestrator](ctx)
	if err != nil {
		return nil, err
	}
	store, err := graft.Dep[ports.EnvironmentStore](ctx)
	if err != nil {
		return nil, err
	}
	locker, err := graft.Dep[ports.Locker](ctx)
	if err != nil {
		return nil, err
	}
	renderer, err := graft.Dep[ports.HookRenderer](ctx)
	if err != nil {
		return nil, err
	}
	fileWatcher, err := graft.Dep[ports.Watcher](ctx)
	if err != nil {
		return nil, err
	}
	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	return New(loader, engine, store, locker, renderer, fileWatcher, log), nil
}

func runComponentsNode(ctx context.Context) (*Components, error) {
	app, err := graft.Dep[*App](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	tracer, err := graft.Dep[ports.Tracer](ctx)
	if err != nil {
		return nil, err
	}

	return &Components{
		App:    app,
		Logger: log,
		Tracer: tracer,
	}, nil
}
