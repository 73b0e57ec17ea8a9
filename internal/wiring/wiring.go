// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/envcache/internal/adapters/cas"
	_ "go.trai.ch/envcache/internal/adapters/config"
	_ "go.trai.ch/envcache/internal/adapters/fs"
	_ "go.trai.ch/envcache/internal/adapters/hook"
	_ "go.trai.ch/envcache/internal/adapters/lock"
	_ "go.trai.ch/envcache/internal/adapters/logger"
	_ "go.trai.ch/envcache/internal/adapters/shell"
	_ "go.trai.ch/envcache/internal/adapters/telemetry"
	_ "go.trai.ch/envcache/internal/adapters/watcher"
	// Register app and engine nodes.
	_ "go.trai.ch/envcache/internal/app"
	_ "go.trai.ch/envcache/internal/engine/orchestrator"
)
