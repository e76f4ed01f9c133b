// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/symdex/internal/adapters/config"
	_ "go.trai.ch/symdex/internal/adapters/extractor"
	_ "go.trai.ch/symdex/internal/adapters/fs"
	_ "go.trai.ch/symdex/internal/adapters/logger"
	_ "go.trai.ch/symdex/internal/adapters/telemetry"
	_ "go.trai.ch/symdex/internal/adapters/watcher"
	// Register app nodes.
	_ "go.trai.ch/symdex/internal/app"
)
