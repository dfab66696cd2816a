// internal/app/bootstrap/hooks.go
package bootstrap

import (
	"github.com/dalemusser/waffle/app"
)

// Hooks wires this app into the WAFFLE lifecycle. app.Run calls each
// function in order, from configuration loading through graceful shutdown.
var Hooks = app.Hooks[AppConfig, DBDeps]{
	Name:           "stratacontent", // used only for logging/diagnostics
	LoadConfig:     LoadConfig,      // load core + app config
	ValidateConfig: ValidateConfig,  // Mongo URI, auth mode, storage
	ConnectDB:      ConnectDB,       // Mongo, storage, FCM, token verifier
	EnsureSchema:   EnsureSchema,    // validators, indexes, admin seed
	Startup:        Startup,         // background cleanup tasks
	BuildHandler:   BuildHandler,    // router + middleware stack
	Shutdown:       Shutdown,        // stop tasks, disconnect MongoDB
}
