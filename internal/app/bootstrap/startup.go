// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/stratacontent/internal/app/store/audit"
	"github.com/dalemusser/stratacontent/internal/app/store/importrun"
	"github.com/dalemusser/stratacontent/internal/app/system/tasks"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs once after DB connections and schema setup are complete,
// but before the HTTP handler is built. It starts the background cleanup
// tasks.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	startTaskRunner(appCfg, deps, logger)
	return nil
}

// taskRunner is the global task runner instance, used for graceful shutdown.
var taskRunner *tasks.Runner

func startTaskRunner(appCfg AppConfig, deps DBDeps, logger *zap.Logger) {
	taskRunner = tasks.New(logger)

	if appCfg.ImportRetention > 0 {
		taskRunner.Register(tasks.ImportRunCleanupJob(importrun.New(deps.MongoDatabase), appCfg.ImportRetention, logger))
	}
	if appCfg.AuditRetention > 0 {
		taskRunner.Register(tasks.AuditLogCleanupJob(audit.New(deps.MongoDatabase), appCfg.AuditRetention, logger))
	}

	taskRunner.Start()
	logger.Info("background tasks started", zap.Strings("jobs", taskRunner.Jobs()))
}
