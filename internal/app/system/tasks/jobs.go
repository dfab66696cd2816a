// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"github.com/dalemusser/stratacontent/internal/app/store/audit"
	"github.com/dalemusser/stratacontent/internal/app/store/importrun"
	"go.uber.org/zap"
)

// ImportRunCleanupJob removes finished import runs older than retention.
// Running imports are left alone.
func ImportRunCleanupJob(runs *importrun.Store, retention time.Duration, logger *zap.Logger) Job {
	return Job{
		Name:     "import-run-cleanup",
		Interval: 1 * time.Hour,
		Timeout:  time.Minute,
		Run: func(ctx context.Context) error {
			deleted, err := runs.DeleteFinishedBefore(ctx, time.Now().Add(-retention))
			if err != nil {
				return err
			}
			if deleted > 0 {
				logger.Info("cleaned up old import runs",
					zap.Int64("deleted", deleted),
					zap.Duration("retention", retention))
			}
			return nil
		},
	}
}

// AuditLogCleanupJob removes audit events older than retention.
func AuditLogCleanupJob(events *audit.Store, retention time.Duration, logger *zap.Logger) Job {
	return Job{
		Name:     "audit-log-cleanup",
		Interval: 6 * time.Hour,
		Timeout:  5 * time.Minute,
		Run: func(ctx context.Context) error {
			deleted, err := events.DeleteBefore(ctx, time.Now().Add(-retention))
			if err != nil {
				return err
			}
			if deleted > 0 {
				logger.Info("cleaned up old audit events",
					zap.Int64("deleted", deleted),
					zap.Duration("retention", retention))
			}
			return nil
		},
	}
}
