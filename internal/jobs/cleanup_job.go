package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// CleanupJobName is the name of the attachment purge job
const CleanupJobName = "attachment_purge"

// PurgeService defines the interface for purging soft-deleted attachments.
// This interface allows the job to call the service without importing the
// service package directly.
type PurgeService interface {
	// PurgeDeleted removes soft-deleted attachments older than the retention
	// window, deleting their blobs first. Returns purged and failed counts.
	PurgeDeleted(ctx context.Context, retention time.Duration) (purged int, failed int, err error)
}

// RegisterCleanupJob registers the scheduled purge of deleted attachments.
func RegisterCleanupJob(
	scheduler *Scheduler,
	svc PurgeService,
	logger *zap.Logger,
	cronExpr string,
	retention time.Duration,
	timeout time.Duration,
) error {
	return scheduler.AddJob(CleanupJobName, cronExpr, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		purged, failed, err := svc.PurgeDeleted(ctx, retention)
		if err != nil {
			logger.Error("attachment purge failed",
				zap.Error(err),
			)
			return
		}

		logger.Info("attachment purge finished",
			zap.Int("purged", purged),
			zap.Int("failed", failed),
			zap.Duration("retention", retention),
		)
	})
}
