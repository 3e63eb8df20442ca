package daemon

import (
	"context"
	"log/slog"

	"studio/internal/batch"
	"studio/internal/logging"
	"studio/internal/notifications"
)

// BatchSnapshotStore persists batch runs.
type BatchSnapshotStore interface {
	SaveBatchItems(ctx context.Context, snap batch.Snapshot) error
}

// BatchRecorder persists every batch transition and announces finished runs.
func BatchRecorder(st BatchSnapshotStore, notifier notifications.Service, logger *slog.Logger) batch.Observer {
	logger = logging.NewComponentLogger(logger, "batch-recorder")
	if notifier == nil {
		notifier = notifications.NewService(nil)
	}
	return batch.ObserverFunc(func(ctx context.Context, snap batch.Snapshot) {
		saveCtx := context.WithoutCancel(ctx)
		if err := st.SaveBatchItems(saveCtx, snap); err != nil {
			logging.WarnWithContext(logger, "batch snapshot not persisted", "batch_persist_failed",
				logging.String(logging.FieldRunID, snap.RunID),
				logging.Error(err),
				logging.String(logging.FieldImpact, "batch progress will be lost if the daemon restarts"),
				logging.String(logging.FieldErrorHint, "check state_dir permissions and free space"),
			)
		}
		if snap.Running {
			return
		}
		logger.Info("batch run finished",
			logging.String(logging.FieldRunID, snap.RunID),
			logging.Int("completed", snap.Report.Completed),
			logging.Int("failed", snap.Report.Failed),
			logging.Int("total", snap.Report.Total),
		)
		err := notifier.Publish(saveCtx, notifications.EventBatchCompleted, notifications.Payload{
			"completed": snap.Report.Completed,
			"failed":    snap.Report.Failed,
			"total":     snap.Report.Total,
		})
		if err != nil {
			logger.Debug("batch notification not sent", logging.Error(err))
		}
	})
}
