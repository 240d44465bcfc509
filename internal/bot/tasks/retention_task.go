package tasks

import (
	"context"
	"log/slog"
	"time"

	"github.com/recapbot/recapbot/internal/database"
)

// newRetentionTask creates the daily cleanup sweep. Both passes run
// detached from the scheduler tick and from each other: a failure in one
// is logged and never reaches the summarization path.
func newRetentionTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "retention")

	return func(ctx context.Context) error {
		// Detach from the tick's cancellation so cleanup finishes on its
		// own schedule.
		bg := context.WithoutCancel(ctx)

		go trimHistories(bg, log, deps.Store, deps.Config.Digest.RetentionRows)
		go purgeAgedImages(bg, log, deps.Store, deps.Config.Digest.ImageRetention)

		return nil
	}
}

func trimHistories(ctx context.Context, log *slog.Logger, store database.Store, keep int) {
	groupIDs, err := store.GroupIDs(ctx)
	if err != nil {
		log.ErrorContext(ctx, "History trim: failed to list groups", "error", err)
		return
	}

	var total int64
	for _, id := range groupIDs {
		removed, err := store.TrimGroupHistory(ctx, id, keep)
		if err != nil {
			log.ErrorContext(ctx, "History trim failed for group", "group_id", id, "error", err)
			continue
		}
		total += removed
	}

	log.InfoContext(ctx, "History trim complete", "groups", len(groupIDs), "rows_removed", total)
}

func purgeAgedImages(ctx context.Context, log *slog.Logger, store database.Store, retention time.Duration) {
	before := time.Now().Add(-retention).UnixMilli()

	removed, err := store.DeleteAgedImages(ctx, before)
	if err != nil {
		log.ErrorContext(ctx, "Image purge failed", "error", err)
		return
	}

	log.InfoContext(ctx, "Image purge complete", "rows_removed", removed)
}
