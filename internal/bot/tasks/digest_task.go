package tasks

import (
	"context"
	"slices"
	"time"

	"github.com/recapbot/recapbot/internal/digest"
)

// newDigestTask creates the per-tick digest pass. Each tick owns one
// deterministic shard of the active-group snapshot; groups are processed
// sequentially and a failure in one never aborts the shard.
func newDigestTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "digest")

	return func(ctx context.Context) error {
		cfg := deps.Config.Digest

		groups := deps.Tracker.ActiveGroups(ctx, cfg.ActivityThreshold)
		if len(groups) == 0 {
			log.DebugContext(ctx, "No active groups, nothing to do")
			return nil
		}

		shard := ShardIndex(time.Now(), cfg.TickMinutes, cfg.ShardCount)
		log.InfoContext(ctx, "Processing shard",
			"shard", shard, "shard_count", cfg.ShardCount, "active_groups", len(groups))

		processed := 0
		for i, g := range groups {
			if !InShard(i, cfg.ShardCount, shard) {
				continue
			}
			processed++

			text, err := deps.Digest.Summarize(ctx, g.GroupID, digest.Window{Hours: cfg.WindowHours})
			if err != nil {
				log.ErrorContext(ctx, "Summary failed, moving to next group",
					"group_id", g.GroupID, "error", err)
				continue
			}
			if text == "" {
				log.DebugContext(ctx, "Empty window, skipping group", "group_id", g.GroupID)
				continue
			}

			// Muted groups are skipped at delivery only, after the model
			// call has already run.
			if slices.Contains(cfg.MutedGroupIDs, g.GroupID) {
				log.InfoContext(ctx, "Delivery muted for group", "group_id", g.GroupID)
				continue
			}

			if err := deps.Digest.Deliver(ctx, g.GroupID, text); err != nil {
				log.ErrorContext(ctx, "Delivery failed, moving to next group",
					"group_id", g.GroupID, "error", err)
			}
		}

		log.InfoContext(ctx, "Shard complete", "shard", shard, "groups_processed", processed)
		return nil
	}
}
