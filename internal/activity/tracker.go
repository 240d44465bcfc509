// Package activity maintains a short-TTL snapshot of which groups are
// active enough to qualify for scheduled summaries, so the batch scheduler
// never runs a full aggregate scan on every tick.
package activity

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/recapbot/recapbot/internal/database"
)

// snapshotKey is the single deployment-wide cache identity. The snapshot
// is not keyed per call: one list serves a whole scheduling cycle.
const snapshotKey = "active-groups"

// Source is the store query the tracker snapshots.
type Source interface {
	ActiveGroups(ctx context.Context, since int64, threshold int) ([]database.GroupActivity, error)
}

// Tracker caches the active-group list with a TTL that outlives one
// scheduler tick but expires before the next day's cycle. The cached list
// may be stale within that window; shard membership derived from it stays
// consistent for a whole cycle, which is the property that matters.
type Tracker struct {
	source Source
	cache  *ttlcache.Cache[string, []database.GroupActivity]
	logger *slog.Logger
	window time.Duration
}

// NewTracker creates a tracker over the given source. window is the
// trailing activity window (normally 24h), ttl the snapshot lifetime.
func NewTracker(source Source, logger *slog.Logger, window, ttl time.Duration) *Tracker {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	cache := ttlcache.New[string, []database.GroupActivity](
		ttlcache.WithTTL[string, []database.GroupActivity](ttl),
		ttlcache.WithDisableTouchOnHit[string, []database.GroupActivity](),
	)
	go cache.Start()

	return &Tracker{
		source: source,
		cache:  cache,
		logger: logger.With("component", "activity_tracker"),
		window: window,
	}
}

// ActiveGroups returns the snapshot list of groups whose trailing-window
// message count exceeds threshold. A cache hit returns the cached list
// verbatim; a miss queries the source and populates the cache without
// blocking the caller on the write. Query failures yield an empty list.
func (t *Tracker) ActiveGroups(ctx context.Context, threshold int) []database.GroupActivity {
	if item := t.cache.Get(snapshotKey); item != nil {
		t.logger.DebugContext(ctx, "Serving active groups from snapshot", "count", len(item.Value()))
		return item.Value()
	}

	since := time.Now().Add(-t.window).UnixMilli()
	groups, err := t.source.ActiveGroups(ctx, since, threshold)
	if err != nil {
		t.logger.ErrorContext(ctx, "Failed to compute active groups, treating as none", "error", err)
		return nil
	}

	// Population is detached so the scheduler tick returns promptly.
	go t.cache.Set(snapshotKey, groups, ttlcache.DefaultTTL)

	t.logger.InfoContext(ctx, "Recomputed active group snapshot", "count", len(groups), "threshold", threshold)
	return groups
}

// Stop shuts down the cache's expiry loop.
func (t *Tracker) Stop() {
	t.cache.Stop()
}
