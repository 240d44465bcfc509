// Package tasks implements the scheduled background work: the time-sliced
// digest pass over active groups and the daily retention sweep.
package tasks

import (
	"log/slog"

	"github.com/recapbot/recapbot/internal/activity"
	"github.com/recapbot/recapbot/internal/config"
	"github.com/recapbot/recapbot/internal/database"
	"github.com/recapbot/recapbot/internal/digest"
)

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger  *slog.Logger
	Store   database.Store
	Tracker *activity.Tracker
	Digest  *digest.Orchestrator
	Config  *config.Config
}
