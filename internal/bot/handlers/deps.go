// Package handlers implements the Telegram command surface and the
// default message-capture handler.
package handlers

import (
	"log/slog"

	"github.com/recapbot/recapbot/internal/config"
	"github.com/recapbot/recapbot/internal/database"
	"github.com/recapbot/recapbot/internal/digest"
)

// HandlerDeps provides dependencies for Telegram handlers.
type HandlerDeps struct {
	Logger *slog.Logger
	Config *config.Config
	Store  database.Store
	Digest *digest.Orchestrator
}
