// Package digest orchestrates summarization and question answering: it
// fetches a message window, invokes the language model, and routes the
// raw output through the markup pipeline before delivery.
package digest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/recapbot/recapbot/internal/config"
	"github.com/recapbot/recapbot/internal/database"
	"github.com/recapbot/recapbot/internal/gemini"
	"github.com/recapbot/recapbot/internal/markup"
)

// Window selects a retrieval strategy: a trailing-hours window when Hours
// is set, otherwise the most recent Latest messages (capped).
type Window struct {
	Hours  int
	Latest int
}

// Orchestrator wires the store, the model, and the reply pipeline.
type Orchestrator struct {
	logger *slog.Logger
	store  database.Store
	model  gemini.Client
	tgBot  *tgbot.Bot
	cfg    *config.DigestConfig
}

// New creates an orchestrator.
func New(logger *slog.Logger, store database.Store, model gemini.Client, tgBot *tgbot.Bot, cfg *config.DigestConfig) *Orchestrator {
	return &Orchestrator{
		logger: logger.With("component", "digest"),
		store:  store,
		model:  model,
		tgBot:  tgBot,
		cfg:    cfg,
	}
}

// Summarize fetches the window for a group, invokes the model, and
// returns the composed reply text. An empty string with nil error means
// there was nothing to summarize.
func (o *Orchestrator) Summarize(ctx context.Context, groupID int64, w Window) (string, error) {
	messages, err := o.fetch(ctx, groupID, w)
	if err != nil {
		o.logger.ErrorContext(ctx, "Failed to fetch message window, skipping group",
			"group_id", groupID, "error", err)
		return "", nil
	}
	if len(messages) == 0 {
		return "", nil
	}

	raw, err := o.model.Summarize(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("summary generation failed for group %d: %w", groupID, err)
	}

	return markup.Compose(raw, o.composeOptions()), nil
}

// Answer runs a question against the group's window and returns the
// composed reply text.
func (o *Orchestrator) Answer(ctx context.Context, groupID int64, question string, w Window) (string, error) {
	messages, err := o.fetch(ctx, groupID, w)
	if err != nil {
		o.logger.ErrorContext(ctx, "Failed to fetch message window for question",
			"group_id", groupID, "error", err)
		return "", nil
	}
	if len(messages) == 0 {
		return "", nil
	}

	raw, err := o.model.Answer(ctx, messages, question)
	if err != nil {
		return "", fmt.Errorf("answer generation failed for group %d: %w", groupID, err)
	}

	return markup.Compose(raw, o.composeOptions()), nil
}

// Deliver sends composed MarkdownV2 text to a chat.
func (o *Orchestrator) Deliver(ctx context.Context, chatID int64, text string) error {
	_, err := o.tgBot.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeMarkdown,
	})
	if err != nil {
		return fmt.Errorf("failed to deliver message to chat %d: %w", chatID, err)
	}
	return nil
}

// ProbePrivate sends a short probe message to the user's private chat.
// A rejection means the user has never opened a private chat with the
// bot (or blocked it) and private delivery would fail.
func (o *Orchestrator) ProbePrivate(ctx context.Context, userID int64, text string) error {
	_, err := o.tgBot.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID: userID,
		Text:   text,
	})
	if err != nil {
		return fmt.Errorf("private probe to user %d rejected: %w", userID, err)
	}
	return nil
}

func (o *Orchestrator) fetch(ctx context.Context, groupID int64, w Window) ([]*database.Message, error) {
	if w.Hours > 0 {
		since := time.Now().Add(-time.Duration(w.Hours) * time.Hour).UnixMilli()
		return o.store.MessagesSince(ctx, groupID, since)
	}

	limit := w.Latest
	if limit <= 0 || limit > o.cfg.MaxLatestMessages {
		limit = o.cfg.MaxLatestMessages
	}
	return o.store.LatestMessages(ctx, groupID, limit)
}

func (o *Orchestrator) composeOptions() markup.ComposeOptions {
	return markup.ComposeOptions{
		ModelName:       o.model.ModelName(),
		ReferencePrefix: o.cfg.ReferencePrefix,
		LinkRepairs:     o.cfg.LinkRepairs,
		FooterLabel:     o.cfg.FooterLabel,
		FooterURL:       o.cfg.FooterURL,
	}
}
