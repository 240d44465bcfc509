package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/recapbot/recapbot/internal/digest"
)

// NewSummaryHandler returns a handler for the /summary command. The
// argument selects the window: a plain number means the latest N
// messages, a number with an "h" suffix means the trailing N hours.
func NewSummaryHandler(deps HandlerDeps) bot.HandlerFunc {
	return summaryHandler{deps}.Handle
}

type summaryHandler struct {
	deps HandlerDeps
}

func (h summaryHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "summary")

	msg := update.Message
	if msg == nil {
		return
	}
	chatID := msg.Chat.ID

	w, err := digest.ParseWindow(commandArgument(msg.Text), h.deps.Config.Digest.MaxLatestMessages)
	if err != nil {
		log.DebugContext(ctx, "Rejected window argument", "chat_id", chatID, "error", err)
		h.reply(ctx, b, chatID, h.deps.Config.Messages.UsageSummary)
		return
	}

	log.InfoContext(ctx, "Handling /summary command", "chat_id", chatID, "hours", w.Hours, "latest", w.Latest)

	text, err := h.deps.Digest.Summarize(ctx, chatID, w)
	if err != nil {
		log.ErrorContext(ctx, "On-demand summary failed", "error", err, "chat_id", chatID)
		h.reply(ctx, b, chatID, h.deps.Config.Messages.GeneralError)
		return
	}
	if text == "" {
		h.reply(ctx, b, chatID, h.deps.Config.Messages.NothingToSummarize)
		return
	}

	if err := h.deps.Digest.Deliver(ctx, chatID, text); err != nil {
		log.ErrorContext(ctx, "Failed to deliver summary", "error", err, "chat_id", chatID)
	}
}

func (h summaryHandler) reply(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		h.deps.Logger.ErrorContext(ctx, "Failed to send reply", "handler", "summary", "error", err, "chat_id", chatID)
	}
}
