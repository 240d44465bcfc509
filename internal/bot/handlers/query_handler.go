package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/recapbot/recapbot/internal/markup"
)

// NewQueryHandler returns a handler for the /query command: a capped
// substring search over the group's stored history. No model call is
// involved.
func NewQueryHandler(deps HandlerDeps) bot.HandlerFunc {
	return queryHandler{deps}.Handle
}

type queryHandler struct {
	deps HandlerDeps
}

func (h queryHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "query")

	msg := update.Message
	if msg == nil {
		return
	}
	chatID := msg.Chat.ID

	term := commandArgument(msg.Text)
	if term == "" {
		h.reply(ctx, b, chatID, h.deps.Config.Messages.UsageQuery)
		return
	}

	log.InfoContext(ctx, "Handling /query command", "chat_id", chatID)

	results, err := h.deps.Store.SearchMessages(ctx, chatID, term, h.deps.Config.Digest.SearchLimit)
	if err != nil {
		log.ErrorContext(ctx, "Message search failed", "error", err, "chat_id", chatID)
		h.reply(ctx, b, chatID, h.deps.Config.Messages.GeneralError)
		return
	}
	if len(results) == 0 {
		h.reply(ctx, b, chatID, h.deps.Config.Messages.NoResults)
		return
	}

	var sb strings.Builder
	for _, m := range results {
		ts := time.UnixMilli(m.TimeStamp).Format("2006-01-02 15:04")
		fmt.Fprintf(&sb, "%s %s: %s\n",
			markup.Escape(ts), markup.Escape(m.UserName), markup.Escape(m.Content))
	}

	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      sb.String(),
		ParseMode: models.ParseModeMarkdown,
	}); err != nil {
		log.ErrorContext(ctx, "Failed to send search results", "error", err, "chat_id", chatID)
	}
}

func (h queryHandler) reply(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		h.deps.Logger.ErrorContext(ctx, "Failed to send reply", "handler", "query", "error", err, "chat_id", chatID)
	}
}
