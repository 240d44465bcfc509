package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/recapbot/recapbot/internal/digest"
)

// NewAskHandler returns a handler for the /ask command. Answers are
// delivered to the asker's private chat; the probe message verifies the
// private channel is open before any model work is spent.
func NewAskHandler(deps HandlerDeps) bot.HandlerFunc {
	return askHandler{deps}.Handle
}

type askHandler struct {
	deps HandlerDeps
}

func (h askHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "ask")

	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	chatID := msg.Chat.ID
	userID := msg.From.ID

	question := commandArgument(msg.Text)
	if question == "" {
		h.reply(ctx, b, chatID, h.deps.Config.Messages.UsageAsk)
		return
	}

	log.InfoContext(ctx, "Handling /ask command", "chat_id", chatID, "user_id", userID)

	if err := h.deps.Digest.ProbePrivate(ctx, userID, h.deps.Config.Messages.PrivateProbe); err != nil {
		log.InfoContext(ctx, "Private probe rejected, asking user to open a chat",
			"user_id", userID, "error", err)
		h.reply(ctx, b, chatID, h.deps.Config.Messages.OpenPrivateChat)
		return
	}

	w := digest.Window{Hours: h.deps.Config.Digest.WindowHours}
	text, err := h.deps.Digest.Answer(ctx, chatID, question, w)
	if err != nil {
		log.ErrorContext(ctx, "Answer generation failed", "error", err, "chat_id", chatID, "user_id", userID)
		h.reply(ctx, b, userID, h.deps.Config.Messages.GeneralError)
		return
	}
	if text == "" {
		h.reply(ctx, b, userID, h.deps.Config.Messages.NothingToSummarize)
		return
	}

	if err := h.deps.Digest.Deliver(ctx, userID, text); err != nil {
		log.ErrorContext(ctx, "Failed to deliver answer", "error", err, "user_id", userID)
	}
}

func (h askHandler) reply(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		h.deps.Logger.ErrorContext(ctx, "Failed to send reply", "handler", "ask", "error", err, "chat_id", chatID)
	}
}
