package handlers

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/recapbot/recapbot/internal/database"
)

const (
	photoDownloadTimeout = 30 * time.Second
	dbSaveTimeout        = 5 * time.Second

	// anonymousSender is stored when no sender name can be resolved.
	anonymousSender = "anonymous"
)

// NewMessageHandler returns the default handler that captures group
// messages into the store. It synthesizes annotations for replies and
// forwards, inlines photos as data URIs, and skips ignored keywords.
func NewMessageHandler(deps HandlerDeps) bot.HandlerFunc {
	return messageHandler{deps}.Handle
}

type messageHandler struct {
	deps HandlerDeps
}

func (h messageHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "capture")

	msg := update.Message
	if msg == nil {
		// Edits replace the stored row through the same upsert key.
		msg = update.EditedMessage
	}
	if msg == nil {
		return
	}

	if msg.Chat.Type != models.ChatTypeGroup && msg.Chat.Type != models.ChatTypeSupergroup {
		return
	}

	text := msg.Text
	if text == "" {
		text = msg.Caption
	}

	if text != "" && slices.Contains(h.deps.Config.Digest.IgnoredKeywords, text) {
		log.DebugContext(ctx, "Ignored keyword, not storing", "chat_id", msg.Chat.ID)
		return
	}

	content := h.synthesizeContent(ctx, b, msg, text)
	if content == "" {
		return
	}

	record := &database.Message{
		ID:        database.MessageKey(msg.Chat.ID, int64(msg.ID)),
		GroupID:   msg.Chat.ID,
		GroupName: msg.Chat.Title,
		UserName:  senderName(msg),
		Content:   content,
		MessageID: int64(msg.ID),
		TimeStamp: int64(msg.Date) * 1000,
	}

	dbCtx, cancel := context.WithTimeout(ctx, dbSaveTimeout)
	defer cancel()
	if err := h.deps.Store.UpsertMessage(dbCtx, record); err != nil {
		log.ErrorContext(ctx, "Failed to store message",
			"error", err, "chat_id", msg.Chat.ID, "message_id", msg.ID)
	}
}

// synthesizeContent builds the stored content string: a data URI for
// photos, an annotation for replies and forwards, otherwise the plain
// text. An empty return means there is nothing worth storing.
func (h messageHandler) synthesizeContent(ctx context.Context, b *bot.Bot, msg *models.Message, text string) string {
	log := h.deps.Logger.With("handler", "capture")

	if len(msg.Photo) > 0 {
		data, mimeType, err := downloadPhoto(ctx, b, h.deps.Config.Telegram.Token, msg.Photo)
		if err != nil {
			log.ErrorContext(ctx, "Photo download failed, storing caption only",
				"error", err, "chat_id", msg.Chat.ID, "message_id", msg.ID)
			return text
		}
		return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
	}

	if text == "" {
		return ""
	}

	if msg.ReplyToMessage != nil && msg.ReplyToMessage.Text != "" {
		return fmt.Sprintf("replied to %s: %s", messageLink(msg.Chat.ID, msg.ReplyToMessage.ID), text)
	}

	if msg.ForwardOrigin != nil {
		if name := forwardOriginName(msg.ForwardOrigin); name != "" {
			return fmt.Sprintf("forwarded from %s: %s", name, text)
		}
	}

	return text
}

// senderName resolves a display name for the message sender, falling
// back to the sender chat's title for anonymous posts.
func senderName(msg *models.Message) string {
	if msg.From != nil {
		if msg.From.Username != "" {
			return msg.From.Username
		}
		if msg.From.FirstName != "" {
			return msg.From.FirstName
		}
	}
	if msg.SenderChat != nil && msg.SenderChat.Title != "" {
		return msg.SenderChat.Title
	}
	return anonymousSender
}

func forwardOriginName(origin *models.MessageOrigin) string {
	switch origin.Type {
	case models.MessageOriginTypeUser:
		if origin.MessageOriginUser.SenderUser.Username != "" {
			return origin.MessageOriginUser.SenderUser.Username
		}
		return origin.MessageOriginUser.SenderUser.FirstName
	case models.MessageOriginTypeHiddenUser:
		return origin.MessageOriginHiddenUser.SenderUserName
	case models.MessageOriginTypeChat:
		return origin.MessageOriginChat.SenderChat.Title
	case models.MessageOriginTypeChannel:
		return origin.MessageOriginChannel.Chat.Title
	}
	return ""
}

// messageLink builds a t.me deep link for a message in a supergroup.
// The chat's internal id drops the -100 channel prefix.
func messageLink(chatID int64, messageID int) string {
	internal := strconv.FormatInt(chatID, 10)
	internal = strings.TrimPrefix(internal, "-100")
	internal = strings.TrimPrefix(internal, "-")
	return fmt.Sprintf("https://t.me/c/%s/%d", internal, messageID)
}

// downloadPhoto fetches the highest-resolution variant of a photo from
// Telegram's file API and returns the raw bytes with a detected MIME type.
func downloadPhoto(ctx context.Context, b *bot.Bot, token string, sizes []models.PhotoSize) (data []byte, mimeType string, err error) {
	if token == "" {
		return nil, "", fmt.Errorf("empty token provided for photo download")
	}
	if len(sizes) == 0 {
		return nil, "", fmt.Errorf("no photo sizes provided")
	}

	var best models.PhotoSize
	bestQuality := 0
	for _, p := range sizes {
		if q := p.Width * p.Height; q > bestQuality {
			bestQuality = q
			best = p
		}
	}

	downloadCtx, cancel := context.WithTimeout(ctx, photoDownloadTimeout)
	defer cancel()

	fileObj, err := b.GetFile(downloadCtx, &bot.GetFileParams{FileID: best.FileID})
	if err != nil {
		return nil, "", fmt.Errorf("failed to get file info from Telegram: %w", err)
	}
	if fileObj.FilePath == "" {
		return nil, "", fmt.Errorf("empty file path returned for file ID %s", best.FileID)
	}

	url := fmt.Sprintf("https://api.telegram.org/file/bot%s/%s", token, fileObj.FilePath)
	req, err := http.NewRequestWithContext(downloadCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download file: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close response body: %w", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("unexpected status code %d downloading file", resp.StatusCode)
	}

	const maxDownloadSize = 10 * 1024 * 1024
	data, err = io.ReadAll(io.LimitReader(resp.Body, maxDownloadSize))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read file data: %w", err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("received empty file data")
	}

	return data, http.DetectContentType(data), nil
}
