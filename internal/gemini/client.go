// Package gemini implements integration with Google's Gemini API for
// summarizing and answering questions over stored chat history.
package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/recapbot/recapbot/internal/config"
	"github.com/recapbot/recapbot/internal/database"
)

// Client defines the language-model operations used by the orchestrator.
type Client interface {
	// Summarize produces a digest of the given message window.
	Summarize(ctx context.Context, messages []*database.Message) (string, error)

	// Answer responds to a question against the given message window.
	Answer(ctx context.Context, messages []*database.Message, question string) (string, error)

	// ModelName reports the configured model identifier for attribution.
	ModelName() string
}

type sdkClient struct {
	genaiClient *genai.Client
	log         *slog.Logger
	baseConfig  *genai.GenerateContentConfig
	modelName   string
	timeout     time.Duration
	maxRetries  int
	retryDelay  time.Duration
}

// NewClient creates a Gemini client from the given configuration.
func NewClient(ctx context.Context, cfg config.GeminiConfig, log *slog.Logger) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	gi, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	baseCfg := &genai.GenerateContentConfig{
		Temperature: &cfg.Temperature,

		SafetySettings: []*genai.SafetySetting{
			{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdBlockNone},
			{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdBlockNone},
			{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockThresholdBlockNone},
			{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdBlockNone},
		},
	}

	logger := log.With("component", "gemini_client")
	logger.Info("Gemini client initialized", "model", cfg.ModelName)
	return &sdkClient{
		genaiClient: gi,
		log:         logger,
		baseConfig:  baseCfg,
		modelName:   cfg.ModelName,
		timeout:     cfg.Timeout,
		maxRetries:  cfg.MaxRetries,
		retryDelay:  time.Duration(cfg.RetryDelaySeconds) * time.Second,
	}, nil
}

func (c *sdkClient) ModelName() string {
	return c.modelName
}

// renderParts converts stored messages into content parts: inline image
// parts for data-URI payloads, timestamped text lines for everything else.
func (c *sdkClient) renderParts(ctx context.Context, messages []*database.Message) []*genai.Part {
	parts := make([]*genai.Part, 0, len(messages))
	for _, m := range messages {
		if strings.HasPrefix(m.Content, database.ImageContentPrefix) {
			if part := decodeImagePart(m.Content); part != nil {
				parts = append(parts, part)
				continue
			}
			c.log.WarnContext(ctx, "Skipping undecodable image payload",
				"group_id", m.GroupID, "message_id", m.MessageID)
			continue
		}

		line := fmt.Sprintf("[%s] %s: %s",
			time.UnixMilli(m.TimeStamp).UTC().Format("2006-01-02 15:04"),
			m.UserName, m.Content)
		parts = append(parts, genai.NewPartFromText(line))
	}
	return parts
}

// decodeImagePart parses a data:image/<type>;base64,<payload> content
// string into an inline image part. Returns nil when the payload is
// malformed.
func decodeImagePart(content string) *genai.Part {
	rest := strings.TrimPrefix(content, "data:")
	mimeType, payload, found := strings.Cut(rest, ";base64,")
	if !found || mimeType == "" {
		return nil
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || len(data) == 0 {
		return nil
	}
	return genai.NewPartFromBytes(data, mimeType)
}

func (c *sdkClient) Summarize(ctx context.Context, messages []*database.Message) (string, error) {
	c.log.DebugContext(ctx, "Generating summary", "message_count", len(messages))

	parts := c.renderParts(ctx, messages)
	if len(parts) == 0 {
		return "", fmt.Errorf("no renderable messages to summarize")
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	copyCfg := *c.baseConfig
	copyCfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: SummarySystemInstruction}}}

	return c.generate(ctx, contents, &copyCfg)
}

func (c *sdkClient) Answer(ctx context.Context, messages []*database.Message, question string) (string, error) {
	c.log.DebugContext(ctx, "Generating answer", "message_count", len(messages))

	parts := c.renderParts(ctx, messages)
	parts = append(parts, genai.NewPartFromText("Question: "+question))
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	copyCfg := *c.baseConfig
	copyCfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: AnswerSystemInstruction}}}

	return c.generate(ctx, contents, &copyCfg)
}

// generate runs one model call under the configured timeout and extracts
// the response text. The timeout is a hard per-call ceiling; its expiry is
// reported as a failure, never retried within the cycle.
func (c *sdkClient) generate(ctx context.Context, contents []*genai.Content, cfg *genai.GenerateContentConfig) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.generateContentWithRetries(callCtx, contents, cfg)
	if err != nil {
		return "", err
	}

	return c.extractText(ctx, resp)
}

func (c *sdkClient) generateContentWithRetries(ctx context.Context, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	var resp *genai.GenerateContentResponse
	var err error

	for i := 0; i <= c.maxRetries; i++ {
		resp, err = c.genaiClient.Models.GenerateContent(ctx, c.modelName, contents, cfg)
		if err == nil {
			return resp, nil
		}

		c.log.WarnContext(ctx, "Gemini API call failed, checking for retry",
			"attempt", i+1, "max_retries", c.maxRetries, "error", err)

		var apiErr *genai.APIError
		if errors.As(err, &apiErr) && (apiErr.Code == 500 || apiErr.Code == 503) {
			if i < c.maxRetries {
				c.log.InfoContext(ctx, "Retrying Gemini API call",
					"delay", c.retryDelay, "code", apiErr.Code)
				time.Sleep(c.retryDelay)
				continue
			}
			return nil, fmt.Errorf("gemini API call failed after %d retries (code %d): %w", c.maxRetries, apiErr.Code, err)
		}

		// Non-retriable, including timeouts: the group is simply picked
		// up again on its next natural cycle.
		return nil, fmt.Errorf("gemini API call failed: %w", err)
	}

	return nil, err
}

func (c *sdkClient) extractText(ctx context.Context, resp *genai.GenerateContentResponse) (string, error) {
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockedReasonUnspecified {
		reasonMsg := fmt.Sprintf("%v", resp.PromptFeedback.BlockReason)
		if resp.PromptFeedback.BlockReasonMessage != "" {
			reasonMsg = resp.PromptFeedback.BlockReasonMessage
		}
		c.log.ErrorContext(ctx, "Gemini request blocked", "reason", reasonMsg)
		return "", fmt.Errorf("request blocked by safety filter: %s", reasonMsg)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		finishReason := "unknown"
		if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != genai.FinishReasonUnspecified {
			finishReason = fmt.Sprintf("%v", resp.Candidates[0].FinishReason)
		}
		c.log.WarnContext(ctx, "Gemini response missing content", "finish_reason", finishReason)
		return "", fmt.Errorf("model returned no content, finish reason: %s", finishReason)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("model returned empty text")
	}

	return text, nil
}
