// Package config provides configuration loading and validation for the
// bot: defaults, an optional YAML file, and BOT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-telegram/bot/models"
	"github.com/spf13/viper"
)

// Config aggregates all application configuration sections.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Digest    DigestConfig    `mapstructure:"digest"`
	Messages  MessagesConfig  `mapstructure:"messages"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// LoggerConfig controls log level and output format.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds the bot token and, at runtime, the bot's own
// identity as reported by the platform.
type TelegramConfig struct {
	Token string `mapstructure:"token" validate:"required"`

	// BotInfo is populated at startup from GetMe, not from the file.
	BotInfo *models.User `mapstructure:"-"`
}

// GeminiConfig holds the language-model client settings.
type GeminiConfig struct {
	APIKey            string        `mapstructure:"api_key"     validate:"required"`
	ModelName         string        `mapstructure:"model_name"  validate:"required"`
	Temperature       float32       `mapstructure:"temperature" validate:"min=0,max=2"`
	Timeout           time.Duration `mapstructure:"timeout"     validate:"min=1s,max=10m"`
	MaxRetries        int           `mapstructure:"max_retries" validate:"min=0,max=10"`
	RetryDelaySeconds int           `mapstructure:"retry_delay_seconds" validate:"min=0,max=300"`
}

// DatabaseConfig holds the SQLite database location.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// DigestConfig controls the batch summarization pipeline: activity
// threshold, sharding cadence, retrieval windows, retention, and the reply
// pipeline knobs.
type DigestConfig struct {
	// ActivityThreshold is the trailing-24h message count a group must
	// exceed to qualify for scheduled summaries.
	ActivityThreshold int `mapstructure:"activity_threshold" validate:"min=0"`

	// ShardCount and TickMinutes partition the active-group list across
	// ticks; shard_count * tick_minutes should approximate one hour so the
	// whole list is covered once per cycle.
	ShardCount  int `mapstructure:"shard_count"  validate:"min=1,max=60"`
	TickMinutes int `mapstructure:"tick_minutes" validate:"min=1,max=60"`

	// WindowHours is the trailing window summarized per group.
	WindowHours int `mapstructure:"window_hours" validate:"min=1,max=168"`

	// MaxLatestMessages caps the latest-N retrieval strategy.
	MaxLatestMessages int `mapstructure:"max_latest_messages" validate:"min=1,max=2000"`

	// SearchLimit is the hard cap on substring search results.
	SearchLimit int `mapstructure:"search_limit" validate:"min=1,max=100"`

	// RetentionRows is the per-group row cap enforced by the daily sweep.
	RetentionRows int `mapstructure:"retention_rows" validate:"min=1"`

	// ImageRetention is the age past which image-bearing rows are purged.
	ImageRetention time.Duration `mapstructure:"image_retention" validate:"min=1h"`

	// SnapshotTTL bounds the staleness of the active-group snapshot. It
	// must outlive one tick and expire well before the next day's cycle.
	SnapshotTTL time.Duration `mapstructure:"snapshot_ttl" validate:"min=1m,max=24h"`

	// MutedGroupIDs still consume their processing slot but are skipped at
	// delivery.
	MutedGroupIDs []int64 `mapstructure:"muted_group_ids"`

	// IgnoredKeywords are exact-match texts that are never stored.
	IgnoredKeywords []string `mapstructure:"ignored_keywords"`

	// LinkRepairs maps hallucinated domains the model emits to their
	// correct form.
	LinkRepairs map[string]string `mapstructure:"link_repairs"`

	// ReferencePrefix is the word rendered before link-reference ordinals.
	ReferencePrefix string `mapstructure:"reference_prefix" validate:"required"`

	// FooterLabel/FooterURL append an optional footer link to replies.
	FooterLabel string `mapstructure:"footer_label"`
	FooterURL   string `mapstructure:"footer_url"`
}

// MessagesConfig holds user-facing reply texts.
type MessagesConfig struct {
	Welcome            string `mapstructure:"welcome"`
	Help               string `mapstructure:"help"`
	GeneralError       string `mapstructure:"general_error"`
	UsageSummary       string `mapstructure:"usage_summary"`
	UsageQuery         string `mapstructure:"usage_query"`
	UsageAsk           string `mapstructure:"usage_ask"`
	OpenPrivateChat    string `mapstructure:"open_private_chat"`
	PrivateProbe       string `mapstructure:"private_probe"`
	NoResults          string `mapstructure:"no_results"`
	NothingToSummarize string `mapstructure:"nothing_to_summarize"`
}

// TaskConfig enables and schedules one named background task.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// SchedulerConfig maps task names to their cron schedules.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// LoadConfig reads configuration from defaults, the YAML file at path (if
// present), and BOT_* environment variables, then validates the result.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Missing config file is fine, defaults plus env apply.
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.json", false)

	v.SetDefault("database.path", "storage.db")

	v.SetDefault("gemini.model_name", "gemini-2.0-flash")
	v.SetDefault("gemini.temperature", 1.0)
	v.SetDefault("gemini.timeout", 2*time.Minute)
	v.SetDefault("gemini.max_retries", 2)
	v.SetDefault("gemini.retry_delay_seconds", 5)

	v.SetDefault("digest.activity_threshold", 20)
	v.SetDefault("digest.shard_count", 10)
	v.SetDefault("digest.tick_minutes", 6)
	v.SetDefault("digest.window_hours", 24)
	v.SetDefault("digest.max_latest_messages", 500)
	v.SetDefault("digest.search_limit", 10)
	v.SetDefault("digest.retention_rows", 5000)
	v.SetDefault("digest.image_retention", 72*time.Hour)
	v.SetDefault("digest.snapshot_ttl", 10*time.Minute)
	v.SetDefault("digest.reference_prefix", "ref")
	v.SetDefault("digest.link_repairs", map[string]string{
		"https://telegram.me/": "https://t.me/",
	})

	v.SetDefault("messages.welcome", "Hi! I log this group's messages and post periodic summaries. Try /help.")
	v.SetDefault("messages.help", "Commands:\n/summary <N|Nh> - summarize the last N messages or N hours\n/query <term> - search stored messages\n/ask <question> - ask about recent history (answered in private)")
	v.SetDefault("messages.general_error", "Something went wrong. Please try again later.")
	v.SetDefault("messages.usage_summary", "Usage: /summary <N|Nh> (e.g. /summary 50 or /summary 6h)")
	v.SetDefault("messages.usage_query", "Usage: /query <term>")
	v.SetDefault("messages.usage_ask", "Usage: /ask <question>")
	v.SetDefault("messages.open_private_chat", "I can't message you privately. Open a private chat with me and try again.")
	v.SetDefault("messages.private_probe", "Working on your answer...")
	v.SetDefault("messages.no_results", "No messages matched.")
	v.SetDefault("messages.nothing_to_summarize", "Nothing to summarize in that window.")

	v.SetDefault("scheduler.tasks", map[string]map[string]any{
		"digest":    {"enabled": true, "schedule": "*/6 * * * *"},
		"retention": {"enabled": true, "schedule": "30 4 * * *"},
	})
}
