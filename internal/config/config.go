package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"SynthForge/internal/domain"
)

const (
	configPathEnv     = "SYNTHFORGE_CONFIG"
	databaseDSNEnv    = "SYNTHFORGE_DB_PATH"
	modelAPIKeyEnv    = "MODEL_API_KEY"
	modelNameEnv      = "MODEL_NAME"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
)

// Config holds high-level settings required across the application.
type Config struct {
	Database      DatabaseConfig     `yaml:"database"`
	Model         ModelConfig        `yaml:"model"`
	Pipeline      PipelineConfig     `yaml:"pipeline"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Notifications NotificationConfig `yaml:"notifications"`
	Logging       LoggingConfig      `yaml:"logging"`
	Sites         []ReferenceSite    `yaml:"sites"`
}

// DatabaseConfig describes the SQLite database location.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ModelConfig defines how to contact the hosted language model.
type ModelConfig struct {
	Endpoint     string        `yaml:"endpoint"`
	Model        string        `yaml:"model"`
	APIKey       string        `yaml:"apiKey"`
	SystemPrompt string        `yaml:"systemPrompt"`
	Timeout      time.Duration `yaml:"timeout"`
}

// PipelineConfig bounds batch processing.
type PipelineConfig struct {
	Workers       int           `yaml:"workers"`
	RetryAttempts uint64        `yaml:"retryAttempts"`
	RetryInitial  time.Duration `yaml:"retryInitial"`
	RetryMax      time.Duration `yaml:"retryMax"`
	AutoApprove   bool          `yaml:"autoApprove"`
}

// SchedulerConfig defines how often pending questions are drained.
type SchedulerConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// LoggingConfig controls log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// ReferenceSite describes one reference page used to ground research for a
// topic; an empty topic matches everything.
type ReferenceSite struct {
	Name        string                 `yaml:"name"`
	Topic       string                 `yaml:"topic"`
	SubTopic    string                 `yaml:"subTopic"`
	URL         string                 `yaml:"url"`
	License     string                 `yaml:"license"`
	Reliability domain.ReliabilityTier `yaml:"reliability"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.Path = v
	}

	if v := os.Getenv(modelAPIKeyEnv); v != "" {
		c.Model.APIKey = v
	}

	if v := os.Getenv(modelNameEnv); v != "" {
		c.Model.Model = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Database.Path != "" {
		base.Database = override.Database
	}

	if override.Model.Endpoint != "" {
		base.Model.Endpoint = override.Model.Endpoint
	}
	if override.Model.Model != "" {
		base.Model.Model = override.Model.Model
	}
	if override.Model.APIKey != "" {
		base.Model.APIKey = override.Model.APIKey
	}
	if override.Model.SystemPrompt != "" {
		base.Model.SystemPrompt = override.Model.SystemPrompt
	}
	if override.Model.Timeout > 0 {
		base.Model.Timeout = override.Model.Timeout
	}

	if override.Pipeline.Workers > 0 {
		base.Pipeline.Workers = override.Pipeline.Workers
	}
	if override.Pipeline.RetryAttempts > 0 {
		base.Pipeline.RetryAttempts = override.Pipeline.RetryAttempts
	}
	if override.Pipeline.RetryInitial > 0 {
		base.Pipeline.RetryInitial = override.Pipeline.RetryInitial
	}
	if override.Pipeline.RetryMax > 0 {
		base.Pipeline.RetryMax = override.Pipeline.RetryMax
	}
	if override.Pipeline.AutoApprove {
		base.Pipeline.AutoApprove = true
	}

	if override.Scheduler.Enabled {
		base.Scheduler.Enabled = true
	}
	if override.Scheduler.Interval > 0 {
		base.Scheduler.Interval = override.Scheduler.Interval
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if len(override.Sites) > 0 {
		base.Sites = override.Sites
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Database: DatabaseConfig{Path: "synthforge.db"},
		Model: ModelConfig{
			Endpoint:     "https://api.openai.com/v1/chat/completions",
			Model:        "gpt-4o-mini",
			APIKey:       "",
			SystemPrompt: "You produce synthetic LLM training data. Always answer with valid JSON and nothing else.",
			Timeout:      30 * time.Second,
		},
		Pipeline: PipelineConfig{
			Workers:       4,
			RetryAttempts: 3,
			RetryInitial:  time.Second,
			RetryMax:      10 * time.Second,
		},
		Scheduler: SchedulerConfig{Enabled: false, Interval: time.Hour},
		Logging:   LoggingConfig{Level: "info"},
		Sites:     nil,
	}
}
