package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone   = "UTC"
	configPathEnv     = "CODENEWS_CONFIG"
	databaseDSNEnv    = "DATABASE_DSN"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
	chatGPTAPIKeyEnv  = "CHATGPT_API_KEY"
	chatGPTModelEnv   = "CHATGPT_MODEL"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Database      DatabaseConfig     `yaml:"database"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Engine        EngineConfig       `yaml:"engine"`
	Notifications NotificationConfig `yaml:"notifications"`
	Telegraph     TelegraphConfig    `yaml:"telegraph"`
	ChatGPT       ChatGPTConfig      `yaml:"chatgpt"`
	Feeds         []FeedConfig       `yaml:"feeds"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DatabaseConfig describes Postgres connection details.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// SchedulerConfig defines the cadence of the scan and digest jobs.
type SchedulerConfig struct {
	ScanIntervalHours   int            `yaml:"scanIntervalHours"`
	DigestIntervalHours int            `yaml:"digestIntervalHours"`
	Timezone            string         `yaml:"timezone"`
	location            *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// EngineConfig carries every tunable of the scoring and learning core.
// Values are validated at load time; the engine never clamps them.
type EngineConfig struct {
	LearningRate            float64  `yaml:"learningRate"`
	MinFeedbackCount        int      `yaml:"minFeedbackCount"`
	NotificationThreshold   float64  `yaml:"notificationThreshold"`
	DigestThreshold         float64  `yaml:"digestThreshold"`
	ThresholdStep           float64  `yaml:"thresholdStep"`
	WeightMin               float64  `yaml:"weightMin"`
	WeightMax               float64  `yaml:"weightMax"`
	DefaultWeight           float64  `yaml:"defaultWeight"`
	SeedWeight              float64  `yaml:"seedWeight"`
	MaxNotificationsPerHour int      `yaml:"maxNotificationsPerHour"`
	BlogMinItems            int      `yaml:"blogMinItems"`
	BlogMaxItems            int      `yaml:"blogMaxItems"`
	MaxItemAgeHours         int      `yaml:"maxItemAgeHours"`
	Keywords                []string `yaml:"keywords"`
}

// NotificationConfig encapsulates outbound channels.
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// TelegraphConfig identifies the digest publishing account.
type TelegraphConfig struct {
	ShortName  string `yaml:"shortName"`
	AuthorName string `yaml:"authorName"`
}

// ChatGPTConfig defines how to contact the summarization API.
type ChatGPTConfig struct {
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"apiKey"`
}

// FeedConfig describes a single feed with its scanner strategy.
type FeedConfig struct {
	Name     string            `yaml:"name"`
	Scanner  string            `yaml:"scanner"`
	URL      string            `yaml:"url"`
	Enabled  *bool             `yaml:"enabled"`
	MaxItems int               `yaml:"maxItems"`
	Options  map[string]string `yaml:"options"`
}

// IsEnabled treats a missing flag as enabled.
func (f FeedConfig) IsEnabled() bool {
	return f.Enabled == nil || *f.Enabled
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
	cfg.bindTimezone()

	return cfg
}

// Validate rejects out-of-range tunables with one descriptive error.
// Learned weights are clamped at runtime; configuration never is.
func (c Config) Validate() error {
	var problems []string

	e := c.Engine
	if e.LearningRate <= 0 {
		problems = append(problems, fmt.Sprintf("learningRate must be positive, got %g", e.LearningRate))
	}
	if e.MinFeedbackCount < 1 {
		problems = append(problems, fmt.Sprintf("minFeedbackCount must be at least 1, got %d", e.MinFeedbackCount))
	}
	if e.ThresholdStep <= 0 || e.ThresholdStep > 1 {
		problems = append(problems, fmt.Sprintf("thresholdStep must be in (0, 1], got %g", e.ThresholdStep))
	}
	if e.WeightMin >= e.WeightMax {
		problems = append(problems, fmt.Sprintf("weightMin %g must be below weightMax %g", e.WeightMin, e.WeightMax))
	}
	if e.DefaultWeight < e.WeightMin || e.DefaultWeight > e.WeightMax {
		problems = append(problems, fmt.Sprintf("defaultWeight %g outside weight bounds [%g, %g]", e.DefaultWeight, e.WeightMin, e.WeightMax))
	}
	if e.SeedWeight < e.WeightMin || e.SeedWeight > e.WeightMax {
		problems = append(problems, fmt.Sprintf("seedWeight %g outside weight bounds [%g, %g]", e.SeedWeight, e.WeightMin, e.WeightMax))
	}
	if e.MaxNotificationsPerHour < 1 {
		problems = append(problems, fmt.Sprintf("maxNotificationsPerHour must be at least 1, got %d", e.MaxNotificationsPerHour))
	}
	if e.BlogMinItems < 1 {
		problems = append(problems, fmt.Sprintf("blogMinItems must be at least 1, got %d", e.BlogMinItems))
	}
	if e.BlogMaxItems < e.BlogMinItems {
		problems = append(problems, fmt.Sprintf("blogMaxItems %d must be at least blogMinItems %d", e.BlogMaxItems, e.BlogMinItems))
	}
	if e.MaxItemAgeHours < 1 {
		problems = append(problems, fmt.Sprintf("maxItemAgeHours must be at least 1, got %d", e.MaxItemAgeHours))
	}
	if c.Scheduler.ScanIntervalHours < 1 {
		problems = append(problems, fmt.Sprintf("scanIntervalHours must be at least 1, got %d", c.Scheduler.ScanIntervalHours))
	}
	if c.Scheduler.DigestIntervalHours < 1 {
		problems = append(problems, fmt.Sprintf("digestIntervalHours must be at least 1, got %d", c.Scheduler.DigestIntervalHours))
	}
	for _, feed := range c.Feeds {
		if feed.URL == "" {
			problems = append(problems, fmt.Sprintf("feed %q has no url", feed.Name))
		}
		if feed.Scanner == "" {
			problems = append(problems, fmt.Sprintf("feed %q has no scanner", feed.Name))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}

	if v := os.Getenv(chatGPTAPIKeyEnv); v != "" {
		c.ChatGPT.APIKey = v
	}

	if v := os.Getenv(chatGPTModelEnv); v != "" {
		c.ChatGPT.Model = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging = override.Logging
	}

	if override.Database.DSN != "" {
		base.Database = override.Database
	}

	if override.Scheduler.ScanIntervalHours != 0 {
		base.Scheduler.ScanIntervalHours = override.Scheduler.ScanIntervalHours
	}
	if override.Scheduler.DigestIntervalHours != 0 {
		base.Scheduler.DigestIntervalHours = override.Scheduler.DigestIntervalHours
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	base.Engine = mergeEngine(base.Engine, override.Engine)

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	if override.Telegraph.ShortName != "" {
		base.Telegraph.ShortName = override.Telegraph.ShortName
	}
	if override.Telegraph.AuthorName != "" {
		base.Telegraph.AuthorName = override.Telegraph.AuthorName
	}

	if override.ChatGPT.Endpoint != "" {
		base.ChatGPT.Endpoint = override.ChatGPT.Endpoint
	}
	if override.ChatGPT.Model != "" {
		base.ChatGPT.Model = override.ChatGPT.Model
	}
	if override.ChatGPT.APIKey != "" {
		base.ChatGPT.APIKey = override.ChatGPT.APIKey
	}

	if len(override.Feeds) > 0 {
		base.Feeds = override.Feeds
	}

	return base
}

func mergeEngine(base, override EngineConfig) EngineConfig {
	if override.LearningRate != 0 {
		base.LearningRate = override.LearningRate
	}
	if override.MinFeedbackCount != 0 {
		base.MinFeedbackCount = override.MinFeedbackCount
	}
	if override.NotificationThreshold != 0 {
		base.NotificationThreshold = override.NotificationThreshold
	}
	if override.DigestThreshold != 0 {
		base.DigestThreshold = override.DigestThreshold
	}
	if override.ThresholdStep != 0 {
		base.ThresholdStep = override.ThresholdStep
	}
	if override.WeightMin != 0 {
		base.WeightMin = override.WeightMin
	}
	if override.WeightMax != 0 {
		base.WeightMax = override.WeightMax
	}
	if override.DefaultWeight != 0 {
		base.DefaultWeight = override.DefaultWeight
	}
	if override.SeedWeight != 0 {
		base.SeedWeight = override.SeedWeight
	}
	if override.MaxNotificationsPerHour != 0 {
		base.MaxNotificationsPerHour = override.MaxNotificationsPerHour
	}
	if override.BlogMinItems != 0 {
		base.BlogMinItems = override.BlogMinItems
	}
	if override.BlogMaxItems != 0 {
		base.BlogMaxItems = override.BlogMaxItems
	}
	if override.MaxItemAgeHours != 0 {
		base.MaxItemAgeHours = override.MaxItemAgeHours
	}
	if len(override.Keywords) > 0 {
		base.Keywords = override.Keywords
	}
	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging:  LoggingConfig{Level: "info"},
		Database: DatabaseConfig{DSN: ""},
		Scheduler: SchedulerConfig{
			ScanIntervalHours:   1,
			DigestIntervalHours: 168,
			Timezone:            defaultTimezone,
			location:            tz,
		},
		Engine: EngineConfig{
			LearningRate:            0.1,
			MinFeedbackCount:        5,
			NotificationThreshold:   0.1,
			DigestThreshold:         0.3,
			ThresholdStep:           0.1,
			WeightMin:               -1.0,
			WeightMax:               1.0,
			DefaultWeight:           0.0,
			SeedWeight:              0.5,
			MaxNotificationsPerHour: 50,
			BlogMinItems:            5,
			BlogMaxItems:            15,
			MaxItemAgeHours:         48,
			Keywords:                []string{"golang", "kubernetes", "database", "compiler"},
		},
		Telegraph: TelegraphConfig{
			ShortName:  "CodeNews",
			AuthorName: "CodeNews Bot",
		},
		ChatGPT: ChatGPTConfig{
			Endpoint: "https://api.openai.com/v1/chat/completions",
			Model:    "gpt-4o-mini",
		},
		Feeds: []FeedConfig{
			{
				Name:    "hackernews",
				Scanner: "rss",
				URL:     "https://news.ycombinator.com/rss",
			},
		},
	}
}
