package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/amishk599/jobfloor/internal/model"
	"github.com/amishk599/jobfloor/internal/store"
)

// Providers accepted in the config file. Storage drivers are the store.Driver* names.
const (
	ProviderJSearch   = "jsearch"
	ProviderAdzuna    = "adzuna"
	ProviderSynthetic = "synthetic"
)

// EnvConfigPath overrides the default config location.
const EnvConfigPath = "JOBFLOOR_CONFIG"

// DefaultAPIAddr is used by `serve` when api.addr is not configured.
const DefaultAPIAddr = ":8080"

const (
	defaultPath            = "config.yaml"
	defaultPollingInterval = 60 * time.Minute
	defaultLocation        = "United States"
	defaultCountry         = "us"
	defaultTimeout         = 10 * time.Second
	defaultMinDelay        = 1 * time.Second
	defaultMaxRetries      = 2
	defaultBaseDelay       = 5 * time.Second
	defaultDBPath          = "jobs_tracker.db"
	slackWebhookPrefix     = "https://hooks.slack.com/"
)

// Config is the root configuration for the job floor.
type Config struct {
	PollingInterval time.Duration
	Schedule        string // cron expression; overrides PollingInterval when set
	Categories      []CategoryConfig
	Source          SourceConfig
	RateLimit       RateLimitConfig
	Retry           RetryConfig
	Storage         StorageConfig
	Notification    NotificationConfig
	API             APIConfig
}

// CategoryConfig is one tracked job category and the tracker that owns it.
type CategoryConfig struct {
	Name    string `yaml:"name"`
	Label   string `yaml:"label"`
	Tracker string `yaml:"tracker"`
}

// SourceConfig selects and configures the job provider.
type SourceConfig struct {
	Provider string
	APIKey   string // jsearch (RapidAPI)
	Host     string // jsearch, optional
	AppID    string // adzuna
	AppKey   string // adzuna
	Country  string // adzuna index
	Location string
	Recency  model.Recency
	Timeout  time.Duration
}

// RateLimitConfig controls provider-level rate limiting.
type RateLimitConfig struct {
	MinDelay time.Duration
}

// RetryConfig controls source retries.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	URL    string `yaml:"url"`
}

// NotificationConfig controls which notifier is used and its settings.
type NotificationConfig struct {
	Type       string `yaml:"type"`        // "log" or "slack"
	WebhookURL string `yaml:"webhook_url"` // required if type is "slack"
}

// APIConfig enables the HTTP read API when Addr is set.
type APIConfig struct {
	Addr        string   `yaml:"addr"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// rawConfig is used for YAML unmarshaling (snake_case fields and duration as string).
type rawConfig struct {
	PollingInterval string             `yaml:"polling_interval"`
	Schedule        string             `yaml:"schedule"`
	Categories      []CategoryConfig   `yaml:"categories"`
	Source          rawSourceConfig    `yaml:"source"`
	RateLimit       rawRateLimitConfig `yaml:"rate_limit"`
	Retry           rawRetryConfig     `yaml:"retry"`
	Storage         StorageConfig      `yaml:"storage"`
	Notification    NotificationConfig `yaml:"notification"`
	API             APIConfig          `yaml:"api"`
}

type rawSourceConfig struct {
	Provider string `yaml:"provider"`
	APIKey   string `yaml:"api_key"`
	Host     string `yaml:"host"`
	AppID    string `yaml:"app_id"`
	AppKey   string `yaml:"app_key"`
	Country  string `yaml:"country"`
	Location string `yaml:"location"`
	Recency  string `yaml:"recency"`
	Timeout  string `yaml:"timeout"`
}

type rawRateLimitConfig struct {
	MinDelay string `yaml:"min_delay"`
}

type rawRetryConfig struct {
	MaxRetries *int   `yaml:"max_retries"`
	BaseDelay  string `yaml:"base_delay"`
}

// ResolvePath picks the config file: flag, then $JOBFLOOR_CONFIG, then ./config.yaml.
func ResolvePath(flag string) string {
	if flag != "" {
		return flag
	}
	if env := os.Getenv(EnvConfigPath); env != "" {
		return env
	}
	return defaultPath
}

// DefaultTracker derives a tracker name from a category name.
func DefaultTracker(category string) string {
	return strings.ReplaceAll(category, " ", "") + "Tracker"
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
// Variables from a .env file beside the config (or in the working directory)
// are available for ${VAR} expansion; the process environment wins.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	loadDotEnv(path)

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w: %w", model.ErrInvalidConfiguration, err)
	}

	cfg, err := fromRaw(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrInvalidConfiguration, err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrInvalidConfiguration, err)
	}

	return cfg, nil
}

func loadDotEnv(configPath string) {
	for _, p := range []string{filepath.Join(filepath.Dir(configPath), ".env"), ".env"} {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
		}
	}
}

func parseDuration(field, value string, def time.Duration) (time.Duration, error) {
	if value == "" {
		return def, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", field, value, err)
	}
	return d, nil
}

func fromRaw(raw rawConfig) (*Config, error) {
	interval, err := parseDuration("polling_interval", raw.PollingInterval, defaultPollingInterval)
	if err != nil {
		return nil, err
	}
	timeout, err := parseDuration("source.timeout", raw.Source.Timeout, defaultTimeout)
	if err != nil {
		return nil, err
	}
	minDelay, err := parseDuration("rate_limit.min_delay", raw.RateLimit.MinDelay, defaultMinDelay)
	if err != nil {
		return nil, err
	}
	baseDelay, err := parseDuration("retry.base_delay", raw.Retry.BaseDelay, defaultBaseDelay)
	if err != nil {
		return nil, err
	}

	maxRetries := defaultMaxRetries
	if raw.Retry.MaxRetries != nil {
		maxRetries = *raw.Retry.MaxRetries
	}

	categories := make([]CategoryConfig, len(raw.Categories))
	for i, c := range raw.Categories {
		c.Name = strings.TrimSpace(c.Name)
		if c.Label == "" {
			c.Label = c.Name
		}
		if c.Tracker == "" {
			c.Tracker = DefaultTracker(c.Name)
		}
		categories[i] = c
	}

	provider := strings.ToLower(raw.Source.Provider)
	if provider == "" {
		provider = ProviderSynthetic
		if raw.Source.APIKey != "" {
			provider = ProviderJSearch
		}
	}

	recency := model.Recency(raw.Source.Recency)
	if recency == "" {
		recency = model.RecencyToday
	}

	src := SourceConfig{
		Provider: provider,
		APIKey:   raw.Source.APIKey,
		Host:     raw.Source.Host,
		AppID:    raw.Source.AppID,
		AppKey:   raw.Source.AppKey,
		Country:  raw.Source.Country,
		Location: raw.Source.Location,
		Recency:  recency,
		Timeout:  timeout,
	}
	if src.Country == "" {
		src.Country = defaultCountry
	}
	if src.Location == "" {
		src.Location = defaultLocation
	}

	storage := raw.Storage
	storage.Driver = strings.ToLower(storage.Driver)
	if storage.Driver == "" {
		storage.Driver = store.DriverSQLite
	}
	if storage.Driver == store.DriverSQLite && storage.Path == "" {
		storage.Path = defaultDBPath
	}

	notification := raw.Notification
	if notification.Type == "" {
		notification.Type = "log"
	}

	return &Config{
		PollingInterval: interval,
		Schedule:        strings.TrimSpace(raw.Schedule),
		Categories:      categories,
		Source:          src,
		RateLimit:       RateLimitConfig{MinDelay: minDelay},
		Retry:           RetryConfig{MaxRetries: maxRetries, BaseDelay: baseDelay},
		Storage:         storage,
		Notification:    notification,
		API:             raw.API,
	}, nil
}

func validate(cfg *Config) error {
	if cfg.PollingInterval <= 0 {
		return fmt.Errorf("polling_interval must be positive, got %v", cfg.PollingInterval)
	}
	if cfg.Schedule != "" {
		if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
			return fmt.Errorf("schedule %q: %w", cfg.Schedule, err)
		}
	}

	if len(cfg.Categories) == 0 {
		return fmt.Errorf("at least one category is required")
	}
	names := make(map[string]bool)
	trackers := make(map[string]bool)
	for _, c := range cfg.Categories {
		if c.Name == "" {
			return fmt.Errorf("category name must not be empty")
		}
		if names[c.Name] {
			return fmt.Errorf("duplicate category %q", c.Name)
		}
		if trackers[c.Tracker] {
			return fmt.Errorf("duplicate tracker %q", c.Tracker)
		}
		names[c.Name] = true
		trackers[c.Tracker] = true
	}

	switch cfg.Source.Provider {
	case ProviderJSearch:
		if cfg.Source.APIKey == "" {
			return fmt.Errorf("source.api_key is required when provider is %q", ProviderJSearch)
		}
	case ProviderAdzuna:
		if cfg.Source.AppID == "" || cfg.Source.AppKey == "" {
			return fmt.Errorf("source.app_id and source.app_key are required when provider is %q", ProviderAdzuna)
		}
	case ProviderSynthetic:
	default:
		return fmt.Errorf("unknown source.provider %q", cfg.Source.Provider)
	}
	if !cfg.Source.Recency.Valid() {
		return fmt.Errorf("unknown source.recency %q", cfg.Source.Recency)
	}
	if cfg.Source.Timeout <= 0 {
		return fmt.Errorf("source.timeout must be positive, got %v", cfg.Source.Timeout)
	}

	if cfg.RateLimit.MinDelay < 0 {
		return fmt.Errorf("rate_limit.min_delay must not be negative, got %v", cfg.RateLimit.MinDelay)
	}
	if cfg.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries must not be negative, got %d", cfg.Retry.MaxRetries)
	}

	switch cfg.Storage.Driver {
	case store.DriverSQLite, store.DriverMemory:
	case store.DriverRedis, store.DriverPostgres:
		if cfg.Storage.URL == "" {
			return fmt.Errorf("storage.url is required when driver is %q", cfg.Storage.Driver)
		}
	default:
		return fmt.Errorf("unknown storage.driver %q", cfg.Storage.Driver)
	}

	switch cfg.Notification.Type {
	case "log":
	case "slack":
		if cfg.Notification.WebhookURL == "" {
			return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
		}
		if !strings.HasPrefix(cfg.Notification.WebhookURL, slackWebhookPrefix) {
			return fmt.Errorf("notification.webhook_url must start with %s", slackWebhookPrefix)
		}
	default:
		return fmt.Errorf("unknown notification.type %q", cfg.Notification.Type)
	}

	return nil
}
