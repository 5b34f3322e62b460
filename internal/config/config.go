package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the shiftwatch agent. It is built
// once at startup and handed to component constructors; nothing reads the
// environment after Load returns.
type Config struct {
	Poll         PollConfig
	Search       SearchConfig
	Applicant    ApplicantConfig
	AutoApply    bool
	Notification NotificationConfig
	Store        StoreConfig
	RateLimit    RateLimitConfig
	Retry        RetryConfig
}

// PollConfig controls the poll loop cadence. Each iteration sleeps a
// duration drawn uniformly from [MinInterval, MaxInterval].
type PollConfig struct {
	MinInterval time.Duration
	MaxInterval time.Duration
	ErrorDelay  time.Duration // fixed pause after a failed iteration
}

// SearchConfig describes what to look for and where.
type SearchConfig struct {
	Keyword string   `yaml:"keyword"`
	Cities  []string `yaml:"cities"`
	Source  string   `yaml:"source"`   // "api" or "dom"
	BaseURL string   `yaml:"base_url"` // hiring site root
	Locale  string   `yaml:"locale"`
}

// ApplicantConfig is the static profile used to fill application forms.
type ApplicantConfig struct {
	Email      string `yaml:"email"`
	Phone      string `yaml:"phone"`
	ResumePath string `yaml:"resume_path"`
}

// NotificationConfig controls which notifier is used and its settings.
type NotificationConfig struct {
	Type         string `yaml:"type"`      // "email" or "log"
	SMTPHost     string `yaml:"smtp_host"`
	SMTPPort     int    `yaml:"smtp_port"`
	Sender       string `yaml:"sender"`
	Password     string `yaml:"password"`
	Recipients   string `yaml:"recipients"` // comma-separated address list
	AlertOnError bool   `yaml:"alert_on_error"`
}

// RecipientList splits the comma-separated recipients string into addresses.
func (n NotificationConfig) RecipientList() []string {
	var out []string
	for _, r := range strings.Split(n.Recipients, ",") {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}

// StoreConfig controls the persisted dedup registry.
type StoreConfig struct {
	Path      string
	Retention time.Duration // seen entries older than this are swept
}

// RateLimitConfig paces requests against the hiring site.
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute"`
	Burst             int `yaml:"burst"`
}

// RetryConfig controls the fetch retry decorator.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// rawConfig mirrors the YAML layout (snake_case, durations as strings).
type rawConfig struct {
	Poll         rawPollConfig      `yaml:"poll"`
	Search       SearchConfig       `yaml:"search"`
	Applicant    ApplicantConfig    `yaml:"applicant"`
	AutoApply    bool               `yaml:"auto_apply"`
	Notification NotificationConfig `yaml:"notification"`
	Store        rawStoreConfig     `yaml:"store"`
	RateLimit    RateLimitConfig    `yaml:"rate_limit"`
	Retry        rawRetryConfig     `yaml:"retry"`
}

type rawPollConfig struct {
	MinInterval string `yaml:"min_interval"`
	MaxInterval string `yaml:"max_interval"`
	ErrorDelay  string `yaml:"error_delay"`
}

type rawStoreConfig struct {
	Path      string `yaml:"path"`
	Retention string `yaml:"retention"`
}

type rawRetryConfig struct {
	MaxRetries int    `yaml:"max_retries"`
	BaseDelay  string `yaml:"base_delay"`
}

// Load reads the YAML config at path, expands environment variables,
// applies defaults, validates, and returns the Config. Any error here is
// fatal to the process: the agent fails fast on bad configuration.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Secrets stay in the environment; the file references them as ${VAR}.
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg := &Config{
		Search:       raw.Search,
		Applicant:    raw.Applicant,
		AutoApply:    raw.AutoApply,
		Notification: raw.Notification,
		RateLimit:    raw.RateLimit,
	}

	cfg.Poll.MinInterval, err = parseDuration(raw.Poll.MinInterval, "poll.min_interval", 30*time.Second)
	if err != nil {
		return nil, err
	}
	cfg.Poll.MaxInterval, err = parseDuration(raw.Poll.MaxInterval, "poll.max_interval", 60*time.Second)
	if err != nil {
		return nil, err
	}
	cfg.Poll.ErrorDelay, err = parseDuration(raw.Poll.ErrorDelay, "poll.error_delay", 5*time.Second)
	if err != nil {
		return nil, err
	}

	cfg.Store.Path = raw.Store.Path
	if cfg.Store.Path == "" {
		cfg.Store.Path = "shiftwatch.db"
	}
	cfg.Store.Retention, err = parseDuration(raw.Store.Retention, "store.retention", 30*24*time.Hour)
	if err != nil {
		return nil, err
	}

	cfg.Retry.MaxRetries = raw.Retry.MaxRetries
	cfg.Retry.BaseDelay, err = parseDuration(raw.Retry.BaseDelay, "retry.base_delay", 5*time.Second)
	if err != nil {
		return nil, err
	}

	if cfg.Search.Source == "" {
		cfg.Search.Source = "api"
	}
	if cfg.Search.Keyword == "" {
		cfg.Search.Keyword = "warehouse"
	}
	if cfg.RateLimit.RequestsPerMinute == 0 {
		cfg.RateLimit.RequestsPerMinute = 30
	}
	if cfg.RateLimit.Burst == 0 {
		cfg.RateLimit.Burst = 5
	}
	if cfg.Notification.SMTPPort == 0 {
		cfg.Notification.SMTPPort = 587
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func parseDuration(raw, field string, fallback time.Duration) (time.Duration, error) {
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", field, raw, err)
	}
	return d, nil
}

func validate(cfg *Config) error {
	if len(cfg.Search.Cities) == 0 {
		return fmt.Errorf("search.cities must list at least one preferred city")
	}
	if cfg.Search.BaseURL == "" {
		return fmt.Errorf("search.base_url is required")
	}
	if cfg.Search.Source != "api" && cfg.Search.Source != "dom" {
		return fmt.Errorf("search.source must be \"api\" or \"dom\", got %q", cfg.Search.Source)
	}

	if cfg.Poll.MinInterval <= 0 || cfg.Poll.MaxInterval <= 0 {
		return fmt.Errorf("poll intervals must be positive")
	}
	if cfg.Poll.MaxInterval < cfg.Poll.MinInterval {
		return fmt.Errorf("poll.max_interval %v is below poll.min_interval %v",
			cfg.Poll.MaxInterval, cfg.Poll.MinInterval)
	}

	switch cfg.Notification.Type {
	case "email":
		n := cfg.Notification
		if n.SMTPHost == "" || n.Sender == "" || n.Password == "" {
			return fmt.Errorf("notification.smtp_host, sender, and password are required when type is \"email\"")
		}
		if len(n.RecipientList()) == 0 {
			return fmt.Errorf("notification.recipients must list at least one address")
		}
	case "", "log":
		// log notifier needs nothing
	default:
		return fmt.Errorf("notification.type must be \"email\" or \"log\", got %q", cfg.Notification.Type)
	}

	if cfg.AutoApply {
		a := cfg.Applicant
		if a.Email == "" || a.Phone == "" {
			return fmt.Errorf("applicant.email and applicant.phone are required when auto_apply is true")
		}
		if a.ResumePath == "" {
			return fmt.Errorf("applicant.resume_path is required when auto_apply is true")
		}
	}

	if cfg.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries must not be negative")
	}

	return nil
}
