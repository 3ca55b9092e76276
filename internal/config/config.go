package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Source names accepted by MONITOR_SOURCE.
const (
	SourceAPI     = "api"
	SourceAdmin   = "admin"
	SourceBrowser = "browser"
)

// State backends accepted by STATE_BACKEND.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Config contains runtime configuration values.
type Config struct {
	Source         string        `yaml:"source" validate:"oneof=api admin browser"`
	APIURL         string        `yaml:"api_url" validate:"required_unless=Source admin,omitempty,url"`
	APIKey         string        `yaml:"api_key" validate:"required_unless=Source admin"`
	AdminURL       string        `yaml:"admin_url" validate:"required_if=Source admin,omitempty,url"`
	AdminPassword  string        `yaml:"admin_password"`
	RequestTimeout time.Duration `yaml:"request_timeout" validate:"gt=0"`

	Retry   RetryConfig   `yaml:"retry"`
	State   StateConfig   `yaml:"state"`
	Email   EmailConfig   `yaml:"email"`
	Discord DiscordConfig `yaml:"discord"`
	Desktop DesktopConfig `yaml:"desktop"`
	Browser BrowserConfig `yaml:"browser"`

	ScheduleCron string `yaml:"schedule_cron" validate:"required"`
	MetricsAddr  string `yaml:"metrics_addr"`
	LogLevel     string `yaml:"log_level" validate:"oneof=trace debug info warn error"`
}

// RetryConfig bounds how often a fetch is retried on challenge pages and
// transient upstream errors.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" validate:"min=1,max=20"`
	Delay       time.Duration `yaml:"delay" validate:"gte=0"`
	Backoff     string        `yaml:"backoff" validate:"oneof=constant exponential"`
}

// StateConfig selects where the last seen count lives.
type StateConfig struct {
	Backend string `yaml:"backend" validate:"oneof=file sqlite"`
	File    string `yaml:"file" validate:"required_if=Backend file"`
	DB      string `yaml:"db" validate:"required_if=Backend sqlite"`
}

// EmailConfig configures SMTP delivery. Email is enabled when a user is set.
type EmailConfig struct {
	SMTPHost string `yaml:"smtp_host" validate:"required_with=User"`
	SMTPPort int    `yaml:"smtp_port" validate:"min=1,max=65535"`
	User     string `yaml:"user"`
	Password string `yaml:"password" validate:"required_with=User"`
	// NotifyTo is the recipient. Empty means Recipient falls back to User.
	NotifyTo string `yaml:"notify_to" validate:"omitempty,email"`
}

// DiscordConfig configures the webhook channel. Enabled when a URL is set.
type DiscordConfig struct {
	WebhookURL string  `yaml:"webhook_url" validate:"omitempty,url"`
	RatePerSec float64 `yaml:"rate_per_sec" validate:"gt=0"`
}

// DesktopConfig toggles OS toast notifications.
type DesktopConfig struct {
	Enabled bool `yaml:"enabled"`
}

// BrowserConfig tunes the headless Chrome fetcher.
type BrowserConfig struct {
	ChromePath string        `yaml:"chrome_path"`
	Settle     time.Duration `yaml:"settle" validate:"gte=0"`
}

// Options are the command-line inputs for Load.
type Options struct {
	// ConfigFile is an optional YAML file applied before the environment.
	ConfigFile string
	// EnvFile is a dotenv file loaded into the environment. A missing
	// default file is ignored.
	EnvFile string
	// LogLevel overrides LOG_LEVEL when non-empty.
	LogLevel string
}

const (
	defaultSource      = SourceAPI
	defaultTimeout     = 30 * time.Second
	defaultRetries     = 3
	defaultRetryDelay  = 5 * time.Second
	defaultBackoff     = "constant"
	defaultStateFile   = "last_message_count.txt"
	defaultStateDB     = "contact-monitor.db"
	defaultSMTPHost    = "smtp.gmail.com"
	defaultSMTPPort    = 587
	defaultDiscordRate = 2
	defaultSettle      = 5 * time.Second
	defaultCron        = "@every 15m"
	defaultLogLevel    = "info"
	defaultEnvFile     = ".env"
)

// Default returns a Config populated with defaults only.
func Default() *Config {
	return &Config{
		Source:         defaultSource,
		RequestTimeout: defaultTimeout,
		Retry: RetryConfig{
			MaxAttempts: defaultRetries,
			Delay:       defaultRetryDelay,
			Backoff:     defaultBackoff,
		},
		State: StateConfig{
			Backend: BackendFile,
			File:    defaultStateFile,
			DB:      defaultStateDB,
		},
		Email: EmailConfig{
			SMTPHost: defaultSMTPHost,
			SMTPPort: defaultSMTPPort,
		},
		Discord:      DiscordConfig{RatePerSec: defaultDiscordRate},
		Browser:      BrowserConfig{Settle: defaultSettle},
		ScheduleCron: defaultCron,
		LogLevel:     defaultLogLevel,
	}
}

// Load builds a Config from defaults, an optional YAML file and environment
// variables (in that order of precedence, lowest first).
func Load(opts Options) (*Config, error) {
	cfg, err := layered(opts)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadState is Load for commands that only touch the stored count: the
// source and channel settings are not validated.
func LoadState(opts Options) (*Config, error) {
	cfg, err := layered(opts)
	if err != nil {
		return nil, err
	}
	v := validator.New()
	if err := v.Struct(cfg.State); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := v.Var(cfg.LogLevel, "oneof=trace debug info warn error"); err != nil {
		return nil, fmt.Errorf("invalid config: log level %q: %w", cfg.LogLevel, err)
	}
	return cfg, nil
}

func layered(opts Options) (*Config, error) {
	if err := loadEnvFile(opts.EnvFile); err != nil {
		return nil, err
	}

	cfg := Default()
	if opts.ConfigFile != "" {
		if err := cfg.mergeFile(opts.ConfigFile); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}
	cfg.normalize()
	return cfg, nil
}

func loadEnvFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = defaultEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Source = getenvDefault("MONITOR_SOURCE", c.Source)
	c.APIURL = getenvDefault("API_URL", c.APIURL)
	c.APIKey = getenvDefault("API_KEY", c.APIKey)
	c.AdminURL = getenvDefault("ADMIN_URL", c.AdminURL)
	c.AdminPassword = getenvDefault("ADMIN_PASSWORD", c.AdminPassword)
	c.RequestTimeout = parseDurationDefault("REQUEST_TIMEOUT", c.RequestTimeout)

	c.Retry.MaxAttempts = parseIntDefault("RETRY_MAX_ATTEMPTS", c.Retry.MaxAttempts)
	c.Retry.Delay = parseDurationDefault("RETRY_DELAY", c.Retry.Delay)
	c.Retry.Backoff = getenvDefault("RETRY_BACKOFF", c.Retry.Backoff)

	c.State.Backend = getenvDefault("STATE_BACKEND", c.State.Backend)
	c.State.File = getenvDefault("STATE_FILE", c.State.File)
	c.State.DB = getenvDefault("STATE_DB", c.State.DB)

	c.Email.SMTPHost = getenvDefault("SMTP_HOST", c.Email.SMTPHost)
	c.Email.SMTPPort = parseIntDefault("SMTP_PORT", c.Email.SMTPPort)
	c.Email.User = getenvDefault("EMAIL_USER", c.Email.User)
	c.Email.Password = getenvDefault("EMAIL_PASS", c.Email.Password)
	c.Email.NotifyTo = getenvDefault("NOTIFY_EMAIL", c.Email.NotifyTo)

	c.Discord.WebhookURL = getenvDefault("DISCORD_WEBHOOK_URL", c.Discord.WebhookURL)
	c.Discord.RatePerSec = parseFloatDefault("DISCORD_RATE_PER_SEC", c.Discord.RatePerSec)
	c.Desktop.Enabled = parseBoolDefault("DESKTOP_NOTIFY", c.Desktop.Enabled)

	c.Browser.ChromePath = getenvDefault("CHROME_PATH", c.Browser.ChromePath)
	c.Browser.Settle = parseDurationDefault("BROWSER_SETTLE", c.Browser.Settle)

	c.ScheduleCron = getenvDefault("SCHEDULE_CRON", c.ScheduleCron)
	c.MetricsAddr = getenvDefault("METRICS_ADDR", c.MetricsAddr)
	c.LogLevel = getenvDefault("LOG_LEVEL", c.LogLevel)
}

func (c *Config) normalize() {
	c.Source = strings.ToLower(strings.TrimSpace(c.Source))
	c.State.Backend = strings.ToLower(strings.TrimSpace(c.State.Backend))
	c.Retry.Backoff = strings.ToLower(strings.TrimSpace(c.Retry.Backoff))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
}

// Validate checks field constraints and that at least one channel is set up.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Source == SourceAdmin {
		if c.AdminPassword == "" {
			return fmt.Errorf("invalid config: ADMIN_PASSWORD is required for the admin source")
		}
		if !c.EmailEnabled() {
			return fmt.Errorf("invalid config: the admin source notifies by email, set EMAIL_USER and EMAIL_PASS")
		}
	}
	if !c.EmailEnabled() && !c.DiscordEnabled() && !c.Desktop.Enabled {
		return fmt.Errorf("invalid config: no notification channel configured (set EMAIL_USER, DISCORD_WEBHOOK_URL or DESKTOP_NOTIFY)")
	}
	return nil
}

// EmailEnabled reports whether SMTP credentials are present.
func (c *Config) EmailEnabled() bool { return c.Email.User != "" }

// Recipient is NOTIFY_EMAIL, or the SMTP user when unset. The fallback is
// not checked to be an address.
func (c *Config) Recipient() string {
	if c.Email.NotifyTo != "" {
		return c.Email.NotifyTo
	}
	return c.Email.User
}

// DiscordEnabled reports whether a webhook URL is present.
func (c *Config) DiscordEnabled() bool { return c.Discord.WebhookURL != "" }

// RequiredChannels names channels whose failure must fail a cycle.
func (c *Config) RequiredChannels() []string {
	if c.Source == SourceAdmin {
		return []string{"email"}
	}
	return nil
}

// AdminLink is the URL put into count-only notifications.
func (c *Config) AdminLink() string { return c.AdminURL }

func getenvDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseIntDefault(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}

func parseFloatDefault(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

func parseBoolDefault(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func parseDurationDefault(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
