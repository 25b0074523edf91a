package config

// Configuration loading for price-tracker.
// Precedence (highest first): command flags, environment (.env included), config.yaml, defaults.

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "PRICE_TRACKER"

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Store    StoreConfig    `mapstructure:"store"`
	Source   SourceConfig   `mapstructure:"source"`
	Chart    ChartConfig    `mapstructure:"chart"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Demo     DemoConfig     `mapstructure:"demo"`
}

type AppConfig struct {
	LogDir   string `mapstructure:"log_dir"`
	LogLevel string `mapstructure:"log_level"`
}

// StoreConfig - where the price series lives
type StoreConfig struct {
	Backend    string `mapstructure:"backend"`     // csv or sqlite
	DataFile   string `mapstructure:"data_file"`   // csv backend
	SQLitePath string `mapstructure:"sqlite_path"` // sqlite backend
}

// SourceConfig - how prices are fetched
type SourceConfig struct {
	Mode            string       `mapstructure:"mode"` // random or scrape
	RequestTimeout  int          `mapstructure:"request_timeout"`
	MaxRetries      int          `mapstructure:"max_retries"`
	MaxResponseSize int64        `mapstructure:"max_response_size"`
	RateLimit       float64      `mapstructure:"rate_limit"` // requests per second
	Seed            int64        `mapstructure:"seed"`       // 0 picks a random seed
	Egg             ScrapeTarget `mapstructure:"egg"`
	Gas             ScrapeTarget `mapstructure:"gas"`
}

// ScrapeTarget - page and CSS selector holding one commodity price
type ScrapeTarget struct {
	URL      string `mapstructure:"url"`
	Selector string `mapstructure:"selector"`
}

type ChartConfig struct {
	Path   string `mapstructure:"path"`
	Width  int    `mapstructure:"width"`
	Height int    `mapstructure:"height"`
	Title  string `mapstructure:"title"`
}

type NotifyConfig struct {
	Driver           string         `mapstructure:"driver"`    // imessage or telegram
	Recipient        string         `mapstructure:"recipient"` // phone/email for imessage, chat id for telegram
	Message          string         `mapstructure:"message"`
	OSAScriptTimeout int            `mapstructure:"osascript_timeout"`
	Telegram         TelegramConfig `mapstructure:"telegram"`
}

type TelegramConfig struct {
	Token string `mapstructure:"token"`
}

// ScheduleConfig - daily run time for the watch command
type ScheduleConfig struct {
	Time      string `mapstructure:"time"` // HH:MM
	Timezone  string `mapstructure:"timezone"`
	StateFile string `mapstructure:"state_file"` // run log used for the startup catch-up
}

type DemoConfig struct {
	Interval string `mapstructure:"interval"` // weekly or daily
	Persist  bool   `mapstructure:"persist"`
}

// RequestTimeoutDuration returns the HTTP timeout for price fetches.
func (s SourceConfig) RequestTimeoutDuration() time.Duration {
	if s.RequestTimeout <= 0 {
		return 15 * time.Second
	}
	return time.Duration(s.RequestTimeout) * time.Second
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"log-level":     "app.log_level",
	"store-backend": "store.backend",
	"data-file":     "store.data_file",
	"source-mode":   "source.mode",
	"chart-file":    "chart.path",
	"notify-driver": "notify.driver",
	"phone":         "notify.recipient",
	"demo-interval": "demo.interval",
	"demo-persist":  "demo.persist",
	"schedule-time": "schedule.time",
}

// RegisterFlags adds the config-backed flags to fs. Defaults live in viper, so flag
// defaults stay empty and only explicitly set flags override other sources.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Path to config file (default ./config.yaml)")
	fs.String("log-level", "", "File log level: debug, info, warn, error (env: PRICE_TRACKER_APP_LOG_LEVEL)")
	fs.String("store-backend", "", "Series backend: csv or sqlite (env: PRICE_TRACKER_STORE_BACKEND)")
	fs.String("data-file", "", "CSV data file (env: PRICE_TRACKER_DATA_FILE)")
	fs.String("source-mode", "", "Price source: random or scrape (env: PRICE_TRACKER_SOURCE_MODE)")
	fs.String("chart-file", "", "Chart PNG path (env: PRICE_TRACKER_CHART_PATH)")
	fs.String("notify-driver", "", "Notifier: imessage or telegram (env: PRICE_TRACKER_NOTIFY_DRIVER)")
	fs.String("phone", "", "Recipient to send the chart to (env: IMESSAGE_RECIPIENT)")
	fs.String("demo-interval", "", "Demo series spacing: weekly or daily")
	fs.Bool("demo-persist", false, "Save the demo series over the stored data")
	fs.String("schedule-time", "", "Daily run time HH:MM for watch (env: SCHEDULE_TIME)")
}

// Load reads defaults, config file, .env, environment and flags from fs (fs may be nil).
func Load(fs *pflag.FlagSet) (*Config, error) {
	_ = godotenv.Load(".env")

	v := viper.New()
	setDefaults(v)

	configFile := ""
	if fs != nil {
		if f := fs.Lookup("config"); f != nil {
			configFile = f.Value.String()
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config.yaml: %w", err)
			}
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setupEnvAliases(v)

	if fs != nil {
		if err := bindFlags(v, fs); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag --%s: %w", name, err)
		}
	}
	return nil
}

// setupEnvAliases binds the short, unprefixed variable names people put in .env.
func setupEnvAliases(v *viper.Viper) {
	v.BindEnv("store.data_file", "PRICE_TRACKER_DATA_FILE", "DATA_FILE")
	v.BindEnv("store.sqlite_path", "PRICE_TRACKER_SQLITE_PATH")
	v.BindEnv("chart.path", "PRICE_TRACKER_CHART_PATH", "CHART_FILE")

	v.BindEnv("source.egg.url", "EGG_PRICE_URL")
	v.BindEnv("source.egg.selector", "EGG_PRICE_SELECTOR")
	v.BindEnv("source.gas.url", "GAS_PRICE_URL")
	v.BindEnv("source.gas.selector", "GAS_PRICE_SELECTOR")

	v.BindEnv("notify.recipient", "PRICE_TRACKER_NOTIFY_RECIPIENT", "IMESSAGE_RECIPIENT")
	v.BindEnv("notify.telegram.token", "PRICE_TRACKER_NOTIFY_TELEGRAM_TOKEN", "TELEGRAM_BOT_TOKEN")

	v.BindEnv("schedule.time", "PRICE_TRACKER_SCHEDULE_TIME", "SCHEDULE_TIME")
	v.BindEnv("schedule.timezone", "PRICE_TRACKER_SCHEDULE_TIMEZONE")
}

func setDefaults(v *viper.Viper) {
	// App
	v.SetDefault("app.log_dir", "logs")
	v.SetDefault("app.log_level", "info")

	// Store
	v.SetDefault("store.backend", "csv")
	v.SetDefault("store.data_file", "price_tracker.csv")
	v.SetDefault("store.sqlite_path", "price_tracker.db")

	// Source
	v.SetDefault("source.mode", "random")
	v.SetDefault("source.request_timeout", 15)
	v.SetDefault("source.max_retries", 2)
	v.SetDefault("source.max_response_size", 5*1024*1024) // 5MB
	v.SetDefault("source.rate_limit", 2.0)
	v.SetDefault("source.seed", 0)
	v.SetDefault("source.egg.url", "https://www.ams.usda.gov/market-news/egg-market-news-reports")
	v.SetDefault("source.egg.selector", "")
	v.SetDefault("source.gas.url", "https://gasprices.aaa.com/?state=PA")
	v.SetDefault("source.gas.selector", "")

	// Chart
	v.SetDefault("chart.path", "etc/charts/price_chart.png")
	v.SetDefault("chart.width", 2400)
	v.SetDefault("chart.height", 1200)
	v.SetDefault("chart.title", "Weekly Average Egg & Gas Prices")

	// Notify
	v.SetDefault("notify.driver", "imessage")
	v.SetDefault("notify.recipient", "")
	v.SetDefault("notify.message", "Here's your weekly price update! 📊")
	v.SetDefault("notify.osascript_timeout", 30)
	v.SetDefault("notify.telegram.token", "")

	// Schedule
	v.SetDefault("schedule.time", "09:00")
	v.SetDefault("schedule.timezone", "Local")
	v.SetDefault("schedule.state_file", "etc/state/runs.json")

	// Demo
	v.SetDefault("demo.interval", "weekly")
	v.SetDefault("demo.persist", false)
}

// Validate checks enumerations and formats. Empty credentials are not errors here;
// the component that needs them reports it when used.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "csv":
		if c.Store.DataFile == "" {
			return fmt.Errorf("store.data_file is required for the csv backend")
		}
	case "sqlite":
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("store.sqlite_path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("store.backend must be csv or sqlite, got %q", c.Store.Backend)
	}

	switch c.Source.Mode {
	case "random", "scrape":
	default:
		return fmt.Errorf("source.mode must be random or scrape, got %q", c.Source.Mode)
	}

	switch c.Notify.Driver {
	case "imessage", "telegram":
	default:
		return fmt.Errorf("notify.driver must be imessage or telegram, got %q", c.Notify.Driver)
	}

	switch c.Demo.Interval {
	case "weekly", "daily":
	default:
		return fmt.Errorf("demo.interval must be weekly or daily, got %q", c.Demo.Interval)
	}

	if c.Chart.Path == "" {
		return fmt.Errorf("chart.path is required")
	}
	if c.Chart.Width <= 0 || c.Chart.Height <= 0 {
		return fmt.Errorf("chart.width and chart.height must be positive")
	}

	if _, _, err := ParseClock(c.Schedule.Time); err != nil {
		return err
	}
	if _, err := c.Schedule.Location(); err != nil {
		return err
	}

	return nil
}

// ParseClock parses "HH:MM" into hour and minute.
func ParseClock(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, 0, fmt.Errorf("schedule.time must be HH:MM, got %q", s)
	}
	return t.Hour(), t.Minute(), nil
}

// Location resolves the schedule timezone; "" and "Local" mean the host zone.
func (s ScheduleConfig) Location() (*time.Location, error) {
	if s.Timezone == "" || s.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule.timezone %q: %w", s.Timezone, err)
	}
	return loc, nil
}
