// Package config loads the scanner's YAML configuration file with
// environment variable overrides (spec §6).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mselser95/arb-scanner/pkg/types"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration. Maps directly to the YAML file
// structure via mapstructure tags.
type Config struct {
	LogLevel           string             `mapstructure:"log_level"`
	HTTPPort           string             `mapstructure:"http_port"`
	ManualMappingsFile string             `mapstructure:"manual_mappings_file"`
	SubscriptionTopN   int                `mapstructure:"subscription_top_n"`
	Arbitrage          ArbitrageConfig    `mapstructure:"arbitrage"`
	Matcher            MatcherConfig      `mapstructure:"matcher"`
	Venues             map[string]Venue   `mapstructure:"venues"`
	Notification       NotificationConfig `mapstructure:"notification"`
}

// ArbitrageConfig tunes the evaluator (spec §4.4, §6).
type ArbitrageConfig struct {
	MinArbitrageThreshold float64 `mapstructure:"min_arbitrage_threshold"`
	ScanIntervalSeconds   int     `mapstructure:"scan_interval"`
	CooldownMinutes       int     `mapstructure:"cooldown_minutes"`
	TradingFee            float64 `mapstructure:"trading_fee"`
	DerivedPenaltyPct     float64 `mapstructure:"derived_penalty_pct"`
	MaxEndTimeGapDays     int     `mapstructure:"max_end_time_gap_days"`
}

// ScanInterval converts the configured seconds into a time.Duration.
func (a ArbitrageConfig) ScanInterval() time.Duration {
	return time.Duration(a.ScanIntervalSeconds) * time.Second
}

// Cooldown converts the configured minutes into a time.Duration.
func (a ArbitrageConfig) Cooldown() time.Duration {
	return time.Duration(a.CooldownMinutes) * time.Minute
}

// MaxEndTimeGap converts the configured days into a time.Duration.
func (a ArbitrageConfig) MaxEndTimeGap() time.Duration {
	return time.Duration(a.MaxEndTimeGapDays) * 24 * time.Hour
}

// MatcherConfig holds per-venue-pair similarity thresholds (spec §9,
// REDESIGN FLAGS: "treat these as configuration per venue pair").
type MatcherConfig struct {
	DefaultThreshold float64            `mapstructure:"default_threshold"`
	Thresholds       map[string]float64 `mapstructure:"thresholds"`
}

// Venue is one venue's section of the configuration file (spec §6:
// per-venue {base_url, api_key, cache_seconds}).
type Venue struct {
	Enabled      bool   `mapstructure:"enabled"`
	BaseURL      string `mapstructure:"base_url"`
	APIKey       string `mapstructure:"api_key"`
	CacheSeconds int    `mapstructure:"cache_seconds"`
	WSURL        string `mapstructure:"ws_url"`
}

// NotificationConfig wraps every notification sink's settings.
type NotificationConfig struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig is spec §6's notification.telegram.{bot_token, chat_id,
// enabled}.
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

var venueEnvKeys = []string{"poly", "kalshi", "opinion", "predict"}

// Load reads the YAML file at path, layering environment variable
// overrides on top using the upper-snake-case convention spec §6
// describes (e.g. MIN_ARBITRAGE_THRESHOLD, PREDICT_API_KEY).
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("http_port", "8080")
	v.SetDefault("subscription_top_n", 50)
	v.SetDefault("arbitrage.min_arbitrage_threshold", 2.0)
	v.SetDefault("arbitrage.scan_interval", 15)
	v.SetDefault("arbitrage.cooldown_minutes", 5)
	v.SetDefault("arbitrage.trading_fee", 0.005)
	v.SetDefault("arbitrage.derived_penalty_pct", 1.0)
	v.SetDefault("arbitrage.max_end_time_gap_days", 30)
	v.SetDefault("matcher.default_threshold", 0.45)
}

// applyEnvOverrides handles the handful of keys spec §6 names explicitly
// with bespoke env var names that don't follow AutomaticEnv's dotted-path
// convention (MIN_ARBITRAGE_THRESHOLD, not ARBITRAGE_MIN_ARBITRAGE_THRESHOLD).
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("HTTP_PORT"); v != "" {
		cfg.HTTPPort = v
	}
	if v := os.Getenv("MIN_ARBITRAGE_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Arbitrage.MinArbitrageThreshold = f
		}
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Notification.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Notification.Telegram.ChatID = v
	}

	if cfg.Venues == nil {
		cfg.Venues = make(map[string]Venue)
	}
	for _, name := range venueEnvKeys {
		upper := strings.ToUpper(name)
		venueCfg := cfg.Venues[name]
		if v := os.Getenv(upper + "_API_KEY"); v != "" {
			venueCfg.APIKey = v
		}
		if v := os.Getenv(upper + "_BASE_URL"); v != "" {
			venueCfg.BaseURL = v
		}
		cfg.Venues[name] = venueCfg
	}
}

// Validate checks that configuration values are valid.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return fmt.Errorf("http_port cannot be empty")
	}
	if c.Arbitrage.MinArbitrageThreshold <= 0 {
		return fmt.Errorf("arbitrage.min_arbitrage_threshold must be positive, got %f", c.Arbitrage.MinArbitrageThreshold)
	}
	if c.Arbitrage.ScanIntervalSeconds <= 0 {
		return fmt.Errorf("arbitrage.scan_interval must be positive, got %d", c.Arbitrage.ScanIntervalSeconds)
	}
	if c.Arbitrage.TradingFee < 0 || c.Arbitrage.TradingFee >= 0.5 {
		return fmt.Errorf("arbitrage.trading_fee must be in [0, 0.5), got %f", c.Arbitrage.TradingFee)
	}
	if c.Arbitrage.CooldownMinutes < 0 {
		return fmt.Errorf("arbitrage.cooldown_minutes must be non-negative, got %d", c.Arbitrage.CooldownMinutes)
	}

	enabled := 0
	for name, vc := range c.Venues {
		if !vc.Enabled {
			continue
		}
		enabled++
		if vc.BaseURL == "" {
			return fmt.Errorf("venues.%s.base_url is required when enabled", name)
		}
	}
	if enabled == 0 {
		return fmt.Errorf("at least one venue must be enabled")
	}

	if c.Notification.Telegram.Enabled {
		if c.Notification.Telegram.BotToken == "" || c.Notification.Telegram.ChatID == "" {
			return fmt.Errorf("notification.telegram.bot_token and chat_id are required when enabled")
		}
	}

	return nil
}

// manualMappingsFile is the YAML shape of the manual mapping file (spec
// §3: "Loaded once at startup from a config file; immutable thereafter").
type manualMappingsFile struct {
	Mappings []types.ManualMapping `yaml:"mappings"`
}

// LoadManualMappings reads the editorial market-pinning file. An empty
// path is not an error -- manual mappings are optional, the automatic
// matcher tier covers everything else.
func LoadManualMappings(path string) ([]types.ManualMapping, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manual mappings: %w", err)
	}

	var f manualMappingsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse manual mappings: %w", err)
	}

	return f.Mappings, nil
}
