package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"SignalSentinel/internal/analysis"
	"SignalSentinel/internal/collector"
	"SignalSentinel/internal/errs"
	"SignalSentinel/internal/strategy"
)

// Data source providers.
const (
	ProviderYahoo = "yahoo"
	ProviderREST  = "rest"
)

// CronParser accepts the six-field (with seconds) expressions used by watch mode.
var CronParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		Provider     string `yaml:"provider"`
		BaseURL      string `yaml:"base_url"`
		APIKey       string `yaml:"api_key"`
		MarketSuffix string `yaml:"market_suffix"`
		Lookback     string `yaml:"lookback"`
	} `yaml:"data_source"`
	Analysis struct {
		Horizons           []int   `yaml:"horizons"`
		WinRateHorizon     int     `yaml:"win_rate_horizon"`
		StartOffset        int     `yaml:"start_offset"`
		EndMargin          *int    `yaml:"end_margin"`
		SignalPolicy       string  `yaml:"signal_policy"`
		ConvergenceWindow  int     `yaml:"convergence_window"`
		LiquidityThreshold float64 `yaml:"liquidity_threshold"`
	} `yaml:"analysis"`
	Watch struct {
		Tickers []string `yaml:"tickers"`
		Cron    string   `yaml:"cron"`
	} `yaml:"watch"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Proxy    string `yaml:"proxy"`
	LogLevel string `yaml:"log_level"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, errs.Wrap(errs.ErrCodeInvalidConfig, "parse config", err)
			}
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("DATA_PROVIDER"); v != "" {
		cfg.DataSource.Provider = v
	}
	if v := os.Getenv("DATA_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("DATA_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SIGNAL_POLICY"); v != "" {
		cfg.Analysis.SignalPolicy = v
	}
	if v := os.Getenv("LIQUIDITY_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Analysis.LiquidityThreshold = f
		}
	}
	if v := os.Getenv("WATCH_TICKERS"); v != "" {
		cfg.Watch.Tickers = SplitList(v)
	}
	if v := os.Getenv("WATCH_CRON"); v != "" {
		cfg.Watch.Cron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	def := analysis.DefaultOptions()

	if c.DataSource.Provider == "" {
		c.DataSource.Provider = ProviderYahoo
	}
	if c.DataSource.MarketSuffix == "" {
		c.DataSource.MarketSuffix = collector.DefaultMarketSuffix
	}
	if c.DataSource.Lookback == "" {
		c.DataSource.Lookback = collector.DefaultLookback
	}
	if len(c.Analysis.Horizons) == 0 {
		c.Analysis.Horizons = def.Horizons
	}
	if c.Analysis.WinRateHorizon == 0 {
		c.Analysis.WinRateHorizon = def.WinRateHorizon
	}
	if c.Analysis.StartOffset == 0 {
		c.Analysis.StartOffset = def.StartOffset
	}
	if c.Analysis.SignalPolicy == "" {
		c.Analysis.SignalPolicy = string(def.Policy)
	}
	if c.Analysis.ConvergenceWindow == 0 {
		c.Analysis.ConvergenceWindow = def.ConvergenceWindow
	}
	if c.Analysis.LiquidityThreshold == 0 {
		c.Analysis.LiquidityThreshold = def.LiquidityThreshold
	}
	if c.Watch.Cron == "" {
		// weekdays after the IDX close
		c.Watch.Cron = "0 30 16 * * 1-5"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// ToOptions converts the analysis section into pipeline options.
func (c *Config) ToOptions() analysis.Options {
	opts := analysis.Options{
		Horizons:           append([]int(nil), c.Analysis.Horizons...),
		WinRateHorizon:     c.Analysis.WinRateHorizon,
		StartOffset:        c.Analysis.StartOffset,
		EndMargin:          -1,
		Policy:             strategy.Policy(strings.ToLower(c.Analysis.SignalPolicy)),
		ConvergenceWindow:  c.Analysis.ConvergenceWindow,
		LiquidityThreshold: c.Analysis.LiquidityThreshold,
	}
	if c.Analysis.EndMargin != nil {
		opts.EndMargin = *c.Analysis.EndMargin
	}
	return opts
}

// Validate checks the settings every command needs.
func (c *Config) Validate() error {
	switch c.DataSource.Provider {
	case ProviderYahoo:
	case ProviderREST:
		if c.DataSource.BaseURL == "" {
			return errs.New(errs.ErrCodeInvalidConfig, "data_source.base_url is required for the rest provider")
		}
	default:
		return errs.Newf(errs.ErrCodeInvalidConfig, "unknown data_source.provider %q", c.DataSource.Provider)
	}
	opts := c.ToOptions()
	return opts.Validate()
}

// ValidateWatch checks the additional settings watch mode needs.
func (c *Config) ValidateWatch() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if len(c.Watch.Tickers) == 0 {
		return errs.New(errs.ErrCodeInvalidConfig, "watch.tickers is required")
	}
	if _, err := CronParser.Parse(c.Watch.Cron); err != nil {
		return errs.Wrap(errs.ErrCodeInvalidConfig, "watch.cron", err)
	}
	if c.Telegram.BotToken == "" {
		return errs.New(errs.ErrCodeInvalidConfig, "telegram.bot_token is required")
	}
	if c.Telegram.ChatID == "" {
		return errs.New(errs.ErrCodeInvalidConfig, "telegram.chat_id is required")
	}
	return nil
}

// SplitList splits a comma separated list, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseHorizons parses a comma separated list of positive bar counts.
func ParseHorizons(s string) ([]int, error) {
	var out []int
	for _, p := range SplitList(s) {
		h, err := strconv.Atoi(p)
		if err != nil || h <= 0 {
			return nil, errs.Newf(errs.ErrCodeInvalidConfig, "invalid horizon %q", p)
		}
		out = append(out, h)
	}
	if len(out) == 0 {
		return nil, errs.New(errs.ErrCodeInvalidConfig, "no horizons given")
	}
	return out, nil
}
