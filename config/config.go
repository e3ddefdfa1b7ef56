package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

// Copy-trade execution modes.
const (
	TradeModeSimulation = "SIMULATION"
	TradeModeReal       = "REAL"
)

// Config holds all application configuration.
//
// Each section is read from the environment on its own so variable names stay
// flat (MANUAL_WATCHLIST, TRADE_MODE, ...) instead of carrying a section prefix.
type Config struct {
	// Environment
	Stage string `envconfig:"STAGE" default:"beta"`

	Log          LogConfig          `ignored:"true"`
	Telegram     TelegramConfig     `ignored:"true"`
	Discord      DiscordConfig      `ignored:"true"`
	Subgraph     SubgraphConfig     `ignored:"true"`
	Watch        WatchConfig        `ignored:"true"`
	Discovery    DiscoveryConfig    `ignored:"true"`
	Poll         PollConfig         `ignored:"true"`
	CopyTrade    CopyTradeConfig    `ignored:"true"`
	HealthServer HealthServerConfig `ignored:"true"`
}

// LogConfig holds logger configuration.
type LogConfig struct {
	Development bool `envconfig:"LOG_DEVELOPMENT" default:"false"`
}

// TelegramConfig holds Telegram-related configuration.
type TelegramConfig struct {
	BotToken    string `envconfig:"TELEGRAM_BOT_TOKEN"`
	ChatID      int64  `envconfig:"TELEGRAM_CHAT_ID"`
	ProxyURL    string `envconfig:"TELEGRAM_PROXY_URL"`
	APIEndpoint string `envconfig:"TELEGRAM_API_ENDPOINT" default:"https://api.telegram.org/bot%s/%s"`
}

// Enabled reports whether both the token and the chat are set.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != 0
}

// DiscordConfig holds Discord-related configuration.
type DiscordConfig struct {
	BotToken  string `envconfig:"DISCORD_BOT_TOKEN"`
	ChannelID string `envconfig:"DISCORD_CHANNEL_ID"`
}

// Enabled reports whether both the token and the channel are set.
func (d DiscordConfig) Enabled() bool {
	return d.BotToken != "" && d.ChannelID != ""
}

// SubgraphConfig holds the trade/PnL subgraph endpoints.
type SubgraphConfig struct {
	ActivityURL       string        `envconfig:"SUBGRAPH_ACTIVITY_URL" default:"https://api.goldsky.com/api/public/project_cl6mb8i9h0003e201j6li0diw/subgraphs/activity-subgraph/0.0.4/gn"`
	PnLURL            string        `envconfig:"SUBGRAPH_PNL_URL" default:"https://api.goldsky.com/api/public/project_cl6mb8i9h0003e201j6li0diw/subgraphs/pnl-subgraph/0.0.14/gn"`
	TradesField       string        `envconfig:"SUBGRAPH_TRADES_FIELD" default:"fpmmTrades"`
	RequestTimeout    time.Duration `envconfig:"SUBGRAPH_REQUEST_TIMEOUT" default:"30s"`
	RequestsPerSecond float64       `envconfig:"SUBGRAPH_REQUESTS_PER_SECOND" default:"10"`
	Burst             int           `envconfig:"SUBGRAPH_BURST" default:"5"`
}

// WatchConfig holds the manually curated whale list.
type WatchConfig struct {
	ManualWatchlist []string `envconfig:"MANUAL_WATCHLIST"`
}

// DiscoveryConfig holds smart-money discovery configuration.
type DiscoveryConfig struct {
	Enabled        bool          `envconfig:"DISCOVERY_ENABLED" default:"true"`
	PoolSize       int           `envconfig:"DISCOVERY_POOL_SIZE" default:"50"`
	ResultLimit    int           `envconfig:"DISCOVERY_RESULT_LIMIT" default:"20"`
	MaxDailyTrades int           `envconfig:"MAX_DAILY_TRADES" default:"50"`
	BotWindow      time.Duration `envconfig:"BOT_WINDOW" default:"24h"`
	MinProfit      float64       `envconfig:"MIN_PROFIT" default:"0"`
	MaxWorkers     int           `envconfig:"DISCOVERY_MAX_WORKERS" default:"0"` // 0 = one worker per candidate
}

// PollConfig holds trade polling configuration.
type PollConfig struct {
	Interval   time.Duration `envconfig:"POLL_INTERVAL" default:"5s"`
	TradeLimit int           `envconfig:"POLL_TRADE_LIMIT" default:"20"`
}

// CopyTradeConfig holds copy-trade execution configuration.
type CopyTradeConfig struct {
	Mode   string          `envconfig:"TRADE_MODE" default:"SIMULATION"`
	Amount decimal.Decimal `envconfig:"COPY_TRADE_AMOUNT" default:"10"`
}

// IsSimulation reports whether copy trades are only simulated.
func (c CopyTradeConfig) IsSimulation() bool {
	return !strings.EqualFold(c.Mode, TradeModeReal)
}

// HealthServerConfig holds health check server configuration.
type HealthServerConfig struct {
	Enabled bool `envconfig:"HEALTH_SERVER_ENABLED" default:"true"`
	Port    int  `envconfig:"HEALTH_SERVER_PORT" default:"8080"`
}

// IsProd reports whether the process runs in the production stage.
func (c *Config) IsProd() bool {
	return strings.EqualFold(c.Stage, "prod")
}

// Defaults returns a config with hardcoded default values.
func Defaults() *Config {
	return &Config{
		Stage: "beta",
		Telegram: TelegramConfig{
			APIEndpoint: "https://api.telegram.org/bot%s/%s",
		},
		Subgraph: SubgraphConfig{
			ActivityURL:       "https://api.goldsky.com/api/public/project_cl6mb8i9h0003e201j6li0diw/subgraphs/activity-subgraph/0.0.4/gn",
			PnLURL:            "https://api.goldsky.com/api/public/project_cl6mb8i9h0003e201j6li0diw/subgraphs/pnl-subgraph/0.0.14/gn",
			TradesField:       "fpmmTrades",
			RequestTimeout:    30 * time.Second,
			RequestsPerSecond: 10,
			Burst:             5,
		},
		Discovery: DiscoveryConfig{
			Enabled:        true,
			PoolSize:       50,
			ResultLimit:    20,
			MaxDailyTrades: 50,
			BotWindow:      24 * time.Hour,
		},
		Poll: PollConfig{
			Interval:   5 * time.Second,
			TradeLimit: 20,
		},
		CopyTrade: CopyTradeConfig{
			Mode:   TradeModeSimulation,
			Amount: decimal.NewFromInt(10),
		},
		HealthServer: HealthServerConfig{
			Enabled: true,
			Port:    8080,
		},
	}
}

// Load reads an optional .env file, then the environment, and validates the
// result. The returned error is always a *ConfigError.
func Load(envFiles ...string) (*Config, error) {
	// A missing .env is normal in containers.
	_ = godotenv.Load(envFiles...)

	cfg := &Config{}
	sections := []struct {
		name   string
		target any
	}{
		{"stage", cfg},
		{"log", &cfg.Log},
		{"telegram", &cfg.Telegram},
		{"discord", &cfg.Discord},
		{"subgraph", &cfg.Subgraph},
		{"watch", &cfg.Watch},
		{"discovery", &cfg.Discovery},
		{"poll", &cfg.Poll},
		{"copy_trade", &cfg.CopyTrade},
		{"health_server", &cfg.HealthServer},
	}
	for _, s := range sections {
		if err := envconfig.Process("", s.target); err != nil {
			return nil, &ConfigError{Errors: []ValidationError{{
				Field:   s.name,
				Message: err.Error(),
			}}}
		}
	}

	cfg.Watch.ManualWatchlist = normalizeWallets(cfg.Watch.ManualWatchlist)
	cfg.CopyTrade.Mode = strings.ToUpper(strings.TrimSpace(cfg.CopyTrade.Mode))

	result := cfg.Validate()
	if !result.Valid {
		return cfg, &ConfigError{Errors: result.Errors}
	}
	return cfg, nil
}

// normalizeWallets trims and lower-cases addresses, dropping empties and duplicates.
func normalizeWallets(wallets []string) []string {
	if wallets == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(wallets))
	result := make([]string, 0, len(wallets))
	for _, w := range wallets {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		result = append(result, w)
	}
	return result
}

// Summary returns a short human-readable description used in startup logs.
func (c *Config) Summary() string {
	return fmt.Sprintf("stage=%s manual=%d poll=%s discovery=%t mode=%s",
		c.Stage, len(c.Watch.ManualWatchlist), c.Poll.Interval, c.Discovery.Enabled, c.CopyTrade.Mode)
}
