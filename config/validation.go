package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// ValidationError represents a validation error for a specific field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult holds the result of config validation.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// ConfigError is returned when startup configuration is missing or invalid.
// It is fatal at process start.
type ConfigError struct {
	Errors []ValidationError
}

func (e *ConfigError) Error() string {
	if len(e.Errors) == 0 {
		return "config validation failed"
	}
	msgs := make([]string, 0, len(e.Errors))
	for _, ve := range e.Errors {
		msgs = append(msgs, ve.Field+": "+ve.Message)
	}
	return "config validation failed: " + strings.Join(msgs, "; ")
}

// Validate checks the config for missing or invalid values.
func (c *Config) Validate() ValidationResult {
	var errors []ValidationError

	errors = append(errors, validateNotifications(c)...)
	errors = append(errors, validateSubgraph(&c.Subgraph)...)
	errors = append(errors, validateWatch(&c.Watch)...)
	errors = append(errors, validateDiscovery(&c.Discovery)...)
	errors = append(errors, validatePoll(&c.Poll)...)
	errors = append(errors, validateCopyTrade(&c.CopyTrade)...)
	errors = append(errors, validateHealthServer(&c.HealthServer)...)

	return ValidationResult{
		Valid:  len(errors) == 0,
		Errors: errors,
	}
}

func validateNotifications(c *Config) []ValidationError {
	var errors []ValidationError

	if c.Telegram.BotToken != "" && c.Telegram.ChatID == 0 {
		errors = append(errors, ValidationError{
			Field:   "telegram.chat_id",
			Message: "required when TELEGRAM_BOT_TOKEN is set",
		})
	}
	if c.Discord.BotToken != "" && c.Discord.ChannelID == "" {
		errors = append(errors, ValidationError{
			Field:   "discord.channel_id",
			Message: "required when DISCORD_BOT_TOKEN is set",
		})
	}
	if !c.Telegram.Enabled() && !c.Discord.Enabled() {
		errors = append(errors, ValidationError{
			Field:   "notifications",
			Message: "configure TELEGRAM_BOT_TOKEN/TELEGRAM_CHAT_ID or DISCORD_BOT_TOKEN/DISCORD_CHANNEL_ID",
		})
	}
	if c.Telegram.ProxyURL != "" {
		if _, err := url.Parse(c.Telegram.ProxyURL); err != nil {
			errors = append(errors, ValidationError{
				Field:   "telegram.proxy_url",
				Message: fmt.Sprintf("invalid url: %v", err),
			})
		}
	}
	if strings.Count(c.Telegram.APIEndpoint, "%s") != 2 {
		errors = append(errors, ValidationError{
			Field:   "telegram.api_endpoint",
			Message: "must contain two %s placeholders (token, method)",
		})
	}

	return errors
}

func validateSubgraph(s *SubgraphConfig) []ValidationError {
	var errors []ValidationError

	for field, raw := range map[string]string{
		"subgraph.activity_url": s.ActivityURL,
		"subgraph.pnl_url":      s.PnLURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errors = append(errors, ValidationError{
				Field:   field,
				Message: "must be an absolute URL",
			})
		}
	}

	if strings.TrimSpace(s.TradesField) == "" {
		errors = append(errors, ValidationError{
			Field:   "subgraph.trades_field",
			Message: "must not be empty",
		})
	}

	if s.RequestTimeout <= 0 {
		errors = append(errors, ValidationError{
			Field:   "subgraph.request_timeout",
			Message: "must be positive",
		})
	}

	if s.RequestsPerSecond < 0 {
		errors = append(errors, ValidationError{
			Field:   "subgraph.requests_per_second",
			Message: "must be non-negative (0 disables limiting)",
		})
	}

	if s.RequestsPerSecond > 0 && s.Burst < 1 {
		errors = append(errors, ValidationError{
			Field:   "subgraph.burst",
			Message: "must be at least 1 when rate limiting is enabled",
		})
	}

	return errors
}

func validateWatch(w *WatchConfig) []ValidationError {
	var errors []ValidationError

	for _, addr := range w.ManualWatchlist {
		if !common.IsHexAddress(addr) {
			errors = append(errors, ValidationError{
				Field:   "watch.manual_watchlist",
				Message: fmt.Sprintf("invalid address %q", addr),
			})
		}
	}

	return errors
}

func validateDiscovery(d *DiscoveryConfig) []ValidationError {
	var errors []ValidationError

	if d.PoolSize < 1 {
		errors = append(errors, ValidationError{
			Field:   "discovery.pool_size",
			Message: "must be at least 1",
		})
	}

	if d.ResultLimit < 1 {
		errors = append(errors, ValidationError{
			Field:   "discovery.result_limit",
			Message: "must be at least 1",
		})
	} else if d.ResultLimit > d.PoolSize {
		errors = append(errors, ValidationError{
			Field:   "discovery.result_limit",
			Message: "must not exceed discovery.pool_size",
		})
	}

	if d.MaxDailyTrades < 1 {
		errors = append(errors, ValidationError{
			Field:   "discovery.max_daily_trades",
			Message: "must be at least 1",
		})
	}

	if d.BotWindow < 1*time.Minute {
		errors = append(errors, ValidationError{
			Field:   "discovery.bot_window",
			Message: "must be at least 1 minute",
		})
	}

	if d.MaxWorkers < 0 {
		errors = append(errors, ValidationError{
			Field:   "discovery.max_workers",
			Message: "must be non-negative",
		})
	}

	return errors
}

func validatePoll(p *PollConfig) []ValidationError {
	var errors []ValidationError

	if p.Interval < 1*time.Second {
		errors = append(errors, ValidationError{
			Field:   "poll.interval",
			Message: "must be at least 1 second",
		})
	}

	if p.TradeLimit < 1 || p.TradeLimit > 1000 {
		errors = append(errors, ValidationError{
			Field:   "poll.trade_limit",
			Message: "must be between 1 and 1000",
		})
	}

	return errors
}

func validateCopyTrade(c *CopyTradeConfig) []ValidationError {
	var errors []ValidationError

	mode := strings.ToUpper(c.Mode)
	if mode != TradeModeSimulation && mode != TradeModeReal {
		errors = append(errors, ValidationError{
			Field:   "copy_trade.mode",
			Message: fmt.Sprintf("must be %s or %s", TradeModeSimulation, TradeModeReal),
		})
	}

	if !c.Amount.IsPositive() {
		errors = append(errors, ValidationError{
			Field:   "copy_trade.amount",
			Message: "must be positive",
		})
	}

	return errors
}

func validateHealthServer(hs *HealthServerConfig) []ValidationError {
	var errors []ValidationError

	if hs.Enabled && (hs.Port < 1 || hs.Port > 65535) {
		errors = append(errors, ValidationError{
			Field:   "health_server.port",
			Message: "must be between 1 and 65535",
		})
	}

	return errors
}
