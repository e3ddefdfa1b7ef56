package notifier

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// AlertKind distinguishes alerts for manually configured whales from
// alerts for discovered smart-money accounts.
type AlertKind string

const (
	AlertKindWhale      AlertKind = "whale"
	AlertKindSmartMoney AlertKind = "smart_money"
)

// Title returns the headline used for the alert kind.
func (k AlertKind) Title() string {
	if k == AlertKindSmartMoney {
		return "Smart Money Alert"
	}
	return "Whale Alert"
}

// Emoji returns the leading emoji used for the alert kind.
func (k AlertKind) Emoji() string {
	if k == AlertKindSmartMoney {
		return "🧠"
	}
	return "🚨"
}

const profileURLFormat = "https://polymarket.com/profile/%s"

// TradeAlert contains all the data needed for a trade alert notification.
type TradeAlert struct {
	Kind AlertKind

	// Trader
	TraderAddress string

	// Trade
	TradeID     string
	Side        string // Buy or Sell
	Amount      decimal.Decimal
	Collateral  decimal.Decimal // USDC
	MarketTitle string
	Outcome     string

	Timestamp time.Time
}

// ProfileURL links to the trader's public profile.
func (a TradeAlert) ProfileURL() string {
	return fmt.Sprintf(profileURLFormat, a.TraderAddress)
}

// CollateralDisplay renders the USDC amount with thousands separators.
func (a TradeAlert) CollateralDisplay() string {
	return "$" + humanize.CommafWithDigits(a.Collateral.Round(2).InexactFloat64(), 2)
}

// AgeDisplay renders how long ago the trade happened ("3 minutes ago").
func (a TradeAlert) AgeDisplay(now time.Time) string {
	if a.Timestamp.IsZero() {
		return "unknown"
	}
	return humanize.RelTime(a.Timestamp, now, "ago", "from now")
}

// FormatText renders the alert as a Markdown text message. escape is applied to
// every free-text field coming from the feed.
func FormatText(a TradeAlert, escape func(string) string) string {
	if escape == nil {
		escape = func(s string) string { return s }
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s *%s!*\n\n", a.Kind.Emoji(), a.Kind.Title())
	fmt.Fprintf(&b, "👤 *User:* `%s`\n", a.TraderAddress)
	fmt.Fprintf(&b, "📊 *Action:* %s\n", escape(a.Side))
	fmt.Fprintf(&b, "🏛 *Market:* %s\n", escape(a.MarketTitle))
	fmt.Fprintf(&b, "💰 *Amount:* %s USDC\n", a.CollateralDisplay())
	fmt.Fprintf(&b, "🎯 *Outcome:* %s\n", escape(a.Outcome))
	if !a.Timestamp.IsZero() {
		fmt.Fprintf(&b, "🕐 %s\n", a.AgeDisplay(time.Now()))
	}
	fmt.Fprintf(&b, "\n[Profile](%s)", a.ProfileURL())
	return b.String()
}

var markdownEscaper = strings.NewReplacer(
	"_", "\\_",
	"*", "\\*",
	"[", "\\[",
	"]", "\\]",
	"`", "\\`",
)

// EscapeMarkdown escapes the characters Telegram Markdown treats as entity
// delimiters. Discord renders the same backslash escapes literally.
func EscapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// ShortAddress abbreviates an account address for logs and link text.
func ShortAddress(addr string) string {
	if len(addr) <= 14 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-6:]
}

// Notifier is the interface for sending alerts to various channels.
type Notifier interface {
	// SendTradeAlert sends a trade alert notification.
	SendTradeAlert(alert TradeAlert)

	// SendMessage sends a free-form text message (startup, discovery summary, copy trades).
	SendMessage(text string)

	// Close cleans up any resources.
	Close() error
}

// MultiNotifier broadcasts alerts to multiple notifiers.
type MultiNotifier struct {
	notifiers []Notifier
}

// NewMultiNotifier creates a new MultiNotifier with the given notifiers.
func NewMultiNotifier(notifiers ...Notifier) *MultiNotifier {
	// Filter out nil notifiers
	var active []Notifier
	for _, n := range notifiers {
		if n != nil {
			active = append(active, n)
		}
	}
	return &MultiNotifier{notifiers: active}
}

// SendTradeAlert sends the alert to all registered notifiers.
func (m *MultiNotifier) SendTradeAlert(alert TradeAlert) {
	for _, n := range m.notifiers {
		n.SendTradeAlert(alert)
	}
}

// SendMessage sends the text to all registered notifiers.
func (m *MultiNotifier) SendMessage(text string) {
	for _, n := range m.notifiers {
		n.SendMessage(text)
	}
}

// Close closes all registered notifiers.
func (m *MultiNotifier) Close() error {
	var lastErr error
	for _, n := range m.notifiers {
		if err := n.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// Count returns the number of active notifiers.
func (m *MultiNotifier) Count() int {
	return len(m.notifiers)
}
