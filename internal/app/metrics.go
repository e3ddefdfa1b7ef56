package app

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Poll results.
const (
	pollResultOK      = "ok"
	pollResultError   = "error"
	pollResultSkipped = "skipped"
)

// Discovery rejection reasons.
const (
	rejectBot          = "bot"
	rejectUnprofitable = "unprofitable"
)

// Metrics holds the engine's Prometheus collectors on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	polls             *prometheus.CounterVec
	tradesSeen        prometheus.Counter
	tradesSkipped     prometheus.Counter
	alerts            *prometheus.CounterVec
	copyTrades        *prometheus.CounterVec
	discoveryAdmitted prometheus.Gauge
	discoveryRejected *prometheus.CounterVec
	cursor            prometheus.Gauge
	watchlist         *prometheus.GaugeVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		polls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "whalebot_polls_total",
				Help: "Poll ticks by result",
			},
			[]string{"result"}, // ok|error|skipped
		),
		tradesSeen: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "whalebot_trades_seen_total",
			Help: "Trade events returned by the feed",
		}),
		tradesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "whalebot_trades_skipped_total",
			Help: "Malformed trade records dropped by the feed client",
		}),
		alerts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "whalebot_alerts_total",
				Help: "Alerts dispatched by watch class",
			},
			[]string{"class"},
		),
		copyTrades: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "whalebot_copy_trades_total",
				Help: "Copy-trade instructions by result",
			},
			[]string{"result"},
		),
		discoveryAdmitted: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "whalebot_discovery_admitted",
			Help: "Accounts admitted by the last discovery pass",
		}),
		discoveryRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "whalebot_discovery_rejected_total",
				Help: "Discovery candidates rejected by reason",
			},
			[]string{"reason"}, // bot|unprofitable
		),
		cursor: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "whalebot_cursor_timestamp",
			Help: "Unix timestamp of the trade cursor",
		}),
		watchlist: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "whalebot_watchlist_size",
				Help: "Watched addresses by class",
			},
			[]string{"class"},
		),
	}

	m.registry.MustRegister(
		m.polls,
		m.tradesSeen,
		m.tradesSkipped,
		m.alerts,
		m.copyTrades,
		m.discoveryAdmitted,
		m.discoveryRejected,
		m.cursor,
		m.watchlist,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObservePoll(result string) {
	if m == nil {
		return
	}
	m.polls.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveTrades(n int) {
	if m == nil {
		return
	}
	m.tradesSeen.Add(float64(n))
}

func (m *Metrics) ObserveSkippedTrades(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.tradesSkipped.Add(float64(n))
}

func (m *Metrics) ObserveAlert(class WatchClass) {
	if m == nil {
		return
	}
	m.alerts.WithLabelValues(class.String()).Inc()
}

func (m *Metrics) ObserveCopyTrade(result string) {
	if m == nil {
		return
	}
	m.copyTrades.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveDiscovery(admitted int) {
	if m == nil {
		return
	}
	m.discoveryAdmitted.Set(float64(admitted))
}

func (m *Metrics) ObserveRejection(reason string) {
	if m == nil {
		return
	}
	m.discoveryRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) SetCursor(ts int64) {
	if m == nil {
		return
	}
	m.cursor.Set(float64(ts))
}

func (m *Metrics) SetWatchlist(manual, smartMoney int) {
	if m == nil {
		return
	}
	m.watchlist.WithLabelValues(WatchManual.String()).Set(float64(manual))
	m.watchlist.WithLabelValues(WatchSmartMoney.String()).Set(float64(smartMoney))
}
