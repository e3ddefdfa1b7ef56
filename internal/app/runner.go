package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	clts "whalebot/clients"
	"whalebot/config"
)

// Build info - populated from embedded VCS info at init time
var (
	BuildCommit = "dev"
	BuildTime   = "unknown"
)

func init() {
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				if setting.Value != "" {
					BuildCommit = setting.Value
				}
			case "vcs.time":
				BuildTime = setting.Value
			}
		}
	}
}

type Runner struct {
	logger   *zap.Logger
	cfg      *config.Config
	clients  *clts.Clients
	sink     AlertSink
	closer   io.Closer
	registry *WatchRegistry
	cursor   *TradeCursor
	metrics  *Metrics
	loop     *PollLoop

	healthServer *http.Server
	startTime    time.Time
}

// ServiceStats holds service statistics served on /stats and /ws.
type ServiceStats struct {
	Build struct {
		Commit    string `json:"commit"`
		Time      string `json:"time,omitempty"`
		GoVersion string `json:"go_version"`
	} `json:"build"`

	Stage     string `json:"stage"`
	StartTime string `json:"start_time"`
	Uptime    string `json:"uptime"`
	UptimeSec int64  `json:"uptime_seconds"`

	Loop LoopStats `json:"loop"`

	Watchlist struct {
		Manual     int          `json:"manual"`
		SmartMoney int          `json:"smart_money"`
		Entries    []WatchEntry `json:"entries"`
	} `json:"watchlist"`

	CopyTrade struct {
		Mode   string `json:"mode"`
		Amount string `json:"amount"`
	} `json:"copy_trade"`

	Notifications struct {
		DiscordEnabled  bool `json:"discord_enabled"`
		TelegramEnabled bool `json:"telegram_enabled"`
	} `json:"notifications"`

	Runtime struct {
		Goroutines int    `json:"goroutines"`
		HeapAlloc  uint64 `json:"heap_alloc"`
		HeapSys    uint64 `json:"heap_sys"`
		NumGC      uint32 `json:"num_gc"`
		GoVersion  string `json:"go_version"`
		NumCPU     int    `json:"num_cpu"`
		GOOS       string `json:"goos"`
		GOARCH     string `json:"goarch"`
	} `json:"runtime"`
}

func NewRunner(clients *clts.Clients, cfg *config.Config) *Runner {
	r := newRunner(clients.Logger, cfg, clients.Subgraph, clients.Notifier, clients.CopyTrade)
	r.clients = clients
	r.closer = clients.Notifier
	return r
}

func newRunner(logger *zap.Logger, cfg *config.Config, feed TradeFeed, sink AlertSink, executor TradeExecutor) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := NewMetrics()
	registry := NewWatchRegistry()
	// Start at process start so no backlog is alerted on.
	cursor := NewTradeCursor(time.Now().Unix())

	loop := NewPollLoop(logger, PollLoopConfig{
		Interval:         cfg.Poll.Interval,
		TradeLimit:       cfg.Poll.TradeLimit,
		DiscoveryEnabled: cfg.Discovery.Enabled,
		Discovery:        DiscoveryOptionsFromConfig(cfg.Discovery),
	}, feed, registry, cursor, sink, executor, metrics)

	return &Runner{
		logger:   logger,
		cfg:      cfg,
		sink:     sink,
		registry: registry,
		cursor:   cursor,
		metrics:  metrics,
		loop:     loop,
	}
}

// Run registers the manual watchlist, announces startup, serves status and
// drives the poll loop until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.startTime = time.Now()
	logger := r.logger

	for _, addr := range r.cfg.Watch.ManualWatchlist {
		r.registry.AddManual(addr)
	}
	manual, smart := r.registry.Counts()
	r.metrics.SetWatchlist(manual, smart)
	r.metrics.SetCursor(r.cursor.Get())

	logger.Info("starting whale monitor",
		zap.String("config", r.cfg.Summary()),
		zap.Int("manualWhales", manual),
		zap.Int64("cursor", r.cursor.Get()),
		zap.String("commit", BuildCommit),
	)

	r.sink.SendMessage(fmt.Sprintf("🤖 Whalebot started, monitoring %d whale(s)", manual))

	if r.cfg.HealthServer.Enabled {
		r.startHealthServer(r.cfg.HealthServer.Port)
		logger.Info("health server started", zap.Int("port", r.cfg.HealthServer.Port))
	}

	r.loop.Run(ctx)
	logger.Info("runner shutting down")

	// Shutdown health server
	if r.healthServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = r.healthServer.Shutdown(shutdownCtx)
		shutdownCancel()
	}

	if r.closer != nil {
		if err := r.closer.Close(); err != nil {
			logger.Warn("failed to close notifiers", zap.Error(err))
		}
	}

	return nil
}

func (r *Runner) GetStats() ServiceStats {
	var stats ServiceStats

	// Build info
	stats.Build.Commit = BuildCommit
	stats.Build.Time = BuildTime
	stats.Build.GoVersion = runtime.Version()

	// Service info
	stats.Stage = r.cfg.Stage
	if !r.startTime.IsZero() {
		stats.StartTime = r.startTime.UTC().Format(time.RFC3339)
		uptime := time.Since(r.startTime)
		stats.Uptime = uptime.Round(time.Second).String()
		stats.UptimeSec = int64(uptime.Seconds())
	}

	stats.Loop = r.loop.Stats()

	stats.Watchlist.Manual, stats.Watchlist.SmartMoney = r.registry.Counts()
	stats.Watchlist.Entries = r.registry.Entries()

	stats.CopyTrade.Mode = r.cfg.CopyTrade.Mode
	stats.CopyTrade.Amount = r.cfg.CopyTrade.Amount.StringFixed(2)

	if r.clients != nil {
		stats.Notifications.DiscordEnabled = r.cfg.Discord.Enabled()
		stats.Notifications.TelegramEnabled = r.clients.Telegram != nil && r.clients.Telegram.Enabled()
	}

	// Runtime stats
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	stats.Runtime.Goroutines = runtime.NumGoroutine()
	stats.Runtime.HeapAlloc = memStats.HeapAlloc
	stats.Runtime.HeapSys = memStats.HeapSys
	stats.Runtime.NumGC = memStats.NumGC
	stats.Runtime.GoVersion = runtime.Version()
	stats.Runtime.NumCPU = runtime.NumCPU()
	stats.Runtime.GOOS = runtime.GOOS
	stats.Runtime.GOARCH = runtime.GOARCH

	return stats
}
