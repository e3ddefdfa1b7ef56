package app

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WebSocket upgrader for real-time stats
var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const statsPushInterval = 1 * time.Second

// statusHandler serves liveness, stats, live stats and Prometheus metrics.
func (r *Runner) statusHandler() http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// JSON stats endpoint
	mux.HandleFunc("/stats", func(w http.ResponseWriter, _ *http.Request) {
		stats := r.GetStats()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(stats)
	})

	// WebSocket endpoint for real-time stats
	mux.HandleFunc("/ws", func(w http.ResponseWriter, req *http.Request) {
		conn, err := wsUpgrader.Upgrade(w, req, nil)
		if err != nil {
			r.logger.Error("websocket upgrade failed", zap.Error(err))
			return
		}
		defer conn.Close()

		// Detect client close; browsers never send data on this socket.
		closed := make(chan struct{})
		go func() {
			defer close(closed)
			for {
				if _, _, err := conn.NextReader(); err != nil {
					return
				}
			}
		}()

		ticker := time.NewTicker(statsPushInterval)
		defer ticker.Stop()

		for {
			if err := conn.WriteJSON(r.GetStats()); err != nil {
				return // Client disconnected
			}
			select {
			case <-closed:
				return
			case <-req.Context().Done():
				return
			case <-ticker.C:
			}
		}
	})

	mux.Handle("/metrics", r.metrics.Handler())

	// HTML dashboard
	mux.HandleFunc("/", func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != "/" {
			http.NotFound(w, req)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(dashboardHTML))
	})

	return mux
}

// startHealthServer starts an HTTP server for health checks and stats.
func (r *Runner) startHealthServer(port int) {
	r.healthServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           r.statusHandler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := r.healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			r.logger.Error("health server error", zap.Error(err))
		}
	}()
}

const dashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Whalebot</title>
    <style>
        :root {
            --bg-primary: #0d1117;
            --bg-secondary: #161b22;
            --border-color: #30363d;
            --text-primary: #c9d1d9;
            --text-secondary: #8b949e;
            --accent-blue: #58a6ff;
            --accent-green: #3fb950;
            --accent-red: #f85149;
            --accent-purple: #a371f7;
        }
        body { background: var(--bg-primary); color: var(--text-primary); font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif; margin: 0; padding: 24px; }
        h1 { font-size: 20px; margin: 0 0 16px; }
        .grid { display: grid; grid-template-columns: repeat(auto-fill, minmax(180px, 1fr)); gap: 12px; margin-bottom: 24px; }
        .card { background: var(--bg-secondary); border: 1px solid var(--border-color); border-radius: 6px; padding: 12px; }
        .label { color: var(--text-secondary); font-size: 12px; text-transform: uppercase; }
        .value { font-size: 22px; margin-top: 4px; }
        .status-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-right: 6px; }
        .connected { background: var(--accent-green); }
        .disconnected { background: var(--accent-red); }
        table { width: 100%; border-collapse: collapse; font-family: monospace; font-size: 13px; }
        td { padding: 4px 8px; border-bottom: 1px solid var(--border-color); }
        .manual { color: var(--accent-blue); }
        .smart_money { color: var(--accent-purple); }
        .error { color: var(--accent-red); font-family: monospace; font-size: 12px; }
    </style>
</head>
<body>
    <h1><span id="wsDot" class="status-dot disconnected"></span>Whalebot <small id="commit" class="label"></small></h1>
    <div class="grid">
        <div class="card"><div class="label">State</div><div class="value" id="state">-</div></div>
        <div class="card"><div class="label">Uptime</div><div class="value" id="uptime">-</div></div>
        <div class="card"><div class="label">Cursor</div><div class="value" id="cursor">-</div></div>
        <div class="card"><div class="label">Trades seen</div><div class="value" id="trades">-</div></div>
        <div class="card"><div class="label">Whale alerts</div><div class="value" id="whaleAlerts">-</div></div>
        <div class="card"><div class="label">Smart money alerts</div><div class="value" id="smartAlerts">-</div></div>
        <div class="card"><div class="label">Copy trades</div><div class="value" id="copyTrades">-</div></div>
        <div class="card"><div class="label">Poll errors</div><div class="value" id="pollErrors">-</div></div>
    </div>
    <div class="error" id="lastError"></div>
    <h1>Watchlist <small class="label" id="mode"></small></h1>
    <table id="watchlist"></table>
    <script>
        function connect() {
            const protocol = window.location.protocol === 'https:' ? 'wss:' : 'ws:';
            const ws = new WebSocket(protocol + '//' + window.location.host + '/ws');
            const dot = document.getElementById('wsDot');

            ws.onopen = () => { dot.className = 'status-dot connected'; };
            ws.onclose = () => {
                dot.className = 'status-dot disconnected';
                setTimeout(connect, 2000);
            };
            ws.onerror = () => ws.close();

            ws.onmessage = (e) => {
                const s = JSON.parse(e.data);
                const commit = s.build.commit || 'dev';
                document.getElementById('commit').textContent = commit.substring(0, 7) + ' · ' + s.stage;
                document.getElementById('state').textContent = s.loop.state;
                document.getElementById('uptime').textContent = s.uptime || '-';
                document.getElementById('cursor').textContent = s.loop.cursor ? new Date(s.loop.cursor * 1000).toLocaleTimeString() : '-';
                document.getElementById('trades').textContent = s.loop.trades_seen;
                document.getElementById('whaleAlerts').textContent = s.loop.whale_alerts;
                document.getElementById('smartAlerts').textContent = s.loop.smart_money_alerts;
                document.getElementById('copyTrades').textContent = s.loop.copy_trades;
                document.getElementById('pollErrors').textContent = s.loop.poll_errors;
                document.getElementById('lastError').textContent = s.loop.last_poll_error || '';
                document.getElementById('mode').textContent = s.copy_trade.mode + ' · $' + s.copy_trade.amount;

                const table = document.getElementById('watchlist');
                table.innerHTML = '';
                (s.watchlist.entries || []).forEach(entry => {
                    const row = table.insertRow();
                    row.insertCell().textContent = entry.address;
                    const cls = row.insertCell();
                    cls.textContent = entry.class;
                    cls.className = entry.class;
                });
            };
        }
        connect();
    </script>
</body>
</html>
`
