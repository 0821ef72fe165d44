package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Lixing-Zhang/food-ordering/internal/live"
	"github.com/Lixing-Zhang/food-ordering/internal/models"
)

const (
	heartbeatPeriod = 15 * time.Second
	writeWait       = 10 * time.Second
	pongWait        = 60 * time.Second
	pingPeriod      = (pongWait * 9) / 10
	maxMessageSize  = 4 * 1024
)

// render turns an order snapshot into the payload a feed sends
type render func([]models.Order) any

// feed streams a subscription to one client over SSE or WebSocket. Both
// transports cancel the subscription when the client goes away.
type feed struct {
	name     string
	render   render
	upgrader websocket.Upgrader
	gauge    *prometheus.GaugeVec
	log      *slog.Logger
}

func newFeed(name string, fn render, checkOrigin func(*http.Request) bool, gauge *prometheus.GaugeVec, log *slog.Logger) *feed {
	return &feed{
		name:   name,
		render: fn,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		gauge: gauge,
		log:   log,
	}
}

// serveSSE writes one "snapshot" event per delivered snapshot
func (f *feed) serveSSE(w http.ResponseWriter, r *http.Request, sub *live.Subscription) {
	defer sub.Cancel()

	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, http.StatusInternalServerError, "Streaming not supported", f.log)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	gauge := f.gauge.WithLabelValues(f.name, "sse")
	gauge.Inc()
	defer gauge.Dec()

	heartbeat := time.NewTicker(heartbeatPeriod)
	defer heartbeat.Stop()

	for {
		select {
		case snapshot, ok := <-sub.C:
			if !ok {
				return
			}
			payload, err := json.Marshal(f.render(snapshot))
			if err != nil {
				f.log.Error("failed to encode snapshot", "feed", f.name, "error", err)
				return
			}
			if _, err := fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

// serveWS upgrades the connection and writes one text message per snapshot.
// Client messages are ignored; reading only detects close and pongs.
func (f *feed) serveWS(w http.ResponseWriter, r *http.Request, sub *live.Subscription) {
	defer sub.Cancel()

	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.log.Warn("websocket upgrade failed", "feed", f.name, "error", err)
		return
	}
	defer conn.Close()

	gauge := f.gauge.WithLabelValues(f.name, "ws")
	gauge.Inc()
	defer gauge.Dec()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(maxMessageSize)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					f.log.Warn("websocket closed unexpectedly", "feed", f.name, "error", err)
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case snapshot, ok := <-sub.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteJSON(f.render(snapshot)); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}
