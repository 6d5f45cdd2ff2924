package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var metricsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsSubscribeMessage is the client->server filter frame. Re-sending a
// narrower list is the only "unsubscribe" mechanism this protocol has: there
// is no per-metric unsubscribe, only a full re-subscribe.
type wsSubscribeMessage struct {
	Action  string   `json:"action"`
	Metrics []string `json:"metrics"`
}

const defaultStreamInterval = time.Second

// handleMetricsStream serves GET /metrics/stream: a WebSocket that pushes the
// metricsSnapshot payload on an interval, narrowed by the client's last
// subscribe message.
func (s *server) handleMetricsStream(w http.ResponseWriter, r *http.Request) {
	conn, err := metricsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	interval := time.Duration(s.deps.StreamIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = defaultStreamInterval
	}

	subscribed := make(map[string]bool)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var msg wsSubscribeMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				continue
			}
			if msg.Action != "subscribe" {
				continue
			}
			next := make(map[string]bool, len(msg.Metrics))
			for _, m := range msg.Metrics {
				next[m] = true
			}
			subscribed = next
		}
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case <-ticker.C:
			payload := s.metricsSnapshot(subscribed)
			if err := conn.WriteJSON(payload); err != nil {
				return
			}
		}
	}
}

// metricsSnapshot builds the streamed payload (requests, streaming, models and
// dynamo; unlike /metrics it carries no errors or kv_cache key), narrowed to
// the keys in filter when non-empty (empty filter means "send everything").
func (s *server) metricsSnapshot(filter map[string]bool) map[string]any {
	t := s.deps.Trackers
	if t == nil {
		return map[string]any{}
	}

	all := map[string]any{
		"requests":  t.Request.SnapshotAll(),
		"streaming": t.Streaming.Snapshot(),
		"models":    t.Model.SnapshotAll(),
		"dynamo":    t.Dynamo.Snapshot(),
	}
	if len(filter) == 0 {
		return all
	}

	out := make(map[string]any, len(filter))
	for k := range filter {
		if v, ok := all[k]; ok {
			out[k] = v
		}
	}
	return out
}
