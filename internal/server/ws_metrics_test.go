package server

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func TestHandleMetricsStreamPushesSnapshots(t *testing.T) {
	deps := newTestDeps()
	deps.StreamIntervalSeconds = 0 // falls back to defaultStreamInterval (1s)
	deps.Trackers.Request.Record("/v1/chat/completions", 10, false)

	srv := httptest.NewServer(New(deps))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/metrics/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var payload map[string]any
	require.NoError(t, conn.ReadJSON(&payload))
	require.Contains(t, payload, "requests")
	require.Contains(t, payload, "models")
}

func TestHandleMetricsStreamHonorsSubscribeFilter(t *testing.T) {
	deps := newTestDeps()
	deps.StreamIntervalSeconds = 0

	srv := httptest.NewServer(New(deps))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/metrics/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(wsSubscribeMessage{Action: "subscribe", Metrics: []string{"models"}}))

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var payload map[string]any
	require.NoError(t, conn.ReadJSON(&payload))
	require.Contains(t, payload, "models")
	require.NotContains(t, payload, "requests")
}
