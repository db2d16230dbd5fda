package httpapi

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/kwartiwi/p1sensor/pkg/p1/snapshot"
	"github.com/stretchr/testify/require"
)

func TestWebSocket_ReceivesLatestSnapshotOnConnectAndOnCommit(t *testing.T) {
	srv, store := newTestServer(t)
	store.CommitSnapshot(snapshot.Snapshot{CurrentPowerUsage: 1.234})

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	var first basicDataJSON
	require.NoError(t, json.Unmarshal(msg, &first))
	require.InDelta(t, 1.234, first.CurrentPowerUsage, 1e-9)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = srv.RunBroadcaster(ctx) }()

	store.CommitSnapshot(snapshot.Snapshot{CurrentPowerUsage: 5.678})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err = conn.ReadMessage()
	require.NoError(t, err)
	var second basicDataJSON
	require.NoError(t, json.Unmarshal(msg, &second))
	require.InDelta(t, 5.678, second.CurrentPowerUsage, 1e-9)
}
