package httpapi

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/kwartiwi/p1sensor/pkg/p1/snapshot"
)

// wsHub tracks connected live-push clients, grounded on
// cmd/interpreter_api/main.go's wsClients map plus its
// Add/Remove/BroadcastToWebSockets trio.
type wsHub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]bool
}

func newWSHub() *wsHub {
	return &wsHub{clients: make(map[*websocket.Conn]bool)}
}

func (h *wsHub) add(c *websocket.Conn) {
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
}

func (h *wsHub) remove(c *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.Close()
}

func (h *wsHub) broadcast(payload []byte) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for c := range h.clients {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.remove(c)
		}
	}
}

// handleWebSocket upgrades the connection and keeps it registered until
// the client disconnects, grounded on cmd/interpreter_api/main.go's /ws
// handler.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.hub.add(conn)

	var body basicDataJSON
	if err := s.store.ReadSnapshot(r.Context(), func(snap snapshot.Snapshot) {
		body = basicDataToJSON(snap)
	}); err == nil {
		if payload, err := json.Marshal(body); err == nil {
			_ = conn.WriteMessage(websocket.TextMessage, payload)
		}
	}

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			s.hub.remove(conn)
			return
		}
	}
}
