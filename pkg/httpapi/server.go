// Package httpapi serves the sensor's read API and static frontend,
// grounded on web_server.c's route table and cmd/interpreter_api/main.go's
// websocket broadcast trio, router and JSON helpers adapted to
// github.com/gorilla/mux and github.com/gorilla/websocket.
package httpapi

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/kwartiwi/p1sensor/pkg/p1/snapshot"
	"github.com/kwartiwi/p1sensor/pkg/telemetry"
)

// Server wires the telemetry store to an HTTP router.
type Server struct {
	store       *telemetry.Store
	lockTimeout time.Duration
	webRoot     string

	router   *mux.Router
	upgrader websocket.Upgrader
	hub      *wsHub
}

// New returns a Server ready to be wrapped in an http.Server. lockTimeout
// is W_max: the bound every JSON API handler places on store lock
// acquisition. The websocket handler and RunBroadcaster read the snapshot
// without it, bounded only by their request or run context.
// webRoot is the directory the static frontend is served from.
func New(store *telemetry.Store, lockTimeout time.Duration, webRoot string) *Server {
	s := &Server{
		store:       store,
		lockTimeout: lockTimeout,
		webRoot:     webRoot,
		upgrader:    websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		hub:         newWSHub(),
	}
	s.router = s.buildRouter()
	return s
}

// Router returns the handler to pass to http.Server.
func (s *Server) Router() http.Handler {
	return s.router
}

// RunBroadcaster blocks, pushing the basic snapshot fields to every
// connected websocket client on each "telegram available" edge, until ctx
// is done. Grounded on cmd/interpreter_api/main.go's
// BroadcastToWebSockets, driven here by the store's condition-variable
// style Broadcaster instead of a reader callback.
func (s *Server) RunBroadcaster(ctx context.Context) error {
	for {
		if err := s.store.TelegramAvailable().Wait(ctx); err != nil {
			return err
		}
		s.broadcastLatest(ctx)
	}
}

func (s *Server) broadcastLatest(ctx context.Context) {
	var body basicDataJSON
	if err := s.store.ReadSnapshot(ctx, func(snap snapshot.Snapshot) {
		body = basicDataToJSON(snap)
	}); err != nil {
		log.Printf("httpapi: broadcast: read snapshot: %v", err)
		return
	}
	payload, err := json.Marshal(body)
	if err != nil {
		log.Printf("httpapi: broadcast: marshal: %v", err)
		return
	}
	s.hub.broadcast(payload)
}

func (s *Server) buildRouter() *mux.Router {
	r := mux.NewRouter()
	r.Use(requestIDMiddleware)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/version", s.handleVersion).Methods(http.MethodGet)
	api.HandleFunc("/system/info", s.handleSystemInfo).Methods(http.MethodGet)
	api.HandleFunc("/p1/data/basic", s.handleP1DataBasic).Methods(http.MethodGet)
	api.HandleFunc("/p1/data/complete", s.handleP1DataComplete).Methods(http.MethodGet)
	api.HandleFunc("/meter-data", s.handleMeterData).Methods(http.MethodGet)
	api.HandleFunc("/meter-data-history", s.handleMeterDataHistory).Methods(http.MethodGet)
	api.HandleFunc("/ws", s.handleWebSocket).Methods(http.MethodGet)

	// Static fallback must be registered last: it is a wildcard match on
	// everything setup_api_routes didn't already claim.
	r.PathPrefix("/").Handler(http.HandlerFunc(s.handleStatic))

	return r
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("httpapi: write response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r)
	})
}
