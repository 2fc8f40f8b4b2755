// Package adminapi is the HTTP/WebSocket operator-facing surface: budget
// introspection, device registration, notification submission, Prometheus
// exposition, and a live dashboard feed.
package adminapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/relaynotify/notifyd/internal/budget"
	"github.com/relaynotify/notifyd/internal/push"
	"github.com/relaynotify/notifyd/internal/registry"
	"github.com/relaynotify/notifyd/internal/zlog"
)

// Server wires the thread budget, the device registry, the dispatcher, and
// the dashboard hub behind an http.ServeMux, with auth and CORS applied as
// handler-wrapping middleware.
type Server struct {
	gate       *budget.Gate
	registry   registry.Registry
	dispatcher *push.Dispatcher
	hub        *Hub
	logger     zlog.Logger
	token      string

	mux *http.ServeMux
}

// NewServer builds the admin HTTP handler. token is the bearer token
// required on mutating endpoints; an empty token disables auth, which is
// only acceptable for local development and is logged loudly. dispatcher
// may be nil, in which case the notify endpoint is not registered.
func NewServer(gate *budget.Gate, reg registry.Registry, dispatcher *push.Dispatcher, hub *Hub, logger zlog.Logger, token string) *Server {
	if logger == nil {
		logger = zlog.NewDiscard()
	}
	if token == "" {
		logger.Warn("admin auth disabled: no auth token configured, mutating endpoints are open")
	}
	s := &Server{gate: gate, registry: reg, dispatcher: dispatcher, hub: hub, logger: logger, token: token}
	s.mux = http.NewServeMux()
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealthz)
	s.mux.Handle("/metrics", promhttp.Handler())
	s.mux.HandleFunc("/budget", s.handleBudget)
	s.mux.Handle("/devices/", s.auth(http.HandlerFunc(s.handleDevice)))
	s.mux.HandleFunc("/ws/budget", s.handleWS)
	if s.dispatcher != nil {
		s.mux.Handle("/notify/", s.auth(http.HandlerFunc(s.handleNotify)))
	}
}

// Handler returns the fully wrapped handler, with CORS applied outermost
// so preflight requests are answered before reaching any route.
func (s *Server) Handler() http.Handler {
	return cors(s.mux)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type budgetSnapshot struct {
	Limit             int `json:"limit"`
	Live              int `json:"live"`
	CapacityAvailable int `json:"capacity_available"`
}

func (s *Server) handleBudget(w http.ResponseWriter, _ *http.Request) {
	limit := s.gate.Limit()
	live := s.gate.Size()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(budgetSnapshot{
		Limit:             limit,
		Live:              live,
		CapacityAvailable: limit - live,
	})
}

type registerDeviceRequest struct {
	Platform registry.Platform `json:"platform"`
	Token    string            `json:"token"`
}

func (s *Server) handleDevice(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Path[len("/devices/"):]
	if id == "" {
		http.Error(w, "missing device id", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodPost:
		var req registerDeviceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		device := registry.Device{ID: id, Platform: req.Platform, Token: req.Token, LastSeen: time.Now()}
		if err := s.registry.Register(r.Context(), device); err != nil {
			s.logger.Warn("device registration failed", "device_id", id, "error", err)
			http.Error(w, "registration failed", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case http.MethodDelete:
		if err := s.registry.Forget(r.Context(), id); err != nil {
			http.Error(w, "forget failed", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

type notifyRequest struct {
	Title   string            `json:"title"`
	Body    string            `json:"body"`
	Payload map[string]string `json:"payload,omitempty"`
}

// handleNotify is the HTTP front door onto the dispatcher: it resolves the
// device, submits the send through the thread budget, and reports the
// admission outcome immediately without waiting on the outbound provider
// call.
func (s *Server) handleNotify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := r.URL.Path[len("/notify/"):]
	if id == "" {
		http.Error(w, "missing device id", http.StatusBadRequest)
		return
	}

	var req notifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	err := s.dispatcher.Dispatch(r.Context(), id, push.Notification{Title: req.Title, Body: req.Body, Payload: req.Payload})
	switch {
	case err == nil:
		w.WriteHeader(http.StatusAccepted)
	case errors.Is(err, push.ErrOverBudget), errors.Is(err, push.ErrRateLimited):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	case errors.Is(err, registry.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		s.logger.Warn("notify dispatch failed", "device_id", id, "error", err)
		http.Error(w, "dispatch failed", http.StatusInternalServerError)
	}
}
