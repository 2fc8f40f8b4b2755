package adminapi

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relaynotify/notifyd/internal/budget"
	"github.com/relaynotify/notifyd/internal/observability"
	"github.com/relaynotify/notifyd/internal/zlog"
)

// maxDashboardConnections bounds how many operator dashboards may watch
// the budget feed at once, so a flood of client connections can't grow the
// broadcast set without limit.
const maxDashboardConnections = 200

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub broadcasts the live budget gauge to connected WebSocket clients once
// per second through a single ticking broadcaster, so adding dashboards
// never multiplies the number of tickers running against the gate.
type Hub struct {
	gate   *budget.Gate
	logger zlog.Logger

	mu         sync.RWMutex
	clients    map[*websocket.Conn]struct{}
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
}

// NewHub builds a Hub that reports on gate's live/limit state.
func NewHub(gate *budget.Gate, logger zlog.Logger) *Hub {
	if logger == nil {
		logger = zlog.NewDiscard()
	}
	return &Hub{
		gate:       gate,
		logger:     logger,
		clients:    make(map[*websocket.Conn]struct{}),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
	}
}

// Run drives the hub's event loop until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case conn := <-h.register:
			h.mu.Lock()
			if len(h.clients) >= maxDashboardConnections {
				h.mu.Unlock()
				_ = conn.Close()
				h.logger.Warn("dashboard connection rejected: max connections reached", "max", maxDashboardConnections)
				continue
			}
			h.clients[conn] = struct{}{}
			observability.ConnectedDashboards.Set(float64(len(h.clients)))
			h.mu.Unlock()
		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				_ = conn.Close()
				observability.ConnectedDashboards.Set(float64(len(h.clients)))
			}
			h.mu.Unlock()
		case <-ticker.C:
			h.broadcast()
		}
	}
}

func (h *Hub) broadcast() {
	limit := h.gate.Limit()
	live := h.gate.Size()
	msg := budgetSnapshot{Limit: limit, Live: live, CapacityAvailable: limit - live}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for conn := range h.clients {
		_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(msg); err != nil {
			h.logger.Debug("dashboard write failed, unregistering", "error", err)
			go h.Unregister(conn)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		_ = conn.Close()
	}
	h.clients = make(map[*websocket.Conn]struct{})
	observability.ConnectedDashboards.Set(0)
}

// Register admits conn into the broadcast set.
func (h *Hub) Register(conn *websocket.Conn) { h.register <- conn }

// Unregister removes conn from the broadcast set.
func (h *Hub) Unregister(conn *websocket.Conn) { h.unregister <- conn }

// ClientCount reports how many dashboards are currently connected.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	s.hub.Register(conn)

	// Drain and discard client reads; a close or error unregisters. The
	// hub never expects inbound messages from a dashboard.
	go func() {
		defer s.hub.Unregister(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
