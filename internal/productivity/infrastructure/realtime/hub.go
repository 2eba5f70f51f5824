// Package realtime delivers task broadcasts to observers over WebSocket.
package realtime

import (
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/felixgeelhaar/taskboard/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/taskboard/pkg/observability"
	"github.com/gorilla/websocket"
)

// Registrar is the part of the event bus the hub needs.
type Registrar interface {
	RegisterConsumer(consumer eventbus.EventConsumer)
	UnregisterConsumer(consumer eventbus.EventConsumer)
}

// HubConfig configures a Hub.
type HubConfig struct {
	// Buffer is the number of frames queued per observer. Frames arriving
	// for a full queue are dropped for that observer only.
	Buffer int
	// WriteTimeout bounds a single frame write.
	WriteTimeout time.Duration
	// PingInterval is how often idle connections are pinged.
	PingInterval time.Duration
	// AllowedOrigins restricts the Origin header. Empty or "*" allows any.
	AllowedOrigins []string
}

// DefaultHubConfig returns the default hub settings.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		Buffer:       64,
		WriteTimeout: 5 * time.Second,
		PingInterval: 30 * time.Second,
	}
}

// Hub accepts observer connections and registers each one on the event bus
// for as long as it stays connected. Observers connected when a mutation
// happens receive its frame; observers that connect later do not.
type Hub struct {
	bus      Registrar
	cfg      HubConfig
	upgrader websocket.Upgrader
	logger   *slog.Logger
	metrics  observability.Metrics

	mu     sync.Mutex
	conns  map[*connection]struct{}
	closed bool
}

// NewHub creates a hub that registers observers on bus.
func NewHub(bus Registrar, cfg HubConfig, logger *slog.Logger, metrics observability.Metrics) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	defaults := DefaultHubConfig()
	if cfg.Buffer <= 0 {
		cfg.Buffer = defaults.Buffer
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaults.WriteTimeout
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = defaults.PingInterval
	}

	h := &Hub{
		bus:     bus,
		cfg:     cfg,
		logger:  logger.With("component", "realtime"),
		metrics: metrics,
		conns:   make(map[*connection]struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// ServeHTTP upgrades the request and streams frames until the observer
// disconnects or the hub is closed. The connection is on the bus before the
// handshake response is written, so a client whose Dial has returned receives
// every later mutation.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c := newConnection(h)
	registered := h.add(c)

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		if registered {
			h.remove(c)
		}
		// Upgrade has already replied to the client.
		h.logger.DebugContext(r.Context(), "websocket upgrade failed", "error", err)
		return
	}

	if !registered {
		_ = ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(h.cfg.WriteTimeout))
		_ = ws.Close()
		return
	}
	c.ws = ws

	h.logger.InfoContext(r.Context(), "observer connected",
		"observer_id", c.id,
		"remote_addr", r.RemoteAddr,
	)

	go c.writeLoop()
	c.readLoop()

	h.remove(c)
	h.logger.Info("observer disconnected", "observer_id", c.id)
}

// Count returns the number of connected observers.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Close disconnects every observer and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	conns := make([]*connection, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		c.stop()
	}
}

func (h *Hub) add(c *connection) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.conns[c] = struct{}{}
	h.bus.RegisterConsumer(c)
	h.metrics.Gauge(observability.MetricObserversConnected, float64(len(h.conns)))
	return true
}

func (h *Hub) remove(c *connection) {
	h.mu.Lock()
	if _, ok := h.conns[c]; ok {
		delete(h.conns, c)
		h.bus.UnregisterConsumer(c)
		h.metrics.Gauge(observability.MetricObserversConnected, float64(len(h.conns)))
	}
	h.mu.Unlock()
	c.stop()
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.cfg.AllowedOrigins) == 0 || slices.Contains(h.cfg.AllowedOrigins, "*") {
		return true
	}
	return slices.Contains(h.cfg.AllowedOrigins, origin)
}
