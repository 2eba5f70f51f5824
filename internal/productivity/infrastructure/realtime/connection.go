package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/felixgeelhaar/taskboard/internal/productivity/application/observer"
	"github.com/felixgeelhaar/taskboard/internal/productivity/domain/task"
	"github.com/felixgeelhaar/taskboard/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/taskboard/pkg/observability"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// maxMessageSize bounds what an observer may send; observers only listen.
const maxMessageSize = 512

// connection is one observer. It is registered on the bus as a consumer and
// hands frames to its writer without ever blocking the publisher. Frames
// queue in send until ws is attached and the write loop starts.
type connection struct {
	id   string
	hub  *Hub
	ws   *websocket.Conn // set once the handshake succeeds, before writeLoop
	send chan observer.Frame

	done     chan struct{}
	stopOnce sync.Once
}

func newConnection(h *Hub) *connection {
	return &connection{
		id:   uuid.NewString(),
		hub:  h,
		send: make(chan observer.Frame, h.cfg.Buffer),
		done: make(chan struct{}),
	}
}

// EventTypes implements eventbus.EventConsumer.
func (c *connection) EventTypes() []string {
	return task.RoutingKeys
}

// Handle implements eventbus.EventConsumer.
func (c *connection) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	frame, err := FrameFromEvent(event)
	if err != nil {
		return err
	}

	select {
	case <-c.done:
		return nil
	default:
	}

	select {
	case c.send <- frame:
	default:
		c.hub.metrics.Counter(observability.MetricEventsDropped, 1, observability.T("consumer", "websocket"))
		c.hub.logger.Warn("observer too slow, dropping frame",
			"observer_id", c.id,
			"event", frame.Event,
			"task_id", frame.TaskID(),
		)
	}
	return nil
}

func (c *connection) stop() {
	c.stopOnce.Do(func() { close(c.done) })
}

// writeLoop is the only goroutine writing data frames to the socket.
func (c *connection) writeLoop() {
	ticker := time.NewTicker(c.hub.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(c.hub.cfg.WriteTimeout))
			return

		case frame := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteTimeout))
			if err := c.ws.WriteJSON(frame); err != nil {
				c.hub.logger.Debug("observer write failed", "observer_id", c.id, "error", err)
				c.stop()
				return
			}

		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.hub.cfg.WriteTimeout)); err != nil {
				c.stop()
				return
			}
		}
	}
}

// readLoop discards incoming messages and returns once the observer goes
// away or stops answering pings.
func (c *connection) readLoop() {
	pongWait := 2 * c.hub.cfg.PingInterval
	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			return
		}
	}
}
