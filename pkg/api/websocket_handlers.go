package api

import (
	"errors"
	"fmt"
	"sync"
	"syscall"
	"time"

	"github.com/gofiber/contrib/websocket"
	customlog "github.com/open-teleop/follower/pkg/log"
	"github.com/open-teleop/follower/pkg/orientation"
)

const writeTimeout = time.Second

// Client is the part of a websocket connection the hub writes to
type Client interface {
	WriteJSON(v interface{}) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Hub broadcasts applied orientations to every connected websocket client
type Hub struct {
	mu      sync.Mutex
	clients map[Client]struct{}
	logger  customlog.Logger
}

// NewHub creates an empty hub
func NewHub(logger customlog.Logger) *Hub {
	return &Hub{
		clients: make(map[Client]struct{}),
		logger:  logger,
	}
}

// Register adds a client
func (h *Hub) Register(c Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

// Unregister removes a client
func (h *Hub) Unregister(c Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
}

// Count returns the number of connected clients
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast sends u to all clients. A client that fails is closed and
// dropped; the others still receive the update. The returned error joins
// every client failure.
func (h *Hub) Broadcast(u *orientation.Update) error {
	msg := NewOrientationMessage(u)

	h.mu.Lock()
	defer h.mu.Unlock()

	var errs []error
	for c := range h.clients {
		err := c.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err == nil {
			err = c.WriteJSON(msg)
		}
		if err != nil {
			h.logger.Warnf("Dropping orientation WebSocket client: %v", err)
			delete(h.clients, c)
			c.Close()
			errs = append(errs, fmt.Errorf("websocket client dropped: %w", err))
		}
	}
	return errors.Join(errs...)
}

// OrientationWebSocketHandler registers the connection with the hub and
// keeps it open until the client goes away. Incoming messages are ignored.
func OrientationWebSocketHandler(hub *Hub, logger customlog.Logger) func(*websocket.Conn) {
	return func(conn *websocket.Conn) {
		logger.Infof("Orientation WebSocket connected: %s", conn.RemoteAddr())
		hub.Register(conn)
		defer hub.Unregister(conn)

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					logger.Errorf("Orientation WS read error: %v", err)
				} else if err != websocket.ErrCloseSent && !errors.Is(err, syscall.EPIPE) && !errors.Is(err, syscall.ECONNRESET) {
					logger.Infof("Orientation WS connection closed: %v", err)
				}
				break
			}
		}
		logger.Infof("Orientation WebSocket disconnected: %s", conn.RemoteAddr())
	}
}
