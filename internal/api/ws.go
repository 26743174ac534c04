package api

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"tcu-monitor/internal/logging"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub broadcasts live monitor events to every connected dashboard client.
type Hub struct {
	mu     sync.Mutex
	conns  map[*websocket.Conn]bool
	logger *logging.Logger
}

func NewHub(logger *logging.Logger) *Hub {
	return &Hub{
		conns:  make(map[*websocket.Conn]bool),
		logger: logger,
	}
}

func (h *Hub) add(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.conns) >= 50 {
		h.logger.Warnf("Max websocket connections reached, rejecting client")
		_ = conn.Close()
		return
	}
	h.conns[conn] = true
	h.logger.Infof("Websocket client connected (total: %d)", len(h.conns))
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[conn]; ok {
		delete(h.conns, conn)
		_ = conn.Close()
		h.logger.Infof("Websocket client disconnected (remaining: %d)", len(h.conns))
	}
}

// Broadcast sends one JSON event to every client, dropping clients whose
// writes fail.
func (h *Hub) Broadcast(payload interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		if err := conn.WriteJSON(payload); err != nil {
			h.logger.Errorf("Websocket write failed, dropping client: %v", err)
			delete(h.conns, conn)
			_ = conn.Close()
		}
	}
}

// ServeWS upgrades the connection and parks it in the hub. The read loop
// only exists to notice the client going away.
func (h *Hub) ServeWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Errorf("Websocket upgrade failed: %v", err)
		return
	}
	h.add(conn)
	go func() {
		defer h.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
